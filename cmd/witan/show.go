package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/witanworks/witan/internal/state"
)

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one deliberation in full",
	Long: `Show the full record of one deliberation: every member verdict
by round, every detected tension, and the final outcome.

The ID may be abbreviated to any unique prefix; 'witan history' lists
the short forms.`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func runShow(cmd *cobra.Command, args []string) error {
	db, err := openHistoryDB()
	if err != nil {
		return err
	}
	if db == nil {
		fmt.Println("No deliberations recorded. Run 'witan deliberate <proposal>' to start.")
		return nil
	}
	defer db.Close()

	d, err := findDeliberation(db, args[0])
	if err != nil {
		return err
	}

	displayDeliberationHeader(d)

	responses, err := db.ListResponses(d.ID)
	if err != nil {
		return fmt.Errorf("list responses: %w", err)
	}
	displayResponses(responses)

	rows, err := db.ListTensions(d.ID)
	if err != nil {
		return fmt.Errorf("list tensions: %w", err)
	}
	displayTensions(rows)

	return nil
}

// findDeliberation resolves an exact ID or a unique ID prefix.
func findDeliberation(db *state.DB, id string) (*state.Deliberation, error) {
	d, err := db.GetDeliberation(id)
	if err != nil {
		return nil, fmt.Errorf("get deliberation: %w", err)
	}
	if d != nil {
		return d, nil
	}

	all, err := db.ListDeliberations(nil)
	if err != nil {
		return nil, fmt.Errorf("list deliberations: %w", err)
	}
	var match *state.Deliberation
	for i := range all {
		if strings.HasPrefix(all[i].ID, id) {
			if match != nil {
				return nil, fmt.Errorf("ambiguous ID prefix %q", id)
			}
			match = &all[i]
		}
	}
	if match == nil {
		return nil, fmt.Errorf("no deliberation %q", id)
	}
	return match, nil
}

func displayDeliberationHeader(d *state.Deliberation) {
	fmt.Printf("Deliberation %s\n", d.ID)
	fmt.Printf("  Proposal: %s\n", d.Proposal)
	fmt.Printf("  Tier:     %s\n", d.Tier)
	fmt.Printf("  Status:   %s\n", d.Status)
	if d.Outcome != "" {
		fmt.Printf("  Outcome:  %s\n", colorDisposition(d.Outcome))
	}
	if d.Summary != "" {
		fmt.Printf("  Summary:  %s\n", d.Summary)
	}
	fmt.Printf("  Started:  %s\n", d.StartedAt.Local().Format("2006-01-02 15:04:05"))
	if d.DecidedAt != nil {
		fmt.Printf("  Decided:  %s (%s)\n",
			d.DecidedAt.Local().Format("2006-01-02 15:04:05"),
			formatDuration(d.DecidedAt.Sub(d.StartedAt)))
	}
	if d.TokensUsed > 0 {
		fmt.Printf("  Tokens:   %s ($%.4f)\n", formatNumber(d.TokensUsed), d.Cost)
	}
}

func displayResponses(responses []state.Response) {
	if len(responses) == 0 {
		return
	}

	fmt.Println()
	fmt.Println("Verdicts:")
	round := -1
	for _, r := range responses {
		if r.Round != round {
			round = r.Round
			fmt.Printf("  Round %d:\n", round)
		}
		fmt.Printf("    %-12s %-8s %.2f  %s\n",
			r.AgentID, r.Rating, r.Confidence, truncateText(r.Reasoning, 56))
	}
}

func displayTensions(rows []state.TensionRow) {
	if len(rows) == 0 {
		return
	}

	fmt.Println()
	fmt.Println("Tensions:")
	for _, t := range rows {
		passes := ""
		if t.Iterations > 0 {
			passes = fmt.Sprintf(" after %d/%d passes", t.Iterations, t.MaxIterations)
		}
		fmt.Printf("  %-22s %s%s\n", t.ProtocolID, t.Status, passes)
		fmt.Printf("    trigger: %s\n", t.TriggerReason)
		if t.Resolution != "" {
			fmt.Printf("    outcome: %s\n", truncateText(t.Resolution, 70))
		}
	}
}
