package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/witanworks/witan/internal/state"
)

var (
	historyStatus string
	historyLimit  int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past deliberations",
	Long: `List the deliberations recorded in this project.

Shows the most recent deliberations with their outcome, tier, age,
and proposal. Use 'witan show <id>' for the full record of one.`,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().StringVar(&historyStatus, "status", "", "Filter by status: active, decided, or abandoned")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 10, "Maximum number of deliberations to show")
}

func runHistory(cmd *cobra.Command, args []string) error {
	db, err := openHistoryDB()
	if err != nil {
		return err
	}
	if db == nil {
		fmt.Println("No deliberations recorded. Run 'witan deliberate <proposal>' to start.")
		return nil
	}
	defer db.Close()

	var filter *state.DeliberationStatus
	if historyStatus != "" {
		s := state.DeliberationStatus(historyStatus)
		switch s {
		case state.DeliberationActive, state.DeliberationDecided, state.DeliberationAbandoned:
		default:
			return fmt.Errorf("invalid status %q: must be active, decided, or abandoned", historyStatus)
		}
		filter = &s
	}

	deliberations, err := db.ListDeliberations(filter)
	if err != nil {
		return fmt.Errorf("list deliberations: %w", err)
	}
	if len(deliberations) == 0 {
		fmt.Println("No deliberations recorded. Run 'witan deliberate <proposal>' to start.")
		return nil
	}

	for i, d := range deliberations {
		if historyLimit > 0 && i >= historyLimit {
			fmt.Printf("  ... and %d more (use --limit to see them)\n", len(deliberations)-i)
			break
		}
		displayDeliberation(d)
	}
	return nil
}

// openHistoryDB opens the project state database, migrating it to the
// current schema. Returns nil without error when no database exists.
func openHistoryDB() (*state.DB, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("get working directory: %w", err)
	}

	dbPath := state.ProjectDBPath(cwd)
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return nil, nil
	}

	db, err := state.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return db, nil
}

func displayDeliberation(d state.Deliberation) {
	disposition := d.Outcome
	if disposition == "" {
		disposition = string(d.Status)
	}

	fmt.Printf("  %s  %s %-8s %6s ago  %s\n",
		shortID(d.ID),
		colorDisposition(disposition),
		d.Tier,
		formatDuration(time.Since(d.StartedAt)),
		truncateText(d.Proposal, 48))
}

// colorDisposition renders an outcome or status in its severity color,
// padded before coloring so the ANSI codes do not break alignment.
func colorDisposition(disposition string) string {
	padded := fmt.Sprintf("%-10s", disposition)
	switch disposition {
	case "approved":
		return color.GreenString(padded)
	case "rejected":
		return color.RedString(padded)
	case "escalated", "abandoned":
		return color.YellowString(padded)
	default:
		return padded
	}
}

// shortID returns the first eight characters of a deliberation ID.
func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}

// truncateText shortens s to at most maxLen runes, ellipsized.
func truncateText(s string, maxLen int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	if d < 24*time.Hour {
		h := int(d.Hours())
		m := int(d.Minutes()) % 60
		if m > 0 {
			return fmt.Sprintf("%dh%dm", h, m)
		}
		return fmt.Sprintf("%dh", h)
	}
	days := int(d.Hours()) / 24
	return fmt.Sprintf("%dd", days)
}

// formatNumber formats a number with commas.
func formatNumber(n int) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}

	var result strings.Builder
	offset := len(s) % 3
	if offset > 0 {
		result.WriteString(s[:offset])
		if len(s) > offset {
			result.WriteString(",")
		}
	}
	for i := offset; i < len(s); i += 3 {
		result.WriteString(s[i : i+3])
		if i+3 < len(s) {
			result.WriteString(",")
		}
	}
	return result.String()
}
