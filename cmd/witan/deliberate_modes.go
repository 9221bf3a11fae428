package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"

	"github.com/witanworks/witan/internal/deliberation"
	"github.com/witanworks/witan/pkg/models"
)

// runHeadlessMode drives the session without a TUI, printing events as
// lines. Escalations wait for 'witan answer' from another terminal
// unless --yes-to-escalations or the timeout settles them first.
func runHeadlessMode(ctx context.Context, session *deliberation.Session, proposal string, tier models.Tier, quorum int) error {
	go consumeEventsHeadless(session.Events())

	fmt.Printf("Convening council: %s\n", proposal)
	fmt.Printf("  Tier: %s\n", tier)
	fmt.Printf("  Quorum: %d\n", quorum)
	fmt.Println()

	verdict, err := session.Run(ctx)
	if err != nil {
		return fmt.Errorf("deliberation failed: %w", err)
	}

	printVerdict(verdict)
	return nil
}

// consumeEventsHeadless prints deliberation events to stdout.
func consumeEventsHeadless(events <-chan deliberation.Event) {
	for ev := range events {
		switch ev.Type {
		case deliberation.EventPhaseChanged:
			fmt.Printf("%s %s\n", color.CyanString("[PHASE]"), ev.Message)
		case deliberation.EventMemberResponded:
			fmt.Printf("%s %s rates %s (confidence %.2f)\n",
				color.HiBlackString("[SEAT]"), ev.AgentID, colorRating(ev.Rating), ev.Confidence)
		case deliberation.EventMemberFailed:
			fmt.Printf("%s %s: %v\n", color.RedString("[FAILED]"), ev.AgentID, ev.Error)
		case deliberation.EventTensionDetected:
			fmt.Printf("%s %s: %s\n", color.YellowString("[TENSION]"), ev.Tension.ProtocolID, ev.Message)
		case deliberation.EventTensionResolving:
			fmt.Printf("%s re-consulting parties of %s (pass %d/%d)\n",
				color.YellowString("[RESOLVING]"), ev.Tension.ProtocolID,
				ev.Tension.IterationCount+1, ev.Tension.MaxIterations)
		case deliberation.EventTensionResolved:
			fmt.Printf("%s %s: %s\n", color.GreenString("[RESOLVED]"), ev.Tension.ProtocolID, ev.Message)
		case deliberation.EventTensionEscalated:
			fmt.Printf("%s %s: %s\n", color.YellowString("[EXHAUSTED]"), ev.Tension.ProtocolID, ev.Message)
		case deliberation.EventEscalationRequested:
			fmt.Printf("%s human decision required for %s\n",
				color.MagentaString("[ESCALATE]"), ev.Tension.ProtocolID)
			fmt.Printf("           answer with: witan answer %s --accept (or --reject)\n", ev.Tension.ProtocolID)
		case deliberation.EventEscalationAnswered:
			fmt.Printf("%s %s: %s\n", color.MagentaString("[ANSWERED]"), ev.Tension.ProtocolID, ev.Message)
		case deliberation.EventDeliberationDone:
			fmt.Printf("%s %s\n", color.CyanString("[VERDICT]"), ev.Message)
		}
	}
}

// colorRating renders a rating in the color of its severity.
func colorRating(r models.Rating) string {
	switch r {
	case models.RatingBlock:
		return color.RedString(string(r))
	case models.RatingWarn:
		return color.YellowString(string(r))
	default:
		return color.GreenString(string(r))
	}
}

// printVerdict prints the verdict summary after a deliberation ends.
// The TUI path also calls this once the alt-screen is gone, so the
// outcome survives in the scrollback.
func printVerdict(v *models.Verdict) {
	fmt.Println()
	switch v.Outcome {
	case models.OutcomeApproved:
		fmt.Printf("%s %s\n", color.GreenString("✓"), v.Summary)
	case models.OutcomeRejected:
		fmt.Printf("%s %s\n", color.RedString("✗"), v.Summary)
	default:
		fmt.Printf("%s %s\n", color.YellowString("⚠"), v.Summary)
	}
	if len(v.ResolvedTensions) > 0 {
		fmt.Printf("  Resolved tensions: %d\n", len(v.ResolvedTensions))
	}
	if len(v.EscalatedTensions) > 0 {
		fmt.Printf("  Escalated tensions: %d\n", len(v.EscalatedTensions))
	}
	fmt.Printf("  Tokens: %s  Cost: $%.4f\n", formatNumber(int(v.TokensUsed)), v.Cost)
}
