// Package tui provides the terminal user interface for Witan's deliberate command.
//
// This package contains a mostly read-only TUI that displays deliberation
// progress in real-time. It is used by the deliberate command to show:
//   - Current deliberation phase (convening, detecting, resolving, escalating)
//   - Council seats with their ratings and confidence as responses arrive
//   - Detected tensions and their resolution passes
//   - Activity log with recent events
//   - Token usage and cost
//
// The one interactive surface is the escalation gate: when a tension
// exhausts automated resolution the gate takes over the screen, shows
// both parties' positions, and waits for the operator to accept or
// reject. A rejection asks for a short rationale before submitting.
//
// Usage:
//
//	app := tui.New(proposal, tier, roster.Members())
//	app.SetEvents(session.Events())
//	app.SetRespondFunc(session.RespondEscalation)
//
//	p := tea.NewProgram(app, tea.WithAltScreen())
//	if _, err := p.Run(); err != nil {
//	    return err
//	}
//
// The app pulls events off the session's channel itself; callers only
// need to run the session in a separate goroutine.
package tui
