// Package deliberation runs one proposal through the full council
// process and produces a verdict.
//
// The deliberation package provides functionality for:
//   - Convening: consulting every council member on the proposal in parallel
//   - Tension handling: detecting verdict conflicts and driving bounded
//     re-consultation until each one resolves or escalates
//   - Escalation: blocking on a human answer for conflicts automation
//     may not settle, with a timeout that leaves them unanswered
//
// The Session component owns the DecisionState for its proposal and is
// the only writer; the tension engine, the history store, and the
// archive see the state only through explicit calls. Progress is
// published on an event channel for the TUI or a headless printer.
//
// Example usage:
//
//	session, err := deliberation.NewSession(proposal, deliberation.Options{
//		Roster:     roster,
//		Consultant: consultant,
//		Engine:     engine,
//	})
//	verdict, err := session.Run(ctx)
package deliberation
