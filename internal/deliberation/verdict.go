package deliberation

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/witanworks/witan/pkg/models"
)

// buildVerdict computes the final disposition from the terminal
// tensions, the escalation answers, and the standing verdicts.
//
// Precedence: an unanswered escalation leaves the proposal escalated;
// a human rejection rejects it; a human acceptance clears every
// escalated conflict and approves; with no escalations a standing
// BLOCK rejects; otherwise the council approves.
func (s *Session) buildVerdict() *models.Verdict {
	tallies := make(map[models.Rating]int, len(s.state.AgentResponses))
	for _, r := range s.state.AgentResponses {
		tallies[r.Rating]++
	}

	var resolved, escalated []*models.Tension
	for _, t := range s.terminal {
		switch t.Status {
		case models.TensionResolved:
			resolved = append(resolved, t)
		case models.TensionEscalated:
			escalated = append(escalated, t)
		}
	}
	sort.SliceStable(resolved, func(i, j int) bool { return resolved[i].Priority < resolved[j].Priority })
	sort.SliceStable(escalated, func(i, j int) bool { return escalated[i].Priority < escalated[j].Priority })

	outcome := s.outcome(escalated, tallies)
	v := &models.Verdict{
		ProposalID:        s.id,
		Outcome:           outcome,
		Tallies:           tallies,
		ResolvedTensions:  resolved,
		EscalatedTensions: escalated,
		Summary:           s.summarize(outcome, resolved, escalated, tallies),
		DecidedAt:         time.Now().UTC(),
	}
	if s.tracker != nil {
		in, out := s.tracker.Total()
		v.TokensUsed = in + out
		v.Cost = s.tracker.Cost()
	}
	return v
}

// outcome applies the disposition precedence.
func (s *Session) outcome(escalated []*models.Tension, tallies map[models.Rating]int) models.Outcome {
	var unanswered, rejected, accepted bool
	for _, t := range escalated {
		a, ok := s.answers[t.ProtocolID]
		switch {
		case !ok || a.Source == AnswerSourceTimeout:
			unanswered = true
		case a.Accept:
			accepted = true
		default:
			rejected = true
		}
	}
	switch {
	case unanswered:
		return models.OutcomeEscalated
	case rejected:
		return models.OutcomeRejected
	case accepted:
		// A human saw the conflicts and cleared them.
		return models.OutcomeApproved
	case tallies[models.RatingBlock] > 0:
		return models.OutcomeRejected
	default:
		return models.OutcomeApproved
	}
}

// summarize renders a one-line human account of the verdict.
func (s *Session) summarize(outcome models.Outcome, resolved, escalated []*models.Tension, tallies map[models.Rating]int) string {
	var b strings.Builder
	switch outcome {
	case models.OutcomeApproved:
		fmt.Fprintf(&b, "Council approves (%s)", tallyLine(tallies))
	case models.OutcomeRejected:
		fmt.Fprintf(&b, "Council rejects (%s)", tallyLine(tallies))
	case models.OutcomeEscalated:
		fmt.Fprintf(&b, "Council is blocked on a human decision (%s)", tallyLine(tallies))
	}
	if n := len(resolved); n > 0 {
		fmt.Fprintf(&b, "; %d tension%s resolved", n, plural(n))
	}
	if len(escalated) > 0 {
		var accepted, rejected, unanswered int
		for _, t := range escalated {
			a, ok := s.answers[t.ProtocolID]
			switch {
			case !ok || a.Source == AnswerSourceTimeout:
				unanswered++
			case a.Accept:
				accepted++
			default:
				rejected++
			}
		}
		fmt.Fprintf(&b, "; %d escalation%s", len(escalated), plural(len(escalated)))
		if accepted > 0 {
			fmt.Fprintf(&b, ", %d accepted", accepted)
		}
		if rejected > 0 {
			fmt.Fprintf(&b, ", %d rejected", rejected)
		}
		if unanswered > 0 {
			fmt.Fprintf(&b, ", %d unanswered", unanswered)
		}
	}
	return b.String()
}

// tallyLine renders the rating counts in severity order.
func tallyLine(tallies map[models.Rating]int) string {
	order := []models.Rating{models.RatingEndorse, models.RatingAccept, models.RatingWarn, models.RatingBlock}
	parts := make([]string, 0, len(order))
	for _, r := range order {
		if n := tallies[r]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, r))
		}
	}
	if len(parts) == 0 {
		return "no responses"
	}
	return strings.Join(parts, ", ")
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
