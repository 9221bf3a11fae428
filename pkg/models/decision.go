package models

import "time"

// DecisionState is the shared record of one proposal's deliberation.
// The deliberation session owns it; the tension engine reads and
// mutates it only through explicit calls and keeps no reference
// between calls.
type DecisionState struct {
	// ProposalID identifies the deliberation.
	ProposalID string `json:"proposal_id"`
	// Proposal is the text under review.
	Proposal string `json:"proposal"`
	// AgentResponses maps member ID to that member's latest response.
	// A missing key means the member has not responded this round.
	AgentResponses map[string]AgentResponse `json:"agent_responses"`
	// ActiveTensions holds live tensions in priority order, most
	// urgent first. At most one entry per protocol.
	ActiveTensions []*Tension `json:"active_tensions"`
	// Round counts consultation rounds completed.
	Round int `json:"round"`
}

// NewDecisionState returns an empty state for the given proposal.
func NewDecisionState(proposalID, proposal string) *DecisionState {
	return &DecisionState{
		ProposalID:     proposalID,
		Proposal:       proposal,
		AgentResponses: make(map[string]AgentResponse),
	}
}

// Response returns the latest response from the given member.
func (s *DecisionState) Response(agentID string) (AgentResponse, bool) {
	r, ok := s.AgentResponses[agentID]
	return r, ok
}

// Outcome is the final disposition of a deliberation.
type Outcome string

const (
	// OutcomeApproved indicates the council cleared the proposal.
	OutcomeApproved Outcome = "approved"
	// OutcomeRejected indicates a standing block or a human rejection.
	OutcomeRejected Outcome = "rejected"
	// OutcomeEscalated indicates escalations remain unanswered.
	OutcomeEscalated Outcome = "escalated"
)

// Valid returns true if the outcome is a known value.
func (o Outcome) Valid() bool {
	switch o {
	case OutcomeApproved, OutcomeRejected, OutcomeEscalated:
		return true
	default:
		return false
	}
}

// Verdict summarizes a finished deliberation.
type Verdict struct {
	// ProposalID identifies the deliberation this verdict closes.
	ProposalID string `json:"proposal_id"`
	// Outcome is the final disposition.
	Outcome Outcome `json:"outcome"`
	// Tallies counts the final rating of each responding member.
	Tallies map[Rating]int `json:"tallies"`
	// ResolvedTensions lists tensions settled without escalation.
	ResolvedTensions []*Tension `json:"resolved_tensions,omitempty"`
	// EscalatedTensions lists tensions that reached a human.
	EscalatedTensions []*Tension `json:"escalated_tensions,omitempty"`
	// Summary is a short human-readable account of the outcome.
	Summary string `json:"summary"`
	// TokensUsed is the total tokens consumed across consultations.
	TokensUsed int64 `json:"tokens_used"`
	// Cost is the estimated API cost in dollars.
	Cost float64 `json:"cost"`
	// DecidedAt is when the verdict was reached.
	DecidedAt time.Time `json:"decided_at"`
}
