package models

import "time"

// AllMembers is the sentinel AgentB value for protocols that weigh one
// member's verdict against the whole council rather than a single peer.
const AllMembers = "all"

// TensionStatus represents the lifecycle state of a tension.
type TensionStatus string

const (
	// TensionActive indicates the tension is detected and awaiting resolution.
	TensionActive TensionStatus = "active"
	// TensionResolving indicates at least one resolution pass ran without a terminal outcome.
	TensionResolving TensionStatus = "resolving"
	// TensionEscalated indicates automated resolution is exhausted and a human must decide.
	TensionEscalated TensionStatus = "escalated"
	// TensionResolved indicates the tension settled without escalation.
	TensionResolved TensionStatus = "resolved"
	// TensionRequiresEscalation marks a tension that is never resolvable automatically.
	TensionRequiresEscalation TensionStatus = "requires_escalation"
)

// Valid returns true if the status is a known value.
func (s TensionStatus) Valid() bool {
	switch s {
	case TensionActive, TensionResolving, TensionEscalated,
		TensionResolved, TensionRequiresEscalation:
		return true
	default:
		return false
	}
}

// Terminal returns true once no further resolution attempts may run.
func (s TensionStatus) Terminal() bool {
	return s == TensionEscalated || s == TensionResolved
}

// Tension records one detected conflict between council verdicts and
// tracks it through resolution or escalation.
type Tension struct {
	// ProtocolID names the protocol that detected this tension.
	ProtocolID string `json:"protocol_id"`
	// AgentA is the first party to the conflict.
	AgentA string `json:"agent_a"`
	// AgentB is the second party, or AllMembers for council-wide protocols.
	AgentB string `json:"agent_b"`
	// Priority orders competing tensions; lower resolves first.
	// Fixed at detection, never rewritten.
	Priority int `json:"priority"`
	// TriggerReason is the human-readable account of what fired.
	TriggerReason string `json:"trigger_reason"`
	// IterationCount is the number of resolution passes spent so far.
	IterationCount int `json:"iteration_count"`
	// MaxIterations bounds resolution passes; 0 means escalate immediately.
	MaxIterations int `json:"max_iterations"`
	// Status is the current lifecycle state.
	Status TensionStatus `json:"status"`
	// Resolution describes the terminal outcome; empty until then.
	Resolution string `json:"resolution,omitempty"`
	// DetectedAt is when the protocol fired.
	DetectedAt time.Time `json:"detected_at"`
}
