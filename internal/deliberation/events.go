package deliberation

import (
	"time"

	"github.com/witanworks/witan/pkg/models"
)

// EventType represents the type of deliberation event.
type EventType string

const (
	// EventPhaseChanged indicates the session moved to a new phase.
	EventPhaseChanged EventType = "phase_changed"
	// EventMemberResponded indicates a council member returned a verdict.
	EventMemberResponded EventType = "member_responded"
	// EventMemberFailed indicates a member consultation failed.
	EventMemberFailed EventType = "member_failed"
	// EventTensionDetected indicates a protocol fired on the current verdicts.
	EventTensionDetected EventType = "tension_detected"
	// EventTensionResolving indicates a tension spent a resolution pass
	// without reaching a terminal state.
	EventTensionResolving EventType = "tension_resolving"
	// EventTensionResolved indicates a tension settled without escalation.
	EventTensionResolved EventType = "tension_resolved"
	// EventTensionEscalated indicates automated resolution is exhausted.
	EventTensionEscalated EventType = "tension_escalated"
	// EventEscalationRequested indicates the session is blocked on a human answer.
	EventEscalationRequested EventType = "escalation_requested"
	// EventEscalationAnswered indicates an escalation received its answer.
	EventEscalationAnswered EventType = "escalation_answered"
	// EventUsageProgress provides periodic token and cost totals.
	EventUsageProgress EventType = "usage_progress"
	// EventDeliberationDone indicates the verdict is reached.
	EventDeliberationDone EventType = "deliberation_done"
)

// Event represents one step of a running deliberation.
// These events are used to update the TUI and track progress.
type Event struct {
	// Type is the kind of event.
	Type EventType
	// DeliberationID identifies the session that emitted the event.
	DeliberationID string
	// AgentID is the ID of the related council member, if applicable.
	AgentID string
	// Rating is the member's verdict for member_responded events.
	Rating models.Rating
	// Confidence is the member's confidence for member_responded events.
	Confidence float64
	// Reasoning is the member's reasoning for member_responded events.
	Reasoning string
	// Round is the consultation round the event belongs to.
	Round int
	// Outcome is the final disposition, set on deliberation_done.
	Outcome models.Outcome
	// Tension is the related tension record, if applicable.
	Tension *models.Tension
	// Message provides additional context about the event.
	Message string
	// Error contains error details for failure events.
	Error error
	// Timestamp is when the event occurred.
	Timestamp time.Time
	// TokensUsed is the current total tokens used (for progress events).
	TokensUsed int64
	// Cost is the current total cost (for progress events).
	Cost float64
}
