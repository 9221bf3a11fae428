package models

import "time"

// AgentResponse is one council member's complete answer for a
// consultation round. Responses are read-only once recorded; a
// re-consultation replaces the entry rather than editing it.
type AgentResponse struct {
	// AgentID identifies the responding council member.
	AgentID string `json:"agent_id"`
	// Rating is the member's verdict.
	Rating Rating `json:"rating"`
	// Confidence is the member's self-reported certainty in [0, 1].
	Confidence float64 `json:"confidence"`
	// Reasoning is the member's free-text justification.
	Reasoning string `json:"reasoning"`
	// Model is the model that produced this response, if any.
	Model string `json:"model,omitempty"`
	// ReceivedAt is when the response was recorded.
	ReceivedAt time.Time `json:"received_at"`
}
