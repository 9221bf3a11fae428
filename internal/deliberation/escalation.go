package deliberation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/witanworks/witan/pkg/models"
)

// AnswerSource identifies where an escalation answer came from.
type AnswerSource string

const (
	// AnswerSourceOperator is an answer given interactively, through
	// the TUI or the answer command.
	AnswerSourceOperator AnswerSource = "operator"
	// AnswerSourceFile is an answer dropped into the escalations directory.
	AnswerSourceFile AnswerSource = "file"
	// AnswerSourceAuto is an answer synthesized by the auto-accept option.
	AnswerSourceAuto AnswerSource = "auto"
	// AnswerSourceTimeout marks an escalation nobody answered in time.
	// The tension stays escalated and the verdict reflects it.
	AnswerSourceTimeout AnswerSource = "timeout"
)

// Answer is a human decision on one escalated tension.
type Answer struct {
	// Accept is true when the human clears the conflict and lets the
	// proposal proceed over it.
	Accept bool
	// Rationale is the human's stated reason, if any.
	Rationale string
	// Source identifies where the answer came from.
	Source AnswerSource
	// Timestamp is when the answer was given.
	Timestamp time.Time
}

// EscalationRequest carries the material a human needs to adjudicate
// one escalated tension.
type EscalationRequest struct {
	// Tension is the escalated record, terminal and awaiting an answer.
	Tension *models.Tension
	// Responses are the latest verdicts of the tension's parties.
	Responses []models.AgentResponse
}

// EscalationHandler blocks a session on a human answer when a tension
// escalates. One escalation is in flight at a time; answers arrive
// through Respond from whatever surface the human is on.
type EscalationHandler struct {
	mu             sync.RWMutex
	hasEscalation  bool
	currentRequest *EscalationRequest
	responseCh     chan *Answer
	timeout        time.Duration
}

// NewEscalationHandler creates a handler with the given answer timeout.
// A non-positive timeout falls back to ten minutes.
func NewEscalationHandler(timeout time.Duration) *EscalationHandler {
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	return &EscalationHandler{
		responseCh: make(chan *Answer, 1),
		timeout:    timeout,
	}
}

// Await blocks until the escalation is answered, the timeout expires,
// or the context is cancelled. A timeout is not an error: it returns
// an Answer with AnswerSourceTimeout so the caller can record the
// escalation as unanswered.
func (h *EscalationHandler) Await(ctx context.Context, req *EscalationRequest) (*Answer, error) {
	h.mu.Lock()
	if h.hasEscalation {
		h.mu.Unlock()
		return nil, fmt.Errorf("escalation already in progress")
	}
	h.hasEscalation = true
	h.currentRequest = req
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		h.hasEscalation = false
		h.currentRequest = nil
		h.mu.Unlock()
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case answer := <-h.responseCh:
		return answer, nil
	case <-time.After(h.timeout):
		return &Answer{
			Accept:    false,
			Rationale: fmt.Sprintf("no answer within %s", h.timeout),
			Source:    AnswerSourceTimeout,
			Timestamp: time.Now().UTC(),
		}, nil
	}
}

// Respond sends an answer to the waiting escalation.
// This is called by the TUI or CLI when the human decides.
func (h *EscalationHandler) Respond(answer *Answer) error {
	h.mu.RLock()
	if !h.hasEscalation {
		h.mu.RUnlock()
		return fmt.Errorf("no escalation in progress")
	}
	h.mu.RUnlock()

	select {
	case h.responseCh <- answer:
		return nil
	default:
		return fmt.Errorf("escalation already answered")
	}
}

// Current returns the escalation awaiting an answer, or nil.
func (h *EscalationHandler) Current() *EscalationRequest {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.currentRequest
}

// Active returns true while an escalation is awaiting its answer.
func (h *EscalationHandler) Active() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.hasEscalation
}
