// Package tensions detects conflicts between council member verdicts
// and drives each one through a bounded number of resolution passes
// before escalating to a human. The engine is synchronous and performs
// no I/O; callers own the DecisionState and serialize access to it.
package tensions

import (
	"errors"
	"fmt"
	"time"

	"github.com/witanworks/witan/pkg/models"
)

// ErrBadConfig is returned when a protocol configuration fails
// validation. Construction fails fast; a misconfigured protocol must
// never reach detection.
var ErrBadConfig = errors.New("invalid protocol config")

// Protocol is one conflict rule: it knows how to recognize a specific
// disagreement between council verdicts and how to advance a tension
// it previously detected.
type Protocol interface {
	// ID returns the protocol identifier recorded on detected tensions.
	ID() string
	// Priority returns the resolution urgency. Lower is more urgent.
	Priority() int
	// Detect inspects the state and returns a fresh Tension when the
	// trigger condition holds. It returns nil when the condition does
	// not hold or when a required response is missing; absence is the
	// steady state, not an error.
	Detect(state *models.DecisionState) *models.Tension
	// Resolve runs exactly one resolution pass against the tension,
	// updating its status and counters in place, and returns the
	// state. It never rewrites AgentResponses.
	Resolve(state *models.DecisionState, tension *models.Tension) *models.DecisionState
}

// Config bundles the construction parameters shared by every protocol.
type Config struct {
	// ProtocolID is the stable identifier for this rule.
	ProtocolID string
	// AgentA is the first member the rule watches.
	AgentA string
	// AgentB is the counterpart member, or models.AllMembers for rules
	// that weigh one member against the whole council.
	AgentB string
	// MaxIterations bounds resolution passes; 0 escalates on the first
	// resolve call.
	MaxIterations int
	// Priority orders competing tensions; lower resolves first.
	Priority int
	// Triggers holds named threshold values carried into logs and
	// audit records. The detect predicates are authoritative; these
	// document them.
	Triggers map[string]float64
}

// Validate checks the mandatory fields.
func (c *Config) Validate() error {
	if c.ProtocolID == "" {
		return fmt.Errorf("%w: protocol id is empty", ErrBadConfig)
	}
	if c.AgentA == "" {
		return fmt.Errorf("%w: %s: agent_a is empty", ErrBadConfig, c.ProtocolID)
	}
	if c.AgentB == "" {
		return fmt.Errorf("%w: %s: agent_b is empty", ErrBadConfig, c.ProtocolID)
	}
	if c.MaxIterations < 0 {
		return fmt.Errorf("%w: %s: max_iterations is negative", ErrBadConfig, c.ProtocolID)
	}
	return nil
}

// base carries the identity accessors and the standard resolution
// mechanics every protocol embeds.
type base struct {
	cfg Config
}

func newBase(cfg Config) (base, error) {
	if err := cfg.Validate(); err != nil {
		return base{}, err
	}
	return base{cfg: cfg}, nil
}

// ID returns the protocol identifier.
func (b *base) ID() string { return b.cfg.ProtocolID }

// Priority returns the resolution urgency.
func (b *base) Priority() int { return b.cfg.Priority }

// newTension stamps a fresh active tension with the protocol's
// identity and the given trigger reason.
func (b *base) newTension(reason string) *models.Tension {
	return &models.Tension{
		ProtocolID:    b.cfg.ProtocolID,
		AgentA:        b.cfg.AgentA,
		AgentB:        b.cfg.AgentB,
		Priority:      b.cfg.Priority,
		TriggerReason: reason,
		MaxIterations: b.cfg.MaxIterations,
		Status:        models.TensionActive,
		DetectedAt:    time.Now().UTC(),
	}
}

// step runs the standard bounded resolution pass. A bound of zero
// escalates without touching the counter, so IterationCount never
// passes MaxIterations. Otherwise the pass that brings the count to
// the bound escalates with the given message; earlier passes leave the
// tension resolving with no resolution text.
func (b *base) step(t *models.Tension, exhausted string) {
	if t.MaxIterations <= 0 {
		t.Status = models.TensionEscalated
		t.Resolution = exhausted
		return
	}
	t.IterationCount++
	if t.IterationCount >= t.MaxIterations {
		t.Status = models.TensionEscalated
		t.Resolution = exhausted
		return
	}
	t.Status = models.TensionResolving
}
