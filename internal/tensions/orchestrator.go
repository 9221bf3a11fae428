package tensions

import (
	"errors"
	"fmt"
	"sort"

	"github.com/witanworks/witan/pkg/models"
)

// ErrUnknownProtocol is returned when the head of the active list
// names a protocol that is not registered. The state is left
// untouched; callers log it and stop or skip, they never crash on it.
var ErrUnknownProtocol = errors.New("unknown protocol")

// Orchestrator owns the protocol set and runs detection and one-step
// resolution over a DecisionState. It keeps no state of its own
// between calls and is safe to reuse across deliberations as long as
// each DecisionState is driven from a single goroutine.
type Orchestrator struct {
	protocols []Protocol
	byID      map[string]Protocol
}

// NewOrchestrator registers the given protocols. Registration order
// carries no meaning: the set is sorted by priority here and every
// detection pass sorts its results again. Duplicate or nil protocols
// are construction errors.
func NewOrchestrator(protocols ...Protocol) (*Orchestrator, error) {
	if len(protocols) == 0 {
		return nil, fmt.Errorf("%w: no protocols registered", ErrBadConfig)
	}
	byID := make(map[string]Protocol, len(protocols))
	ordered := make([]Protocol, 0, len(protocols))
	for _, p := range protocols {
		if p == nil {
			return nil, fmt.Errorf("%w: nil protocol", ErrBadConfig)
		}
		if _, dup := byID[p.ID()]; dup {
			return nil, fmt.Errorf("%w: duplicate protocol %q", ErrBadConfig, p.ID())
		}
		byID[p.ID()] = p
		ordered = append(ordered, p)
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority() < ordered[j].Priority()
	})
	return &Orchestrator{protocols: ordered, byID: byID}, nil
}

// NewDefaultOrchestrator registers the five standard protocols.
func NewDefaultOrchestrator() (*Orchestrator, error) {
	protocols, err := DefaultProtocols()
	if err != nil {
		return nil, err
	}
	return NewOrchestrator(protocols...)
}

// Protocols returns the registered protocols in priority order.
func (o *Orchestrator) Protocols() []Protocol {
	out := make([]Protocol, len(o.protocols))
	copy(out, o.protocols)
	return out
}

// DetectTensions runs every protocol's Detect against the same state
// snapshot and returns the firing tensions sorted by priority, most
// urgent first. Protocols are independent: one firing never suppresses
// another. The active list is not modified; merge the result with
// MergeDetected.
func (o *Orchestrator) DetectTensions(state *models.DecisionState) []*models.Tension {
	var detected []*models.Tension
	for _, p := range o.protocols {
		if t := p.Detect(state); t != nil {
			detected = append(detected, t)
		}
	}
	sort.SliceStable(detected, func(i, j int) bool {
		return detected[i].Priority < detected[j].Priority
	})
	return detected
}

// MergeDetected folds newly detected tensions into the active set,
// keeping at most one live tension per protocol: a protocol that
// already has an entry in the active list is skipped, so a conflict
// that keeps firing across consultation rounds accumulates iterations
// on one record instead of spawning duplicates. The active list is
// re-sorted by priority. Returns the number of tensions added.
func (o *Orchestrator) MergeDetected(state *models.DecisionState, detected []*models.Tension) int {
	live := make(map[string]bool, len(state.ActiveTensions))
	for _, t := range state.ActiveTensions {
		live[t.ProtocolID] = true
	}
	added := 0
	for _, t := range detected {
		if t == nil || live[t.ProtocolID] {
			continue
		}
		state.ActiveTensions = append(state.ActiveTensions, t)
		live[t.ProtocolID] = true
		added++
	}
	sort.SliceStable(state.ActiveTensions, func(i, j int) bool {
		return state.ActiveTensions[i].Priority < state.ActiveTensions[j].Priority
	})
	return added
}

// ResolveNextTension runs one resolution pass on the most urgent
// active tension. With an empty active list it is a no-op returning
// the state unchanged. A tension whose status turns terminal is
// removed from the active list; otherwise the mutated record stays at
// the head. Resolution is strictly one tension per call so callers can
// interleave re-consultation between passes.
func (o *Orchestrator) ResolveNextTension(state *models.DecisionState) (*models.DecisionState, error) {
	if state == nil || len(state.ActiveTensions) == 0 {
		return state, nil
	}
	next := state.ActiveTensions[0]
	p, ok := o.byID[next.ProtocolID]
	if !ok {
		return state, fmt.Errorf("%w: %q", ErrUnknownProtocol, next.ProtocolID)
	}
	state = p.Resolve(state, next)
	if next.Status.Terminal() {
		state.ActiveTensions = state.ActiveTensions[1:]
	}
	return state, nil
}

// EscalatedTensions returns the active tensions whose status is
// escalated, and only those; a requires_escalation tension still
// awaiting its resolve call is not included. Pure read.
func (o *Orchestrator) EscalatedTensions(state *models.DecisionState) []*models.Tension {
	var out []*models.Tension
	for _, t := range state.ActiveTensions {
		if t.Status == models.TensionEscalated {
			out = append(out, t)
		}
	}
	return out
}
