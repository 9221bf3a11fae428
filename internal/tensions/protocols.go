package tensions

import (
	"fmt"
	"strings"

	"github.com/witanworks/witan/pkg/models"
)

// Protocol IDs. Tensions reference their protocol by these strings,
// so persisted records stay readable across releases.
const (
	ProtocolLegalEthical         = "jurist_philosopher"
	ProtocolTrustPremium         = "sovereign_economist"
	ProtocolIntegrationCoherence = "ecosystem_architect"
	ProtocolFeasibility          = "operator_strategy"
	ProtocolOptionality          = "futurist_all"
)

// feasibilityKeywords mark operator reasoning as an implementation
// feasibility concern. Matched case-insensitively as substrings.
var feasibilityKeywords = []string{
	"timeline", "resource", "capacity", "impossible", "unrealistic",
}

// optionalityKeywords mark futurist reasoning as a strategic
// optionality concern.
var optionalityKeywords = []string{
	"scenario", "future", "brittle", "fragile", "obsolete",
}

// LegalEthicalProtocol fires when the jurist clears a proposal that
// the philosopher blocks. Legal permission against an ethical veto is
// never resolved automatically: detection marks the tension
// requires_escalation and any resolve call escalates it.
type LegalEthicalProtocol struct {
	base
}

// NewLegalEthicalProtocol constructs the rule from its configuration.
func NewLegalEthicalProtocol(cfg Config) (*LegalEthicalProtocol, error) {
	b, err := newBase(cfg)
	if err != nil {
		return nil, err
	}
	return &LegalEthicalProtocol{base: b}, nil
}

// Detect fires when AgentA approves and AgentB blocks. The direction
// matters: an ethical endorsement of something legally blocked is the
// jurist's tension to raise elsewhere, not this one.
func (p *LegalEthicalProtocol) Detect(state *models.DecisionState) *models.Tension {
	a, ok := state.Response(p.cfg.AgentA)
	if !ok {
		return nil
	}
	b, ok := state.Response(p.cfg.AgentB)
	if !ok {
		return nil
	}
	if !a.Rating.Approving() || b.Rating != models.RatingBlock {
		return nil
	}
	t := p.newTension(fmt.Sprintf(
		"Jurist finds the proposal lawful (%s) while Philosopher blocks on ethical grounds",
		a.Rating))
	t.Status = models.TensionRequiresEscalation
	return t
}

// Resolve escalates unconditionally. With a zero iteration bound the
// counter is never touched.
func (p *LegalEthicalProtocol) Resolve(state *models.DecisionState, t *models.Tension) *models.DecisionState {
	p.step(t, "Legal approval conflicts with ethical veto; automated resolution is not permitted and a human must adjudicate")
	return state
}

// TrustPremiumProtocol fires when the sovereign and the economist
// split at the veto level: one blocks what the other approves. The
// dispute is whether sovereignty is worth its premium, so a few
// re-argued passes are allowed before a human decides.
type TrustPremiumProtocol struct {
	base
}

// NewTrustPremiumProtocol constructs the rule from its configuration.
func NewTrustPremiumProtocol(cfg Config) (*TrustPremiumProtocol, error) {
	b, err := newBase(cfg)
	if err != nil {
		return nil, err
	}
	return &TrustPremiumProtocol{base: b}, nil
}

// Detect fires on a veto-level split in either direction.
func (p *TrustPremiumProtocol) Detect(state *models.DecisionState) *models.Tension {
	a, ok := state.Response(p.cfg.AgentA)
	if !ok {
		return nil
	}
	b, ok := state.Response(p.cfg.AgentB)
	if !ok {
		return nil
	}
	if !RatingsConflict(a.Rating, b.Rating) {
		return nil
	}
	return p.newTension(fmt.Sprintf(
		"Sovereign and Economist split at the veto level: %s vs %s",
		a.Rating, b.Rating))
}

// Resolve runs one bounded pass.
func (p *TrustPremiumProtocol) Resolve(state *models.DecisionState, t *models.Tension) *models.DecisionState {
	p.step(t, "Trust-premium analysis exhausted; sovereignty value and cost could not be reconciled automatically")
	return state
}

// IntegrationCoherenceProtocol fires when the ecosystem and architect
// members split at the veto level: external integration pressure
// against internal structural coherence.
type IntegrationCoherenceProtocol struct {
	base
}

// NewIntegrationCoherenceProtocol constructs the rule from its configuration.
func NewIntegrationCoherenceProtocol(cfg Config) (*IntegrationCoherenceProtocol, error) {
	b, err := newBase(cfg)
	if err != nil {
		return nil, err
	}
	return &IntegrationCoherenceProtocol{base: b}, nil
}

// Detect fires on a veto-level split in either direction.
func (p *IntegrationCoherenceProtocol) Detect(state *models.DecisionState) *models.Tension {
	a, ok := state.Response(p.cfg.AgentA)
	if !ok {
		return nil
	}
	b, ok := state.Response(p.cfg.AgentB)
	if !ok {
		return nil
	}
	if !RatingsConflict(a.Rating, b.Rating) {
		return nil
	}
	return p.newTension(fmt.Sprintf(
		"Ecosystem and Architect disagree at the veto level: %s vs %s",
		a.Rating, b.Rating))
}

// Resolve runs one bounded pass.
func (p *IntegrationCoherenceProtocol) Resolve(state *models.DecisionState, t *models.Tension) *models.DecisionState {
	p.step(t, "Integration conflict unresolved; the standing objection requires economist justification before adoption")
	return state
}

// FeasibilityProtocol fires when the operator objects to the proposal
// on execution grounds: a WARN or BLOCK whose reasoning names a
// delivery constraint. The counterpart is the whole council, since an
// infeasible plan is everyone's problem.
type FeasibilityProtocol struct {
	base
	keywords []string
}

// NewFeasibilityProtocol constructs the rule from its configuration.
// Extra keywords extend the built-in delivery-constraint set.
func NewFeasibilityProtocol(cfg Config, extraKeywords ...string) (*FeasibilityProtocol, error) {
	b, err := newBase(cfg)
	if err != nil {
		return nil, err
	}
	return &FeasibilityProtocol{
		base:     b,
		keywords: appendKeywords(feasibilityKeywords, extraKeywords),
	}, nil
}

// Detect fires when the operator objects and the reasoning names a
// delivery constraint.
func (p *FeasibilityProtocol) Detect(state *models.DecisionState) *models.Tension {
	resp, ok := state.Response(p.cfg.AgentA)
	if !ok {
		return nil
	}
	if !resp.Rating.Objecting() {
		return nil
	}
	kw, hit := matchKeyword(resp.Reasoning, p.keywords)
	if !hit {
		return nil
	}
	return p.newTension(fmt.Sprintf(
		"Operator flags implementation concerns: %s (reasoning names %q)",
		resp.Rating, kw))
}

// Resolve runs one bounded pass.
func (p *FeasibilityProtocol) Resolve(state *models.DecisionState, t *models.Tension) *models.DecisionState {
	p.step(t, "Scope and timeline revision exhausted; the operator's delivery concerns stand and need a human call")
	return state
}

// OptionalityProtocol fires when the futurist objects on long-horizon
// grounds: a WARN or BLOCK whose reasoning names a resilience concern.
// Like the feasibility rule, the counterpart is the whole council.
type OptionalityProtocol struct {
	base
	keywords []string
}

// NewOptionalityProtocol constructs the rule from its configuration.
// Extra keywords extend the built-in resilience set.
func NewOptionalityProtocol(cfg Config, extraKeywords ...string) (*OptionalityProtocol, error) {
	b, err := newBase(cfg)
	if err != nil {
		return nil, err
	}
	return &OptionalityProtocol{
		base:     b,
		keywords: appendKeywords(optionalityKeywords, extraKeywords),
	}, nil
}

// Detect fires when the futurist objects and the reasoning names a
// resilience concern.
func (p *OptionalityProtocol) Detect(state *models.DecisionState) *models.Tension {
	resp, ok := state.Response(p.cfg.AgentA)
	if !ok {
		return nil
	}
	if !resp.Rating.Objecting() {
		return nil
	}
	kw, hit := matchKeyword(resp.Reasoning, p.keywords)
	if !hit {
		return nil
	}
	return p.newTension(fmt.Sprintf(
		"Futurist signals strategic fragility: %s (reasoning names %q)",
		resp.Rating, kw))
}

// Resolve runs one bounded pass.
func (p *OptionalityProtocol) Resolve(state *models.DecisionState, t *models.Tension) *models.DecisionState {
	p.step(t, "Strategic-optionality analysis exhausted; residual long-horizon risk needs a human decision")
	return state
}

// appendKeywords merges extras into the built-in set, lowercased so
// matching stays case-insensitive.
func appendKeywords(builtin, extras []string) []string {
	if len(extras) == 0 {
		return builtin
	}
	merged := make([]string, 0, len(builtin)+len(extras))
	merged = append(merged, builtin...)
	for _, kw := range extras {
		if kw == "" {
			continue
		}
		merged = append(merged, strings.ToLower(kw))
	}
	return merged
}

// New builds the protocol implementation registered for
// cfg.ProtocolID. The protocol set is closed; an unrecognized ID is a
// configuration error.
func New(cfg Config, extraKeywords ...string) (Protocol, error) {
	switch cfg.ProtocolID {
	case ProtocolLegalEthical:
		return NewLegalEthicalProtocol(cfg)
	case ProtocolTrustPremium:
		return NewTrustPremiumProtocol(cfg)
	case ProtocolIntegrationCoherence:
		return NewIntegrationCoherenceProtocol(cfg)
	case ProtocolFeasibility:
		return NewFeasibilityProtocol(cfg, extraKeywords...)
	case ProtocolOptionality:
		return NewOptionalityProtocol(cfg, extraKeywords...)
	default:
		return nil, fmt.Errorf("%w: no implementation for protocol %q", ErrBadConfig, cfg.ProtocolID)
	}
}

// DefaultConfigs returns the standard configuration of the five
// protocols in priority order. Callers may adjust iteration bounds
// before construction; identity fields should be left alone.
func DefaultConfigs() []Config {
	return []Config{
		{
			ProtocolID:    ProtocolLegalEthical,
			AgentA:        models.MemberJurist,
			AgentB:        models.MemberPhilosopher,
			MaxIterations: 0,
			Priority:      0,
			Triggers:      map[string]float64{"legal_approval_vs_ethical_block": 1},
		},
		{
			ProtocolID:    ProtocolTrustPremium,
			AgentA:        models.MemberSovereign,
			AgentB:        models.MemberEconomist,
			MaxIterations: 4,
			Priority:      1,
			Triggers:      map[string]float64{"veto_level_split": 1},
		},
		{
			ProtocolID:    ProtocolIntegrationCoherence,
			AgentA:        models.MemberEcosystem,
			AgentB:        models.MemberArchitect,
			MaxIterations: 3,
			Priority:      2,
			Triggers:      map[string]float64{"veto_level_split": 1},
		},
		{
			ProtocolID:    ProtocolFeasibility,
			AgentA:        models.MemberOperator,
			AgentB:        models.AllMembers,
			MaxIterations: 2,
			Priority:      3,
			Triggers:      map[string]float64{"objection_with_keyword": 1},
		},
		{
			ProtocolID:    ProtocolOptionality,
			AgentA:        models.MemberFuturist,
			AgentB:        models.AllMembers,
			MaxIterations: 3,
			Priority:      4,
			Triggers:      map[string]float64{"objection_with_keyword": 1},
		},
	}
}

// DefaultProtocols constructs the five standard protocols.
func DefaultProtocols() ([]Protocol, error) {
	cfgs := DefaultConfigs()
	protocols := make([]Protocol, 0, len(cfgs))
	for _, cfg := range cfgs {
		p, err := New(cfg)
		if err != nil {
			return nil, fmt.Errorf("construct %s: %w", cfg.ProtocolID, err)
		}
		protocols = append(protocols, p)
	}
	return protocols, nil
}
