package tensions

import (
	"strings"
	"testing"
	"time"

	"github.com/witanworks/witan/pkg/models"
)

// testResponse builds a response with the fields the protocols read.
func testResponse(agentID string, rating models.Rating, reasoning string) models.AgentResponse {
	return models.AgentResponse{
		AgentID:    agentID,
		Rating:     rating,
		Confidence: 0.8,
		Reasoning:  reasoning,
		ReceivedAt: time.Now().UTC(),
	}
}

// testState builds a decision state holding the given responses.
func testState(responses ...models.AgentResponse) *models.DecisionState {
	state := models.NewDecisionState("d-test", "test proposal")
	for _, r := range responses {
		state.AgentResponses[r.AgentID] = r
	}
	return state
}

// defaultProtocol constructs the default-configured protocol with the
// given id.
func defaultProtocol(t *testing.T, id string) Protocol {
	t.Helper()
	for _, cfg := range DefaultConfigs() {
		if cfg.ProtocolID == id {
			p, err := New(cfg)
			if err != nil {
				t.Fatalf("New(%s) error = %v", id, err)
			}
			return p
		}
	}
	t.Fatalf("no default config for protocol %q", id)
	return nil
}

func TestDetect_MissingResponsesIsAbsence(t *testing.T) {
	// No protocol may fire, error, or panic when its members have not
	// responded yet.
	protocols, err := DefaultProtocols()
	if err != nil {
		t.Fatalf("DefaultProtocols() error = %v", err)
	}

	empty := testState()
	for _, p := range protocols {
		if got := p.Detect(empty); got != nil {
			t.Errorf("%s: Detect(empty state) = %+v, want nil", p.ID(), got)
		}
	}

	// One side responding is still absence for the paired protocols.
	partial := testState(
		testResponse(models.MemberJurist, models.RatingAccept, ""),
		testResponse(models.MemberSovereign, models.RatingBlock, ""),
		testResponse(models.MemberEcosystem, models.RatingAccept, ""),
	)
	for _, id := range []string{ProtocolLegalEthical, ProtocolTrustPremium, ProtocolIntegrationCoherence} {
		p := defaultProtocol(t, id)
		if got := p.Detect(partial); got != nil {
			t.Errorf("%s: Detect(partial state) = %+v, want nil", id, got)
		}
	}
}

func TestLegalEthicalProtocol_Detect(t *testing.T) {
	p := defaultProtocol(t, ProtocolLegalEthical)

	tests := []struct {
		name        string
		jurist      models.Rating
		philosopher models.Rating
		wantFire    bool
	}{
		{"accept vs block fires", models.RatingAccept, models.RatingBlock, true},
		{"endorse vs block fires", models.RatingEndorse, models.RatingBlock, true},
		{"block vs accept does not fire", models.RatingBlock, models.RatingAccept, false},
		{"accept vs warn does not fire", models.RatingAccept, models.RatingWarn, false},
		{"warn vs block does not fire", models.RatingWarn, models.RatingBlock, false},
		{"both accept does not fire", models.RatingAccept, models.RatingAccept, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := testState(
				testResponse(models.MemberJurist, tt.jurist, "statutes are satisfied"),
				testResponse(models.MemberPhilosopher, tt.philosopher, "dignity concerns"),
			)
			tension := p.Detect(state)
			if (tension != nil) != tt.wantFire {
				t.Fatalf("Detect() fired = %v, want %v", tension != nil, tt.wantFire)
			}
			if tension == nil {
				return
			}
			if tension.Status != models.TensionRequiresEscalation {
				t.Errorf("Status = %q, want %q", tension.Status, models.TensionRequiresEscalation)
			}
			if tension.Priority != 0 {
				t.Errorf("Priority = %d, want 0", tension.Priority)
			}
			if tension.MaxIterations != 0 {
				t.Errorf("MaxIterations = %d, want 0", tension.MaxIterations)
			}
			if tension.AgentA != models.MemberJurist || tension.AgentB != models.MemberPhilosopher {
				t.Errorf("parties = %q vs %q, want jurist vs philosopher", tension.AgentA, tension.AgentB)
			}
			if !strings.Contains(tension.TriggerReason, string(tt.jurist)) {
				t.Errorf("TriggerReason %q does not name the jurist rating %q", tension.TriggerReason, tt.jurist)
			}
		})
	}
}

func TestLegalEthicalProtocol_ResolveEscalatesImmediately(t *testing.T) {
	p := defaultProtocol(t, ProtocolLegalEthical)
	state := testState(
		testResponse(models.MemberJurist, models.RatingEndorse, ""),
		testResponse(models.MemberPhilosopher, models.RatingBlock, ""),
	)
	tension := p.Detect(state)
	if tension == nil {
		t.Fatal("Detect() = nil, want tension")
	}

	p.Resolve(state, tension)

	if tension.Status != models.TensionEscalated {
		t.Fatalf("after first resolve: Status = %q, want %q", tension.Status, models.TensionEscalated)
	}
	if tension.IterationCount != 0 {
		t.Errorf("IterationCount = %d, want 0 (bound is 0, counter stays put)", tension.IterationCount)
	}
	if tension.Resolution == "" {
		t.Error("Resolution should explain the escalation")
	}
	if !strings.Contains(strings.ToLower(tension.Resolution), "human") {
		t.Errorf("Resolution %q should call for human adjudication", tension.Resolution)
	}

	// Resolving again changes nothing.
	p.Resolve(state, tension)
	if tension.Status != models.TensionEscalated || tension.IterationCount != 0 {
		t.Errorf("second resolve mutated the tension: status %q, count %d", tension.Status, tension.IterationCount)
	}
}

func TestTrustPremiumProtocol_Detect(t *testing.T) {
	p := defaultProtocol(t, ProtocolTrustPremium)

	tests := []struct {
		name      string
		sovereign models.Rating
		economist models.Rating
		wantFire  bool
	}{
		{"sovereign blocks economist endorses", models.RatingBlock, models.RatingEndorse, true},
		{"economist blocks sovereign accepts", models.RatingAccept, models.RatingBlock, true},
		{"warn against block does not fire", models.RatingWarn, models.RatingBlock, false},
		{"agreement does not fire", models.RatingEndorse, models.RatingEndorse, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := testState(
				testResponse(models.MemberSovereign, tt.sovereign, "dependence risk"),
				testResponse(models.MemberEconomist, tt.economist, "cost ceiling"),
			)
			tension := p.Detect(state)
			if (tension != nil) != tt.wantFire {
				t.Fatalf("Detect() fired = %v, want %v", tension != nil, tt.wantFire)
			}
			if tension != nil && tension.Priority != 1 {
				t.Errorf("Priority = %d, want 1", tension.Priority)
			}
		})
	}
}

func TestTrustPremiumProtocol_IterationLadder(t *testing.T) {
	p := defaultProtocol(t, ProtocolTrustPremium)
	state := testState(
		testResponse(models.MemberSovereign, models.RatingBlock, ""),
		testResponse(models.MemberEconomist, models.RatingAccept, ""),
	)
	tension := p.Detect(state)
	if tension == nil {
		t.Fatal("Detect() = nil, want tension")
	}

	// Three passes leave the tension resolving with no resolution text.
	for i := 1; i <= 3; i++ {
		p.Resolve(state, tension)
		if tension.IterationCount != i {
			t.Fatalf("pass %d: IterationCount = %d, want %d", i, tension.IterationCount, i)
		}
		if tension.Status != models.TensionResolving {
			t.Fatalf("pass %d: Status = %q, want %q", i, tension.Status, models.TensionResolving)
		}
		if tension.Resolution != "" {
			t.Fatalf("pass %d: Resolution = %q, want empty", i, tension.Resolution)
		}
	}

	// The fourth pass reaches the bound and escalates.
	p.Resolve(state, tension)
	if tension.IterationCount != 4 {
		t.Errorf("pass 4: IterationCount = %d, want 4", tension.IterationCount)
	}
	if tension.Status != models.TensionEscalated {
		t.Errorf("pass 4: Status = %q, want %q", tension.Status, models.TensionEscalated)
	}
	if !strings.Contains(tension.Resolution, "Trust-premium analysis exhausted") {
		t.Errorf("Resolution = %q, want trust-premium exhaustion message", tension.Resolution)
	}
	if tension.IterationCount > tension.MaxIterations {
		t.Errorf("IterationCount %d exceeds MaxIterations %d", tension.IterationCount, tension.MaxIterations)
	}
}

func TestIntegrationCoherenceProtocol(t *testing.T) {
	p := defaultProtocol(t, ProtocolIntegrationCoherence)
	state := testState(
		testResponse(models.MemberEcosystem, models.RatingEndorse, "partners need this"),
		testResponse(models.MemberArchitect, models.RatingBlock, "breaks layering"),
	)
	tension := p.Detect(state)
	if tension == nil {
		t.Fatal("Detect() = nil, want tension")
	}
	if tension.Priority != 2 {
		t.Errorf("Priority = %d, want 2", tension.Priority)
	}
	if tension.MaxIterations != 3 {
		t.Errorf("MaxIterations = %d, want 3", tension.MaxIterations)
	}

	for i := 1; i <= 2; i++ {
		p.Resolve(state, tension)
		if tension.Status != models.TensionResolving {
			t.Fatalf("pass %d: Status = %q, want resolving", i, tension.Status)
		}
	}
	p.Resolve(state, tension)
	if tension.Status != models.TensionEscalated {
		t.Fatalf("pass 3: Status = %q, want escalated", tension.Status)
	}
	if !strings.Contains(tension.Resolution, "economist justification") {
		t.Errorf("Resolution = %q, want reference to economist justification", tension.Resolution)
	}
}

func TestFeasibilityProtocol_Detect(t *testing.T) {
	p := defaultProtocol(t, ProtocolFeasibility)

	tests := []struct {
		name      string
		rating    models.Rating
		reasoning string
		wantFire  bool
	}{
		{"warn with timeline fires", models.RatingWarn, "the timeline is too aggressive", true},
		{"block with impossible fires", models.RatingBlock, "frankly impossible as scoped", true},
		{"uppercase keyword fires", models.RatingBlock, "TIMELINE slips guaranteed", true},
		{"plural keyword fires", models.RatingWarn, "we lack resources", true},
		{"warn without keyword does not fire", models.RatingWarn, "mild unease, nothing concrete", false},
		{"accept with keyword does not fire", models.RatingAccept, "timeline looks fine", false},
		{"endorse with keyword does not fire", models.RatingEndorse, "capacity is ample", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := testState(testResponse(models.MemberOperator, tt.rating, tt.reasoning))
			tension := p.Detect(state)
			if (tension != nil) != tt.wantFire {
				t.Fatalf("Detect() fired = %v, want %v", tension != nil, tt.wantFire)
			}
			if tension == nil {
				return
			}
			wantPrefix := "Operator flags implementation concerns: " + string(tt.rating)
			if !strings.Contains(tension.TriggerReason, wantPrefix) {
				t.Errorf("TriggerReason = %q, want it to contain %q", tension.TriggerReason, wantPrefix)
			}
			if tension.AgentB != models.AllMembers {
				t.Errorf("AgentB = %q, want %q", tension.AgentB, models.AllMembers)
			}
		})
	}
}

func TestFeasibilityProtocol_TwoPassBound(t *testing.T) {
	p := defaultProtocol(t, ProtocolFeasibility)
	state := testState(testResponse(models.MemberOperator, models.RatingBlock, "timeline impossible"))
	tension := p.Detect(state)
	if tension == nil {
		t.Fatal("Detect() = nil, want tension")
	}

	p.Resolve(state, tension)
	if tension.Status != models.TensionResolving || tension.IterationCount != 1 {
		t.Fatalf("pass 1: status %q count %d, want resolving 1", tension.Status, tension.IterationCount)
	}

	p.Resolve(state, tension)
	if tension.Status != models.TensionEscalated || tension.IterationCount != 2 {
		t.Fatalf("pass 2: status %q count %d, want escalated 2", tension.Status, tension.IterationCount)
	}
	lowered := strings.ToLower(tension.Resolution)
	if !strings.Contains(lowered, "scope") || !strings.Contains(lowered, "timeline") {
		t.Errorf("Resolution = %q, want mention of scope and timeline revision", tension.Resolution)
	}
}

func TestFeasibilityProtocol_ExtraKeywords(t *testing.T) {
	cfg := DefaultConfigs()[3]
	p, err := NewFeasibilityProtocol(cfg, "Deadline")
	if err != nil {
		t.Fatalf("NewFeasibilityProtocol() error = %v", err)
	}

	state := testState(testResponse(models.MemberOperator, models.RatingWarn, "the deadline is fiction"))
	if p.Detect(state) == nil {
		t.Error("Detect() = nil, want extra keyword to fire case-insensitively")
	}
}

func TestOptionalityProtocol_Detect(t *testing.T) {
	p := defaultProtocol(t, ProtocolOptionality)

	tests := []struct {
		name      string
		rating    models.Rating
		reasoning string
		wantFire  bool
	}{
		{"warn with brittle fires", models.RatingWarn, "this design is brittle", true},
		{"block with scenario fires", models.RatingBlock, "fails in most scenarios we modeled", true},
		{"case-insensitive fragile fires", models.RatingWarn, "FRAGILE under churn", true},
		{"warn without keyword does not fire", models.RatingWarn, "uneasy but no specifics", false},
		{"accept with future does not fire", models.RatingAccept, "future proof enough", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := testState(testResponse(models.MemberFuturist, tt.rating, tt.reasoning))
			tension := p.Detect(state)
			if (tension != nil) != tt.wantFire {
				t.Fatalf("Detect() fired = %v, want %v", tension != nil, tt.wantFire)
			}
			if tension != nil && tension.Priority != 4 {
				t.Errorf("Priority = %d, want 4", tension.Priority)
			}
		})
	}
}

func TestOptionalityProtocol_ThreePassBound(t *testing.T) {
	p := defaultProtocol(t, ProtocolOptionality)
	state := testState(testResponse(models.MemberFuturist, models.RatingBlock, "obsolete within a year"))
	tension := p.Detect(state)
	if tension == nil {
		t.Fatal("Detect() = nil, want tension")
	}

	for i := 1; i <= 2; i++ {
		p.Resolve(state, tension)
		if tension.Status != models.TensionResolving {
			t.Fatalf("pass %d: Status = %q, want resolving", i, tension.Status)
		}
	}
	p.Resolve(state, tension)
	if tension.Status != models.TensionEscalated {
		t.Fatalf("pass 3: Status = %q, want escalated", tension.Status)
	}
	if !strings.Contains(strings.ToLower(tension.Resolution), "optionality") {
		t.Errorf("Resolution = %q, want strategic-optionality message", tension.Resolution)
	}
}

func TestResolve_NeverTouchesResponses(t *testing.T) {
	p := defaultProtocol(t, ProtocolTrustPremium)
	state := testState(
		testResponse(models.MemberSovereign, models.RatingBlock, "dependence"),
		testResponse(models.MemberEconomist, models.RatingAccept, "cheap"),
	)
	tension := p.Detect(state)
	if tension == nil {
		t.Fatal("Detect() = nil, want tension")
	}

	before := len(state.AgentResponses)
	got := p.Resolve(state, tension)

	if got != state {
		t.Error("Resolve() should hand back the same state")
	}
	if len(state.AgentResponses) != before {
		t.Errorf("Resolve() changed response count: %d, want %d", len(state.AgentResponses), before)
	}
	if r, _ := state.Response(models.MemberSovereign); r.Rating != models.RatingBlock {
		t.Errorf("sovereign response mutated: %q", r.Rating)
	}
}
