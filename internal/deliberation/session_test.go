package deliberation

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/witanworks/witan/internal/council"
	"github.com/witanworks/witan/internal/reasoning"
	"github.com/witanworks/witan/internal/state"
	"github.com/witanworks/witan/internal/tensions"
	"github.com/witanworks/witan/pkg/models"
)

// scriptedConsultant returns canned verdicts per member. Once a
// consultation carries tension context the revised script takes over,
// so tests can model members changing their position under pressure.
type scriptedConsultant struct {
	mu      sync.Mutex
	first   map[string]models.AgentResponse
	revised map[string]models.AgentResponse
	fail    map[string]error
	calls   int
}

func (c *scriptedConsultant) Consult(_ context.Context, m models.Member, req reasoning.ConsultRequest) (models.AgentResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if err, ok := c.fail[m.ID]; ok {
		return models.AgentResponse{}, err
	}
	resp, ok := c.first[m.ID]
	if req.TensionContext != "" {
		if r, found := c.revised[m.ID]; found {
			resp, ok = r, true
		}
	}
	if !ok {
		resp = canned(models.RatingAccept, "no objection")
	}
	resp.AgentID = m.ID
	resp.Model = "test-model"
	resp.ReceivedAt = time.Now().UTC()
	return resp, nil
}

func canned(rating models.Rating, text string) models.AgentResponse {
	return models.AgentResponse{Rating: rating, Confidence: 0.8, Reasoning: text}
}

func newTestSession(t *testing.T, consultant reasoning.Consultant, mutate func(*Options)) *Session {
	t.Helper()
	roster, err := council.NewDefaultRoster()
	if err != nil {
		t.Fatalf("NewDefaultRoster: %v", err)
	}
	engine, err := tensions.NewDefaultOrchestrator()
	if err != nil {
		t.Fatalf("NewDefaultOrchestrator: %v", err)
	}
	opts := Options{
		Roster:            roster,
		Consultant:        consultant,
		Engine:            engine,
		ConsultTimeout:    time.Second,
		EscalationTimeout: 2 * time.Second,
	}
	if mutate != nil {
		mutate(&opts)
	}
	s, err := NewSession("Adopt the vendor-managed build pipeline for all product teams", opts)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	return s
}

// collectEvents drains the session's event channel in the background
// and returns a function that waits for the channel to close and
// returns everything received.
func collectEvents(s *Session) func() []Event {
	var mu sync.Mutex
	var events []Event
	done := make(chan struct{})
	go func() {
		for ev := range s.Events() {
			mu.Lock()
			events = append(events, ev)
			mu.Unlock()
		}
		close(done)
	}()
	return func() []Event {
		<-done
		mu.Lock()
		defer mu.Unlock()
		return events
	}
}

func countEvents(events []Event, typ EventType) int {
	n := 0
	for _, ev := range events {
		if ev.Type == typ {
			n++
		}
	}
	return n
}

func TestSessionUnanimousApproval(t *testing.T) {
	s := newTestSession(t, &scriptedConsultant{}, nil)
	got := collectEvents(s)

	verdict, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if verdict.Outcome != models.OutcomeApproved {
		t.Errorf("expected approved, got %s", verdict.Outcome)
	}
	if verdict.Tallies[models.RatingAccept] != 8 {
		t.Errorf("expected 8 ACCEPT, got %d", verdict.Tallies[models.RatingAccept])
	}
	if len(verdict.ResolvedTensions) != 0 || len(verdict.EscalatedTensions) != 0 {
		t.Errorf("expected no tensions, got %d resolved, %d escalated",
			len(verdict.ResolvedTensions), len(verdict.EscalatedTensions))
	}
	if s.Phase() != PhaseDecided {
		t.Errorf("expected phase decided, got %s", s.Phase())
	}

	events := got()
	if n := countEvents(events, EventMemberResponded); n != 8 {
		t.Errorf("expected 8 member_responded events, got %d", n)
	}
	if n := countEvents(events, EventDeliberationDone); n != 1 {
		t.Errorf("expected 1 deliberation_done event, got %d", n)
	}
}

func TestSessionConflictResolvedByReconsultation(t *testing.T) {
	consultant := &scriptedConsultant{
		first: map[string]models.AgentResponse{
			models.MemberSovereign: canned(models.RatingEndorse, "keeps the exit door open"),
			models.MemberEconomist: canned(models.RatingBlock, "the premium is not justified"),
		},
		revised: map[string]models.AgentResponse{
			models.MemberEconomist: canned(models.RatingAccept, "acceptable if the premium is capped"),
		},
	}
	s := newTestSession(t, consultant, nil)
	got := collectEvents(s)

	verdict, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if verdict.Outcome != models.OutcomeApproved {
		t.Errorf("expected approved, got %s: %s", verdict.Outcome, verdict.Summary)
	}
	if len(verdict.ResolvedTensions) != 1 {
		t.Fatalf("expected 1 resolved tension, got %d", len(verdict.ResolvedTensions))
	}
	resolved := verdict.ResolvedTensions[0]
	if resolved.ProtocolID != tensions.ProtocolTrustPremium {
		t.Errorf("expected %s, got %s", tensions.ProtocolTrustPremium, resolved.ProtocolID)
	}
	if resolved.Status != models.TensionResolved {
		t.Errorf("expected resolved status, got %s", resolved.Status)
	}
	if resolved.IterationCount != 1 {
		t.Errorf("expected 1 resolution pass, got %d", resolved.IterationCount)
	}
	if len(verdict.EscalatedTensions) != 0 {
		t.Errorf("expected no escalations, got %d", len(verdict.EscalatedTensions))
	}

	events := got()
	if n := countEvents(events, EventTensionDetected); n != 1 {
		t.Errorf("expected 1 tension_detected event, got %d", n)
	}
	if n := countEvents(events, EventTensionResolved); n != 1 {
		t.Errorf("expected 1 tension_resolved event, got %d", n)
	}
}

func TestSessionEscalationAutoAccept(t *testing.T) {
	consultant := &scriptedConsultant{
		first: map[string]models.AgentResponse{
			models.MemberOperator: canned(models.RatingBlock, "the timeline is impossible with current staffing"),
		},
	}
	s := newTestSession(t, consultant, func(o *Options) {
		o.AutoAcceptEscalations = true
	})
	got := collectEvents(s)

	verdict, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if verdict.Outcome != models.OutcomeApproved {
		t.Errorf("expected approved after accepted escalation, got %s", verdict.Outcome)
	}
	if len(verdict.EscalatedTensions) != 1 {
		t.Fatalf("expected 1 escalated tension, got %d", len(verdict.EscalatedTensions))
	}
	escalated := verdict.EscalatedTensions[0]
	if escalated.ProtocolID != tensions.ProtocolFeasibility {
		t.Errorf("expected %s, got %s", tensions.ProtocolFeasibility, escalated.ProtocolID)
	}
	if escalated.IterationCount != 2 {
		t.Errorf("expected the full 2 passes before escalation, got %d", escalated.IterationCount)
	}

	events := got()
	if n := countEvents(events, EventEscalationRequested); n != 1 {
		t.Errorf("expected 1 escalation_requested event, got %d", n)
	}
	if n := countEvents(events, EventEscalationAnswered); n != 1 {
		t.Errorf("expected 1 escalation_answered event, got %d", n)
	}
}

func TestSessionEscalationRejectedByOperator(t *testing.T) {
	consultant := &scriptedConsultant{
		first: map[string]models.AgentResponse{
			models.MemberJurist:      canned(models.RatingAccept, "no legal exposure"),
			models.MemberPhilosopher: canned(models.RatingBlock, "shifts harm onto users who cannot consent"),
		},
	}
	s := newTestSession(t, consultant, nil)
	got := collectEvents(s)

	// The gate opens only once the session blocks on the answer, so
	// keep trying until the response lands.
	go func() {
		for i := 0; i < 200; i++ {
			if s.RespondEscalation(false, "the philosopher is right") == nil {
				return
			}
			time.Sleep(10 * time.Millisecond)
		}
	}()

	verdict, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if verdict.Outcome != models.OutcomeRejected {
		t.Errorf("expected rejected, got %s: %s", verdict.Outcome, verdict.Summary)
	}
	if len(verdict.EscalatedTensions) != 1 {
		t.Fatalf("expected 1 escalated tension, got %d", len(verdict.EscalatedTensions))
	}
	escalated := verdict.EscalatedTensions[0]
	if escalated.ProtocolID != tensions.ProtocolLegalEthical {
		t.Errorf("expected %s, got %s", tensions.ProtocolLegalEthical, escalated.ProtocolID)
	}
	if escalated.IterationCount != 0 {
		t.Errorf("legal-ethical escalation must not consume passes, got %d", escalated.IterationCount)
	}

	events := got()
	if n := countEvents(events, EventEscalationRequested); n != 1 {
		t.Errorf("expected 1 escalation_requested event, got %d", n)
	}
}

func TestSessionEscalationTimeout(t *testing.T) {
	consultant := &scriptedConsultant{
		first: map[string]models.AgentResponse{
			models.MemberJurist:      canned(models.RatingEndorse, "clearly lawful"),
			models.MemberPhilosopher: canned(models.RatingBlock, "dignity is not negotiable"),
		},
	}
	s := newTestSession(t, consultant, func(o *Options) {
		o.EscalationTimeout = 100 * time.Millisecond
	})
	got := collectEvents(s)

	verdict, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if verdict.Outcome != models.OutcomeEscalated {
		t.Errorf("expected escalated, got %s: %s", verdict.Outcome, verdict.Summary)
	}
	if len(verdict.EscalatedTensions) != 1 {
		t.Fatalf("expected 1 escalated tension, got %d", len(verdict.EscalatedTensions))
	}
	got()

	if s.Phase() != PhaseDecided {
		t.Errorf("an unanswered escalation still decides the session, phase is %s", s.Phase())
	}
}

func TestSessionQuorumFailure(t *testing.T) {
	consultant := &scriptedConsultant{
		fail: map[string]error{
			models.MemberJurist:    errors.New("api unavailable"),
			models.MemberSovereign: errors.New("api unavailable"),
			models.MemberOperator:  errors.New("api unavailable"),
		},
	}
	s := newTestSession(t, consultant, nil)
	got := collectEvents(s)

	verdict, err := s.Run(context.Background())
	if !errors.Is(err, ErrQuorum) {
		t.Fatalf("expected ErrQuorum, got %v", err)
	}
	if verdict != nil {
		t.Errorf("expected nil verdict on quorum failure, got %+v", verdict)
	}

	events := got()
	if n := countEvents(events, EventMemberFailed); n != 3 {
		t.Errorf("expected 3 member_failed events, got %d", n)
	}
}

func TestSessionPersistsHistory(t *testing.T) {
	db, err := state.Open(filepath.Join(t.TempDir(), "witan.db"))
	if err != nil {
		t.Fatalf("open state db: %v", err)
	}
	defer db.Close()
	if err := db.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	consultant := &scriptedConsultant{
		first: map[string]models.AgentResponse{
			models.MemberSovereign: canned(models.RatingEndorse, "keeps leverage at home"),
			models.MemberEconomist: canned(models.RatingBlock, "cheaper substitutes exist"),
		},
		revised: map[string]models.AgentResponse{
			models.MemberEconomist: canned(models.RatingAccept, "the sovereignty premium is defensible here"),
		},
	}
	s := newTestSession(t, consultant, func(o *Options) {
		o.History = db
		o.Tier = models.TierCouncil
	})
	got := collectEvents(s)

	verdict, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	got()

	rec, err := db.GetDeliberation(s.ID())
	if err != nil {
		t.Fatalf("GetDeliberation: %v", err)
	}
	if rec == nil {
		t.Fatal("expected a persisted deliberation")
	}
	if rec.Status != state.DeliberationDecided {
		t.Errorf("expected decided status, got %s", rec.Status)
	}
	if rec.Outcome != string(verdict.Outcome) {
		t.Errorf("expected outcome %s, got %s", verdict.Outcome, rec.Outcome)
	}
	if rec.Summary == "" {
		t.Error("expected a summary on the record")
	}
	if rec.DecidedAt == nil {
		t.Error("expected decided_at to be set")
	}

	responses, err := db.ListResponses(s.ID())
	if err != nil {
		t.Fatalf("ListResponses: %v", err)
	}
	if len(responses) != 8 {
		t.Errorf("expected 8 persisted responses, got %d", len(responses))
	}

	rows, err := db.ListTensions(s.ID())
	if err != nil {
		t.Fatalf("ListTensions: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 persisted tension, got %d", len(rows))
	}
	if rows[0].Status != string(models.TensionResolved) {
		t.Errorf("expected resolved tension row, got %s", rows[0].Status)
	}
}

func TestSessionMarksAbandonedOnFailure(t *testing.T) {
	db, err := state.Open(filepath.Join(t.TempDir(), "witan.db"))
	if err != nil {
		t.Fatalf("open state db: %v", err)
	}
	defer db.Close()
	if err := db.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	consultant := &scriptedConsultant{
		fail: map[string]error{
			models.MemberJurist: errors.New("api unavailable"),
		},
	}
	s := newTestSession(t, consultant, func(o *Options) {
		o.History = db
	})
	got := collectEvents(s)

	if _, err := s.Run(context.Background()); !errors.Is(err, ErrQuorum) {
		t.Fatalf("expected ErrQuorum, got %v", err)
	}
	got()

	rec, err := db.GetDeliberation(s.ID())
	if err != nil {
		t.Fatalf("GetDeliberation: %v", err)
	}
	if rec == nil {
		t.Fatal("expected a persisted deliberation")
	}
	if rec.Status != state.DeliberationAbandoned {
		t.Errorf("expected abandoned status, got %s", rec.Status)
	}
}

func TestSessionRunsOnce(t *testing.T) {
	s := newTestSession(t, &scriptedConsultant{}, nil)
	got := collectEvents(s)

	if _, err := s.Run(context.Background()); err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	got()

	if _, err := s.Run(context.Background()); err == nil {
		t.Fatal("expected second run to fail")
	}
}

func TestSessionReducedQuorum(t *testing.T) {
	consultant := &scriptedConsultant{
		fail: map[string]error{
			models.MemberFuturist: errors.New("api unavailable"),
		},
	}
	s := newTestSession(t, consultant, func(o *Options) {
		o.Quorum = 6
	})
	got := collectEvents(s)

	verdict, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed with 7 of 8 responses and quorum 6: %v", err)
	}
	got()

	if verdict.Tallies[models.RatingAccept] != 7 {
		t.Errorf("expected 7 ACCEPT, got %d", verdict.Tallies[models.RatingAccept])
	}
}

func TestSessionStandingBlockRejects(t *testing.T) {
	// Two blocks that no protocol pairs up: the council rejects
	// without any tension work.
	consultant := &scriptedConsultant{
		first: map[string]models.AgentResponse{
			models.MemberJurist:      canned(models.RatingBlock, "violates data residency commitments"),
			models.MemberPhilosopher: canned(models.RatingBlock, "erodes consent"),
		},
	}
	s := newTestSession(t, consultant, nil)
	got := collectEvents(s)

	verdict, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	got()

	if verdict.Outcome != models.OutcomeRejected {
		t.Errorf("expected rejected, got %s: %s", verdict.Outcome, verdict.Summary)
	}
	if verdict.Tallies[models.RatingBlock] != 2 {
		t.Errorf("expected 2 BLOCK, got %d", verdict.Tallies[models.RatingBlock])
	}
	if len(verdict.ResolvedTensions) != 0 || len(verdict.EscalatedTensions) != 0 {
		t.Error("expected no tensions for unpaired blocks")
	}
}

func TestNewSessionValidation(t *testing.T) {
	roster, err := council.NewDefaultRoster()
	if err != nil {
		t.Fatalf("NewDefaultRoster: %v", err)
	}
	engine, err := tensions.NewDefaultOrchestrator()
	if err != nil {
		t.Fatalf("NewDefaultOrchestrator: %v", err)
	}
	consultant := &scriptedConsultant{}

	tests := []struct {
		name     string
		proposal string
		opts     Options
	}{
		{
			name:     "empty proposal",
			proposal: "",
			opts:     Options{Roster: roster, Consultant: consultant, Engine: engine},
		},
		{
			name:     "missing roster",
			proposal: "p",
			opts:     Options{Consultant: consultant, Engine: engine},
		},
		{
			name:     "missing consultant",
			proposal: "p",
			opts:     Options{Roster: roster, Engine: engine},
		},
		{
			name:     "missing engine",
			proposal: "p",
			opts:     Options{Roster: roster, Consultant: consultant},
		},
		{
			name:     "unknown tier",
			proposal: "p",
			opts:     Options{Roster: roster, Consultant: consultant, Engine: engine, Tier: "senate"},
		},
		{
			name:     "quorum above roster size",
			proposal: "p",
			opts:     Options{Roster: roster, Consultant: consultant, Engine: engine, Quorum: 9},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewSession(tt.proposal, tt.opts); err == nil {
				t.Error("expected construction to fail")
			}
		})
	}
}
