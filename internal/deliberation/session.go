package deliberation

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/witanworks/witan/internal/archive"
	"github.com/witanworks/witan/internal/council"
	"github.com/witanworks/witan/internal/reasoning"
	"github.com/witanworks/witan/internal/signals"
	"github.com/witanworks/witan/internal/state"
	"github.com/witanworks/witan/internal/tensions"
	"github.com/witanworks/witan/pkg/models"
)

// ErrKilled is returned when a kill signal stops a running deliberation.
var ErrKilled = errors.New("deliberation stopped by kill signal")

// ErrQuorum is returned when too few members respond to continue.
var ErrQuorum = errors.New("quorum not met")

// Phase identifies where a deliberation currently is.
type Phase string

const (
	// PhaseConvening means members are being consulted in parallel.
	PhaseConvening Phase = "convening"
	// PhaseDetecting means the protocols are checking the verdicts.
	PhaseDetecting Phase = "detecting"
	// PhaseResolving means detected tensions are being worked through.
	PhaseResolving Phase = "resolving"
	// PhaseEscalating means the session is blocked on human answers.
	PhaseEscalating Phase = "escalating"
	// PhaseDecided means the verdict is reached.
	PhaseDecided Phase = "decided"
)

const (
	defaultConsultTimeout    = 2 * time.Minute
	defaultEscalationTimeout = 10 * time.Minute
	defaultEventBuffer       = 100
	answerPollInterval       = 500 * time.Millisecond
	pauseCheckInterval       = time.Second
)

// Options configures a Session. Roster, Consultant, and Engine are
// required; everything else has a workable default or is optional.
type Options struct {
	// Roster is the council under consultation. Required.
	Roster *council.Roster
	// Consultant obtains member verdicts. Required.
	Consultant reasoning.Consultant
	// Engine detects and resolves tensions. Required.
	Engine *tensions.Orchestrator
	// Tier labels the deliberation in history records. Defaults to council.
	Tier models.Tier
	// Quorum is the minimum number of member responses needed to
	// continue past convening. Defaults to the full roster.
	Quorum int
	// ConsultTimeout bounds each member consultation. Defaults to two minutes.
	ConsultTimeout time.Duration
	// EscalationTimeout bounds the wait for each human answer.
	// Defaults to ten minutes; expiry leaves the escalation unanswered.
	EscalationTimeout time.Duration
	// AutoAcceptEscalations answers every escalation with an accept.
	// Headless runs set this to avoid blocking on a human.
	AutoAcceptEscalations bool
	// Events receives progress events. One is created when nil.
	Events *EventEmitter
	// Logger receives debug lines. No-op when nil.
	Logger *DebugLogger
	// History persists the deliberation record. Optional.
	History state.HistoryStore
	// Archive persists DecisionState snapshots per phase. Optional.
	Archive *archive.Store
	// Signals watches for kill and pause files and file-dropped
	// escalation answers. Optional.
	Signals *signals.Watcher
	// Tracker supplies token and cost totals for the verdict. Optional.
	Tracker *reasoning.TokenTracker
}

// Session drives one proposal through convening, tension resolution,
// escalation, and verdict. It owns its DecisionState; all mutation
// happens on the Run goroutine, with member consultations fanned out
// and collected under a lock.
type Session struct {
	id     string
	tier   models.Tier
	quorum int

	roster     *council.Roster
	consultant reasoning.Consultant
	engine     *tensions.Orchestrator

	consultTimeout time.Duration
	autoAccept     bool

	events      *EventEmitter
	logger      *DebugLogger
	history     state.HistoryStore
	archive     *archive.Store
	signals     *signals.Watcher
	tracker     *reasoning.TokenTracker
	escalations *EscalationHandler

	mu    sync.RWMutex
	phase Phase

	ran     atomic.Bool
	started time.Time

	state *models.DecisionState
	// settled marks protocols whose tension reached a terminal state.
	// A settled protocol never re-enters the active list, so each one
	// is adjudicated at most once per deliberation.
	settled  map[string]bool
	terminal []*models.Tension
	answers  map[string]Answer
	// budget counts the resolution passes the admitted tensions are
	// entitled to. Exhaustion means a protocol is misbehaving; the
	// remaining tensions escalate rather than wedge the session.
	budget int
	snap   *archive.Snapshot
}

// NewSession validates the options and prepares a session for Run.
func NewSession(proposal string, opts Options) (*Session, error) {
	if proposal == "" {
		return nil, errors.New("proposal is empty")
	}
	if opts.Roster == nil {
		return nil, errors.New("session requires a roster")
	}
	if opts.Consultant == nil {
		return nil, errors.New("session requires a consultant")
	}
	if opts.Engine == nil {
		return nil, errors.New("session requires a tension engine")
	}

	tier := opts.Tier
	if tier == "" {
		tier = models.TierCouncil
	}
	if !tier.Valid() {
		return nil, fmt.Errorf("unknown tier %q", tier)
	}

	quorum := opts.Quorum
	if quorum <= 0 {
		quorum = opts.Roster.Size()
	}
	if quorum > opts.Roster.Size() {
		return nil, fmt.Errorf("quorum %d exceeds roster size %d", quorum, opts.Roster.Size())
	}

	consultTimeout := opts.ConsultTimeout
	if consultTimeout <= 0 {
		consultTimeout = defaultConsultTimeout
	}
	escalationTimeout := opts.EscalationTimeout
	if escalationTimeout <= 0 {
		escalationTimeout = defaultEscalationTimeout
	}

	events := opts.Events
	if events == nil {
		events = NewEventEmitter(defaultEventBuffer)
	}

	id := uuid.New().String()
	return &Session{
		id:             id,
		tier:           tier,
		quorum:         quorum,
		roster:         opts.Roster,
		consultant:     opts.Consultant,
		engine:         opts.Engine,
		consultTimeout: consultTimeout,
		autoAccept:     opts.AutoAcceptEscalations,
		events:         events,
		logger:         opts.Logger,
		history:        opts.History,
		archive:        opts.Archive,
		signals:        opts.Signals,
		tracker:        opts.Tracker,
		escalations:    NewEscalationHandler(escalationTimeout),
		phase:          PhaseConvening,
		state:          models.NewDecisionState(id, proposal),
		settled:        make(map[string]bool),
		answers:        make(map[string]Answer),
	}, nil
}

// ID returns the deliberation identifier.
func (s *Session) ID() string { return s.id }

// Proposal returns the text under review.
func (s *Session) Proposal() string { return s.state.Proposal }

// Tier returns the consultation tier label.
func (s *Session) Tier() models.Tier { return s.tier }

// Events returns the progress event channel. It is closed when Run
// returns.
func (s *Session) Events() <-chan Event { return s.events.Events() }

// Phase returns the current phase.
func (s *Session) Phase() Phase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.phase
}

// CurrentEscalation returns the escalation awaiting an answer, or nil.
func (s *Session) CurrentEscalation() *EscalationRequest {
	return s.escalations.Current()
}

// RespondEscalation answers the escalation the session is blocked on.
// Called from the TUI or CLI on behalf of the human.
func (s *Session) RespondEscalation(accept bool, rationale string) error {
	return s.escalations.Respond(&Answer{
		Accept:    accept,
		Rationale: rationale,
		Source:    AnswerSourceOperator,
		Timestamp: time.Now().UTC(),
	})
}

// Run executes the deliberation to a verdict. It blocks until the
// verdict is reached, the context is cancelled, a kill signal arrives,
// or convening falls short of quorum. The event channel is closed on
// return. A session runs once.
func (s *Session) Run(ctx context.Context) (*models.Verdict, error) {
	if !s.ran.CompareAndSwap(false, true) {
		return nil, errors.New("session already ran")
	}
	defer s.events.Close()

	s.started = time.Now().UTC()
	s.log("deliberation %s started: tier=%s members=%d quorum=%d", s.id, s.tier, s.roster.Size(), s.quorum)

	if s.history != nil {
		rec := &state.Deliberation{
			ID:        s.id,
			Proposal:  s.state.Proposal,
			Tier:      string(s.tier),
			StartedAt: s.started,
			Status:    state.DeliberationActive,
		}
		if err := s.history.CreateDeliberation(rec); err != nil {
			return nil, fmt.Errorf("record deliberation: %w", err)
		}
	}

	if err := s.deliberate(ctx); err != nil {
		s.abandon(err)
		return nil, err
	}

	s.setPhase(PhaseDecided)
	verdict := s.buildVerdict()
	s.persistVerdict(verdict)
	s.snapshot(PhaseDecided)
	s.log("deliberation %s decided: %s", s.id, verdict.Outcome)
	s.emit(Event{
		Type:       EventDeliberationDone,
		Message:    verdict.Summary,
		Outcome:    verdict.Outcome,
		TokensUsed: verdict.TokensUsed,
		Cost:       verdict.Cost,
	})
	return verdict, nil
}

// deliberate walks the phases up to the verdict.
func (s *Session) deliberate(ctx context.Context) error {
	s.setPhase(PhaseConvening)
	if err := s.convene(ctx); err != nil {
		return err
	}

	s.setPhase(PhaseDetecting)
	s.admit(s.engine.DetectTensions(s.state))
	s.snapshot(PhaseDetecting)

	if len(s.state.ActiveTensions) > 0 {
		s.setPhase(PhaseResolving)
		if err := s.resolveAll(ctx); err != nil {
			return err
		}
	}

	if len(s.pendingEscalations()) > 0 {
		s.setPhase(PhaseEscalating)
		if err := s.settleEscalations(ctx); err != nil {
			return err
		}
	}
	return nil
}

// convene consults every member in parallel and enforces quorum.
func (s *Session) convene(ctx context.Context) error {
	s.state.Round = 1
	round := s.state.Round

	var wg sync.WaitGroup
	var mu sync.Mutex
	for _, member := range s.roster.Members() {
		wg.Add(1)
		go func(m models.Member) {
			defer wg.Done()
			resp, err := s.consultOne(ctx, m, "")
			if err != nil {
				s.log("consult %s failed: %v", m.ID, err)
				s.emit(Event{Type: EventMemberFailed, AgentID: m.ID, Round: round, Error: err})
				return
			}
			mu.Lock()
			s.state.AgentResponses[m.ID] = resp
			mu.Unlock()
			s.log("consult %s: %s (confidence %.2f)", m.ID, resp.Rating, resp.Confidence)
			s.emit(Event{
				Type:       EventMemberResponded,
				AgentID:    m.ID,
				Rating:     resp.Rating,
				Confidence: resp.Confidence,
				Reasoning:  resp.Reasoning,
				Round:      round,
			})
		}(member)
	}
	wg.Wait()
	s.emitUsage()

	if got := len(s.state.AgentResponses); got < s.quorum {
		return fmt.Errorf("%w: %d of %d members responded, need %d", ErrQuorum, got, s.roster.Size(), s.quorum)
	}
	return nil
}

// consultOne asks a single member for a verdict under the per-call
// timeout.
func (s *Session) consultOne(ctx context.Context, m models.Member, conflict string) (models.AgentResponse, error) {
	cctx, cancel := context.WithTimeout(ctx, s.consultTimeout)
	defer cancel()
	return s.consultant.Consult(cctx, m, reasoning.ConsultRequest{
		Proposal:       s.state.Proposal,
		Round:          s.state.Round,
		TensionContext: conflict,
	})
}

// resolveAll drives the active tensions until the list drains. Each
// pass steps the most urgent tension, re-consults its parties when it
// stays live, and folds any newly firing protocols into the queue.
func (s *Session) resolveAll(ctx context.Context) error {
	for len(s.state.ActiveTensions) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.checkSignals(ctx); err != nil {
			return err
		}
		if s.budget <= 0 {
			s.escalateRemaining()
			return nil
		}
		s.budget--

		head := s.state.ActiveTensions[0]
		s.log("resolving %s: pass %d, bound %d", head.ProtocolID, head.IterationCount+1, head.MaxIterations)
		if _, err := s.engine.ResolveNextTension(s.state); err != nil {
			return fmt.Errorf("resolve tension: %w", err)
		}

		switch head.Status {
		case models.TensionResolving:
			s.emit(Event{Type: EventTensionResolving, Tension: head, Round: s.state.Round, Message: head.TriggerReason})
			s.reconsult(ctx, head)
			if err := ctx.Err(); err != nil {
				return err
			}
			s.redetect(head)
		case models.TensionEscalated:
			s.noteTerminal(head)
			s.log("tension %s escalated: %s", head.ProtocolID, head.Resolution)
			s.emit(Event{Type: EventTensionEscalated, Tension: head, Message: head.Resolution})
		case models.TensionResolved:
			s.noteTerminal(head)
			s.log("tension %s resolved: %s", head.ProtocolID, head.Resolution)
			s.emit(Event{Type: EventTensionResolved, Tension: head, Message: head.Resolution})
		}
		s.snapshot(PhaseResolving)
	}
	return nil
}

// reconsult re-asks the tension's parties with the standing conflict
// attached. A failed re-consultation leaves the member's previous
// verdict standing.
func (s *Session) reconsult(ctx context.Context, t *models.Tension) {
	s.state.Round++
	round := s.state.Round
	conflict := tensionContext(t, s.state)

	var wg sync.WaitGroup
	var mu sync.Mutex
	for _, id := range parties(t) {
		member, err := s.roster.Get(id)
		if err != nil {
			s.log("reconsult %s: %v", id, err)
			continue
		}
		wg.Add(1)
		go func(m models.Member) {
			defer wg.Done()
			resp, err := s.consultOne(ctx, m, conflict)
			if err != nil {
				s.log("reconsult %s failed, previous verdict stands: %v", m.ID, err)
				s.emit(Event{Type: EventMemberFailed, AgentID: m.ID, Round: round, Error: err})
				return
			}
			mu.Lock()
			s.state.AgentResponses[m.ID] = resp
			mu.Unlock()
			s.log("reconsult %s: %s (confidence %.2f)", m.ID, resp.Rating, resp.Confidence)
			s.emit(Event{
				Type:       EventMemberResponded,
				AgentID:    m.ID,
				Rating:     resp.Rating,
				Confidence: resp.Confidence,
				Reasoning:  resp.Reasoning,
				Round:      round,
			})
		}(member)
	}
	wg.Wait()
	s.emitUsage()
}

// redetect re-runs detection after a re-consultation round. When the
// head tension's protocol no longer fires the conflict has cleared and
// the tension resolves; protocols firing for the first time join the
// queue.
func (s *Session) redetect(head *models.Tension) {
	detected := s.engine.DetectTensions(s.state)

	if head.Status == models.TensionResolving && !fires(detected, head.ProtocolID) {
		head.Status = models.TensionResolved
		head.Resolution = fmt.Sprintf("parties converged on round %d after %d resolution passes", s.state.Round, head.IterationCount)
		s.removeActive(head)
		s.noteTerminal(head)
		s.log("tension %s resolved: %s", head.ProtocolID, head.Resolution)
		s.emit(Event{Type: EventTensionResolved, Tension: head, Message: head.Resolution})
	}

	s.admit(detected)
}

// admit folds detected tensions into the active queue, skipping
// protocols that already settled this deliberation, and funds the
// resolution budget for each newcomer.
func (s *Session) admit(detected []*models.Tension) {
	eligible := make([]*models.Tension, 0, len(detected))
	for _, t := range detected {
		if t != nil && !s.settled[t.ProtocolID] {
			eligible = append(eligible, t)
		}
	}
	if len(eligible) == 0 {
		return
	}

	before := make(map[string]bool, len(s.state.ActiveTensions))
	for _, t := range s.state.ActiveTensions {
		before[t.ProtocolID] = true
	}
	if s.engine.MergeDetected(s.state, eligible) == 0 {
		return
	}
	for _, t := range s.state.ActiveTensions {
		if before[t.ProtocolID] {
			continue
		}
		s.budget += t.MaxIterations + 1
		s.log("tension detected: %s (priority %d): %s", t.ProtocolID, t.Priority, t.TriggerReason)
		s.emit(Event{Type: EventTensionDetected, Tension: t, Message: t.TriggerReason})
	}
}

// escalateRemaining force-escalates every still-active tension. Only
// reachable when a protocol keeps a tension live past its funded
// passes.
func (s *Session) escalateRemaining() {
	for _, t := range s.state.ActiveTensions {
		t.Status = models.TensionEscalated
		if t.Resolution == "" {
			t.Resolution = "resolution budget exhausted"
		}
		s.noteTerminal(t)
		s.log("tension %s force-escalated: %s", t.ProtocolID, t.Resolution)
		s.emit(Event{Type: EventTensionEscalated, Tension: t, Message: t.Resolution})
	}
	s.state.ActiveTensions = nil
}

// settleEscalations walks the escalated tensions in priority order and
// blocks on an answer for each.
func (s *Session) settleEscalations(ctx context.Context) error {
	for _, t := range s.pendingEscalations() {
		req := &EscalationRequest{Tension: t, Responses: s.partyResponses(t)}
		s.log("escalation requested: %s: %s", t.ProtocolID, t.TriggerReason)
		s.emit(Event{Type: EventEscalationRequested, Tension: t, Message: t.TriggerReason})

		answer, err := s.awaitAnswer(ctx, req)
		if err != nil {
			return err
		}
		s.answers[t.ProtocolID] = *answer

		if answer.Source == AnswerSourceTimeout {
			s.log("escalation %s unanswered: %s", t.ProtocolID, answer.Rationale)
		} else {
			t.Resolution = answerResolution(answer)
			s.log("escalation %s answered: %s", t.ProtocolID, t.Resolution)
		}
		s.emit(Event{Type: EventEscalationAnswered, Tension: t, Message: answerSummary(answer)})
		s.snapshot(PhaseEscalating)
	}
	return nil
}

// awaitAnswer obtains the answer for one escalation from whichever
// source responds first. Auto-accept short-circuits the wait.
func (s *Session) awaitAnswer(ctx context.Context, req *EscalationRequest) (*Answer, error) {
	if s.autoAccept {
		return &Answer{
			Accept:    true,
			Rationale: "auto-accepted by configuration",
			Source:    AnswerSourceAuto,
			Timestamp: time.Now().UTC(),
		}, nil
	}

	waitCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	s.relayFileAnswers(waitCtx, cancel, req.Tension.ProtocolID)

	answer, err := s.escalations.Await(waitCtx, req)
	if err != nil {
		if s.signals != nil && s.signals.ShouldStop() {
			return nil, ErrKilled
		}
		return nil, err
	}
	return answer, nil
}

// relayFileAnswers polls the escalations directory while an answer is
// awaited and forwards a dropped answer file to the handler. A kill
// signal cancels the wait instead.
func (s *Session) relayFileAnswers(ctx context.Context, cancel context.CancelFunc, protocolID string) {
	if s.signals == nil {
		return
	}
	go func() {
		ticker := time.NewTicker(answerPollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if s.signals.ShouldStop() {
					cancel()
					return
				}
				ans, ok := s.signals.ReadAnswer(protocolID)
				if !ok {
					continue
				}
				err := s.escalations.Respond(&Answer{
					Accept:    ans.Accept,
					Rationale: ans.Rationale,
					Source:    AnswerSourceFile,
					Timestamp: time.Now().UTC(),
				})
				if err != nil {
					s.log("file answer for %s not delivered: %v", protocolID, err)
				}
				return
			}
		}
	}()
}

// checkSignals honors the kill and pause files between resolution
// passes. Pause blocks until the file is removed.
func (s *Session) checkSignals(ctx context.Context) error {
	if s.signals == nil {
		return nil
	}
	if s.signals.ShouldStop() {
		return ErrKilled
	}
	for s.signals.ShouldPause() {
		s.log("paused, waiting for resume")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pauseCheckInterval):
		}
		if s.signals.ShouldStop() {
			return ErrKilled
		}
	}
	return nil
}

// pendingEscalations returns the escalated tensions in priority order.
func (s *Session) pendingEscalations() []*models.Tension {
	var out []*models.Tension
	for _, t := range s.terminal {
		if t.Status == models.TensionEscalated {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority < out[j].Priority
	})
	return out
}

// partyResponses returns the latest verdicts of the tension's parties.
func (s *Session) partyResponses(t *models.Tension) []models.AgentResponse {
	var out []models.AgentResponse
	for _, id := range parties(t) {
		if r, ok := s.state.Response(id); ok {
			out = append(out, r)
		}
	}
	return out
}

func (s *Session) noteTerminal(t *models.Tension) {
	s.settled[t.ProtocolID] = true
	s.terminal = append(s.terminal, t)
}

func (s *Session) removeActive(t *models.Tension) {
	active := s.state.ActiveTensions[:0]
	for _, cur := range s.state.ActiveTensions {
		if cur != t {
			active = append(active, cur)
		}
	}
	s.state.ActiveTensions = active
}

// abandon marks the history record abandoned after a failed run.
func (s *Session) abandon(cause error) {
	s.log("deliberation %s abandoned: %v", s.id, cause)
	if s.history == nil {
		return
	}
	rec, err := s.history.GetDeliberation(s.id)
	if err != nil || rec == nil {
		return
	}
	rec.Status = state.DeliberationAbandoned
	if err := s.history.UpdateDeliberation(rec); err != nil {
		s.log("mark abandoned failed: %v", err)
	}
}

// persistVerdict writes the decided record, the final responses, and
// the terminal tensions. History failures are logged, not fatal: the
// verdict is already reached.
func (s *Session) persistVerdict(v *models.Verdict) {
	if s.history == nil {
		return
	}
	rec, err := s.history.GetDeliberation(s.id)
	if err != nil || rec == nil {
		s.log("load record for verdict failed: %v", err)
		return
	}
	decidedAt := v.DecidedAt
	rec.Outcome = string(v.Outcome)
	rec.Summary = v.Summary
	rec.TokensUsed = int(v.TokensUsed)
	rec.Cost = v.Cost
	rec.DecidedAt = &decidedAt
	rec.Status = state.DeliberationDecided
	if err := s.history.UpdateDeliberation(rec); err != nil {
		s.log("update record failed: %v", err)
	}

	responses := make([]state.Response, 0, len(s.state.AgentResponses))
	for _, m := range s.roster.Members() {
		r, ok := s.state.Response(m.ID)
		if !ok {
			continue
		}
		responses = append(responses, state.Response{
			DeliberationID: s.id,
			AgentID:        r.AgentID,
			Rating:         string(r.Rating),
			Confidence:     r.Confidence,
			Reasoning:      r.Reasoning,
			Model:          r.Model,
			Round:          s.state.Round,
			ReceivedAt:     r.ReceivedAt,
		})
	}
	if len(responses) > 0 {
		if err := s.history.AddResponses(s.id, responses); err != nil {
			s.log("record responses failed: %v", err)
		}
	}

	rows := make([]state.TensionRow, 0, len(s.terminal))
	for _, t := range s.terminal {
		rows = append(rows, state.TensionRow{
			DeliberationID: s.id,
			ProtocolID:     t.ProtocolID,
			AgentA:         t.AgentA,
			AgentB:         t.AgentB,
			Priority:       t.Priority,
			TriggerReason:  t.TriggerReason,
			Iterations:     t.IterationCount,
			MaxIterations:  t.MaxIterations,
			Status:         string(t.Status),
			Resolution:     t.Resolution,
			DetectedAt:     t.DetectedAt,
		})
	}
	if len(rows) > 0 {
		if err := s.history.AddTensions(s.id, rows); err != nil {
			s.log("record tensions failed: %v", err)
		}
	}
}

// snapshot captures or refreshes the archive snapshot for the phase.
func (s *Session) snapshot(phase Phase) {
	if s.archive == nil {
		return
	}
	if s.snap == nil || s.snap.Phase != string(phase) {
		snap, err := s.archive.Capture(s.id, string(phase), s.state)
		if err != nil {
			s.log("archive capture failed: %v", err)
			return
		}
		s.snap = snap
		return
	}
	if err := s.archive.Update(s.snap, string(phase), s.state); err != nil {
		s.log("archive update failed: %v", err)
	}
}

func (s *Session) setPhase(p Phase) {
	s.mu.Lock()
	s.phase = p
	s.mu.Unlock()
	s.log("phase: %s", p)
	s.emit(Event{Type: EventPhaseChanged, Message: string(p)})
}

func (s *Session) emit(ev Event) {
	ev.DeliberationID = s.id
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
	s.events.Emit(ev)
}

func (s *Session) emitUsage() {
	if s.tracker == nil {
		return
	}
	in, out := s.tracker.Total()
	s.emit(Event{Type: EventUsageProgress, TokensUsed: in + out, Cost: s.tracker.Cost()})
}

func (s *Session) log(format string, args ...interface{}) {
	s.logger.Log(format, args...)
}

// parties returns the member IDs on either side of a tension. For
// council-wide tensions only the named member is a party; the session
// does not re-consult all eight seats per pass.
func parties(t *models.Tension) []string {
	if t.AgentB == models.AllMembers {
		return []string{t.AgentA}
	}
	return []string{t.AgentA, t.AgentB}
}

// fires reports whether a detection result contains the protocol.
func fires(detected []*models.Tension, protocolID string) bool {
	for _, t := range detected {
		if t != nil && t.ProtocolID == protocolID {
			return true
		}
	}
	return false
}

// tensionContext renders the standing conflict for a re-consultation
// prompt: the trigger plus each party's current position.
func tensionContext(t *models.Tension, st *models.DecisionState) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", t.TriggerReason)
	for _, id := range parties(t) {
		r, ok := st.Response(id)
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "\n%s rates %s (confidence %.2f):\n%s\n", id, r.Rating, r.Confidence, r.Reasoning)
	}
	return b.String()
}

// answerResolution renders an answer as a tension resolution line.
func answerResolution(a *Answer) string {
	verb := "accepted"
	if !a.Accept {
		verb = "rejected"
	}
	text := fmt.Sprintf("escalation %s by %s", verb, a.Source)
	if a.Rationale != "" {
		text += ": " + a.Rationale
	}
	return text
}

// answerSummary renders an answer for event consumers.
func answerSummary(a *Answer) string {
	if a.Source == AnswerSourceTimeout {
		return "unanswered: " + a.Rationale
	}
	if a.Accept {
		return "accepted"
	}
	return "rejected"
}
