package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/witanworks/witan/internal/deliberation"
	"github.com/witanworks/witan/pkg/models"
)

// EventMsg wraps a deliberation event for the TUI.
type EventMsg struct {
	Event deliberation.Event
}

// eventsClosedMsg signals that the session's event channel has closed.
type eventsClosedMsg struct{}

// tickMsg drives the elapsed clock.
type tickMsg time.Time

// RespondFunc delivers an operator's escalation answer to the session.
type RespondFunc func(accept bool, rationale string) error

// LogEntry represents a log message displayed in the activity strip.
type LogEntry struct {
	Timestamp time.Time
	Level     string
	Message   string
}

// App is the main bubbletea model for a running deliberation.
type App struct {
	// proposal is the text under deliberation.
	proposal string
	// tier is the consultation depth.
	tier models.Tier
	// phase is the session phase shown in the header.
	phase string
	// round is the latest consultation round seen.
	round int
	// members shows the roster with ratings.
	members *MemberGrid
	// tensions shows detected tensions.
	tensions *TensionBoard
	// gate handles escalation prompts.
	gate *EscalationGate
	// header renders the status bar.
	header *Header
	// footer renders the message bar and key hints.
	footer *Footer
	// logs is the list of activity entries.
	logs []LogEntry
	// events is the session's event channel.
	events <-chan deliberation.Event
	// respond delivers escalation answers back to the session.
	respond RespondFunc
	// width is the terminal width.
	width int
	// height is the terminal height.
	height int
	// startedAt anchors the elapsed clock.
	startedAt time.Time
	// elapsed is the time since the app started.
	elapsed time.Duration
	// tokensUsed is the running token total.
	tokensUsed int64
	// cost is the running cost in dollars.
	cost float64
	// quitting indicates the app is shutting down.
	quitting bool
	// done indicates the deliberation has finished.
	done bool
}

// New creates a new App for the given proposal and roster.
func New(proposal string, tier models.Tier, members []models.Member) *App {
	return &App{
		proposal:  proposal,
		tier:      tier,
		phase:     "starting",
		members:   NewMemberGrid(members),
		tensions:  NewTensionBoard(),
		gate:      NewEscalationGate(),
		header:    NewHeader(),
		footer:    NewFooter(),
		logs:      make([]LogEntry, 0),
		startedAt: time.Now(),
	}
}

// SetEvents wires the session's event channel into the app. Must be
// called before the program starts.
func (a *App) SetEvents(events <-chan deliberation.Event) {
	a.events = events
}

// SetRespondFunc wires escalation answers back to the session.
func (a *App) SetRespondFunc(respond RespondFunc) {
	a.respond = respond
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	cmds := []tea.Cmd{tickCmd()}
	if a.events != nil {
		cmds = append(cmds, waitForEvent(a.events))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if a.gate.IsActive() {
			gate, cmd := a.gate.Update(msg)
			a.gate = gate
			return a, cmd
		}
		switch msg.String() {
		case "q", "ctrl+c":
			a.quitting = true
			return a, tea.Quit
		}

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.header.SetWidth(msg.Width)
		a.footer.SetWidth(msg.Width)
		a.members.SetSize(msg.Width, msg.Height)
		a.tensions.SetSize(msg.Width, msg.Height)
		a.gate.SetSize(msg.Width, msg.Height)

	case tickMsg:
		if a.done {
			return a, nil
		}
		a.elapsed = time.Since(a.startedAt)
		return a, tickCmd()

	case EventMsg:
		a.handleEvent(msg.Event)
		if a.events == nil {
			return a, nil
		}
		return a, waitForEvent(a.events)

	case eventsClosedMsg:
		if !a.done {
			a.done = true
			a.footer.SetSessionDone(true, false, "deliberation ended without a verdict")
		}

	case EscalationAnswerMsg:
		a.footer.SetEscalating(false)
		if a.respond == nil {
			return a, nil
		}
		if err := a.respond(msg.Accept, msg.Rationale); err != nil {
			a.footer.SetMessage(fmt.Sprintf("answer not delivered: %v", err), false)
			a.addLog("ERROR", fmt.Sprintf("escalation answer rejected: %v", err))
		}
	}

	return a, nil
}

// View implements tea.Model.
func (a *App) View() string {
	if a.quitting {
		return "Goodbye!\n"
	}

	if a.gate.IsActive() {
		return fmt.Sprintf("%s\n\n%s", a.gate.View(), a.footer.View())
	}

	header := a.header.View(a.proposal, a.tier, a.phase, a.elapsed, a.tokensUsed, a.cost)
	return fmt.Sprintf("%s\n\n%s\n%s\n%s\n%s",
		header, a.members.View(), a.tensions.View(), a.viewActivity(), a.footer.View())
}

// viewActivity renders the most recent log entries.
func (a *App) viewActivity() string {
	if len(a.logs) == 0 {
		return ""
	}

	start := 0
	if len(a.logs) > 6 {
		start = len(a.logs) - 6
	}

	var view string
	for _, entry := range a.logs[start:] {
		ts := entry.Timestamp.Format("15:04:05")
		view += fmt.Sprintf("  %s [%s] %s\n", ts, entry.Level, entry.Message)
	}
	return view
}

// handleEvent processes a deliberation event and updates state.
func (a *App) handleEvent(ev deliberation.Event) {
	if line := eventLine(ev); line != "" {
		level := "INFO"
		if ev.Error != nil {
			level = "ERROR"
		}
		a.logs = append(a.logs, LogEntry{
			Timestamp: ev.Timestamp,
			Level:     level,
			Message:   line,
		})
	}

	switch ev.Type {
	case deliberation.EventPhaseChanged:
		a.phase = ev.Message

	case deliberation.EventMemberResponded:
		a.members.SetResponse(ev.AgentID, ev.Rating, ev.Confidence, ev.Reasoning, ev.Round)
		a.round = ev.Round
		a.footer.SetSeatCounts(a.members.Counts())

	case deliberation.EventMemberFailed:
		a.members.SetFailed(ev.AgentID)
		a.footer.SetSeatCounts(a.members.Counts())

	case deliberation.EventTensionDetected,
		deliberation.EventTensionResolving,
		deliberation.EventTensionResolved,
		deliberation.EventTensionEscalated:
		a.tensions.Apply(ev.Tension)

	case deliberation.EventEscalationRequested:
		a.tensions.Apply(ev.Tension)
		a.gate.Activate(ev.Tension, a.positionsFor(ev.Tension))
		a.footer.SetEscalating(true)

	case deliberation.EventEscalationAnswered:
		a.tensions.Apply(ev.Tension)
		a.gate.Deactivate()
		a.footer.SetEscalating(false)
		a.footer.SetMessage(ev.Message, true)

	case deliberation.EventUsageProgress:
		a.tokensUsed = ev.TokensUsed
		a.cost = ev.Cost

	case deliberation.EventDeliberationDone:
		a.done = true
		a.tokensUsed = ev.TokensUsed
		a.cost = ev.Cost
		a.footer.SetSessionDone(true, ev.Outcome == models.OutcomeApproved, ev.Message)
	}
}

// positionsFor collects the parties' latest stances for the gate.
func (a *App) positionsFor(t *models.Tension) []Position {
	if t == nil {
		return nil
	}
	ids := []string{t.AgentA}
	if t.AgentB != models.AllMembers {
		ids = append(ids, t.AgentB)
	}
	positions := make([]Position, 0, len(ids))
	for _, id := range ids {
		if p, ok := a.members.Position(id); ok {
			positions = append(positions, p)
		}
	}
	return positions
}

// addLog appends an activity entry stamped now.
func (a *App) addLog(level, message string) {
	a.logs = append(a.logs, LogEntry{
		Timestamp: time.Now(),
		Level:     level,
		Message:   message,
	})
}

// eventLine formats an event for the activity strip. Empty string
// means the event is not logged.
func eventLine(ev deliberation.Event) string {
	switch ev.Type {
	case deliberation.EventPhaseChanged:
		return fmt.Sprintf("phase: %s", ev.Message)
	case deliberation.EventMemberResponded:
		return fmt.Sprintf("%s rates %s (confidence %.2f)", ev.AgentID, ev.Rating, ev.Confidence)
	case deliberation.EventMemberFailed:
		return fmt.Sprintf("%s failed to respond: %v", ev.AgentID, ev.Error)
	case deliberation.EventTensionDetected:
		if ev.Tension == nil {
			return ""
		}
		return fmt.Sprintf("tension detected: %s", ev.Tension.ProtocolID)
	case deliberation.EventTensionResolving:
		if ev.Tension == nil {
			return ""
		}
		return fmt.Sprintf("re-consulting parties of %s (pass %d/%d)",
			ev.Tension.ProtocolID, ev.Tension.IterationCount, ev.Tension.MaxIterations)
	case deliberation.EventTensionResolved:
		if ev.Tension == nil {
			return ""
		}
		return fmt.Sprintf("tension resolved: %s", ev.Tension.ProtocolID)
	case deliberation.EventTensionEscalated:
		if ev.Tension == nil {
			return ""
		}
		return fmt.Sprintf("tension escalated: %s", ev.Tension.ProtocolID)
	case deliberation.EventEscalationRequested:
		if ev.Tension == nil {
			return ""
		}
		return fmt.Sprintf("human decision required for %s", ev.Tension.ProtocolID)
	case deliberation.EventEscalationAnswered:
		if ev.Tension == nil {
			return ""
		}
		return fmt.Sprintf("escalation %s: %s", ev.Tension.ProtocolID, ev.Message)
	case deliberation.EventDeliberationDone:
		return ev.Message
	default:
		return ""
	}
}

// waitForEvent returns a command that delivers the next session event.
func waitForEvent(events <-chan deliberation.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return eventsClosedMsg{}
		}
		return EventMsg{Event: ev}
	}
}

// tickCmd schedules the next clock tick.
func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Run starts the TUI application and blocks until it exits.
func Run(app *App) error {
	p := tea.NewProgram(app, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// NewProgram creates a Bubbletea program for the given app. The
// returned program can receive messages via Send().
func NewProgram(app *App) (*tea.Program, *App) {
	p := tea.NewProgram(app, tea.WithAltScreen())
	return p, app
}
