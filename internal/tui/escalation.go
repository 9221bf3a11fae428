package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/witanworks/witan/pkg/models"
)

// Position is one party's stance shown during an escalation.
type Position struct {
	AgentID    string
	Title      string
	Rating     models.Rating
	Confidence float64
	Reasoning  string
}

// EscalationAnswerMsg is sent after the operator accepts or rejects an
// escalated tension.
type EscalationAnswerMsg struct {
	ProtocolID string
	Accept     bool
	Rationale  string
}

// EscalationGate takes over the screen when a tension needs a human
// decision. It shows both parties' positions and prompts for accept or
// reject; a rejection asks for a short rationale first.
type EscalationGate struct {
	// width is the viewport width.
	width int
	// height is the viewport height.
	height int
	// active indicates an escalation is currently awaiting an answer.
	active bool
	// rejecting indicates the rationale input is showing.
	rejecting bool
	// tension is the escalated tension.
	tension *models.Tension
	// positions are the parties' latest stances.
	positions []Position
	// lines is the rendered position content split for scrolling.
	lines []string
	// scrollOffset is the current scroll position.
	scrollOffset int
	// rationale collects the rejection reason.
	rationale textinput.Model

	// Styles
	titleStyle   lipgloss.Style
	headerStyle  lipgloss.Style
	promptStyle  lipgloss.Style
	contextStyle lipgloss.Style
	acceptStyle  lipgloss.Style
	rejectStyle  lipgloss.Style
	boxStyle     lipgloss.Style
}

// NewEscalationGate creates an inactive EscalationGate.
func NewEscalationGate() *EscalationGate {
	ti := textinput.New()
	ti.Placeholder = "Why should the council's approval not stand?"
	ti.CharLimit = 500
	ti.Width = 60

	return &EscalationGate{
		width:     80,
		height:    24,
		lines:     make([]string, 0),
		rationale: ti,

		titleStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			Background(lipgloss.Color("236")).
			Padding(0, 2),

		headerStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("12")). // Blue
			Bold(true),

		promptStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("11")). // Yellow
			Bold(true),

		contextStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")), // Gray

		acceptStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("10")), // Green

		rejectStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")), // Red

		boxStyle: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1),
	}
}

// Activate shows the gate for the given tension. Positions should hold
// the parties' latest responses in the order they should be displayed.
func (g *EscalationGate) Activate(t *models.Tension, positions []Position) {
	g.tension = t
	g.positions = positions
	g.lines = g.buildLines()
	g.scrollOffset = 0
	g.rejecting = false
	g.rationale.Reset()
	g.active = true
}

// Update handles input for the escalation gate.
func (g *EscalationGate) Update(msg tea.Msg) (*EscalationGate, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if !g.active {
			return g, nil
		}
		if g.rejecting {
			return g.updateRationale(msg)
		}

		switch msg.String() {
		case "a", "A", "y", "Y":
			protocolID := g.tension.ProtocolID
			g.active = false
			g.reset()
			return g, func() tea.Msg {
				return EscalationAnswerMsg{
					ProtocolID: protocolID,
					Accept:     true,
				}
			}

		case "r", "R", "n", "N":
			g.rejecting = true
			return g, g.rationale.Focus()

		case "up", "k":
			g.scrollUp()
		case "down", "j":
			g.scrollDown()
		case "pgup", "b":
			g.scrollPageUp()
		case "pgdown", "f", " ":
			g.scrollPageDown()
		case "home", "g":
			g.scrollOffset = 0
		case "end", "G":
			g.scrollToBottom()
		}

	case tea.WindowSizeMsg:
		g.width = msg.Width
		g.height = msg.Height
	}

	return g, nil
}

// updateRationale handles input while the rejection reason is showing.
func (g *EscalationGate) updateRationale(msg tea.KeyMsg) (*EscalationGate, tea.Cmd) {
	switch msg.String() {
	case "enter":
		rationale := g.rationale.Value()
		if rationale == "" {
			rationale = "rejected by operator"
		}
		protocolID := g.tension.ProtocolID
		g.active = false
		g.reset()
		return g, func() tea.Msg {
			return EscalationAnswerMsg{
				ProtocolID: protocolID,
				Accept:     false,
				Rationale:  rationale,
			}
		}

	case "esc":
		g.rejecting = false
		g.rationale.Blur()
		return g, nil
	}

	var cmd tea.Cmd
	g.rationale, cmd = g.rationale.Update(msg)
	return g, cmd
}

// View renders the escalation gate UI.
func (g *EscalationGate) View() string {
	if !g.active {
		return ""
	}

	var sb strings.Builder

	title := g.titleStyle.Render(" Human Decision Required ")
	sb.WriteString(title)
	sb.WriteString("\n\n")

	sb.WriteString(g.headerStyle.Render("Protocol: "))
	sb.WriteString(g.tension.ProtocolID)
	sb.WriteString("\n")
	sb.WriteString(g.headerStyle.Render("Parties:  "))
	sb.WriteString(partyLabel(g.tension))
	sb.WriteString("\n")
	sb.WriteString(g.headerStyle.Render("Trigger:  "))
	sb.WriteString(g.tension.TriggerReason)
	sb.WriteString("\n\n")

	sb.WriteString(g.headerStyle.Render("Positions:"))
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", min(g.width, 80)))
	sb.WriteString("\n")

	// Calculate visible content area
	contentHeight := g.height - 14 // Reserve space for header, prompt, hints
	if contentHeight < 5 {
		contentHeight = 5
	}

	totalLines := len(g.lines)
	if g.scrollOffset > totalLines-contentHeight {
		g.scrollOffset = max(0, totalLines-contentHeight)
	}

	start := g.scrollOffset
	end := min(start+contentHeight, totalLines)

	for i := start; i < end; i++ {
		sb.WriteString(g.lines[i])
		sb.WriteString("\n")
	}

	// Scroll indicator
	if totalLines > contentHeight {
		percent := 0
		maxOffset := totalLines - contentHeight
		if maxOffset > 0 {
			percent = (g.scrollOffset * 100) / maxOffset
		}
		indicator := fmt.Sprintf("--- %d%% (%d/%d lines) ---", percent, g.scrollOffset+contentHeight, totalLines)
		sb.WriteString(g.contextStyle.Render(indicator))
		sb.WriteString("\n")
	}

	sb.WriteString(strings.Repeat("-", min(g.width, 80)))
	sb.WriteString("\n\n")

	if g.rejecting {
		sb.WriteString(g.promptStyle.Render("Reason for rejecting the proposal:"))
		sb.WriteString("\n")
		sb.WriteString(g.boxStyle.Width(min(g.width-2, 78)).Render("> " + g.rationale.View()))
		sb.WriteString("\n")
		sb.WriteString(g.contextStyle.Render("(Enter to submit, Esc to go back)"))
		return sb.String()
	}

	prompt := g.promptStyle.Render("Let the proposal proceed? [A]ccept / [R]eject")
	sb.WriteString(prompt)
	sb.WriteString("\n")
	sb.WriteString(g.contextStyle.Render("(Use j/k or arrows to scroll, A to accept, R to reject)"))

	return sb.String()
}

// buildLines renders the party positions into scrollable lines.
func (g *EscalationGate) buildLines() []string {
	lines := make([]string, 0)
	for _, p := range g.positions {
		label := p.Title
		if label == "" {
			label = p.AgentID
		}
		heading := fmt.Sprintf("%s rates %s (confidence %.2f)", label, p.Rating, p.Confidence)
		if p.Rating.Objecting() {
			lines = append(lines, g.rejectStyle.Render(heading))
		} else {
			lines = append(lines, g.acceptStyle.Render(heading))
		}
		for _, l := range strings.Split(p.Reasoning, "\n") {
			lines = append(lines, "  "+l)
		}
		lines = append(lines, "")
	}
	return lines
}

// IsActive returns true if an escalation is awaiting an answer.
func (g *EscalationGate) IsActive() bool {
	return g.active
}

// Deactivate closes the gate without emitting an answer. Used when the
// escalation was answered elsewhere, e.g. by a file signal.
func (g *EscalationGate) Deactivate() {
	g.active = false
	g.reset()
}

// Tension returns the tension currently shown, or nil.
func (g *EscalationGate) Tension() *models.Tension {
	return g.tension
}

// SetSize updates the viewport dimensions.
func (g *EscalationGate) SetSize(width, height int) {
	g.width = width
	g.height = height
}

// scrollUp moves the viewport up by one line.
func (g *EscalationGate) scrollUp() {
	if g.scrollOffset > 0 {
		g.scrollOffset--
	}
}

// scrollDown moves the viewport down by one line.
func (g *EscalationGate) scrollDown() {
	contentHeight := g.height - 14
	if contentHeight < 5 {
		contentHeight = 5
	}
	maxOffset := max(0, len(g.lines)-contentHeight)
	if g.scrollOffset < maxOffset {
		g.scrollOffset++
	}
}

// scrollPageUp moves the viewport up by one page.
func (g *EscalationGate) scrollPageUp() {
	pageSize := g.height - 14
	if pageSize < 5 {
		pageSize = 5
	}
	g.scrollOffset -= pageSize
	if g.scrollOffset < 0 {
		g.scrollOffset = 0
	}
}

// scrollPageDown moves the viewport down by one page.
func (g *EscalationGate) scrollPageDown() {
	pageSize := g.height - 14
	if pageSize < 5 {
		pageSize = 5
	}
	maxOffset := max(0, len(g.lines)-pageSize)
	g.scrollOffset += pageSize
	if g.scrollOffset > maxOffset {
		g.scrollOffset = maxOffset
	}
}

// scrollToBottom moves the viewport to the end of the positions.
func (g *EscalationGate) scrollToBottom() {
	contentHeight := g.height - 14
	if contentHeight < 5 {
		contentHeight = 5
	}
	g.scrollOffset = max(0, len(g.lines)-contentHeight)
}

// reset clears the escalation state.
func (g *EscalationGate) reset() {
	g.tension = nil
	g.positions = nil
	g.lines = make([]string, 0)
	g.scrollOffset = 0
	g.rejecting = false
	g.rationale.Reset()
	g.rationale.Blur()
}
