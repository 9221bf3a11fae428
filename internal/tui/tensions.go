package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/witanworks/witan/pkg/models"
)

// TensionBoard displays detected tensions and their resolution progress.
type TensionBoard struct {
	tensions []*models.Tension
	width    int
	height   int

	// Styles
	headerStyle     lipgloss.Style
	rowStyle        lipgloss.Style
	triggerStyle    lipgloss.Style
	statusActive    lipgloss.Style
	statusResolving lipgloss.Style
	statusEscalated lipgloss.Style
	statusResolved  lipgloss.Style
}

// NewTensionBoard creates an empty TensionBoard.
func NewTensionBoard() *TensionBoard {
	return &TensionBoard{
		tensions: make([]*models.Tension, 0),

		headerStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("7")).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(lipgloss.Color("240")),

		rowStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")),

		triggerStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")),

		statusActive: lipgloss.NewStyle().
			Foreground(lipgloss.Color("244")), // Gray

		statusResolving: lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")), // Orange

		statusEscalated: lipgloss.NewStyle().
			Foreground(lipgloss.Color("220")), // Yellow

		statusResolved: lipgloss.NewStyle().
			Foreground(lipgloss.Color("28")), // Dark green
	}
}

// Apply adds or updates a tension, keyed by protocol.
func (b *TensionBoard) Apply(t *models.Tension) {
	if t == nil {
		return
	}
	for i, existing := range b.tensions {
		if existing.ProtocolID == t.ProtocolID {
			b.tensions[i] = t
			return
		}
	}
	b.tensions = append(b.tensions, t)
}

// View renders the tension board.
func (b *TensionBoard) View() string {
	if len(b.tensions) == 0 {
		return b.rowStyle.Render("No tensions detected")
	}

	var sb strings.Builder

	colStatus := 5
	colProtocol := 24
	colParties := 24
	colPasses := 8

	header := fmt.Sprintf("%-*s %-*s %-*s %-*s %s",
		colStatus, "STS",
		colProtocol, "PROTOCOL",
		colParties, "PARTIES",
		colPasses, "PASSES",
		"STATE",
	)
	sb.WriteString(b.headerStyle.Render(header))
	sb.WriteString("\n")

	for _, t := range b.tensions {
		sb.WriteString(b.renderRow(t, colStatus, colProtocol, colParties, colPasses))
		sb.WriteString("\n")
	}

	return sb.String()
}

// renderRow renders a single tension row plus its trigger line.
func (b *TensionBoard) renderRow(t *models.Tension, colStatus, colProtocol, colParties, colPasses int) string {
	icon := b.statusIcon(t.Status)
	protocol := truncate(t.ProtocolID, colProtocol-2)
	parties := truncate(partyLabel(t), colParties-2)
	passes := fmt.Sprintf("%d/%d", t.IterationCount, t.MaxIterations)

	row := fmt.Sprintf("%-*s %-*s %-*s %-*s %s",
		colStatus, icon,
		colProtocol, protocol,
		colParties, parties,
		colPasses, passes,
		string(t.Status),
	)

	detail := t.Resolution
	if detail == "" {
		detail = t.TriggerReason
	}
	width := b.width
	if width <= 0 {
		width = 80
	}
	return b.rowStyle.Render(row) + "\n" +
		b.triggerStyle.Render("      "+truncate(detail, width-8))
}

// statusIcon returns the icon for a tension status.
func (b *TensionBoard) statusIcon(status models.TensionStatus) string {
	switch status {
	case models.TensionResolving:
		return b.statusResolving.Render(iconResponded)
	case models.TensionEscalated, models.TensionRequiresEscalation:
		return b.statusEscalated.Render(iconEscalating)
	case models.TensionResolved:
		return b.statusResolved.Render(iconResolved)
	default:
		return b.statusActive.Render(iconDetected)
	}
}

// partyLabel formats the two sides of a tension.
func partyLabel(t *models.Tension) string {
	if t.AgentB == models.AllMembers {
		return t.AgentA + " / council"
	}
	return t.AgentA + " / " + t.AgentB
}

// Counts returns (resolved, escalated, open) tension counts.
func (b *TensionBoard) Counts() (int, int, int) {
	resolved, escalated, open := 0, 0, 0
	for _, t := range b.tensions {
		switch t.Status {
		case models.TensionResolved:
			resolved++
		case models.TensionEscalated:
			escalated++
		default:
			open++
		}
	}
	return resolved, escalated, open
}

// SetSize updates the board dimensions.
func (b *TensionBoard) SetSize(width, height int) {
	b.width = width
	b.height = height
}
