package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/witanworks/witan/pkg/models"
)

// Header renders the deliberation status bar: tier, phase, elapsed time
// and usage on the first line, the proposal on the second.
type Header struct {
	width int

	// Styles
	titleStyle    lipgloss.Style
	tierStyle     lipgloss.Style
	phaseStyle    lipgloss.Style
	statStyle     lipgloss.Style
	proposalStyle lipgloss.Style
	sepStyle      lipgloss.Style
}

// NewHeader creates a new Header instance.
func NewHeader() *Header {
	return &Header{
		width: 80,

		titleStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("54")).
			Padding(0, 1),

		tierStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true),

		phaseStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true),

		statStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")),

		proposalStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Italic(true),

		sepStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("236")),
	}
}

// SetWidth sets the header width.
func (h *Header) SetWidth(width int) {
	h.width = width
}

// View renders the header.
func (h *Header) View(proposal string, tier models.Tier, phase string, elapsed time.Duration, tokens int64, cost float64) string {
	sep := h.sepStyle.Render(" │ ")

	parts := []string{
		h.titleStyle.Render("WITAN"),
		h.tierStyle.Render(string(tier)),
		h.phaseStyle.Render(phase),
		h.statStyle.Render(formatDuration(elapsed)),
		h.statStyle.Render(fmt.Sprintf("%s tok", formatTokensCompact(tokens))),
		h.statStyle.Render(fmt.Sprintf("$%.4f", cost)),
	}
	line := strings.Join(parts, sep)

	width := h.width
	if width <= 0 {
		width = 80
	}
	return line + "\n" + h.proposalStyle.Render(truncate(proposal, width-2))
}
