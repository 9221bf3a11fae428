package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// SeatCounts holds the count of seats in each response state.
type SeatCounts struct {
	Responded int
	Failed    int
	Waiting   int
}

// Footer renders the status bar and keyboard hints.
type Footer struct {
	message     string
	success     bool
	sessionDone bool
	escalating  bool
	width       int
	seatCounts  SeatCounts

	// Styles
	successStyle   lipgloss.Style
	errorStyle     lipgloss.Style
	hintStyle      lipgloss.Style
	separatorStyle lipgloss.Style
}

// NewFooter creates a new Footer instance.
func NewFooter() *Footer {
	return &Footer{
		successStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("28")).
			Bold(true),

		errorStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true),

		hintStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")),

		separatorStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("236")),
	}
}

// SetMessage sets the status message.
func (f *Footer) SetMessage(message string, success bool) {
	f.message = message
	f.success = success
}

// SetSessionDone marks the deliberation as complete.
func (f *Footer) SetSessionDone(done bool, success bool, message string) {
	f.sessionDone = done
	f.success = success
	f.message = message
}

// SetEscalating switches the hints to the escalation key map.
func (f *Footer) SetEscalating(escalating bool) {
	f.escalating = escalating
}

// SetWidth sets the footer width.
func (f *Footer) SetWidth(width int) {
	f.width = width
}

// SetSeatCounts updates the seat counts for display.
func (f *Footer) SetSeatCounts(counts SeatCounts) {
	f.seatCounts = counts
}

// View renders the footer.
func (f *Footer) View() string {
	var left string
	var right string

	// Left side: seat counts and status message
	total := f.seatCounts.Responded + f.seatCounts.Failed + f.seatCounts.Waiting
	if total > 0 {
		counts := fmt.Sprintf("✓%d", f.seatCounts.Responded)
		if f.seatCounts.Failed > 0 {
			counts += f.errorStyle.Render(fmt.Sprintf(" ✗%d", f.seatCounts.Failed))
		}
		if f.seatCounts.Waiting > 0 {
			counts += fmt.Sprintf(" ⏳%d", f.seatCounts.Waiting)
		}
		left = counts
	}

	if f.sessionDone {
		if f.success {
			left = f.successStyle.Render("✓ " + f.message)
		} else {
			left = f.errorStyle.Render("✗ " + f.message)
		}
	} else if f.message != "" {
		msg := f.hintStyle.Render(f.message)
		if left != "" {
			left += " " + msg
		} else {
			left = msg
		}
	}

	// Right side: keyboard hints
	right = f.keyboardHints()

	sep := f.separatorStyle.Render(" │ ")

	if left != "" && right != "" {
		return left + sep + right
	} else if left != "" {
		return left
	}
	return right
}

// keyboardHints returns context-sensitive keyboard hints.
func (f *Footer) keyboardHints() string {
	if f.sessionDone {
		return f.hintStyle.Render("Press q to exit")
	}

	if f.escalating {
		return f.hintStyle.Render("a accept │ r reject │ j/k scroll")
	}

	return f.hintStyle.Render("q quit")
}
