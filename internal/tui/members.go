package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/witanworks/witan/pkg/models"
)

// Status icons for council seats.
const (
	iconWaiting    = "[◐]"
	iconResponded  = "[●]"
	iconFailed     = "[✗]"
	iconEscalating = "[?]"
	iconResolved   = "[✓]"
	iconDetected   = "[○]"
)

// memberSeat tracks one council member's latest answer for display.
type memberSeat struct {
	id         string
	title      string
	rating     models.Rating
	confidence float64
	reasoning  string
	round      int
	responded  bool
	failed     bool
}

// MemberGrid displays the council roster with each seat's latest rating.
type MemberGrid struct {
	seats  []memberSeat
	width  int
	height int

	// Styles
	headerStyle   lipgloss.Style
	rowStyle      lipgloss.Style
	statusWaiting lipgloss.Style
	statusFailed  lipgloss.Style
	ratingEndorse lipgloss.Style
	ratingAccept  lipgloss.Style
	ratingWarn    lipgloss.Style
	ratingBlock   lipgloss.Style
}

// NewMemberGrid creates a grid with one row per roster seat, in roster order.
func NewMemberGrid(members []models.Member) *MemberGrid {
	seats := make([]memberSeat, 0, len(members))
	for _, m := range members {
		seats = append(seats, memberSeat{id: m.ID, title: m.Title})
	}

	return &MemberGrid{
		seats: seats,

		headerStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("7")).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(lipgloss.Color("240")),

		rowStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")),

		statusWaiting: lipgloss.NewStyle().
			Foreground(lipgloss.Color("244")), // Gray

		statusFailed: lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")), // Red

		ratingEndorse: lipgloss.NewStyle().
			Foreground(lipgloss.Color("34")). // Green
			Bold(true),

		ratingAccept: lipgloss.NewStyle().
			Foreground(lipgloss.Color("28")), // Dark green

		ratingWarn: lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")), // Orange

		ratingBlock: lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")). // Red
			Bold(true),
	}
}

// View renders the member grid.
func (g *MemberGrid) View() string {
	if len(g.seats) == 0 {
		return g.rowStyle.Render("No council seats")
	}

	var b strings.Builder

	// Column widths
	colStatus := 5
	colSeat := 18
	colRating := 10
	colConf := 6
	colRound := 6

	header := fmt.Sprintf("%-*s %-*s %-*s %-*s %-*s",
		colStatus, "STS",
		colSeat, "SEAT",
		colRating, "RATING",
		colConf, "CONF",
		colRound, "ROUND",
	)
	b.WriteString(g.headerStyle.Render(header))
	b.WriteString("\n")

	for i := range g.seats {
		b.WriteString(g.renderRow(&g.seats[i], colStatus, colSeat, colRating, colConf, colRound))
		b.WriteString("\n")
	}

	return b.String()
}

// renderRow renders a single seat row.
func (g *MemberGrid) renderRow(seat *memberSeat, colStatus, colSeat, colRating, colConf, colRound int) string {
	icon := g.statusIcon(seat)
	title := truncate(seat.title, colSeat-2)

	conf := "-"
	round := "-"
	if seat.responded {
		conf = fmt.Sprintf("%.2f", seat.confidence)
		round = fmt.Sprintf("%d", seat.round)
	}

	row := fmt.Sprintf("%-*s %-*s %s %-*s %-*s",
		colStatus, icon,
		colSeat, title,
		g.ratingBadge(seat, colRating),
		colConf, conf,
		colRound, round,
	)
	return g.rowStyle.Render(row)
}

// statusIcon returns the icon for a seat's current state.
func (g *MemberGrid) statusIcon(seat *memberSeat) string {
	switch {
	case seat.failed:
		return g.statusFailed.Render(iconFailed)
	case seat.responded:
		return g.ratingStyle(seat.rating).Render(iconResponded)
	default:
		return g.statusWaiting.Render(iconWaiting)
	}
}

// ratingBadge renders the rating column padded to the given width.
func (g *MemberGrid) ratingBadge(seat *memberSeat, width int) string {
	text := "-"
	style := g.statusWaiting
	if seat.failed {
		text = "FAILED"
		style = g.statusFailed
	} else if seat.responded {
		text = string(seat.rating)
		style = g.ratingStyle(seat.rating)
	}
	return style.Render(fmt.Sprintf("%-*s", width, text))
}

// ratingStyle returns the style for a rating value.
func (g *MemberGrid) ratingStyle(rating models.Rating) lipgloss.Style {
	switch rating {
	case models.RatingEndorse:
		return g.ratingEndorse
	case models.RatingAccept:
		return g.ratingAccept
	case models.RatingWarn:
		return g.ratingWarn
	case models.RatingBlock:
		return g.ratingBlock
	default:
		return g.rowStyle
	}
}

// SetResponse records a member's latest answer. Re-consultations
// overwrite the previous round's entry.
func (g *MemberGrid) SetResponse(id string, rating models.Rating, confidence float64, reasoning string, round int) {
	for i := range g.seats {
		if g.seats[i].id == id {
			g.seats[i].rating = rating
			g.seats[i].confidence = confidence
			g.seats[i].reasoning = reasoning
			g.seats[i].round = round
			g.seats[i].responded = true
			g.seats[i].failed = false
			return
		}
	}
}

// SetFailed marks a seat as unresponsive. A seat that answered an
// earlier round keeps its last rating; only the icon changes.
func (g *MemberGrid) SetFailed(id string) {
	for i := range g.seats {
		if g.seats[i].id == id {
			g.seats[i].failed = true
			return
		}
	}
}

// Position returns the seat's latest stance for escalation display.
func (g *MemberGrid) Position(id string) (Position, bool) {
	for i := range g.seats {
		if g.seats[i].id == id && g.seats[i].responded {
			s := &g.seats[i]
			return Position{
				AgentID:    s.id,
				Title:      s.title,
				Rating:     s.rating,
				Confidence: s.confidence,
				Reasoning:  s.reasoning,
			}, true
		}
	}
	return Position{}, false
}

// Counts returns how many seats have responded and how many failed.
func (g *MemberGrid) Counts() SeatCounts {
	var c SeatCounts
	for i := range g.seats {
		switch {
		case g.seats[i].failed:
			c.Failed++
		case g.seats[i].responded:
			c.Responded++
		default:
			c.Waiting++
		}
	}
	return c
}

// SetSize updates the grid dimensions.
func (g *MemberGrid) SetSize(width, height int) {
	g.width = width
	g.height = height
}

// truncate shortens a string to fit in a column.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}

// formatTokensCompact formats tokens in a compact way (e.g., 1.2k, 15k, 1.5M).
func formatTokensCompact(tokens int64) string {
	if tokens < 1000 {
		return fmt.Sprintf("%d", tokens)
	}
	if tokens < 1000000 {
		return fmt.Sprintf("%.1fk", float64(tokens)/1000)
	}
	return fmt.Sprintf("%.1fM", float64(tokens)/1000000)
}
