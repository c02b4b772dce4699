package report

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/unbound-force/pest2phpunit/internal/ledger"
)

// Styles defines the visual theme for terminal report output.
// Lipgloss automatically degrades to no-color when output is not a TTY.
type Styles struct {
	// Header is used for per-file headers (e.g. "=== path ===").
	Header lipgloss.Style

	// SubHeader is used for secondary information lines.
	SubHeader lipgloss.Style

	// TableHeader styles the header row of tables.
	TableHeader lipgloss.Style

	// TableCell styles regular table cells.
	TableCell lipgloss.Style

	// Marker styles marker counts and messages.
	Marker lipgloss.Style

	// Leak styles leak counts and calls.
	Leak lipgloss.Style

	// Pass styles CLEAN indicators.
	Pass lipgloss.Style

	// Fail styles FAILED indicators.
	Fail lipgloss.Style

	// Border is used for table borders.
	Border lipgloss.Style

	// Muted is used for de-emphasized text.
	Muted lipgloss.Style
}

// DefaultStyles returns the default color scheme for terminal reports.
func DefaultStyles() Styles {
	return Styles{
		Header:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63")),
		SubHeader: lipgloss.NewStyle().Foreground(lipgloss.Color("241")),

		TableHeader: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63")),
		TableCell:   lipgloss.NewStyle().PaddingRight(1),

		Marker: lipgloss.NewStyle().Foreground(lipgloss.Color("220")),
		Leak:   lipgloss.NewStyle().Foreground(lipgloss.Color("208")).Bold(true),

		Pass: lipgloss.NewStyle().Foreground(lipgloss.Color("40")).Bold(true),
		Fail: lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),

		Border: lipgloss.NewStyle().Foreground(lipgloss.Color("63")),

		Muted: lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
	}
}

// StatusStyle returns the style for a ledger status.
func (s Styles) StatusStyle(status ledger.Status) lipgloss.Style {
	switch status {
	case ledger.StatusClean:
		return s.Pass
	case ledger.StatusReview:
		return s.Marker
	case ledger.StatusFailed:
		return s.Fail
	default:
		return s.Muted
	}
}
