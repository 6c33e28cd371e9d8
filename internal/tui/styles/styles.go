// Package styles holds the lipgloss palette used for terminal output.
package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/Iron-Ham/autoplan/internal/plan"
)

var (
	// Colors meet WCAG AA contrast on dark backgrounds.
	PrimaryColor   = lipgloss.Color("#A78BFA") // Purple
	SecondaryColor = lipgloss.Color("#10B981") // Green
	WarningColor   = lipgloss.Color("#F59E0B") // Amber
	ErrorColor     = lipgloss.Color("#F87171") // Red
	MutedColor     = lipgloss.Color("#9CA3AF") // Gray
	TextColor      = lipgloss.Color("#F9FAFB") // Light text
	BorderColor    = lipgloss.Color("#6B7280") // Gray
	BlueColor      = lipgloss.Color("#60A5FA") // Blue

	Primary   = lipgloss.NewStyle().Foreground(PrimaryColor)
	Secondary = lipgloss.NewStyle().Foreground(SecondaryColor)
	Warning   = lipgloss.NewStyle().Foreground(WarningColor)
	Error     = lipgloss.NewStyle().Foreground(ErrorColor)
	Muted     = lipgloss.NewStyle().Foreground(MutedColor)

	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(PrimaryColor)

	Subtitle = lipgloss.NewStyle().
			Foreground(MutedColor).
			Italic(true)

	// ContentBox frames the phase body at the manual gate.
	ContentBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(BorderColor).
			Padding(0, 1)

	HelpKey = lipgloss.NewStyle().
		Bold(true).
		Foreground(PrimaryColor)

	Help = lipgloss.NewStyle().
		Foreground(MutedColor)

	Checked   = lipgloss.NewStyle().Foreground(SecondaryColor)
	Unchecked = lipgloss.NewStyle().Foreground(WarningColor)

	TableHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(TextColor).
			Underline(true)
)

// StatusColor returns the color used for a phase status.
func StatusColor(s plan.Status) lipgloss.Color {
	switch s {
	case plan.StatusComplete:
		return SecondaryColor
	case plan.StatusAwaitingManualVerification:
		return WarningColor
	case plan.StatusInProgress:
		return BlueColor
	default:
		return MutedColor
	}
}

// Status renders a status name in its color.
func Status(s plan.Status) string {
	return lipgloss.NewStyle().Foreground(StatusColor(s)).Render(s.String())
}

// Checkbox renders a checklist marker.
func Checkbox(checked bool) string {
	if checked {
		return Checked.Render("[x]")
	}
	return Unchecked.Render("[ ]")
}
