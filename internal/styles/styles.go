// Package styles holds the lipgloss styles used for terminal output.
package styles

import "github.com/charmbracelet/lipgloss"

var (
	// Colors meet WCAG AA contrast on dark terminals.
	PrimaryColor   = lipgloss.Color("#A78BFA") // Purple
	SecondaryColor = lipgloss.Color("#10B981") // Green
	WarningColor   = lipgloss.Color("#F59E0B") // Amber
	ErrorColor     = lipgloss.Color("#F87171") // Red
	MutedColor     = lipgloss.Color("#9CA3AF") // Gray
	BorderColor    = lipgloss.Color("#6B7280") // Gray

	Primary   = lipgloss.NewStyle().Foreground(PrimaryColor)
	Secondary = lipgloss.NewStyle().Foreground(SecondaryColor)
	Warning   = lipgloss.NewStyle().Foreground(WarningColor)
	Error     = lipgloss.NewStyle().Foreground(ErrorColor)
	Muted     = lipgloss.NewStyle().Foreground(MutedColor)

	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(PrimaryColor)

	// GroupHeader introduces the steps of a pipeline group.
	GroupHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(SecondaryColor)

	StepName = lipgloss.NewStyle().Bold(true)

	// Source is the module, file or command a step comes from.
	Source = lipgloss.NewStyle().
		Foreground(MutedColor).
		Italic(true)

	ErrorPrefix = lipgloss.NewStyle().
			Bold(true).
			Foreground(ErrorColor)

	Box = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(BorderColor).
		Padding(0, 1)
)

// SourceLabel returns the style label of a step source kind.
func SourceLabel(source string) string {
	switch source {
	case "run":
		return Warning.Render(source)
	case "registry":
		return Muted.Render(source)
	default:
		return Source.Render(source)
	}
}
