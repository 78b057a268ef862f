package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/caskdeck/caskdeck/internal/task"
)

var (
	// Colors - all colors meet WCAG AA contrast (4.5:1) on both black and dark surfaces
	PrimaryColor   = lipgloss.Color("#A78BFA") // Purple
	SecondaryColor = lipgloss.Color("#10B981") // Green
	WarningColor   = lipgloss.Color("#F59E0B") // Amber
	ErrorColor     = lipgloss.Color("#F87171") // Red
	MutedColor     = lipgloss.Color("#9CA3AF") // Gray
	SurfaceColor   = lipgloss.Color("#1F2937") // Dark surface
	TextColor      = lipgloss.Color("#F9FAFB") // Light text
	BorderColor    = lipgloss.Color("#6B7280") // Gray
	BlueColor      = lipgloss.Color("#60A5FA") // Blue

	// Convenience styles for colors
	Primary   = lipgloss.NewStyle().Foreground(PrimaryColor)
	Secondary = lipgloss.NewStyle().Foreground(SecondaryColor)
	Warning   = lipgloss.NewStyle().Foreground(WarningColor)
	Error     = lipgloss.NewStyle().Foreground(ErrorColor)
	Muted     = lipgloss.NewStyle().Foreground(MutedColor)
	Text      = lipgloss.NewStyle().Foreground(TextColor)

	// State colors
	StateQueued     = lipgloss.Color("#9CA3AF") // Gray
	StateRunning    = lipgloss.Color("#60A5FA") // Blue
	StateEscalation = lipgloss.Color("#F59E0B") // Amber
	StateSucceeded  = lipgloss.Color("#10B981") // Green
	StateFailed     = lipgloss.Color("#F87171") // Red

	// Header
	Header = lipgloss.NewStyle().
		Bold(true).
		Foreground(PrimaryColor).
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(BorderColor).
		MarginBottom(1)

	// Task rows
	TaskName = lipgloss.NewStyle().
			Bold(true).
			Foreground(TextColor)

	TaskAction = lipgloss.NewStyle().
			Foreground(MutedColor).
			Width(10)

	TaskDetail = lipgloss.NewStyle().
			Foreground(MutedColor).
			PaddingLeft(4)

	// Notification banner
	Banner = lipgloss.NewStyle().
		Foreground(TextColor).
		Background(SurfaceColor).
		Padding(0, 1)

	// Help bar
	HelpBar = lipgloss.NewStyle().
		Foreground(MutedColor).
		MarginTop(1)

	HelpKey = lipgloss.NewStyle().
		Bold(true).
		Foreground(SecondaryColor)

	// Error message
	ErrorMsg = lipgloss.NewStyle().
			Foreground(ErrorColor).
			Bold(true)

	// Success message
	SuccessMsg = lipgloss.NewStyle().
			Foreground(SecondaryColor).
			Bold(true)

	// Warning message
	WarningMsg = lipgloss.NewStyle().
			Foreground(WarningColor).
			Bold(true)
)

// StateColor returns the color for a task state
func StateColor(s task.State) lipgloss.Color {
	switch s {
	case task.StateQueued:
		return StateQueued
	case task.StateRunning:
		return StateRunning
	case task.StateEscalationPending:
		return StateEscalation
	case task.StateSucceeded:
		return StateSucceeded
	case task.StateFailed:
		return StateFailed
	default:
		return MutedColor
	}
}

// StateIcon returns an icon for a task state
func StateIcon(s task.State) string {
	switch s {
	case task.StateQueued:
		return "○"
	case task.StateRunning:
		return "●"
	case task.StateEscalationPending:
		return "?"
	case task.StateSucceeded:
		return "✓"
	case task.StateFailed:
		return "✗"
	default:
		return "●"
	}
}

// StateLabel returns a short human label for a task state
func StateLabel(s task.State) string {
	switch s {
	case task.StateEscalationPending:
		return "waiting for password"
	default:
		return string(s)
	}
}

// RenderState renders the icon and label of a state in its color
func RenderState(s task.State) string {
	return lipgloss.NewStyle().Foreground(StateColor(s)).Render(StateIcon(s) + " " + StateLabel(s))
}
