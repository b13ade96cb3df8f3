package styles

import (
	"github.com/charmbracelet/lipgloss"

	"tagren/internal/domain"
)

var (
	// Colors
	Primary   = lipgloss.Color("#7C3AED") // Purple
	Secondary = lipgloss.Color("#10B981") // Green
	Muted     = lipgloss.Color("#6B7280") // Gray
	Warning   = lipgloss.Color("#F59E0B") // Amber
	Error     = lipgloss.Color("#EF4444") // Red
	Info      = lipgloss.Color("#60A5FA") // Blue
	White     = lipgloss.Color("#FFFFFF")
	Black     = lipgloss.Color("#000000")

	// Base styles
	App = lipgloss.NewStyle().
		Padding(1, 2)

	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary).
		MarginBottom(1)

	Subtitle = lipgloss.NewStyle().
			Foreground(Muted).
			Italic(true)

	// Image queue
	QueueItem = lipgloss.NewStyle()

	QueueSelected = lipgloss.NewStyle().
			Background(Primary).
			Foreground(White).
			Bold(true)

	QueueDone = lipgloss.NewStyle().
			Foreground(Muted).
			Strikethrough(true)

	QueueCurrent  = "▶ "
	QueueDoneMark = "✓ "
	QueueBlank    = "  "

	// Status bar
	StatusBar = lipgloss.NewStyle().
			Background(lipgloss.Color("#1F2937")).
			Foreground(White).
			Padding(0, 1)

	StatusText = lipgloss.NewStyle().
			Foreground(Muted)

	// Input styles
	InputLabel = lipgloss.NewStyle().
			Foreground(Secondary).
			Bold(true)

	InputField = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Primary).
			Padding(0, 1)

	InputFocused = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Secondary).
			Padding(0, 1)

	KeepOn = lipgloss.NewStyle().
		Foreground(Black).
		Background(Warning).
		Padding(0, 1)

	KeepOff = lipgloss.NewStyle().
		Foreground(Muted).
		Padding(0, 1)

	// Preview of the resulting file name
	Preview = lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(Info).
		Bold(true).
		Padding(0, 1)

	PreviewTaken = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(Error).
			Foreground(Error).
			Bold(true).
			Padding(0, 1)

	// Help styles
	HelpKey = lipgloss.NewStyle().
		Foreground(Primary).
		Bold(true)

	HelpDesc = lipgloss.NewStyle().
			Foreground(Muted)

	HelpSeparator = lipgloss.NewStyle().
			Foreground(Muted).
			SetString(" • ")

	// Message styles
	Success = lipgloss.NewStyle().
		Foreground(Secondary).
		Bold(true)

	ErrorMsg = lipgloss.NewStyle().
			Foreground(Error).
			Bold(true)

	// Muted text style (for using Muted color as a style)
	MutedText = lipgloss.NewStyle().
			Foreground(Muted)
)

// StatusColor returns the color for an item status
func StatusColor(status domain.Status) lipgloss.Color {
	switch status {
	case domain.StatusOK:
		return Secondary
	case domain.StatusNameConflict:
		return Warning
	case domain.StatusNoDetection, domain.StatusNoText:
		return Info
	case domain.StatusReadFail:
		return Error
	default:
		return Muted
	}
}

// Status renders a status label in its color
func Status(status domain.Status) string {
	return lipgloss.NewStyle().Foreground(StatusColor(status)).Bold(true).Render(string(status))
}
