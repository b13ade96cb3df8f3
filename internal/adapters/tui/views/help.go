package views

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"tagren/internal/adapters/tui/styles"
)

// HelpKeyMap defines key bindings for the help view
type HelpKeyMap struct {
	Close key.Binding
}

var HelpKeys = HelpKeyMap{
	Close: key.NewBinding(
		key.WithKeys("esc", "q", "f1"),
		key.WithHelp("esc/q/f1", "close"),
	),
}

// HelpModel is the model for the help view
type HelpModel struct {
	width  int
	height int
}

// NewHelpModel creates a new help view model
func NewHelpModel() *HelpModel {
	return &HelpModel{}
}

// Init initializes the help view
func (m *HelpModel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the help view
func (m *HelpModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, HelpKeys.Close) {
			return m, func() tea.Msg {
				return SwitchToReviewMsg{}
			}
		}
	}

	return m, nil
}

// View renders the help view
func (m *HelpModel) View() string {
	var b strings.Builder

	b.WriteString(styles.Title.Render("tagren Help"))
	b.WriteString("\n\n")

	b.WriteString(styles.Subtitle.Render("Rename images to the tag you read on them"))
	b.WriteString("\n\n")

	b.WriteString(styles.InputLabel.Render("Editing"))
	b.WriteString("\n")
	b.WriteString(helpLine("tab / ↓", "Next field"))
	b.WriteString(helpLine("shift+tab / ↑", "Previous field"))
	b.WriteString(helpLine("ctrl+k", "Keep field value for the next image"))
	b.WriteString(helpLine("enter", "Rename to the preview name"))
	b.WriteString("\n")

	b.WriteString(styles.InputLabel.Render("Images"))
	b.WriteString("\n")
	b.WriteString(helpLine("← / →", "Previous / next image"))
	b.WriteString(helpLine("ctrl+o", "Open image in the system viewer"))
	b.WriteString(helpLine("ctrl+y", "Copy preview name"))
	b.WriteString("\n")

	b.WriteString(styles.InputLabel.Render("General"))
	b.WriteString("\n")
	b.WriteString(helpLine("f1", "Toggle help"))
	b.WriteString(helpLine("esc / ctrl+c", "Quit"))
	b.WriteString("\n\n")

	b.WriteString(styles.InputLabel.Render("Naming"))
	b.WriteString("\n")
	b.WriteString(styles.MutedText.Render("  PREFIX-MIDDLE-INDEX.ext, empty parts skipped"))
	b.WriteString("\n")
	b.WriteString(styles.MutedText.Render("  Parts are uppercased; other characters become '-'"))
	b.WriteString("\n")
	b.WriteString(styles.MutedText.Render("  An existing name is reported, never overwritten"))
	b.WriteString("\n\n")

	b.WriteString(styles.HelpDesc.Render("Press "))
	b.WriteString(styles.HelpKey.Render("esc"))
	b.WriteString(styles.HelpDesc.Render(" or "))
	b.WriteString(styles.HelpKey.Render("f1"))
	b.WriteString(styles.HelpDesc.Render(" to close"))

	return styles.App.Render(b.String())
}

func helpLine(key, desc string) string {
	return "  " + styles.HelpKey.Render(padRight(key, 20)) + styles.HelpDesc.Render(desc) + "\n"
}

func padRight(s string, length int) string {
	if len(s) >= length {
		return s
	}
	return s + strings.Repeat(" ", length-len(s))
}

// SetSize updates the view dimensions
func (m *HelpModel) SetSize(width, height int) {
	m.width = width
	m.height = height
}
