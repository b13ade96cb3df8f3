package views

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"tagren/internal/adapters/tui/styles"
	"tagren/internal/domain"
)

// Field indexes of the stem form
const (
	FieldPrefix = iota
	FieldMiddle
	FieldIndex
	fieldCount
)

// StemFormKeyMap defines key bindings for the stem form
type StemFormKeyMap struct {
	Tab      key.Binding
	ShiftTab key.Binding
	Keep     key.Binding
}

// DefaultStemFormKeys are the default stem form key bindings
var DefaultStemFormKeys = StemFormKeyMap{
	Tab: key.NewBinding(
		key.WithKeys("tab", "down"),
		key.WithHelp("tab", "next field"),
	),
	ShiftTab: key.NewBinding(
		key.WithKeys("shift+tab", "up"),
		key.WithHelp("shift+tab", "prev field"),
	),
	Keep: key.NewBinding(
		key.WithKeys("ctrl+k"),
		key.WithHelp("ctrl+k", "keep field"),
	),
}

// StemField is one labelled input with a keep toggle
type StemField struct {
	Label string
	Input textinput.Model
	Keep  bool // carry the value to the next image
}

// StemForm edits the prefix, middle and index parts of a file stem
type StemForm struct {
	Fields       [fieldCount]StemField
	FocusedField int
	Keys         StemFormKeyMap
}

// NewStemForm creates the three-field form with the prefix focused
func NewStemForm() *StemForm {
	f := &StemForm{Keys: DefaultStemFormKeys}
	f.Fields[FieldPrefix] = newStemField("Prefix", "site or batch", 40)
	f.Fields[FieldMiddle] = newStemField("Middle", "tag text", 60)
	f.Fields[FieldIndex] = newStemField("Index", "number", 10)
	f.Fields[FieldPrefix].Input.Focus()
	return f
}

func newStemField(label, placeholder string, charLimit int) StemField {
	input := textinput.New()
	input.Placeholder = placeholder
	input.CharLimit = charLimit
	return StemField{Label: label, Input: input}
}

// Init returns the blink command for the focused input
func (f *StemForm) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages for the form.
// Returns (handled, cmd) where handled is true if the key was processed.
func (f *StemForm) Update(msg tea.Msg) (bool, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, f.Keys.Tab):
			f.SetFocus((f.FocusedField + 1) % fieldCount)
			return true, nil
		case key.Matches(msg, f.Keys.ShiftTab):
			f.SetFocus((f.FocusedField + fieldCount - 1) % fieldCount)
			return true, nil
		case key.Matches(msg, f.Keys.Keep):
			f.ToggleKeep(f.FocusedField)
			return true, nil
		}
	}

	var cmd tea.Cmd
	f.Fields[f.FocusedField].Input, cmd = f.Fields[f.FocusedField].Input.Update(msg)
	return false, cmd
}

// SetFocus sets focus to a specific field
func (f *StemForm) SetFocus(index int) {
	if index < 0 || index >= fieldCount {
		return
	}
	f.Fields[f.FocusedField].Input.Blur()
	f.FocusedField = index
	f.Fields[f.FocusedField].Input.Focus()
}

// ToggleKeep flips the keep flag of a field
func (f *StemForm) ToggleKeep(index int) {
	if index < 0 || index >= fieldCount {
		return
	}
	f.Fields[index].Keep = !f.Fields[index].Keep
}

// Value returns the trimmed value of a field
func (f *StemForm) Value(index int) string {
	if index < 0 || index >= fieldCount {
		return ""
	}
	return strings.TrimSpace(f.Fields[index].Input.Value())
}

// SetValue sets the value of a field
func (f *StemForm) SetValue(index int, value string) {
	if index < 0 || index >= fieldCount {
		return
	}
	f.Fields[index].Input.SetValue(value)
}

// Parts returns the stem parts typed so far
func (f *StemForm) Parts() domain.StemParts {
	return domain.StemParts{
		Prefix: f.Value(FieldPrefix),
		Middle: f.Value(FieldMiddle),
		Index:  f.Value(FieldIndex),
	}
}

// CarryOver prepares the form for the next image: kept fields retain their
// value, the others are cleared, and focus returns to the first unkept field.
func (f *StemForm) CarryOver() {
	first := -1
	for i := range f.Fields {
		if f.Fields[i].Keep {
			continue
		}
		f.Fields[i].Input.SetValue("")
		if first < 0 {
			first = i
		}
	}
	if first < 0 {
		first = FieldPrefix
	}
	f.SetFocus(first)
}

// RenderField renders a single field with its keep marker
func (f *StemForm) RenderField(index int) string {
	if index < 0 || index >= fieldCount {
		return ""
	}

	field := f.Fields[index]
	var b strings.Builder

	b.WriteString(styles.InputLabel.Render(field.Label))
	if field.Keep {
		b.WriteString(" " + styles.KeepOn.Render("keep"))
	} else {
		b.WriteString(" " + styles.KeepOff.Render("keep"))
	}
	b.WriteString("\n")

	if index == f.FocusedField {
		b.WriteString(styles.InputFocused.Render(field.Input.View()))
	} else {
		b.WriteString(styles.InputField.Render(field.Input.View()))
	}

	return b.String()
}

// View renders all fields stacked vertically
func (f *StemForm) View() string {
	parts := make([]string, 0, fieldCount)
	for i := range f.Fields {
		parts = append(parts, f.RenderField(i))
	}
	return strings.Join(parts, "\n")
}
