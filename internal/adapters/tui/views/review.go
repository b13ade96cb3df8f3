package views

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"tagren/internal/adapters/tui/styles"
	"tagren/internal/application"
	"tagren/internal/application/commands"
	"tagren/internal/domain"
	"tagren/internal/ports"
)

// ReviewKeyMap defines key bindings for the review view
type ReviewKeyMap struct {
	Save key.Binding
	Prev key.Binding
	Next key.Binding
	Open key.Binding
	Copy key.Binding
	Help key.Binding
	Quit key.Binding
}

var ReviewKeys = ReviewKeyMap{
	Save: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "save"),
	),
	Prev: key.NewBinding(
		key.WithKeys("left"),
		key.WithHelp("←", "prev"),
	),
	Next: key.NewBinding(
		key.WithKeys("right"),
		key.WithHelp("→", "next"),
	),
	Open: key.NewBinding(
		key.WithKeys("ctrl+o"),
		key.WithHelp("ctrl+o", "open image"),
	),
	Copy: key.NewBinding(
		key.WithKeys("ctrl+y"),
		key.WithHelp("ctrl+y", "copy name"),
	),
	Help: key.NewBinding(
		key.WithKeys("f1"),
		key.WithHelp("f1", "help"),
	),
	Quit: key.NewBinding(
		key.WithKeys("esc", "ctrl+c"),
		key.WithHelp("esc", "quit"),
	),
}

// ReviewSavedMsg reports a committed rename
type ReviewSavedMsg struct {
	Index  int
	Result *commands.ReviewResult
}

// ReviewErrMsg reports a failed save
type ReviewErrMsg struct {
	Index int
	Err   error
}

// ViewerErrMsg reports that the image viewer could not be started
type ViewerErrMsg struct{ Err error }

// ReviewModel walks the images of one directory and renames each to a
// typed stem
type ReviewModel struct {
	ViewState
	fs              ports.FileSystem
	viewer          ports.ImageViewer
	logger          *slog.Logger
	dir             string
	caseInsensitive bool
	dryRun          bool
	queue           *Queue
	form            *StemForm
	saving          bool
}

// NewReviewModel creates a review model over images in dir
func NewReviewModel(fsys ports.FileSystem, viewer ports.ImageViewer, logger *slog.Logger, dir string, images []string, caseInsensitive bool) *ReviewModel {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReviewModel{
		fs:              fsys,
		viewer:          viewer,
		logger:          logger,
		dir:             dir,
		caseInsensitive: caseInsensitive,
		queue:           NewQueue(images, 10),
		form:            NewStemForm(),
	}
}

// SetDryRun makes saves log their transitions without renaming
func (m *ReviewModel) SetDryRun(dryRun bool) {
	m.dryRun = dryRun
}

// Queue returns the image queue
func (m *ReviewModel) Queue() *Queue {
	return m.queue
}

// Form returns the stem form
func (m *ReviewModel) Form() *StemForm {
	return m.form
}

// Init initializes the review view
func (m *ReviewModel) Init() tea.Cmd {
	return m.form.Init()
}

// Update handles messages for the review view
func (m *ReviewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil

	case ReviewSavedMsg:
		m.saving = false
		m.saved(msg)
		return m, nil

	case ReviewErrMsg:
		m.saving = false
		status := application.StatusFor(msg.Err)
		m.queue.MarkSaved(msg.Index, "", status)
		if isConflict(msg.Err) {
			m.SetMessage(msg.Err.Error()+"; pick another name", true)
		} else {
			m.SetMessage(msg.Err.Error(), true)
		}
		return m, nil

	case ViewerErrMsg:
		m.SetMessage("viewer: "+msg.Err.Error(), true)
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, ReviewKeys.Quit):
			return m, tea.Quit

		case key.Matches(msg, ReviewKeys.Help):
			return m, func() tea.Msg { return SwitchToHelpMsg{} }

		case key.Matches(msg, ReviewKeys.Prev):
			if m.queue.Prev() {
				m.ClearMessage()
			}
			return m, nil

		case key.Matches(msg, ReviewKeys.Next):
			if m.queue.Next() {
				m.ClearMessage()
			}
			return m, nil

		case key.Matches(msg, ReviewKeys.Open):
			return m, m.openViewer()

		case key.Matches(msg, ReviewKeys.Copy):
			m.copyPreview()
			return m, nil

		case key.Matches(msg, ReviewKeys.Save):
			return m, m.save()
		}
	}

	_, cmd := m.form.Update(msg)
	return m, cmd
}

// Preview returns the file name the current image would get
func (m *ReviewModel) Preview() string {
	entry, ok := m.queue.Current()
	if !ok {
		return ""
	}
	return domain.ComposeStem(m.form.Parts()) + domain.LowerExt(entry.Path)
}

// previewTaken reports whether another file already carries the preview name
func (m *ReviewModel) previewTaken() bool {
	entry, ok := m.queue.Current()
	if !ok {
		return false
	}
	name := m.Preview()
	if name == entry.Name() || (m.caseInsensitive && strings.EqualFold(name, entry.Name())) {
		return false
	}
	_, err := m.fs.Lstat(filepath.Join(filepath.Dir(entry.Path), name))
	return err == nil
}

func (m *ReviewModel) save() tea.Cmd {
	entry, ok := m.queue.Current()
	if !ok || m.saving {
		return nil
	}
	m.saving = true
	idx := m.queue.Cursor()

	cmd := commands.NewReviewCommand(m.fs, m.logger, entry.Path, m.form.Parts(), m.caseInsensitive)
	cmd.DryRun = m.dryRun
	return func() tea.Msg {
		result, err := cmd.Execute(context.Background())
		if err != nil {
			return ReviewErrMsg{Index: idx, Err: err}
		}
		return ReviewSavedMsg{Index: idx, Result: result}
	}
}

func (m *ReviewModel) saved(msg ReviewSavedMsg) {
	dst := msg.Result.Destination
	if m.dryRun {
		dst = ""
	}
	m.queue.MarkSaved(msg.Index, dst, domain.StatusOK)

	text := msg.Result.Message
	if m.dryRun {
		text = "Would rename to " + msg.Result.Record.FinalName
	}
	if m.queue.Remaining() == 0 {
		text += " · all images reviewed"
	} else if msg.Index == m.queue.Cursor() {
		m.queue.NextPending()
	}
	m.SetMessage(text, false)
	m.form.CarryOver()
}

func (m *ReviewModel) openViewer() tea.Cmd {
	entry, ok := m.queue.Current()
	if !ok || m.viewer == nil {
		return nil
	}
	return func() tea.Msg {
		if err := m.viewer.Open(entry.Path); err != nil {
			return ViewerErrMsg{Err: err}
		}
		return nil
	}
}

func (m *ReviewModel) copyPreview() {
	name := m.Preview()
	if name == "" {
		return
	}
	if err := clipboard.WriteAll(name); err != nil {
		m.SetMessage("clipboard: "+err.Error(), true)
		return
	}
	m.SetMessage("Copied "+name, false)
}

// View renders the review view
func (m *ReviewModel) View() string {
	v := NewViewBuilder().Title("tagren review").Subtitle(m.dir)

	entry, ok := m.queue.Current()
	if !ok {
		return v.Muted("No images found").
			BlankLine().
			Help(ReviewKeys.Quit).
			String()
	}

	header := fmt.Sprintf("Image %d/%d  %s", m.queue.Cursor()+1, m.queue.Len(), entry.Name())
	v.Line(styles.InputLabel.Render(header))
	if entry.Status != "" {
		v.Line(styles.Status(entry.Status))
	}
	v.BlankLine()

	left := lipgloss.JoinVertical(lipgloss.Left,
		m.form.View(),
		"",
		RenderPreview(m.Preview(), m.previewTaken()),
	)
	v.Line(lipgloss.JoinHorizontal(lipgloss.Top, left, "    ", m.renderQueue()))
	v.BlankLine()

	v.Message(m.Message, m.MessageErr)
	v.Help(
		ReviewKeys.Save,
		m.form.Keys.Tab,
		m.form.Keys.Keep,
		ReviewKeys.Prev,
		ReviewKeys.Next,
		ReviewKeys.Open,
		ReviewKeys.Copy,
		ReviewKeys.Help,
		ReviewKeys.Quit,
	)
	return v.String()
}

func (m *ReviewModel) renderQueue() string {
	var b strings.Builder
	start, end := m.queue.VisibleRange()
	for i := start; i < end; i++ {
		e := m.queue.Entry(i)
		marker := styles.QueueBlank
		switch {
		case i == m.queue.Cursor():
			marker = styles.QueueCurrent
		case e.Done:
			marker = styles.QueueDoneMark
		}

		line := e.Name()
		switch {
		case i == m.queue.Cursor():
			line = styles.QueueSelected.Render(line)
		case e.Done:
			line = styles.QueueDone.Render(line)
		default:
			line = styles.QueueItem.Render(line)
		}
		b.WriteString(marker + line + "\n")
	}
	if m.queue.TotalPages() > 1 {
		b.WriteString(styles.MutedText.Render(fmt.Sprintf("page %d/%d", m.queue.CurrentPage(), m.queue.TotalPages())))
		b.WriteString("\n")
	}
	b.WriteString(styles.StatusText.Render(fmt.Sprintf("%d left", m.queue.Remaining())))
	return b.String()
}

func isConflict(err error) bool {
	return errors.Is(err, application.ErrNameConflict)
}
