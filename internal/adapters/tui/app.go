package tui

import (
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"

	"tagren/internal/adapters/tui/views"
	"tagren/internal/ports"
)

// ViewState represents the current view
type ViewState int

const (
	ViewReview ViewState = iota
	ViewHelp
)

// App is the main TUI application model
type App struct {
	state  ViewState
	review *views.ReviewModel
	help   *views.HelpModel

	width  int
	height int
}

// NewApp creates a new TUI application reviewing images in dir
func NewApp(fsys ports.FileSystem, viewer ports.ImageViewer, logger *slog.Logger, dir string, images []string, caseInsensitive bool) *App {
	return &App{
		state:  ViewReview,
		review: views.NewReviewModel(fsys, viewer, logger, dir, images, caseInsensitive),
		help:   views.NewHelpModel(),
	}
}

// Review returns the review view model
func (a *App) Review() *views.ReviewModel {
	return a.review
}

// Init initializes the application
func (a *App) Init() tea.Cmd {
	return a.review.Init()
}

// Update handles messages for the application
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.review.SetSize(msg.Width, msg.Height)
		a.help.SetSize(msg.Width, msg.Height)
		return a, nil

	case views.SwitchToHelpMsg:
		a.state = ViewHelp
		return a, nil

	case views.SwitchToReviewMsg:
		a.state = ViewReview
		return a, nil

	// Results of background work always go to the review view
	case views.ReviewSavedMsg, views.ReviewErrMsg, views.ViewerErrMsg:
		_, cmd := a.review.Update(msg)
		return a, cmd
	}

	var cmd tea.Cmd
	switch a.state {
	case ViewReview:
		_, cmd = a.review.Update(msg)
	case ViewHelp:
		_, cmd = a.help.Update(msg)
	}

	return a, cmd
}

// View renders the current view
func (a *App) View() string {
	switch a.state {
	case ViewHelp:
		return a.help.View()
	default:
		return a.review.View()
	}
}
