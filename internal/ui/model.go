package ui

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"greetr/internal/config"
	"greetr/internal/domain"
	"greetr/internal/query"
	"greetr/internal/ui/input"
	inputtypes "greetr/internal/ui/input/types"
	"greetr/internal/ui/views"
)

// QueryEngine is what the model needs from the query engine
type QueryEngine interface {
	Submit(key string) domain.RequestState
	CurrentState() domain.RequestState
	Stats() query.Stats
}

// Model represents the UI state
type Model struct {
	engine QueryEngine
	config *config.Config
	logger zerolog.Logger

	// state is the last state read from the engine
	state domain.RequestState

	width     int
	height    int
	showStats bool
	help      help.Model
	spinner   spinner.Model
	spinning  bool

	renderer     *views.Renderer
	inputHandler *input.Handler
}

// NewModel creates a new UI model
func NewModel(engine QueryEngine, cfg *config.Config, logger zerolog.Logger) *Model {
	return &Model{
		engine:       engine,
		config:       cfg,
		logger:       logger.With().Str("component", "ui").Logger(),
		state:        engine.CurrentState(),
		showStats:    cfg.UISettings.ShowStats,
		help:         help.New(),
		spinner:      spinner.New(spinner.WithSpinner(spinner.Dot)),
		renderer:     views.NewRenderer(),
		inputHandler: input.New(cfg.UISettings.Placeholder),
	}
}

// Init starts the cursor and, when ui.fetch_on_start is set, requests the
// anonymous greeting so it shows before anything is typed.
func (m *Model) Init() tea.Cmd {
	if !m.config.UISettings.FetchOnStart {
		return m.inputHandler.Init()
	}
	return tea.Batch(m.inputHandler.Init(), func() tea.Msg { return startupSubmitMsg{} })
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.inputHandler.Buffer().SetWidth(max(msg.Width-8, 10))
		return m, nil

	case tea.KeyMsg:
		actions, cmd := m.inputHandler.HandleKey(msg)
		return m, tea.Batch(cmd, m.processActions(actions))

	case StateChangedMsg:
		return m, m.refreshState()

	case startupSubmitMsg:
		return m, m.submit("")

	case spinner.TickMsg:
		if !m.state.IsPending() {
			m.spinning = false
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, m.inputHandler.Update(msg)
}

// processActions executes actions returned by the input handler
func (m *Model) processActions(actions []inputtypes.Action) tea.Cmd {
	var cmds []tea.Cmd
	for _, action := range actions {
		switch a := action.(type) {
		case inputtypes.SubmitTextAction:
			cmds = append(cmds, m.submit(a.Text))
		case inputtypes.UpdateTextAction:
			// Editing never reaches the engine
		case inputtypes.ToggleStatsAction:
			m.showStats = !m.showStats
		case inputtypes.ToggleHelpAction:
			m.help.ShowAll = !m.help.ShowAll
		case inputtypes.QuitAction:
			m.logger.Info().Bool("force", a.Force).Msg("quitting")
			cmds = append(cmds, tea.Quit)
		}
	}
	return tea.Batch(cmds...)
}

func (m *Model) submit(key string) tea.Cmd {
	m.state = m.engine.Submit(key)
	m.logger.Debug().Str("key", key).Str("status", m.state.Status.String()).Msg("submitted")
	return m.startSpinner()
}

// refreshState re-reads the engine
func (m *Model) refreshState() tea.Cmd {
	m.state = m.engine.CurrentState()
	return m.startSpinner()
}

func (m *Model) startSpinner() tea.Cmd {
	if !m.state.IsPending() || m.spinning {
		return nil
	}
	m.spinning = true
	return m.spinner.Tick
}

// View renders the model
func (m *Model) View() string {
	s := m.engine.Stats()
	return m.renderer.Render(views.ViewState{
		Width:     m.width,
		Height:    m.height,
		TextInput: m.inputHandler.Buffer().View(),
		State:     m.state,
		Spinner:   m.spinner.View(),
		ShowStats: m.showStats,
		Stats: views.Stats{
			Requests:       s.Requests,
			CacheHits:      s.CacheHits,
			StaleDiscarded: s.StaleDiscarded,
			Keys:           s.Keys,
		},
		HelpModel: m.help,
		KeyMap:    m.inputHandler.Keys(),
	})
}

// InputValue returns the text currently in the input buffer
func (m *Model) InputValue() string {
	return m.inputHandler.Buffer().Value()
}

// State returns the state the model last read from the engine
func (m *Model) State() domain.RequestState {
	return m.state
}
