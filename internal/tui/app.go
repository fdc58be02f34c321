package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/muurk/bankconnect/internal/form"
	"github.com/muurk/bankconnect/internal/logging"
	"github.com/muurk/bankconnect/internal/router"
)

// Screen is a routed screen. Close is called when the route moves away.
type Screen interface {
	tea.Model
	Close()
}

// BankConnector connects to and disconnects from banks
type BankConnector interface {
	Connector
	Disconnecter
}

// BankState is the observable application state the screens read
type BankState interface {
	ActiveBankSource
	BankDetails
}

// AppDeps are the collaborators the screens are built from
type AppDeps struct {
	Connector BankConnector
	State     BankState
	Directory BankDirectory
	Router    *router.Router
	Scanner   BankScanner
	Streams   StatusSubscriber

	// Initial overrides the connect form defaults
	Initial *form.Values

	// Resume reconnects to the stored active bank when the app starts
	Resume bool
}

var quitKey = key.NewBinding(key.WithKeys("ctrl+c"))

// AppModel is the top-level coordinator: it owns the current screen and swaps
// it whenever the router's current path changes
type AppModel struct {
	Path   string
	Screen Screen

	Width  int
	Height int

	deps AppDeps
}

// NewAppModel creates the application positioned at the router's current path
func NewAppModel(deps AppDeps) AppModel {
	m := AppModel{deps: deps}
	m.Path = deps.Router.Current()
	m.Screen = m.buildScreen(m.Path, deps.Resume)
	return m
}

// Init initializes the first screen
func (m AppModel) Init() tea.Cmd {
	return m.Screen.Init()
}

// Close tears down the current screen
func (m AppModel) Close() {
	m.Screen.Close()
}

// Update handles global keys, routes everything else to the current screen
// and follows navigation
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height

	case tea.KeyMsg:
		if key.Matches(msg, quitKey) {
			m.Screen.Close()
			return m, tea.Quit
		}
	}

	updated, cmd := m.Screen.Update(msg)
	m.Screen = updated.(Screen)

	if current := m.deps.Router.Current(); current != m.Path {
		return m.transitionTo(current, cmd)
	}

	return m, cmd
}

// transitionTo closes the current screen and mounts the one for path.
// Commands already returned by the old screen still run; a closed screen
// ignores whatever they produce.
func (m AppModel) transitionTo(path string, pending tea.Cmd) (tea.Model, tea.Cmd) {
	m.Screen.Close()

	m.Path = path
	m.Screen = m.buildScreen(path, false)
	// buildScreen may have redirected an unknown path
	m.Path = m.deps.Router.Current()

	cmds := []tea.Cmd{pending, m.Screen.Init()}

	if m.Width > 0 {
		updated, cmd := m.Screen.Update(tea.WindowSizeMsg{Width: m.Width, Height: m.Height})
		m.Screen = updated.(Screen)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m AppModel) buildScreen(path string, resume bool) Screen {
	route, params, err := router.Match(path)
	if err != nil {
		logging.Warn("Unknown route, returning to connect", zap.String("path", path), zap.Error(err))
		m.deps.Router.Replace(router.ConnectPath)
		route = router.RouteConnect
	}

	switch route {
	case router.RouteOverview:
		return NewOverviewView(OverviewOptions{
			Address:      params.Address,
			Details:      m.deps.State,
			Directory:    m.deps.Directory,
			Disconnecter: m.deps.Connector,
			Navigator:    m.deps.Router,
			Streams:      m.deps.Streams,
		})

	default:
		return NewConnectView(ConnectOptions{
			Connector: m.deps.Connector,
			Source:    m.deps.State,
			Navigator: m.deps.Router,
			Scanner:   m.deps.Scanner,
			Resume:    resume,
			Initial:   m.deps.Initial,
		})
	}
}

// View renders the current screen
func (m AppModel) View() string {
	return m.Screen.View()
}
