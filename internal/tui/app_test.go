package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/muurk/bankconnect/internal/appstate"
	"github.com/muurk/bankconnect/internal/router"
)

type appFixture struct {
	app       AppModel
	state     *appstate.State
	router    *router.Router
	connector *fakeConnector
}

func newAppFixture(t *testing.T, start string) *appFixture {
	t.Helper()

	state := appstate.New()
	r := router.New(start)
	connector := &fakeConnector{state: state}

	app := NewAppModel(AppDeps{
		Connector: connector,
		State:     state,
		Directory: fakeDirectory{},
		Router:    r,
		Scanner:   &fakeScanner{},
		Streams:   newFakeStreams(),
	})

	f := &appFixture{app: app, state: state, router: r, connector: connector}
	t.Cleanup(func() { f.app.Close() })
	return f
}

func (f *appFixture) update(t *testing.T, msg tea.Msg) tea.Cmd {
	t.Helper()
	updated, cmd := f.app.Update(msg)
	app, ok := updated.(AppModel)
	if !ok {
		t.Fatalf("Update() returned %T, want AppModel", updated)
	}
	f.app = app
	return cmd
}

func TestAppModel_StartsOnConnect(t *testing.T) {
	f := newAppFixture(t, router.ConnectPath)

	if _, ok := f.app.Screen.(ConnectView); !ok {
		t.Fatalf("Screen = %T, want ConnectView", f.app.Screen)
	}
	if f.app.Path != router.ConnectPath {
		t.Errorf("Path = %q, want %q", f.app.Path, router.ConnectPath)
	}
}

func TestAppModel_UnknownRouteRedirects(t *testing.T) {
	f := newAppFixture(t, "/wallet")

	if _, ok := f.app.Screen.(ConnectView); !ok {
		t.Fatalf("Screen = %T, want ConnectView", f.app.Screen)
	}
	if f.router.Current() != router.ConnectPath {
		t.Errorf("router = %q, want %q", f.router.Current(), router.ConnectPath)
	}
}

func TestAppModel_FollowsNavigation(t *testing.T) {
	f := newAppFixture(t, router.ConnectPath)
	_ = f.app.Init()

	if f.state.SubscriberCount() != 1 {
		t.Fatalf("SubscriberCount() = %d, want 1 while on connect", f.state.SubscriberCount())
	}

	cfg := sampleBankConfig()
	f.state.SetActiveBank(cfg, nil)
	f.router.Push(router.OverviewPath(cfg))

	f.update(t, tea.WindowSizeMsg{Width: 90, Height: 30})

	overview, ok := f.app.Screen.(OverviewView)
	if !ok {
		t.Fatalf("Screen = %T, want OverviewView", f.app.Screen)
	}
	if f.app.Path != router.OverviewPath(cfg) {
		t.Errorf("Path = %q, want %q", f.app.Path, router.OverviewPath(cfg))
	}
	if overview.Width != 90 {
		t.Errorf("new screen width = %d, want 90", overview.Width)
	}
	if f.state.SubscriberCount() != 0 {
		t.Errorf("connect screen was not closed, SubscriberCount() = %d", f.state.SubscriberCount())
	}
}

func TestAppModel_DisconnectReturnsToConnect(t *testing.T) {
	cfg := sampleBankConfig()
	f := newAppFixture(t, router.OverviewPath(cfg))
	f.state.SetActiveBank(cfg, nil)

	if _, ok := f.app.Screen.(OverviewView); !ok {
		t.Fatalf("Screen = %T, want OverviewView", f.app.Screen)
	}

	f.update(t, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("d")})

	if _, ok := f.app.Screen.(ConnectView); !ok {
		t.Fatalf("Screen = %T, want ConnectView", f.app.Screen)
	}
	if f.app.Path != router.ConnectPath {
		t.Errorf("Path = %q, want %q", f.app.Path, router.ConnectPath)
	}
	if f.state.ActiveBankConfig() != nil {
		t.Error("active bank should be cleared after disconnect")
	}
	if !strings.Contains(f.app.View(), ConnectSubheader) {
		t.Error("View() should render the connect screen")
	}
}

func TestAppModel_CtrlCQuits(t *testing.T) {
	f := newAppFixture(t, router.ConnectPath)
	_ = f.app.Init()

	cmd := f.update(t, tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatal("ctrl+c should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("ctrl+c should produce tea.QuitMsg")
	}
	if f.state.SubscriberCount() != 0 {
		t.Error("quitting should close the current screen")
	}
}
