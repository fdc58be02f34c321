package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/muurk/bankconnect/internal/appstate"
	"github.com/muurk/bankconnect/internal/bankclient"
	"github.com/muurk/bankconnect/internal/node"
	"github.com/muurk/bankconnect/internal/router"
	"github.com/muurk/bankconnect/internal/store"
	"github.com/muurk/bankconnect/internal/toast"
)

// fakeStreams hands out pre-filled channels per status kind
type fakeStreams struct {
	chans map[bankclient.StatusKind]chan bankclient.StatusEvent
	err   error
	calls []bankclient.StatusKind
}

func newFakeStreams() *fakeStreams {
	return &fakeStreams{chans: map[bankclient.StatusKind]chan bankclient.StatusEvent{
		bankclient.StatusCrawl: make(chan bankclient.StatusEvent, 4),
		bankclient.StatusClean: make(chan bankclient.StatusEvent, 4),
	}}
}

func (f *fakeStreams) Subscribe(ctx context.Context, addr node.Address, kind bankclient.StatusKind) (<-chan bankclient.StatusEvent, error) {
	f.calls = append(f.calls, kind)
	if f.err != nil {
		return nil, f.err
	}
	return f.chans[kind], nil
}

type fakeDirectory map[string]*store.ManagedNode

func (d fakeDirectory) Bank(key string) (*store.ManagedNode, bool) {
	n, ok := d[key]
	return n, ok
}

type overviewFixture struct {
	view      OverviewView
	state     *appstate.State
	router    *router.Router
	streams   *fakeStreams
	connector *fakeConnector
}

func newOverviewFixture(t *testing.T, active bool) *overviewFixture {
	t.Helper()

	state := appstate.New()
	cfg := sampleBankConfig()
	cfg.AccountNumber = "acct-123"
	cfg.Version = "v1.0"
	cfg.DefaultTransactionFee = 2
	if active {
		state.SetActiveBank(cfg, &node.ValidatorConfig{
			IPAddress:             "20.0.0.1",
			Protocol:              node.ProtocolHTTP,
			DefaultTransactionFee: 1,
		})
	}

	r := router.New(router.ConnectPath)
	r.Push(router.OverviewPath(cfg))

	streams := newFakeStreams()
	connector := &fakeConnector{state: state}

	view := NewOverviewView(OverviewOptions{
		Address:      cfg.NodeAddress(),
		Details:      state,
		Directory:    fakeDirectory{"http/143.110.137.54/80": {Nickname: "Main bank"}},
		Disconnecter: connector,
		Navigator:    r,
		Streams:      streams,
	})
	t.Cleanup(view.Close)

	return &overviewFixture{view: view, state: state, router: r, streams: streams, connector: connector}
}

func (f *overviewFixture) update(t *testing.T, msg tea.Msg) tea.Cmd {
	t.Helper()
	updated, cmd := f.view.Update(msg)
	view, ok := updated.(OverviewView)
	if !ok {
		t.Fatalf("Update() returned %T, want OverviewView", updated)
	}
	f.view = view
	return cmd
}

// open runs Init and feeds every stream-opened message back in, returning the
// commands that wait for status events
func (f *overviewFixture) open(t *testing.T) []tea.Cmd {
	t.Helper()
	var waits []tea.Cmd
	for _, msg := range runCmd(f.view.Init()) {
		if cmd := f.update(t, msg); cmd != nil {
			waits = append(waits, cmd)
		}
	}
	return waits
}

func TestOverviewView_ShowsActiveBank(t *testing.T) {
	f := newOverviewFixture(t, true)
	f.update(t, tea.WindowSizeMsg{Width: 100, Height: 40})

	out := f.view.View()
	for _, want := range []string{"Main bank", "http://143.110.137.54", "bank-id", "acct-123", "v1.0", "http://20.0.0.1", "Live status"} {
		if !strings.Contains(out, want) {
			t.Errorf("View() missing %q", want)
		}
	}
}

func TestOverviewView_NotConnected(t *testing.T) {
	f := newOverviewFixture(t, false)

	if cmd := f.view.Init(); cmd != nil {
		t.Error("Init() should not open streams without an active bank")
	}
	if !strings.Contains(f.view.View(), "Not connected to") {
		t.Error("View() should report that the bank is not connected")
	}
}

func TestOverviewView_OtherActiveBank(t *testing.T) {
	f := newOverviewFixture(t, false)
	other := sampleBankConfig()
	other.IPAddress = "10.9.9.9"
	f.state.SetActiveBank(other, nil)

	if cmd := f.view.Init(); cmd != nil {
		t.Error("Init() should not open streams for a different bank")
	}
}

func TestOverviewView_StatusEvents(t *testing.T) {
	f := newOverviewFixture(t, true)

	waits := f.open(t)
	if len(f.streams.calls) != 2 {
		t.Fatalf("opened %d streams, want 2", len(f.streams.calls))
	}
	if len(waits) != 2 {
		t.Fatalf("got %d wait commands, want 2", len(waits))
	}

	f.streams.chans[bankclient.StatusCrawl] <- bankclient.StatusEvent{
		Kind:          bankclient.StatusCrawl,
		Status:        "crawling",
		LastCompleted: "2024-01-02T03:04:05Z",
	}
	f.streams.chans[bankclient.StatusClean] <- bankclient.StatusEvent{
		Kind: bankclient.StatusClean,
		Err:  &bankclient.BankError{Type: bankclient.ErrTypeParse, Message: "bad payload"},
	}

	for _, wait := range waits {
		f.update(t, wait())
	}

	crawl := f.view.Streams[bankclient.StatusCrawl]
	if !crawl.Connected || crawl.Status != "crawling" || crawl.LastCompleted != "2024-01-02T03:04:05Z" {
		t.Errorf("crawl stream = %+v", crawl)
	}
	if clean := f.view.Streams[bankclient.StatusClean]; clean.Err == nil {
		t.Errorf("clean stream should carry the error, got %+v", clean)
	}

	if !strings.Contains(f.view.View(), "crawling") {
		t.Error("View() should show the crawl status")
	}
}

func TestOverviewView_StreamClosed(t *testing.T) {
	f := newOverviewFixture(t, true)
	waits := f.open(t)

	close(f.streams.chans[bankclient.StatusCrawl])
	close(f.streams.chans[bankclient.StatusClean])

	for _, wait := range waits {
		if cmd := f.update(t, wait()); cmd != nil {
			t.Error("a closed stream should not be waited on again")
		}
	}

	for kind, st := range f.view.Streams {
		if st.Connected {
			t.Errorf("%s stream still marked connected", kind)
		}
	}
}

func TestOverviewView_StreamOpenError(t *testing.T) {
	f := newOverviewFixture(t, true)
	f.streams.err = &bankclient.BankError{Type: bankclient.ErrTypeConnectionRefused, Message: "refused"}

	if waits := f.open(t); len(waits) != 0 {
		t.Errorf("failed streams should not be waited on, got %d commands", len(waits))
	}
	for kind, st := range f.view.Streams {
		if st.Err == nil {
			t.Errorf("%s stream should record the open error", kind)
		}
	}
}

func TestOverviewView_IgnoresMessagesAfterClose(t *testing.T) {
	f := newOverviewFixture(t, true)
	waits := f.open(t)

	f.streams.chans[bankclient.StatusCrawl] <- bankclient.StatusEvent{Status: "crawling"}
	f.view.Close()

	if cmd := f.update(t, waits[0]()); cmd != nil {
		t.Error("closed overview should not keep waiting")
	}
	if f.view.Streams[bankclient.StatusCrawl].Status != "" {
		t.Error("closed overview should ignore status events")
	}
}

func TestOverviewView_Disconnect(t *testing.T) {
	f := newOverviewFixture(t, true)

	f.update(t, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("d")})

	if f.connector.disconnects != 1 {
		t.Errorf("Disconnect() called %d times, want 1", f.connector.disconnects)
	}
	if f.state.ActiveBankConfig() != nil {
		t.Error("active bank should be cleared")
	}
	if f.router.Current() != router.ConnectPath || f.router.Depth() != 1 {
		t.Errorf("router = %q (depth %d), want %q replacing history", f.router.Current(), f.router.Depth(), router.ConnectPath)
	}
}

func TestOverviewView_DisconnectFailure(t *testing.T) {
	f := newOverviewFixture(t, true)
	f.connector.disconnectErr = errors.New("store is read-only")

	cmd := f.update(t, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("d")})

	if cmd == nil || f.view.Toast.Text() != GenericErrorMessage {
		t.Errorf("toast = %q, want %q", f.view.Toast.Text(), GenericErrorMessage)
	}
	if f.view.Toast.Level() != toast.LevelPlain {
		t.Errorf("toast level = %v, want plain", f.view.Toast.Level())
	}
	if f.router.Current() == router.ConnectPath {
		t.Error("failed disconnect must not navigate")
	}
}

func TestOverviewView_Quit(t *testing.T) {
	f := newOverviewFixture(t, true)

	cmd := f.update(t, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("q should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should produce tea.QuitMsg")
	}
}
