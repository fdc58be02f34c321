package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/muurk/bankconnect/internal/bankclient"
	"github.com/muurk/bankconnect/internal/logging"
	"github.com/muurk/bankconnect/internal/node"
	"github.com/muurk/bankconnect/internal/router"
	"github.com/muurk/bankconnect/internal/store"
	"github.com/muurk/bankconnect/internal/toast"
)

// StatusSubscriber opens a live status stream for a bank
type StatusSubscriber interface {
	Subscribe(ctx context.Context, addr node.Address, kind bankclient.StatusKind) (<-chan bankclient.StatusEvent, error)
}

// BankDetails is what the overview reads about the active bank
type BankDetails interface {
	ActiveBankConfig() *node.BankConfig
	ActiveValidatorConfig() *node.ValidatorConfig
}

// BankDirectory looks up stored banks by key
type BankDirectory interface {
	Bank(key string) (*store.ManagedNode, bool)
}

// Disconnecter forgets the active bank
type Disconnecter interface {
	Disconnect() error
}

// statusKinds are the streams shown on the overview, in display order
var statusKinds = []bankclient.StatusKind{bankclient.StatusCrawl, bankclient.StatusClean}

type streamOpenedMsg struct {
	ctx    context.Context
	kind   bankclient.StatusKind
	events <-chan bankclient.StatusEvent
	err    error
}

type statusEventMsg struct {
	ctx    context.Context
	kind   bankclient.StatusKind
	events <-chan bankclient.StatusEvent
	event  bankclient.StatusEvent
	closed bool
}

// streamState is what the overview knows about one status stream
type streamState struct {
	Connected     bool
	Status        string
	LastCompleted string
	Err           error
}

// overviewKeyMap defines key bindings for the overview screen
type overviewKeyMap struct {
	Disconnect key.Binding
	Quit       key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k overviewKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Disconnect, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k overviewKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Disconnect, k.Quit}}
}

// OverviewOptions configures a new overview screen
type OverviewOptions struct {
	Address      node.Address
	Details      BankDetails
	Directory    BankDirectory
	Disconnecter Disconnecter
	Navigator    Navigator
	Streams      StatusSubscriber
}

// OverviewView shows the active bank and its live maintenance status
type OverviewView struct {
	Width  int
	Height int

	Address node.Address
	Streams map[bankclient.StatusKind]streamState
	Toast   toast.Model
	Help    help.Model
	Keys    overviewKeyMap

	opts   OverviewOptions
	ctx    context.Context
	cancel context.CancelFunc
}

// NewOverviewView creates the overview for the bank at opts.Address
func NewOverviewView(opts OverviewOptions) OverviewView {
	ctx, cancel := context.WithCancel(context.Background())

	return OverviewView{
		Address: opts.Address,
		Streams: make(map[bankclient.StatusKind]streamState),
		Toast:   toast.New(),
		Help:    help.New(),
		Keys: overviewKeyMap{
			Disconnect: key.NewBinding(
				key.WithKeys("d"),
				key.WithHelp("d", "disconnect"),
			),
			Quit: key.NewBinding(
				key.WithKeys("q"),
				key.WithHelp("q", "quit"),
			),
		},
		opts:   opts,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Init opens the status streams when the route's bank is the active bank
func (m OverviewView) Init() tea.Cmd {
	if m.bank() == nil || m.opts.Streams == nil {
		return nil
	}

	cmds := make([]tea.Cmd, 0, len(statusKinds))
	for _, kind := range statusKinds {
		cmds = append(cmds, m.openStream(kind))
	}
	return tea.Batch(cmds...)
}

// Close stops the status streams
func (m OverviewView) Close() {
	m.cancel()
}

// bank returns the active bank when it is the one this route points at
func (m OverviewView) bank() *node.BankConfig {
	cfg := m.opts.Details.ActiveBankConfig()
	if cfg == nil || !cfg.NodeAddress().Equal(m.Address) {
		return nil
	}
	return cfg
}

func (m OverviewView) openStream(kind bankclient.StatusKind) tea.Cmd {
	ctx, streams, addr := m.ctx, m.opts.Streams, m.Address
	return func() tea.Msg {
		events, err := streams.Subscribe(ctx, addr, kind)
		return streamOpenedMsg{ctx: ctx, kind: kind, events: events, err: err}
	}
}

func waitForStatus(ctx context.Context, kind bankclient.StatusKind, events <-chan bankclient.StatusEvent) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-events
		return statusEventMsg{ctx: ctx, kind: kind, events: events, event: event, closed: !ok}
	}
}

// Update handles messages and updates the model
func (m OverviewView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.ctx.Err() != nil {
		return m, nil
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height

	case streamOpenedMsg:
		if msg.ctx != m.ctx {
			return m, nil
		}
		if msg.err != nil {
			logging.Warn("Status stream unavailable", zap.String("kind", string(msg.kind)), zap.Error(msg.err))
			m.setStream(msg.kind, streamState{Err: msg.err})
			return m, nil
		}
		st := m.Streams[msg.kind]
		st.Connected = true
		st.Err = nil
		m.setStream(msg.kind, st)
		return m, waitForStatus(m.ctx, msg.kind, msg.events)

	case statusEventMsg:
		if msg.ctx != m.ctx {
			return m, nil
		}
		st := m.Streams[msg.kind]
		switch {
		case msg.closed:
			st.Connected = false
			m.setStream(msg.kind, st)
			return m, nil
		case msg.event.Err != nil:
			st.Err = msg.event.Err
		default:
			st.Status = msg.event.Status
			st.LastCompleted = msg.event.LastCompleted
		}
		m.setStream(msg.kind, st)
		return m, waitForStatus(m.ctx, msg.kind, msg.events)

	case toast.DismissMsg:
		m.Toast, _ = m.Toast.Update(msg)

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.Keys.Disconnect):
			return m.disconnect()
		case key.Matches(msg, m.Keys.Quit):
			return m, tea.Quit
		}
	}

	return m, nil
}

// setStream copies the map so earlier model values are not mutated
func (m *OverviewView) setStream(kind bankclient.StatusKind, st streamState) {
	streams := make(map[bankclient.StatusKind]streamState, len(m.Streams)+1)
	for k, v := range m.Streams {
		streams[k] = v
	}
	streams[kind] = st
	m.Streams = streams
}

func (m OverviewView) disconnect() (tea.Model, tea.Cmd) {
	if m.opts.Disconnecter != nil {
		if err := m.opts.Disconnecter.Disconnect(); err != nil {
			logging.Error("Disconnect failed", zap.Error(err))
			return m, m.Toast.Show(GenericErrorMessage)
		}
	}
	m.opts.Navigator.Replace(router.ConnectPath)
	return m, nil
}

// View renders the overview screen
func (m OverviewView) View() string {
	return RenderApplicationContainer(m.buildContent(), m.Help.View(m.Keys), m.Width, m.Height)
}

func (m OverviewView) buildContent() string {
	var b strings.Builder

	cfg := m.bank()
	if cfg == nil {
		b.WriteString(RenderTitle("  Bank Overview"))
		b.WriteString("\n\n  ")
		b.WriteString(WarningStyle.Render("⚠ Not connected to " + m.Address.BaseURL()))
		b.WriteString("\n\n  Press d to return to the connect screen.\n")
		return b.String()
	}

	title := m.Address.BaseURL()
	if m.opts.Directory != nil {
		if stored, ok := m.opts.Directory.Bank(node.FormatPathFromNode(cfg)); ok && stored.Nickname != "" {
			title = stored.Nickname
		}
	}

	b.WriteString(RenderTitle("  " + title))
	b.WriteString("\n\n")

	b.WriteString(RenderDetail("Address", cfg.NodeAddress().BaseURL()))
	b.WriteString("\n")
	b.WriteString(RenderDetail("Node identifier", orDash(cfg.NodeIdentifier)))
	b.WriteString("\n")
	b.WriteString(RenderDetail("Account number", orDash(cfg.AccountNumber)))
	b.WriteString("\n")
	b.WriteString(RenderDetail("Version", orDash(cfg.Version)))
	b.WriteString("\n")
	b.WriteString(RenderDetail("Transaction fee", fmt.Sprintf("%d", cfg.DefaultTransactionFee)))
	b.WriteString("\n")

	if pv := m.opts.Details.ActiveValidatorConfig(); pv != nil {
		b.WriteString(RenderDetail("Primary validator", pv.NodeAddress().BaseURL()))
		b.WriteString("\n")
		b.WriteString(RenderDetail("Validator fee", fmt.Sprintf("%d", pv.DefaultTransactionFee)))
		b.WriteString("\n")
	}

	var status strings.Builder
	status.WriteString(SubtitleStyle.Render("Live status"))
	status.WriteString("\n")
	for _, kind := range statusKinds {
		status.WriteString("\n")
		status.WriteString(m.renderStream(kind))
	}
	b.WriteString(InfoBoxStyle.Render(status.String()))
	b.WriteString("\n")

	if m.Toast.Visible() {
		b.WriteString("\n  ")
		b.WriteString(m.Toast.View())
		b.WriteString("\n")
	}

	return b.String()
}

func (m OverviewView) renderStream(kind bankclient.StatusKind) string {
	label := DetailKeyStyle.Render(strings.ToUpper(string(kind)[:1]) + string(kind)[1:] + ":")

	st, ok := m.Streams[kind]
	switch {
	case !ok:
		return label + " " + SubtitleStyle.Render("connecting...")
	case st.Err != nil:
		return label + " " + ErrorStyle.Render(bankclient.ShortMessage(st.Err))
	case st.Status == "":
		return label + " " + SubtitleStyle.Render("waiting for update")
	}

	line := label + " " + OKStyle.Render(st.Status)
	if st.LastCompleted != "" {
		line += SubtitleStyle.Render("  (last completed " + st.LastCompleted + ")")
	}
	if !st.Connected {
		line += " " + WarningStyle.Render("[stream closed]")
	}
	return line
}

func orDash(s string) string {
	if s == "" {
		return "—"
	}
	return s
}
