package tui

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/muurk/bankconnect/internal/appstate"
	"github.com/muurk/bankconnect/internal/form"
	"github.com/muurk/bankconnect/internal/logging"
	"github.com/muurk/bankconnect/internal/node"
	"github.com/muurk/bankconnect/internal/router"
	"github.com/muurk/bankconnect/internal/toast"
)

// Text shown by the connect screen
const (
	ConnectTitle        = "Connect to a Bank"
	ConnectSubheader    = "Enter the address of a bank."
	GenericErrorMessage = "An error occurred"
)

// Connector connects to a bank and makes it the active bank
type Connector interface {
	ConnectAndStore(ctx context.Context, addr node.Address, nickname string) (appstate.Result, error)
	Resume(ctx context.Context) (appstate.Result, bool, error)
}

// ActiveBankSource is the observable active bank config
type ActiveBankSource interface {
	ActiveBankConfig() *node.BankConfig
	Subscribe(l appstate.Listener) func()
}

// Navigator changes the current route
type Navigator interface {
	Push(path string)
	Replace(path string)
}

// Focus positions on the connect form
const (
	focusProtocol = iota
	focusIPAddress
	focusPort
	focusNickname
	focusSubmit
	focusCount
)

// Text inputs, indexed by focus position minus one
const (
	inputIPAddress = iota
	inputPort
	inputNickname
)

// connectResultMsg carries the outcome of a connect or resume attempt
type connectResultMsg struct {
	session *connectSession
	result  appstate.Result
	err     error
}

// activeBankMsg carries an active bank notification into the update loop
type activeBankMsg struct {
	session *connectSession
	cfg     *node.BankConfig
}

// connectSession is the part of the connect screen that outlives value copies
// of the model: the subscription, the mailbox feeding it into the update loop
// and the context for in-flight work. After close, nothing from it reaches
// the model.
type connectSession struct {
	ctx    context.Context
	cancel context.CancelFunc

	mu          sync.Mutex
	closed      bool
	unsubscribe func()
	updates     chan *node.BankConfig
}

func newConnectSession() *connectSession {
	ctx, cancel := context.WithCancel(context.Background())
	return &connectSession{
		ctx:     ctx,
		cancel:  cancel,
		updates: make(chan *node.BankConfig, 1),
	}
}

// publish queues cfg for the update loop, replacing a value not yet consumed
func (s *connectSession) publish(cfg *node.BankConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	select {
	case <-s.updates:
	default:
	}
	s.updates <- cfg
}

// subscribe starts observing src and queues its current value
func (s *connectSession) subscribe(src ActiveBankSource) {
	s.mu.Lock()
	if s.closed || s.unsubscribe != nil {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	unsubscribe := src.Subscribe(s.publish)

	s.mu.Lock()
	closed := s.closed
	if !closed {
		s.unsubscribe = unsubscribe
	}
	s.mu.Unlock()

	if closed {
		unsubscribe()
		return
	}

	s.publish(src.ActiveBankConfig())
}

func (s *connectSession) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *connectSession) close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	unsubscribe := s.unsubscribe
	s.unsubscribe = nil
	close(s.updates)
	s.mu.Unlock()

	s.cancel()
	if unsubscribe != nil {
		unsubscribe()
	}
}

// waitForBank blocks until the next notification; it yields nothing once the
// session is closed
func (s *connectSession) waitForBank() tea.Cmd {
	return func() tea.Msg {
		cfg, ok := <-s.updates
		if !ok {
			return nil
		}
		return activeBankMsg{session: s, cfg: cfg}
	}
}

// connectKeyMap defines key bindings for the connect screen
type connectKeyMap struct {
	Next     key.Binding
	Prev     key.Binding
	Left     key.Binding
	Right    key.Binding
	Submit   key.Binding
	Discover key.Binding
	Quit     key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k connectKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Right, k.Submit, k.Discover, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k connectKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Next, k.Prev, k.Left, k.Right},
		{k.Submit, k.Discover, k.Quit},
	}
}

func newConnectKeyMap() connectKeyMap {
	return connectKeyMap{
		Next: key.NewBinding(
			key.WithKeys("tab", "down"),
			key.WithHelp("tab/↓", "next field"),
		),
		Prev: key.NewBinding(
			key.WithKeys("shift+tab", "up"),
			key.WithHelp("shift+tab/↑", "previous field"),
		),
		Left: key.NewBinding(
			key.WithKeys("left"),
			key.WithHelp("←", "previous protocol"),
		),
		Right: key.NewBinding(
			key.WithKeys("right"),
			key.WithHelp("←/→", "protocol"),
		),
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "connect"),
		),
		Discover: key.NewBinding(
			key.WithKeys("ctrl+f"),
			key.WithHelp("ctrl+f", "find banks"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit"),
		),
	}
}

// ConnectOptions configures a new connect screen
type ConnectOptions struct {
	Connector Connector
	Source    ActiveBankSource
	Navigator Navigator
	Scanner   BankScanner

	// Resume reconnects to the stored active bank on mount
	Resume bool

	// Initial overrides the default form values when non-nil
	Initial *form.Values
}

// ConnectView is the screen where the user enters a bank address
type ConnectView struct {
	// Submitting is true while a connect attempt is in flight
	Submitting bool

	Width  int
	Height int

	Toast   toast.Model
	Spinner spinner.Model
	Help    help.Model
	Keys    connectKeyMap

	inputs      []textinput.Model
	protocolIdx int
	focus       int
	errors      form.FieldErrors
	picker      bankPicker
	resume      bool
	lastBank    *node.BankConfig

	connector Connector
	source    ActiveBankSource
	navigator Navigator
	scanner   BankScanner
	session   *connectSession
}

// NewConnectView creates the connect screen with its default values
func NewConnectView(opts ConnectOptions) ConnectView {
	values := form.DefaultValues()
	if opts.Initial != nil {
		values = *opts.Initial
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	ip := textinput.New()
	ip.Placeholder = form.DefaultIPAddress
	ip.CharLimit = 45
	ip.Width = 40
	ip.SetValue(values.IPAddress)

	port := textinput.New()
	port.Placeholder = "default for protocol"
	port.CharLimit = 5
	port.Width = 22
	port.SetValue(values.Port)

	nickname := textinput.New()
	nickname.Placeholder = "optional"
	nickname.CharLimit = 64
	nickname.Width = 40
	nickname.SetValue(values.Nickname)

	protocolIdx := 0
	for i, p := range node.Protocols {
		if string(p) == values.Protocol {
			protocolIdx = i
		}
	}

	return ConnectView{
		Submitting:  opts.Resume,
		Toast:       toast.New(),
		Spinner:     s,
		Help:        help.New(),
		Keys:        newConnectKeyMap(),
		inputs:      []textinput.Model{ip, port, nickname},
		protocolIdx: protocolIdx,
		focus:       focusProtocol,
		errors:      form.FieldErrors{},
		picker:      newBankPicker(),
		resume:      opts.Resume,
		connector:   opts.Connector,
		source:      opts.Source,
		navigator:   opts.Navigator,
		scanner:     opts.Scanner,
		session:     newConnectSession(),
	}
}

// Init subscribes to the active bank and, when asked to, resumes the last
// connected bank
func (m ConnectView) Init() tea.Cmd {
	m.session.subscribe(m.source)

	cmds := []tea.Cmd{m.session.waitForBank()}
	if m.resume {
		cmds = append(cmds, m.resumeCmd(), m.Spinner.Tick)
	}
	return tea.Batch(cmds...)
}

// Close tears the screen down: it unsubscribes from the active bank and
// cancels in-flight work. Messages that arrive afterwards are ignored.
func (m ConnectView) Close() {
	m.session.close()
}

// Values returns the current form contents
func (m ConnectView) Values() form.Values {
	return form.Values{
		IPAddress: m.inputs[inputIPAddress].Value(),
		Port:      m.inputs[inputPort].Value(),
		Nickname:  m.inputs[inputNickname].Value(),
		Protocol:  string(node.Protocols[m.protocolIdx]),
	}
}

// FieldErrors returns the validation errors currently shown
func (m ConnectView) FieldErrors() form.FieldErrors {
	return m.errors
}

// Update handles messages and updates the model
func (m ConnectView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.session.isClosed() {
		return m, nil
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.picker.setSize(msg.Width, msg.Height)
		return m, nil

	case activeBankMsg:
		if msg.session != m.session {
			return m, nil
		}
		return m.handleActiveBank(msg.cfg)

	case connectResultMsg:
		if msg.session != m.session {
			return m, nil
		}
		return m.handleConnectResult(msg)

	case scanCompleteMsg:
		if msg.session != m.session {
			return m, nil
		}
		m.picker = m.picker.complete(msg.banks, msg.err)
		return m, nil

	case toast.DismissMsg:
		m.Toast, _ = m.Toast.Update(msg)
		return m, nil

	case spinner.TickMsg:
		if !m.Submitting && !m.picker.Scanning {
			return m, nil
		}
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.picker.Active {
			return m.updatePicker(msg)
		}
		return m.handleKey(msg)
	}

	if m.picker.Active {
		var cmd tea.Cmd
		m.picker.List, cmd = m.picker.List.Update(msg)
		return m, cmd
	}

	if m.focus >= focusIPAddress && m.focus <= focusNickname {
		var cmd tea.Cmd
		idx := m.focus - 1
		m.inputs[idx], cmd = m.inputs[idx].Update(msg)
		return m, cmd
	}

	return m, nil
}

// handleActiveBank navigates to the overview when the active bank changes to
// a non-nil config. The same config reference never navigates twice.
func (m ConnectView) handleActiveBank(cfg *node.BankConfig) (tea.Model, tea.Cmd) {
	changed := cfg != m.lastBank
	m.lastBank = cfg

	if changed && cfg != nil {
		m.navigator.Push(router.OverviewPath(cfg))
	}

	return m, m.session.waitForBank()
}

func (m ConnectView) handleConnectResult(msg connectResultMsg) (tea.Model, tea.Cmd) {
	m.Submitting = false

	switch {
	case msg.err != nil:
		logging.Error("Connect failed unexpectedly", zap.Error(msg.err))
		return m, m.Toast.Show(GenericErrorMessage)
	case msg.result.Error != "":
		return m, m.Toast.Error(msg.result.Error)
	}

	return m, nil
}

func (m ConnectView) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.Keys.Submit):
		return m.submit()

	case key.Matches(msg, m.Keys.Discover):
		if m.scanner == nil {
			return m, m.Toast.Info("Bank discovery is not available")
		}
		m.picker = m.picker.open(m.Width, m.Height)
		return m, tea.Batch(scanBanks(m.session, m.scanner), m.Spinner.Tick)

	case key.Matches(msg, m.Keys.Next):
		return m.setFocus((m.focus + 1) % focusCount)

	case key.Matches(msg, m.Keys.Prev):
		return m.setFocus((m.focus + focusCount - 1) % focusCount)
	}

	if m.focus == focusProtocol {
		switch {
		case key.Matches(msg, m.Keys.Left):
			m.protocolIdx = (m.protocolIdx + len(node.Protocols) - 1) % len(node.Protocols)
		case key.Matches(msg, m.Keys.Right):
			m.protocolIdx = (m.protocolIdx + 1) % len(node.Protocols)
		}
		return m, nil
	}

	if m.focus == focusSubmit {
		return m, nil
	}

	idx := m.focus - 1
	before := m.inputs[idx].Value()

	var cmd tea.Cmd
	m.inputs[idx], cmd = m.inputs[idx].Update(msg)

	if after := m.inputs[idx].Value(); after != before {
		m.revalidate(form.Fields[m.focus], after)
	}

	return m, cmd
}

// revalidate refreshes an error already shown for field, so it clears as soon
// as the user fixes the value
func (m *ConnectView) revalidate(field form.Field, value string) {
	if _, shown := m.errors[field]; !shown {
		return
	}
	if msg := form.ValidateField(field, value); msg != "" {
		m.errors[field] = msg
	} else {
		delete(m.errors, field)
	}
}

func (m ConnectView) setFocus(focus int) (tea.Model, tea.Cmd) {
	m.focus = focus

	var cmd tea.Cmd
	for i := range m.inputs {
		if i == focus-1 {
			cmd = m.inputs[i].Focus()
		} else {
			m.inputs[i].Blur()
		}
	}
	return m, cmd
}

// submit validates the form and, when it is valid, starts a connect attempt.
// Submits while an attempt is in flight are ignored.
func (m ConnectView) submit() (tea.Model, tea.Cmd) {
	if m.Submitting {
		return m, nil
	}

	values := m.Values()
	m.errors = form.Validate(values)
	if !m.errors.Empty() {
		return m, nil
	}

	addr, nickname, err := form.BuildRequest(values)
	if err != nil {
		logging.Error("Failed to build connect request", zap.Error(err))
		return m, m.Toast.Show(GenericErrorMessage)
	}

	m.Submitting = true
	m.Toast.Clear()

	connector := m.connector
	connect := m.connectCmd(func(ctx context.Context) (appstate.Result, error) {
		return connector.ConnectAndStore(ctx, addr, nickname)
	})
	return m, tea.Batch(connect, m.Spinner.Tick)
}

func (m ConnectView) resumeCmd() tea.Cmd {
	connector := m.connector
	return m.connectCmd(func(ctx context.Context) (appstate.Result, error) {
		res, _, err := connector.Resume(ctx)
		return res, err
	})
}

// connectCmd runs op off the update loop. A panic inside op is reported the
// same way as a returned error.
func (m ConnectView) connectCmd(op func(ctx context.Context) (appstate.Result, error)) tea.Cmd {
	session := m.session
	return func() (msg tea.Msg) {
		defer func() {
			if r := recover(); r != nil {
				msg = connectResultMsg{session: session, err: fmt.Errorf("connect panicked: %v", r)}
			}
		}()

		res, err := op(session.ctx)
		return connectResultMsg{session: session, result: res, err: err}
	}
}

// applyBank fills the form from a discovered bank
func (m ConnectView) applyBank(b *bankItem) ConnectView {
	for i, p := range node.Protocols {
		if p == b.bank.Address.Protocol {
			m.protocolIdx = i
		}
	}
	m.inputs[inputIPAddress].SetValue(b.bank.Address.IPAddress)
	m.inputs[inputPort].SetValue(b.bank.PortString())
	if m.inputs[inputNickname].Value() == "" {
		m.inputs[inputNickname].SetValue(b.bank.Nickname())
	}
	m.errors = form.FieldErrors{}
	return m
}

// View renders the connect screen
func (m ConnectView) View() string {
	if m.picker.Active {
		return RenderApplicationContainer(m.picker.view(m.Spinner), m.Help.View(m.picker.Keys), m.Width, m.Height)
	}
	return RenderApplicationContainer(m.buildContent(), m.Help.View(m.Keys), m.Width, m.Height)
}

func (m ConnectView) buildContent() string {
	var b strings.Builder

	b.WriteString(RenderTitle("  " + ConnectTitle))
	b.WriteString("\n")
	b.WriteString("  " + RenderSubtitle(ConnectSubheader))
	b.WriteString("\n\n")

	b.WriteString(m.renderField(focusProtocol, m.renderProtocols()))
	b.WriteString(m.renderField(focusIPAddress, m.inputs[inputIPAddress].View()))
	b.WriteString(m.renderField(focusPort, m.inputs[inputPort].View()))
	b.WriteString(m.renderField(focusNickname, m.inputs[inputNickname].View()))
	b.WriteString("\n")

	if m.Submitting {
		b.WriteString("  " + m.Spinner.View() + " Connecting...")
	} else {
		style := ButtonStyle
		if m.focus == focusSubmit {
			style = FocusedButtonStyle
		}
		b.WriteString("  " + style.Render("Connect"))
	}
	b.WriteString("\n")

	if m.Toast.Visible() {
		b.WriteString("\n  ")
		b.WriteString(m.Toast.View())
		b.WriteString("\n")
	}

	return b.String()
}

func (m ConnectView) renderField(focus int, control string) string {
	field := form.Fields[focus]

	label := field.Label()
	if field.Required() {
		label += " *"
	}

	labelStyle := LabelStyle
	if m.focus == focus {
		labelStyle = FocusedLabelStyle
	}

	line := "  " + labelStyle.Render(label) + control + "\n"
	if msg, ok := m.errors[field]; ok {
		line += FieldErrorStyle.Render(msg) + "\n"
	}
	return line + "\n"
}

func (m ConnectView) renderProtocols() string {
	parts := make([]string, len(node.Protocols))
	for i, p := range node.Protocols {
		if i == m.protocolIdx {
			style := lipgloss.NewStyle().Foreground(HighlightColor).Bold(true)
			if m.focus == focusProtocol {
				parts[i] = style.Render("‹ " + string(p) + " ›")
			} else {
				parts[i] = style.Render("  " + string(p) + "  ")
			}
		} else {
			parts[i] = lipgloss.NewStyle().Foreground(SubtleColor).Render("  " + string(p) + "  ")
		}
	}
	return strings.Join(parts, " ")
}
