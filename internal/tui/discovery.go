package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/bankconnect/internal/discovery"
)

// BankScanner finds banks on the local network
type BankScanner interface {
	ScanForBanks(ctx context.Context) ([]*discovery.Bank, error)
}

type scanCompleteMsg struct {
	session *connectSession
	banks   []*discovery.Bank
	err     error
}

// scanBanks runs a discovery scan bound to the screen's session
func scanBanks(session *connectSession, scanner BankScanner) tea.Cmd {
	return func() tea.Msg {
		banks, err := scanner.ScanForBanks(session.ctx)
		return scanCompleteMsg{session: session, banks: banks, err: err}
	}
}

// bankItem wraps a discovered bank for use with bubbles/list
type bankItem struct {
	bank *discovery.Bank
}

func (b bankItem) FilterValue() string {
	return b.bank.Nickname() + " " + b.bank.Address.IPAddress + " " + b.bank.Hostname
}

func (b bankItem) Title() string {
	return b.bank.Nickname()
}

func (b bankItem) Description() string {
	return fmt.Sprintf("%s • %s", b.bank.Address.BaseURL(), strings.TrimSuffix(b.bank.Hostname, "."))
}

// pickerKeyMap defines key bindings for the discovery picker
type pickerKeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Select key.Binding
	Rescan key.Binding
	Cancel key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k pickerKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Select, k.Rescan, k.Cancel}
}

// FullHelp returns keybindings for the expanded help view
func (k pickerKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Select},
		{k.Rescan, k.Cancel},
	}
}

// bankPicker lists banks found over mDNS so one can prefill the form
type bankPicker struct {
	Active   bool
	Scanning bool
	Err      error
	List     list.Model
	Keys     pickerKeyMap
}

func newBankPicker() bankPicker {
	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.
		Foreground(HighlightColor).
		BorderForeground(HighlightColor)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.
		BorderForeground(HighlightColor)

	l := list.New([]list.Item{}, delegate, 0, 0)
	l.Title = "Banks on this network"
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(true)
	l.Styles.Title = TitleStyle

	return bankPicker{
		List: l,
		Keys: pickerKeyMap{
			Up: key.NewBinding(
				key.WithKeys("up", "k"),
				key.WithHelp("↑/k", "move up"),
			),
			Down: key.NewBinding(
				key.WithKeys("down", "j"),
				key.WithHelp("↓/j", "move down"),
			),
			Select: key.NewBinding(
				key.WithKeys("enter"),
				key.WithHelp("enter", "use bank"),
			),
			Rescan: key.NewBinding(
				key.WithKeys("r"),
				key.WithHelp("r", "rescan"),
			),
			Cancel: key.NewBinding(
				key.WithKeys("esc"),
				key.WithHelp("esc", "back"),
			),
		},
	}
}

func (p bankPicker) open(width, height int) bankPicker {
	p.Active = true
	p.Scanning = true
	p.Err = nil
	p.List.SetItems([]list.Item{})
	p.setSize(width, height)
	return p
}

func (p bankPicker) complete(banks []*discovery.Bank, err error) bankPicker {
	p.Scanning = false
	p.Err = err

	items := make([]list.Item, len(banks))
	for i, b := range banks {
		items[i] = bankItem{bank: b}
	}
	p.List.SetItems(items)
	return p
}

func (p *bankPicker) setSize(width, height int) {
	w, h := width-6, height-10
	if w < 20 {
		w = 20
	}
	if h < 5 {
		h = 5
	}
	p.List.SetSize(w, h)
}

// updatePicker handles keys while the picker is showing
func (m ConnectView) updatePicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	if m.picker.List.FilterState() == list.Filtering {
		m.picker.List, cmd = m.picker.List.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.picker.Keys.Cancel):
		m.picker.Active = false
		return m, nil

	case m.picker.Scanning:
		return m, nil

	case key.Matches(msg, m.picker.Keys.Select):
		if item, ok := m.picker.List.SelectedItem().(bankItem); ok {
			m = m.applyBank(&item)
			m.picker.Active = false
			return m.setFocus(focusSubmit)
		}
		return m, nil

	case key.Matches(msg, m.picker.Keys.Rescan):
		m.picker = m.picker.open(m.Width, m.Height)
		return m, tea.Batch(scanBanks(m.session, m.scanner), m.Spinner.Tick)
	}

	m.picker.List, cmd = m.picker.List.Update(msg)
	return m, cmd
}

func (p bankPicker) view(s spinner.Model) string {
	var b strings.Builder
	b.WriteString("\n")

	switch {
	case p.Scanning:
		b.WriteString("  " + s.View() + " Searching the local network for banks...\n")

	case p.Err != nil:
		b.WriteString("  " + ErrorStyle.Render(fmt.Sprintf("✗ Scan failed: %v", p.Err)))
		b.WriteString("\n\n")
		b.WriteString("  Troubleshooting:\n")
		b.WriteString("    • Multicast must be allowed on this network (UDP 5353)\n")
		b.WriteString("    • Press r to scan again or esc to enter an address\n")

	case len(p.List.Items()) == 0:
		b.WriteString("  " + lipgloss.NewStyle().Foreground(WarningColor).Bold(true).Render("⚠ No banks found on your network"))
		b.WriteString("\n\n")
		b.WriteString("  Banks are found when they advertise _http._tcp with node_type=BANK.\n")
		b.WriteString("  Press r to scan again or esc to enter an address.\n")

	default:
		b.WriteString(p.List.View())
	}

	return b.String()
}
