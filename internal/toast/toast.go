// Package toast shows short-lived notifications in the TUI.
//
// Only one toast is visible at a time; a newer toast replaces the old one.
// Each toast carries a token so that the dismiss tick of a replaced toast
// does not clear its successor.
package toast

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Level is the severity of a toast
type Level int

const (
	LevelInfo Level = iota
	LevelError
	// LevelPlain is a neutral notice without an icon
	LevelPlain
)

// Default display durations
const (
	InfoDuration  = 3 * time.Second
	ErrorDuration = 5 * time.Second
)

var (
	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#43BF6D")).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#43BF6D")).
			Padding(0, 1)

	plainStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#888888")).
			Padding(0, 1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#FF0000")).
			Padding(0, 1)
)

// DismissMsg expires the toast that was shown with the same token
type DismissMsg struct {
	token int
}

// Model holds the current toast
type Model struct {
	text  string
	level Level
	token int

	// Overrides for the default durations, mainly for tests
	InfoDuration  time.Duration
	ErrorDuration time.Duration
}

// New creates an empty toast model
func New() Model {
	return Model{
		InfoDuration:  InfoDuration,
		ErrorDuration: ErrorDuration,
	}
}

// Error shows an error toast and returns the command that dismisses it
func (m *Model) Error(text string) tea.Cmd {
	return m.show(text, LevelError, m.ErrorDuration)
}

// Info shows an informational toast and returns the command that dismisses it
func (m *Model) Info(text string) tea.Cmd {
	return m.show(text, LevelInfo, m.InfoDuration)
}

// Show shows a neutral toast and returns the command that dismisses it
func (m *Model) Show(text string) tea.Cmd {
	return m.show(text, LevelPlain, m.InfoDuration)
}

func (m *Model) show(text string, level Level, d time.Duration) tea.Cmd {
	m.token++
	m.text = text
	m.level = level

	token := m.token
	return tea.Tick(d, func(time.Time) tea.Msg {
		return DismissMsg{token: token}
	})
}

// Update clears the toast when its dismiss message arrives
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if dm, ok := msg.(DismissMsg); ok && dm.token == m.token {
		m.text = ""
	}
	return m, nil
}

// Clear hides the toast immediately
func (m *Model) Clear() {
	m.token++
	m.text = ""
}

// Visible reports whether a toast is showing
func (m Model) Visible() bool {
	return m.text != ""
}

// Text returns the current toast text
func (m Model) Text() string {
	return m.text
}

// Level returns the current toast level
func (m Model) Level() Level {
	return m.level
}

func (m Model) View() string {
	if m.text == "" {
		return ""
	}
	switch m.level {
	case LevelError:
		return errorStyle.Render("✗ " + m.text)
	case LevelPlain:
		return plainStyle.Render(m.text)
	}
	return infoStyle.Render("✓ " + m.text)
}
