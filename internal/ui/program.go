package ui

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// Task is work run behind a spinner
type Task func(ctx context.Context) error

type taskDoneMsg struct {
	err error
}

// spinnerModel shows a spinner until its task finishes
type spinnerModel struct {
	label   string
	spinner spinner.Model
	task    Task
	ctx     context.Context
	err     error
	done    bool
}

func (m spinnerModel) Init() tea.Cmd {
	run := func() tea.Msg {
		return taskDoneMsg{err: m.task(m.ctx)}
	}
	return tea.Batch(m.spinner.Tick, run)
}

func (m spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case taskDoneMsg:
		m.err = msg.err
		m.done = true
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.err = context.Canceled
			m.done = true
			return m, tea.Quit
		}
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m spinnerModel) View() string {
	if m.done {
		return ""
	}
	return "  " + m.spinner.View() + " " + m.label + "...\n"
}

// RunWithSpinner runs task while showing label next to a spinner.
// When out is not a terminal the label is printed once and the task runs
// without a Bubble Tea program.
func RunWithSpinner(ctx context.Context, out io.Writer, label string, task Task) error {
	if out == nil {
		out = os.Stdout
	}

	if f, ok := out.(*os.File); !ok || f != os.Stdout || !IsTerminal() {
		_, _ = fmt.Fprintf(out, "  %s...\n", label)
		return task(ctx)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	model := spinnerModel{label: label, spinner: s, task: task, ctx: ctx}
	final, err := tea.NewProgram(model, tea.WithOutput(out)).Run()
	if err != nil {
		return fmt.Errorf("failed to run spinner: %w", err)
	}
	return final.(spinnerModel).err
}
