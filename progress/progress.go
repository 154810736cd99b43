// Package progress shows a spinner while a blocking step runs.
package progress

import (
	"context"
	"io"
	"os"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/themetester/themetester/color"
	"github.com/themetester/themetester/icon"
	"golang.org/x/term"
)

// Work is the step to run. status may be called to replace the message shown
// next to the spinner.
type Work[T any] func(ctx context.Context, status func(string)) (T, error)

type statusMsg string

type doneMsg[T any] struct {
	value T
	err   error
}

type model[T any] struct {
	spinner spinner.Model
	status  string
	done    bool
	value   T
	err     error
}

func newModel[T any](status string) model[T] {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(color.Accent)
	return model[T]{spinner: s, status: status}
}

func (m model[T]) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m model[T]) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case statusMsg:
		m.status = string(msg)
		return m, nil
	case doneMsg[T]:
		m.done, m.value, m.err = true, msg.value, msg.err
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.done, m.err = true, context.Canceled
			return m, tea.Quit
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)
	return m, cmd
}

func (m model[T]) View() string {
	if m.done {
		return ""
	}
	return m.spinner.View() + " " + m.status + "\n"
}

// Run runs work behind a spinner on stderr. Without a terminal the spinner
// is skipped and status messages go nowhere. Pressing ctrl+c cancels the
// context passed to work.
func Run[T any](ctx context.Context, status string, work Work[T]) (T, error) {
	if !term.IsTerminal(int(os.Stderr.Fd())) {
		return work(ctx, func(string) {})
	}
	return run(ctx, status, work, os.Stderr, os.Stdin)
}

func run[T any](ctx context.Context, status string, work Work[T], output io.Writer, input io.Reader) (T, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	program := tea.NewProgram(newModel[T](status), tea.WithOutput(output), tea.WithInput(input), tea.WithContext(ctx))

	go func() {
		value, err := work(ctx, func(s string) { program.Send(statusMsg(s)) })
		program.Send(doneMsg[T]{value: value, err: err})
	}()

	final, err := program.Run()
	if err != nil {
		var zero T
		return zero, err
	}

	m := final.(model[T])
	return m.value, m.err
}

// Done renders a finished step.
func Done(message string) string {
	return icon.Get(icon.Success) + " " + message
}

// Failed renders a failed step.
func Failed(message string) string {
	return icon.Get(icon.Fail) + " " + message
}
