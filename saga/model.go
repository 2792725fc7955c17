package saga

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// FailedMsg is emitted by Model once its driver dies. The model ignores
// every message after that.
type FailedMsg struct {
	Err error
}

// Model adapts a driver to bubbletea. Messages that are not an E are ignored,
// so a Model can be embedded in a larger application that routes only the
// relevant messages to it.
type Model[S, E any] struct {
	driver *Driver[S, E]
	state  S
	view   func(S) string
	init   tea.Cmd
	err    error
}

// NewModel starts program with input and wraps the resulting driver. view
// renders the host-visible state; nil falls back to fmt.Sprint.
func NewModel[I, S, E any](program Program[I, S, E], input I, view func(S) string, opts ...Option) (*Model[S, E], error) {
	driver, step, err := program.Start(input, opts...)
	if err != nil {
		return nil, err
	}
	return &Model[S, E]{
		driver: driver,
		state:  step.State,
		view:   view,
		init:   step.Cmd(),
	}, nil
}

// Init returns the effects the saga produced before its first Take.
func (m *Model[S, E]) Init() tea.Cmd {
	cmd := m.init
	m.init = nil
	return cmd
}

// Update forwards msg to the saga when it is an E.
func (m *Model[S, E]) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.err != nil {
		return m, nil
	}
	event, ok := msg.(E)
	if !ok {
		return m, nil
	}
	return m, m.Dispatch(event)
}

// Dispatch delivers event to the saga and returns the effects to run.
func (m *Model[S, E]) Dispatch(event E) tea.Cmd {
	if m.err != nil {
		return nil
	}
	step, err := m.driver.Update(event, m.state)
	if err != nil {
		m.err = err
		return func() tea.Msg { return FailedMsg{Err: err} }
	}
	m.state = step.State
	return step.Cmd()
}

// View renders the current state.
func (m *Model[S, E]) View() string {
	if m.view == nil {
		return fmt.Sprint(m.state)
	}
	return m.view(m.state)
}

// State returns the last host-visible state.
func (m *Model[S, E]) State() S {
	return m.state
}

// Err returns the error that stopped the saga, if any.
func (m *Model[S, E]) Err() error {
	return m.err
}

// Close stops the underlying driver.
func (m *Model[S, E]) Close() error {
	return m.driver.Close()
}
