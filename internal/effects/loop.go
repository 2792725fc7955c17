package effects

import (
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/teasaga/saga"
)

// DefaultMessageBudget caps how many messages one Dispatch may process
// before the loop gives up on a saga that keeps echoing to itself.
const DefaultMessageBudget = 1024

// ErrMessageBudget is returned when a Dispatch exceeds its message budget.
var ErrMessageBudget = errors.New("effects: message budget exhausted")

// Loop is a headless host: it owns the state, runs every command a step
// returns and feeds the resulting messages back into the driver until the
// queue is empty. Messages are handled in the order commands produce them;
// tea.BatchMsg is flattened in place. Messages that are not an E are dropped.
type Loop[S, E any] struct {
	driver  *saga.Driver[S, E]
	state   S
	queue   []tea.Msg
	history []S
	render  func(S)
	budget  int
}

// LoopOption customizes a Loop.
type LoopOption func(*loopConfig)

type loopConfig struct {
	budget     int
	driverOpts []saga.Option
}

// WithBudget overrides DefaultMessageBudget.
func WithBudget(n int) LoopOption {
	return func(c *loopConfig) {
		if n > 0 {
			c.budget = n
		}
	}
}

// WithSagaOptions passes options through to the driver.
func WithSagaOptions(opts ...saga.Option) LoopOption {
	return func(c *loopConfig) {
		c.driverOpts = append(c.driverOpts, opts...)
	}
}

// NewLoop starts program and drains whatever its init effects dispatch.
// render, when non-nil, sees every host-visible state in order, including
// the intermediate ones History records.
func NewLoop[I, S, E any](program saga.Program[I, S, E], input I, render func(S), opts ...LoopOption) (*Loop[S, E], error) {
	cfg := loopConfig{budget: DefaultMessageBudget}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	driver, step, err := program.Start(input, cfg.driverOpts...)
	if err != nil {
		return nil, fmt.Errorf("effects: start: %w", err)
	}
	l := &Loop[S, E]{
		driver: driver,
		render: render,
		budget: cfg.budget,
	}
	l.apply(step)
	if err := l.drain(); err != nil {
		return l, err
	}
	return l, nil
}

// Dispatch queues event and processes messages until the queue is empty.
func (l *Loop[S, E]) Dispatch(event E) error {
	l.queue = append(l.queue, event)
	return l.drain()
}

// State returns the last host-visible state.
func (l *Loop[S, E]) State() S {
	return l.state
}

// History returns every host-visible state so far, oldest first. Each flush
// is one entry: the initial state, then one per message the driver handled.
// An event whose effects echo back into the saga therefore adds an entry for
// every round trip, not just the final state.
func (l *Loop[S, E]) History() []S {
	out := make([]S, len(l.history))
	copy(out, l.history)
	return out
}

// Close stops the driver.
func (l *Loop[S, E]) Close() error {
	return l.driver.Close()
}

func (l *Loop[S, E]) drain() error {
	processed := 0
	for len(l.queue) > 0 {
		msg := l.queue[0]
		l.queue = l.queue[1:]
		event, ok := msg.(E)
		if !ok {
			continue
		}
		processed++
		if processed > l.budget {
			l.queue = nil
			return fmt.Errorf("%w after %d messages", ErrMessageBudget, l.budget)
		}
		step, err := l.driver.Update(event, l.state)
		if err != nil {
			l.queue = nil
			return err
		}
		l.apply(step)
	}
	return nil
}

func (l *Loop[S, E]) apply(step saga.Step[S]) {
	l.state = step.State
	l.history = append(l.history, step.State)
	if l.render != nil {
		l.render(step.State)
	}
	for _, cmd := range step.Cmds {
		l.run(cmd)
	}
}

func (l *Loop[S, E]) run(cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	switch msg := cmd().(type) {
	case nil:
	case tea.BatchMsg:
		for _, inner := range msg {
			l.run(inner)
		}
	default:
		l.queue = append(l.queue, msg)
	}
}
