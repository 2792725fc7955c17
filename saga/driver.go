package saga

import (
	"fmt"
	"iter"
	"runtime/debug"

	tea "github.com/charmbracelet/bubbletea"
)

type driverStatus uint8

const (
	statusIdle driverStatus = iota
	statusRunning
	statusSuspended
	statusFailed
	statusClosed
)

// Step is a host-visible result: the state current when the saga asked for
// its next event and every effect produced since the previous step.
type Step[S any] struct {
	State S
	Cmds  []tea.Cmd
}

// Cmd folds the step's effects into a single command for the host loop.
func (s Step[S]) Cmd() tea.Cmd {
	switch len(s.Cmds) {
	case 0:
		return nil
	case 1:
		return s.Cmds[0]
	}
	return tea.Batch(s.Cmds...)
}

// Driver owns the execution of one saga.
type Driver[S, E any] struct {
	saga     Saga[S, E]
	state    S
	pending  []tea.Cmd
	input    resume[S, E]
	status   driverStatus
	err      error
	next     func() (yielded[S], bool)
	stop     func()
	info     Info
	observer Observer
	tokens   TokenSource
}

// NewDriver prepares a driver seeded with state. The saga does not run until
// Start is called.
func NewDriver[S, E any](state S, saga Saga[S, E], opts ...Option) *Driver[S, E] {
	o := buildOptions(opts)
	return &Driver[S, E]{
		saga:     saga,
		state:    state,
		info:     Info{Name: o.name},
		observer: o.observer,
		tokens:   o.tokens,
	}
}

// spawn creates a child driver that shares this driver's observer and token
// source.
func (d *Driver[S, E]) spawn(saga Saga[S, E], index int, state S) *Driver[S, E] {
	return &Driver[S, E]{
		saga:     saga,
		state:    state,
		info:     Info{Name: fmt.Sprintf("%s/%d", d.info.Name, index), Depth: d.info.Depth + 1},
		observer: d.observer,
		tokens:   d.tokens,
	}
}

// Start runs the saga until its first Take and returns the resulting step.
func (d *Driver[S, E]) Start() (Step[S], error) {
	if err := d.checkStart(); err != nil {
		return Step[S]{State: d.state}, err
	}
	if d.saga == nil {
		return d.fail(fmt.Errorf("saga: %s: nil saga", d.info.Name))
	}
	d.next, d.stop = iter.Pull(d.body)
	d.observer.Started(d.info)
	return d.run(resume[S, E]{})
}

// Advance resumes the saga with event and the state the host currently holds,
// and drains it to its next Take.
func (d *Driver[S, E]) Advance(event E, state S) (Step[S], error) {
	if err := d.checkAdvance(); err != nil {
		return Step[S]{State: d.state}, err
	}
	d.state = state
	return d.run(resume[S, E]{kind: kindTake, event: event, state: state})
}

// Update is Advance under the name the host update loop uses.
func (d *Driver[S, E]) Update(event E, state S) (Step[S], error) {
	return d.Advance(event, state)
}

// State returns the driver's current state.
func (d *Driver[S, E]) State() S {
	return d.state
}

// Err returns the failure that stopped the driver, if any.
func (d *Driver[S, E]) Err() error {
	return d.err
}

// Close stops the saga. Deferred calls in the saga body run before Close
// returns. Closing twice is a no-op.
func (d *Driver[S, E]) Close() error {
	switch d.status {
	case statusClosed:
		return nil
	case statusRunning:
		return ErrReentrantAdvance
	}
	if d.stop != nil {
		d.stop()
	}
	d.status = statusClosed
	d.pending = nil
	return nil
}

func (d *Driver[S, E]) checkStart() error {
	switch d.status {
	case statusIdle:
		return nil
	case statusClosed:
		return ErrDriverClosed
	case statusFailed:
		return fmt.Errorf("%w: %w", ErrDriverFailed, d.err)
	}
	return ErrAlreadyStarted
}

func (d *Driver[S, E]) checkAdvance() error {
	switch d.status {
	case statusSuspended:
		return nil
	case statusIdle:
		return ErrNotStarted
	case statusRunning:
		return ErrReentrantAdvance
	case statusFailed:
		return fmt.Errorf("%w: %w", ErrDriverFailed, d.err)
	}
	return ErrDriverClosed
}

// body is the push iterator iter.Pull turns into a coroutine. Panics stay
// inside it so the driver can report them as errors.
func (d *Driver[S, E]) body(yield func(yielded[S]) bool) {
	defer func() {
		r := recover()
		switch v := r.(type) {
		case nil:
		case stopSignal:
		case *ProtocolViolation:
			d.err = v
		case childFailure:
			d.err = fmt.Errorf("saga: %s: parallel child %d: %w", d.info.Name, v.index, v.err)
		default:
			d.err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	d.saga(&Context[S, E]{driver: d, yield: yield})
	d.err = fmt.Errorf("%w: %s", ErrSagaCompleted, d.info.Name)
}

func (d *Driver[S, E]) run(in resume[S, E]) (Step[S], error) {
	d.status = statusRunning
	d.input = in
	steps := 0
	for {
		out, ok := d.next()
		if !ok {
			return d.fail(d.err)
		}
		switch out.request {
		case kindTake:
			step := Step[S]{State: d.state, Cmds: d.pending}
			d.pending = nil
			d.status = statusSuspended
			d.observer.Flushed(d.info, steps, len(step.Cmds))
			return step, nil
		case kindGetState:
			d.input = resume[S, E]{kind: kindGetState, state: d.state}
		default:
			d.state = out.state
			d.pending = append(d.pending, out.cmds...)
			d.input = resume[S, E]{}
			steps++
		}
	}
}

func (d *Driver[S, E]) fail(err error) (Step[S], error) {
	if err == nil {
		err = fmt.Errorf("%w: %s", ErrSagaCompleted, d.info.Name)
	}
	d.status = statusFailed
	d.err = err
	d.pending = nil
	if d.stop != nil {
		d.stop()
	}
	d.observer.Failed(d.info, err)
	return Step[S]{State: d.state}, err
}
