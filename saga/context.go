package saga

import (
	"slices"

	tea "github.com/charmbracelet/bubbletea"
)

// Saga is a top-level control flow. It must never return; a driver treats a
// returning saga as the fatal ErrSagaCompleted.
type Saga[S, E any] func(*Context[S, E])

// Finite is a sub-saga that may return, typically run under Context.Forever.
// Sub-sagas that produce a result are plain functions taking a *Context.
type Finite[S, E any] func(*Context[S, E])

// Update is what Take hands back: the event that resumed the saga and the
// state the driver held at that moment.
type Update[S, E any] struct {
	Event E
	State S
}

// Context is the vocabulary a saga body uses to talk to its driver. It is only
// valid inside the saga it was passed to.
type Context[S, E any] struct {
	driver *Driver[S, E]
	yield  func(yielded[S]) bool
}

func (c *Context[S, E]) send(out yielded[S]) resume[S, E] {
	if !c.yield(out) {
		panic(stopSignal{})
	}
	in := c.driver.input
	c.driver.input = resume[S, E]{}
	return in
}

// TakeAny suspends until the host delivers the next event.
func (c *Context[S, E]) TakeAny() Update[S, E] {
	in := await(kindTake, c.send(yielded[S]{request: kindTake}))
	return Update[S, E]{Event: in.event, State: in.state}
}

// Take suspends until an event satisfying match arrives. Events that do not
// match are consumed without any visible state or effect change. A nil match
// accepts every event.
func (c *Context[S, E]) Take(match func(E) bool) Update[S, E] {
	for {
		update := c.TakeAny()
		if match == nil || match(update.Event) {
			return update
		}
		c.driver.observer.Discarded(c.driver.info, update.Event)
	}
}

// GetState returns the driver's current state, including step outputs made
// earlier in the same batch. It never surfaces to the host.
func (c *Context[S, E]) GetState() S {
	return await(kindGetState, c.send(yielded[S]{request: kindGetState})).state
}

// Put proposes the next state together with any effects to run. Nil commands
// are dropped.
func (c *Context[S, E]) Put(state S, cmds ...tea.Cmd) {
	out := yielded[S]{state: state}
	for _, cmd := range cmds {
		if cmd != nil {
			out.cmds = append(out.cmds, cmd)
		}
	}
	await(kindNone, c.send(out))
}

// Is returns a predicate matching any of the given events.
func Is[E comparable](events ...E) func(E) bool {
	return func(event E) bool {
		return slices.Contains(events, event)
	}
}

// OfType returns a predicate matching events that hold a T.
func OfType[T, E any]() func(E) bool {
	return func(event E) bool {
		_, ok := any(event).(T)
		return ok
	}
}
