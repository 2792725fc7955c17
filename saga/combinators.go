package saga

import tea "github.com/charmbracelet/bubbletea"

// Forever runs body to completion, then starts it again from scratch, without
// end. body must Take at some point or the driver spins forever.
func (c *Context[S, E]) Forever(body Finite[S, E]) {
	for {
		body(c)
	}
}

// Parallel runs children as if concurrently and never returns.
//
// Each child gets its own driver. At startup, and then for every event, the
// children are visited in list order and the state is threaded through them:
// child i+1 sees the state child i produced, never the state the parent held
// before. Every event goes to every child; filtering is the children's job.
// Each round ends in one step output carrying the final state and every
// child's effects, in order. A failing child fails the parent.
func (c *Context[S, E]) Parallel(children ...Saga[S, E]) {
	drivers := make([]*Driver[S, E], 0, len(children))
	defer func() {
		for _, child := range drivers {
			_ = child.Close()
		}
	}()

	state := c.GetState()
	var cmds []tea.Cmd
	for i, saga := range children {
		child := c.driver.spawn(saga, i, state)
		drivers = append(drivers, child)
		step, err := child.Start()
		if err != nil {
			panic(childFailure{index: i, err: err})
		}
		state = step.State
		cmds = append(cmds, step.Cmds...)
	}
	c.Put(state, cmds...)

	for {
		update := c.TakeAny()
		state, cmds = update.State, nil
		for i, child := range drivers {
			step, err := child.Advance(update.Event, state)
			if err != nil {
				panic(childFailure{index: i, err: err})
			}
			state = step.State
			cmds = append(cmds, step.Cmds...)
		}
		c.Put(state, cmds...)
	}
}
