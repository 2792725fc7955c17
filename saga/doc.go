// Package saga runs long-lived, sequential control flows ("sagas") on top of
// an Elm-style update loop such as bubbletea.
//
// A saga is ordinary Go code that receives a *Context. It waits for the next
// relevant event with Take or TakeAny, reads the current state with GetState
// and proposes new state (plus optional tea.Cmd effects) with Put. The Driver
// runs the saga as a cooperative coroutine and reduces it to a strict
// request/response protocol:
//
//	driver, step, err := program.Start(input)   // run up to the first Take
//	step, err = driver.Update(event, step.State) // one event, one flush
//
// Every call drains the saga synchronously until it asks for the next event.
// Only the state current at that moment is visible to the host, and every
// effect produced since the previous flush is delivered with it, in order.
//
// # Combinators
//
//   - Context.Forever restarts a finite sub-saga each time it returns.
//   - Context.Parallel threads every event through several sagas in their
//     declared order. Later children observe state written by earlier ones
//     within the same event, so the order of the list matters.
//   - ResumeAfterCmd issues an effect carrying a single-use Token and waits for
//     the Response built by the Tagger it handed to the effect.
//
// # Concurrency
//
// Nothing here runs concurrently. Sagas are resumed with iter.Pull, which
// switches between the driver and the saga body on the calling goroutine's
// behalf; a Driver must not be used from more than one goroutine at a time.
// bubbletea already serialises Update calls, so Model is safe to hand to
// tea.NewProgram.
package saga
