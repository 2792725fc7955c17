package saga_test

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kingrea/teasaga/internal/effects"
	"github.com/kingrea/teasaga/saga"
)

type counterCtx = saga.Context[int, tea.Msg]

func zero(struct{}) int { return 0 }

func start[S any](t *testing.T, init func(struct{}) S, body saga.Saga[S, tea.Msg]) *effects.Loop[S, tea.Msg] {
	t.Helper()
	loop, err := effects.NewLoop(saga.Program[struct{}, S, tea.Msg]{
		Init: init,
		Saga: body,
	}, struct{}{}, nil, effects.WithSagaOptions(saga.WithTokenSource(&saga.SequentialTokens{Prefix: "t"})))
	require.NoError(t, err)
	t.Cleanup(func() { _ = loop.Close() })
	return loop
}

func dispatch[S any](t *testing.T, loop *effects.Loop[S, tea.Msg], events ...tea.Msg) {
	t.Helper()
	for _, event := range events {
		require.NoError(t, loop.Dispatch(event))
	}
}

func TestInitialStateIsVisibleBeforeAnyEvent(t *testing.T) {
	loop := start(t, zero, func(c *counterCtx) {
		for {
			c.TakeAny()
		}
	})
	assert.Equal(t, []int{0}, loop.History())
}

func TestStateSetBeforeFirstTakeIsVisibleAtInit(t *testing.T) {
	loop := start(t, zero, func(c *counterCtx) {
		for {
			c.Put(1)
			c.TakeAny()
		}
	})
	assert.Equal(t, []int{1}, loop.History())
}

func TestTakeAnyBeforeSettingState(t *testing.T) {
	loop := start(t, zero, func(c *counterCtx) {
		for {
			c.TakeAny()
			c.Put(1)
		}
	})
	dispatch(t, loop, "")
	assert.Equal(t, []int{0, 1}, loop.History())
}

func TestTakeWaitsForMatchingEvent(t *testing.T) {
	loop := start(t, zero, func(c *counterCtx) {
		for {
			c.Take(saga.Is[tea.Msg]("simon says"))
			c.Put(1)
		}
	})
	dispatch(t, loop, "jump", "sit")
	assert.Equal(t, []int{0, 0, 0}, loop.History())
	dispatch(t, loop, "simon says")
	assert.Equal(t, 1, loop.State())
}

func TestTakeDiscardsNonMatchingEventsSilently(t *testing.T) {
	observer := &recordingObserver{}
	driver := saga.NewDriver(0, func(c *counterCtx) {
		c.Forever(func(c *counterCtx) {
			update := c.Take(saga.Is[tea.Msg]("inc"))
			c.Put(update.State+1, effects.Echo("done"))
		})
	}, saga.WithObserver(observer))
	step, err := driver.Start()
	require.NoError(t, err)

	events := []tea.Msg{"noise", "inc", "other", 42, "inc"}
	state := step.State
	for _, event := range events {
		step, err = driver.Update(event, state)
		require.NoError(t, err)
		if event == "inc" {
			assert.Equal(t, state+1, step.State)
			assert.Len(t, step.Cmds, 1)
		} else {
			assert.Equal(t, state, step.State)
			assert.Empty(t, step.Cmds)
		}
		state = step.State
	}
	assert.Equal(t, 2, state)
	assert.Equal(t, []any{"noise", "other", 42}, observer.discarded)
}

func TestForeverRestartsFiniteSaga(t *testing.T) {
	runs := 0
	loop := start(t, zero, func(c *counterCtx) {
		c.Forever(func(c *counterCtx) {
			runs++
			c.TakeAny()
		})
	})
	assert.Equal(t, []int{0}, loop.History())
	dispatch(t, loop, "x", "y", "z")
	assert.Equal(t, 4, runs)
}

func TestCountingSaga(t *testing.T) {
	loop := start(t, zero, func(c *counterCtx) {
		c.Forever(func(c *counterCtx) {
			update := c.Take(saga.Is[tea.Msg]("inc"))
			c.Put(update.State + 1)
		})
	})
	dispatch(t, loop, "inc", "inc")
	assert.Equal(t, []int{0, 1, 2}, loop.History())
}

func TestIncrementDecrement(t *testing.T) {
	change := map[tea.Msg]int{"increment": 1, "decrement": -1}
	loop := start(t, zero, func(c *counterCtx) {
		c.Forever(func(c *counterCtx) {
			update := c.Take(saga.Is[tea.Msg]("increment", "decrement"))
			c.Put(update.State + change[update.Event])
		})
	})
	dispatch(t, loop, "increment", "decrement")
	assert.Equal(t, []int{0, 1, 0}, loop.History())
}

func okCancel(c *counterCtx) {
	c.Forever(func(c *counterCtx) {
		opened := c.Take(saga.Is[tea.Msg]("open increment dialog"))
		c.Put(123)
		answer := c.Take(saga.Is[tea.Msg]("ok", "cancel"))
		if answer.Event == "cancel" {
			c.Put(opened.State)
			return
		}
		c.Put(opened.State + 1)
	})
}

func TestOkCancelDialog(t *testing.T) {
	t.Run("cancel restores", func(t *testing.T) {
		loop := start(t, zero, okCancel)
		dispatch(t, loop, "open increment dialog", "cancel")
		assert.Equal(t, []int{0, 123, 0}, loop.History())
	})
	t.Run("ok increments", func(t *testing.T) {
		loop := start(t, zero, okCancel)
		dispatch(t, loop, "open increment dialog", "ok")
		assert.Equal(t, []int{0, 123, 1}, loop.History())
	})
}

func TestGetStateAtInit(t *testing.T) {
	loop := start(t, zero, func(c *counterCtx) {
		c.Forever(func(c *counterCtx) {
			c.Put(c.GetState() + 1)
			c.TakeAny()
		})
	})
	assert.Equal(t, []int{1}, loop.History())
}

func TestGetStateSeesStepOutputFromSameBatch(t *testing.T) {
	var seen []int
	loop := start(t, zero, func(c *counterCtx) {
		c.Forever(func(c *counterCtx) {
			update := c.TakeAny()
			c.Put(update.State + 10)
			seen = append(seen, c.GetState())
			c.Put(c.GetState() + 1)
			seen = append(seen, c.GetState())
		})
	})
	dispatch(t, loop, "go")
	assert.Equal(t, []int{10, 11}, seen)
	assert.Equal(t, []int{0, 11}, loop.History())
}

func TestRestartingCounter(t *testing.T) {
	loop := start(t, zero, func(c *counterCtx) {
		c.Forever(func(c *counterCtx) {
			c.Put(0)
			for {
				update := c.Take(saga.Is[tea.Msg]("inc", "restart"))
				if update.Event == "restart" {
					return
				}
				c.Put(update.State + 1)
			}
		})
	})
	dispatch(t, loop, "inc", "inc", "restart", "inc")
	assert.Equal(t, []int{0, 1, 2, 0, 1}, loop.History())
}

type pair struct{ A, B int }

func TestParallelCounters(t *testing.T) {
	loop := start(t, func(struct{}) pair { return pair{} }, func(c *saga.Context[pair, tea.Msg]) {
		c.Parallel(
			func(c *saga.Context[pair, tea.Msg]) {
				c.Forever(func(c *saga.Context[pair, tea.Msg]) {
					update := c.Take(saga.Is[tea.Msg]("a"))
					c.Put(pair{A: update.State.A + 1, B: update.State.B})
				})
			},
			func(c *saga.Context[pair, tea.Msg]) {
				c.Forever(func(c *saga.Context[pair, tea.Msg]) {
					update := c.Take(saga.Is[tea.Msg]("b"))
					c.Put(pair{A: update.State.A, B: update.State.B + 1})
				})
			},
		)
	})
	dispatch(t, loop, "a", "b", "a", "b")
	assert.Equal(t, []pair{{0, 0}, {1, 0}, {1, 1}, {2, 1}, {2, 2}}, loop.History())
}

func TestParallelThreadsStateInListOrder(t *testing.T) {
	double := func(c *counterCtx) {
		c.Forever(func(c *counterCtx) {
			update := c.TakeAny()
			c.Put(update.State * 2)
		})
	}
	addOne := func(c *counterCtx) {
		c.Forever(func(c *counterCtx) {
			update := c.TakeAny()
			c.Put(update.State + 1)
		})
	}
	doubleFirst := start(t, func(struct{}) int { return 3 }, func(c *counterCtx) { c.Parallel(double, addOne) })
	addFirst := start(t, func(struct{}) int { return 3 }, func(c *counterCtx) { c.Parallel(addOne, double) })
	dispatch(t, doubleFirst, "tick")
	dispatch(t, addFirst, "tick")
	assert.Equal(t, 7, doubleFirst.State())
	assert.Equal(t, 8, addFirst.State())
}

func TestCommandsIssuedAtInit(t *testing.T) {
	loop := start(t, zero, func(c *counterCtx) {
		c.Put(c.GetState(), effects.Echo("from cmd"))
		c.Put(c.GetState(), effects.Echo("from cmd"))
		c.Forever(func(c *counterCtx) {
			update := c.Take(saga.Is[tea.Msg]("from cmd"))
			c.Put(update.State + 1)
		})
	})
	assert.Equal(t, []int{0, 1, 2}, loop.History())
}

func TestCommandsIssuedAfterAction(t *testing.T) {
	loop := start(t, zero, func(c *counterCtx) {
		c.Take(saga.Is[tea.Msg]("from dispatch"))
		c.Put(c.GetState(), effects.Echo("from cmd"))
		c.Put(c.GetState(), effects.Echo("from cmd"))
		c.Forever(func(c *counterCtx) {
			update := c.Take(saga.Is[tea.Msg]("from cmd"))
			c.Put(update.State + 1)
		})
	})
	dispatch(t, loop, "from dispatch")
	assert.Equal(t, []int{0, 0, 1, 2}, loop.History())
}

func countFromCmd(c *counterCtx) {
	c.Forever(func(c *counterCtx) {
		update := c.Take(saga.Is[tea.Msg]("from cmd"))
		c.Put(update.State + 1)
	})
}

func TestParallelCommandsAtInit(t *testing.T) {
	issuer := func(c *counterCtx) {
		c.Put(c.GetState(), effects.Echo("from cmd"))
		c.Forever(func(c *counterCtx) {
			c.Take(saga.Is[tea.Msg](""))
		})
	}
	loop := start(t, zero, func(c *counterCtx) {
		c.Parallel(issuer, issuer, countFromCmd)
	})
	assert.Equal(t, []int{0, 1, 2}, loop.History())
}

func TestParallelCommandsAfterAction(t *testing.T) {
	issuer := func(c *counterCtx) {
		c.Forever(func(c *counterCtx) {
			c.Take(saga.Is[tea.Msg]("from dispatch"))
			c.Put(c.GetState(), effects.Echo("from cmd"))
		})
	}
	loop := start(t, zero, func(c *counterCtx) {
		c.Parallel(issuer, issuer, countFromCmd)
	})
	dispatch(t, loop, "from dispatch")
	assert.Equal(t, []int{0, 0, 1, 2}, loop.History())
}

type fakeResponse struct {
	APIVersion  string
	MagicNumber int
}

func TestResumeAfterCmdRoundTrip(t *testing.T) {
	loop := start(t, zero, func(c *counterCtx) {
		c.Forever(func(c *counterCtx) {
			c.Take(saga.Is[tea.Msg]("do fake network request"))
			resp := saga.ResumeAfterCmd(c, func(tag saga.Tagger[fakeResponse]) tea.Cmd {
				return effects.Echo(tag(fakeResponse{APIVersion: "1.2.3", MagicNumber: 1}))
			})
			c.Put(resp.MagicNumber)
		})
	})
	dispatch(t, loop, "do fake network request")
	assert.Equal(t, []int{0, 0, 1}, loop.History())
}

func TestResumeAfterCmdIgnoresOtherTokens(t *testing.T) {
	var tags []saga.Tagger[int]
	driver := saga.NewDriver(0, func(c *counterCtx) {
		c.Forever(func(c *counterCtx) {
			got := saga.ResumeAfterCmd(c, func(tag saga.Tagger[int]) tea.Cmd {
				tags = append(tags, tag)
				return nil
			})
			c.Put(got)
		})
	}, saga.WithTokenSource(&saga.SequentialTokens{Prefix: "call"}))
	step, err := driver.Start()
	require.NoError(t, err)
	require.Len(t, tags, 1)

	forged := saga.Response{Token: "elsewhere", Payload: 99}
	step, err = driver.Update(forged, step.State)
	require.NoError(t, err)
	assert.Equal(t, 0, step.State)

	step, err = driver.Update(tags[0](7), step.State)
	require.NoError(t, err)
	assert.Equal(t, 7, step.State)
	require.Len(t, tags, 2)

	// A second delivery of the first call's response does not wake the second call.
	step, err = driver.Update(tags[0](8), step.State)
	require.NoError(t, err)
	assert.Equal(t, 7, step.State)

	step, err = driver.Update(tags[1](9), step.State)
	require.NoError(t, err)
	assert.Equal(t, 9, step.State)
}

func TestTokenOfReadsTaggerToken(t *testing.T) {
	var tokens []saga.Token
	driver := saga.NewDriver(0, func(c *counterCtx) {
		c.Forever(func(c *counterCtx) {
			got := saga.ResumeAfterCmd(c, func(tag saga.Tagger[string]) tea.Cmd {
				tokens = append(tokens, saga.TokenOf(tag))
				return nil
			})
			c.Put(len(got))
		})
	}, saga.WithTokenSource(&saga.SequentialTokens{Prefix: "call"}))
	step, err := driver.Start()
	require.NoError(t, err)
	require.Equal(t, []saga.Token{"call-1"}, tokens)

	step, err = driver.Update(saga.Response{Token: tokens[0], Payload: "four"}, step.State)
	require.NoError(t, err)
	assert.Equal(t, 4, step.State)
	assert.Equal(t, []saga.Token{"call-1", "call-2"}, tokens)
	assert.Equal(t, saga.Token(""), saga.TokenOf[int](nil))
}

type dialogState struct {
	Counter int
	Dialog  *int
}

type dialogResult struct {
	OK     bool
	Amount int
}

func openIncrementDialog(c *saga.Context[dialogState, tea.Msg]) dialogResult {
	state := c.GetState()
	opened := 0
	state.Dialog = &opened
	c.Put(state)
	for {
		update := c.Take(saga.Is[tea.Msg]("increment", "closeOk", "closeCancel"))
		current := c.GetState()
		if update.Event == "increment" {
			next := *current.Dialog + 1
			current.Dialog = &next
			c.Put(current)
			continue
		}
		amount := *current.Dialog
		current.Dialog = nil
		c.Put(current)
		if update.Event == "closeOk" {
			return dialogResult{OK: true, Amount: amount}
		}
		return dialogResult{}
	}
}

func TestIncrementInDialog(t *testing.T) {
	var rendered []string
	loop, err := effects.NewLoop(saga.Program[struct{}, dialogState, tea.Msg]{
		Init: func(struct{}) dialogState { return dialogState{} },
		Saga: func(c *saga.Context[dialogState, tea.Msg]) {
			c.Forever(func(c *saga.Context[dialogState, tea.Msg]) {
				c.Take(saga.Is[tea.Msg]("openDialog"))
				result := openIncrementDialog(c)
				if !result.OK {
					return
				}
				state := c.GetState()
				state.Counter += result.Amount
				c.Put(state)
			})
		},
	}, struct{}{}, func(s dialogState) {
		if s.Dialog == nil {
			rendered = append(rendered, "closed")
			return
		}
		rendered = append(rendered, string(rune('0'+*s.Dialog)))
	})
	require.NoError(t, err)
	defer loop.Close()

	for _, event := range []tea.Msg{"increment", "increment", "openDialog", "increment", "increment", "closeOk"} {
		require.NoError(t, loop.Dispatch(event))
	}
	assert.Equal(t, []string{"closed", "closed", "closed", "0", "1", "2", "closed"}, rendered)
	assert.Equal(t, 2, loop.State().Counter)
	assert.Nil(t, loop.State().Dialog)
}

type recordingObserver struct {
	saga.NopObserver
	started   []string
	discarded []any
	flushes   int
	failures  []error
}

func (r *recordingObserver) Started(info saga.Info) {
	r.started = append(r.started, info.Name)
}

func (r *recordingObserver) Flushed(saga.Info, int, int) {
	r.flushes++
}

func (r *recordingObserver) Discarded(_ saga.Info, event any) {
	r.discarded = append(r.discarded, event)
}

func (r *recordingObserver) Failed(_ saga.Info, err error) {
	r.failures = append(r.failures, err)
}
