package effects

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kingrea/teasaga/saga"
)

type ctx = saga.Context[int, tea.Msg]

func program(body saga.Saga[int, tea.Msg]) saga.Program[struct{}, int, tea.Msg] {
	return saga.Program[struct{}, int, tea.Msg]{
		Init: func(struct{}) int { return 0 },
		Saga: body,
	}
}

func TestEchoAndDelay(t *testing.T) {
	assert.Equal(t, "hi", Echo("hi")())
	assert.Equal(t, "now", Delay(0, "now")())
	assert.NotNil(t, Delay(time.Millisecond, "later"))
}

func TestLoopFlattensBatches(t *testing.T) {
	loop, err := NewLoop(program(func(c *ctx) {
		c.Put(0, tea.Batch(Echo("a"), tea.Batch(Echo("b"), Echo("c"))))
		c.Forever(func(c *ctx) {
			update := c.TakeAny()
			c.Put(update.State + 1)
		})
	}), struct{}{}, nil)
	require.NoError(t, err)
	defer loop.Close()
	assert.Equal(t, []int{0, 1, 2, 3}, loop.History())
}

func TestLoopDropsForeignMessages(t *testing.T) {
	loop, err := NewLoop(saga.Program[struct{}, int, string]{
		Init: func(struct{}) int { return 0 },
		Saga: func(c *saga.Context[int, string]) {
			c.Put(0, Echo(42), Echo("x"))
			for {
				update := c.TakeAny()
				c.Put(update.State + len(update.Event))
			}
		},
	}, struct{}{}, nil)
	require.NoError(t, err)
	defer loop.Close()
	assert.Equal(t, 1, loop.State())
}

func TestLoopBudget(t *testing.T) {
	ping := func(c *ctx) {
		c.Put(0, Echo("ping"))
		c.Forever(func(c *ctx) {
			update := c.TakeAny()
			c.Put(update.State+1, Echo("ping"))
		})
	}
	loop, err := NewLoop(program(ping), struct{}{}, nil, WithBudget(5))
	require.ErrorIs(t, err, ErrMessageBudget)
	require.NotNil(t, loop)
	assert.Equal(t, 5, loop.State())
}

func TestLoopRendersEveryVisibleState(t *testing.T) {
	var seen []int
	loop, err := NewLoop(program(func(c *ctx) {
		c.Forever(func(c *ctx) {
			update := c.TakeAny()
			c.Put(update.State + 2)
		})
	}), struct{}{}, func(s int) { seen = append(seen, s) })
	require.NoError(t, err)
	defer loop.Close()

	require.NoError(t, loop.Dispatch("x"))
	require.NoError(t, loop.Dispatch("y"))
	assert.Equal(t, []int{0, 2, 4}, seen)
	assert.Equal(t, seen, loop.History())
}

func TestLoopSurfacesDriverFailure(t *testing.T) {
	loop, err := NewLoop(program(func(c *ctx) {
		c.Take(saga.Is[tea.Msg]("quit"))
	}), struct{}{}, nil)
	require.NoError(t, err)

	err = loop.Dispatch("quit")
	assert.ErrorIs(t, err, saga.ErrSagaCompleted)
	err = loop.Dispatch("again")
	assert.ErrorIs(t, err, saga.ErrDriverFailed)
}
