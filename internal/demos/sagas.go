package demos

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/teasaga/internal/effects"
	"github.com/kingrea/teasaga/saga"
)

type ctx = saga.Context[State, tea.Msg]

// Counter increments Count on every Inc.
func Counter(c *ctx) {
	c.Forever(func(c *ctx) {
		update := c.Take(saga.Is[tea.Msg](Inc))
		s := update.State
		s.Count++
		c.Put(s)
	})
}

// IncrementDecrement applies Inc and Dec to Count.
func IncrementDecrement(c *ctx) {
	c.Forever(func(c *ctx) {
		update := c.Take(saga.Is[tea.Msg](Inc, Dec))
		s := update.State
		if update.Event == Dec {
			s.Count--
		} else {
			s.Count++
		}
		c.Put(s)
	})
}

// RestartableCounter counts Inc until Restart, then starts over from zero.
func RestartableCounter(c *ctx) {
	c.Forever(func(c *ctx) {
		s := c.GetState()
		s.Count = 0
		c.Put(s)
		for {
			update := c.Take(saga.Is[tea.Msg](Inc, Restart))
			if update.Event == Restart {
				return
			}
			s := update.State
			s.Count++
			c.Put(s)
		}
	})
}

// OKCancel asks for confirmation before incrementing. Cancel restores the
// state the dialog was opened from.
func OKCancel(c *ctx) {
	c.Forever(func(c *ctx) {
		opened := c.Take(saga.Is[tea.Msg](Open))
		prompting := opened.State
		prompting.Prompt = "increment?"
		c.Put(prompting)

		answer := c.Take(saga.Is[tea.Msg](OK, Cancel))
		if answer.Event == Cancel {
			c.Put(opened.State)
			return
		}
		s := opened.State
		s.Count++
		c.Put(s)
	})
}

// DialogResult is what the increment dialog hands back to its caller.
type DialogResult struct {
	Confirmed bool
	Amount    int
}

// RunIncrementDialog shows the dialog and runs it until OK or Cancel. It is a
// finite sub-saga: it returns, and its caller decides what to do next.
func RunIncrementDialog(c *ctx) DialogResult {
	s := c.GetState()
	amount := 0
	s.Dialog = &amount
	c.Put(s)
	for {
		update := c.Take(saga.Is[tea.Msg](Inc, OK, Cancel))
		current := update.State
		if update.Event == Inc {
			next := 1
			if current.Dialog != nil {
				next = *current.Dialog + 1
			}
			current.Dialog = &next
			c.Put(current)
			continue
		}
		result := DialogResult{Confirmed: update.Event == OK}
		if current.Dialog != nil {
			result.Amount = *current.Dialog
		}
		current.Dialog = nil
		c.Put(current)
		if !result.Confirmed {
			return DialogResult{}
		}
		return result
	}
}

// IncrementDialog opens the dialog on Open and adds its result to Count.
func IncrementDialog(c *ctx) {
	c.Forever(func(c *ctx) {
		c.Take(saga.Is[tea.Msg](Open))
		result := RunIncrementDialog(c)
		if !result.Confirmed {
			return
		}
		s := c.GetState()
		s.Count += result.Amount
		c.Put(s)
	})
}

// ParallelCounters runs an A counter and a B counter side by side.
func ParallelCounters(c *ctx) {
	c.Parallel(
		func(c *ctx) {
			c.Forever(func(c *ctx) {
				update := c.Take(saga.Is[tea.Msg](IncA))
				s := update.State
				s.A++
				c.Put(s)
			})
		},
		func(c *ctx) {
			c.Forever(func(c *ctx) {
				update := c.Take(saga.Is[tea.Msg](IncB))
				s := update.State
				s.B++
				c.Put(s)
			})
		},
	)
}

// FakeResponse is the payload of the fetch demo's pretend network call.
type FakeResponse struct {
	APIVersion  string
	MagicNumber int
}

// FakeRequest issues a delayed command on every Fetch and stores the
// response's magic number once it arrives. Fetches made while a request is in
// flight are discarded.
func FakeRequest(delay time.Duration) saga.Saga[State, tea.Msg] {
	return func(c *ctx) {
		c.Forever(func(c *ctx) {
			update := c.Take(saga.Is[tea.Msg](Fetch))
			s := update.State
			s.Fetches++
			s.Status = "loading"
			c.Put(s)

			magic := s.Fetches
			resp := saga.ResumeAfterCmd(c, func(tag saga.Tagger[FakeResponse]) tea.Cmd {
				return effects.Delay(delay, tag(FakeResponse{APIVersion: "1.2.3", MagicNumber: magic}))
			})

			done := c.GetState()
			done.Magic = resp.MagicNumber
			done.Status = "ok (api " + resp.APIVersion + ")"
			c.Put(done)
		})
	}
}
