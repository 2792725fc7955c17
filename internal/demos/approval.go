package demos

import (
	"encoding/json"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/teasaga/internal/effects"
	"github.com/kingrea/teasaga/saga"
)

// Requests sends the approval demo's question somewhere that can answer it.
// The returned command, plus a later call to tag with the answer, must
// eventually deliver the tagged response to the demo.
type Requests interface {
	Request(demo, prompt string, tag saga.Tagger[json.RawMessage]) tea.Cmd
}

// AutoApprove answers every request straight away.
type AutoApprove struct{}

// Request implements Requests.
func (AutoApprove) Request(_, _ string, tag saga.Tagger[json.RawMessage]) tea.Cmd {
	return effects.Echo(tag(json.RawMessage(`{"approved":true,"by":"auto"}`)))
}

// Decision is the answer the approval demo expects.
type Decision struct {
	Approved bool   `json:"approved"`
	By       string `json:"by"`
}

// Approval asks requests to approve each Submit and counts the approved
// ones. Submits made while a request is open are discarded.
func Approval(requests Requests) saga.Saga[State, tea.Msg] {
	return func(c *ctx) {
		c.Forever(func(c *ctx) {
			update := c.Take(saga.Is[tea.Msg](Submit))
			s := update.State
			s.Prompt = fmt.Sprintf("deploy #%d?", s.Count+1)
			s.Status = "awaiting approval"
			c.Put(s)

			prompt := s.Prompt
			raw := saga.ResumeAfterCmd(c, func(tag saga.Tagger[json.RawMessage]) tea.Cmd {
				return requests.Request("approval", prompt, tag)
			})

			done := c.GetState()
			done.Prompt = ""
			var decision Decision
			if err := json.Unmarshal(raw, &decision); err != nil {
				done.Status = "unreadable answer"
				c.Put(done)
				return
			}
			by := decision.By
			if by == "" {
				by = "unknown"
			}
			if decision.Approved {
				done.Count++
				done.Status = "approved by " + by
			} else {
				done.Status = "rejected by " + by
			}
			c.Put(done)
		})
	}
}
