// internal/demos/demos.go
//
// The demo catalog. Each demo is a top-level saga over the shared State and
// tea.Msg events, plus the metadata the TUI, the scenario runner and the CLI
// need to present it: key bindings, a one-line summary of the state and a
// longer rendering.

package demos

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/teasaga/saga"
)

// Action is the event vocabulary every demo understands. Unknown actions are
// ordinary events the sagas discard.
type Action string

const (
	Inc     Action = "inc"
	Dec     Action = "dec"
	Restart Action = "restart"
	Open    Action = "open"
	OK      Action = "ok"
	Cancel  Action = "cancel"
	IncA    Action = "a"
	IncB    Action = "b"
	Fetch   Action = "fetch"
	Submit  Action = "submit"
)

// DefaultFetchDelay is how long the fetch demo's fake request takes.
const DefaultFetchDelay = 750 * time.Millisecond

// State is the host state shared by every demo. Each demo reads and writes
// only the fields it cares about.
type State struct {
	Count   int
	A       int
	B       int
	Dialog  *int
	Prompt  string
	Status  string
	Magic   int
	Fetches int
}

// Binding maps a key to the action it dispatches.
type Binding struct {
	Key    string
	Action Action
	Help   string
}

// Demo describes one runnable saga.
type Demo struct {
	ID          string
	Title       string
	Description string
	Bindings    []Binding
	Initial     State
	Saga        saga.Saga[State, tea.Msg]
	Summary     func(State) string
}

// Options tunes the catalog. Requests answers the approval demo; it
// defaults to AutoApprove.
type Options struct {
	FetchDelay time.Duration
	Requests   Requests
}

// Program returns the init/update pair the host drives. The program input
// overrides the demo's initial state when non-nil.
func (d Demo) Program() saga.Program[*State, State, tea.Msg] {
	initial := d.Initial
	return saga.Program[*State, State, tea.Msg]{
		Init: func(input *State) State {
			if input != nil {
				return *input
			}
			return initial
		},
		Saga:    d.Saga,
		Options: []saga.Option{saga.WithName(d.ID)},
	}
}

// Describe renders the state for humans.
func (d Demo) Describe(s State) string {
	if d.Summary == nil {
		return fmt.Sprintf("%+v", s)
	}
	return d.Summary(s)
}

// ActionFor returns the action bound to key.
func (d Demo) ActionFor(key string) (Action, bool) {
	for _, b := range d.Bindings {
		if b.Key == key {
			return b.Action, true
		}
	}
	return "", false
}

// Catalog lists every demo in display order.
func Catalog(opts Options) []Demo {
	delay := opts.FetchDelay
	if delay < 0 {
		delay = 0
	}
	requests := opts.Requests
	if requests == nil {
		requests = AutoApprove{}
	}
	return []Demo{
		{
			ID:          "counter",
			Title:       "Counter",
			Description: "forever: take inc, put count+1",
			Bindings:    []Binding{{Key: "+", Action: Inc, Help: "increment"}},
			Saga:        Counter,
			Summary:     countSummary,
		},
		{
			ID:          "incdec",
			Title:       "Increment / Decrement",
			Description: "take either action and apply its delta",
			Bindings: []Binding{
				{Key: "+", Action: Inc, Help: "increment"},
				{Key: "-", Action: Dec, Help: "decrement"},
			},
			Saga:    IncrementDecrement,
			Summary: countSummary,
		},
		{
			ID:          "restart",
			Title:       "Restartable Counter",
			Description: "restart returns from the finite body; forever starts it over at zero",
			Bindings: []Binding{
				{Key: "+", Action: Inc, Help: "increment"},
				{Key: "r", Action: Restart, Help: "restart"},
			},
			Saga:    RestartableCounter,
			Summary: countSummary,
		},
		{
			ID:          "okcancel",
			Title:       "OK / Cancel",
			Description: "open a confirmation, then commit or roll back",
			Bindings: []Binding{
				{Key: "o", Action: Open, Help: "open"},
				{Key: "y", Action: OK, Help: "ok"},
				{Key: "n", Action: Cancel, Help: "cancel"},
			},
			Saga:    OKCancel,
			Summary: promptSummary,
		},
		{
			ID:          "dialog",
			Title:       "Increment Dialog",
			Description: "a finite sub-saga owns the dialog and returns a typed result",
			Bindings: []Binding{
				{Key: "o", Action: Open, Help: "open"},
				{Key: "+", Action: Inc, Help: "increment"},
				{Key: "y", Action: OK, Help: "ok"},
				{Key: "n", Action: Cancel, Help: "cancel"},
			},
			Saga:    IncrementDialog,
			Summary: dialogSummary,
		},
		{
			ID:          "parallel",
			Title:       "Parallel Counters",
			Description: "two counters share one state; a runs before b",
			Bindings: []Binding{
				{Key: "a", Action: IncA, Help: "bump a"},
				{Key: "b", Action: IncB, Help: "bump b"},
			},
			Saga:    ParallelCounters,
			Summary: pairSummary,
		},
		{
			ID:          "fetch",
			Title:       "Fake Request",
			Description: "resumeAfterCmd: issue a delayed command and wait for its tagged response",
			Bindings:    []Binding{{Key: "f", Action: Fetch, Help: "fetch"}},
			Saga:        FakeRequest(delay),
			Summary:     fetchSummary,
		},
		{
			ID:          "approval",
			Title:       "Outside Approval",
			Description: "resumeAfterCmd with an answer from outside: the event bridge or the auto-approver replies",
			Bindings:    []Binding{{Key: "s", Action: Submit, Help: "submit"}},
			Saga:        Approval(requests),
			Summary:     approvalSummary,
		},
	}
}

// IDs returns the catalog's demo identifiers in order.
func IDs(catalog []Demo) []string {
	ids := make([]string, 0, len(catalog))
	for _, d := range catalog {
		ids = append(ids, d.ID)
	}
	return ids
}

// Lookup finds a demo by id, case-insensitively.
func Lookup(catalog []Demo, id string) (Demo, error) {
	target := strings.ToLower(strings.TrimSpace(id))
	for _, d := range catalog {
		if d.ID == target {
			return d, nil
		}
	}
	return Demo{}, fmt.Errorf("demos: unknown demo %q (available: %s)", id, strings.Join(IDs(catalog), ", "))
}

func countSummary(s State) string {
	return fmt.Sprintf("count=%d", s.Count)
}

func promptSummary(s State) string {
	if s.Prompt != "" {
		return fmt.Sprintf("count=%d prompt=%q", s.Count, s.Prompt)
	}
	return countSummary(s)
}

func dialogSummary(s State) string {
	if s.Dialog != nil {
		return fmt.Sprintf("count=%d dialog=%d", s.Count, *s.Dialog)
	}
	return countSummary(s)
}

func pairSummary(s State) string {
	return fmt.Sprintf("a=%d b=%d", s.A, s.B)
}

func fetchSummary(s State) string {
	if s.Status != "" {
		return fmt.Sprintf("magic=%d status=%s", s.Magic, s.Status)
	}
	return fmt.Sprintf("magic=%d", s.Magic)
}

func approvalSummary(s State) string {
	switch {
	case s.Prompt != "":
		return fmt.Sprintf("count=%d status=%s prompt=%q", s.Count, s.Status, s.Prompt)
	case s.Status != "":
		return fmt.Sprintf("count=%d status=%s", s.Count, s.Status)
	}
	return countSummary(s)
}
