// Package eventbridge lets outside systems answer the requests a running
// demo's saga is suspended on, and send the demo actions.
//
// A saga asks by calling Request from inside saga.ResumeAfterCmd. The call
// stays pending under the saga's token until Respond delivers the answer to
// the demo's subscription as the saga.Response the call is waiting for.
package eventbridge

import (
	"bytes"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/teasaga/saga"
)

const defaultInboxCapacity = 16

var (
	// ErrNotRunning is returned when no subscription is open for the demo.
	ErrNotRunning = errors.New("eventbridge: demo is not running")
	// ErrUnknownToken is returned when no pending request has the token.
	ErrUnknownToken = errors.New("eventbridge: no pending request with that token")
	// ErrInboxFull is returned when the demo has not drained its inbox.
	ErrInboxFull = errors.New("eventbridge: demo inbox is full")
	// ErrInvalidPayload is returned when an answer is not a JSON value.
	ErrInvalidPayload = errors.New("eventbridge: payload must be a JSON value")
	// ErrEmptyAction is returned by Act for a blank action.
	ErrEmptyAction = errors.New("eventbridge: action is required")
)

// Logger records bridge activity. It matches logging.Logger's signature.
type Logger interface {
	Printf(format string, args ...any)
}

// Pending describes one request waiting for an outside answer.
type Pending struct {
	Token  saga.Token `json:"token"`
	Demo   string     `json:"demo"`
	Prompt string     `json:"prompt"`
	Since  time.Time  `json:"since"`
}

// RequestedMsg is emitted when a saga registers a request with the bridge.
type RequestedMsg struct {
	Pending Pending
}

// ActionMsg carries an action an outside system sent to a demo.
type ActionMsg struct {
	Demo   string
	Action string
}

// Subscription is the running demo's inbox. Messages yields ActionMsg and
// saga.Response values until the subscription is closed.
type Subscription struct {
	Demo     string
	Messages <-chan tea.Msg
	cancel   func()
}

// Close ends the subscription, closes Messages and drops the demo's pending
// requests.
func (s Subscription) Close() {
	if s.cancel != nil {
		s.cancel()
	}
}

type call struct {
	Pending
	tag saga.Tagger[json.RawMessage]
}

// Bridge tracks running demos and their pending requests.
type Bridge struct {
	mu       sync.Mutex
	inboxes  map[string]chan tea.Msg
	pending  map[saga.Token]call
	capacity int
	logger   Logger
	clock    func() time.Time
}

// Option customizes Bridge construction.
type Option func(*Bridge)

// WithLogger overrides the default no-op logger.
func WithLogger(l Logger) Option {
	return func(b *Bridge) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithCapacity sets how many undelivered messages a demo's inbox holds.
func WithCapacity(n int) Option {
	return func(b *Bridge) {
		if n > 0 {
			b.capacity = n
		}
	}
}

// WithClock allows tests to control timestamps.
func WithClock(clock func() time.Time) Option {
	return func(b *Bridge) {
		if clock != nil {
			b.clock = clock
		}
	}
}

// New constructs an empty bridge.
func New(opts ...Option) *Bridge {
	b := &Bridge{
		inboxes:  map[string]chan tea.Msg{},
		pending:  map[saga.Token]call{},
		capacity: defaultInboxCapacity,
		logger:   nopLogger{},
		clock:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

// Subscribe opens demo's inbox. A second subscription for the same demo
// replaces the first.
func (b *Bridge) Subscribe(demo string) Subscription {
	demo = normalizeDemo(demo)
	ch := make(chan tea.Msg, b.capacity)
	b.mu.Lock()
	if old, ok := b.inboxes[demo]; ok {
		b.closeLocked(demo, old)
	}
	b.inboxes[demo] = ch
	b.mu.Unlock()

	var once sync.Once
	return Subscription{
		Demo:     demo,
		Messages: ch,
		cancel: func() {
			once.Do(func() {
				b.mu.Lock()
				defer b.mu.Unlock()
				if b.inboxes[demo] == ch {
					b.closeLocked(demo, ch)
				}
			})
		},
	}
}

func (b *Bridge) closeLocked(demo string, ch chan tea.Msg) {
	delete(b.inboxes, demo)
	close(ch)
	for token, c := range b.pending {
		if c.Demo == demo {
			delete(b.pending, token)
		}
	}
}

// Request registers a pending request for demo under tag's token and returns
// a command announcing it. Respond answers it.
func (b *Bridge) Request(demo, prompt string, tag saga.Tagger[json.RawMessage]) tea.Cmd {
	p := Pending{
		Token:  saga.TokenOf(tag),
		Demo:   normalizeDemo(demo),
		Prompt: prompt,
		Since:  b.clock().UTC(),
	}
	b.mu.Lock()
	b.pending[p.Token] = call{Pending: p, tag: tag}
	b.mu.Unlock()
	b.logger.Printf("eventbridge: %s awaits %s (%s)", p.Demo, p.Token, p.Prompt)
	return func() tea.Msg {
		return RequestedMsg{Pending: p}
	}
}

// Pending lists demo's open requests, oldest first.
func (b *Bridge) Pending(demo string) []Pending {
	demo = normalizeDemo(demo)
	b.mu.Lock()
	out := make([]Pending, 0, len(b.pending))
	for _, c := range b.pending {
		if c.Demo == demo {
			out = append(out, c.Pending)
		}
	}
	b.mu.Unlock()
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Since.Equal(out[j].Since) {
			return out[i].Since.Before(out[j].Since)
		}
		return out[i].Token < out[j].Token
	})
	return out
}

// Demos lists the demos with an open subscription.
func (b *Bridge) Demos() []string {
	b.mu.Lock()
	out := make([]string, 0, len(b.inboxes))
	for demo := range b.inboxes {
		out = append(out, demo)
	}
	b.mu.Unlock()
	sort.Strings(out)
	return out
}

// Respond delivers payload to the request registered under token. The demo
// receives it as the saga.Response its call is waiting for.
func (b *Bridge) Respond(demo string, token saga.Token, payload json.RawMessage) error {
	if len(bytes.TrimSpace(payload)) == 0 || !json.Valid(payload) {
		return ErrInvalidPayload
	}
	demo = normalizeDemo(demo)
	b.mu.Lock()
	defer b.mu.Unlock()
	c, ok := b.pending[token]
	if !ok || c.Demo != demo {
		return ErrUnknownToken
	}
	ch, ok := b.inboxes[demo]
	if !ok {
		return ErrNotRunning
	}
	select {
	case ch <- c.tag(append(json.RawMessage(nil), payload...)):
	default:
		return ErrInboxFull
	}
	delete(b.pending, token)
	b.logger.Printf("eventbridge: answered %s for %s", token, demo)
	return nil
}

// Act sends action to demo's saga.
func (b *Bridge) Act(demo, action string) error {
	action = strings.TrimSpace(action)
	if action == "" {
		return ErrEmptyAction
	}
	demo = normalizeDemo(demo)
	b.mu.Lock()
	defer b.mu.Unlock()
	ch, ok := b.inboxes[demo]
	if !ok {
		return ErrNotRunning
	}
	select {
	case ch <- ActionMsg{Demo: demo, Action: action}:
	default:
		return ErrInboxFull
	}
	return nil
}

// PendingCount returns the number of open requests across every demo.
func (b *Bridge) PendingCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}

func normalizeDemo(demo string) string {
	return strings.TrimSpace(strings.ToLower(demo))
}

type nopLogger struct{}

func (nopLogger) Printf(string, ...any) {}
