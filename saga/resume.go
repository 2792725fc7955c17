package saga

import (
	"fmt"
	"reflect"

	tea "github.com/charmbracelet/bubbletea"
)

// Response is the event an effect dispatches to wake up a ResumeAfterCmd
// call. Build it with the Tagger the call handed out rather than by hand.
type Response struct {
	Token   Token
	Payload any
}

// Tagger wraps a payload together with the caller's token into a message the
// host loop can dispatch.
type Tagger[R any] func(payload R) tea.Msg

// ResumeAfterCmd issues the effect returned by build and suspends until the
// host delivers a Response carrying this call's token, then returns its
// payload. Responses for other calls are discarded like any non-matching
// event; if the response never arrives the saga stays suspended.
//
// The saga's event type must be able to hold a Response, as tea.Msg can.
func ResumeAfterCmd[R, S, E any](c *Context[S, E], build func(tag Tagger[R]) tea.Cmd) R {
	if _, ok := any(Response{}).(E); !ok {
		panic(fmt.Errorf("%w: %s", ErrResponseNotEvent, reflect.TypeFor[E]()))
	}
	token := c.driver.tokens.NewToken()
	tag := func(payload R) tea.Msg {
		return Response{Token: token, Payload: payload}
	}
	c.Put(c.GetState(), build(tag))

	update := c.Take(func(event E) bool {
		resp, ok := any(event).(Response)
		return ok && resp.Token == token
	})
	resp := any(update.Event).(Response)
	if resp.Payload == nil {
		var zero R
		return zero
	}
	payload, ok := resp.Payload.(R)
	if !ok {
		panic(fmt.Errorf("%w: want %s, got %T", ErrPayloadType, reflect.TypeFor[R](), resp.Payload))
	}
	return payload
}

// TokenOf returns the token tag stamps on its responses. Hosts that hand a
// Tagger to an outside system use it to index the pending call.
func TokenOf[R any](tag Tagger[R]) Token {
	if tag == nil {
		return ""
	}
	var zero R
	resp, _ := tag(zero).(Response)
	return resp.Token
}
