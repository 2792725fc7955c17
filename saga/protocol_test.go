package saga

import (
	"errors"
	"strings"
	"testing"
)

func TestAwaitRejectsMismatchedKind(t *testing.T) {
	defer func() {
		err, ok := recover().(error)
		if !ok {
			t.Fatalf("expected error panic")
		}
		var violation *ProtocolViolation
		if !errors.As(err, &violation) {
			t.Fatalf("expected *ProtocolViolation, got %T", err)
		}
		if violation.Want != "take" || violation.Got != "getState" {
			t.Fatalf("unexpected kinds: %+v", violation)
		}
		if !errors.Is(err, ErrProtocolViolation) {
			t.Fatalf("expected ErrProtocolViolation match")
		}
	}()
	await(kindTake, resume[int, string]{kind: kindGetState})
}

func TestDriverFailsOnMismatchedResume(t *testing.T) {
	d := NewDriver(0, func(c *Context[int, string]) {
		for {
			c.TakeAny()
		}
	})
	if _, err := d.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	_, err := d.run(resume[int, string]{kind: kindGetState})
	if !errors.Is(err, ErrProtocolViolation) {
		t.Fatalf("expected protocol violation, got %v", err)
	}
	var violation *ProtocolViolation
	if !errors.As(d.Err(), &violation) {
		t.Fatalf("expected the violation itself, got %T", d.Err())
	}
	var panicErr *PanicError
	if errors.As(err, &panicErr) {
		t.Fatalf("protocol violation must not be reported as a panic")
	}
	if strings.Contains(err.Error(), "goroutine") {
		t.Fatalf("expected no stack in error, got %q", err)
	}
	if violation.Want != "take" || violation.Got != "getState" {
		t.Fatalf("unexpected kinds: %+v", violation)
	}
	if d.status != statusFailed {
		t.Fatalf("expected failed status, got %d", d.status)
	}
}

func TestRequestKindString(t *testing.T) {
	cases := map[requestKind]string{
		kindNone:        "none",
		kindTake:        "take",
		kindGetState:    "getState",
		requestKind(99): "unknown",
	}
	for kind, want := range cases {
		if got := kind.String(); got != want {
			t.Fatalf("kind %d: expected %q, got %q", kind, want, got)
		}
	}
}
