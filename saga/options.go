package saga

import (
	"strconv"

	"github.com/google/uuid"
)

// Token correlates an effect issued by ResumeAfterCmd with its response.
type Token string

// TokenSource mints tokens. A driver and its parallel children share one
// source; tokens must not repeat within it.
type TokenSource interface {
	NewToken() Token
}

type uuidTokens struct{}

func (uuidTokens) NewToken() Token {
	return Token(uuid.NewString())
}

// SequentialTokens mints prefix-1, prefix-2, ... Useful for deterministic
// tests; not safe for concurrent use.
type SequentialTokens struct {
	Prefix string
	next   uint64
}

// NewToken implements TokenSource.
func (s *SequentialTokens) NewToken() Token {
	s.next++
	return Token(s.Prefix + "-" + strconv.FormatUint(s.next, 10))
}

const defaultDriverName = "main"

// Option customizes a Driver.
type Option func(*options)

type options struct {
	name     string
	observer Observer
	tokens   TokenSource
}

func buildOptions(opts []Option) options {
	o := options{
		name:     defaultDriverName,
		observer: NopObserver{},
		tokens:   uuidTokens{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// WithName labels the driver in observer callbacks.
func WithName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.name = name
		}
	}
}

// WithObserver installs an observer. Repeated options are combined.
func WithObserver(observer Observer) Option {
	return func(o *options) {
		if observer != nil {
			o.observer = Observers(o.observer, observer)
		}
	}
}

// WithTokenSource replaces the default uuid token source.
func WithTokenSource(tokens TokenSource) Option {
	return func(o *options) {
		if tokens != nil {
			o.tokens = tokens
		}
	}
}
