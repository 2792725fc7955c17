package saga

import "errors"

var (
	errNoInit = errors.New("saga: program has no init function")
	errNoSaga = errors.New("saga: program has no saga")
)

// Program binds an init function to a top-level saga. It is the init half of
// the host boundary; the Driver it returns is the update half.
type Program[I, S, E any] struct {
	Init    func(I) S
	Saga    Saga[S, E]
	Options []Option
}

// Start builds the initial state from input, runs the saga up to its first
// Take and returns the driver the host must keep for every later Update.
func (p Program[I, S, E]) Start(input I, opts ...Option) (*Driver[S, E], Step[S], error) {
	if p.Init == nil {
		return nil, Step[S]{}, errNoInit
	}
	if p.Saga == nil {
		return nil, Step[S]{}, errNoSaga
	}
	all := append(append([]Option(nil), p.Options...), opts...)
	driver := NewDriver(p.Init(input), p.Saga, all...)
	step, err := driver.Start()
	return driver, step, err
}
