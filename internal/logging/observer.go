package logging

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/kingrea/teasaga/saga"
)

type sagaObserver struct {
	zlog zerolog.Logger
}

// Observer reports driver lifecycle events through l: starts, flushes and
// discarded events at debug level, failures at error level.
func Observer(l *Logger) saga.Observer {
	if l == nil {
		return saga.NopObserver{}
	}
	return sagaObserver{zlog: l.Component("saga").zlog}
}

func (o sagaObserver) Started(info saga.Info) {
	o.zlog.Debug().Str("saga", info.Name).Int("depth", info.Depth).Msg("saga started")
}

func (o sagaObserver) Flushed(info saga.Info, steps, effects int) {
	o.zlog.Debug().
		Str("saga", info.Name).
		Int("steps", steps).
		Int("effects", effects).
		Msg("step flushed")
}

func (o sagaObserver) Discarded(info saga.Info, event any) {
	o.zlog.Debug().
		Str("saga", info.Name).
		Str("event", fmt.Sprint(event)).
		Str("type", fmt.Sprintf("%T", event)).
		Msg("event discarded")
}

func (o sagaObserver) Failed(info saga.Info, err error) {
	o.zlog.Error().Str("saga", info.Name).Err(err).Msg("saga failed")
}
