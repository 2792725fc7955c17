package saga

// Info identifies the driver an observer callback refers to. Parallel
// children are named after their parent ("main/0", "main/1") and sit one
// level deeper.
type Info struct {
	Name  string
	Depth int
}

// Observer receives driver lifecycle notifications. Callbacks run on the
// driver's thread of control and must not call back into the driver.
type Observer interface {
	// Started fires when a driver begins running its saga.
	Started(info Info)
	// Flushed fires when a driver hands a host-visible step back to its
	// caller. steps counts the step outputs folded into it.
	Flushed(info Info, steps, effects int)
	// Discarded fires when Take drops an event that did not match.
	Discarded(info Info, event any)
	// Failed fires once, when a driver dies.
	Failed(info Info, err error)
}

// NopObserver ignores every notification. Embed it to implement a subset.
type NopObserver struct{}

func (NopObserver) Started(Info) {}
func (NopObserver) Flushed(Info, int, int) {}
func (NopObserver) Discarded(Info, any) {}
func (NopObserver) Failed(Info, error) {}

// Observers fans notifications out to every non-nil observer, in order.
func Observers(observers ...Observer) Observer {
	var live multiObserver
	for _, o := range observers {
		if _, nop := o.(NopObserver); o != nil && !nop {
			live = append(live, o)
		}
	}
	switch len(live) {
	case 0:
		return NopObserver{}
	case 1:
		return live[0]
	}
	return live
}

type multiObserver []Observer

func (m multiObserver) Started(info Info) {
	for _, o := range m {
		o.Started(info)
	}
}

func (m multiObserver) Flushed(info Info, steps, effects int) {
	for _, o := range m {
		o.Flushed(info, steps, effects)
	}
}

func (m multiObserver) Discarded(info Info, event any) {
	for _, o := range m {
		o.Discarded(info, event)
	}
}

func (m multiObserver) Failed(info Info, err error) {
	for _, o := range m {
		o.Failed(info, err)
	}
}
