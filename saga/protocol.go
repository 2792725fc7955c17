package saga

import tea "github.com/charmbracelet/bubbletea"

// requestKind tags what a suspended saga is waiting for. kindNone is the
// "resume with nothing" value that follows a step output.
type requestKind uint8

const (
	kindNone requestKind = iota
	kindTake
	kindGetState
)

func (k requestKind) String() string {
	switch k {
	case kindNone:
		return "none"
	case kindTake:
		return "take"
	case kindGetState:
		return "getState"
	default:
		return "unknown"
	}
}

// yielded is what a saga hands to its driver: either a suspension request or,
// when request is kindNone, a step output.
type yielded[S any] struct {
	request requestKind
	state   S
	cmds    []tea.Cmd
}

// resume is the value a driver answers a suspension with.
type resume[S, E any] struct {
	kind  requestKind
	event E
	state S
}

// stopSignal unwinds a saga body after its driver has been closed.
type stopSignal struct{}

// childFailure carries a parallel child's error up through the parent body.
type childFailure struct {
	index int
	err   error
}

// await validates that the driver resumed the saga with the kind it asked for.
func await[S, E any](want requestKind, got resume[S, E]) resume[S, E] {
	if got.kind != want {
		panic(&ProtocolViolation{Want: want.String(), Got: got.kind.String()})
	}
	return got
}
