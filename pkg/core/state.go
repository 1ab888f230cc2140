package core

// State is the lifecycle state of a worker.
//
// Valid transitions:
//
//	Uninitialized -> Running
//	Running       -> Suspended, Cancelled
//	Suspended     -> Running, Cancelled
//	any           -> Disposed, Failed
//
// Disposed and Failed are terminal; a worker never leaves them.
// The numeric values are stable so the state can live in an atomic int32.
type State int32

const (
	Uninitialized State = iota
	Running
	Suspended
	Cancelled
	Disposed
	Failed
)

// Terminal reports whether no further transition out of s is allowed.
func (s State) Terminal() bool {
	return s == Disposed || s == Failed
}

// Active reports whether the worker's run goroutine may still process items.
func (s State) Active() bool {
	return s == Running || s == Suspended
}

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Running:
		return "running"
	case Suspended:
		return "suspended"
	case Cancelled:
		return "cancelled"
	case Disposed:
		return "disposed"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}
