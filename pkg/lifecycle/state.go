package lifecycle

// State describes where the controller is in the process lifecycle.
// Transitions are strictly forward; StateStopped is terminal.
type State int32

const (
	// StateUninitialized is the initial state before Load has run.
	StateUninitialized State = iota

	// StateLoading covers the ordered initialization steps of Load.
	StateLoading

	// StateRunning means Start completed and the process is serving.
	StateRunning

	// StateShuttingDown means Shutdown has begun its cleanup sequence.
	StateShuttingDown

	// StateStopped is the terminal state; there is no restart path.
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLoading:
		return "loading"
	case StateRunning:
		return "running"
	case StateShuttingDown:
		return "shutting down"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}
