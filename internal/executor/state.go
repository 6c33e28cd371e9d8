package executor

// State is a step of the execution state machine.
type State int

const (
	StateIdle State = iota
	StateSelectingPhase
	StateRunningAutomated
	StateAwaitingManualGate
	StateAdvancing
	StateStopped
	StateFinished
)

// String returns the snake_case state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSelectingPhase:
		return "selecting_phase"
	case StateRunningAutomated:
		return "running_automated"
	case StateAwaitingManualGate:
		return "awaiting_manual_gate"
	case StateAdvancing:
		return "advancing"
	case StateStopped:
		return "stopped"
	case StateFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transitions follow s.
func (s State) Terminal() bool {
	return s == StateStopped || s == StateFinished
}
