package graph

import "fmt"

// State is the runtime state of a task within one execution.
type State string

const (
	StatePending   State = "pending"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateUpToDate  State = "up-to-date"
	StateFailed    State = "failed"
	StateAbandoned State = "abandoned"
)

// IsTerminal reports whether the state is final.
func IsTerminal(s State) bool {
	switch s {
	case StateCompleted, StateUpToDate, StateFailed, StateAbandoned:
		return true
	default:
		return false
	}
}

// IsSuccessful reports whether the state satisfies dependents.
func IsSuccessful(s State) bool {
	return s == StateCompleted || s == StateUpToDate
}

// ExecutionState maps task name to its current State.
type ExecutionState map[string]State

// Transition performs a validated transition for a single task.
// The caller supplies the expected prior state to make races observable.
func Transition(state ExecutionState, name string, from, to State) error {
	cur, ok := state[name]
	if !ok {
		return fmt.Errorf("unknown task in state: %q", name)
	}
	if cur != from {
		return fmt.Errorf("invalid transition for %q: expected %s, got %s", name, from, cur)
	}
	if !isAllowedTransition(from, to) {
		return fmt.Errorf("disallowed transition for %q: %s -> %s", name, from, to)
	}
	state[name] = to
	return nil
}

func isAllowedTransition(from, to State) bool {
	switch from {
	case StatePending:
		return to == StateRunning || to == StateUpToDate || to == StateAbandoned
	case StateRunning:
		return to == StateCompleted || to == StateFailed
	default:
		return false
	}
}
