package graph

import "testing"

func TestTransitionAllowed(t *testing.T) {
	st := ExecutionState{"a": StatePending}
	if err := Transition(st, "a", StatePending, StateRunning); err != nil {
		t.Fatalf("pending -> running: %v", err)
	}
	if err := Transition(st, "a", StateRunning, StateCompleted); err != nil {
		t.Fatalf("running -> completed: %v", err)
	}
	if st["a"] != StateCompleted {
		t.Errorf("state = %s", st["a"])
	}
}

func TestTransitionRejected(t *testing.T) {
	tests := []struct {
		name     string
		cur      State
		from, to State
	}{
		{"terminal is final", StateCompleted, StateCompleted, StateRunning},
		{"skip running", StatePending, StatePending, StateCompleted},
		{"fail from pending", StatePending, StatePending, StateFailed},
		{"stale expectation", StateRunning, StatePending, StateRunning},
		{"abandon while running", StateRunning, StateRunning, StateAbandoned},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := ExecutionState{"a": tt.cur}
			if err := Transition(st, "a", tt.from, tt.to); err == nil {
				t.Errorf("expected %s -> %s to be rejected", tt.from, tt.to)
			}
			if st["a"] != tt.cur {
				t.Errorf("state changed to %s on rejected transition", st["a"])
			}
		})
	}
}

func TestTransitionUnknownTask(t *testing.T) {
	if err := Transition(ExecutionState{}, "ghost", StatePending, StateRunning); err == nil {
		t.Error("expected error for unknown task")
	}
}

func TestStatePredicates(t *testing.T) {
	for _, s := range []State{StateCompleted, StateUpToDate, StateFailed, StateAbandoned} {
		if !IsTerminal(s) {
			t.Errorf("%s should be terminal", s)
		}
	}
	for _, s := range []State{StatePending, StateRunning} {
		if IsTerminal(s) {
			t.Errorf("%s should not be terminal", s)
		}
	}
	if !IsSuccessful(StateUpToDate) || !IsSuccessful(StateCompleted) {
		t.Error("completed and up-to-date satisfy dependents")
	}
	if IsSuccessful(StateFailed) || IsSuccessful(StateAbandoned) {
		t.Error("failed and abandoned do not satisfy dependents")
	}
}
