package state

import (
	"testing"
)

func TestMachine_InitialPhase(t *testing.T) {
	m := NewMachine(PhaseWaiting)

	if m.Current() != PhaseWaiting {
		t.Errorf("Expected initial phase %s, got %s", PhaseWaiting, m.Current())
	}
	if !m.Is(PhaseWaiting) {
		t.Error("Is(waiting) should be true for a fresh machine")
	}
}

func TestMachine_AllowedTransitions(t *testing.T) {
	m := NewMachine(PhaseWaiting)

	steps := []Phase{PhaseBetting, PhaseRolling, PhaseBetting, PhaseWaiting}
	for _, next := range steps {
		if err := m.Transition(next); err != nil {
			t.Fatalf("Transition to %s should be allowed, got error: %v", next, err)
		}
		if m.Current() != next {
			t.Fatalf("Expected phase %s after transition, got %s", next, m.Current())
		}
	}
}

func TestMachine_BlockedTransitions(t *testing.T) {
	m := NewMachine(PhaseWaiting)

	// waiting → rolling skips the betting phase entirely
	if err := m.Transition(PhaseRolling); err != ErrTransitionNotAllowed {
		t.Errorf("Expected ErrTransitionNotAllowed for waiting→rolling, got: %v", err)
	}
	if m.Current() != PhaseWaiting {
		t.Errorf("Phase should remain waiting after a blocked transition, got %s", m.Current())
	}
}

func TestMachine_SettlementEdgeConsumedOnce(t *testing.T) {
	m := NewMachine(PhaseBetting)

	if err := m.Transition(PhaseRolling); err != nil {
		t.Fatalf("betting→rolling should be allowed: %v", err)
	}
	if err := m.Transition(PhaseBetting); err != nil {
		t.Fatalf("rolling→betting should be allowed: %v", err)
	}

	// A second settlement against the same wager set would need
	// betting→betting, which must be rejected.
	if err := m.Transition(PhaseBetting); err != ErrTransitionNotAllowed {
		t.Errorf("Expected ErrTransitionNotAllowed for repeated settlement, got: %v", err)
	}
}
