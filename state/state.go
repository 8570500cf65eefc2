// state/state.go
package state

import (
	"errors"
	"sync"
)

// Phase 表示房间的业务阶段
type Phase string

const (
	PhaseWaiting Phase = "waiting" // 等待玩家加入
	PhaseBetting Phase = "betting" // 下注阶段
	PhaseRolling Phase = "rolling" // 骰子转动中，下注冻结
)

// ErrTransitionNotAllowed is returned when a phase transition is not allowed.
var ErrTransitionNotAllowed = errors.New("phase transition not allowed")

// Machine guards a room's phase against illegal transitions. A transition is
// legal only if it appears in the allowed table; self-transitions are always
// rejected so a consumed edge (rolling→betting at settlement) cannot be
// taken twice against the same wager set.
type Machine struct {
	current Phase
	allowed map[Phase]map[Phase]bool
	mutex   sync.RWMutex
}

// NewMachine creates a phase machine with the room's transition table.
func NewMachine(initial Phase) *Machine {
	return &Machine{
		current: initial,
		allowed: map[Phase]map[Phase]bool{
			PhaseWaiting: {PhaseBetting: true},
			PhaseBetting: {PhaseRolling: true, PhaseWaiting: true},
			PhaseRolling: {PhaseBetting: true, PhaseWaiting: true},
		},
	}
}

// Current returns the machine's phase.
func (m *Machine) Current() Phase {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.current
}

// Is reports whether the machine is in the given phase.
func (m *Machine) Is(p Phase) bool {
	return m.Current() == p
}

// Transition moves the machine to the target phase, or fails with
// ErrTransitionNotAllowed leaving the phase unchanged.
func (m *Machine) Transition(to Phase) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if targets, exists := m.allowed[m.current]; !exists || !targets[to] {
		return ErrTransitionNotAllowed
	}
	m.current = to
	return nil
}
