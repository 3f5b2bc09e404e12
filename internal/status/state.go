package status

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/matheus3301/parley/internal/bus"
)

// State is the client's authentication state.
type State string

const (
	Resolving State = "RESOLVING"
	SignedOut State = "SIGNED_OUT"
	SignedIn  State = "SIGNED_IN"
)

// EventKind is the bus kind published on every transition.
const EventKind = "auth.state_changed"

// validTransitions defines allowed state transitions.
var validTransitions = map[State][]State{
	Resolving: {SignedOut, SignedIn},
	SignedOut: {SignedIn},
	SignedIn:  {SignedOut},
}

// Machine tracks and enforces auth state transitions.
type Machine struct {
	mu       sync.RWMutex
	current  State
	bus      *bus.Bus
	resolved chan struct{}
}

// NewMachine creates a new state machine starting in Resolving state.
func NewMachine(b *bus.Bus) *Machine {
	return &Machine{
		current:  Resolving,
		bus:      b,
		resolved: make(chan struct{}),
	}
}

// Current returns the current state.
func (m *Machine) Current() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Resolved is closed once the first transition out of Resolving has happened.
func (m *Machine) Resolved() <-chan struct{} {
	return m.resolved
}

// Wait blocks until the state is resolved and returns it.
func (m *Machine) Wait(ctx context.Context) (State, error) {
	select {
	case <-m.resolved:
		return m.Current(), nil
	case <-ctx.Done():
		return Resolving, ctx.Err()
	}
}

// Transition attempts to move to a new state. Returns error if transition is invalid.
func (m *Machine) Transition(to State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	allowed := validTransitions[m.current]
	if !slices.Contains(allowed, to) {
		return fmt.Errorf("invalid transition from %s to %s", m.current, to)
	}
	from := m.current
	m.current = to
	if from == Resolving {
		close(m.resolved)
	}
	if m.bus != nil {
		m.bus.Publish(bus.Event{
			Kind:      EventKind,
			Timestamp: time.Now(),
			Payload: StatusChange{
				From: from,
				To:   to,
			},
		})
	}
	return nil
}

// StatusChange is the payload for status change events.
type StatusChange struct {
	From State
	To   State
}
