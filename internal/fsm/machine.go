package fsm

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidTransition marks an event fired from a state where it is not legal.
var ErrInvalidTransition = errors.New("invalid state transition")

// ErrInvalidTable marks a transition table that fails construction checks.
var ErrInvalidTable = errors.New("invalid transition table")

// State names one experience phase.
type State string

// Event names a trigger in the transition table.
type Event string

// Transition is one row of the table.
type Transition struct {
	Event Event
	From  State
	To    State
}

// TransitionError reports a rejected event.
type TransitionError struct {
	Event Event
	From  State
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: event %q not allowed from state %q", ErrInvalidTransition, e.Event, e.From)
}

// Unwrap exposes ErrInvalidTransition to errors.Is.
func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// Hook runs when a state is entered.
type Hook func(Transition)

// Machine is a validated finite-state machine.
type Machine struct {
	current State
	states  map[State]struct{}
	table   map[Event]Transition
	enter   map[State][]Hook

	observers []func(Transition)
	rejects   []func(error)

	firing  bool
	pending []Event
}

// New validates transitions against states and returns a machine in initial.
func New(initial State, states []State, transitions []Transition) (*Machine, error) {
	m := &Machine{
		current: initial,
		states:  make(map[State]struct{}, len(states)),
		table:   make(map[Event]Transition, len(transitions)),
		enter:   make(map[State][]Hook),
	}

	for _, s := range states {
		if strings.TrimSpace(string(s)) == "" {
			return nil, fmt.Errorf("%w: empty state name", ErrInvalidTable)
		}
		if _, dup := m.states[s]; dup {
			return nil, fmt.Errorf("%w: duplicate state %q", ErrInvalidTable, s)
		}
		m.states[s] = struct{}{}
	}
	if _, ok := m.states[initial]; !ok {
		return nil, fmt.Errorf("%w: initial state %q not declared", ErrInvalidTable, initial)
	}

	for _, tr := range transitions {
		if strings.TrimSpace(string(tr.Event)) == "" {
			return nil, fmt.Errorf("%w: empty event name", ErrInvalidTable)
		}
		if _, ok := m.states[tr.From]; !ok {
			return nil, fmt.Errorf("%w: event %q leaves undeclared state %q", ErrInvalidTable, tr.Event, tr.From)
		}
		if _, ok := m.states[tr.To]; !ok {
			return nil, fmt.Errorf("%w: event %q enters undeclared state %q", ErrInvalidTable, tr.Event, tr.To)
		}
		if prev, dup := m.table[tr.Event]; dup {
			return nil, fmt.Errorf("%w: event %q legal from both %q and %q", ErrInvalidTable, tr.Event, prev.From, tr.From)
		}
		m.table[tr.Event] = tr
	}

	if unreachable := m.unreachable(); len(unreachable) > 0 {
		return nil, fmt.Errorf("%w: unreachable states %v", ErrInvalidTable, unreachable)
	}
	return m, nil
}

func (m *Machine) unreachable() []State {
	seen := map[State]bool{m.current: true}
	frontier := []State{m.current}
	for len(frontier) > 0 {
		from := frontier[0]
		frontier = frontier[1:]
		for _, tr := range m.table {
			if tr.From == from && !seen[tr.To] {
				seen[tr.To] = true
				frontier = append(frontier, tr.To)
			}
		}
	}
	var missing []State
	for s := range m.states {
		if !seen[s] {
			missing = append(missing, s)
		}
	}
	return missing
}

// Current returns the active state.
func (m *Machine) Current() State {
	return m.current
}

// Is reports whether the machine is in s.
func (m *Machine) Is(s State) bool {
	return m.current == s
}

// Can reports whether ev is legal from the current state.
func (m *Machine) Can(ev Event) bool {
	tr, ok := m.table[ev]
	return ok && tr.From == m.current
}

// OnEnter registers a hook run synchronously whenever s is entered.
func (m *Machine) OnEnter(s State, hook Hook) {
	if hook == nil {
		return
	}
	m.enter[s] = append(m.enter[s], hook)
}

// OnTransition registers an observer called after every accepted transition,
// before enter hooks run.
func (m *Machine) OnTransition(fn func(Transition)) {
	if fn != nil {
		m.observers = append(m.observers, fn)
	}
}

// OnReject registers an observer for rejected events, including events that
// were queued from a hook and turned out to be illegal when processed.
func (m *Machine) OnReject(fn func(error)) {
	if fn != nil {
		m.rejects = append(m.rejects, fn)
	}
}

// Fire applies ev. When called from inside an enter hook the event is queued
// and nil is returned; its outcome is reported through OnReject if rejected.
func (m *Machine) Fire(ev Event) error {
	if m.firing {
		m.pending = append(m.pending, ev)
		return nil
	}

	err := m.apply(ev)
	for len(m.pending) > 0 {
		next := m.pending[0]
		m.pending = m.pending[1:]
		_ = m.apply(next) // rejections already reported
	}
	return err
}

func (m *Machine) apply(ev Event) error {
	tr, ok := m.table[ev]
	if !ok || tr.From != m.current {
		err := &TransitionError{Event: ev, From: m.current}
		m.reject(err)
		return err
	}

	m.firing = true
	defer func() { m.firing = false }()

	m.current = tr.To
	for _, obs := range m.observers {
		obs(tr)
	}
	for _, hook := range m.enter[tr.To] {
		hook(tr)
	}
	return nil
}

func (m *Machine) reject(err error) {
	for _, fn := range m.rejects {
		fn(err)
	}
}

// Transitions returns the table rows in no particular order.
func (m *Machine) Transitions() []Transition {
	out := make([]Transition, 0, len(m.table))
	for _, tr := range m.table {
		out = append(out, tr)
	}
	return out
}
