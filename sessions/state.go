package sessions

import (
	"fmt"
)

// State is the per-session authentication state.
type State int

const (
	StateUnauthenticated State = iota
	StateAwaitingCode
	StateFresh
	StateStale
	StateDegraded
)

func (s State) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAwaitingCode:
		return "awaiting_code"
	case StateFresh:
		return "authenticated"
	case StateStale:
		return "authenticated_stale"
	case StateDegraded:
		return "degraded"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Authenticated reports whether entity reads may use the session.
func (s State) Authenticated() bool {
	return s == StateFresh || s == StateStale
}

var transitions = map[State][]State{
	StateUnauthenticated: {StateAwaitingCode, StateFresh},
	StateAwaitingCode:    {StateAwaitingCode, StateFresh, StateUnauthenticated},
	StateFresh:           {StateFresh, StateStale, StateAwaitingCode},
	StateStale:           {StateStale, StateFresh},
	StateDegraded:        {},
}

// TransitionError reports a move the state machine does not allow.
type TransitionError struct {
	From, To State
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid auth state transition %s -> %s", e.From, e.To)
}

func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.State
}

// Transition moves the session to state to. Degraded is reachable from any
// state. Leaving Degraded requires manual, i.e. a user-driven sign-in or
// sign-out.
func (s *Session) Transition(to State, manual bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	from := s.data.State
	if to == StateDegraded || allowed(from, to) || (manual && to != StateStale) {
		s.data.State = to
		return nil
	}
	return &TransitionError{From: from, To: to}
}

func allowed(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
