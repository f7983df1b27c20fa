package chat

import (
	"sync"

	"github.com/google/uuid"
)

// State is the lifecycle position of a Session.
type State int

const (
	// StateConnecting covers the transport handshake before Connect. No
	// Session value exists yet in this phase; the websocket handler
	// authenticates the token and only then calls Connect.
	StateConnecting State = iota
	StateAuthenticated
	StateActive
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateAuthenticated:
		return "authenticated"
	case StateActive:
		return "active"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Identity is the verified caller attached to a session at connect time.
type Identity struct {
	UserID int64
}

// Session is one live connection. The user id never changes after Connect;
// the set of joined rooms lives in the gateway's Registry.
type Session struct {
	ID     string
	UserID int64

	mu    sync.Mutex
	state State
	send  chan Event
}

func newSession(id Identity, buffer int) *Session {
	return &Session{
		ID:     uuid.NewString(),
		UserID: id.UserID,
		state:  StateAuthenticated,
		send:   make(chan Event, buffer),
	}
}

// Events is drained by the transport's writer. It is closed on disconnect.
func (s *Session) Events() <-chan Event {
	return s.send
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) closed() bool {
	return s.State() == StateClosed
}

func (s *Session) activate() {
	s.mu.Lock()
	if s.state == StateAuthenticated {
		s.state = StateActive
	}
	s.mu.Unlock()
}

// deliver queues ev without blocking. It reports false when the session is
// closed or its queue is full.
func (s *Session) deliver(ev Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return false
	}
	select {
	case s.send <- ev:
		return true
	default:
		return false
	}
}

// close is idempotent and reports whether this call closed the session.
func (s *Session) close() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return false
	}
	s.state = StateClosed
	close(s.send)
	return true
}
