package session

import (
	"fmt"
	"sync"

	"github.com/go-consult-auth/internal/domain"
)

var transitions = map[domain.AuthState][]domain.AuthState{
	domain.StateUnauthenticated: {domain.StateAuthenticating},
	domain.StateAuthenticating:  {domain.StateAuthenticated, domain.StateUnauthenticated, domain.StateError},
	domain.StateAuthenticated:   {domain.StateUnauthenticated, domain.StateAuthenticating},
	domain.StateError:           {domain.StateUnauthenticated},
}

// Snapshot is a read-only view of a device's auth state.
type Snapshot struct {
	State     domain.AuthState      `json:"state"`
	Session   *domain.SessionRecord `json:"session,omitempty"`
	LastError error                 `json:"-"`
	Degraded  bool                  `json:"degraded"`
}

// StateMachine tracks the auth state of one device and rejects illegal moves.
type StateMachine struct {
	mu       sync.RWMutex
	state    domain.AuthState
	record   *domain.SessionRecord
	lastErr  error
	degraded bool
}

func NewStateMachine() *StateMachine {
	return &StateMachine{state: domain.StateUnauthenticated}
}

func (m *StateMachine) move(to domain.AuthState) error {
	for _, allowed := range transitions[m.state] {
		if allowed == to {
			m.state = to
			return nil
		}
	}
	return fmt.Errorf("illegal auth transition %s -> %s", m.state, to)
}

// Begin enters Authenticating. The current record stays visible until the
// operation settles.
func (m *StateMachine) Begin() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.move(domain.StateAuthenticating)
}

func (m *StateMachine) Authenticate(rec *domain.SessionRecord, degraded bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.move(domain.StateAuthenticated); err != nil {
		return err
	}
	m.record = rec
	m.lastErr = nil
	m.degraded = degraded
	return nil
}

// Fail passes through Error and lands in Unauthenticated, keeping err for
// the snapshot.
func (m *StateMachine) Fail(err error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != domain.StateError {
		if e := m.move(domain.StateError); e != nil {
			return e
		}
	}
	m.lastErr = err
	m.record = nil
	m.degraded = false
	return m.move(domain.StateUnauthenticated)
}

// Deny settles an operation in Unauthenticated, recording why (may be nil).
func (m *StateMachine) Deny(err error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.move(domain.StateUnauthenticated); err != nil {
		return err
	}
	m.record = nil
	m.lastErr = err
	m.degraded = false
	return nil
}

// Reset lands in Unauthenticated from any state, recording err (may be nil).
func (m *StateMachine) Reset(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = domain.StateUnauthenticated
	m.record = nil
	m.lastErr = err
	m.degraded = false
}

// Replace swaps the record while staying Authenticated. A replaced record is
// no longer degraded.
func (m *StateMachine) Replace(rec *domain.SessionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != domain.StateAuthenticated {
		return fmt.Errorf("cannot replace session in state %s", m.state)
	}
	m.record = rec
	m.degraded = false
	return nil
}

func (m *StateMachine) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Snapshot{State: m.state, Session: m.record, LastError: m.lastErr, Degraded: m.degraded}
}
