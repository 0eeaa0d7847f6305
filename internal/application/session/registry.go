package session

import (
	"context"
	"sync"

	"github.com/go-consult-auth/internal/domain"
)

// Registry hands out one Reconciler per device. A Reconciler is kept only
// while an operation is using it or while its device is not Unauthenticated,
// so unknown device ids cannot pile up.
type Registry struct {
	mu      sync.Mutex
	devices map[string]*entry
	factory func(deviceID string) *Reconciler
}

type entry struct {
	rec  *Reconciler
	refs int
}

func NewRegistry(factory func(deviceID string) *Reconciler) *Registry {
	return &Registry{devices: make(map[string]*entry), factory: factory}
}

// Get returns the scope of one device. It allocates nothing until an
// operation runs.
func (r *Registry) Get(deviceID string) Scope {
	return Scope{reg: r, deviceID: deviceID}
}

// Len is the number of devices currently held.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.devices)
}

func (r *Registry) acquire(deviceID string) *Reconciler {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.devices[deviceID]
	if !ok {
		e = &entry{rec: r.factory(deviceID)}
		r.devices[deviceID] = e
	}
	e.refs++
	return e.rec
}

func (r *Registry) release(deviceID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.devices[deviceID]
	if !ok {
		return
	}
	e.refs--
	if e.refs == 0 && e.rec.CurrentState().State == domain.StateUnauthenticated {
		delete(r.devices, deviceID)
	}
}

func (r *Registry) peek(deviceID string) (*Reconciler, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.devices[deviceID]
	if !ok {
		return nil, false
	}
	return e.rec, true
}

// Scope runs session operations for one device, pinning its Reconciler for
// the duration of each call.
type Scope struct {
	reg      *Registry
	deviceID string
}

func (s Scope) Bootstrap(ctx context.Context) (Snapshot, error) {
	defer s.reg.release(s.deviceID)
	return s.reg.acquire(s.deviceID).Bootstrap(ctx)
}

func (s Scope) Login(ctx context.Context, email, password string, hinted domain.AccountKind) (Snapshot, error) {
	defer s.reg.release(s.deviceID)
	return s.reg.acquire(s.deviceID).Login(ctx, email, password, hinted)
}

func (s Scope) Logout(ctx context.Context) (Snapshot, error) {
	defer s.reg.release(s.deviceID)
	return s.reg.acquire(s.deviceID).Logout(ctx)
}

func (s Scope) RefreshProfile(ctx context.Context) (Snapshot, error) {
	defer s.reg.release(s.deviceID)
	return s.reg.acquire(s.deviceID).RefreshProfile(ctx)
}

// CurrentState never creates a Reconciler; an unknown device reads as
// Unauthenticated.
func (s Scope) CurrentState() Snapshot {
	if rec, ok := s.reg.peek(s.deviceID); ok {
		return rec.CurrentState()
	}
	return Snapshot{State: domain.StateUnauthenticated}
}
