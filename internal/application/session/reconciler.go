package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-consult-auth/internal/domain"
)

// CredentialStore is the remote authority for one device. CurrentSession
// returns (nil, nil) when the device has no live session.
type CredentialStore interface {
	SignIn(ctx context.Context, email, password string) (*domain.RemoteSession, error)
	SignOut(ctx context.Context, token string) error
	CurrentSession(ctx context.Context) (*domain.RemoteSession, error)
}

type profileResolver interface {
	Resolve(ctx context.Context, identity domain.Identity, email string, hinted domain.AccountKind) (*domain.Profile, error)
}

type eventPublisher interface {
	Publish(ctx context.Context, e domain.AuthEvent)
}

type ReconcilerDeps struct {
	DeviceID    string
	Credentials CredentialStore
	Resolver    profileResolver
	Cache       *Cache
	Events      eventPublisher  // optional
	Base        context.Context // process lifetime; defaults to context.Background
	Now         func() time.Time
}

// Reconciler decides who is logged in on one device by combining the local
// cache, the credential store and the profile partitions. Operations run one
// at a time.
type Reconciler struct {
	mu       sync.Mutex
	deviceID string
	creds    CredentialStore
	resolver profileResolver
	cache    *Cache
	events   eventPublisher
	base     context.Context
	now      func() time.Time
	machine  *StateMachine
	token    string
}

func NewReconciler(deps ReconcilerDeps) *Reconciler {
	r := &Reconciler{
		deviceID: deps.DeviceID,
		creds:    deps.Credentials,
		resolver: deps.Resolver,
		cache:    deps.Cache,
		events:   deps.Events,
		base:     deps.Base,
		now:      deps.Now,
		machine:  NewStateMachine(),
	}
	if r.base == nil {
		r.base = context.Background()
	}
	if r.now == nil {
		r.now = time.Now
	}
	return r
}

// detach drops the caller's cancellation so a client hanging up cannot leave
// the device half-authenticated; shutdown of the process still cancels.
func (r *Reconciler) detach(ctx context.Context) (context.Context, context.CancelFunc) {
	dctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	if r.base.Err() != nil {
		cancel()
	}
	stop := context.AfterFunc(r.base, cancel)
	return dctx, func() {
		stop()
		cancel()
	}
}

// Bootstrap restores the device session, from the cache when it is fresh and
// otherwise from the credential store.
func (r *Reconciler) Bootstrap(ctx context.Context) (Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ctx, done := r.detach(ctx)
	defer done()
	return r.bootstrap(ctx)
}

func (r *Reconciler) bootstrap(ctx context.Context) (Snapshot, error) {
	if err := r.machine.Begin(); err != nil {
		return r.machine.Snapshot(), err
	}

	cached, ok := r.cache.ReadStale(ctx)
	if ok && r.cache.Fresh(cached) {
		_ = r.machine.Authenticate(cached, false)
		r.publish(ctx, domain.EventBootstrapCache, cached, "")
		return r.machine.Snapshot(), nil
	}
	var stale *domain.SessionRecord
	if ok {
		stale = cached
		if err := r.cache.Clear(ctx); err != nil {
			slog.Warn("failed to clear expired session cache", "device_id", r.deviceID, "err", err)
		}
	}

	remote, err := r.creds.CurrentSession(ctx)
	if err != nil {
		_ = r.machine.Fail(err)
		return r.machine.Snapshot(), err
	}
	if remote == nil {
		_ = r.machine.Deny(nil)
		return r.machine.Snapshot(), nil
	}
	r.token = remote.Token

	hint := domain.AccountKindEndUser
	if stale != nil && stale.AccountKind.Valid() {
		hint = stale.AccountKind
	}
	p, err := r.resolver.Resolve(ctx, remote.Identity(), remote.Email, hint)
	switch {
	case errors.Is(err, domain.ErrProfileNotFound):
		_ = r.machine.Deny(err)
		return r.machine.Snapshot(), nil
	case err != nil:
		if stale != nil && stale.Identity.ID == remote.IdentityID {
			slog.Warn("bootstrap using stale session cache", "device_id", r.deviceID,
				"identity_id", remote.IdentityID, "issued_at", stale.IssuedAt, "err", err)
			_ = r.machine.Authenticate(stale, true)
			r.publish(ctx, domain.EventBootstrapStale, stale, err.Error())
			return r.machine.Snapshot(), nil
		}
		_ = r.machine.Fail(err)
		return r.machine.Snapshot(), err
	}

	rec := r.newRecord(remote.Identity(), p)
	degraded := r.writeThrough(ctx, rec)
	_ = r.machine.Authenticate(rec, degraded)
	r.publish(ctx, domain.EventBootstrapRemote, rec, "")
	return r.machine.Snapshot(), nil
}

// Login signs in against the credential store and resolves the profile,
// starting with the hinted partition.
func (r *Reconciler) Login(ctx context.Context, email, password string, hinted domain.AccountKind) (Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ctx, done := r.detach(ctx)
	defer done()

	if err := r.machine.Begin(); err != nil {
		return r.machine.Snapshot(), err
	}

	remote, err := r.creds.SignIn(ctx, email, password)
	if err != nil {
		if !errors.Is(err, domain.ErrInvalidCredentials) && !errors.Is(err, domain.ErrCredentialTransport) {
			err = fmt.Errorf("%w: %w", domain.ErrCredentialTransport, err)
		}
		_ = r.machine.Deny(err)
		r.publishEmail(ctx, domain.EventLoginFailed, email, err.Error())
		return r.machine.Snapshot(), err
	}
	r.token = remote.Token

	p, err := r.resolver.Resolve(ctx, remote.Identity(), email, hinted)
	if err != nil {
		r.signOut(ctx)
		if errors.Is(err, domain.ErrProfileNotFound) {
			_ = r.machine.Deny(err)
		} else {
			_ = r.machine.Fail(err)
		}
		r.publishEmail(ctx, domain.EventLoginFailed, email, err.Error())
		return r.machine.Snapshot(), err
	}

	rec := r.newRecord(remote.Identity(), p)
	degraded := r.writeThrough(ctx, rec)
	_ = r.machine.Authenticate(rec, degraded)
	r.publish(ctx, domain.EventLoginSucceeded, rec, "")
	return r.machine.Snapshot(), nil
}

// Logout clears local and remote state. Remote failures are logged only,
// so calling it twice is harmless.
func (r *Reconciler) Logout(ctx context.Context) (Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ctx, done := r.detach(ctx)
	defer done()

	prev := r.machine.Snapshot().Session
	if err := r.cache.Clear(ctx); err != nil {
		slog.Warn("failed to clear session cache on logout", "device_id", r.deviceID, "err", err)
	}
	r.signOut(ctx)
	r.machine.Reset(nil)
	r.publish(ctx, domain.EventLogout, prev, "")
	return r.machine.Snapshot(), nil
}

// RefreshProfile re-reads the profile of the current identity and keeps
// identity and account kind fixed. With nobody logged in it bootstraps.
func (r *Reconciler) RefreshProfile(ctx context.Context) (Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ctx, done := r.detach(ctx)
	defer done()

	snap := r.machine.Snapshot()
	if snap.State != domain.StateAuthenticated || snap.Session == nil {
		return r.bootstrap(ctx)
	}
	cur := snap.Session

	p, err := r.resolver.Resolve(ctx, cur.Identity, cur.Identity.Email, cur.AccountKind)
	if err != nil {
		return snap, err
	}
	if p.Kind != cur.AccountKind {
		return snap, fmt.Errorf("account kind changed from %s to %s: %w", cur.AccountKind, p.Kind, domain.ErrConflict)
	}

	next := *cur
	next.Profile = p
	if snap.Degraded {
		next.IssuedAt = r.now().UTC()
	}
	r.writeThrough(ctx, &next)
	_ = r.machine.Replace(&next)
	r.publish(ctx, domain.EventProfileRefreshed, &next, "")
	return r.machine.Snapshot(), nil
}

func (r *Reconciler) CurrentState() Snapshot {
	return r.machine.Snapshot()
}

func (r *Reconciler) newRecord(identity domain.Identity, p *domain.Profile) *domain.SessionRecord {
	return &domain.SessionRecord{
		Identity:    identity,
		Profile:     p,
		AccountKind: p.Kind,
		IssuedAt:    r.now().UTC(),
	}
}

// writeThrough reports true when the cache could not be updated.
func (r *Reconciler) writeThrough(ctx context.Context, rec *domain.SessionRecord) bool {
	if err := r.cache.Write(ctx, rec); err != nil {
		slog.Warn("session cache write failed", "device_id", r.deviceID, "identity_id", rec.Identity.ID, "err", err)
		return true
	}
	return false
}

func (r *Reconciler) signOut(ctx context.Context) {
	tok := r.token
	if tok == "" {
		if remote, err := r.creds.CurrentSession(ctx); err == nil && remote != nil {
			tok = remote.Token
		}
	}
	if err := r.creds.SignOut(ctx, tok); err != nil {
		slog.Warn("remote sign-out failed", "device_id", r.deviceID, "err", err)
	}
	r.token = ""
}

func (r *Reconciler) publish(ctx context.Context, t domain.AuthEventType, rec *domain.SessionRecord, detail string) {
	if r.events == nil {
		return
	}
	e := domain.AuthEvent{Type: t, DeviceID: r.deviceID, Detail: detail, At: r.now().UTC()}
	if rec != nil {
		e.IdentityID = rec.Identity.ID
		e.Email = rec.Identity.Email
		e.AccountKind = rec.AccountKind
	}
	r.events.Publish(ctx, e)
}

func (r *Reconciler) publishEmail(ctx context.Context, t domain.AuthEventType, email, detail string) {
	if r.events == nil {
		return
	}
	r.events.Publish(ctx, domain.AuthEvent{Type: t, DeviceID: r.deviceID, Email: domain.NormalizeEmail(email), Detail: detail, At: r.now().UTC()})
}
