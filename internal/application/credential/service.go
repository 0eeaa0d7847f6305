package credential

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-consult-auth/internal/domain"
	jwtinfra "github.com/go-consult-auth/internal/infrastructure/jwt"
	pkgdevice "github.com/go-consult-auth/internal/pkg/device"
	"github.com/go-consult-auth/internal/pkg/id"
	"golang.org/x/crypto/bcrypt"
)

type credentialStore interface {
	Create(ctx context.Context, c *domain.Credential) error
	GetByEmail(ctx context.Context, email string) (*domain.Credential, error)
	Delete(ctx context.Context, identityID string) error
}

type sessionStore interface {
	Put(ctx context.Context, s *domain.RemoteSession) error
	Get(ctx context.Context, sessionID string) (*domain.RemoteSession, error)
	Disable(ctx context.Context, sessionID string) error
}

type tokenProvider interface {
	Sign(identityID, email, sessionID, deviceID string) (string, error)
	Verify(token string) (*jwtinfra.Claims, error)
	Expiry() time.Duration
}

// tokenSlots persists the bearer token per device so a restarted process can
// pick the remote session back up.
type tokenSlots interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

type AuthorityDeps struct {
	Credentials credentialStore
	Sessions    sessionStore
	Tokens      tokenProvider
	Slots       tokenSlots
	Now         func() time.Time // defaults to time.Now
}

// Authority is the credential store: it owns passwords and remote sessions.
type Authority struct {
	credentials credentialStore
	sessions    sessionStore
	tokens      tokenProvider
	slots       tokenSlots
	now         func() time.Time
}

func NewAuthority(deps AuthorityDeps) *Authority {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Authority{
		credentials: deps.Credentials,
		sessions:    deps.Sessions,
		tokens:      deps.Tokens,
		slots:       deps.Slots,
		now:         now,
	}
}

func transportErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", domain.ErrCredentialTransport, op, err)
}

// Register creates a password credential. An email that already has one is ErrConflict.
func (a *Authority) Register(ctx context.Context, email, password string) (domain.Identity, error) {
	email = domain.NormalizeEmail(email)
	_, err := a.credentials.GetByEmail(ctx, email)
	if err == nil {
		return domain.Identity{}, fmt.Errorf("email already registered: %w", domain.ErrConflict)
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return domain.Identity{}, transportErr("lookup credential", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return domain.Identity{}, err
	}
	now := a.now().UTC()
	c := &domain.Credential{
		IdentityID:   id.NewAt(now),
		Email:        email,
		PasswordHash: string(hash),
		Enable:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := a.credentials.Create(ctx, c); err != nil {
		return domain.Identity{}, err
	}
	return c.Identity(), nil
}

// Remove deletes a credential; used to roll back a signup whose profile write failed.
func (a *Authority) Remove(ctx context.Context, identityID string) error {
	return a.credentials.Delete(ctx, identityID)
}

// ForDevice returns a client whose sessions are bound to deviceID.
func (a *Authority) ForDevice(deviceID string) *Client {
	return &Client{a: a, deviceID: deviceID, slot: pkgdevice.TokenKey(deviceID)}
}

// Client is one device's view of the credential store.
type Client struct {
	a        *Authority
	deviceID string
	slot     string
}

// SignIn verifies the password and opens a remote session. Unknown email,
// disabled credential and wrong password all report ErrInvalidCredentials.
func (c *Client) SignIn(ctx context.Context, email, password string) (*domain.RemoteSession, error) {
	cred, err := c.a.credentials.GetByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, transportErr("lookup credential", err)
	}
	if !cred.Enable {
		return nil, domain.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	now := c.a.now().UTC()
	sess := &domain.RemoteSession{
		SessionID:  id.NewAt(now),
		IdentityID: cred.IdentityID,
		Email:      cred.Email,
		DeviceID:   c.deviceID,
		Enable:     true,
		ExpiresAt:  now.Add(c.a.tokens.Expiry()).Unix(),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := c.a.sessions.Put(ctx, sess); err != nil {
		return nil, transportErr("create session", err)
	}
	tok, err := c.a.tokens.Sign(sess.IdentityID, sess.Email, sess.SessionID, c.deviceID)
	if err != nil {
		return nil, err
	}
	if err := c.a.slots.Set(ctx, c.slot, []byte(tok)); err != nil {
		slog.Warn("failed to persist session token", "device_id", c.deviceID, "err", err)
	}
	sess.Token = tok
	return sess, nil
}

// SignOut disables the session behind token and forgets the stored token.
// An unparseable token only clears the slot.
func (c *Client) SignOut(ctx context.Context, token string) error {
	var disableErr error
	if token != "" {
		if claims, err := c.a.tokens.Verify(token); err == nil {
			if err := c.a.sessions.Disable(ctx, claims.SessionID); err != nil && !errors.Is(err, domain.ErrNotFound) {
				disableErr = transportErr("disable session", err)
			}
		}
	}
	if err := c.a.slots.Delete(ctx, c.slot); err != nil {
		slog.Warn("failed to clear session token", "device_id", c.deviceID, "err", err)
	}
	return disableErr
}

// CurrentSession returns the live remote session for this device, or nil when
// there is none. Tokens that fail verification, belong to another device or
// point at a disabled session are discarded.
func (c *Client) CurrentSession(ctx context.Context) (*domain.RemoteSession, error) {
	raw, err := c.a.slots.Get(ctx, c.slot)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, transportErr("read session token", err)
	}
	tok := string(raw)
	claims, err := c.a.tokens.Verify(tok)
	if err != nil || claims.DeviceID != c.deviceID {
		c.discard(ctx)
		return nil, nil
	}
	sess, err := c.a.sessions.Get(ctx, claims.SessionID)
	if errors.Is(err, domain.ErrNotFound) {
		c.discard(ctx)
		return nil, nil
	}
	if err != nil {
		return nil, transportErr("load session", err)
	}
	if !sess.Enable {
		c.discard(ctx)
		return nil, nil
	}
	sess.Token = tok
	return sess, nil
}

func (c *Client) discard(ctx context.Context) {
	if err := c.a.slots.Delete(ctx, c.slot); err != nil {
		slog.Warn("failed to discard session token", "device_id", c.deviceID, "err", err)
	}
}
