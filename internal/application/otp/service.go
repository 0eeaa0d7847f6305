package otp

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/go-consult-auth/internal/domain"
	"github.com/go-consult-auth/internal/pkg/token"
)

const codeDigits = 6

type challengeStore interface {
	Put(ctx context.Context, c *domain.OTPChallenge) error
	Get(ctx context.Context, email string) (*domain.OTPChallenge, error)
	Delete(ctx context.Context, email string) error
	// DeleteIfMatch removes the challenge only if it is still the one that
	// was read (same code and issue time); otherwise it returns ErrNotFound.
	DeleteIfMatch(ctx context.Context, c *domain.OTPChallenge) error
}

// Notifier delivers a code to its owner. Implementations: SMTP and SNS.
type Notifier interface {
	SendChallenge(ctx context.Context, email, code string, purpose domain.ChallengePurpose) error
}

type eventPublisher interface {
	Publish(ctx context.Context, e domain.AuthEvent)
}

type Service interface {
	Issue(ctx context.Context, email string, purpose domain.ChallengePurpose) (*domain.OTPChallenge, error)
	Verify(ctx context.Context, email, code string) (domain.VerifyResult, error)
	Resend(ctx context.Context, email string, purpose domain.ChallengePurpose) (*domain.OTPChallenge, error)
	IsPending(ctx context.Context, email string) (bool, error)
	RemainingTime(ctx context.Context, email string) (time.Duration, error)
	// Wait blocks until every in-flight dispatch has finished.
	Wait()
}

type ServiceDeps struct {
	Store           challengeStore
	Notifier        Notifier
	Events          eventPublisher // optional
	TTL             time.Duration  // defaults to 5m
	DispatchTimeout time.Duration  // defaults to 30s
	Now             func() time.Time
	NewCode         func() (string, error)
}

type service struct {
	store           challengeStore
	notifier        Notifier
	events          eventPublisher
	ttl             time.Duration
	dispatchTimeout time.Duration
	now             func() time.Time
	newCode         func() (string, error)
	inflight        sync.WaitGroup
}

func NewService(deps ServiceDeps) Service {
	s := &service{
		store:           deps.Store,
		notifier:        deps.Notifier,
		events:          deps.Events,
		ttl:             deps.TTL,
		dispatchTimeout: deps.DispatchTimeout,
		now:             deps.Now,
		newCode:         deps.NewCode,
	}
	if s.ttl <= 0 {
		s.ttl = 5 * time.Minute
	}
	if s.dispatchTimeout <= 0 {
		s.dispatchTimeout = 30 * time.Second
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newCode == nil {
		s.newCode = func() (string, error) { return token.NewNumericCode(codeDigits) }
	}
	return s
}

// Issue stores a fresh code for email, replacing any live one whatever its
// purpose, and hands it to the notifier in the background. Delivery failure
// is logged and published; it never fails Issue.
func (s *service) Issue(ctx context.Context, email string, purpose domain.ChallengePurpose) (*domain.OTPChallenge, error) {
	email = domain.NormalizeEmail(email)
	code, err := s.newCode()
	if err != nil {
		return nil, err
	}
	now := s.now()
	c := &domain.OTPChallenge{
		Email:     email,
		Purpose:   purpose,
		Code:      code,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.store.Put(ctx, c); err != nil {
		return nil, fmt.Errorf("store challenge: %w", err)
	}
	s.publish(ctx, domain.EventChallengeIssued, email, string(purpose))
	s.dispatch(ctx, c)
	return c, nil
}

func (s *service) dispatch(ctx context.Context, c *domain.OTPChallenge) {
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.dispatchTimeout)
		defer cancel()
		if err := s.notifier.SendChallenge(dctx, c.Email, c.Code, c.Purpose); err != nil {
			slog.Warn("otp dispatch failed", "email", c.Email, "purpose", c.Purpose,
				"err", fmt.Errorf("%w: %w", domain.ErrDispatchFailed, err))
			s.publish(dctx, domain.EventChallengeDispatchFail, c.Email, err.Error())
		}
	}()
}

// Verify checks code against the live challenge. Expired and verified
// challenges are removed; a mismatch leaves the challenge in place. The
// discard is conditional on the challenge that was read, so a code that was
// superseded or already consumed in the meantime reports NotFound.
func (s *service) Verify(ctx context.Context, email, code string) (domain.VerifyResult, error) {
	email = domain.NormalizeEmail(email)
	c, err := s.store.Get(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.VerifyNotFound, nil
	}
	if err != nil {
		return domain.VerifyNotFound, fmt.Errorf("load challenge: %w", err)
	}
	if c.ExpiredAt(s.now()) {
		if err := s.store.DeleteIfMatch(ctx, c); err != nil && !errors.Is(err, domain.ErrNotFound) {
			slog.Warn("failed to discard expired challenge", "email", email, "err", err)
		}
		return domain.VerifyExpired, nil
	}
	if subtle.ConstantTimeCompare([]byte(c.Code), []byte(code)) != 1 {
		return domain.VerifyMismatch, nil
	}
	// A code that cannot be discarded must not be reported as verified, or it
	// could be used a second time.
	err = s.store.DeleteIfMatch(ctx, c)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.VerifyNotFound, nil
	}
	if err != nil {
		return domain.VerifyNotFound, fmt.Errorf("discard verified challenge: %w", err)
	}
	s.publish(ctx, domain.EventChallengeVerified, email, string(c.Purpose))
	return domain.VerifyVerified, nil
}

func (s *service) Resend(ctx context.Context, email string, purpose domain.ChallengePurpose) (*domain.OTPChallenge, error) {
	if err := s.store.Delete(ctx, domain.NormalizeEmail(email)); err != nil {
		return nil, fmt.Errorf("discard challenge: %w", err)
	}
	return s.Issue(ctx, email, purpose)
}

func (s *service) live(ctx context.Context, email string) (*domain.OTPChallenge, error) {
	c, err := s.store.Get(ctx, domain.NormalizeEmail(email))
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if c.ExpiredAt(s.now()) {
		return nil, nil
	}
	return c, nil
}

func (s *service) IsPending(ctx context.Context, email string) (bool, error) {
	c, err := s.live(ctx, email)
	return c != nil, err
}

// RemainingTime rounds up to whole seconds; zero when nothing is pending.
func (s *service) RemainingTime(ctx context.Context, email string) (time.Duration, error) {
	c, err := s.live(ctx, email)
	if err != nil || c == nil {
		return 0, err
	}
	secs := math.Ceil(c.ExpiresAt.Sub(s.now()).Seconds())
	return time.Duration(secs) * time.Second, nil
}

func (s *service) Wait() {
	s.inflight.Wait()
}

func (s *service) publish(ctx context.Context, t domain.AuthEventType, email, detail string) {
	if s.events == nil {
		return
	}
	s.events.Publish(ctx, domain.AuthEvent{Type: t, Email: email, Detail: detail, At: s.now().UTC()})
}
