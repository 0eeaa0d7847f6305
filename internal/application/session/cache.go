package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-consult-auth/internal/domain"
)

const envelopeVersion = 1

// BlobStore is a keyed byte store; a miss wraps domain.ErrNotFound.
type BlobStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

type envelope struct {
	Version int                   `json:"v"`
	Record  *domain.SessionRecord `json:"record"`
}

// Cache persists the single SessionRecord of one device. Records older than
// ttl read as absent and are removed on that read.
type Cache struct {
	store BlobStore
	key   string
	ttl   time.Duration
	now   func() time.Time
}

func NewCache(store BlobStore, key string, ttl time.Duration, now func() time.Time) *Cache {
	if now == nil {
		now = time.Now
	}
	return &Cache{store: store, key: key, ttl: ttl, now: now}
}

// Read returns the fresh record, if any. Store failures and undecodable
// blobs read as absent.
func (c *Cache) Read(ctx context.Context) (*domain.SessionRecord, bool) {
	rec, ok := c.ReadStale(ctx)
	if !ok {
		return nil, false
	}
	if !c.Fresh(rec) {
		c.evict(ctx, "expired")
		return nil, false
	}
	return rec, true
}

// ReadStale returns the stored record without applying the TTL and without
// evicting it.
func (c *Cache) ReadStale(ctx context.Context) (*domain.SessionRecord, bool) {
	raw, err := c.store.Get(ctx, c.key)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, false
	}
	if err != nil {
		slog.Warn("session cache read failed", "key", c.key, "err", err)
		return nil, false
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil || env.Version != envelopeVersion || env.Record == nil {
		slog.Warn("discarding unreadable session cache entry", "key", c.key, "err", err)
		c.evict(ctx, "unreadable")
		return nil, false
	}
	return env.Record, true
}

// Fresh reports whether rec is still within the TTL.
func (c *Cache) Fresh(rec *domain.SessionRecord) bool {
	return !rec.ExpiredAt(c.now(), c.ttl)
}

// Write replaces the stored record. IssuedAt never moves backwards for the
// same identity.
func (c *Cache) Write(ctx context.Context, rec *domain.SessionRecord) error {
	if rec.Profile != nil {
		if err := rec.Profile.Validate(); err != nil {
			return err
		}
	}
	out := *rec
	if prev, ok := c.ReadStale(ctx); ok && prev.Identity.ID == rec.Identity.ID && prev.IssuedAt.After(rec.IssuedAt) {
		out.IssuedAt = prev.IssuedAt
	}
	raw, err := json.Marshal(envelope{Version: envelopeVersion, Record: &out})
	if err != nil {
		return fmt.Errorf("encode session record: %w", err)
	}
	if err := c.store.Set(ctx, c.key, raw); err != nil {
		return fmt.Errorf("write session cache: %w", err)
	}
	return nil
}

func (c *Cache) Clear(ctx context.Context) error {
	if err := c.store.Delete(ctx, c.key); err != nil {
		return fmt.Errorf("clear session cache: %w", err)
	}
	return nil
}

func (c *Cache) evict(ctx context.Context, reason string) {
	if err := c.store.Delete(ctx, c.key); err != nil {
		slog.Warn("session cache eviction failed", "key", c.key, "reason", reason, "err", err)
	}
}
