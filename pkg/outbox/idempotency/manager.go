// Package idempotency marks work as done per consumer so at-least-once
// deliveries are applied at most once.
package idempotency

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Store is the slice of the Redis client the manager needs.
type Store interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
	IdempotencyKey(scope, id string) string
}

var (
	ErrConsumerRequired = errors.New("consumer name is required")
	ErrKeyRequired      = errors.New("idempotency key is required")
)

// Manager keys marks as sb:idempotency:processed:<consumer>:<key>. A mark
// expires after ttl; zero keeps it forever.
type Manager struct {
	store Store
	ttl   time.Duration
}

func NewManager(store Store, ttl time.Duration) (*Manager, error) {
	if store == nil {
		return nil, errors.New("idempotency store is required")
	}
	if ttl < 0 {
		return nil, errors.New("ttl must be non-negative")
	}
	return &Manager{store: store, ttl: ttl}, nil
}

// CheckAndMarkProcessed reports whether eventID was already marked for
// consumer, marking it when it was not.
func (m *Manager) CheckAndMarkProcessed(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error) {
	if eventID == uuid.Nil {
		return false, ErrKeyRequired
	}
	return m.CheckAndMarkKey(ctx, consumer, eventID.String())
}

// CheckAndMarkKey is CheckAndMarkProcessed for callers whose natural key is
// not an event ID, such as gateway callbacks.
func (m *Manager) CheckAndMarkKey(ctx context.Context, consumer, key string) (bool, error) {
	full, err := m.key(consumer, key)
	if err != nil {
		return false, err
	}
	fresh, err := m.store.SetNX(ctx, full, time.Now().UTC().Format(time.RFC3339), m.ttl)
	if err != nil {
		return false, err
	}
	return !fresh, nil
}

// Delete clears a mark after the work it guarded failed.
func (m *Manager) Delete(ctx context.Context, consumer, key string) error {
	full, err := m.key(consumer, key)
	if err != nil {
		return err
	}
	return m.store.Del(ctx, full)
}

func (m *Manager) key(consumer, key string) (string, error) {
	consumer, key = strings.TrimSpace(consumer), strings.TrimSpace(key)
	if consumer == "" {
		return "", ErrConsumerRequired
	}
	if key == "" {
		return "", ErrKeyRequired
	}
	return m.store.IdempotencyKey("processed:"+consumer, key), nil
}
