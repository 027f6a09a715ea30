// Package kvstore persists console collections as JSON payloads under string keys.
// Each collection (members, events, notifications, audit log, session) is saved
// independently after its own mutation; there are no multi-key transactions.
package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Keys used by the console collections.
const (
	KeyMembers       = "members"
	KeyEvents        = "events"
	KeyNotifications = "notifications"
	KeyAuditLog      = "audit_log"
	KeySession       = "session"
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("kvstore: closed")

// Store is the key/value persistence collaborator.
type Store interface {
	// Load returns the payload saved under key and true, or nil and false when absent.
	Load(ctx context.Context, key string) ([]byte, bool, error)
	// Save replaces the payload under key.
	Save(ctx context.Context, key string, payload []byte) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
	// Ping reports whether the backend is reachable (used by health checks).
	Ping(ctx context.Context) error
	// Close releases backend resources.
	Close() error
}

// LoadJSON decodes the JSON array stored under key. An absent key yields an empty slice.
func LoadJSON[T any](ctx context.Context, s Store, key string) ([]T, error) {
	payload, ok, err := s.Load(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", key, err)
	}
	if !ok || len(payload) == 0 {
		return []T{}, nil
	}
	var out []T
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

// SaveJSON encodes items as a JSON array and saves it under key.
func SaveJSON[T any](ctx context.Context, s Store, key string, items []T) error {
	if items == nil {
		items = []T{}
	}
	payload, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.Save(ctx, key, payload); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}
