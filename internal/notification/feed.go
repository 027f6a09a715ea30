// Package notification keeps the console's notification feed: newest first, capped, persisted.
package notification

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"iesa-console/backend/internal/kvstore"
)

// Type classifies a notification.
type Type string

const (
	TypeInfo        Type = "INFO"
	TypeAlert       Type = "ALERT"
	TypeAchievement Type = "ACHIEVEMENT"
)

// DefaultLimit is the feed cap when none is configured.
const DefaultLimit = 50

// Notification is one feed item.
type Notification struct {
	ID      string    `json:"id"`
	Message string    `json:"message"`
	Date    time.Time `json:"date"`
	Author  string    `json:"author"`
	Type    Type      `json:"type"`
}

// Feed owns the notification list.
type Feed struct {
	mu    sync.Mutex
	store kvstore.Store
	items []Notification
	limit int
	now   func() time.Time
	log   zerolog.Logger
}

// NewFeed loads the persisted feed. limit <= 0 uses DefaultLimit.
func NewFeed(ctx context.Context, store kvstore.Store, limit int, log zerolog.Logger) (*Feed, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	items, err := kvstore.LoadJSON[Notification](ctx, store, kvstore.KeyNotifications)
	if err != nil {
		return nil, fmt.Errorf("notification: %w", err)
	}
	if len(items) > limit {
		items = items[:limit]
	}
	return &Feed{store: store, items: items, limit: limit, now: time.Now, log: log}, nil
}

// Add prepends a notification, drops items beyond the cap and persists the feed.
func (f *Feed) Add(ctx context.Context, message, author string, typ Type) (Notification, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return Notification{}, fmt.Errorf("notification: message is required")
	}
	if typ == "" {
		typ = TypeInfo
	}
	n := Notification{
		ID:      uuid.NewString(),
		Message: message,
		Date:    f.now().UTC(),
		Author:  author,
		Type:    typ,
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	next := make([]Notification, 0, min(len(f.items)+1, f.limit))
	next = append(next, n)
	next = append(next, f.items...)
	if len(next) > f.limit {
		next = next[:f.limit]
	}
	if err := kvstore.SaveJSON(ctx, f.store, kvstore.KeyNotifications, next); err != nil {
		return Notification{}, fmt.Errorf("notification: %w", err)
	}
	f.items = next
	return n, nil
}

// Notify adds an INFO notification. Best-effort: failures are logged.
func (f *Feed) Notify(ctx context.Context, message, author string) {
	if f == nil {
		return
	}
	if _, err := f.Add(ctx, message, author, TypeInfo); err != nil {
		f.log.Warn().Err(err).Msg("notification dropped")
	}
}

// List returns the feed, newest first.
func (f *Feed) List() []Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Notification, len(f.items))
	copy(out, f.items)
	return out
}
