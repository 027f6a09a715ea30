package repository

import (
	"context"
	"fmt"
	"sync"

	"iesa-console/backend/internal/audit/domain"
	"iesa-console/backend/internal/kvstore"
)

// DefaultCap bounds the persisted audit log when no cap is configured.
const DefaultCap = 500

// KVRepository keeps the audit log as one JSON array under kvstore.KeyAuditLog, newest first,
// trimmed to cap entries.
type KVRepository struct {
	mu    sync.Mutex
	store kvstore.Store
	cap   int
}

// NewKVRepository returns a Repository backed by store. cap <= 0 uses DefaultCap.
func NewKVRepository(store kvstore.Store, cap int) *KVRepository {
	if cap <= 0 {
		cap = DefaultCap
	}
	return &KVRepository{store: store, cap: cap}
}

func (r *KVRepository) Create(ctx context.Context, a *domain.AuditLog) error {
	if a == nil {
		return fmt.Errorf("audit: nil entry")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	rows, err := kvstore.LoadJSON[*domain.AuditLog](ctx, r.store, kvstore.KeyAuditLog)
	if err != nil {
		return err
	}
	next := make([]*domain.AuditLog, 0, len(rows)+1)
	next = append(next, a)
	next = append(next, rows...)
	if len(next) > r.cap {
		next = next[:r.cap]
	}
	return kvstore.SaveJSON(ctx, r.store, kvstore.KeyAuditLog, next)
}

func (r *KVRepository) List(ctx context.Context, limit int) ([]*domain.AuditLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rows, err := kvstore.LoadJSON[*domain.AuditLog](ctx, r.store, kvstore.KeyAuditLog)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}
