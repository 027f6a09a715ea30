package repository

import (
	"context"

	"iesa-console/backend/internal/kvstore"
	"iesa-console/backend/internal/member/domain"
)

// KVRepository stores members as one JSON array under kvstore.KeyMembers.
type KVRepository struct {
	store kvstore.Store
}

// NewKVRepository returns a Repository backed by store.
func NewKVRepository(store kvstore.Store) *KVRepository {
	return &KVRepository{store: store}
}

// LoadAll returns the persisted members, or an empty slice when nothing was saved yet.
// Entries without an id are dropped.
func (r *KVRepository) LoadAll(ctx context.Context) ([]*domain.Member, error) {
	rows, err := kvstore.LoadJSON[*domain.Member](ctx, r.store, kvstore.KeyMembers)
	if err != nil {
		return nil, err
	}
	out := rows[:0]
	for _, m := range rows {
		if m != nil && m.ID != "" {
			out = append(out, m)
		}
	}
	return out, nil
}

// SaveAll replaces the persisted collection.
func (r *KVRepository) SaveAll(ctx context.Context, members []*domain.Member) error {
	return kvstore.SaveJSON(ctx, r.store, kvstore.KeyMembers, members)
}
