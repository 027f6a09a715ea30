package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"iesa-console/backend/internal/kvstore"
	"iesa-console/backend/internal/session/domain"
)

// KVRepository saves the session as a JSON object under kvstore.KeySession.
type KVRepository struct {
	store kvstore.Store
}

// NewKVRepository returns a Repository backed by store.
func NewKVRepository(store kvstore.Store) *KVRepository {
	return &KVRepository{store: store}
}

func (r *KVRepository) Get(ctx context.Context) (*domain.Session, error) {
	payload, ok, err := r.store.Load(ctx, kvstore.KeySession)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if !ok || len(payload) == 0 {
		return nil, nil
	}
	var s domain.Session
	if err := json.Unmarshal(payload, &s); err != nil {
		// unreadable session is treated as logged out
		return nil, nil
	}
	if s.Token == "" {
		return nil, nil
	}
	return &s, nil
}

func (r *KVRepository) Save(ctx context.Context, s *domain.Session) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := r.store.Save(ctx, kvstore.KeySession, payload); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (r *KVRepository) Clear(ctx context.Context) error {
	if err := r.store.Delete(ctx, kvstore.KeySession); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
