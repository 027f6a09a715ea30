package repository

import (
	"context"

	"iesa-console/backend/internal/session/domain"
)

// Repository defines persistence for the single active console session.
type Repository interface {
	// Get returns the saved session, or nil when none is saved.
	Get(ctx context.Context) (*domain.Session, error)
	Save(ctx context.Context, s *domain.Session) error
	Clear(ctx context.Context) error
}
