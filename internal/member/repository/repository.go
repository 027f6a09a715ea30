package repository

import (
	"context"

	"iesa-console/backend/internal/member/domain"
)

// Repository persists the whole member collection. Order is preserved.
type Repository interface {
	LoadAll(ctx context.Context) ([]*domain.Member, error)
	SaveAll(ctx context.Context, members []*domain.Member) error
}
