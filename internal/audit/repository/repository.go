package repository

import (
	"context"

	"iesa-console/backend/internal/audit/domain"
)

// Repository defines persistence for audit logs.
type Repository interface {
	Create(ctx context.Context, a *domain.AuditLog) error
	// List returns entries newest first, at most limit (all when limit <= 0).
	List(ctx context.Context, limit int) ([]*domain.AuditLog, error)
}
