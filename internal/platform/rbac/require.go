package rbac

import (
	"context"
	"errors"

	identitydomain "iesa-console/backend/internal/identity/domain"
	memberdomain "iesa-console/backend/internal/member/domain"
)

var (
	// ErrUnauthenticated is returned when no session identity is present.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrForbidden is returned when the identity is not allowed to perform the action.
	ErrForbidden = errors.New("forbidden")
)

// RequireFeature returns nil when id may open feature, ErrUnauthenticated without an identity and
// ErrForbidden otherwise. Services that enforce access use it instead of re-implementing CanAccess.
func (e *Evaluator) RequireFeature(ctx context.Context, id *identitydomain.Identity, feature Feature) error {
	if id == nil {
		return ErrUnauthenticated
	}
	if !e.CanAccess(ctx, id, feature) {
		return ErrForbidden
	}
	return nil
}

// RequireModify is RequireFeature for record-level edit rights (see CanModify).
func (e *Evaluator) RequireModify(id *identitydomain.Identity, recordDepartment string) error {
	if id == nil {
		return ErrUnauthenticated
	}
	if !e.CanModify(id, recordDepartment) {
		return ErrForbidden
	}
	return nil
}

// RequireAssignRole is RequireFeature for role grants (see CanAssignRole).
func (e *Evaluator) RequireAssignRole(id *identitydomain.Identity, role memberdomain.Role) error {
	if id == nil {
		return ErrUnauthenticated
	}
	if !e.CanAssignRole(id, role) {
		return ErrForbidden
	}
	return nil
}
