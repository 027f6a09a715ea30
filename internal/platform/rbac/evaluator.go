package rbac

import (
	"context"

	identitydomain "iesa-console/backend/internal/identity/domain"
	memberdomain "iesa-console/backend/internal/member/domain"
	"iesa-console/backend/internal/telemetry"
)

// Gate decides the allow-list step of a feature check. Implementations never fail: on internal
// errors they fall back to a safe answer.
type Gate interface {
	Allow(ctx context.Context, role memberdomain.Role, feature Feature) bool
}

// StaticGate evaluates an AllowList in Go.
type StaticGate struct {
	List AllowList
}

// NewStaticGate returns a gate over the default allow-list.
func NewStaticGate() *StaticGate {
	return &StaticGate{List: DefaultAllowList()}
}

func (g *StaticGate) Allow(ctx context.Context, role memberdomain.Role, feature Feature) bool {
	return g.List.Allows(role, feature)
}

// Evaluator is the access control evaluator. It never returns an error: every question has a yes/no answer.
type Evaluator struct {
	gate    Gate
	metrics *telemetry.Metrics
}

// NewEvaluator returns an Evaluator using gate (StaticGate when nil). metrics may be nil.
func NewEvaluator(gate Gate, metrics *telemetry.Metrics) *Evaluator {
	if gate == nil {
		gate = NewStaticGate()
	}
	return &Evaluator{gate: gate, metrics: metrics}
}

// CanAccess reports whether id may open feature. No identity is always denied; super admin is always
// allowed, even for features whose list does not name it; everyone else goes through the gate.
func (e *Evaluator) CanAccess(ctx context.Context, id *identitydomain.Identity, feature Feature) bool {
	var allowed bool
	switch {
	case id == nil:
		allowed = false
	case id.IsSuperAdmin():
		allowed = true
	default:
		allowed = e.gate.Allow(ctx, id.Role, feature)
	}
	e.metrics.AccessDecision(string(feature), allowed)
	return allowed
}

// CanModify reports whether id may edit or delete a record owned by recordDepartment:
// super admin, admin and secretary always; a department leader only within their own department.
func (e *Evaluator) CanModify(id *identitydomain.Identity, recordDepartment string) bool {
	switch {
	case id == nil:
		return false
	case id.IsSuperAdmin(), id.IsAdmin(), id.IsSecretary():
		return true
	case id.IsDeptLeader():
		return id.HasDepartment() && recordDepartment == id.Department
	default:
		return false
	}
}

// CanAssignRole reports whether id may give a member role, or manage a member who already holds it.
// Only a super admin reaches super admins; admins reach everyone else; secretaries stop below admin;
// department leaders reach plain members, assistants and supervisors.
func (e *Evaluator) CanAssignRole(id *identitydomain.Identity, role memberdomain.Role) bool {
	switch {
	case id == nil:
		return false
	case id.IsSuperAdmin():
		return true
	case id.IsAdmin():
		return role != memberdomain.RoleSuperAdmin
	case id.IsSecretary():
		return role != memberdomain.RoleSuperAdmin && role != memberdomain.RoleAdmin
	case id.IsDeptLeader():
		return role == memberdomain.RoleMember || role == memberdomain.RoleAssistant || role == memberdomain.RoleSupervisor
	default:
		return false
	}
}

// StampDepartment returns the department a submission from id must carry. Leaders always get their own
// department regardless of what was submitted.
func (e *Evaluator) StampDepartment(id *identitydomain.Identity, submitted string) string {
	if id.IsDeptLeader() {
		return id.Department
	}
	return submitted
}
