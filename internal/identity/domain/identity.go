package domain

import (
	memberdomain "iesa-console/backend/internal/member/domain"
)

// Identity is the authenticated actor of a console session: a member reference plus the
// fields authorization decisions need.
type Identity struct {
	MemberID   string
	Name       string
	Role       memberdomain.Role
	Department string
	Branch     string
}

// FromMember builds the session identity of m. Returns nil for a nil member.
func FromMember(m *memberdomain.Member) *Identity {
	if m == nil {
		return nil
	}
	return &Identity{
		MemberID:   m.ID,
		Name:       m.Name,
		Role:       m.Role,
		Department: m.Department,
		Branch:     m.Branch,
	}
}

func (i *Identity) IsSuperAdmin() bool { return i != nil && i.Role == memberdomain.RoleSuperAdmin }

func (i *Identity) IsAdmin() bool { return i != nil && i.Role == memberdomain.RoleAdmin }

func (i *Identity) IsSecretary() bool { return i != nil && i.Role == memberdomain.RoleSecretary }

func (i *Identity) IsTreasurer() bool { return i != nil && i.Role == memberdomain.RoleTreasurer }

// IsDeptLeader reports whether the actor leads a department. Leaders are scoped to Department.
func (i *Identity) IsDeptLeader() bool { return i != nil && i.Role == memberdomain.RoleDeptLeader }

// HasDepartment reports whether the actor belongs to a real department (not empty or GERAL).
func (i *Identity) HasDepartment() bool {
	return i != nil && i.Department != "" && i.Department != memberdomain.GeneralDepartment
}
