package domain

import (
	"strings"
	"time"
)

// GeneralDepartment marks a member that belongs to no department.
const GeneralDepartment = "GERAL"

// Member is the core person entity of the console.
type Member struct {
	ID               string         `json:"id"`
	Name             string         `json:"name"`
	BirthDate        string         `json:"birthDate,omitempty"`
	Phone            string         `json:"phone,omitempty"`
	FatherName       string         `json:"fatherName,omitempty"`
	MotherName       string         `json:"motherName,omitempty"`
	CivilStatus      string         `json:"civilStatus,omitempty"`
	Gender           Gender         `json:"gender,omitempty"`
	DocumentNumber   string         `json:"documentNumber,omitempty"`
	Notes            string         `json:"notes,omitempty"`
	BaptismDate      string         `json:"baptismDate,omitempty"`
	Talents          []string       `json:"talents,omitempty"`
	Gifts            []string       `json:"gifts,omitempty"`
	Role             Role           `json:"role"`
	Department       string         `json:"department,omitempty"`
	Branch           string         `json:"branch,omitempty"`
	Area             string         `json:"area,omitempty"`
	RoleInDept       string         `json:"roleInDept,omitempty"`
	SpiritualState   string         `json:"spiritualState,omitempty"`
	Participation    Participation  `json:"participation,omitempty"`
	AccessCode       string         `json:"accessCode"`
	RegistrationDate time.Time      `json:"registrationDate"`
	History          []HistoryEntry `json:"history"`
}

// Role is the fixed authorization level of a member.
type Role string

const (
	RoleSuperAdmin Role = "super_admin"
	RoleAdmin      Role = "admin"
	RoleSecretary  Role = "secretary"
	RoleTreasurer  Role = "treasurer"
	RoleAssistant  Role = "assistant"
	RoleDeptLeader Role = "department_leader"
	RoleSupervisor Role = "supervisor"
	RoleMember     Role = "member"
)

// Roles lists every role, highest privilege first.
var Roles = []Role{
	RoleSuperAdmin, RoleAdmin, RoleSecretary, RoleTreasurer,
	RoleAssistant, RoleDeptLeader, RoleSupervisor, RoleMember,
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	for _, known := range Roles {
		if r == known {
			return true
		}
	}
	return false
}

type Participation string

const (
	ParticipationActive      Participation = "ACTIVE"
	ParticipationPassive     Participation = "PASSIVE"
	ParticipationTransferred Participation = "TRANSFERRED"
	ParticipationDeceased    Participation = "DECEASED"
)

// Valid reports whether p is a known participation status.
func (p Participation) Valid() bool {
	switch p {
	case ParticipationActive, ParticipationPassive, ParticipationTransferred, ParticipationDeceased:
		return true
	}
	return false
}

type Gender string

const (
	GenderMale   Gender = "M"
	GenderFemale Gender = "F"
)

// InDepartment reports whether the member belongs to dept. GERAL and empty never match.
func (m *Member) InDepartment(dept string) bool {
	if dept == "" || dept == GeneralDepartment {
		return false
	}
	return m.Department == dept
}

// NameMatches reports whether name equals the member name ignoring case and surrounding space.
func (m *Member) NameMatches(name string) bool {
	return strings.EqualFold(strings.TrimSpace(m.Name), strings.TrimSpace(name))
}

// HasTransitionTo reports whether history already records a transition mentioning dept.
func (m *Member) HasTransitionTo(dept string) bool {
	for _, h := range m.History {
		if h.Type == HistoryTransition && strings.Contains(h.Description, dept) {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of m.
func (m *Member) Clone() *Member {
	if m == nil {
		return nil
	}
	c := *m
	c.Talents = cloneStrings(m.Talents)
	c.Gifts = cloneStrings(m.Gifts)
	if m.History != nil {
		c.History = make([]HistoryEntry, len(m.History))
		copy(c.History, m.History)
	}
	return &c
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}
