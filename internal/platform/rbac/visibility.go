package rbac

import (
	"strings"

	identitydomain "iesa-console/backend/internal/identity/domain"
	memberdomain "iesa-console/backend/internal/member/domain"
)

// Query narrows a member listing.
type Query struct {
	// Search matches member names case-insensitively. A non-empty search is treated as an
	// intentional global query and lifts department scoping.
	Search string
	// View is the department of a department-bound page (e.g. the JIESA roster); empty for the global list.
	View string
	// Department, Area and Participation are explicit filters; empty means any.
	Department    string
	Area          string
	Participation memberdomain.Participation
}

// FilterVisible returns the members id may see for q, preserving order. Leaders are scoped to their own
// department and department-bound views to their department, unless q.Search is set.
// The slice elements are shared with members, not copied.
func (e *Evaluator) FilterVisible(id *identitydomain.Identity, members []*memberdomain.Member, q Query) []*memberdomain.Member {
	if id == nil {
		return []*memberdomain.Member{}
	}
	search := strings.ToLower(strings.TrimSpace(q.Search))
	scoped, scope := false, ""
	switch {
	case id.IsDeptLeader():
		scoped, scope = true, id.Department
	case q.View != "":
		scoped, scope = true, q.View
	}

	out := make([]*memberdomain.Member, 0, len(members))
	for _, m := range members {
		if m == nil {
			continue
		}
		if scoped && search == "" && !m.InDepartment(scope) {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(m.Name), search) {
			continue
		}
		if q.Department != "" && m.Department != q.Department {
			continue
		}
		if q.Area != "" && m.Area != q.Area {
			continue
		}
		if q.Participation != "" && m.Participation != q.Participation {
			continue
		}
		out = append(out, m)
	}
	return out
}
