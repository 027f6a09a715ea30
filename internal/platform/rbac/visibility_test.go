package rbac

import (
	"testing"

	memberdomain "iesa-console/backend/internal/member/domain"
)

func roster() []*memberdomain.Member {
	return []*memberdomain.Member{
		{ID: "1", Name: "Ana", Department: "JIESA", Area: "Zona 1", Participation: memberdomain.ParticipationActive},
		{ID: "2", Name: "Pedro", Department: "DCIESA", Area: "Zona 1", Participation: memberdomain.ParticipationActive},
		{ID: "3", Name: "Rita", Department: "JIESA", Area: "Zona 2", Participation: memberdomain.ParticipationPassive},
		{ID: "4", Name: "Mariana", Department: memberdomain.GeneralDepartment, Participation: memberdomain.ParticipationActive},
	}
}

func ids(members []*memberdomain.Member) []string {
	out := make([]string, len(members))
	for i, m := range members {
		out[i] = m.ID
	}
	return out
}

func equalIDs(t *testing.T, got []*memberdomain.Member, want ...string) {
	t.Helper()
	g := ids(got)
	if len(g) != len(want) {
		t.Fatalf("ids = %v, want %v", g, want)
	}
	for i := range g {
		if g[i] != want[i] {
			t.Fatalf("ids = %v, want %v", g, want)
		}
	}
}

func TestFilterVisible_LeaderScopedToOwnDepartment(t *testing.T) {
	e := NewEvaluator(nil, nil)
	got := e.FilterVisible(actor(memberdomain.RoleDeptLeader, "JIESA"), roster(), Query{})
	equalIDs(t, got, "1", "3")
}

func TestFilterVisible_SearchLiftsScope(t *testing.T) {
	e := NewEvaluator(nil, nil)
	got := e.FilterVisible(actor(memberdomain.RoleDeptLeader, "JIESA"), roster(), Query{Search: "pedro"})
	equalIDs(t, got, "2")

	got = e.FilterVisible(actor(memberdomain.RoleDeptLeader, "JIESA"), roster(), Query{Search: "ana"})
	equalIDs(t, got, "1", "4")
}

func TestFilterVisible_DepartmentView(t *testing.T) {
	e := NewEvaluator(nil, nil)
	secretary := actor(memberdomain.RoleSecretary, "")
	equalIDs(t, e.FilterVisible(secretary, roster(), Query{View: "DCIESA"}), "2")
	equalIDs(t, e.FilterVisible(secretary, roster(), Query{View: "DCIESA", Search: "RITA"}), "3")
	equalIDs(t, e.FilterVisible(secretary, roster(), Query{}), "1", "2", "3", "4")
}

func TestFilterVisible_ExplicitFilters(t *testing.T) {
	e := NewEvaluator(nil, nil)
	admin := actor(memberdomain.RoleSuperAdmin, "")
	equalIDs(t, e.FilterVisible(admin, roster(), Query{Area: "Zona 1"}), "1", "2")
	equalIDs(t, e.FilterVisible(admin, roster(), Query{Participation: memberdomain.ParticipationPassive}), "3")
	equalIDs(t, e.FilterVisible(admin, roster(), Query{Department: "JIESA", Area: "Zona 2"}), "3")
	// The explicit department filter still applies to a leader's global search.
	equalIDs(t, e.FilterVisible(actor(memberdomain.RoleDeptLeader, "JIESA"), roster(), Query{Search: "a", Department: "JIESA"}), "1", "3")
}

func TestFilterVisible_EdgeCases(t *testing.T) {
	e := NewEvaluator(nil, nil)
	if got := e.FilterVisible(nil, roster(), Query{}); got == nil || len(got) != 0 {
		t.Errorf("nil identity = %v, want empty", ids(got))
	}
	equalIDs(t, e.FilterVisible(actor(memberdomain.RoleDeptLeader, ""), roster(), Query{}))
	equalIDs(t, e.FilterVisible(actor(memberdomain.RoleDeptLeader, memberdomain.GeneralDepartment), roster(), Query{}))
	withNil := append(roster(), nil)
	equalIDs(t, e.FilterVisible(actor(memberdomain.RoleAdmin, ""), withNil, Query{Search: "mari"}), "4")
}
