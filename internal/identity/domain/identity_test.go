package domain

import (
	"context"
	"testing"

	memberdomain "iesa-console/backend/internal/member/domain"
)

func TestFromMember(t *testing.T) {
	if FromMember(nil) != nil {
		t.Error("FromMember(nil) should be nil")
	}
	id := FromMember(&memberdomain.Member{ID: "m-1", Name: "Rita", Role: memberdomain.RoleDeptLeader, Department: "JIESA", Branch: "Sicar"})
	if id.MemberID != "m-1" || id.Name != "Rita" || id.Department != "JIESA" || id.Branch != "Sicar" {
		t.Errorf("identity = %+v", id)
	}
	if !id.IsDeptLeader() || id.IsSuperAdmin() || id.IsAdmin() || id.IsSecretary() || id.IsTreasurer() {
		t.Errorf("flags wrong for leader: %+v", id)
	}
	if !id.HasDepartment() {
		t.Error("JIESA leader should have a department")
	}
}

func TestIdentity_NilFlags(t *testing.T) {
	var id *Identity
	if id.IsSuperAdmin() || id.IsDeptLeader() || id.HasDepartment() {
		t.Error("nil identity must not satisfy any flag")
	}
	general := &Identity{Role: memberdomain.RoleMember, Department: memberdomain.GeneralDepartment}
	if general.HasDepartment() {
		t.Error("GERAL is not a department")
	}
}

func TestMemberIDContext(t *testing.T) {
	if _, ok := GetMemberID(context.Background()); ok {
		t.Error("empty context should carry no member id")
	}
	ctx := WithMemberID(context.Background(), "m-1")
	if got, ok := GetMemberID(ctx); !ok || got != "m-1" {
		t.Errorf("GetMemberID = %q, %v, want %q, true", got, ok, "m-1")
	}
	if _, ok := GetMemberID(WithMemberID(context.Background(), "")); ok {
		t.Error("blank member id should not count as set")
	}
}
