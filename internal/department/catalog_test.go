package department

import (
	"reflect"
	"testing"
)

func TestDefaults_SeedDepartments(t *testing.T) {
	got := Defaults()
	if len(got) != 5 {
		t.Fatalf("len(Defaults) = %d, want 5", len(got))
	}
	ids := make([]string, len(got))
	for i, d := range got {
		ids[i] = d.ID
	}
	want := []string{"JIESA", "DCIESA", "SHIESA", "DEBOS", "EVANGELIZAÇÃO"}
	if !reflect.DeepEqual(ids, want) {
		t.Errorf("ids = %v, want %v", ids, want)
	}
}

func TestDefaults_ReturnsCopy(t *testing.T) {
	got := Defaults()
	got[0].Roles[0] = "changed"
	got[0].Name = "changed"

	again := Defaults()
	if again[0].Roles[0] != "Responsável" {
		t.Errorf("roles mutated through copy: %q", again[0].Roles[0])
	}
	if again[0].Name != "JIESA" {
		t.Errorf("name mutated through copy: %q", again[0].Name)
	}
}

func TestRolesFor(t *testing.T) {
	testCases := []struct {
		id   string
		want []string
	}{
		{"DCIESA", []string{"Supervisor", "Monitor", "Auxiliar"}},
		{"jiesa", []string{"Responsável", "Secretário", "Tesoureiro"}},
		{" DEBOS ", []string{"Responsável", "Secretário"}},
		{"GERAL", nil},
		{"", nil},
	}
	for _, tc := range testCases {
		if got := RolesFor(tc.id); !reflect.DeepEqual(got, tc.want) {
			t.Errorf("RolesFor(%q) = %v, want %v", tc.id, got, tc.want)
		}
	}
}

func TestBranches(t *testing.T) {
	got := Branches()
	if len(got) != 6 || got[0] != "Centro" {
		t.Errorf("Branches = %v, want 6 starting with Centro", got)
	}
	if !IsBranch("Sicar") {
		t.Error("IsBranch(Sicar) = false, want true")
	}
	if IsBranch("sicar") {
		t.Error("IsBranch is case-sensitive")
	}
}

func TestNormalizeActivityType(t *testing.T) {
	if got := NormalizeActivityType("  "); got != DefaultActivityType {
		t.Errorf("NormalizeActivityType(blank) = %q, want %q", got, DefaultActivityType)
	}
	if got := NormalizeActivityType(" Retiro "); got != "Retiro" {
		t.Errorf("NormalizeActivityType = %q, want %q", got, "Retiro")
	}
	if types := ActivityTypes(); types[0] != "Culto Geral" {
		t.Errorf("ActivityTypes()[0] = %q, want Culto Geral", types[0])
	}
}
