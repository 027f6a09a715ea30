package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"iesa-console/backend/internal/config"
	memberdomain "iesa-console/backend/internal/member/domain"
	"iesa-console/backend/internal/platform/rbac"
)

func newGate(t *testing.T) *OPAGate {
	t.Helper()
	g, err := NewOPAGate(context.Background(), rbac.DefaultAllowList(), "", zerolog.Nop())
	if err != nil {
		t.Fatalf("NewOPAGate: %v", err)
	}
	return g
}

func TestOPAGate_HealthCheck(t *testing.T) {
	if err := newGate(t).HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck: %v", err)
	}
}

func TestOPAGate_MatchesStaticGate(t *testing.T) {
	ctx := context.Background()
	g := newGate(t)
	static := rbac.NewStaticGate()
	features := []rbac.Feature{"unknown"}
	for f := range rbac.DefaultAllowList() {
		features = append(features, f)
	}
	for _, role := range memberdomain.Roles {
		if role == memberdomain.RoleSuperAdmin {
			continue
		}
		for _, f := range features {
			if got, want := g.Allow(ctx, role, f), static.Allow(ctx, role, f); got != want {
				t.Errorf("Allow(%s, %s) = %v, static gate says %v", role, f, got, want)
			}
		}
	}
}

func TestOPAGate_SuperAdminAllowed(t *testing.T) {
	g := newGate(t)
	if !g.Allow(context.Background(), memberdomain.RoleSuperAdmin, "anything") {
		t.Error("policy should allow super admin")
	}
}

func TestOPAGate_CustomPolicy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.rego")
	policy := `package iesa.access

default allow := false

allow if {
	input.feature == "hymns"
	input.role == "member"
}
`
	if err := os.WriteFile(path, []byte(policy), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	g, err := NewOPAGate(context.Background(), rbac.DefaultAllowList(), path, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewOPAGate: %v", err)
	}
	ctx := context.Background()
	if !g.Allow(ctx, memberdomain.RoleMember, rbac.FeatureHymns) {
		t.Error("custom policy should allow member on hymns")
	}
	if g.Allow(ctx, memberdomain.RoleMember, rbac.FeatureDashboard) {
		t.Error("custom policy should deny member on dashboard")
	}
	if err := g.HealthCheck(ctx); err == nil {
		t.Error("HealthCheck should fail when the policy denies super admin")
	}
}

func TestOPAGate_FallsBackOnNonBooleanResult(t *testing.T) {
	path := filepath.Join(t.TempDir(), "odd.rego")
	if err := os.WriteFile(path, []byte("package iesa.access\n\nallow := \"yes\"\n"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	g, err := NewOPAGate(context.Background(), rbac.DefaultAllowList(), path, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewOPAGate: %v", err)
	}
	ctx := context.Background()
	if !g.Allow(ctx, memberdomain.RoleTreasurer, rbac.FeatureTreasury) {
		t.Error("fallback should allow treasurer on treasury")
	}
	if g.Allow(ctx, memberdomain.RoleMember, rbac.FeatureTreasury) {
		t.Error("fallback should deny member on treasury")
	}
}

func TestNewOPAGate_Errors(t *testing.T) {
	ctx := context.Background()
	if _, err := NewOPAGate(ctx, rbac.DefaultAllowList(), "/nonexistent/policy.rego", zerolog.Nop()); err == nil {
		t.Error("missing policy file should fail")
	}
	path := filepath.Join(t.TempDir(), "broken.rego")
	_ = os.WriteFile(path, []byte("package iesa.access\n\nallow if {"), 0o600)
	if _, err := NewOPAGate(ctx, rbac.DefaultAllowList(), path, zerolog.Nop()); err == nil {
		t.Error("broken policy should fail to compile")
	}
}

func TestNewGate_Selects(t *testing.T) {
	ctx := context.Background()
	if _, ok := NewGate(ctx, &config.Config{PolicyEngine: config.PolicyEngineStatic}, zerolog.Nop()).(*rbac.StaticGate); !ok {
		t.Error("static engine should return StaticGate")
	}
	if _, ok := NewGate(ctx, &config.Config{PolicyEngine: config.PolicyEngineOPA}, zerolog.Nop()).(*OPAGate); !ok {
		t.Error("opa engine should return OPAGate")
	}
	gate := NewGate(ctx, &config.Config{PolicyEngine: config.PolicyEngineOPA, PolicyRegoPath: "/nonexistent.rego"}, zerolog.Nop())
	if _, ok := gate.(*rbac.StaticGate); !ok {
		t.Error("broken opa config should fall back to StaticGate")
	}
}
