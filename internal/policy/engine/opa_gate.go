package engine

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/open-policy-agent/opa/v1/rego"
	"github.com/rs/zerolog"

	memberdomain "iesa-console/backend/internal/member/domain"
	"iesa-console/backend/internal/platform/rbac"
)

const allowQuery = "data.iesa.access.allow"

// defaultRegoPolicy mirrors rbac.AllowList.Allows, plus the super admin bypass.
const defaultRegoPolicy = `package iesa.access

default allow := false

allow if input.role == "super_admin"

allow if {
	roles := input.features[input.feature]
	count(roles) == 0
}

allow if {
	some role in input.features[input.feature]
	role == input.role
}
`

// OPAGate is an rbac.Gate backed by an in-process Rego policy. The allow-list table is passed as input
// so a custom policy can combine it with its own rules. Evaluation failures fall back to the static gate.
type OPAGate struct {
	query    rego.PreparedEvalQuery
	features map[string][]string
	fallback rbac.Gate
	log      zerolog.Logger
}

// NewOPAGate compiles the policy at regoPath, or the built-in policy when regoPath is empty.
// The policy must define data.iesa.access.allow.
func NewOPAGate(ctx context.Context, list rbac.AllowList, regoPath string, log zerolog.Logger) (*OPAGate, error) {
	module := defaultRegoPolicy
	name := "access.rego"
	if regoPath != "" {
		b, err := os.ReadFile(regoPath)
		if err != nil {
			return nil, fmt.Errorf("read policy: %w", err)
		}
		module, name = string(b), regoPath
	}
	pq, err := rego.New(
		rego.Query(allowQuery),
		rego.Module(name, module),
	).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("compile policy: %w", err)
	}
	return &OPAGate{
		query:    pq,
		features: featureInput(list),
		fallback: &rbac.StaticGate{List: list},
		log:      log,
	}, nil
}

// featureInput converts the allow-list to plain JSON-friendly values. Public features map to an empty
// array (never null) so count() works on them.
func featureInput(list rbac.AllowList) map[string][]string {
	out := make(map[string][]string, len(list))
	for f, roles := range list {
		names := make([]string, 0, len(roles))
		for _, r := range roles {
			names = append(names, string(r))
		}
		sort.Strings(names)
		out[string(f)] = names
	}
	return out
}

// Allow evaluates the policy for role and feature.
func (g *OPAGate) Allow(ctx context.Context, role memberdomain.Role, feature rbac.Feature) bool {
	allowed, err := g.eval(ctx, string(role), string(feature))
	if err != nil {
		g.log.Warn().Err(err).Str("feature", string(feature)).Msg("policy evaluation failed, using static gate")
		return g.fallback.Allow(ctx, role, feature)
	}
	return allowed
}

func (g *OPAGate) eval(ctx context.Context, role, feature string) (bool, error) {
	input := map[string]interface{}{
		"role":     role,
		"feature":  feature,
		"features": g.features,
	}
	rs, err := g.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return false, err
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return false, fmt.Errorf("policy query returned no result")
	}
	allowed, ok := rs[0].Expressions[0].Value.(bool)
	if !ok {
		return false, fmt.Errorf("policy result is %T, want bool", rs[0].Expressions[0].Value)
	}
	return allowed, nil
}

// HealthCheck evaluates a fixed decision (super admin on settings must be allowed). Returns nil on success.
func (g *OPAGate) HealthCheck(ctx context.Context) error {
	allowed, err := g.eval(ctx, string(memberdomain.RoleSuperAdmin), string(rbac.FeatureSettings))
	if err != nil {
		return fmt.Errorf("eval policy: %w", err)
	}
	if !allowed {
		return fmt.Errorf("policy denies super admin")
	}
	return nil
}
