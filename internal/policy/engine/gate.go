// Package engine builds the feature gate used by the access control evaluator.
package engine

import (
	"context"

	"github.com/rs/zerolog"

	"iesa-console/backend/internal/config"
	"iesa-console/backend/internal/platform/rbac"
)

// NewGate returns the gate selected by POLICY_ENGINE. The OPA gate falls back to the static gate when
// its policy cannot be compiled, so the console always starts with a working evaluator.
func NewGate(ctx context.Context, cfg *config.Config, log zerolog.Logger) rbac.Gate {
	list := rbac.DefaultAllowList()
	if cfg.PolicyEngine != config.PolicyEngineOPA {
		return &rbac.StaticGate{List: list}
	}
	gate, err := NewOPAGate(ctx, list, cfg.PolicyRegoPath, log)
	if err != nil {
		log.Error().Err(err).Msg("opa gate unavailable, using static gate")
		return &rbac.StaticGate{List: list}
	}
	return gate
}
