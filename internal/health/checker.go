// Package health reports console readiness through the standard gRPC health service.
package health

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Pinger checks storage reachability (kvstore.Store).
type Pinger interface {
	Ping(ctx context.Context) error
}

// PolicyChecker checks the feature gate (e.g. the OPA gate).
type PolicyChecker interface {
	HealthCheck(ctx context.Context) error
}

const checkTimeout = 3 * time.Second

// Checker runs readiness checks and publishes the result on a grpc health.Server, both for the
// overall server ("") and for the named console service.
type Checker struct {
	srv     *health.Server
	service string
	pinger  Pinger
	policy  PolicyChecker
	log     zerolog.Logger
}

// NewChecker returns a Checker. pinger and policy may be nil; nil checks are skipped.
func NewChecker(srv *health.Server, service string, pinger Pinger, policy PolicyChecker, log zerolog.Logger) *Checker {
	return &Checker{srv: srv, service: service, pinger: pinger, policy: policy, log: log}
}

// Check runs the checks once and updates the serving status.
func (c *Checker) Check(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	status := healthpb.HealthCheckResponse_SERVING
	if c.pinger != nil {
		if err := c.pinger.Ping(ctx); err != nil {
			c.log.Warn().Err(err).Msg("health: storage unreachable")
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
	}
	if c.policy != nil {
		if err := c.policy.HealthCheck(ctx); err != nil {
			c.log.Warn().Err(err).Msg("health: policy check failed")
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
	}
	c.srv.SetServingStatus("", status)
	if c.service != "" {
		c.srv.SetServingStatus(c.service, status)
	}
	return status
}

// Run checks immediately and then every interval until ctx is done.
func (c *Checker) Run(ctx context.Context, interval time.Duration) {
	c.Check(ctx)
	if interval <= 0 {
		return
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			c.Check(ctx)
		}
	}
}

// Shutdown marks every service NOT_SERVING ahead of a graceful stop.
func (c *Checker) Shutdown() {
	c.srv.Shutdown()
}
