package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics holds the console's Prometheus collectors. A nil *Metrics is a valid no-op.
type Metrics struct {
	Registry *prometheus.Registry

	registrations prometheus.Counter
	deletions     prometheus.Counter
	transitions   prometheus.Counter
	sweeps        *prometheus.CounterVec
	sweepDuration prometheus.Histogram
	members       prometheus.Gauge
	logins        *prometheus.CounterVec
	decisions     *prometheus.CounterVec
}

// NewMetrics registers the console collectors on a fresh registry (plus Go and process collectors).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Registry: reg,
		registrations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "iesa_member_registrations_total", Help: "Members registered.",
		}),
		deletions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "iesa_member_deletions_total", Help: "Members deleted.",
		}),
		transitions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "iesa_member_transitions_total", Help: "Automatic department transitions applied.",
		}),
		sweeps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "iesa_transition_sweeps_total", Help: "Transition sweeps by result.",
		}, []string{"result"}),
		sweepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "iesa_transition_sweep_duration_seconds", Help: "Transition sweep duration.",
			Buckets: prometheus.DefBuckets,
		}),
		members: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "iesa_members", Help: "Members currently in the store.",
		}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "iesa_logins_total", Help: "Login attempts by result.",
		}, []string{"result"}),
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "iesa_access_decisions_total", Help: "Feature access decisions.",
		}, []string{"feature", "decision"}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.registrations, m.deletions, m.transitions, m.sweeps, m.sweepDuration,
		m.members, m.logins, m.decisions,
	)
	return m
}

func (m *Metrics) MemberRegistered() {
	if m != nil {
		m.registrations.Inc()
	}
}

func (m *Metrics) MemberDeleted() {
	if m != nil {
		m.deletions.Inc()
	}
}

// SetMembers records the current collection size.
func (m *Metrics) SetMembers(n int) {
	if m != nil {
		m.members.Set(float64(n))
	}
}

// SweepFinished records one sweep run.
func (m *Metrics) SweepFinished(transitioned int, took time.Duration, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.sweeps.WithLabelValues(result).Inc()
	m.sweepDuration.Observe(took.Seconds())
	m.transitions.Add(float64(transitioned))
}

// Login records a login attempt outcome.
func (m *Metrics) Login(success bool) {
	if m == nil {
		return
	}
	result := "failure"
	if success {
		result = "success"
	}
	m.logins.WithLabelValues(result).Inc()
}

// AccessDecision records a feature gate decision.
func (m *Metrics) AccessDecision(feature string, allowed bool) {
	if m == nil {
		return
	}
	decision := "deny"
	if allowed {
		decision = "allow"
	}
	m.decisions.WithLabelValues(feature, decision).Inc()
}
