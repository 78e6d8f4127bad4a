// Package metrics exports admission, health, strike and limit change
// counters to Prometheus. A nil *Recorder is valid and records nothing.
package metrics

import (
	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/smykla-skalski/sendguard/internal/limits"
	"github.com/smykla-skalski/sendguard/internal/session"
	"github.com/smykla-skalski/sendguard/pkg/config"
)

// Admission results.
const (
	ResultAllowed      = "allowed"
	ResultRateLimited  = "rate_limited"
	ResultCapped       = "capped"
	ResultHealthDenied = "health_denied"
)

// Recorder holds the collectors.
type Recorder struct {
	admissions      *prometheus.CounterVec
	health          *prometheus.GaugeVec
	strikes         *prometheus.CounterVec
	limitChanges    *prometheus.CounterVec
	tokensPerMinute *prometheus.GaugeVec
}

// New creates a Recorder and registers its collectors with reg. It returns
// nil when metrics are disabled.
func New(cfg *config.MetricsConfig, reg prometheus.Registerer) (*Recorder, error) {
	if !cfg.IsMetricsEnabled() {
		return nil, nil
	}

	ns := cfg.GetNamespace()

	r := &Recorder{
		admissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "admissions_total",
			Help:      "Send admission decisions by result.",
		}, []string{"result"}),
		health: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: ns,
			Name:      "health_status",
			Help:      "Current health status per session, 1 for the active status.",
		}, []string{"session_id", "status"}),
		strikes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "strikes_total",
			Help:      "Strikes added by reason.",
		}, []string{"reason"}),
		limitChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "limit_changes_total",
			Help:      "Send limit changes by reason.",
		}, []string{"reason"}),
		tokensPerMinute: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: ns,
			Name:      "tokens_per_minute",
			Help:      "Configured token refill rate per session.",
		}, []string{"session_id"}),
	}

	for _, c := range []prometheus.Collector{
		r.admissions, r.health, r.strikes, r.limitChanges, r.tokensPerMinute,
	} {
		if err := reg.Register(c); err != nil {
			return nil, errors.Wrap(err, "registering metrics collector")
		}
	}

	return r, nil
}

// Admission counts one admission decision.
func (r *Recorder) Admission(result string) {
	if r == nil {
		return
	}

	r.admissions.WithLabelValues(result).Inc()
}

// Health sets the health gauge of a session to status.
func (r *Recorder) Health(sessionID string, status session.HealthStatus) {
	if r == nil {
		return
	}

	for _, s := range session.HealthStatusValues() {
		v := 0.0
		if s == status {
			v = 1
		}

		r.health.WithLabelValues(sessionID, s.String()).Set(v)
	}
}

// Strike counts one strike.
func (r *Recorder) Strike(reason string) {
	if r == nil {
		return
	}

	r.strikes.WithLabelValues(reason).Inc()
}

// LimitChange counts one limit change and updates the rate gauge.
func (r *Recorder) LimitChange(sessionID, reason string, l limits.SendLimits) {
	if r == nil {
		return
	}

	r.limitChanges.WithLabelValues(reason).Inc()
	r.tokensPerMinute.WithLabelValues(sessionID).Set(float64(l.TokensPerMinute))
}

// Forget drops every per-session series of sessionID.
func (r *Recorder) Forget(sessionID string) {
	if r == nil {
		return
	}

	r.health.DeletePartialMatch(prometheus.Labels{"session_id": sessionID})
	r.tokensPerMinute.DeleteLabelValues(sessionID)
}

// AdmissionsCounter returns the admissions counter for result.
func (r *Recorder) AdmissionsCounter(result string) prometheus.Counter {
	return r.admissions.WithLabelValues(result)
}

// HealthGauge returns the health gauge for one session and status.
func (r *Recorder) HealthGauge(sessionID string, status session.HealthStatus) prometheus.Gauge {
	return r.health.WithLabelValues(sessionID, status.String())
}
