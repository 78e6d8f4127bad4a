// Package policy turns a session's health status into send limits.
package policy

import (
	"time"

	"github.com/smykla-skalski/sendguard/internal/limits"
	"github.com/smykla-skalski/sendguard/internal/session"
	"github.com/smykla-skalski/sendguard/pkg/config"
)

// Limit change reasons.
const (
	ReasonBlocked         = "blocked_policy"
	ReasonCooldown        = "cooldown_policy"
	ReasonRiskyReduce     = "risky_reduce"
	ReasonRestoreDefaults = "warning_restore_defaults"
	ReasonHealthyIncrease = "healthy_increase"
	ReasonManualOverride  = "manual_override"
)

// Options tune a single AdjustLimits call.
type Options struct {
	// Now is the evaluation time. Zero means time.Now().
	Now time.Time

	// IncreaseInterval is the minimum time between healthy increases.
	// Zero means the configured default of 24h.
	IncreaseInterval time.Duration
}

// OptionsFromConfig returns Options with the configured increase interval.
func OptionsFromConfig(cfg *config.PolicyConfig, now time.Time) Options {
	return Options{Now: now, IncreaseInterval: cfg.GetIncreaseInterval()}
}

// Result is the outcome of AdjustLimits. When Changed is false the timestamp
// and reason are the session's existing values.
type Result struct {
	Changed           bool
	SendLimits        limits.SendLimits
	LastLimitUpdateAt *time.Time
	LimitChangeReason string
}

// Apply writes the result onto s.
func (r Result) Apply(s *session.Session) {
	l := r.SendLimits

	s.SendLimits = &l
	s.LastLimitUpdateAt = r.LastLimitUpdateAt
	s.LimitChangeReason = r.LimitChangeReason
}

// AdjustLimits computes the limits s should carry given its health status.
// It does not modify s.
func AdjustLimits(s *session.Session, opts Options) Result {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	interval := opts.IncreaseInterval
	if interval <= 0 {
		interval = config.DefaultIncreaseInterval
	}

	current := s.Limits()
	target, reason := current, ""

	switch {
	case s.HealthStatus == session.HealthBlocked:
		target, reason = limits.Zero(), ReasonBlocked
	case s.HealthStatus == session.HealthCooldown || s.InCooldown(now):
		target, reason = limits.Zero(), ReasonCooldown
	case s.HealthStatus == session.HealthRisky:
		target, reason = reduce(current), ReasonRiskyReduce
	case s.HealthStatus == session.HealthWarning || s.HealthStatus == session.HealthUnknown:
		if current.AnyZero() {
			target, reason = limits.Defaults(), ReasonRestoreDefaults
		}
	case s.HealthStatus == session.HealthHealthy:
		if s.LastLimitUpdateAt == nil || now.Sub(*s.LastLimitUpdateAt) >= interval {
			target, reason = increase(current), ReasonHealthyIncrease
		}
	}

	target = limits.Normalize(target)

	if target == current {
		return Result{
			SendLimits:        current,
			LastLimitUpdateAt: s.LastLimitUpdateAt,
			LimitChangeReason: s.LimitChangeReason,
		}
	}

	return Result{
		Changed:           true,
		SendLimits:        target,
		LastLimitUpdateAt: &now,
		LimitChangeReason: reason,
	}
}

// reduce halves rate and caps and keeps 60% of the bucket, truncating.
func reduce(l limits.SendLimits) limits.SendLimits {
	base := seed(l)

	return limits.SendLimits{
		TokensPerMinute: base.TokensPerMinute / 2,
		BucketSize:      base.BucketSize * 6 / 10,
		DailyMax:        base.DailyMax / 2,
		HourlyMax:       base.HourlyMax / 2,
	}
}

// increase grows every field by 15%, rounding up.
func increase(l limits.SendLimits) limits.SendLimits {
	base := seed(l)

	return limits.SendLimits{
		TokensPerMinute: grow(base.TokensPerMinute),
		BucketSize:      grow(base.BucketSize),
		DailyMax:        grow(base.DailyMax),
		HourlyMax:       grow(base.HourlyMax),
	}
}

func seed(l limits.SendLimits) limits.SendLimits {
	if l.TokensPerMinute == 0 {
		return limits.Defaults()
	}

	return l
}

func grow(v int) int {
	return (v*115 + 99) / 100
}
