package governor

import (
	"context"
	"time"

	"github.com/smykla-skalski/sendguard/internal/counters"
	"github.com/smykla-skalski/sendguard/internal/health"
	"github.com/smykla-skalski/sendguard/internal/metrics"
	"github.com/smykla-skalski/sendguard/internal/session"
)

// Admission denial reasons besides the cap reasons from counters.
const (
	ReasonBlocked     = "session blocked"
	ReasonCooldown    = "session in cooldown"
	ReasonRateLimited = "rate limited"
)

// Admission is the answer to a single send request.
type Admission struct {
	SessionID string `json:"session_id" yaml:"session_id"`
	Allowed   bool   `json:"allowed" yaml:"allowed"`
	Reason    string `json:"reason,omitempty" yaml:"reason,omitempty"`

	// RetryAfter is the earliest useful retry. Zero for blocked sessions,
	// which will not recover on their own.
	RetryAfter time.Duration `json:"retry_after" yaml:"retry_after"`

	DailyRemaining  int `json:"daily_remaining" yaml:"daily_remaining"`
	HourlyRemaining int `json:"hourly_remaining" yaml:"hourly_remaining"`
}

// Admit decides whether one message may be sent for the session now. An
// allowed send is counted against the day and hour caps.
func (g *Governor) Admit(ctx context.Context, id string) (*Admission, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	unlock := g.lock(id)
	defer unlock()

	rec, err := g.store.Get(id)
	if err != nil {
		return nil, err
	}

	now := g.now()

	// A lapsed cooldown still carries zero limits until re-evaluated.
	if rec.CooldownUntil != nil && !rec.InCooldown(now) {
		if _, err := g.evaluateLocked(ctx, rec, health.Options{}); err != nil {
			return nil, err
		}

		now = g.now()
	}

	res := &Admission{SessionID: id}

	switch {
	case rec.HealthStatus == session.HealthBlocked:
		res.Reason = ReasonBlocked
		g.metrics.Admission(metrics.ResultHealthDenied)

		return res, nil
	case rec.InCooldown(now):
		res.Reason = ReasonCooldown
		res.RetryAfter = rec.CooldownUntil.Sub(now)
		g.metrics.Admission(metrics.ResultHealthDenied)

		return res, nil
	}

	l := rec.Limits()

	caps := counters.CheckCaps(rec.Counters, l, now)
	res.DailyRemaining = caps.DailyRemaining
	res.HourlyRemaining = caps.HourlyRemaining

	if !caps.Allowed {
		res.Reason = caps.Reason
		res.RetryAfter = caps.RetryAfter
		g.metrics.Admission(metrics.ResultCapped)

		return res, nil
	}

	if !g.limiter.Configured(id) {
		g.configureLimiter(id, l)
	}

	decision := g.limiter.TryConsume(id)
	if !decision.Allowed {
		res.Reason = ReasonRateLimited
		res.RetryAfter = decision.RetryAfter
		g.metrics.Admission(metrics.ResultRateLimited)

		g.logger.Debug("send rate limited",
			"session_id", id,
			"retry_after_ms", decision.RetryAfterMs(),
		)

		return res, nil
	}

	rec.Counters = counters.Record(caps.Window, now)
	if err := g.store.Put(rec); err != nil {
		g.limiter.Refund(id, 1)

		return nil, err
	}

	res.Allowed = true
	res.DailyRemaining--
	res.HourlyRemaining--

	g.metrics.Admission(metrics.ResultAllowed)

	return res, nil
}
