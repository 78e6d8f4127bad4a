package governor

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/smykla-skalski/sendguard/internal/audit"
	"github.com/smykla-skalski/sendguard/internal/counters"
	"github.com/smykla-skalski/sendguard/internal/health"
	"github.com/smykla-skalski/sendguard/internal/limits"
	"github.com/smykla-skalski/sendguard/internal/policy"
	"github.com/smykla-skalski/sendguard/internal/session"
)

// Evaluation is the outcome of one evaluation pass over a session.
type Evaluation struct {
	SessionID      string
	PreviousStatus session.HealthStatus
	Health         health.Result
	Policy         policy.Result
	CountersReset  bool
}

// StatusChanged reports whether the health status moved.
func (e *Evaluation) StatusChanged() bool {
	return e.PreviousStatus != e.Health.Status
}

// Summary is the flattened, serializable view of an Evaluation.
type Summary struct {
	SessionID      string            `json:"session_id" yaml:"session_id"`
	PreviousStatus string            `json:"previous_status" yaml:"previous_status"`
	Status         string            `json:"status" yaml:"status"`
	Score          int               `json:"score" yaml:"score"`
	Reason         string            `json:"reason" yaml:"reason"`
	StrikeCount    int               `json:"strike_count" yaml:"strike_count"`
	StrikeAdded    bool              `json:"strike_added" yaml:"strike_added"`
	CooldownUntil  *time.Time        `json:"cooldown_until,omitempty" yaml:"cooldown_until,omitempty"`
	LimitsChanged  bool              `json:"limits_changed" yaml:"limits_changed"`
	LimitReason    string            `json:"limit_reason,omitempty" yaml:"limit_reason,omitempty"`
	Limits         limits.SendLimits `json:"limits" yaml:"limits"`
	Signals        health.Signals    `json:"signals" yaml:"signals"`
}

// Summary flattens e for output.
func (e *Evaluation) Summary() Summary {
	return Summary{
		SessionID:      e.SessionID,
		PreviousStatus: e.PreviousStatus.String(),
		Status:         e.Health.Status.String(),
		Score:          e.Health.Score,
		Reason:         e.Health.Reason,
		StrikeCount:    e.Health.StrikeCount,
		StrikeAdded:    e.Health.StrikeAdded,
		CooldownUntil:  e.Health.CooldownUntil,
		LimitsChanged:  e.Policy.Changed,
		LimitReason:    e.Policy.LimitChangeReason,
		Limits:         e.Policy.SendLimits,
		Signals:        e.Health.Signals,
	}
}

// Evaluate reclassifies a session, adjusts its limits and pushes them into the
// limiter.
func (g *Governor) Evaluate(ctx context.Context, id string) (*Evaluation, error) {
	return g.evaluate(ctx, id, health.Options{})
}

// ForceCooldown records a strike with reason and starts a cooldown. An empty
// reason records health.StrikeManualCooldown.
func (g *Governor) ForceCooldown(ctx context.Context, id, reason string) (*Evaluation, error) {
	if reason == "" {
		reason = health.StrikeManualCooldown
	}

	return g.evaluate(ctx, id, health.Options{ForceCooldown: true, StrikeReason: reason})
}

func (g *Governor) evaluate(ctx context.Context, id string, opts health.Options) (*Evaluation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	unlock := g.lock(id)
	defer unlock()

	rec, err := g.store.Get(id)
	if err != nil {
		return nil, err
	}

	return g.evaluateLocked(ctx, rec, opts)
}

// evaluateLocked runs one pass over rec and persists it. The caller holds the
// session lock.
func (g *Governor) evaluateLocked(
	ctx context.Context,
	rec *session.Session,
	opts health.Options,
) (*Evaluation, error) {
	stats, err := g.stats.RecentStats(ctx, rec.ID)
	if err != nil {
		return nil, errors.Wrapf(err, "fetching recent stats for %s", rec.ID)
	}

	now := g.now()

	ev := &Evaluation{
		SessionID:      rec.ID,
		PreviousStatus: rec.HealthStatus,
	}

	rec.Counters, ev.CountersReset = counters.Normalize(rec.Counters, now)

	opts.Now = now
	opts.Rules = g.rules

	ev.Health = health.Compute(rec, stats, opts)
	ev.Health.Apply(rec)

	ev.Policy = policy.AdjustLimits(rec, policy.Options{Now: now, IncreaseInterval: g.increaseInterval})
	ev.Policy.Apply(rec)

	if err := g.store.Put(rec); err != nil {
		return nil, errors.Wrapf(err, "saving session %s", rec.ID)
	}

	if ev.Policy.Changed || !g.limiter.Configured(rec.ID) {
		g.configureLimiter(rec.ID, ev.Policy.SendLimits)
	}

	g.report(rec, ev, now)

	return ev, nil
}

func (g *Governor) report(rec *session.Session, ev *Evaluation, now time.Time) {
	g.metrics.Health(rec.ID, ev.Health.Status)

	if ev.Health.StrikeAdded {
		g.metrics.Strike(ev.Health.LastStrikeReason)

		entry := audit.NewEntry(audit.KindStrike, rec.ID, now)
		entry.HealthStatus = ev.Health.Status.String()
		entry.Reason = ev.Health.LastStrikeReason
		entry.StrikeCount = ev.Health.StrikeCount
		g.audit(entry)

		g.logger.Info("strike recorded",
			"session_id", rec.ID,
			"reason", ev.Health.LastStrikeReason,
			"strike_count", ev.Health.StrikeCount,
		)
	}

	if ev.StatusChanged() {
		entry := audit.NewEntry(audit.KindStatusChange, rec.ID, now)
		entry.HealthStatus = ev.Health.Status.String()
		entry.PreviousStatus = ev.PreviousStatus.String()
		entry.Reason = ev.Health.Reason
		entry.StrikeCount = ev.Health.StrikeCount
		g.audit(entry)

		g.logger.Info("health status changed",
			"session_id", rec.ID,
			"from", ev.PreviousStatus.String(),
			"to", ev.Health.Status.String(),
			"reason", ev.Health.Reason,
		)
	}

	if ev.Policy.Changed {
		g.metrics.LimitChange(rec.ID, ev.Policy.LimitChangeReason, ev.Policy.SendLimits)

		l := ev.Policy.SendLimits
		entry := audit.NewEntry(audit.KindLimitChange, rec.ID, now)
		entry.HealthStatus = ev.Health.Status.String()
		entry.Reason = ev.Policy.LimitChangeReason
		entry.StrikeCount = ev.Health.StrikeCount
		entry.Limits = &l
		g.audit(entry)

		g.logger.Info("send limits changed",
			"session_id", rec.ID,
			"reason", ev.Policy.LimitChangeReason,
			"tokens_per_minute", l.TokensPerMinute,
			"daily_max", l.DailyMax,
		)
	}

	g.logger.Debug("session evaluated",
		"session_id", rec.ID,
		"status", ev.Health.Status.String(),
		"score", ev.Health.Score,
	)
}

// EvaluateAll evaluates every stored session, at most maxWorkers at a time.
// Results are in store ID order; failed sessions have a nil entry and their
// errors are combined into the returned error.
func (g *Governor) EvaluateAll(ctx context.Context) ([]*Evaluation, error) {
	ids := g.store.IDs()
	results := make([]*Evaluation, len(ids))
	errs := make([]error, len(ids))

	sem := semaphore.NewWeighted(int64(g.maxWorkers))
	eg, egCtx := errgroup.WithContext(ctx)

	for i, id := range ids {
		if err := sem.Acquire(egCtx, 1); err != nil {
			errs[i] = err

			break
		}

		eg.Go(func() error {
			defer sem.Release(1)

			ev, err := g.Evaluate(egCtx, id)
			if err != nil {
				errs[i] = errors.Wrapf(err, "evaluating %s", id)

				return nil
			}

			results[i] = ev

			return nil
		})
	}

	_ = eg.Wait()

	var combined error
	for _, err := range errs {
		combined = errors.CombineErrors(combined, err)
	}

	return results, combined
}
