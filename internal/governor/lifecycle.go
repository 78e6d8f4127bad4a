package governor

import (
	"context"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/smykla-skalski/sendguard/internal/audit"
	"github.com/smykla-skalski/sendguard/internal/health"
	"github.com/smykla-skalski/sendguard/internal/limits"
	"github.com/smykla-skalski/sendguard/internal/policy"
	"github.com/smykla-skalski/sendguard/internal/session"
)

// EventKind names a lifecycle event reported for a session.
type EventKind string

// Lifecycle events.
const (
	EventAuthFailure EventKind = "auth_failure"
	EventDisconnect  EventKind = "disconnect"
	EventReconnect   EventKind = "reconnect"
	EventResetAuth   EventKind = "reset_auth"
	EventStatus      EventKind = "status"
)

// EventKinds lists every supported event kind.
func EventKinds() []EventKind {
	return []EventKind{EventAuthFailure, EventDisconnect, EventReconnect, EventResetAuth, EventStatus}
}

// Event is one lifecycle observation.
type Event struct {
	Kind EventKind `json:"kind"`

	// Status overrides the connection status the event implies. Required for
	// EventStatus.
	Status string `json:"status,omitempty"`

	// At is when the event happened. Zero means now.
	At time.Time `json:"at"`
}

// Register creates a session with the default limits and configures its bucket.
func (g *Governor) Register(ctx context.Context, id string) (*session.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	id = strings.TrimSpace(id)

	unlock := g.lock(id)
	defer unlock()

	rec := session.New(id, g.defaultLimits, g.now())
	if err := g.store.Create(rec); err != nil {
		return nil, err
	}

	g.configureLimiter(id, rec.Limits())

	g.logger.Info("session registered", "session_id", id)

	return rec, nil
}

// Remove deletes a session and drops its bucket.
func (g *Governor) Remove(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	unlock := g.lock(id)
	defer unlock()

	if err := g.store.Delete(id); err != nil {
		return err
	}

	g.limiter.Reset(id)
	g.metrics.Forget(id)

	g.logger.Info("session removed", "session_id", id)

	return nil
}

// Restore configures the limiter from persisted limits for every stored
// session. Bucket state is in memory only, so a new process calls this before
// admitting sends.
func (g *Governor) Restore(ctx context.Context) (int, error) {
	restored := 0

	for _, id := range g.store.IDs() {
		if err := ctx.Err(); err != nil {
			return restored, err
		}

		rec, err := g.store.Get(id)
		if err != nil {
			return restored, err
		}

		g.configureLimiter(id, rec.Limits())
		restored++
	}

	g.logger.Debug("limiter restored", "sessions", restored)

	return restored, nil
}

// RecordEvent applies a lifecycle event to the session counters and
// re-evaluates it.
func (g *Governor) RecordEvent(ctx context.Context, id string, ev Event) (*Evaluation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	unlock := g.lock(id)
	defer unlock()

	rec, err := g.store.Get(id)
	if err != nil {
		return nil, err
	}

	at := ev.At
	if at.IsZero() {
		at = g.now()
	}

	status := ev.Status

	switch ev.Kind {
	case EventAuthFailure:
		rec.AuthFailureCount++
		rec.LastAuthFailureAt = &at
		status = orStatus(status, session.ConnectionAuthFailed)
	case EventDisconnect:
		rec.DisconnectCount++
		rec.LastDisconnectAt = &at
		status = orStatus(status, session.ConnectionDisconnected)
	case EventReconnect:
		rec.ReconnectCount++
		status = orStatus(status, session.ConnectionReconnecting)
	case EventResetAuth:
		rec.ResetAuthCount++
		rec.LastResetAuthAt = &at
		status = orStatus(status, session.ConnectionInitializing)
	case EventStatus:
		if strings.TrimSpace(status) == "" {
			return nil, errors.Wrap(ErrUnknownEvent, "status event without a status")
		}
	default:
		return nil, errors.Wrapf(ErrUnknownEvent, "%q", ev.Kind)
	}

	rec.Status = status

	g.logger.Debug("lifecycle event recorded",
		"session_id", id,
		"event", string(ev.Kind),
		"status", status,
	)

	return g.evaluateLocked(ctx, rec, health.Options{})
}

// SetLimits installs limits chosen by an operator.
func (g *Governor) SetLimits(ctx context.Context, id string, l limits.SendLimits) (*session.Session, error) {
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
	normalized := limits.Normalize(l)

	policy.Result{
		Changed:           true,
		SendLimits:        normalized,
		LastLimitUpdateAt: &now,
		LimitChangeReason: policy.ReasonManualOverride,
	}.Apply(rec)

	if err := g.store.Put(rec); err != nil {
		return nil, err
	}

	g.configureLimiter(id, normalized)
	g.metrics.LimitChange(id, policy.ReasonManualOverride, normalized)

	entry := audit.NewEntry(audit.KindLimitChange, id, now)
	entry.HealthStatus = rec.HealthStatus.String()
	entry.Reason = policy.ReasonManualOverride
	entry.StrikeCount = rec.StrikeCount
	entry.Limits = &normalized
	g.audit(entry)

	return rec, nil
}

// Unblock clears strikes and any cooldown, then re-evaluates. It is the
// administrative way out of the blocked state.
func (g *Governor) Unblock(ctx context.Context, id string) (*Evaluation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	unlock := g.lock(id)
	defer unlock()

	rec, err := g.store.Get(id)
	if err != nil {
		return nil, err
	}

	rec.StrikeCount = 0
	rec.LastStrikeAt = nil
	rec.LastStrikeReason = ""
	rec.CooldownUntil = nil

	g.logger.Info("session unblocked", "session_id", id)

	return g.evaluateLocked(ctx, rec, health.Options{})
}

func orStatus(status string, def session.ConnectionStatus) string {
	if strings.TrimSpace(status) != "" {
		return status
	}

	return def.String()
}
