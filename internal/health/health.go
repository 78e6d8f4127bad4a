// Package health classifies a session from its lifecycle counters and recent
// delivery statistics. The status is recomputed from scratch on every call;
// only strike and cooldown bookkeeping carries over between calls.
package health

import (
	"time"

	"github.com/smykla-skalski/sendguard/internal/session"
)

// Strike reasons recorded when a cooldown is triggered.
const (
	StrikeAuthFailurePattern = "auth_failure_pattern"
	StrikeResetAuthTimeout   = "reset_auth_timeout"
	StrikeManualCooldown     = "manual_cooldown"
)

// Scores reported for each outcome.
const (
	ScoreBlocked      = 0
	ScoreCooldown     = 20
	ScoreHealthy      = 90
	ScoreRisky        = 35
	ScoreTransitional = 60
	ScoreDisconnected = 50
	ScoreUnknown      = 0
)

// Human readable reasons.
const (
	ReasonBlocked             = "blocked after repeated strikes"
	ReasonCooldown            = "cooldown active"
	ReasonHealthy             = "connected with healthy delivery"
	ReasonDeliveryFailures    = "high delivery failure rate"
	ReasonDisconnectBurst     = "disconnect burst"
	ReasonAuthFailures        = "repeated auth failures"
	ReasonExcessiveReconnects = "excessive reconnects"
	ReasonLowReadRatio        = "low read ratio"
	ReasonNotConnected        = "session not fully connected"
	ReasonDisconnected        = "session disconnected"
	ReasonAuthFailed          = "authentication failed"
	ReasonNoSignals           = "no health signals"
)

// Options tune a single Compute call.
type Options struct {
	// Now is the evaluation time. Zero means time.Now().
	Now time.Time

	// ForceCooldown triggers a strike and cooldown regardless of patterns.
	ForceCooldown bool

	// StrikeReason overrides the reason recorded for a triggered strike.
	StrikeReason string

	// Rules overrides the default windows. Zero fields fall back to defaults.
	Rules Rules
}

// Signals are the patterns detected during a Compute call.
type Signals struct {
	RecentAuthFailure bool `json:"recent_auth_failure"`
	RecentDisconnect  bool `json:"recent_disconnect"`
	RecentReset       bool `json:"recent_reset"`

	AuthFailurePattern   bool `json:"auth_failure_pattern"`
	ResetStuck           bool `json:"reset_stuck"`
	DisconnectBurst      bool `json:"disconnect_burst"`
	DeliveryFailuresHigh bool `json:"delivery_failures_high"`
	ReadRatioLow         bool `json:"read_ratio_low"`
	ExcessiveReconnects  bool `json:"excessive_reconnects"`

	FailedRatio float64 `json:"failed_ratio"`
	ReadRatio   float64 `json:"read_ratio"`
}

// Result is the outcome of a classification. The health, strike and cooldown
// fields are what the caller writes back onto the session record.
type Result struct {
	Status    session.HealthStatus
	Score     int
	Reason    string
	UpdatedAt time.Time

	CooldownUntil    *time.Time
	StrikeCount      int
	LastStrikeAt     *time.Time
	LastStrikeReason string

	// StrikeAdded is true when this call incremented StrikeCount.
	StrikeAdded bool

	// Triggered is true when a cooldown trigger fired, deduplicated or not.
	Triggered bool

	Signals Signals
}

// Apply writes the result onto s.
func (r Result) Apply(s *session.Session) {
	updated := r.UpdatedAt

	s.HealthStatus = r.Status
	s.HealthScore = r.Score
	s.HealthReason = r.Reason
	s.HealthUpdatedAt = &updated
	s.CooldownUntil = r.CooldownUntil
	s.StrikeCount = r.StrikeCount
	s.LastStrikeAt = r.LastStrikeAt
	s.LastStrikeReason = r.LastStrikeReason
}

// Compute classifies s. It does not modify s.
func Compute(s *session.Session, stats session.RecentStats, opts Options) Result {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	rules := opts.Rules.orDefaults()
	sig := detect(s, stats, now, rules)

	res := Result{
		UpdatedAt:        now,
		StrikeCount:      nonNegative(s.StrikeCount),
		LastStrikeAt:     copyTime(s.LastStrikeAt),
		LastStrikeReason: s.LastStrikeReason,
		CooldownUntil:    copyTime(s.CooldownUntil),
		Signals:          sig,
	}

	res.Triggered = opts.ForceCooldown || sig.AuthFailurePattern || sig.ResetStuck

	switch {
	case res.Triggered:
		reason := opts.StrikeReason
		if reason == "" {
			reason = StrikeAuthFailurePattern
			if sig.ResetStuck {
				reason = StrikeResetAuthTimeout
			}
		}

		duplicate := res.LastStrikeReason == reason &&
			res.LastStrikeAt != nil &&
			now.Sub(*res.LastStrikeAt) < rules.StrikeDedupWindow

		if !duplicate {
			res.StrikeCount++
			res.LastStrikeAt = &now
			res.LastStrikeReason = reason
			res.StrikeAdded = true
		}

		until := now.Add(rules.Cooldown)
		if res.CooldownUntil == nil || until.After(*res.CooldownUntil) {
			res.CooldownUntil = &until
		}
	case res.CooldownUntil != nil && !res.CooldownUntil.After(now):
		res.CooldownUntil = nil
	}

	res.Status, res.Score, res.Reason = classify(s.Connection(), res, sig, rules, now)

	return res
}

func detect(s *session.Session, stats session.RecentStats, now time.Time, rules Rules) Signals {
	conn := s.Connection()

	sig := Signals{
		RecentAuthFailure: within(s.LastAuthFailureAt, now, rules.AuthFailureWindow),
		RecentDisconnect:  within(s.LastDisconnectAt, now, rules.DisconnectWindow),
		RecentReset:       within(s.LastResetAuthAt, now, rules.ResetWindow),
	}

	sig.AuthFailurePattern = sig.RecentAuthFailure &&
		(nonNegative(s.AuthFailureCount) >= minAuthFailures || conn == session.ConnectionAuthFailed)

	sig.ResetStuck = sig.RecentReset &&
		nonNegative(s.ResetAuthCount) >= minResetAuths &&
		conn.In(session.ConnectionInitializing, session.ConnectionReconnecting, session.ConnectionAuthFailed)

	sig.DisconnectBurst = sig.RecentDisconnect && nonNegative(s.DisconnectCount) >= minDisconnects
	sig.ExcessiveReconnects = nonNegative(s.ReconnectCount) >= maxReconnects

	sent := nonNegative(stats.Sent24h)
	failed := nonNegative(stats.Failed24h)
	delivered := nonNegative(stats.Delivered24h)
	read := nonNegative(stats.Read24h)

	sig.FailedRatio = ratio(failed, sent)
	sig.ReadRatio = ratio(read, delivered)

	sig.DeliveryFailuresHigh = (sent >= minSentForRatio && sig.FailedRatio >= maxFailedRatio) ||
		failed >= maxFailed
	sig.ReadRatioLow = delivered >= minDeliveredForRatio && sig.ReadRatio < minReadRatio

	return sig
}

func classify(
	conn session.ConnectionStatus,
	res Result,
	sig Signals,
	rules Rules,
	now time.Time,
) (session.HealthStatus, int, string) {
	switch {
	case res.StrikeCount >= rules.BlockStrikes:
		return session.HealthBlocked, ScoreBlocked, ReasonBlocked
	case res.CooldownUntil != nil && res.CooldownUntil.After(now):
		return session.HealthCooldown, ScoreCooldown, ReasonCooldown
	case conn == session.ConnectionConnected &&
		!sig.DeliveryFailuresHigh && !sig.ReadRatioLow && !sig.DisconnectBurst && !sig.AuthFailurePattern:
		return session.HealthHealthy, ScoreHealthy, ReasonHealthy
	}

	if reason, ok := riskReason(sig); ok {
		return session.HealthRisky, ScoreRisky, reason
	}

	switch {
	case sig.ReadRatioLow:
		return session.HealthWarning, ScoreTransitional, ReasonLowReadRatio
	case conn.In(session.ConnectionReconnecting, session.ConnectionInitializing, session.ConnectionAuthenticated):
		return session.HealthWarning, ScoreTransitional, ReasonNotConnected
	case conn == session.ConnectionDisconnected:
		return session.HealthWarning, ScoreDisconnected, ReasonDisconnected
	case conn == session.ConnectionAuthFailed:
		return session.HealthWarning, ScoreDisconnected, ReasonAuthFailed
	}

	return session.HealthUnknown, ScoreUnknown, ReasonNoSignals
}

func riskReason(sig Signals) (string, bool) {
	switch {
	case sig.DeliveryFailuresHigh:
		return ReasonDeliveryFailures, true
	case sig.DisconnectBurst:
		return ReasonDisconnectBurst, true
	case sig.AuthFailurePattern:
		return ReasonAuthFailures, true
	case sig.ExcessiveReconnects:
		return ReasonExcessiveReconnects, true
	}

	return "", false
}

func within(t *time.Time, now time.Time, window time.Duration) bool {
	return t != nil && !t.IsZero() && now.Sub(*t) <= window
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}

	return float64(num) / float64(den)
}

func nonNegative(n int) int {
	return max(n, 0)
}

func copyTime(t *time.Time) *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}

	c := *t

	return &c
}
