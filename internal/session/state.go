// Package session holds the session record the throughput engine reads and
// updates, and a file-backed store for those records.
package session

import (
	"time"

	"github.com/smykla-skalski/sendguard/internal/counters"
	"github.com/smykla-skalski/sendguard/internal/limits"
)

// Session is one sending identity. Lifecycle counters and timestamps are
// written by whoever tracks the connection; health, strike and limit fields
// are written back from the classifier and the policy.
type Session struct {
	// ID is the unique session identifier.
	ID string `json:"id" yaml:"id"`

	// Status is the connection status as reported by the lifecycle manager.
	// Compared case-insensitively, see Connection.
	Status string `json:"status" yaml:"status"`

	AuthFailureCount int `json:"auth_failure_count" yaml:"auth_failure_count"`
	DisconnectCount  int `json:"disconnect_count" yaml:"disconnect_count"`
	ReconnectCount   int `json:"reconnect_count" yaml:"reconnect_count"`
	ResetAuthCount   int `json:"reset_auth_count" yaml:"reset_auth_count"`

	LastAuthFailureAt *time.Time `json:"last_auth_failure_at,omitempty" yaml:"last_auth_failure_at,omitempty"`
	LastDisconnectAt  *time.Time `json:"last_disconnect_at,omitempty" yaml:"last_disconnect_at,omitempty"`
	LastResetAuthAt   *time.Time `json:"last_reset_auth_at,omitempty" yaml:"last_reset_auth_at,omitempty"`

	HealthStatus    HealthStatus `json:"health_status" yaml:"health_status"`
	HealthScore     int          `json:"health_score" yaml:"health_score"`
	HealthReason    string       `json:"health_reason,omitempty" yaml:"health_reason,omitempty"`
	HealthUpdatedAt *time.Time   `json:"health_updated_at,omitempty" yaml:"health_updated_at,omitempty"`

	StrikeCount      int        `json:"strike_count" yaml:"strike_count"`
	LastStrikeAt     *time.Time `json:"last_strike_at,omitempty" yaml:"last_strike_at,omitempty"`
	LastStrikeReason string     `json:"last_strike_reason,omitempty" yaml:"last_strike_reason,omitempty"`

	// CooldownUntil is set while a cooldown is pending. It lapses on its own
	// once in the past and is cleared by the next evaluation.
	CooldownUntil *time.Time `json:"cooldown_until,omitempty" yaml:"cooldown_until,omitempty"`

	// SendLimits is nil until limits are first assigned.
	SendLimits        *limits.SendLimits `json:"send_limits,omitempty" yaml:"send_limits,omitempty"`
	LastLimitUpdateAt *time.Time         `json:"last_limit_update_at,omitempty" yaml:"last_limit_update_at,omitempty"`
	LimitChangeReason string             `json:"limit_change_reason,omitempty" yaml:"limit_change_reason,omitempty"`

	Counters counters.Window `json:"counters" yaml:"counters"`

	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// New returns a freshly registered session with default bookkeeping.
func New(id string, l limits.SendLimits, now time.Time) *Session {
	normalized := limits.Normalize(l)

	return &Session{
		ID:           id,
		Status:       ConnectionInitializing.String(),
		HealthStatus: HealthUnknown,
		SendLimits:   &normalized,
		CreatedAt:    now,
	}
}

// Connection parses Status into a ConnectionStatus.
func (s *Session) Connection() ConnectionStatus {
	return ParseConnectionStatus(s.Status)
}

// Limits returns the session limits, falling back to defaults when unset.
func (s *Session) Limits() limits.SendLimits {
	return limits.Normalize(limits.OrDefaults(s.SendLimits))
}

// InCooldown reports whether a cooldown is pending at now.
func (s *Session) InCooldown(now time.Time) bool {
	return s.CooldownUntil != nil && s.CooldownUntil.After(now)
}

// Clone returns a copy that shares no mutable state with s.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}

	c := *s
	c.LastAuthFailureAt = cloneTime(s.LastAuthFailureAt)
	c.LastDisconnectAt = cloneTime(s.LastDisconnectAt)
	c.LastResetAuthAt = cloneTime(s.LastResetAuthAt)
	c.HealthUpdatedAt = cloneTime(s.HealthUpdatedAt)
	c.LastStrikeAt = cloneTime(s.LastStrikeAt)
	c.CooldownUntil = cloneTime(s.CooldownUntil)
	c.LastLimitUpdateAt = cloneTime(s.LastLimitUpdateAt)
	c.Counters.DayStart = cloneTime(s.Counters.DayStart)
	c.Counters.HourStart = cloneTime(s.Counters.HourStart)

	if s.SendLimits != nil {
		l := *s.SendLimits
		c.SendLimits = &l
	}

	return &c
}

// RecentStats are the 24 hour delivery counts an external aggregator
// computes from message history.
type RecentStats struct {
	Sent24h      int `json:"sent24h" yaml:"sent24h"`
	Delivered24h int `json:"delivered24h" yaml:"delivered24h"`
	Read24h      int `json:"read24h" yaml:"read24h"`
	Failed24h    int `json:"failed24h" yaml:"failed24h"`
}

// State contains every stored session.
type State struct {
	// Sessions maps session ID to its record.
	Sessions map[string]*Session `json:"sessions"`

	// LastUpdated is when the state was last modified.
	LastUpdated time.Time `json:"last_updated"`
}

// NewState creates a new empty state.
func NewState() *State {
	return &State{
		Sessions:    make(map[string]*Session),
		LastUpdated: time.Now(),
	}
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}

	c := *t

	return &c
}
