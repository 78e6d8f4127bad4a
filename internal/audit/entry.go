package audit

import (
	"time"

	"github.com/google/uuid"

	"github.com/smykla-skalski/sendguard/internal/limits"
)

// Kind identifies what an audit entry records.
type Kind string

const (
	// KindStrike records a strike added by the health classifier.
	KindStrike Kind = "strike"

	// KindLimitChange records a change of a session's send limits.
	KindLimitChange Kind = "limit_change"

	// KindStatusChange records a change of a session's health status.
	KindStatusChange Kind = "status_change"
)

// Entry is one line of the audit log.
type Entry struct {
	// ID is a random identifier for the entry.
	ID string `json:"id"`

	Timestamp time.Time `json:"timestamp"`
	SessionID string    `json:"session_id"`
	Kind      Kind      `json:"kind"`

	// HealthStatus is the health status after the change.
	HealthStatus string `json:"health_status,omitempty"`

	// PreviousStatus is set for status changes.
	PreviousStatus string `json:"previous_status,omitempty"`

	// Reason is the strike reason, limit change reason or health reason.
	Reason string `json:"reason,omitempty"`

	StrikeCount int                `json:"strike_count"`
	Limits      *limits.SendLimits `json:"limits,omitempty"`
}

// NewEntry returns an entry with a fresh ID.
func NewEntry(kind Kind, sessionID string, ts time.Time) *Entry {
	return &Entry{
		ID:        uuid.NewString(),
		Timestamp: ts,
		SessionID: sessionID,
		Kind:      kind,
	}
}
