package config

import "time"

// Default health classifier settings.
const (
	DefaultAuthFailureWindow = 6 * time.Hour
	DefaultDisconnectWindow  = 24 * time.Hour
	DefaultResetWindow       = 20 * time.Minute
	DefaultCooldown          = 24 * time.Hour
	DefaultStrikeDedupWindow = time.Hour
	DefaultBlockStrikes      = 5
)

// HealthConfig tunes the health classifier.
type HealthConfig struct {
	// AuthFailureWindow is how long an auth failure counts as recent.
	// Default: "6h"
	AuthFailureWindow Duration `json:"auth_failure_window,omitempty" koanf:"auth_failure_window" toml:"auth_failure_window"`

	// DisconnectWindow is how long a disconnect counts as recent.
	// Default: "24h"
	DisconnectWindow Duration `json:"disconnect_window,omitempty" koanf:"disconnect_window" toml:"disconnect_window"`

	// ResetWindow is how long an auth reset counts as recent.
	// Default: "20m"
	ResetWindow Duration `json:"reset_window,omitempty" koanf:"reset_window" toml:"reset_window"`

	// Cooldown is how long a strike forces the session limits to zero.
	// Default: "24h"
	Cooldown Duration `json:"cooldown,omitempty" koanf:"cooldown" toml:"cooldown"`

	// StrikeDedupWindow suppresses repeated strikes with the same reason.
	// Default: "1h"
	StrikeDedupWindow Duration `json:"strike_dedup_window,omitempty" koanf:"strike_dedup_window" toml:"strike_dedup_window"`

	// BlockStrikes is the strike count at which a session is blocked for good.
	// Default: 5
	BlockStrikes *int `json:"block_strikes,omitempty" koanf:"block_strikes" toml:"block_strikes"`
}

// GetAuthFailureWindow returns the auth failure window.
func (h *HealthConfig) GetAuthFailureWindow() time.Duration {
	if h == nil {
		return DefaultAuthFailureWindow
	}

	return orDuration(h.AuthFailureWindow, DefaultAuthFailureWindow)
}

// GetDisconnectWindow returns the disconnect window.
func (h *HealthConfig) GetDisconnectWindow() time.Duration {
	if h == nil {
		return DefaultDisconnectWindow
	}

	return orDuration(h.DisconnectWindow, DefaultDisconnectWindow)
}

// GetResetWindow returns the auth reset window.
func (h *HealthConfig) GetResetWindow() time.Duration {
	if h == nil {
		return DefaultResetWindow
	}

	return orDuration(h.ResetWindow, DefaultResetWindow)
}

// GetCooldown returns the cooldown length.
func (h *HealthConfig) GetCooldown() time.Duration {
	if h == nil {
		return DefaultCooldown
	}

	return orDuration(h.Cooldown, DefaultCooldown)
}

// GetStrikeDedupWindow returns the strike dedup window.
func (h *HealthConfig) GetStrikeDedupWindow() time.Duration {
	if h == nil {
		return DefaultStrikeDedupWindow
	}

	return orDuration(h.StrikeDedupWindow, DefaultStrikeDedupWindow)
}

// GetBlockStrikes returns the blocking strike count.
func (h *HealthConfig) GetBlockStrikes() int {
	if h == nil {
		return DefaultBlockStrikes
	}

	return orInt(h.BlockStrikes, DefaultBlockStrikes)
}
