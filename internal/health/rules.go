package health

import (
	"time"

	"github.com/smykla-skalski/sendguard/pkg/config"
)

// Pattern thresholds.
const (
	minAuthFailures      = 2
	minResetAuths        = 1
	minDisconnects       = 3
	maxReconnects        = 5
	minSentForRatio      = 20
	maxFailedRatio       = 0.35
	maxFailed            = 15
	minDeliveredForRatio = 15
	minReadRatio         = 0.2
)

// Rules holds the time windows and the block threshold the classifier uses.
type Rules struct {
	AuthFailureWindow time.Duration
	DisconnectWindow  time.Duration
	ResetWindow       time.Duration
	Cooldown          time.Duration
	StrikeDedupWindow time.Duration
	BlockStrikes      int
}

// DefaultRules returns the built-in windows: 6h auth failures, 24h
// disconnects, 20m resets, 24h cooldown, 1h strike dedup, block at 5.
func DefaultRules() Rules {
	return RulesFromConfig(nil)
}

// RulesFromConfig builds Rules from configuration, using defaults for
// anything unset.
func RulesFromConfig(cfg *config.HealthConfig) Rules {
	return Rules{
		AuthFailureWindow: cfg.GetAuthFailureWindow(),
		DisconnectWindow:  cfg.GetDisconnectWindow(),
		ResetWindow:       cfg.GetResetWindow(),
		Cooldown:          cfg.GetCooldown(),
		StrikeDedupWindow: cfg.GetStrikeDedupWindow(),
		BlockStrikes:      cfg.GetBlockStrikes(),
	}
}

func (r Rules) orDefaults() Rules {
	def := DefaultRules()

	if r.AuthFailureWindow <= 0 {
		r.AuthFailureWindow = def.AuthFailureWindow
	}

	if r.DisconnectWindow <= 0 {
		r.DisconnectWindow = def.DisconnectWindow
	}

	if r.ResetWindow <= 0 {
		r.ResetWindow = def.ResetWindow
	}

	if r.Cooldown <= 0 {
		r.Cooldown = def.Cooldown
	}

	if r.StrikeDedupWindow <= 0 {
		r.StrikeDedupWindow = def.StrikeDedupWindow
	}

	if r.BlockStrikes <= 0 {
		r.BlockStrikes = def.BlockStrikes
	}

	return r
}
