package config

import "time"

// DefaultIncreaseInterval is the minimum time between healthy limit increases.
const DefaultIncreaseInterval = 24 * time.Hour

// PolicyConfig tunes the adaptive limits policy.
type PolicyConfig struct {
	// IncreaseInterval is the minimum time between upward adjustments.
	// Default: "24h"
	IncreaseInterval Duration `json:"increase_interval,omitempty" koanf:"increase_interval" toml:"increase_interval"`
}

// GetIncreaseInterval returns the increase interval.
func (p *PolicyConfig) GetIncreaseInterval() time.Duration {
	if p == nil {
		return DefaultIncreaseInterval
	}

	return orDuration(p.IncreaseInterval, DefaultIncreaseInterval)
}
