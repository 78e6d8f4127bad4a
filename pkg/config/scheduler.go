package config

import "time"

// Default scheduler settings.
const (
	DefaultSchedulerMaxWorkers = 4
	DefaultSchedulerInterval   = 5 * time.Minute
)

// SchedulerConfig configures periodic evaluation of all sessions.
type SchedulerConfig struct {
	// MaxWorkers bounds how many sessions are evaluated concurrently.
	// Default: 4
	MaxWorkers *int `json:"max_workers,omitempty" koanf:"max_workers" toml:"max_workers"`

	// Interval is the pause between evaluation passes while serving.
	// Default: "5m"
	Interval Duration `json:"interval,omitempty" koanf:"interval" toml:"interval"`
}

// GetMaxWorkers returns the worker bound.
func (s *SchedulerConfig) GetMaxWorkers() int {
	if s == nil {
		return DefaultSchedulerMaxWorkers
	}

	return orInt(s.MaxWorkers, DefaultSchedulerMaxWorkers)
}

// GetInterval returns the evaluation interval.
func (s *SchedulerConfig) GetInterval() time.Duration {
	if s == nil {
		return DefaultSchedulerInterval
	}

	return orDuration(s.Interval, DefaultSchedulerInterval)
}
