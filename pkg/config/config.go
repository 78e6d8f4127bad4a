// Package config provides configuration schema types for sendguard.
package config

// CurrentConfigVersion is the latest config schema version.
const CurrentConfigVersion = 1

// Config represents the root configuration for sendguard.
type Config struct {
	// Version is the config schema version. Defaults to 1 when omitted.
	Version int `json:"version,omitempty" koanf:"version" toml:"version,omitempty"`

	// Limits holds the send limits given to newly registered sessions.
	Limits *LimitsConfig `json:"limits,omitempty" koanf:"limits" toml:"limits,omitempty"`

	// Health tunes the health classifier windows and strike threshold.
	Health *HealthConfig `json:"health,omitempty" koanf:"health" toml:"health,omitempty"`

	// Policy tunes the adaptive limits policy.
	Policy *PolicyConfig `json:"policy,omitempty" koanf:"policy" toml:"policy,omitempty"`

	// Bucket tunes the token bucket limiter.
	Bucket *BucketConfig `json:"bucket,omitempty" koanf:"bucket" toml:"bucket,omitempty"`

	// Store configures the session record store.
	Store *StoreConfig `json:"store,omitempty" koanf:"store" toml:"store,omitempty"`

	// Audit configures the audit trail of strikes and limit changes.
	Audit *AuditConfig `json:"audit,omitempty" koanf:"audit" toml:"audit,omitempty"`

	// Metrics configures Prometheus metrics.
	Metrics *MetricsConfig `json:"metrics,omitempty" koanf:"metrics" toml:"metrics,omitempty"`

	// Scheduler configures periodic evaluation.
	Scheduler *SchedulerConfig `json:"scheduler,omitempty" koanf:"scheduler" toml:"scheduler,omitempty"`
}

// GetLimits returns the limits config, never nil.
func (c *Config) GetLimits() *LimitsConfig {
	if c == nil || c.Limits == nil {
		return &LimitsConfig{}
	}

	return c.Limits
}

// GetHealth returns the health config, never nil.
func (c *Config) GetHealth() *HealthConfig {
	if c == nil || c.Health == nil {
		return &HealthConfig{}
	}

	return c.Health
}

// GetPolicy returns the policy config, never nil.
func (c *Config) GetPolicy() *PolicyConfig {
	if c == nil || c.Policy == nil {
		return &PolicyConfig{}
	}

	return c.Policy
}

// GetBucket returns the bucket config, never nil.
func (c *Config) GetBucket() *BucketConfig {
	if c == nil || c.Bucket == nil {
		return &BucketConfig{}
	}

	return c.Bucket
}

// GetStore returns the store config, never nil.
func (c *Config) GetStore() *StoreConfig {
	if c == nil || c.Store == nil {
		return &StoreConfig{}
	}

	return c.Store
}

// GetAudit returns the audit config, never nil.
func (c *Config) GetAudit() *AuditConfig {
	if c == nil || c.Audit == nil {
		return &AuditConfig{}
	}

	return c.Audit
}

// GetMetrics returns the metrics config, never nil.
func (c *Config) GetMetrics() *MetricsConfig {
	if c == nil || c.Metrics == nil {
		return &MetricsConfig{}
	}

	return c.Metrics
}

// GetScheduler returns the scheduler config, never nil.
func (c *Config) GetScheduler() *SchedulerConfig {
	if c == nil || c.Scheduler == nil {
		return &SchedulerConfig{}
	}

	return c.Scheduler
}
