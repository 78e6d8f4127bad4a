package config

import "time"

// Default token bucket settings.
const (
	DefaultUnconfiguredRetryAfter = time.Minute
	DefaultMinRetryAfter          = 250 * time.Millisecond
)

// BucketConfig tunes the token bucket limiter.
type BucketConfig struct {
	// UnconfiguredRetryAfter is returned when a session has no usable bucket.
	// Default: "1m"
	UnconfiguredRetryAfter Duration `json:"unconfigured_retry_after,omitempty" koanf:"unconfigured_retry_after" toml:"unconfigured_retry_after"`

	// MinRetryAfter is the floor for computed retry hints.
	// Default: "250ms"
	MinRetryAfter Duration `json:"min_retry_after,omitempty" koanf:"min_retry_after" toml:"min_retry_after"`
}

// GetUnconfiguredRetryAfter returns the retry hint for unconfigured sessions.
func (b *BucketConfig) GetUnconfiguredRetryAfter() time.Duration {
	if b == nil {
		return DefaultUnconfiguredRetryAfter
	}

	return orDuration(b.UnconfiguredRetryAfter, DefaultUnconfiguredRetryAfter)
}

// GetMinRetryAfter returns the retry hint floor.
func (b *BucketConfig) GetMinRetryAfter() time.Duration {
	if b == nil {
		return DefaultMinRetryAfter
	}

	return orDuration(b.MinRetryAfter, DefaultMinRetryAfter)
}
