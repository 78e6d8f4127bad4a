package config

// Default send limits for newly registered sessions.
const (
	DefaultTokensPerMinute = 6
	DefaultBucketSize      = 10
	DefaultDailyMax        = 200
	DefaultHourlyMax       = 60
)

// LimitsConfig holds the send limits assigned to a session when it is registered.
type LimitsConfig struct {
	// TokensPerMinute is the bucket refill rate.
	// Default: 6
	TokensPerMinute *int `json:"tokens_per_minute,omitempty" koanf:"tokens_per_minute" toml:"tokens_per_minute"`

	// BucketSize is the bucket capacity (burst).
	// Default: 10
	BucketSize *int `json:"bucket_size,omitempty" koanf:"bucket_size" toml:"bucket_size"`

	// DailyMax caps sends per rolling day window.
	// Default: 200
	DailyMax *int `json:"daily_max,omitempty" koanf:"daily_max" toml:"daily_max"`

	// HourlyMax caps sends per rolling hour window.
	// Default: 60
	HourlyMax *int `json:"hourly_max,omitempty" koanf:"hourly_max" toml:"hourly_max"`
}

// GetTokensPerMinute returns the refill rate, defaulting to DefaultTokensPerMinute.
func (l *LimitsConfig) GetTokensPerMinute() int {
	if l == nil {
		return DefaultTokensPerMinute
	}

	return orInt(l.TokensPerMinute, DefaultTokensPerMinute)
}

// GetBucketSize returns the bucket capacity, defaulting to DefaultBucketSize.
func (l *LimitsConfig) GetBucketSize() int {
	if l == nil {
		return DefaultBucketSize
	}

	return orInt(l.BucketSize, DefaultBucketSize)
}

// GetDailyMax returns the daily cap, defaulting to DefaultDailyMax.
func (l *LimitsConfig) GetDailyMax() int {
	if l == nil {
		return DefaultDailyMax
	}

	return orInt(l.DailyMax, DefaultDailyMax)
}

// GetHourlyMax returns the hourly cap, defaulting to DefaultHourlyMax.
func (l *LimitsConfig) GetHourlyMax() int {
	if l == nil {
		return DefaultHourlyMax
	}

	return orInt(l.HourlyMax, DefaultHourlyMax)
}
