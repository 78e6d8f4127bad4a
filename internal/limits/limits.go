// Package limits defines per-session send limits and keeps them in a valid,
// internally consistent range.
package limits

// Fallback values used when a session has no limits yet.
const (
	DefaultTokensPerMinute = 6
	DefaultBucketSize      = 10
	DefaultDailyMax        = 200
	DefaultHourlyMax       = 60
)

// Absolute maxima. Normalize never returns anything above these.
const (
	MaxTokensPerMinute = 30
	MaxBucketSize      = 60
	MaxDailyMax        = 1200
	MaxHourlyMax       = 300
)

// SendLimits is the persisted rate-limit configuration of one session.
type SendLimits struct {
	TokensPerMinute int `json:"tokens_per_minute" yaml:"tokens_per_minute"`
	BucketSize      int `json:"bucket_size" yaml:"bucket_size"`
	DailyMax        int `json:"daily_max" yaml:"daily_max"`
	HourlyMax       int `json:"hourly_max" yaml:"hourly_max"`
}

// Defaults returns the fallback limits.
func Defaults() SendLimits {
	return SendLimits{
		TokensPerMinute: DefaultTokensPerMinute,
		BucketSize:      DefaultBucketSize,
		DailyMax:        DefaultDailyMax,
		HourlyMax:       DefaultHourlyMax,
	}
}

// Zero returns limits that admit nothing.
func Zero() SendLimits {
	return SendLimits{}
}

// IsZero reports whether every field is zero.
func (l SendLimits) IsZero() bool {
	return l == SendLimits{}
}

// AnyZero reports whether at least one field is zero.
func (l SendLimits) AnyZero() bool {
	return l.TokensPerMinute == 0 || l.BucketSize == 0 || l.DailyMax == 0 || l.HourlyMax == 0
}

// OrDefaults dereferences l, falling back to Defaults when it is nil.
func OrDefaults(l *SendLimits) SendLimits {
	if l == nil {
		return Defaults()
	}

	return *l
}

// Normalize clamps every field into [0, max] and enforces the cross-field
// invariants: HourlyMax <= DailyMax, TokensPerMinute == 0 implies
// BucketSize == 0, and a positive rate with an empty bucket gets a seeded
// bucket of min(TokensPerMinute, DefaultBucketSize).
func Normalize(l SendLimits) SendLimits {
	out := SendLimits{
		TokensPerMinute: clamp(l.TokensPerMinute, MaxTokensPerMinute),
		BucketSize:      clamp(l.BucketSize, MaxBucketSize),
		DailyMax:        clamp(l.DailyMax, MaxDailyMax),
		HourlyMax:       clamp(l.HourlyMax, MaxHourlyMax),
	}

	if out.HourlyMax > out.DailyMax {
		out.HourlyMax = out.DailyMax
	}

	switch {
	case out.TokensPerMinute == 0:
		out.BucketSize = 0
	case out.BucketSize == 0:
		out.BucketSize = min(out.TokensPerMinute, DefaultBucketSize)
	}

	return out
}

func clamp(v, upper int) int {
	return max(0, min(v, upper))
}
