package config

import (
	"time"

	"github.com/cockroachdb/errors"

	"github.com/smykla-skalski/sendguard/pkg/config"
)

var (
	// ErrInvalidConfig is returned when the configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrNegativeValue is returned when a count or limit is negative.
	ErrNegativeValue = errors.New("value must be non-negative")

	// ErrNonPositiveValue is returned when a value must be at least one.
	ErrNonPositiveValue = errors.New("value must be positive")

	// ErrHourlyExceedsDaily is returned when the hourly cap is above the daily cap.
	ErrHourlyExceedsDaily = errors.New("hourly_max exceeds daily_max")

	// ErrUnsupportedVersion is returned for config versions newer than this build.
	ErrUnsupportedVersion = errors.New("unsupported config version")
)

// Validator validates configuration semantics.
type Validator struct{}

// NewValidator creates a new Validator.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate validates the entire configuration.
// Returns an error describing all validation failures.
func (v *Validator) Validate(cfg *config.Config) error {
	if cfg == nil {
		return errors.WithMessage(ErrInvalidConfig, "config is nil")
	}

	var validationErrors []error

	if cfg.Version > config.CurrentConfigVersion {
		validationErrors = append(validationErrors, errors.Wrapf(
			ErrUnsupportedVersion,
			"version %d (latest supported: %d)",
			cfg.Version,
			config.CurrentConfigVersion,
		))
	}

	validationErrors = append(validationErrors, v.validateLimits(cfg.GetLimits())...)
	validationErrors = append(validationErrors, v.validateHealth(cfg.GetHealth())...)
	validationErrors = append(validationErrors, v.validateDurations(
		field{"policy.increase_interval", cfg.GetPolicy().GetIncreaseInterval()},
		field{"bucket.unconfigured_retry_after", cfg.GetBucket().GetUnconfiguredRetryAfter()},
		field{"bucket.min_retry_after", cfg.GetBucket().GetMinRetryAfter()},
		field{"scheduler.interval", cfg.GetScheduler().GetInterval()},
	)...)

	if n := cfg.GetScheduler().GetMaxWorkers(); n < 1 {
		validationErrors = append(validationErrors,
			errors.Wrapf(ErrNonPositiveValue, "scheduler.max_workers: %d", n))
	}

	audit := cfg.GetAudit()

	if n := audit.GetMaxSizeMB(); n < 0 {
		validationErrors = append(validationErrors,
			errors.Wrapf(ErrNegativeValue, "audit.max_size_mb: %d", n))
	}

	if n := audit.GetMaxBackups(); n < 0 {
		validationErrors = append(validationErrors,
			errors.Wrapf(ErrNegativeValue, "audit.max_backups: %d", n))
	}

	if len(validationErrors) > 0 {
		return errors.WithSecondaryError(
			errors.Wrapf(
				ErrInvalidConfig,
				"validation failed with %d error(s)",
				len(validationErrors),
			),
			combineErrors(validationErrors),
		)
	}

	return nil
}

type field struct {
	name  string
	value time.Duration
}

func (*Validator) validateLimits(cfg *config.LimitsConfig) []error {
	var errs []error

	for _, f := range []struct {
		name  string
		value int
	}{
		{"limits.tokens_per_minute", cfg.GetTokensPerMinute()},
		{"limits.bucket_size", cfg.GetBucketSize()},
		{"limits.daily_max", cfg.GetDailyMax()},
		{"limits.hourly_max", cfg.GetHourlyMax()},
	} {
		if f.value < 0 {
			errs = append(errs, errors.Wrapf(ErrNegativeValue, "%s: %d", f.name, f.value))
		}
	}

	if cfg.GetHourlyMax() > cfg.GetDailyMax() {
		errs = append(errs, errors.Wrapf(
			ErrHourlyExceedsDaily,
			"limits: %d > %d",
			cfg.GetHourlyMax(),
			cfg.GetDailyMax(),
		))
	}

	return errs
}

func (v *Validator) validateHealth(cfg *config.HealthConfig) []error {
	errs := v.validateDurations(
		field{"health.auth_failure_window", cfg.GetAuthFailureWindow()},
		field{"health.disconnect_window", cfg.GetDisconnectWindow()},
		field{"health.reset_window", cfg.GetResetWindow()},
		field{"health.cooldown", cfg.GetCooldown()},
		field{"health.strike_dedup_window", cfg.GetStrikeDedupWindow()},
	)

	if n := cfg.GetBlockStrikes(); n < 1 {
		errs = append(errs, errors.Wrapf(ErrNonPositiveValue, "health.block_strikes: %d", n))
	}

	return errs
}

func (*Validator) validateDurations(fields ...field) []error {
	var errs []error

	for _, f := range fields {
		if f.value <= 0 {
			errs = append(errs, errors.Wrapf(ErrNonPositiveValue, "%s: %s", f.name, f.value))
		}
	}

	return errs
}

// combineErrors combines multiple errors into one.
func combineErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}

	if len(errs) == 1 {
		return errs[0]
	}

	return errors.Join(errs...)
}
