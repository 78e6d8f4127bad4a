package config

import (
	"github.com/smykla-skalski/sendguard/pkg/config"
)

// DefaultConfig returns a Config with all default values populated.
func DefaultConfig() *config.Config {
	var (
		tpm          = config.DefaultTokensPerMinute
		bucketSize   = config.DefaultBucketSize
		dailyMax     = config.DefaultDailyMax
		hourlyMax    = config.DefaultHourlyMax
		blockStrikes = config.DefaultBlockStrikes
		auditOn      = true
		maxSizeMB    = config.DefaultAuditMaxSizeMB
		maxBackups   = config.DefaultAuditMaxBackups
		metricsOn    = false
		maxWorkers   = config.DefaultSchedulerMaxWorkers
	)

	return &config.Config{
		Version: config.CurrentConfigVersion,
		Limits: &config.LimitsConfig{
			TokensPerMinute: &tpm,
			BucketSize:      &bucketSize,
			DailyMax:        &dailyMax,
			HourlyMax:       &hourlyMax,
		},
		Health: &config.HealthConfig{
			AuthFailureWindow: config.Duration(config.DefaultAuthFailureWindow),
			DisconnectWindow:  config.Duration(config.DefaultDisconnectWindow),
			ResetWindow:       config.Duration(config.DefaultResetWindow),
			Cooldown:          config.Duration(config.DefaultCooldown),
			StrikeDedupWindow: config.Duration(config.DefaultStrikeDedupWindow),
			BlockStrikes:      &blockStrikes,
		},
		Policy: &config.PolicyConfig{
			IncreaseInterval: config.Duration(config.DefaultIncreaseInterval),
		},
		Bucket: &config.BucketConfig{
			UnconfiguredRetryAfter: config.Duration(config.DefaultUnconfiguredRetryAfter),
			MinRetryAfter:          config.Duration(config.DefaultMinRetryAfter),
		},
		Store: &config.StoreConfig{
			StateFile: config.DefaultStoreStateFile,
		},
		Audit: &config.AuditConfig{
			Enabled:    &auditOn,
			LogFile:    config.DefaultAuditLogFile,
			MaxSizeMB:  &maxSizeMB,
			MaxBackups: &maxBackups,
		},
		Metrics: &config.MetricsConfig{
			Enabled:   &metricsOn,
			Namespace: config.DefaultMetricsNamespace,
		},
		Scheduler: &config.SchedulerConfig{
			MaxWorkers: &maxWorkers,
			Interval:   config.Duration(config.DefaultSchedulerInterval),
		},
	}
}

// defaultsToMap converts the defaults to a map for koanf loading.
func defaultsToMap() map[string]any {
	return map[string]any{
		"version": config.CurrentConfigVersion,
		"limits": map[string]any{
			"tokens_per_minute": config.DefaultTokensPerMinute,
			"bucket_size":       config.DefaultBucketSize,
			"daily_max":         config.DefaultDailyMax,
			"hourly_max":        config.DefaultHourlyMax,
		},
		"health": map[string]any{
			"auth_failure_window": config.DefaultAuthFailureWindow.String(),
			"disconnect_window":   config.DefaultDisconnectWindow.String(),
			"reset_window":        config.DefaultResetWindow.String(),
			"cooldown":            config.DefaultCooldown.String(),
			"strike_dedup_window": config.DefaultStrikeDedupWindow.String(),
			"block_strikes":       config.DefaultBlockStrikes,
		},
		"policy": map[string]any{
			"increase_interval": config.DefaultIncreaseInterval.String(),
		},
		"bucket": map[string]any{
			"unconfigured_retry_after": config.DefaultUnconfiguredRetryAfter.String(),
			"min_retry_after":          config.DefaultMinRetryAfter.String(),
		},
		"store": map[string]any{
			"state_file": config.DefaultStoreStateFile,
		},
		"audit": map[string]any{
			"enabled":     true,
			"log_file":    config.DefaultAuditLogFile,
			"max_size_mb": config.DefaultAuditMaxSizeMB,
			"max_backups": config.DefaultAuditMaxBackups,
		},
		"metrics": map[string]any{
			"enabled":   false,
			"namespace": config.DefaultMetricsNamespace,
			"listen":    config.DefaultMetricsListen,
		},
		"scheduler": map[string]any{
			"max_workers": config.DefaultSchedulerMaxWorkers,
			"interval":    config.DefaultSchedulerInterval.String(),
		},
	}
}
