package config

// Default values for audit configuration.
const (
	// DefaultAuditLogFile is the default audit log path.
	DefaultAuditLogFile = "~/.sendguard/audit.jsonl"

	// DefaultAuditMaxSizeMB is the max audit log size before rotation.
	DefaultAuditMaxSizeMB = 10

	// DefaultAuditMaxBackups is the number of backup files to keep.
	DefaultAuditMaxBackups = 3
)

// AuditConfig configures the strike and limit change audit trail.
type AuditConfig struct {
	// Enabled controls whether audit logging is active.
	// Default: true
	Enabled *bool `json:"enabled,omitempty" koanf:"enabled" toml:"enabled"`

	// LogFile is the path to the audit log file.
	// Default: "~/.sendguard/audit.jsonl"
	LogFile string `json:"log_file,omitempty" koanf:"log_file" toml:"log_file"`

	// MaxSizeMB is the maximum size of the audit log file before rotation.
	// Default: 10
	MaxSizeMB *int `json:"max_size_mb,omitempty" koanf:"max_size_mb" toml:"max_size_mb"`

	// MaxBackups is the number of rotated log files to keep.
	// Default: 3
	MaxBackups *int `json:"max_backups,omitempty" koanf:"max_backups" toml:"max_backups"`
}

// IsAuditEnabled returns true if audit logging is enabled.
// Returns true if Enabled is nil (default behavior).
func (a *AuditConfig) IsAuditEnabled() bool {
	if a == nil {
		return true
	}

	return orBool(a.Enabled, true)
}

// GetLogFile returns the audit log file path.
func (a *AuditConfig) GetLogFile() string {
	if a == nil || a.LogFile == "" {
		return DefaultAuditLogFile
	}

	return a.LogFile
}

// GetMaxSizeMB returns the max size before rotation.
func (a *AuditConfig) GetMaxSizeMB() int {
	if a == nil {
		return DefaultAuditMaxSizeMB
	}

	return orInt(a.MaxSizeMB, DefaultAuditMaxSizeMB)
}

// GetMaxBackups returns the number of backups to keep.
func (a *AuditConfig) GetMaxBackups() int {
	if a == nil {
		return DefaultAuditMaxBackups
	}

	return orInt(a.MaxBackups, DefaultAuditMaxBackups)
}
