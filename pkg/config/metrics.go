package config

// Default metrics settings.
const (
	// DefaultMetricsNamespace prefixes every exported metric name.
	DefaultMetricsNamespace = "sendguard"

	// DefaultMetricsListen is the address serve exposes its HTTP API and /metrics on.
	DefaultMetricsListen = "127.0.0.1:9464"
)

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	// Enabled controls whether metrics are collected.
	// Default: false
	Enabled *bool `json:"enabled,omitempty" koanf:"enabled" toml:"enabled"`

	// Namespace prefixes metric names.
	// Default: "sendguard"
	Namespace string `json:"namespace,omitempty" koanf:"namespace" toml:"namespace"`

	// Listen is the address the serve command listens on.
	// Default: "127.0.0.1:9464"
	Listen string `json:"listen,omitempty" koanf:"listen" toml:"listen"`
}

// IsMetricsEnabled returns true if metrics are enabled.
func (m *MetricsConfig) IsMetricsEnabled() bool {
	if m == nil {
		return false
	}

	return orBool(m.Enabled, false)
}

// GetNamespace returns the metric namespace.
func (m *MetricsConfig) GetNamespace() string {
	if m == nil || m.Namespace == "" {
		return DefaultMetricsNamespace
	}

	return m.Namespace
}

// GetListen returns the metrics listen address.
func (m *MetricsConfig) GetListen() string {
	if m == nil || m.Listen == "" {
		return DefaultMetricsListen
	}

	return m.Listen
}
