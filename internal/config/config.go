// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers a YAML file and the environment over those defaults.
// - Errors wrap this package's sentinel kinds.
package config

import (
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the update queue. Zero means unbounded.
	QueueSize int `koanf:"queue_size"`

	// YieldEvery is how many events the drain applies between scheduler yields.
	YieldEvery int `koanf:"yield_every"`

	// DedupeSize sets the size of the event-ID deduplication cache.
	DedupeSize int `koanf:"dedupe_size"`

	// SeedPath optionally names a YAML or JSON snapshot loaded at startup.
	SeedPath string `koanf:"seed_path"`

	// DrainTimeoutMS caps how long POST /drain waits for the queue to empty.
	DrainTimeoutMS int `koanf:"drain_timeout_ms"`

	// DiagnosticsSize is how many dropped-event diagnostics are retained.
	DiagnosticsSize int `koanf:"diagnostics_size"`

	// Metrics configures the Prometheus metric names and event counters.
	MetricsNamespace string            `koanf:"metrics_namespace"`
	MetricsSubsystem string            `koanf:"metrics_subsystem"`
	MetricsEnabled   bool              `koanf:"metrics_enabled"`
	MetricsLabels    map[string]string `koanf:"metrics_labels"`

	// MetricsRefreshMS is how often process gauges are refreshed.
	MetricsRefreshMS int `koanf:"metrics_refresh_ms"`
}

// New creates a Config holding the defaults.
func New() *Config {
	return &Config{
		LogLevel:        "info",
		LogFormat:       "text",
		Addr:            ":9080",
		QueueSize:       100_000,
		YieldEvery:      10,
		DedupeSize:      50_000,
		DrainTimeoutMS:  30_000,
		DiagnosticsSize: 256,

		MetricsNamespace: "cider",
		MetricsSubsystem: "analytics",
		MetricsEnabled:   true,
		MetricsRefreshMS: 10_000,
	}
}

// MetricsRefresh returns MetricsRefreshMS as a duration.
func (c *Config) MetricsRefresh() time.Duration {
	return time.Duration(c.MetricsRefreshMS) * time.Millisecond
}

// DrainTimeout returns DrainTimeoutMS as a duration.
func (c *Config) DrainTimeout() time.Duration {
	return time.Duration(c.DrainTimeoutMS) * time.Millisecond
}
