package config

import (
	"time"
)

// DefaultPath is consulted when no --config flag is given. Its absence is not
// an error.
const DefaultPath = "reggie.toml"

// Provider kinds.
const (
	ProviderRegistry = "registry"
	ProviderFS       = "fs"
	ProviderSnapshot = "snapshot"
)

// Trace exporters.
const (
	ExporterNone = "none"
	ExporterOTLP = "otlp"
)

type Config struct {
	Version   int       `toml:"version"`
	Traversal Traversal `toml:"traversal"`
	Provider  Provider  `toml:"provider"`
	Filter    Filter    `toml:"filter"`
	Output    Output    `toml:"output"`
	History   History   `toml:"history"`
	Metrics   Metrics   `toml:"metrics"`
	Telemetry Telemetry `toml:"telemetry"`
	Watch     Watch     `toml:"watch"`
}

type Traversal struct {
	Root     string `toml:"root"`
	Strategy string `toml:"strategy"`
	// Threads <= 0 means one worker per available CPU.
	Threads int `toml:"threads"`
}

type Provider struct {
	Kind string `toml:"kind"`
	// Source is the snapshot database path for the snapshot provider.
	Source    string  `toml:"source"`
	RateLimit float64 `toml:"rate_limit"`
	Burst     int     `toml:"burst"`
}

type Filter struct {
	Pattern string `toml:"pattern"`
	Glob    string `toml:"glob"`
}

type Output struct {
	Print bool `toml:"print"`
	Count bool `toml:"count"`
	Time  bool `toml:"time"`
}

type History struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
	Limit   int    `toml:"limit"`
}

type Metrics struct {
	Textfile string `toml:"textfile"`
}

type Telemetry struct {
	TraceExporter string `toml:"trace_exporter"`
	OTLPEndpoint  string `toml:"otlp_endpoint"`
	OTLPInsecure  bool   `toml:"otlp_insecure"`
}

type Watch struct {
	Enabled     bool          `toml:"enabled"`
	Debounce    time.Duration `toml:"debounce"`
	ExcludeDirs []string      `toml:"exclude_dirs"`
}

// Default returns a fully defaulted configuration.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}
