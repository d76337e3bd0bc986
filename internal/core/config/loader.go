package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"reggie/internal/core/errors"
	"reggie/internal/engine/walk"
	"reggie/internal/shared/util"
)

const (
	defaultRegistryRoot = "HKLM"
	defaultFSRoot       = "."
	defaultOTLPEndpoint = "localhost:4317"
	defaultDebounce     = 500 * time.Millisecond
	defaultHistoryLimit = 20
	defaultBurst        = 1
)

var defaultExcludeDirs = []string{".git", "node_modules", "vendor"}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, errors.Wrap(err, errors.CodeValidationError, fmt.Sprintf("parse %s", path))
	}

	applyDefaults(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOptional loads path. When explicit is false a missing file yields the
// defaults; an explicitly named file must exist.
func LoadOptional(path string, explicit bool) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) && !explicit {
			return Default(), nil
		}
		return nil, errors.Wrap(err, errors.CodeValidationError, fmt.Sprintf("config %s", path))
	}
	return Load(path)
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}
	if strings.TrimSpace(cfg.Traversal.Strategy) == "" {
		cfg.Traversal.Strategy = string(walk.StrategySharedSet)
	}
	if strings.TrimSpace(cfg.Provider.Kind) == "" {
		cfg.Provider.Kind = ProviderRegistry
	}
	cfg.Provider.Kind = strings.ToLower(strings.TrimSpace(cfg.Provider.Kind))
	if cfg.Provider.Burst == 0 {
		cfg.Provider.Burst = defaultBurst
	}
	if strings.TrimSpace(cfg.History.Path) == "" {
		cfg.History.Path = util.StatePath("reggie", "history.db")
	}
	if cfg.History.Limit == 0 {
		cfg.History.Limit = defaultHistoryLimit
	}
	if strings.TrimSpace(cfg.Telemetry.TraceExporter) == "" {
		cfg.Telemetry.TraceExporter = ExporterNone
	}
	cfg.Telemetry.TraceExporter = strings.ToLower(strings.TrimSpace(cfg.Telemetry.TraceExporter))
	if strings.TrimSpace(cfg.Telemetry.OTLPEndpoint) == "" {
		cfg.Telemetry.OTLPEndpoint = defaultOTLPEndpoint
	}
	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = defaultDebounce
	}
	if cfg.Watch.ExcludeDirs == nil {
		cfg.Watch.ExcludeDirs = append([]string(nil), defaultExcludeDirs...)
	}
}
