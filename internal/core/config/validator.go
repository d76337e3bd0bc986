package config

import (
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/gobwas/glob"

	"reggie/internal/core/errors"
	"reggie/internal/engine/filter"
	"reggie/internal/engine/walk"
	"reggie/internal/provider"
)

// Validate checks cfg and canonicalizes the strategy name. Failures carry
// CodeValidationError.
func Validate(cfg *Config) error {
	for _, check := range []func(*Config) error{
		validateVersion,
		validateProvider,
		validateTraversal,
		validateFilter,
		validateHistory,
		validateTelemetry,
		validateWatch,
	} {
		if err := check(cfg); err != nil {
			return errors.Wrap(err, errors.CodeValidationError, "invalid configuration")
		}
	}
	return nil
}

func validateVersion(cfg *Config) error {
	if cfg.Version != 1 {
		return fmt.Errorf("unsupported config version %d; supported version is 1", cfg.Version)
	}
	return nil
}

// ErrUnknownHive marks a registry root that names no known hive.
var ErrUnknownHive = stderrors.New("unknown hive")

// validateTraversal fills in the provider's default root and labels registry
// roots with the hive's short name, however the hive was spelled.
func validateTraversal(cfg *Config) error {
	root := strings.TrimSpace(cfg.Traversal.Root)
	switch cfg.Provider.Kind {
	case ProviderRegistry:
		if root == "" {
			root = defaultRegistryRoot
		}
		hive, ok := provider.LookupHive(root)
		if !ok {
			return fmt.Errorf("traversal.root: %w %q", ErrUnknownHive, root)
		}
		root = hive.Short
	case ProviderFS:
		if root == "" {
			root = defaultFSRoot
		}
	default:
		if root == "" {
			return fmt.Errorf("traversal.root is required for the %s provider", cfg.Provider.Kind)
		}
	}
	cfg.Traversal.Root = root
	s, err := walk.ParseStrategy(cfg.Traversal.Strategy)
	if err != nil {
		return fmt.Errorf("traversal.strategy: %w", err)
	}
	cfg.Traversal.Strategy = string(s)
	if cfg.Traversal.Threads < 0 {
		return fmt.Errorf("traversal.threads must be >= 0, got %d", cfg.Traversal.Threads)
	}
	return nil
}

func validateProvider(cfg *Config) error {
	switch cfg.Provider.Kind {
	case ProviderRegistry, ProviderFS:
	case ProviderSnapshot:
		if strings.TrimSpace(cfg.Provider.Source) == "" {
			return fmt.Errorf("provider.source is required for the snapshot provider")
		}
	default:
		return fmt.Errorf("provider.kind must be one of: registry, fs, snapshot, got %q", cfg.Provider.Kind)
	}
	if cfg.Provider.RateLimit < 0 {
		return fmt.Errorf("provider.rate_limit must be >= 0, got %v", cfg.Provider.RateLimit)
	}
	if cfg.Provider.Burst < 0 {
		return fmt.Errorf("provider.burst must be >= 0, got %d", cfg.Provider.Burst)
	}
	return nil
}

func validateFilter(cfg *Config) error {
	_, err := filter.New(cfg.Filter.Pattern, cfg.Filter.Glob)
	return err
}

func validateHistory(cfg *Config) error {
	if cfg.History.Enabled && strings.TrimSpace(cfg.History.Path) == "" {
		return fmt.Errorf("history.path must not be empty when history is enabled")
	}
	if cfg.History.Limit < 0 {
		return fmt.Errorf("history.limit must be >= 0, got %d", cfg.History.Limit)
	}
	return nil
}

func validateTelemetry(cfg *Config) error {
	switch cfg.Telemetry.TraceExporter {
	case ExporterNone:
	case ExporterOTLP:
		if strings.TrimSpace(cfg.Telemetry.OTLPEndpoint) == "" {
			return fmt.Errorf("telemetry.otlp_endpoint must not be empty")
		}
	default:
		return fmt.Errorf("telemetry.trace_exporter must be one of: none, otlp, got %q", cfg.Telemetry.TraceExporter)
	}
	return nil
}

func validateWatch(cfg *Config) error {
	if !cfg.Watch.Enabled {
		return nil
	}
	if cfg.Provider.Kind != ProviderFS {
		return fmt.Errorf("watch mode requires provider.kind = %q, got %q", ProviderFS, cfg.Provider.Kind)
	}
	if cfg.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must be >= 0, got %s", cfg.Watch.Debounce)
	}
	for i, pattern := range cfg.Watch.ExcludeDirs {
		if _, err := glob.Compile(pattern); err != nil {
			return fmt.Errorf("watch.exclude_dirs[%d] %q: %w", i, pattern, err)
		}
	}
	return nil
}
