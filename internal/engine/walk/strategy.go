package walk

import (
	"fmt"
	"log/slog"
	"runtime"
	"strings"

	"reggie/internal/core/errors"
	"reggie/internal/core/ports"
)

type Strategy string

const (
	StrategySequential Strategy = "sequential"
	StrategySharedSet  Strategy = "concurrent_shared_set"
	StrategyInterned   Strategy = "concurrent_interned"
)

// Strategies lists every supported strategy in a stable order.
var Strategies = []Strategy{StrategySequential, StrategySharedSet, StrategyInterned}

var strategyAliases = map[string]Strategy{
	"sequential":            StrategySequential,
	"v1":                    StrategySequential,
	"concurrent_shared_set": StrategySharedSet,
	"shared":                StrategySharedSet,
	"v2":                    StrategySharedSet,
	"concurrent_interned":   StrategyInterned,
	"interned":              StrategyInterned,
	"v3":                    StrategyInterned,
}

// ParseStrategy accepts canonical names and the short backend aliases
// (v1, v2, v3, shared, interned).
func ParseStrategy(name string) (Strategy, error) {
	s, ok := strategyAliases[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return "", errors.AddContext(errors.New(errors.CodeValidationError, "unknown strategy"), errors.CtxStrategy, name)
	}
	return s, nil
}

// Engine is one traversal strategy bound to a provider.
type Engine interface {
	Strategy() Strategy
	Traverse(rootID string) (ResultSet, error)
}

type Options struct {
	// Threads bounds the worker pool of concurrent strategies. Zero selects
	// runtime.GOMAXPROCS(0). Ignored by the sequential strategy.
	Threads int
	Logger  *slog.Logger
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

// Parallelism resolves a configured thread count to the pool size used.
func Parallelism(threads int) int {
	if threads <= 0 {
		return runtime.GOMAXPROCS(0)
	}
	return threads
}

func New(provider ports.NodeProvider, strategy Strategy, opts Options) (Engine, error) {
	if provider == nil {
		return nil, errors.New(errors.CodeValidationError, "node provider is required")
	}
	if opts.Threads < 0 {
		return nil, errors.New(errors.CodeValidationError, fmt.Sprintf("thread count must be >= 0, got %d", opts.Threads))
	}
	switch strategy {
	case StrategySequential:
		return NewSequentialWalker(provider, opts), nil
	case StrategySharedSet:
		return NewSharedSetWalker(provider, opts), nil
	case StrategyInterned:
		return NewInternedWalker(provider, opts), nil
	default:
		return nil, errors.AddContext(errors.New(errors.CodeValidationError, "unknown strategy"), errors.CtxStrategy, string(strategy))
	}
}

// Traverse runs one traversal of rootID with the given strategy.
func Traverse(provider ports.NodeProvider, rootID string, strategy Strategy, threads int) (ResultSet, error) {
	e, err := New(provider, strategy, Options{Threads: threads})
	if err != nil {
		return nil, err
	}
	return e.Traverse(rootID)
}

func openRoot(provider ports.NodeProvider, rootID string) (ports.Handle, error) {
	h, err := provider.OpenRoot(rootID)
	if err != nil {
		if errors.IsCode(err, errors.CodeRootUnavailable) {
			return nil, err
		}
		return nil, errors.AddContext(
			errors.Wrap(err, errors.CodeRootUnavailable, "open root"),
			errors.CtxRoot, rootID,
		)
	}
	return h, nil
}

func closeHandle(logger *slog.Logger, h ports.Handle, path string) {
	if err := h.Close(); err != nil {
		logger.Debug("failed to close node", errors.CtxPath, path, "error", err)
	}
}
