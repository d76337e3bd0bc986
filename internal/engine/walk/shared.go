package walk

import (
	"log/slog"
	"slices"

	"reggie/internal/core/ports"
)

// SharedSetWalker fans out one task per child and records full paths in a
// sharded concurrent set owned by a single Traverse call.
type SharedSetWalker struct {
	provider ports.NodeProvider
	threads  int
	logger   *slog.Logger
}

func NewSharedSetWalker(provider ports.NodeProvider, opts Options) *SharedSetWalker {
	return &SharedSetWalker{provider: provider, threads: Parallelism(opts.Threads), logger: opts.logger()}
}

func (w *SharedSetWalker) Strategy() Strategy {
	return StrategySharedSet
}

func (w *SharedSetWalker) Traverse(rootID string) (ResultSet, error) {
	root, err := openRoot(w.provider, rootID)
	if err != nil {
		return nil, err
	}

	set := newPathSet(w.threads)
	f := &fanOut{
		provider: w.provider,
		logger:   w.logger,
		pool:     newPool(w.threads),
		record:   func(path string) { set.Insert(path) },
	}
	f.walk(root, rootID)

	out := ResultSet(set.Drain())
	slices.Sort(out)
	return out, nil
}
