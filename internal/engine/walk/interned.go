package walk

import (
	"log/slog"
	"slices"

	"reggie/internal/core/errors"
	"reggie/internal/core/ports"
	"reggie/internal/engine/intern"
)

// InternedWalker fans out like SharedSetWalker but records each path as a
// symbol. Paths are unique in a tree, so interning never merges entries; it
// only keeps in-flight results symbol-sized until they are resolved.
type InternedWalker struct {
	provider ports.NodeProvider
	threads  int
	logger   *slog.Logger
}

func NewInternedWalker(provider ports.NodeProvider, opts Options) *InternedWalker {
	return &InternedWalker{provider: provider, threads: Parallelism(opts.Threads), logger: opts.logger()}
}

func (w *InternedWalker) Strategy() Strategy {
	return StrategyInterned
}

func (w *InternedWalker) Traverse(rootID string) (ResultSet, error) {
	root, err := openRoot(w.provider, rootID)
	if err != nil {
		return nil, err
	}

	interner := intern.NewInterner()
	symbols := intern.NewSymbolSet(0)
	f := &fanOut{
		provider: w.provider,
		logger:   w.logger,
		pool:     newPool(w.threads),
		record:   func(path string) { symbols.Add(interner.Intern(path)) },
	}
	f.walk(root, rootID)

	out := make(ResultSet, 0, symbols.Len())
	for _, sym := range symbols.Symbols() {
		path, ok := interner.Resolve(sym)
		if !ok {
			return nil, errors.New(errors.CodeInternal, "symbol recorded without an interned path")
		}
		out = append(out, path)
	}
	slices.Sort(out)
	return out, nil
}
