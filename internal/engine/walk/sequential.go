package walk

import (
	"log/slog"

	"reggie/internal/core/errors"
	"reggie/internal/core/ports"
)

// SequentialWalker is the single-goroutine baseline. It keeps an explicit
// stack of open nodes instead of recursing, so tree depth is bounded by heap
// rather than goroutine stack, and visits nodes in the same pre-order a
// recursive walk would.
type SequentialWalker struct {
	provider ports.NodeProvider
	logger   *slog.Logger
}

func NewSequentialWalker(provider ports.NodeProvider, opts Options) *SequentialWalker {
	return &SequentialWalker{provider: provider, logger: opts.logger()}
}

func (w *SequentialWalker) Strategy() Strategy {
	return StrategySequential
}

type frame struct {
	handle ports.Handle
	path   string
	names  []string
	next   int
}

func (w *SequentialWalker) Traverse(rootID string) (ResultSet, error) {
	root, err := openRoot(w.provider, rootID)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var out ResultSet
	enter := func(h ports.Handle, path string) *frame {
		if _, dup := seen[path]; !dup {
			seen[path] = struct{}{}
			out = append(out, path)
		}
		return &frame{handle: h, path: path, names: childNames(w.provider, w.logger, h, path)}
	}

	stack := []*frame{enter(root, rootID)}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		if top.next == len(top.names) {
			closeHandle(w.logger, top.handle, top.path)
			stack = stack[:len(stack)-1]
			continue
		}

		name := top.names[top.next]
		top.next++
		child, err := w.provider.OpenChild(top.handle, name)
		if err != nil {
			w.logger.Debug("pruning unavailable child", errors.CtxPath, top.path, errors.CtxChild, name, "error", err)
			continue
		}
		stack = append(stack, enter(child, JoinPath(top.path, name)))
	}
	return out, nil
}

// childNames drains a node's enumeration, skipping faulty entries.
func childNames(provider ports.NodeProvider, logger *slog.Logger, h ports.Handle, path string) []string {
	var names []string
	for name, err := range provider.Children(h) {
		if err != nil {
			logger.Debug("skipping faulty child entry", errors.CtxPath, path, "error", err)
			continue
		}
		names = append(names, name)
	}
	return names
}
