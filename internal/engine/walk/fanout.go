package walk

import (
	"log/slog"
	"sync/atomic"

	"reggie/internal/core/errors"
	"reggie/internal/core/ports"
)

// sharedNode is a handle read by the frame enumerating it and by every task
// opening one of its children. It closes when the last of them releases it.
type sharedNode struct {
	handle ports.Handle
	path   string
	refs   atomic.Int64
}

func newSharedNode(h ports.Handle, path string) *sharedNode {
	n := &sharedNode{handle: h, path: path}
	n.refs.Store(1)
	return n
}

func (n *sharedNode) acquire() {
	n.refs.Add(1)
}

func (n *sharedNode) release(logger *slog.Logger) {
	if n.refs.Add(-1) == 0 {
		closeHandle(logger, n.handle, n.path)
	}
}

// fanOut walks a tree with one pool task per child. record must be safe for
// concurrent use; it is the only shared mutable state.
type fanOut struct {
	provider ports.NodeProvider
	logger   *slog.Logger
	pool     *pool
	record   func(path string)
}

func (f *fanOut) walk(root ports.Handle, rootID string) {
	f.pool.run(func() {
		f.visit(newSharedNode(root, rootID))
	})
}

func (f *fanOut) visit(node *sharedNode) {
	f.record(node.path)
	for name, err := range f.provider.Children(node.handle) {
		if err != nil {
			f.logger.Debug("skipping faulty child entry", errors.CtxPath, node.path, "error", err)
			continue
		}
		node.acquire()
		f.pool.submit(func() {
			child, err := f.provider.OpenChild(node.handle, name)
			node.release(f.logger)
			if err != nil {
				f.logger.Debug("pruning unavailable child", errors.CtxPath, node.path, errors.CtxChild, name, "error", err)
				return
			}
			f.visit(newSharedNode(child, JoinPath(node.path, name)))
		})
	}
	node.release(f.logger)
}
