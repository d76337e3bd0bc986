package provider

import (
	"fmt"
	"iter"
	"sync"
	"sync/atomic"

	"reggie/internal/core/errors"
	"reggie/internal/core/ports"
)

// MemoryTree is an in-memory NodeProvider with injectable failures. Build
// the tree before traversing it; it must not be modified while in use.
type MemoryTree struct {
	mu    sync.RWMutex
	roots map[string]*MemoryNode

	open       atomic.Int64
	misuse     atomic.Int64
	childCalls atomic.Int64
}

// MemoryNode is one node of a MemoryTree.
type MemoryNode struct {
	name      string
	children  []*MemoryNode
	failOpen  bool
	failEntry bool
}

func NewMemoryTree() *MemoryTree {
	return &MemoryTree{roots: make(map[string]*MemoryNode)}
}

// AddRoot registers a root named id and returns it for building.
func (t *MemoryTree) AddRoot(id string) *MemoryNode {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := &MemoryNode{name: id}
	t.roots[id] = n
	return n
}

// Add appends a child. Adding the same name twice makes the parent
// enumerate it twice, imitating a racing store.
func (n *MemoryNode) Add(name string) *MemoryNode {
	c := &MemoryNode{name: name}
	n.children = append(n.children, c)
	return c
}

// AddPath adds a chain of descendants and returns the deepest one.
func (n *MemoryNode) AddPath(names ...string) *MemoryNode {
	cur := n
	for _, name := range names {
		var next *MemoryNode
		for _, c := range cur.children {
			if c.name == name {
				next = c
				break
			}
		}
		if next == nil {
			next = cur.Add(name)
		}
		cur = next
	}
	return cur
}

// FailOpen makes opening this node as a child fail.
func (n *MemoryNode) FailOpen() *MemoryNode {
	n.failOpen = true
	return n
}

// FailEntry makes this node's entry in its parent's enumeration an error.
func (n *MemoryNode) FailEntry() *MemoryNode {
	n.failEntry = true
	return n
}

// OpenHandles returns the number of handles opened and not yet closed.
func (t *MemoryTree) OpenHandles() int64 {
	return t.open.Load()
}

// Misuse counts calls made on already closed handles.
func (t *MemoryTree) Misuse() int64 {
	return t.misuse.Load()
}

// OpenChildCalls counts OpenChild calls, successful or not.
func (t *MemoryTree) OpenChildCalls() int64 {
	return t.childCalls.Load()
}

type memHandle struct {
	tree   *MemoryTree
	node   *MemoryNode
	closed atomic.Bool
}

func (h *memHandle) Close() error {
	if !h.closed.CompareAndSwap(false, true) {
		h.tree.misuse.Add(1)
		return fmt.Errorf("node %q already closed", h.node.name)
	}
	h.tree.open.Add(-1)
	return nil
}

func (t *MemoryTree) newHandle(n *MemoryNode) *memHandle {
	t.open.Add(1)
	return &memHandle{tree: t, node: n}
}

func (t *MemoryTree) OpenRoot(rootID string) (ports.Handle, error) {
	t.mu.RLock()
	n, ok := t.roots[rootID]
	t.mu.RUnlock()
	if !ok {
		return nil, errors.AddContext(errors.New(errors.CodeRootUnavailable, "no such root"), errors.CtxRoot, rootID)
	}
	return t.newHandle(n), nil
}

func (t *MemoryTree) Children(node ports.Handle) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		h, err := t.handle(node)
		if err != nil {
			yield("", err)
			return
		}
		for _, c := range h.node.children {
			if c.failEntry {
				if !yield("", errors.New(errors.CodeEnumeration, "unreadable entry under "+h.node.name)) {
					return
				}
				continue
			}
			if !yield(c.name, nil) {
				return
			}
		}
	}
}

func (t *MemoryTree) OpenChild(node ports.Handle, name string) (ports.Handle, error) {
	t.childCalls.Add(1)
	h, err := t.handle(node)
	if err != nil {
		return nil, err
	}
	for _, c := range h.node.children {
		if c.name != name || c.failEntry {
			continue
		}
		if c.failOpen {
			return nil, errors.AddContext(errors.New(errors.CodeChildUnavailable, "access denied"), errors.CtxChild, name)
		}
		return t.newHandle(c), nil
	}
	return nil, errors.AddContext(errors.New(errors.CodeChildUnavailable, "no such child"), errors.CtxChild, name)
}

func (t *MemoryTree) handle(node ports.Handle) (*memHandle, error) {
	h, ok := node.(*memHandle)
	if !ok || h.tree != t {
		return nil, errors.New(errors.CodeInternal, fmt.Sprintf("foreign handle %T", node))
	}
	if h.closed.Load() {
		t.misuse.Add(1)
		return nil, errors.New(errors.CodeInternal, fmt.Sprintf("node %q used after close", h.node.name))
	}
	return h, nil
}
