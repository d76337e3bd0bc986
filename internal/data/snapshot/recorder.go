package snapshot

import (
	"iter"
	"sync"

	"reggie/internal/core/errors"
	"reggie/internal/core/ports"
)

const noParent = -1

// Recorder wraps a provider and remembers every node opened through it as a
// (parent, name) pair. Save stores that shape, so child names are kept
// verbatim even when they contain the path separator.
//
// Safe for concurrent use. Traversals repeated through one Recorder merge
// into one tree.
type Recorder struct {
	inner ports.NodeProvider

	mu    sync.Mutex
	nodes []recordedNode
	index map[recordedNode]int
}

type recordedNode struct {
	parent int
	name   string
}

type recordedHandle struct {
	inner ports.Handle
	id    int
}

func (h recordedHandle) Close() error { return h.inner.Close() }

var _ ports.NodeProvider = (*Recorder)(nil)

func NewRecorder(inner ports.NodeProvider) *Recorder {
	return &Recorder{inner: inner, index: make(map[recordedNode]int)}
}

// record returns the id of (parent, name), assigning the next one if new.
// A parent always has a smaller id than its children.
func (r *Recorder) record(parent int, name string) int {
	key := recordedNode{parent: parent, name: name}
	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.index[key]; ok {
		return id
	}
	id := len(r.nodes)
	r.nodes = append(r.nodes, key)
	r.index[key] = id
	return id
}

func (r *Recorder) OpenRoot(rootID string) (ports.Handle, error) {
	h, err := r.inner.OpenRoot(rootID)
	if err != nil {
		return nil, err
	}
	return recordedHandle{inner: h, id: r.record(noParent, rootID)}, nil
}

func (r *Recorder) Children(node ports.Handle) iter.Seq2[string, error] {
	h, ok := node.(recordedHandle)
	if !ok {
		return func(yield func(string, error) bool) {
			yield("", errors.New(errors.CodeInternal, "foreign handle"))
		}
	}
	return r.inner.Children(h.inner)
}

func (r *Recorder) OpenChild(node ports.Handle, name string) (ports.Handle, error) {
	h, ok := node.(recordedHandle)
	if !ok {
		return nil, errors.New(errors.CodeInternal, "foreign handle")
	}
	child, err := r.inner.OpenChild(h.inner, name)
	if err != nil {
		return nil, err
	}
	return recordedHandle{inner: child, id: r.record(h.id, name)}, nil
}

// Len reports how many distinct nodes have been recorded.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.nodes)
}

// subtree returns the nodes under rootID in id order, so every parent comes
// before its children. The root itself is first.
func (r *Recorder) subtree(rootID string) ([]int, []recordedNode, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rootIdx, ok := r.index[recordedNode{parent: noParent, name: rootID}]
	if !ok {
		return nil, nil, false
	}
	in := map[int]bool{rootIdx: true}
	ids := []int{rootIdx}
	nodes := []recordedNode{r.nodes[rootIdx]}
	for id := rootIdx + 1; id < len(r.nodes); id++ {
		n := r.nodes[id]
		if n.parent == noParent || !in[n.parent] {
			continue
		}
		in[id] = true
		ids = append(ids, id)
		nodes = append(nodes, n)
	}
	return ids, nodes, true
}
