package walk

import (
	"sync"

	"github.com/cespare/xxhash/v2"
)

// pathSet is a concurrent set of paths split into mutex-guarded shards
// picked by hash, so inserts from different workers rarely contend.
type pathSet struct {
	shards []pathShard
	mask   uint64
}

type pathShard struct {
	mu    sync.Mutex
	paths map[string]struct{}
}

func newPathSet(parallelism int) *pathSet {
	n := 1
	for n < parallelism*4 {
		n <<= 1
	}
	s := &pathSet{shards: make([]pathShard, n), mask: uint64(n - 1)}
	for i := range s.shards {
		s.shards[i].paths = make(map[string]struct{})
	}
	return s
}

// Insert adds path and reports whether it was not already present.
func (s *pathSet) Insert(path string) bool {
	sh := &s.shards[xxhash.Sum64String(path)&s.mask]
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if _, ok := sh.paths[path]; ok {
		return false
	}
	sh.paths[path] = struct{}{}
	return true
}

func (s *pathSet) Len() int {
	n := 0
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.Lock()
		n += len(sh.paths)
		sh.mu.Unlock()
	}
	return n
}

// Drain empties the set into a slice. Call only after all inserts finished.
func (s *pathSet) Drain() []string {
	out := make([]string, 0, s.Len())
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.Lock()
		for p := range sh.paths {
			out = append(out, p)
		}
		sh.paths = make(map[string]struct{})
		sh.mu.Unlock()
	}
	return out
}
