// Package intern maps strings to dense integer symbols for the lifetime of
// one traversal.
package intern

import (
	"sync"

	"github.com/cespare/xxhash/v2"
)

// Symbol stands in for an interned string. Symbols are dense, starting at 0,
// and only meaningful to the Interner that issued them.
type Symbol uint32

// Interner is an append-only string table. All strings live back to back in
// one byte buffer and the lookup index stores symbols keyed by hash, so the
// table holds a single copy of each string.
//
// Concurrency: safe for use by multiple goroutines. The lock is held only
// for the in-memory lookup/append.
type Interner struct {
	mu         sync.Mutex
	buf        []byte
	ends       []int
	index      map[uint64]Symbol
	collisions map[uint64][]Symbol
}

func NewInterner() *Interner {
	return &Interner{
		index:      make(map[uint64]Symbol),
		collisions: make(map[uint64][]Symbol),
	}
}

// Intern returns the symbol for s, allocating one if s is new.
func (in *Interner) Intern(s string) Symbol {
	h := xxhash.Sum64String(s)

	in.mu.Lock()
	defer in.mu.Unlock()

	if sym, ok := in.index[h]; ok {
		if in.equal(sym, s) {
			return sym
		}
		for _, other := range in.collisions[h] {
			if in.equal(other, s) {
				return other
			}
		}
		sym := in.push(s)
		in.collisions[h] = append(in.collisions[h], sym)
		return sym
	}

	sym := in.push(s)
	in.index[h] = sym
	return sym
}

// Resolve returns the string behind sym.
func (in *Interner) Resolve(sym Symbol) (string, bool) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if int(sym) >= len(in.ends) {
		return "", false
	}
	return in.lookup(sym), true
}

func (in *Interner) Len() int {
	in.mu.Lock()
	defer in.mu.Unlock()
	return len(in.ends)
}

func (in *Interner) push(s string) Symbol {
	in.buf = append(in.buf, s...)
	in.ends = append(in.ends, len(in.buf))
	return Symbol(len(in.ends) - 1)
}

// bytes must be called with mu held. The slice aliases buf.
func (in *Interner) bytes(sym Symbol) []byte {
	start := 0
	if sym > 0 {
		start = in.ends[sym-1]
	}
	return in.buf[start:in.ends[sym]]
}

// equal compares in place; the conversion in a comparison does not copy.
func (in *Interner) equal(sym Symbol, s string) bool {
	return string(in.bytes(sym)) == s
}

func (in *Interner) lookup(sym Symbol) string {
	return string(in.bytes(sym))
}
