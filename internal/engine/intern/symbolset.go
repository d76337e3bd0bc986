package intern

import (
	"sync"

	"github.com/bits-and-blooms/bitset"
)

// SymbolSet is a concurrent set of symbols backed by a bitset. Symbols from
// one Interner are dense, so membership costs one bit per symbol.
type SymbolSet struct {
	mu   sync.Mutex
	bits *bitset.BitSet
	n    int
}

// NewSymbolSet preallocates room for capacity symbols; the set grows as
// needed.
func NewSymbolSet(capacity uint) *SymbolSet {
	return &SymbolSet{bits: bitset.New(capacity)}
}

// Add inserts sym and reports whether it was not already present.
func (s *SymbolSet) Add(sym Symbol) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bits.Test(uint(sym)) {
		return false
	}
	s.bits.Set(uint(sym))
	s.n++
	return true
}

func (s *SymbolSet) Contains(sym Symbol) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bits.Test(uint(sym))
}

func (s *SymbolSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.n
}

// Symbols returns the members in ascending order.
func (s *SymbolSet) Symbols() []Symbol {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Symbol, 0, s.n)
	for i, ok := s.bits.NextSet(0); ok; i, ok = s.bits.NextSet(i + 1) {
		out = append(out, Symbol(i))
	}
	return out
}
