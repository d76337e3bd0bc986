package intern

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterner_InternResolve(t *testing.T) {
	in := NewInterner()

	a := in.Intern(`HKLM\SOFTWARE`)
	b := in.Intern(`HKLM\SYSTEM`)
	again := in.Intern(`HKLM\SOFTWARE`)

	assert.Equal(t, Symbol(0), a)
	assert.Equal(t, Symbol(1), b)
	assert.Equal(t, a, again)
	assert.Equal(t, 2, in.Len())

	s, ok := in.Resolve(b)
	require.True(t, ok)
	assert.Equal(t, `HKLM\SYSTEM`, s)

	_, ok = in.Resolve(Symbol(7))
	assert.False(t, ok)
}

func TestInterner_EmptyString(t *testing.T) {
	in := NewInterner()
	first := in.Intern("x")
	empty := in.Intern("")
	assert.NotEqual(t, first, empty)

	s, ok := in.Resolve(empty)
	require.True(t, ok)
	assert.Equal(t, "", s)
	assert.Equal(t, empty, in.Intern(""))
}

func TestInterner_RepeatInternDoesNotAllocate(t *testing.T) {
	in := NewInterner()
	key := `HKLM\SOFTWARE\Classes\CLSID`
	want := in.Intern(key)
	in.Intern(`HKLM\SYSTEM`)

	var got Symbol
	allocs := testing.AllocsPerRun(100, func() {
		got = in.Intern(key)
	})
	assert.Equal(t, want, got)
	assert.Zero(t, allocs)
	assert.Equal(t, 2, in.Len())
}

func TestInterner_Concurrent(t *testing.T) {
	in := NewInterner()
	const workers, keys = 8, 300

	results := make([][]Symbol, workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			syms := make([]Symbol, keys)
			for i := 0; i < keys; i++ {
				syms[i] = in.Intern(fmt.Sprintf(`root\key%03d`, i))
			}
			results[w] = syms
		}()
	}
	wg.Wait()

	require.Equal(t, keys, in.Len())
	for w := 1; w < workers; w++ {
		assert.Equal(t, results[0], results[w], "worker %d saw different symbols", w)
	}
	for i, sym := range results[0] {
		s, ok := in.Resolve(sym)
		require.True(t, ok)
		assert.Equal(t, fmt.Sprintf(`root\key%03d`, i), s)
	}
}

func TestSymbolSet(t *testing.T) {
	set := NewSymbolSet(4)

	assert.True(t, set.Add(10))
	assert.True(t, set.Add(2))
	assert.False(t, set.Add(10), "duplicate add must report false")
	assert.True(t, set.Contains(2))
	assert.False(t, set.Contains(3))
	assert.Equal(t, 2, set.Len())
	assert.Equal(t, []Symbol{2, 10}, set.Symbols())
}

func TestSymbolSet_Concurrent(t *testing.T) {
	set := NewSymbolSet(0)
	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				set.Add(Symbol(i))
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1000, set.Len())
	assert.Len(t, set.Symbols(), 1000)
}
