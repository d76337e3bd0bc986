package snapshot

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reggie/internal/core/errors"
	"reggie/internal/engine/walk"
	"reggie/internal/provider"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "snapshot.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// capture traverses rootID through a Recorder and stores the result.
func capture(t *testing.T, store *Store, tree *provider.MemoryTree, rootID string) walk.ResultSet {
	t.Helper()
	rec := NewRecorder(tree)
	got, err := walk.Traverse(rec, rootID, walk.StrategySharedSet, 4)
	require.NoError(t, err)
	require.Equal(t, got.Len(), rec.Len())
	require.NoError(t, store.Save(context.Background(), rootID, rec))
	return got
}

func registryTree() *provider.MemoryTree {
	tree := provider.NewMemoryTree()
	root := tree.AddRoot("HKLM")
	root.AddPath("SOFTWARE", "Classes")
	root.AddPath("SOFTWARE", "Microsoft")
	root.AddPath("SYSTEM", "CurrentControlSet")
	root.Add("SAM").FailOpen()
	return tree
}

func TestStore_SaveThenTraverseEveryStrategy(t *testing.T) {
	store := openStore(t)
	saved := capture(t, store, registryTree(), "HKLM")
	assert.Equal(t, 6, saved.Len())

	for _, strategy := range walk.Strategies {
		t.Run(string(strategy), func(t *testing.T) {
			got, err := walk.Traverse(store, "HKLM", strategy, 4)
			require.NoError(t, err)
			assert.Equal(t, saved.Sorted(), got.Sorted())
		})
	}
}

func TestStore_NamesContainingSeparatorReplayVerbatim(t *testing.T) {
	tree := provider.NewMemoryTree()
	root := tree.AddRoot("root")
	root.Add(`a\b`)
	root.Add("c")

	store := openStore(t)
	saved := capture(t, store, tree, "root")

	replay, err := walk.Traverse(store, "root", walk.StrategySequential, 0)
	require.NoError(t, err)
	assert.Equal(t, saved.Sorted(), replay.Sorted())
	assert.Equal(t, walk.ResultSet{`root`, `root\a\b`, `root\c`}, replay.Sorted())

	rootHandle, err := store.OpenRoot("root")
	require.NoError(t, err)
	_, err = store.OpenChild(rootHandle, "a")
	assert.True(t, errors.IsCode(err, errors.CodeChildUnavailable))
}

func TestStore_DuplicateEnumerationStoredOnce(t *testing.T) {
	tree := provider.NewMemoryTree()
	root := tree.AddRoot("r")
	root.Add("dup")
	root.Add("dup")

	store := openStore(t)
	capture(t, store, tree, "r")

	got, err := walk.Traverse(store, "r", walk.StrategySequential, 0)
	require.NoError(t, err)
	assert.Equal(t, walk.ResultSet{`r`, `r\dup`}, got)
}

func TestStore_SaveReplacesRootAndKeepsOthers(t *testing.T) {
	store := openStore(t)

	old := provider.NewMemoryTree()
	old.AddRoot("HKCU").Add("Old")
	old.AddRoot("HKU").Add(".DEFAULT")
	capture(t, store, old, "HKCU")
	capture(t, store, old, "HKU")

	fresh := provider.NewMemoryTree()
	fresh.AddRoot("HKCU").Add("New")
	capture(t, store, fresh, "HKCU")

	roots, err := store.Roots(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"HKCU", "HKU"}, roots)

	got, err := walk.Traverse(store, "HKCU", walk.StrategySequential, 0)
	require.NoError(t, err)
	assert.Equal(t, walk.ResultSet{`HKCU`, `HKCU\New`}, got)
}

func TestStore_SaveOnlyRecordedRoot(t *testing.T) {
	tree := provider.NewMemoryTree()
	tree.AddRoot("one").Add("x")
	tree.AddRoot("two").Add("y")

	rec := NewRecorder(tree)
	_, err := walk.Traverse(rec, "one", walk.StrategySequential, 0)
	require.NoError(t, err)
	_, err = walk.Traverse(rec, "two", walk.StrategySequential, 0)
	require.NoError(t, err)

	store := openStore(t)
	require.NoError(t, store.Save(context.Background(), "two", rec))
	got, err := walk.Traverse(store, "two", walk.StrategySequential, 0)
	require.NoError(t, err)
	assert.Equal(t, walk.ResultSet{`two`, `two\y`}, got)

	_, err = store.OpenRoot("one")
	assert.True(t, errors.IsCode(err, errors.CodeRootUnavailable))

	err = store.Save(context.Background(), "three", rec)
	assert.True(t, errors.IsCode(err, errors.CodeNotFound))
}

func TestRecorder_ReleasesInnerHandles(t *testing.T) {
	tree := registryTree()
	rec := NewRecorder(tree)
	for _, strategy := range walk.Strategies {
		_, err := walk.Traverse(rec, "HKLM", strategy, 3)
		require.NoError(t, err)
	}
	assert.Zero(t, tree.OpenHandles())
	assert.Zero(t, tree.Misuse())
	assert.Equal(t, 6, rec.Len())
}

func TestStore_UnknownRootAndChild(t *testing.T) {
	tree := provider.NewMemoryTree()
	tree.AddRoot("r").Add("a")
	store := openStore(t)
	capture(t, store, tree, "r")

	_, err := store.OpenRoot("missing")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeRootUnavailable))

	root, err := store.OpenRoot("r")
	require.NoError(t, err)
	_, err = store.OpenChild(root, "b")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeChildUnavailable))
}
