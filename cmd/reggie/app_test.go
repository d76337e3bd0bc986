package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/neilotoole/slogt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reggie/internal/core/config"
	"reggie/internal/core/errors"
	"reggie/internal/data/snapshot"
	"reggie/internal/provider"
	"reggie/internal/ui/report"
)

func memoryApp(t *testing.T, cfg *config.Config) (*App, *provider.MemoryTree, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	tree := provider.NewMemoryTree()
	root := tree.AddRoot("HKLM")
	root.AddPath("SOFTWARE", "Microsoft", "Windows")
	root.AddPath("SOFTWARE", "Classes")
	root.Add("SAM").FailOpen()
	root.Add("SYSTEM")

	if cfg.Traversal.Root == "" {
		cfg.Traversal.Root = "HKLM"
	}

	var out, errOut bytes.Buffer
	a := &App{Config: cfg, Logger: slogt.New(t), Printer: report.NewPrinter(&out, &errOut)}
	require.NoError(t, a.init(tree))
	t.Cleanup(a.Close)
	return a, tree, &out, &errOut
}

func TestApp_RunOnce(t *testing.T) {
	cfg := config.Default()
	cfg.Output = config.Output{Print: true, Count: true}
	a, tree, out, errOut := memoryApp(t, cfg)

	require.NoError(t, a.RunOnce(context.Background()))

	assert.Equal(t, strings.Join([]string{
		`HKLM`,
		`HKLM\SOFTWARE`,
		`HKLM\SOFTWARE\Classes`,
		`HKLM\SOFTWARE\Microsoft`,
		`HKLM\SOFTWARE\Microsoft\Windows`,
		`HKLM\SYSTEM`,
	}, "\n")+"\n", out.String())
	assert.Equal(t, "There are 6 keys in HKLM.\n", errOut.String())
	assert.Zero(t, tree.OpenHandles())
}

func TestApp_FilterDoesNotChangeCount(t *testing.T) {
	cfg := config.Default()
	cfg.Traversal.Strategy = "v1"
	cfg.Filter.Pattern = "micro"
	cfg.Output = config.Output{Print: true, Count: true}
	a, _, out, errOut := memoryApp(t, cfg)

	require.NoError(t, a.RunOnce(context.Background()))

	assert.Equal(t, "HKLM\\SOFTWARE\\Microsoft\nHKLM\\SOFTWARE\\Microsoft\\Windows\n", out.String())
	assert.Equal(t, "There are 6 keys in HKLM.\n", errOut.String())
}

func TestApp_RootUnavailable(t *testing.T) {
	cfg := config.Default()
	cfg.Traversal.Root = "HKCU"
	cfg.Output.Count = true
	a, _, out, errOut := memoryApp(t, cfg)

	err := a.RunOnce(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeRootUnavailable))
	assert.Empty(t, out.String())
	assert.Empty(t, errOut.String())
}

func TestApp_HistoryAndSnapshot(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.History.Enabled = true
	cfg.History.Path = filepath.Join(dir, "history.db")
	cfg.Metrics.Textfile = filepath.Join(dir, "metrics", "reggie.prom")
	a, _, _, _ := memoryApp(t, cfg)
	a.SnapshotPath = filepath.Join(dir, "tree.db")

	ctx := context.Background()
	require.NoError(t, a.RunOnce(ctx))
	require.NoError(t, a.RunOnce(ctx))

	runs, err := a.History(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "HKLM", runs[0].Root)
	assert.Equal(t, 6, runs[0].Count)
	assert.Equal(t, config.ProviderRegistry, runs[0].Provider)

	metrics, err := os.ReadFile(cfg.Metrics.Textfile)
	require.NoError(t, err)
	assert.Contains(t, string(metrics), "reggie_")

	// The snapshot replays as a provider with the same tree.
	snapCfg := config.Default()
	snapCfg.Provider.Kind = config.ProviderSnapshot
	snapCfg.Provider.Source = a.SnapshotPath
	snapCfg.Traversal.Root = "HKLM"
	snapCfg.Output.Print = true
	var out, errOut bytes.Buffer
	replay, err := NewApp(snapCfg, slogt.New(t), report.NewPrinter(&out, &errOut))
	require.NoError(t, err)
	defer replay.Close()
	require.NoError(t, replay.RunOnce(ctx))
	assert.Equal(t, 6, strings.Count(out.String(), "\n"))

	store, err := snapshot.Open(a.SnapshotPath)
	require.NoError(t, err)
	defer store.Close()
	roots, err := store.Roots(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"HKLM"}, roots)
}

func TestApp_WatchRequiresFilesystem(t *testing.T) {
	a, _, _, _ := memoryApp(t, config.Default())
	err := a.Watch(context.Background())
	assert.True(t, errors.IsCode(err, errors.CodeNotSupported))
}

func executeRoot(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCommand(&out, &errOut)
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestRootCommand_Filesystem(t *testing.T) {
	root := t.TempDir()
	for _, dir := range []string{"a/b", "a/c", "d"} {
		require.NoError(t, os.MkdirAll(filepath.Join(root, filepath.FromSlash(dir)), 0o755))
	}
	require.NoError(t, os.WriteFile(filepath.Join(root, "a", "file.txt"), []byte("x"), 0o644))

	out, errOut, err := executeRoot(t, "--provider", "fs", "-B", "v3", "-T", "2", "-c", "-p", root)
	require.NoError(t, err)

	assert.Equal(t, strings.Join([]string{
		root,
		root + `\a`,
		root + `\a\b`,
		root + `\a\c`,
		root + `\d`,
	}, "\n")+"\n", out)
	assert.Contains(t, errOut, "There are 5 keys in "+root+".")
}

func TestRootCommand_GlobImpliesPrint(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "x", "testdata"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "y"), 0o755))

	out, _, err := executeRoot(t, "--provider", "fs", "-g", "**/testdata", root)
	require.NoError(t, err)
	assert.Equal(t, root+`\x\testdata`+"\n", out)
}

func TestRootCommand_Errors(t *testing.T) {
	_, _, err := executeRoot(t, "--provider", "fs", "-B", "v7", t.TempDir())
	assert.True(t, errors.IsCode(err, errors.CodeValidationError))

	_, _, err = executeRoot(t, "--provider", "fs", filepath.Join(t.TempDir(), "missing"))
	assert.True(t, errors.IsCode(err, errors.CodeRootUnavailable))

	_, _, err = executeRoot(t, "-H", "HKCU", "HKLM")
	assert.Error(t, err)

	_, _, err = executeRoot(t, "--config", filepath.Join(t.TempDir(), "absent.toml"))
	assert.True(t, errors.IsCode(err, errors.CodeValidationError))
}

func TestHivesCommand(t *testing.T) {
	out, _, err := executeRoot(t, "hives")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, len(provider.Hives()))
	assert.True(t, strings.HasPrefix(lines[0], "HKLM, HKEY_LOCAL_MACHINE"))

	listed, _, err := executeRoot(t, "-l")
	require.NoError(t, err)
	assert.Equal(t, out, listed)
}

func TestHistoryCommand(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "reggie.toml")
	historyPath := filepath.Join(dir, "history.db")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
[provider]
kind = "fs"

[history]
enabled = true
path = "`+filepath.ToSlash(historyPath)+`"
`), 0o644))

	_, _, err := executeRoot(t, "--config", cfgPath, dir)
	require.NoError(t, err)

	out, errOut, err := executeRoot(t, "history", "--config", cfgPath, "-n", "5")
	require.NoError(t, err)
	assert.Contains(t, errOut, "Last 1 recorded runs\n")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], "\tfs\t")
	assert.Contains(t, lines[1], dir)
}

func TestMergeFlags_HiveSpellingsLabelShortName(t *testing.T) {
	for _, spelling := range []string{"HKEY_LOCAL_MACHINE", "hklm"} {
		t.Run(spelling, func(t *testing.T) {
			cmd := newRootCommand(&bytes.Buffer{}, &bytes.Buffer{})
			require.NoError(t, cmd.ParseFlags([]string{"-H", spelling}))
			hive, err := cmd.Flags().GetString("hive")
			require.NoError(t, err)

			cfg := config.Default()
			require.NoError(t, mergeFlags(cmd, &rootOptions{hive: hive}, nil, cfg))
			assert.Equal(t, "HKLM", cfg.Traversal.Root)

			// The engine labels every path with the root id it is given.
			tree := provider.NewMemoryTree()
			tree.AddRoot(cfg.Traversal.Root).Add("SOFTWARE")
			var out bytes.Buffer
			cfg.Output.Print = true
			a := &App{Config: cfg, Logger: slogt.New(t), Printer: report.NewPrinter(&out, &bytes.Buffer{})}
			require.NoError(t, a.init(tree))
			require.NoError(t, a.RunOnce(context.Background()))
			assert.Equal(t, "HKLM\nHKLM\\SOFTWARE\n", out.String())
		})
	}
}

func TestRootCommand_UnknownHiveListsValidHives(t *testing.T) {
	out, errOut, err := executeRoot(t, "-H", "HKEY_NOWHERE", "-c")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeValidationError))
	assert.Contains(t, err.Error(), "HKEY_NOWHERE")
	assert.Empty(t, out)
	assert.Contains(t, errOut, "Valid hives:\n    HKLM, HKEY_LOCAL_MACHINE, ")
	assert.Equal(t, len(provider.Hives()), strings.Count(errOut, "\n    "))
}

func TestRootCommand_FilesystemDefaultsToWorkingDirectory(t *testing.T) {
	_, errOut, err := executeRoot(t, "--provider", "fs", "-c")
	require.NoError(t, err)
	assert.Contains(t, errOut, "keys in ..")
}

func TestRootCommand_SnapshotReplayKeepsSeparatorNames(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("directory names cannot contain a backslash on windows")
	}
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, `a\b`, "inner"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "c"), 0o755))
	snap := filepath.Join(t.TempDir(), "tree.db")

	walked, _, err := executeRoot(t, "--provider", "fs", "-p", "--save-snapshot", snap, root)
	require.NoError(t, err)
	assert.Equal(t, strings.Join([]string{
		root,
		root + `\a\b`,
		root + `\a\b\inner`,
		root + `\c`,
	}, "\n")+"\n", walked)

	replayed, _, err := executeRoot(t, "--provider", "snapshot", "--source", snap, "-p", root)
	require.NoError(t, err)
	assert.Equal(t, walked, replayed)
}
