package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"reggie/internal/core/config"
	"reggie/internal/core/errors"
	"reggie/internal/core/ports"
	"reggie/internal/core/watcher"
	"reggie/internal/data/history"
	"reggie/internal/data/snapshot"
	"reggie/internal/engine/filter"
	"reggie/internal/engine/walk"
	"reggie/internal/provider"
	"reggie/internal/shared/observability"
	"reggie/internal/shared/util"
	"reggie/internal/ui/report"
)

type App struct {
	Config  *config.Config
	Logger  *slog.Logger
	Printer *report.Printer

	// SnapshotPath, when set, receives a copy of every successful traversal.
	SnapshotPath string

	base     ports.NodeProvider
	limiter  *util.Limiter
	recorder ports.RunRecorder
	matcher  *filter.Matcher
	closers  []io.Closer
}

// NewApp builds the provider stack described by cfg. Close releases it.
func NewApp(cfg *config.Config, logger *slog.Logger, printer *report.Printer) (*App, error) {
	a := &App{Config: cfg, Logger: logger, Printer: printer}

	base, err := a.openProvider()
	if err != nil {
		return nil, err
	}
	if err := a.init(base); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) init(base ports.NodeProvider) error {
	a.base = base
	if rate := a.Config.Provider.RateLimit; rate > 0 {
		a.limiter = util.NewLimiter(rate, a.Config.Provider.Burst)
		a.Logger.Debug("provider throttled", "rate", rate, "burst", a.Config.Provider.Burst)
	}

	m, err := filter.New(a.Config.Filter.Pattern, a.Config.Filter.Glob)
	if err != nil {
		return err
	}
	a.matcher = m

	if a.Config.History.Enabled {
		store, err := history.Open(a.Config.History.Path)
		if err != nil {
			return errors.Wrap(err, errors.CodeInternal, "open run history")
		}
		a.recorder = store
		a.closers = append(a.closers, store)
	}
	return nil
}

// stack decorates p with instrumentation and, when configured, the shared
// rate limiter.
func (a *App) stack(p ports.NodeProvider) ports.NodeProvider {
	p = provider.Instrument(p)
	if a.limiter != nil {
		p = provider.Throttle(p, a.limiter)
	}
	return p
}

func (a *App) openProvider() (ports.NodeProvider, error) {
	switch a.Config.Provider.Kind {
	case config.ProviderRegistry:
		return provider.NewRegistry(), nil
	case config.ProviderFS:
		return provider.NewFilesystem(), nil
	case config.ProviderSnapshot:
		store, err := snapshot.Open(a.Config.Provider.Source)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeRootUnavailable, "open snapshot")
		}
		a.closers = append(a.closers, store)
		return store, nil
	default:
		return nil, errors.New(errors.CodeValidationError, fmt.Sprintf("unknown provider %q", a.Config.Provider.Kind))
	}
}

func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			a.Logger.Warn("close failed", "error", err)
		}
	}
	a.closers = nil
}

// RunOnce traverses the configured root once and reports the result.
func (a *App) RunOnce(ctx context.Context) error {
	strategy, err := walk.ParseStrategy(a.Config.Traversal.Strategy)
	if err != nil {
		return err
	}
	base := a.base
	var rec *snapshot.Recorder
	if a.SnapshotPath != "" {
		rec = snapshot.NewRecorder(base)
		base = rec
	}
	engine, err := walk.New(a.stack(base), strategy, walk.Options{
		Threads: a.Config.Traversal.Threads,
		Logger:  a.Logger,
	})
	if err != nil {
		return err
	}

	root := a.Config.Traversal.Root
	a.Logger.Debug("traversal starting", "root", root, "strategy", strategy, "threads", walk.Parallelism(a.Config.Traversal.Threads))
	result, stats, err := walk.Timed(ctx, engine, root)
	if err != nil {
		return err
	}
	a.Logger.Debug("traversal finished", "root", root, "count", stats.Count, "elapsed", stats.Elapsed)

	if err := a.report(result, stats); err != nil {
		return err
	}
	a.record(ctx, stats)

	if a.SnapshotPath != "" {
		if err := a.saveSnapshot(ctx, root, rec); err != nil {
			return err
		}
	}
	if path := a.Config.Metrics.Textfile; path != "" {
		if err := util.EnsureParentDir(path); err != nil {
			return err
		}
		if err := observability.WriteTextfile(path); err != nil {
			return errors.Wrap(err, errors.CodeInternal, "write metrics textfile")
		}
	}

	allocMB, sysMB := util.HeapStats()
	a.Logger.Debug("memory", "alloc_mb", allocMB, "sys_mb", sysMB)
	return nil
}

func (a *App) report(result walk.ResultSet, stats walk.Stats) error {
	out := a.Config.Output
	if out.Print {
		if err := a.Printer.Paths(a.matcher.Apply(result)); err != nil {
			return err
		}
	}
	if out.Count {
		a.Printer.Count(stats.Count, stats.Root)
	}
	if out.Time {
		a.Printer.Timing(stats)
	}
	return nil
}

// record never fails the run: history is best effort.
func (a *App) record(ctx context.Context, stats walk.Stats) {
	if a.recorder == nil {
		return
	}
	run := ports.RunRecord{
		Timestamp: time.Now().UTC(),
		Root:      stats.Root,
		Provider:  a.Config.Provider.Kind,
		Strategy:  string(stats.Strategy),
		Threads:   walk.Parallelism(a.Config.Traversal.Threads),
		Count:     stats.Count,
		Elapsed:   stats.Elapsed,
	}
	if err := a.recorder.SaveRun(ctx, run); err != nil {
		a.Logger.Warn("failed to record run", "error", err)
	}
}

func (a *App) saveSnapshot(ctx context.Context, root string, rec *snapshot.Recorder) error {
	if err := util.EnsureParentDir(a.SnapshotPath); err != nil {
		return err
	}
	store, err := snapshot.Open(a.SnapshotPath)
	if err != nil {
		return errors.Wrap(err, errors.CodeInternal, "open snapshot")
	}
	defer store.Close()
	if err := store.Save(ctx, root, rec); err != nil {
		return err
	}
	a.Logger.Info("snapshot saved", "path", a.SnapshotPath, "root", root, "count", rec.Len())
	return nil
}

// Watch re-runs the traversal after each burst of directory changes under
// the root until ctx is cancelled.
func (a *App) Watch(ctx context.Context) error {
	if a.Config.Provider.Kind != config.ProviderFS {
		return errors.New(errors.CodeNotSupported, "watch mode requires the fs provider")
	}

	w, err := watcher.NewWatcher(a.Config.Watch.Debounce, a.Config.Watch.ExcludeDirs, a.Logger, func(paths []string) {
		a.Logger.Info("change detected", "paths", len(paths))
		if err := a.RunOnce(ctx); err != nil {
			a.Logger.Error("traversal failed", "error", err)
		}
	})
	if err != nil {
		return errors.Wrap(err, errors.CodeInternal, "start watcher")
	}
	defer w.Close()

	if err := w.Watch(a.Config.Traversal.Root); err != nil {
		return errors.AddContext(errors.Wrap(err, errors.CodeRootUnavailable, "watch root"), errors.CtxRoot, a.Config.Traversal.Root)
	}
	a.Logger.Info("watching for changes", "root", a.Config.Traversal.Root)
	<-ctx.Done()
	return nil
}

// History loads the most recent recorded runs.
func (a *App) History(ctx context.Context, limit int) ([]ports.RunRecord, error) {
	if a.recorder == nil {
		store, err := history.Open(a.Config.History.Path)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeInternal, "open run history")
		}
		defer store.Close()
		return store.LoadRuns(ctx, limit)
	}
	return a.recorder.LoadRuns(ctx, limit)
}
