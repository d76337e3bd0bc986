package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"reggie/internal/core/config"
	"reggie/internal/provider"
	"reggie/internal/shared/observability"
	"reggie/internal/ui/report"
)

type rootOptions struct {
	configPath   string
	verbose      bool
	print        bool
	count        bool
	time         bool
	filter       string
	glob         string
	backend      string
	threads      int
	hive         string
	listHives    bool
	provider     string
	source       string
	history      bool
	metricsFile  string
	watch        bool
	saveSnapshot string
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "reggie [ROOT]",
		Short: "Enumerate every key under a registry hive or directory tree",
		Long: `reggie walks a hierarchical namespace from a root and collects the path of
every reachable node. Children that cannot be opened are skipped.

Examples:
  reggie -c -t
  reggie -H HKCU -f 'run$'
  reggie --provider fs -g '**/testdata' ./src`,
		Version:       version,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.listHives {
				return provider.PrintHives(stdout, "")
			}
			return runTraverse(cmd, opts, args, stdout, stderr)
		},
	}

	f := cmd.PersistentFlags()
	f.StringVar(&opts.configPath, "config", config.DefaultPath, "path to TOML config file")
	f.BoolVar(&opts.verbose, "verbose", false, "enable debug logging")

	lf := cmd.Flags()
	lf.BoolVarP(&opts.print, "print", "p", false, "print every discovered path")
	lf.BoolVarP(&opts.count, "print-count", "c", false, "print the number of discovered keys")
	lf.BoolVarP(&opts.time, "print-time", "t", false, "print elapsed time and keys per second")
	lf.StringVarP(&opts.filter, "filter", "f", "", "only print paths matching this case-insensitive regex (implies --print)")
	lf.StringVarP(&opts.glob, "glob", "g", "", "only print paths matching this case-insensitive glob (implies --print)")
	lf.StringVarP(&opts.backend, "backend", "B", "", "traversal strategy: v1|sequential, v2|shared, v3|interned")
	lf.IntVarP(&opts.threads, "num-threads", "T", 0, "worker count for concurrent strategies (0 = CPU count)")
	lf.StringVarP(&opts.hive, "hive", "H", "", "registry hive to traverse (default HKLM)")
	lf.BoolVarP(&opts.listHives, "list-hives", "l", false, "list the known hives and exit")
	lf.StringVar(&opts.provider, "provider", "", "namespace provider: registry|fs|snapshot")
	lf.StringVar(&opts.source, "source", "", "snapshot database for the snapshot provider")
	lf.BoolVar(&opts.history, "history", false, "record this run in the history database")
	lf.StringVar(&opts.metricsFile, "metrics-file", "", "write Prometheus metrics to this file after the run")
	lf.BoolVar(&opts.watch, "watch", false, "re-run on directory changes (fs provider only)")
	lf.StringVar(&opts.saveSnapshot, "save-snapshot", "", "store the traversal result in this SQLite snapshot")

	cmd.AddCommand(newHivesCommand(stdout))
	cmd.AddCommand(newHistoryCommand(opts, stdout, stderr))

	return cmd
}

func newHivesCommand(stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "hives",
		Short: "List the registry hives reggie knows about",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return provider.PrintHives(stdout, "")
		},
	}
}

func newHistoryCommand(rootOpts *rootOptions, stdout, stderr io.Writer) *cobra.Command {
	var (
		limit  int
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recently recorded traversals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadOptional(rootOpts.configPath, cmd.Flags().Changed("config"))
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("limit") {
				limit = cfg.History.Limit
			}
			logger := newLogger(stderr, rootOpts.verbose)
			a := &App{Config: cfg, Logger: logger, Printer: report.NewPrinter(stdout, stderr)}
			runs, err := a.History(cmd.Context(), limit)
			if err != nil {
				return err
			}
			a.Printer.Header(fmt.Sprintf("Last %d recorded runs", len(runs)))
			render := report.RenderHistoryTSV
			if asJSON {
				render = report.RenderHistoryJSON
			}
			data, err := render(runs)
			if err != nil {
				return err
			}
			_, err = stdout.Write(data)
			return err
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "number of runs to show")
	cmd.Flags().BoolVar(&asJSON, "json", false, "render as JSON")
	return cmd
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

// mergeFlags applies explicitly set flags over the loaded configuration.
func mergeFlags(cmd *cobra.Command, opts *rootOptions, args []string, cfg *config.Config) error {
	changed := cmd.Flags().Changed

	if changed("print") {
		cfg.Output.Print = opts.print
	}
	if changed("print-count") {
		cfg.Output.Count = opts.count
	}
	if changed("print-time") {
		cfg.Output.Time = opts.time
	}
	if changed("filter") {
		cfg.Filter.Pattern = opts.filter
	}
	if changed("glob") {
		cfg.Filter.Glob = opts.glob
	}
	if cfg.Filter.Pattern != "" || cfg.Filter.Glob != "" {
		cfg.Output.Print = true
	}
	if changed("backend") {
		cfg.Traversal.Strategy = opts.backend
	}
	if changed("num-threads") {
		cfg.Traversal.Threads = opts.threads
	}
	if changed("provider") {
		cfg.Provider.Kind = strings.ToLower(strings.TrimSpace(opts.provider))
	}
	if changed("source") {
		cfg.Provider.Source = opts.source
	}
	if changed("history") {
		cfg.History.Enabled = opts.history
	}
	if changed("metrics-file") {
		cfg.Metrics.Textfile = opts.metricsFile
	}
	if changed("watch") {
		cfg.Watch.Enabled = opts.watch
	}

	switch {
	case len(args) == 1 && changed("hive"):
		return fmt.Errorf("give either a ROOT argument or --hive, not both")
	case len(args) == 1:
		cfg.Traversal.Root = args[0]
	case changed("hive"):
		cfg.Traversal.Root = opts.hive
	}

	return config.Validate(cfg)
}

func runTraverse(cmd *cobra.Command, opts *rootOptions, args []string, stdout, stderr io.Writer) error {
	logger := newLogger(stderr, opts.verbose)
	printer := report.NewPrinter(stdout, stderr)

	cfg, err := config.LoadOptional(opts.configPath, cmd.Flags().Changed("config"))
	if err == nil {
		err = mergeFlags(cmd, opts, args, cfg)
	}
	if err != nil {
		if errors.Is(err, config.ErrUnknownHive) {
			printer.Header("Valid hives:")
			_ = provider.PrintHives(stderr, "    ")
		}
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	shutdown, err := observability.InitTracing(ctx, observability.TracingConfig{
		Exporter:       cfg.Telemetry.TraceExporter,
		Endpoint:       cfg.Telemetry.OTLPEndpoint,
		Insecure:       cfg.Telemetry.OTLPInsecure,
		ServiceVersion: version,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			logger.Warn("trace shutdown failed", "error", err)
		}
	}()

	a, err := NewApp(cfg, logger, printer)
	if err != nil {
		return err
	}
	defer a.Close()
	a.SnapshotPath = opts.saveSnapshot

	if err := a.RunOnce(ctx); err != nil {
		return err
	}
	if cfg.Watch.Enabled {
		return a.Watch(ctx)
	}
	return nil
}
