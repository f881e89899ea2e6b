package cli

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/hupe1980/mapnikgen/internal/config"
	"github.com/hupe1980/mapnikgen/internal/logging"
	"github.com/hupe1980/mapnikgen/internal/output"
	"github.com/hupe1980/mapnikgen/internal/watch"
)

func registerWatchFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("watch-dir", "", "directory to watch (default: the template's directory)")
	f.Duration("debounce", 0, "quiet period before a change triggers a render (0 renders every change)")
	f.Bool("show-diff", false, "print a unified diff of the output after each render")
}

func runWatch(cmd *cobra.Command, input, out string) error {
	ctx := cmd.Context()
	cfg := config.FromContext(ctx)
	logger := logging.FromContext(ctx)

	if err := checkInput(input); err != nil {
		return usageError(err)
	}

	if out == "-" {
		return usageError(fmt.Errorf("watch mode needs an output file, not stdout"))
	}

	gen, err := newGenerator(cfg, input, output.NewFileWriter(out,
		output.WithAtomic(cfg.Atomic),
		output.WithLogger(logger),
	))
	if err != nil {
		return err
	}

	if cfg.ShowDiff {
		gen.trackPrevious(out)
	}

	opts := watch.Options{
		Input:    input,
		Output:   out,
		WatchDir: cfg.WatchDir,
		Debounce: cfg.Debounce,
		ShowDiff: cfg.ShowDiff,
		Logger:   logger,
		Out:      cmd.ErrOrStderr(),
	}

	if cfg.Vars != "" {
		opts.ExtraFiles = []string{cfg.Vars}
	}

	w, err := watch.New(opts, gen.pass)
	if err != nil {
		return err
	}

	start := time.Now()

	if err := w.Run(ctx); err != nil {
		return err
	}

	logger.Debug("watcher stopped",
		slog.Int64("passes", w.Passes()),
		slog.Duration("uptime", time.Since(start)),
	)

	return nil
}

// checkInput reports a missing or unreadable template before any output is
// produced.
func checkInput(path string) error {
	f, err := os.Open(path) //nolint:gosec // user-supplied template path
	if err != nil {
		return fmt.Errorf("opening template: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("opening template: %w", err)
	}

	if info.IsDir() {
		return fmt.Errorf("opening template: %s is a directory", path)
	}

	return nil
}
