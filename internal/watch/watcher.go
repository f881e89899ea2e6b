package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fsnotify/fsnotify"

	"github.com/hupe1980/mapnikgen/internal/output"
)

// RenderFunc performs one render-and-write pass. A failed pass must leave
// the previous output in place.
type RenderFunc func(ctx context.Context) (*RunResult, error)

// RunResult describes a successful pass.
type RunResult struct {
	// Bytes is the size of the written output.
	Bytes int

	// Diff is the change against the previous output, nil if not computed.
	Diff *output.Diff
}

// Options configures a Watcher.
type Options struct {
	// Input is the template path.
	Input string

	// Output is the rendered file. Events on it, and on temporary files
	// written next to it, never trigger a pass.
	Output string

	// WatchDir is watched recursively. Defaults to the directory of Input.
	WatchDir string

	// ExtraFiles are additional files to watch (e.g. a vars file). Their
	// parent directories are watched so saves that replace the file by
	// rename are seen; other files in those directories are ignored.
	ExtraFiles []string

	// Debounce is the quiet period before a change is queued. Zero queues
	// every change immediately.
	Debounce time.Duration

	// ShowDiff prints the unified diff of each pass to Out.
	ShowDiff bool

	// Logger is used for structured logging.
	Logger *slog.Logger

	// Out is the writer for user-facing status messages.
	Out io.Writer
}

// DefaultOptions returns default watch options.
func DefaultOptions() Options {
	return Options{
		Logger: slog.Default(),
		Out:    os.Stderr,
	}
}

// Watcher re-renders a template whenever its directory changes. Passes run
// one at a time on a single goroutine fed by a one-slot queue, so changes
// that arrive during a pass collapse into one follow-up pass.
type Watcher struct {
	opts   Options
	render RenderFunc

	queue    chan string
	stop     chan struct{}
	stopOnce sync.Once
	passes   atomic.Int64

	output string
	extra  map[string]struct{}
}

// New validates opts and returns a Watcher.
func New(opts Options, render RenderFunc) (*Watcher, error) {
	if render == nil {
		return nil, errors.New("render function is required")
	}

	if opts.Input == "" {
		return nil, errors.New("input path is required")
	}

	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	if opts.Out == nil {
		opts.Out = io.Discard
	}

	input, err := filepath.Abs(opts.Input)
	if err != nil {
		return nil, fmt.Errorf("resolving input %q: %w", opts.Input, err)
	}

	if opts.WatchDir == "" {
		opts.WatchDir = filepath.Dir(input)
	} else if opts.WatchDir, err = filepath.Abs(opts.WatchDir); err != nil {
		return nil, fmt.Errorf("resolving watch dir: %w", err)
	}

	if !within(opts.WatchDir, input) {
		opts.ExtraFiles = append(append([]string(nil), opts.ExtraFiles...), input)
	}

	w := &Watcher{
		opts:   opts,
		render: render,
		queue:  make(chan string, 1),
		stop:   make(chan struct{}),
	}

	w.extra = make(map[string]struct{}, len(opts.ExtraFiles))
	for _, f := range opts.ExtraFiles {
		abs, absErr := filepath.Abs(f)
		if absErr != nil {
			return nil, fmt.Errorf("resolving extra file %q: %w", f, absErr)
		}

		w.extra[abs] = struct{}{}
	}

	if opts.Output != "" {
		if w.output, err = filepath.Abs(opts.Output); err != nil {
			return nil, fmt.Errorf("resolving output %q: %w", opts.Output, err)
		}
	}

	return w, nil
}

// Run performs the initial pass and then watches until ctx is cancelled,
// Stop is called, or SIGINT/SIGTERM is received. A pass in flight when the
// watcher stops runs to completion.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := addRecursive(watcher, w.opts.WatchDir); err != nil {
		return fmt.Errorf("watching directory: %w", err)
	}

	for _, dir := range w.extraDirs() {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("watching directory %q: %w", dir, err)
		}
	}

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loopCtx, cancel := context.WithCancel(sigCtx)
	defer cancel()

	go func() {
		select {
		case <-w.stop:
			cancel()
		case <-loopCtx.Done():
		}
	}()

	fmt.Fprintf(w.opts.Out, "watching %s (template=%s, debounce=%s)\n",
		w.opts.WatchDir, w.opts.Input, w.opts.Debounce)

	w.pass(loopCtx, "(initial)")

	var wg sync.WaitGroup

	wg.Add(1)

	go func() {
		defer wg.Done()
		w.renderLoop(loopCtx)
	}()

	defer func() {
		cancel()
		wg.Wait()
	}()

	enqueue := w.Trigger
	if w.opts.Debounce > 0 {
		debouncer := NewDebouncer(w.opts.Debounce, w.Trigger)
		defer debouncer.Stop()

		enqueue = debouncer.Trigger
	}

	for {
		select {
		case <-loopCtx.Done():
			fmt.Fprintln(w.opts.Out, "\nshutting down watcher")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if !w.wants(event) {
				continue
			}

			if event.Has(fsnotify.Create) {
				if info, statErr := os.Stat(event.Name); statErr == nil && info.IsDir() {
					_ = addRecursive(watcher, event.Name)
				}
			}

			w.opts.Logger.Debug("change detected",
				slog.String("path", event.Name),
				slog.String("op", event.Op.String()),
			)

			enqueue(event.Name)

		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}

			w.opts.Logger.Error("watcher error", slog.String("error", watchErr.Error()))
		}
	}
}

// Trigger queues a pass. If a pass is already queued the call is a no-op,
// since the queued pass will read the latest state anyway.
func (w *Watcher) Trigger(path string) {
	select {
	case w.queue <- path:
	default:
	}
}

// Stop ends a running watch loop. It is safe to call more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() { close(w.stop) })
}

// Passes returns the number of completed passes, successful or not.
func (w *Watcher) Passes() int64 {
	return w.passes.Load()
}

func (w *Watcher) renderLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case trigger := <-w.queue:
			w.pass(ctx, trigger)
		}
	}
}

// pass runs one render and prints its status line. Errors end the pass,
// never the loop.
func (w *Watcher) pass(ctx context.Context, trigger string) {
	defer w.passes.Add(1)

	now := time.Now().Format("15:04:05")

	result, err := w.render(ctx)
	if err != nil {
		fmt.Fprintf(w.opts.Out, "[%s] %s → ERROR: %v\n", now, trigger, err)
		w.opts.Logger.Debug("render failed", slog.String("trigger", trigger), slog.String("error", err.Error()))

		return
	}

	if result == nil {
		result = &RunResult{}
	}

	changes := ""
	if result.Diff != nil {
		changes = ", " + result.Diff.Summary()
	}

	fmt.Fprintf(w.opts.Out, "[%s] %s → OK (%s%s)\n",
		now, trigger, humanize.Bytes(uint64(result.Bytes)), changes) //nolint:gosec // size is never negative

	if w.opts.ShowDiff && !result.Diff.Empty() {
		_, _ = result.Diff.WriteTo(w.opts.Out)
	}
}

// extraDirs returns the parent directories of the extra files that the
// recursive watch does not already cover.
func (w *Watcher) extraDirs() []string {
	seen := make(map[string]struct{})

	var dirs []string

	for f := range w.extra {
		dir := filepath.Dir(f)
		if within(w.opts.WatchDir, dir) {
			continue
		}

		if _, ok := seen[dir]; ok {
			continue
		}

		seen[dir] = struct{}{}
		dirs = append(dirs, dir)
	}

	sort.Strings(dirs)

	return dirs
}

// wants reports whether event should queue a pass. Extra files count by
// name; anything else must be inside the watch dir.
func (w *Watcher) wants(event fsnotify.Event) bool {
	if !isRelevant(event) || w.isOwnOutput(event.Name) {
		return false
	}

	abs, err := filepath.Abs(event.Name)
	if err != nil {
		return false
	}

	if _, ok := w.extra[abs]; ok {
		return true
	}

	return within(w.opts.WatchDir, abs)
}

func (w *Watcher) isOwnOutput(name string) bool {
	if w.output == "" {
		return false
	}

	abs, err := filepath.Abs(name)
	if err != nil {
		return false
	}

	return abs == w.output || output.IsTempFile(w.output, abs)
}

// addRecursive walks root and adds all directories to the watcher.
func addRecursive(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			// Skip hidden directories (e.g., .git).
			if strings.HasPrefix(d.Name(), ".") && path != root {
				return filepath.SkipDir
			}

			return watcher.Add(path)
		}

		return nil
	})
}

// isRelevant filters out no-op events and editor scratch files.
func isRelevant(event fsnotify.Event) bool {
	if event.Op == 0 {
		return false
	}

	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}

	name := filepath.Base(event.Name)

	if strings.HasPrefix(name, ".") || strings.HasSuffix(name, "~") ||
		strings.HasSuffix(name, ".swp") || strings.HasPrefix(name, "#") {
		return false
	}

	return true
}

func within(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}

	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
