package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/hupe1980/mapnikgen/internal/config"
	"github.com/hupe1980/mapnikgen/internal/logging"
	"github.com/hupe1980/mapnikgen/internal/output"
	"github.com/hupe1980/mapnikgen/internal/render"
	"github.com/hupe1980/mapnikgen/internal/watch"
)

// generator renders the template into memory and hands the result to the
// writer. It is driven by one goroutine at a time.
type generator struct {
	engine *render.Engine
	input  string
	writer output.Writer

	validate bool
	diff     bool
	previous []byte
}

func newGenerator(cfg *config.Config, input string, w output.Writer) (*generator, error) {
	engine, err := render.New(
		render.WithBaseDir(cfg.BaseDir),
		render.WithVarsFile(cfg.Vars),
	)
	if err != nil {
		return nil, fmt.Errorf("creating template engine: %w", err)
	}

	abs, err := filepath.Abs(input)
	if err != nil {
		return nil, fmt.Errorf("resolving template %q: %w", input, err)
	}

	return &generator{engine: engine, input: abs, writer: w, validate: cfg.ValidateStyle}, nil
}

// trackPrevious seeds the diff baseline with the current contents of path,
// if it exists.
func (g *generator) trackPrevious(path string) {
	g.diff = true

	data, err := os.ReadFile(path) //nolint:gosec // output path chosen by the user
	if err == nil {
		g.previous = data
	} else if !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("cannot read previous output for diff", slog.String("path", path), slog.String("error", err.Error()))
	}
}

// pass renders once. A render error returns before anything is written.
func (g *generator) pass(ctx context.Context) (*watch.RunResult, error) {
	ctx = logging.With(ctx, slog.String("template", g.input))

	data, err := g.engine.Render(ctx, g.input)
	if err != nil {
		return nil, err
	}

	if g.validate {
		if err := g.check(ctx, data); err != nil {
			return nil, err
		}
	}

	result := &watch.RunResult{Bytes: len(data)}

	if g.diff {
		d, err := output.ComputeDiff(string(g.previous), string(data), output.DefaultDiffOptions())
		if err != nil {
			return nil, fmt.Errorf("computing diff: %w", err)
		}

		result.Diff = d
	}

	if err := g.writer.Write(data); err != nil {
		return nil, err
	}

	if g.diff {
		g.previous = data
	}

	return result, nil
}

func (g *generator) check(ctx context.Context, data []byte) error {
	result := output.ValidateStyle(data)

	logger := logging.FromContext(ctx)
	for _, w := range result.Warnings() {
		logger.Warn("style warning", slog.String("field", w.Field), slog.String("message", w.Message))
	}

	return result.Err()
}
