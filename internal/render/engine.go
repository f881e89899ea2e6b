// Package render executes Mapnik XML templates with pongo2, exposing the
// scale and curve helpers as template-callable globals.
package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/flosch/pongo2/v6"

	"github.com/hupe1980/mapnikgen/internal/logging"
	"github.com/hupe1980/mapnikgen/internal/maputil"
	"github.com/hupe1980/mapnikgen/internal/yamlutil"
)

// TemplateError reports a failure to load, parse or execute a template.
type TemplateError struct {
	// Template is the template (or vars file) that failed.
	Template string

	// Line is the template line of the failure, 0 if unknown.
	Line int

	// Err is the underlying engine or I/O error.
	Err error

	// Cause is the helper error that made execution fail, if any.
	Cause error
}

func (e *TemplateError) Error() string {
	var b strings.Builder

	b.WriteString("template ")
	b.WriteString(e.Template)

	if e.Line > 0 {
		fmt.Fprintf(&b, " (line %d)", e.Line)
	}

	b.WriteString(": ")

	if e.Cause != nil {
		b.WriteString(e.Cause.Error())
	} else if e.Err != nil {
		b.WriteString(e.Err.Error())
	}

	return b.String()
}

// Unwrap exposes both the engine error and the helper error to errors.Is
// and errors.As.
func (e *TemplateError) Unwrap() []error {
	var errs []error
	if e.Err != nil {
		errs = append(errs, e.Err)
	}

	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}

	return errs
}

// Option configures an Engine.
type Option func(*config)

type config struct {
	baseDir  string
	varsFile string
	globals  map[string]any
}

// WithBaseDir sets the directory template names and includes resolve
// against. Defaults to the working directory.
func WithBaseDir(dir string) Option {
	return func(cfg *config) {
		if d := strings.TrimSpace(dir); d != "" {
			cfg.baseDir = d
		}
	}
}

// WithVarsFile loads extra context values from a YAML file on every render.
// A file with several documents is merged in order, later documents
// overriding nested keys of earlier ones.
func WithVarsFile(path string) Option {
	return func(cfg *config) {
		cfg.varsFile = strings.TrimSpace(path)
	}
}

// WithGlobals seeds values available to every template. The values are
// copied, so later changes to globals do not affect the Engine.
func WithGlobals(globals map[string]any) Option {
	return func(cfg *config) {
		trimmed := make(map[string]any, len(globals))
		for k, v := range globals {
			trimmed[strings.TrimSpace(k)] = v
		}

		cfg.globals = maputil.Merge(cfg.globals, trimmed)
	}
}

// Engine renders templates from disk. Templates are read and parsed on every
// call so edits are picked up without restarting.
type Engine struct {
	set      *pongo2.TemplateSet
	varsFile string
}

// New constructs an Engine.
func New(opts ...Option) (*Engine, error) {
	cfg := &config{baseDir: "."}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}

	loader, err := pongo2.NewLocalFileSystemLoader(cfg.baseDir)
	if err != nil {
		return nil, fmt.Errorf("creating template loader for %q: %w", cfg.baseDir, err)
	}

	// Output is XML authored in the template itself.
	pongo2.SetAutoescape(false)

	set := pongo2.NewSet("mapnikgen", lstripLoader{loader})
	set.Options.TrimBlocks = true

	if len(cfg.globals) > 0 {
		set.Globals = make(pongo2.Context, len(cfg.globals))
		set.Globals.Update(cfg.globals)
	}

	return &Engine{set: set, varsFile: cfg.varsFile}, nil
}

// Render executes the named template and returns its output. Load, parse and
// execution failures are returned as *TemplateError.
func (e *Engine) Render(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	logger := logging.FromContext(ctx)

	data, err := e.loadVars()
	if err != nil {
		return nil, &TemplateError{Template: e.varsFile, Err: err}
	}

	h := &helpers{}
	data.Update(h.context())

	tpl, err := e.set.FromFile(name)
	if err != nil {
		return nil, newTemplateError(name, err, nil)
	}

	var buf bytes.Buffer
	if err := tpl.ExecuteWriter(data, &buf); err != nil {
		return nil, newTemplateError(name, err, h.err())
	}

	logger.Debug("template rendered",
		slog.String("template", name),
		slog.Int("bytes", buf.Len()),
	)

	return buf.Bytes(), nil
}

func (e *Engine) loadVars() (pongo2.Context, error) {
	data := pongo2.Context{}
	if e.varsFile == "" {
		return data, nil
	}

	raw, err := os.ReadFile(e.varsFile)
	if err != nil {
		return nil, fmt.Errorf("reading vars file: %w", err)
	}

	vars, err := yamlutil.DecodeLayers(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing vars file: %w", err)
	}

	helperNames := (&helpers{}).context()
	for k, v := range vars {
		if _, reserved := helperNames[k]; reserved {
			return nil, fmt.Errorf("vars file key %q shadows a template helper", k)
		}

		data[k] = v
	}

	return data, nil
}

func newTemplateError(name string, err, cause error) *TemplateError {
	te := &TemplateError{Template: name, Err: err, Cause: cause}

	var perr *pongo2.Error
	if errors.As(err, &perr) {
		te.Line = perr.Line
	}

	return te
}
