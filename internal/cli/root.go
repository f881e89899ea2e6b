// Package cli implements the cobra command tree for mapnikgen.
package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/hupe1980/mapnikgen/internal/config"
	"github.com/hupe1980/mapnikgen/internal/logging"
)

// ExitError wraps an error with a specific process exit code.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}

	return fmt.Sprintf("exit code %d", e.Code)
}

func (e *ExitError) Unwrap() error { return e.Err }

// usageError marks err as a command-line mistake (exit code 2).
func usageError(err error) error {
	return &ExitError{Code: 2, Err: err}
}

// Execute builds the command tree, runs it against os.Args, and returns the
// exit code.
func Execute() int {
	return run(NewRootCommand(), os.Stderr)
}

func run(cmd *cobra.Command, stderr io.Writer) int {
	err := cmd.Execute()
	if err == nil {
		return 0
	}

	_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}

	return 1
}

// NewRootCommand constructs the top-level cobra.Command with all
// subcommands attached.
func NewRootCommand() *cobra.Command {
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "mapnikgen <input> <output>",
		Short: "Render Mapnik XML styles from templates and keep them up to date",
		Long: `mapnikgen renders a Mapnik XML style from a template and re-renders it
whenever a file in the template's directory changes.

Templates are Jinja-style (pongo2) and can call scale and curve helpers:

  zooms(min, max)              one entry per zoom with its scale denominators
  min_zoom_elem(min)           a MaxScaleDenominator tag without a floor
  interpolate_exp(e, z, v...)  an exponential curve callable with a zoom

Run "mapnikgen render" for a single pass, or "mapnikgen scales" and
"mapnikgen curve" to inspect the numbers a template would see.`,
		Example: `  mapnikgen style.xml.j2 style.xml
  mapnikgen --debounce 200ms --show-diff style.xml.j2 build/style.xml
  mapnikgen render style.xml.j2 -`,
		Args:          exactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd, cfgFile)
			if err != nil {
				return usageError(err)
			}

			logger := logging.Setup(cfg)

			ctx := cmd.Context()
			ctx = config.NewContext(ctx, cfg)
			ctx = logging.NewContext(ctx, logger)
			cmd.SetContext(ctx)

			logger.Debug("configuration loaded",
				slog.String("logLevel", cfg.LogLevel),
				slog.String("logFormat", cfg.LogFormat),
				slog.String("configFile", cfg.ConfigFile),
			)

			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, args[0], args[1])
		},
	}

	// Global persistent flags.
	pf := cmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default: .mapnikgen.yaml)")
	pf.String("log-level", "info", "log level: debug, info, warn, error")
	pf.String("log-format", "text", "log format: text, json")
	pf.BoolP("quiet", "q", false, "suppress non-essential output")

	// Template flags, shared with render.
	pf.String("base-dir", ".", "directory template names and includes resolve against")
	pf.String("vars", "", "YAML file of extra template values")
	pf.Bool("atomic", false, "write output through a temporary file and rename")
	pf.Bool("validate", false, "check the rendered style and skip the write if it has errors")

	// Watch flags.
	registerWatchFlags(cmd)

	// Flag parsing errors return exit code 2.
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError(err)
	})

	cmd.AddCommand(
		newRenderCommand(),
		newScalesCommand(),
		newCurveCommand(),
		newVersionCommand(),
		newCompletionCommand(),
	)

	return cmd
}

// exactArgs is cobra.ExactArgs with a usage exit code.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return usageError(err)
		}

		return nil
	}
}

// rangeArgs is cobra.RangeArgs with a usage exit code.
func rangeArgs(minArgs, maxArgs int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.RangeArgs(minArgs, maxArgs)(cmd, args); err != nil {
			return usageError(err)
		}

		return nil
	}
}
