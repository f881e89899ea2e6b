package cli

import (
	"fmt"
	"log/slog"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/hupe1980/mapnikgen/internal/config"
	"github.com/hupe1980/mapnikgen/internal/logging"
	"github.com/hupe1980/mapnikgen/internal/output"
)

func newRenderCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render <input> [output|-]",
		Short: "Render a template once and exit",
		Long: `Render executes the template a single time. The result is written to
output, or to stdout when output is omitted or "-".

Template errors exit with code 1 and leave an existing output file
untouched.`,
		Args: rangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := "-"
			if len(args) == 2 {
				out = args[1]
			}

			return runRender(cmd, args[0], out)
		},
	}

	cmd.Flags().Bool("show-diff", false, "print a unified diff against the existing output to stderr")

	return cmd
}

func runRender(cmd *cobra.Command, input, out string) error {
	ctx := cmd.Context()
	cfg := config.FromContext(ctx)
	logger := logging.FromContext(ctx)

	if err := checkInput(input); err != nil {
		return usageError(err)
	}

	var w output.Writer = output.NewStdoutWriter(cmd.OutOrStdout())
	if out != "-" {
		w = output.NewFileWriter(out, output.WithAtomic(cfg.Atomic), output.WithLogger(logger))
	}

	gen, err := newGenerator(cfg, input, w)
	if err != nil {
		return err
	}

	if cfg.ShowDiff && out != "-" {
		gen.trackPrevious(out)
	}

	result, err := gen.pass(ctx)
	if err != nil {
		return err
	}

	if result.Diff != nil {
		_, _ = fmt.Fprintln(cmd.ErrOrStderr(), result.Diff.Summary())
		_, _ = result.Diff.WriteTo(cmd.ErrOrStderr())
	}

	logger.Info("rendered",
		slog.String("template", input),
		slog.String("output", out),
		slog.String("size", humanize.Bytes(uint64(result.Bytes))), //nolint:gosec // size is never negative
	)

	return nil
}
