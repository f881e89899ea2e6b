package cli

import (
	"fmt"
	"math"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hupe1980/mapnikgen/internal/interp"
	"github.com/hupe1980/mapnikgen/internal/scale"
)

type curveOptions struct {
	exponent  float64
	minZoom   int
	maxZoom   int
	precision int
}

func newCurveCommand() *cobra.Command {
	opts := &curveOptions{}

	cmd := &cobra.Command{
		Use:   "curve zoom:value zoom:value...",
		Short: "Sample an exponential curve at every zoom",
		Long: `Curve builds the same curve as interpolate_exp in a template and prints
its value at each integer zoom. The zoom range defaults to the first and
last control points.`,
		Example: `  mapnikgen curve --exponent 2 10:0 14:10
  mapnikgen curve --exponent 1.5 --min 8 --max 18 10:0.5 14:2 18:12`,
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.MinimumNArgs(2)(cmd, args); err != nil {
				return usageError(err)
			}

			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCurve(cmd, args, opts)
		},
	}

	f := cmd.Flags()
	f.Float64VarP(&opts.exponent, "exponent", "e", 1, "curve exponent (1 is linear)")
	f.IntVar(&opts.minZoom, "min", -1, "first zoom to sample (default: first control point)")
	f.IntVar(&opts.maxZoom, "max", -1, "last zoom to sample (default: last control point)")
	f.IntVar(&opts.precision, "precision", 3, "decimal places to print")

	return cmd
}

func runCurve(cmd *cobra.Command, args []string, opts *curveOptions) error {
	points := make([]interp.ControlPoint, 0, len(args))

	for _, a := range args {
		p, err := interp.ParseControlPoint(a)
		if err != nil {
			return usageError(err)
		}

		points = append(points, p)
	}

	curve, err := interp.MakeCurve(opts.exponent, points...)
	if err != nil {
		return usageError(err)
	}

	minZoom, maxZoom := opts.minZoom, opts.maxZoom
	if minZoom < 0 {
		minZoom = int(math.Floor(points[0].Zoom))
	}

	if maxZoom < 0 {
		maxZoom = int(math.Ceil(points[len(points)-1].Zoom))
	}

	levels, err := scale.ExpandRange(minZoom, maxZoom)
	if err != nil {
		return usageError(err)
	}

	if opts.precision < 0 {
		opts.precision = 0
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ZOOM\tVALUE")

	for _, l := range levels {
		_, _ = fmt.Fprintf(tw, "%d\t%.*f\n", l.Z, opts.precision, curve.Eval(float64(l.Z)))
	}

	return tw.Flush()
}
