package cli

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/hupe1980/mapnikgen/internal/scale"
)

func newScalesCommand() *cobra.Command {
	var fragments bool

	cmd := &cobra.Command{
		Use:   "scales <min> <max>",
		Short: "Print the scale denominators of a zoom range",
		Long: `Scales lists every zoom in [min, max] with the scale denominators a
template's zooms(min, max) would produce. The last zoom has no minimum.

Use --fragments to print the XML fragments instead of a table.`,
		Example: `  mapnikgen scales 10 14
  mapnikgen scales --fragments 0 3`,
		Args: exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			minZoom, err := parseZoomArg("min", args[0])
			if err != nil {
				return err
			}

			maxZoom, err := parseZoomArg("max", args[1])
			if err != nil {
				return err
			}

			levels, err := scale.ExpandRange(minZoom, maxZoom)
			if err != nil {
				return usageError(err)
			}

			w := cmd.OutOrStdout()

			if fragments {
				for _, l := range levels {
					_, _ = fmt.Fprintln(w, l.Fragment())
				}

				return nil
			}

			tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(tw, "ZOOM\tMAX SCALE\tMIN SCALE")

			for _, l := range levels {
				maxScale, minScale := l.Bounds()

				minCol := humanize.Comma(minScale)
				if l.IsLast {
					minCol = "-"
				}

				_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\n", l.Z, humanize.Comma(maxScale), minCol)
			}

			return tw.Flush()
		},
	}

	cmd.Flags().BoolVar(&fragments, "fragments", false, "print XML fragments instead of a table")

	return cmd
}

func parseZoomArg(name, s string) (int, error) {
	z, err := strconv.Atoi(s)
	if err != nil {
		return 0, usageError(fmt.Errorf("invalid %s zoom %q: must be an integer", name, s))
	}

	return z, nil
}
