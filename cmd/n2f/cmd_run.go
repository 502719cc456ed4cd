package main

import (
	"fmt"
	"io"
	"math"
	"math/cmplx"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-n2f/em/geom"
	"github.com/cwbudde/algo-n2f/internal/runner"
)

func newRunCmd(a *app) *cobra.Command {
	var (
		exportPath string
		format     string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a simulation and compare near and far flux",
		Long: `Steps the configured simulation until its stop condition fires, then prints
the flux through the flux surfaces next to the far-field flux integrated over a
circle, followed by the fields at the configured observation points.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if exportPath != "" {
				a.cfg.Export.Path = exportPath
			}

			if format != "" {
				a.cfg.Export.Format = format
			}

			res, err := runner.Run(cmd.Context(), a.cfg, a.logger)
			if err != nil {
				return err
			}

			return printRun(cmd.OutOrStdout(), res)
		},
	}

	cmd.Flags().StringVarP(&exportPath, "export", "o", "", "export the far-field grid to this file")
	cmd.Flags().StringVar(&format, "format", "", "export format (sqlite, csv)")

	return cmd
}

func newFarfieldCmd(a *app) *cobra.Command {
	var directions int

	cmd := &cobra.Command{
		Use:   "farfield",
		Short: "Run a simulation and print the radiation pattern",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if directions > 0 {
				a.cfg.FarField.Directions = directions
			}

			if a.cfg.FarField.Directions == 0 {
				return fmt.Errorf("farfield: no directions configured")
			}

			res, err := runner.Run(cmd.Context(), a.cfg, a.logger)
			if err != nil {
				return err
			}

			return printPattern(cmd.OutOrStdout(), res)
		},
	}

	cmd.Flags().IntVarP(&directions, "directions", "n", 0, "number of directions on the circle (overrides the config)")

	return cmd
}

func printRun(w io.Writer, res *runner.Result) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "Run\t%s (%s)\n", res.Name, res.RunID)
	fmt.Fprintf(tw, "Steps\t%d (t=%.2f)\n\n", res.Steps, res.Time)

	fmt.Fprintf(tw, "Frequency\tNear flux\tFar flux\tRatio\n")
	fmt.Fprintf(tw, "---------\t---------\t--------\t-----\n")

	for fi, f := range res.Frequencies {
		fmt.Fprintf(tw, "%.4f\t%.6g\t%.6g\t%.4f\n", f, res.NearFlux[fi], res.FarFlux[fi], res.Ratio[fi])
	}

	if len(res.Points) > 0 {
		fmt.Fprintf(tw, "\nFrequency\tPoint\t|Ex|\t|Ey|\t|Ez|\t|Hx|\t|Hy|\t|Hz|\n")
		fmt.Fprintf(tw, "---------\t-----\t----\t----\t----\t----\t----\t----\n")

		for fi, f := range res.Frequencies {
			for pi, p := range res.Points {
				fld := res.PointFields[fi][pi]
				fmt.Fprintf(tw, "%.4f\t(%g, %g, %g)", f, p.X, p.Y, p.Z)

				for _, c := range geom.Components {
					fmt.Fprintf(tw, "\t%.4g", cmplx.Abs(fld[c]))
				}

				fmt.Fprintln(tw)
			}
		}
	}

	if res.ExportPath != "" {
		fmt.Fprintf(tw, "\nExported\t%s\n", res.ExportPath)
	}

	return tw.Flush()
}

func printPattern(w io.Writer, res *runner.Result) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprint(tw, "Angle [deg]")
	for _, f := range res.Frequencies {
		fmt.Fprintf(tw, "\tf=%.4f", f)
	}

	fmt.Fprintln(tw)

	for d, dir := range res.Directions {
		fmt.Fprintf(tw, "%.1f", angleDeg(dir))

		for fi := range res.Frequencies {
			fmt.Fprintf(tw, "\t%.4f", res.Pattern[fi][d])
		}

		fmt.Fprintln(tw)
	}

	return tw.Flush()
}

// angleDeg returns the polar angle of d in [0, 360).
func angleDeg(d geom.Vec) float64 {
	a := math.Atan2(d.Y, d.X) * 180 / math.Pi
	if a < 0 {
		a += 360
	}

	return a
}
