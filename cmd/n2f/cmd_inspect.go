package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"text/tabwriter"

	"github.com/cwbudde/algo-vecmath/cpu"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cwbudde/algo-n2f/em/export"
	"github.com/cwbudde/algo-n2f/em/geom"
)

func newInspectCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <file>",
		Short: "Summarize a far-field export",
		Long: `Reads an SQLite far-field export and prints its run id, grid and, per
frequency, the peak |E|² and the point where it occurs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := export.Read(args[0])
			if err != nil {
				return err
			}

			a.logger.Debug("read export", zap.String("path", args[0]), zap.String("run_id", res.RunID))

			return printExport(cmd.OutOrStdout(), res)
		},
	}
}

func printExport(w io.Writer, res *export.Result) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	shape := res.Grid.Shape()
	fmt.Fprintf(tw, "Run\t%s\n", res.RunID)
	fmt.Fprintf(tw, "Grid\t%d x %d x %d (resolution %g)\n", shape[0], shape[1], shape[2], res.Grid.Resolution)
	fmt.Fprintf(tw, "Center\t(%g, %g, %g)\n\n", res.Grid.Center.X, res.Grid.Center.Y, res.Grid.Center.Z)

	intensity := res.Intensity
	if intensity == nil {
		intensity = make([][]float64, len(res.Fields))
		for fi, fields := range res.Fields {
			intensity[fi] = export.Intensity(fields)
		}
	}

	fmt.Fprintf(tw, "Frequency\tPeak |E|²\tAt\n")
	fmt.Fprintf(tw, "---------\t---------\t--\n")

	pts := res.Grid.Points()
	for fi, f := range res.Frequencies {
		k, peak := argmax(intensity[fi])
		at := geom.Vec{}
		if k >= 0 {
			at = pts[k]
		}

		fmt.Fprintf(tw, "%.4f\t%.6g\t(%g, %g, %g)\n", f, peak, at.X, at.Y, at.Z)
	}

	return tw.Flush()
}

func argmax(v []float64) (int, float64) {
	k, best := -1, 0.0
	for i, x := range v {
		if k < 0 || x > best {
			k, best = i, x
		}
	}

	return k, best
}

func newInitCmd(a *app) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init <file>",
		Short: "Write the active configuration as YAML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]

			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			} else if err != nil && !errors.Is(err, os.ErrNotExist) {
				return err
			}

			if err := a.cfg.Save(path); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)

			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")

	return cmd
}

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Print the SIMD features used by the vector kernels",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return printInfo(cmd.OutOrStdout(), cpu.DetectFeatures())
		},
	}
}

func printInfo(w io.Writer, f cpu.Features) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	arch := f.Architecture
	if arch == "" {
		arch = runtime.GOARCH
	}

	fmt.Fprintf(tw, "Go\t%s %s/%s\n", runtime.Version(), runtime.GOOS, arch)
	fmt.Fprintf(tw, "CPUs\t%d\n", runtime.NumCPU())
	fmt.Fprintf(tw, "SSE2\t%v\n", f.HasSSE2)
	fmt.Fprintf(tw, "AVX\t%v\n", f.HasAVX)
	fmt.Fprintf(tw, "AVX2\t%v\n", f.HasAVX2)
	fmt.Fprintf(tw, "AVX-512\t%v\n", f.HasAVX512)
	fmt.Fprintf(tw, "NEON\t%v\n", f.HasNEON)
	fmt.Fprintf(tw, "Generic only\t%v\n", f.ForceGeneric)

	return tw.Flush()
}
