package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
)

// csvHeader returns the column names: frequency and grid indices, the
// coordinates, then the twelve component datasets.
func csvHeader(intensity bool) []string {
	h := []string{"frequency", "i", "j", "k", "x", "y", "z"}
	h = append(h, datasetNames()...)

	if intensity {
		h = append(h, intensityDataset)
	}

	return h
}

func writeCSV(ctx context.Context, res *Result, path string) (err error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("export: open csv: %w", err)
	}

	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("export: close csv: %w", cerr)
		}
	}()

	w := csv.NewWriter(f)
	withIntensity := res.Intensity != nil

	if err := w.Write(csvHeader(withIntensity)); err != nil {
		return fmt.Errorf("export: write csv header: %w", err)
	}

	shape := res.Grid.Shape()
	format := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
	row := make([]string, 0, len(csvHeader(withIntensity)))

	for fi, fields := range res.Fields {
		if err := ctx.Err(); err != nil {
			return err
		}

		for i := range shape[0] {
			for j := range shape[1] {
				for k := range shape[2] {
					p := res.Grid.Flat(i, j, k)
					pt := res.Grid.Point(i, j, k)

					row = append(row[:0],
						format(res.Frequencies[fi]),
						strconv.Itoa(i), strconv.Itoa(j), strconv.Itoa(k),
						format(pt.X), format(pt.Y), format(pt.Z),
					)

					for d := range 2 * len(fields[p]) {
						row = append(row, format(componentValue(fields[p], d)))
					}

					if withIntensity {
						row = append(row, format(res.Intensity[fi][p]))
					}

					if err := w.Write(row); err != nil {
						return fmt.Errorf("export: write csv: %w", err)
					}
				}
			}
		}
	}

	w.Flush()

	if err := w.Error(); err != nil {
		return fmt.Errorf("export: flush csv: %w", err)
	}

	if err := f.Sync(); err != nil {
		return fmt.Errorf("export: sync csv: %w", err)
	}

	return nil
}
