// Package export evaluates a far-field evaluator over a regular grid and
// writes all six complex field components per frequency to a file.
//
// The default format is an SQLite database laid out like an HDF5 file:
// named datasets ("ex.r", "ex.i", ..., "hz.i") indexed by frequency and
// grid index, with the grid axes stored alongside so that every index maps
// to its exact coordinate. A flat CSV format is available for quick
// inspection.
//
// Output is written to a temporary file in the target directory and renamed
// into place only once it is complete; a failed export never leaves a
// truncated file at the requested path.
package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/cwbudde/algo-n2f/em/freq"
	"github.com/cwbudde/algo-n2f/em/geom"
	"github.com/cwbudde/algo-n2f/em/near2far"
)

// ErrUnknownFormat is returned for unrecognized format names.
var ErrUnknownFormat = errors.New("export: unknown format")

// Format selects the output encoding.
type Format int

// Output formats.
const (
	FormatSQLite Format = iota
	FormatCSV
)

// String returns the format name.
func (f Format) String() string {
	switch f {
	case FormatSQLite:
		return "sqlite"
	case FormatCSV:
		return "csv"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// ParseFormat parses "sqlite" or "csv".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "sqlite", "db":
		return FormatSQLite, nil
	case "csv":
		return FormatCSV, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// Evaluator is the part of near2far.Evaluator the exporter needs.
type Evaluator interface {
	Frequencies() freq.Set
	FarfieldsIndex(ctx context.Context, pts []geom.Vec, fi int) ([]near2far.Field, error)
}

type config struct {
	format    Format
	runID     string
	intensity bool
}

// Option configures an export.
type Option func(*config)

// WithFormat selects the output format.
func WithFormat(f Format) Option {
	return func(c *config) { c.format = f }
}

// WithRunID overrides the generated run identifier.
func WithRunID(id string) Option {
	return func(c *config) {
		if id != "" {
			c.runID = id
		}
	}
}

// WithIntensity adds an "e2" dataset holding |E|² at every point.
func WithIntensity(enabled bool) Option {
	return func(c *config) { c.intensity = enabled }
}

// Result holds the evaluated grid.
type Result struct {
	RunID       string
	Grid        Grid
	Frequencies []float64
	Fields      [][]near2far.Field // [frequency][flat point index]
	Intensity   [][]float64        // nil unless requested
}

// Evaluate computes the fields at every grid point for every declared
// frequency.
func Evaluate(ctx context.Context, ev Evaluator, grid Grid, opts ...Option) (*Result, error) {
	if err := grid.Validate(); err != nil {
		return nil, err
	}

	cfg := config{format: FormatSQLite}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	if cfg.runID == "" {
		cfg.runID = uuid.NewString()
	}

	freqs := ev.Frequencies()
	pts := grid.Points()

	res := &Result{
		RunID:       cfg.runID,
		Grid:        grid,
		Frequencies: freqs.Frequencies(),
		Fields:      make([][]near2far.Field, freqs.Len()),
	}

	for fi := range res.Fields {
		fields, err := ev.FarfieldsIndex(ctx, pts, fi)
		if err != nil {
			return nil, fmt.Errorf("export: evaluate f=%v: %w", freqs.At(fi), err)
		}

		res.Fields[fi] = fields
	}

	if cfg.intensity {
		res.Intensity = make([][]float64, len(res.Fields))
		for fi, fields := range res.Fields {
			res.Intensity[fi] = Intensity(fields)
		}
	}

	return res, nil
}

// Export evaluates ev over grid and writes the result to path.
func Export(ctx context.Context, ev Evaluator, grid Grid, path string, opts ...Option) error {
	cfg := config{format: FormatSQLite}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	res, err := Evaluate(ctx, ev, grid, opts...)
	if err != nil {
		return err
	}

	return Write(ctx, res, path, cfg.format)
}

// Write stores res at path in the given format.
func Write(ctx context.Context, res *Result, path string, format Format) error {
	var write func(context.Context, *Result, string) error

	switch format {
	case FormatSQLite:
		write = writeSQLite
	case FormatCSV:
		write = writeCSV
	default:
		return fmt.Errorf("%w: %v", ErrUnknownFormat, format)
	}

	return atomicWrite(path, func(tmp string) error { return write(ctx, res, tmp) })
}

// atomicWrite lets fn produce a temporary file next to path and renames it
// into place on success. The temporary file is removed on every failure.
func atomicWrite(path string, fn func(tmp string) error) (err error) {
	dir := filepath.Dir(path)

	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("export: create temp file: %w", err)
	}

	tmp := f.Name()

	defer func() {
		if err != nil {
			_ = os.Remove(tmp)
		}
	}()

	if err = f.Close(); err != nil {
		return fmt.Errorf("export: close temp file: %w", err)
	}

	if err = fn(tmp); err != nil {
		return err
	}

	if err = os.Rename(tmp, path); err != nil {
		return fmt.Errorf("export: rename into place: %w", err)
	}

	return nil
}

// datasetNames lists the component datasets in storage order.
func datasetNames() []string {
	names := make([]string, 0, 2*geom.NumComponents)
	for _, c := range geom.Components {
		names = append(names, c.String()+".r", c.String()+".i")
	}

	return names
}

// componentValue returns the real or imaginary part of dataset d (an index
// into datasetNames) of field f.
func componentValue(f near2far.Field, d int) float64 {
	v := f[geom.Components[d/2]]
	if d%2 == 0 {
		return real(v)
	}

	return imag(v)
}
