// Package runner drives one configured simulation: it steps the FDTD grid
// with a near-to-far recorder and a flux accumulator attached, then
// evaluates fluxes, radiation patterns, point queries and the optional grid
// export.
package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cwbudde/algo-n2f/em/export"
	"github.com/cwbudde/algo-n2f/em/fdtd"
	"github.com/cwbudde/algo-n2f/em/flux"
	"github.com/cwbudde/algo-n2f/em/geom"
	"github.com/cwbudde/algo-n2f/em/near2far"
	"github.com/cwbudde/algo-n2f/internal/config"
)

// circleSamples is the number of angles used to integrate the far flux.
const circleSamples = 720

// progressEvery is the step interval of progress log entries.
const progressEvery = 1000

// Result summarizes a finished run.
type Result struct {
	RunID       string
	Name        string
	Steps       int
	Time        float64
	Frequencies []float64

	NearFlux []float64 // flux through the flux surfaces
	FarFlux  []float64 // far-field flux integrated over a circle
	Ratio    []float64 // FarFlux / NearFlux

	Directions []geom.Vec
	Pattern    [][]float64 // [frequency][direction], normalized radial flux

	Points      []geom.Vec
	PointFields [][]near2far.Field // [frequency][point]

	ExportPath string
	Evaluator  *near2far.Evaluator
}

// Run executes cfg. The logger must not be nil; pass zap.NewNop() to
// silence it.
func Run(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	logger = logger.With(zap.String("run_id", runID), zap.String("name", cfg.Name))

	sim, err := fdtd.New(cfg.FDTD())
	if err != nil {
		return nil, err
	}

	profile, err := cfg.SourceProfile()
	if err != nil {
		return nil, err
	}

	comp, err := geom.ParseComponent(cfg.Source.Component)
	if err != nil {
		return nil, err
	}

	if err := sim.AddSource(fdtd.Source{
		Component: comp,
		Pos:       cfg.Source.Position.Vec(),
		Profile:   profile,
		Amplitude: cfg.Source.Amplitude,
	}); err != nil {
		return nil, fmt.Errorf("runner: source: %w", err)
	}

	freqs, err := cfg.FrequencySet()
	if err != nil {
		return nil, err
	}

	nearSurfaces, err := cfg.NearSurfaces()
	if err != nil {
		return nil, err
	}

	fluxSurfaces, err := cfg.FluxSurfaces()
	if err != nil {
		return nil, err
	}

	rec, err := near2far.NewRecorder(freqs,
		near2far.WithDimensions(2),
		near2far.WithResolution(cfg.Cell.Resolution),
		near2far.WithMedium(cfg.Cell.Epsilon, cfg.Cell.Mu),
		near2far.WithParallelism(cfg.Parallelism),
	)
	if err != nil {
		return nil, err
	}

	if err := rec.AddSurfaces(nearSurfaces...); err != nil {
		return nil, fmt.Errorf("runner: near surfaces: %w", err)
	}

	fl, err := flux.New(freqs, fluxSurfaces,
		flux.WithDimensions(2),
		flux.WithResolution(cfg.Cell.Resolution),
		flux.WithParallelism(cfg.Parallelism),
	)
	if err != nil {
		return nil, fmt.Errorf("runner: flux surfaces: %w", err)
	}

	sim.AddHook(rec.Step)
	sim.AddHook(fl.Step)
	sim.AddHook(func(geom.Fields) error {
		if sim.Steps()%progressEvery == 0 {
			logger.Debug("step", zap.Int("step", sim.Steps()), zap.Float64("time", sim.Time()))
		}
		return nil
	})

	nx, ny := sim.Grid()
	logger.Info("starting run",
		zap.Int("nx", nx),
		zap.Int("ny", ny),
		zap.Float64("dt", sim.Dt()),
		zap.Int("frequencies", freqs.Len()),
		zap.Int("near_surfaces", len(nearSurfaces)),
		zap.Int("flux_surfaces", len(fluxSurfaces)),
	)

	start := time.Now()

	stop, err := stopCondition(cfg)
	if err != nil {
		return nil, err
	}

	if err := sim.Run(ctx, stop); err != nil {
		logger.Error("run aborted", zap.Int("step", sim.Steps()), zap.Error(err))
		return nil, fmt.Errorf("runner: %w", err)
	}

	logger.Info("time stepping finished",
		zap.Int("steps", sim.Steps()),
		zap.Float64("time", sim.Time()),
		zap.Duration("elapsed", time.Since(start)),
	)

	ev, err := rec.Freeze()
	if err != nil {
		return nil, err
	}

	fl.Freeze()

	res := &Result{
		RunID:       runID,
		Name:        cfg.Name,
		Steps:       sim.Steps(),
		Time:        sim.Time(),
		Frequencies: freqs.Frequencies(),
		NearFlux:    fl.Flux(),
		Evaluator:   ev,
		Points:      cfg.FarFieldPoints(),
	}

	if err := evaluate(ctx, cfg, ev, res, logger); err != nil {
		return nil, err
	}

	if cfg.Export.Path != "" {
		format, err := export.ParseFormat(cfg.Export.Format)
		if err != nil {
			return nil, err
		}

		if err := export.Export(ctx, ev, cfg.ExportGrid(), cfg.Export.Path,
			export.WithFormat(format),
			export.WithRunID(runID),
			export.WithIntensity(cfg.Export.Intensity),
		); err != nil {
			logger.Error("export failed", zap.String("path", cfg.Export.Path), zap.Error(err))
			return nil, err
		}

		res.ExportPath = cfg.Export.Path
		logger.Info("exported far fields", zap.String("path", cfg.Export.Path), zap.Stringer("format", format))
	}

	return res, nil
}

func stopCondition(cfg *config.Config) (fdtd.StopCondition, error) {
	conds := []fdtd.StopCondition{fdtd.StopAfter(cfg.Stop.MaxTime)}

	if d := cfg.Stop.Decay; d != nil {
		c, err := geom.ParseComponent(d.Component)
		if err != nil {
			return nil, err
		}

		conds = append(conds, fdtd.StopWhenFieldsDecayed(d.Interval, c, d.Point.Vec(), d.By))
	} else {
		conds = append(conds, fdtd.StopWhenSourcesEnd(cfg.Stop.AfterSources))
	}

	return fdtd.Any(conds...), nil
}

// evaluate fills the flux comparison, the patterns and the point queries.
func evaluate(ctx context.Context, cfg *config.Config, ev *near2far.Evaluator, res *Result, logger *zap.Logger) error {
	radius := cfg.FarField.Radius
	nf := len(res.Frequencies)

	res.FarFlux = make([]float64, nf)
	res.Ratio = make([]float64, nf)

	if cfg.FarField.Directions > 0 {
		res.Directions = near2far.CircleDirections(cfg.FarField.Directions)
		res.Pattern = make([][]float64, nf)
	}

	if len(res.Points) > 0 {
		res.PointFields = make([][]near2far.Field, nf)
	}

	for fi, f := range res.Frequencies {
		far, err := ev.FluxOnCircle(ctx, geom.Vec{}, radius, circleSamples, f)
		if err != nil {
			return fmt.Errorf("runner: far flux at f=%v: %w", f, err)
		}

		res.FarFlux[fi] = far
		if res.NearFlux[fi] != 0 {
			res.Ratio[fi] = far / res.NearFlux[fi]
		}

		logger.Info("flux",
			zap.Float64("frequency", f),
			zap.Float64("near", res.NearFlux[fi]),
			zap.Float64("far", far),
			zap.Float64("ratio", res.Ratio[fi]),
		)

		if res.Directions != nil {
			radial, err := ev.RadialFlux(ctx, geom.Vec{}, radius, res.Directions, f)
			if err != nil {
				return fmt.Errorf("runner: pattern at f=%v: %w", f, err)
			}

			res.Pattern[fi] = near2far.NormalizePattern(radial)
		}

		if res.PointFields != nil {
			fields, err := ev.FarfieldsIndex(ctx, res.Points, fi)
			if err != nil {
				return fmt.Errorf("runner: point queries at f=%v: %w", f, err)
			}

			res.PointFields[fi] = fields
		}
	}

	return nil
}
