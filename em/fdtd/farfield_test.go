package fdtd_test

import (
	"context"
	"math"
	"testing"

	"github.com/cwbudde/algo-n2f/em/fdtd"
	"github.com/cwbudde/algo-n2f/em/flux"
	"github.com/cwbudde/algo-n2f/em/freq"
	"github.com/cwbudde/algo-n2f/em/geom"
	"github.com/cwbudde/algo-n2f/em/near2far"
	"github.com/cwbudde/algo-n2f/em/source"
)

var testFreqs = []float64{0.4, 0.5, 0.6}

// radiate runs a Gaussian point source of component c in an 8x8 cell and
// records a 2x2 near box for both the near-to-far transform and the flux.
func radiate(t *testing.T, c geom.Component) (*near2far.Evaluator, *flux.Accumulator) {
	t.Helper()

	cfg := fdtd.DefaultConfig()
	cfg.Size = geom.Vec{X: 8, Y: 8}

	sim, err := fdtd.New(cfg)
	if err != nil {
		t.Fatal(err)
	}

	pulse, err := source.NewGaussian(0.5, 0.3)
	if err != nil {
		t.Fatal(err)
	}

	if err := sim.AddSource(fdtd.Source{Component: c, Profile: pulse, Amplitude: 1}); err != nil {
		t.Fatal(err)
	}

	freqs, err := freq.NewSet(testFreqs...)
	if err != nil {
		t.Fatal(err)
	}

	box, err := geom.Box(geom.Vec{}, geom.Vec{X: 2, Y: 2}, 2)
	if err != nil {
		t.Fatal(err)
	}

	rec, err := near2far.NewRecorder(freqs, near2far.WithDimensions(2), near2far.WithResolution(cfg.Resolution))
	if err != nil {
		t.Fatal(err)
	}

	if err := rec.AddSurfaces(box...); err != nil {
		t.Fatal(err)
	}

	fl, err := flux.New(freqs, box, flux.WithDimensions(2), flux.WithResolution(cfg.Resolution))
	if err != nil {
		t.Fatal(err)
	}

	sim.AddHook(rec.Step)
	sim.AddHook(fl.Step)

	if err := sim.Run(context.Background(), fdtd.StopWhenSourcesEnd(20)); err != nil {
		t.Fatal(err)
	}

	ev, err := rec.Freeze()
	if err != nil {
		t.Fatal(err)
	}

	fl.Freeze()

	return ev, fl
}

func TestFDTDFarFluxMatchesNearFlux(t *testing.T) {
	for _, c := range []geom.Component{geom.Ez, geom.Hz} {
		t.Run(c.String(), func(t *testing.T) {
			ev, fl := radiate(t, c)

			for _, f := range testFreqs {
				near, err := fl.FluxAt(f)
				if err != nil {
					t.Fatal(err)
				}

				far, err := ev.FluxOnCircle(context.Background(), geom.Vec{}, 20, 360, f)
				if err != nil {
					t.Fatal(err)
				}

				if !(near > 0) {
					t.Fatalf("f=%v: near flux %v not positive", f, near)
				}

				if r := far / near; math.Abs(r-1) > 0.05 {
					t.Errorf("f=%v: far/near = %.4f (near %.4g, far %.4g)", f, r, near, far)
				}
			}
		})
	}
}

func TestFDTDRadiationPatterns(t *testing.T) {
	ctx := context.Background()
	dirs := near2far.CircleDirections(8)

	// Out-of-plane current: uniform in-plane pattern.
	ez, _ := radiate(t, geom.Ez)

	flat, err := ez.RadialFlux(ctx, geom.Vec{}, 30, dirs, 0.5)
	if err != nil {
		t.Fatal(err)
	}

	for i, v := range near2far.NormalizePattern(flat) {
		if v < 0.95 {
			t.Errorf("Ez source: direction %d normalized flux %.3f", i, v)
		}
	}

	// In-plane x current: lobes along ±y, nulls along ±x.
	ex, _ := radiate(t, geom.Ex)

	lobes, err := ex.RadialFlux(ctx, geom.Vec{}, 30, dirs, 0.5)
	if err != nil {
		t.Fatal(err)
	}

	p := near2far.NormalizePattern(lobes)

	if p[2] < 0.95 || p[6] < 0.95 {
		t.Errorf("lobes along ±y: %.3f %.3f", p[2], p[6])
	}

	if p[0] > 0.05 || p[4] > 0.05 {
		t.Errorf("nulls along ±x: %.3g %.3g", p[0], p[4])
	}

	if math.Abs(p[1]-p[7]) > 0.02 || math.Abs(p[3]-p[5]) > 0.02 {
		t.Errorf("pattern not mirror symmetric in y: %v", p)
	}
}
