package near2far_test

import (
	"context"
	"math"
	"testing"

	"github.com/cwbudde/algo-n2f/em/flux"
	"github.com/cwbudde/algo-n2f/em/freq"
	"github.com/cwbudde/algo-n2f/em/geom"
	"github.com/cwbudde/algo-n2f/em/near2far"
	"github.com/cwbudde/algo-n2f/internal/testutil"
)

type fluxPair struct {
	near, far, exact float64
}

// runLineSource records a TM line source on a 2x2 box with both a near-to-far
// recorder and a flux accumulator sharing the stepping loop.
func runLineSource(t *testing.T, resolution float64) fluxPair {
	t.Helper()

	const f = 0.5

	k := 2 * math.Pi * f

	freqs, err := freq.NewSet(f)
	if err != nil {
		t.Fatal(err)
	}

	faces, err := geom.Box(geom.Vec{}, geom.Vec{X: 2, Y: 2}, 2)
	if err != nil {
		t.Fatal(err)
	}

	rec, err := near2far.NewRecorder(freqs, near2far.WithDimensions(2), near2far.WithResolution(resolution))
	if err != nil {
		t.Fatal(err)
	}

	if err := rec.AddSurfaces(faces...); err != nil {
		t.Fatal(err)
	}

	fl, err := flux.New(freqs, faces, flux.WithDimensions(2), flux.WithResolution(resolution))
	if err != nil {
		t.Fatal(err)
	}

	n, err := testutil.DriveHarmonic(f, 1, 40, 0.025, testutil.LineSourceTM(k), rec.Step, fl.Step)
	if err != nil {
		t.Fatal(err)
	}

	ev, err := rec.Freeze()
	if err != nil {
		t.Fatal(err)
	}

	fl.Freeze()

	near, err := fl.FluxAt(f)
	if err != nil {
		t.Fatal(err)
	}

	far, err := ev.FluxOnCircle(context.Background(), geom.Vec{}, 50, 720, f)
	if err != nil {
		t.Fatal(err)
	}

	scale := float64(n) / 2

	return fluxPair{near: near, far: far, exact: testutil.LineSourcePower(k) * scale * scale}
}

func TestNearFarFluxConsistency(t *testing.T) {
	p := runLineSource(t, 20)

	testutil.RequireRelNear(t, p.near, p.exact, 0.01)
	testutil.RequireRelNear(t, p.far, p.exact, 0.01)

	ratio := p.near / p.far
	if math.Abs(ratio-1) > 0.01 {
		t.Fatalf("near/far flux ratio = %.6f, want 1 ± 0.01", ratio)
	}
}

func TestFluxConvergesWithResolution(t *testing.T) {
	coarse := runLineSource(t, 4)
	fine := runLineSource(t, 32)

	errCoarse := testutil.RelErr(coarse.far, coarse.exact)
	errFine := testutil.RelErr(fine.far, fine.exact)

	if errFine > errCoarse && errFine > 1e-4 {
		t.Fatalf("far-field flux error grew with resolution: %.3g (res 4) -> %.3g (res 32)", errCoarse, errFine)
	}
}
