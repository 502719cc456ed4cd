package flux

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-n2f/em/freq"
	"github.com/cwbudde/algo-n2f/em/geom"
	"github.com/cwbudde/algo-n2f/internal/testutil"
)

// planeWave is a unit plane wave travelling along +x (Ey = Hz = e^{-ikx}).
func planeWave(k float64) testutil.PhasorFunc {
	return func(p geom.Vec) (e, h [3]complex128) {
		s, c := math.Sincos(k * p.X)
		ph := complex(c, -s)
		e[1] = ph
		h[2] = ph
		return e, h
	}
}

func TestPlaneWaveFlux(t *testing.T) {
	const f = 1.0

	freqs, _ := freq.NewSet(f)
	surfaces := []geom.Surface{
		{Center: geom.Vec{X: 0.3}, Size: geom.Vec{Y: 2, Z: 1}, Normal: geom.Plus(geom.X)},
		{Center: geom.Vec{X: -0.2}, Size: geom.Vec{Y: 2, Z: 1}, Normal: geom.Minus(geom.X)},
	}

	acc, err := New(freqs, surfaces, WithResolution(5))
	if err != nil {
		t.Fatal(err)
	}

	n, err := testutil.DriveHarmonic(f, 2, 16, 1.0/32, planeWave(2*math.Pi*f), acc.Step)
	if err != nil {
		t.Fatal(err)
	}

	scale := float64(n) / 2
	want := 2 * scale * scale // area 2, |S| = 1

	per, err := acc.SurfaceFlux(0)
	if err != nil {
		t.Fatal(err)
	}

	testutil.RequireRelNear(t, per[0], want, 1e-9)
	testutil.RequireRelNear(t, per[1], -want, 1e-9)

	// Nothing is absorbed between the planes.
	total := acc.Flux()[0]
	if math.Abs(total) > 1e-9*want {
		t.Fatalf("net flux = %v, want 0", total)
	}
}

func TestLineSourceBoxFlux(t *testing.T) {
	const f = 0.5

	k := 2 * math.Pi * f
	freqs, _ := freq.NewSet(f)

	faces, err := geom.Box(geom.Vec{}, geom.Vec{X: 3, Y: 3}, 2)
	if err != nil {
		t.Fatal(err)
	}

	acc, err := New(freqs, faces, WithDimensions(2), WithResolution(20))
	if err != nil {
		t.Fatal(err)
	}

	n, err := testutil.DriveHarmonic(f, 1, 40, 0.025, testutil.LineSourceTM(k), acc.Step)
	if err != nil {
		t.Fatal(err)
	}

	scale := float64(n) / 2
	exact := testutil.LineSourcePower(k) * scale * scale

	got, err := acc.FluxAt(f)
	if err != nil {
		t.Fatal(err)
	}

	testutil.RequireRelNear(t, got, exact, 0.01)

	per, _ := acc.SurfaceFlux(0)
	for _, v := range per {
		testutil.RequireRelNear(t, v, exact/4, 0.01)
	}
}

func TestFreezeStopsAccumulation(t *testing.T) {
	freqs, _ := freq.NewSet(1)
	acc, err := New(freqs, []geom.Surface{{Size: geom.Vec{Y: 1, Z: 1}, Normal: geom.Plus(geom.X)}})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := testutil.DriveHarmonic(1, 1, 8, 0, planeWave(2*math.Pi), acc.Step); err != nil {
		t.Fatal(err)
	}

	acc.Freeze()
	before := acc.Flux()

	if _, err := testutil.DriveHarmonic(1, 1, 8, 0, planeWave(2*math.Pi), acc.Step); !errors.Is(err, ErrStopped) {
		t.Fatalf("Step after Freeze: %v", err)
	}

	acc.Freeze()
	if after := acc.Flux(); after[0] != before[0] {
		t.Fatalf("flux changed after freeze: %v -> %v", before[0], after[0])
	}
}

func TestNewErrors(t *testing.T) {
	freqs, _ := freq.NewSet(1)

	if _, err := New(freqs, nil); !errors.Is(err, ErrNoSurfaces) {
		t.Fatalf("no surfaces: %v", err)
	}

	bad := []geom.Surface{{Size: geom.Vec{X: 1, Y: 1}, Normal: geom.Plus(geom.X)}}
	if _, err := New(freqs, bad); !errors.Is(err, geom.ErrInconsistentNormal) {
		t.Fatalf("bad surface: %v", err)
	}

	ok := []geom.Surface{{Size: geom.Vec{Y: 1}, Normal: geom.Plus(geom.X)}}
	if _, err := New(freqs, ok, WithDimensions(5)); !errors.Is(err, geom.ErrInvalidDimensions) {
		t.Fatalf("bad dims: %v", err)
	}

	acc, err := New(freqs, ok, WithDimensions(2))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := acc.FluxAt(2); !errors.Is(err, freq.ErrUnknownFrequency) {
		t.Fatalf("FluxAt: %v", err)
	}

	if _, err := acc.SurfaceFlux(3); !errors.Is(err, freq.ErrUnknownFrequency) {
		t.Fatalf("SurfaceFlux: %v", err)
	}
}
