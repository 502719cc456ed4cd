package near2far

import (
	"context"
	"errors"
	"math"
	"math/cmplx"
	"testing"

	"go.uber.org/goleak"

	"github.com/cwbudde/algo-n2f/em/freq"
	"github.com/cwbudde/algo-n2f/em/geom"
	"github.com/cwbudde/algo-n2f/internal/testutil"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const (
	testFreq    = 0.5
	testPeriods = 1
	testSPP     = 40
)

// recordBox drives a time-harmonic field through a recorder whose near
// surfaces form a centred box and returns the frozen evaluator together with
// the DFT scale factor steps/2.
func recordBox(t *testing.T, dims int, boxSize float64, resolution float64, fn testutil.PhasorFunc) (*Evaluator, float64) {
	t.Helper()

	rec, err := NewRecorder(mustBand(t, testFreq), WithDimensions(dims), WithResolution(resolution))
	if err != nil {
		t.Fatal(err)
	}

	size := geom.Vec{X: boxSize, Y: boxSize, Z: boxSize}

	faces, err := geom.Box(geom.Vec{}, size, dims)
	if err != nil {
		t.Fatal(err)
	}

	if err := rec.AddSurfaces(faces...); err != nil {
		t.Fatal(err)
	}

	dt := 1 / (testFreq * testSPP)

	n, err := testutil.DriveHarmonic(testFreq, testPeriods, testSPP, dt/2, fn, rec.Step)
	if err != nil {
		t.Fatal(err)
	}

	ev, err := rec.Freeze()
	if err != nil {
		t.Fatal(err)
	}

	return ev, float64(n) / 2
}

func TestLineSourceFarfield2D(t *testing.T) {
	k := 2 * math.Pi * testFreq
	ref := testutil.LineSourceTM(k)
	ev, scale := recordBox(t, 2, 2, 20, ref)

	angles := []float64{0, 0.4, 1.3, 2.9, 4.2}

	var first, firstRef complex128

	for i, phi := range angles {
		s, c := math.Sincos(phi)
		pt := geom.Vec{X: 25 * c, Y: 25 * s}

		ff, err := ev.Farfield(pt, testFreq)
		if err != nil {
			t.Fatal(err)
		}

		want, wantH := ref(pt)
		got := ff[geom.Ez] / complex(scale, 0)

		if e := cmplx.Abs(got-want[2]) / cmplx.Abs(want[2]); e > 0.01 {
			t.Errorf("phi=%.1f: Ez = %v, want %v (rel err %.3g)", phi, got, want[2], e)
		}

		hNorm := math.Hypot(cmplx.Abs(wantH[0]), cmplx.Abs(wantH[1]))
		for _, c := range []geom.Component{geom.Hx, geom.Hy} {
			gotH := ff[c] / complex(scale, 0)
			if e := cmplx.Abs(gotH-wantH[c.Axis()]) / hNorm; e > 0.01 {
				t.Errorf("phi=%.1f: %v = %v, want %v", phi, c, gotH, wantH[c.Axis()])
			}
		}

		if i == 0 {
			first, firstRef = ff[geom.Ez], want[2]
			continue
		}

		// Relative phase between observation points must match the reference.
		rel := testutil.PhaseDiff(ff[geom.Ez]*cmplx.Conj(first), want[2]*cmplx.Conj(firstRef))
		if math.Abs(rel) > 0.01 {
			t.Errorf("phi=%.1f: relative phase off by %.4f rad", phi, rel)
		}
	}
}

func TestDipoleFarfield3D(t *testing.T) {
	k := 2 * math.Pi * testFreq
	ref := testutil.HertzianDipole(k)
	ev, scale := recordBox(t, 3, 2, 10, ref)

	pts := []geom.Vec{
		{X: 20, Y: 5, Z: 10},
		{X: -8, Y: 15, Z: -12},
		{X: 3, Y: -25, Z: 4},
	}

	for _, pt := range pts {
		ff, err := ev.Farfield(pt, testFreq)
		if err != nil {
			t.Fatal(err)
		}

		wantE, wantH := ref(pt)
		gotE, gotH := ff.E(), ff.H()

		var errE, normE, errH, normH float64

		for i := range 3 {
			errE += sq(cmplx.Abs(gotE[i]/complex(scale, 0) - wantE[i]))
			normE += sq(cmplx.Abs(wantE[i]))
			errH += sq(cmplx.Abs(gotH[i]/complex(scale, 0) - wantH[i]))
			normH += sq(cmplx.Abs(wantH[i]))
		}

		if e := math.Sqrt(errE / normE); e > 0.03 {
			t.Errorf("pt %v: E rel err %.3g", pt, e)
		}

		if e := math.Sqrt(errH / normH); e > 0.03 {
			t.Errorf("pt %v: H rel err %.3g", pt, e)
		}
	}

	p, err := ev.FluxOnSphere(context.Background(), geom.Vec{}, 20, 16, 32, testFreq)
	if err != nil {
		t.Fatal(err)
	}

	testutil.RequireRelNear(t, p/(scale*scale), testutil.HertzianDipolePower(k), 0.03)
}

func sq(x float64) float64 { return x * x }

func TestFarfieldIsIdempotent(t *testing.T) {
	ev, _ := recordBox(t, 2, 2, 10, testutil.LineSourceTM(2*math.Pi*testFreq))

	pts := make([]geom.Vec, 50)
	for i := range pts {
		pts[i] = geom.Vec{X: 30 + float64(i), Y: -7 + 0.5*float64(i)}
	}

	batch, err := ev.Farfields(context.Background(), pts, testFreq)
	if err != nil {
		t.Fatal(err)
	}

	for i, pt := range pts {
		a, err := ev.Farfield(pt, testFreq)
		if err != nil {
			t.Fatal(err)
		}

		b, _ := ev.FarfieldIndex(pt, 0)

		if a != b || a != batch[i] {
			t.Fatalf("point %d: results differ: %v / %v / %v", i, a, b, batch[i])
		}
	}
}

func TestFarfieldAlwaysComplex(t *testing.T) {
	ev, _ := recordBox(t, 2, 2, 10, func(p geom.Vec) (e, h [3]complex128) {
		// Purely real phasors on the surface.
		e[2] = 1
		h[0] = complex(p.Y, 0)
		return e, h
	})

	ff, err := ev.Farfield(geom.Vec{X: 40, Y: 3}, testFreq)
	if err != nil {
		t.Fatal(err)
	}

	if imag(ff[geom.Ez]) == 0 {
		t.Fatalf("Ez = %v has no imaginary part", ff[geom.Ez])
	}
}

func TestUnknownFrequency(t *testing.T) {
	ev, _ := recordBox(t, 2, 2, 5, testutil.LineSourceTM(math.Pi))

	if _, err := ev.Farfield(geom.Vec{X: 10}, 0.55); !errors.Is(err, freq.ErrUnknownFrequency) {
		t.Fatalf("Farfield: %v", err)
	}

	if _, err := ev.FarfieldIndex(geom.Vec{X: 10}, 1); !errors.Is(err, freq.ErrUnknownFrequency) {
		t.Fatalf("FarfieldIndex: %v", err)
	}

	if _, err := ev.Farfields(context.Background(), []geom.Vec{{X: 10}}, 0.45); !errors.Is(err, freq.ErrUnknownFrequency) {
		t.Fatalf("Farfields: %v", err)
	}

	if _, err := ev.FluxOnCircle(context.Background(), geom.Vec{}, 10, 36, 1); !errors.Is(err, freq.ErrUnknownFrequency) {
		t.Fatalf("FluxOnCircle: %v", err)
	}
}

func TestFarfieldsCancelled(t *testing.T) {
	ev, _ := recordBox(t, 2, 2, 5, testutil.LineSourceTM(math.Pi))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pts := make([]geom.Vec, 100)
	for i := range pts {
		pts[i] = geom.Vec{X: 10 + float64(i)}
	}

	if _, err := ev.Farfields(ctx, pts, testFreq); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestSurfaceDistanceInvariance(t *testing.T) {
	ref := testutil.LineSourceTM(2 * math.Pi * testFreq)
	near, _ := recordBox(t, 2, 2, 20, ref)
	far, _ := recordBox(t, 2, 3.5, 20, ref)

	for _, phi := range []float64{0, 0.7, 2.2, 3.9} {
		s, c := math.Sincos(phi)
		pt := geom.Vec{X: 60 * c, Y: 60 * s}

		a, _ := near.Farfield(pt, testFreq)
		b, _ := far.Farfield(pt, testFreq)

		if e := cmplx.Abs(a[geom.Ez]-b[geom.Ez]) / cmplx.Abs(a[geom.Ez]); e > 0.01 {
			t.Errorf("phi=%.1f: Ez %v vs %v (rel diff %.3g)", phi, a[geom.Ez], b[geom.Ez], e)
		}
	}
}

func TestRadiationPatterns(t *testing.T) {
	k := 2 * math.Pi * testFreq
	ctx := context.Background()
	dirs := CircleDirections(8)

	// A current perpendicular to the plane radiates uniformly in-plane.
	perp, _ := recordBox(t, 2, 2, 20, testutil.LineSourceTM(k))

	flat, err := perp.RadialFlux(ctx, geom.Vec{}, 50, dirs, testFreq)
	if err != nil {
		t.Fatal(err)
	}

	norm := NormalizePattern(flat)
	for i, v := range norm {
		if v < 0.99 {
			t.Errorf("perpendicular dipole: direction %d normalized flux %.4f, want ~1", i, v)
		}
	}

	// An in-plane x current has nulls along ±x and lobes along ±y.
	inPlane, _ := recordBox(t, 2, 2, 20, testutil.LineSourceTE(k))

	lobes, err := inPlane.RadialFlux(ctx, geom.Vec{}, 50, dirs, testFreq)
	if err != nil {
		t.Fatal(err)
	}

	p := NormalizePattern(lobes)

	if p[2] < 0.99 || p[6] < 0.99 {
		t.Errorf("lobes along ±y: %.4f, %.4f", p[2], p[6])
	}

	if math.Abs(p[0]) > 1e-3 || math.Abs(p[4]) > 1e-3 {
		t.Errorf("nulls along ±x: %.4g, %.4g", p[0], p[4])
	}

	for i := range 4 {
		if math.Abs(p[i]-p[i+4]) > 1e-3 {
			t.Errorf("pattern not symmetric: p[%d]=%.4f p[%d]=%.4f", i, p[i], i+4, p[i+4])
		}
	}
}

func TestMagnitudes(t *testing.T) {
	fields := []Field{{geom.Ez: complex(3, 4)}, {geom.Ez: complex(0, -2)}}

	got := Magnitudes(fields, geom.Ez)
	testutil.RequireSliceNearlyEqual(t, got, []float64{5, 2}, 1e-12)

	if Magnitudes(nil, geom.Ez) != nil {
		t.Fatal("expected nil for empty input")
	}
}

func TestPoynting(t *testing.T) {
	// Plane wave travelling along +x: Ey = 1, Hz = 1.
	f := Field{geom.Ey: 1, geom.Hz: 1}

	if s := f.Poynting(); s != (geom.Vec{X: 1}) {
		t.Fatalf("Poynting = %v, want (1,0,0)", s)
	}
}

func TestNormalizePattern(t *testing.T) {
	got := NormalizePattern([]float64{1, -4, 2})
	testutil.RequireSliceNearlyEqual(t, got, []float64{0.25, -1, 0.5}, 1e-15)

	zeros := NormalizePattern([]float64{0, 0})
	testutil.RequireSliceNearlyEqual(t, zeros, []float64{0, 0}, 0)
}
