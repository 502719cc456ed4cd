package near2far

import (
	"context"
	"fmt"
	"math/cmplx"

	"github.com/cwbudde/algo-vecmath"
	"golang.org/x/sync/errgroup"

	"github.com/cwbudde/algo-n2f/em/freq"
	"github.com/cwbudde/algo-n2f/em/geom"
	"github.com/cwbudde/algo-n2f/em/internal/tangent"
)

// Field holds the six complex field components at one point and frequency,
// indexed by geom.Component.
type Field [geom.NumComponents]complex128

// E returns (Ex, Ey, Ez).
func (f Field) E() [3]complex128 { return [3]complex128{f[geom.Ex], f[geom.Ey], f[geom.Ez]} }

// H returns (Hx, Hy, Hz).
func (f Field) H() [3]complex128 { return [3]complex128{f[geom.Hx], f[geom.Hy], f[geom.Hz]} }

// Poynting returns Re(E* × H).
func (f Field) Poynting() geom.Vec {
	ex, ey, ez := cmplx.Conj(f[geom.Ex]), cmplx.Conj(f[geom.Ey]), cmplx.Conj(f[geom.Ez])
	hx, hy, hz := f[geom.Hx], f[geom.Hy], f[geom.Hz]

	return geom.Vec{
		X: real(ey*hz - ez*hy),
		Y: real(ez*hx - ex*hz),
		Z: real(ex*hy - ey*hx),
	}
}

// pointsPerTask is the number of observation points evaluated per worker task.
const pointsPerTask = 16

// Evaluator computes far fields from frozen near-surface coefficients. All
// methods are safe for concurrent use and return identical results for
// identical arguments.
type Evaluator struct {
	cfg      Config
	freqs    freq.Set
	steps    int
	media    []medium
	currents [][]current // [freq][source]
	kernel   func(medium, geom.Vec, *current, *cvec, *cvec)
}

func newEvaluator(cfg Config, freqs freq.Set, data *tangent.Frozen) *Evaluator {
	ev := &Evaluator{
		cfg:      cfg,
		freqs:    freqs,
		steps:    data.Steps(),
		media:    make([]medium, freqs.Len()),
		currents: make([][]current, freqs.Len()),
		kernel:   green3D,
	}

	if cfg.Dimensions == 2 {
		ev.kernel = green2D
	}

	for fi := range ev.currents {
		ev.media[fi] = newMedium(freqs.Omega(fi), cfg.Epsilon, cfg.Mu)
		ev.currents[fi] = equivalentCurrents(data, fi)
	}

	return ev
}

// equivalentCurrents builds J = n̂×H and M = −n̂×E for every sample point.
// With n̂ = s·â and (â, û, v̂) right-handed:
//
//	J = s(Hu·v̂ − Hv·û),  M = s(Ev·û − Eu·v̂)
func equivalentCurrents(data *tangent.Frozen, fi int) []current {
	var out []current

	for p, patch := range data.Patches {
		a := patch.Surface.Normal.Axis
		u, v := geom.Axis((int(a)+1)%3), geom.Axis((int(a)+2)%3)
		sign := complex(patch.Surface.Normal.Weight(), 0)

		for i, sp := range patch.Points {
			eu, ev, hu, hv := data.At(fi, p, i)
			w := sign * complex(sp.Area, 0)

			var c current
			c.pos = sp.Pos
			c.j[u] = -w * hv
			c.j[v] = w * hu
			c.m[u] = w * ev
			c.m[v] = -w * eu

			out = append(out, c)
		}
	}

	return out
}

// Config returns the configuration the evaluator was built with.
func (e *Evaluator) Config() Config { return e.cfg }

// Frequencies returns the declared frequency set.
func (e *Evaluator) Frequencies() freq.Set { return e.freqs }

// Steps returns the number of time steps that were accumulated.
func (e *Evaluator) Steps() int { return e.steps }

// Sources returns the number of equivalent current elements per frequency.
func (e *Evaluator) Sources() int {
	if len(e.currents) == 0 {
		return 0
	}

	return len(e.currents[0])
}

// Farfield returns the fields at pt for frequency f, which must be one of
// the declared frequencies.
func (e *Evaluator) Farfield(pt geom.Vec, f float64) (Field, error) {
	fi, err := e.freqs.Index(f)
	if err != nil {
		return Field{}, err
	}

	return e.fieldAt(pt, fi), nil
}

// FarfieldIndex returns the fields at pt for the fi-th declared frequency.
func (e *Evaluator) FarfieldIndex(pt geom.Vec, fi int) (Field, error) {
	if err := e.freqs.Check(fi); err != nil {
		return Field{}, err
	}

	return e.fieldAt(pt, fi), nil
}

func (e *Evaluator) fieldAt(pt geom.Vec, fi int) Field {
	var ef, hf cvec

	md := e.media[fi]
	srcs := e.currents[fi]

	for i := range srcs {
		e.kernel(md, pt, &srcs[i], &ef, &hf)
	}

	return Field{ef[0], ef[1], ef[2], hf[0], hf[1], hf[2]}
}

// Farfields evaluates many observation points at frequency f on a worker
// pool. The result order matches pts.
func (e *Evaluator) Farfields(ctx context.Context, pts []geom.Vec, f float64) ([]Field, error) {
	fi, err := e.freqs.Index(f)
	if err != nil {
		return nil, err
	}

	return e.FarfieldsIndex(ctx, pts, fi)
}

// FarfieldsIndex is Farfields for the fi-th declared frequency.
func (e *Evaluator) FarfieldsIndex(ctx context.Context, pts []geom.Vec, fi int) ([]Field, error) {
	if err := e.freqs.Check(fi); err != nil {
		return nil, err
	}

	out := make([]Field, len(pts))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, e.cfg.Parallelism))

	for lo := 0; lo < len(pts); lo += pointsPerTask {
		hi := min(lo+pointsPerTask, len(pts))

		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			for i := lo; i < hi; i++ {
				out[i] = e.fieldAt(pts[i], fi)
			}

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("near2far: evaluation aborted: %w", err)
	}

	return out, nil
}

// Magnitudes returns |c| for each field, computed with the vectorized
// magnitude kernel.
func Magnitudes(fields []Field, c geom.Component) []float64 {
	if len(fields) == 0 {
		return nil
	}

	re := make([]float64, len(fields))
	im := make([]float64, len(fields))

	for i, f := range fields {
		re[i] = real(f[c])
		im[i] = imag(f[c])
	}

	out := make([]float64, len(fields))
	vecmath.Magnitude(out, re, im)

	return out
}
