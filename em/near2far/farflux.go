package near2far

import (
	"context"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/integrate/quad"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/cwbudde/algo-n2f/em/geom"
)

// ErrInvalidContour is returned for non-positive radii or too few samples.
var ErrInvalidContour = errors.New("near2far: invalid integration contour")

// CircleDirections returns n unit vectors in the xy plane at angles 2πi/n.
func CircleDirections(n int) []geom.Vec {
	out := make([]geom.Vec, n)
	for i := range out {
		s, c := math.Sincos(2 * math.Pi * float64(i) / float64(n))
		out[i] = geom.Vec{X: c, Y: s}
	}

	return out
}

// RadialFlux returns the radial Poynting flux Re(E*×H)·d̂ at center+radius·d̂
// for every direction d̂ in dirs (which need not be normalized).
func (e *Evaluator) RadialFlux(ctx context.Context, center geom.Vec, radius float64, dirs []geom.Vec, f float64) ([]float64, error) {
	if !(radius > 0) {
		return nil, fmt.Errorf("%w: radius %v", ErrInvalidContour, radius)
	}

	pts := make([]geom.Vec, len(dirs))
	units := make([]geom.Vec, len(dirs))

	for i, d := range dirs {
		units[i] = r3.Unit(d)
		pts[i] = r3.Add(center, r3.Scale(radius, units[i]))
	}

	fields, err := e.Farfields(ctx, pts, f)
	if err != nil {
		return nil, err
	}

	out := make([]float64, len(fields))
	for i, fl := range fields {
		out[i] = r3.Dot(fl.Poynting(), units[i])
	}

	return out, nil
}

// FluxOnCircle integrates the outward far-field Poynting flux over a circle
// of the given radius in the xy plane, sampled at n equally spaced angles.
// It is meant for 2D evaluators, where the result is a power per unit depth.
func (e *Evaluator) FluxOnCircle(ctx context.Context, center geom.Vec, radius float64, n int, f float64) (float64, error) {
	if n < 3 {
		return 0, fmt.Errorf("%w: need at least 3 samples, got %d", ErrInvalidContour, n)
	}

	sr, err := e.RadialFlux(ctx, center, radius, CircleDirections(n), f)
	if err != nil {
		return 0, err
	}

	// Close the periodic contour so the trapezoidal rule covers [0, 2π].
	phi := make([]float64, n+1)
	val := make([]float64, n+1)

	for i := range n {
		phi[i] = 2 * math.Pi * float64(i) / float64(n)
		val[i] = sr[i] * radius
	}

	phi[n] = 2 * math.Pi
	val[n] = val[0]

	return integrate.Trapezoidal(phi, val), nil
}

// FluxOnSphere integrates the outward far-field Poynting flux over a sphere.
// The polar angle uses nTheta-point Gauss-Legendre quadrature, the azimuth a
// periodic trapezoidal rule with nPhi points.
func (e *Evaluator) FluxOnSphere(ctx context.Context, center geom.Vec, radius float64, nTheta, nPhi int, f float64) (float64, error) {
	if nTheta < 2 || nPhi < 3 {
		return 0, fmt.Errorf("%w: nTheta=%d nPhi=%d", ErrInvalidContour, nTheta, nPhi)
	}

	if _, err := e.freqs.Index(f); err != nil {
		return 0, err
	}

	var firstErr error

	ring := func(theta float64) float64 {
		st, ct := math.Sincos(theta)
		dirs := make([]geom.Vec, nPhi)

		for i := range dirs {
			sp, cp := math.Sincos(2 * math.Pi * float64(i) / float64(nPhi))
			dirs[i] = geom.Vec{X: st * cp, Y: st * sp, Z: ct}
		}

		sr, err := e.RadialFlux(ctx, center, radius, dirs, f)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			return 0
		}

		sum := 0.0
		for _, v := range sr {
			sum += v
		}

		return sum * (2 * math.Pi / float64(nPhi)) * radius * radius * st
	}

	total := quad.Fixed(ring, 0, math.Pi, nTheta, quad.Legendre{}, 0)
	if firstErr != nil {
		return 0, firstErr
	}

	return total, nil
}

// NormalizePattern scales p so that its largest magnitude is one. A pattern
// of zeros is returned unchanged.
func NormalizePattern(p []float64) []float64 {
	out := append([]float64(nil), p...)

	peak := 0.0
	for _, v := range out {
		peak = math.Max(peak, math.Abs(v))
	}

	if peak == 0 {
		return out
	}

	for i := range out {
		out[i] /= peak
	}

	return out
}
