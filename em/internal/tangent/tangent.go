// Package tangent accumulates running Fourier transforms of the tangential
// E and H components on a set of sampled surfaces. It is shared by the
// near-to-far recorder and the flux accumulator.
package tangent

import (
	"fmt"

	"github.com/cwbudde/algo-n2f/em/dft"
	"github.com/cwbudde/algo-n2f/em/freq"
	"github.com/cwbudde/algo-n2f/em/geom"
)

// Patch is one sampled surface.
type Patch struct {
	Surface geom.Surface
	Points  []geom.SamplePoint
	Tang    [4]geom.Component // Eu, Ev, Hu, Hv

	offset int // index of the first point in the flat point list
}

// Accumulator samples the tangential components of every patch point each
// step. Channel 2*p holds the u component of point p, 2*p+1 the v component.
type Accumulator struct {
	patches []Patch
	points  int
	e, h    *dft.Accumulator
	eBuf    []float64
	hBuf    []float64
}

// New samples the surfaces and allocates the accumulators.
func New(freqs freq.Set, surfaces []geom.Surface, resolution float64, dims, workers int) (*Accumulator, error) {
	patches := make([]Patch, 0, len(surfaces))
	total := 0

	for i, s := range surfaces {
		pts, err := s.Sample(resolution, dims)
		if err != nil {
			return nil, fmt.Errorf("surface %d: %w", i, err)
		}

		patches = append(patches, Patch{
			Surface: s,
			Points:  pts,
			Tang:    geom.Tangential(s.Normal.Axis),
			offset:  total,
		})
		total += len(pts)
	}

	omega := make([]float64, freqs.Len())
	for i := range omega {
		omega[i] = freqs.Omega(i)
	}

	e, err := dft.New(omega, 2*total, dft.WithWorkers(workers))
	if err != nil {
		return nil, err
	}

	h, err := dft.New(omega, 2*total, dft.WithWorkers(workers))
	if err != nil {
		return nil, err
	}

	return &Accumulator{
		patches: patches,
		points:  total,
		e:       e,
		h:       h,
		eBuf:    make([]float64, 2*total),
		hBuf:    make([]float64, 2*total),
	}, nil
}

// Points returns the total number of sample points.
func (a *Accumulator) Points() int { return a.points }

// Steps returns the number of completed steps.
func (a *Accumulator) Steps() int { return a.e.Steps() }

// Step samples fields on every point and updates the transforms. Electric
// samples use the electric time, magnetic samples the magnetic time. Both
// times are checked before either transform changes, so a rejected step
// leaves the accumulator as it was.
func (a *Accumulator) Step(fields geom.Fields) error {
	te, th := fields.Time(geom.Ex), fields.Time(geom.Hx)

	if err := a.e.CheckTime(te); err != nil {
		return fmt.Errorf("electric: %w", err)
	}

	if err := a.h.CheckTime(th); err != nil {
		return fmt.Errorf("magnetic: %w", err)
	}

	for _, p := range a.patches {
		for i, sp := range p.Points {
			ch := 2 * (p.offset + i)
			a.eBuf[ch] = fields.Sample(p.Tang[0], sp.Pos)
			a.eBuf[ch+1] = fields.Sample(p.Tang[1], sp.Pos)
			a.hBuf[ch] = fields.Sample(p.Tang[2], sp.Pos)
			a.hBuf[ch+1] = fields.Sample(p.Tang[3], sp.Pos)
		}
	}

	if err := a.e.Update(te, a.eBuf); err != nil {
		return fmt.Errorf("electric: %w", err)
	}

	if err := a.h.Update(th, a.hBuf); err != nil {
		return fmt.Errorf("magnetic: %w", err)
	}

	return nil
}

// Freeze returns an immutable copy of the accumulated transforms.
func (a *Accumulator) Freeze() *Frozen {
	return &Frozen{
		Patches: a.patches,
		e:       a.e.Snapshot(),
		h:       a.h.Snapshot(),
	}
}

// Frozen holds the tangential Fourier coefficients after accumulation.
type Frozen struct {
	Patches []Patch
	e, h    *dft.Frozen
}

// Steps returns the number of steps that contributed.
func (f *Frozen) Steps() int { return f.e.Steps() }

// At returns the tangential coefficients (Eu, Ev, Hu, Hv) of point i of
// patch p at frequency index fi.
func (f *Frozen) At(fi, p, i int) (eu, ev, hu, hv complex128) {
	ch := 2 * (f.Patches[p].offset + i)
	return f.e.Coefficient(fi, ch), f.e.Coefficient(fi, ch+1),
		f.h.Coefficient(fi, ch), f.h.Coefficient(fi, ch+1)
}
