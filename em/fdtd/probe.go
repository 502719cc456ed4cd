package fdtd

import (
	"errors"
	"fmt"
	"math/bits"

	algofft "github.com/MeKo-Christian/algo-fft"

	"github.com/cwbudde/algo-n2f/em/geom"
)

// ErrShortRecord is returned by Spectrum when fewer than two samples exist.
var ErrShortRecord = errors.New("fdtd: probe recorded fewer than two samples")

// Probe records one field component at a fixed point every step.
type Probe struct {
	Component geom.Component
	Pos       geom.Vec

	times   []float64
	samples []float64
}

// NewProbe creates a probe for component c at pt.
func NewProbe(c geom.Component, pt geom.Vec) *Probe {
	return &Probe{Component: c, Pos: pt}
}

// Hook records one sample; register it with Simulation.AddHook.
func (p *Probe) Hook(f geom.Fields) error {
	p.times = append(p.times, f.Time(p.Component))
	p.samples = append(p.samples, f.Sample(p.Component, p.Pos))

	return nil
}

// Samples returns the recorded values.
func (p *Probe) Samples() []float64 { return p.samples }

// Times returns the recorded sample times.
func (p *Probe) Times() []float64 { return p.times }

// Spectrum zero-pads the record to a power of two and returns the
// non-negative frequency bins Σ f(tn)·e^{-iω(tn-t0)}. The record is assumed
// to be uniformly sampled.
func (p *Probe) Spectrum() (freqs []float64, spectrum []complex128, err error) {
	n := len(p.samples)
	if n < 2 {
		return nil, nil, ErrShortRecord
	}

	dt := (p.times[n-1] - p.times[0]) / float64(n-1)
	size := 1 << bits.Len(uint(n-1))

	plan, err := algofft.NewPlan64(size)
	if err != nil {
		return nil, nil, fmt.Errorf("fdtd: fft plan: %w", err)
	}

	in := make([]complex128, size)
	for i, v := range p.samples {
		in[i] = complex(v, 0)
	}

	out := make([]complex128, size)
	if err := plan.Forward(out, in); err != nil {
		return nil, nil, fmt.Errorf("fdtd: fft: %w", err)
	}

	half := size/2 + 1
	freqs = make([]float64, half)

	for k := range freqs {
		freqs[k] = float64(k) / (float64(size) * dt)
	}

	return freqs, out[:half], nil
}
