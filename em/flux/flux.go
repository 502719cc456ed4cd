// Package flux accumulates frequency-domain Poynting flux through a set of
// planar surfaces during a time-domain simulation.
//
// It runs alongside the near-to-far recorder on the same stepping loop and
// provides the near-field reference for energy-conservation checks:
//
//	Φ(ω) = Σ Re(E*(ω) × H(ω))·n̂ dA
//
// over every sample point of every surface. Like the near-to-far
// coefficients, the result is unnormalized.
package flux

import (
	"errors"
	"math"
	"math/cmplx"
	"runtime"

	"github.com/cwbudde/algo-n2f/em/freq"
	"github.com/cwbudde/algo-n2f/em/geom"
	"github.com/cwbudde/algo-n2f/em/internal/tangent"
)

// Errors returned by the flux accumulator.
var (
	ErrNoSurfaces = errors.New("flux: no surfaces")
	ErrStopped    = errors.New("flux: accumulation has stopped")
)

// Config holds flux accumulator parameters.
type Config struct {
	Dimensions  int
	Resolution  float64
	Parallelism int
}

// Option mutates a Config.
type Option func(*Config)

// DefaultConfig returns a 3D configuration at resolution 10.
func DefaultConfig() Config {
	return Config{Dimensions: 3, Resolution: 10, Parallelism: runtime.GOMAXPROCS(0)}
}

// WithDimensions selects 2D or 3D sampling.
func WithDimensions(dims int) Option {
	return func(cfg *Config) { cfg.Dimensions = dims }
}

// WithResolution sets the surface sampling density.
func WithResolution(resolution float64) Option {
	return func(cfg *Config) {
		if resolution > 0 && !math.IsInf(resolution, 0) {
			cfg.Resolution = resolution
		}
	}
}

// WithParallelism limits the goroutines used per step.
func WithParallelism(n int) Option {
	return func(cfg *Config) {
		if n > 0 {
			cfg.Parallelism = n
		}
	}
}

// Accumulator sums tangential Fourier coefficients for flux evaluation.
type Accumulator struct {
	cfg    Config
	freqs  freq.Set
	acc    *tangent.Accumulator
	frozen *tangent.Frozen
}

// New creates a flux accumulator over the given surfaces.
func New(freqs freq.Set, surfaces []geom.Surface, opts ...Option) (*Accumulator, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	if err := geom.ValidDimensions(cfg.Dimensions); err != nil {
		return nil, err
	}

	if len(surfaces) == 0 {
		return nil, ErrNoSurfaces
	}

	acc, err := tangent.New(freqs, surfaces, cfg.Resolution, cfg.Dimensions, cfg.Parallelism)
	if err != nil {
		return nil, err
	}

	return &Accumulator{cfg: cfg, freqs: freqs, acc: acc}, nil
}

// Frequencies returns the frequency set.
func (a *Accumulator) Frequencies() freq.Set { return a.freqs }

// Step adds one time step of field samples.
func (a *Accumulator) Step(fields geom.Fields) error {
	if a.frozen != nil {
		return ErrStopped
	}

	return a.acc.Step(fields)
}

// Freeze ends accumulation. Flux values remain available.
func (a *Accumulator) Freeze() {
	if a.frozen == nil {
		a.frozen = a.acc.Freeze()
		a.acc = nil
	}
}

func (a *Accumulator) data() *tangent.Frozen {
	if a.frozen != nil {
		return a.frozen
	}

	return a.acc.Freeze()
}

// Flux returns the net outward flux for every frequency.
func (a *Accumulator) Flux() []float64 {
	d := a.data()
	out := make([]float64, a.freqs.Len())

	for fi := range out {
		out[fi] = fluxAt(d, fi)
	}

	return out
}

// FluxAt returns the net outward flux at a declared frequency.
func (a *Accumulator) FluxAt(f float64) (float64, error) {
	fi, err := a.freqs.Index(f)
	if err != nil {
		return 0, err
	}

	return fluxAt(a.data(), fi), nil
}

// SurfaceFlux returns the outward flux through each surface separately at
// frequency index fi.
func (a *Accumulator) SurfaceFlux(fi int) ([]float64, error) {
	if err := a.freqs.Check(fi); err != nil {
		return nil, err
	}

	d := a.data()
	out := make([]float64, len(d.Patches))

	for p := range d.Patches {
		out[p] = patchFlux(d, fi, p)
	}

	return out, nil
}

func fluxAt(d *tangent.Frozen, fi int) float64 {
	total := 0.0
	for p := range d.Patches {
		total += patchFlux(d, fi, p)
	}

	return total
}

// patchFlux sums Re(E*×H)·n̂ dA; with (â, û, v̂) right-handed,
// (E*×H)·â = Eu*·Hv − Ev*·Hu.
func patchFlux(d *tangent.Frozen, fi, p int) float64 {
	patch := d.Patches[p]
	sum := 0.0

	for i, sp := range patch.Points {
		eu, ev, hu, hv := d.At(fi, p, i)
		sum += real(cmplx.Conj(eu)*hv-cmplx.Conj(ev)*hu) * sp.Area
	}

	return patch.Surface.Normal.Weight() * sum
}
