// Package source provides real-valued time profiles for current sources
// driving a time-domain simulation.
package source

import (
	"errors"
	"fmt"
	"math"
)

// Errors returned by the profile constructors.
var (
	ErrInvalidFrequency = errors.New("source: frequency must be finite and > 0")
	ErrInvalidWidth     = errors.New("source: width must be finite and > 0")
)

// Profile is the time dependence of a source current.
type Profile interface {
	// Current returns the source amplitude at time t.
	Current(t float64) float64
	// Frequency returns the centre frequency.
	Frequency() float64
	// End returns the time after which Current is identically zero, or +Inf.
	End() float64
}

type config struct {
	start  float64
	width  float64
	cutoff float64
}

// Option configures a profile.
type Option func(*config)

// WithStart delays the profile by start.
func WithStart(start float64) Option {
	return func(c *config) {
		if !math.IsNaN(start) && !math.IsInf(start, 0) {
			c.start = start
		}
	}
}

// WithWidth sets the turn-on width of a continuous profile. Zero turns the
// source on abruptly.
func WithWidth(width float64) Option {
	return func(c *config) {
		if width >= 0 && !math.IsInf(width, 0) {
			c.width = width
		}
	}
}

// WithCutoff sets how many Gaussian widths the pulse extends on each side
// of its peak. Values below 1 are ignored.
func WithCutoff(cutoff float64) Option {
	return func(c *config) {
		if cutoff >= 1 && !math.IsInf(cutoff, 0) {
			c.cutoff = cutoff
		}
	}
}

func applyOptions(opts []Option) config {
	c := config{cutoff: 5}
	for _, opt := range opts {
		if opt != nil {
			opt(&c)
		}
	}

	return c
}

func validFrequency(f float64) error {
	if !(f > 0) || math.IsInf(f, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidFrequency, f)
	}

	return nil
}

// Gaussian is a modulated Gaussian pulse:
//
//	s(t) = cos(ω(t-t0))·exp(-(t-t0)²/(2w²)),  w = 1/fwidth, t0 = start + cutoff·w
//
// truncated to [start, start + 2·cutoff·w].
type Gaussian struct {
	freq  float64
	width float64
	peak  float64
	start float64
	end   float64
}

// NewGaussian creates a pulse centred at freq with spectral width fwidth.
func NewGaussian(freq, fwidth float64, opts ...Option) (*Gaussian, error) {
	if err := validFrequency(freq); err != nil {
		return nil, err
	}

	if !(fwidth > 0) || math.IsInf(fwidth, 0) {
		return nil, fmt.Errorf("%w: fwidth %v", ErrInvalidWidth, fwidth)
	}

	c := applyOptions(opts)
	w := 1 / fwidth

	return &Gaussian{
		freq:  freq,
		width: w,
		peak:  c.start + c.cutoff*w,
		start: c.start,
		end:   c.start + 2*c.cutoff*w,
	}, nil
}

// Current implements Profile.
func (g *Gaussian) Current(t float64) float64 {
	if t < g.start || t > g.end {
		return 0
	}

	d := t - g.peak

	return math.Cos(2*math.Pi*g.freq*d) * math.Exp(-d*d/(2*g.width*g.width))
}

// Frequency implements Profile.
func (g *Gaussian) Frequency() float64 { return g.freq }

// End implements Profile.
func (g *Gaussian) End() float64 { return g.end }

// Peak returns the time of maximum envelope.
func (g *Gaussian) Peak() float64 { return g.peak }

// Width returns the temporal width 1/fwidth.
func (g *Gaussian) Width() float64 { return g.width }

// Continuous is a sinusoid switched on smoothly with a tanh ramp.
type Continuous struct {
	freq  float64
	start float64
	width float64
}

// ramp offset in widths; the envelope is below 1e-5 at t = start.
const slowness = 6

// NewContinuous creates a continuous-wave profile at freq.
func NewContinuous(freq float64, opts ...Option) (*Continuous, error) {
	if err := validFrequency(freq); err != nil {
		return nil, err
	}

	c := applyOptions(opts)

	return &Continuous{freq: freq, start: c.start, width: c.width}, nil
}

// Envelope returns the turn-on factor in [0, 1].
func (c *Continuous) Envelope(t float64) float64 {
	if t < c.start {
		return 0
	}

	if c.width == 0 {
		return 1
	}

	return 0.5 * (1 + math.Tanh((t-c.start)/c.width-slowness))
}

// Current implements Profile.
func (c *Continuous) Current(t float64) float64 {
	return c.Envelope(t) * math.Sin(2*math.Pi*c.freq*(t-c.start))
}

// Frequency implements Profile.
func (c *Continuous) Frequency() float64 { return c.freq }

// End implements Profile. A continuous source never ends.
func (c *Continuous) End() float64 { return math.Inf(1) }

// Sample evaluates p at n times t0, t0+dt, ....
func Sample(p Profile, t0, dt float64, n int) ([]float64, error) {
	if n <= 0 {
		return nil, fmt.Errorf("source: sample count must be > 0: %d", n)
	}

	if !(dt > 0) {
		return nil, fmt.Errorf("source: sample interval must be > 0: %v", dt)
	}

	out := make([]float64, n)
	for i := range out {
		out[i] = p.Current(t0 + float64(i)*dt)
	}

	return out, nil
}
