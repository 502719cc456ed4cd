// Package dft implements running discrete Fourier transforms of sampled
// time-domain signals at a fixed set of angular frequencies.
//
// Each update adds sample·e^{-iωt} to a complex accumulator per
// (frequency, channel) pair (rectangular rule). No normalization or time-step
// factor is applied, so coefficients are only meaningful relative to each
// other.
//
// Updates must arrive in strictly increasing time order. Within a single
// update the frequencies are independent and are sharded across goroutines
// once the work is large enough.
package dft

import (
	"errors"
	"fmt"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Errors returned by the accumulator.
var (
	ErrTimeOrder    = errors.New("dft: update time must be strictly increasing")
	ErrChannelCount = errors.New("dft: sample count does not match channel count")
	ErrNoFrequency  = errors.New("dft: at least one frequency is required")
	ErrNoChannel    = errors.New("dft: at least one channel is required")
)

// parallelThreshold is the number of complex multiply-adds per update below
// which the update runs on the calling goroutine.
const parallelThreshold = 1 << 14

// Option configures an Accumulator.
type Option func(*config)

type config struct {
	workers int
}

// WithWorkers limits the number of goroutines used per update. Values < 1
// select GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(c *config) {
		c.workers = n
	}
}

func applyOptions(opts ...Option) config {
	cfg := config{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	if cfg.workers < 1 {
		cfg.workers = runtime.GOMAXPROCS(0)
	}

	return cfg
}

// Accumulator holds running Fourier sums for a fixed set of channels.
// It is not safe for concurrent updates.
type Accumulator struct {
	omega    []float64
	channels int
	data     []complex128 // [freq][channel]
	phase    []complex128
	workers  int

	steps int
	lastT float64
}

// New creates an accumulator for the given angular frequencies and number of
// channels.
func New(omega []float64, channels int, opts ...Option) (*Accumulator, error) {
	if len(omega) == 0 {
		return nil, ErrNoFrequency
	}

	if channels < 1 {
		return nil, ErrNoChannel
	}

	cfg := applyOptions(opts...)

	return &Accumulator{
		omega:    append([]float64(nil), omega...),
		channels: channels,
		data:     make([]complex128, len(omega)*channels),
		phase:    make([]complex128, len(omega)),
		workers:  cfg.workers,
		lastT:    math.Inf(-1),
	}, nil
}

// Channels returns the number of channels.
func (a *Accumulator) Channels() int { return a.channels }

// Frequencies returns the number of frequencies.
func (a *Accumulator) Frequencies() int { return len(a.omega) }

// Steps returns the number of updates applied so far.
func (a *Accumulator) Steps() int { return a.steps }

// CheckTime reports whether an update at time t would be accepted.
func (a *Accumulator) CheckTime(t float64) error {
	if !(t > a.lastT) {
		return fmt.Errorf("%w: %v after %v", ErrTimeOrder, t, a.lastT)
	}

	return nil
}

// Update adds one time sample per channel, taken at time t.
func (a *Accumulator) Update(t float64, samples []float64) error {
	if len(samples) != a.channels {
		return fmt.Errorf("%w: got %d, want %d", ErrChannelCount, len(samples), a.channels)
	}

	if err := a.CheckTime(t); err != nil {
		return err
	}

	for fi, w := range a.omega {
		s, c := math.Sincos(w * t)
		a.phase[fi] = complex(c, -s)
	}

	nf := len(a.omega)
	if a.workers <= 1 || nf < 2 || nf*a.channels < parallelThreshold {
		a.accumulate(0, nf, samples)
	} else {
		shards := min(a.workers, nf)
		per := (nf + shards - 1) / shards

		var g errgroup.Group
		g.SetLimit(shards)

		for lo := 0; lo < nf; lo += per {
			hi := min(lo+per, nf)
			g.Go(func() error {
				a.accumulate(lo, hi, samples)
				return nil
			})
		}

		_ = g.Wait()
	}

	a.lastT = t
	a.steps++

	return nil
}

// accumulate updates frequencies [lo, hi). Shards write disjoint rows.
func (a *Accumulator) accumulate(lo, hi int, samples []float64) {
	for fi := lo; fi < hi; fi++ {
		ph := a.phase[fi]
		row := a.data[fi*a.channels : (fi+1)*a.channels]

		for ch, v := range samples {
			row[ch] += complex(v*real(ph), v*imag(ph))
		}
	}
}

// Coefficient returns the current sum for frequency index fi and channel ch.
func (a *Accumulator) Coefficient(fi, ch int) complex128 {
	return a.data[fi*a.channels+ch]
}

// Snapshot returns an independent, read-only copy of the current sums.
func (a *Accumulator) Snapshot() *Frozen {
	return &Frozen{
		channels: a.channels,
		nfreq:    len(a.omega),
		data:     append([]complex128(nil), a.data...),
		steps:    a.steps,
	}
}

// Frozen is an immutable set of Fourier sums. It is safe for concurrent use.
type Frozen struct {
	channels int
	nfreq    int
	data     []complex128
	steps    int
}

// Channels returns the number of channels.
func (f *Frozen) Channels() int { return f.channels }

// Frequencies returns the number of frequencies.
func (f *Frozen) Frequencies() int { return f.nfreq }

// Steps returns the number of updates that contributed to the sums.
func (f *Frozen) Steps() int { return f.steps }

// Coefficient returns the sum for frequency index fi and channel ch.
func (f *Frozen) Coefficient(fi, ch int) complex128 {
	return f.data[fi*f.channels+ch]
}

// Row returns a copy of all channel sums for frequency index fi.
func (f *Frozen) Row(fi int) []complex128 {
	return append([]complex128(nil), f.data[fi*f.channels:(fi+1)*f.channels]...)
}
