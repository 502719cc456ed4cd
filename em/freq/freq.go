// Package freq defines the fixed, ordered set of frequencies at which
// near-field Fourier coefficients are accumulated.
package freq

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Errors returned by frequency set construction and lookup.
var (
	ErrEmptySet         = errors.New("freq: frequency set is empty")
	ErrInvalidFrequency = errors.New("freq: frequency must be positive and finite")
	ErrInvalidBand      = errors.New("freq: invalid band")
	ErrUnknownFrequency = errors.New("freq: frequency not in the declared set")
)

// matchTolerance is the relative tolerance used by Index.
const matchTolerance = 1e-9

// Set is an immutable ordered list of frequencies.
type Set struct {
	f []float64
}

// NewSet returns a set holding the given frequencies in the given order.
func NewSet(frequencies ...float64) (Set, error) {
	if len(frequencies) == 0 {
		return Set{}, ErrEmptySet
	}

	for i, f := range frequencies {
		if !(f > 0) || math.IsInf(f, 0) {
			return Set{}, fmt.Errorf("%w: index %d is %v", ErrInvalidFrequency, i, f)
		}
	}

	return Set{f: append([]float64(nil), frequencies...)}, nil
}

// Band returns count frequencies spread evenly over [center-width/2,
// center+width/2]. A count of one yields only the center frequency.
func Band(center, width float64, count int) (Set, error) {
	switch {
	case count < 1:
		return Set{}, fmt.Errorf("%w: count %d < 1", ErrInvalidBand, count)
	case !(width >= 0) || math.IsInf(width, 0):
		return Set{}, fmt.Errorf("%w: width %v", ErrInvalidBand, width)
	case count == 1:
		return NewSet(center)
	}

	f := floats.Span(make([]float64, count), center-width/2, center+width/2)

	return NewSet(f...)
}

// Len returns the number of frequencies.
func (s Set) Len() int { return len(s.f) }

// At returns the i-th frequency.
func (s Set) At(i int) float64 { return s.f[i] }

// Omega returns the angular frequency 2π·f of the i-th frequency.
func (s Set) Omega(i int) float64 { return 2 * math.Pi * s.f[i] }

// Frequencies returns a copy of the frequencies.
func (s Set) Frequencies() []float64 { return append([]float64(nil), s.f...) }

// Index returns the position of f in the set. Frequencies are matched with a
// small relative tolerance; no interpolation between entries is performed.
func (s Set) Index(f float64) (int, error) {
	for i, v := range s.f {
		if math.Abs(v-f) <= matchTolerance*math.Max(math.Abs(v), math.Abs(f)) {
			return i, nil
		}
	}

	return -1, fmt.Errorf("%w: %v", ErrUnknownFrequency, f)
}

// Check returns an error if i is not a valid index into s.
func (s Set) Check(i int) error {
	if i < 0 || i >= len(s.f) {
		return fmt.Errorf("%w: index %d out of range [0,%d)", ErrUnknownFrequency, i, len(s.f))
	}

	return nil
}
