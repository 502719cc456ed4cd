package geom

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// ErrDegenerateSurface is returned for surfaces with zero or negative
// tangential extent.
var ErrDegenerateSurface = errors.New("geom: surface has no tangential extent")

// Volume is an axis-aligned box given by its center and size.
type Volume struct {
	Center Vec
	Size   Vec
}

// Min returns the lower corner of v.
func (v Volume) Min() Vec { return r3.Sub(v.Center, r3.Scale(0.5, v.Size)) }

// Max returns the upper corner of v.
func (v Volume) Max() Vec { return r3.Add(v.Center, r3.Scale(0.5, v.Size)) }

// Contains reports whether p lies inside v (boundaries included).
func (v Volume) Contains(p Vec) bool {
	lo, hi := v.Min(), v.Max()
	return p.X >= lo.X && p.X <= hi.X &&
		p.Y >= lo.Y && p.Y <= hi.Y &&
		p.Z >= lo.Z && p.Z <= hi.Z
}

// Surface is a finite planar patch with an outward normal. The size along
// the normal axis must be zero.
type Surface struct {
	Center Vec
	Size   Vec
	Normal Normal
}

// SamplePoint is one cell of a discretized surface. Area is a length in 2D
// (per unit depth along z).
type SamplePoint struct {
	Pos  Vec
	Area float64
}

// Validate checks s for use in a simulation of the given dimensionality.
func (s Surface) Validate(dims int) error {
	if err := ValidDimensions(dims); err != nil {
		return err
	}

	if !s.Normal.Valid() {
		return fmt.Errorf("%w: %v", ErrInvalidAxis, s.Normal)
	}

	if Coord(s.Size, s.Normal.Axis) != 0 {
		return fmt.Errorf("%w: normal %v, size %v", ErrInconsistentNormal, s.Normal, s.Size)
	}

	if dims == 2 && (s.Normal.Axis == Z || s.Size.Z != 0) {
		return fmt.Errorf("%w: 2D surfaces lie in the xy plane with an in-plane normal", ErrNotPlanar)
	}

	for _, a := range s.tangentialAxes(dims) {
		if !(Coord(s.Size, a) > 0) {
			return fmt.Errorf("%w: extent along %v is %v", ErrDegenerateSurface, a, Coord(s.Size, a))
		}
	}

	return nil
}

// tangentialAxes returns the axes spanning s in the given dimensionality.
func (s Surface) tangentialAxes(dims int) []Axis {
	axes := make([]Axis, 0, 2)
	for a := X; a <= Z; a++ {
		if a == s.Normal.Axis || (dims == 2 && a == Z) {
			continue
		}
		axes = append(axes, a)
	}

	return axes
}

// Sample discretizes s into cell-centred points at the given resolution
// (points per unit length). Every tangential extent gets at least one cell.
func (s Surface) Sample(resolution float64, dims int) ([]SamplePoint, error) {
	if err := s.Validate(dims); err != nil {
		return nil, err
	}

	if !(resolution > 0) || math.IsInf(resolution, 0) {
		return nil, fmt.Errorf("geom: resolution must be positive and finite: %v", resolution)
	}

	axes := s.tangentialAxes(dims)
	counts := make([]int, len(axes))
	steps := make([]float64, len(axes))
	area := 1.0
	total := 1

	for i, a := range axes {
		length := Coord(s.Size, a)
		n := max(1, int(math.Round(length*resolution)))
		counts[i] = n
		steps[i] = length / float64(n)
		area *= steps[i]
		total *= n
	}

	lo := s.Center
	for i, a := range axes {
		lo = SetCoord(lo, a, Coord(s.Center, a)-0.5*Coord(s.Size, a)+0.5*steps[i])
	}

	out := make([]SamplePoint, 0, total)
	idx := make([]int, len(axes))

	for range total {
		p := lo
		for i, a := range axes {
			p = SetCoord(p, a, Coord(lo, a)+float64(idx[i])*steps[i])
		}

		out = append(out, SamplePoint{Pos: p, Area: area})

		for i := range idx {
			idx[i]++
			if idx[i] < counts[i] {
				break
			}
			idx[i] = 0
		}
	}

	return out, nil
}

// Box returns the closed set of outward-facing surfaces bounding the volume
// (4 surfaces in 2D, 6 in 3D).
func Box(center, size Vec, dims int) ([]Surface, error) {
	if err := ValidDimensions(dims); err != nil {
		return nil, err
	}

	axes := []Axis{X, Y}
	if dims == 3 {
		axes = append(axes, Z)
	} else {
		size.Z = 0
	}

	out := make([]Surface, 0, 2*len(axes))

	for _, a := range axes {
		half := 0.5 * Coord(size, a)
		faceSize := SetCoord(size, a, 0)

		for _, sign := range []Sign{Positive, Negative} {
			c := SetCoord(center, a, Coord(center, a)+float64(sign)*half)
			out = append(out, Surface{Center: c, Size: faceSize, Normal: Normal{Axis: a, Sign: sign}})
		}
	}

	for _, s := range out {
		if err := s.Validate(dims); err != nil {
			return nil, err
		}
	}

	return out, nil
}
