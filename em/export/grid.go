package export

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-n2f/em/geom"
)

// Grid errors.
var (
	ErrInvalidResolution = errors.New("export: grid resolution must be finite and > 0")
	ErrInvalidGrid       = errors.New("export: grid size must be finite and >= 0")
)

// MaxPoints bounds the total number of grid points.
const MaxPoints = 1 << 24

// Grid is a regular lattice of observation points covering a box. Along
// each axis it has floor(size·resolution)+1 points spaced exactly
// 1/resolution apart and centred on the box centre; a zero extent yields a
// single point at the centre. Valid grids hold at most MaxPoints points.
type Grid struct {
	Center     geom.Vec
	Size       geom.Vec
	Resolution float64
}

// NewGrid returns a grid covering v at the given resolution.
func NewGrid(v geom.Volume, resolution float64) (Grid, error) {
	g := Grid{Center: v.Center, Size: v.Size, Resolution: resolution}
	if err := g.Validate(); err != nil {
		return Grid{}, err
	}

	return g, nil
}

// Validate checks the resolution and extents.
func (g Grid) Validate() error {
	if !(g.Resolution > 0) || math.IsInf(g.Resolution, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidResolution, g.Resolution)
	}

	total := 1.0

	for _, s := range []float64{g.Size.X, g.Size.Y, g.Size.Z} {
		if !(s >= 0) || math.IsInf(s, 0) {
			return fmt.Errorf("%w: %v", ErrInvalidGrid, g.Size)
		}

		total *= math.Floor(s*g.Resolution+1e-9) + 1
	}

	if total > MaxPoints {
		return fmt.Errorf("%w: %v points at resolution %v exceeds %d", ErrInvalidGrid, total, g.Resolution, MaxPoints)
	}

	return nil
}

// Count returns the number of points along a.
func (g Grid) Count(a geom.Axis) int {
	// Tolerate sizes that are an exact multiple of the spacing up to rounding.
	return int(math.Floor(geom.Coord(g.Size, a)*g.Resolution+1e-9)) + 1
}

// Shape returns the point counts along x, y and z.
func (g Grid) Shape() [3]int {
	return [3]int{g.Count(geom.X), g.Count(geom.Y), g.Count(geom.Z)}
}

// Len returns the total number of points.
func (g Grid) Len() int {
	s := g.Shape()
	return s[0] * s[1] * s[2]
}

func (g Grid) lower(a geom.Axis) float64 {
	return geom.Coord(g.Center, a) - float64(g.Count(a)-1)/(2*g.Resolution)
}

// Coord returns the coordinate of index i along a.
func (g Grid) Coord(a geom.Axis, i int) float64 {
	return g.lower(a) + float64(i)/g.Resolution
}

// Index returns the index of the grid plane nearest to x along a and
// whether x lies within half a spacing of the grid.
func (g Grid) Index(a geom.Axis, x float64) (int, bool) {
	i := int(math.Round((x - g.lower(a)) * g.Resolution))
	return i, i >= 0 && i < g.Count(a)
}

// Axis returns all coordinates along a.
func (g Grid) Axis(a geom.Axis) []float64 {
	out := make([]float64, g.Count(a))
	for i := range out {
		out[i] = g.Coord(a, i)
	}

	return out
}

// Flat returns the position of (i, j, k) in Points; k varies fastest.
func (g Grid) Flat(i, j, k int) int {
	s := g.Shape()
	return (i*s[1]+j)*s[2] + k
}

// Point returns the position of grid point (i, j, k).
func (g Grid) Point(i, j, k int) geom.Vec {
	return geom.Vec{X: g.Coord(geom.X, i), Y: g.Coord(geom.Y, j), Z: g.Coord(geom.Z, k)}
}

// Points returns every grid point in Flat order.
func (g Grid) Points() []geom.Vec {
	s := g.Shape()
	out := make([]geom.Vec, 0, g.Len())

	for i := range s[0] {
		for j := range s[1] {
			for k := range s[2] {
				out = append(out, g.Point(i, j, k))
			}
		}
	}

	return out
}
