package geom

import (
	"errors"
	"fmt"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
)

// Errors returned by geometry validation.
var (
	ErrInvalidAxis        = errors.New("geom: invalid axis")
	ErrInvalidWeight      = errors.New("geom: weight must be +1 or -1")
	ErrInconsistentNormal = errors.New("geom: surface has non-zero extent along its normal")
	ErrNotPlanar          = errors.New("geom: surface is not planar in the simulation dimensions")
	ErrInvalidDimensions  = errors.New("geom: dimensions must be 2 or 3")
	ErrUnknownComponent   = errors.New("geom: unknown field component")
)

// Vec is a point or direction in space.
type Vec = r3.Vec

// Axis names a Cartesian direction.
type Axis int

// Cartesian axes.
const (
	X Axis = iota
	Y
	Z
)

// String returns the lowercase axis name.
func (a Axis) String() string {
	switch a {
	case X:
		return "x"
	case Y:
		return "y"
	case Z:
		return "z"
	default:
		return fmt.Sprintf("Axis(%d)", int(a))
	}
}

// Valid reports whether a names one of X, Y, Z.
func (a Axis) Valid() bool { return a >= X && a <= Z }

// Unit returns the unit vector along a.
func (a Axis) Unit() Vec {
	switch a {
	case X:
		return Vec{X: 1}
	case Y:
		return Vec{Y: 1}
	case Z:
		return Vec{Z: 1}
	default:
		return Vec{}
	}
}

// Coord returns the coordinate of v along a.
func Coord(v Vec, a Axis) float64 {
	switch a {
	case X:
		return v.X
	case Y:
		return v.Y
	default:
		return v.Z
	}
}

// SetCoord returns v with the coordinate along a replaced by value.
func SetCoord(v Vec, a Axis, value float64) Vec {
	switch a {
	case X:
		v.X = value
	case Y:
		v.Y = value
	default:
		v.Z = value
	}

	return v
}

// Sign is the orientation of a normal along its axis.
type Sign int

// Orientations.
const (
	Positive Sign = 1
	Negative Sign = -1
)

// Normal is a typed outward normal: an axis plus an orientation.
type Normal struct {
	Axis Axis
	Sign Sign
}

// Plus returns the normal pointing along +a.
func Plus(a Axis) Normal { return Normal{Axis: a, Sign: Positive} }

// Minus returns the normal pointing along -a.
func Minus(a Axis) Normal { return Normal{Axis: a, Sign: Negative} }

// NormalFromWeight converts a ±1 weight on a surface perpendicular to axis
// into a typed normal.
func NormalFromWeight(a Axis, weight float64) (Normal, error) {
	if !a.Valid() {
		return Normal{}, ErrInvalidAxis
	}

	switch weight {
	case 1:
		return Plus(a), nil
	case -1:
		return Minus(a), nil
	default:
		return Normal{}, fmt.Errorf("%w: got %v", ErrInvalidWeight, weight)
	}
}

// Valid reports whether n has a valid axis and a unit orientation.
func (n Normal) Valid() bool {
	return n.Axis.Valid() && (n.Sign == Positive || n.Sign == Negative)
}

// Vec returns the unit vector of n.
func (n Normal) Vec() Vec {
	return r3.Scale(float64(n.Sign), n.Axis.Unit())
}

// Weight returns the legacy ±1 weight of n.
func (n Normal) Weight() float64 { return float64(n.Sign) }

// Flip returns the opposite normal.
func (n Normal) Flip() Normal { return Normal{Axis: n.Axis, Sign: -n.Sign} }

// String returns "+x", "-y" and so on.
func (n Normal) String() string {
	if n.Sign == Negative {
		return "-" + n.Axis.String()
	}

	return "+" + n.Axis.String()
}

// ParseNormal parses "+x", "-y", "z" (positive) and so on.
func ParseNormal(s string) (Normal, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	sign := Positive

	switch {
	case strings.HasPrefix(s, "-"):
		sign = Negative
		s = s[1:]
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	}

	switch s {
	case "x":
		return Normal{Axis: X, Sign: sign}, nil
	case "y":
		return Normal{Axis: Y, Sign: sign}, nil
	case "z":
		return Normal{Axis: Z, Sign: sign}, nil
	default:
		return Normal{}, fmt.Errorf("%w: %q", ErrInvalidAxis, s)
	}
}

// ValidDimensions reports whether dims is a supported dimensionality.
func ValidDimensions(dims int) error {
	if dims != 2 && dims != 3 {
		return fmt.Errorf("%w: got %d", ErrInvalidDimensions, dims)
	}

	return nil
}
