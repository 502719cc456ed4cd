package geom

import (
	"fmt"
	"strings"
)

// Component is one of the six Cartesian field components.
type Component int

// Field components. The order is the storage order of six-component results.
const (
	Ex Component = iota
	Ey
	Ez
	Hx
	Hy
	Hz
)

// NumComponents is the number of field components.
const NumComponents = 6

// Components lists all field components in storage order.
var Components = [NumComponents]Component{Ex, Ey, Ez, Hx, Hy, Hz}

var componentNames = [NumComponents]string{"ex", "ey", "ez", "hx", "hy", "hz"}

// String returns the lowercase component name ("ex", "hz", ...).
func (c Component) String() string {
	if c < Ex || c > Hz {
		return fmt.Sprintf("Component(%d)", int(c))
	}

	return componentNames[c]
}

// Valid reports whether c is one of the six components.
func (c Component) Valid() bool { return c >= Ex && c <= Hz }

// IsElectric reports whether c is an electric field component.
func (c Component) IsElectric() bool { return c >= Ex && c <= Ez }

// Axis returns the Cartesian direction of c.
func (c Component) Axis() Axis { return Axis(int(c) % 3) }

// Electric returns the electric component along a.
func Electric(a Axis) Component { return Component(a) }

// Magnetic returns the magnetic component along a.
func Magnetic(a Axis) Component { return Component(int(a) + 3) }

// ParseComponent parses a component name such as "Ez" or "hy".
func ParseComponent(s string) (Component, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range componentNames {
		if n == name {
			return Component(i), nil
		}
	}

	return 0, fmt.Errorf("%w: %q", ErrUnknownComponent, s)
}

// Tangential returns the four components tangential to a plane
// perpendicular to a, electric components first.
func Tangential(a Axis) [4]Component {
	u, v := Axis((int(a)+1)%3), Axis((int(a)+2)%3)
	return [4]Component{Electric(u), Electric(v), Magnetic(u), Magnetic(v)}
}

// Fields is the view of a time-domain simulation handed to per-step hooks.
// Electric and magnetic components may live at staggered times, so Time is
// reported per component. Sample returns the instantaneous value of c at p.
type Fields interface {
	Time(c Component) float64
	Sample(c Component, p Vec) float64
}
