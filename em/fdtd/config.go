package fdtd

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-n2f/em/geom"
)

// Config describes a rectangular 2D cell centred at the origin.
type Config struct {
	Size       geom.Vec // cell extent in x and y; Z is ignored
	Resolution float64  // grid points per unit length
	PML        float64  // absorbing layer thickness on every side
	Courant    float64  // dt = Courant/Resolution
	Epsilon    float64  // relative permittivity of the homogeneous medium
	Mu         float64  // relative permeability of the homogeneous medium
}

// DefaultConfig returns a 10x10 vacuum cell at resolution 10 with one unit
// of PML.
func DefaultConfig() Config {
	return Config{
		Size:       geom.Vec{X: 10, Y: 10},
		Resolution: 10,
		PML:        1,
		Courant:    0.5,
		Epsilon:    1,
		Mu:         1,
	}
}

// Validate checks the configuration for consistency.
func (c Config) Validate() error {
	switch {
	case !finitePositive(c.Size.X) || !finitePositive(c.Size.Y):
		return fmt.Errorf("%w: cell size %v", ErrInvalidConfig, c.Size)
	case !finitePositive(c.Resolution):
		return fmt.Errorf("%w: resolution %v", ErrInvalidConfig, c.Resolution)
	case !(c.PML >= 0) || 2*c.PML >= math.Min(c.Size.X, c.Size.Y):
		return fmt.Errorf("%w: pml thickness %v leaves no interior", ErrInvalidConfig, c.PML)
	case !finitePositive(c.Epsilon) || !finitePositive(c.Mu):
		return fmt.Errorf("%w: medium eps=%v mu=%v", ErrInvalidConfig, c.Epsilon, c.Mu)
	}

	// 2D Yee stability limit in the medium: v·dt/dx <= 1/sqrt(2).
	if !(c.Courant > 0) || c.Courant/math.Sqrt(c.Epsilon*c.Mu) > 1/math.Sqrt2 {
		return fmt.Errorf("%w: courant factor %v is unstable", ErrInvalidConfig, c.Courant)
	}

	return nil
}

func finitePositive(v float64) bool { return v > 0 && !math.IsInf(v, 0) }
