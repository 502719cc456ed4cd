package fdtd

import "math"

// targetReflection is the normal-incidence round-trip reflection of the
// continuous PML profile.
const targetReflection = 1e-8

// axisCoeffs holds leapfrog update coefficients along one axis for the
// integer (node) and half-integer (edge) positions.
type axisCoeffs struct {
	caNode, cbNode []float64
	caHalf, cbHalf []float64
}

// newAxisCoeffs grades a Berenger loss rate s(d) = smax·(d/L)² over a layer
// of thickness L at both ends of an axis of n cells. For a rate s the update
// is f' = ca·f + cb·rhs with ca = (1-s·dt/2)/(1+s·dt/2), cb = dt/(1+s·dt/2).
func newAxisCoeffs(n int, dx, thick, speed, dt float64) axisCoeffs {
	extent := float64(n) * dx
	smax := 0.0

	if thick > 0 {
		smax = -3 * speed * math.Log(targetReflection) / (2 * thick)
	}

	rate := func(pos float64) float64 {
		if thick <= 0 {
			return 0
		}

		depth := math.Max(math.Max(thick-pos, pos-(extent-thick)), 0)
		d := depth / thick

		return smax * d * d
	}

	c := axisCoeffs{
		caNode: make([]float64, n+1),
		cbNode: make([]float64, n+1),
		caHalf: make([]float64, n+1),
		cbHalf: make([]float64, n+1),
	}

	for i := 0; i <= n; i++ {
		c.caNode[i], c.cbNode[i] = leapfrog(rate(float64(i)*dx), dt)
		c.caHalf[i], c.cbHalf[i] = leapfrog(rate((float64(i)+0.5)*dx), dt)
	}

	return c
}

func leapfrog(s, dt float64) (ca, cb float64) {
	h := s * dt / 2
	return (1 - h) / (1 + h), dt / (1 + h)
}
