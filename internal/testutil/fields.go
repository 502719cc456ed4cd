package testutil

import (
	"math"
	"math/cmplx"

	"github.com/cwbudde/algo-n2f/em/geom"
)

// PhasorFunc returns the complex E and H phasors at p.
type PhasorFunc func(p geom.Vec) (e, h [3]complex128)

// HarmonicFields presents time-harmonic phasor fields as a time-domain
// snapshot. Magnetic components are sampled HOffset later than electric
// ones, mimicking a staggered grid.
type HarmonicFields struct {
	Omega   float64
	T       float64
	HOffset float64
	Fn      PhasorFunc

	lastP     geom.Vec
	lastE     [3]complex128
	lastH     [3]complex128
	haveCache bool
}

// Time implements geom.Fields.
func (f *HarmonicFields) Time(c geom.Component) float64 {
	if c.IsElectric() {
		return f.T
	}
	return f.T + f.HOffset
}

// Sample implements geom.Fields.
func (f *HarmonicFields) Sample(c geom.Component, p geom.Vec) float64 {
	if !f.haveCache || p != f.lastP {
		f.lastE, f.lastH = f.Fn(p)
		f.lastP = p
		f.haveCache = true
	}

	ph := f.lastE[c.Axis()]
	if !c.IsElectric() {
		ph = f.lastH[c.Axis()]
	}

	return Harmonic(ph, f.Omega, f.Time(c))
}

// DriveHarmonic steps every hook through one sampled period run of a
// time-harmonic field at freq and returns the number of steps. The running
// DFT of each component then equals steps/2 times its phasor.
func DriveHarmonic(freq float64, periods, samplesPerPeriod int, hOffset float64, fn PhasorFunc, hooks ...func(geom.Fields) error) (int, error) {
	times, _ := HarmonicTimes(freq, periods, samplesPerPeriod)
	f := &HarmonicFields{Omega: 2 * math.Pi * freq, HOffset: hOffset, Fn: fn}

	for _, t := range times {
		f.T = t
		for _, h := range hooks {
			if err := h(f); err != nil {
				return 0, err
			}
		}
	}

	return len(times), nil
}

// LineSourceTM returns the fields of a unit z-directed line current at the
// origin in vacuum (η = 1) with wavenumber k:
//
//	Ez = -(k/4)·H0(kρ),  H = (ik/4)·H1(kρ)·(sinφ, -cosφ, 0)
func LineSourceTM(k float64) PhasorFunc {
	return func(p geom.Vec) (e, h [3]complex128) {
		rho := math.Hypot(p.X, p.Y)
		h0 := complex(math.J0(k*rho), -math.Y0(k*rho))
		h1 := complex(math.J1(k*rho), -math.Y1(k*rho))
		c := complex(0, k/4) * h1

		e[2] = complex(-k/4, 0) * h0
		h[0] = c * complex(p.Y/rho, 0)
		h[1] = -c * complex(p.X/rho, 0)

		return e, h
	}
}

// LineSourceTE returns the fields of a unit x-directed line current at the
// origin in vacuum: Hz = -(ik/4)·H1(kρ)·y/ρ and E = ∇×H/(ik), the curl taken
// by central differences.
func LineSourceTE(k float64) PhasorFunc {
	hz := func(x, y float64) complex128 {
		rho := math.Hypot(x, y)
		h1 := complex(math.J1(k*rho), -math.Y1(k*rho))
		return complex(0, -k/4) * h1 * complex(y/rho, 0)
	}

	const d = 1e-6

	return func(p geom.Vec) (e, h [3]complex128) {
		dHdx := (hz(p.X+d, p.Y) - hz(p.X-d, p.Y)) / (2 * d)
		dHdy := (hz(p.X, p.Y+d) - hz(p.X, p.Y-d)) / (2 * d)
		inv := 1 / complex(0, k)

		e[0] = inv * dHdy
		e[1] = -inv * dHdx
		h[2] = hz(p.X, p.Y)

		return e, h
	}
}

// HertzianDipole returns the exact fields of a unit z-directed electric
// dipole (current moment Il = 1) at the origin in vacuum, from the
// spherical-coordinate closed form.
func HertzianDipole(k float64) PhasorFunc {
	return func(p geom.Vec) (e, h [3]complex128) {
		r := math.Sqrt(p.X*p.X + p.Y*p.Y + p.Z*p.Z)
		theta := math.Acos(p.Z / r)
		phi := math.Atan2(p.Y, p.X)
		st, ct := math.Sincos(theta)
		sp, cp := math.Sincos(phi)

		ph := cmplx.Exp(complex(0, -k*r))
		a := 1 / complex(0, k*r)

		er := complex(ct/(2*math.Pi*r*r), 0) * (1 + a) * ph
		et := complex(0, k*st/(4*math.Pi*r)) * (1 + a + a*a) * ph
		hp := complex(0, k*st/(4*math.Pi*r)) * (1 + a) * ph

		rhat := [3]float64{st * cp, st * sp, ct}
		that := [3]float64{ct * cp, ct * sp, -st}
		phat := [3]float64{-sp, cp, 0}

		for i := range 3 {
			e[i] = er*complex(rhat[i], 0) + et*complex(that[i], 0)
			h[i] = hp * complex(phat[i], 0)
		}

		return e, h
	}
}

// HertzianDipolePower is the exact radiated power Re∮(E*×H)·dA of
// HertzianDipole, k²/(6π).
func HertzianDipolePower(k float64) float64 { return k * k / (6 * math.Pi) }

// LineSourcePower is the exact radiated power per unit length of
// LineSourceTM, k/4.
func LineSourcePower(k float64) float64 { return k / 4 }
