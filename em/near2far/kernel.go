package near2far

import (
	"math"
	"math/cmplx"

	"github.com/cwbudde/algo-n2f/em/geom"
)

// cvec is a complex Cartesian 3-vector.
type cvec [3]complex128

func (a cvec) add(b cvec) cvec { return cvec{a[0] + b[0], a[1] + b[1], a[2] + b[2]} }

func (a cvec) scale(s complex128) cvec { return cvec{s * a[0], s * a[1], s * a[2]} }

// dotReal returns r·a for a real vector r.
func (a cvec) dotReal(r geom.Vec) complex128 {
	return complex(r.X, 0)*a[0] + complex(r.Y, 0)*a[1] + complex(r.Z, 0)*a[2]
}

// crossReal returns r × a for a real vector r.
func crossReal(r geom.Vec, a cvec) cvec {
	x, y, z := complex(r.X, 0), complex(r.Y, 0), complex(r.Z, 0)
	return cvec{
		y*a[2] - z*a[1],
		z*a[0] - x*a[2],
		x*a[1] - y*a[0],
	}
}

func realVec(r geom.Vec) cvec {
	return cvec{complex(r.X, 0), complex(r.Y, 0), complex(r.Z, 0)}
}

// current is an equivalent surface current element, already multiplied by
// its cell area (length in 2D).
type current struct {
	pos  geom.Vec
	j, m cvec
}

// medium holds the frequency-dependent constants of the exterior medium.
type medium struct {
	k        float64 // wavenumber
	omegaEps float64
	omegaMu  float64
}

func newMedium(omega, eps, mu float64) medium {
	return medium{
		k:        omega * math.Sqrt(eps*mu),
		omegaEps: omega * eps,
		omegaMu:  omega * mu,
	}
}

// minDistance guards against evaluating a kernel on its own source point.
const minDistance = 1e-12

// green3D accumulates into e and h the exact fields at pt of one electric
// and one magnetic point current in 3D.
//
//	E = -iωμG[c1·J - c2(R̂·J)R̂] + ikG(1+a) R̂×M
//	H = -iωεG[c1·M - c2(R̂·M)R̂] - ikG(1+a) R̂×J
//
// with G = e^{-ikR}/(4πR), a = 1/(ikR), c1 = 1+a+a², c2 = 1+3a+3a².
func green3D(md medium, pt geom.Vec, src *current, e, h *cvec) {
	d := geom.Vec{X: pt.X - src.pos.X, Y: pt.Y - src.pos.Y, Z: pt.Z - src.pos.Z}
	r := math.Sqrt(d.X*d.X + d.Y*d.Y + d.Z*d.Z)
	if r < minDistance {
		return
	}

	rh := geom.Vec{X: d.X / r, Y: d.Y / r, Z: d.Z / r}
	kr := md.k * r

	g := cmplx.Exp(complex(0, -kr)) / complex(4*math.Pi*r, 0)
	a := 1 / complex(0, kr)
	c1 := 1 + a + a*a
	c2 := 1 + 3*a + 3*a*a
	cross := complex(0, md.k) * g * (1 + a)

	rv := realVec(rh)

	ej := src.j.scale(c1).add(rv.scale(-c2 * src.j.dotReal(rh))).scale(complex(0, -md.omegaMu) * g)
	em := crossReal(rh, src.m).scale(cross)
	hm := src.m.scale(c1).add(rv.scale(-c2 * src.m.dotReal(rh))).scale(complex(0, -md.omegaEps) * g)
	hj := crossReal(rh, src.j).scale(-cross)

	*e = e.add(ej).add(em)
	*h = h.add(hm).add(hj)
}

// hankel2 returns H0⁽²⁾(x) and H1⁽²⁾(x).
func hankel2(x float64) (h0, h1 complex128) {
	return complex(math.J0(x), -math.Y0(x)), complex(math.J1(x), -math.Y1(x))
}

// green2D accumulates the fields of z-invariant line currents. Only the
// in-plane separation matters.
//
//	G   = -(i/4) H0(kρ)
//	G'  =  (i/4) k H1(kρ)
//	G'' =  (i/4) k² (H0(kρ) - H1(kρ)/(kρ))
//
//	D(X) = G·X + [G''(R̂·X)R̂ + (G'/ρ)(X∥ - (R̂·X)R̂)] / k²
//	E = -iωμ D(J) - G' R̂×M
//	H = -iωε D(M) + G' R̂×J
func green2D(md medium, pt geom.Vec, src *current, e, h *cvec) {
	dx, dy := pt.X-src.pos.X, pt.Y-src.pos.Y
	r := math.Hypot(dx, dy)
	if r < minDistance {
		return
	}

	rh := geom.Vec{X: dx / r, Y: dy / r}
	kr := md.k * r
	h0, h1 := hankel2(kr)

	quarter := complex(0, 0.25)
	g := -quarter * h0
	g1 := quarter * complex(md.k, 0) * h1
	g2 := quarter * complex(md.k*md.k, 0) * (h0 - h1/complex(kr, 0))
	invK2 := complex(1/(md.k*md.k), 0)

	dyad := func(x cvec) cvec {
		rx := x.dotReal(rh)
		rv := realVec(rh)
		par := cvec{x[0], x[1], 0}
		t := rv.scale(g2 * rx).add(par.add(rv.scale(-rx)).scale(g1 / complex(r, 0)))

		return x.scale(g).add(t.scale(invK2))
	}

	ej := dyad(src.j).scale(complex(0, -md.omegaMu))
	em := crossReal(rh, src.m).scale(-g1)
	hm := dyad(src.m).scale(complex(0, -md.omegaEps))
	hj := crossReal(rh, src.j).scale(g1)

	*e = e.add(ej).add(em)
	*h = h.add(hm).add(hj)
}
