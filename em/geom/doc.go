// Package geom provides the geometric primitives shared by the near-to-far
// transformation packages: vectors, axes, typed outward normals, field
// components, volumes and planar sampling surfaces.
//
// Vectors are gonum r3 vectors. Two-dimensional simulations use the xy plane
// with fields invariant along z.
//
// # Outward normals
//
// A near surface carries a [Normal] rather than a signed weight:
//
//	s := geom.Surface{
//		Center: geom.Vec{X: 1},
//		Size:   geom.Vec{Y: 2},
//		Normal: geom.Plus(geom.X),
//	}
//
// [NormalFromWeight] converts the legacy ±1 weight convention.
package geom
