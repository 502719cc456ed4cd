// Package near2far computes radiated electromagnetic fields at arbitrary
// points from tangential fields recorded on closed near surfaces during a
// time-domain simulation.
//
// The transformation is split into two explicit phases:
//
//  1. A [Recorder] accumulates running Fourier transforms of the tangential
//     E and H components on each declared [geom.Surface], once per time step.
//  2. [Recorder.Freeze] ends accumulation and returns an [Evaluator], a
//     read-only view that integrates the equivalent surface currents
//     J = n̂×H and M = −n̂×E against the free-space Green's function.
//
// Surfaces must be declared before the first step. Frequencies are fixed by
// the [freq.Set] given to [NewRecorder]; querying any other frequency fails
// with [freq.ErrUnknownFrequency].
//
// Accumulated coefficients are not normalized. Far fields therefore carry
// an arbitrary overall scale and phase that cancels in ratios (patterns,
// flux ratios, relative phases between points).
//
// Time convention: fields are phasors F with f(t) = Re(F·e^{iωt}). In 3D the
// scalar Green's function is e^{-ikr}/(4πr); in 2D (fields invariant along
// z) it is −(i/4)·H0⁽²⁾(kρ).
//
// # Usage
//
//	rec, _ := near2far.NewRecorder(freqs, near2far.WithDimensions(2), near2far.WithResolution(20))
//	for _, s := range surfaces {
//		_ = rec.AddSurface(s)
//	}
//	for !done {
//		sim.Step()
//		_ = rec.Step(sim.Fields())
//	}
//	ev, _ := rec.Freeze()
//	ff, _ := ev.Farfield(geom.Vec{X: 1000}, 1.0)
package near2far
