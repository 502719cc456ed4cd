package testutil

import (
	"math"
	"math/rand"
)

// DeterministicNoise generates white noise with a fixed seed for reproducibility.
func DeterministicNoise(seed int64, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	rng := rand.New(rand.NewSource(seed))
	for i := range out {
		out[i] = (rng.Float64()*2 - 1) * amplitude
	}
	return out
}

// HarmonicTimes returns n sample times spaced dt apart covering an integer
// number of periods of freq, so that a running DFT of a pure tone at freq
// has no leakage from the negative-frequency image.
func HarmonicTimes(freq float64, periods int, samplesPerPeriod int) (times []float64, dt float64) {
	dt = 1 / (freq * float64(samplesPerPeriod))
	n := periods * samplesPerPeriod
	times = make([]float64, n)
	for i := range times {
		times[i] = float64(i) * dt
	}
	return times, dt
}

// Harmonic evaluates Re(phasor·e^{iωt}).
func Harmonic(phasor complex128, omega, t float64) float64 {
	s, c := math.Sincos(omega * t)
	return real(phasor)*c - imag(phasor)*s
}
