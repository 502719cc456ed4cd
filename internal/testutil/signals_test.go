package testutil

import (
	"math"
	"testing"
)

func TestDeterministicNoise(t *testing.T) {
	a := DeterministicNoise(42, 1.0, 64)
	b := DeterministicNoise(42, 1.0, 64)
	if len(a) != 64 {
		t.Fatalf("len = %d, want 64", len(a))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("non-deterministic at index %d", i)
		}
		if a[i] < -1 || a[i] > 1 {
			t.Fatalf("a[%d] = %v out of range", i, a[i])
		}
	}
}

func TestHarmonicTimes(t *testing.T) {
	times, dt := HarmonicTimes(0.5, 3, 20)
	if len(times) != 60 {
		t.Fatalf("len = %d, want 60", len(times))
	}
	if math.Abs(dt-0.1) > 1e-15 {
		t.Fatalf("dt = %v, want 0.1", dt)
	}
}

func TestHarmonic(t *testing.T) {
	// Re(i·e^{iωt}) = -sin(ωt)
	got := Harmonic(complex(0, 1), 2, 0.3)
	if math.Abs(got+math.Sin(0.6)) > 1e-15 {
		t.Fatalf("Harmonic = %v, want %v", got, -math.Sin(0.6))
	}
}
