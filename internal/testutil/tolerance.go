package testutil

import (
	"fmt"
	"math"
	"math/cmplx"
	"testing"
)

// RequireNear fails t if got and want differ by more than eps.
func RequireNear(t testing.TB, got, want, eps float64) {
	t.Helper()
	if d := math.Abs(got - want); !(d <= eps) {
		t.Fatalf("got %v, want %v (diff %v > eps %v)", got, want, d, eps)
	}
}

// RequireRelNear fails t if got deviates from want by more than rel
// relative to |want|.
func RequireRelNear(t testing.TB, got, want, rel float64) {
	t.Helper()
	if e := RelErr(got, want); !(e <= rel) {
		t.Fatalf("got %v, want %v (relative error %.3g > %.3g)", got, want, e, rel)
	}
}

// RequireComplexNear fails t if |got-want| exceeds eps.
func RequireComplexNear(t testing.TB, got, want complex128, eps float64) {
	t.Helper()
	if d := cmplx.Abs(got - want); !(d <= eps) {
		t.Fatalf("got %v, want %v (|diff| %v > eps %v)", got, want, d, eps)
	}
}

// RequireSliceNearlyEqual fails t if got and want differ in length or if
// any element pair exceeds eps (absolute tolerance).
func RequireSliceNearlyEqual(t testing.TB, got, want []float64, eps float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("length mismatch: got %d, want %d", len(got), len(want))
	}
	for i := range got {
		diff := math.Abs(got[i] - want[i])
		if !(diff <= eps) {
			t.Fatalf("index %d: got %v, want %v (diff %v > eps %v)", i, got[i], want[i], diff, eps)
		}
	}
}

// RequireFinite fails t if any element is NaN or Inf.
func RequireFinite(t testing.TB, data []float64) {
	t.Helper()
	for i, v := range data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("index %d: non-finite value %v", i, v)
		}
	}
}

// RelErr returns |got-want|/|want|, or |got| when want is zero.
func RelErr(got, want float64) float64 {
	if want == 0 {
		return math.Abs(got)
	}
	return math.Abs(got-want) / math.Abs(want)
}

// MaxAbsDiff returns the maximum absolute difference between two slices.
// Returns an error if the slices differ in length.
func MaxAbsDiff(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("length mismatch: %d vs %d", len(a), len(b))
	}
	maxDiff := 0.0
	for i := range a {
		d := math.Abs(a[i] - b[i])
		if d > maxDiff {
			maxDiff = d
		}
	}
	return maxDiff, nil
}

// PhaseDiff returns the wrapped phase difference arg(a) - arg(b) in (-π, π].
func PhaseDiff(a, b complex128) float64 {
	return cmplx.Phase(a * cmplx.Conj(b))
}
