package rootfind

import (
	"math"
	"math/cmplx"
	"sort"
	"testing"
)

func TestDurandKernerKnownRoots(t *testing.T) {
	// (z-1)(z-2)(z-3) = z^3 - 6z^2 + 11z - 6, ascending order.
	coeff := []complex128{-6, 11, -6, 1}
	roots, err := DurandKerner(coeff)
	if err != nil {
		t.Fatalf("DurandKerner: %v", err)
	}
	if len(roots) != 3 {
		t.Fatalf("expected 3 roots, got %d", len(roots))
	}
	got := make([]float64, len(roots))
	for i, r := range roots {
		got[i] = real(r)
	}
	sort.Float64s(got)
	want := []float64{1, 2, 3}
	for i := range want {
		if d := got[i] - want[i]; d > 1e-6 || d < -1e-6 {
			t.Errorf("root[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestDurandKernerComplexConjugatePair(t *testing.T) {
	// (z^2+1)(z-5) = z^3 -5z^2 + z - 5
	coeff := []complex128{-5, 1, -5, 1}
	roots, err := DurandKerner(coeff)
	if err != nil {
		t.Fatalf("DurandKerner: %v", err)
	}
	foundReal := false
	foundImag := false
	for _, r := range roots {
		if cmplx.Abs(r-5) < 1e-5 {
			foundReal = true
		}
		if math.Abs(real(r)) < 1e-5 && (cmplx.Abs(r-1i) < 1e-5 || cmplx.Abs(r+1i) < 1e-5) {
			foundImag = true
		}
	}
	if !foundReal || !foundImag {
		t.Errorf("expected root set to contain 5 and +-i, got %v", roots)
	}
}

func TestDurandKernerRejectsDegenerate(t *testing.T) {
	if _, err := DurandKerner([]complex128{1}); err == nil {
		t.Error("expected error for degree-0 polynomial")
	}
}
