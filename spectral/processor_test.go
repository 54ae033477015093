package spectral

import (
	"math"
	"testing"
)

func TestPitchShiftFactorOneOctaveUp(t *testing.T) {
	alpha := PitchShiftFactor(12)
	if math.Abs(alpha-2.0) > 0.02 {
		t.Errorf("PitchShiftFactor(12) = %v, want ~2.0", alpha)
	}
	alpha = PitchShiftFactor(-12)
	if math.Abs(alpha-0.5) > 0.02 {
		t.Errorf("PitchShiftFactor(-12) = %v, want ~0.5", alpha)
	}
}

func TestPitchShiftTimeDomainLength(t *testing.T) {
	x := make([]float64, 1000)
	for i := range x {
		x[i] = float64(i)
	}
	out := PitchShiftTimeDomain(x, 2.0)
	if len(out) != 500 {
		t.Errorf("len(out) = %d, want 500", len(out))
	}
}

func TestFormantWarpIdentity(t *testing.T) {
	mag := [][]float64{{1, 2, 3, 4}}
	out, err := FormantWarp(mag, 1.0)
	if err != nil {
		t.Fatalf("FormantWarp: %v", err)
	}
	for k := range mag[0] {
		if out[0][k] != mag[0][k] {
			t.Errorf("identity warp changed bin %d: %v != %v", k, out[0][k], mag[0][k])
		}
	}
}

func TestFormantWarpStretchesUpward(t *testing.T) {
	bins := 100
	row := make([]float64, bins)
	for k := range row {
		row[k] = float64(k)
	}
	mag := [][]float64{row}
	out, err := FormantWarp(mag, 0.5)
	if err != nil {
		t.Fatalf("FormantWarp: %v", err)
	}
	// beta=0.5 reads source bin k*0.5, i.e. stretches source across output,
	// so output bin 10 should read near source bin 5.
	if math.Abs(out[0][10]-5) > 1.0 {
		t.Errorf("out[0][10] = %v, want ~5", out[0][10])
	}
}

func TestTiltMatchNoOpOnInsufficientBins(t *testing.T) {
	mag := [][]float64{{1, 1}}
	out := TiltMatch(mag, -1, 1, 64, 8000)
	if out[0][0] != mag[0][0] || out[0][1] != mag[0][1] {
		t.Errorf("TiltMatch modified output despite insufficient bins")
	}
}

func TestTiltMatchNormalizedAt1kHz(t *testing.T) {
	const nfft = 2048
	const sr = 32000 // bin 64 lies exactly on 1000 Hz
	bins := nfft/2 + 1
	row := make([]float64, bins)
	for k := range row {
		row[k] = 1.0
	}
	mag := [][]float64{row}
	out := TiltMatch(mag, -0.5, 0.5, nfft, sr)
	binAt1k := int(1000.0 * nfft / sr)
	if math.Abs(out[0][binAt1k]-mag[0][binAt1k]) > 1e-6 {
		t.Errorf("tilt correction at 1kHz = %v, want ~%v (normalized to 1)", out[0][binAt1k], mag[0][binAt1k])
	}
}
