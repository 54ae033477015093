package phase

import (
	"math"
	"math/rand"
	"testing"

	"github.com/cwbudde/algo-voice/stft"
)

func sine(freq, sr float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Sin(2 * math.Pi * freq * float64(i) / sr)
	}
	return out
}

func rms(x []float64) float64 {
	var sum float64
	for _, v := range x {
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(x)))
}

func TestRTPGHIRecoversTonePower(t *testing.T) {
	const nfft = 1024
	const hop = 256
	engine, err := stft.NewEngine(nfft, hop)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	x := sine(440, 44100, nfft*8)
	spec, err := engine.Forward(x)
	if err != nil {
		t.Fatalf("Forward: %v", err)
	}
	mag := stft.Magnitude(spec)

	rec := NewReconstructor(engine, rand.New(rand.NewSource(42)))
	y, err := rec.RTPGHI(mag, len(x))
	if err != nil {
		t.Fatalf("RTPGHI: %v", err)
	}
	if len(y) != len(x) {
		t.Fatalf("length mismatch: got %d, want %d", len(y), len(x))
	}
	if r := rms(y); r < 0.1*rms(x) {
		t.Errorf("reconstructed RMS = %v, too quiet vs source RMS %v", r, rms(x))
	}
}

func TestGriffinLimConvergesBetterThanZeroIterations(t *testing.T) {
	const nfft = 1024
	const hop = 256
	engine, err := stft.NewEngine(nfft, hop)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	x := sine(440, 44100, nfft*8)
	spec, err := engine.Forward(x)
	if err != nil {
		t.Fatalf("Forward: %v", err)
	}
	mag := stft.Magnitude(spec)

	rec := NewReconstructor(engine, rand.New(rand.NewSource(7)))
	y0, err := rec.GriffinLim(mag, 0, len(x))
	if err != nil {
		t.Fatalf("GriffinLim(0): %v", err)
	}
	rec2 := NewReconstructor(engine, rand.New(rand.NewSource(7)))
	y50, err := rec2.GriffinLim(mag, 50, len(x))
	if err != nil {
		t.Fatalf("GriffinLim(50): %v", err)
	}

	errAt := func(y []float64) float64 {
		interior := x[nfft : len(x)-nfft]
		interiorY := y[nfft : len(y)-nfft]
		diff := make([]float64, len(interior))
		for i := range interior {
			diff[i] = interior[i] - interiorY[i]
		}
		return rms(diff)
	}
	if errAt(y50) >= errAt(y0) {
		t.Errorf("50-iteration error %v should be less than 0-iteration error %v", errAt(y50), errAt(y0))
	}
}

func TestReconstructSelectsByIterationThreshold(t *testing.T) {
	const nfft = 512
	const hop = 128
	engine, err := stft.NewEngine(nfft, hop)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	x := sine(220, 44100, nfft*4)
	spec, err := engine.Forward(x)
	if err != nil {
		t.Fatalf("Forward: %v", err)
	}
	mag := stft.Magnitude(spec)

	rec := NewReconstructor(engine, rand.New(rand.NewSource(1)))
	if _, err := rec.Reconstruct(mag, 16, len(x)); err != nil {
		t.Fatalf("Reconstruct(16): %v", err)
	}
	if _, err := rec.Reconstruct(mag, 64, len(x)); err != nil {
		t.Fatalf("Reconstruct(64): %v", err)
	}
}
