package formant

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-voice/voice"
)

func vowelLike(sr float64, n int, f1, f2 float64) []float64 {
	out := make([]float64, n)
	f0 := 120.0
	for i := range out {
		t := float64(i) / sr
		var s float64
		for h := 1; h <= 20; h++ {
			harmonic := f0 * float64(h)
			if harmonic > sr/2 {
				break
			}
			amp := 1.0 / (1.0 + math.Pow((harmonic-f1)/80, 2))
			amp += 0.6 / (1.0 + math.Pow((harmonic-f2)/100, 2))
			s += amp * math.Sin(2*math.Pi*harmonic*t)
		}
		out[i] = s
	}
	return out
}

func TestAnalyzeProducesFiveFormants(t *testing.T) {
	settings := voice.PresetSettings(voice.QualityHigh)
	est, err := NewEstimator(44100, settings, 256)
	if err != nil {
		t.Fatalf("NewEstimator: %v", err)
	}
	x := vowelLike(44100, 44100, 700, 1200)
	track, err := est.Analyze(x, nil)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(track.MeanFrequencies) != numFormants {
		t.Fatalf("MeanFrequencies length = %d, want %d", len(track.MeanFrequencies), numFormants)
	}
	for i := 1; i < numFormants; i++ {
		if track.MeanFrequencies[i] <= track.MeanFrequencies[i-1] {
			t.Errorf("formant means not ascending: f%d=%v f%d=%v", i, track.MeanFrequencies[i], i-1, track.MeanFrequencies[i-1])
		}
	}
}

func TestAnalyzeEmptyInput(t *testing.T) {
	settings := voice.PresetSettings(voice.QualityHigh)
	est, err := NewEstimator(44100, settings, 256)
	if err != nil {
		t.Fatalf("NewEstimator: %v", err)
	}
	track, err := est.Analyze(nil, nil)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	for i, f := range track.MeanFrequencies {
		wantF, wantBW := voice.FallbackFormant(i)
		if f != wantF || track.MeanBandwidths[i] != wantBW {
			t.Errorf("formant %d = (%v,%v), want fallback (%v,%v)", i, f, track.MeanBandwidths[i], wantF, wantBW)
		}
	}
}

func TestLevinsonDurbinKnownSignal(t *testing.T) {
	// A short damped sinusoid has a well-conditioned autocorrelation.
	n := 256
	x := make([]float64, n)
	for i := range x {
		x[i] = math.Exp(-float64(i)/100) * math.Sin(2*math.Pi*0.1*float64(i))
	}
	r := autocorrelate(x, 8)
	a, predErr, ok := levinsonDurbin(r, 8)
	if !ok {
		t.Fatal("levinsonDurbin failed on well-conditioned input")
	}
	if len(a) != 8 {
		t.Fatalf("coefficient count = %d, want 8", len(a))
	}
	if predErr <= 0 || predErr > r[0] {
		t.Errorf("prediction error = %v, want in (0, %v]", predErr, r[0])
	}
}
