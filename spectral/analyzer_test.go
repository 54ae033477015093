package spectral

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-voice/voice"
)

func syntheticMagnitude(frames, bins int, shape func(k int) float64) [][]float64 {
	mag := make([][]float64, frames)
	for t := 0; t < frames; t++ {
		mag[t] = make([]float64, bins)
		for k := 0; k < bins; k++ {
			mag[t][k] = shape(k)
		}
	}
	return mag
}

func TestCepstralEnvelopeSmoothsSpectrum(t *testing.T) {
	const nfft = 512
	bins := nfft/2 + 1
	settings := voice.PresetSettings(voice.QualityBalanced)
	a := NewAnalyzer(nfft, 44100, settings)

	// A spectrum with a spiky harmonic comb riding on a smooth envelope.
	mag := syntheticMagnitude(1, bins, func(k int) float64 {
		base := 1.0 + 0.5*math.Sin(float64(k)*0.01)
		if k%10 == 0 {
			base *= 5
		}
		return base
	})

	features, _, _, err := a.Analyze(mag, []float64{0})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(features.Envelope) != 1 || len(features.Envelope[0]) != bins {
		t.Fatalf("envelope shape = %dx%d, want 1x%d", len(features.Envelope), len(features.Envelope[0]), bins)
	}
	// The smoothed envelope should have much less variance than the input.
	var rawVar, envVar float64
	var rawMean, envMean float64
	for k := 0; k < bins; k++ {
		rawMean += mag[0][k]
		envMean += features.Envelope[0][k]
	}
	rawMean /= float64(bins)
	envMean /= float64(bins)
	for k := 0; k < bins; k++ {
		rawVar += (mag[0][k] - rawMean) * (mag[0][k] - rawMean)
		envVar += (features.Envelope[0][k] - envMean) * (features.Envelope[0][k] - envMean)
	}
	if envVar >= rawVar {
		t.Errorf("envelope variance %v should be less than raw variance %v", envVar, rawVar)
	}
}

func TestSpectralTiltNegativeForDecayingSpectrum(t *testing.T) {
	const nfft = 2048
	bins := nfft/2 + 1
	settings := voice.PresetSettings(voice.QualityBalanced)
	a := NewAnalyzer(nfft, 44100, settings)

	mag := syntheticMagnitude(1, bins, func(k int) float64 {
		freq := float64(k) * 44100 / nfft
		if freq < 1 {
			freq = 1
		}
		return 1000.0 / freq
	})
	tilt := a.spectralTilt(mag)
	if tilt >= 0 {
		t.Errorf("tilt = %v, want negative for decaying spectrum", tilt)
	}
}

func TestSpectralTiltZeroOnInsufficientBins(t *testing.T) {
	const nfft = 16
	bins := nfft/2 + 1 // 9 bins total, only 8 fall in (100,8000) at this nfft/sr
	settings := voice.PresetSettings(voice.QualityBalanced)
	a := NewAnalyzer(nfft, 8000, settings)
	mag := syntheticMagnitude(1, bins, func(k int) float64 { return 1.0 / float64(k+1) })
	tilt := a.spectralTilt(mag)
	if tilt != 0 {
		t.Errorf("tilt = %v, want 0 with insufficient bins", tilt)
	}
}

func TestHarmonicStatsUnvoicedFrameIsZero(t *testing.T) {
	const nfft = 1024
	bins := nfft/2 + 1
	settings := voice.PresetSettings(voice.QualityBalanced)
	a := NewAnalyzer(nfft, 44100, settings)
	mag := syntheticMagnitude(2, bins, func(k int) float64 { return 1 })
	energy, ratio := a.harmonicStats(mag, []float64{math.NaN(), 150})
	if energy[0] != 0 || ratio[0] != 0 {
		t.Errorf("unvoiced frame stats = (%v,%v), want (0,0)", energy[0], ratio[0])
	}
	if ratio[1] <= 0 {
		t.Errorf("voiced frame harmonic ratio = %v, want > 0", ratio[1])
	}
}
