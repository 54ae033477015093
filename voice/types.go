package voice

import "math"

// PitchContour holds the per-frame fundamental frequency estimate and
// aggregate pitch statistics for a signal.
type PitchContour struct {
	F0         []float64 // NaN where unvoiced
	VoicedMask []bool
	F0Mean     float64
	F0Std      float64
	HNRDb      float64
}

// Len returns the frame count, T.
func (p *PitchContour) Len() int {
	if p == nil {
		return 0
	}
	return len(p.F0)
}

// DefaultPitchContour returns the silence/degenerate-input fallback values
// required by SPEC_FULL.md §11 (Boundary cases).
func DefaultPitchContour(t int) *PitchContour {
	f0 := make([]float64, t)
	mask := make([]bool, t)
	for i := range f0 {
		f0[i] = math.NaN()
	}
	return &PitchContour{F0: f0, VoicedMask: mask, F0Mean: 150.0, F0Std: 0.0, HNRDb: 0.0}
}

// FormantTrack holds per-frame formant frequency/bandwidth tracks for the
// first N formants.
type FormantTrack struct {
	Frequencies     [][]float64 // [N][T]
	Bandwidths      [][]float64 // [N][T], 0 where estimation failed
	MeanFrequencies []float64   // [N]
	MeanBandwidths  []float64   // [N]
}

// DefaultFormantFrequencies and DefaultFormantBandwidths are the fallback
// values used when no frame in a row has frequencies[i,t] > 0. Beyond the
// table length, the indexed fallback rule from SPEC_FULL.md §3/§12 applies:
// freq = 500*(i+1), bw = 100.
var (
	DefaultFormantFrequencies = []float64{500, 1500, 2500, 3500, 4500}
	DefaultFormantBandwidths  = []float64{80, 100, 120, 150, 200}
)

// FallbackFormant returns the default (frequency, bandwidth) pair for
// formant index i (0-based), using the table where available and the
// indexed fallback formula beyond it.
func FallbackFormant(i int) (freq, bw float64) {
	if i < len(DefaultFormantFrequencies) {
		return DefaultFormantFrequencies[i], DefaultFormantBandwidths[i]
	}
	return 500 * float64(i+1), 100
}

// SpectralFeatures holds the cepstral envelope and spectral tilt for a
// signal.
type SpectralFeatures struct {
	Envelope     [][]float64 // [T][K] (frame-major), strictly positive
	SpectralTilt float64
}

// VoiceProfile aggregates pitch, formant and spectral analysis of a signal
// into a single immutable record.
type VoiceProfile struct {
	Pitch           *PitchContour
	Formants        *FormantTrack
	Spectral        *SpectralFeatures
	HarmonicRatios  []float64 // [T], in [0,1]
	HarmonicEnergy  []float64 // [T], >= 0
	SampleRate      int
}
