// Package profile orchestrates pitch, formant and spectral analysis into
// a single voice.VoiceProfile, and matches a source profile against a
// target profile to derive pitch-shift and formant-shift parameters.
package profile

import (
	"fmt"
	"sync"

	"github.com/cwbudde/algo-voice/formant"
	"github.com/cwbudde/algo-voice/pitch"
	"github.com/cwbudde/algo-voice/spectral"
	"github.com/cwbudde/algo-voice/stft"
	"github.com/cwbudde/algo-voice/voice"
)

// analyzerKey identifies a cached analyzer trio by the parameters that
// determine their internal buffer sizes.
type analyzerKey struct {
	sampleRate int
	nfft       int
	hop        int
}

type analyzerSet struct {
	engine   *stft.Engine
	pitch    *pitch.Estimator
	formant  *formant.Estimator
	spectral *spectral.Analyzer
}

var (
	analyzerCacheMu sync.Mutex
	analyzerCache   = map[analyzerKey]*analyzerSet{}
)

func getAnalyzers(sampleRate, nfft, hop int, settings voice.QualitySettings) (*analyzerSet, error) {
	key := analyzerKey{sampleRate, nfft, hop}

	analyzerCacheMu.Lock()
	defer analyzerCacheMu.Unlock()
	if cached, ok := analyzerCache[key]; ok {
		return cached, nil
	}

	engine, err := stft.NewEngine(nfft, hop)
	if err != nil {
		return nil, fmt.Errorf("profile: building stft engine: %w", err)
	}
	pitchEst, err := pitch.NewEstimator(sampleRate, hop)
	if err != nil {
		return nil, fmt.Errorf("profile: building pitch estimator: %w", err)
	}
	formantEst, err := formant.NewEstimator(sampleRate, settings, hop)
	if err != nil {
		return nil, fmt.Errorf("profile: building formant estimator: %w", err)
	}
	spectralAn := spectral.NewAnalyzer(nfft, sampleRate, settings)

	set := &analyzerSet{engine: engine, pitch: pitchEst, formant: formantEst, spectral: spectralAn}
	analyzerCache[key] = set
	return set, nil
}

// Builder assembles a VoiceProfile for a signal at a fixed (sampleRate,
// nfft, hop), rebuilding its analyzers from the shared cache whenever
// those parameters change.
type Builder struct {
	SampleRate int
	NFFT       int
	Settings   voice.QualitySettings
}

// NewBuilder builds a Builder. hop is derived from settings.Hop().
func NewBuilder(sampleRate int, settings voice.QualitySettings) *Builder {
	return &Builder{SampleRate: sampleRate, NFFT: settings.NFFT, Settings: settings}
}

// Build runs pitch, formant and spectral analysis over y and truncates all
// per-frame arrays to the shortest analyzer output (T_min).
func (b *Builder) Build(y []float64) (*voice.VoiceProfile, error) {
	hop := b.Settings.Hop()
	analyzers, err := getAnalyzers(b.SampleRate, b.NFFT, hop, b.Settings)
	if err != nil {
		return nil, err
	}

	pitchContour := analyzers.pitch.Analyze(y)

	formantTrack, err := analyzers.formant.Analyze(y, pitchContour.F0)
	if err != nil {
		return nil, fmt.Errorf("profile: formant analysis: %w", err)
	}

	spec, err := analyzers.engine.Forward(y)
	if err != nil {
		return nil, fmt.Errorf("profile: stft forward: %w", err)
	}
	mag := stft.Magnitude(spec)
	spectralFeatures, harmonicEnergy, harmonicRatios, err := analyzers.spectral.Analyze(mag, pitchContour.F0)
	if err != nil {
		return nil, fmt.Errorf("profile: spectral analysis: %w", err)
	}

	formantLen := 0
	if len(formantTrack.Frequencies) > 0 {
		formantLen = len(formantTrack.Frequencies[0])
	}
	tMin := pitchContour.Len()
	for _, candidate := range []int{formantLen, len(spectralFeatures.Envelope), len(harmonicEnergy)} {
		if candidate < tMin {
			tMin = candidate
		}
	}
	if tMin < 0 {
		tMin = 0
	}

	truncatedPitch := &voice.PitchContour{
		F0:         truncate(pitchContour.F0, tMin),
		VoicedMask: truncateBool(pitchContour.VoicedMask, tMin),
		F0Mean:     pitchContour.F0Mean,
		F0Std:      pitchContour.F0Std,
		HNRDb:      pitchContour.HNRDb,
	}
	truncatedFormants := &voice.FormantTrack{
		Frequencies:     truncateRows(formantTrack.Frequencies, tMin),
		Bandwidths:      truncateRows(formantTrack.Bandwidths, tMin),
		MeanFrequencies: formantTrack.MeanFrequencies,
		MeanBandwidths:  formantTrack.MeanBandwidths,
	}
	truncatedSpectral := &voice.SpectralFeatures{
		Envelope:     truncateFrames(spectralFeatures.Envelope, tMin),
		SpectralTilt: spectralFeatures.SpectralTilt,
	}

	return &voice.VoiceProfile{
		Pitch:          truncatedPitch,
		Formants:       truncatedFormants,
		Spectral:       truncatedSpectral,
		HarmonicRatios: truncate(harmonicRatios, tMin),
		HarmonicEnergy: truncate(harmonicEnergy, tMin),
		SampleRate:     b.SampleRate,
	}, nil
}

func truncate(xs []float64, n int) []float64 {
	if n >= len(xs) {
		return xs
	}
	return xs[:n]
}

func truncateBool(xs []bool, n int) []bool {
	if n >= len(xs) {
		return xs
	}
	return xs[:n]
}

// truncateRows truncates each row's inner axis to n, keeping every row —
// correct for [N][T] matrices like FormantTrack.Frequencies where the
// frame axis is innermost.
func truncateRows(rows [][]float64, n int) [][]float64 {
	out := make([][]float64, len(rows))
	for i, row := range rows {
		out[i] = truncate(row, n)
	}
	return out
}

// truncateFrames truncates the outer (frame) axis to n, keeping each row
// intact — correct for [T][K] matrices like SpectralFeatures.Envelope
// where the frame axis is outermost and K must not be touched.
func truncateFrames(rows [][]float64, n int) [][]float64 {
	if n >= len(rows) {
		return rows
	}
	return rows[:n]
}
