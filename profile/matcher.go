package profile

import (
	"math"

	"github.com/cwbudde/algo-voice/dspkit"
	"github.com/cwbudde/algo-voice/voice"
)

// Match compares a source and target profile and returns the shift
// parameters (pitchShiftSemitones, formantShiftFactor) that would move the
// source toward the target.
func Match(source, target *voice.VoiceProfile) (semitones, formantFactor float64) {
	if source.Pitch.F0Mean > 0 && target.Pitch.F0Mean > 0 {
		semitones = 12.0 * math.Log2(target.Pitch.F0Mean/source.Pitch.F0Mean)
	}

	srcFormants := firstN(source.Formants.MeanFrequencies, 3)
	tgtFormants := firstN(target.Formants.MeanFrequencies, 3)
	if len(srcFormants) == 0 || len(tgtFormants) == 0 {
		return semitones, 1.0
	}

	n := len(srcFormants)
	if len(tgtFormants) < n {
		n = len(tgtFormants)
	}
	ratios := make([]float64, n)
	for i := 0; i < n; i++ {
		ratios[i] = tgtFormants[i] / (srcFormants[i] + voice.Epsilon)
	}
	formantFactor = dspkit.Clamp(dspkit.Median(ratios), 0.5, 2.0)
	return semitones, formantFactor
}

func firstN(xs []float64, n int) []float64 {
	if len(xs) < n {
		return xs
	}
	return xs[:n]
}
