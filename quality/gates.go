// Package quality validates pitch, formant and overall profile data
// against documented thresholds and produces a viability score.
package quality

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-voice/voice"
)

// GateResult is the outcome of a single validation gate. Passed is true
// iff no issue was recorded; Score decreases independently by the
// penalties documented per check.
type GateResult struct {
	Passed      bool
	Score       float64
	Issues      []string
	Suggestions []string
}

func newGate() *GateResult {
	return &GateResult{Passed: true, Score: 100}
}

func (g *GateResult) fail(penalty float64, issue string, suggestions ...string) {
	g.Passed = false
	g.Score -= penalty
	g.Issues = append(g.Issues, issue)
	g.Suggestions = append(g.Suggestions, suggestions...)
}

func (g *GateResult) finish() GateResult {
	if g.Score < 0 {
		g.Score = 0
	}
	return *g
}

// PitchGate validates a pitch contour: penalizes a low voiced ratio, a
// high NaN ratio, and F0 values out of the [MinF0Hz, MaxF0Hz] range.
func PitchGate(pc *voice.PitchContour) GateResult {
	g := newGate()
	if pc == nil || pc.Len() == 0 {
		g.fail(100, "no pitch frames available", "check input audio contains voiced speech")
		return g.finish()
	}
	n := pc.Len()
	var voicedCount, validCount, outOfRangeCount int
	for i := 0; i < n; i++ {
		if pc.VoicedMask[i] {
			voicedCount++
		}
		f := pc.F0[i]
		if math.IsNaN(f) {
			continue
		}
		validCount++
		if f < voice.MinF0Hz || f > voice.MaxF0Hz {
			outOfRangeCount++
		}
	}
	voicedRatio := float64(voicedCount) / float64(n)
	nanRatio := 1.0 - float64(validCount)/float64(n)

	if voicedRatio < 0.2 {
		g.fail(40, fmt.Sprintf("low voiced ratio: %.1f%% (minimum 20%%)", voicedRatio*100),
			"input may be noisy, whispered, or unvoiced speech",
			"ensure clean audio without background noise")
	}
	if nanRatio > 0.3 {
		g.fail(30, fmt.Sprintf("high NaN count: %.1f%% (maximum 30%%)", nanRatio*100),
			"audio contains undetected pitch regions",
			"try manual pitch shift instead of auto-matching")
	}
	if validCount > 0 {
		outRatio := float64(outOfRangeCount) / float64(validCount)
		if outRatio > 0.1 {
			g.fail(20, fmt.Sprintf("out-of-range F0 values: %.1f%%", outRatio*100),
				"may be synthesized or modified audio")
		}
	}
	return g.finish()
}

// FormantGate validates a formant track: penalizes too few formants
// detected, non-ascending mean formant ordering, and an excess of invalid
// bandwidths (outside (10, MaxFormantBandwidthHz)).
func FormantGate(track *voice.FormantTrack) GateResult {
	g := newGate()
	if track == nil || len(track.MeanFrequencies) < 3 {
		n := 0
		if track != nil {
			n = len(track.MeanFrequencies)
		}
		g.fail(50, fmt.Sprintf("only %d formants detected (need at least 3)", n),
			"try increasing the LPC order in quality settings",
			"ensure audio has sufficient spectral content")
		return g.finish()
	}

	for i := 0; i < len(track.MeanFrequencies)-1; i++ {
		if track.MeanFrequencies[i] >= track.MeanFrequencies[i+1] {
			g.fail(25, fmt.Sprintf("formant ordering violation at F%d >= F%d", i+1, i+2),
				"may indicate low SNR or algorithm instability")
			break
		}
	}

	var invalidCount, total int
	for _, row := range track.Bandwidths {
		for _, bw := range row {
			total++
			if bw <= 10 || bw >= voice.MaxFormantBandwidthHz {
				invalidCount++
			}
		}
	}
	if total > 0 {
		invalidRatio := float64(invalidCount) / float64(total)
		if invalidRatio > 0.2 {
			g.fail(20, fmt.Sprintf("invalid bandwidths: %.1f%% of values", invalidRatio*100),
				"LPC model may be poorly fitted")
		}
	}
	return g.finish()
}

// ProfileGate composes PitchGate and FormantGate (subtracting each gate's
// shortfall from 100 on failure) and adds its own checks on spectral tilt
// range and harmonic-energy coverage.
func ProfileGate(profile *voice.VoiceProfile) GateResult {
	g := newGate()

	pitchResult := PitchGate(profile.Pitch)
	if !pitchResult.Passed {
		g.Passed = false
		g.Score -= 100 - pitchResult.Score
		g.Issues = append(g.Issues, pitchResult.Issues...)
		g.Suggestions = append(g.Suggestions, pitchResult.Suggestions...)
	}

	formantResult := FormantGate(profile.Formants)
	if !formantResult.Passed {
		g.Passed = false
		g.Score -= 100 - formantResult.Score
		g.Issues = append(g.Issues, formantResult.Issues...)
		g.Suggestions = append(g.Suggestions, formantResult.Suggestions...)
	}

	if profile.Spectral != nil {
		tilt := profile.Spectral.SpectralTilt
		if tilt < -2 || tilt > 2 {
			g.fail(15, fmt.Sprintf("spectral tilt out of range: %.2f (expected -2.0 to 2.0)", tilt),
				"may indicate unnatural or heavily processed audio")
		}
	}

	if len(profile.HarmonicEnergy) > 0 {
		var harmonicFrames int
		for _, e := range profile.HarmonicEnergy {
			if e > 0 {
				harmonicFrames++
			}
		}
		ratio := float64(harmonicFrames) / float64(len(profile.HarmonicEnergy))
		if ratio < 0.5 {
			g.fail(20, fmt.Sprintf("low harmonic content: %.1f%% frames", ratio*100),
				"audio may be noisy, whispered, or contain artifacts")
		}
	}

	return g.finish()
}
