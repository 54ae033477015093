package profile

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-voice/voice"
)

func TestMatchComputesSemitonesAndFormantFactor(t *testing.T) {
	source := &voice.VoiceProfile{
		Pitch:    &voice.PitchContour{F0Mean: 150},
		Formants: &voice.FormantTrack{MeanFrequencies: []float64{500, 1500, 2500, 3500, 4500}},
	}
	target := &voice.VoiceProfile{
		Pitch:    &voice.PitchContour{F0Mean: 300},
		Formants: &voice.FormantTrack{MeanFrequencies: []float64{600, 1800, 3000, 4200, 5400}},
	}
	semitones, formantFactor := Match(source, target)
	if math.Abs(semitones-12) > 0.01 {
		t.Errorf("semitones = %v, want ~12 for an octave up", semitones)
	}
	if formantFactor < 0.5 || formantFactor > 2.0 {
		t.Errorf("formantFactor = %v, want in [0.5, 2.0]", formantFactor)
	}
}

func TestMatchZeroSemitonesOnInvalidPitch(t *testing.T) {
	source := &voice.VoiceProfile{
		Pitch:    &voice.PitchContour{F0Mean: 0},
		Formants: &voice.FormantTrack{MeanFrequencies: []float64{500, 1500, 2500}},
	}
	target := &voice.VoiceProfile{
		Pitch:    &voice.PitchContour{F0Mean: 300},
		Formants: &voice.FormantTrack{MeanFrequencies: []float64{500, 1500, 2500}},
	}
	semitones, _ := Match(source, target)
	if semitones != 0 {
		t.Errorf("semitones = %v, want 0 with invalid source pitch", semitones)
	}
}

func TestMatchFormantFactorDefaultsToOneOnEmptyFormants(t *testing.T) {
	source := &voice.VoiceProfile{
		Pitch:    &voice.PitchContour{F0Mean: 150},
		Formants: &voice.FormantTrack{},
	}
	target := &voice.VoiceProfile{
		Pitch:    &voice.PitchContour{F0Mean: 150},
		Formants: &voice.FormantTrack{},
	}
	_, formantFactor := Match(source, target)
	if formantFactor != 1.0 {
		t.Errorf("formantFactor = %v, want 1.0 on empty formants", formantFactor)
	}
}
