package quality

import "github.com/cwbudde/algo-voice/voice"

// viabilityThreshold is the minimum overall score for a profile to be
// usable downstream.
const viabilityThreshold = 30.0

// Report is the scorer's final verdict over a voice profile.
type Report struct {
	Overall        float64
	IsViable       bool
	Pitch          GateResult
	Formant        GateResult
	Profile        GateResult
	CriticalIssues []string
	Warnings       []string
}

// Score runs all three gates over profile and averages their scores. A
// profile with no analysis frames (input too short) is never viable.
func Score(profile *voice.VoiceProfile) Report {
	pitchResult := PitchGate(profile.Pitch)
	formantResult := FormantGate(profile.Formants)
	profileResult := ProfileGate(profile)

	overall := (pitchResult.Score + formantResult.Score + profileResult.Score) / 3
	report := Report{
		Overall:  overall,
		IsViable: overall >= viabilityThreshold && profile.Pitch.Len() > 0,
		Pitch:    pitchResult,
		Formant:  formantResult,
		Profile:  profileResult,
	}

	for _, gate := range []struct {
		name   string
		result GateResult
	}{
		{"pitch", pitchResult},
		{"formant", formantResult},
		{"profile", profileResult},
	} {
		if !gate.result.Passed {
			report.CriticalIssues = append(report.CriticalIssues, gate.result.Issues...)
		} else if gate.result.Score < 70 {
			report.Warnings = append(report.Warnings, gate.result.Issues...)
		}
	}
	return report
}
