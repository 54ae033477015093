package voice

import "fmt"

// Quality selects a processing preset, trading speed for fidelity.
type Quality int

const (
	QualityTurbo Quality = iota
	QualityFast
	QualityBalanced
	QualityHigh
	QualityUltra
	QualityMaster
)

// String renders the preset name used on the CLI and in HTTP form fields.
func (q Quality) String() string {
	switch q {
	case QualityTurbo:
		return "turbo"
	case QualityFast:
		return "fast"
	case QualityBalanced:
		return "balanced"
	case QualityHigh:
		return "high"
	case QualityUltra:
		return "ultra"
	case QualityMaster:
		return "master"
	default:
		return "unknown"
	}
}

// ParseQuality maps a preset name (case-sensitive, lower case) to a Quality.
func ParseQuality(s string) (Quality, error) {
	switch s {
	case "turbo":
		return QualityTurbo, nil
	case "fast":
		return QualityFast, nil
	case "balanced":
		return QualityBalanced, nil
	case "high":
		return QualityHigh, nil
	case "ultra":
		return QualityUltra, nil
	case "master":
		return QualityMaster, nil
	default:
		return 0, fmt.Errorf("unknown quality preset %q", s)
	}
}

// QualitySettings configures every stage of the pipeline. All numeric fields
// are strictly positive; SpectralDetailPreservation lies in [0, 1].
type QualitySettings struct {
	Quality Quality

	// HopDivisor: hop = NFFT / HopDivisor.
	HopDivisor int
	// GriffinLimIters: Griffin-Lim iteration count; RTPGHI is used instead
	// when the caller requests iters <= 32 (see phase.Reconstruct).
	GriffinLimIters int
	// EnvelopeSmoothing sets the cepstral quefrency cutoff used by
	// spectral.Analyzer: the cutoff is EnvelopeSmoothing+15, or 20 when this
	// field is <= 0 (see CepstralCutoff).
	EnvelopeSmoothing int
	// LPCOrder is the base LPC order (before the low-pitch override).
	LPCOrder int
	// SpectralDetailPreservation sets the formant median-filter window length
	// (see MedianFilterWindow), in [0, 1]; it has no other effect.
	SpectralDetailPreservation float64
	// AdvancedPhase selects Griffin-Lim/RTPGHI reconstruction on formant
	// warp; when false the pipeline rebuilds the complex STFT with the
	// original phase and performs a direct inverse STFT instead.
	AdvancedPhase bool
	// FormantCorrection enables the tilt-match post-processing step.
	FormantCorrection bool

	NFFT int
}

// PresetSettings returns the built-in settings for a quality preset.
func PresetSettings(q Quality) QualitySettings {
	s := QualitySettings{Quality: q, NFFT: DefaultNFFT}
	switch q {
	case QualityTurbo:
		s.HopDivisor, s.GriffinLimIters, s.EnvelopeSmoothing, s.LPCOrder = 2, 16, 9, 14
		s.SpectralDetailPreservation, s.AdvancedPhase, s.FormantCorrection = 0.15, false, false
	case QualityFast:
		s.HopDivisor, s.GriffinLimIters, s.EnvelopeSmoothing, s.LPCOrder = 4, 32, 5, 14
		s.SpectralDetailPreservation, s.AdvancedPhase, s.FormantCorrection = 0.20, false, true
	case QualityBalanced:
		s.HopDivisor, s.GriffinLimIters, s.EnvelopeSmoothing, s.LPCOrder = 4, 64, 3, 14
		s.SpectralDetailPreservation, s.AdvancedPhase, s.FormantCorrection = 0.30, true, true
	case QualityHigh:
		s.HopDivisor, s.GriffinLimIters, s.EnvelopeSmoothing, s.LPCOrder = 4, 100, 2, 14
		s.SpectralDetailPreservation, s.AdvancedPhase, s.FormantCorrection = 0.40, true, true
	case QualityUltra:
		s.HopDivisor, s.GriffinLimIters, s.EnvelopeSmoothing, s.LPCOrder = 8, 200, 1, 14
		s.SpectralDetailPreservation, s.AdvancedPhase, s.FormantCorrection = 0.50, true, true
	case QualityMaster:
		s.HopDivisor, s.GriffinLimIters, s.EnvelopeSmoothing, s.LPCOrder = 8, 500, 1, 16
		s.SpectralDetailPreservation, s.AdvancedPhase, s.FormantCorrection = 0.60, true, true
	default:
		return PresetSettings(QualityBalanced)
	}
	return s
}

// Hop returns the STFT hop size for these settings.
func (s QualitySettings) Hop() int {
	if s.HopDivisor <= 0 {
		return s.NFFT / 4
	}
	return s.NFFT / s.HopDivisor
}

// MedianFilterWindow returns the odd-length median-filter window used to
// smooth formant tracks, derived from SpectralDetailPreservation.
func (s QualitySettings) MedianFilterWindow() int {
	detail := s.SpectralDetailPreservation
	if detail <= 0 {
		detail = 0.3
	}
	w := int(5*(1.2-detail) + 0.5)
	if w < 3 {
		w = 3
	}
	if w > 9 {
		w = 9
	}
	if w%2 == 0 {
		w++
	}
	return w
}

// CepstralCutoff returns the quefrency bin cutoff Kc used by the cepstral
// envelope, derived from EnvelopeSmoothing (falls back to 20 when unset).
func (s QualitySettings) CepstralCutoff() int {
	if s.EnvelopeSmoothing <= 0 {
		return 20
	}
	return s.EnvelopeSmoothing + 15
}
