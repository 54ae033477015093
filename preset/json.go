// Package preset loads QualitySettings from an optional JSON override file
// layered on top of a built-in quality preset.
package preset

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/cwbudde/algo-voice/voice"
)

// File is the JSON schema for a QualitySettings override file. Every field
// is a pointer so that an absent key leaves the underlying preset's value
// untouched.
type File struct {
	HopDivisor                 *int     `json:"hop_divisor"`
	GriffinLimIters            *int     `json:"griffin_lim_iters"`
	EnvelopeSmoothing          *int     `json:"envelope_smoothing"`
	LPCOrder                   *int     `json:"lpc_order"`
	SpectralDetailPreservation *float64 `json:"spectral_detail_preservation"`
	AdvancedPhase              *bool    `json:"advanced_phase"`
	FormantCorrection          *bool    `json:"formant_correction"`
	NFFT                       *int     `json:"nfft"`
}

// LoadJSON loads a QualitySettings override file from path and applies it on
// top of the built-in settings for base.
func LoadJSON(path string, base voice.Quality) (voice.QualitySettings, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return voice.QualitySettings{}, err
	}

	var f File
	if err := json.Unmarshal(b, &f); err != nil {
		return voice.QualitySettings{}, err
	}

	settings := voice.PresetSettings(base)
	if err := ApplyFile(&settings, &f); err != nil {
		return voice.QualitySettings{}, err
	}
	return settings, nil
}

// ApplyFile applies a parsed override file onto an existing QualitySettings.
func ApplyFile(dst *voice.QualitySettings, f *File) error {
	if dst == nil {
		return fmt.Errorf("nil destination settings")
	}
	if f == nil {
		return nil
	}

	if f.HopDivisor != nil {
		if *f.HopDivisor <= 0 {
			return fmt.Errorf("hop_divisor must be > 0")
		}
		dst.HopDivisor = *f.HopDivisor
	}
	if f.GriffinLimIters != nil {
		if *f.GriffinLimIters <= 0 {
			return fmt.Errorf("griffin_lim_iters must be > 0")
		}
		dst.GriffinLimIters = *f.GriffinLimIters
	}
	if f.EnvelopeSmoothing != nil {
		if *f.EnvelopeSmoothing <= 0 {
			return fmt.Errorf("envelope_smoothing must be > 0")
		}
		dst.EnvelopeSmoothing = *f.EnvelopeSmoothing
	}
	if f.LPCOrder != nil {
		if *f.LPCOrder <= 0 {
			return fmt.Errorf("lpc_order must be > 0")
		}
		dst.LPCOrder = *f.LPCOrder
	}
	if f.SpectralDetailPreservation != nil {
		if *f.SpectralDetailPreservation < 0 || *f.SpectralDetailPreservation > 1 {
			return fmt.Errorf("spectral_detail_preservation must be in [0,1]")
		}
		dst.SpectralDetailPreservation = *f.SpectralDetailPreservation
	}
	if f.AdvancedPhase != nil {
		dst.AdvancedPhase = *f.AdvancedPhase
	}
	if f.FormantCorrection != nil {
		dst.FormantCorrection = *f.FormantCorrection
	}
	if f.NFFT != nil {
		if *f.NFFT <= 0 {
			return fmt.Errorf("nfft must be > 0")
		}
		dst.NFFT = *f.NFFT
	}
	return nil
}
