package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/cwbudde/algo-voice/audioio"
	"github.com/cwbudde/algo-voice/quality"
	"github.com/cwbudde/algo-voice/voice"
	"github.com/cwbudde/algo-voice/voiceerr"
)

// profileDTO is the JSON wire shape for GET /profiles/{name}: identical to
// voice.VoiceProfile except F0 is nil-padded (*float64, null for unvoiced
// frames) since encoding/json rejects the NaN the in-memory type uses.
type profileDTO struct {
	Pitch struct {
		F0         []*float64 `json:"f0"`
		VoicedMask []bool     `json:"voiced_mask"`
		F0Mean     float64    `json:"f0_mean"`
		F0Std      float64    `json:"f0_std"`
		HNRDb      float64    `json:"harmonic_to_noise_ratio"`
	} `json:"pitch"`
	Formants struct {
		Frequencies     [][]float64 `json:"frequencies"`
		Bandwidths      [][]float64 `json:"bandwidths"`
		MeanFrequencies []float64   `json:"mean_frequencies"`
		MeanBandwidths  []float64   `json:"mean_bandwidths"`
	} `json:"formants"`
	Spectral struct {
		Envelope     [][]float64 `json:"envelope"`
		SpectralTilt float64     `json:"spectral_tilt"`
	} `json:"spectral"`
	HarmonicRatios []float64 `json:"harmonic_ratios"`
	HarmonicEnergy []float64 `json:"harmonic_energy"`
	SampleRate     int       `json:"sample_rate"`
}

func toProfileDTO(p *voice.VoiceProfile) profileDTO {
	var dto profileDTO
	dto.Pitch.F0 = make([]*float64, len(p.Pitch.F0))
	for i, v := range p.Pitch.F0 {
		if i < len(p.Pitch.VoicedMask) && !p.Pitch.VoicedMask[i] {
			continue // leave nil
		}
		val := v
		dto.Pitch.F0[i] = &val
	}
	dto.Pitch.VoicedMask = p.Pitch.VoicedMask
	dto.Pitch.F0Mean = p.Pitch.F0Mean
	dto.Pitch.F0Std = p.Pitch.F0Std
	dto.Pitch.HNRDb = p.Pitch.HNRDb
	dto.Formants.Frequencies = p.Formants.Frequencies
	dto.Formants.Bandwidths = p.Formants.Bandwidths
	dto.Formants.MeanFrequencies = p.Formants.MeanFrequencies
	dto.Formants.MeanBandwidths = p.Formants.MeanBandwidths
	dto.Spectral.Envelope = p.Spectral.Envelope
	dto.Spectral.SpectralTilt = p.Spectral.SpectralTilt
	dto.HarmonicRatios = p.HarmonicRatios
	dto.HarmonicEnergy = p.HarmonicEnergy
	dto.SampleRate = p.SampleRate
	return dto
}

// errorBody is the JSON shape returned for any failed request.
type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// analyzeResponse is the JSON shape returned by POST /profiles/{name}/analyze.
type analyzeResponse struct {
	Name    string        `json:"name"`
	Quality quality.Report `json:"quality"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(body)
}

func parseQualityForm(r *http.Request, def voice.Quality) (voice.Quality, error) {
	s := r.FormValue("quality")
	if s == "" {
		return def, nil
	}
	q, err := voice.ParseQuality(s)
	if err != nil {
		return def, voiceerr.Wrap(voiceerr.KindValidationFailure, err, "parsing quality form field")
	}
	return q, nil
}

func parseBitDepthForm(r *http.Request, def audioio.BitDepth) (audioio.BitDepth, error) {
	s := r.FormValue("bit_depth")
	if s == "" {
		return def, nil
	}
	switch s {
	case "16":
		return audioio.BitDepthPCM16, nil
	case "32":
		return audioio.BitDepthFloat32, nil
	default:
		return def, voiceerr.New(voiceerr.KindValidationFailure, "unsupported bit_depth %q, want 16 or 32", s)
	}
}

func parseFloatForm(r *http.Request, field string, def float64) float64 {
	s := r.FormValue(field)
	if s == "" {
		return def
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return def
	}
	return v
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
