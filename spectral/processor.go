package spectral

import (
	"math"

	dspspectrum "github.com/cwbudde/algo-dsp/dsp/spectrum"

	"github.com/cwbudde/algo-voice/dspkit"
	"github.com/cwbudde/algo-voice/voice"
)

// PitchShiftFactor converts a semitone shift to a time-domain resample
// factor using the fast power-of-two approximation shared with the rest of
// this organization's real-time code.
func PitchShiftFactor(semitones float64) float64 {
	return dspkit.Pow2(semitones / 12.0)
}

// PitchShiftTimeDomain resamples x by 1/alpha via linear interpolation,
// shifting both pitch and formants together (formant warp compensates
// later in the pipeline).
func PitchShiftTimeDomain(x []float64, alpha float64) []float64 {
	if alpha <= 0 || len(x) == 0 {
		return append([]float64(nil), x...)
	}
	outLen := int(float64(len(x)) / alpha)
	if outLen < 1 {
		outLen = 1
	}
	out := make([]float64, outLen)
	for i := range out {
		srcPos := float64(i) * alpha
		idx := int(srcPos)
		frac := srcPos - float64(idx)
		if idx >= len(x)-1 {
			out[i] = x[len(x)-1]
			continue
		}
		out[i] = x[idx] + frac*(x[idx+1]-x[idx])
	}
	return out
}

// FormantWarp stretches the frequency axis of a magnitude matrix mag[frame][bin]
// by factor beta: output bin k reads source bin min(k*beta, K-1), linearly
// interpolated across the bin axis. Frames (time) are unchanged.
func FormantWarp(mag [][]float64, beta float64) ([][]float64, error) {
	frames := len(mag)
	if frames == 0 {
		return mag, nil
	}
	bins := len(mag[0])
	if beta <= 0 || math.Abs(beta-1) < 1e-9 {
		out := make([][]float64, frames)
		for i := range out {
			out[i] = append([]float64(nil), mag[i]...)
		}
		return out, nil
	}

	srcBins := make([]float64, bins)
	for k := range srcBins {
		srcBins[k] = float64(k)
	}
	queryBins := make([]float64, bins)
	for k := range queryBins {
		q := float64(k) * beta
		if q > float64(bins-1) {
			q = float64(bins - 1)
		}
		queryBins[k] = q
	}

	out := make([][]float64, frames)
	for t := 0; t < frames; t++ {
		warped, err := dspspectrum.InterpolateLinear(srcBins, mag[t], queryBins)
		if err != nil {
			return nil, err
		}
		out[t] = warped
	}
	return out, nil
}

// TiltMatch applies a spectral-tilt correction to mag so that its slope
// moves toward targetSlope, normalized so the correction equals 1 at 1kHz.
// It is a no-op if fewer than minTiltBins valid bins fall in the fitting
// band (100, 8000) Hz.
func TiltMatch(mag [][]float64, sourceSlope, targetSlope float64, nfft, sampleRate int) [][]float64 {
	frames := len(mag)
	if frames == 0 {
		return mag
	}
	bins := len(mag[0])

	validBins := 0
	for k := 1; k < bins; k++ {
		freq := float64(k) * float64(sampleRate) / float64(nfft)
		if freq > tiltMinHz && freq < tiltMaxHz {
			validBins++
		}
	}
	if validBins < minTiltBins {
		return mag
	}

	deltaSlope := targetSlope - sourceSlope
	norm := math.Exp(deltaSlope * math.Log(1000+voice.Epsilon))

	correction := make([]float64, bins)
	for k := 0; k < bins; k++ {
		freq := float64(k) * float64(sampleRate) / float64(nfft)
		correction[k] = math.Exp(deltaSlope*math.Log(freq+voice.Epsilon)) / norm
	}

	out := make([][]float64, frames)
	for t := 0; t < frames; t++ {
		row := make([]float64, bins)
		for k := 0; k < bins; k++ {
			row[k] = mag[t][k] * correction[k]
		}
		out[t] = row
	}
	return out
}
