// Package spectral computes a cepstral spectral envelope, spectral tilt
// and harmonic energy statistics from an STFT magnitude matrix, and
// provides the frequency-domain processors (pitch shift, formant warp,
// tilt match) that act on those statistics during conversion. Matrices
// throughout this package use the same [T][K] (frame-major) layout as
// package stft's Magnitude/Phase.
package spectral

import (
	"math"

	"github.com/cwbudde/algo-voice/dspkit"
	"github.com/cwbudde/algo-voice/voice"
)

const (
	tiltMinHz   = 100.0
	tiltMaxHz   = 8000.0
	minTiltBins = 10
	maxHarmonic = 10
)

// Analyzer computes cepstral envelopes, spectral tilt and harmonic stats
// for magnitude spectrograms of a fixed NFFT/SampleRate.
type Analyzer struct {
	NFFT       int
	SampleRate int
	Settings   voice.QualitySettings
}

// NewAnalyzer builds an Analyzer.
func NewAnalyzer(nfft, sampleRate int, settings voice.QualitySettings) *Analyzer {
	return &Analyzer{NFFT: nfft, SampleRate: sampleRate, Settings: settings}
}

// Analyze computes the spectral features for a magnitude matrix mag[frame][bin]
// and an aligned pitch contour (used for harmonic stats).
func (a *Analyzer) Analyze(mag [][]float64, f0 []float64) (*voice.SpectralFeatures, []float64, []float64, error) {
	envelope, err := a.cepstralEnvelope(mag)
	if err != nil {
		return nil, nil, nil, err
	}
	tilt := a.spectralTilt(mag)
	harmonicEnergy, harmonicRatios := a.harmonicStats(mag, f0)
	return &voice.SpectralFeatures{Envelope: envelope, SpectralTilt: tilt}, harmonicEnergy, harmonicRatios, nil
}

// cepstralEnvelope smooths the log-magnitude spectrum via low-quefrency
// liftering: env = exp(irFFT(lowpass(rFFT(log(|S|+eps)), Kc))), applied
// independently to each time frame.
func (a *Analyzer) cepstralEnvelope(mag [][]float64) ([][]float64, error) {
	frames := len(mag)
	if frames == 0 || len(mag[0]) == 0 {
		return nil, nil
	}
	bins := len(mag[0])
	plan, err := getPlan(a.NFFT)
	if err != nil {
		return nil, err
	}
	kc := a.Settings.CepstralCutoff()

	envelope := make([][]float64, frames)

	spec := make([]complex128, bins)
	cepstrum := make([]float64, a.NFFT)

	for t := 0; t < frames; t++ {
		for k := 0; k < bins; k++ {
			spec[k] = complex(math.Log(mag[t][k]+voice.Epsilon), 0)
		}
		if err := plan.inverse(cepstrum, spec); err != nil {
			return nil, err
		}
		for q := kc; q < a.NFFT-kc; q++ {
			cepstrum[q] = 0
		}
		if err := plan.forward(spec, cepstrum); err != nil {
			return nil, err
		}
		row := make([]float64, bins)
		for k := 0; k < bins; k++ {
			row[k] = math.Exp(real(spec[k]))
		}
		envelope[t] = row
	}
	return envelope, nil
}

// spectralTilt fits a line to log|S(f)| vs log(f) on the time-averaged
// spectrum restricted to (tiltMinHz, tiltMaxHz), returning 0 if fewer than
// minTiltBins valid bins fall in that band.
func (a *Analyzer) spectralTilt(mag [][]float64) float64 {
	frames := len(mag)
	if frames == 0 || len(mag[0]) == 0 {
		return 0
	}
	bins := len(mag[0])
	avg := make([]float64, bins)
	for k := 0; k < bins; k++ {
		var sum float64
		for t := 0; t < frames; t++ {
			sum += mag[t][k]
		}
		avg[k] = sum / float64(frames)
	}

	var logF, logM []float64
	for k := 1; k < bins; k++ {
		freq := float64(k) * float64(a.SampleRate) / float64(a.NFFT)
		if freq <= tiltMinHz || freq >= tiltMaxHz {
			continue
		}
		if avg[k] <= 0 {
			continue
		}
		logF = append(logF, math.Log(freq))
		logM = append(logM, math.Log(avg[k]))
	}
	if len(logF) < minTiltBins {
		return 0
	}
	slope, _ := dspkit.PolyfitLinear(logF, logM)
	return slope
}

// harmonicStats computes, per frame, harmonic energy and harmonic ratio for
// voiced frames (f0 > voice.MinF0Hz); both are 0 for unvoiced frames.
func (a *Analyzer) harmonicStats(mag [][]float64, f0 []float64) ([]float64, []float64) {
	frames := len(mag)
	if frames == 0 {
		return nil, nil
	}
	bins := len(mag[0])
	harmonicEnergy := make([]float64, frames)
	harmonicRatios := make([]float64, frames)

	for t := 0; t < frames; t++ {
		var total float64
		for k := 0; k < bins; k++ {
			total += mag[t][k] * mag[t][k]
		}
		if t >= len(f0) || !dspkit.IsFinite(f0[t]) || f0[t] <= voice.MinF0Hz {
			continue
		}
		mask := make([]bool, bins)
		for h := 1; h <= maxHarmonic; h++ {
			centerFreq := float64(h) * f0[t]
			centerBin := int(math.Round(centerFreq * float64(a.NFFT) / float64(a.SampleRate)))
			window := int(math.Max(1, math.Floor(0.05*float64(centerBin))))
			lo, hi := centerBin-window, centerBin+window
			if lo < 0 {
				lo = 0
			}
			if hi >= bins {
				hi = bins - 1
			}
			for k := lo; k <= hi; k++ {
				mask[k] = true
			}
		}
		var energy float64
		for k := 0; k < bins; k++ {
			if mask[k] {
				energy += mag[t][k] * mag[t][k]
			}
		}
		harmonicEnergy[t] = energy
		if total > voice.Epsilon {
			harmonicRatios[t] = energy / total
		}
	}
	return harmonicEnergy, harmonicRatios
}
