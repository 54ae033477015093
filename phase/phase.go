// Package phase reconstructs a time-domain signal from a magnitude-only
// spectrogram, using either iterative Griffin-Lim or single-pass RTPGHI
// phase estimation atop package stft.
package phase

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/cwbudde/algo-voice/stft"
)

// griffinLimThreshold is the iteration count at or below which the caller
// prefers RTPGHI's single-pass reconstruction over iterative Griffin-Lim.
const griffinLimThreshold = 32

// Reconstructor rebuilds phase for a magnitude-only [T][K] spectrogram
// produced by a shared stft.Engine.
type Reconstructor struct {
	Engine *stft.Engine
	Rand   *rand.Rand
}

// NewReconstructor builds a Reconstructor atop engine. If rng is nil, a
// source with the fixed seed 1 is created, so results are deterministic.
func NewReconstructor(engine *stft.Engine, rng *rand.Rand) *Reconstructor {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	return &Reconstructor{Engine: engine, Rand: rng}
}

// Reconstruct rebuilds a time-domain signal of the given length from a
// magnitude-only spectrogram mag[T][K], selecting RTPGHI when iters <= 32
// and iterative Griffin-Lim otherwise, matching the pipeline's default
// selection policy.
func (r *Reconstructor) Reconstruct(mag [][]float64, iters, length int) ([]float64, error) {
	if iters > griffinLimThreshold {
		return r.GriffinLim(mag, iters, length)
	}
	return r.RTPGHI(mag, length)
}

// GriffinLim iteratively estimates phase: initialize with uniform random
// phase, then repeat iters times: iSTFT, STFT, replace magnitude with the
// target while keeping the re-estimated phase.
func (r *Reconstructor) GriffinLim(mag [][]float64, iters, length int) ([]float64, error) {
	frames := len(mag)
	if frames == 0 {
		return make([]float64, length), nil
	}
	bins := len(mag[0])

	spec := make([][]complex128, frames)
	for t := 0; t < frames; t++ {
		row := make([]complex128, bins)
		for k := 0; k < bins; k++ {
			phi := r.Rand.Float64() * 2 * math.Pi
			row[k] = complex(mag[t][k]*math.Cos(phi), mag[t][k]*math.Sin(phi))
		}
		spec[t] = row
	}

	for i := 0; i < iters; i++ {
		y, err := r.Engine.Inverse(spec, length)
		if err != nil {
			return nil, fmt.Errorf("phase: griffin-lim inverse at iter %d: %w", i, err)
		}
		reSpec, err := r.Engine.Forward(y)
		if err != nil {
			return nil, fmt.Errorf("phase: griffin-lim forward at iter %d: %w", i, err)
		}
		for t := 0; t < frames && t < len(reSpec); t++ {
			for k := 0; k < bins && k < len(reSpec[t]); k++ {
				phi := math.Atan2(imag(reSpec[t][k]), real(reSpec[t][k]))
				spec[t][k] = complex(mag[t][k]*math.Cos(phi), mag[t][k]*math.Sin(phi))
			}
		}
	}
	return r.Engine.Inverse(spec, length)
}

// RTPGHI performs single-pass phase reconstruction via the real-time
// phase-gradient heap integration approximation: the log-magnitude's time
// derivative drives an instantaneous-frequency correction, and phase is
// accumulated frame-to-frame rather than iterated.
func (r *Reconstructor) RTPGHI(mag [][]float64, length int) ([]float64, error) {
	frames := len(mag)
	if frames == 0 {
		return make([]float64, length), nil
	}
	bins := len(mag[0])
	nfft := r.Engine.NFFT
	hop := r.Engine.Hop

	gamma := 0.25 * float64(hop) * float64(hop) / float64(nfft)

	logMag := make([][]float64, frames)
	for t := 0; t < frames; t++ {
		row := make([]float64, bins)
		for k := 0; k < bins; k++ {
			row[k] = math.Log(math.Max(mag[t][k], 1e-8))
		}
		logMag[t] = row
	}

	dLogDt := make([][]float64, frames)
	for t := 0; t < frames; t++ {
		row := make([]float64, bins)
		for k := 0; k < bins; k++ {
			switch {
			case frames == 1:
				row[k] = 0
			case t == 0:
				row[k] = logMag[1][k] - logMag[0][k]
			case t == frames-1:
				row[k] = logMag[t][k] - logMag[t-1][k]
			default:
				row[k] = (logMag[t+1][k] - logMag[t-1][k]) / 2
			}
		}
		dLogDt[t] = row
	}

	phase := make([][]float64, frames)
	phase[0] = make([]float64, bins)
	for k := 0; k < bins; k++ {
		phase[0][k] = r.Rand.Float64() * 2 * math.Pi
	}
	for t := 1; t < frames; t++ {
		phase[t] = make([]float64, bins)
		for k := 0; k < bins; k++ {
			omega := 2*math.Pi*float64(k)*float64(hop)/float64(nfft) + gamma*dLogDt[t-1][k]
			phase[t][k] = phase[t-1][k] + omega
		}
	}

	spec := make([][]complex128, frames)
	for t := 0; t < frames; t++ {
		row := make([]complex128, bins)
		for k := 0; k < bins; k++ {
			row[k] = complex(mag[t][k]*math.Cos(phase[t][k]), mag[t][k]*math.Sin(phase[t][k]))
		}
		spec[t] = row
	}
	return r.Engine.Inverse(spec, length)
}
