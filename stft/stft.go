// Package stft implements the forward/inverse short-time Fourier transform
// used throughout the voice conversion pipeline: Hann-windowed analysis,
// constant-overlap-add synthesis, and accessors for externally supplied
// magnitude/phase matrices (needed by the phase reconstructors and the
// spectral processor's formant warp).
package stft

import (
	"fmt"
	"math"

	dspwindow "github.com/cwbudde/algo-dsp/dsp/window"
)

// Engine performs forward and inverse STFTs at a fixed (NFFT, Hop).
type Engine struct {
	NFFT int
	Hop  int

	window []float64
	plan   *fftPlan
}

// NewEngine builds an Engine with a periodic Hann window of length nfft and
// the given hop size. hop must divide evenly into useful overlap (any
// positive hop <= nfft is accepted; COLA quality depends on the ratio).
func NewEngine(nfft, hop int) (*Engine, error) {
	if nfft <= 0 {
		return nil, fmt.Errorf("stft: nfft must be > 0, got %d", nfft)
	}
	if hop <= 0 || hop > nfft {
		return nil, fmt.Errorf("stft: hop must be in (0, nfft], got %d", hop)
	}
	win, err := dspwindow.Hann(nfft, dspwindow.WithPeriodic(true))
	if err != nil {
		return nil, fmt.Errorf("stft: building window: %w", err)
	}
	plan, err := getPlan(nfft)
	if err != nil {
		return nil, fmt.Errorf("stft: building fft plan: %w", err)
	}
	return &Engine{NFFT: nfft, Hop: hop, window: win, plan: plan}, nil
}

// Bins returns K = nfft/2 + 1, the number of frequency bins per frame.
func (e *Engine) Bins() int {
	return e.NFFT/2 + 1
}

// Window returns the engine's analysis/synthesis window (length NFFT). The
// returned slice must not be modified; it is shared with the Engine.
func (e *Engine) Window() []float64 {
	return e.window
}

// ForwardFrame windows and transforms a single NFFT-length time-domain
// frame, for callers (the streaming processor) that slide their own
// analysis window across a ring buffer rather than calling Forward on a
// whole signal.
func (e *Engine) ForwardFrame(frame []float64) ([]complex128, error) {
	if len(frame) != e.NFFT {
		return nil, fmt.Errorf("stft: ForwardFrame: frame length %d != nfft %d", len(frame), e.NFFT)
	}
	windowed := make([]float64, e.NFFT)
	for i := range windowed {
		windowed[i] = frame[i] * e.window[i]
	}
	spec := make([]complex128, e.Bins())
	if err := e.plan.forward(spec, windowed); err != nil {
		return nil, fmt.Errorf("stft: ForwardFrame: %w", err)
	}
	return spec, nil
}

// InverseFrame transforms a single spectrum back to NFFT time-domain
// samples and applies the synthesis window, leaving overlap-add
// accumulation and window-sum normalization to the caller.
func (e *Engine) InverseFrame(spec []complex128) ([]float64, error) {
	frame := make([]float64, e.NFFT)
	if err := e.plan.inverse(frame, spec); err != nil {
		return nil, fmt.Errorf("stft: InverseFrame: %w", err)
	}
	for i := range frame {
		frame[i] *= e.window[i]
	}
	return frame, nil
}

// FrameCount returns T, the number of analysis frames for a signal of the
// given length: ceil((len-nfft)/hop) + 1, with the tail zero-padded.
func (e *Engine) FrameCount(length int) int {
	if length <= e.NFFT {
		return 1
	}
	return (length-e.NFFT+e.Hop-1)/e.Hop + 1
}

// Forward computes the STFT of x, returning a [T][K] complex matrix.
func (e *Engine) Forward(x []float64) ([][]complex128, error) {
	t := e.FrameCount(len(x))
	out := make([][]complex128, t)
	frame := make([]float64, e.NFFT)
	for fr := 0; fr < t; fr++ {
		start := fr * e.Hop
		for i := 0; i < e.NFFT; i++ {
			idx := start + i
			if idx < len(x) {
				frame[i] = x[idx] * e.window[i]
			} else {
				frame[i] = 0
			}
		}
		spec := make([]complex128, e.Bins())
		if err := e.plan.forward(spec, frame); err != nil {
			return nil, fmt.Errorf("stft: forward frame %d: %w", fr, err)
		}
		out[fr] = spec
	}
	return out, nil
}

// Inverse reconstructs a signal from a [T][K] complex spectrogram using
// windowed overlap-add, normalized by the accumulated window-sum-square so
// that a magnitude-unchanged round trip recovers the original signal. If
// length > 0 the output is trimmed/padded to that length; otherwise the
// natural overlap-add length (T-1)*hop + nfft is returned.
func (e *Engine) Inverse(spec [][]complex128, length int) ([]float64, error) {
	t := len(spec)
	if t == 0 {
		if length > 0 {
			return make([]float64, length), nil
		}
		return nil, nil
	}
	outLen := (t-1)*e.Hop + e.NFFT
	out := make([]float64, outLen)
	wsum := make([]float64, outLen)
	frame := make([]float64, e.NFFT)
	for fr := 0; fr < t; fr++ {
		if err := e.plan.inverse(frame, spec[fr]); err != nil {
			return nil, fmt.Errorf("stft: inverse frame %d: %w", fr, err)
		}
		start := fr * e.Hop
		for i := 0; i < e.NFFT; i++ {
			w := e.window[i]
			out[start+i] += frame[i] * w
			wsum[start+i] += w * w
		}
	}
	for i := range out {
		if wsum[i] > 1e-10 {
			out[i] /= wsum[i]
		}
	}
	if length > 0 {
		if length <= len(out) {
			return out[:length], nil
		}
		padded := make([]float64, length)
		copy(padded, out)
		return padded, nil
	}
	return out, nil
}

// InverseFromMagPhase rebuilds a complex spectrogram from separate
// magnitude and phase matrices ([T][K] each) and inverts it.
func (e *Engine) InverseFromMagPhase(mag, phase [][]float64, length int) ([]float64, error) {
	spec := make([][]complex128, len(mag))
	for t := range mag {
		row := make([]complex128, len(mag[t]))
		for k := range mag[t] {
			var ph float64
			if phase != nil && t < len(phase) && k < len(phase[t]) {
				ph = phase[t][k]
			}
			row[k] = complex(mag[t][k]*math.Cos(ph), mag[t][k]*math.Sin(ph))
		}
		spec[t] = row
	}
	return e.Inverse(spec, length)
}
