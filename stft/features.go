package stft

import (
	"github.com/cwbudde/algo-dsp/dsp/spectrum"
)

// Magnitude returns |S[t]| for every frame of a [T][K] complex spectrogram.
func Magnitude(spec [][]complex128) [][]float64 {
	out := make([][]float64, len(spec))
	for t := range spec {
		out[t] = spectrum.Magnitude(spec[t])
	}
	return out
}

// Phase returns arg(S[t]) for every frame of a [T][K] complex spectrogram.
func Phase(spec [][]complex128) [][]float64 {
	out := make([][]float64, len(spec))
	for t := range spec {
		out[t] = spectrum.Phase(spec[t])
	}
	return out
}
