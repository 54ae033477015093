// Package voice defines the shared data model for the voice conversion
// pipeline: pitch contours, formant tracks, spectral features, voice
// profiles and quality presets. It has no dependencies of its own so every
// other package in this module can import it without creating cycles.
package voice

// Core analysis constants shared across the pipeline.
const (
	MinF0Hz              = 50.0
	MaxF0Hz              = 600.0
	DefaultNFFT           = 2048
	FormantAnalysisSR     = 10000
	PitchThresholdLowHz   = 120.0
	LPCOrderLowPitch      = 16
	MaxFormantBandwidthHz = 400.0
	Epsilon               = 1e-10
)
