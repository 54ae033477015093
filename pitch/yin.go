// Package pitch implements YIN-style autocorrelation pitch detection:
// per-frame fundamental frequency with voicing confidence, aggregated into
// a voice.PitchContour.
package pitch

import (
	"fmt"
	"math"
	"math/cmplx"

	algofft "github.com/cwbudde/algo-fft"

	"github.com/cwbudde/algo-voice/dspkit"
	"github.com/cwbudde/algo-voice/voice"
)

const (
	thresholdAbsolute = 0.1
	thresholdRelative = 0.3
	confidenceVoiced  = 0.3
)

// Estimator runs the YIN pitch detector over hop-sized frames of a signal
// sampled at SampleRate.
type Estimator struct {
	SampleRate int
	Hop        int

	minLag int
	maxLag int
	window int
}

// NewEstimator builds an Estimator for the given sample rate and hop size
// (frame stride, shared with the STFT engine so per-frame arrays align).
func NewEstimator(sampleRate, hop int) (*Estimator, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("pitch: sampleRate must be > 0, got %d", sampleRate)
	}
	if hop <= 0 {
		return nil, fmt.Errorf("pitch: hop must be > 0, got %d", hop)
	}
	maxLag := int(float64(sampleRate) / voice.MinF0Hz)
	minLag := int(float64(sampleRate) / voice.MaxF0Hz)
	if minLag < 2 {
		minLag = 2
	}
	return &Estimator{
		SampleRate: sampleRate,
		Hop:        hop,
		minLag:     minLag,
		maxLag:     maxLag,
		window:     2 * maxLag,
	}, nil
}

// FrameCount returns how many pitch frames a signal of length n yields.
func (e *Estimator) FrameCount(n int) int {
	if n < e.window {
		return 0
	}
	count := 0
	for start := 0; start+e.window <= n || start < n; start += e.Hop {
		frameLen := e.window
		if start+frameLen > n {
			frameLen = n - start
		}
		if frameLen < 2*e.minLag {
			break
		}
		count++
		if start+e.window >= n {
			break
		}
	}
	return count
}

// Analyze computes the pitch contour for x.
func (e *Estimator) Analyze(x []float64) *voice.PitchContour {
	t := e.FrameCount(len(x))
	if t == 0 {
		return voice.DefaultPitchContour(0)
	}

	f0 := make([]float64, t)
	voicedMask := make([]bool, t)

	frame := 0
	for start := 0; frame < t; start += e.Hop {
		frameLen := e.window
		if start+frameLen > len(x) {
			frameLen = len(x) - start
		}
		if frameLen < 2*e.minLag {
			break
		}
		seg := x[start : start+frameLen]
		f, voiced := e.analyzeFrame(seg)
		f0[frame] = f
		voicedMask[frame] = voiced
		frame++
	}

	finite := make([]float64, 0, t)
	for i, v := range f0 {
		if voicedMask[i] && dspkit.IsFinite(v) {
			finite = append(finite, v)
		}
	}

	contour := &voice.PitchContour{F0: f0, VoicedMask: voicedMask}
	if len(finite) == 0 {
		contour.F0Mean = 150.0
		contour.F0Std = 0.0
		contour.HNRDb = 0.0
		return contour
	}
	contour.F0Mean = dspkit.Median(finite)
	contour.F0Std = dspkit.StdDev(finite)
	contour.HNRDb = e.harmonicToNoiseRatio(x, contour.F0Mean)
	return contour
}

// analyzeFrame runs the core YIN steps on a single frame and returns (f0,
// voiced). f0 is NaN when unvoiced.
func (e *Estimator) analyzeFrame(seg []float64) (float64, bool) {
	d, err := differenceFunction(seg, e.maxLag)
	if err != nil || len(d) <= e.maxLag {
		return math.NaN(), false
	}

	dprime := cumulativeMeanNormalizedDifference(d, e.maxLag)

	tau := -1
	for k := e.minLag; k <= e.maxLag; k++ {
		if dprime[k] < thresholdAbsolute {
			tau = k
			break
		}
	}
	if tau < 0 {
		best := e.minLag
		bestVal := dprime[e.minLag]
		for k := e.minLag + 1; k <= e.maxLag; k++ {
			if dprime[k] < bestVal {
				bestVal = dprime[k]
				best = k
			}
		}
		if bestVal < thresholdRelative {
			tau = best
		}
	}
	if tau < 0 {
		return math.NaN(), false
	}

	tauStar, delta := parabolicInterpolate(dprime, tau, e.maxLag)
	if tauStar <= 0 {
		return math.NaN(), false
	}
	f0 := float64(e.SampleRate) / tauStar

	idx := int(math.Round(tauStar))
	if idx < 0 {
		idx = 0
	}
	if idx > e.maxLag {
		idx = e.maxLag
	}
	dAtTau := dprime[idx]
	_ = delta
	confidence := math.Max(0, 1-dAtTau)
	voiced := confidence > confidenceVoiced
	if !voiced {
		return math.NaN(), false
	}
	return f0, true
}

// differenceFunction computes YIN's d[tau] = sum (x[i]-x[i+tau])^2 for
// tau in [0, maxLag], using an FFT-accelerated autocorrelation plus the
// cumulative-energy identity d[tau] = powerSum[tau] - 2*r[tau].
func differenceFunction(x []float64, maxLag int) ([]float64, error) {
	w := len(x)
	if maxLag >= w {
		maxLag = w - 1
	}

	sqPrefix := make([]float64, w+1)
	for i := 0; i < w; i++ {
		sqPrefix[i+1] = sqPrefix[i] + x[i]*x[i]
	}

	nfft := dspkit.NextPow2(2 * w)
	plan, err := algofft.NewPlanReal64(nfft)
	if err != nil {
		return nil, err
	}
	padded := make([]float64, nfft)
	copy(padded, x)
	spec := make([]complex128, nfft/2+1)
	if err := plan.Forward(spec, padded); err != nil {
		return nil, err
	}
	for i := range spec {
		spec[i] = spec[i] * cmplx.Conj(spec[i])
	}
	autocorr := make([]float64, nfft)
	if err := plan.Inverse(autocorr, spec); err != nil {
		return nil, err
	}

	d := make([]float64, maxLag+1)
	d[0] = 0
	for tau := 1; tau <= maxLag; tau++ {
		powerSum := sqPrefix[w-tau] + (sqPrefix[w] - sqPrefix[tau])
		d[tau] = powerSum - 2*autocorr[tau]
		if d[tau] < 0 {
			d[tau] = 0
		}
	}
	return d, nil
}

func cumulativeMeanNormalizedDifference(d []float64, maxLag int) []float64 {
	dprime := make([]float64, maxLag+1)
	dprime[0] = 1
	runningSum := 0.0
	for tau := 1; tau <= maxLag; tau++ {
		runningSum += d[tau]
		if runningSum > voice.Epsilon {
			dprime[tau] = d[tau] * float64(tau) / runningSum
		} else {
			dprime[tau] = 1
		}
	}
	return dprime
}

// parabolicInterpolate refines an integer lag tau to a sub-sample estimate
// using its two neighbors in dprime. Returns (tauStar, delta); delta is 0
// when either neighbor is out of range, per SPEC_FULL.md's edge case.
func parabolicInterpolate(dprime []float64, tau, maxLag int) (float64, float64) {
	if tau <= 0 || tau >= maxLag {
		return float64(tau), 0
	}
	s0, s1, s2 := dprime[tau-1], dprime[tau], dprime[tau+1]
	denom := 2 * (2*s1 - s2 - s0)
	if math.Abs(denom) < voice.Epsilon {
		return float64(tau), 0
	}
	delta := (s2 - s0) / denom
	return float64(tau) + delta, delta
}

// harmonicToNoiseRatio estimates HNR in dB from the full-signal
// autocorrelation at the lag implied by f0Mean, clamped to [0, 40].
func (e *Estimator) harmonicToNoiseRatio(x []float64, f0Mean float64) float64 {
	if !dspkit.IsFinite(f0Mean) || f0Mean <= 0 {
		return 0
	}
	lag := int(math.Round(float64(e.SampleRate) / f0Mean))
	if lag <= 0 || lag >= len(x) {
		return 0
	}

	var r0, rTau float64
	n := len(x) - lag
	for i := 0; i < len(x); i++ {
		r0 += x[i] * x[i]
	}
	for i := 0; i < n; i++ {
		rTau += x[i] * x[i+lag]
	}
	if r0 < voice.Epsilon {
		return 40
	}
	rho := dspkit.Clamp(rTau/r0, 0, 1-1e-9)
	if 1-rho < voice.Epsilon {
		return 40
	}
	hnr := 10 * math.Log10(rho/(1-rho+voice.Epsilon))
	return dspkit.Clamp(hnr, 0, 40)
}
