// Package formant estimates vocal-tract formant frequencies and
// bandwidths per frame via LPC (Levinson-Durbin recursion followed by
// polynomial root-finding), producing a voice.FormantTrack.
package formant

import (
	"fmt"
	"math"
	"math/cmplx"

	dspresample "github.com/cwbudde/algo-dsp/dsp/resample"

	"github.com/cwbudde/algo-voice/dsp"
	"github.com/cwbudde/algo-voice/dspkit"
	"github.com/cwbudde/algo-voice/internal/rootfind"
	"github.com/cwbudde/algo-voice/voice"
)

const numFormants = 5

// Estimator runs LPC-based formant analysis at a fixed source sample rate
// and quality setting.
type Estimator struct {
	SampleRate int
	Settings   voice.QualitySettings

	analysisSR int
	frameLen   int
	hop        int
}

// NewEstimator builds an Estimator. hop is the shared pipeline hop size in
// samples at SampleRate (used to align T across analyzers); the internal
// analysis runs at voice.FormantAnalysisSR and derives its own frame/hop
// from the 25ms frame requirement.
func NewEstimator(sampleRate int, settings voice.QualitySettings, hop int) (*Estimator, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("formant: sampleRate must be > 0, got %d", sampleRate)
	}
	if hop <= 0 {
		return nil, fmt.Errorf("formant: hop must be > 0, got %d", hop)
	}
	analysisSR := voice.FormantAnalysisSR
	frameLen := int(0.025 * float64(analysisSR))
	return &Estimator{
		SampleRate: sampleRate,
		Settings:   settings,
		analysisSR: analysisSR,
		frameLen:   frameLen,
		hop:        hop,
	}, nil
}

// FrameCount returns the number of formant frames produced for a signal of
// length n samples at SampleRate, matching the T used by Analyze.
func (e *Estimator) FrameCount(n int) int {
	return frameCountForHop(n, e.hop)
}

func frameCountForHop(n, hop int) int {
	if n <= 0 {
		return 0
	}
	t := (n + hop - 1) / hop
	if t < 1 {
		t = 1
	}
	return t
}

// Analyze computes the formant track for x, optionally using f0 (same
// length as the target frame count T, NaN where unvoiced) to select the
// low-pitch LPC order override. f0 may be nil.
func (e *Estimator) Analyze(x []float64, f0 []float64) (*voice.FormantTrack, error) {
	t := e.FrameCount(len(x))
	if t == 0 || len(x) == 0 {
		return defaultTrack(0), nil
	}

	analysisX, err := e.resampleAndFilter(x)
	if err != nil {
		return nil, fmt.Errorf("formant: resample: %w", err)
	}

	analysisHop := 0
	if t > 1 {
		analysisHop = (len(analysisX) - e.frameLen) / (t - 1)
	}
	if analysisHop < 1 {
		analysisHop = e.frameLen
	}

	freqs := make([][]float64, numFormants)
	bws := make([][]float64, numFormants)
	for i := range freqs {
		freqs[i] = make([]float64, t)
		bws[i] = make([]float64, t)
	}

	baseOrder := e.Settings.LPCOrder
	if baseOrder <= 0 {
		baseOrder = 14
	}

	for frame := 0; frame < t; frame++ {
		start := frame * analysisHop
		end := start + e.frameLen
		if end > len(analysisX) {
			end = len(analysisX)
		}
		if end-start < 4 {
			continue
		}
		seg := analysisX[start:end]

		order := baseOrder
		if f0 != nil && frame < len(f0) && dspkit.IsFinite(f0[frame]) && f0[frame] < voice.PitchThresholdLowHz {
			order = voice.LPCOrderLowPitch
		}
		if order > len(seg)-2 {
			order = len(seg) - 2
		}
		if order < 2 {
			continue
		}

		fs, bs, ok := analyzeFrame(seg, order, e.analysisSR)
		if !ok {
			continue
		}
		for i := 0; i < numFormants && i < len(fs); i++ {
			freqs[i][frame] = fs[i]
			bws[i][frame] = bs[i]
		}
	}

	window := e.Settings.MedianFilterWindow()
	for i := range freqs {
		freqs[i] = dspkit.MedianFilter(freqs[i], window, func(j int) bool { return freqs[i][j] > 0 })
		bws[i] = dspkit.MedianFilter(bws[i], window, func(j int) bool { return bws[i][j] > 0 })
	}

	track := &voice.FormantTrack{
		Frequencies:     freqs,
		Bandwidths:      bws,
		MeanFrequencies: make([]float64, numFormants),
		MeanBandwidths:  make([]float64, numFormants),
	}
	for i := 0; i < numFormants; i++ {
		track.MeanFrequencies[i], track.MeanBandwidths[i] = meanRow(freqs[i], bws[i], i)
	}
	return track, nil
}

func defaultTrack(t int) *voice.FormantTrack {
	track := &voice.FormantTrack{
		Frequencies:     make([][]float64, numFormants),
		Bandwidths:      make([][]float64, numFormants),
		MeanFrequencies: make([]float64, numFormants),
		MeanBandwidths:  make([]float64, numFormants),
	}
	for i := 0; i < numFormants; i++ {
		track.Frequencies[i] = make([]float64, t)
		track.Bandwidths[i] = make([]float64, t)
		track.MeanFrequencies[i], track.MeanBandwidths[i] = voice.FallbackFormant(i)
	}
	return track
}

// meanRow returns the median of nonzero frequencies/bandwidths in a row,
// falling back to the defaults in voice.FallbackFormant when empty.
func meanRow(freqs, bws []float64, idx int) (float64, float64) {
	var fVals, bVals []float64
	for i := range freqs {
		if freqs[i] > 0 {
			fVals = append(fVals, freqs[i])
			bVals = append(bVals, bws[i])
		}
	}
	if len(fVals) == 0 {
		return voice.FallbackFormant(idx)
	}
	return dspkit.Median(fVals), dspkit.Median(bVals)
}

// resampleAndFilter resamples x from SampleRate to analysisSR, applying a
// 4th-order (two cascaded biquad sections) lowpass at half the target
// Nyquist beforehand.
func (e *Estimator) resampleAndFilter(x []float64) ([]float64, error) {
	cutoff := float64(e.analysisSR) / 4.0
	stage1 := dsp.NewLowpass(cutoff, float64(e.SampleRate), 0.7071)
	stage2 := dsp.NewLowpass(cutoff, float64(e.SampleRate), 0.7071)
	filtered := make([]float64, len(x))
	for i, v := range x {
		filtered[i] = stage2.Process(stage1.Process(v))
	}

	if e.SampleRate == e.analysisSR {
		return filtered, nil
	}
	r, err := dspresample.NewForRates(float64(e.SampleRate), float64(e.analysisSR), dspresample.WithQuality(dspresample.QualityBest))
	if err != nil {
		return nil, err
	}
	return r.Process(filtered), nil
}

// analyzeFrame runs pre-emphasis, Hamming windowing, Levinson-Durbin and
// root-finding on one frame, returning up to numFormants (frequency,
// bandwidth) pairs sorted ascending by frequency.
func analyzeFrame(seg []float64, order, analysisSR int) ([]float64, []float64, bool) {
	n := len(seg)
	y := make([]float64, n)
	y[0] = seg[0]
	for i := 1; i < n; i++ {
		y[i] = seg[i] - 0.97*seg[i-1]
	}
	for i := range y {
		ham := 0.54 - 0.46*math.Cos(2*math.Pi*float64(i)/float64(n-1))
		y[i] *= ham
	}

	r := autocorrelate(y, order)
	if r[0] < voice.Epsilon {
		return nil, nil, false
	}

	a, predErr, ok := levinsonDurbin(r, order)
	if !ok || predErr <= 0 {
		return nil, nil, false
	}

	coeff := make([]complex128, order+1)
	coeff[order] = 1
	for i := 0; i < order; i++ {
		coeff[order-1-i] = complex(a[i], 0)
	}

	roots, err := rootfind.DurandKerner(coeff)
	if err != nil {
		return nil, nil, false
	}

	type fb struct{ f, bw float64 }
	var candidates []fb
	nyquist := float64(analysisSR) / 2
	for _, root := range roots {
		if imag(root) < 0 {
			continue
		}
		angle := cmplx.Phase(root)
		mag := cmplx.Abs(root)
		if mag <= 0 || mag >= 1 {
			continue
		}
		f := math.Abs(angle) * float64(analysisSR) / (2 * math.Pi)
		bw := -float64(analysisSR) / math.Pi * math.Log(mag)
		if f > 90 && f < nyquist-50 && bw > 0 && bw < voice.MaxFormantBandwidthHz {
			candidates = append(candidates, fb{f, bw})
		}
	}
	if len(candidates) == 0 {
		return nil, nil, false
	}
	for i := 0; i < len(candidates); i++ {
		for j := i + 1; j < len(candidates); j++ {
			if candidates[j].f < candidates[i].f {
				candidates[i], candidates[j] = candidates[j], candidates[i]
			}
		}
	}
	n2 := numFormants
	if n2 > len(candidates) {
		n2 = len(candidates)
	}
	freqs := make([]float64, n2)
	bws := make([]float64, n2)
	for i := 0; i < n2; i++ {
		freqs[i] = candidates[i].f
		bws[i] = candidates[i].bw
	}
	return freqs, bws, true
}

// autocorrelate computes the biased autocorrelation r[0..order] of x.
func autocorrelate(x []float64, order int) []float64 {
	r := make([]float64, order+1)
	n := len(x)
	for lag := 0; lag <= order; lag++ {
		var sum float64
		for i := 0; i < n-lag; i++ {
			sum += x[i] * x[i+lag]
		}
		r[lag] = sum
	}
	return r
}

// levinsonDurbin solves the LPC normal equations, returning the predictor
// coefficients a[1..order] (as a[0..order-1]) and the final prediction
// error. Aborts (ok=false) if any reflection coefficient drives the
// prediction error non-positive.
func levinsonDurbin(r []float64, order int) ([]float64, float64, bool) {
	a := make([]float64, order)
	e := r[0]
	for i := 0; i < order; i++ {
		acc := r[i+1]
		for j := 0; j < i; j++ {
			acc -= a[j] * r[i-j]
		}
		if e <= 0 {
			return nil, 0, false
		}
		k := acc / e
		newA := make([]float64, i+1)
		for j := 0; j < i; j++ {
			newA[j] = a[j] - k*a[i-1-j]
		}
		newA[i] = k
		copy(a, newA)
		e *= 1 - k*k
		if e <= 0 {
			return nil, 0, false
		}
	}
	return a, e, true
}
