package convert

import (
	"errors"
	"math"
	"sync"

	algofft "github.com/cwbudde/algo-fft"

	"github.com/cwbudde/algo-voice/dspkit"
	"github.com/cwbudde/algo-voice/voice"
)

// metricsFFTPlan mirrors the spectralFFTPlan fast/safe caching pattern used
// by the sibling comparison-metrics package: a fast real-FFT plan is
// preferred, falling back to the safe plan when unavailable for a size.
type metricsFFTPlan struct {
	mu   sync.Mutex
	fast *algofft.FastPlanReal64
	safe *algofft.PlanRealT[float64, complex128]
}

var metricsPlanCache sync.Map // map[int]*metricsFFTPlan

func getMetricsFFTPlan(n int) (*metricsFFTPlan, error) {
	if v, ok := metricsPlanCache.Load(n); ok {
		return v.(*metricsFFTPlan), nil
	}

	p := &metricsFFTPlan{}
	fast, err := algofft.NewFastPlanReal64(n)
	if err == nil {
		p.fast = fast
	} else if !errors.Is(err, algofft.ErrNotImplemented) {
		// Fall through to the safe plan below.
	}

	safe, err := algofft.NewPlanReal64(n)
	if err != nil {
		if p.fast == nil {
			return nil, err
		}
	} else {
		p.safe = safe
	}

	actual, _ := metricsPlanCache.LoadOrStore(n, p)
	return actual.(*metricsFFTPlan), nil
}

func (p *metricsFFTPlan) forward(dst []complex128, src []float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.fast != nil {
		p.fast.Forward(dst, src)
		return nil
	}
	if p.safe != nil {
		return p.safe.Forward(dst, src)
	}
	return errors.New("convert: missing FFT plan")
}

// signalToNoiseRatio computes 10*log10(<x^2> / <(x-y)^2>) over the samples
// common to both signals, ceiled at 60 dB.
func signalToNoiseRatio(x, y []float64) float64 {
	n := len(x)
	if len(y) < n {
		n = len(y)
	}
	if n == 0 {
		return 0
	}
	var sigEnergy, noiseEnergy float64
	for i := 0; i < n; i++ {
		sigEnergy += x[i] * x[i]
		d := x[i] - y[i]
		noiseEnergy += d * d
	}
	if noiseEnergy < voice.Epsilon {
		return 60.0
	}
	snr := 10 * math.Log10(sigEnergy/noiseEnergy)
	if snr > 60 {
		return 60
	}
	return snr
}

// spectralCentroid computes the magnitude-weighted mean frequency of the
// first nfft samples of x, using the cached FFT plan above.
func spectralCentroid(x []float64, nfft, sampleRate int) (float64, error) {
	n := nfft
	if len(x) < n {
		n = dspkit.NextPow2(len(x))
		if n == 0 {
			return 0, nil
		}
	}
	frame := make([]float64, n)
	copy(frame, x[:min(n, len(x))])

	plan, err := getMetricsFFTPlan(n)
	if err != nil {
		return 0, err
	}
	bins := n/2 + 1
	spec := make([]complex128, bins)
	if err := plan.forward(spec, frame); err != nil {
		return 0, err
	}

	var weighted, total float64
	for k := 0; k < bins; k++ {
		mag := math.Hypot(real(spec[k]), imag(spec[k]))
		freq := float64(k) * float64(sampleRate) / float64(n)
		weighted += freq * mag
		total += mag
	}
	if total < voice.Epsilon {
		return 0, nil
	}
	return weighted / total, nil
}

// centroidDeviation returns |C(y)-C(x)|/C(x), 0 when C(x) is negligible.
func centroidDeviation(x, y []float64, nfft, sampleRate int) (float64, error) {
	cx, err := spectralCentroid(x, nfft, sampleRate)
	if err != nil {
		return 0, err
	}
	cy, err := spectralCentroid(y, nfft, sampleRate)
	if err != nil {
		return 0, err
	}
	if cx < voice.Epsilon {
		return 0, nil
	}
	return math.Abs(cy-cx) / cx, nil
}
