package spectral

import (
	"errors"
	"sync"

	algofft "github.com/cwbudde/algo-fft"
)

// fftPlan caches a matched pair of fast/safe real FFT plans for one
// transform size, mirroring stft.fftPlan's dual-plan fallback discipline.
type fftPlan struct {
	mu   sync.Mutex
	n    int
	fast *algofft.FastPlanReal64
	safe *algofft.PlanRealT[float64, complex128]
}

var planCache sync.Map

func getPlan(n int) (*fftPlan, error) {
	if cached, ok := planCache.Load(n); ok {
		return cached.(*fftPlan), nil
	}

	p := &fftPlan{n: n}
	fast, err := algofft.NewFastPlanReal64(n)
	if err != nil {
		if !errors.Is(err, algofft.ErrNotImplemented) {
			return nil, err
		}
	} else {
		p.fast = fast
	}

	safe, err := algofft.NewPlanReal64(n)
	if err != nil {
		if p.fast == nil {
			return nil, err
		}
	} else {
		p.safe = safe
	}

	actual, _ := planCache.LoadOrStore(n, p)
	return actual.(*fftPlan), nil
}

func (p *fftPlan) forward(dst []complex128, src []float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fast != nil {
		p.fast.Forward(dst, src)
		return nil
	}
	return p.safe.Forward(dst, src)
}

func (p *fftPlan) inverse(dst []float64, src []complex128) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fast != nil {
		p.fast.Inverse(dst, src)
		return nil
	}
	return p.safe.Inverse(dst, src)
}
