package stft

import (
	"errors"
	"sync"

	algofft "github.com/cwbudde/algo-fft"
)

// fftPlan wraps a cached real-input FFT plan for a given transform size,
// preferring the fast platform-specific path and falling back to the safe
// generic plan when the fast path is unavailable for that size. Mirrors the
// spectralFFTPlan/lagFFTPlan caching pattern used for comparison metrics
// elsewhere in this organization's DSP code.
type fftPlan struct {
	mu   sync.Mutex
	n    int
	fast *algofft.FastPlanReal64
	safe *algofft.PlanRealT[float64, complex128]
}

var planCache sync.Map // map[int]*fftPlan

func getPlan(n int) (*fftPlan, error) {
	if v, ok := planCache.Load(n); ok {
		return v.(*fftPlan), nil
	}

	p := &fftPlan{n: n}

	fast, err := algofft.NewFastPlanReal64(n)
	if err == nil {
		p.fast = fast
	} else if !errors.Is(err, algofft.ErrNotImplemented) {
		return nil, err
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
