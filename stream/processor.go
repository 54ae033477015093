// Package stream implements the real-time streaming variant of the voice
// conversion pipeline: a chunked, ring-buffered processor with fixed
// pitch/formant shift parameters, one-hop latency, and a correct
// window-sum overlap-add normalization computed per position rather than a
// fixed constant.
package stream

import (
	"math/cmplx"

	"github.com/cwbudde/algo-voice/spectral"
	"github.com/cwbudde/algo-voice/stft"
	"github.com/cwbudde/algo-voice/voice"
)

// Processor converts audio one chunk at a time. It keeps a sliding
// analysis window of NFFT samples and an overlap-add accumulator of the
// same length; ProcessChunk returns whatever fully-formed output hops the
// new input completes.
type Processor struct {
	NFFT int
	Hop  int

	PitchSemitones float64
	FormantFactor  float64

	engine *stft.Engine

	history  []float64 // last NFFT raw input samples (sliding)
	pending  []float64 // input accumulated since the last full hop
	outAccum []float64 // length NFFT, overlap-add numerator
	wsum     []float64 // length NFFT, overlap-add denominator (window-sum-square)
}

// NewProcessor builds a Processor at the given sample rate and quality
// settings, with fixed pitch (semitones) and formant (factor) shifts
// applied to every hop.
func NewProcessor(sampleRate int, settings voice.QualitySettings, pitchSemitones, formantFactor float64) (*Processor, error) {
	hop := settings.Hop()
	engine, err := stft.NewEngine(settings.NFFT, hop)
	if err != nil {
		return nil, err
	}
	if formantFactor == 0 {
		formantFactor = 1.0
	}
	return &Processor{
		NFFT:           settings.NFFT,
		Hop:            hop,
		PitchSemitones: pitchSemitones,
		FormantFactor:  formantFactor,
		engine:         engine,
		history:        make([]float64, settings.NFFT),
		outAccum:       make([]float64, settings.NFFT),
		wsum:           make([]float64, settings.NFFT),
	}, nil
}

// ProcessChunk feeds new input samples and returns the output samples
// corresponding to every fully-formed hop the chunk completed. Samples that
// do not yet fill a hop remain buffered internally.
func (p *Processor) ProcessChunk(x []float64) ([]float64, error) {
	p.pending = append(p.pending, x...)

	var out []float64
	for len(p.pending) >= p.Hop {
		hopSamples := p.pending[:p.Hop]
		p.pending = p.pending[p.Hop:]

		emitted, err := p.processHop(hopSamples)
		if err != nil {
			return out, err
		}
		out = append(out, emitted...)
	}
	return out, nil
}

func (p *Processor) processHop(hopSamples []float64) ([]float64, error) {
	copy(p.history, p.history[p.Hop:])
	copy(p.history[p.NFFT-p.Hop:], hopSamples)

	spec, err := p.engine.ForwardFrame(p.history)
	if err != nil {
		return nil, err
	}
	mag := stft.Magnitude([][]complex128{spec})
	phase := stft.Phase([][]complex128{spec})

	alpha := spectral.PitchShiftFactor(p.PitchSemitones)
	mag, err = spectral.FormantWarp(mag, alpha)
	if err != nil {
		return nil, err
	}
	mag, err = spectral.FormantWarp(mag, p.FormantFactor)
	if err != nil {
		return nil, err
	}

	warpedSpec := make([]complex128, len(spec))
	for k := range warpedSpec {
		warpedSpec[k] = cmplx.Rect(mag[0][k], phase[0][k])
	}

	frame, err := p.engine.InverseFrame(warpedSpec)
	if err != nil {
		return nil, err
	}

	window := p.engine.Window()
	for i := 0; i < p.NFFT; i++ {
		p.outAccum[i] += frame[i]
		p.wsum[i] += window[i] * window[i]
	}

	emitted := make([]float64, p.Hop)
	for i := 0; i < p.Hop; i++ {
		if p.wsum[i] > 1e-10 {
			emitted[i] = p.outAccum[i] / p.wsum[i]
		}
	}

	copy(p.outAccum, p.outAccum[p.Hop:])
	copy(p.wsum, p.wsum[p.Hop:])
	for i := p.NFFT - p.Hop; i < p.NFFT; i++ {
		p.outAccum[i] = 0
		p.wsum[i] = 0
	}
	return emitted, nil
}

// ChunkResult carries the output of an asynchronously processed chunk.
type ChunkResult struct {
	Samples []float64
	Err     error
}

// ProcessChunkAsync runs ProcessChunk on a goroutine and delivers the result
// on the returned channel, for callers driving the processor from a
// real-time audio callback that must not block on FFT work.
func (p *Processor) ProcessChunkAsync(x []float64) <-chan ChunkResult {
	ch := make(chan ChunkResult, 1)
	go func() {
		samples, err := p.ProcessChunk(x)
		ch <- ChunkResult{Samples: samples, Err: err}
		close(ch)
	}()
	return ch
}

// Flush pads any remaining buffered input to a full hop, processes the
// final frame, drains the rest of the overlap-add accumulator, and zeroes
// all internal state.
func (p *Processor) Flush() ([]float64, error) {
	var out []float64
	if len(p.pending) > 0 {
		padded := make([]float64, p.Hop)
		copy(padded, p.pending)
		p.pending = nil
		emitted, err := p.processHop(padded)
		if err != nil {
			return out, err
		}
		out = append(out, emitted...)
	}

	for i := 0; i < p.NFFT; i += p.Hop {
		remaining := make([]float64, p.Hop)
		for j := 0; j < p.Hop; j++ {
			if p.wsum[j] > 1e-10 {
				remaining[j] = p.outAccum[j] / p.wsum[j]
			}
		}
		out = append(out, remaining...)
		copy(p.outAccum, p.outAccum[p.Hop:])
		copy(p.wsum, p.wsum[p.Hop:])
		for j := p.NFFT - p.Hop; j < p.NFFT; j++ {
			p.outAccum[j] = 0
			p.wsum[j] = 0
		}
	}

	for i := range p.history {
		p.history[i] = 0
	}
	for i := range p.outAccum {
		p.outAccum[i] = 0
		p.wsum[i] = 0
	}
	p.pending = nil
	return out, nil
}
