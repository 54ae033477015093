package stream

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-voice/voice"
)

func sine(freq, sr float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Sin(2 * math.Pi * freq * float64(i) / sr)
	}
	return out
}

func rms(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	var sum float64
	for _, v := range x {
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(x)))
}

func TestProcessChunkProducesNonZeroOutputAfterWarmup(t *testing.T) {
	const sr = 44100
	settings := voice.PresetSettings(voice.QualityFast)
	p, err := NewProcessor(sr, settings, 2.0, 1.0)
	if err != nil {
		t.Fatalf("NewProcessor: %v", err)
	}

	x := sine(440, sr, sr/2)
	chunkSize := 512
	var out []float64
	for i := 0; i < len(x); i += chunkSize {
		end := i + chunkSize
		if end > len(x) {
			end = len(x)
		}
		emitted, err := p.ProcessChunk(x[i:end])
		if err != nil {
			t.Fatalf("ProcessChunk: %v", err)
		}
		out = append(out, emitted...)
	}
	flushed, err := p.Flush()
	if err != nil {
		t.Fatalf("Flush: %v", err)
	}
	out = append(out, flushed...)

	if rms(out) < 1e-6 {
		t.Error("expected non-zero output from a streamed tone")
	}
}

func TestFlushZeroesInternalState(t *testing.T) {
	const sr = 44100
	settings := voice.PresetSettings(voice.QualityTurbo)
	p, err := NewProcessor(sr, settings, 0, 1.0)
	if err != nil {
		t.Fatalf("NewProcessor: %v", err)
	}
	x := sine(220, sr, sr/4)
	if _, err := p.ProcessChunk(x); err != nil {
		t.Fatalf("ProcessChunk: %v", err)
	}
	if _, err := p.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	for i, v := range p.outAccum {
		if v != 0 {
			t.Fatalf("outAccum[%d] = %v after Flush, want 0", i, v)
		}
	}
	for i, v := range p.history {
		if v != 0 {
			t.Fatalf("history[%d] = %v after Flush, want 0", i, v)
		}
	}
}

func TestProcessChunkLatencyIsOneHop(t *testing.T) {
	const sr = 44100
	settings := voice.PresetSettings(voice.QualityTurbo)
	p, err := NewProcessor(sr, settings, 0, 1.0)
	if err != nil {
		t.Fatalf("NewProcessor: %v", err)
	}
	out, err := p.ProcessChunk(make([]float64, p.Hop))
	if err != nil {
		t.Fatalf("ProcessChunk: %v", err)
	}
	if len(out) != p.Hop {
		t.Errorf("output length = %d, want %d (one hop)", len(out), p.Hop)
	}
}
