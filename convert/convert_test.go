package convert

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/cwbudde/algo-voice/audioio"
	"github.com/cwbudde/algo-voice/voice"
)

func sine(freq, sr float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Sin(2 * math.Pi * freq * float64(i) / sr)
	}
	return out
}

func TestConvertPitchShiftProducesOutput(t *testing.T) {
	dir := t.TempDir()
	const sr = 44100
	srcPath := filepath.Join(dir, "in.wav")
	x := sine(440, sr, sr/2)
	if err := audioio.Save(srcPath, x, sr, audioio.BitDepthPCM16); err != nil {
		t.Fatalf("Save source: %v", err)
	}

	outPath := filepath.Join(dir, "out.wav")
	report, err := Convert(Config{
		SourcePath:     srcPath,
		OutputPath:     outPath,
		PitchSemitones: 2.0,
		FormantFactor:  1.0,
		Quality:        voice.QualityTurbo,
		BitDepth:       audioio.BitDepthPCM16,
	})
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if report.SampleRate != sr {
		t.Errorf("SampleRate = %d, want %d", report.SampleRate, sr)
	}
	out, _, err := audioio.Load(outPath)
	if err != nil {
		t.Fatalf("Load output: %v", err)
	}
	if len(out) == 0 {
		t.Fatal("expected non-empty output")
	}
	if len(report.Timings) == 0 {
		t.Error("expected recorded stage timings")
	}
}

func TestAutoOutputPathWithoutTarget(t *testing.T) {
	got := AutoOutputPath("/tmp/in.wav", "", 2.0, 1.0)
	want := "/tmp/in_shifted_p2.0_f1.0.wav"
	if got != want {
		t.Errorf("AutoOutputPath = %q, want %q", got, want)
	}
}

func TestAutoOutputPathWithTarget(t *testing.T) {
	got := AutoOutputPath("/tmp/src.wav", "/tmp/tgt.wav", 0, 0)
	want := "/tmp/src_to_tgt.wav"
	if got != want {
		t.Errorf("AutoOutputPath = %q, want %q", got, want)
	}
}

func TestConvertRejectsInsufficientQualitySource(t *testing.T) {
	dir := t.TempDir()
	const sr = 44100
	srcPath := filepath.Join(dir, "silence.wav")
	x := make([]float64, sr/10)
	if err := audioio.Save(srcPath, x, sr, audioio.BitDepthPCM16); err != nil {
		t.Fatalf("Save source: %v", err)
	}

	_, err := Convert(Config{
		SourcePath: srcPath,
		OutputPath: filepath.Join(dir, "out.wav"),
		Quality:    voice.QualityTurbo,
		BitDepth:   audioio.BitDepthPCM16,
	})
	if err == nil {
		t.Error("expected an error for a silent, non-viable source")
	}
}
