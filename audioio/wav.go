// Package audioio loads and saves WAV audio for the voice conversion
// pipeline: mono downmix on decode, sample-rate coercion, and 16-bit PCM or
// 32-bit float encoding on output.
package audioio

import (
	"os"

	dspresample "github.com/cwbudde/algo-dsp/dsp/resample"
	"github.com/cwbudde/wav"
	"github.com/go-audio/audio"

	"github.com/cwbudde/algo-voice/voiceerr"
)

// BitDepth selects the sample encoding used when writing a WAV file.
type BitDepth int

const (
	BitDepthPCM16 BitDepth = 16
	BitDepthFloat32 BitDepth = 32
)

// Info summarizes a WAV file's metadata. ReadInfo decodes the PCM data to
// count frames but does not keep the samples.
type Info struct {
	SampleRate  int
	NumChannels int
	BitDepth    int
	NumFrames   int
	Duration    float64 // seconds
}

// Load decodes a WAV file to mono float64 samples in [-1, 1] at the file's
// native sample rate.
func Load(path string) ([]float64, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, voiceerr.Wrap(voiceerr.KindAudioLoadFailure, err, "opening %q", path)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, 0, voiceerr.New(voiceerr.KindUnsupportedFormat, "%q is not a valid WAV file", path)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, voiceerr.Wrap(voiceerr.KindAudioLoadFailure, err, "decoding %q", path)
	}
	if buf == nil || buf.Format == nil || buf.Format.NumChannels < 1 {
		return nil, 0, voiceerr.New(voiceerr.KindAudioLoadFailure, "%q decoded to an empty or invalid buffer", path)
	}

	floatBuf := buf.AsFloatBuffer()
	ch := floatBuf.Format.NumChannels
	frames := len(floatBuf.Data) / ch
	mono := make([]float64, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for c := 0; c < ch; c++ {
			sum += floatBuf.Data[i*ch+c]
		}
		mono[i] = sum / float64(ch)
	}
	return mono, buf.Format.SampleRate, nil
}

// LoadAtRate decodes a WAV file and resamples it to targetRate if it
// differs from the file's native sample rate.
func LoadAtRate(path string, targetRate int) ([]float64, error) {
	samples, sr, err := Load(path)
	if err != nil {
		return nil, err
	}
	if sr == targetRate {
		return samples, nil
	}
	r, err := dspresample.NewForRates(float64(sr), float64(targetRate), dspresample.WithQuality(dspresample.QualityBest))
	if err != nil {
		return nil, voiceerr.Wrap(voiceerr.KindAudioLoadFailure, err, "resampling %q from %dHz to %dHz", path, sr, targetRate)
	}
	return r.Process(samples), nil
}

// Save encodes mono float64 samples in [-1, 1] to a WAV file at the given
// sample rate and bit depth.
func Save(path string, samples []float64, sampleRate int, depth BitDepth) error {
	f, err := os.Create(path)
	if err != nil {
		return voiceerr.Wrap(voiceerr.KindAudioSaveFailure, err, "creating %q", path)
	}
	defer f.Close()

	format := 1 // WAVE_FORMAT_PCM
	bits := int(depth)
	if depth == BitDepthFloat32 {
		format = 3 // WAVE_FORMAT_IEEE_FLOAT
	}
	enc := wav.NewEncoder(f, sampleRate, bits, 1, format)
	defer enc.Close()

	data := make([]float32, len(samples))
	for i, v := range samples {
		data[i] = float32(v)
	}
	buf := &audio.Float32Buffer{
		Format: &audio.Format{
			SampleRate:  sampleRate,
			NumChannels: 1,
		},
		Data:           data,
		SourceBitDepth: bits,
	}
	if err := enc.Write(buf); err != nil {
		return voiceerr.Wrap(voiceerr.KindAudioSaveFailure, err, "encoding %q", path)
	}
	return nil
}

// PeakNormalize scales samples so the maximum absolute value is peak,
// preserving sign; a silent signal is returned unchanged.
func PeakNormalize(samples []float64, peak float64) []float64 {
	var maxAbs float64
	for _, v := range samples {
		if v < 0 {
			v = -v
		}
		if v > maxAbs {
			maxAbs = v
		}
	}
	if maxAbs < 1e-12 {
		return samples
	}
	scale := peak / maxAbs
	out := make([]float64, len(samples))
	for i, v := range samples {
		out[i] = v * scale
	}
	return out
}

// ReadInfo inspects a WAV file's header and PCM length without retaining
// its decoded samples.
func ReadInfo(path string) (*Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, voiceerr.Wrap(voiceerr.KindAudioLoadFailure, err, "opening %q", path)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, voiceerr.New(voiceerr.KindUnsupportedFormat, "%q is not a valid WAV file", path)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, voiceerr.Wrap(voiceerr.KindAudioLoadFailure, err, "decoding %q", path)
	}
	if buf == nil || buf.Format == nil {
		return nil, voiceerr.New(voiceerr.KindAudioLoadFailure, "%q decoded to an empty or invalid buffer", path)
	}
	ch := buf.Format.NumChannels
	if ch < 1 {
		ch = 1
	}
	frames := len(buf.Data) / ch
	info := &Info{
		SampleRate:  buf.Format.SampleRate,
		NumChannels: buf.Format.NumChannels,
		BitDepth:    buf.SourceBitDepth,
		NumFrames:   frames,
	}
	if info.SampleRate > 0 {
		info.Duration = float64(frames) / float64(info.SampleRate)
	}
	return info, nil
}
