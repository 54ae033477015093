package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/cwbudde/algo-voice/audioio"
	"github.com/cwbudde/algo-voice/convert"
	"github.com/cwbudde/algo-voice/diag"
	"github.com/cwbudde/algo-voice/preset"
	"github.com/cwbudde/algo-voice/voice"
	"github.com/cwbudde/algo-voice/voiceerr"
)

func main() {
	targetPath := flag.String("target", "", "Target voice WAV path; if set, pitch/formant are derived by matching")
	outputPath := flag.String("output", "", "Output WAV path; auto-derived from input/target if empty")
	pitch := flag.Float64("pitch", 0.0, "Pitch shift in semitones")
	formant := flag.Float64("formant", 1.0, "Formant shift factor")
	qualityName := flag.String("quality", "balanced", "Quality preset: turbo, fast, balanced, high, ultra, master")
	presetFile := flag.String("preset-file", "", "Optional JSON file overriding individual QualitySettings fields")
	bitDepthFlag := flag.Int("bit-depth", 16, "Output bit depth: 16 or 32")
	info := flag.Bool("info", false, "Print input file metadata and exit")
	verbose := flag.Bool("verbose", false, "Enable debug logging")
	flag.Parse()

	if flag.NArg() < 1 {
		die("usage: voico [flags] <input_file>")
	}
	inputPath := flag.Arg(0)

	if *info {
		printInfo(inputPath)
		return
	}

	quality, err := voice.ParseQuality(*qualityName)
	if err != nil {
		die("invalid --quality: %v", err)
	}

	settings := voice.PresetSettings(quality)
	if *presetFile != "" {
		settings, err = preset.LoadJSON(*presetFile, quality)
		if err != nil {
			die("invalid --preset-file: %v", err)
		}
	}

	depth, err := parseBitDepth(*bitDepthFlag)
	if err != nil {
		die("invalid --bit-depth: %v", err)
	}

	out := *outputPath
	if out == "" {
		out = convert.AutoOutputPath(inputPath, *targetPath, *pitch, *formant)
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cfg := convert.Config{
		SourcePath:     inputPath,
		TargetPath:     *targetPath,
		OutputPath:     out,
		PitchSemitones: *pitch,
		FormantFactor:  *formant,
		Quality:        quality,
		Settings:       settings,
		BitDepth:       depth,
		Sink:           diag.NewSink(logger),
	}

	report, err := convert.Convert(cfg)
	if err != nil {
		printConversionError(err)
		os.Exit(1)
	}

	fmt.Printf("Wrote %s\n", report.OutputPath)
	fmt.Printf("Sample rate:       %d Hz\n", report.SampleRate)
	fmt.Printf("Pitch shift:       %.2f st\n", report.PitchSemitones)
	fmt.Printf("Formant factor:    %.2f\n", report.FormantFactor)
	fmt.Printf("SNR:               %.2f dB\n", report.SNRDb)
	fmt.Printf("Centroid deviation: %.4f (relative)\n", report.CentroidDeviation)
}

func printInfo(path string) {
	info, err := audioio.ReadInfo(path)
	if err != nil {
		die("failed to read %q: %v", path, err)
	}
	fmt.Printf("Path:         %s\n", path)
	fmt.Printf("Sample rate:  %d Hz\n", info.SampleRate)
	fmt.Printf("Channels:     %d\n", info.NumChannels)
	fmt.Printf("Bit depth:    %d\n", info.BitDepth)
	fmt.Printf("Frames:       %d\n", info.NumFrames)
	fmt.Printf("Duration:     %.3f s\n", info.Duration)
}

func parseBitDepth(v int) (audioio.BitDepth, error) {
	switch v {
	case 16:
		return audioio.BitDepthPCM16, nil
	case 32:
		return audioio.BitDepthFloat32, nil
	default:
		return 0, fmt.Errorf("must be 16 or 32, got %d", v)
	}
}

// printConversionError prints the message, then each recovery suggestion on
// its own line, per SPEC_FULL.md section 7.
func printConversionError(err error) {
	fmt.Fprintln(os.Stderr, err)
	var ve *voiceerr.Error
	if errors.As(err, &ve) {
		for _, s := range ve.Suggestions {
			fmt.Fprintln(os.Stderr, "  - "+s)
		}
	}
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
