// Package convert stages the batch voice-conversion pipeline: load, analyze,
// optionally match against a target, pitch/formant shift, compute quality
// metrics, and write the output, with per-stage timing and diagnostics.
package convert

import (
	"math"
	"math/rand"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cwbudde/algo-voice/audioio"
	"github.com/cwbudde/algo-voice/diag"
	"github.com/cwbudde/algo-voice/phase"
	"github.com/cwbudde/algo-voice/profile"
	"github.com/cwbudde/algo-voice/quality"
	"github.com/cwbudde/algo-voice/spectral"
	"github.com/cwbudde/algo-voice/stft"
	"github.com/cwbudde/algo-voice/voice"
	"github.com/cwbudde/algo-voice/voiceerr"
)

// pitchShiftThreshold is the smallest pitch shift, in semitones, that is
// applied; smaller shifts skip resampling. The same tolerance bounds how far
// the formant factor may sit from 1.0 before warp and resynthesis run.
const pitchShiftThreshold = 0.01

// Config holds everything a single batch conversion needs.
type Config struct {
	SourcePath string
	TargetPath string // optional; if set, pitch/formant are derived by matching
	OutputPath string

	PitchSemitones float64
	FormantFactor  float64

	Quality  voice.Quality
	Settings voice.QualitySettings // overrides Quality when NFFT != 0
	BitDepth audioio.BitDepth

	Sink *diag.Sink
	Seed int64 // 0 selects a fixed default seed for determinism
}

func (c Config) settings() voice.QualitySettings {
	if c.Settings.NFFT != 0 {
		return c.Settings
	}
	return voice.PresetSettings(c.Quality)
}

// ConversionReport summarizes a completed conversion.
type ConversionReport struct {
	SourcePath string
	TargetPath string
	OutputPath string
	SampleRate int

	PitchSemitones float64
	FormantFactor  float64

	SNRDb             float64
	CentroidDeviation float64

	Timings []diag.StageTiming
}

// Convert runs the full Load -> Analyze -> Match -> Shift -> Metrics ->
// Output pipeline described by the pipeline orchestrator design. Errors at
// any stage are recorded in cfg.Sink; the diagnostics are always finalized
// (via the caller reading sink.Timings()/Warnings() after return), even on
// error.
func Convert(cfg Config) (report *ConversionReport, err error) {
	sink := cfg.Sink
	if sink == nil {
		sink = diag.NewSink(nil)
	}

	settings := cfg.settings()
	pitchSemitones := cfg.PitchSemitones
	formantFactor := cfg.FormantFactor
	if formantFactor == 0 {
		formantFactor = 1.0
	}

	var samples []float64
	var sampleRate int

	stageErr := sink.Stage("load", func() error {
		var loadErr error
		samples, sampleRate, loadErr = audioio.Load(cfg.SourcePath)
		if loadErr != nil {
			return loadErr
		}
		samples = audioio.PeakNormalize(samples, 0.95)
		return nil
	})
	if stageErr != nil {
		return nil, stageErr
	}

	var sourceProfile *voice.VoiceProfile
	stageErr = sink.Stage("analyze_source", func() error {
		builder := profile.NewBuilder(sampleRate, settings)
		built, buildErr := builder.Build(samples)
		if buildErr != nil {
			return voiceerr.Wrap(voiceerr.KindAnalysisFailure, buildErr, "analyzing source %q", cfg.SourcePath)
		}
		report := quality.Score(built)
		if !report.IsViable {
			return voiceerr.QualityInsufficient(report.Overall, report.CriticalIssues)
		}
		sourceProfile = built
		return nil
	})
	if stageErr != nil {
		return nil, stageErr
	}

	targetTilt := sourceProfile.Spectral.SpectralTilt // no-op default absent a target
	if cfg.TargetPath != "" {
		stageErr = sink.Stage("match", func() error {
			targetSamples, loadErr := audioio.LoadAtRate(cfg.TargetPath, sampleRate)
			if loadErr != nil {
				return voiceerr.Wrap(voiceerr.KindAudioLoadFailure, loadErr, "loading target %q", cfg.TargetPath)
			}
			builder := profile.NewBuilder(sampleRate, settings)
			targetProfile, buildErr := builder.Build(targetSamples)
			if buildErr != nil {
				return voiceerr.Wrap(voiceerr.KindAnalysisFailure, buildErr, "analyzing target %q", cfg.TargetPath)
			}
			targetReport := quality.Score(targetProfile)
			if !targetReport.IsViable {
				return voiceerr.QualityInsufficient(targetReport.Overall, targetReport.CriticalIssues)
			}
			st, ff := profile.Match(sourceProfile, targetProfile)
			pitchSemitones, formantFactor = st, ff
			targetTilt = targetProfile.Spectral.SpectralTilt
			return nil
		})
		if stageErr != nil {
			return nil, voiceerr.Wrap(voiceerr.KindMatchingFailure, stageErr, "matching against target")
		}
	}

	var output []float64
	stageErr = sink.Stage("shift", func() error {
		shifted := samples
		if math.Abs(pitchSemitones) > pitchShiftThreshold {
			alpha := spectral.PitchShiftFactor(pitchSemitones)
			shifted = spectral.PitchShiftTimeDomain(samples, alpha)
		}

		if math.Abs(formantFactor-1.0) <= pitchShiftThreshold {
			output = shifted
			return nil
		}

		nfft := settings.NFFT
		hop := settings.Hop()
		engine, err := stft.NewEngine(nfft, hop)
		if err != nil {
			return err
		}
		spec, err := engine.Forward(shifted)
		if err != nil {
			return err
		}
		mag := stft.Magnitude(spec)
		warped, err := spectral.FormantWarp(mag, formantFactor)
		if err != nil {
			return err
		}
		if settings.FormantCorrection {
			warped = spectral.TiltMatch(warped, sourceProfile.Spectral.SpectralTilt, targetTilt, nfft, sampleRate)
		}

		if settings.AdvancedPhase {
			rng := rand.New(rand.NewSource(seedOrDefault(cfg.Seed)))
			recon := phase.NewReconstructor(engine, rng)
			resynth, err := recon.Reconstruct(warped, settings.GriffinLimIters, len(shifted))
			if err != nil {
				return err
			}
			output = resynth
			return nil
		}

		phaseMat := stft.Phase(spec)
		resynth, err := engine.InverseFromMagPhase(warped, phaseMat, len(shifted))
		if err != nil {
			return err
		}
		output = resynth
		return nil
	})
	if stageErr != nil {
		return nil, voiceerr.Wrap(voiceerr.KindConversionFailure, stageErr, "shifting %q", cfg.SourcePath)
	}

	var snr, centroidDev float64
	stageErr = sink.Stage("metrics", func() error {
		snr = signalToNoiseRatio(samples, output)
		var metricsErr error
		centroidDev, metricsErr = centroidDeviation(samples, output, settings.NFFT, sampleRate)
		return metricsErr
	})
	if stageErr != nil {
		sink.Warn("metrics stage failed: %v", stageErr)
	}

	stageErr = sink.Stage("output", func() error {
		output = audioio.PeakNormalize(output, 0.95)
		return audioio.Save(cfg.OutputPath, output, sampleRate, cfg.BitDepth)
	})
	if stageErr != nil {
		return nil, voiceerr.Wrap(voiceerr.KindAudioSaveFailure, stageErr, "writing %q", cfg.OutputPath)
	}

	return &ConversionReport{
		SourcePath:        cfg.SourcePath,
		TargetPath:        cfg.TargetPath,
		OutputPath:        cfg.OutputPath,
		SampleRate:        sampleRate,
		PitchSemitones:    pitchSemitones,
		FormantFactor:     formantFactor,
		SNRDb:             snr,
		CentroidDeviation: centroidDev,
		Timings:           sink.Timings(),
	}, nil
}

func seedOrDefault(seed int64) int64 {
	if seed == 0 {
		return 1
	}
	return seed
}

// Result is delivered on the channel returned by ConvertAsync.
type Result struct {
	Report *ConversionReport
	Err    error
}

// ConvertAsync runs Convert on a dedicated worker goroutine and delivers the
// outcome on the returned channel. Cancellation is not supported: once
// started, a conversion runs to completion, and the caller can only stop
// waiting on the channel.
func ConvertAsync(cfg Config) <-chan Result {
	out := make(chan Result, 1)
	go func() {
		report, err := Convert(cfg)
		out <- Result{Report: report, Err: err}
	}()
	return out
}

// AutoOutputPath derives the default output path per SPEC_FULL.md section 6:
// "{stem}_to_{target_stem}{ext}" when a target is set, else
// "{stem}_shifted_p{pitch}_f{formant}{ext}".
func AutoOutputPath(inputPath, targetPath string, pitchSemitones, formantFactor float64) string {
	ext := filepath.Ext(inputPath)
	stem := strings.TrimSuffix(filepath.Base(inputPath), ext)
	dir := filepath.Dir(inputPath)
	var name string
	if targetPath != "" {
		targetExt := filepath.Ext(targetPath)
		targetStem := strings.TrimSuffix(filepath.Base(targetPath), targetExt)
		name = stem + "_to_" + targetStem + ext
	} else {
		name = stem + "_shifted_p" + formatFactor(pitchSemitones) + "_f" + formatFactor(formantFactor) + ext
	}
	return filepath.Join(dir, name)
}

func formatFactor(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}
