// Package diag provides the pipeline's diagnostic sink: per-stage timing
// and warning collection backed by structured logging, replacing any
// reach for a global logger inside the core packages.
package diag

import (
	"fmt"
	"log/slog"
	"time"
)

// StageTiming records how long one pipeline stage took.
type StageTiming struct {
	Stage    string
	Duration time.Duration
}

// Sink collects stage timings and warnings for a single conversion or
// streaming run, and forwards them to an injected *slog.Logger.
type Sink struct {
	logger   *slog.Logger
	timings  []StageTiming
	warnings []string
}

// NewSink builds a Sink backed by logger. If logger is nil, slog.Default()
// is used.
func NewSink(logger *slog.Logger) *Sink {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sink{logger: logger}
}

// Stage times fn, records its duration under name, and logs it at Debug
// level. If fn returns an error, the error is logged at Error level and
// returned unchanged.
func (s *Sink) Stage(name string, fn func() error) error {
	start := time.Now()
	err := fn()
	elapsed := time.Since(start)
	s.timings = append(s.timings, StageTiming{Stage: name, Duration: elapsed})
	if err != nil {
		s.logger.Error("stage failed", "stage", name, "duration", elapsed, "error", err)
		return err
	}
	s.logger.Debug("stage complete", "stage", name, "duration", elapsed)
	return nil
}

// Warn records a warning and logs it at Warn level.
func (s *Sink) Warn(format string, args ...any) {
	s.warnings = append(s.warnings, fmt.Sprintf(format, args...))
	s.logger.Warn(s.warnings[len(s.warnings)-1])
}

// Timings returns the recorded per-stage durations, in call order.
func (s *Sink) Timings() []StageTiming {
	return s.timings
}

// Warnings returns the recorded warning messages, in call order.
func (s *Sink) Warnings() []string {
	return s.warnings
}
