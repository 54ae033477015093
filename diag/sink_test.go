package diag

import (
	"errors"
	"log/slog"
	"testing"
)

func TestStageRecordsTimingOnSuccess(t *testing.T) {
	s := NewSink(slog.Default())
	err := s.Stage("load", func() error { return nil })
	if err != nil {
		t.Fatalf("Stage: %v", err)
	}
	if len(s.Timings()) != 1 || s.Timings()[0].Stage != "load" {
		t.Errorf("Timings() = %+v, want one entry for stage 'load'", s.Timings())
	}
}

func TestStagePropagatesError(t *testing.T) {
	s := NewSink(slog.Default())
	want := errors.New("boom")
	err := s.Stage("analyze", func() error { return want })
	if !errors.Is(err, want) {
		t.Errorf("Stage returned %v, want %v", err, want)
	}
	if len(s.Timings()) != 1 {
		t.Errorf("expected a timing recorded even on failure, got %+v", s.Timings())
	}
}

func TestWarnRecordsMessage(t *testing.T) {
	s := NewSink(slog.Default())
	s.Warn("low %s ratio: %.2f", "voiced", 0.15)
	if len(s.Warnings()) != 1 {
		t.Fatalf("Warnings() = %+v, want one entry", s.Warnings())
	}
	if s.Warnings()[0] != "low voiced ratio: 0.15" {
		t.Errorf("Warnings()[0] = %q, want %q", s.Warnings()[0], "low voiced ratio: 0.15")
	}
}
