package store

import (
	"testing"

	"github.com/cwbudde/algo-voice/voice"
)

func sampleProfile(sr int, f0Mean float64) *voice.VoiceProfile {
	return &voice.VoiceProfile{
		Pitch:    &voice.PitchContour{F0: []float64{100, 101}, VoicedMask: []bool{true, true}, F0Mean: f0Mean},
		Formants: &voice.FormantTrack{MeanFrequencies: []float64{500, 1500, 2500}},
		Spectral: &voice.SpectralFeatures{Envelope: [][]float64{{1, 2}, {3, 4}}, SpectralTilt: -0.5},
		HarmonicRatios: []float64{0.5, 0.6},
		HarmonicEnergy: []float64{1.0, 1.1},
		SampleRate:     sr,
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	p := sampleProfile(44100, 180)
	if err := s.Save("alice", p); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := s.Load("alice")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got == nil {
		t.Fatal("Load returned nil for a saved profile")
	}
	if got.SampleRate != p.SampleRate || got.Pitch.F0Mean != p.Pitch.F0Mean {
		t.Errorf("round trip mismatch: got %+v, want sr=%d f0Mean=%v", got, p.SampleRate, p.Pitch.F0Mean)
	}
	if len(got.Spectral.Envelope) != 2 || len(got.Spectral.Envelope[0]) != 2 {
		t.Errorf("envelope shape not preserved: %v", got.Spectral.Envelope)
	}
}

func TestLoadMissingReturnsNilNil(t *testing.T) {
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	got, err := s.Load("nobody")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != nil {
		t.Errorf("Load = %+v, want nil for a missing record", got)
	}
}

func TestDeleteReportsExistence(t *testing.T) {
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.Save("bob", sampleProfile(16000, 120)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	existed, err := s.Delete("bob")
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if !existed {
		t.Error("Delete reported false for an existing record")
	}
	existed, err = s.Delete("bob")
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if existed {
		t.Error("Delete reported true for an already-deleted record")
	}
}

func TestListOrdersNewestFirst(t *testing.T) {
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.Save("first", sampleProfile(44100, 150)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.Save("second", sampleProfile(44100, 200)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	summaries, err := s.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("List returned %d entries, want 2", len(summaries))
	}
	if summaries[0].Name != "second" {
		t.Errorf("List()[0].Name = %q, want %q (newest first)", summaries[0].Name, "second")
	}
}

func TestExists(t *testing.T) {
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if s.Exists("ghost") {
		t.Error("Exists true before Save")
	}
	if err := s.Save("ghost", sampleProfile(44100, 150)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !s.Exists("ghost") {
		t.Error("Exists false after Save")
	}
}
