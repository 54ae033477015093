// Package store persists VoiceProfile records keyed by name in a file-backed
// single-table store: one JSON record per key inside a store directory,
// guarded by a single-writer mutex. This mirrors the original implementation's
// SQLite profiles(name, data, sample_rate, f0_mean, created_at) schema
// without introducing a SQL driver dependency.
package store

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/cwbudde/algo-voice/voice"
	"github.com/cwbudde/algo-voice/voiceerr"
)

// record is the on-disk JSON shape for one stored profile: the profile
// fields plus the indexed secondary fields used for listing.
type record struct {
	Pitch struct {
		F0         []float64 `json:"f0"`
		VoicedMask []bool    `json:"voiced_mask"`
		F0Mean     float64   `json:"f0_mean"`
		F0Std      float64   `json:"f0_std"`
		HNRDb      float64   `json:"harmonic_to_noise_ratio"`
	} `json:"pitch"`
	Formants struct {
		Frequencies     [][]float64 `json:"frequencies"`
		Bandwidths      [][]float64 `json:"bandwidths"`
		MeanFrequencies []float64   `json:"mean_frequencies"`
		MeanBandwidths  []float64   `json:"mean_bandwidths"`
	} `json:"formants"`
	Spectral struct {
		Envelope     [][]float64 `json:"envelope"`
		SpectralTilt float64     `json:"spectral_tilt"`
	} `json:"spectral"`
	HarmonicRatios []float64 `json:"harmonic_ratios"`
	HarmonicEnergy []float64 `json:"harmonic_energy"`
	SampleRate     int       `json:"sample_rate"`
	CreatedAt      time.Time `json:"created_at"`
}

// encodeF0 replaces NaN (unvoiced, per voice.PitchContour's contract) with 0
// so the record round-trips through encoding/json, which rejects NaN.
func encodeF0(f0 []float64) []float64 {
	out := make([]float64, len(f0))
	for i, v := range f0 {
		if math.IsNaN(v) {
			out[i] = 0
			continue
		}
		out[i] = v
	}
	return out
}

// decodeF0 restores NaN at frames the voiced mask marks unvoiced.
func decodeF0(f0 []float64, voicedMask []bool) []float64 {
	out := make([]float64, len(f0))
	for i, v := range f0 {
		if i < len(voicedMask) && !voicedMask[i] {
			out[i] = math.NaN()
			continue
		}
		out[i] = v
	}
	return out
}

func toRecord(p *voice.VoiceProfile, createdAt time.Time) record {
	var r record
	r.Pitch.F0 = encodeF0(p.Pitch.F0)
	r.Pitch.VoicedMask = p.Pitch.VoicedMask
	r.Pitch.F0Mean = p.Pitch.F0Mean
	r.Pitch.F0Std = p.Pitch.F0Std
	r.Pitch.HNRDb = p.Pitch.HNRDb
	r.Formants.Frequencies = p.Formants.Frequencies
	r.Formants.Bandwidths = p.Formants.Bandwidths
	r.Formants.MeanFrequencies = p.Formants.MeanFrequencies
	r.Formants.MeanBandwidths = p.Formants.MeanBandwidths
	r.Spectral.Envelope = p.Spectral.Envelope
	r.Spectral.SpectralTilt = p.Spectral.SpectralTilt
	r.HarmonicRatios = p.HarmonicRatios
	r.HarmonicEnergy = p.HarmonicEnergy
	r.SampleRate = p.SampleRate
	r.CreatedAt = createdAt
	return r
}

func (r record) toProfile() *voice.VoiceProfile {
	return &voice.VoiceProfile{
		Pitch: &voice.PitchContour{
			F0:         decodeF0(r.Pitch.F0, r.Pitch.VoicedMask),
			VoicedMask: r.Pitch.VoicedMask,
			F0Mean:     r.Pitch.F0Mean,
			F0Std:      r.Pitch.F0Std,
			HNRDb:      r.Pitch.HNRDb,
		},
		Formants: &voice.FormantTrack{
			Frequencies:     r.Formants.Frequencies,
			Bandwidths:      r.Formants.Bandwidths,
			MeanFrequencies: r.Formants.MeanFrequencies,
			MeanBandwidths:  r.Formants.MeanBandwidths,
		},
		Spectral: &voice.SpectralFeatures{
			Envelope:     r.Spectral.Envelope,
			SpectralTilt: r.Spectral.SpectralTilt,
		},
		HarmonicRatios: r.HarmonicRatios,
		HarmonicEnergy: r.HarmonicEnergy,
		SampleRate:     r.SampleRate,
	}
}

// Summary is the listing entry returned by List: name plus the secondary
// fields kept alongside each blob.
type Summary struct {
	Name       string    `json:"name"`
	SampleRate int       `json:"sample_rate"`
	F0Mean     float64   `json:"f0_mean"`
	CreatedAt  time.Time `json:"created_at"`
}

// Store is a file-backed, single-writer keyed blob store for VoiceProfile
// records. Each key maps to one JSON file under Dir.
type Store struct {
	dir string
	mu  sync.Mutex
}

// Open returns a Store rooted at dir, creating dir if it does not exist.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, voiceerr.Wrap(voiceerr.KindAudioSaveFailure, err, "creating store directory %q", dir)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) pathFor(name string) string {
	return filepath.Join(s.dir, name+".json")
}

// Save writes profile under name, replacing any existing record.
func (s *Store) Save(name string, profile *voice.VoiceProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := toRecord(profile, time.Now())
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return voiceerr.Wrap(voiceerr.KindAudioSaveFailure, err, "encoding profile %q", name)
	}
	tmp := s.pathFor(name) + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return voiceerr.Wrap(voiceerr.KindAudioSaveFailure, err, "writing profile %q", name)
	}
	if err := os.Rename(tmp, s.pathFor(name)); err != nil {
		return voiceerr.Wrap(voiceerr.KindAudioSaveFailure, err, "committing profile %q", name)
	}
	return nil
}

// Load reads the profile stored under name. It returns (nil, nil) if no
// record exists for name.
func (s *Store) Load(name string) (*voice.VoiceProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := os.ReadFile(s.pathFor(name))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, voiceerr.Wrap(voiceerr.KindAudioLoadFailure, err, "reading profile %q", name)
	}
	var r record
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, voiceerr.Wrap(voiceerr.KindAudioLoadFailure, err, "decoding profile %q", name)
	}
	return r.toProfile(), nil
}

// Delete removes the record stored under name. It reports whether a record
// existed.
func (s *Store) Delete(name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.pathFor(name))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, voiceerr.Wrap(voiceerr.KindAudioSaveFailure, err, "deleting profile %q", name)
	}
	return true, nil
}

// Exists reports whether a record is stored under name.
func (s *Store) Exists(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := os.Stat(s.pathFor(name))
	return err == nil
}

// List returns a summary of every stored profile, newest first.
func (s *Store) List() ([]Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, voiceerr.Wrap(voiceerr.KindAudioLoadFailure, err, "listing store %q", s.dir)
	}

	summaries := make([]Summary, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		b, err := os.ReadFile(filepath.Join(s.dir, e.Name()))
		if err != nil {
			continue
		}
		var r record
		if err := json.Unmarshal(b, &r); err != nil {
			continue
		}
		name := e.Name()[:len(e.Name())-len(".json")]
		summaries = append(summaries, Summary{
			Name:       name,
			SampleRate: r.SampleRate,
			F0Mean:     r.Pitch.F0Mean,
			CreatedAt:  r.CreatedAt,
		})
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].CreatedAt.After(summaries[j].CreatedAt)
	})
	return summaries, nil
}
