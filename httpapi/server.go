// Package httpapi exposes the voice conversion pipeline over stdlib
// net/http: a health check, profile CRUD/listing backed by store.Store, and
// a multipart conversion endpoint that streams a WAV response, all routed
// through Go 1.22's pattern-matching ServeMux.
package httpapi

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/cwbudde/algo-voice/audioio"
	"github.com/cwbudde/algo-voice/convert"
	"github.com/cwbudde/algo-voice/diag"
	"github.com/cwbudde/algo-voice/profile"
	"github.com/cwbudde/algo-voice/quality"
	"github.com/cwbudde/algo-voice/store"
	"github.com/cwbudde/algo-voice/voice"
	"github.com/cwbudde/algo-voice/voiceerr"
)

// Server wires a store and a logger into the HTTP surface described in
// SPEC_FULL.md section 6.
type Server struct {
	store  *store.Store
	logger *slog.Logger
	tmpDir string
}

// NewServer builds a Server backed by the given profile store. If logger is
// nil, slog.Default() is used. tmpDir holds scratch files for uploaded
// audio; if empty, os.TempDir() is used.
func NewServer(st *store.Store, logger *slog.Logger, tmpDir string) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if tmpDir == "" {
		tmpDir = os.TempDir()
	}
	return &Server{store: st, logger: logger, tmpDir: tmpDir}
}

// Routes builds the ServeMux described in SPEC_FULL.md section 6.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /profiles", s.handleListProfiles)
	mux.HandleFunc("GET /profiles/{name}", s.handleGetProfile)
	mux.HandleFunc("POST /profiles/{name}/analyze", s.handleAnalyzeProfile)
	mux.HandleFunc("DELETE /profiles/{name}", s.handleDeleteProfile)
	mux.HandleFunc("POST /convert", s.handleConvert)
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListProfiles(w http.ResponseWriter, r *http.Request) {
	summaries, err := s.store.List()
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	prof, err := s.store.Load(name)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if prof == nil {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "profile not found", Kind: "not_found"})
		return
	}
	writeJSON(w, http.StatusOK, toProfileDTO(prof))
}

func (s *Server) handleDeleteProfile(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	existed, err := s.store.Delete(name)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if !existed {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "profile not found", Kind: "not_found"})
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

// handleAnalyzeProfile accepts a multipart audio upload plus an optional
// "quality" form field, builds a VoiceProfile, scores it, and persists it
// under the path's {name}.
func (s *Server) handleAnalyzeProfile(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	audioPath, cleanup, err := s.saveUpload(r, "audio")
	if err != nil {
		s.writeError(w, err)
		return
	}
	defer cleanup()

	q, err := parseQualityForm(r, voice.QualityBalanced)
	if err != nil {
		s.writeError(w, err)
		return
	}

	samples, sampleRate, err := audioio.Load(audioPath)
	if err != nil {
		s.writeError(w, err)
		return
	}

	settings := voice.PresetSettings(q)
	prof, err := profile.NewBuilder(sampleRate, settings).Build(samples)
	if err != nil {
		s.writeError(w, err)
		return
	}
	report := quality.Score(prof)
	if !report.IsViable {
		s.writeError(w, voiceerr.QualityInsufficient(report.Overall, report.CriticalIssues))
		return
	}
	if err := s.store.Save(name, prof); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, analyzeResponse{Name: name, Quality: report})
}

// handleConvert accepts a multipart audio upload plus pitch/formant/quality/
// bit_depth form fields, runs the batch pipeline, and streams the resulting
// WAV file back.
func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	audioPath, cleanup, err := s.saveUpload(r, "audio")
	if err != nil {
		s.writeError(w, err)
		return
	}
	defer cleanup()

	q, err := parseQualityForm(r, voice.QualityBalanced)
	if err != nil {
		s.writeError(w, err)
		return
	}
	depth, err := parseBitDepthForm(r, audioio.BitDepthPCM16)
	if err != nil {
		s.writeError(w, err)
		return
	}
	pitch := parseFloatForm(r, "pitch", 0.0)
	formant := parseFloatForm(r, "formant", 1.0)

	outPath := filepath.Join(s.tmpDir, "converted-"+filepath.Base(audioPath))
	sink := diag.NewSink(s.logger)
	cfg := convert.Config{
		SourcePath:     audioPath,
		OutputPath:     outPath,
		PitchSemitones: pitch,
		FormantFactor:  formant,
		Quality:        q,
		BitDepth:       depth,
		Sink:           sink,
	}
	report, err := convert.Convert(cfg)
	if err != nil {
		s.writeError(w, err)
		return
	}
	defer os.Remove(outPath)

	w.Header().Set("Content-Type", "audio/wav")
	w.Header().Set("X-Conversion-SNR-Db", formatFloat(report.SNRDb))
	http.ServeFile(w, r, outPath)
}

func (s *Server) saveUpload(r *http.Request, field string) (path string, cleanup func(), err error) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		return "", func() {}, voiceerr.Wrap(voiceerr.KindValidationFailure, err, "parsing multipart form")
	}
	file, header, err := r.FormFile(field)
	if err != nil {
		return "", func() {}, voiceerr.Wrap(voiceerr.KindValidationFailure, err, "reading %q form file", field)
	}
	defer file.Close()

	dst, err := os.CreateTemp(s.tmpDir, "upload-*-"+filepath.Base(header.Filename))
	if err != nil {
		return "", func() {}, voiceerr.Wrap(voiceerr.KindAudioLoadFailure, err, "staging upload")
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		os.Remove(dst.Name())
		return "", func() {}, voiceerr.Wrap(voiceerr.KindAudioLoadFailure, err, "writing upload")
	}
	return dst.Name(), func() { os.Remove(dst.Name()) }, nil
}

// writeError maps a voiceerr.Error's Kind to the status codes in
// SPEC_FULL.md section 7; any other error maps to 500.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var ve *voiceerr.Error
	status := http.StatusInternalServerError
	if errors.As(err, &ve) {
		switch ve.Kind {
		case voiceerr.KindProfileQualityInsufficient:
			status = http.StatusUnprocessableEntity
		case voiceerr.KindAudioLoadFailure, voiceerr.KindUnsupportedFormat, voiceerr.KindValidationFailure:
			status = http.StatusBadRequest
		}
	}
	s.logger.Error("request failed", "error", err, "status", status)
	writeJSON(w, status, errorBody{Error: err.Error(), Kind: kindOf(ve)})
}

func kindOf(ve *voiceerr.Error) string {
	if ve == nil {
		return "unknown"
	}
	return ve.Kind.String()
}
