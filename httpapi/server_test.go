package httpapi

import (
	"bytes"
	"encoding/json"
	"math"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/cwbudde/algo-voice/audioio"
	"github.com/cwbudde/algo-voice/store"
)

func sine(freq, sr float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Sin(2 * math.Pi * freq * float64(i) / sr)
	}
	return out
}

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	st, err := store.Open(t.TempDir())
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	s := NewServer(st, nil, t.TempDir())
	ts := httptest.NewServer(s.Routes())
	t.Cleanup(ts.Close)
	return s, ts
}

func multipartAudio(t *testing.T, field string, samples []float64, sr int) (*bytes.Buffer, string) {
	t.Helper()
	wavPath := t.TempDir() + "/upload.wav"
	if err := audioio.Save(wavPath, samples, sr, audioio.BitDepthPCM16); err != nil {
		t.Fatalf("audioio.Save: %v", err)
	}
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile(field, "upload.wav")
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	data, err := os.ReadFile(wavPath)
	if err != nil {
		t.Fatalf("read wav: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, w.FormDataContentType()
}

func TestHealth(t *testing.T) {
	_, ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestGetMissingProfileReturns404(t *testing.T) {
	_, ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/profiles/nobody")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestAnalyzeAndFetchProfile(t *testing.T) {
	_, ts := newTestServer(t)
	body, contentType := multipartAudio(t, "audio", sine(220, 44100, 44100), 44100)

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/profiles/alice/analyze", body)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	req.Header.Set("Content-Type", contentType)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("POST analyze: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	getResp, err := http.Get(ts.URL + "/profiles/alice")
	if err != nil {
		t.Fatalf("GET profile: %v", err)
	}
	defer getResp.Body.Close()
	if getResp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", getResp.StatusCode)
	}
	var decoded map[string]any
	if err := json.NewDecoder(getResp.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode profile: %v", err)
	}
}

func TestConvertReturnsWav(t *testing.T) {
	_, ts := newTestServer(t)
	body, contentType := multipartAudio(t, "audio", sine(440, 44100, 22050), 44100)

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/convert?pitch=2.0", body)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	req.Header.Set("Content-Type", contentType)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("POST convert: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "audio/wav" {
		t.Errorf("content-type = %q, want audio/wav", ct)
	}
}

func TestDeleteProfileReportsNotFound(t *testing.T) {
	_, ts := newTestServer(t)
	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/profiles/ghost", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}
