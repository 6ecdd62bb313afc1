package workerclient

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/Skryldev/battlegw/domain/model"
	"github.com/Skryldev/battlegw/pkg/timeline"
)

type fakeProber struct {
	sampleRate  int
	numChannels int
	duration    float64
	err         error
}

func (f *fakeProber) Probe(_ context.Context, _ []byte) (int, int, float64, error) {
	return f.sampleRate, f.numChannels, f.duration, f.err
}

func mustKey(t *testing.T) model.SystemKey {
	t.Helper()
	k, err := model.NewSystemKey("sys", "a")
	if err != nil {
		t.Fatal(err)
	}
	return k
}

func TestHealthCheckSucceedsOn200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(&fakeProber{})
	if err := c.HealthCheck(context.Background(), srv.URL); err != nil {
		t.Fatal(err)
	}
}

func TestHealthCheckFailsOnNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := New(&fakeProber{})
	if err := c.HealthCheck(context.Background(), srv.URL); err == nil {
		t.Fatal("expected error for non-200 health check")
	}
}

func TestGenerateReturnsDecodedAudioAndMetadata(t *testing.T) {
	audio := []byte("fake mp3 bytes")
	encoded := base64.StdEncoding.EncodeToString(audio)
	gitHash := "abc123"
	lyrics := "la la la"

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/health":
			w.WriteHeader(http.StatusOK)
		case "/generate":
			var prompt model.DetailedPrompt
			if err := json.NewDecoder(r.Body).Decode(&prompt); err != nil {
				t.Fatal(err)
			}
			if prompt.OverallPrompt != "heavy metal" {
				t.Errorf("expected prompt passed through, got %q", prompt.OverallPrompt)
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(generateResponse{
				AudioB64: encoded,
				GitHash:  &gitHash,
				Lyrics:   &lyrics,
			})
		default:
			t.Errorf("unexpected path %q", r.URL.Path)
		}
	}))
	defer srv.Close()

	c := New(&fakeProber{sampleRate: 44100, numChannels: 2, duration: 1.5})
	prompt, err := model.NewDetailedPrompt("heavy metal", true, nil, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	rec := timeline.NewLog()
	audioOut, meta, err := c.Generate(context.Background(), mustKey(t), srv.URL, prompt, 2, rec)
	if err != nil {
		t.Fatal(err)
	}
	if string(audioOut) != string(audio) {
		t.Errorf("expected decoded audio to round-trip, got %q", audioOut)
	}
	if meta.SystemGitHash == nil || *meta.SystemGitHash != gitHash {
		t.Errorf("expected git hash passed through")
	}
	if meta.SampleRate == nil || *meta.SampleRate != 44100 {
		t.Errorf("expected probed sample rate, got %v", meta.SampleRate)
	}
	if meta.GatewayNumRetries == nil || *meta.GatewayNumRetries != 0 {
		t.Errorf("expected 0 retries on first-attempt success, got %v", meta.GatewayNumRetries)
	}
	events := rec.Events()
	wantLabels := []string{
		"health_check_sys:a_start",
		"health_check_sys:a_end",
		"generate_sys:a_start",
		"generate_sys:a_end",
	}
	if len(events) != len(wantLabels) {
		t.Fatalf("expected %d timeline events, got %d: %+v", len(wantLabels), len(events), events)
	}
	for i, w := range wantLabels {
		if events[i].Label != w {
			t.Errorf("event %d: expected label %q, got %q", i, w, events[i].Label)
		}
	}
}

func TestGenerateRetriesOnFailureThenSucceeds(t *testing.T) {
	audio := []byte("bytes")
	encoded := base64.StdEncoding.EncodeToString(audio)
	var attempts int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/health":
			w.WriteHeader(http.StatusOK)
		case "/generate":
			n := atomic.AddInt32(&attempts, 1)
			if n < 3 {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(generateResponse{AudioB64: encoded})
		}
	}))
	defer srv.Close()

	c := New(&fakeProber{sampleRate: 1, numChannels: 1, duration: 0.1})
	prompt, _ := model.NewDetailedPrompt("x", true, nil, nil, nil)
	rec := timeline.NewLog()
	_, meta, err := c.Generate(context.Background(), mustKey(t), srv.URL, prompt, 5, rec)
	if err != nil {
		t.Fatal(err)
	}
	if meta.GatewayNumRetries == nil || *meta.GatewayNumRetries != 2 {
		t.Errorf("expected 2 retries before success, got %v", meta.GatewayNumRetries)
	}
}

func TestGenerateFailsAfterExhaustingRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/health":
			w.WriteHeader(http.StatusOK)
		case "/generate":
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	c := New(&fakeProber{})
	prompt, _ := model.NewDetailedPrompt("x", true, nil, nil, nil)
	rec := timeline.NewLog()
	if _, _, err := c.Generate(context.Background(), mustKey(t), srv.URL, prompt, 2, rec); err == nil {
		t.Fatal("expected error after exhausting all retries")
	}
	events := rec.Events()
	if events[len(events)-1].Label != "generate_sys:a_failed" {
		t.Errorf("expected final event to be the _failed label, got %+v", events)
	}
}

func TestGenerateFailsOnUnhealthyWorkerWithoutCallingGenerate(t *testing.T) {
	var generateCalled bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/health":
			w.WriteHeader(http.StatusServiceUnavailable)
		case "/generate":
			generateCalled = true
			w.WriteHeader(http.StatusOK)
		}
	}))
	defer srv.Close()

	c := New(&fakeProber{})
	prompt, _ := model.NewDetailedPrompt("x", true, nil, nil, nil)
	rec := timeline.NewLog()
	if _, _, err := c.Generate(context.Background(), mustKey(t), srv.URL, prompt, 2, rec); err == nil {
		t.Fatal("expected error for unhealthy worker")
	}
	if generateCalled {
		t.Error("generate should never be called when health check fails")
	}
}
