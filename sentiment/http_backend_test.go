package sentiment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	apperrors "github.com/tandemlab/converse/errors"
)

func scoreFixture() Scores {
	return Scores{
		PositiveRatio: 0.6, NeutralRatio: 0.3, NegativeRatio: 0.1,
		Volatility: 2.5, Constructiveness: 7.5, Understanding: 8.0,
		Insights: []string{"calm exchange"},
	}
}

func TestScoreSendsTranscriptAndDecodesResponse(t *testing.T) {
	var gotReq ScoreRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/analyze" {
			t.Errorf("path = %s, want /analyze", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		json.NewEncoder(w).Encode(scoreFixture())
	}))
	defer srv.Close()

	backend := NewHTTPBackend(HTTPBackendConfig{URL: srv.URL})
	scores, err := backend.Score(context.Background(), ScoreRequest{
		Lines: []Line{{SpeakerLabel: "Alice", Text: "good morning"}},
	})
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if scores.Constructiveness != 7.5 || scores.Understanding != 8.0 {
		t.Errorf("scores = %+v", scores)
	}
	if len(gotReq.Lines) != 1 || gotReq.Lines[0].SpeakerLabel != "Alice" {
		t.Errorf("request lines = %+v", gotReq.Lines)
	}
}

func TestScoreRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(scoreFixture())
	}))
	defer srv.Close()

	backend := NewHTTPBackend(HTTPBackendConfig{URL: srv.URL, MaxAttempts: 3})
	scores, err := backend.Score(context.Background(), ScoreRequest{})
	if err != nil {
		t.Fatalf("Score after retries: %v", err)
	}
	if scores == nil {
		t.Fatal("nil scores")
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("backend called %d times, want 3", got)
	}
}

func TestScoreDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad payload", http.StatusBadRequest)
	}))
	defer srv.Close()

	backend := NewHTTPBackend(HTTPBackendConfig{URL: srv.URL, MaxAttempts: 3})
	_, err := backend.Score(context.Background(), ScoreRequest{})
	if err == nil {
		t.Fatal("expected error")
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("backend called %d times, want 1", got)
	}
	if apperrors.HasCode(err, apperrors.ErrCodeExternalService) {
		t.Errorf("client error surfaced as retryable external error: %v", err)
	}
}

func TestScoreFailsFastWhenBreakerOpen(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	backend := NewHTTPBackend(HTTPBackendConfig{URL: srv.URL, MaxAttempts: 1})

	// The breaker opens after five consecutive failed calls.
	for i := 0; i < 5; i++ {
		if _, err := backend.Score(context.Background(), ScoreRequest{}); err == nil {
			t.Fatalf("call %d: expected error", i)
		}
	}
	before := calls.Load()

	_, err := backend.Score(context.Background(), ScoreRequest{})
	if err == nil {
		t.Fatal("expected fail-fast error")
	}
	if !apperrors.HasCode(err, apperrors.ErrCodeExternalService) {
		t.Errorf("open-breaker error code: %v", err)
	}
	if calls.Load() != before {
		t.Error("request reached the backend while the breaker was open")
	}
}

func TestIsAvailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	backend := NewHTTPBackend(HTTPBackendConfig{URL: srv.URL})
	if !backend.IsAvailable(context.Background()) {
		t.Error("expected available")
	}

	srv.Close()
	if backend.IsAvailable(context.Background()) {
		t.Error("expected unavailable after server close")
	}
}
