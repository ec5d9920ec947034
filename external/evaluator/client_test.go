package evaluator

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/lael-77/NDL-sub001/internal/platform/resilience"
	"github.com/lael-77/NDL-sub001/internal/usecase"
)

func TestRequestEvaluation_ReturnsRunID(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if r.URL.Path != "/v1/evaluations" {
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(`{"runId":"run-42"}`))
	}))
	defer srv.Close()

	client := NewClient(ClientConfig{BaseURL: srv.URL, Token: "eval-secret"})
	runID, err := client.RequestEvaluation(context.Background(), EvaluationRequest{
		MatchID:     "match-opening-round-01",
		TeamID:      "team-north-hawks",
		CallbackURL: "https://league.example.com/v1/internal/matches/match-opening-round-01/teams/team-north-hawks/evaluation",
	})
	if err != nil {
		t.Fatalf("RequestEvaluation: %v", err)
	}
	if runID != "run-42" {
		t.Fatalf("expected run-42, got %q", runID)
	}
	if gotAuth != "Bearer eval-secret" {
		t.Fatalf("expected bearer token forwarded, got %q", gotAuth)
	}
}

func TestRequestEvaluation_RetriesTransientStatus(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"runId":"run-7"}`))
	}))
	defer srv.Close()

	client := NewClient(ClientConfig{BaseURL: srv.URL, MaxRetries: 2})
	runID, err := client.RequestEvaluation(context.Background(), EvaluationRequest{MatchID: "m", TeamID: "t"})
	if err != nil {
		t.Fatalf("RequestEvaluation: %v", err)
	}
	if runID != "run-7" {
		t.Fatalf("expected run-7, got %q", runID)
	}
	if got := calls.Load(); got != 2 {
		t.Fatalf("expected 2 attempts, got %d", got)
	}
}

func TestRequestEvaluation_DoesNotRetryClientError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	client := NewClient(ClientConfig{BaseURL: srv.URL, MaxRetries: 3})
	if _, err := client.RequestEvaluation(context.Background(), EvaluationRequest{MatchID: "m", TeamID: "t"}); err == nil {
		t.Fatalf("expected error on 400")
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("expected a single attempt, got %d", got)
	}
}

func TestRequestEvaluation_OpenCircuitShortCircuits(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(ClientConfig{
		BaseURL: srv.URL,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          true,
			FailureThreshold: 1,
			OpenTimeout:      resilience.DefaultCircuitBreakerConfig().OpenTimeout,
			HalfOpenMaxReq:   1,
		},
	})

	if _, err := client.RequestEvaluation(context.Background(), EvaluationRequest{MatchID: "m", TeamID: "t"}); err == nil {
		t.Fatalf("expected first request to fail")
	}

	_, err := client.RequestEvaluation(context.Background(), EvaluationRequest{MatchID: "m", TeamID: "t"})
	if !errors.Is(err, usecase.ErrDependencyUnavailable) {
		t.Fatalf("expected ErrDependencyUnavailable while circuit open, got %v", err)
	}
}
