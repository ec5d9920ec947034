package authz

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lael-77/NDL-sub001/internal/domain/user"
	"github.com/lael-77/NDL-sub001/internal/platform/resilience"
	"github.com/lael-77/NDL-sub001/internal/usecase"
)

func TestVerifyAccessToken_MapsRole(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"active":true,"user_id":"admin-dewi","role":"admin"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.Client(), srv.URL, "/v1/auth/introspect", "", 0, resilience.CircuitBreakerConfig{}, nil)
	principal, err := client.VerifyAccessToken(context.Background(), "token-abc")
	if err != nil {
		t.Fatalf("VerifyAccessToken: %v", err)
	}
	if principal.UserID != "admin-dewi" {
		t.Fatalf("expected admin-dewi, got %q", principal.UserID)
	}
	if principal.Role != user.RoleAdmin {
		t.Fatalf("expected admin role, got %q", principal.Role)
	}
}

func TestVerifyAccessToken_InactiveTokenUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"active":false}`))
	}))
	defer srv.Close()

	client := NewClient(srv.Client(), srv.URL, "/v1/auth/introspect", "", 0, resilience.CircuitBreakerConfig{}, nil)
	_, err := client.VerifyAccessToken(context.Background(), "token-abc")
	if !errors.Is(err, usecase.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestVerifyAccessToken_EmptyTokenUnauthorized(t *testing.T) {
	client := NewClient(nil, "http://localhost:1", "/v1/auth/introspect", "", 0, resilience.CircuitBreakerConfig{}, nil)
	_, err := client.VerifyAccessToken(context.Background(), "   ")
	if !errors.Is(err, usecase.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestVerifyAccessToken_CachesPrincipal(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"active":true,"user_id":"judge-ayu","role":"judge"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.Client(), srv.URL, "/v1/auth/introspect", "", time.Minute, resilience.CircuitBreakerConfig{}, nil)
	for i := 0; i < 3; i++ {
		if _, err := client.VerifyAccessToken(context.Background(), "token-abc"); err != nil {
			t.Fatalf("VerifyAccessToken call %d: %v", i, err)
		}
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("expected a single introspection, got %d", got)
	}
}

func TestPrincipalCache_ExpiresEntries(t *testing.T) {
	cache := newInMemoryPrincipalCache(time.Millisecond, 10)
	cache.Set("k", user.Principal{UserID: "judge-ayu"})
	time.Sleep(5 * time.Millisecond)
	if _, ok := cache.Get("k"); ok {
		t.Fatalf("expected entry to expire")
	}
}

func TestVerifyAccessToken_OpenCircuitShortCircuits(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(srv.Client(), srv.URL, "/v1/auth/introspect", "", 0, resilience.CircuitBreakerConfig{
		Enabled:          true,
		FailureThreshold: 1,
		OpenTimeout:      time.Minute,
		HalfOpenMaxReq:   1,
	}, nil)

	if _, err := client.VerifyAccessToken(context.Background(), "token-abc"); err == nil {
		t.Fatalf("expected error from failing introspection")
	}
	_, err := client.VerifyAccessToken(context.Background(), "token-abc")
	if !errors.Is(err, usecase.ErrDependencyUnavailable) {
		t.Fatalf("expected dependency unavailable, got %v", err)
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("expected one upstream call, got %d", got)
	}
}
