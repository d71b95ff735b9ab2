package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestMiddlewareReturns429PastLimit(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	limited := Handler{
		Limiter: Limiter{Client: client, Prefix: "rl:"},
		Config: Config{
			Key:    func(*http.Request) string { return "ip" },
			Window: time.Second,
			Max:    1,
		},
	}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)

	first := httptest.NewRecorder()
	limited.ServeHTTP(first, req.Clone(req.Context()))
	if first.Code != http.StatusOK {
		t.Fatalf("first request status = %d", first.Code)
	}

	second := httptest.NewRecorder()
	limited.ServeHTTP(second, req.Clone(req.Context()))
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("second request status = %d, want 429", second.Code)
	}
	if second.Header().Get("X-RateLimit-Limit") != "1" {
		t.Fatalf("limit header = %q", second.Header().Get("X-RateLimit-Limit"))
	}
	if second.Header().Get("Retry-After") == "" {
		t.Fatal("missing Retry-After on rejection")
	}
}

func TestMiddlewareFailsOpenOnLimiterError(t *testing.T) {
	// Unreachable Redis: the limiter errors and the request proceeds.
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	t.Cleanup(func() { _ = client.Close() })

	var sawErr bool
	limited := Handler{
		Limiter: Limiter{Client: client, Prefix: "rl:"},
		Config: Config{
			Key:    func(*http.Request) string { return "ip" },
			Window: time.Second,
			Max:    1,
		},
		OnError: func(error) { sawErr = true },
	}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	limited.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/login", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want pass-through on limiter error", rec.Code)
	}
	if !sawErr {
		t.Fatal("OnError was not called")
	}
}
