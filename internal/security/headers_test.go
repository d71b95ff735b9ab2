package security

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHeadersSetWhenEnabled(t *testing.T) {
	h := Headers{Enable: true}
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/menu", nil)

	h.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})).ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Fatalf("X-Content-Type-Options = %q", got)
	}
	if got := rec.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Fatalf("X-Frame-Options = %q", got)
	}
	if got := rec.Header().Get("Strict-Transport-Security"); got != "" {
		t.Fatalf("HSTS set over plain HTTP: %q", got)
	}
}

func TestHeadersDisabledPassThrough(t *testing.T) {
	h := Headers{Enable: false}
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/menu", nil)

	h.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})).ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Content-Type-Options"); got != "" {
		t.Fatalf("unexpected header when disabled: %q", got)
	}
}
