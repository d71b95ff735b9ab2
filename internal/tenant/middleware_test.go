package tenant

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestResolveFromHeader(t *testing.T) {
	r := NewResolver("X-Restaurant", "resto.example.com", "")
	req := httptest.NewRequest(http.MethodGet, "http://resto.example.com/menu", nil)
	req.Header.Set("X-Restaurant", "warung-nusantara")

	if got := r.Resolve(req); got != "warung-nusantara" {
		t.Fatalf("expected header slug, got %q", got)
	}
}

func TestResolveFromSubdomain(t *testing.T) {
	r := NewResolver("", "resto.example.com", "")

	cases := []struct {
		host string
		want string
	}{
		{"warung-nusantara.resto.example.com", "warung-nusantara"},
		{"warung-nusantara.resto.example.com:8080", "warung-nusantara"},
		{"resto.example.com", ""},
		{"other.example.com", ""},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "http://"+tc.host+"/", nil)
		req.Host = tc.host
		if got := r.Resolve(req); got != tc.want {
			t.Fatalf("host %q: expected %q, got %q", tc.host, tc.want, got)
		}
	}
}

func TestResolveWithoutRootDomainIgnoresHost(t *testing.T) {
	// No root domain configured: the host alone cannot identify a tenant,
	// so arbitrary hosts must not leak their first label as a slug.
	r := NewResolver("", "", "")
	for _, host := range []string{"example.com", "warung.example.com", "localhost:8080"} {
		req := httptest.NewRequest(http.MethodGet, "http://"+host+"/", nil)
		req.Host = host
		if got := r.Resolve(req); got != "" {
			t.Fatalf("host %q: expected empty slug, got %q", host, got)
		}
	}
}

func TestMiddlewareInjectsContext(t *testing.T) {
	r := NewResolver("X-Restaurant", "", "default-resto")

	var got string
	next := http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		got, _ = FromContext(req.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Middleware(next).ServeHTTP(httptest.NewRecorder(), req)
	if got != "default-resto" {
		t.Fatalf("expected default slug in context, got %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Restaurant", "sari-rasa")
	r.Middleware(next).ServeHTTP(httptest.NewRecorder(), req)
	if got != "sari-rasa" {
		t.Fatalf("expected header slug in context, got %q", got)
	}
}
