package tenant

import (
	"context"
	"net"
	"net/http"
	"strings"
)

type contextKey string

const restaurantContextKey contextKey = "tenant.restaurant"

// Resolver resolves the restaurant scope from HTTP requests using either a
// header or the request subdomain. Every restaurant is a tenant; coupon and
// menu lookups are scoped by the resolved slug.
type Resolver struct {
	HeaderName  string
	RootDomain  string
	DefaultSlug string
}

// NewResolver returns a resolver configured with the provided header name,
// root domain, and default restaurant slug. If headerName is empty,
// "X-Restaurant" is used.
func NewResolver(headerName, rootDomain, defaultSlug string) *Resolver {
	if headerName == "" {
		headerName = "X-Restaurant"
	}
	return &Resolver{
		HeaderName:  headerName,
		RootDomain:  strings.ToLower(strings.TrimSpace(rootDomain)),
		DefaultSlug: strings.TrimSpace(defaultSlug),
	}
}

// Middleware resolves the restaurant from the request and injects it into
// the context passed downstream.
func (r *Resolver) Middleware(next http.Handler) http.Handler {
	if r == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		slug := r.Resolve(req)
		if slug == "" {
			slug = r.DefaultSlug
		}
		if slug != "" {
			req = req.WithContext(WithRestaurant(req.Context(), slug))
		}
		next.ServeHTTP(w, req)
	})
}

// Resolve attempts to find the restaurant slug from the configured header or
// the request subdomain.
func (r *Resolver) Resolve(req *http.Request) string {
	if r == nil || req == nil {
		return ""
	}
	if slug := strings.TrimSpace(req.Header.Get(r.HeaderName)); slug != "" {
		return slug
	}
	host := hostWithoutPort(req.Host)
	if host == "" {
		return ""
	}
	return strings.TrimSpace(r.subdomainFromHost(host))
}

func (r *Resolver) subdomainFromHost(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	// Without a configured root domain there is no way to tell a tenant
	// label apart from the host itself, so only the header can resolve.
	if host == "" || r.RootDomain == "" {
		return ""
	}
	if host == r.RootDomain {
		return ""
	}
	suffix := "." + r.RootDomain
	if !strings.HasSuffix(host, suffix) {
		return ""
	}
	label := strings.TrimSuffix(host, suffix)
	if idx := strings.Index(label, "."); idx != -1 {
		label = label[:idx]
	}
	return label
}

func hostWithoutPort(hostport string) string {
	hostport = strings.TrimSpace(hostport)
	if hostport == "" {
		return ""
	}
	if strings.HasPrefix(hostport, "[") {
		if idx := strings.Index(hostport, "]"); idx != -1 {
			if host := hostport[1:idx]; host != "" {
				return host
			}
		}
	}
	if h, _, err := net.SplitHostPort(hostport); err == nil {
		return h
	}
	if idx := strings.Index(hostport, ":"); idx != -1 && strings.Count(hostport, ":") == 1 {
		return hostport[:idx]
	}
	return hostport
}

// WithRestaurant stores the restaurant slug inside the context.
func WithRestaurant(ctx context.Context, slug string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, restaurantContextKey, slug)
}

// FromContext extracts the restaurant slug from the context if available.
func FromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	slug, ok := ctx.Value(restaurantContextKey).(string)
	if !ok {
		return "", false
	}
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return "", false
	}
	return slug, true
}
