package obs_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/noah-isme/backend-resto/internal/obs"
)

func serveInstrumented(t *testing.T, metrics *obs.HTTPMetrics, route string, status int) *httptest.ResponseRecorder {
	t.Helper()
	handler := obs.HTTPObs{Metrics: metrics}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}))
	req := httptest.NewRequest(http.MethodGet, route, nil)
	req = req.WithContext(obs.WithRoutePattern(req.Context(), route))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func TestHTTPObsRecordsPerRouteLabels(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := obs.NewHTTPMetrics("resto", []float64{1, 10}, registry)

	rr := serveInstrumented(t, metrics, "/api/v1/menu", http.StatusOK)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	serveInstrumented(t, metrics, "/api/v1/menu", http.StatusOK)
	serveInstrumented(t, metrics, "/api/v1/cart", http.StatusNotFound)

	menuOK := testutil.ToFloat64(metrics.ReqTotal.WithLabelValues(http.MethodGet, "/api/v1/menu", "200"))
	if menuOK != 2 {
		t.Fatalf("menu counter = %v, want 2", menuOK)
	}
	cartMiss := testutil.ToFloat64(metrics.ReqTotal.WithLabelValues(http.MethodGet, "/api/v1/cart", "404"))
	if cartMiss != 1 {
		t.Fatalf("cart counter = %v, want 1", cartMiss)
	}

	if testutil.CollectAndCount(metrics.ReqDur) == 0 {
		t.Fatal("no latency samples recorded")
	}
	if inflight := testutil.ToFloat64(metrics.InFlight); inflight != 0 {
		t.Fatalf("in-flight gauge = %v after requests completed", inflight)
	}
}

func TestHTTPObsWithoutMetricsIsPassThrough(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	rr := httptest.NewRecorder()
	obs.HTTPObs{}.Middleware(inner).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusTeapot {
		t.Fatalf("status = %d, want pass-through", rr.Code)
	}
}
