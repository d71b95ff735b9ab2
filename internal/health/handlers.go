package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"
)

const (
	defaultDBTimeout    = 500 * time.Millisecond
	defaultRedisTimeout = 300 * time.Millisecond
)

// ready gates the readiness probe. Graceful shutdown flips it off first
// so load balancers drain traffic before the listener closes.
var ready atomic.Bool

func init() { ready.Store(true) }

// SetReady flips the readiness gate.
func SetReady(v bool) { ready.Store(v) }

// Checker probes the dependencies readiness reports on.
type Checker interface {
	PingDB(ctx context.Context, timeout time.Duration) error
	PingRedis(ctx context.Context, timeout time.Duration) error
}

// Handler serves the liveness and readiness endpoints.
type Handler struct {
	Checker      Checker
	DBTimeout    time.Duration
	RedisTimeout time.Duration
}

// Live always answers 200: the process is up.
func (h Handler) Live(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Ready answers 200 only when the gate is open and both Postgres and
// Redis respond; otherwise 503 with per-dependency detail.
func (h Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if !ready.Load() {
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	}
	if h.Checker == nil {
		http.Error(w, "dependencies unavailable", http.StatusServiceUnavailable)
		return
	}

	ctx := r.Context()
	report := map[string]string{
		"db":    probe(h.Checker.PingDB, ctx, orDefault(h.DBTimeout, defaultDBTimeout)),
		"redis": probe(h.Checker.PingRedis, ctx, orDefault(h.RedisTimeout, defaultRedisTimeout)),
	}

	w.Header().Set("Content-Type", "application/json")
	if report["db"] != "ok" || report["redis"] != "ok" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(report)
}

func probe(ping func(context.Context, time.Duration) error, ctx context.Context, timeout time.Duration) string {
	if err := ping(ctx, timeout); err != nil {
		return err.Error()
	}
	return "ok"
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}
