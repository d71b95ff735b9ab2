package common

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// Idem is an Idempotency-Key middleware backed by Redis. Keys are scoped
// to the authenticated user so two customers may reuse the same key.
type Idem struct {
	R   *redis.Client
	TTL time.Duration
}

func idemKey(userID, key string) string {
	sum := sha256.Sum256([]byte(userID + ":" + key))
	return "resto:idem:" + hex.EncodeToString(sum[:])
}

// Middleware claims the request's Idempotency-Key before the handler runs.
// A second request with the same key inside the TTL gets 409 instead of
// re-executing the write. Requests without the header pass through.
func (i Idem) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Idempotency-Key")
		if header == "" || i.R == nil {
			next.ServeHTTP(w, r)
			return
		}
		ctx := r.Context()
		userID, _ := UserID(ctx)
		key := idemKey(userID, header)
		claimed, err := i.R.SetNX(ctx, key, "claimed", i.TTL).Result()
		if err != nil {
			JSONError(w, http.StatusInternalServerError, "INTERNAL", "idempotency store error", map[string]any{"error": err.Error()})
			return
		}
		if !claimed {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusConflict)
			_, _ = io.WriteString(w, "{\"error\":{\"code\":\"IDEMPOTENT_REPLAY\",\"message\":\"duplicate request\"}}")
			return
		}
		defer func() {
			// keep the claim expiring even if the handler panics
			_ = i.R.Expire(context.Background(), key, i.TTL).Err()
		}()
		next.ServeHTTP(w, r)
	})
}
