package audit

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/backend-resto/internal/common"
	"github.com/noah-isme/backend-resto/internal/obs"
	"github.com/noah-isme/backend-resto/internal/store"
)

// Middleware records successful staff mutations on admin routes. Reads and
// failed requests are skipped.
func (s *Service) Middleware(resource string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !mutating(r.Method) {
				next.ServeHTTP(w, r)
				return
			}
			recorder := obs.NewStatusRecorder(w)
			next.ServeHTTP(recorder, r)
			if recorder.Status() >= http.StatusBadRequest {
				return
			}
			auth, ok := common.AuthFromContext(r.Context())
			if !ok || auth.UserID == "" {
				return
			}
			userID, err := store.UUIDFromString(auth.UserID)
			if err != nil {
				return
			}
			entry := Entry{
				UserID:   userID,
				Action:   r.Method + " " + routeOf(r),
				Resource: resource,
			}
			if raw := chi.URLParam(r, "restaurantID"); raw != "" {
				if id, err := store.UUIDFromString(raw); err == nil {
					entry.RestaurantID = id
				}
			}
			if raw := chi.URLParam(r, "itemID"); raw != "" {
				entry.ResourceID = raw
			} else if raw := chi.URLParam(r, "couponID"); raw != "" {
				entry.ResourceID = raw
			} else if raw := chi.URLParam(r, "orderID"); raw != "" {
				entry.ResourceID = raw
			}
			s.Record(r.Context(), entry)
		})
	}
}

func mutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

func routeOf(r *http.Request) string {
	if route := obs.RoutePatternFromContext(r.Context()); route != "" {
		return route
	}
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return r.URL.Path
}
