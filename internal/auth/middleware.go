package auth

import (
	"net/http"
	"strings"

	"github.com/noah-isme/backend-resto/internal/common"
	"github.com/noah-isme/backend-resto/internal/store"
)

const refreshCookieName = "resto_refresh"

// Middleware attaches authentication context to requests.
type Middleware struct {
	Svc *Service
	Q   *store.Queries
}

// Authenticate parses a bearer token when present and stores the resulting
// AuthContext. It never rejects: anonymous requests pass through unchanged,
// and RequireAuth enforces presence where needed.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractToken(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}
		identity, err := m.Svc.ParseAccessToken(token)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		auth := common.AuthContext{UserID: identity.UserID, Role: string(identity.Role)}
		if isStaff(identity.Role) {
			if id, err := store.UUIDFromString(identity.UserID); err == nil {
				if managed, err := m.Q.ListManagedRestaurantIDs(r.Context(), id); err == nil {
					for _, rid := range managed {
						auth.RestaurantIDs = append(auth.RestaurantIDs, store.UUIDString(rid))
					}
				}
			}
		}
		next.ServeHTTP(w, r.WithContext(common.WithAuth(r.Context(), auth)))
	})
}

// RequireAuth rejects requests that lack an authenticated principal.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := common.UserID(r.Context()); !ok {
			common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole restricts access to the listed roles.
func RequireRole(roles ...store.UserRole) func(http.Handler) http.Handler {
	allowed := make(map[store.UserRole]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth, ok := common.AuthFromContext(r.Context())
			if !ok || auth.UserID == "" {
				common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
				return
			}
			if _, ok := allowed[store.UserRole(auth.Role)]; !ok {
				common.JSONError(w, http.StatusForbidden, "FORBIDDEN", "insufficient role", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func isStaff(role store.UserRole) bool {
	switch role {
	case store.RoleSuperAdmin, store.RoleRestaurantAdmin, store.RoleBranchManager:
		return true
	}
	return false
}

func extractToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	if cookie, err := r.Cookie("resto_access"); err == nil {
		return cookie.Value
	}
	return ""
}
