package common

import "context"

type ctxKey string

const authContextKey ctxKey = "auth/context"

// AuthContext is the explicit authentication value passed into handlers.
// Capability checks go through CanEdit instead of ad hoc comparisons of
// emails against role strings.
type AuthContext struct {
	UserID        string
	Role          string
	RestaurantIDs []string
}

// CanEdit reports whether the principal may manage the given restaurant.
func (a AuthContext) CanEdit(restaurantID string) bool {
	if a.Role == "SUPER_ADMIN" {
		return true
	}
	for _, id := range a.RestaurantIDs {
		if id == restaurantID {
			return true
		}
	}
	return false
}

// WithAuth stores the authentication context on the provided context.
func WithAuth(ctx context.Context, auth AuthContext) context.Context {
	return context.WithValue(ctx, authContextKey, auth)
}

// AuthFromContext extracts the authentication context if present.
func AuthFromContext(ctx context.Context) (AuthContext, bool) {
	v := ctx.Value(authContextKey)
	if v == nil {
		return AuthContext{}, false
	}
	auth, ok := v.(AuthContext)
	return auth, ok
}

// WithUserID stores a bare authenticated user identifier on the context.
func WithUserID(ctx context.Context, id string) context.Context {
	auth, _ := AuthFromContext(ctx)
	auth.UserID = id
	return WithAuth(ctx, auth)
}

// UserID extracts the authenticated user identifier from the context if present.
func UserID(ctx context.Context) (string, bool) {
	auth, ok := AuthFromContext(ctx)
	if !ok || auth.UserID == "" {
		return "", false
	}
	return auth.UserID, true
}
