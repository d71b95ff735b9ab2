package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/backend-resto/internal/common"
)

// Handler exposes the authentication HTTP surface.
type Handler struct {
	Svc          *Service
	Validate     *validator.Validate
	CookieDomain string
	Secure       bool
}

type registerRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=120"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// Register creates a new customer account.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !h.decode(w, r, &req) {
		return
	}
	user, err := h.Svc.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"user": user})
}

// Login exchanges credentials for a token pair.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !h.decode(w, r, &req) {
		return
	}
	result, err := h.Svc.Login(r.Context(), req.Email, req.Password, r.UserAgent(), clientIP(r))
	if err != nil {
		writeError(w, err)
		return
	}
	h.setRefreshCookie(w, result.RefreshToken, result.RefreshExpiry)
	common.JSON(w, http.StatusOK, result)
}

// Refresh rotates the refresh token and returns a new access token.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	token := h.refreshToken(r)
	result, err := h.Svc.Refresh(r.Context(), token)
	if err != nil {
		h.clearRefreshCookie(w)
		writeError(w, err)
		return
	}
	h.setRefreshCookie(w, result.RefreshToken, result.RefreshExpiry)
	common.JSON(w, http.StatusOK, result)
}

// Logout revokes the current refresh session.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	token := h.refreshToken(r)
	if err := h.Svc.Logout(r.Context(), token); err != nil {
		writeError(w, err)
		return
	}
	h.clearRefreshCookie(w)
	common.JSON(w, http.StatusOK, map[string]any{"ok": true})
}

// Me returns the authenticated account.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	user, err := h.Svc.Me(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"user": user})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		common.JSONError(w, http.StatusBadRequest, "INVALID_JSON", "request body must be valid JSON", nil)
		return false
	}
	if err := h.Validate.Struct(dst); err != nil {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION_FAILED", err.Error(), nil)
		return false
	}
	return true
}

func (h *Handler) refreshToken(r *http.Request) string {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err == nil && req.RefreshToken != "" {
		return req.RefreshToken
	}
	if cookie, err := r.Cookie(refreshCookieName); err == nil {
		return cookie.Value
	}
	return ""
}

func (h *Handler) setRefreshCookie(w http.ResponseWriter, token string, expiry time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    token,
		Path:     "/api/v1/auth",
		Domain:   h.CookieDomain,
		Expires:  expiry,
		HttpOnly: true,
		Secure:   h.Secure,
		SameSite: http.SameSiteStrictMode,
	})
	// Readable CSRF cookie for the double-submit check on the cookie-backed
	// refresh and logout endpoints.
	csrf, err := generateToken(32)
	if err != nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     "X-CSRF-Token",
		Value:    csrf,
		Path:     "/api/v1/auth",
		Domain:   h.CookieDomain,
		Expires:  expiry,
		Secure:   h.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *Handler) clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     "/api/v1/auth",
		Domain:   h.CookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}

func writeError(w http.ResponseWriter, err error) {
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		common.JSONError(w, appErr.HTTPStatus, appErr.Code, appErr.Message, appErr.Details)
		return
	}
	common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "internal server error", nil)
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	return r.RemoteAddr
}
