package checkout

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/backend-resto/internal/common"
	"github.com/noah-isme/backend-resto/internal/coupon"
)

// Handler exposes the checkout endpoint.
type Handler struct {
	Svc      *Service
	Validate *validator.Validate
}

// Checkout handles POST /api/v1/checkout.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "checkout service not configured", nil)
		return
	}
	userID, ok := common.UserID(r.Context())
	if !ok || userID == "" {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	var payload Input
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(payload); err != nil {
			common.JSONError(w, http.StatusBadRequest, "VALIDATION_FAILED", err.Error(), nil)
			return
		}
	}
	out, err := h.Svc.Create(r.Context(), userID, payload)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": out})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrCartNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "cart not found", nil)
	case errors.Is(err, ErrCartEmpty):
		common.JSONError(w, http.StatusUnprocessableEntity, "CART_EMPTY", "cart is empty", nil)
	case errors.Is(err, ErrNotOwner):
		common.JSONError(w, http.StatusForbidden, "FORBIDDEN", "cart does not belong to user", nil)
	case errors.Is(err, ErrNotMutable):
		common.JSONError(w, http.StatusConflict, "STATE_VIOLATION", "cart already checked out or expired", nil)
	case errors.Is(err, coupon.ErrNotFound),
		errors.Is(err, coupon.ErrInactive),
		errors.Is(err, coupon.ErrNotYetValid),
		errors.Is(err, coupon.ErrExpired),
		errors.Is(err, coupon.ErrExhausted),
		errors.Is(err, coupon.ErrMinimumNotMet):
		coupon.WriteRejection(w, err)
	default:
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
	}
}
