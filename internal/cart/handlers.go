package cart

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/noah-isme/backend-resto/internal/common"
	"github.com/noah-isme/backend-resto/internal/coupon"
	"github.com/noah-isme/backend-resto/internal/pricing"
	"github.com/noah-isme/backend-resto/internal/store"
	"github.com/noah-isme/backend-resto/internal/tenant"
)

// RestaurantResolver maps a tenant slug to its restaurant row.
type RestaurantResolver interface {
	GetRestaurantBySlug(ctx context.Context, slug string) (store.Restaurant, error)
}

// Handler exposes the cart endpoints.
type Handler struct {
	Svc      *Service
	Q        RestaurantResolver
	Validate *validator.Validate
}

type ensureRequest struct {
	AnonID string `json:"anonId"`
}

type addItemRequest struct {
	MenuItemID string   `json:"menuItemId" validate:"required,uuid"`
	Qty        int32    `json:"qty" validate:"required,gt=0"`
	AddonIDs   []string `json:"addonIds" validate:"omitempty,dive,uuid"`
}

type updateQtyRequest struct {
	Qty int32 `json:"qty" validate:"required,gt=0"`
}

type fulfillmentRequest struct {
	Mode string `json:"mode" validate:"required,oneof=DELIVERY PICKUP"`
}

type applyCouponRequest struct {
	Code string `json:"code" validate:"required"`
}

type cartItemView struct {
	ID         string          `json:"id"`
	MenuItemID string          `json:"menuItemId"`
	Name       string          `json:"name"`
	Qty        int32           `json:"qty"`
	UnitPrice  int64           `json:"unitPrice"`
	Addons     []AddonSnapshot `json:"addons,omitempty"`
	Subtotal   int64           `json:"subtotal"`
}

type cartView struct {
	ID          string         `json:"id"`
	Fulfillment string         `json:"fulfillment"`
	CouponCode  *string        `json:"couponCode,omitempty"`
	Items       []cartItemView `json:"items"`
}

func itemView(line store.CartItem) (cartItemView, error) {
	snapshots, err := decodeAddons(line.Addons)
	if err != nil {
		return cartItemView{}, err
	}
	return cartItemView{
		ID:         store.UUIDString(line.ID),
		MenuItemID: store.UUIDString(line.MenuItemID),
		Name:       line.Name,
		Qty:        line.Qty,
		UnitPrice:  line.UnitPrice,
		Addons:     snapshots,
		Subtotal:   line.Subtotal,
	}, nil
}

// Ensure handles POST /api/v1/cart: load or create the caller's cart in the
// restaurant scope.
func (h *Handler) Ensure(w http.ResponseWriter, r *http.Request) {
	restaurant, ok := h.resolveRestaurant(w, r)
	if !ok {
		return
	}
	var req ensureRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	var userID pgtype.UUID
	if id, ok := common.UserID(r.Context()); ok {
		parsed, err := store.UUIDFromString(id)
		if err == nil {
			userID = parsed
		}
	}
	cart, err := h.Svc.EnsureCart(r.Context(), restaurant.ID, userID, strings.TrimSpace(req.AnonID))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.renderCart(w, r, cart, http.StatusOK)
}

// Get handles GET /api/v1/cart/{cartID}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	cartID, ok := h.cartID(w, r)
	if !ok {
		return
	}
	cart, err := h.Svc.Q.GetCartByID(r.Context(), cartID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "cart not found", nil)
			return
		}
		h.writeError(w, err)
		return
	}
	h.renderCart(w, r, cart, http.StatusOK)
}

// AddItem handles POST /api/v1/cart/{cartID}/items.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	cartID, ok := h.cartID(w, r)
	if !ok {
		return
	}
	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if !h.valid(w, req) {
		return
	}
	menuItemID, err := store.UUIDFromString(req.MenuItemID)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid menu item id", nil)
		return
	}
	addonIDs := make([]pgtype.UUID, 0, len(req.AddonIDs))
	for _, raw := range req.AddonIDs {
		id, err := store.UUIDFromString(raw)
		if err != nil {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid addon id", nil)
			return
		}
		addonIDs = append(addonIDs, id)
	}
	line, err := h.Svc.AddItem(r.Context(), cartID, menuItemID, req.Qty, addonIDs)
	if err != nil {
		h.writeError(w, err)
		return
	}
	view, err := itemView(line)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": view})
}

// UpdateItem handles PATCH /api/v1/cart/{cartID}/items/{itemID}.
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	cartID, ok := h.cartID(w, r)
	if !ok {
		return
	}
	itemID, err := store.UUIDFromString(chi.URLParam(r, "itemID"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid item id", nil)
		return
	}
	var req updateQtyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if !h.valid(w, req) {
		return
	}
	if err := h.Svc.UpdateQty(r.Context(), cartID, itemID, req.Qty); err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{"updated": true}})
}

// RemoveItem handles DELETE /api/v1/cart/{cartID}/items/{itemID}.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	cartID, ok := h.cartID(w, r)
	if !ok {
		return
	}
	itemID, err := store.UUIDFromString(chi.URLParam(r, "itemID"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid item id", nil)
		return
	}
	if err := h.Svc.RemoveItem(r.Context(), cartID, itemID); err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{"deleted": true}})
}

// SetFulfillment handles PUT /api/v1/cart/{cartID}/fulfillment.
func (h *Handler) SetFulfillment(w http.ResponseWriter, r *http.Request) {
	cartID, ok := h.cartID(w, r)
	if !ok {
		return
	}
	var req fulfillmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if !h.valid(w, req) {
		return
	}
	if err := h.Svc.SetFulfillment(r.Context(), cartID, pricing.Fulfillment(req.Mode)); err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{"fulfillment": req.Mode}})
}

// ApplyCoupon handles POST /api/v1/cart/{cartID}/coupon.
func (h *Handler) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	cartID, ok := h.cartID(w, r)
	if !ok {
		return
	}
	var req applyCouponRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if !h.valid(w, req) {
		return
	}
	if err := h.Svc.ApplyCoupon(r.Context(), cartID, strings.TrimSpace(req.Code)); err != nil {
		h.writeError(w, err)
		return
	}
	quote, err := h.Svc.Quote(r.Context(), cartID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": quote})
}

// RemoveCoupon handles DELETE /api/v1/cart/{cartID}/coupon.
func (h *Handler) RemoveCoupon(w http.ResponseWriter, r *http.Request) {
	cartID, ok := h.cartID(w, r)
	if !ok {
		return
	}
	if err := h.Svc.RemoveCoupon(r.Context(), cartID); err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{"removed": true}})
}

// Quote handles GET /api/v1/cart/{cartID}/quote.
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	cartID, ok := h.cartID(w, r)
	if !ok {
		return
	}
	quote, err := h.Svc.Quote(r.Context(), cartID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": quote})
}

func (h *Handler) renderCart(w http.ResponseWriter, r *http.Request, cart store.Cart, status int) {
	lines, err := h.Svc.Q.ListCartItems(r.Context(), cart.ID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	view := cartView{
		ID:          store.UUIDString(cart.ID),
		Fulfillment: cart.Fulfillment,
		Items:       make([]cartItemView, 0, len(lines)),
	}
	if cart.AppliedCouponCode.Valid {
		view.CouponCode = &cart.AppliedCouponCode.String
	}
	for _, line := range lines {
		iv, err := itemView(line)
		if err != nil {
			h.writeError(w, err)
			return
		}
		view.Items = append(view.Items, iv)
	}
	common.JSON(w, status, map[string]any{"data": view})
}

func (h *Handler) cartID(w http.ResponseWriter, r *http.Request) (pgtype.UUID, bool) {
	id, err := store.UUIDFromString(chi.URLParam(r, "cartID"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid cart id", nil)
		return pgtype.UUID{}, false
	}
	return id, true
}

func (h *Handler) resolveRestaurant(w http.ResponseWriter, r *http.Request) (store.Restaurant, bool) {
	slug, ok := tenant.FromContext(r.Context())
	if !ok {
		common.JSONError(w, http.StatusBadRequest, "RESTAURANT_REQUIRED", "restaurant scope missing", nil)
		return store.Restaurant{}, false
	}
	restaurant, err := h.Q.GetRestaurantBySlug(r.Context(), slug)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "restaurant not found", nil)
			return store.Restaurant{}, false
		}
		h.writeError(w, err)
		return store.Restaurant{}, false
	}
	return restaurant, true
}

func (h *Handler) valid(w http.ResponseWriter, v any) bool {
	if h.Validate == nil {
		return true
	}
	if err := h.Validate.Struct(v); err != nil {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION_FAILED", err.Error(), nil)
		return false
	}
	return true
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "cart or line not found", nil)
	case errors.Is(err, ErrInvalidInput):
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
	case errors.Is(err, ErrItemUnavailable):
		common.JSONError(w, http.StatusUnprocessableEntity, "ITEM_UNAVAILABLE", "menu item unavailable", nil)
	case errors.Is(err, ErrWrongRestaurant):
		common.JSONError(w, http.StatusUnprocessableEntity, "WRONG_RESTAURANT", "menu item belongs to another restaurant", nil)
	case errors.Is(err, ErrUnknownAddon):
		common.JSONError(w, http.StatusUnprocessableEntity, "UNKNOWN_ADDON", "add-on not offered on this item", nil)
	case isCouponRejection(err):
		coupon.WriteRejection(w, err)
	default:
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
	}
}

func isCouponRejection(err error) bool {
	return errors.Is(err, coupon.ErrNotFound) ||
		errors.Is(err, coupon.ErrInactive) ||
		errors.Is(err, coupon.ErrNotYetValid) ||
		errors.Is(err, coupon.ErrExpired) ||
		errors.Is(err, coupon.ErrExhausted) ||
		errors.Is(err, coupon.ErrMinimumNotMet)
}
