package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/noah-isme/backend-resto/internal/coupon"
	"github.com/noah-isme/backend-resto/internal/pricing"
	"github.com/noah-isme/backend-resto/internal/store"
)

// ErrNotFound indicates the requested cart or line could not be located.
var ErrNotFound = errors.New("cart not found")

// ErrInvalidInput is returned when the provided payload is invalid.
var ErrInvalidInput = errors.New("invalid input")

// ErrItemUnavailable is returned when the menu item cannot currently be
// ordered.
var ErrItemUnavailable = errors.New("menu item unavailable")

// ErrWrongRestaurant is returned when a line references a menu item from a
// different restaurant than the cart.
var ErrWrongRestaurant = errors.New("menu item belongs to another restaurant")

// ErrUnknownAddon is returned when a requested add-on is not offered on the
// menu item.
var ErrUnknownAddon = errors.New("add-on not offered on this item")

// Querier captures the database methods the cart service needs.
type Querier interface {
	CreateCart(ctx context.Context, arg store.CreateCartParams) (store.Cart, error)
	GetCartByID(ctx context.Context, id pgtype.UUID) (store.Cart, error)
	GetActiveCartByUser(ctx context.Context, restaurantID, userID pgtype.UUID) (store.Cart, error)
	GetActiveCartByAnon(ctx context.Context, restaurantID pgtype.UUID, anonID pgtype.Text) (store.Cart, error)
	TouchCart(ctx context.Context, id pgtype.UUID, expiresAt pgtype.Timestamptz) error
	UpdateCartCoupon(ctx context.Context, id pgtype.UUID, code pgtype.Text) error
	UpdateCartFulfillment(ctx context.Context, id pgtype.UUID, mode string) error
	CreateCartItem(ctx context.Context, arg store.CreateCartItemParams) (store.CartItem, error)
	ListCartItems(ctx context.Context, cartID pgtype.UUID) ([]store.CartItem, error)
	GetCartItemByID(ctx context.Context, id pgtype.UUID) (store.CartItem, error)
	UpdateCartItemQty(ctx context.Context, id pgtype.UUID, qty int32, subtotal int64) error
	DeleteCartItem(ctx context.Context, id, cartID pgtype.UUID) error
	GetMenuItemByID(ctx context.Context, id pgtype.UUID) (store.MenuItem, error)
	ListAddonsForMenuItem(ctx context.Context, menuItemID pgtype.UUID) ([]store.Addon, error)
}

// Service encapsulates cart domain operations. Every monetary figure on a
// line is snapshotted at add time so later menu edits never reprice an open
// cart.
type Service struct {
	Q       Querier
	Coupons *coupon.Service
	Policy  pricing.FeePolicy
	TTL     time.Duration
	Now     func() time.Time
}

func (s *Service) ttl() time.Duration {
	if s == nil || s.TTL <= 0 {
		return 24 * time.Hour
	}
	return s.TTL
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// AddonSnapshot is the persisted shape of one selected add-on on a line.
type AddonSnapshot struct {
	Name      string `json:"name"`
	UnitPrice int64  `json:"unitPrice"`
}

// EnsureCart loads the caller's active cart for the restaurant, creating one
// when none exists. Exactly one of userID and anonID identifies the owner.
func (s *Service) EnsureCart(ctx context.Context, restaurantID, userID pgtype.UUID, anonID string) (store.Cart, error) {
	if s == nil || s.Q == nil {
		return store.Cart{}, errors.New("cart service not configured")
	}
	if !restaurantID.Valid {
		return store.Cart{}, ErrInvalidInput
	}
	expires := store.Timestamptz(s.now().Add(s.ttl()))

	var (
		cart store.Cart
		err  error
	)
	switch {
	case userID.Valid:
		cart, err = s.Q.GetActiveCartByUser(ctx, restaurantID, userID)
	case anonID != "":
		cart, err = s.Q.GetActiveCartByAnon(ctx, restaurantID, pgtype.Text{String: anonID, Valid: true})
	default:
		return store.Cart{}, ErrInvalidInput
	}
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return store.Cart{}, err
		}
		anon := pgtype.Text{}
		if !userID.Valid {
			anon = pgtype.Text{String: anonID, Valid: true}
		}
		return s.Q.CreateCart(ctx, store.CreateCartParams{
			RestaurantID: restaurantID,
			UserID:       userID,
			AnonID:       anon,
			Fulfillment:  string(pricing.FulfillmentDelivery),
			ExpiresAt:    expires,
		})
	}
	_ = s.Q.TouchCart(ctx, cart.ID, expires)
	return cart, nil
}

// AddItem appends a line snapshotting the menu item and the selected add-ons.
func (s *Service) AddItem(ctx context.Context, cartID, menuItemID pgtype.UUID, qty int32, addonIDs []pgtype.UUID) (store.CartItem, error) {
	if s == nil || s.Q == nil {
		return store.CartItem{}, errors.New("cart service not configured")
	}
	if qty <= 0 {
		return store.CartItem{}, fmt.Errorf("qty must be positive: %w", ErrInvalidInput)
	}
	cart, err := s.Q.GetCartByID(ctx, cartID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.CartItem{}, ErrNotFound
		}
		return store.CartItem{}, err
	}
	item, err := s.Q.GetMenuItemByID(ctx, menuItemID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.CartItem{}, ErrItemUnavailable
		}
		return store.CartItem{}, err
	}
	if !item.Available {
		return store.CartItem{}, ErrItemUnavailable
	}
	if item.RestaurantID != cart.RestaurantID {
		return store.CartItem{}, ErrWrongRestaurant
	}

	snapshots, addonTotal, err := s.snapshotAddons(ctx, menuItemID, addonIDs)
	if err != nil {
		return store.CartItem{}, err
	}
	addonsJSON, err := json.Marshal(snapshots)
	if err != nil {
		return store.CartItem{}, err
	}
	perUnit := item.Price + addonTotal
	line, err := s.Q.CreateCartItem(ctx, store.CreateCartItemParams{
		CartID:     cartID,
		MenuItemID: menuItemID,
		Name:       item.Name,
		Qty:        qty,
		UnitPrice:  item.Price,
		Addons:     addonsJSON,
		Subtotal:   perUnit * int64(qty),
	})
	if err != nil {
		return store.CartItem{}, err
	}
	_ = s.Q.TouchCart(ctx, cartID, store.Timestamptz(s.now().Add(s.ttl())))
	return line, nil
}

func (s *Service) snapshotAddons(ctx context.Context, menuItemID pgtype.UUID, addonIDs []pgtype.UUID) ([]AddonSnapshot, int64, error) {
	snapshots := make([]AddonSnapshot, 0, len(addonIDs))
	if len(addonIDs) == 0 {
		return snapshots, 0, nil
	}
	offered, err := s.Q.ListAddonsForMenuItem(ctx, menuItemID)
	if err != nil {
		return nil, 0, err
	}
	byID := make(map[pgtype.UUID]store.Addon, len(offered))
	for _, a := range offered {
		byID[a.ID] = a
	}
	var total int64
	for _, id := range addonIDs {
		addon, ok := byID[id]
		if !ok {
			return nil, 0, ErrUnknownAddon
		}
		snapshots = append(snapshots, AddonSnapshot{Name: addon.Name, UnitPrice: addon.Price})
		total += addon.Price
	}
	return snapshots, total, nil
}

// UpdateQty changes a line's quantity, recomputing its subtotal from the
// prices snapshotted at add time.
func (s *Service) UpdateQty(ctx context.Context, cartID, itemID pgtype.UUID, qty int32) error {
	if qty <= 0 {
		return fmt.Errorf("qty must be positive: %w", ErrInvalidInput)
	}
	line, err := s.Q.GetCartItemByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	if line.CartID != cartID {
		return ErrNotFound
	}
	perUnit, err := perUnitTotal(line)
	if err != nil {
		return err
	}
	return s.Q.UpdateCartItemQty(ctx, itemID, qty, int64(perUnit)*int64(qty))
}

// RemoveItem deletes a line from the cart.
func (s *Service) RemoveItem(ctx context.Context, cartID, itemID pgtype.UUID) error {
	return s.Q.DeleteCartItem(ctx, itemID, cartID)
}

// SetFulfillment switches the cart between delivery and pickup.
func (s *Service) SetFulfillment(ctx context.Context, cartID pgtype.UUID, mode pricing.Fulfillment) error {
	if mode != pricing.FulfillmentDelivery && mode != pricing.FulfillmentPickup {
		return ErrInvalidInput
	}
	return s.Q.UpdateCartFulfillment(ctx, cartID, string(mode))
}

// ApplyCoupon validates the code against the cart's current subtotal and
// attaches it. Usage counters stay untouched until checkout settles the
// order.
func (s *Service) ApplyCoupon(ctx context.Context, cartID pgtype.UUID, code string) error {
	cart, err := s.Q.GetCartByID(ctx, cartID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	items, err := s.pricingItems(ctx, cartID)
	if err != nil {
		return err
	}
	subtotal, err := pricing.Subtotal(items)
	if err != nil {
		return err
	}
	if _, err := s.Coupons.Resolve(ctx, cart.RestaurantID, code, subtotal, s.now()); err != nil {
		return err
	}
	return s.Q.UpdateCartCoupon(ctx, cartID, pgtype.Text{String: code, Valid: true})
}

// RemoveCoupon clears the applied coupon code.
func (s *Service) RemoveCoupon(ctx context.Context, cartID pgtype.UUID) error {
	return s.Q.UpdateCartCoupon(ctx, cartID, pgtype.Text{})
}

// Quote prices the cart as it stands: line subtotals, fees for the selected
// fulfillment, and the applied coupon resolved at the current instant.
func (s *Service) Quote(ctx context.Context, cartID pgtype.UUID) (pricing.Summary, error) {
	cart, err := s.Q.GetCartByID(ctx, cartID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return pricing.Summary{}, ErrNotFound
		}
		return pricing.Summary{}, err
	}
	items, err := s.pricingItems(ctx, cartID)
	if err != nil {
		return pricing.Summary{}, err
	}
	engine := pricing.Engine{Policy: s.Policy, Coupons: s.Coupons.Scoped(cart.RestaurantID)}
	code := ""
	if cart.AppliedCouponCode.Valid {
		code = cart.AppliedCouponCode.String
	}
	return engine.Quote(ctx, items, pricing.Fulfillment(cart.Fulfillment), code, s.now())
}

func (s *Service) pricingItems(ctx context.Context, cartID pgtype.UUID) ([]pricing.Item, error) {
	lines, err := s.Q.ListCartItems(ctx, cartID)
	if err != nil {
		return nil, err
	}
	items := make([]pricing.Item, 0, len(lines))
	for _, line := range lines {
		item, err := pricingItem(line)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func pricingItem(line store.CartItem) (pricing.Item, error) {
	snapshots, err := decodeAddons(line.Addons)
	if err != nil {
		return pricing.Item{}, err
	}
	item := pricing.Item{Qty: int(line.Qty), UnitPrice: pricing.Money(line.UnitPrice)}
	for _, a := range snapshots {
		item.Addons = append(item.Addons, pricing.Addon{Name: a.Name, UnitPrice: pricing.Money(a.UnitPrice)})
	}
	return item, nil
}

func perUnitTotal(line store.CartItem) (int64, error) {
	snapshots, err := decodeAddons(line.Addons)
	if err != nil {
		return 0, err
	}
	total := line.UnitPrice
	for _, a := range snapshots {
		total += a.UnitPrice
	}
	return total, nil
}

func decodeAddons(raw []byte) ([]AddonSnapshot, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var snapshots []AddonSnapshot
	if err := json.Unmarshal(raw, &snapshots); err != nil {
		return nil, fmt.Errorf("decode addon snapshot: %w", err)
	}
	return snapshots, nil
}
