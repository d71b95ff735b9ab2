package cart

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/noah-isme/backend-resto/internal/coupon"
	"github.com/noah-isme/backend-resto/internal/pricing"
	"github.com/noah-isme/backend-resto/internal/store"
)

type stubQuerier struct {
	carts     map[pgtype.UUID]store.Cart
	items     map[pgtype.UUID]store.CartItem
	menu      map[pgtype.UUID]store.MenuItem
	addons    map[pgtype.UUID][]store.Addon
	itemOrder []pgtype.UUID
}

func newStubQuerier() *stubQuerier {
	return &stubQuerier{
		carts:  map[pgtype.UUID]store.Cart{},
		items:  map[pgtype.UUID]store.CartItem{},
		menu:   map[pgtype.UUID]store.MenuItem{},
		addons: map[pgtype.UUID][]store.Addon{},
	}
}

func (s *stubQuerier) CreateCart(_ context.Context, arg store.CreateCartParams) (store.Cart, error) {
	cart := store.Cart{
		ID:           store.UUIDValue(uuid.New()),
		RestaurantID: arg.RestaurantID,
		UserID:       arg.UserID,
		AnonID:       arg.AnonID,
		Fulfillment:  arg.Fulfillment,
		ExpiresAt:    arg.ExpiresAt,
	}
	s.carts[cart.ID] = cart
	return cart, nil
}

func (s *stubQuerier) GetCartByID(_ context.Context, id pgtype.UUID) (store.Cart, error) {
	cart, ok := s.carts[id]
	if !ok {
		return store.Cart{}, pgx.ErrNoRows
	}
	return cart, nil
}

func (s *stubQuerier) GetActiveCartByUser(_ context.Context, restaurantID, userID pgtype.UUID) (store.Cart, error) {
	for _, c := range s.carts {
		if c.RestaurantID == restaurantID && c.UserID == userID {
			return c, nil
		}
	}
	return store.Cart{}, pgx.ErrNoRows
}

func (s *stubQuerier) GetActiveCartByAnon(_ context.Context, restaurantID pgtype.UUID, anonID pgtype.Text) (store.Cart, error) {
	for _, c := range s.carts {
		if c.RestaurantID == restaurantID && c.AnonID == anonID {
			return c, nil
		}
	}
	return store.Cart{}, pgx.ErrNoRows
}

func (s *stubQuerier) TouchCart(context.Context, pgtype.UUID, pgtype.Timestamptz) error { return nil }

func (s *stubQuerier) UpdateCartCoupon(_ context.Context, id pgtype.UUID, code pgtype.Text) error {
	cart, ok := s.carts[id]
	if !ok {
		return pgx.ErrNoRows
	}
	cart.AppliedCouponCode = code
	s.carts[id] = cart
	return nil
}

func (s *stubQuerier) UpdateCartFulfillment(_ context.Context, id pgtype.UUID, mode string) error {
	cart, ok := s.carts[id]
	if !ok {
		return pgx.ErrNoRows
	}
	cart.Fulfillment = mode
	s.carts[id] = cart
	return nil
}

func (s *stubQuerier) CreateCartItem(_ context.Context, arg store.CreateCartItemParams) (store.CartItem, error) {
	item := store.CartItem{
		ID:         store.UUIDValue(uuid.New()),
		CartID:     arg.CartID,
		MenuItemID: arg.MenuItemID,
		Name:       arg.Name,
		Qty:        arg.Qty,
		UnitPrice:  arg.UnitPrice,
		Addons:     arg.Addons,
		Subtotal:   arg.Subtotal,
	}
	s.items[item.ID] = item
	s.itemOrder = append(s.itemOrder, item.ID)
	return item, nil
}

func (s *stubQuerier) ListCartItems(_ context.Context, cartID pgtype.UUID) ([]store.CartItem, error) {
	var out []store.CartItem
	for _, id := range s.itemOrder {
		if item, ok := s.items[id]; ok && item.CartID == cartID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (s *stubQuerier) GetCartItemByID(_ context.Context, id pgtype.UUID) (store.CartItem, error) {
	item, ok := s.items[id]
	if !ok {
		return store.CartItem{}, pgx.ErrNoRows
	}
	return item, nil
}

func (s *stubQuerier) UpdateCartItemQty(_ context.Context, id pgtype.UUID, qty int32, subtotal int64) error {
	item, ok := s.items[id]
	if !ok {
		return pgx.ErrNoRows
	}
	item.Qty = qty
	item.Subtotal = subtotal
	s.items[id] = item
	return nil
}

func (s *stubQuerier) DeleteCartItem(_ context.Context, id, cartID pgtype.UUID) error {
	if item, ok := s.items[id]; ok && item.CartID == cartID {
		delete(s.items, id)
	}
	return nil
}

func (s *stubQuerier) GetMenuItemByID(_ context.Context, id pgtype.UUID) (store.MenuItem, error) {
	item, ok := s.menu[id]
	if !ok {
		return store.MenuItem{}, pgx.ErrNoRows
	}
	return item, nil
}

func (s *stubQuerier) ListAddonsForMenuItem(_ context.Context, menuItemID pgtype.UUID) ([]store.Addon, error) {
	return s.addons[menuItemID], nil
}

type couponStub struct {
	coupons map[string]store.Coupon
}

func (c *couponStub) GetCouponByCode(_ context.Context, _ pgtype.UUID, code string) (store.Coupon, error) {
	cp, ok := c.coupons[code]
	if !ok {
		return store.Coupon{}, pgx.ErrNoRows
	}
	return cp, nil
}

func (c *couponStub) RedeemCoupon(context.Context, pgtype.UUID) (bool, error) { return true, nil }

func (c *couponStub) HasCouponRedemptionForOrder(context.Context, pgtype.UUID) (bool, error) {
	return false, nil
}

func (c *couponStub) InsertCouponRedemption(context.Context, store.InsertCouponRedemptionParams) error {
	return nil
}

func fixedClock() time.Time {
	return time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
}

func newTestService() (*Service, *stubQuerier, store.Restaurant, store.MenuItem, store.Addon) {
	q := newStubQuerier()
	restaurant := store.Restaurant{ID: store.UUIDValue(uuid.New()), Slug: "warung-nusantara"}
	item := store.MenuItem{
		ID:           store.UUIDValue(uuid.New()),
		RestaurantID: restaurant.ID,
		Name:         "Nasi Goreng",
		Price:        1250,
		Available:    true,
	}
	addon := store.Addon{ID: store.UUIDValue(uuid.New()), RestaurantID: restaurant.ID, Name: "Extra Egg", Price: 300}
	q.menu[item.ID] = item
	q.addons[item.ID] = []store.Addon{addon}

	coupons := &coupon.Service{Q: &couponStub{coupons: map[string]store.Coupon{
		"HEMAT10": {
			ID:           store.UUIDValue(uuid.New()),
			Code:         "HEMAT10",
			DiscountType: store.DiscountTypePercentage,
			DiscountValue: 10,
			IsActive:     true,
		},
		"MINIMAL": {
			ID:             store.UUIDValue(uuid.New()),
			Code:           "MINIMAL",
			DiscountType:   store.DiscountTypeFixed,
			DiscountValue:  500,
			MinOrderAmount: pgtype.Int8{Int64: 10000, Valid: true},
			IsActive:       true,
		},
	}}}

	svc := &Service{
		Q:       q,
		Coupons: coupons,
		Policy:  pricing.DefaultFeePolicy(),
		Now:     fixedClock,
	}
	return svc, q, restaurant, item, addon
}

func TestEnsureCartReusesActiveCart(t *testing.T) {
	svc, _, restaurant, _, _ := newTestService()
	ctx := context.Background()
	userID := store.UUIDValue(uuid.New())

	first, err := svc.EnsureCart(ctx, restaurant.ID, userID, "")
	if err != nil {
		t.Fatalf("first ensure: %v", err)
	}
	second, err := svc.EnsureCart(ctx, restaurant.ID, userID, "")
	if err != nil {
		t.Fatalf("second ensure: %v", err)
	}
	if first.ID != second.ID {
		t.Fatal("expected the active cart to be reused")
	}
}

func TestEnsureCartRequiresOwner(t *testing.T) {
	svc, _, restaurant, _, _ := newTestService()

	_, err := svc.EnsureCart(context.Background(), restaurant.ID, pgtype.UUID{}, "")
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestAddItemSnapshotsAddons(t *testing.T) {
	svc, _, restaurant, item, addon := newTestService()
	ctx := context.Background()

	cart, err := svc.EnsureCart(ctx, restaurant.ID, pgtype.UUID{}, "anon-1")
	if err != nil {
		t.Fatalf("ensure cart: %v", err)
	}
	line, err := svc.AddItem(ctx, cart.ID, item.ID, 2, []pgtype.UUID{addon.ID})
	if err != nil {
		t.Fatalf("add item: %v", err)
	}
	if line.Subtotal != (1250+300)*2 {
		t.Fatalf("expected subtotal 3100, got %d", line.Subtotal)
	}
	snapshots, err := decodeAddons(line.Addons)
	if err != nil {
		t.Fatalf("decode addons: %v", err)
	}
	if len(snapshots) != 1 || snapshots[0].Name != "Extra Egg" || snapshots[0].UnitPrice != 300 {
		t.Fatalf("unexpected snapshot: %+v", snapshots)
	}
}

func TestAddItemRejectsUnknownAddon(t *testing.T) {
	svc, _, restaurant, item, _ := newTestService()
	ctx := context.Background()

	cart, _ := svc.EnsureCart(ctx, restaurant.ID, pgtype.UUID{}, "anon-1")
	_, err := svc.AddItem(ctx, cart.ID, item.ID, 1, []pgtype.UUID{store.UUIDValue(uuid.New())})
	if !errors.Is(err, ErrUnknownAddon) {
		t.Fatalf("expected ErrUnknownAddon, got %v", err)
	}
}

func TestAddItemRejectsForeignRestaurant(t *testing.T) {
	svc, q, restaurant, _, _ := newTestService()
	ctx := context.Background()

	foreign := store.MenuItem{
		ID:           store.UUIDValue(uuid.New()),
		RestaurantID: store.UUIDValue(uuid.New()),
		Name:         "Pho",
		Price:        1500,
		Available:    true,
	}
	q.menu[foreign.ID] = foreign

	cart, _ := svc.EnsureCart(ctx, restaurant.ID, pgtype.UUID{}, "anon-1")
	_, err := svc.AddItem(ctx, cart.ID, foreign.ID, 1, nil)
	if !errors.Is(err, ErrWrongRestaurant) {
		t.Fatalf("expected ErrWrongRestaurant, got %v", err)
	}
}

func TestUpdateQtyRecomputesFromSnapshot(t *testing.T) {
	svc, q, restaurant, item, addon := newTestService()
	ctx := context.Background()

	cart, _ := svc.EnsureCart(ctx, restaurant.ID, pgtype.UUID{}, "anon-1")
	line, err := svc.AddItem(ctx, cart.ID, item.ID, 1, []pgtype.UUID{addon.ID})
	if err != nil {
		t.Fatalf("add item: %v", err)
	}

	// A later menu price change must not affect the open cart.
	repriced := q.menu[item.ID]
	repriced.Price = 9999
	q.menu[item.ID] = repriced

	if err := svc.UpdateQty(ctx, cart.ID, line.ID, 3); err != nil {
		t.Fatalf("update qty: %v", err)
	}
	updated, _ := q.GetCartItemByID(ctx, line.ID)
	if updated.Subtotal != (1250+300)*3 {
		t.Fatalf("expected snapshot pricing 4650, got %d", updated.Subtotal)
	}
}

func TestApplyCouponRejectsBelowMinimum(t *testing.T) {
	svc, _, restaurant, item, _ := newTestService()
	ctx := context.Background()

	cart, _ := svc.EnsureCart(ctx, restaurant.ID, pgtype.UUID{}, "anon-1")
	if _, err := svc.AddItem(ctx, cart.ID, item.ID, 1, nil); err != nil {
		t.Fatalf("add item: %v", err)
	}
	err := svc.ApplyCoupon(ctx, cart.ID, "MINIMAL")
	if !errors.Is(err, coupon.ErrMinimumNotMet) {
		t.Fatalf("expected minimum rejection, got %v", err)
	}
}

func TestQuoteAppliesCouponAndFees(t *testing.T) {
	svc, _, restaurant, item, _ := newTestService()
	ctx := context.Background()

	cart, _ := svc.EnsureCart(ctx, restaurant.ID, pgtype.UUID{}, "anon-1")
	if _, err := svc.AddItem(ctx, cart.ID, item.ID, 2, nil); err != nil {
		t.Fatalf("add item: %v", err)
	}
	if err := svc.ApplyCoupon(ctx, cart.ID, "HEMAT10"); err != nil {
		t.Fatalf("apply coupon: %v", err)
	}

	quote, err := svc.Quote(ctx, cart.ID)
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	// subtotal 2500, processing 2500*2.9%+30 = 103 (rounded half-up), delivery 299,
	// platform 199, discount 250.
	if quote.Subtotal != 2500 {
		t.Fatalf("subtotal: %d", quote.Subtotal)
	}
	if quote.Discount != 250 {
		t.Fatalf("discount: %d", quote.Discount)
	}
	want := pricing.Money(2500 + 299 + 103 + 199 - 250)
	if quote.Total != want {
		t.Fatalf("total: got %d want %d", quote.Total, want)
	}
}
