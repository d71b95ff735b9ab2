package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/backend-resto/internal/common"
	"github.com/noah-isme/backend-resto/internal/store"
	"github.com/noah-isme/backend-resto/internal/tenant"
)

type stubQueries struct {
	restaurant store.Restaurant
	items      []store.MenuItem
	addons     map[string][]store.Addon

	menuCalls int
	slugCalls int
}

func (s *stubQueries) ListRestaurants(context.Context) ([]store.Restaurant, error) {
	return []store.Restaurant{s.restaurant}, nil
}

func (s *stubQueries) GetRestaurantBySlug(_ context.Context, slug string) (store.Restaurant, error) {
	s.slugCalls++
	if slug != s.restaurant.Slug {
		return store.Restaurant{}, pgx.ErrNoRows
	}
	return s.restaurant, nil
}

func (s *stubQueries) ListBranchesByRestaurant(context.Context, pgtype.UUID) ([]store.Branch, error) {
	return nil, nil
}

func (s *stubQueries) ListMenuItems(context.Context, pgtype.UUID) ([]store.MenuItem, error) {
	s.menuCalls++
	return s.items, nil
}

func (s *stubQueries) GetMenuItemByID(_ context.Context, id pgtype.UUID) (store.MenuItem, error) {
	for _, m := range s.items {
		if m.ID == id {
			return m, nil
		}
	}
	return store.MenuItem{}, pgx.ErrNoRows
}

func (s *stubQueries) CreateMenuItem(_ context.Context, arg store.CreateMenuItemParams) (store.MenuItem, error) {
	item := store.MenuItem{
		ID:           store.UUIDValue(uuid.New()),
		RestaurantID: arg.RestaurantID,
		Name:         arg.Name,
		Category:     arg.Category,
		Price:        arg.Price,
		Available:    arg.Available,
	}
	s.items = append(s.items, item)
	return item, nil
}

func (s *stubQueries) UpdateMenuItem(_ context.Context, arg store.UpdateMenuItemParams) (store.MenuItem, error) {
	for i, m := range s.items {
		if m.ID == arg.ID {
			s.items[i].Name = arg.Name
			s.items[i].Price = arg.Price
			return s.items[i], nil
		}
	}
	return store.MenuItem{}, pgx.ErrNoRows
}

func (s *stubQueries) DeleteMenuItem(context.Context, pgtype.UUID) error { return nil }

func (s *stubQueries) ListAddonsForMenuItem(_ context.Context, menuItemID pgtype.UUID) ([]store.Addon, error) {
	return s.addons[store.UUIDString(menuItemID)], nil
}

func newFixture(t *testing.T) (*Service, *stubQueries, context.Context) {
	t.Helper()
	restaurantID := store.UUIDValue(uuid.New())
	stub := &stubQueries{
		restaurant: store.Restaurant{ID: restaurantID, Slug: "warung-nusantara", Name: "Warung Nusantara"},
		items: []store.MenuItem{
			{ID: store.UUIDValue(uuid.New()), RestaurantID: restaurantID, Name: "Nasi Goreng", Category: pgtype.Text{String: "Mains", Valid: true}, Price: 1250, Available: true},
			{ID: store.UUIDValue(uuid.New()), RestaurantID: restaurantID, Name: "Rendang", Category: pgtype.Text{String: "Mains", Valid: true}, Price: 1850, Available: true},
			{ID: store.UUIDValue(uuid.New()), RestaurantID: restaurantID, Name: "Es Teh", Category: pgtype.Text{String: "Drinks", Valid: true}, Price: 350, Available: true},
		},
		addons: map[string][]store.Addon{},
	}
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	svc := NewService(ServiceConfig{
		Queries: stub,
		Cache:   NewCache(client, time.Minute),
	})
	ctx := tenant.WithRestaurant(context.Background(), "warung-nusantara")
	return svc, stub, ctx
}

func TestMenuGroupsByCategory(t *testing.T) {
	svc, _, ctx := newFixture(t)

	sections, err := svc.Menu(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sections) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(sections))
	}
	if sections[0].Category != "Mains" || len(sections[0].Items) != 2 {
		t.Fatalf("unexpected first section: %+v", sections[0])
	}
	if sections[1].Category != "Drinks" || len(sections[1].Items) != 1 {
		t.Fatalf("unexpected second section: %+v", sections[1])
	}
}

func TestMenuServedFromCache(t *testing.T) {
	svc, stub, ctx := newFixture(t)

	if _, err := svc.Menu(ctx); err != nil {
		t.Fatalf("first read: %v", err)
	}
	if _, err := svc.Menu(ctx); err != nil {
		t.Fatalf("second read: %v", err)
	}
	if stub.menuCalls != 1 {
		t.Fatalf("expected one database read, got %d", stub.menuCalls)
	}
}

func TestCreateItemInvalidatesMenu(t *testing.T) {
	svc, stub, ctx := newFixture(t)

	if _, err := svc.Menu(ctx); err != nil {
		t.Fatalf("prime cache: %v", err)
	}
	if _, err := svc.CreateItem(ctx, stub.restaurant.ID, MenuItemInput{Name: "Sate Ayam", Price: 900}); err != nil {
		t.Fatalf("create item: %v", err)
	}
	if _, err := svc.Menu(ctx); err != nil {
		t.Fatalf("reread menu: %v", err)
	}
	if stub.menuCalls != 2 {
		t.Fatalf("expected cache invalidation to force a reread, got %d reads", stub.menuCalls)
	}
}

func TestRestaurantNotFound(t *testing.T) {
	svc, _, _ := newFixture(t)

	_, err := svc.Restaurant(context.Background(), "no-such-place")
	var appErr *common.AppError
	if !errors.As(err, &appErr) || appErr.Code != "NOT_FOUND" {
		t.Fatalf("expected NOT_FOUND app error, got %v", err)
	}
}

func TestMenuRequiresRestaurantScope(t *testing.T) {
	svc, _, _ := newFixture(t)

	_, err := svc.Menu(context.Background())
	var appErr *common.AppError
	if !errors.As(err, &appErr) || appErr.Code != "RESTAURANT_REQUIRED" {
		t.Fatalf("expected RESTAURANT_REQUIRED, got %v", err)
	}
}
