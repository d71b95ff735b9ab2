package catalog

import (
	"context"
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/noah-isme/backend-resto/internal/cache"
	"github.com/noah-isme/backend-resto/internal/common"
	"github.com/noah-isme/backend-resto/internal/store"
	"github.com/noah-isme/backend-resto/internal/tenant"
)

type queryProvider interface {
	ListRestaurants(ctx context.Context) ([]store.Restaurant, error)
	GetRestaurantBySlug(ctx context.Context, slug string) (store.Restaurant, error)
	ListBranchesByRestaurant(ctx context.Context, restaurantID pgtype.UUID) ([]store.Branch, error)
	ListMenuItems(ctx context.Context, restaurantID pgtype.UUID) ([]store.MenuItem, error)
	GetMenuItemByID(ctx context.Context, id pgtype.UUID) (store.MenuItem, error)
	CreateMenuItem(ctx context.Context, arg store.CreateMenuItemParams) (store.MenuItem, error)
	UpdateMenuItem(ctx context.Context, arg store.UpdateMenuItemParams) (store.MenuItem, error)
	DeleteMenuItem(ctx context.Context, id pgtype.UUID) error
	ListAddonsForMenuItem(ctx context.Context, menuItemID pgtype.UUID) ([]store.Addon, error)
}

// Service assembles the public restaurant and menu payloads, caching the hot
// read paths in Redis.
type Service struct {
	queries queryProvider
	cache   *Cache
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Queries queryProvider
	Cache   *Cache
}

// NewService constructs a Service.
func NewService(cfg ServiceConfig) *Service {
	return &Service{queries: cfg.Queries, cache: cfg.Cache}
}

// RestaurantView is the public restaurant payload.
type RestaurantView struct {
	ID           string  `json:"id"`
	Slug         string  `json:"slug"`
	Name         string  `json:"name"`
	Description  *string `json:"description,omitempty"`
	LogoURL      *string `json:"logoUrl,omitempty"`
	ContactEmail *string `json:"contactEmail,omitempty"`
	ContactPhone *string `json:"contactPhone,omitempty"`
}

// BranchView is the public branch payload.
type BranchView struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Address *string `json:"address,omitempty"`
	Phone   *string `json:"phone,omitempty"`
	IsOpen  bool    `json:"isOpen"`
}

// AddonView is an optional extra offered on a menu item.
type AddonView struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Price int64  `json:"price"`
}

// MenuItemView is a sellable dish with its add-ons.
type MenuItemView struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description *string     `json:"description,omitempty"`
	Category    string      `json:"category"`
	Price       int64       `json:"price"`
	ImageURL    *string     `json:"imageUrl,omitempty"`
	Available   bool        `json:"available"`
	Addons      []AddonView `json:"addons,omitempty"`
}

// MenuSection groups menu items under one category heading.
type MenuSection struct {
	Category string         `json:"category"`
	Items    []MenuItemView `json:"items"`
}

func textPtr(t pgtype.Text) *string {
	if !t.Valid {
		return nil
	}
	s := t.String
	return &s
}

func restaurantView(r store.Restaurant) RestaurantView {
	return RestaurantView{
		ID:           store.UUIDString(r.ID),
		Slug:         r.Slug,
		Name:         r.Name,
		Description:  textPtr(r.Description),
		LogoURL:      textPtr(r.LogoURL),
		ContactEmail: textPtr(r.ContactEmail),
		ContactPhone: textPtr(r.ContactPhone),
	}
}

func menuItemView(m store.MenuItem, addons []store.Addon) MenuItemView {
	view := MenuItemView{
		ID:          store.UUIDString(m.ID),
		Name:        m.Name,
		Description: textPtr(m.Description),
		Price:       m.Price,
		ImageURL:    textPtr(m.ImageURL),
		Available:   m.Available,
	}
	if m.Category.Valid {
		view.Category = m.Category.String
	}
	for _, a := range addons {
		view.Addons = append(view.Addons, AddonView{
			ID:    store.UUIDString(a.ID),
			Name:  a.Name,
			Price: a.Price,
		})
	}
	return view
}

// Restaurants lists every restaurant on the platform.
func (s *Service) Restaurants(ctx context.Context) ([]RestaurantView, error) {
	rows, err := s.queries.ListRestaurants(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]RestaurantView, 0, len(rows))
	for _, r := range rows {
		views = append(views, restaurantView(r))
	}
	return views, nil
}

// Restaurant loads one restaurant by slug, cached.
func (s *Service) Restaurant(ctx context.Context, slug string) (RestaurantView, error) {
	key := cache.KeyRestaurant(slug)
	var cached RestaurantView
	if ok, err := s.cache.GetJSON(ctx, key, &cached); err == nil && ok {
		return cached, nil
	}
	row, err := s.queries.GetRestaurantBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return RestaurantView{}, common.NewAppError(common.KindNotFound, "NOT_FOUND", "restaurant not found", http.StatusNotFound, nil)
		}
		return RestaurantView{}, err
	}
	view := restaurantView(row)
	_ = s.cache.SetJSON(ctx, key, view)
	return view, nil
}

// Branches lists the branches of the restaurant identified by slug.
func (s *Service) Branches(ctx context.Context, slug string) ([]BranchView, error) {
	key := cache.KeyBranches(slug)
	var cached []BranchView
	if ok, err := s.cache.GetJSON(ctx, key, &cached); err == nil && ok {
		return cached, nil
	}
	restaurant, err := s.queries.GetRestaurantBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.NewAppError(common.KindNotFound, "NOT_FOUND", "restaurant not found", http.StatusNotFound, nil)
		}
		return nil, err
	}
	rows, err := s.queries.ListBranchesByRestaurant(ctx, restaurant.ID)
	if err != nil {
		return nil, err
	}
	views := make([]BranchView, 0, len(rows))
	for _, b := range rows {
		views = append(views, BranchView{
			ID:      store.UUIDString(b.ID),
			Name:    b.Name,
			Address: textPtr(b.Address),
			Phone:   textPtr(b.Phone),
			IsOpen:  b.IsOpen,
		})
	}
	_ = s.cache.SetJSON(ctx, key, views)
	return views, nil
}

// Menu returns the available menu of the restaurant in the request scope,
// grouped by category in listing order. The payload is cached per restaurant.
func (s *Service) Menu(ctx context.Context) ([]MenuSection, error) {
	slug, ok := tenant.FromContext(ctx)
	if !ok {
		return nil, common.NewAppError(common.KindInputValidation, "RESTAURANT_REQUIRED", "restaurant scope missing", http.StatusBadRequest, nil)
	}
	key := cache.KeyMenu(ctx)
	var cached []MenuSection
	if ok, err := s.cache.GetJSON(ctx, key, &cached); err == nil && ok {
		return cached, nil
	}
	restaurant, err := s.queries.GetRestaurantBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.NewAppError(common.KindNotFound, "NOT_FOUND", "restaurant not found", http.StatusNotFound, nil)
		}
		return nil, err
	}
	items, err := s.queries.ListMenuItems(ctx, restaurant.ID)
	if err != nil {
		return nil, err
	}
	sections := make([]MenuSection, 0)
	for _, m := range items {
		addons, err := s.queries.ListAddonsForMenuItem(ctx, m.ID)
		if err != nil {
			return nil, err
		}
		view := menuItemView(m, addons)
		if n := len(sections); n > 0 && sections[n-1].Category == view.Category {
			sections[n-1].Items = append(sections[n-1].Items, view)
			continue
		}
		sections = append(sections, MenuSection{Category: view.Category, Items: []MenuItemView{view}})
	}
	_ = s.cache.SetJSON(ctx, key, sections)
	return sections, nil
}

// MenuItem loads one menu item with its add-ons.
func (s *Service) MenuItem(ctx context.Context, id pgtype.UUID) (MenuItemView, error) {
	key := cache.KeyMenuItem(ctx, store.UUIDString(id))
	var cached MenuItemView
	if ok, err := s.cache.GetJSON(ctx, key, &cached); err == nil && ok {
		return cached, nil
	}
	item, err := s.queries.GetMenuItemByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return MenuItemView{}, common.NewAppError(common.KindNotFound, "NOT_FOUND", "menu item not found", http.StatusNotFound, nil)
		}
		return MenuItemView{}, err
	}
	addons, err := s.queries.ListAddonsForMenuItem(ctx, item.ID)
	if err != nil {
		return MenuItemView{}, err
	}
	view := menuItemView(item, addons)
	_ = s.cache.SetJSON(ctx, key, view)
	return view, nil
}

// MenuItemInput carries the admin-editable fields of a menu item.
type MenuItemInput struct {
	Name        string  `json:"name" validate:"required,min=1,max=120"`
	Description *string `json:"description"`
	Category    *string `json:"category"`
	Price       int64   `json:"price" validate:"gte=0"`
	ImageURL    *string `json:"imageUrl" validate:"omitempty,url"`
	Available   *bool   `json:"available"`
}

// CreateItem inserts a menu item for the restaurant and drops the cached
// menu.
func (s *Service) CreateItem(ctx context.Context, restaurantID pgtype.UUID, in MenuItemInput) (MenuItemView, error) {
	available := true
	if in.Available != nil {
		available = *in.Available
	}
	item, err := s.queries.CreateMenuItem(ctx, store.CreateMenuItemParams{
		RestaurantID: restaurantID,
		Name:         in.Name,
		Description:  store.TextOrNull(in.Description),
		Category:     store.TextOrNull(in.Category),
		Price:        in.Price,
		ImageURL:     store.TextOrNull(in.ImageURL),
		Available:    available,
	})
	if err != nil {
		return MenuItemView{}, err
	}
	_ = s.cache.Invalidate(ctx, cache.KeyMenu(ctx))
	return menuItemView(item, nil), nil
}

// UpdateItem mutates a menu item and drops its cached views.
func (s *Service) UpdateItem(ctx context.Context, id pgtype.UUID, in MenuItemInput) (MenuItemView, error) {
	available := true
	if in.Available != nil {
		available = *in.Available
	}
	item, err := s.queries.UpdateMenuItem(ctx, store.UpdateMenuItemParams{
		ID:          id,
		Name:        in.Name,
		Description: store.TextOrNull(in.Description),
		Category:    store.TextOrNull(in.Category),
		Price:       in.Price,
		ImageURL:    store.TextOrNull(in.ImageURL),
		Available:   available,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return MenuItemView{}, common.NewAppError(common.KindNotFound, "NOT_FOUND", "menu item not found", http.StatusNotFound, nil)
		}
		return MenuItemView{}, err
	}
	_ = s.cache.Invalidate(ctx, cache.KeyMenu(ctx), cache.KeyMenuItem(ctx, store.UUIDString(id)))
	addons, err := s.queries.ListAddonsForMenuItem(ctx, item.ID)
	if err != nil {
		return MenuItemView{}, err
	}
	return menuItemView(item, addons), nil
}

// DeleteItem removes a menu item and drops its cached views.
func (s *Service) DeleteItem(ctx context.Context, id pgtype.UUID) error {
	if err := s.queries.DeleteMenuItem(ctx, id); err != nil {
		return err
	}
	return s.cache.Invalidate(ctx, cache.KeyMenu(ctx), cache.KeyMenuItem(ctx, store.UUIDString(id)))
}
