package cache

import (
	"context"

	"github.com/noah-isme/backend-resto/internal/tenant"
)

// KeyMenu returns the restaurant-scoped cache key for the menu listing.
func KeyMenu(ctx context.Context) string {
	slug, ok := tenant.FromContext(ctx)
	if !ok {
		return "menu"
	}
	return slug + ":menu"
}

// KeyMenuItem returns the restaurant-scoped key for one menu item.
func KeyMenuItem(ctx context.Context, id string) string {
	slug, ok := tenant.FromContext(ctx)
	if !ok {
		return "menu-item:" + id
	}
	return slug + ":menu-item:" + id
}

// KeyRestaurant returns the key for a restaurant profile by slug.
func KeyRestaurant(slug string) string {
	return "restaurant:" + slug
}

// KeyBranches returns the restaurant-scoped key for the branch listing.
func KeyBranches(slug string) string {
	return slug + ":branches"
}
