package favorites

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/noah-isme/backend-resto/internal/store"
)

type favKey struct{ user, item pgtype.UUID }

type stubQuerier struct {
	items map[pgtype.UUID]store.MenuItem
	marks map[favKey]bool
}

func (s *stubQuerier) GetMenuItemByID(_ context.Context, id pgtype.UUID) (store.MenuItem, error) {
	item, ok := s.items[id]
	if !ok {
		return store.MenuItem{}, pgx.ErrNoRows
	}
	return item, nil
}

func (s *stubQuerier) AddFavorite(_ context.Context, userID, menuItemID pgtype.UUID) error {
	s.marks[favKey{userID, menuItemID}] = true
	return nil
}

func (s *stubQuerier) RemoveFavorite(_ context.Context, userID, menuItemID pgtype.UUID) error {
	delete(s.marks, favKey{userID, menuItemID})
	return nil
}

func (s *stubQuerier) ListFavoriteMenuItems(_ context.Context, userID pgtype.UUID) ([]store.MenuItem, error) {
	var out []store.MenuItem
	for key := range s.marks {
		if key.user == userID {
			out = append(out, s.items[key.item])
		}
	}
	return out, nil
}

func (s *stubQuerier) IsFavorite(_ context.Context, userID, menuItemID pgtype.UUID) (bool, error) {
	return s.marks[favKey{userID, menuItemID}], nil
}

func testUUID(b byte) pgtype.UUID {
	var id pgtype.UUID
	id.Valid = true
	id.Bytes[0] = b
	return id
}

func TestToggleFlipsState(t *testing.T) {
	item := testUUID(1)
	user := testUUID(2)
	st := &stubQuerier{
		items: map[pgtype.UUID]store.MenuItem{item: {ID: item, Name: "Nasi Goreng"}},
		marks: map[favKey]bool{},
	}
	svc := &Service{Q: st}

	marked, err := svc.Toggle(context.Background(), user, item)
	if err != nil || !marked {
		t.Fatalf("first toggle = (%v, %v), want (true, nil)", marked, err)
	}
	listed, err := svc.List(context.Background(), user)
	if err != nil || len(listed) != 1 {
		t.Fatalf("list after mark = (%d, %v), want one item", len(listed), err)
	}

	marked, err = svc.Toggle(context.Background(), user, item)
	if err != nil || marked {
		t.Fatalf("second toggle = (%v, %v), want (false, nil)", marked, err)
	}
	listed, _ = svc.List(context.Background(), user)
	if len(listed) != 0 {
		t.Fatalf("list after unmark = %d items, want 0", len(listed))
	}
}

func TestToggleUnknownItemSurfacesNotFound(t *testing.T) {
	svc := &Service{Q: &stubQuerier{items: map[pgtype.UUID]store.MenuItem{}, marks: map[favKey]bool{}}}
	if _, err := svc.Toggle(context.Background(), testUUID(1), testUUID(9)); !errors.Is(err, pgx.ErrNoRows) {
		t.Fatalf("err = %v, want pgx.ErrNoRows", err)
	}
}
