package address

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/noah-isme/backend-resto/internal/store"
)

type stubQuerier struct {
	rows   map[pgtype.UUID]store.Address
	nextID byte
}

func (s *stubQuerier) CreateAddress(_ context.Context, arg store.CreateAddressParams) (store.Address, error) {
	s.nextID++
	row := store.Address{
		ID:         testUUID(s.nextID),
		UserID:     arg.UserID,
		Street:     arg.Street,
		City:       arg.City,
		State:      arg.State,
		PostalCode: arg.PostalCode,
		IsDefault:  arg.IsDefault,
	}
	s.rows[row.ID] = row
	return row, nil
}

func (s *stubQuerier) ListAddressesByUser(_ context.Context, userID pgtype.UUID) ([]store.Address, error) {
	var out []store.Address
	for _, row := range s.rows {
		if row.UserID == userID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (s *stubQuerier) UpdateAddress(_ context.Context, arg store.UpdateAddressParams) (store.Address, error) {
	row, ok := s.rows[arg.ID]
	if !ok || row.UserID != arg.UserID {
		return store.Address{}, pgx.ErrNoRows
	}
	row.Street = arg.Street
	row.City = arg.City
	row.State = arg.State
	row.PostalCode = arg.PostalCode
	row.IsDefault = arg.IsDefault
	s.rows[arg.ID] = row
	return row, nil
}

func (s *stubQuerier) ClearDefaultAddress(_ context.Context, userID pgtype.UUID) error {
	for id, row := range s.rows {
		if row.UserID == userID && row.IsDefault {
			row.IsDefault = false
			s.rows[id] = row
		}
	}
	return nil
}

func (s *stubQuerier) DeleteAddress(_ context.Context, id, userID pgtype.UUID) error {
	row, ok := s.rows[id]
	if !ok || row.UserID != userID {
		return pgx.ErrNoRows
	}
	delete(s.rows, id)
	return nil
}

func testUUID(b byte) pgtype.UUID {
	var id pgtype.UUID
	id.Valid = true
	id.Bytes[0] = b
	return id
}

func newService() (*Service, *stubQuerier) {
	st := &stubQuerier{rows: map[pgtype.UUID]store.Address{}, nextID: 0x10}
	return &Service{Q: st}, st
}

func TestCreateRequiresCoreFields(t *testing.T) {
	svc, _ := newService()
	user := testUUID(1)

	cases := []Input{
		{City: "Jakarta", PostalCode: "10110"},
		{Street: "Jl. Sudirman 1", PostalCode: "10110"},
		{Street: "Jl. Sudirman 1", City: "Jakarta"},
		{Street: "  ", City: "Jakarta", PostalCode: "10110"},
	}
	for i, in := range cases {
		if _, err := svc.Create(context.Background(), user, in); !errors.Is(err, ErrInvalid) {
			t.Errorf("case %d: err = %v, want ErrInvalid", i, err)
		}
	}
}

func TestCreateDefaultDisplacesPrevious(t *testing.T) {
	svc, st := newService()
	user := testUUID(1)

	first, err := svc.Create(context.Background(), user, Input{
		Street: "Jl. Sudirman 1", City: "Jakarta", PostalCode: "10110", IsDefault: true,
	})
	if err != nil {
		t.Fatalf("create first: %v", err)
	}
	second, err := svc.Create(context.Background(), user, Input{
		Street: "Jl. Thamrin 9", City: "Jakarta", PostalCode: "10230", IsDefault: true,
	})
	if err != nil {
		t.Fatalf("create second: %v", err)
	}

	if st.rows[first.ID].IsDefault {
		t.Fatal("first address kept its default mark")
	}
	if !st.rows[second.ID].IsDefault {
		t.Fatal("second address did not become the default")
	}
}

func TestUpdateScopedToOwner(t *testing.T) {
	svc, _ := newService()
	owner := testUUID(1)
	intruder := testUUID(2)

	row, err := svc.Create(context.Background(), owner, Input{
		Street: "Jl. Sudirman 1", City: "Jakarta", PostalCode: "10110",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = svc.Update(context.Background(), intruder, row.ID, Input{
		Street: "Hijacked 1", City: "Elsewhere", PostalCode: "00000",
	})
	if !errors.Is(err, pgx.ErrNoRows) {
		t.Fatalf("foreign update err = %v, want pgx.ErrNoRows", err)
	}

	updated, err := svc.Update(context.Background(), owner, row.ID, Input{
		Street: "Jl. Sudirman 2", City: "Jakarta", PostalCode: "10110",
	})
	if err != nil || updated.Street != "Jl. Sudirman 2" {
		t.Fatalf("owner update = (%q, %v)", updated.Street, err)
	}
}

func TestDeleteScopedToOwner(t *testing.T) {
	svc, st := newService()
	owner := testUUID(1)

	row, err := svc.Create(context.Background(), owner, Input{
		Street: "Jl. Sudirman 1", City: "Jakarta", PostalCode: "10110",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.Delete(context.Background(), testUUID(2), row.ID); !errors.Is(err, pgx.ErrNoRows) {
		t.Fatalf("foreign delete err = %v, want pgx.ErrNoRows", err)
	}
	if err := svc.Delete(context.Background(), owner, row.ID); err != nil {
		t.Fatalf("owner delete: %v", err)
	}
	if len(st.rows) != 0 {
		t.Fatalf("rows remaining = %d", len(st.rows))
	}
}
