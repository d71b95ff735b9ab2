package audit

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-resto/internal/store"
)

type stubStore struct {
	inserted []store.InsertAuditLogParams
}

func (s *stubStore) InsertAuditLog(_ context.Context, arg store.InsertAuditLogParams) error {
	s.inserted = append(s.inserted, arg)
	return nil
}

func (s *stubStore) ListAuditLogsByRestaurant(context.Context, pgtype.UUID, int32, int32) ([]store.AuditLog, error) {
	return nil, nil
}

func testUUID(b byte) pgtype.UUID {
	var id pgtype.UUID
	id.Valid = true
	id.Bytes[0] = b
	return id
}

func TestRecordPersistsEntry(t *testing.T) {
	st := &stubStore{}
	svc := &Service{Q: st, Logger: zerolog.Nop(), Enabled: true}

	svc.Record(context.Background(), Entry{
		UserID:       testUUID(1),
		RestaurantID: testUUID(2),
		Action:       "PATCH /api/v1/admin/restaurants/{restaurantID}/orders/{orderID}/status",
		Resource:     "orders",
		ResourceID:   "abc",
		Detail:       map[string]string{"status": "ACCEPTED"},
	})

	if len(st.inserted) != 1 {
		t.Fatalf("expected one insert, got %d", len(st.inserted))
	}
	got := st.inserted[0]
	if got.Resource != "orders" {
		t.Fatalf("unexpected resource %q", got.Resource)
	}
	if !got.ResourceID.Valid || got.ResourceID.String != "abc" {
		t.Fatalf("unexpected resource id %+v", got.ResourceID)
	}
	if string(got.Detail) != `{"status":"ACCEPTED"}` {
		t.Fatalf("unexpected detail %s", got.Detail)
	}
}

func TestRecordDisabledIsNoop(t *testing.T) {
	st := &stubStore{}
	svc := &Service{Q: st, Logger: zerolog.Nop(), Enabled: false}

	svc.Record(context.Background(), Entry{
		UserID:   testUUID(1),
		Action:   "POST /x",
		Resource: "coupons",
	})
	if len(st.inserted) != 0 {
		t.Fatalf("expected no inserts, got %d", len(st.inserted))
	}
}

func TestRecordSkipsEmptyAction(t *testing.T) {
	st := &stubStore{}
	svc := &Service{Q: st, Logger: zerolog.Nop(), Enabled: true}

	svc.Record(context.Background(), Entry{UserID: testUUID(1), Resource: "coupons"})
	if len(st.inserted) != 0 {
		t.Fatalf("expected no inserts, got %d", len(st.inserted))
	}
}
