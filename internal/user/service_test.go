package user

import (
	"context"
	"testing"

	"github.com/alexedwards/argon2id"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/noah-isme/backend-resto/internal/store"
)

type stubQuerier struct {
	account         store.User
	updatedName     string
	updatedHash     string
	revokedSessions int
}

func (s *stubQuerier) GetUserByID(context.Context, pgtype.UUID) (store.User, error) {
	return s.account, nil
}

func (s *stubQuerier) UpdateUserName(_ context.Context, _ pgtype.UUID, name string) (store.User, error) {
	s.updatedName = name
	out := s.account
	out.Name = name
	return out, nil
}

func (s *stubQuerier) UpdateUserPassword(_ context.Context, _ pgtype.UUID, hash string) error {
	s.updatedHash = hash
	return nil
}

func (s *stubQuerier) DeleteSessionsForUser(context.Context, pgtype.UUID) error {
	s.revokedSessions++
	return nil
}

func testUUID(b byte) pgtype.UUID {
	var id pgtype.UUID
	id.Valid = true
	id.Bytes[0] = b
	return id
}

func TestUpdateNameTrims(t *testing.T) {
	st := &stubQuerier{account: store.User{Email: "budi@example.com", Role: store.RoleCustomer}}
	svc := &Service{Q: st}

	profile, err := svc.UpdateName(context.Background(), testUUID(1), "  Budi S  ")
	if err != nil {
		t.Fatalf("update name: %v", err)
	}
	if profile.Name != "Budi S" || st.updatedName != "Budi S" {
		t.Fatalf("name = %q / %q, want trimmed", profile.Name, st.updatedName)
	}
}

func TestUpdateNameRejectsTooShort(t *testing.T) {
	svc := &Service{Q: &stubQuerier{}}
	if _, err := svc.UpdateName(context.Background(), testUUID(1), " x "); err == nil {
		t.Fatal("expected validation error for one-character name")
	}
}

func TestChangePasswordRevokesSessions(t *testing.T) {
	hash, err := argon2id.CreateHash("oldpassword", argon2id.DefaultParams)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	st := &stubQuerier{account: store.User{PasswordHash: hash}}
	svc := &Service{Q: st}

	if err := svc.ChangePassword(context.Background(), testUUID(1), "oldpassword", "newpassword"); err != nil {
		t.Fatalf("change password: %v", err)
	}
	if st.updatedHash == "" || st.updatedHash == hash {
		t.Fatal("expected a fresh password hash")
	}
	if st.revokedSessions != 1 {
		t.Fatalf("revoked sessions = %d, want 1", st.revokedSessions)
	}

	ok, err := argon2id.ComparePasswordAndHash("newpassword", st.updatedHash)
	if err != nil || !ok {
		t.Fatalf("new password does not verify: ok=%v err=%v", ok, err)
	}
}

func TestChangePasswordRejectsWrongCurrent(t *testing.T) {
	hash, err := argon2id.CreateHash("oldpassword", argon2id.DefaultParams)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	st := &stubQuerier{account: store.User{PasswordHash: hash}}
	svc := &Service{Q: st}

	if err := svc.ChangePassword(context.Background(), testUUID(1), "guess", "newpassword"); err == nil {
		t.Fatal("expected rejection for wrong current password")
	}
	if st.updatedHash != "" || st.revokedSessions != 0 {
		t.Fatal("password must not change after a failed verification")
	}
}
