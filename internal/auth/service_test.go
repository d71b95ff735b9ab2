package auth

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/noah-isme/backend-resto/internal/common"
	"github.com/noah-isme/backend-resto/internal/store"
)

type stubQuerier struct {
	users    map[string]store.User
	sessions map[string]store.Session
	nextID   int
}

func newStubQuerier() *stubQuerier {
	return &stubQuerier{
		users:    map[string]store.User{},
		sessions: map[string]store.Session{},
	}
}

func (s *stubQuerier) uuid() pgtype.UUID {
	s.nextID++
	var id pgtype.UUID
	id.Valid = true
	id.Bytes[15] = byte(s.nextID)
	return id
}

func (s *stubQuerier) CreateUser(_ context.Context, arg store.CreateUserParams) (store.User, error) {
	if _, ok := s.users[arg.Email]; ok {
		return store.User{}, errors.New("duplicate")
	}
	u := store.User{
		ID:           s.uuid(),
		Email:        arg.Email,
		Name:         arg.Name,
		PasswordHash: arg.PasswordHash,
		Role:         arg.Role,
	}
	u.CreatedAt = store.Timestamptz(time.Now())
	s.users[arg.Email] = u
	return u, nil
}

func (s *stubQuerier) GetUserByEmail(_ context.Context, email string) (store.User, error) {
	u, ok := s.users[email]
	if !ok {
		return store.User{}, pgx.ErrNoRows
	}
	return u, nil
}

func (s *stubQuerier) GetUserByID(_ context.Context, id pgtype.UUID) (store.User, error) {
	for _, u := range s.users {
		if u.ID == id {
			return u, nil
		}
	}
	return store.User{}, pgx.ErrNoRows
}

func (s *stubQuerier) CreateSession(_ context.Context, arg store.CreateSessionParams) (store.Session, error) {
	sess := store.Session{
		ID:        s.uuid(),
		UserID:    arg.UserID,
		TokenHash: arg.TokenHash,
		ExpiresAt: arg.ExpiresAt,
	}
	s.sessions[arg.TokenHash] = sess
	return sess, nil
}

func (s *stubQuerier) GetSessionByTokenHash(_ context.Context, tokenHash string) (store.Session, error) {
	sess, ok := s.sessions[tokenHash]
	if !ok {
		return store.Session{}, pgx.ErrNoRows
	}
	return sess, nil
}

func (s *stubQuerier) RotateSessionToken(_ context.Context, id pgtype.UUID, tokenHash string, expiresAt pgtype.Timestamptz) error {
	for hash, sess := range s.sessions {
		if sess.ID == id {
			delete(s.sessions, hash)
			sess.TokenHash = tokenHash
			sess.ExpiresAt = expiresAt
			s.sessions[tokenHash] = sess
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (s *stubQuerier) DeleteSessionByTokenHash(_ context.Context, tokenHash string) error {
	delete(s.sessions, tokenHash)
	return nil
}

func newTestService(t *testing.T, q Querier) *Service {
	t.Helper()
	svc, err := NewService(Config{
		Queries: q,
		Secret:  "unit-test-secret-please-rotate",
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestRegisterAndLogin(t *testing.T) {
	q := newStubQuerier()
	svc := newTestService(t, q)
	ctx := context.Background()

	user, err := svc.Register(ctx, "Siti", "Siti@Example.com", "rahasia-123")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.Email != "siti@example.com" {
		t.Fatalf("email not normalized: %q", user.Email)
	}
	if user.Role != string(store.RoleCustomer) {
		t.Fatalf("expected CUSTOMER role, got %q", user.Role)
	}

	result, err := svc.Login(ctx, "siti@example.com", "rahasia-123", "go-test", "127.0.0.1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if result.AccessToken == "" || result.RefreshToken == "" {
		t.Fatal("expected both tokens")
	}

	identity, err := svc.ParseAccessToken(result.AccessToken)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if identity.UserID != user.ID {
		t.Fatalf("subject mismatch: %q vs %q", identity.UserID, user.ID)
	}
	if identity.Role != store.RoleCustomer {
		t.Fatalf("role claim mismatch: %q", identity.Role)
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	q := newStubQuerier()
	svc := newTestService(t, q)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "Siti", "siti@example.com", "rahasia-123"); err != nil {
		t.Fatalf("register: %v", err)
	}
	_, err := svc.Login(ctx, "siti@example.com", "salah-total", "", "")
	var appErr *common.AppError
	if !errors.As(err, &appErr) || appErr.Code != "INVALID_CREDENTIALS" {
		t.Fatalf("expected INVALID_CREDENTIALS, got %v", err)
	}
	if appErr.HTTPStatus != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", appErr.HTTPStatus)
	}
}

func TestLoginUnknownEmailLooksIdentical(t *testing.T) {
	q := newStubQuerier()
	svc := newTestService(t, q)

	_, err := svc.Login(context.Background(), "tidak-ada@example.com", "apapun", "", "")
	var appErr *common.AppError
	if !errors.As(err, &appErr) || appErr.Code != "INVALID_CREDENTIALS" {
		t.Fatalf("expected INVALID_CREDENTIALS, got %v", err)
	}
}

func TestRefreshRotatesToken(t *testing.T) {
	q := newStubQuerier()
	svc := newTestService(t, q)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "Siti", "siti@example.com", "rahasia-123"); err != nil {
		t.Fatalf("register: %v", err)
	}
	login, err := svc.Login(ctx, "siti@example.com", "rahasia-123", "", "")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	refreshed, err := svc.Refresh(ctx, login.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if refreshed.RefreshToken == login.RefreshToken {
		t.Fatal("refresh token was not rotated")
	}

	// The old token is dead after rotation.
	if _, err := svc.Refresh(ctx, login.RefreshToken); err == nil {
		t.Fatal("expected old refresh token to be rejected")
	}
	// The new one still works.
	if _, err := svc.Refresh(ctx, refreshed.RefreshToken); err != nil {
		t.Fatalf("new refresh token should be valid: %v", err)
	}
}

func TestRefreshExpiredSessionIsRevoked(t *testing.T) {
	q := newStubQuerier()
	svc := newTestService(t, q)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "Siti", "siti@example.com", "rahasia-123"); err != nil {
		t.Fatalf("register: %v", err)
	}
	login, err := svc.Login(ctx, "siti@example.com", "rahasia-123", "", "")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	svc.WithNow(func() time.Time { return time.Now().Add(30 * 24 * time.Hour) })
	if _, err := svc.Refresh(ctx, login.RefreshToken); err == nil {
		t.Fatal("expected expired refresh token to be rejected")
	}
	if len(q.sessions) != 0 {
		t.Fatalf("expected expired session to be deleted, %d remain", len(q.sessions))
	}
}

func TestParseAccessTokenRejectsGarbage(t *testing.T) {
	q := newStubQuerier()
	svc := newTestService(t, q)
	if _, err := svc.ParseAccessToken("not-a-jwt"); err == nil {
		t.Fatal("expected parse failure")
	}
}

func TestLogoutDeletesSession(t *testing.T) {
	q := newStubQuerier()
	svc := newTestService(t, q)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "Siti", "siti@example.com", "rahasia-123"); err != nil {
		t.Fatalf("register: %v", err)
	}
	login, err := svc.Login(ctx, "siti@example.com", "rahasia-123", "", "")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := svc.Logout(ctx, login.RefreshToken); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := svc.Refresh(ctx, login.RefreshToken); err == nil {
		t.Fatal("expected refresh to fail after logout")
	}
}
