package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/noah-isme/backend-resto/internal/common"
	"github.com/noah-isme/backend-resto/internal/store"
)

const (
	defaultAccessTTL  = 15 * time.Minute
	defaultRefreshTTL = 7 * 24 * time.Hour

	roleClaim = "role"
)

// Querier captures the database methods the auth service requires.
type Querier interface {
	CreateUser(ctx context.Context, arg store.CreateUserParams) (store.User, error)
	GetUserByEmail(ctx context.Context, email string) (store.User, error)
	GetUserByID(ctx context.Context, id pgtype.UUID) (store.User, error)
	CreateSession(ctx context.Context, arg store.CreateSessionParams) (store.Session, error)
	GetSessionByTokenHash(ctx context.Context, tokenHash string) (store.Session, error)
	RotateSessionToken(ctx context.Context, id pgtype.UUID, tokenHash string, expiresAt pgtype.Timestamptz) error
	DeleteSessionByTokenHash(ctx context.Context, tokenHash string) error
}

// Service coordinates credentials, JWT issuance, and refresh sessions.
type Service struct {
	queries    Querier
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	issuer     string
	audience   string
	clockSkew  time.Duration
	now        func() time.Time
}

// Config configures the auth service.
type Config struct {
	Queries         Querier
	Secret          string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	Issuer          string
	Audience        string
	ClockSkew       time.Duration
}

// User is the safe subset of an account returned to clients.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// Identity is the result of parsing an access token.
type Identity struct {
	UserID string
	Role   store.UserRole
}

// LoginResult bundles token material returned after a successful login.
type LoginResult struct {
	User          User      `json:"user"`
	AccessToken   string    `json:"accessToken"`
	RefreshToken  string    `json:"refreshToken"`
	AccessExpiry  time.Time `json:"accessExpiresAt"`
	RefreshExpiry time.Time `json:"refreshExpiresAt"`
}

// RefreshResult represents the outcome of a refresh operation.
type RefreshResult struct {
	AccessToken   string    `json:"accessToken"`
	AccessExpiry  time.Time `json:"accessExpiresAt"`
	RefreshToken  string    `json:"refreshToken"`
	RefreshExpiry time.Time `json:"refreshExpiresAt"`
}

// NewService constructs a Service with sane defaults.
func NewService(cfg Config) (*Service, error) {
	if cfg.Queries == nil {
		return nil, errors.New("auth: queries is required")
	}
	secret := strings.TrimSpace(cfg.Secret)
	if secret == "" {
		return nil, errors.New("auth: secret is required")
	}
	accessTTL := cfg.AccessTokenTTL
	if accessTTL <= 0 {
		accessTTL = defaultAccessTTL
	}
	refreshTTL := cfg.RefreshTokenTTL
	if refreshTTL <= 0 {
		refreshTTL = defaultRefreshTTL
	}
	issuer := strings.TrimSpace(cfg.Issuer)
	if issuer == "" {
		issuer = "backend-resto"
	}
	audience := strings.TrimSpace(cfg.Audience)
	if audience == "" {
		audience = "resto-frontend"
	}
	clockSkew := cfg.ClockSkew
	if clockSkew < 0 {
		clockSkew = 0
	}
	return &Service{
		queries:    cfg.Queries,
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		issuer:     issuer,
		audience:   audience,
		clockSkew:  clockSkew,
		now:        time.Now,
	}, nil
}

// WithNow allows tests to override the time provider.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Register creates a customer account with the supplied credentials.
func (s *Service) Register(ctx context.Context, name, email, password string) (User, error) {
	if strings.TrimSpace(name) == "" {
		return User{}, common.NewAppError(common.KindInputValidation, "VALIDATION_FAILED", "name is required", http.StatusBadRequest, nil)
	}
	normalized := strings.TrimSpace(strings.ToLower(email))
	if normalized == "" {
		return User{}, common.NewAppError(common.KindInputValidation, "VALIDATION_FAILED", "email is required", http.StatusBadRequest, nil)
	}
	if len(password) < 8 {
		return User{}, common.NewAppError(common.KindInputValidation, "VALIDATION_FAILED", "password must be at least 8 characters", http.StatusBadRequest, nil)
	}
	hash, err := argon2id.CreateHash(password, argon2id.DefaultParams)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}
	created, err := s.queries.CreateUser(ctx, store.CreateUserParams{
		Email:        normalized,
		Name:         strings.TrimSpace(name),
		PasswordHash: hash,
		Role:         store.RoleCustomer,
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return User{}, common.NewAppError(common.KindInputValidation, "EMAIL_ALREADY_USED", "email is already registered", http.StatusConflict, err)
		}
		return User{}, fmt.Errorf("create user: %w", err)
	}
	return userView(created), nil
}

// Login verifies credentials and issues a JWT/refresh token pair.
func (s *Service) Login(ctx context.Context, email, password, userAgent, ip string) (LoginResult, error) {
	normalized := strings.TrimSpace(strings.ToLower(email))
	if normalized == "" || password == "" {
		return LoginResult{}, invalidCredentials(nil)
	}
	account, err := s.queries.GetUserByEmail(ctx, normalized)
	if err != nil {
		return LoginResult{}, invalidCredentials(err)
	}
	ok, err := argon2id.ComparePasswordAndHash(password, account.PasswordHash)
	if err != nil || !ok {
		return LoginResult{}, invalidCredentials(err)
	}
	accessToken, accessExpiry, err := s.signAccessToken(account)
	if err != nil {
		return LoginResult{}, fmt.Errorf("sign access token: %w", err)
	}
	refreshToken, refreshExpiry, err := s.createSession(ctx, account.ID, userAgent, ip)
	if err != nil {
		return LoginResult{}, fmt.Errorf("create session: %w", err)
	}
	return LoginResult{
		User:          userView(account),
		AccessToken:   accessToken,
		RefreshToken:  refreshToken,
		AccessExpiry:  accessExpiry,
		RefreshExpiry: refreshExpiry,
	}, nil
}

// Logout revokes the refresh token.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	token := strings.TrimSpace(refreshToken)
	if token == "" {
		return nil
	}
	return s.queries.DeleteSessionByTokenHash(ctx, hashRefreshToken(token))
}

// Refresh validates and rotates a refresh token, issuing a new pair.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (RefreshResult, error) {
	token := strings.TrimSpace(refreshToken)
	if token == "" {
		return RefreshResult{}, invalidRefresh(nil)
	}
	hashed := hashRefreshToken(token)
	session, err := s.queries.GetSessionByTokenHash(ctx, hashed)
	if err != nil {
		return RefreshResult{}, invalidRefresh(err)
	}
	if !session.ExpiresAt.Valid || s.now().After(session.ExpiresAt.Time) {
		_ = s.queries.DeleteSessionByTokenHash(ctx, hashed)
		return RefreshResult{}, invalidRefresh(nil)
	}
	account, err := s.queries.GetUserByID(ctx, session.UserID)
	if err != nil {
		_ = s.queries.DeleteSessionByTokenHash(ctx, hashed)
		return RefreshResult{}, invalidRefresh(err)
	}
	accessToken, accessExpiry, err := s.signAccessToken(account)
	if err != nil {
		return RefreshResult{}, fmt.Errorf("sign access token: %w", err)
	}
	newRefresh, err := generateToken(32)
	if err != nil {
		return RefreshResult{}, fmt.Errorf("generate refresh token: %w", err)
	}
	refreshExpiry := s.now().Add(s.refreshTTL)
	if err := s.queries.RotateSessionToken(ctx, session.ID, hashRefreshToken(newRefresh), store.Timestamptz(refreshExpiry)); err != nil {
		_ = s.queries.DeleteSessionByTokenHash(ctx, hashed)
		return RefreshResult{}, fmt.Errorf("rotate session token: %w", err)
	}
	return RefreshResult{
		AccessToken:   accessToken,
		AccessExpiry:  accessExpiry,
		RefreshToken:  newRefresh,
		RefreshExpiry: refreshExpiry,
	}, nil
}

// Me fetches the current authenticated user.
func (s *Service) Me(ctx context.Context, userID string) (User, error) {
	id, err := store.UUIDFromString(strings.TrimSpace(userID))
	if err != nil {
		return User{}, common.NewAppError(common.KindNotFound, "UNAUTHORIZED", "unauthorized", http.StatusUnauthorized, err)
	}
	account, err := s.queries.GetUserByID(ctx, id)
	if err != nil {
		return User{}, common.NewAppError(common.KindNotFound, "UNAUTHORIZED", "unauthorized", http.StatusUnauthorized, err)
	}
	return userView(account), nil
}

// ParseAccessToken verifies the JWT signature and claims and returns the
// caller's identity.
func (s *Service) ParseAccessToken(token string) (Identity, error) {
	options := []jwt.ParseOption{
		jwt.WithKey(jwa.HS256, s.secret),
		jwt.WithValidate(true),
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
		jwt.WithClock(jwt.ClockFunc(s.now)),
	}
	if s.clockSkew > 0 {
		options = append(options, jwt.WithAcceptableSkew(s.clockSkew))
	}
	parsed, err := jwt.Parse([]byte(token), options...)
	if err != nil {
		return Identity{}, common.NewAppError(common.KindNotFound, "UNAUTHORIZED", "invalid token", http.StatusUnauthorized, err)
	}
	identity := Identity{UserID: parsed.Subject()}
	if raw, ok := parsed.Get(roleClaim); ok {
		if role, ok := raw.(string); ok {
			identity.Role = store.UserRole(role)
		}
	}
	if identity.UserID == "" {
		return Identity{}, common.NewAppError(common.KindNotFound, "UNAUTHORIZED", "invalid token", http.StatusUnauthorized, nil)
	}
	return identity, nil
}

func (s *Service) signAccessToken(account store.User) (string, time.Time, error) {
	now := s.now()
	expiry := now.Add(s.accessTTL)
	token, err := jwt.NewBuilder().
		Subject(store.UUIDString(account.ID)).
		Issuer(s.issuer).
		Audience([]string{s.audience}).
		IssuedAt(now).
		Expiration(expiry).
		Claim(roleClaim, string(account.Role)).
		Build()
	if err != nil {
		return "", time.Time{}, err
	}
	signed, err := jwt.Sign(token, jwt.WithKey(jwa.HS256, s.secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return string(signed), expiry, nil
}

func (s *Service) createSession(ctx context.Context, userID pgtype.UUID, userAgent, ip string) (string, time.Time, error) {
	token, err := generateToken(32)
	if err != nil {
		return "", time.Time{}, err
	}
	expiry := s.now().Add(s.refreshTTL)
	var ua, addr *string
	if userAgent != "" {
		ua = &userAgent
	}
	if ip != "" {
		addr = &ip
	}
	_, err = s.queries.CreateSession(ctx, store.CreateSessionParams{
		UserID:    userID,
		TokenHash: hashRefreshToken(token),
		UserAgent: store.TextOrNull(ua),
		IP:        store.TextOrNull(addr),
		ExpiresAt: store.Timestamptz(expiry),
	})
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiry, nil
}

func userView(u store.User) User {
	return User{
		ID:        store.UUIDString(u.ID),
		Name:      u.Name,
		Email:     u.Email,
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt.Time,
	}
}

func invalidCredentials(err error) error {
	return common.NewAppError(common.KindInputValidation, "INVALID_CREDENTIALS", "invalid email or password", http.StatusUnauthorized, err)
}

func invalidRefresh(err error) error {
	return common.NewAppError(common.KindInputValidation, "UNAUTHORIZED", "invalid refresh token", http.StatusUnauthorized, err)
}

func generateToken(size int) (string, error) {
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func hashRefreshToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
