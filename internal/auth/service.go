package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"starterkit.dev/internal/ids"
)

const (
	defaultSessionTTL = 7 * 24 * time.Hour

	minPasswordLength = 8
	maxPasswordLength = 128
)

// Service owns registration, login and session lookup. The gatekeeper only
// checks cookie presence; handlers behind it call GetSession for the real
// validity check.
type Service struct {
	store      Store
	sessionTTL time.Duration
	now        func() time.Time
}

// Option configures Service.
type Option func(*Service)

// WithSessionTTL overrides the session lifetime.
func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.sessionTTL = ttl
		}
	}
}

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) Option {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewService constructs the session service.
func NewService(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("auth store is required")
	}
	s := &Service{store: store, sessionTTL: defaultSessionTTL, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Register creates a user with a hashed password credential.
func (s *Service) Register(ctx context.Context, name, email, password string) (*User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(strings.ToLower(email))
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: valid email is required", ErrInvalidInput)
	}
	if len(password) < minPasswordLength || len(password) > maxPasswordLength {
		return nil, fmt.Errorf("%w: password must be %d-%d characters", ErrInvalidInput, minPasswordLength, maxPasswordLength)
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	nowUTC := s.now().UTC()
	user := &User{
		ID:           ids.New(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    nowUTC,
		UpdatedAt:    nowUTC,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	account := &Account{
		ID:           ids.New(),
		AccountID:    email,
		ProviderID:   providerCredential,
		UserID:       user.ID,
		PasswordHash: hash,
		CreatedAt:    nowUTC,
		UpdatedAt:    nowUTC,
	}
	if err := s.store.CreateAccount(ctx, account); err != nil {
		return nil, err
	}
	return user, nil
}

// Login verifies credentials and opens a session. The returned session
// carries the raw token; only its hash is stored.
func (s *Service) Login(ctx context.Context, email, password, ip, userAgent string) (*Session, *User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return nil, nil, fmt.Errorf("%w: email and password are required", ErrInvalidInput)
	}

	user, err := s.store.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, err
	}
	if err := VerifyPassword(user.PasswordHash, password); err != nil {
		return nil, nil, ErrInvalidCredentials
	}

	token, err := newSessionToken()
	if err != nil {
		return nil, nil, err
	}
	nowUTC := s.now().UTC()
	session := &Session{
		ID:        ids.New(),
		TokenHash: hashToken(token),
		ExpiresAt: nowUTC.Add(s.sessionTTL),
		IPAddress: ip,
		UserAgent: userAgent,
		UserID:    user.ID,
		CreatedAt: nowUTC,
		Token:     token,
	}
	if err := s.store.CreateSession(ctx, session); err != nil {
		return nil, nil, err
	}
	return session, user, nil
}

// Logout revokes the session identified by the raw token. Unknown tokens are
// ignored; logging out twice is not an error.
func (s *Service) Logout(ctx context.Context, token string) error {
	if strings.TrimSpace(token) == "" {
		return nil
	}
	session, err := s.store.SessionByTokenHash(ctx, hashToken(token))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}
	return s.store.DeleteSession(ctx, session.ID)
}

// GetSession resolves a raw token to a live session and its user.
func (s *Service) GetSession(ctx context.Context, token string) (*Session, *User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, nil, ErrInvalidToken
	}
	session, err := s.store.SessionByTokenHash(ctx, hashToken(token))
	if err != nil {
		return nil, nil, err
	}
	if !session.ExpiresAt.After(s.now().UTC()) {
		_ = s.store.DeleteSession(ctx, session.ID)
		return nil, nil, ErrSessionExpired
	}
	user, err := s.store.UserByID(ctx, session.UserID)
	if err != nil {
		return nil, nil, err
	}
	return session, user, nil
}

// UpdateProfile changes the display name and avatar reference.
func (s *Service) UpdateProfile(ctx context.Context, userID, name, image string) (*User, error) {
	userID = strings.TrimSpace(userID)
	name = strings.TrimSpace(name)
	if userID == "" {
		return nil, fmt.Errorf("%w: user_id is required", ErrInvalidInput)
	}
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	user, err := s.store.UserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.Name = name
	user.Image = strings.TrimSpace(image)
	user.UpdatedAt = s.now().UTC()
	if err := s.store.UpdateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// ChangePassword verifies the current password before storing a new hash on
// both the user row and the credential account.
func (s *Service) ChangePassword(ctx context.Context, userID, current, next string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return fmt.Errorf("%w: user_id is required", ErrInvalidInput)
	}
	if len(next) < minPasswordLength || len(next) > maxPasswordLength {
		return fmt.Errorf("%w: password must be %d-%d characters", ErrInvalidInput, minPasswordLength, maxPasswordLength)
	}
	user, err := s.store.UserByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := VerifyPassword(user.PasswordHash, current); err != nil {
		return ErrInvalidCredentials
	}

	hash, err := HashPassword(next)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	user.UpdatedAt = s.now().UTC()
	if err := s.store.UpdateUser(ctx, user); err != nil {
		return err
	}

	account, err := s.store.CredentialAccount(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}
	account.PasswordHash = hash
	account.UpdatedAt = s.now().UTC()
	return s.store.UpdateAccount(ctx, account)
}

// ListUsers returns registered users for the admin surface.
func (s *Service) ListUsers(ctx context.Context, limit int) ([]User, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	return s.store.ListUsers(ctx, limit)
}

// StartPasswordReset issues a signed reset token for the account behind the
// given email. A missing account returns an empty token and no error so the
// caller can keep the response uniform.
func (s *Service) StartPasswordReset(ctx context.Context, email string, secret []byte) (string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return "", fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	user, err := s.store.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", nil
		}
		return "", err
	}
	return GenerateResetToken(user.ID, secret)
}

// CompletePasswordReset validates the token and replaces the password without
// requiring the current one. Returns the affected user id.
func (s *Service) CompletePasswordReset(ctx context.Context, token, next string, secret []byte) (string, error) {
	userID, err := VerifyResetToken(token, secret)
	if err != nil {
		return "", err
	}
	if len(next) < minPasswordLength || len(next) > maxPasswordLength {
		return "", fmt.Errorf("%w: password must be %d-%d characters", ErrInvalidInput, minPasswordLength, maxPasswordLength)
	}
	user, err := s.store.UserByID(ctx, userID)
	if err != nil {
		return "", err
	}

	hash, err := HashPassword(next)
	if err != nil {
		return "", err
	}
	user.PasswordHash = hash
	user.UpdatedAt = s.now().UTC()
	if err := s.store.UpdateUser(ctx, user); err != nil {
		return "", err
	}

	account, err := s.store.CredentialAccount(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return user.ID, nil
		}
		return "", err
	}
	account.PasswordHash = hash
	account.UpdatedAt = s.now().UTC()
	if err := s.store.UpdateAccount(ctx, account); err != nil {
		return "", err
	}
	return user.ID, nil
}

// SweepExpiredSessions deletes sessions that have passed their expiry.
func (s *Service) SweepExpiredSessions(ctx context.Context) (int64, error) {
	return s.store.DeleteExpiredSessions(ctx, s.now().UTC())
}

func newSessionToken() (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
