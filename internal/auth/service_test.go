package auth

import (
	"context"
	"errors"
	"testing"
	"time"
)

// memStore is an in-memory Store for service tests.
type memStore struct {
	users    map[string]*User
	accounts map[string]*Account
	sessions map[string]*Session
}

func newMemStore() *memStore {
	return &memStore{
		users:    map[string]*User{},
		accounts: map[string]*Account{},
		sessions: map[string]*Session{},
	}
}

func (m *memStore) CreateUser(_ context.Context, u *User) error {
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return ErrConflict
		}
	}
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *memStore) UserByID(_ context.Context, id string) (*User, error) {
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, ErrNotFound
}

func (m *memStore) UserByEmail(_ context.Context, email string) (*User, error) {
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memStore) UpdateUser(_ context.Context, u *User) error {
	if _, ok := m.users[u.ID]; !ok {
		return ErrNotFound
	}
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *memStore) ListUsers(_ context.Context, limit int) ([]User, error) {
	out := make([]User, 0, len(m.users))
	for _, u := range m.users {
		if len(out) >= limit {
			break
		}
		out = append(out, *u)
	}
	return out, nil
}

func (m *memStore) CreateAccount(_ context.Context, acc *Account) error {
	cp := *acc
	m.accounts[acc.ID] = &cp
	return nil
}

func (m *memStore) CredentialAccount(_ context.Context, userID string) (*Account, error) {
	for _, acc := range m.accounts {
		if acc.UserID == userID && acc.ProviderID == providerCredential {
			cp := *acc
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memStore) UpdateAccount(_ context.Context, acc *Account) error {
	if _, ok := m.accounts[acc.ID]; !ok {
		return ErrNotFound
	}
	cp := *acc
	m.accounts[acc.ID] = &cp
	return nil
}

func (m *memStore) CreateSession(_ context.Context, s *Session) error {
	cp := *s
	cp.Token = ""
	m.sessions[s.ID] = &cp
	return nil
}

func (m *memStore) SessionByTokenHash(_ context.Context, tokenHash string) (*Session, error) {
	for _, s := range m.sessions {
		if s.TokenHash == tokenHash {
			cp := *s
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memStore) DeleteSession(_ context.Context, id string) error {
	delete(m.sessions, id)
	return nil
}

func (m *memStore) DeleteExpiredSessions(_ context.Context, before time.Time) (int64, error) {
	var n int64
	for id, s := range m.sessions {
		if !s.ExpiresAt.After(before) {
			delete(m.sessions, id)
			n++
		}
	}
	return n, nil
}

func newTestService(t *testing.T, store Store, opts ...Option) *Service {
	t.Helper()
	svc, err := NewService(store, opts...)
	if err != nil {
		t.Fatal(err)
	}
	return svc
}

func TestRegisterAndLogin(t *testing.T) {
	store := newMemStore()
	svc := newTestService(t, store)
	ctx := context.Background()

	user, err := svc.Register(ctx, "Ada", "Ada@Example.com", "correct-horse")
	if err != nil {
		t.Fatal(err)
	}
	if user.Email != "ada@example.com" {
		t.Fatalf("email should be normalized, got %q", user.Email)
	}
	if user.PasswordHash == "correct-horse" {
		t.Fatal("password must not be stored in the clear")
	}
	if _, err := store.CredentialAccount(ctx, user.ID); err != nil {
		t.Fatalf("credential account missing: %v", err)
	}

	session, got, err := svc.Login(ctx, "ada@example.com", "correct-horse", "1.2.3.4", "go-test")
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != user.ID {
		t.Fatalf("login returned wrong user %q", got.ID)
	}
	if session.Token == "" {
		t.Fatal("login must return the raw token")
	}
	if session.TokenHash == session.Token {
		t.Fatal("stored hash must differ from the raw token")
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := newTestService(t, newMemStore())
	ctx := context.Background()

	cases := []struct {
		name     string
		userName string
		email    string
		password string
	}{
		{"empty name", "", "a@b.c", "long-enough"},
		{"bad email", "Ada", "not-an-email", "long-enough"},
		{"short password", "Ada", "a@b.c", "short"},
	}
	for _, c := range cases {
		if _, err := svc.Register(ctx, c.userName, c.email, c.password); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("%s: expected ErrInvalidInput, got %v", c.name, err)
		}
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := newTestService(t, newMemStore())
	ctx := context.Background()

	if _, err := svc.Register(ctx, "Ada", "a@b.c", "long-enough"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Register(ctx, "Bob", "a@b.c", "also-long-enough"); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	svc := newTestService(t, newMemStore())
	ctx := context.Background()

	if _, err := svc.Register(ctx, "Ada", "a@b.c", "long-enough"); err != nil {
		t.Fatal(err)
	}
	if _, _, err := svc.Login(ctx, "a@b.c", "wrong-password", "", ""); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, _, err := svc.Login(ctx, "ghost@b.c", "long-enough", "", ""); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown email should look like bad credentials, got %v", err)
	}
}

func TestSessionExpiry(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	store := newMemStore()
	svc := newTestService(t, store, WithSessionTTL(time.Hour), WithClock(clock))
	ctx := context.Background()

	if _, err := svc.Register(ctx, "Ada", "a@b.c", "long-enough"); err != nil {
		t.Fatal(err)
	}
	session, _, err := svc.Login(ctx, "a@b.c", "long-enough", "", "")
	if err != nil {
		t.Fatal(err)
	}

	if _, _, err := svc.GetSession(ctx, session.Token); err != nil {
		t.Fatalf("fresh session should resolve: %v", err)
	}

	now = now.Add(2 * time.Hour)
	if _, _, err := svc.GetSession(ctx, session.Token); !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}
	// The expired session was deleted on sight.
	if len(store.sessions) != 0 {
		t.Fatal("expired session should be removed")
	}
}

func TestLogoutIsIdempotent(t *testing.T) {
	svc := newTestService(t, newMemStore())
	ctx := context.Background()

	if _, err := svc.Register(ctx, "Ada", "a@b.c", "long-enough"); err != nil {
		t.Fatal(err)
	}
	session, _, err := svc.Login(ctx, "a@b.c", "long-enough", "", "")
	if err != nil {
		t.Fatal(err)
	}

	if err := svc.Logout(ctx, session.Token); err != nil {
		t.Fatal(err)
	}
	if err := svc.Logout(ctx, session.Token); err != nil {
		t.Fatalf("second logout must be a no-op, got %v", err)
	}
	if _, _, err := svc.GetSession(ctx, session.Token); err == nil {
		t.Fatal("session should be gone after logout")
	}
}

func TestChangePassword(t *testing.T) {
	store := newMemStore()
	svc := newTestService(t, store)
	ctx := context.Background()

	user, err := svc.Register(ctx, "Ada", "a@b.c", "old-password")
	if err != nil {
		t.Fatal(err)
	}

	if err := svc.ChangePassword(ctx, user.ID, "wrong", "new-password-1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if err := svc.ChangePassword(ctx, user.ID, "old-password", "new-password-1"); err != nil {
		t.Fatal(err)
	}
	if _, _, err := svc.Login(ctx, "a@b.c", "new-password-1", "", ""); err != nil {
		t.Fatalf("login with new password failed: %v", err)
	}
	if _, _, err := svc.Login(ctx, "a@b.c", "old-password", "", ""); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatal("old password must no longer work")
	}

	// The credential account hash follows the user.
	acc, err := store.CredentialAccount(ctx, user.ID)
	if err != nil {
		t.Fatal(err)
	}
	if err := VerifyPassword(acc.PasswordHash, "new-password-1"); err != nil {
		t.Fatal("account hash was not rotated")
	}
}

func TestPasswordResetFlow(t *testing.T) {
	secret := []byte("test-secret")
	store := newMemStore()
	svc := newTestService(t, store)
	ctx := context.Background()

	user, err := svc.Register(ctx, "Ada", "a@b.c", "old-password")
	if err != nil {
		t.Fatal(err)
	}

	token, err := svc.StartPasswordReset(ctx, "a@b.c", secret)
	if err != nil {
		t.Fatal(err)
	}
	if token == "" {
		t.Fatal("expected a reset token for a known account")
	}

	// Unknown accounts produce no token and no error.
	ghost, err := svc.StartPasswordReset(ctx, "ghost@b.c", secret)
	if err != nil || ghost != "" {
		t.Fatalf("unknown account: token=%q err=%v", ghost, err)
	}

	userID, err := svc.CompletePasswordReset(ctx, token, "brand-new-password", secret)
	if err != nil {
		t.Fatal(err)
	}
	if userID != user.ID {
		t.Fatalf("reset touched wrong user %q", userID)
	}
	if _, _, err := svc.Login(ctx, "a@b.c", "brand-new-password", "", ""); err != nil {
		t.Fatalf("login with reset password failed: %v", err)
	}

	if _, err := svc.CompletePasswordReset(ctx, "garbage", "whatever-password", secret); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestSweepExpiredSessions(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	store := newMemStore()
	svc := newTestService(t, store, WithSessionTTL(time.Hour), WithClock(clock))
	ctx := context.Background()

	if _, err := svc.Register(ctx, "Ada", "a@b.c", "long-enough"); err != nil {
		t.Fatal(err)
	}
	if _, _, err := svc.Login(ctx, "a@b.c", "long-enough", "", ""); err != nil {
		t.Fatal(err)
	}

	now = now.Add(3 * time.Hour)
	n, err := svc.SweepExpiredSessions(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("expected 1 swept session, got %d", n)
	}
}
