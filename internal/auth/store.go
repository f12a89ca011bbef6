package auth

import (
	"context"
	"time"
)

// Store describes persistence operations required by the session subsystem.
type Store interface {
	CreateUser(ctx context.Context, u *User) error
	UserByID(ctx context.Context, id string) (*User, error)
	UserByEmail(ctx context.Context, email string) (*User, error)
	UpdateUser(ctx context.Context, u *User) error
	ListUsers(ctx context.Context, limit int) ([]User, error)

	CreateAccount(ctx context.Context, acc *Account) error
	CredentialAccount(ctx context.Context, userID string) (*Account, error)
	UpdateAccount(ctx context.Context, acc *Account) error

	CreateSession(ctx context.Context, s *Session) error
	SessionByTokenHash(ctx context.Context, tokenHash string) (*Session, error)
	DeleteSession(ctx context.Context, id string) error
	DeleteExpiredSessions(ctx context.Context, before time.Time) (int64, error)
}
