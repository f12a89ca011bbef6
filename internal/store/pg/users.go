package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"starterkit.dev/internal/auth"
)

func (s *Store) CreateUser(ctx context.Context, u *auth.User) error {
	if _, err := s.db.NewInsert().Model(u).Exec(ctx); err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrUniqueViolation {
			return fmt.Errorf("%w: email %s", auth.ErrConflict, u.Email)
		}
		return err
	}
	return nil
}

func (s *Store) UserByID(ctx context.Context, id string) (*auth.User, error) {
	u := new(auth.User)
	err := s.db.NewSelect().Model(u).Where("u.id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Store) UserByEmail(ctx context.Context, email string) (*auth.User, error) {
	u := new(auth.User)
	err := s.db.NewSelect().Model(u).Where("u.email = ?", email).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Store) UpdateUser(ctx context.Context, u *auth.User) error {
	res, err := s.db.NewUpdate().
		Model(u).
		Column("name", "email", "email_verified", "image", "password", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return auth.ErrNotFound
	}
	return nil
}

func (s *Store) ListUsers(ctx context.Context, limit int) ([]auth.User, error) {
	var users []auth.User
	err := s.db.NewSelect().Model(&users).Order("created_at DESC").Limit(limit).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Store) CreateAccount(ctx context.Context, acc *auth.Account) error {
	_, err := s.db.NewInsert().Model(acc).Exec(ctx)
	return err
}

func (s *Store) CredentialAccount(ctx context.Context, userID string) (*auth.Account, error) {
	acc := new(auth.Account)
	err := s.db.NewSelect().
		Model(acc).
		Where("acc.user_id = ?", userID).
		Where("acc.provider_id = ?", "credential").
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return acc, nil
}

func (s *Store) UpdateAccount(ctx context.Context, acc *auth.Account) error {
	_, err := s.db.NewUpdate().
		Model(acc).
		Column("password", "access_token", "refresh_token", "updated_at").
		WherePK().
		Exec(ctx)
	return err
}

func (s *Store) CreateSession(ctx context.Context, sess *auth.Session) error {
	_, err := s.db.NewInsert().Model(sess).Exec(ctx)
	return err
}

func (s *Store) SessionByTokenHash(ctx context.Context, tokenHash string) (*auth.Session, error) {
	sess := new(auth.Session)
	err := s.db.NewSelect().Model(sess).Where("s.token_hash = ?", tokenHash).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *Store) DeleteSession(ctx context.Context, id string) error {
	_, err := s.db.NewDelete().Model((*auth.Session)(nil)).Where("s.id = ?", id).Exec(ctx)
	return err
}

func (s *Store) DeleteExpiredSessions(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.NewDelete().
		Model((*auth.Session)(nil)).
		Where("s.expires_at <= ?", before).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return n, nil
}
