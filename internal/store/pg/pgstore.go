// Package pg persists the application schema in PostgreSQL through the bun
// ORM, using the pgx driver underneath.
package pg

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"starterkit.dev/internal/audit"
	"starterkit.dev/internal/auth"
	"starterkit.dev/internal/files"
	"starterkit.dev/internal/rbac"
)

const (
	pgErrUniqueViolation     = "23505"
	pgErrForeignKeyViolation = "23503"
)

// Store implements the persistence interfaces of the auth, rbac, audit and
// files packages over one connection pool.
type Store struct {
	db *bun.DB
}

var (
	_ rbac.Store  = (*Store)(nil)
	_ auth.Store  = (*Store)(nil)
	_ audit.Store = (*Store)(nil)
	_ files.Store = (*Store)(nil)
)

// Open connects to PostgreSQL and wraps the pool with bun.
func Open(dsn string) (*Store, error) {
	sqldb, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	// Tuned pool defaults; adjust under load tests
	sqldb.SetMaxOpenConns(50)
	sqldb.SetMaxIdleConns(25)
	sqldb.SetConnMaxLifetime(15 * time.Minute)
	sqldb.SetConnMaxIdleTime(5 * time.Minute)

	return &Store{db: bun.NewDB(sqldb, pgdialect.New())}, nil
}

// NewWithDB wraps an existing pool (used by tests with sqlmock).
func NewWithDB(sqldb *sql.DB) *Store {
	return &Store{db: bun.NewDB(sqldb, pgdialect.New())}
}

func (s *Store) Close() error { return s.db.Close() }

// DB exposes the underlying pool for readiness pings.
func (s *Store) DB() *sql.DB { return s.db.DB }

// CreateTables creates the full schema if absent. Order matters: referenced
// tables first.
func (s *Store) CreateTables(ctx context.Context) error {
	models := []struct {
		model any
		fks   []string
	}{
		{model: (*auth.User)(nil)},
		{model: (*auth.Session)(nil), fks: []string{`("user_id") REFERENCES "users" ("id") ON DELETE CASCADE`}},
		{model: (*auth.Account)(nil), fks: []string{`("user_id") REFERENCES "users" ("id") ON DELETE CASCADE`}},
		{model: (*auth.Verification)(nil)},
		{model: (*rbac.Role)(nil)},
		{model: (*rbac.Permission)(nil)},
		{model: (*rbac.RolePermission)(nil), fks: []string{
			`("role_id") REFERENCES "roles" ("id") ON DELETE CASCADE`,
			`("permission_id") REFERENCES "permissions" ("id") ON DELETE CASCADE`,
		}},
		{model: (*rbac.UserRole)(nil), fks: []string{
			`("user_id") REFERENCES "users" ("id") ON DELETE CASCADE`,
			`("role_id") REFERENCES "roles" ("id") ON DELETE CASCADE`,
		}},
		{model: (*audit.Entry)(nil)},
		{model: (*files.File)(nil), fks: []string{`("uploaded_by") REFERENCES "users" ("id") ON DELETE CASCADE`}},
	}

	for _, m := range models {
		q := s.db.NewCreateTable().Model(m.model).IfNotExists()
		for _, fk := range m.fks {
			q = q.ForeignKey(fk)
		}
		if _, err := q.Exec(ctx); err != nil {
			return err
		}
	}
	return nil
}

// DropTables removes the schema, dependents first. Used by the seed CLI's
// reset flag and by nothing else.
func (s *Store) DropTables(ctx context.Context) error {
	for _, model := range []any{
		(*files.File)(nil),
		(*audit.Entry)(nil),
		(*rbac.UserRole)(nil),
		(*rbac.RolePermission)(nil),
		(*rbac.Permission)(nil),
		(*rbac.Role)(nil),
		(*auth.Verification)(nil),
		(*auth.Account)(nil),
		(*auth.Session)(nil),
		(*auth.User)(nil),
	} {
		if _, err := s.db.NewDropTable().Model(model).IfExists().Exec(ctx); err != nil {
			return err
		}
	}
	return nil
}

func maybePgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr, true
	}
	return nil, false
}
