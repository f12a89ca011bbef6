package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"starterkit.dev/internal/auth"
	"starterkit.dev/internal/rbac"
)

func (s *Store) CreateRole(ctx context.Context, role *rbac.Role) error {
	if _, err := s.db.NewInsert().Model(role).Exec(ctx); err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrUniqueViolation {
			return fmt.Errorf("%w: role %s", rbac.ErrConflict, role.Name)
		}
		return err
	}
	return nil
}

func (s *Store) RoleByID(ctx context.Context, id string) (*rbac.Role, error) {
	role := new(rbac.Role)
	err := s.db.NewSelect().Model(role).Where("role.id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, rbac.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return role, nil
}

func (s *Store) RoleByName(ctx context.Context, name string) (*rbac.Role, error) {
	role := new(rbac.Role)
	err := s.db.NewSelect().Model(role).Where("role.name = ?", name).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, rbac.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return role, nil
}

func (s *Store) ListRoles(ctx context.Context) ([]rbac.Role, error) {
	var roles []rbac.Role
	if err := s.db.NewSelect().Model(&roles).Order("name ASC").Scan(ctx); err != nil {
		return nil, err
	}
	return roles, nil
}

func (s *Store) CreatePermission(ctx context.Context, perm *rbac.Permission) error {
	if _, err := s.db.NewInsert().Model(perm).Exec(ctx); err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrUniqueViolation {
			return fmt.Errorf("%w: permission %s", rbac.ErrConflict, perm.Name)
		}
		return err
	}
	return nil
}

func (s *Store) PermissionByID(ctx context.Context, id string) (*rbac.Permission, error) {
	perm := new(rbac.Permission)
	err := s.db.NewSelect().Model(perm).Where("perm.id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, rbac.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return perm, nil
}

func (s *Store) PermissionByName(ctx context.Context, name string) (*rbac.Permission, error) {
	perm := new(rbac.Permission)
	err := s.db.NewSelect().Model(perm).Where("perm.name = ?", name).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, rbac.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return perm, nil
}

func (s *Store) ListPermissions(ctx context.Context) ([]rbac.Permission, error) {
	var perms []rbac.Permission
	if err := s.db.NewSelect().Model(&perms).Order("name ASC").Scan(ctx); err != nil {
		return nil, err
	}
	return perms, nil
}

func (s *Store) UserExists(ctx context.Context, userID string) (bool, error) {
	return s.db.NewSelect().Model((*auth.User)(nil)).Where("u.id = ?", userID).Exists(ctx)
}

// UpsertUserRole relies on the composite primary key: a duplicate assignment
// is a no-op, leaving exactly one row per (user, role) pair.
func (s *Store) UpsertUserRole(ctx context.Context, assignment *rbac.UserRole) error {
	_, err := s.db.NewInsert().
		Model(assignment).
		On("CONFLICT (user_id, role_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrForeignKeyViolation {
			return fmt.Errorf("%w: user or role", rbac.ErrNotFound)
		}
		return err
	}
	return nil
}

func (s *Store) UpsertRolePermission(ctx context.Context, grant *rbac.RolePermission) error {
	_, err := s.db.NewInsert().
		Model(grant).
		On("CONFLICT (role_id, permission_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrForeignKeyViolation {
			return fmt.Errorf("%w: role or permission", rbac.ErrNotFound)
		}
		return err
	}
	return nil
}

func (s *Store) RolesForUser(ctx context.Context, userID string) ([]rbac.Role, error) {
	var roles []rbac.Role
	err := s.db.NewSelect().
		Model(&roles).
		Join("JOIN user_roles AS ur ON ur.role_id = role.id").
		Where("ur.user_id = ?", userID).
		Order("name ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return roles, nil
}

// PermissionsForUser resolves the union of permissions across all roles held
// by the user, deduplicated.
func (s *Store) PermissionsForUser(ctx context.Context, userID string) ([]rbac.Permission, error) {
	var perms []rbac.Permission
	err := s.db.NewSelect().
		Model(&perms).
		Distinct().
		Join("JOIN role_permissions AS rp ON rp.permission_id = perm.id").
		Join("JOIN user_roles AS ur ON ur.role_id = rp.role_id").
		Where("ur.user_id = ?", userID).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return perms, nil
}
