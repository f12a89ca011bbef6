package rbac

import (
	"context"
	"errors"
	"fmt"

	"starterkit.dev/internal/ids"
)

// Seed installs the baseline roles (admin, moderator, user) and the builtin
// permission catalog, then wires the grants. It is safe to re-run: existing
// rows are detected by unique name and left untouched.
func (s *Service) Seed(ctx context.Context) error {
	permsByName := make(map[string]*Permission, len(BuiltinPermissions))
	for _, spec := range BuiltinPermissions {
		perm, err := s.ensurePermission(ctx, spec)
		if err != nil {
			return fmt.Errorf("seed permission %s: %w", spec.Name, err)
		}
		permsByName[perm.Name] = perm
	}

	for _, roleName := range []string{RoleAdmin, RoleModerator, RoleUser} {
		role, err := s.ensureRole(ctx, roleName, baselineDescriptions[roleName])
		if err != nil {
			return fmt.Errorf("seed role %s: %w", roleName, err)
		}

		var grants []string
		if roleName == RoleAdmin {
			for _, spec := range BuiltinPermissions {
				grants = append(grants, spec.Name)
			}
		} else {
			grants = baselineGrants[roleName]
		}

		for _, permName := range grants {
			perm, ok := permsByName[permName]
			if !ok {
				return fmt.Errorf("seed: unknown permission %s for role %s", permName, roleName)
			}
			grant := &RolePermission{RoleID: role.ID, PermissionID: perm.ID, CreatedAt: s.now().UTC()}
			if err := s.store.UpsertRolePermission(ctx, grant); err != nil {
				return fmt.Errorf("seed grant %s -> %s: %w", roleName, permName, err)
			}
		}
	}

	s.audit.Record(ctx, "rbac.seed", "rbac", "", "success", map[string]any{
		"roles":       3,
		"permissions": len(BuiltinPermissions),
	})
	return nil
}

func (s *Service) ensureRole(ctx context.Context, name, description string) (*Role, error) {
	role, err := s.store.RoleByName(ctx, name)
	if err == nil {
		return role, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	role = &Role{
		ID:          ids.New(),
		Name:        name,
		Description: description,
		CreatedAt:   s.now().UTC(),
		UpdatedAt:   s.now().UTC(),
	}
	if err := s.store.CreateRole(ctx, role); err != nil {
		return nil, err
	}
	return role, nil
}

func (s *Service) ensurePermission(ctx context.Context, spec PermissionSpec) (*Permission, error) {
	perm, err := s.store.PermissionByName(ctx, spec.Name)
	if err == nil {
		return perm, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	perm = &Permission{
		ID:          ids.New(),
		Name:        spec.Name,
		Description: spec.Description,
		Resource:    spec.Resource,
		Action:      spec.Action,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.store.CreatePermission(ctx, perm); err != nil {
		return nil, err
	}
	return perm, nil
}
