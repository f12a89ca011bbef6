package rbac

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"starterkit.dev/internal/ids"
)

// Service answers "does subject S hold permission P" and maintains the
// role/permission graph. Absence of a grant authorizes nothing.
type Service struct {
	store Store
	audit AuditSink
	now   func() time.Time
}

// Option configures Service behavior.
type Option func(*Service)

// WithAuditSink routes mutation events to the given sink.
func WithAuditSink(sink AuditSink) Option {
	return func(s *Service) {
		if sink != nil {
			s.audit = sink
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

// NewService constructs the access control service.
func NewService(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("rbac store is required")
	}
	s := &Service{store: store, audit: nopSink{}, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// CreateRole stores a role with a unique name.
func (s *Service) CreateRole(ctx context.Context, name, description string) (*Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: role name is required", ErrInvalidInput)
	}
	role := &Role{
		ID:          ids.New(),
		Name:        name,
		Description: strings.TrimSpace(description),
		CreatedAt:   s.now().UTC(),
		UpdatedAt:   s.now().UTC(),
	}
	if err := s.store.CreateRole(ctx, role); err != nil {
		s.audit.Record(ctx, "role.create", "role", "", "failure", map[string]any{"name": name})
		return nil, err
	}
	s.audit.Record(ctx, "role.create", "role", role.ID, "success", map[string]any{"name": role.Name})
	return role, nil
}

// CreatePermission stores a permission with a unique name.
func (s *Service) CreatePermission(ctx context.Context, spec PermissionSpec) (*Permission, error) {
	spec.Name = strings.TrimSpace(spec.Name)
	spec.Resource = strings.TrimSpace(spec.Resource)
	spec.Action = strings.TrimSpace(strings.ToLower(spec.Action))
	if spec.Name == "" || spec.Resource == "" {
		return nil, fmt.Errorf("%w: permission name and resource are required", ErrInvalidInput)
	}
	switch spec.Action {
	case ActionCreate, ActionRead, ActionUpdate, ActionDelete, ActionManage:
	default:
		return nil, fmt.Errorf("%w: unsupported action %q", ErrInvalidInput, spec.Action)
	}
	perm := &Permission{
		ID:          ids.New(),
		Name:        spec.Name,
		Description: strings.TrimSpace(spec.Description),
		Resource:    spec.Resource,
		Action:      spec.Action,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.store.CreatePermission(ctx, perm); err != nil {
		s.audit.Record(ctx, "permission.create", "permission", "", "failure", map[string]any{"name": spec.Name})
		return nil, err
	}
	s.audit.Record(ctx, "permission.create", "permission", perm.ID, "success", map[string]any{"name": perm.Name})
	return perm, nil
}

// AssignRole gives the user the role. The operation is an idempotent upsert:
// assigning an already-held role leaves exactly one row in place.
func (s *Service) AssignRole(ctx context.Context, userID, roleID, assignedBy string) (*UserRole, error) {
	userID = strings.TrimSpace(userID)
	roleID = strings.TrimSpace(roleID)
	if userID == "" || roleID == "" {
		return nil, fmt.Errorf("%w: user_id and role_id are required", ErrInvalidInput)
	}

	exists, err := s.store.UserExists(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !exists {
		s.audit.Record(ctx, "role.assign", "user", userID, "failure", map[string]any{"role_id": roleID, "reason": "user not found"})
		return nil, fmt.Errorf("%w: user %s", ErrNotFound, userID)
	}
	if _, err := s.store.RoleByID(ctx, roleID); err != nil {
		if errors.Is(err, ErrNotFound) {
			s.audit.Record(ctx, "role.assign", "user", userID, "failure", map[string]any{"role_id": roleID, "reason": "role not found"})
			return nil, fmt.Errorf("%w: role %s", ErrNotFound, roleID)
		}
		return nil, err
	}

	assignment := &UserRole{
		UserID:     userID,
		RoleID:     roleID,
		AssignedAt: s.now().UTC(),
		AssignedBy: strings.TrimSpace(assignedBy),
	}
	if err := s.store.UpsertUserRole(ctx, assignment); err != nil {
		s.audit.Record(ctx, "role.assign", "user", userID, "failure", map[string]any{"role_id": roleID})
		return nil, err
	}
	s.audit.Record(ctx, "role.assign", "user", userID, "success", map[string]any{
		"role_id":     roleID,
		"assigned_by": assignment.AssignedBy,
	})
	return assignment, nil
}

// GrantPermission attaches the permission to the role, idempotently.
func (s *Service) GrantPermission(ctx context.Context, roleID, permissionID string) error {
	roleID = strings.TrimSpace(roleID)
	permissionID = strings.TrimSpace(permissionID)
	if roleID == "" || permissionID == "" {
		return fmt.Errorf("%w: role_id and permission_id are required", ErrInvalidInput)
	}
	if _, err := s.store.RoleByID(ctx, roleID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return fmt.Errorf("%w: role %s", ErrNotFound, roleID)
		}
		return err
	}
	if _, err := s.store.PermissionByID(ctx, permissionID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return fmt.Errorf("%w: permission %s", ErrNotFound, permissionID)
		}
		return err
	}
	grant := &RolePermission{RoleID: roleID, PermissionID: permissionID, CreatedAt: s.now().UTC()}
	if err := s.store.UpsertRolePermission(ctx, grant); err != nil {
		s.audit.Record(ctx, "permission.grant", "role", roleID, "failure", map[string]any{"permission_id": permissionID})
		return err
	}
	s.audit.Record(ctx, "permission.grant", "role", roleID, "success", map[string]any{"permission_id": permissionID})
	return nil
}

// ResolvePermissions returns the union of permissions across all roles held
// by the user. A user without roles resolves to an empty set.
func (s *Service) ResolvePermissions(ctx context.Context, userID string) ([]Permission, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("%w: user_id is required", ErrInvalidInput)
	}
	perms, err := s.store.PermissionsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if perms == nil {
		perms = []Permission{}
	}
	return perms, nil
}

// Authorize reports whether the user may perform action on resource. A grant
// matches exactly or via "manage" on the same resource.
func (s *Service) Authorize(ctx context.Context, userID, resource, action string) (bool, error) {
	resource = strings.TrimSpace(resource)
	action = strings.TrimSpace(strings.ToLower(action))
	if resource == "" || action == "" {
		return false, fmt.Errorf("%w: resource and action are required", ErrInvalidInput)
	}
	perms, err := s.ResolvePermissions(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, p := range perms {
		if p.Resource == resource && ActionSatisfies(p.Action, action) {
			return true, nil
		}
	}
	return false, nil
}

// RolesForUser lists roles currently held by the user.
func (s *Service) RolesForUser(ctx context.Context, userID string) ([]Role, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("%w: user_id is required", ErrInvalidInput)
	}
	return s.store.RolesForUser(ctx, userID)
}

// ListRoles returns all roles.
func (s *Service) ListRoles(ctx context.Context) ([]Role, error) {
	return s.store.ListRoles(ctx)
}
