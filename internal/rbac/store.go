package rbac

import "context"

// Store describes persistence operations required by the access control model.
// Implementations must provide upsert semantics for the join tables so that
// concurrent assignment cannot produce duplicate rows.
type Store interface {
	CreateRole(ctx context.Context, role *Role) error
	RoleByID(ctx context.Context, id string) (*Role, error)
	RoleByName(ctx context.Context, name string) (*Role, error)
	ListRoles(ctx context.Context) ([]Role, error)

	CreatePermission(ctx context.Context, perm *Permission) error
	PermissionByID(ctx context.Context, id string) (*Permission, error)
	PermissionByName(ctx context.Context, name string) (*Permission, error)
	ListPermissions(ctx context.Context) ([]Permission, error)

	UserExists(ctx context.Context, userID string) (bool, error)

	// UpsertUserRole inserts the assignment, ignoring an existing
	// (user, role) row.
	UpsertUserRole(ctx context.Context, assignment *UserRole) error
	// UpsertRolePermission inserts the grant, ignoring an existing
	// (role, permission) row.
	UpsertRolePermission(ctx context.Context, grant *RolePermission) error

	RolesForUser(ctx context.Context, userID string) ([]Role, error)
	PermissionsForUser(ctx context.Context, userID string) ([]Permission, error)
}

// AuditSink receives security-relevant events emitted by mutating operations.
type AuditSink interface {
	Record(ctx context.Context, action, resource, resourceID, status string, details map[string]any)
}

// nopSink is used when no audit sink is configured.
type nopSink struct{}

func (nopSink) Record(context.Context, string, string, string, string, map[string]any) {}
