package rbac

// Permission actions. "manage" subsumes the four CRUD actions on the same
// resource; that rule lives in ActionSatisfies and nowhere else.
const (
	ActionCreate = "create"
	ActionRead   = "read"
	ActionUpdate = "update"
	ActionDelete = "delete"
	ActionManage = "manage"
)

// ActionSatisfies reports whether a granted action covers the requested one.
func ActionSatisfies(granted, requested string) bool {
	if granted == requested {
		return true
	}
	if granted != ActionManage {
		return false
	}
	switch requested {
	case ActionCreate, ActionRead, ActionUpdate, ActionDelete:
		return true
	}
	return false
}

// PermissionSpec describes a catalog entry before it has an id.
type PermissionSpec struct {
	Name        string
	Resource    string
	Action      string
	Description string
}

// BuiltinPermissions is the permission catalog installed by Seed.
var BuiltinPermissions = []PermissionSpec{
	{Name: "users.create", Resource: "users", Action: ActionCreate, Description: "Create new users"},
	{Name: "users.read", Resource: "users", Action: ActionRead, Description: "View users"},
	{Name: "users.update", Resource: "users", Action: ActionUpdate, Description: "Edit users"},
	{Name: "users.delete", Resource: "users", Action: ActionDelete, Description: "Delete users"},

	{Name: "content.create", Resource: "content", Action: ActionCreate, Description: "Create content"},
	{Name: "content.read", Resource: "content", Action: ActionRead, Description: "View content"},
	{Name: "content.update", Resource: "content", Action: ActionUpdate, Description: "Edit content"},
	{Name: "content.delete", Resource: "content", Action: ActionDelete, Description: "Delete content"},
	{Name: "content.manage", Resource: "content", Action: ActionManage, Description: "Full content control"},

	{Name: "files.create", Resource: "files", Action: ActionCreate, Description: "Upload files"},
	{Name: "files.read", Resource: "files", Action: ActionRead, Description: "View files"},
	{Name: "files.delete", Resource: "files", Action: ActionDelete, Description: "Delete files"},

	{Name: "settings.read", Resource: "settings", Action: ActionRead, Description: "View settings"},
	{Name: "settings.update", Resource: "settings", Action: ActionUpdate, Description: "Edit settings"},

	{Name: "dashboard.read", Resource: "dashboard", Action: ActionRead, Description: "Access dashboard"},

	{Name: "audit.read", Resource: "audit", Action: ActionRead, Description: "View audit logs"},
}

// Baseline roles created by Seed.
const (
	RoleAdmin     = "admin"
	RoleModerator = "moderator"
	RoleUser      = "user"
)

// baselineGrants maps each baseline role to permission names. The admin role
// receives the whole catalog and is handled separately.
var baselineGrants = map[string][]string{
	RoleModerator: {
		"content.manage",
		"users.read",
		"audit.read",
	},
	RoleUser: {
		"content.read",
		"files.create",
	},
}

var baselineDescriptions = map[string]string{
	RoleAdmin:     "Full system access",
	RoleModerator: "Content moderation access",
	RoleUser:      "Standard user access",
}
