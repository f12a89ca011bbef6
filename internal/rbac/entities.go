package rbac

import (
	"time"

	"github.com/uptrace/bun"
)

// Role groups permissions under a unique name.
type Role struct {
	bun.BaseModel `bun:"table:roles,alias:role"`

	ID          string    `bun:"id,pk" json:"id"`
	Name        string    `bun:"name,unique,notnull" json:"name"`
	Description string    `bun:"description" json:"description,omitempty"`
	CreatedAt   time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt   time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"`
}

// Permission is an atomic (resource, action) capability.
type Permission struct {
	bun.BaseModel `bun:"table:permissions,alias:perm"`

	ID          string    `bun:"id,pk" json:"id"`
	Name        string    `bun:"name,unique,notnull" json:"name"`
	Description string    `bun:"description" json:"description,omitempty"`
	Resource    string    `bun:"resource,notnull" json:"resource"`
	Action      string    `bun:"action,notnull" json:"action"`
	CreatedAt   time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
}

// RolePermission links a role to a permission. At most one row per pair.
type RolePermission struct {
	bun.BaseModel `bun:"table:role_permissions,alias:rp"`

	RoleID       string    `bun:"role_id,pk" json:"role_id"`
	PermissionID string    `bun:"permission_id,pk" json:"permission_id"`
	CreatedAt    time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
}

// UserRole assigns a role to a user, with optional attribution of who
// performed the assignment. At most one row per (user, role) pair.
type UserRole struct {
	bun.BaseModel `bun:"table:user_roles,alias:ur"`

	UserID     string    `bun:"user_id,pk" json:"user_id"`
	RoleID     string    `bun:"role_id,pk" json:"role_id"`
	AssignedAt time.Time `bun:"assigned_at,nullzero,notnull,default:current_timestamp" json:"assigned_at"`
	AssignedBy string    `bun:"assigned_by,nullzero" json:"assigned_by,omitempty"`
}
