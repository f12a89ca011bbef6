package httpapi

import (
	"net/http"
	"strconv"
	"strings"
)

type assignRoleRequest struct {
	RoleID string `json:"roleId"`
}

func (a *API) handleAdminUsers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	user, r, ok := a.requireUser(w, r)
	if !ok {
		return
	}
	if !a.requirePermission(w, r, user, "users", "read") {
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	users, err := a.auth.ListUsers(r.Context(), limit)
	if err != nil {
		handleAuthError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": users})
}

// handleAdminUserScoped serves /api/admin/users/{id}/roles and
// /api/admin/users/{id}/permissions.
func (a *API) handleAdminUserScoped(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/admin/users/")
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[0] == "" {
		http.NotFound(w, r)
		return
	}
	targetID, section := parts[0], parts[1]

	user, r, ok := a.requireUser(w, r)
	if !ok {
		return
	}

	switch section {
	case "roles":
		switch r.Method {
		case http.MethodGet:
			if !a.requirePermission(w, r, user, "users", "read") {
				return
			}
			roles, err := a.rbac.RolesForUser(r.Context(), targetID)
			if err != nil {
				handleRBACError(w, r, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"roles": roles})
		case http.MethodPost:
			if !a.requirePermission(w, r, user, "users", "update") {
				return
			}
			var req assignRoleRequest
			if err := decodeJSON(w, r, &req); err != nil {
				writeError(w, r, http.StatusBadRequest, err.Error())
				return
			}
			assignment, err := a.rbac.AssignRole(r.Context(), targetID, req.RoleID, user.ID)
			if err != nil {
				handleRBACError(w, r, err)
				return
			}
			writeJSON(w, http.StatusCreated, map[string]any{"assignment": assignment})
		default:
			methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
		}
	case "permissions":
		if r.Method != http.MethodGet {
			methodNotAllowed(w, r, http.MethodGet)
			return
		}
		if !a.requirePermission(w, r, user, "users", "read") {
			return
		}
		perms, err := a.rbac.ResolvePermissions(r.Context(), targetID)
		if err != nil {
			handleRBACError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"permissions": perms})
	default:
		http.NotFound(w, r)
	}
}

func (a *API) handleAdminRoles(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	user, r, ok := a.requireUser(w, r)
	if !ok {
		return
	}
	if !a.requirePermission(w, r, user, "users", "read") {
		return
	}

	roles, err := a.rbac.ListRoles(r.Context())
	if err != nil {
		handleRBACError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"roles": roles})
}

func (a *API) handleAdminAudit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	user, r, ok := a.requireUser(w, r)
	if !ok {
		return
	}
	if !a.requirePermission(w, r, user, "audit", "read") {
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := a.audit.List(r.Context(), limit)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "could not list audit entries")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}
