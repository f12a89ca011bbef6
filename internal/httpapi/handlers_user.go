package httpapi

import (
	"net/http"
)

type updateProfileRequest struct {
	Name  string `json:"name"`
	Image string `json:"image"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func (a *API) handleProfile(w http.ResponseWriter, r *http.Request) {
	user, r, ok := a.requireUser(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		roles, err := a.rbac.RolesForUser(r.Context(), user.ID)
		if err != nil {
			handleRBACError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"user":  user,
			"roles": roles,
		})
	case http.MethodPatch:
		var req updateProfileRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		updated, err := a.auth.UpdateProfile(r.Context(), user.ID, req.Name, req.Image)
		if err != nil {
			handleAuthError(w, r, err)
			return
		}
		a.audit.Record(r.Context(), "user.profile_update", "user", user.ID, "success", nil)
		writeJSON(w, http.StatusOK, map[string]any{"user": updated})
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPatch)
	}
}

func (a *API) handlePassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		methodNotAllowed(w, r, http.MethodPut)
		return
	}
	user, r, ok := a.requireUser(w, r)
	if !ok {
		return
	}

	var req changePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := a.auth.ChangePassword(r.Context(), user.ID, req.CurrentPassword, req.NewPassword); err != nil {
		a.audit.Record(r.Context(), "user.password_change", "user", user.ID, "failure", nil)
		handleAuthError(w, r, err)
		return
	}
	a.audit.Record(r.Context(), "user.password_change", "user", user.ID, "success", nil)
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}
