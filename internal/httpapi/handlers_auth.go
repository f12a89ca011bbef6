package httpapi

import (
	"errors"
	"net/http"
	"time"

	"starterkit.dev/internal/auth"
)

type signUpRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

func (a *API) handleSignUp(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req signUpRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	user, err := a.auth.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		a.audit.Record(r.Context(), "user.register", "user", "", "failure", map[string]any{
			"email": req.Email,
		})
		handleAuthError(w, r, err)
		return
	}

	a.audit.Record(r.Context(), "user.register", "user", user.ID, "success", map[string]any{
		"email": user.Email,
	})
	writeJSON(w, http.StatusCreated, map[string]any{"user": user})
}

func (a *API) handleSignIn(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req signInRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	ip, ua := requestClient(r)
	session, user, err := a.auth.Login(r.Context(), req.Email, req.Password, ip, ua)
	if err != nil {
		a.audit.Record(r.Context(), "user.login", "user", "", "failure", map[string]any{
			"email": req.Email,
		})
		handleAuthError(w, r, err)
		return
	}

	a.setSessionCookie(w, session)
	a.audit.Record(r.Context(), "user.login", "user", user.ID, "success", map[string]any{
		"email": user.Email,
	})
	writeJSON(w, http.StatusOK, map[string]any{
		"user":       user,
		"expires_at": session.ExpiresAt,
	})
}

func (a *API) handleSignOut(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	if cookie, err := r.Cookie(a.cfg.SessionCookieName); err == nil && cookie.Value != "" {
		if _, user, err := a.auth.GetSession(r.Context(), cookie.Value); err == nil {
			defer a.audit.Record(r.Context(), "user.logout", "user", user.ID, "success", nil)
		}
		if err := a.auth.Logout(r.Context(), cookie.Value); err != nil {
			handleAuthError(w, r, err)
			return
		}
	}

	a.clearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (a *API) handleSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	session, user, err := a.sessionUser(r)
	if err != nil {
		// The session endpoint is public; no session is a normal answer.
		writeJSON(w, http.StatusOK, map[string]any{"user": nil})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"user":       user,
		"expires_at": session.ExpiresAt,
	})
}

// handleForgotPassword always answers 202: whether the address exists must
// not be observable.
func (a *API) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req forgotPasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	token, err := a.auth.StartPasswordReset(r.Context(), req.Email, []byte(a.cfg.ResetTokenSecret))
	if err == nil && token != "" {
		// Delivery is the mailer's job; out of scope here. The audit trail
		// records that a reset was requested.
		a.audit.Record(r.Context(), "user.password_reset_request", "user", "", "success", map[string]any{
			"email": req.Email,
		})
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"status": "ok"})
}

func (a *API) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req resetPasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	userID, err := a.auth.CompletePasswordReset(r.Context(), req.Token, req.Password, []byte(a.cfg.ResetTokenSecret))
	if err != nil {
		a.audit.Record(r.Context(), "user.password_reset", "user", "", "failure", nil)
		if errors.Is(err, auth.ErrInvalidToken) {
			writeError(w, r, http.StatusBadRequest, "invalid or expired reset token")
			return
		}
		handleAuthError(w, r, err)
		return
	}

	a.audit.Record(r.Context(), "user.password_reset", "user", userID, "success", nil)
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (a *API) setSessionCookie(w http.ResponseWriter, session *auth.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     a.cfg.SessionCookieName,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		Secure:   a.cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	})
}

func (a *API) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     a.cfg.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   a.cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	})
}

func requestClient(r *http.Request) (ip, userAgent string) {
	return clientIP(r.Header), r.UserAgent()
}
