package httpapi

import (
	"context"
	"database/sql"
	"net/http"

	"starterkit.dev/internal/audit"
	"starterkit.dev/internal/auth"
	"starterkit.dev/internal/config"
	"starterkit.dev/internal/files"
	"starterkit.dev/internal/obs"
	"starterkit.dev/internal/ratelimit"
	"starterkit.dev/internal/rbac"
)

// ReadyProbe reports readiness, pinging the database when configured.
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// Options bundles the collaborators the HTTP layer glues together.
type Options struct {
	Config     config.Config
	Auth       *auth.Service
	RBAC       *rbac.Service
	Files      *files.Service
	Audit      *audit.Recorder
	Limiter    *ratelimit.Limiter
	ReadyProbe ReadyProbe
	Version    string
}

// API is the HTTP layer.
type API struct {
	mux        *http.ServeMux
	cfg        config.Config
	auth       *auth.Service
	rbac       *rbac.Service
	files      *files.Service
	audit      *audit.Recorder
	gatekeeper *Gatekeeper
	readyProbe ReadyProbe
	version    string
}

// New wires routes and the gatekeeper.
func New(opts Options) *API {
	a := &API{
		mux:        http.NewServeMux(),
		cfg:        opts.Config,
		auth:       opts.Auth,
		rbac:       opts.RBAC,
		files:      opts.Files,
		audit:      opts.Audit,
		readyProbe: opts.ReadyProbe,
		version:    opts.Version,
	}

	a.gatekeeper = NewGatekeeper(GatekeeperConfig{
		Production: opts.Config.IsProduction(),
		CookieName: opts.Config.SessionCookieName,
		APIQuota:   QuotaConfig{Max: opts.Config.RateLimitMax, Window: opts.Config.RateLimitWindow},
		AuthQuota:  QuotaConfig{Max: opts.Config.AuthRateLimitMax, Window: opts.Config.AuthRateLimitWindow},
	}, opts.Limiter)

	// health/ready/metrics
	a.mux.HandleFunc("/api/health", a.Health)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.Handle("/metrics", obs.Handler())

	// auth provider endpoints
	a.mux.HandleFunc("/api/auth/sign-up", a.handleSignUp)
	a.mux.HandleFunc("/api/auth/sign-in", a.handleSignIn)
	a.mux.HandleFunc("/api/auth/sign-out", a.handleSignOut)
	a.mux.HandleFunc("/api/auth/session", a.handleSession)
	a.mux.HandleFunc("/api/auth/forgot-password", a.handleForgotPassword)
	a.mux.HandleFunc("/api/auth/reset-password", a.handleResetPassword)

	// current user
	a.mux.HandleFunc("/api/user/profile", a.handleProfile)
	a.mux.HandleFunc("/api/user/password", a.handlePassword)

	// files
	a.mux.HandleFunc("/api/files", a.handleFiles)

	// admin surface, permission-gated per handler
	a.mux.HandleFunc("/api/admin/users", a.handleAdminUsers)
	a.mux.HandleFunc("/api/admin/users/", a.handleAdminUserScoped)
	a.mux.HandleFunc("/api/admin/roles", a.handleAdminRoles)
	a.mux.HandleFunc("/api/admin/audit", a.handleAdminAudit)

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return a
}

// Handler returns the fully wrapped handler chain.
func (a *API) Handler() http.Handler {
	var h http.Handler = a.mux
	h = a.gatekeeper.Middleware(h)
	h = LoggingJSON(h)
	h = RequestID(h)
	h = obs.Instrument(h)
	return h
}
