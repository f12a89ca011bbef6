package httpapi

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"starterkit.dev/internal/obs"
	"starterkit.dev/internal/ratelimit"
)

const (
	loginPath     = "/login"
	dashboardPath = "/dashboard"

	classAuthAPI    = "auth"
	classGeneralAPI = "api"
)

// QuotaConfig is one rate limit quota.
type QuotaConfig struct {
	Max    int
	Window time.Duration
}

// GatekeeperConfig drives the per-request pipeline.
type GatekeeperConfig struct {
	Production bool
	CookieName string

	APIQuota  QuotaConfig
	AuthQuota QuotaConfig

	// Routes defaults to DefaultRouteTable when empty.
	Routes []RouteRule
}

// Gatekeeper runs the fixed-order request pipeline: security headers, rate
// limiting, route classification, auth routing. It gates only; audit entries
// are written by the handlers behind it.
type Gatekeeper struct {
	cfg     GatekeeperConfig
	limiter *ratelimit.Limiter
	now     func() time.Time
}

// GatekeeperOption configures Gatekeeper.
type GatekeeperOption func(*Gatekeeper)

// WithGatekeeperClock overrides the time source (useful for tests).
func WithGatekeeperClock(fn func() time.Time) GatekeeperOption {
	return func(g *Gatekeeper) {
		if fn != nil {
			g.now = fn
		}
	}
}

// NewGatekeeper constructs the pipeline over the given limiter.
func NewGatekeeper(cfg GatekeeperConfig, limiter *ratelimit.Limiter, opts ...GatekeeperOption) *Gatekeeper {
	if len(cfg.Routes) == 0 {
		cfg.Routes = DefaultRouteTable
	}
	if cfg.CookieName == "" {
		cfg.CookieName = "starter_kit.session_token"
	}
	if cfg.APIQuota.Max <= 0 {
		cfg.APIQuota = QuotaConfig{Max: 100, Window: time.Minute}
	}
	if cfg.AuthQuota.Max <= 0 {
		cfg.AuthQuota = QuotaConfig{Max: 5, Window: time.Minute}
	}
	g := &Gatekeeper{cfg: cfg, limiter: limiter, now: time.Now}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Middleware applies the pipeline stages in order.
func (g *Gatekeeper) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path

		// Stage 1: security headers, attached whatever the outcome.
		g.securityHeaders(w.Header())

		// Stage 2: rate limiting, API paths only.
		if strings.HasPrefix(path, "/api/") {
			if !g.checkRateLimit(w, r) {
				return
			}
		}

		// Stage 3: public routes skip the remaining checks.
		class := Classify(g.cfg.Routes, path)
		if class == ClassPublic {
			next.ServeHTTP(w, r)
			return
		}

		// Stage 4: cookie presence only. Cryptographic validity is the
		// session service's job once the handler runs.
		authenticated := g.hasSessionCookie(r)

		// Stage 5: keep signed-in users out of the auth flows.
		if class == ClassGuestOnly {
			if authenticated {
				http.Redirect(w, r, dashboardPath, http.StatusFound)
				return
			}
			next.ServeHTTP(w, r)
			return
		}

		// Stage 6: protected routes need a session.
		if class == ClassProtected && !authenticated {
			if strings.HasPrefix(path, "/api/") {
				writeJSON(w, http.StatusUnauthorized, map[string]any{
					"error":   "Unauthorized",
					"message": "Authentication required",
				})
				return
			}
			loginURL := loginPath + "?callbackUrl=" + url.QueryEscape(path)
			http.Redirect(w, r, loginURL, http.StatusFound)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (g *Gatekeeper) securityHeaders(h http.Header) {
	h.Set("X-DNS-Prefetch-Control", "on")
	h.Set("X-Frame-Options", "SAMEORIGIN")
	h.Set("X-Content-Type-Options", "nosniff")
	h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
	h.Set("Permissions-Policy", "camera=(), microphone=(), geolocation=()")

	if g.cfg.Production {
		h.Set("Content-Security-Policy", strings.Join([]string{
			"default-src 'self'",
			"script-src 'self' 'unsafe-inline' 'unsafe-eval'",
			"style-src 'self' 'unsafe-inline'",
			"img-src 'self' data: https: blob:",
			"font-src 'self' data:",
			"connect-src 'self' https:",
			"frame-ancestors 'none'",
		}, "; "))
	}
}

// checkRateLimit reports whether the request may proceed. The informational
// headers are attached on success as well as on rejection.
func (g *Gatekeeper) checkRateLimit(w http.ResponseWriter, r *http.Request) bool {
	class := classGeneralAPI
	quota := g.cfg.APIQuota
	if strings.HasPrefix(r.URL.Path, "/api/auth") {
		class = classAuthAPI
		quota = g.cfg.AuthQuota
	}

	key := class + ":" + clientIP(r.Header)
	res, err := g.limiter.Check(r.Context(), key, quota.Max, quota.Window)
	if err != nil {
		obs.Warn("rate limit check failed", map[string]any{"key": key, "error": err.Error()})
	}

	h := w.Header()
	h.Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
	h.Set("X-RateLimit-Reset", strconv.FormatInt(res.Reset.UnixMilli(), 10))

	if res.Allowed {
		return true
	}

	obs.RateLimitRejected(class)
	retryAfter := res.RetryAfter(g.now())
	h.Set("Retry-After", strconv.Itoa(retryAfter))
	writeJSON(w, http.StatusTooManyRequests, map[string]any{
		"error":      "Too many requests",
		"message":    "Rate limit exceeded. Please try again later.",
		"retryAfter": retryAfter,
	})
	return false
}

func (g *Gatekeeper) hasSessionCookie(r *http.Request) bool {
	cookie, err := r.Cookie(g.cfg.CookieName)
	return err == nil && cookie.Value != ""
}
