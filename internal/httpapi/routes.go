package httpapi

import "strings"

// Route classes the gatekeeper acts on.
const (
	// ClassPublic paths skip every check after rate limiting.
	ClassPublic = "public"
	// ClassGuestOnly paths bounce already-authenticated users to the
	// dashboard.
	ClassGuestOnly = "guest_only"
	// ClassProtected paths require a session.
	ClassProtected = "protected"
	// ClassNone paths pass through untouched.
	ClassNone = ""
)

// RouteRule classifies one path pattern. Exact rules match the whole path;
// otherwise the pattern is a prefix.
type RouteRule struct {
	Pattern string
	Exact   bool
	Class   string
}

// DefaultRouteTable is evaluated in order, first match wins. Guest-only rules
// come before the auth provider prefix so that a signed-in user hitting
// /login is redirected rather than waved through as public.
var DefaultRouteTable = []RouteRule{
	{Pattern: "/login", Class: ClassGuestOnly},
	{Pattern: "/register", Class: ClassGuestOnly},
	{Pattern: "/forgot-password", Class: ClassGuestOnly},

	{Pattern: "/api/auth", Class: ClassPublic},
	{Pattern: "/api/health", Class: ClassPublic},
	{Pattern: "/reset-password", Class: ClassPublic},
	{Pattern: "/verify-email", Class: ClassPublic},
	{Pattern: "/", Exact: true, Class: ClassPublic},

	{Pattern: "/dashboard", Class: ClassProtected},
	{Pattern: "/profile", Class: ClassProtected},
	{Pattern: "/settings", Class: ClassProtected},
	{Pattern: "/api/", Class: ClassProtected},
}

// Classify resolves the class for a path against the table.
func Classify(table []RouteRule, path string) string {
	for _, rule := range table {
		if rule.Exact {
			if path == rule.Pattern {
				return rule.Class
			}
			continue
		}
		if strings.HasPrefix(path, rule.Pattern) {
			return rule.Class
		}
	}
	return ClassNone
}
