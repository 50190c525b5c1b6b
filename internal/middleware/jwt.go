package middleware // middleware provides shared request processing for handlers

import (
	"net/http" // HTTP status codes for responses
	"strings"  // string utilities for prefix checking and trimming

	"github.com/labstack/echo/v4" // Echo framework used for defining middleware and handlers

	"github.com/kavehjam/go-rbac-service/internal/utils"
)

// principalKey is the context key under which JWTAuth stores the
// authenticated principal.
const principalKey = "principal"

// Principal is the authenticated caller extracted from a verified access
// token: the subject email and the role names embedded at issuance time.
// It is threaded through the request context as an explicit value; there is
// no ambient security context.
type Principal struct {
	Email string
	Roles []string
}

// HasAnyRole reports whether the principal holds at least one of the named
// roles. Matching is case-sensitive exact comparison.
func (p Principal) HasAnyRole(names ...string) bool {
	for _, want := range names {
		for _, have := range p.Roles {
			if have == want {
				return true
			}
		}
	}
	return false
}

// JWTAuth returns an Echo middleware that validates a Bearer access token
// and injects the resulting Principal into the request context. The
// provided secret must match the one used when issuing tokens. A missing,
// malformed, tampered or expired token yields 401; the failure reason is
// never detailed to the client.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			// ParseAccessToken folds every signature/claim/expiry problem
			// into ok=false.
			subject, roles, ok := utils.ParseAccessToken(secret, raw)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}

			c.Set(principalKey, Principal{Email: subject, Roles: roles})
			return next(c)
		}
	}
}

// CurrentPrincipal retrieves the principal stored by JWTAuth. The second
// return value is false when the route was not behind JWTAuth.
func CurrentPrincipal(c echo.Context) (Principal, bool) {
	p, ok := c.Get(principalKey).(Principal)
	return p, ok
}
