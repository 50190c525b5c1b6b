package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// RequireAnyRole returns a middleware that lets the request through when the
// authenticated principal holds at least one of the named roles. The
// decision is made against the roles embedded in the verified access token,
// not a fresh database read: a role revoked mid-session stays effective
// until the token expires. A request with no principal (JWTAuth not run or
// failed) is unauthenticated and gets 401; an authenticated principal with
// none of the roles gets 403.
func RequireAnyRole(names ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, ok := CurrentPrincipal(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated"})
			}
			if !p.HasAnyRole(names...) {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
			}
			return next(c)
		}
	}
}

// RequireRole is the single-role variant of RequireAnyRole.
func RequireRole(name string) echo.MiddlewareFunc {
	return RequireAnyRole(name)
}
