// Package router defines how HTTP routes are registered for the API.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/kavehjam/go-rbac-service/internal/config"
	"github.com/kavehjam/go-rbac-service/internal/handler"
	"github.com/kavehjam/go-rbac-service/internal/middleware"
	"github.com/kavehjam/go-rbac-service/internal/model"
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance. Currently it exposes only a health check, used by
// load balancers to verify the service is up.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the authentication endpoints under /v1/auth and
// applies the rate limiter to the credential-bearing ones. None of these
// routes require an existing session; logout accepts its refresh token from
// the body or the X-Refresh-Token header.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, rlCfg config.RateLimitConfig, rdb *redis.Client) {
	g := e.Group("/v1/auth")
	limited := middleware.AuthRateLimit(rlCfg, rdb)
	g.POST("/register", a.Register, limited)
	g.POST("/login", a.Login, limited)
	g.POST("/refresh", a.Refresh, limited)
	g.POST("/logout", a.Logout)
}

// RegisterAdmin registers user and role administration under /v1. Every
// route requires a valid access token carrying the ADMIN role, mirroring
// the class-level guard of the management API.
func RegisterAdmin(e *echo.Echo, u *handler.UserHandler, r *handler.RoleHandler, jwtSecret string) {
	admin := e.Group("/v1")
	admin.Use(middleware.JWTAuth(jwtSecret))
	admin.Use(middleware.RequireRole(model.RoleAdmin))

	admin.GET("/users", u.List)
	admin.POST("/users", u.Create)
	admin.GET("/users/:id", u.Get)
	admin.PUT("/users/:id", u.Update)
	admin.DELETE("/users/:id", u.Delete)
	admin.GET("/users/email/:email", u.GetByEmail)

	admin.GET("/roles", r.List)
	admin.POST("/roles", r.Create)
	admin.GET("/roles/:id", r.Get)
	admin.DELETE("/roles/:id", r.Delete)
	admin.POST("/roles/assign", r.Assign)
	admin.DELETE("/roles/revoke", r.Revoke)
}

// RegisterResources registers the sample protected resources. Each route
// declares its own required-role predicate; the public one carries no
// middleware at all.
func RegisterResources(e *echo.Echo, res *handler.ResourceHandler, jwtSecret string) {
	g := e.Group("/v1/resources")
	auth := middleware.JWTAuth(jwtSecret)

	g.GET("/dashboard", res.Dashboard, auth,
		middleware.RequireAnyRole(model.RoleUser, model.RoleManager, model.RoleAdmin))
	g.GET("/reports", res.Reports, auth,
		middleware.RequireAnyRole(model.RoleManager, model.RoleAdmin))
	g.GET("/admin-panel", res.AdminPanel, auth,
		middleware.RequireRole(model.RoleAdmin))
	g.GET("/public", res.Public)
}
