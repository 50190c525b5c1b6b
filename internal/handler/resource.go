package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/kavehjam/go-rbac-service/internal/middleware"
)

// ResourceHandler serves sample protected resources demonstrating the role
// guard at its three levels: any authenticated role, MANAGER and up, and
// ADMIN only. The payloads echo the principal so clients can see what the
// token carried.
type ResourceHandler struct{}

func NewResourceHandler() *ResourceHandler { return &ResourceHandler{} }

// Dashboard is reachable by any authenticated user.
func (h *ResourceHandler) Dashboard(c echo.Context) error {
	p, _ := middleware.CurrentPrincipal(c)
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Welcome to your dashboard",
		"user":    p.Email,
		"roles":   p.Roles,
	})
}

// Reports requires MANAGER or ADMIN.
func (h *ResourceHandler) Reports(c echo.Context) error {
	p, _ := middleware.CurrentPrincipal(c)
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Manager reports data",
		"user":    p.Email,
	})
}

// AdminPanel requires ADMIN.
func (h *ResourceHandler) AdminPanel(c echo.Context) error {
	p, _ := middleware.CurrentPrincipal(c)
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Admin panel data",
		"user":    p.Email,
	})
}

// Public needs no token at all.
func (h *ResourceHandler) Public(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"message": "This is a public resource",
	})
}
