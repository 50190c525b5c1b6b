package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/kavehjam/go-rbac-service/internal/repository"
	"github.com/kavehjam/go-rbac-service/internal/service"
)

// writeError maps the service/repository error taxonomy onto stable HTTP
// response categories: duplicate -> 409, not found -> 404, invariant
// violation -> 400, invalid refresh token or failed authentication -> 401.
// Anything else is an internal error and its detail stays out of the
// response body.
func writeError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, repository.ErrDuplicate):
		return c.JSON(http.StatusConflict, echo.Map{"error": "resource already exists"})
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "resource not found"})
	case errors.Is(err, repository.ErrBadRequest):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	case errors.Is(err, repository.ErrInvalidToken):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
	case errors.Is(err, service.ErrAuthenticationFailed):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	default:
		c.Logger().Errorf("internal error: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}
