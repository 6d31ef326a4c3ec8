package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tempoedu/skillswap/internal/api/middleware"
	"github.com/tempoedu/skillswap/internal/core/domain"
)

// ctxUserID extracts the caller injected by the Auth middleware. An empty
// value means the route was mounted without Auth; fail fast with 401.
func ctxUserID(c echo.Context) (string, error) {
	userID, _ := c.Get(middleware.CtxUserID).(string)
	if userID == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return userID, nil
}

// bindAndValidate decodes the request into req and runs the struct validator.
// Validation failures surface as domain validation errors (400).
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(req); err != nil {
		return fmt.Errorf("%w: %s", domain.ErrValidation, err.Error())
	}
	return nil
}
