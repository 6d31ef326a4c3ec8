package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/tempoedu/skillswap/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error string `json:"error"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps the domain error taxonomy to HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"error": "<message>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, errorResponse{Error: msg})
	}
}

// domainStatus pairs a taxonomy root with its HTTP code. Order matters: the
// first match wins.
var domainStatus = []struct {
	err  error
	code int
}{
	{domain.ErrInsufficientFunds, http.StatusUnprocessableEntity},
	{domain.ErrInvalidTransition, http.StatusUnprocessableEntity},
	{domain.ErrValidation, http.StatusBadRequest},
	{domain.ErrNotFound, http.StatusNotFound},
	{domain.ErrForbidden, http.StatusForbidden},
	{domain.ErrConflict, http.StatusConflict},
	{domain.ErrUnauthenticated, http.StatusUnauthorized},
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	for _, ds := range domainStatus {
		if errors.Is(err, ds.err) {
			if ds.code == http.StatusUnauthorized {
				return ds.code, unauthenticatedMessage(err)
			}
			return ds.code, err.Error()
		}
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "internal server error"
}

func unauthenticatedMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrAccountSuspended):
		return "account is suspended"
	case errors.Is(err, domain.ErrInvalidToken):
		return "invalid token"
	case errors.Is(err, domain.ErrInvalidCredentials):
		return "invalid credentials"
	}
	return "unauthenticated"
}
