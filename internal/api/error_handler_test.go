package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/tempoedu/skillswap/internal/core/domain"
)

func TestHTTPErrorHandler_MapsTaxonomy(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
		msg  string
	}{
		{"validation", domain.ValidationError("duration must be between 1 and 4"), http.StatusBadRequest, ""},
		{"session not found", fmt.Errorf("get session: %w", domain.ErrSessionNotFound), http.StatusNotFound, ""},
		{"not participant", domain.ErrNotParticipant, http.StatusForbidden, ""},
		{"invalid transition", domain.ErrInvalidTransition, http.StatusUnprocessableEntity, ""},
		{"stale session", domain.ErrStaleSession, http.StatusUnprocessableEntity, ""},
		{"insufficient funds", fmt.Errorf("create session: %w", domain.ErrInsufficientFunds), http.StatusUnprocessableEntity, ""},
		{"user exists", domain.ErrUserExists, http.StatusConflict, ""},
		{"invalid credentials", domain.ErrInvalidCredentials, http.StatusUnauthorized, "invalid credentials"},
		{"suspended", domain.ErrAccountSuspended, http.StatusUnauthorized, "account is suspended"},
		{"bad token", errors.Join(domain.ErrInvalidToken, errors.New("token is expired")), http.StatusUnauthorized, "invalid token"},
		{"echo error", echo.NewHTTPError(http.StatusMethodNotAllowed, "nope"), http.StatusMethodNotAllowed, "nope"},
		{"unknown", errors.New("mongo: connection reset"), http.StatusInternalServerError, "internal server error"},
	}

	h := NewHTTPErrorHandler(zerolog.Nop())
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			h(tc.err, c)

			if rec.Code != tc.code {
				t.Fatalf("expected %d, got %d", tc.code, rec.Code)
			}
			var body errorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("invalid json: %v", err)
			}
			if body.Error == "" {
				t.Fatalf("empty error message")
			}
			if tc.msg != "" && body.Error != tc.msg {
				t.Fatalf("expected message %q, got %q", tc.msg, body.Error)
			}
		})
	}
}
