package handler

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/tempoedu/skillswap/internal/api/middleware"
)

func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

// call runs h against a request built from method, target and body. userID,
// when set, is injected the way the Auth middleware would. pathParams are
// name/value pairs.
func call(t *testing.T, h echo.HandlerFunc, method, target, body, userID string, pathParams ...string) (*httptest.ResponseRecorder, error) {
	t.Helper()

	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()

	e := newTestEcho()
	c := e.NewContext(req, rec)
	if userID != "" {
		c.Set(middleware.CtxUserID, userID)
	}
	if len(pathParams) > 0 {
		var names, values []string
		for i := 0; i+1 < len(pathParams); i += 2 {
			names = append(names, pathParams[i])
			values = append(values, pathParams[i+1])
		}
		c.SetParamNames(names...)
		c.SetParamValues(values...)
	}

	return rec, h(c)
}

func httpCode(t *testing.T, err error) int {
	t.Helper()
	he, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected *echo.HTTPError, got %T (%v)", err, err)
	}
	return he.Code
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, err error, want int) {
	t.Helper()
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != want {
		t.Fatalf("expected %d, got %d (%s)", want, rec.Code, rec.Body.String())
	}
}
