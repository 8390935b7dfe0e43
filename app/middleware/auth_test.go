package middleware_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/taskmaster-solutions/ms-go-tasks/app/middleware"
	"github.com/taskmaster-solutions/ms-go-tasks/app/service"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

type stubVerifier struct {
	claims *service.Claims
	err    error
}

func (v *stubVerifier) Verify(tokenString, expectedType string) (*service.Claims, error) {
	if v.err != nil {
		return nil, v.err
	}
	return v.claims, nil
}

func invoke(t *testing.T, m *middleware.AuthMiddleware, authHeader string) (*httptest.ResponseRecorder, bool, echo.Context) {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	handler := m.RequireAuth(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})
	if err := handler(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	return rec, called, c
}

func TestRequireAuth_MissingHeader(t *testing.T) {
	m := middleware.NewAuthMiddleware(&stubVerifier{})

	rec, called, _ := invoke(t, m, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if called {
		t.Fatalf("handler should not run without a header")
	}
	if !strings.Contains(rec.Body.String(), "missing authorization header") {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestRequireAuth_BadHeaderFormat(t *testing.T) {
	m := middleware.NewAuthMiddleware(&stubVerifier{})

	for _, header := range []string{"Token abc", "Bearer", "Bearer a b"} {
		rec, called, _ := invoke(t, m, header)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("header %q: expected 401, got %d", header, rec.Code)
		}
		if called {
			t.Fatalf("header %q: handler should not run", header)
		}
	}
}

func TestRequireAuth_InvalidToken(t *testing.T) {
	m := middleware.NewAuthMiddleware(&stubVerifier{err: errors.New("bad token")})

	rec, called, _ := invoke(t, m, "Bearer not-a-real-token")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if called {
		t.Fatalf("handler should not run for an invalid token")
	}
	if !strings.Contains(rec.Body.String(), "invalid or expired token") {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestRequireAuth_ValidTokenSetsIdentity(t *testing.T) {
	m := middleware.NewAuthMiddleware(&stubVerifier{claims: &service.Claims{
		UserID:    7,
		Username:  "alice",
		TokenType: service.TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	}})

	rec, called, c := invoke(t, m, "Bearer some-valid-token")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !called {
		t.Fatalf("handler should have run")
	}
	if got := c.Get("user_id"); got != uint64(7) {
		t.Fatalf("expected user_id 7 in context, got %v", got)
	}
	if got := c.Get("username"); got != "alice" {
		t.Fatalf("expected username alice in context, got %v", got)
	}
}
