package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

func TestIssueAndParse(t *testing.T) {
	svc, err := NewService("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	id := uuid.New()

	token, exp, err := svc.Issue(id)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if time.Until(exp) <= 0 {
		t.Fatalf("expected expiry in the future, got %v", exp)
	}

	got, err := svc.Parse(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got != id {
		t.Fatalf("expected %s, got %s", id, got)
	}
}

func TestParseRejectsForeignAndExpiredTokens(t *testing.T) {
	a, _ := NewService("secret-a", time.Hour)
	b, _ := NewService("secret-b", time.Hour)

	token, _, err := a.Issue(uuid.New())
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := b.Parse(token); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken for foreign secret, got %v", err)
	}

	a.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if _, err := a.Parse(token); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestEphemeralSecret(t *testing.T) {
	svc, err := NewService("  ", 0)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	if len(svc.secret) == 0 {
		t.Fatalf("expected generated secret")
	}
	if svc.ttl != 24*time.Hour {
		t.Fatalf("expected default ttl, got %v", svc.ttl)
	}
}

func TestMiddleware(t *testing.T) {
	svc, _ := NewService("test-secret", time.Hour)
	id := uuid.New()
	token, _, _ := svc.Issue(id)

	e := echo.New()
	handler := Middleware(svc)(func(c echo.Context) error {
		got, err := GetSessionIDFromContext(c)
		if err != nil {
			return err
		}
		return c.String(http.StatusOK, got.String())
	})

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + token, http.StatusUnauthorized},
		{"garbage token", "Bearer nope", http.StatusUnauthorized},
		{"valid", "Bearer " + token, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			err := handler(c)
			status := rec.Code
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			}
			if status != tt.status {
				t.Fatalf("expected status %d, got %d", tt.status, status)
			}
			if tt.status == http.StatusOK && rec.Body.String() != id.String() {
				t.Fatalf("expected session id %s in context, got %s", id, rec.Body.String())
			}
		})
	}
}
