package auth_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/votehub/internal/app/system/auth"
	"go.uber.org/zap"
)

const testSecret = "test-jwt-secret-must-be-32-chars-long"

func newTestManager(t *testing.T) *auth.Manager {
	t.Helper()
	m, err := auth.NewManager(testSecret, time.Hour, zap.NewNop())
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}
	return m
}

type stubFetcher struct {
	users map[string]*auth.Principal
}

func (f stubFetcher) FetchUser(_ context.Context, id string) *auth.Principal {
	return f.users[id]
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("protected content"))
	})
}

func TestNewManager_EmptySecret(t *testing.T) {
	if _, err := auth.NewManager("", time.Hour, zap.NewNop()); !errors.Is(err, auth.ErrEmptySecret) {
		t.Errorf("expected ErrEmptySecret, got %v", err)
	}
}

func TestIssueAndParse(t *testing.T) {
	m := newTestManager(t)

	tok, exp, err := m.Issue(auth.Principal{ID: "abc123", Name: "Ann", Admin: true})
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if time.Until(exp) <= 0 {
		t.Errorf("expected expiry in the future, got %v", exp)
	}

	claims, err := m.Parse(tok)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if claims.Subject != "abc123" {
		t.Errorf("subject = %q, want abc123", claims.Subject)
	}
	if !claims.Admin {
		t.Error("expected admin claim")
	}
	if claims.ID == "" {
		t.Error("expected a jti")
	}
}

func TestParse_WrongSecret(t *testing.T) {
	m := newTestManager(t)
	other, _ := auth.NewManager("another-secret-that-is-32-chars-long!", time.Hour, zap.NewNop())

	tok, _, err := other.Issue(auth.Principal{ID: "abc"})
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if _, err := m.Parse(tok); !errors.Is(err, auth.ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestParse_Garbage(t *testing.T) {
	m := newTestManager(t)
	if _, err := m.Parse("not.a.token"); !errors.Is(err, auth.ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestRequireSignedIn_NoUser_Returns401(t *testing.T) {
	m := newTestManager(t)
	handler := m.LoadUser(m.RequireSignedIn(okHandler()))

	req := httptest.NewRequest("GET", "/protected", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
	}
}

func TestRequireSignedIn_BadToken_Returns401(t *testing.T) {
	m := newTestManager(t)
	handler := m.LoadUser(m.RequireSignedIn(okHandler()))

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer nope")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
	}
}

func TestRequireAdmin_ValidAdminToken_Proceeds(t *testing.T) {
	m := newTestManager(t)
	handler := m.LoadUser(m.RequireAdmin(okHandler()))

	tok, _, _ := m.Issue(auth.Principal{ID: "a1", Admin: true})
	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
}

func TestRequireAdmin_VoterToken_Returns403(t *testing.T) {
	m := newTestManager(t)
	handler := m.LoadUser(m.RequireAdmin(okHandler()))

	tok, _, _ := m.Issue(auth.Principal{ID: "v1", Admin: false})
	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "bearer "+tok)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("expected status %d, got %d", http.StatusForbidden, rec.Code)
	}
}

func TestLoadUser_FetcherOverridesClaims(t *testing.T) {
	m := newTestManager(t)
	m.SetUserFetcher(stubFetcher{users: map[string]*auth.Principal{
		"demoted": {ID: "demoted", Admin: false},
	}})
	handler := m.LoadUser(m.RequireAdmin(okHandler()))

	// token still claims admin, but the stored user no longer is one
	tok, _, _ := m.Issue(auth.Principal{ID: "demoted", Admin: true})
	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("expected status %d, got %d", http.StatusForbidden, rec.Code)
	}
}

func TestLoadUser_DeletedUser_Returns401(t *testing.T) {
	m := newTestManager(t)
	m.SetUserFetcher(stubFetcher{users: map[string]*auth.Principal{}})
	handler := m.LoadUser(m.RequireSignedIn(okHandler()))

	tok, _, _ := m.Issue(auth.Principal{ID: "gone", Admin: true})
	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
	}
}

func TestCurrentUser_NoUser(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	user, ok := auth.CurrentUser(req)
	if ok || user != nil {
		t.Errorf("expected no user, got %+v", user)
	}
}

func TestCurrentUser_WithUser(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req = auth.WithTestUser(req, &auth.Principal{ID: "x", Name: "Test", Admin: true})

	user, ok := auth.CurrentUser(req)
	if !ok {
		t.Fatal("expected user in context")
	}
	if user.ID != "x" || !user.Admin {
		t.Errorf("unexpected user %+v", user)
	}
}
