package login_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/votehub/internal/app/features/login"
	usersvc "github.com/dalemusser/votehub/internal/app/service/users"
	"github.com/dalemusser/votehub/internal/app/store/audit"
	"github.com/dalemusser/votehub/internal/app/system/auditlog"
	"github.com/dalemusser/votehub/internal/app/system/auth"
	"github.com/dalemusser/votehub/internal/app/system/mailer"
	"github.com/dalemusser/votehub/internal/app/system/ratelimit"
	"github.com/dalemusser/votehub/internal/testutil"
	"go.uber.org/zap"
)

type nopSender struct{}

func (nopSender) Send(mailer.Email) error { return nil }

func newTestHandler(t *testing.T, limiter *ratelimit.LoginLimiter) (*login.Handler, *auth.Manager, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDBWithIndexes(t)
	logger := zap.NewNop()

	am, err := auth.NewManager("test-jwt-secret-must-be-32-chars-long", time.Hour, logger)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	svc := usersvc.New(db, nopSender{}, usersvc.Config{}, logger)
	return login.NewHandler(svc, am, limiter, nil, logger), am, testutil.NewFixtures(t, db)
}

type loginBody struct {
	Token     string `json:"token"`
	TokenType string `json:"token_type"`
	User      struct {
		ID      string `json:"id"`
		IsAdmin bool   `json:"is_admin"`
	} `json:"user"`
	Error string `json:"error"`
}

func postLogin(t *testing.T, h *login.Handler, body map[string]string) (*httptest.ResponseRecorder, loginBody) {
	t.Helper()
	req := testutil.NewJSONRequest(t, "POST", "/login", body)
	rec := httptest.NewRecorder()
	h.HandleLogin(rec, req)

	var out loginBody
	testutil.DecodeJSON(t, rec, &out)
	return rec, out
}

func TestHandleLogin_AdminByEmail(t *testing.T) {
	h, am, fx := newTestHandler(t, nil)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin := fx.CreateAdmin(ctx, "Ada", "ada@example.com", "correct-horse")

	rec, out := postLogin(t, h, map[string]string{"identifier": "ADA@example.com", "password": "correct-horse"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, out.Error)
	}
	if out.TokenType != "Bearer" || out.Token == "" {
		t.Fatalf("unexpected token response %+v", out)
	}
	if !out.User.IsAdmin || out.User.ID != admin.ID.Hex() {
		t.Errorf("unexpected user %+v", out.User)
	}

	claims, err := am.Parse(out.Token)
	if err != nil {
		t.Fatalf("issued token does not parse: %v", err)
	}
	if claims.Subject != admin.ID.Hex() || !claims.Admin {
		t.Errorf("unexpected claims %+v", claims)
	}
}

func TestHandleLogin_VoterByNIM(t *testing.T) {
	h, _, fx := newTestHandler(t, nil)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx.CreateVoterWithPassword(ctx, "2021001", "Vic", "vic@example.com", "pw-123")

	rec, out := postLogin(t, h, map[string]string{"identifier": "2021001", "password": "pw-123", "as": "voter"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, out.Error)
	}
	if out.User.IsAdmin {
		t.Error("voter token must not be admin")
	}
}

func TestHandleLogin_Failures(t *testing.T) {
	h, _, fx := newTestHandler(t, nil)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx.CreateAdmin(ctx, "Ada", "ada@example.com", "correct-horse")
	fx.CreateVoterWithPassword(ctx, "2021001", "Vic", "vic@example.com", "pw-123")
	fx.CreateVoter(ctx, "2021002", "NoPass", "nopass@example.com", 2021)

	tests := []struct {
		name string
		body map[string]string
		want int
	}{
		{"wrong password", map[string]string{"identifier": "ada@example.com", "password": "nope"}, http.StatusUnauthorized},
		{"unknown user", map[string]string{"identifier": "ghost@example.com", "password": "x"}, http.StatusUnauthorized},
		{"voter without password", map[string]string{"identifier": "2021002", "password": "x"}, http.StatusUnauthorized},
		{"voter as admin", map[string]string{"identifier": "vic@example.com", "password": "pw-123", "as": "admin"}, http.StatusUnauthorized},
		{"admin mode by nim", map[string]string{"identifier": "2021001", "password": "pw-123", "as": "admin"}, http.StatusUnauthorized},
		{"missing password", map[string]string{"identifier": "ada@example.com"}, http.StatusBadRequest},
		{"bad mode", map[string]string{"identifier": "ada@example.com", "password": "x", "as": "root"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, out := postLogin(t, h, tt.body)
			if rec.Code != tt.want {
				t.Errorf("expected %d, got %d (%s)", tt.want, rec.Code, out.Error)
			}
			if out.Token != "" {
				t.Error("no token expected on failure")
			}
		})
	}
}

func TestHandleLogin_RateLimited(t *testing.T) {
	limiter := ratelimit.NewLoginLimiterWithConfig(100, time.Minute, 2, time.Minute)
	defer limiter.Close()
	h, _, _ := newTestHandler(t, limiter)

	body := map[string]string{"identifier": "ghost@example.com", "password": "x"}
	for i := 0; i < 2; i++ {
		if rec, _ := postLogin(t, h, body); rec.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d: expected 401, got %d", i+1, rec.Code)
		}
	}
	if rec, _ := postLogin(t, h, body); rec.Code != http.StatusTooManyRequests {
		t.Errorf("expected 429, got %d", rec.Code)
	}
}

func TestHandleLogin_BadJSON(t *testing.T) {
	h, _, _ := newTestHandler(t, nil)

	req := httptest.NewRequest("POST", "/login", nil)
	rec := httptest.NewRecorder()
	h.HandleLogin(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestServeMe(t *testing.T) {
	h, _, _ := newTestHandler(t, nil)

	req := testutil.WithUser(testutil.NewRequest("GET", "/login/me"), testutil.AdminPrincipal())
	rec := httptest.NewRecorder()
	h.ServeMe(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeMe(rec, testutil.NewRequest("GET", "/login/me"))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without user, got %d", rec.Code)
	}
}

func TestHandleLogin_Audited(t *testing.T) {
	db := testutil.SetupTestDBWithIndexes(t)
	logger := zap.NewNop()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	am, err := auth.NewManager("test-jwt-secret-must-be-32-chars-long", time.Hour, logger)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	store := audit.New(db)
	al := auditlog.New(store, logger, auditlog.Config{Auth: "db", Admin: "db"})
	h := login.NewHandler(usersvc.New(db, nopSender{}, usersvc.Config{}, logger), am, nil, al, logger)

	fx := testutil.NewFixtures(t, db)
	voter := fx.CreateVoterWithPassword(ctx, "2021001", "Vic", "vic@example.com", "pw-123")

	postLogin(t, h, map[string]string{"identifier": "2021001", "password": "wrong"})
	postLogin(t, h, map[string]string{"identifier": "2021001", "password": "pw-123", "as": "admin"})
	postLogin(t, h, map[string]string{"identifier": "2021001", "password": "pw-123"})

	events, err := store.GetByUser(ctx, voter.ID, 10)
	if err != nil {
		t.Fatalf("GetByUser failed: %v", err)
	}
	// The admin-mode attempt looks up by email only, so it finds nobody.
	want := []string{audit.EventLoginSuccess, audit.EventLoginFailedWrongPassword}
	if len(events) != len(want) {
		t.Fatalf("expected %d events for the voter, got %d", len(want), len(events))
	}
	for i, e := range events {
		if e.EventType != want[i] {
			t.Errorf("event %d: expected %q, got %q", i, want[i], e.EventType)
		}
	}

	notFound, err := store.Query(ctx, audit.QueryFilter{EventType: audit.EventLoginFailedUserNotFound})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(notFound) != 1 {
		t.Errorf("expected one user-not-found event, got %d", len(notFound))
	}
}
