package auditlog_test

import (
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/votehub/internal/app/store/audit"
	"github.com/dalemusser/votehub/internal/app/system/auditlog"
	"github.com/dalemusser/votehub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogger_NilLogger(t *testing.T) {
	// nil logger should be a no-op (not panic)
	var logger *auditlog.Logger
	ctx, cancel := testutil.TestContext()
	defer cancel()
	req := httptest.NewRequest("POST", "/login", nil)

	logger.Log(ctx, audit.Event{EventType: "test"})
	logger.LoginSuccess(ctx, req, primitive.NewObjectID(), "", "ada@example.com")
	logger.UsersImported(ctx, req, 3)
}

func TestConfig_Validate(t *testing.T) {
	if err := (auditlog.Config{Auth: "all", Admin: "off"}).Validate(); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}
	if err := (auditlog.Config{Auth: "everything", Admin: "db"}).Validate(); err == nil {
		t.Error("expected unknown setting to be rejected")
	}
}

func TestLogger_Destinations(t *testing.T) {
	tests := []struct {
		setting string
		wantDB  int
		wantLog int
	}{
		{auditlog.ToAll, 1, 1},
		{auditlog.ToDB, 1, 0},
		{auditlog.ToLog, 0, 1},
		{auditlog.Off, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.setting, func(t *testing.T) {
			db := testutil.SetupTestDB(t)
			store := audit.New(db)
			core, logs := observer.New(zap.InfoLevel)
			ctx, cancel := testutil.TestContext()
			defer cancel()

			logger := auditlog.New(store, zap.New(core), auditlog.Config{Auth: tt.setting, Admin: tt.setting})
			userID := primitive.NewObjectID()
			logger.LoginSuccess(ctx, httptest.NewRequest("POST", "/login", nil), userID, "admin", "ada@example.com")

			events, err := store.GetByUser(ctx, userID, 10)
			if err != nil {
				t.Fatalf("GetByUser failed: %v", err)
			}
			if len(events) != tt.wantDB {
				t.Errorf("expected %d stored events, got %d", tt.wantDB, len(events))
			}
			if got := logs.FilterMessage("audit event").Len(); got != tt.wantLog {
				t.Errorf("expected %d log entries, got %d", tt.wantLog, got)
			}
		})
	}
}

func TestLogger_AdminEventsCarryActor(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{Auth: "db", Admin: "db"})
	admin := testutil.AdminPrincipal()
	req := testutil.WithUser(httptest.NewRequest("DELETE", "/users/x", nil), admin)
	req.Header.Set("X-Forwarded-For", "203.0.113.9")

	target := primitive.NewObjectID()
	logger.UserDeleted(ctx, req, target)
	logger.CredentialsSent(ctx, req, target, errors.New("smtp down"))

	events, err := store.GetByUser(ctx, target, 10)
	if err != nil {
		t.Fatalf("GetByUser failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	for _, e := range events {
		if e.ActorID == nil || e.ActorID.Hex() != admin.ID {
			t.Errorf("%s: expected actor %s, got %v", e.EventType, admin.ID, e.ActorID)
		}
		if e.IP != "203.0.113.9" {
			t.Errorf("%s: expected forwarded ip, got %q", e.EventType, e.IP)
		}
		if e.Category != audit.CategoryAdmin {
			t.Errorf("%s: expected admin category, got %q", e.EventType, e.Category)
		}
	}

	// Newest first: the failed credentials event.
	if events[0].EventType != audit.EventCredentialsSent || events[0].Success || events[0].FailureReason != "smtp down" {
		t.Errorf("unexpected credentials event %+v", events[0])
	}
}
