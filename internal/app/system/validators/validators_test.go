package validators_test

import (
	"testing"
	"time"

	"github.com/dalemusser/votehub/internal/app/system/validators"
	"github.com/dalemusser/votehub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
)

func TestEnsureAll_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := validators.EnsureAll(ctx, db); err != nil {
		t.Fatalf("First EnsureAll failed: %v", err)
	}
	if err := validators.EnsureAll(ctx, db); err != nil {
		t.Fatalf("Second EnsureAll failed: %v", err)
	}

	names, err := db.ListCollectionNames(ctx, bson.M{"name": "users"})
	if err != nil {
		t.Fatalf("ListCollectionNames failed: %v", err)
	}
	if len(names) != 1 {
		t.Errorf("expected users collection to exist, got %v", names)
	}
}

func TestUsersValidator_RequiredFields(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := validators.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	_, err := db.Collection("users").InsertOne(ctx, bson.M{"nim": "123"})
	if err == nil {
		t.Error("expected validation error when inserting user without required fields")
	}
}

func TestUsersValidator_ValidUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := validators.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	now := time.Now()
	_, err := db.Collection("users").InsertOne(ctx, bson.M{
		"nim":        "2021001",
		"email":      "voter@example.com",
		"name":       "Test Voter",
		"is_admin":   false,
		"year_class": 2021,
		"voted":      false,
		"version":    0,
		"created_at": now,
		"updated_at": now,
	})
	if err != nil {
		t.Errorf("expected valid user to insert, got %v", err)
	}
}

func TestUsersValidator_BadTypes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := validators.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	_, err := db.Collection("users").InsertOne(ctx, bson.M{
		"email":    "voter@example.com",
		"name":     "Test Voter",
		"is_admin": "no",
		"voted":    false,
	})
	if err == nil {
		t.Error("expected validation error for non-bool is_admin")
	}
}
