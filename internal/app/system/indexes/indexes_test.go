package indexes_test

import (
	"context"
	"testing"

	"github.com/dalemusser/votehub/internal/app/system/indexes"
	"github.com/dalemusser/votehub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func indexNames(t *testing.T, ctx context.Context, coll *mongo.Collection) map[string]bson.M {
	t.Helper()
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		t.Fatalf("List indexes failed: %v", err)
	}
	defer cur.Close(ctx)

	out := make(map[string]bson.M)
	for cur.Next(ctx) {
		var idx bson.M
		if err := cur.Decode(&idx); err != nil {
			continue
		}
		if name, ok := idx["name"].(string); ok {
			out[name] = idx
		}
	}
	return out
}

func TestEnsureAll(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}
}

func TestEnsureAll_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("First EnsureAll failed: %v", err)
	}
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("Second EnsureAll failed: %v", err)
	}
}

func TestEnsureAll_CreatesUserIndexes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	got := indexNames(t, ctx, db.Collection("users"))
	for _, name := range []string{
		"uniq_users_nim",
		"uniq_users_email",
		"idx_users_is_admin",
		"idx_users_is_admin_name__id",
	} {
		if _, ok := got[name]; !ok {
			t.Errorf("expected index %q to exist on users collection", name)
		}
	}

	if sparse, _ := got["uniq_users_nim"]["sparse"].(bool); !sparse {
		t.Error("expected uniq_users_nim to be sparse")
	}
}

func TestEnsureAll_CreatesAuditIndexes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	got := indexNames(t, ctx, db.Collection("audit_events"))
	for _, m := range indexes.AuditIndexModels() {
		name := *m.Options.Name
		if _, ok := got[name]; !ok {
			t.Errorf("expected index %q to exist on audit_events collection", name)
		}
	}
}

func TestEnsureAll_RenamesMisnamedIndex(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	coll := db.Collection("users")
	_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetName("email_1_legacy").SetUnique(true),
	})
	if err != nil {
		t.Fatalf("create legacy index: %v", err)
	}

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	got := indexNames(t, ctx, coll)
	if _, ok := got["email_1_legacy"]; ok {
		t.Error("expected legacy index to be replaced")
	}
	if _, ok := got["uniq_users_email"]; !ok {
		t.Error("expected uniq_users_email to exist")
	}
}

func TestEnsureAll_UniqueIndexEnforced(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	coll := db.Collection("users")
	if _, err := coll.InsertOne(ctx, bson.M{"email": "dup@example.com", "nim": "1"}); err != nil {
		t.Fatalf("first insert failed: %v", err)
	}
	_, err := coll.InsertOne(ctx, bson.M{"email": "dup@example.com", "nim": "2"})
	if !mongo.IsDuplicateKeyError(err) {
		t.Errorf("expected duplicate key error on email, got %v", err)
	}
	_, err = coll.InsertOne(ctx, bson.M{"email": "other@example.com", "nim": "1"})
	if !mongo.IsDuplicateKeyError(err) {
		t.Errorf("expected duplicate key error on nim, got %v", err)
	}

	// Two admins without nim must coexist.
	if _, err := coll.InsertOne(ctx, bson.M{"email": "a1@example.com"}); err != nil {
		t.Errorf("insert without nim failed: %v", err)
	}
	if _, err := coll.InsertOne(ctx, bson.M{"email": "a2@example.com"}); err != nil {
		t.Errorf("second insert without nim failed: %v", err)
	}
}
