// Package testutil provides shared helpers for tests that need MongoDB,
// fixtures or HTTP request plumbing.
package testutil

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/votehub/internal/app/system/indexes"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// EnvTestMongoURI names the environment variable that points tests at a
// MongoDB server. Defaults to DefaultTestMongoURI.
const (
	EnvTestMongoURI     = "VOTEHUB_TEST_MONGO_URI"
	DefaultTestMongoURI = "mongodb://localhost:27017"
)

// TestContext returns a context bounded to a generous per-test deadline.
func TestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}

// SetupTestDB connects to the test MongoDB and returns a fresh database that
// is dropped when the test finishes. The test is skipped when MongoDB is
// not reachable.
func SetupTestDB(t *testing.T) *mongo.Database {
	t.Helper()

	uri := os.Getenv(EnvTestMongoURI)
	if uri == "" {
		uri = DefaultTestMongoURI
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(2*time.Second))
	if err != nil {
		t.Skipf("mongo not available (%s): %v", uri, err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		t.Skipf("mongo not available (%s): %v", uri, err)
	}

	name := dbName(t)
	db := client.Database(name)

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = db.Drop(ctx)
		_ = client.Disconnect(ctx)
	})

	return db
}

// SetupTestDBWithIndexes is SetupTestDB plus the production indexes, for
// tests that depend on unique constraints.
func SetupTestDBWithIndexes(t *testing.T) *mongo.Database {
	t.Helper()
	db := SetupTestDB(t)

	ctx, cancel := TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("ensure indexes: %v", err)
	}
	return db
}

// dbName builds a unique database name within Mongo's 63-byte limit.
func dbName(t *testing.T) string {
	base := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, t.Name())
	if len(base) > 30 {
		base = base[:30]
	}
	return fmt.Sprintf("vh_%s_%s", base, primitive.NewObjectID().Hex())
}
