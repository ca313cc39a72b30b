package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/votehub/internal/app/system/authutil"
	"github.com/dalemusser/votehub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

func boolPtr(b bool) *bool { return &b }
func intPtr(i int) *int    { return &i }

func (f *Fixtures) insert(ctx context.Context, u models.User) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	u.ID = primitive.NewObjectID()
	if u.Voted == nil {
		u.Voted = boolPtr(false)
	}
	u.Version = intPtr(0)
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := f.db.Collection("users").InsertOne(ctx, u); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return u
}

// CreateAdmin creates an admin whose stored password is the bcrypt hash of
// password. The returned record carries the hash, not the plaintext.
func (f *Fixtures) CreateAdmin(ctx context.Context, name, email, password string) models.User {
	f.t.Helper()

	hash, err := authutil.HashPassword(password)
	if err != nil {
		f.t.Fatalf("failed to hash password: %v", err)
	}
	return f.insert(ctx, models.User{
		Email:    email,
		Name:     name,
		Password: hash,
		IsAdmin:  boolPtr(true),
	})
}

// CreateVoter creates a non-admin user without a password.
func (f *Fixtures) CreateVoter(ctx context.Context, nim, name, email string, yearClass int) models.User {
	f.t.Helper()
	return f.insert(ctx, models.User{
		NIM:       nim,
		Email:     email,
		Name:      name,
		IsAdmin:   boolPtr(false),
		YearClass: intPtr(yearClass),
	})
}

// CreateVoterWithPassword creates a non-admin user that can log in.
func (f *Fixtures) CreateVoterWithPassword(ctx context.Context, nim, name, email, password string) models.User {
	f.t.Helper()

	hash, err := authutil.HashPassword(password)
	if err != nil {
		f.t.Fatalf("failed to hash password: %v", err)
	}
	return f.insert(ctx, models.User{
		NIM:       nim,
		Email:     email,
		Name:      name,
		Password:  hash,
		IsAdmin:   boolPtr(false),
		YearClass: intPtr(2020),
	})
}

// MarkVoted sets the voted flag directly.
func (f *Fixtures) MarkVoted(ctx context.Context, id primitive.ObjectID) {
	f.t.Helper()
	_, err := f.db.Collection("users").UpdateByID(ctx, id,
		map[string]any{"$set": map[string]any{"voted": true}})
	if err != nil {
		f.t.Fatalf("failed to mark voted: %v", err)
	}
}
