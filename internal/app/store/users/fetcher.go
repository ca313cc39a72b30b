package userstore

import (
	"context"

	"github.com/dalemusser/votehub/internal/app/system/auth"
	"github.com/dalemusser/votehub/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Fetcher implements auth.UserFetcher to load fresh user data on each request.
type Fetcher struct {
	store *Store
}

// NewFetcher creates a UserFetcher backed by the given store.
func NewFetcher(store *Store) *Fetcher {
	return &Fetcher{store: store}
}

// FetchUser retrieves a user by ID and returns nil if the user is not found
// or if any error occurs. This implements auth.UserFetcher.
func (f *Fetcher) FetchUser(ctx context.Context, userID string) *auth.Principal {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	u, err := f.store.GetByIDWithRole(ctx, oid)
	if err != nil {
		return nil
	}

	return &auth.Principal{
		ID:    u.ID.Hex(),
		Name:  u.Name,
		Email: u.Email,
		NIM:   u.NIM,
		Admin: u.Admin(),
	}
}
