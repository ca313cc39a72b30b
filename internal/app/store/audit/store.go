// internal/app/store/audit/store.go
package audit

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CollectionName is where audit events are stored.
const CollectionName = "audit_events"

// Event categories
const (
	CategoryAuth  = "auth"
	CategoryAdmin = "admin"
)

// Auth event types
const (
	EventLoginSuccess             = "login_success"
	EventLoginFailedUserNotFound  = "login_failed_user_not_found"
	EventLoginFailedNoPassword    = "login_failed_no_password"
	EventLoginFailedWrongPassword = "login_failed_wrong_password"
	EventLoginFailedNotAdmin      = "login_failed_not_admin"
	EventLoginFailedRateLimit     = "login_failed_rate_limit"
)

// Admin event types
const (
	EventUserCreated     = "user_created"
	EventUsersImported   = "users_imported"
	EventUserDeleted     = "user_deleted"
	EventCredentialsSent = "credentials_sent"
	EventVoteUpdated     = "vote_updated"
)

// failedLoginTypes lists every auth event type that records a rejected login.
var failedLoginTypes = []string{
	EventLoginFailedUserNotFound,
	EventLoginFailedNoPassword,
	EventLoginFailedWrongPassword,
	EventLoginFailedNotAdmin,
	EventLoginFailedRateLimit,
}

// Event represents an audit event.
type Event struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Timestamp time.Time          `bson:"timestamp" json:"timestamp"`

	// Event classification
	Category  string `bson:"category" json:"category"`
	EventType string `bson:"event_type" json:"event_type"`

	// Who
	UserID  *primitive.ObjectID `bson:"user_id,omitempty" json:"user_id,omitempty"`   // affected user
	ActorID *primitive.ObjectID `bson:"actor_id,omitempty" json:"actor_id,omitempty"` // admin who acted

	// Context
	IP        string `bson:"ip" json:"ip"`
	UserAgent string `bson:"user_agent,omitempty" json:"user_agent,omitempty"`

	// Outcome
	Success       bool   `bson:"success" json:"success"`
	FailureReason string `bson:"failure_reason,omitempty" json:"failure_reason,omitempty"`

	Details map[string]string `bson:"details,omitempty" json:"details,omitempty"`
}

// QueryFilter narrows Query and Count. Zero fields do not filter.
type QueryFilter struct {
	UserID    *primitive.ObjectID
	ActorID   *primitive.ObjectID
	Category  string
	EventType string
	Success   *bool
	StartTime *time.Time
	EndTime   *time.Time
	Limit     int64
	Offset    int64
}

func (f QueryFilter) bson() bson.M {
	query := bson.M{}
	if f.UserID != nil {
		query["user_id"] = *f.UserID
	}
	if f.ActorID != nil {
		query["actor_id"] = *f.ActorID
	}
	if f.Category != "" {
		query["category"] = f.Category
	}
	if f.EventType != "" {
		query["event_type"] = f.EventType
	}
	if f.Success != nil {
		query["success"] = *f.Success
	}
	if f.StartTime != nil || f.EndTime != nil {
		timeQuery := bson.M{}
		if f.StartTime != nil {
			timeQuery["$gte"] = *f.StartTime
		}
		if f.EndTime != nil {
			timeQuery["$lte"] = *f.EndTime
		}
		query["timestamp"] = timeQuery
	}
	return query
}

// DefaultLimit applies when a QueryFilter leaves Limit unset.
const DefaultLimit = 100

// Store manages audit event records.
type Store struct {
	c *mongo.Collection
}

// New creates a new audit Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(CollectionName)}
}

// Log records an audit event, filling ID and Timestamp when unset.
func (s *Store) Log(ctx context.Context, event Event) error {
	if event.ID.IsZero() {
		event.ID = primitive.NewObjectID()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	_, err := s.c.InsertOne(ctx, event)
	return err
}

// Query returns events matching filter, newest first.
func (s *Store) Query(ctx context.Context, filter QueryFilter) ([]Event, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(limit).
		SetSkip(filter.Offset)

	cursor, err := s.c.Find(ctx, filter.bson(), opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	events := []Event{}
	if err := cursor.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// Count returns the number of events matching filter. Limit and Offset
// are ignored.
func (s *Store) Count(ctx context.Context, filter QueryFilter) (int64, error) {
	return s.c.CountDocuments(ctx, filter.bson())
}

// GetByUser retrieves recent audit events for a specific user.
func (s *Store) GetByUser(ctx context.Context, userID primitive.ObjectID, limit int64) ([]Event, error) {
	return s.Query(ctx, QueryFilter{UserID: &userID, Limit: limit})
}

// GetFailedLogins retrieves failed login attempts since the given time.
func (s *Store) GetFailedLogins(ctx context.Context, since time.Time, limit int64) ([]Event, error) {
	query := bson.M{
		"category":   CategoryAuth,
		"success":    false,
		"event_type": bson.M{"$in": failedLoginTypes},
		"timestamp":  bson.M{"$gte": since},
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(limit)

	cursor, err := s.c.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	events := []Event{}
	if err := cursor.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// DeleteBefore removes events older than cutoff and returns how many were
// deleted.
func (s *Store) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"timestamp": bson.M{"$lt": cutoff}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
