// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

/*
EnsureAll is called at startup. Each ensure* function is idempotent.
Errors are aggregated so every problem is visible and startup fails fast.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	if err := ensureUsers(ctx, db); err != nil {
		problems = append(problems, "users: "+err.Error())
	}
	if err := ensureAuditEvents(ctx, db); err != nil {
		problems = append(problems, "audit_events: "+err.Error())
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* users                                                                      */
/* -------------------------------------------------------------------------- */

// UsersIndexModels returns the desired indexes on the users collection.
//   - nim unique + sparse: admins may have no nim
//   - email unique
//   - is_admin: every listing and count filters on it
//   - is_admin + name: default listing order
func UsersIndexModels() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "nim", Value: 1}},
			Options: options.Index().SetName("uniq_users_nim").SetUnique(true).SetSparse(true),
		},
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName("uniq_users_email").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "is_admin", Value: 1}},
			Options: options.Index().SetName("idx_users_is_admin"),
		},
		{
			Keys:    bson.D{{Key: "is_admin", Value: 1}, {Key: "name", Value: 1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("idx_users_is_admin_name__id"),
		},
	}
}

func ensureUsers(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("users"), UsersIndexModels())
}

/* -------------------------------------------------------------------------- */
/* audit_events                                                               */
/* -------------------------------------------------------------------------- */

// AuditIndexModels returns the indexes backing audit queries: newest first
// overall, per affected user, per acting admin, and per event type.
func AuditIndexModels() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_audit_timestamp"),
		},
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_audit_user_timestamp"),
		},
		{
			Keys:    bson.D{{Key: "actor_id", Value: 1}, {Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_audit_actor_timestamp"),
		},
		{
			Keys:    bson.D{{Key: "category", Value: 1}, {Key: "event_type", Value: 1}, {Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_audit_category_type_timestamp"),
		},
	}
}

func ensureAuditEvents(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("audit_events"), AuditIndexModels())
}

/* -------------------------------------------------------------------------- */
/* Core helper: reconcile a set of desired indexes for one collection         */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique *bool  `bson:"unique,omitempty"`
	Sparse *bool  `bson:"sparse,omitempty"`
}

type desiredIndex struct {
	model  mongo.IndexModel
	name   string
	sig    string
	unique bool
	sparse bool
}

func describe(m mongo.IndexModel) desiredIndex {
	d := desiredIndex{model: m, sig: keySig(m.Keys.(bson.D))}
	if m.Options != nil {
		if m.Options.Name != nil {
			d.name = *m.Options.Name
		}
		d.unique = m.Options.Unique != nil && *m.Options.Unique
		d.sparse = m.Options.Sparse != nil && *m.Options.Sparse
	}
	return d
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func boolOf(p *bool) bool {
	return p != nil && *p
}

func (d desiredIndex) sameOptions(ex existingIndex) bool {
	return d.unique == boolOf(ex.Unique) && d.sparse == boolOf(ex.Sparse)
}

// Best-effort duplicate-detector (works cross-vendors)
func isDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	if mongo.IsDuplicateKeyError(err) {
		return true
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == 11000 {
		return true
	}
	s := err.Error()
	return strings.Contains(s, "E11000") || strings.Contains(strings.ToLower(s), "duplicate key")
}

func listExisting(ctx context.Context, coll *mongo.Collection) (map[string]existingIndex, error) {
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	existing := map[string]existingIndex{} // sig -> index
	for cur.Next(ctx) {
		var idx existingIndex
		if err := cur.Decode(&idx); err != nil {
			zap.L().Warn("failed to decode existing index",
				zap.String("collection", coll.Name()),
				zap.Error(err))
			continue
		}
		existing[keySig(idx.Key)] = idx
	}
	return existing, cur.Err()
}

// createErr turns a CreateOne failure into a readable problem line. A unique
// index that cannot be built points the operator at the duplicate data.
func createErr(coll *mongo.Collection, d desiredIndex, err error) string {
	if d.unique && isDuplicateKeyErr(err) {
		field := strings.SplitN(d.sig, ":", 2)[0]
		return fmt.Sprintf("%s(%s): cannot create unique index (duplicates present). Example finder:\n"+
			`db.%s.aggregate([{ $group: { _id: "$%s", n: { $sum: 1 } } }, { $match: { n: { $gt: 1 } } }])`,
			coll.Name(), d.name, coll.Name(), field)
	}
	return fmt.Sprintf("%s(%s): %v", coll.Name(), d.name, err)
}

func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	existing, err := listExisting(ctx, coll)
	if err != nil {
		// A collection that does not exist yet has no indexes to reconcile.
		existing = map[string]existingIndex{}
	}

	var errs []string
	for _, m := range models {
		d := describe(m)
		start := time.Now()
		log := zap.L().With(
			zap.String("collection", coll.Name()),
			zap.String("name", d.name),
			zap.String("keys", d.sig),
			zap.Bool("unique", d.unique))

		ex, found := existing[d.sig]
		switch {
		case found && d.sameOptions(ex) && (d.name == "" || ex.Name == d.name):
			log.Info("reusing existing index", zap.Duration("took", time.Since(start)))
			continue

		case found:
			// Same keys under another name, or options changed (e.g. upgrading
			// to unique). Drop and recreate with the desired definition.
			if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
				log.Warn("drop existing index failed", zap.String("existing", ex.Name), zap.Error(err))
				errs = append(errs, fmt.Sprintf("%s(%s): drop failed: %v", coll.Name(), d.name, err))
				continue
			}
			log.Info("dropped index for redefinition", zap.String("existing", ex.Name))
		}

		created, err := coll.Indexes().CreateOne(ctx, d.model)
		if err != nil {
			log.Warn("index ensure failed", zap.Duration("took", time.Since(start)), zap.Error(err))
			errs = append(errs, createErr(coll, d, err))
			continue
		}
		log.Info("index ensured",
			zap.String("created_name", created),
			zap.Duration("took", time.Since(start)))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}
