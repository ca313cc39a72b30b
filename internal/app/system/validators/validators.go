// internal/app/system/validators/validators.go
package validators

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// EnsureAll creates collections (if missing) and tries to attach JSON-Schema
// validators. On servers that don't support collMod/validators (e.g. some
// DocumentDB versions), we log and skip gracefully.
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	ensure := func(coll string, schema bson.M) {
		if _, err := ensureCollection(ctx, db, coll); err != nil {
			problems = append(problems, coll+": "+err.Error())
			return
		}
		if schema == nil {
			return
		}
		if err := setValidator(ctx, db, coll, schema); err != nil {
			if isUnsupported(err) {
				zap.L().Info("validator skipped (unsupported)", zap.String("collection", coll))
				return
			}
			problems = append(problems, coll+": "+err.Error())
		}
	}

	ensure("users", usersSchema())

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* ---------------------- collection helpers & logging ---------------------- */

func collectionExists(ctx context.Context, db *mongo.Database, name string) (bool, error) {
	names, err := db.ListCollectionNames(ctx, bson.M{"name": name})
	if err != nil {
		return false, err
	}
	return len(names) > 0, nil
}

// ensureCollection idempotently makes sure <name> exists.
// Returns created==true only if it was actually created.
func ensureCollection(ctx context.Context, db *mongo.Database, name string) (created bool, err error) {
	exists, listErr := collectionExists(ctx, db, name)
	if listErr == nil && exists {
		zap.L().Info("collection exists", zap.String("collection", name))
		return false, nil
	}
	if err := db.CreateCollection(ctx, name); err != nil {
		// NamespaceExists is fine (race or prior run).
		if commandErrorIs(err, 48, "already exists", "namespace exists") {
			zap.L().Info("collection exists", zap.String("collection", name))
			return false, nil
		}
		zap.L().Warn("createCollection failed", zap.String("collection", name), zap.Error(err))
		return false, err
	}
	zap.L().Info("created collection", zap.String("collection", name))
	return true, nil
}

/* ------------------------------ validators ------------------------------- */

func setValidator(ctx context.Context, db *mongo.Database, name string, validator bson.M) error {
	cmd := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
		{Key: "validationLevel", Value: "moderate"},
		{Key: "validationAction", Value: "error"},
	}
	var out bson.M
	if err := db.RunCommand(ctx, cmd).Decode(&out); err != nil {
		return err
	}
	zap.L().Info("validator ensured", zap.String("collection", name))
	return nil
}

/* ------------------------- error helpers ------------------------- */

// commandErrorIs reports whether err is a command error with the given code
// or whose message contains one of the fragments.
func commandErrorIs(err error, code int32, fragments ...string) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == code {
		return true
	}
	s := strings.ToLower(err.Error())
	for _, f := range fragments {
		if strings.Contains(s, f) {
			return true
		}
	}
	return false
}

func isUnsupported(err error) bool {
	return commandErrorIs(err, 59, "no such command") ||
		commandErrorIs(err, 115, "not implemented", "not supported")
}

/* ------------------------- JSON-Schema docs ---------------------- */

// usersSchema mirrors models.User. nim is optional at the schema level
// because admins may be created without one.
func usersSchema() bson.M {
	nonBlank := bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"}
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"email", "name", "is_admin", "voted"},
			"properties": bson.M{
				"nim":        nonBlank,
				"email":      nonBlank,
				"name":       nonBlank,
				"password":   bson.M{"bsonType": "string"},
				"is_admin":   bson.M{"bsonType": "bool"},
				"year_class": bson.M{"bsonType": bson.A{"int", "long"}},
				"voted":      bson.M{"bsonType": "bool"},
				"version":    bson.M{"bsonType": bson.A{"int", "long"}},
				"created_at": bson.M{"bsonType": "date"},
				"updated_at": bson.M{"bsonType": "date"},
			},
		},
	}
}
