package userstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/votehub/internal/app/system/normalize"
	"github.com/dalemusser/votehub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CollectionName is the MongoDB collection holding user accounts.
const CollectionName = "users"

// ErrDuplicateNIMOrEmail is returned when an insert collides with the
// unique nim or email index.
var ErrDuplicateNIMOrEmail = errors.New("a user with this nim or email already exists")

// Projections. password and is_admin are hidden unless a lookup asks for them.
var (
	defaultProjection   = bson.M{"password": 0, "is_admin": 0, "version": 0}
	withRoleProjection  = bson.M{"password": 0, "version": 0}
	loginProjection     = bson.M{"version": 0}
	adminListProjection = bson.M{
		"password":   0,
		"is_admin":   0,
		"version":    0,
		"voted":      0,
		"year_class": 0,
	}
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(CollectionName)}
}

func isDup(err error) bool {
	return wafflemongo.IsDup(err) || mongo.IsDuplicateKeyError(err)
}

func (s *Store) findOne(ctx context.Context, filter bson.M, proj bson.M) (*models.User, error) {
	var u models.User
	opts := options.FindOne().SetProjection(proj)
	if err := s.c.FindOne(ctx, filter, opts).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByID loads a user by ObjectID without hidden fields.
// Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return s.findOne(ctx, bson.M{"_id": id}, defaultProjection)
}

// GetByIDWithRole loads a user by ObjectID including is_admin.
func (s *Store) GetByIDWithRole(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return s.findOne(ctx, bson.M{"_id": id}, withRoleProjection)
}

// GetByNIM looks up a user by exact nim.
func (s *Store) GetByNIM(ctx context.Context, nim string) (*models.User, error) {
	return s.findOne(ctx, bson.M{"nim": normalize.NIM(nim)}, defaultProjection)
}

// GetByEmail looks up a user by case-insensitive email.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findOne(ctx, bson.M{"email": normalize.Email(email)}, defaultProjection)
}

// FindForLogin matches identifier against email OR nim and returns the
// record including password hash and is_admin.
func (s *Store) FindForLogin(ctx context.Context, identifier string) (*models.User, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"email": normalize.Email(identifier)},
		bson.M{"nim": normalize.NIM(identifier)},
	}}
	return s.findOne(ctx, filter, loginProjection)
}

// FindForLoginByNIM is FindForLogin restricted to the nim field.
func (s *Store) FindForLoginByNIM(ctx context.Context, nim string) (*models.User, error) {
	return s.findOne(ctx, bson.M{"nim": normalize.NIM(nim)}, loginProjection)
}

// FindForLoginByEmail is FindForLogin restricted to the email field.
func (s *Store) FindForLoginByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findOne(ctx, bson.M{"email": normalize.Email(email)}, loginProjection)
}

// prepare normalizes identity fields and fills defaults for a new record.
func prepare(u *models.User, now time.Time) {
	u.ID = primitive.NewObjectID()
	u.NIM = normalize.NIM(u.NIM)
	u.Email = normalize.Email(u.Email)
	u.Name = normalize.Name(u.Name)
	if u.IsAdmin == nil {
		f := false
		u.IsAdmin = &f
	}
	if u.Voted == nil {
		f := false
		u.Voted = &f
	}
	if u.Version == nil {
		v := 0
		u.Version = &v
	}
	u.CreatedAt = now
	u.UpdatedAt = now
}

// Create inserts a single user. Password must already be hashed.
func (s *Store) Create(ctx context.Context, u models.User) (models.User, error) {
	prepare(&u, time.Now().UTC())
	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if isDup(err) {
			return models.User{}, ErrDuplicateNIMOrEmail
		}
		return models.User{}, err
	}
	return u, nil
}

// InsertMany performs one ordered batch insert and returns the stored
// records. On a unique-index collision the documents before the failing
// one stay inserted and ErrDuplicateNIMOrEmail is returned.
func (s *Store) InsertMany(ctx context.Context, users []models.User) ([]models.User, error) {
	if len(users) == 0 {
		return nil, nil
	}
	now := time.Now().UTC()
	docs := make([]interface{}, len(users))
	for i := range users {
		prepare(&users[i], now)
		docs[i] = users[i]
	}
	if _, err := s.c.InsertMany(ctx, docs, options.InsertMany().SetOrdered(true)); err != nil {
		if isDup(err) {
			return nil, ErrDuplicateNIMOrEmail
		}
		return nil, err
	}
	return users, nil
}

// FindTaken returns stored users whose nim or email is in the given sets.
// Only _id, nim and email are loaded.
func (s *Store) FindTaken(ctx context.Context, nims, emails []string) ([]models.User, error) {
	or := bson.A{}
	if len(nims) > 0 {
		or = append(or, bson.M{"nim": bson.M{"$in": nims}})
	}
	if len(emails) > 0 {
		or = append(or, bson.M{"email": bson.M{"$in": emails}})
	}
	if len(or) == 0 {
		return nil, nil
	}

	opts := options.Find().SetProjection(bson.M{"_id": 1, "nim": 1, "email": 1})
	cur, err := s.c.Find(ctx, bson.M{"$or": or}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.User
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes a user and returns the pre-deletion record.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	opts := options.FindOneAndDelete().SetProjection(defaultProjection)
	if err := s.c.FindOneAndDelete(ctx, bson.M{"_id": id}, opts).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// List returns users with the given role. The is_admin constraint is always
// applied on top of filter, and the projection depends on the role.
func (s *Store) List(ctx context.Context, admin bool, filter bson.M, opts *options.FindOptions) ([]models.User, error) {
	f := bson.M{}
	for k, v := range filter {
		f[k] = v
	}
	f["is_admin"] = admin

	if opts == nil {
		opts = options.Find()
	}
	if admin {
		opts.SetProjection(adminListProjection)
	} else {
		opts.SetProjection(defaultProjection)
	}

	cur, err := s.c.Find(ctx, f, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.User{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SetPassword overwrites the stored password hash and returns the record
// as it was before the update.
func (s *Store) SetPassword(ctx context.Context, id primitive.ObjectID, hash string) (*models.User, error) {
	var u models.User
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.Before).
		SetProjection(defaultProjection)
	update := bson.M{"$set": bson.M{"password": hash, "updated_at": time.Now().UTC()}}
	if err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// SetVoted sets the voted flag and returns the updated record.
func (s *Store) SetVoted(ctx context.Context, id primitive.ObjectID, voted bool) (*models.User, error) {
	var u models.User
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(defaultProjection)
	update := bson.M{"$set": bson.M{"voted": voted, "updated_at": time.Now().UTC()}}
	if err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Count returns the number of users with the given role.
func (s *Store) Count(ctx context.Context, admin bool) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"is_admin": admin})
}
