// Package users implements account management for the voting app: creating
// admins and voters, CSV voter import, login lookups, credential issuance
// and the per-user vote flag.
//
// Lookups that find nothing return (nil, nil). Only two failures are
// translated for clients, ErrDuplicateValue and ErrSendCredentials; every
// other error is returned as the store, parser or mailer produced it.
package users

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"

	userstore "github.com/dalemusser/votehub/internal/app/store/users"
	"github.com/dalemusser/votehub/internal/app/system/authutil"
	"github.com/dalemusser/votehub/internal/app/system/csvutil"
	"github.com/dalemusser/votehub/internal/app/system/listfilter"
	"github.com/dalemusser/votehub/internal/app/system/mailer"
	"github.com/dalemusser/votehub/internal/app/system/normalize"
	"github.com/dalemusser/votehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

var (
	// ErrDuplicateValue is returned by BulkData when a nim or email is not unique.
	ErrDuplicateValue = errors.New("make sure all email and nim values are unique")
	// ErrSendCredentials is returned by SendCredentials when the e-mail could
	// not be dispatched. The stored password has already been replaced.
	ErrSendCredentials = errors.New("failed on sending the user credentials")
)

// Sender delivers an e-mail. *mailer.Mailer implements it.
type Sender interface {
	Send(e mailer.Email) error
}

// Config carries the values the service needs from the app config.
type Config struct {
	SiteName string
	LoginURL string
	// MaxImportRows caps the data rows of one CSV import (0 = unlimited).
	MaxImportRows int
}

// Service is the user service.
type Service struct {
	store *userstore.Store
	mail  Sender
	cfg   Config
	log   *zap.Logger

	genPassword func() string
	// checkStored finds rows clashing with stored users before an import.
	checkStored func(ctx context.Context, rows []csvutil.UserRow) ([]csvutil.RowError, error)
}

// New creates a Service over db.
func New(db *mongo.Database, mail Sender, cfg Config, logger *zap.Logger) *Service {
	s := &Service{
		store:       userstore.New(db),
		mail:        mail,
		cfg:         cfg,
		log:         logger,
		genPassword: authutil.GenerateTempPassword,
	}
	s.checkStored = s.storedConflicts
	return s
}

// Store exposes the underlying store, for wiring the auth fetcher.
func (s *Service) Store() *userstore.Store {
	return s.store
}

// found maps "no document" to an empty result.
func found(u *models.User, err error) (*models.User, error) {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// parseID returns false for strings that are not ObjectIDs; such ids can
// never match a stored user.
func parseID(id string) (primitive.ObjectID, bool) {
	oid, err := primitive.ObjectIDFromHex(id)
	return oid, err == nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| Validation lookups                                                         |
*─────────────────────────────────────────────────────────────────────────────*/

// ValidateNIM returns the user with this nim, or nil.
func (s *Service) ValidateNIM(ctx context.Context, nim string) (*models.User, error) {
	return found(s.store.GetByNIM(ctx, nim))
}

// ValidateEmail returns the user with this email, or nil.
func (s *Service) ValidateEmail(ctx context.Context, email string) (*models.User, error) {
	return found(s.store.GetByEmail(ctx, email))
}

// IsExist returns the user including its admin flag, or nil.
func (s *Service) IsExist(ctx context.Context, id string) (*models.User, error) {
	oid, ok := parseID(id)
	if !ok {
		return nil, nil
	}
	return found(s.store.GetByIDWithRole(ctx, oid))
}

/*─────────────────────────────────────────────────────────────────────────────*
| Creation                                                                   |
*─────────────────────────────────────────────────────────────────────────────*/

// CreateInput is either AdminInput or NonAdminInput.
type CreateInput interface {
	isCreateInput()
}

// AdminInput creates an admin. Password is the plaintext to hash.
type AdminInput struct {
	NIM      string
	Email    string
	Name     string
	Password string
}

// NonAdminInput creates a voter. Voters have no password until
// SendCredentials issues one.
type NonAdminInput struct {
	NIM       string
	Email     string
	Name      string
	YearClass int
}

func (AdminInput) isCreateInput()    {}
func (NonAdminInput) isCreateInput() {}

// CreateUser stores one user. A nim or email collision is returned as
// userstore.ErrDuplicateNIMOrEmail. The returned record omits the hash.
func (s *Service) CreateUser(ctx context.Context, in CreateInput) (*models.User, error) {
	var u models.User
	switch v := in.(type) {
	case AdminInput:
		hash, err := authutil.HashPassword(v.Password)
		if err != nil {
			return nil, err
		}
		admin := true
		u = models.User{NIM: v.NIM, Email: v.Email, Name: v.Name, Password: hash, IsAdmin: &admin}
	case NonAdminInput:
		admin := false
		year := v.YearClass
		u = models.User{NIM: v.NIM, Email: v.Email, Name: v.Name, IsAdmin: &admin, YearClass: &year}
	default:
		return nil, fmt.Errorf("create user: unsupported input %T", in)
	}

	created, err := s.store.Create(ctx, u)
	if err != nil {
		return nil, err
	}
	created.Password = ""
	return &created, nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| Bulk import                                                                |
*─────────────────────────────────────────────────────────────────────────────*/

// DuplicateError is the ErrDuplicateValue returned by BulkData, carrying the
// collisions that were detected before the insert.
type DuplicateError struct {
	Conflicts []csvutil.RowError
}

func (e *DuplicateError) Error() string { return ErrDuplicateValue.Error() }
func (e *DuplicateError) Unwrap() error { return ErrDuplicateValue }

// BulkData imports voters from CSV. The header row names the fields (nim,
// email, name, yearClass). Parse errors are returned as *csvutil.ParseError.
// Any nim or email that repeats within the file or already exists rejects
// the whole file with ErrDuplicateValue before anything is written.
func (s *Service) BulkData(ctx context.Context, r io.Reader) ([]models.User, error) {
	rows, err := csvutil.ParseUsersCSV(r, csvutil.ParseOptions{MaxRows: s.cfg.MaxImportRows})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return []models.User{}, nil
	}

	if dups := csvutil.FindDuplicates(rows); len(dups) > 0 {
		s.log.Info("csv import rejected: duplicates within file", zap.Int("conflicts", len(dups)))
		return nil, &DuplicateError{Conflicts: dups}
	}

	if conflicts, err := s.checkStored(ctx, rows); err != nil {
		return nil, err
	} else if len(conflicts) > 0 {
		s.log.Info("csv import rejected: values already stored", zap.Int("conflicts", len(conflicts)))
		return nil, &DuplicateError{Conflicts: conflicts}
	}

	users := make([]models.User, len(rows))
	for i, row := range rows {
		admin := false
		users[i] = models.User{
			NIM:       row.NIM,
			Email:     row.Email,
			Name:      row.Name,
			IsAdmin:   &admin,
			YearClass: row.YearClass,
		}
	}

	inserted, err := s.store.InsertMany(ctx, users)
	if err != nil {
		if errors.Is(err, userstore.ErrDuplicateNIMOrEmail) {
			// Lost a race with a concurrent create; rows before the collision stay.
			s.log.Warn("csv import hit unique index during insert", zap.Error(err))
			return nil, ErrDuplicateValue
		}
		return nil, err
	}

	s.log.Info("csv import complete", zap.Int("inserted", len(inserted)))
	return inserted, nil
}

// storedConflicts reports rows whose nim or email is already taken.
func (s *Service) storedConflicts(ctx context.Context, rows []csvutil.UserRow) ([]csvutil.RowError, error) {
	nims := make([]string, 0, len(rows))
	emails := make([]string, 0, len(rows))
	for _, r := range rows {
		nims = append(nims, normalize.NIM(r.NIM))
		emails = append(emails, normalize.Email(r.Email))
	}

	taken, err := s.store.FindTaken(ctx, nims, emails)
	if err != nil {
		return nil, err
	}
	if len(taken) == 0 {
		return nil, nil
	}

	takenNIM := make(map[string]bool, len(taken))
	takenEmail := make(map[string]bool, len(taken))
	for _, u := range taken {
		if u.NIM != "" {
			takenNIM[u.NIM] = true
		}
		takenEmail[u.Email] = true
	}

	var out []csvutil.RowError
	for _, r := range rows {
		if nim := normalize.NIM(r.NIM); takenNIM[nim] {
			out = append(out, csvutil.RowError{Line: r.Line, Reason: fmt.Sprintf("nim %q already exists", nim)})
		}
		if email := normalize.Email(r.Email); takenEmail[email] {
			out = append(out, csvutil.RowError{Line: r.Line, Reason: fmt.Sprintf("email %q already exists", email)})
		}
	}
	return out, nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| Deletion & reads                                                           |
*─────────────────────────────────────────────────────────────────────────────*/

// DeleteUserByID permanently removes a user and returns the record as it was,
// or nil if there was none. Vote records referencing the user are not touched.
func (s *Service) DeleteUserByID(ctx context.Context, id string) (*models.User, error) {
	oid, ok := parseID(id)
	if !ok {
		return nil, nil
	}
	return found(s.store.Delete(ctx, oid))
}

// VoterListSpec and AdminListSpec declare the recognized list filters.
var (
	VoterListSpec = listfilter.Spec{
		Fields: []listfilter.Field{
			{Key: "nim", Path: "nim", Kind: listfilter.String},
			{Key: "email", Path: "email", Kind: listfilter.Email},
			{Key: "name", Path: "name", Kind: listfilter.String},
			{Key: "yearClass", Path: "year_class", Kind: listfilter.Number},
		},
		Search: []string{"nim", "email", "name"},
	}
	AdminListSpec = VoterListSpec
)

// FindAllNonAdmin lists voters matching q.
func (s *Service) FindAllNonAdmin(ctx context.Context, q url.Values) ([]models.User, error) {
	return s.list(ctx, false, q, VoterListSpec)
}

// FindAllAdmin lists admins matching q. vote status and year class are not
// returned for admins.
func (s *Service) FindAllAdmin(ctx context.Context, q url.Values) ([]models.User, error) {
	return s.list(ctx, true, q, AdminListSpec)
}

func (s *Service) list(ctx context.Context, admin bool, q url.Values, spec listfilter.Spec) ([]models.User, error) {
	p, err := listfilter.Build(q, spec)
	if err != nil {
		return nil, err
	}
	return s.store.List(ctx, admin, p.Filter, p.FindOptions())
}

// FindUserByID returns the user, or nil.
func (s *Service) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	oid, ok := parseID(id)
	if !ok {
		return nil, nil
	}
	return found(s.store.GetByID(ctx, oid))
}

/*─────────────────────────────────────────────────────────────────────────────*
| Login lookups                                                              |
*─────────────────────────────────────────────────────────────────────────────*/

// Login finds the user whose email or nim equals identifier, including the
// password hash and admin flag. Password checking is up to the caller.
func (s *Service) Login(ctx context.Context, identifier string) (*models.User, error) {
	return found(s.store.FindForLogin(ctx, identifier))
}

// NonAdminLoginMethod is Login by nim only.
func (s *Service) NonAdminLoginMethod(ctx context.Context, nim string) (*models.User, error) {
	return found(s.store.FindForLoginByNIM(ctx, nim))
}

// AdminLoginMethod is Login by email only.
func (s *Service) AdminLoginMethod(ctx context.Context, email string) (*models.User, error) {
	return found(s.store.FindForLoginByEmail(ctx, email))
}

/*─────────────────────────────────────────────────────────────────────────────*
| Credentials & vote flag                                                    |
*─────────────────────────────────────────────────────────────────────────────*/

// SendCredentials replaces the user's password with a new random one and
// e-mails it to them. It returns the record as it was before the update, or
// nil (and sends nothing) when the user does not exist.
//
// The password is replaced before the e-mail is sent; if sending fails the
// user is left with a password nobody knows and ErrSendCredentials is returned.
func (s *Service) SendCredentials(ctx context.Context, id string) (*models.User, error) {
	oid, ok := parseID(id)
	if !ok {
		return nil, nil
	}

	plain := s.genPassword()
	hash, err := authutil.HashPassword(plain)
	if err != nil {
		return nil, err
	}

	before, err := found(s.store.SetPassword(ctx, oid, hash))
	if err != nil || before == nil {
		return nil, err
	}

	msg := mailer.BuildCredentialsEmail(mailer.CredentialsEmailData{
		SiteName: s.cfg.SiteName,
		Name:     before.Name,
		NIM:      before.NIM,
		Email:    before.Email,
		Password: plain,
		LoginURL: s.cfg.LoginURL,
	})
	if err := s.mail.Send(msg); err != nil {
		s.log.Error("send credentials failed; password already rotated",
			zap.String("user_id", oid.Hex()),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrSendCredentials, err)
	}

	s.log.Info("credentials sent", zap.String("user_id", oid.Hex()))
	return before, nil
}

// UpdateVoteField sets the vote flag and returns the updated record, or nil
// when there is no such user. Setting the same value twice is a no-op.
func (s *Service) UpdateVoteField(ctx context.Context, id string, voted bool) (*models.User, error) {
	oid, ok := parseID(id)
	if !ok {
		return nil, nil
	}
	return found(s.store.SetVoted(ctx, oid, voted))
}

// TotalNonAdminUser counts voters.
func (s *Service) TotalNonAdminUser(ctx context.Context) (int64, error) {
	return s.store.Count(ctx, false)
}

// TotalAdminUser counts admins.
func (s *Service) TotalAdminUser(ctx context.Context) (int64, error) {
	return s.store.Count(ctx, true)
}
