// internal/app/system/auditlog/logger.go
package auditlog

// Terminology: User Identifiers
//   - UserID / userID / user_id: The MongoDB ObjectID (_id) of the affected user
//   - ActorID: the admin whose request caused the event
//   - Identifier: the email or nim typed at login

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/dalemusser/votehub/internal/app/store/audit"
	"github.com/dalemusser/votehub/internal/app/system/auth"
	"github.com/dalemusser/votehub/internal/app/system/ratelimit"
	"github.com/dalemusser/votehub/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Destination settings for a category.
const (
	ToAll = "all" // MongoDB + zap
	ToDB  = "db"  // MongoDB only
	ToLog = "log" // zap only
	Off   = "off"
)

// Config holds audit logging configuration.
type Config struct {
	// Auth controls logging for login events.
	Auth string
	// Admin controls logging for user management actions.
	Admin string
}

// Validate rejects unknown destination settings.
func (c Config) Validate() error {
	for name, v := range map[string]string{"audit_log_auth": c.Auth, "audit_log_admin": c.Admin} {
		switch v {
		case ToAll, ToDB, ToLog, Off:
		default:
			return fmt.Errorf("%s must be one of all, db, log, off (got %q)", name, v)
		}
	}
	return nil
}

// Logger writes audit events to MongoDB (via audit.Store) and zap,
// as configured per category.
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{
		store:  store,
		zapLog: zapLog,
		config: config,
	}
}

func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
		zap.String("ip", event.IP),
	}
	if event.UserID != nil {
		fields = append(fields, zap.String("user_id", event.UserID.Hex()))
	}
	if event.ActorID != nil {
		fields = append(fields, zap.String("actor_id", event.ActorID.Hex()))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records an audit event based on configuration.
// A nil Logger is a no-op so handlers can run without auditing in tests.
// Storage failures are logged, never returned.
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	var setting string
	switch event.Category {
	case audit.CategoryAuth:
		setting = l.config.Auth
	case audit.CategoryAdmin:
		setting = l.config.Admin
	default:
		setting = ToAll
	}
	if setting == Off {
		return
	}

	if setting == ToAll || setting == ToLog {
		l.logToZap(event)
	}

	if setting == ToAll || setting == ToDB {
		// The request context may be near its deadline; give the insert its own.
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeouts.Short())
		defer cancel()
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType))
		}
	}
}

func newEvent(r *http.Request, category, eventType string) audit.Event {
	e := audit.Event{
		Category:  category,
		EventType: eventType,
		IP:        ratelimit.ClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   true,
	}
	if u, ok := auth.CurrentUser(r); ok {
		if oid, err := primitive.ObjectIDFromHex(u.ID); err == nil {
			e.ActorID = &oid
		}
	}
	return e
}

/*─────────────────────────────────────────────────────────────────────────────*
| Authentication events                                                      |
*─────────────────────────────────────────────────────────────────────────────*/

// LoginSuccess logs a successful login. mode is the requested login mode
// ("admin", "voter" or empty).
func (l *Logger) LoginSuccess(ctx context.Context, r *http.Request, userID primitive.ObjectID, mode, identifier string) {
	e := newEvent(r, audit.CategoryAuth, audit.EventLoginSuccess)
	e.UserID = &userID
	e.Details = map[string]string{"mode": mode, "identifier": identifier}
	l.Log(ctx, e)
}

func (l *Logger) loginFailed(ctx context.Context, r *http.Request, eventType string, userID *primitive.ObjectID, identifier, reason string) {
	e := newEvent(r, audit.CategoryAuth, eventType)
	e.UserID = userID
	e.Success = false
	e.FailureReason = reason
	e.Details = map[string]string{"identifier": identifier}
	l.Log(ctx, e)
}

// LoginFailedUserNotFound logs a login for an identifier that matched nobody.
func (l *Logger) LoginFailedUserNotFound(ctx context.Context, r *http.Request, identifier string) {
	l.loginFailed(ctx, r, audit.EventLoginFailedUserNotFound, nil, identifier, "user not found")
}

// LoginFailedNoPassword logs a login by a voter whose credentials were never sent.
func (l *Logger) LoginFailedNoPassword(ctx context.Context, r *http.Request, userID primitive.ObjectID, identifier string) {
	l.loginFailed(ctx, r, audit.EventLoginFailedNoPassword, &userID, identifier, "no password set")
}

// LoginFailedWrongPassword logs a login with a wrong password.
func (l *Logger) LoginFailedWrongPassword(ctx context.Context, r *http.Request, userID primitive.ObjectID, identifier string) {
	l.loginFailed(ctx, r, audit.EventLoginFailedWrongPassword, &userID, identifier, "wrong password")
}

// LoginFailedNotAdmin logs an admin-mode login by a non-admin.
func (l *Logger) LoginFailedNotAdmin(ctx context.Context, r *http.Request, userID primitive.ObjectID, identifier string) {
	l.loginFailed(ctx, r, audit.EventLoginFailedNotAdmin, &userID, identifier, "not an admin")
}

// LoginFailedRateLimit logs a login rejected by the rate limiter.
func (l *Logger) LoginFailedRateLimit(ctx context.Context, r *http.Request, identifier string) {
	l.loginFailed(ctx, r, audit.EventLoginFailedRateLimit, nil, identifier, "rate limit exceeded")
}

/*─────────────────────────────────────────────────────────────────────────────*
| Admin events                                                               |
*─────────────────────────────────────────────────────────────────────────────*/

func role(admin bool) string {
	if admin {
		return "admin"
	}
	return "voter"
}

// UserCreated logs a single user creation.
func (l *Logger) UserCreated(ctx context.Context, r *http.Request, userID primitive.ObjectID, admin bool) {
	e := newEvent(r, audit.CategoryAdmin, audit.EventUserCreated)
	e.UserID = &userID
	e.Details = map[string]string{"role": role(admin)}
	l.Log(ctx, e)
}

// UsersImported logs a CSV import of count voters.
func (l *Logger) UsersImported(ctx context.Context, r *http.Request, count int) {
	e := newEvent(r, audit.CategoryAdmin, audit.EventUsersImported)
	e.Details = map[string]string{"count": strconv.Itoa(count)}
	l.Log(ctx, e)
}

// UserDeleted logs a user deletion.
func (l *Logger) UserDeleted(ctx context.Context, r *http.Request, userID primitive.ObjectID) {
	e := newEvent(r, audit.CategoryAdmin, audit.EventUserDeleted)
	e.UserID = &userID
	l.Log(ctx, e)
}

// CredentialsSent logs a password rotation with its e-mail outcome.
// mailErr is nil when the message was handed to the SMTP server.
func (l *Logger) CredentialsSent(ctx context.Context, r *http.Request, userID primitive.ObjectID, mailErr error) {
	e := newEvent(r, audit.CategoryAdmin, audit.EventCredentialsSent)
	e.UserID = &userID
	if mailErr != nil {
		e.Success = false
		e.FailureReason = mailErr.Error()
	}
	l.Log(ctx, e)
}

// VoteUpdated logs a change of the voted flag.
func (l *Logger) VoteUpdated(ctx context.Context, r *http.Request, userID primitive.ObjectID, voted bool) {
	e := newEvent(r, audit.CategoryAdmin, audit.EventVoteUpdated)
	e.UserID = &userID
	e.Details = map[string]string{"voted": strconv.FormatBool(voted)}
	l.Log(ctx, e)
}
