// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"time"

	"github.com/dalemusser/votehub/internal/app/system/auditlog"
	"github.com/dalemusser/votehub/internal/app/system/auth"
	"github.com/dalemusser/votehub/internal/app/system/csvutil"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// devJWTSecret is the default signing key. ValidateConfig refuses it in prod.
const devJWTSecret = "dev-only-change-me-please-0123456789ABCDEF"

// appConfigKeys defines the configuration keys for VoteHub.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, jwt_secret, etc.
//   - Environment variables: VOTEHUB_MONGO_URI, VOTEHUB_JWT_SECRET, etc.
//   - Command-line flags: --mongo_uri, --jwt_secret, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "votehub", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},

	// Email/SMTP configuration
	{Name: "mail_smtp_host", Default: "localhost", Desc: "SMTP server host"},
	{Name: "mail_smtp_port", Default: 1025, Desc: "SMTP server port"},
	{Name: "mail_smtp_user", Default: "", Desc: "SMTP username"},
	{Name: "mail_smtp_pass", Default: "", Desc: "SMTP password"},
	{Name: "mail_from", Default: "noreply@votehub.local", Desc: "From email address"},
	{Name: "mail_from_name", Default: "VoteHub", Desc: "From display name"},

	// Credential e-mails
	{Name: "site_name", Default: "VoteHub", Desc: "Site name used in credential e-mails"},
	{Name: "login_url", Default: "http://localhost:3000/login", Desc: "Login link included in credential e-mails"},

	// Login tokens
	{Name: "jwt_secret", Default: devJWTSecret, Desc: "HMAC key for login tokens (must be strong in production)"},
	{Name: "jwt_ttl", Default: "12h", Desc: "Login token lifetime (e.g., 12h, 30m)"},

	// Timeouts
	{Name: "timeout_short", Default: "0s", Desc: "Timeout for single-document operations (default 5s)"},
	{Name: "timeout_medium", Default: "0s", Desc: "Timeout for listings and counts (default 10s)"},
	{Name: "timeout_batch", Default: "0s", Desc: "Timeout for CSV imports (default 60s)"},

	// CSV import
	{Name: "max_import_rows", Default: csvutil.MaxRows, Desc: "Maximum data rows accepted in one CSV import"},

	// Audit logging settings
	{Name: "audit_log_auth", Default: "all", Desc: "Login event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_admin", Default: "all", Desc: "User management event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_retention", Default: "0s", Desc: "Delete audit events older than this (e.g., 2160h); 0 keeps them"},

	// First admin
	{Name: "bootstrap_admin_email", Default: "", Desc: "Email of an admin to create on startup when none exists"},
	{Name: "bootstrap_admin_name", Default: "Administrator", Desc: "Display name for the bootstrap admin"},
	{Name: "bootstrap_admin_password", Default: "", Desc: "Initial password for the bootstrap admin"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles .env files, config files,
// environment variables (WAFFLE_* for core, VOTEHUB_* for app) and flags,
// merged with precedence flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "VOTEHUB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		// Email/SMTP
		MailSMTPHost: appValues.String("mail_smtp_host"),
		MailSMTPPort: appValues.Int("mail_smtp_port"),
		MailSMTPUser: appValues.String("mail_smtp_user"),
		MailSMTPPass: appValues.String("mail_smtp_pass"),
		MailFrom:     appValues.String("mail_from"),
		MailFromName: appValues.String("mail_from_name"),

		SiteName: appValues.String("site_name"),
		LoginURL: appValues.String("login_url"),

		JWTSecret: appValues.String("jwt_secret"),
		JWTTTL:    appValues.Duration("jwt_ttl", 12*time.Hour),

		TimeoutShort:  appValues.Duration("timeout_short", 0),
		TimeoutMedium: appValues.Duration("timeout_medium", 0),
		TimeoutBatch:  appValues.Duration("timeout_batch", 0),

		MaxImportRows: appValues.Int("max_import_rows"),

		AuditLogAuth:   appValues.String("audit_log_auth"),
		AuditLogAdmin:  appValues.String("audit_log_admin"),
		AuditRetention: appValues.Duration("audit_retention", 0),

		BootstrapAdminEmail:    appValues.String("bootstrap_admin_email"),
		BootstrapAdminName:     appValues.String("bootstrap_admin_name"),
		BootstrapAdminPassword: appValues.String("bootstrap_admin_password"),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// It checks the MongoDB URI format before any connection attempt, and
// refuses weak signing keys.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	if len(appCfg.JWTSecret) < auth.MinSecretLength {
		return fmt.Errorf("jwt_secret must be at least %d bytes", auth.MinSecretLength)
	}
	if coreCfg != nil && coreCfg.Env == "prod" && appCfg.JWTSecret == devJWTSecret {
		return fmt.Errorf("jwt_secret must be changed from the development default in prod")
	}
	if appCfg.JWTTTL <= 0 {
		return fmt.Errorf("jwt_ttl must be positive")
	}

	if appCfg.MaxImportRows <= 0 {
		return fmt.Errorf("max_import_rows must be positive")
	}

	if err := auditConfig(appCfg).Validate(); err != nil {
		return err
	}

	if appCfg.AuditRetention < 0 {
		return fmt.Errorf("audit_retention must not be negative")
	}

	if (appCfg.BootstrapAdminEmail == "") != (appCfg.BootstrapAdminPassword == "") {
		return fmt.Errorf("bootstrap_admin_email and bootstrap_admin_password must be set together")
	}

	return nil
}

func auditConfig(appCfg AppConfig) auditlog.Config {
	return auditlog.Config{Auth: appCfg.AuditLogAuth, Admin: appCfg.AuditLogAdmin}
}
