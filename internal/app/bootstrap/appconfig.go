// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig covers the
// framework-level settings (ports, TLS, logging, CORS, body limits); this
// struct holds everything specific to the user service.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Email/SMTP configuration
	MailSMTPHost string // SMTP server host (e.g., localhost for Mailpit)
	MailSMTPPort int    // SMTP server port (e.g., 1025 for Mailpit, 587 for SES)
	MailSMTPUser string // SMTP username (empty for unauthenticated relays)
	MailSMTPPass string // SMTP password
	MailFrom     string // From email address
	MailFromName string // From display name

	// Credential e-mail content
	SiteName string // shown in the subject and greeting
	LoginURL string // link to the voting site's login page

	// Login tokens
	JWTSecret string        // HMAC key, at least 32 bytes
	JWTTTL    time.Duration // token lifetime

	// Operation timeouts (zero keeps the default)
	TimeoutShort  time.Duration
	TimeoutMedium time.Duration
	TimeoutBatch  time.Duration

	// CSV import
	MaxImportRows int

	// Audit logging destinations: "all", "db", "log" or "off"
	AuditLogAuth   string
	AuditLogAdmin  string
	AuditRetention time.Duration // zero keeps events forever

	// First admin, created on startup when no admin exists yet
	BootstrapAdminEmail    string
	BootstrapAdminName     string
	BootstrapAdminPassword string
}
