// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"
	"sync"

	auditlogfeature "github.com/dalemusser/votehub/internal/app/features/auditlog"
	errorsfeature "github.com/dalemusser/votehub/internal/app/features/errors"
	healthfeature "github.com/dalemusser/votehub/internal/app/features/health"
	loginfeature "github.com/dalemusser/votehub/internal/app/features/login"
	usersfeature "github.com/dalemusser/votehub/internal/app/features/users"
	usersvc "github.com/dalemusser/votehub/internal/app/service/users"
	"github.com/dalemusser/votehub/internal/app/store/audit"
	userstore "github.com/dalemusser/votehub/internal/app/store/users"
	"github.com/dalemusser/votehub/internal/app/system/auditlog"
	"github.com/dalemusser/votehub/internal/app/system/auth"
	"github.com/dalemusser/votehub/internal/app/system/mailer"
	"github.com/dalemusser/votehub/internal/app/system/ratelimit"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// closers holds resources created by BuildHandler that Shutdown releases.
var (
	closersMu sync.Mutex
	closers   []func()
)

func onShutdown(fn func()) {
	closersMu.Lock()
	defer closersMu.Unlock()
	closers = append(closers, fn)
}

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// Startup have completed. It wires the token manager, the audit logger, the
// user service and its mailer, then mounts the feature routers.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	authMgr, err := auth.NewManager(appCfg.JWTSecret, appCfg.JWTTTL, logger)
	if err != nil {
		logger.Error("auth manager init failed", zap.Error(err))
		return nil, err
	}

	// Refresh the principal from the database on every request so deleted
	// users and role changes take effect before their token expires.
	authMgr.SetUserFetcher(userstore.NewFetcher(userstore.New(deps.MongoDatabase)))

	mail := mailer.New(mailer.Config{
		Host:     appCfg.MailSMTPHost,
		Port:     appCfg.MailSMTPPort,
		Username: appCfg.MailSMTPUser,
		Password: appCfg.MailSMTPPass,
		From:     appCfg.MailFrom,
		FromName: appCfg.MailFromName,
	}, logger)

	users := usersvc.New(deps.MongoDatabase, mail, usersvc.Config{
		SiteName:      appCfg.SiteName,
		LoginURL:      appCfg.LoginURL,
		MaxImportRows: appCfg.MaxImportRows,
	}, logger)

	auditStore := audit.New(deps.MongoDatabase)
	auditLog := auditlog.New(auditStore, logger, auditConfig(appCfg))

	limiter := ratelimit.NewLoginLimiter()
	onShutdown(limiter.Close)

	errorsHandler := errorsfeature.NewHandler()

	r := chi.NewRouter()
	r.NotFound(errorsHandler.NotFound)
	r.MethodNotAllowed(errorsHandler.MethodNotAllowed)

	// Global auth middleware: loads the bearer token's principal into context.
	r.Use(authMgr.LoadUser)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Authentication
	loginHandler := loginfeature.NewHandler(users, authMgr, limiter, auditLog, logger)
	r.Mount("/login", loginfeature.Routes(loginHandler, authMgr))

	// User management
	usersHandler := usersfeature.NewHandler(users, auditLog, logger)
	r.Mount("/users", usersfeature.Routes(usersHandler, authMgr))

	// Audit trail
	auditHandler := auditlogfeature.NewHandler(auditStore, logger)
	r.Mount("/audit", auditlogfeature.Routes(auditHandler, authMgr))

	return r, nil
}
