// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/votehub/internal/app/store/audit"
	userstore "github.com/dalemusser/votehub/internal/app/store/users"
	"github.com/dalemusser/votehub/internal/app/system/authutil"
	"github.com/dalemusser/votehub/internal/app/system/timeouts"
	"github.com/dalemusser/votehub/internal/app/system/workers"
	"github.com/dalemusser/votehub/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	timeouts.Configure(timeouts.Config{
		Short:  appCfg.TimeoutShort,
		Medium: appCfg.TimeoutMedium,
		Batch:  appCfg.TimeoutBatch,
	})

	if appCfg.BootstrapAdminEmail != "" {
		if err := ensureBootstrapAdmin(ctx, deps, appCfg.BootstrapAdminEmail, appCfg.BootstrapAdminName, appCfg.BootstrapAdminPassword, logger); err != nil {
			logger.Error("bootstrap admin setup failed", zap.Error(err))
			return err
		}
	}

	if appCfg.AuditRetention > 0 {
		w := workers.NewAuditRetention(audit.New(deps.MongoDatabase), logger, auditPruneInterval, appCfg.AuditRetention)
		w.Start()
		onShutdown(w.Stop)
	}
	return nil
}

// auditPruneInterval is how often old audit events are removed.
const auditPruneInterval = time.Hour

// ensureBootstrapAdmin creates an admin with the given credentials when the
// database has no admin at all. Once any admin exists it does nothing, so
// changing the configured password later never overwrites a real account.
func ensureBootstrapAdmin(ctx context.Context, deps DBDeps, email, name, password string, logger *zap.Logger) error {
	store := userstore.New(deps.MongoDatabase)

	n, err := store.Count(ctx, true)
	if err != nil {
		return err
	}
	if n > 0 {
		logger.Debug("admin already present, skipping bootstrap admin", zap.Int64("admins", n))
		return nil
	}

	hash, err := authutil.HashPassword(password)
	if err != nil {
		return err
	}
	admin := true
	u, err := store.Create(ctx, models.User{
		Email:    email,
		Name:     name,
		Password: hash,
		IsAdmin:  &admin,
	})
	if errors.Is(err, userstore.ErrDuplicateNIMOrEmail) {
		// A voter already owns this email; leave it alone.
		logger.Warn("bootstrap admin email belongs to an existing voter", zap.String("email", email))
		return nil
	}
	if err != nil {
		return err
	}

	logger.Info("created bootstrap admin", zap.String("user_id", u.ID.Hex()), zap.String("email", u.Email))
	return nil
}
