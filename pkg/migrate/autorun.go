package migrate

import (
	"context"
	"fmt"

	"github.com/VINCENT-bot354/safaribytes/pkg/config"
	"github.com/VINCENT-bot354/safaribytes/pkg/db"
	"github.com/VINCENT-bot354/safaribytes/pkg/logger"
)

// MaybeRunDev applies pending migrations on startup, but only in dev with
// SAFARIBYTES_AUTO_MIGRATE set. Other environments run cmd/migrate.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}
	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}
	migrator, err := New(sqlDB, logg)
	if err != nil {
		return err
	}

	ctx = logg.WithField(ctx, "trigger", "dev_autorun")
	logg.Info(ctx, "migrate.autorun.start")
	if err := migrator.Up(ctx); err != nil {
		return err
	}
	logg.Info(ctx, "migrate.autorun.complete")
	return nil
}
