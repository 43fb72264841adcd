package migrate

import (
	"context"
	"fmt"

	"github.com/pressly/goose/v3"

	"github.com/angelmondragon/servicedesk-backend/pkg/config"
	"github.com/angelmondragon/servicedesk-backend/pkg/db"
	"github.com/angelmondragon/servicedesk-backend/pkg/logger"
)

// MaybeRunDev brings a dev database up to the embedded schema on boot. It is a
// no-op outside dev or when SERVICEDESK_AUTO_MIGRATE is off.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}
	if err := ValidateEmbedded(); err != nil {
		return fmt.Errorf("embedded migrations: %w", err)
	}
	conn, err := client.SQL()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	if err := Run(ctx, conn, "", "up"); err != nil {
		return err
	}
	version, err := goose.GetDBVersionContext(ctx, conn)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	logg.Info(logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "schema_version": version}), "migrate.dev_autorun.done")
	return nil
}
