package migrate

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/gamedepot-backend/pkg/config"
	"github.com/angelmondragon/gamedepot-backend/pkg/db"
	"github.com/angelmondragon/gamedepot-backend/pkg/logger"
)

// MaybeRunDev applies pending settlement migrations when running in dev with
// auto-migrate enabled, then checks every model table exists.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}
	source := Dir(cfg.DB.MigrationsDir)
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "migrations": source.String()})

	runner, err := NewRunner(sqlDB, source)
	if err != nil {
		return err
	}
	applied, err := runner.Up(ctx)
	for _, a := range applied {
		logg.Info(logg.WithFields(ctx, map[string]any{"version": a.Version, "file": a.Path}), "migration applied")
	}
	if err != nil {
		return err
	}

	if err := VerifySchema(ctx, client); err != nil {
		return err
	}
	logg.Info(logg.WithField(ctx, "applied", len(applied)), "settlement schema up to date")
	return nil
}

// VerifySchema reports every model table missing from the database.
func VerifySchema(ctx context.Context, client *db.Client) error {
	tables, err := ModelTables()
	if err != nil {
		return err
	}
	migrator := client.DB().WithContext(ctx).Migrator()
	missing := []string{}
	for _, table := range tables {
		if !migrator.HasTable(table) {
			missing = append(missing, table)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("settlement schema incomplete, missing: %s", strings.Join(missing, ", "))
	}
	return nil
}
