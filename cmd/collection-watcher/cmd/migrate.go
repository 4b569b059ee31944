package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/donaldgifford/collection-watcher/internal/config"
	"github.com/donaldgifford/collection-watcher/internal/state"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run state database migrations",
		RunE:  runMigrate,
	}
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.State.Backend != config.BackendPostgres {
		return fmt.Errorf("migrate requires the %q state backend, got %q", config.BackendPostgres, cfg.State.Backend)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 60*time.Second)
	defer cancel()

	store, err := state.NewPostgresStore(ctx, cfg.State.Postgres.DSN())
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer store.Close()

	log.Info("running migrations", "host", cfg.State.Postgres.Host)

	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	log.Info("migrations complete")
	return nil
}
