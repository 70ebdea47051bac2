package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"aura/internal/config"
	"aura/internal/storage"
)

func migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations for the configured backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.FromContext(cmd.Context())
			if cfg == nil {
				return errNoConfig
			}
			var err error
			switch cfg.DataBackend {
			case config.BackendSQLite:
				err = storage.RunSQLiteMigrations(cfg.SQLiteDBPath)
			case config.BackendPostgres:
				err = storage.RunPostgresMigrations(cfg.PostgresDSN)
			default:
				return fmt.Errorf("backend %q has no schema to migrate", cfg.DataBackend)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s schema is up to date\n", cfg.DataBackend)
			return nil
		},
	}
}
