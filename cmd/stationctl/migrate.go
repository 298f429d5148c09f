package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"petrolhub/backend/internal/config"
	"petrolhub/backend/internal/logger"
	pgstore "petrolhub/backend/internal/store/postgres"
)

func newMigrateCmd() *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the PostgreSQL schema",
		Long: `Applies or rolls back the embedded schema migrations.

The connection string comes from --database-url or DATABASE_URL.`,
		Example: `  stationctl migrate up
  stationctl migrate version --database-url postgres://localhost/petrolhub`,
	}
	migrateCmd.PersistentFlags().String("database-url", config.Load().DatabaseURL, "PostgreSQL connection string")

	migrateCmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: withMigrator(func(cmd *cobra.Command, m *pgstore.Migrator) error {
				return m.Up()
			}),
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back every migration",
			Args:  cobra.NoArgs,
			RunE: withMigrator(func(cmd *cobra.Command, m *pgstore.Migrator) error {
				return m.Down()
			}),
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the applied schema version",
			Args:  cobra.NoArgs,
			RunE: withMigrator(func(cmd *cobra.Command, m *pgstore.Migrator) error {
				version, dirty, err := m.Version()
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "version=%d dirty=%t\n", version, dirty)
				return err
			}),
		},
	)
	return migrateCmd
}

func withMigrator(run func(cmd *cobra.Command, m *pgstore.Migrator) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		databaseURL, _ := cmd.Flags().GetString("database-url")
		if databaseURL == "" {
			return fmt.Errorf("--database-url or DATABASE_URL is required")
		}

		log := logger.WithComponent("migrate")
		m, err := pgstore.NewMigrator(databaseURL, log)
		if err != nil {
			return err
		}
		defer func() {
			if err := m.Close(); err != nil {
				log.Warn().Err(err).Msg("failed to close migrator")
			}
		}()
		return run(cmd, m)
	}
}
