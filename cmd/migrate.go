package cmd

import (
	"context"
	"database/sql"

	"github.com/vibast-solutions/ms-go-booking/migrations"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
}

func migrateSubcommand(use, short string, run func(ctx context.Context, db *sql.DB) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := openDatabase(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := run(cmd.Context(), db); err != nil {
				return err
			}
			logrus.WithField("command", use).Info("Migration command finished")
			return nil
		},
	}
}

func init() {
	migrateCmd.AddCommand(migrateSubcommand("up", "Apply all pending migrations", migrations.Up))
	migrateCmd.AddCommand(migrateSubcommand("down", "Roll back the latest migration", migrations.Down))
	migrateCmd.AddCommand(migrateSubcommand("status", "Print the migration status", migrations.Status))
	rootCmd.AddCommand(migrateCmd)
}
