package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/photosync/photosync/internal/infrastructure/db/sqldb"
	"github.com/photosync/photosync/internal/server"
)

func newMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations (postgres and sqlite stores)",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withSQL(cmd.Context(), func(ctx context.Context, db *sqldb.DB) error {
					return db.Migrate(ctx)
				})
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the most recent migration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withSQL(cmd.Context(), func(ctx context.Context, db *sqldb.DB) error {
					return db.MigrateDown(ctx)
				})
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show applied migrations and the schema version",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withSQL(cmd.Context(), func(ctx context.Context, db *sqldb.DB) error {
					version, err := db.MigrationStatus(ctx)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s schema version: %d\n", db.Driver(), version)
					return nil
				})
			},
		},
	)
	return cmd
}

func withSQL(ctx context.Context, fn func(context.Context, *sqldb.DB) error) error {
	cfg, log, err := loadRuntime(ctx)
	if err != nil {
		return err
	}
	db, err := server.OpenSQL(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(ctx, db)
}
