package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/photosync/photosync/internal/core/domain"
	"github.com/photosync/photosync/internal/infrastructure/scheduler"
	"github.com/photosync/photosync/internal/pkg/config"
	"github.com/photosync/photosync/internal/server"
)

func newAdminCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage admin accounts",
	}

	var name, email, password string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create an admin account (admins cannot self-register)",
		Long: `Creates an admin account directly in the configured store.

The password may be given with --password or the PHOTOSYNC_ADMIN_PASSWORD
environment variable.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv("PHOTOSYNC_ADMIN_PASSWORD")
			}
			return withServices(cmd.Context(), func(ctx context.Context, svc *server.Services, _ *config.Config) error {
				user, err := svc.Auth.CreateAdmin(ctx, name, email, password)
				if errors.Is(err, domain.ErrUserExists) {
					return fmt.Errorf("an account with email %s already exists", domain.NormalizeEmail(email))
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created admin %s (id %d)\n", user.Email, user.ID)
				return nil
			})
		},
	}
	create.Flags().StringVar(&name, "name", "Administrator", "display name")
	create.Flags().StringVar(&email, "email", "", "login email")
	create.Flags().StringVar(&password, "password", "", "password, at least 6 characters")
	_ = create.MarkFlagRequired("email")

	cmd.AddCommand(create)
	return cmd
}

func newTokensCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tokens",
		Short: "Maintain access tokens",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "sweep",
		Short: "Delete expired access tokens once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(cmd.Context(), func(ctx context.Context, svc *server.Services, cfg *config.Config) error {
				sweeper, err := scheduler.NewTokenSweeper(cfg.Auth.SweepSchedule, svc.Tokens, loggerFor(ctx))
				if err != nil {
					return err
				}
				n := sweeper.RunOnce(ctx)
				fmt.Fprintf(cmd.OutOrStdout(), "removed %d expired token(s)\n", n)
				return nil
			})
		},
	})
	return cmd
}

// withServices opens the configured stores, prepares their schema and runs
// fn against services that publish no audit events.
func withServices(ctx context.Context, fn func(context.Context, *server.Services, *config.Config) error) error {
	cfg, log, err := loadRuntime(ctx)
	if err != nil {
		return err
	}
	stores, err := server.OpenStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer stores.Close(context.Background())

	if err := stores.Prepare(ctx); err != nil {
		return err
	}
	svc, err := server.NewServices(stores, cfg, nil, log)
	if err != nil {
		return err
	}
	return fn(log.WithContext(ctx), svc, cfg)
}
