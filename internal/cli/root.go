// Package cli holds the cobra commands behind the photosync binary.
package cli

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/photosync/photosync/internal/pkg/config"
	"github.com/photosync/photosync/pkg/logger"
)

const serviceName = "photosync"

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "photosync",
		Short: "photosync API server and client",
		Long: `photosync runs the photo-sharing API and the tools around it.

	photosync serve               start the HTTP API
	photosync migrate up          apply SQL migrations
	photosync admin create ...    provision an admin account
	photosync client login ...    talk to a running server
`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newServeCommand(),
		newMigrateCommand(),
		newAdminCommand(),
		newTokensCommand(),
		newClientCommand(),
	)
	return root
}

// Execute runs the command tree with ctx.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

// loadRuntime reads configuration and initialises the process logger for
// the commands that touch the stores.
func loadRuntime(ctx context.Context) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.LogPretty,
		Service: serviceName,
	})
	return cfg, log, nil
}

// loggerFor returns the logger attached to ctx by withServices.
func loggerFor(ctx context.Context) zerolog.Logger {
	return *zerolog.Ctx(ctx)
}
