package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/photosync/photosync/pkg/client"
	"github.com/photosync/photosync/pkg/navguard"
)

const defaultAPIURL = "http://localhost:8080/api"

type clientFlags struct {
	apiURL   string
	tokenDir string
}

func newClientCommand() *cobra.Command {
	flags := &clientFlags{}

	cmd := &cobra.Command{
		Use:   "client",
		Short: "Talk to a running photosync API",
		Long: `Client commands keep a session across invocations. The bearer token is
stored in $XDG_CONFIG_HOME/photosync/token unless --token-dir is given.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			session, err := openSession(flags)
			if err != nil {
				return err
			}
			cmd.SetContext(client.WithSession(cmd.Context(), session))
			return nil
		},
	}

	apiURL := os.Getenv("PHOTOSYNC_API_URL")
	if apiURL == "" {
		apiURL = defaultAPIURL
	}
	cmd.PersistentFlags().StringVar(&flags.apiURL, "api-url", apiURL, "base URL of the API (env PHOTOSYNC_API_URL)")
	cmd.PersistentFlags().StringVar(&flags.tokenDir, "token-dir", "", "directory holding the token file")

	cmd.AddCommand(
		newClientLoginCommand(),
		newClientRegisterCommand(),
		newClientWhoamiCommand(),
		newClientLogoutCommand(),
		newClientNavigateCommand(),
	)
	return cmd
}

func openSession(flags *clientFlags) (*client.Session, error) {
	var (
		store *client.FileStorage
		err   error
	)
	if flags.tokenDir != "" {
		store = client.NewFileStorage(flags.tokenDir)
	} else if store, err = client.DefaultFileStorage(); err != nil {
		return nil, err
	}
	return client.NewSession(client.NewHTTPClient(flags.apiURL, nil), store)
}

func sessionFrom(cmd *cobra.Command) (*client.Session, error) {
	s, ok := client.FromContext(cmd.Context())
	if !ok {
		return nil, errors.New("no client session in context")
	}
	return s, nil
}

func newClientLoginCommand() *cobra.Command {
	var creds client.Credentials
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and remember the token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := sessionFrom(cmd)
			if err != nil {
				return err
			}
			user, err := s.Login(cmd.Context(), creds)
			if err != nil {
				return describeAPIError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "logged in as %s (%s)\n", user.Email, user.Role)
			return nil
		},
	}
	cmd.Flags().StringVar(&creds.Email, "email", "", "account email")
	cmd.Flags().StringVar(&creds.Password, "password", "", "account password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newClientRegisterCommand() *cobra.Command {
	var (
		reg  client.Registration
		role string
	)
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and log in with it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := sessionFrom(cmd)
			if err != nil {
				return err
			}
			reg.Role = client.Role(role)
			user, err := s.Register(cmd.Context(), reg)
			if err != nil {
				return describeAPIError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "registered %s (%s)\n", user.Email, user.Role)
			return nil
		},
	}
	cmd.Flags().StringVar(&reg.Name, "name", "", "display name")
	cmd.Flags().StringVar(&reg.Email, "email", "", "account email")
	cmd.Flags().StringVar(&reg.Password, "password", "", "password, at least 6 characters")
	cmd.Flags().StringVar(&role, "role", "", "client or photographer (default client)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newClientWhoamiCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := sessionFrom(cmd)
			if err != nil {
				return err
			}
			if err := s.Rehydrate(cmd.Context()); err != nil {
				return describeAPIError(err)
			}
			snap := s.Snapshot()
			if snap.State != client.LoggedIn {
				fmt.Fprintln(cmd.OutOrStdout(), "not logged in")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s <%s> id=%d role=%s\n", snap.User.Name, snap.User.Email, snap.User.ID, snap.User.Role)
			return nil
		},
	}
}

func newClientLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke the token and forget it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := sessionFrom(cmd)
			if err != nil {
				return err
			}
			if err := s.Logout(cmd.Context()); err != nil {
				// The local session is already gone.
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "logged out")
			return nil
		},
	}
}

func newClientNavigateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "navigate <path>",
		Short: "Show where the route guard sends the session for path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := sessionFrom(cmd)
			if err != nil {
				return err
			}
			d, err := navguard.New(s, nil).Navigate(cmd.Context(), args[0])
			if err != nil {
				return describeAPIError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", args[0], d)
			return nil
		},
	}
}

// describeAPIError flattens field errors into the message.
func describeAPIError(err error) error {
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) || len(apiErr.Fields) == 0 {
		return err
	}
	msg := apiErr.Message
	for field, msgs := range apiErr.Fields {
		for _, m := range msgs {
			msg += fmt.Sprintf("\n  %s: %s", field, m)
		}
	}
	return errors.New(msg)
}
