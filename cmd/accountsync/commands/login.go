package commands

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/systmms/accountsync/internal/config"
	syncerrors "github.com/systmms/accountsync/internal/errors"
	"github.com/systmms/accountsync/internal/logging"
	"github.com/zalando/go-keyring"
)

func NewLoginCommand(cfg *config.Config) *cobra.Command {
	var (
		username string
		remove   bool
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store the vault password in the OS keyring",
		Long: `Store the vault logon password in the operating system keyring so
onboarding runs never need it on the command line or in a file.

The password is read from the ` + envPassword + ` environment variable
when set, otherwise from stdin.

Examples:
  accountsync login                      # Prompt for the password
  accountsync login --username svc_sync  # Store for a specific user
  accountsync login --delete             # Remove the stored password`,
		RunE: func(cmd *cobra.Command, args []string) error {
			user := username
			if user == "" {
				if err := cfg.Load(); err != nil {
					return fmt.Errorf("failed to load config: %w", err)
				}
				user = cfg.Definition.Vault.Username
			}
			if user == "" {
				return syncerrors.ConfigError{
					Field:      "vault.username",
					Message:    "no username to store a credential for",
					Suggestion: "Set 'vault.username' in accountsync.yaml or pass --username",
				}
			}

			if remove {
				if err := keyring.Delete(keyringService, user); err != nil {
					return syncerrors.UserError{
						Message: fmt.Sprintf("Failed to remove credential for '%s'", user),
						Details: err.Error(),
						Err:     err,
					}
				}
				cfg.Logger.Info("✓ Removed stored credential for '%s'", user)
				return nil
			}

			password := os.Getenv(envPassword)
			if password == "" {
				if cfg.NonInteractive {
					return syncerrors.UserError{
						Message:    "No password available in non-interactive mode",
						Suggestion: "Export " + envPassword + " before running 'accountsync login'",
					}
				}
				fmt.Fprintf(os.Stderr, "Password for '%s': ", user)
				line, err := bufio.NewReader(os.Stdin).ReadString('\n')
				if err != nil {
					return fmt.Errorf("failed to read password: %w", err)
				}
				password = strings.TrimRight(line, "\r\n")
			}
			if password == "" {
				return syncerrors.UserError{
					Message:    "Empty password",
					Suggestion: "Provide a non-empty password",
				}
			}

			cfg.Logger.Debug("Storing credential for '%s' (%s)", user, logging.Secret(password))
			if err := keyring.Set(keyringService, user, password); err != nil {
				return syncerrors.UserError{
					Message:    "Failed to write the OS keyring",
					Details:    err.Error(),
					Suggestion: "Export " + envPassword + " if no keyring is available in this environment",
					Err:        err,
				}
			}

			cfg.Logger.Info("✓ Stored credential for '%s'", user)
			cfg.Logger.Info("Next: Run 'accountsync doctor' to verify authentication")
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "Vault username (defaults to vault.username from config)")
	cmd.Flags().BoolVar(&remove, "delete", false, "Remove the stored credential instead")

	return cmd
}
