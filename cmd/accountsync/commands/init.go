package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/systmms/accountsync/internal/config"
)

const exampleConfig = `version: 0

vault:
  url: https://vault.example.com/PasswordVault
  authMethod: cyberark   # cyberark, ldap or radius
  username: svc_accountsync
  # concurrentSession: true
  # tlsSkipVerify: false
  # caCert: /etc/ssl/certs/vault-ca.pem
  # timeout_ms: 30000

search:
  mode: attribute        # attribute, wide-name or narrow
  # ignoreName: false
  # bypass: off          # off, assume-missing or assume-exists

safes:
  create: false
  # template: TemplateSafe
  # managingCPM: PasswordManager
  # numberOfDaysRetention: 7
  # bypassCheck: false

onboarding:
  # allowDuplicates: false
  # skipDuplicates: false
  # createOnUpdate: false

reports:
  # good: accounts.csv.good
  # bad: accounts.csv.bad

# metrics:
#   enabled: true
#   port: 9090
`

func NewInitCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new accountsync configuration",
		Long:  "Create an accountsync.yaml file with example configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Check if accountsync.yaml already exists
			if _, err := os.Stat(cfg.Path); err == nil {
				return fmt.Errorf("%s already exists. Remove it first if you want to reinitialize", cfg.Path)
			}

			if err := os.WriteFile(cfg.Path, []byte(exampleConfig), 0644); err != nil {
				return fmt.Errorf("failed to write config file: %w", err)
			}

			cfg.Logger.Info("Created %s with example settings", cfg.Path)
			cfg.Logger.Info("Next steps:")
			cfg.Logger.Info("  1. Edit %s to point at your vault", cfg.Path)
			cfg.Logger.Info("  2. Run 'accountsync login' to store the vault password")
			cfg.Logger.Info("  3. Run 'accountsync doctor' to verify connectivity")
			cfg.Logger.Info("  4. Run 'accountsync plan --file accounts.csv' to validate your input")
			cfg.Logger.Info("  5. Run 'accountsync onboard --file accounts.csv' to apply")

			return nil
		},
	}

	return cmd
}
