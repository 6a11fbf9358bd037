package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/systmms/accountsync/internal/config"
)

func NewDoctorCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check vault connectivity and configuration",
		Long: `Verify that accountsync is ready to run.

This command checks:
- Configuration file validity
- Vault authentication
- Template safe existence (when safe creation is configured)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.Logger.Info("Checking accountsync configuration...")
			if err := cfg.Load(); err != nil {
				cfg.Logger.Error("Configuration error: %v", err)
				return fmt.Errorf("failed to load config: %w", err)
			}
			cfg.Logger.Info("✓ Configuration loaded successfully")
			cfg.Logger.Debug("Effective settings: %s", cfg.Definition.Describe())

			if _, err := cfg.Definition.LookupOptions(); err != nil {
				cfg.Logger.Error("Search configuration error: %v", err)
				return err
			}
			cfg.Logger.Info("✓ Search configuration valid")

			client, password, err := buildClient(cfg)
			if err != nil {
				cfg.Logger.Error("Client setup error: %v", err)
				return err
			}
			if password != nil {
				defer password.Destroy()
			}

			ctx := context.Background()
			if err := client.Logon(ctx); err != nil {
				cfg.Logger.Error("Authentication failed: %v", err)
				return err
			}
			cfg.Logger.Info("✓ Authenticated against %s", cfg.Definition.Vault.URL)
			defer func() {
				if err := client.Logoff(ctx); err != nil {
					cfg.Logger.Warn("Logoff failed: %v", err)
				}
			}()

			if cfg.Definition.Safes.Create && cfg.Definition.Safes.Template != "" {
				tpl, err := client.GetSafe(ctx, cfg.Definition.Safes.Template)
				if err != nil {
					cfg.Logger.Error("Template safe check failed: %v", err)
					return err
				}
				if tpl == nil {
					cfg.Logger.Error("✗ Template safe '%s' does not exist", cfg.Definition.Safes.Template)
					return fmt.Errorf("template safe '%s' not found", cfg.Definition.Safes.Template)
				}
				cfg.Logger.Info("✓ Template safe '%s' exists", cfg.Definition.Safes.Template)
			}

			cfg.Logger.Info("All checks passed, ready to onboard")
			return nil
		},
	}

	return cmd
}
