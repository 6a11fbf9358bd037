package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/systmms/accountsync/internal/account"
	"github.com/systmms/accountsync/internal/config"
	syncerrors "github.com/systmms/accountsync/internal/errors"
	"github.com/systmms/accountsync/internal/input"
	"github.com/systmms/accountsync/internal/reconcile"
	"github.com/systmms/accountsync/internal/report"
)

func NewOnboardCommand(cfg *config.Config) *cobra.Command {
	var (
		filePath string
		mode     string
		goodPath string
		badPath  string
	)

	cmd := &cobra.Command{
		Use:   "onboard",
		Short: "Reconcile a CSV of accounts against the vault",
		Long: `Onboard processes every row of the input file against the vault:
create provisions missing accounts, update patches drifted ones, and
delete retires them.

Each row succeeds or fails on its own; failures never stop the batch.
Succeeded rows are appended to the good report with secret columns
blanked, failed rows to the bad report with an error message so the bad
file can be fixed and fed back into a later run.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			runMode, err := parseMode(mode)
			if err != nil {
				return err
			}

			if err := cfg.Load(); err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			table, err := input.ReadFile(filePath)
			if err != nil {
				return err
			}
			if len(table.Rows) == 0 {
				cfg.Logger.Warn("Input file has no data rows, nothing to do")
				return nil
			}

			lookupOpts, err := cfg.Definition.LookupOptions()
			if err != nil {
				return err
			}

			client, password, err := buildClient(cfg)
			if err != nil {
				return err
			}
			if password != nil {
				defer password.Destroy()
			}

			ctx := context.Background()
			if err := client.Logon(ctx); err != nil {
				return err
			}
			defer func() {
				if err := client.Logoff(ctx); err != nil {
					cfg.Logger.Warn("Logoff failed: %v", err)
				}
			}()

			if cfg.Definition.Metrics.Enabled {
				metrics := reconcile.StartMetricsServer(cfg.Definition.Metrics.ListenPort(), cfg.Logger)
				defer func() { _ = metrics.Stop(ctx) }()
			}

			good, bad := cfg.Definition.ReportPaths(filePath)
			if goodPath != "" {
				good = goodPath
			}
			if badPath != "" {
				bad = badPath
			}
			goodSink := report.NewSink(good, table.Header)
			badSink := report.NewSink(bad, append(append([]string{}, table.Header...), "ErrorMessage"))
			defer func() { _ = goodSink.Close() }()
			defer func() { _ = badSink.Close() }()

			run := reconcile.NewRunContext()
			recorder := reconcile.NewRecorder(run, goodSink, badSink, cfg.Logger)
			driver := reconcile.NewDriver(client, recorder, run, cfg.Logger, reconcile.Options{
				Mode:                   runMode,
				Lookup:                 lookupOpts,
				Safes:                  cfg.Definition.SafeOptions(),
				AllowDuplicateOnCreate: cfg.Definition.Onboarding.AllowDuplicates,
				SkipDuplicates:         cfg.Definition.Onboarding.SkipDuplicates,
				CreateOnUpdate:         cfg.Definition.Onboarding.CreateOnUpdate,
			})

			summary, err := driver.Run(ctx, table)
			if err != nil {
				return err
			}

			cfg.Logger.Info("Processed %d record(s): %d succeeded, %d failed",
				summary.Attempted, summary.Succeeded, summary.Failed)
			if summary.Failed > 0 {
				cfg.Logger.Info("Failed rows written to %s; fix them and re-run with that file", bad)
				return fmt.Errorf("completed with %d failure(s)", summary.Failed)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&filePath, "file", "", "CSV file with the desired accounts (required)")
	cmd.Flags().StringVar(&mode, "mode", "create", "Run mode: create, update or delete")
	cmd.Flags().StringVar(&goodPath, "good", "", "Override path for the succeeded-rows report")
	cmd.Flags().StringVar(&badPath, "bad", "", "Override path for the failed-rows report")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func parseMode(mode string) (account.Mode, error) {
	switch mode {
	case "create":
		return account.ModeCreate, nil
	case "update":
		return account.ModeUpdate, nil
	case "delete":
		return account.ModeDelete, nil
	default:
		return "", syncerrors.UserError{
			Message:    fmt.Sprintf("Unknown mode: %s", mode),
			Suggestion: "Use one of: create, update, delete",
		}
	}
}
