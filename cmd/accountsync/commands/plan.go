package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/systmms/accountsync/internal/account"
	"github.com/systmms/accountsync/internal/config"
	"github.com/systmms/accountsync/internal/input"
)

// planRow is one input row's offline validation result.
type planRow struct {
	Line     int    `json:"line"`
	Identity string `json:"identity"`
	Safe     string `json:"safe,omitempty"`
	Platform string `json:"platform,omitempty"`
	Secret   string `json:"secret,omitempty"`
	Error    string `json:"error,omitempty"`
}

func NewPlanCommand(cfg *config.Config) *cobra.Command {
	var (
		filePath   string
		mode       string
		outputJSON bool
	)

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Validate an input file without touching the vault",
		Long: `Plan normalizes every row of the input file and reports what a run
would attempt, without connecting to the vault. Secret values are never
shown; only whether a secret is present and of which type.

Useful for catching malformed rows before an onboarding run.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			runMode, err := parseMode(mode)
			if err != nil {
				return err
			}

			table, err := input.ReadFile(filePath)
			if err != nil {
				return err
			}

			if table.HasColumn("password") && table.HasColumn("key") {
				cfg.Logger.Warn("Input has both password and key columns; key takes precedence when both are set")
			}
			if runMode == account.ModeDelete && (table.HasColumn("password") || table.HasColumn("key")) {
				cfg.Logger.Warn("Secret columns are ignored in delete mode")
			}

			rows := make([]planRow, 0, len(table.Rows))
			errorCount := 0
			for _, row := range table.Rows {
				p := planRow{Line: row.Line}
				d, err := account.Normalize(row, runMode)
				if err != nil {
					p.Identity = account.IdentityFromRow(row)
					p.Error = err.Error()
					errorCount++
				} else {
					p.Identity = d.IdentityKey()
					p.Safe = d.SafeName
					p.Platform = d.PlatformID
					if d.Secret != "" {
						p.Secret = d.SecretType
					}
				}
				rows = append(rows, p)
			}

			if outputJSON {
				if err := outputPlanJSON(rows, errorCount); err != nil {
					return err
				}
			} else {
				outputPlanTable(rows, errorCount)
			}

			if errorCount > 0 {
				return fmt.Errorf("plan completed with %d invalid row(s)", errorCount)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&filePath, "file", "", "CSV file with the desired accounts (required)")
	cmd.Flags().StringVar(&mode, "mode", "create", "Run mode to validate against: create, update or delete")
	cmd.Flags().BoolVar(&outputJSON, "json", false, "Output in JSON format")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

// outputPlanJSON outputs the plan result as JSON
func outputPlanJSON(rows []planRow, errorCount int) error {
	output := map[string]interface{}{
		"rows": rows,
		"summary": map[string]interface{}{
			"total_rows":  len(rows),
			"error_count": errorCount,
		},
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}

// outputPlanTable outputs the plan result as a formatted table
func outputPlanTable(rows []planRow, errorCount int) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)

	_, _ = fmt.Fprintf(w, "LINE\tIDENTITY\tSAFE\tPLATFORM\tSECRET\tSTATUS\n")
	_, _ = fmt.Fprintf(w, "----\t--------\t----\t--------\t------\t------\n")

	for _, p := range rows {
		status := "✓ OK"
		if p.Error != "" {
			status = "✗ " + p.Error
		}
		secret := p.Secret
		if secret == "" {
			secret = "-"
		}
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			p.Line, p.Identity, p.Safe, p.Platform, secret, status)
	}

	_ = w.Flush()

	fmt.Printf("\nSummary:\n")
	fmt.Printf("  Total rows: %d\n", len(rows))
	fmt.Printf("  Valid: %d\n", len(rows)-errorCount)
	if errorCount > 0 {
		fmt.Printf("  Invalid: %d\n", errorCount)
		fmt.Printf("\nNext steps:\n")
		fmt.Printf("  • Fix the invalid rows and run 'accountsync plan' again\n")
	} else {
		fmt.Printf("\n✓ All rows valid!\n")
		fmt.Printf("\nNext steps:\n")
		fmt.Printf("  • Run 'accountsync onboard --file <file>' to apply\n")
	}
}
