package cmd

import (
	"fmt"
	"os"

	"mca-ledger-engine/cmd/ledgerengine/config"
	"mca-ledger-engine/internal/grouper"
	"mca-ledger-engine/internal/models"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	validateInput   string
	validateDetails bool
)

// validateCmd represents the validate command
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a loan export without processing it",
	Long: `Validate ingests a raw loan export, groups its rows into loan
records, and reports per-record validation errors and data-quality
warnings without running reconciliation or scoring.

Examples:
  ledgerengine validate --input export.csv
  ledgerengine validate --input export.csv --details`,

	PreRunE: func(cmd *cobra.Command, args []string) error {
		validateInput = viper.GetString("validate-input")
		validateDetails = viper.GetBool("details")
		if validateInput == "" {
			return fmt.Errorf("input is required")
		}
		return validateFileExists(validateInput, "loan export file")
	},
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVarP(&validateInput, "input", "i", "", "path to the loan export CSV file (required)")
	validateCmd.Flags().BoolVar(&validateDetails, "details", false, "list every record with errors or warnings")

	validateCmd.MarkFlagRequired("input")

	viper.BindPFlag("validate-input", validateCmd.Flags().Lookup("input"))
	viper.BindPFlag("details", validateCmd.Flags().Lookup("details"))
}

func runValidate(cmd *cobra.Command, args []string) error {
	loader, err := config.CreateLoader()
	if err != nil {
		return fmt.Errorf("failed to create row loader: %w", err)
	}

	rows, err := loader.LoadFile(validateInput)
	if err != nil {
		return err
	}

	g, err := grouper.NewGrouper(grouper.DefaultConfig())
	if err != nil {
		return err
	}
	records := g.BuildRecords(rows)
	summary := models.SummarizeValidation(records)

	fmt.Fprintf(os.Stdout, "Records:       %d\n", summary.TotalRecords)
	fmt.Fprintf(os.Stdout, "Valid:         %d\n", summary.ValidRecords)
	fmt.Fprintf(os.Stdout, "With errors:   %d\n", summary.RecordsWithErrors)
	fmt.Fprintf(os.Stdout, "With warnings: %d\n", summary.RecordsWithWarnings)

	if validateDetails {
		for _, detail := range summary.Details {
			fmt.Fprintf(os.Stdout, "\n%s/%s:\n", detail.ExternalID, detail.LoanNumber)
			for _, e := range detail.Result.Errors {
				fmt.Fprintf(os.Stdout, "  error:   %s\n", e)
			}
			for _, w := range detail.Result.Warnings {
				fmt.Fprintf(os.Stdout, "  warning: %s\n", w)
			}
		}
	}

	if summary.RecordsWithErrors > 0 {
		return fmt.Errorf("%d of %d records failed validation", summary.RecordsWithErrors, summary.TotalRecords)
	}
	return nil
}
