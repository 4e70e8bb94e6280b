package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"mca-ledger-engine/cmd/ledgerengine/config"
	"mca-ledger-engine/internal/dates"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flags for the process command
var (
	inputFile       string
	outputFormat    string
	outputFile      string
	asOfDate        string
	profile         string
	windowDays      int
	amountTolerance float64
	tablesFile      string
	concurrency     int
	showProgress    bool
	includeMatches  bool
)

// processCmd represents the process command
var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Reconcile and score a loan export",
	Long: `Process ingests a raw loan export (CSV format), groups its rows into
loan records, reconciles each ledger against its installment schedule,
classifies delinquency status, scores risk, and reports portfolio
metrics.

Examples:
  # Basic run with console output
  ledgerengine process --input export.csv

  # Full JSON output to a file
  ledgerengine process --input export.csv --output-format json --output-file report.json

  # Reproducible run with an injected reference date
  ledgerengine process --input export.csv --as-of 2026-01-15

  # Strict matching for clean exports
  ledgerengine process --input export.csv --profile strict

  # Custom classification tables
  ledgerengine process --input export.csv --tables tables.yaml`,

	PreRunE: validateProcessFlags,
	RunE:    runProcess,
}

func init() {
	rootCmd.AddCommand(processCmd)

	// Required flags
	processCmd.Flags().StringVarP(&inputFile, "input", "i", "", "path to the loan export CSV file (required)")

	// Output flags
	processCmd.Flags().StringVarP(&outputFormat, "output-format", "f", "console", "output format: console, json, csv")
	processCmd.Flags().StringVarP(&outputFile, "output-file", "o", "", "output file path (default: stdout)")
	processCmd.Flags().BoolVar(&includeMatches, "include-matches", false, "include per-installment match detail in JSON output")

	// Processing flags
	processCmd.Flags().StringVar(&asOfDate, "as-of", "", "reference date for delinquency (YYYY-MM-DD, default: today)")
	processCmd.Flags().StringVar(&profile, "profile", "default", "matching profile: default, strict, relaxed")
	processCmd.Flags().IntVarP(&windowDays, "window-days", "w", 0, "override the matching window in days")
	processCmd.Flags().Float64VarP(&amountTolerance, "amount-tolerance", "a", 0, "override the amount tolerance percentage (0-100)")
	processCmd.Flags().StringVar(&tablesFile, "tables", "", "YAML file overriding the classification tables")
	processCmd.Flags().IntVar(&concurrency, "concurrency", 0, "worker count for record processing (default: CPU count)")
	processCmd.Flags().BoolVar(&showProgress, "progress", false, "show progress indicators")

	// Mark required flags
	processCmd.MarkFlagRequired("input")

	// Bind flags to viper
	viper.BindPFlag("input", processCmd.Flags().Lookup("input"))
	viper.BindPFlag("output-format", processCmd.Flags().Lookup("output-format"))
	viper.BindPFlag("output-file", processCmd.Flags().Lookup("output-file"))
	viper.BindPFlag("include-matches", processCmd.Flags().Lookup("include-matches"))
	viper.BindPFlag("as-of", processCmd.Flags().Lookup("as-of"))
	viper.BindPFlag("profile", processCmd.Flags().Lookup("profile"))
	viper.BindPFlag("window-days", processCmd.Flags().Lookup("window-days"))
	viper.BindPFlag("amount-tolerance", processCmd.Flags().Lookup("amount-tolerance"))
	viper.BindPFlag("tables", processCmd.Flags().Lookup("tables"))
	viper.BindPFlag("concurrency", processCmd.Flags().Lookup("concurrency"))
	viper.BindPFlag("progress", processCmd.Flags().Lookup("progress"))
}

func validateProcessFlags(cmd *cobra.Command, args []string) error {
	// Get values from viper (allows override from config file)
	inputFile = viper.GetString("input")
	outputFormat = viper.GetString("output-format")
	outputFile = viper.GetString("output-file")
	includeMatches = viper.GetBool("include-matches")
	asOfDate = viper.GetString("as-of")
	profile = viper.GetString("profile")
	windowDays = viper.GetInt("window-days")
	amountTolerance = viper.GetFloat64("amount-tolerance")
	tablesFile = viper.GetString("tables")
	concurrency = viper.GetInt("concurrency")
	showProgress = viper.GetBool("progress")

	if inputFile == "" {
		return fmt.Errorf("input is required")
	}
	if err := validateFileExists(inputFile, "loan export file"); err != nil {
		return err
	}
	if tablesFile != "" {
		if err := validateFileExists(tablesFile, "tables file"); err != nil {
			return err
		}
	}

	validFormats := map[string]bool{"console": true, "json": true, "csv": true}
	if !validFormats[outputFormat] {
		return fmt.Errorf("invalid output format '%s'. Valid formats: console, json, csv", outputFormat)
	}

	if asOfDate != "" {
		if _, ok := dates.ParseCivil(asOfDate); !ok {
			return fmt.Errorf("invalid as-of date format: %s. Use YYYY-MM-DD", asOfDate)
		}
	}

	validProfiles := map[string]bool{"default": true, "strict": true, "relaxed": true}
	if !validProfiles[profile] {
		return fmt.Errorf("invalid profile '%s'. Valid profiles: default, strict, relaxed", profile)
	}

	if windowDays < 0 {
		return fmt.Errorf("window days cannot be negative")
	}
	if amountTolerance < 0.0 || amountTolerance > 100.0 {
		return fmt.Errorf("amount tolerance must be between 0.0 and 100.0")
	}
	if concurrency < 0 {
		return fmt.Errorf("concurrency cannot be negative")
	}

	if outputFile != "" {
		dir := filepath.Dir(outputFile)
		if dir != "." {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				return fmt.Errorf("output directory does not exist: %s", dir)
			}
		}
	}

	return nil
}

func validateFileExists(filePath, description string) error {
	if filePath == "" {
		return fmt.Errorf("%s path cannot be empty", description)
	}

	info, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return fmt.Errorf("%s does not exist: %s", description, filePath)
	}
	if err != nil {
		return fmt.Errorf("error accessing %s: %w", description, err)
	}

	if info.IsDir() {
		return fmt.Errorf("%s is a directory, expected a file: %s", description, filePath)
	}

	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("%s is not readable: %w", description, err)
	}
	file.Close()

	return nil
}

func runProcess(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if viper.GetBool("verbose") {
		fmt.Fprintf(os.Stderr, "Starting ledger processing...\n")
		fmt.Fprintf(os.Stderr, "Input file: %s\n", inputFile)
		fmt.Fprintf(os.Stderr, "Output format: %s\n", outputFormat)
		if outputFile != "" {
			fmt.Fprintf(os.Stderr, "Output file: %s\n", outputFile)
		}
	}

	loader, err := config.CreateLoader()
	if err != nil {
		return fmt.Errorf("failed to create row loader: %w", err)
	}

	rows, err := loader.LoadFile(inputFile)
	if err != nil {
		return err
	}

	engineConfig, err := config.CreateEngineConfig(config.EngineOptions{
		Profile:         profile,
		WindowDays:      windowDays,
		AmountTolerance: amountTolerance,
		AsOf:            asOfDate,
		TablesFile:      tablesFile,
		Concurrency:     concurrency,
		ShowProgress:    showProgress,
	})
	if err != nil {
		return fmt.Errorf("failed to create engine config: %w", err)
	}

	engine, err := config.CreateEngine(engineConfig)
	if err != nil {
		return err
	}

	result, err := engine.ProcessBatch(ctx, rows)
	if err != nil {
		return err
	}

	rep, err := config.CreateReporter(outputFormat, includeMatches)
	if err != nil {
		return fmt.Errorf("failed to create reporter: %w", err)
	}

	out := os.Stdout
	if outputFile != "" {
		f, err := os.Create(outputFile)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	return rep.Write(out, result)
}
