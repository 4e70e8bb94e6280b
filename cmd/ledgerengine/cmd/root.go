package cmd

import (
	"fmt"
	"os"

	"mca-ledger-engine/pkg/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	verbose bool
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "ledgerengine",
	Short: "MCA loan ledger reconciliation and risk scoring",
	Long: `Ledgerengine reconciles merchant cash-advance loan ledgers against
their installment schedules, classifies delinquency status, and scores
portfolio risk from a single raw export file.

Examples:
  ledgerengine process --input export.csv
  ledgerengine process --input export.csv --output-format json --output-file report.json
  ledgerengine process --input export.csv --as-of 2026-01-15 --profile strict
  ledgerengine validate --input export.csv
  ledgerengine version`,
	Version: getVersionString(),
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (optional)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Bind flags to viper
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

// initConfig reads in config file and ENV variables.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)

		// If a config file is specified, read it in.
		if err := viper.ReadInConfig(); err != nil {
			fmt.Fprintf(os.Stderr, "Error reading config file: %s\n", err)
			os.Exit(1)
		}

		if viper.GetBool("verbose") {
			fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
		}
	}

	// Read environment variables that match
	viper.SetEnvPrefix("LEDGERENGINE")
	viper.AutomaticEnv()

	logConfig := logger.DefaultConfig()
	if viper.GetBool("verbose") {
		logConfig.Level = logger.DebugLevel
	}
	if log, err := logger.NewLogger(logConfig); err == nil {
		logger.SetGlobalLogger(log)
	}
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = getVersionString()
}

func getVersionString() string {
	if version == "dev" {
		return fmt.Sprintf("%s (commit %s, built %s)", version, commit, date)
	}
	return version
}
