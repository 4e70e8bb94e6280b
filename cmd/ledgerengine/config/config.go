// Package config builds component configurations from CLI inputs.
package config

import (
	"fmt"

	"mca-ledger-engine/internal/dates"
	"mca-ledger-engine/internal/grouper"
	"mca-ledger-engine/internal/ledger"
	"mca-ledger-engine/internal/matcher"
	"mca-ledger-engine/internal/parsers"
	"mca-ledger-engine/internal/pipeline"
	"mca-ledger-engine/internal/reporter"
	"mca-ledger-engine/internal/risk"
)

// EngineOptions carries the CLI inputs that shape one engine run.
type EngineOptions struct {
	Profile         string
	WindowDays      int
	AmountTolerance float64
	AsOf            string
	TablesFile      string
	Concurrency     int
	ShowProgress    bool
}

// CreateLoader creates the raw-row loader for the fixed export layout.
func CreateLoader() (*parsers.RawRowLoader, error) {
	return parsers.NewRawRowLoader(parsers.DefaultLoaderConfig())
}

// CreateMatcherConfig builds a matcher configuration from the profile
// name plus optional per-flag overrides.
func CreateMatcherConfig(profile string, windowDays int, amountTolerance float64) (*matcher.Config, error) {
	var config *matcher.Config
	switch profile {
	case "", "default":
		config = matcher.DefaultConfig()
	case "strict":
		config = matcher.StrictConfig()
	case "relaxed":
		config = matcher.RelaxedConfig()
	default:
		return nil, fmt.Errorf("unknown matching profile: %s", profile)
	}

	// Apply CLI overrides
	if windowDays > 0 {
		config.WindowDays = windowDays
	}
	if amountTolerance > 0 {
		config.AmountTolerancePercent = amountTolerance
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// CreateEngineConfig assembles the full pipeline configuration.
func CreateEngineConfig(opts EngineOptions) (*pipeline.Config, error) {
	matcherConfig, err := CreateMatcherConfig(opts.Profile, opts.WindowDays, opts.AmountTolerance)
	if err != nil {
		return nil, err
	}

	config := pipeline.DefaultConfig()
	config.Grouper = grouper.DefaultConfig()
	config.Ledger = ledger.DefaultConfig()
	config.Matcher = matcherConfig
	config.ShowProgress = opts.ShowProgress

	if opts.Concurrency > 0 {
		config.Concurrency = opts.Concurrency
	}

	if opts.AsOf != "" {
		today, ok := dates.ParseCivil(opts.AsOf)
		if !ok {
			return nil, fmt.Errorf("invalid as-of date: %s", opts.AsOf)
		}
		config.Today = today
	}

	if opts.TablesFile != "" {
		ledgerTable, err := ledger.LoadTable(opts.TablesFile)
		if err != nil {
			return nil, err
		}
		industryTable, err := risk.LoadIndustryTable(opts.TablesFile)
		if err != nil {
			return nil, err
		}
		config.LedgerTable = ledgerTable
		config.IndustryTable = industryTable
	}

	return config, nil
}

// CreateEngine builds the processing engine.
func CreateEngine(config *pipeline.Config) (*pipeline.Engine, error) {
	return pipeline.NewEngine(config)
}

// CreateReporter creates a reporter for the specified output format.
func CreateReporter(format string, includeMatches bool) (*reporter.Reporter, error) {
	config := reporter.DefaultReportConfig()

	switch format {
	case "console":
		config.Format = reporter.FormatConsole
		config.IncludeBreakdown = true
		config.IncludeValidation = true
	case "json":
		config.Format = reporter.FormatJSON
		config.IncludeValidation = true
		config.IncludeMatches = includeMatches
	case "csv":
		config.Format = reporter.FormatCSV
		config.CSVHeaders = true
		config.CSVDelimiter = ','
		config.IncludeValidation = false
	default:
		return nil, fmt.Errorf("unknown output format: %s", format)
	}

	return reporter.NewReporter(config)
}
