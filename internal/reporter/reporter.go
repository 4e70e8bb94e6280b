// Package reporter renders batch results for people and programs.
//
// Supported output formats:
//   - Console: human-readable portfolio summary for terminal display
//   - JSON: the full batch result for programmatic consumption
//   - CSV: one row per loan for spreadsheet analysis
//
// Example usage:
//
//	rep := reporter.NewReporter(reporter.DefaultReportConfig())
//	err := rep.Write(os.Stdout, result)
package reporter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"mca-ledger-engine/internal/models"
	"mca-ledger-engine/internal/pipeline"
)

// OutputFormat represents the supported report output formats.
type OutputFormat string

const (
	FormatConsole OutputFormat = "console"
	FormatJSON    OutputFormat = "json"
	FormatCSV     OutputFormat = "csv"
)

// IsValid checks if the output format is supported.
func (f OutputFormat) IsValid() bool {
	switch f {
	case FormatConsole, FormatJSON, FormatCSV:
		return true
	default:
		return false
	}
}

// ReportConfig holds configuration options for report generation.
type ReportConfig struct {
	Format OutputFormat `json:"format"`

	// Detail level options.
	IncludeMatches    bool `json:"include_matches"`
	IncludeBreakdown  bool `json:"include_breakdown"`
	IncludeValidation bool `json:"include_validation"`
	IncludeWarnings   bool `json:"include_warnings"`

	// Console options.
	TopRisks int `json:"top_risks"`

	// CSV options.
	CSVDelimiter rune `json:"csv_delimiter"`
	CSVHeaders   bool `json:"csv_headers"`
}

// DefaultReportConfig returns a default report configuration.
func DefaultReportConfig() *ReportConfig {
	return &ReportConfig{
		Format:            FormatConsole,
		IncludeMatches:    false,
		IncludeBreakdown:  true,
		IncludeValidation: true,
		IncludeWarnings:   false,
		TopRisks:          5,
		CSVDelimiter:      ',',
		CSVHeaders:        true,
	}
}

// Validate validates the report configuration.
func (c *ReportConfig) Validate() error {
	if !c.Format.IsValid() {
		return fmt.Errorf("invalid output format: %s", c.Format)
	}
	if c.TopRisks < 0 {
		return fmt.Errorf("top risks cannot be negative: %d", c.TopRisks)
	}
	return nil
}

// Reporter renders batch results in the configured format.
type Reporter struct {
	config *ReportConfig
}

// NewReporter creates a reporter; nil selects the default configuration.
func NewReporter(config *ReportConfig) (*Reporter, error) {
	if config == nil {
		config = DefaultReportConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Reporter{config: config}, nil
}

// Write renders the batch result to w in the configured format.
func (r *Reporter) Write(w io.Writer, result *pipeline.BatchResult) error {
	switch r.config.Format {
	case FormatJSON:
		return r.writeJSON(w, result)
	case FormatCSV:
		return r.writeCSV(w, result)
	default:
		return r.writeConsole(w, result)
	}
}

// jsonReport controls which parts of the result reach JSON output.
type jsonReport struct {
	RunID      string                    `json:"run_id"`
	Stats      pipeline.BatchStats       `json:"stats"`
	Portfolio  *models.PortfolioMetrics  `json:"portfolio"`
	Validation *models.ValidationSummary `json:"validation,omitempty"`
	Records    []*models.LoanRecord      `json:"records"`
}

func (r *Reporter) writeJSON(w io.Writer, result *pipeline.BatchResult) error {
	report := jsonReport{
		RunID:     result.RunID,
		Stats:     result.Stats,
		Portfolio: result.Portfolio,
		Records:   result.Records,
	}
	if r.config.IncludeValidation {
		report.Validation = result.Validation
	}
	if !r.config.IncludeMatches {
		// Strip the bulky per-installment detail but keep the derived
		// fields; the records slice itself is shared, so copy.
		slim := make([]*models.LoanRecord, len(result.Records))
		for i, rec := range result.Records {
			cp := *rec
			cp.Matching = nil
			slim[i] = &cp
		}
		report.Records = slim
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func (r *Reporter) writeCSV(w io.Writer, result *pipeline.BatchResult) error {
	cw := csv.NewWriter(w)
	cw.Comma = r.config.CSVDelimiter

	if r.config.CSVHeaders {
		header := []string{
			"external_id", "loan_number", "industry", "loan_amount",
			"status", "missed_payments", "days_delinquent",
			"risk_score", "risk_level", "collection_rate",
			"total_expected", "total_received", "outstanding",
			"processing_error",
		}
		if err := cw.Write(header); err != nil {
			return err
		}
	}

	for _, rec := range result.Records {
		row := []string{
			rec.ExternalID,
			rec.LoanNumber,
			rec.Client.Industry,
			rec.LoanAmount.StringFixed(2),
			rec.Status.String(),
			csvInt(rec.StatusCalculation, func(c *models.StatusCalculation) int { return c.MissedPayments }),
			csvInt(rec.StatusCalculation, func(c *models.StatusCalculation) int { return c.DaysDelinquent }),
			csvRisk(rec.Risk),
			csvLevel(rec.Risk),
			csvRate(rec.Collection),
			csvMoney(rec.Collection, func(c *models.CollectionMetrics) string { return c.TotalExpected.StringFixed(2) }),
			csvMoney(rec.Collection, func(c *models.CollectionMetrics) string { return c.TotalReceived.StringFixed(2) }),
			csvMoney(rec.Collection, func(c *models.CollectionMetrics) string { return c.Outstanding.StringFixed(2) }),
			rec.ProcessingError,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func (r *Reporter) writeConsole(w io.Writer, result *pipeline.BatchResult) error {
	var b strings.Builder
	pm := result.Portfolio

	b.WriteString("MCA LEDGER RECONCILIATION REPORT\n")
	b.WriteString(strings.Repeat("=", 50) + "\n\n")

	fmt.Fprintf(&b, "Run:             %s\n", result.RunID)
	fmt.Fprintf(&b, "Processing date: %s\n", result.Stats.ProcessingDate)
	fmt.Fprintf(&b, "Duration:        %s\n\n", result.Stats.Duration)

	b.WriteString("PORTFOLIO\n")
	b.WriteString(strings.Repeat("-", 50) + "\n")
	fmt.Fprintf(&b, "Loans:           %d (%d processed, %d failed)\n",
		pm.TotalLoans, pm.ProcessedLoans, pm.FailedLoans)
	fmt.Fprintf(&b, "Loan volume:     %s\n", pm.TotalLoanAmount.StringFixed(2))
	fmt.Fprintf(&b, "Expected:        %s\n", pm.TotalExpected.StringFixed(2))
	fmt.Fprintf(&b, "Collected:       %s\n", pm.TotalCollected.StringFixed(2))
	fmt.Fprintf(&b, "Outstanding:     %s\n", pm.TotalOutstanding.StringFixed(2))
	fmt.Fprintf(&b, "Avg risk score:  %.1f\n", pm.AverageRiskScore)
	fmt.Fprintf(&b, "Avg collection:  %.1f%%\n\n", pm.AverageCollectionRate*100)

	b.WriteString("STATUS DISTRIBUTION\n")
	b.WriteString(strings.Repeat("-", 50) + "\n")
	for _, st := range statusOrder {
		if count := pm.StatusCounts[st]; count > 0 {
			fmt.Fprintf(&b, "  %-14s %d\n", st, count)
		}
	}
	b.WriteString("\nRISK LEVELS\n")
	b.WriteString(strings.Repeat("-", 50) + "\n")
	for _, lvl := range levelOrder {
		if count := pm.LevelCounts[lvl]; count > 0 {
			fmt.Fprintf(&b, "  %-10s %d\n", lvl, count)
		}
	}

	if r.config.TopRisks > 0 {
		b.WriteString("\nHIGHEST RISK LOANS\n")
		b.WriteString(strings.Repeat("-", 50) + "\n")
		for _, rec := range topRiskLoans(result.Records, r.config.TopRisks) {
			fmt.Fprintf(&b, "  %-20s score=%5.1f %-8s status=%s\n",
				rec.Identity(), rec.Risk.Score, rec.Risk.Level, rec.Status)
			if r.config.IncludeBreakdown {
				fmt.Fprintf(&b, "    %s\n", rec.Risk.Recommendation)
			}
		}
	}

	if r.config.IncludeValidation && result.Validation != nil {
		v := result.Validation
		b.WriteString("\nVALIDATION\n")
		b.WriteString(strings.Repeat("-", 50) + "\n")
		fmt.Fprintf(&b, "  valid: %d  errors: %d  warnings: %d\n",
			v.ValidRecords, v.RecordsWithErrors, v.RecordsWithWarnings)
	}

	if r.config.IncludeWarnings {
		for _, rec := range result.Records {
			for _, warning := range rec.DataWarnings {
				fmt.Fprintf(&b, "  warning %s: %s\n", rec.Identity(), warning)
			}
		}
	}

	b.WriteString("\n")
	_, err := io.WriteString(w, b.String())
	return err
}

var statusOrder = []models.LoanStatus{
	models.StatusCurrent, models.StatusDelinquent1, models.StatusDelinquent2,
	models.StatusDelinquent3, models.StatusDefault, models.StatusRestructured,
}

var levelOrder = []models.RiskLevel{
	models.RiskLow, models.RiskMedium, models.RiskHigh, models.RiskCritical,
}

// topRiskLoans returns the n scored records with the highest risk,
// ties broken by identity for stable output.
func topRiskLoans(records []*models.LoanRecord, n int) []*models.LoanRecord {
	scored := make([]*models.LoanRecord, 0, len(records))
	for _, rec := range records {
		if rec.Risk != nil && rec.ProcessingError == "" {
			scored = append(scored, rec)
		}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Risk.Score != scored[j].Risk.Score {
			return scored[i].Risk.Score > scored[j].Risk.Score
		}
		return scored[i].Identity() < scored[j].Identity()
	})
	if n > len(scored) {
		n = len(scored)
	}
	return scored[:n]
}

func csvInt(c *models.StatusCalculation, f func(*models.StatusCalculation) int) string {
	if c == nil {
		return ""
	}
	return fmt.Sprintf("%d", f(c))
}

func csvRisk(r *models.RiskAssessment) string {
	if r == nil {
		return ""
	}
	return fmt.Sprintf("%.1f", r.Score)
}

func csvLevel(r *models.RiskAssessment) string {
	if r == nil {
		return ""
	}
	return r.Level.String()
}

func csvRate(c *models.CollectionMetrics) string {
	if c == nil {
		return ""
	}
	return fmt.Sprintf("%.3f", c.CollectionRate)
}

func csvMoney(c *models.CollectionMetrics, f func(*models.CollectionMetrics) string) string {
	if c == nil {
		return ""
	}
	return f(c)
}
