// Package pipeline orchestrates the full batch run: grouping raw rows
// into loan records, running the per-record stages in parallel, and
// folding the results into portfolio metrics.
//
// Per-record processing is embarrassingly parallel; the only join point
// is the final aggregation. A failure inside one record degrades that
// record (ProcessingError is set) and never aborts the batch.
package pipeline

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"mca-ledger-engine/internal/dates"
	"mca-ledger-engine/internal/grouper"
	"mca-ledger-engine/internal/ledger"
	"mca-ledger-engine/internal/matcher"
	"mca-ledger-engine/internal/models"
	"mca-ledger-engine/internal/portfolio"
	"mca-ledger-engine/internal/risk"
	"mca-ledger-engine/internal/status"
	"mca-ledger-engine/pkg/errors"
	"mca-ledger-engine/pkg/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sourcegraph/conc/pool"
)

// Config assembles the per-stage configurations for one engine run.
type Config struct {
	Grouper *grouper.Config
	Ledger  *ledger.Config
	Matcher *matcher.Config

	// LedgerTable and IndustryTable override the built-in lookup tables.
	LedgerTable   *ledger.Table
	IndustryTable *risk.IndustryTable

	// Today is the injectable reference date; the zero value selects the
	// current local date. Tests always inject it.
	Today dates.CivilDate

	// Concurrency bounds the per-record worker pool; <=0 selects
	// runtime.NumCPU().
	Concurrency int

	ShowProgress bool
}

// DefaultConfig returns the standard engine configuration.
func DefaultConfig() *Config {
	return &Config{
		Grouper:     grouper.DefaultConfig(),
		Ledger:      ledger.DefaultConfig(),
		Matcher:     matcher.DefaultConfig(),
		Concurrency: runtime.NumCPU(),
	}
}

// Validate checks every stage configuration.
func (c *Config) Validate() error {
	if c.Grouper != nil {
		if err := c.Grouper.Validate(); err != nil {
			return fmt.Errorf("grouper config: %w", err)
		}
	}
	if c.Ledger != nil {
		if err := c.Ledger.Validate(); err != nil {
			return fmt.Errorf("ledger config: %w", err)
		}
	}
	if c.Matcher != nil {
		if err := c.Matcher.Validate(); err != nil {
			return fmt.Errorf("matcher config: %w", err)
		}
	}
	return nil
}

// BatchStats carries run accounting for reporting and logs.
type BatchStats struct {
	InputRows      int             `json:"input_rows"`
	RecordsBuilt   int             `json:"records_built"`
	RecordsFailed  int             `json:"records_failed"`
	Duration       time.Duration   `json:"duration"`
	ProcessingDate dates.CivilDate `json:"processing_date"`
}

// BatchResult is the complete output of one engine run.
type BatchResult struct {
	RunID      string                    `json:"run_id"`
	Records    []*models.LoanRecord      `json:"records"`
	Portfolio  *models.PortfolioMetrics  `json:"portfolio"`
	Validation *models.ValidationSummary `json:"validation"`
	Stats      BatchStats                `json:"stats"`
}

// Engine runs the batch pipeline.
type Engine struct {
	config     *Config
	grouper    *grouper.Grouper
	classifier *ledger.Classifier
	scorer     *risk.Scorer
	logger     logger.Logger
}

// NewEngine builds an engine from the configuration; nil selects the
// defaults.
func NewEngine(config *Config) (*Engine, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "engine", nil, err)
	}

	g, err := grouper.NewGrouper(config.Grouper)
	if err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "grouper", nil, err)
	}
	classifier, err := ledger.NewClassifier(config.LedgerTable, config.Ledger)
	if err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "ledger", nil, err)
	}
	scorer, err := risk.NewScorer(config.IndustryTable)
	if err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "industry_table", nil, err)
	}

	return &Engine{
		config:     config,
		grouper:    g,
		classifier: classifier,
		scorer:     scorer,
		logger:     logger.GetGlobalLogger().WithComponent("pipeline"),
	}, nil
}

// ProcessBatch runs the full pipeline over raw export rows. The
// returned record slice preserves input order regardless of worker
// scheduling. Only batch-level structural failures return an error;
// everything else degrades individual records.
func (e *Engine) ProcessBatch(ctx context.Context, rows []models.RawRow) (*BatchResult, error) {
	started := time.Now()
	today := e.config.Today
	if today.IsZero() {
		today = dates.CivilDateOf(time.Now())
	}

	runID := uuid.New().String()
	log := e.logger.WithFields(logger.Fields{
		"run_id":     runID,
		"input_rows": len(rows),
	})
	log.Info("Starting batch run")

	if len(rows) == 0 {
		return nil, errors.ParseError(errors.CodeEmptyBatch, "batch", "", nil)
	}

	records := e.grouper.BuildRecords(rows)
	log.WithField("records", len(records)).Info("Grouped rows into loan records")

	var tracker *logger.ProgressTracker
	if e.config.ShowProgress {
		tracker = logger.NewProgressTracker(e.logger, "process_records", int64(len(records)))
	}

	workers := e.config.Concurrency
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	p := pool.New().WithMaxGoroutines(workers)
	for _, rec := range records {
		rec := rec
		p.Go(func() {
			if ctx.Err() != nil {
				rec.ProcessingError = ctx.Err().Error()
				return
			}
			e.ProcessRecord(rec, today)
			if tracker != nil {
				tracker.Increment()
			}
		})
	}
	p.Wait()

	if tracker != nil {
		tracker.Complete()
	}

	failed := 0
	for _, rec := range records {
		if rec.ProcessingError != "" {
			failed++
		}
	}

	result := &BatchResult{
		RunID:      runID,
		Records:    records,
		Portfolio:  portfolio.Aggregate(records),
		Validation: models.SummarizeValidation(records),
		Stats: BatchStats{
			InputRows:      len(rows),
			RecordsBuilt:   len(records),
			RecordsFailed:  failed,
			Duration:       time.Since(started),
			ProcessingDate: today,
		},
	}

	log.WithFields(logger.Fields{
		"records":  len(records),
		"failed":   failed,
		"duration": result.Stats.Duration.String(),
	}).Info("Batch run complete")

	return result, nil
}

// ProcessRecord runs the per-record stages in order: ledger
// classification, schedule matching, collection metrics, status
// classification, and risk scoring. A panic inside any stage is
// captured into ProcessingError; the record is still emitted.
func (e *Engine) ProcessRecord(rec *models.LoanRecord, today dates.CivilDate) {
	defer func() {
		if r := recover(); r != nil {
			rec.ProcessingError = fmt.Sprintf("record processing failed: %v", r)
			e.logger.WithFields(logger.Fields{
				"loan":  rec.Identity(),
				"panic": fmt.Sprintf("%v", r),
			}).Error("Record degraded after processing failure")
		}
	}()

	e.classifier.Classify(rec.Transactions)

	matched := matcher.Match(rec.Schedule, rec.Transactions, rec.InstallmentAmount, today, e.config.Matcher)
	rec.Matching = matched.MatchSet
	rec.CatchUpPayments = matched.CatchUps

	rec.Collection = collectionMetrics(rec, today)

	st, calc := status.Classify(rec, today)
	rec.Status = st
	rec.StatusCalculation = calc

	rec.Risk = e.scorer.Score(rec, today)
}

// collectionMetrics compares money received against money expected to
// date. Expected counts only installments due on or before today.
func collectionMetrics(rec *models.LoanRecord, today dates.CivilDate) *models.CollectionMetrics {
	cm := &models.CollectionMetrics{
		TotalExpected: decimal.Zero,
		TotalReceived: decimal.Zero,
		Outstanding:   decimal.Zero,
	}

	for i := range rec.Schedule {
		if rec.Schedule[i].Date.After(today) {
			continue
		}
		cm.TotalExpected = cm.TotalExpected.Add(rec.Schedule[i].Amount)
	}

	for i := range rec.Transactions {
		txn := &rec.Transactions[i]
		if txn.Category != models.CategoryPayment || txn.IsReversed {
			continue
		}
		if !txn.Credit.IsPositive() {
			continue
		}
		cm.TotalReceived = cm.TotalReceived.Add(txn.Credit)
		cm.PaymentCount++
	}

	cm.Outstanding = cm.TotalExpected.Sub(cm.TotalReceived)
	if cm.Outstanding.IsNegative() {
		cm.Outstanding = decimal.Zero
	}

	if cm.TotalExpected.IsPositive() {
		rate, _ := cm.TotalReceived.Div(cm.TotalExpected).Float64()
		cm.CollectionRate = rate
	} else if cm.PaymentCount > 0 {
		cm.CollectionRate = 1.0
	}
	return cm
}
