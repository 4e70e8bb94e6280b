// Package grouper builds LoanRecord aggregates from raw export rows.
//
// A loan spans a header row plus zero or more continuation rows. A row
// opens a new record exactly when it carries both a non-empty external
// id and a non-empty loan number; any subsequent row lacking both is a
// continuation of the current record and may contribute one additional
// scheduled installment and/or one additional ledger transaction.
// Completely blank rows are skipped.
//
// All loose-typed defaulting happens here, once: downstream stages only
// ever see resolved, typed values.
package grouper

import (
	"mca-ledger-engine/internal/dates"
	"mca-ledger-engine/internal/models"
	"mca-ledger-engine/pkg/logger"

	"github.com/shopspring/decimal"
)

// Documented defaults for absent fields.
const (
	// DefaultCreditScore is used when the export carries no FICO value.
	DefaultCreditScore = 650
	// DefaultIndustry is used when the industry cell is absent.
	DefaultIndustry = "Unknown"
)

// Config configures record building.
type Config struct {
	Columns *models.ColumnMap `json:"columns"`
}

// DefaultConfig returns the grouper configuration for the current
// export layout.
func DefaultConfig() *Config {
	return &Config{Columns: models.DefaultColumnMap()}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Columns == nil {
		return models.DefaultColumnMap().Validate()
	}
	return c.Columns.Validate()
}

// Grouper folds raw rows into loan records.
type Grouper struct {
	config *Config
	logger logger.Logger
}

// NewGrouper creates a grouper with the given configuration.
func NewGrouper(config *Config) (*Grouper, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Grouper{
		config: config,
		logger: logger.GetGlobalLogger().WithComponent("grouper"),
	}, nil
}

// BuildRecords groups data rows into one LoanRecord per loan, in input
// order. Rows preceding the first header row are skipped with a
// warning; duplicate identities are kept but flagged.
func (g *Grouper) BuildRecords(rows []models.RawRow) []*models.LoanRecord {
	cols := g.config.Columns

	var records []*models.LoanRecord
	var current *models.LoanRecord
	seen := make(map[string]bool)
	skipped := 0

	for i, row := range rows {
		if row.IsBlank() {
			continue
		}

		externalID := row.Cell(cols.ExternalID).String()
		loanNumber := row.Cell(cols.LoanNumber).String()

		if externalID != "" && loanNumber != "" {
			if current != nil {
				g.finalize(current)
			}
			current = g.newRecord(row, externalID, loanNumber)
			if seen[current.Identity()] {
				current.AddWarning("duplicate loan identity %s", current.Identity())
				g.logger.WithField("loan", current.Identity()).Warn("duplicate loan identity in batch")
			}
			seen[current.Identity()] = true
			records = append(records, current)
		} else if current == nil {
			// Row before the first header row; nothing to attach it to.
			skipped++
			g.logger.WithField("row", i).Debug("skipping row with no open record")
			continue
		}

		g.appendScheduleEntry(current, row)
		g.appendLedgerEntry(current, row)
	}

	if current != nil {
		g.finalize(current)
	}

	if skipped > 0 {
		g.logger.WithField("skipped_rows", skipped).Warn("rows skipped before first loan header")
	}

	return records
}

// newRecord extracts all header-row fields with explicit defaulting.
func (g *Grouper) newRecord(row models.RawRow, externalID, loanNumber string) *models.LoanRecord {
	cols := g.config.Columns

	rec := &models.LoanRecord{
		ExternalID: externalID,
		LoanNumber: loanNumber,
	}

	rec.LoanAmount = cellDecimal(row.Cell(cols.LoanAmount))
	rec.ContractBalance = cellDecimal(row.Cell(cols.ContractBalance))
	rec.RemainingAmount = cellDecimal(row.Cell(cols.RemainingAmount))
	rec.InstallmentAmount = cellDecimal(row.Cell(cols.InstallmentAmount))
	rec.PaymentFrequency = models.ParsePaymentFrequency(row.Cell(cols.PaymentFrequency).String())

	if term, ok := row.Cell(cols.LoanTerm).Int(); ok && term > 0 {
		rec.LoanTerm = term
	}

	rec.PayoutDate = cellDate(row.Cell(cols.PayoutDate), rec, "payout date")
	rec.FirstPaymentDate = cellDate(row.Cell(cols.FirstPaymentDate), rec, "first payment date")
	rec.EndDate = cellDate(row.Cell(cols.EndDate), rec, "end date")

	rec.Restructured = cellBool(row.Cell(cols.Restructured))

	rec.Client = models.ClientProfile{
		ClientID:     row.Cell(cols.ClientID).String(),
		Industry:     cellStringDefault(row.Cell(cols.Industry), DefaultIndustry),
		Subsector:    row.Cell(cols.Subsector).String(),
		Location:     row.Cell(cols.Location).String(),
		FoundingDate: cellDate(row.Cell(cols.FoundingDate), rec, "founding date"),
	}

	rec.Lead = models.LeadProfile{
		CreditScore:       DefaultCreditScore,
		AvgMonthlyRevenue: cellDecimal(row.Cell(cols.AvgMonthlyRevenue)),
		AvgMonthlyDebt:    cellDecimal(row.Cell(cols.AvgMonthlyDebt)),
		AvgDailyBalance:   cellDecimal(row.Cell(cols.AvgDailyBalance)),
		AssignedStaff:     row.Cell(cols.AssignedStaff).String(),
	}
	if score, ok := row.Cell(cols.CreditScore).Int(); ok && score > 0 {
		rec.Lead.CreditScore = score
	}
	if nsf, ok := row.Cell(cols.NSFCount).Int(); ok && nsf >= 0 {
		rec.Lead.NSFCount = nsf
	}
	if days, ok := row.Cell(cols.NegativeBalanceDays).Int(); ok && days >= 0 {
		rec.Lead.NegativeBalanceDays = days
	}

	return rec
}

// appendScheduleEntry attaches the row's schedule entry, if any.
// Amount defaults to the loan's installment amount when the cell is
// absent.
func (g *Grouper) appendScheduleEntry(rec *models.LoanRecord, row models.RawRow) {
	cols := g.config.Columns

	cell := row.Cell(cols.ScheduleDate)
	if cell.IsAbsent() {
		return
	}
	date, ok := dates.Normalize(cell.Value())
	if !ok {
		rec.AddWarning("unparseable schedule date %q", cell.String())
		return
	}

	amount := cellDecimal(row.Cell(cols.ScheduleAmount))
	if amount.IsZero() {
		amount = rec.InstallmentAmount
	}

	rec.Schedule = append(rec.Schedule, models.ScheduledInstallment{
		Date:   date,
		Amount: amount,
	})
}

// appendLedgerEntry attaches the row's ledger transaction, if any.
func (g *Grouper) appendLedgerEntry(rec *models.LoanRecord, row models.RawRow) {
	cols := g.config.Columns

	cell := row.Cell(cols.TxnDate)
	if cell.IsAbsent() {
		return
	}
	date, ok := dates.Normalize(cell.Value())
	if !ok {
		rec.AddWarning("unparseable transaction date %q", cell.String())
		return
	}

	txn := models.LedgerTransaction{
		Date:       date,
		Reference:  row.Cell(cols.TxnReference).String(),
		TypeName:   row.Cell(cols.TxnType).String(),
		Debit:      cellDecimal(row.Cell(cols.TxnDebit)),
		Credit:     cellDecimal(row.Cell(cols.TxnCredit)),
		Balance:    cellDecimal(row.Cell(cols.TxnBalance)),
		ReversalOf: -1,
	}
	txn.NetAmount = txn.Credit.Sub(txn.Debit)

	rec.Transactions = append(rec.Transactions, txn)
}

// finalize sorts both sequences and resolves derived header fields.
func (g *Grouper) finalize(rec *models.LoanRecord) {
	rec.SortSequences()

	// Contract date: payout date, else first payment date, else absent.
	rec.ContractDate = rec.PayoutDate
	if rec.ContractDate.IsZero() {
		rec.ContractDate = rec.FirstPaymentDate
	}

	// Loan term from the first-payment/end-date span when not explicit.
	if rec.LoanTerm == 0 && !rec.FirstPaymentDate.IsZero() && !rec.EndDate.IsZero() {
		if months := rec.EndDate.MonthsSince(rec.FirstPaymentDate); months > 0 {
			rec.LoanTerm = months
		}
	}

	// An installment amount of zero with a populated schedule means the
	// export only carried per-row amounts; use the first one.
	if rec.InstallmentAmount.IsZero() && len(rec.Schedule) > 0 {
		rec.InstallmentAmount = rec.Schedule[0].Amount
	}
}

func cellDecimal(c models.CellValue) decimal.Decimal {
	if c.IsAbsent() {
		return decimal.Zero
	}
	d, ok := c.Decimal()
	if !ok {
		return decimal.Zero
	}
	return d
}

func cellStringDefault(c models.CellValue, def string) string {
	if c.IsAbsent() {
		return def
	}
	return c.String()
}

func cellBool(c models.CellValue) bool {
	if c.Kind == models.CellBool {
		return c.Bool
	}
	return !c.IsAbsent() && c.String() != "" &&
		(c.String() == "TRUE" || c.String() == "true" || c.String() == "1" || c.String() == "yes")
}

func cellDate(c models.CellValue, rec *models.LoanRecord, field string) dates.CivilDate {
	if c.IsAbsent() {
		return dates.CivilDate{}
	}
	d, ok := dates.Normalize(c.Value())
	if !ok {
		rec.AddWarning("unparseable %s %q", field, c.String())
		return dates.CivilDate{}
	}
	return d
}
