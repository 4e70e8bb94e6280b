// Package models defines the data model for the ledger reconciliation
// engine: raw export rows, the LoanRecord aggregate, classified ledger
// transactions, payment matches, risk assessments, and portfolio metrics.
//
// All monetary values are decimal.Decimal; all dates are timezone-free
// dates.CivilDate values. Derived fields on a LoanRecord are populated
// exactly once by the processing pipeline.
package models

import (
	"fmt"
	"sort"
	"strings"

	"mca-ledger-engine/internal/dates"

	"github.com/shopspring/decimal"
)

// PaymentFrequency is the contractual cadence of scheduled installments.
type PaymentFrequency string

const (
	FrequencyDaily    PaymentFrequency = "daily"
	FrequencyWeekly   PaymentFrequency = "weekly"
	FrequencyBiweekly PaymentFrequency = "biweekly"
	FrequencyMonthly  PaymentFrequency = "monthly"
)

// ParsePaymentFrequency resolves a raw frequency string, defaulting to
// weekly for unknown values (the dominant cadence in these portfolios).
func ParsePaymentFrequency(s string) PaymentFrequency {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "daily", "day":
		return FrequencyDaily
	case "weekly", "week":
		return FrequencyWeekly
	case "biweekly", "bi-weekly", "fortnightly":
		return FrequencyBiweekly
	case "monthly", "month":
		return FrequencyMonthly
	default:
		return FrequencyWeekly
	}
}

// CadenceDays returns the expected number of days between installments.
func (f PaymentFrequency) CadenceDays() int {
	switch f {
	case FrequencyDaily:
		return 1
	case FrequencyBiweekly:
		return 14
	case FrequencyMonthly:
		return 30
	default:
		return 7
	}
}

// TransactionCategory classifies a ledger transaction.
type TransactionCategory string

const (
	CategoryPayment    TransactionCategory = "payment"
	CategoryFee        TransactionCategory = "fee"
	CategoryReversal   TransactionCategory = "reversal"
	CategoryReversed   TransactionCategory = "reversed"
	CategorySettlement TransactionCategory = "settlement"
	CategoryCapital    TransactionCategory = "capital"
	CategoryDebit      TransactionCategory = "debit"
	CategoryOther      TransactionCategory = "other"
)

// String returns the string representation of the category.
func (c TransactionCategory) String() string {
	return string(c)
}

// LedgerTransaction is one bank-ledger line for a loan, plus the flags
// assigned by the ledger classifier. ReversalOf is an index into the
// owning record's Transactions slice (-1 when unlinked); it is a
// back-reference, never an ownership link.
type LedgerTransaction struct {
	Date      dates.CivilDate `json:"date"`
	Reference string          `json:"reference"`
	TypeName  string          `json:"type_name"`
	Debit     decimal.Decimal `json:"debit"`
	Credit    decimal.Decimal `json:"credit"`
	Balance   decimal.Decimal `json:"balance"`

	Category   TransactionCategory `json:"category,omitempty"`
	IsReversal bool                `json:"is_reversal,omitempty"`
	IsReversed bool                `json:"is_reversed,omitempty"`
	ReversalOf int                 `json:"reversal_of,omitempty"`
	NetAmount  decimal.Decimal     `json:"net_amount"`
}

// String returns a compact representation for logs.
func (t *LedgerTransaction) String() string {
	return fmt.Sprintf("LedgerTransaction{%s %s debit=%s credit=%s}",
		t.Date, t.TypeName, t.Debit.String(), t.Credit.String())
}

// ScheduledInstallment is one expected payment from the amortization
// schedule.
type ScheduledInstallment struct {
	Date   dates.CivilDate `json:"date"`
	Amount decimal.Decimal `json:"amount"`
}

// ClientProfile carries the borrower's business profile.
type ClientProfile struct {
	ClientID     string          `json:"client_id"`
	Industry     string          `json:"industry"`
	Subsector    string          `json:"subsector,omitempty"`
	Location     string          `json:"location,omitempty"`
	FoundingDate dates.CivilDate `json:"founding_date"`
}

// LeadProfile carries underwriting inputs reported at origination.
type LeadProfile struct {
	CreditScore         int             `json:"credit_score"`
	AvgMonthlyRevenue   decimal.Decimal `json:"avg_monthly_revenue"`
	AvgMonthlyDebt      decimal.Decimal `json:"avg_monthly_debt"`
	AvgDailyBalance     decimal.Decimal `json:"avg_daily_balance"`
	NSFCount            int             `json:"nsf_count"`
	NegativeBalanceDays int             `json:"negative_balance_days"`
	AssignedStaff       string          `json:"assigned_staff,omitempty"`
}

// LoanStatus is the coarse delinquency bucket of a loan.
type LoanStatus string

const (
	StatusCurrent      LoanStatus = "current"
	StatusDelinquent1  LoanStatus = "delinquent_1"
	StatusDelinquent2  LoanStatus = "delinquent_2"
	StatusDelinquent3  LoanStatus = "delinquent_3"
	StatusDefault      LoanStatus = "default"
	StatusRestructured LoanStatus = "restructured"
)

// Severity orders statuses from healthy to defaulted. Restructured sits
// outside the delinquency ladder and compares above default.
func (s LoanStatus) Severity() int {
	switch s {
	case StatusCurrent:
		return 0
	case StatusDelinquent1:
		return 1
	case StatusDelinquent2:
		return 2
	case StatusDelinquent3:
		return 3
	case StatusDefault:
		return 4
	case StatusRestructured:
		return 5
	default:
		return -1
	}
}

// String returns the string representation of the status.
func (s LoanStatus) String() string {
	return string(s)
}

// StatusCalculation is the explained result of the status classifier.
type StatusCalculation struct {
	TotalInstallments     int    `json:"total_installments"`
	SatisfiedInstallments int    `json:"satisfied_installments"`
	MissedPayments        int    `json:"missed_payments"`
	DaysDelinquent        int    `json:"days_delinquent"`
	Restructured          bool   `json:"restructured"`
	Explanation           string `json:"explanation"`
}

// CollectionMetrics summarizes money in versus money expected to date.
type CollectionMetrics struct {
	TotalExpected  decimal.Decimal `json:"total_expected"`
	TotalReceived  decimal.Decimal `json:"total_received"`
	Outstanding    decimal.Decimal `json:"outstanding"`
	CollectionRate float64         `json:"collection_rate"`
	PaymentCount   int             `json:"payment_count"`
}

// CatchUpPayment annotates a transaction large enough to cover multiple
// scheduled periods at once.
type CatchUpPayment struct {
	TransactionIndex int             `json:"transaction_index"`
	Date             dates.CivilDate `json:"date"`
	Amount           decimal.Decimal `json:"amount"`
	PeriodsCovered   int             `json:"periods_covered"`
	Recovery         bool            `json:"recovery"`
}

// LoanRecord is the central aggregate: one merchant cash-advance loan
// with its schedule, ledger, borrower profile, and the derived fields
// the pipeline populates exactly once per run.
type LoanRecord struct {
	// Identity; unique per batch as (ExternalID, LoanNumber).
	ExternalID string `json:"external_id"`
	LoanNumber string `json:"loan_number"`

	// Loan economics.
	LoanAmount        decimal.Decimal  `json:"loan_amount"`
	ContractBalance   decimal.Decimal  `json:"contract_balance"`
	RemainingAmount   decimal.Decimal  `json:"remaining_amount"`
	InstallmentAmount decimal.Decimal  `json:"installment_amount"`
	PaymentFrequency  PaymentFrequency `json:"payment_frequency"`
	LoanTerm          int              `json:"loan_term_months"`

	// Key dates.
	PayoutDate       dates.CivilDate `json:"payout_date"`
	ContractDate     dates.CivilDate `json:"contract_date"`
	FirstPaymentDate dates.CivilDate `json:"first_payment_date"`
	EndDate          dates.CivilDate `json:"end_date"`

	Restructured bool `json:"restructured"`

	Client ClientProfile `json:"client"`
	Lead   LeadProfile   `json:"lead"`

	// Chronological sequences; mutable during construction only.
	Schedule     []ScheduledInstallment `json:"schedule"`
	Transactions []LedgerTransaction    `json:"transactions"`

	// Derived fields, write-once per processing pass.
	StatusCalculation *StatusCalculation `json:"status_calculation,omitempty"`
	Status            LoanStatus         `json:"status,omitempty"`
	Risk              *RiskAssessment    `json:"risk,omitempty"`
	Matching          *MatchSet          `json:"payment_matching,omitempty"`
	Collection        *CollectionMetrics `json:"collection_metrics,omitempty"`
	CatchUpPayments   []CatchUpPayment   `json:"catch_up_payments,omitempty"`

	// ProcessingError marks a record that failed mid-pipeline; the
	// record is still emitted so the batch stays fully sized.
	ProcessingError string   `json:"processing_error,omitempty"`
	DataWarnings    []string `json:"data_warnings,omitempty"`
}

// Identity returns the batch-unique key of the record.
func (r *LoanRecord) Identity() string {
	return r.ExternalID + "/" + r.LoanNumber
}

// SortSequences orders schedule and ledger chronologically. It must run
// before any downstream stage; the matcher and classifiers assume
// ascending dates.
func (r *LoanRecord) SortSequences() {
	sort.SliceStable(r.Schedule, func(i, j int) bool {
		return r.Schedule[i].Date.Before(r.Schedule[j].Date)
	})
	sort.SliceStable(r.Transactions, func(i, j int) bool {
		return r.Transactions[i].Date.Before(r.Transactions[j].Date)
	})
}

// AddWarning records a data-quality warning on the record.
func (r *LoanRecord) AddWarning(format string, args ...interface{}) {
	r.DataWarnings = append(r.DataWarnings, fmt.Sprintf(format, args...))
}

// String returns a compact representation for logs.
func (r *LoanRecord) String() string {
	return fmt.Sprintf("LoanRecord{%s amount=%s installments=%d transactions=%d}",
		r.Identity(), r.LoanAmount.String(), len(r.Schedule), len(r.Transactions))
}
