package models

import (
	"github.com/shopspring/decimal"
)

// MatchStatus is the reconciliation outcome for one scheduled
// installment (or a synthetic entry for an unmatched payment).
type MatchStatus string

const (
	// MatchMatched is a same-day payment within amount tolerance.
	MatchMatched MatchStatus = "matched"
	// MatchLateMatched is a payment within the window but after the due date.
	MatchLateMatched MatchStatus = "late_matched"
	// MatchPartialPayment is a payment between 50% and 90% of the installment.
	MatchPartialPayment MatchStatus = "partial_payment"
	// MatchRecovery is the installment a lump-sum recovery was anchored to.
	MatchRecovery MatchStatus = "recovery"
	// MatchCoveredByRecovery is an installment satisfied by the same lump sum.
	MatchCoveredByRecovery MatchStatus = "covered_by_recovery"
	// MatchMissed is a past-due installment with no payment found.
	MatchMissed MatchStatus = "missed"
	// MatchDueToday is an installment due on the processing date.
	MatchDueToday MatchStatus = "due_today"
	// MatchUpcoming is a future installment.
	MatchUpcoming MatchStatus = "upcoming"
	// MatchExtra is a payment never consumed by any installment.
	MatchExtra MatchStatus = "extra"
)

// String returns the string representation of the match status.
func (s MatchStatus) String() string {
	return string(s)
}

// IsSatisfied reports whether the status counts the installment as paid
// for delinquency purposes. Partial payments are handled separately via
// accumulation.
func (s MatchStatus) IsSatisfied() bool {
	switch s {
	case MatchMatched, MatchLateMatched, MatchRecovery, MatchCoveredByRecovery:
		return true
	default:
		return false
	}
}

// PaymentMatch pairs one scheduled installment with at most one ledger
// transaction. Either side may be absent: missed/upcoming entries have
// no transaction, extra entries have no installment. Index fields are
// -1 when the corresponding side is absent.
type PaymentMatch struct {
	InstallmentIndex int                   `json:"installment_index"`
	Installment      *ScheduledInstallment `json:"installment,omitempty"`
	TransactionIndex int                   `json:"transaction_index"`
	Transaction      *LedgerTransaction    `json:"transaction,omitempty"`

	Status         MatchStatus     `json:"status"`
	ExpectedAmount decimal.Decimal `json:"expected_amount"`
	ActualAmount   decimal.Decimal `json:"actual_amount"`
	Variance       decimal.Decimal `json:"variance"`
	DaysLate       int             `json:"days_late"`
}

// MatchSet is the complete, ordered output of the schedule matcher for
// one loan: exactly one entry per scheduled installment plus extras,
// along with the claim list of consumed transaction indexes.
type MatchSet struct {
	Matches []PaymentMatch `json:"matches"`

	// UsedTransactions lists the transaction indexes consumed by the
	// matcher, in ascending order. A transaction appears at most once
	// even when a recovery satisfies several installments.
	UsedTransactions []int `json:"used_transactions,omitempty"`
}

// CountByStatus tallies matches per status.
func (ms *MatchSet) CountByStatus() map[MatchStatus]int {
	counts := make(map[MatchStatus]int)
	for _, m := range ms.Matches {
		counts[m.Status]++
	}
	return counts
}

// SatisfiedInstallments counts installments whose match status marks
// them paid outright (partial accumulation is the status classifier's
// concern).
func (ms *MatchSet) SatisfiedInstallments() int {
	n := 0
	for _, m := range ms.Matches {
		if m.InstallmentIndex >= 0 && m.Status.IsSatisfied() {
			n++
		}
	}
	return n
}
