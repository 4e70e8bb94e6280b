// Package status derives a loan's delinquency bucket from its match
// results.
//
// The classifier is a small explicit state machine evaluated once per
// record after matching: restructuring takes absolute priority, then
// the missed-installment count maps onto the delinquency ladder.
package status

import (
	"fmt"

	"mca-ledger-engine/internal/dates"
	"mca-ledger-engine/internal/ledger"
	"mca-ledger-engine/internal/models"

	"github.com/shopspring/decimal"
)

// PartialSatisfactionPercent is the canonical accumulation rule:
// partial payments accumulate toward satisfying one installment once
// their running sum reaches this fraction of the installment amount.
// The same rule is applied nowhere else; the matcher only labels
// individual payments.
const PartialSatisfactionPercent = 90.0

// Classify evaluates the state machine for one record and returns the
// status with its explained calculation.
//
// Priority order:
//  1. An explicit restructuring flag or any settlement transaction
//     forces restructured, regardless of missed count.
//  2. Otherwise missed = max(0, dueInstallments - satisfied), where
//     satisfied counts matched/late/recovery/covered outcomes plus
//     accumulated partials.
//  3. The missed count maps 0/1/2/3/4+ onto
//     current/delinquent_1/2/3/default.
func Classify(rec *models.LoanRecord, today dates.CivilDate) (models.LoanStatus, *models.StatusCalculation) {
	calc := &models.StatusCalculation{}

	if rec.Restructured || ledger.HasSettlement(rec.Transactions) {
		calc.Restructured = true
		calc.Explanation = "loan restructured or settled; delinquency ladder does not apply"
		return models.StatusRestructured, calc
	}

	if rec.Matching == nil {
		calc.Explanation = "no matching results; treated as current"
		return models.StatusCurrent, calc
	}

	satisfied, due, oldestMissed := tallyMatches(rec.Matching, today)
	calc.TotalInstallments = due
	calc.SatisfiedInstallments = satisfied

	missed := due - satisfied
	if missed < 0 {
		missed = 0
	}
	calc.MissedPayments = missed

	if !oldestMissed.IsZero() {
		calc.DaysDelinquent = today.DaysSince(oldestMissed)
		if calc.DaysDelinquent < 0 {
			calc.DaysDelinquent = 0
		}
	}

	status := statusForMissed(missed)
	calc.Explanation = explain(status, missed, due, satisfied, calc.DaysDelinquent)
	return status, calc
}

// tallyMatches counts due installments, satisfied installments
// (including accumulated partials), and finds the oldest currently
// missed installment date.
func tallyMatches(ms *models.MatchSet, today dates.CivilDate) (satisfied, due int, oldestMissed dates.CivilDate) {
	partialSum := decimal.Zero
	partialUnit := decimal.Zero

	for i := range ms.Matches {
		m := &ms.Matches[i]
		if m.InstallmentIndex < 0 {
			continue // extras carry no installment
		}

		// Future and same-day installments are not yet due.
		if m.Status == models.MatchUpcoming || m.Status == models.MatchDueToday {
			continue
		}
		due++

		switch {
		case m.Status.IsSatisfied():
			satisfied++
		case m.Status == models.MatchPartialPayment:
			partialSum = partialSum.Add(m.ActualAmount)
			if partialUnit.IsZero() {
				partialUnit = m.ExpectedAmount
			}
		case m.Status == models.MatchMissed:
			if oldestMissed.IsZero() || m.Installment.Date.Before(oldestMissed) {
				oldestMissed = m.Installment.Date
			}
		}
	}

	// Accumulated partials satisfy whole installments at the threshold.
	if partialUnit.IsPositive() {
		threshold := partialUnit.Mul(decimal.NewFromFloat(PartialSatisfactionPercent / 100.0))
		for partialSum.GreaterThanOrEqual(threshold) {
			satisfied++
			partialSum = partialSum.Sub(partialUnit)
		}
	}

	if satisfied > due {
		satisfied = due
	}
	return satisfied, due, oldestMissed
}

func statusForMissed(missed int) models.LoanStatus {
	switch {
	case missed == 0:
		return models.StatusCurrent
	case missed == 1:
		return models.StatusDelinquent1
	case missed == 2:
		return models.StatusDelinquent2
	case missed == 3:
		return models.StatusDelinquent3
	default:
		return models.StatusDefault
	}
}

func explain(status models.LoanStatus, missed, due, satisfied, daysDelinquent int) string {
	switch status {
	case models.StatusCurrent:
		return fmt.Sprintf("all %d due installments satisfied", due)
	case models.StatusDefault:
		return fmt.Sprintf("%d of %d due installments missed (%d satisfied), oldest %d days past due; loan in default",
			missed, due, satisfied, daysDelinquent)
	default:
		return fmt.Sprintf("%d of %d due installments missed (%d satisfied), oldest %d days past due",
			missed, due, satisfied, daysDelinquent)
	}
}
