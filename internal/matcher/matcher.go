package matcher

import (
	"sort"

	"mca-ledger-engine/internal/dates"
	"mca-ledger-engine/internal/models"

	"github.com/shopspring/decimal"
)

// Result bundles the match set with the catch-up annotations produced
// by the recovery pass.
type Result struct {
	MatchSet *models.MatchSet
	CatchUps []models.CatchUpPayment
}

// matchState carries the mutable bookkeeping of one Match call. The
// input slices themselves are never modified.
type matchState struct {
	schedule     []models.ScheduledInstallment
	transactions []models.LedgerTransaction
	installment  decimal.Decimal
	today        dates.CivilDate
	config       *Config

	candidates []int        // transaction indexes passing the payment-validity filter
	used       map[int]bool // claimed transaction indexes
	assigned   []*models.PaymentMatch
	matches    []models.PaymentMatch
	catchUps   []models.CatchUpPayment
}

// Match reconciles the schedule against the classified transactions.
// It is a pure function: inputs are read-only, and every consumed
// transaction index appears in the returned claim list. Exactly one
// match is produced per scheduled installment, plus extra entries for
// unconsumed payments. installmentAmount is the loan's contractual
// installment, used for the multiplier and extra thresholds.
func Match(
	schedule []models.ScheduledInstallment,
	transactions []models.LedgerTransaction,
	installmentAmount decimal.Decimal,
	today dates.CivilDate,
	config *Config,
) *Result {
	if config == nil {
		config = DefaultConfig()
	}

	st := &matchState{
		schedule:     schedule,
		transactions: transactions,
		installment:  installmentAmount,
		today:        today,
		config:       config,
		used:         make(map[int]bool),
		assigned:     make([]*models.PaymentMatch, len(schedule)),
	}

	st.collectCandidates()
	st.applyRecoveries()
	st.applyDirectMatches()
	st.resolveUnmatchedInstallments()
	st.collectExtras()

	return &Result{
		MatchSet: st.finish(),
		CatchUps: st.catchUps,
	}
}

// collectCandidates applies the payment-validity filter: classified as
// a payment, not voided by a reversal, and carrying a positive credit.
func (st *matchState) collectCandidates() {
	for i := range st.transactions {
		txn := &st.transactions[i]
		if txn.Category != models.CategoryPayment {
			continue
		}
		if txn.IsReversed {
			continue
		}
		if !txn.Credit.IsPositive() {
			continue
		}
		st.candidates = append(st.candidates, i)
	}
}

// applyRecoveries is pass 1: payments at or above the catch-up
// multiple of the installment amount claim the earliest unmatched
// installments at or before their date. Installments that would match
// a same-day payment exactly are left for pass 2.
func (st *matchState) applyRecoveries() {
	if !st.installment.IsPositive() {
		return
	}

	catchUpFloor := st.installment.Mul(decimal.NewFromFloat(st.config.CatchUpMultiplier))
	recoveryFloor := st.installment.Mul(decimal.NewFromFloat(st.config.RecoveryMultiplier))

	for _, ti := range st.candidates {
		txn := &st.transactions[ti]
		if txn.Credit.LessThan(catchUpFloor) {
			continue
		}

		periods := int(txn.Credit.Div(st.installment).IntPart())
		if periods < 1 {
			continue
		}
		isRecovery := !txn.Credit.LessThan(recoveryFloor)

		covered := 0
		anchor := true
		for si := range st.schedule {
			if covered >= periods {
				break
			}
			if st.assigned[si] != nil {
				continue
			}
			inst := &st.schedule[si]
			if inst.Date.After(txn.Date) {
				break
			}
			if st.hasExactDateCandidate(si) {
				continue
			}

			status := models.MatchCoveredByRecovery
			txnIdx := ti
			if anchor {
				status = models.MatchRecovery
			}
			st.assign(si, &models.PaymentMatch{
				InstallmentIndex: si,
				Installment:      inst,
				TransactionIndex: txnIdx,
				Transaction:      txn,
				Status:           status,
				ExpectedAmount:   inst.Amount,
				ActualAmount:     txn.Credit,
				Variance:         decimal.Zero,
				DaysLate:         maxInt(0, txn.Date.DaysSince(inst.Date)),
			})
			anchor = false
			covered++
		}

		if covered > 0 {
			st.used[ti] = true
			st.catchUps = append(st.catchUps, models.CatchUpPayment{
				TransactionIndex: ti,
				Date:             txn.Date,
				Amount:           txn.Credit,
				PeriodsCovered:   covered,
				Recovery:         isRecovery,
			})
		}
	}
}

// hasExactDateCandidate reports whether an unused candidate payment
// exists on exactly the installment's date within amount tolerance.
// Such installments are reserved for the direct-match pass.
func (st *matchState) hasExactDateCandidate(si int) bool {
	inst := &st.schedule[si]
	tolerance := inst.Amount.Mul(decimal.NewFromFloat(st.config.AmountTolerancePercent / 100.0))
	for _, ti := range st.candidates {
		if st.used[ti] {
			continue
		}
		txn := &st.transactions[ti]
		if !txn.Date.Equal(inst.Date) {
			continue
		}
		if txn.Credit.Sub(inst.Amount).Abs().LessThanOrEqual(tolerance) {
			return true
		}
	}
	return false
}

// applyDirectMatches is pass 2: each remaining installment takes the
// closest unused payment inside the window whose amount falls in the
// tolerance band (full) or the partial band. Day-distance ties go to
// the earliest payment in chronological order.
func (st *matchState) applyDirectMatches() {
	for si := range st.schedule {
		if st.assigned[si] != nil {
			continue
		}
		inst := &st.schedule[si]
		if !inst.Amount.IsPositive() {
			continue
		}

		tolerance := inst.Amount.Mul(decimal.NewFromFloat(st.config.AmountTolerancePercent / 100.0))
		partialMin := inst.Amount.Mul(decimal.NewFromFloat(st.config.PartialMinPercent / 100.0))
		partialMax := inst.Amount.Mul(decimal.NewFromFloat(st.config.PartialMaxPercent / 100.0))

		best := -1
		bestDist := st.config.WindowDays + 1
		bestPartial := false

		for _, ti := range st.candidates {
			if st.used[ti] {
				continue
			}
			txn := &st.transactions[ti]

			dist := txn.Date.DaysSince(inst.Date)
			if dist < 0 {
				dist = -dist
			}
			if dist > st.config.WindowDays {
				continue
			}

			full := txn.Credit.Sub(inst.Amount).Abs().LessThanOrEqual(tolerance)
			partial := !full &&
				txn.Credit.GreaterThanOrEqual(partialMin) &&
				txn.Credit.LessThanOrEqual(partialMax)
			if !full && !partial {
				continue
			}

			// Candidates are walked in chronological order, so a strict
			// improvement check keeps the first transaction on ties.
			if dist < bestDist {
				best = ti
				bestDist = dist
				bestPartial = partial
			}
		}

		if best < 0 {
			continue
		}

		txn := &st.transactions[best]
		daysLate := maxInt(0, txn.Date.DaysSince(inst.Date))

		status := models.MatchMatched
		if bestPartial {
			status = models.MatchPartialPayment
		} else if daysLate > 0 {
			status = models.MatchLateMatched
		}

		st.used[best] = true
		st.assign(si, &models.PaymentMatch{
			InstallmentIndex: si,
			Installment:      inst,
			TransactionIndex: best,
			Transaction:      txn,
			Status:           status,
			ExpectedAmount:   inst.Amount,
			ActualAmount:     txn.Credit,
			Variance:         txn.Credit.Sub(inst.Amount),
			DaysLate:         daysLate,
		})
	}
}

// resolveUnmatchedInstallments classifies every installment still
// unassigned by its date relative to the processing date. The negative
// variance on missed/upcoming/due_today entries is "not applicable"
// until the due date passes; callers treat it accordingly.
func (st *matchState) resolveUnmatchedInstallments() {
	for si := range st.schedule {
		if st.assigned[si] != nil {
			continue
		}
		inst := &st.schedule[si]

		var status models.MatchStatus
		daysLate := 0
		switch {
		case inst.Date.Equal(st.today):
			status = models.MatchDueToday
		case inst.Date.After(st.today):
			status = models.MatchUpcoming
		default:
			status = models.MatchMissed
			daysLate = st.today.DaysSince(inst.Date)
		}

		st.assign(si, &models.PaymentMatch{
			InstallmentIndex: si,
			Installment:      inst,
			TransactionIndex: -1,
			Status:           status,
			ExpectedAmount:   inst.Amount,
			ActualAmount:     decimal.Zero,
			Variance:         inst.Amount.Neg(),
			DaysLate:         daysLate,
		})
	}
}

// collectExtras is pass 3: candidate payments never consumed by the
// earlier passes, at or above the extra threshold, become synthetic
// entries with no installment.
func (st *matchState) collectExtras() {
	if !st.installment.IsPositive() {
		return
	}
	floor := st.installment.Mul(decimal.NewFromFloat(st.config.ExtraMinPercent / 100.0))

	for _, ti := range st.candidates {
		if st.used[ti] {
			continue
		}
		txn := &st.transactions[ti]
		if txn.Credit.LessThan(floor) {
			continue
		}

		st.used[ti] = true
		st.matches = append(st.matches, models.PaymentMatch{
			InstallmentIndex: -1,
			TransactionIndex: ti,
			Transaction:      txn,
			Status:           models.MatchExtra,
			ExpectedAmount:   decimal.Zero,
			ActualAmount:     txn.Credit,
			Variance:         txn.Credit,
		})
	}
}

func (st *matchState) assign(si int, m *models.PaymentMatch) {
	st.assigned[si] = m
	st.matches = append(st.matches, *m)
}

// finish orders matches by their relevant date (installment date, or
// transaction date for extras) and builds the sorted claim list.
func (st *matchState) finish() *models.MatchSet {
	sort.SliceStable(st.matches, func(i, j int) bool {
		return relevantDate(&st.matches[i]).Before(relevantDate(&st.matches[j]))
	})

	usedList := make([]int, 0, len(st.used))
	for ti := range st.used {
		usedList = append(usedList, ti)
	}
	sort.Ints(usedList)

	return &models.MatchSet{
		Matches:          st.matches,
		UsedTransactions: usedList,
	}
}

func relevantDate(m *models.PaymentMatch) dates.CivilDate {
	if m.Installment != nil {
		return m.Installment.Date
	}
	if m.Transaction != nil {
		return m.Transaction.Date
	}
	return dates.CivilDate{}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
