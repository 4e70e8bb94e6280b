package matcher

import (
	"testing"
	"time"

	"mca-ledger-engine/internal/dates"
	"mca-ledger-engine/internal/models"

	"github.com/shopspring/decimal"
)

func day(d int) dates.CivilDate {
	return dates.NewCivilDate(2024, time.March, d)
}

func installment(d int, amount float64) models.ScheduledInstallment {
	return models.ScheduledInstallment{
		Date:   day(d),
		Amount: decimal.NewFromFloat(amount),
	}
}

func payment(d int, credit float64) models.LedgerTransaction {
	return models.LedgerTransaction{
		Date:       day(d),
		TypeName:   "Payment",
		Credit:     decimal.NewFromFloat(credit),
		Category:   models.CategoryPayment,
		ReversalOf: -1,
	}
}

func findByInstallment(t *testing.T, ms *models.MatchSet, idx int) *models.PaymentMatch {
	t.Helper()
	for i := range ms.Matches {
		if ms.Matches[i].InstallmentIndex == idx {
			return &ms.Matches[i]
		}
	}
	t.Fatalf("no match for installment %d", idx)
	return nil
}

func TestMatchExactSameDay(t *testing.T) {
	schedule := []models.ScheduledInstallment{installment(10, 1000)}
	transactions := []models.LedgerTransaction{payment(10, 1000)}

	result := Match(schedule, transactions, decimal.NewFromInt(1000), day(20), nil)

	m := findByInstallment(t, result.MatchSet, 0)
	if m.Status != models.MatchMatched {
		t.Errorf("status = %s, want matched", m.Status)
	}
	if !m.Variance.IsZero() {
		t.Errorf("variance = %s, want 0", m.Variance)
	}
	if m.DaysLate != 0 {
		t.Errorf("days late = %d, want 0", m.DaysLate)
	}
}

func TestMatchRecoveryCoversMultiplePeriods(t *testing.T) {
	schedule := []models.ScheduledInstallment{
		installment(1, 1000),
		installment(8, 1000),
		installment(15, 1000),
	}
	transactions := []models.LedgerTransaction{payment(15, 3000)}

	result := Match(schedule, transactions, decimal.NewFromInt(1000), day(20), nil)

	first := findByInstallment(t, result.MatchSet, 0)
	if first.Status != models.MatchRecovery {
		t.Errorf("first status = %s, want recovery", first.Status)
	}
	for _, idx := range []int{1, 2} {
		m := findByInstallment(t, result.MatchSet, idx)
		if m.Status != models.MatchCoveredByRecovery {
			t.Errorf("installment %d status = %s, want covered_by_recovery", idx, m.Status)
		}
	}
	for _, idx := range []int{0, 1, 2} {
		m := findByInstallment(t, result.MatchSet, idx)
		if !m.Variance.IsZero() {
			t.Errorf("installment %d variance = %s, want 0", idx, m.Variance)
		}
	}

	if len(result.CatchUps) != 1 {
		t.Fatalf("catch-ups = %d, want 1", len(result.CatchUps))
	}
	cu := result.CatchUps[0]
	if cu.PeriodsCovered != 3 {
		t.Errorf("periods covered = %d, want 3", cu.PeriodsCovered)
	}
	if !cu.Recovery {
		t.Error("3x payment should be flagged as recovery")
	}
}

func TestMatchPartialPayment(t *testing.T) {
	schedule := []models.ScheduledInstallment{installment(10, 1000)}
	transactions := []models.LedgerTransaction{payment(10, 600)}

	result := Match(schedule, transactions, decimal.NewFromInt(1000), day(20), nil)

	m := findByInstallment(t, result.MatchSet, 0)
	if m.Status != models.MatchPartialPayment {
		t.Errorf("status = %s, want partial_payment", m.Status)
	}
	if want := decimal.NewFromInt(-400); !m.Variance.Equal(want) {
		t.Errorf("variance = %s, want %s", m.Variance, want)
	}
}

func TestMatchLateWithinWindow(t *testing.T) {
	schedule := []models.ScheduledInstallment{installment(10, 1000)}
	transactions := []models.LedgerTransaction{payment(13, 1000)}

	result := Match(schedule, transactions, decimal.NewFromInt(1000), day(20), nil)

	m := findByInstallment(t, result.MatchSet, 0)
	if m.Status != models.MatchLateMatched {
		t.Errorf("status = %s, want late_matched", m.Status)
	}
	if m.DaysLate != 3 {
		t.Errorf("days late = %d, want 3", m.DaysLate)
	}
}

func TestMatchOutsideWindowIsMissed(t *testing.T) {
	schedule := []models.ScheduledInstallment{installment(1, 1000)}
	transactions := []models.LedgerTransaction{payment(15, 1000)}

	result := Match(schedule, transactions, decimal.NewFromInt(1000), day(20), nil)

	m := findByInstallment(t, result.MatchSet, 0)
	if m.Status != models.MatchMissed {
		t.Errorf("status = %s, want missed", m.Status)
	}

	// The payment is large enough to surface as an extra.
	extras := result.MatchSet.CountByStatus()[models.MatchExtra]
	if extras != 1 {
		t.Errorf("extras = %d, want 1", extras)
	}
}

func TestMatchDueTodayAndUpcoming(t *testing.T) {
	schedule := []models.ScheduledInstallment{
		installment(20, 1000),
		installment(27, 1000),
	}

	result := Match(schedule, nil, decimal.NewFromInt(1000), day(20), nil)

	if m := findByInstallment(t, result.MatchSet, 0); m.Status != models.MatchDueToday {
		t.Errorf("status = %s, want due_today", m.Status)
	}
	if m := findByInstallment(t, result.MatchSet, 1); m.Status != models.MatchUpcoming {
		t.Errorf("status = %s, want upcoming", m.Status)
	}
}

func TestMatchSkipsReversedAndNonPayments(t *testing.T) {
	schedule := []models.ScheduledInstallment{installment(10, 1000)}

	reversed := payment(10, 1000)
	reversed.IsReversed = true
	reversed.Category = models.CategoryReversed
	fee := payment(10, 1000)
	fee.Category = models.CategoryFee

	result := Match(schedule, []models.LedgerTransaction{reversed, fee},
		decimal.NewFromInt(1000), day(20), nil)

	m := findByInstallment(t, result.MatchSet, 0)
	if m.Status != models.MatchMissed {
		t.Errorf("status = %s, want missed (voided payments must not match)", m.Status)
	}
	if len(result.MatchSet.UsedTransactions) != 0 {
		t.Errorf("used transactions = %v, want none", result.MatchSet.UsedTransactions)
	}
}

func TestMatchRecoveryLeavesExactDateCandidates(t *testing.T) {
	// Installment 2 has a same-day exact payment; the lump sum must not
	// claim it and should cover the earlier ones instead.
	schedule := []models.ScheduledInstallment{
		installment(1, 1000),
		installment(8, 1000),
		installment(15, 1000),
	}
	transactions := []models.LedgerTransaction{
		payment(15, 1000),
		payment(15, 2000),
	}

	result := Match(schedule, transactions, decimal.NewFromInt(1000), day(20), nil)

	if m := findByInstallment(t, result.MatchSet, 2); m.Status != models.MatchMatched {
		t.Errorf("exact-date installment status = %s, want matched", m.Status)
	}
	if m := findByInstallment(t, result.MatchSet, 0); m.Status != models.MatchRecovery {
		t.Errorf("first installment status = %s, want recovery", m.Status)
	}
	if m := findByInstallment(t, result.MatchSet, 1); m.Status != models.MatchCoveredByRecovery {
		t.Errorf("second installment status = %s, want covered_by_recovery", m.Status)
	}
}

func TestMatchExhaustiveness(t *testing.T) {
	schedule := []models.ScheduledInstallment{
		installment(1, 500),
		installment(8, 500),
		installment(15, 500),
		installment(22, 500),
		installment(29, 500),
	}
	transactions := []models.LedgerTransaction{
		payment(1, 500),
		payment(9, 480),
		payment(16, 300),
		payment(18, 2000),
	}

	result := Match(schedule, transactions, decimal.NewFromInt(500), day(25), nil)

	// Every installment appears exactly once.
	counts := make(map[int]int)
	for _, m := range result.MatchSet.Matches {
		if m.InstallmentIndex >= 0 {
			counts[m.InstallmentIndex]++
		}
	}
	for i := range schedule {
		if counts[i] != 1 {
			t.Errorf("installment %d matched %d times, want exactly 1", i, counts[i])
		}
	}

	// Every claimed transaction index is listed at most once.
	seen := make(map[int]bool)
	for _, ti := range result.MatchSet.UsedTransactions {
		if seen[ti] {
			t.Errorf("transaction %d claimed more than once", ti)
		}
		seen[ti] = true
		if ti < 0 || ti >= len(transactions) {
			t.Errorf("claim list references out-of-range index %d", ti)
		}
	}
}

func TestMatchConservation(t *testing.T) {
	// No recovery payments: matched/partial variances plus missed
	// shortfalls must reconcile with received minus expected.
	schedule := []models.ScheduledInstallment{
		installment(1, 1000),
		installment(8, 1000),
		installment(15, 1000),
	}
	transactions := []models.LedgerTransaction{
		payment(1, 1000),
		payment(8, 600),
	}

	result := Match(schedule, transactions, decimal.NewFromInt(1000), day(20), nil)

	sum := decimal.Zero
	for _, m := range result.MatchSet.Matches {
		switch m.Status {
		case models.MatchMatched, models.MatchLateMatched, models.MatchPartialPayment:
			sum = sum.Add(m.Variance)
		case models.MatchMissed:
			sum = sum.Add(m.ExpectedAmount.Neg())
		}
	}

	received := decimal.NewFromInt(1600)
	expected := decimal.NewFromInt(3000)
	if want := received.Sub(expected); !sum.Equal(want) {
		t.Errorf("variance sum = %s, want %s", sum, want)
	}
}

func TestMatchPureFunction(t *testing.T) {
	schedule := []models.ScheduledInstallment{installment(10, 1000)}
	transactions := []models.LedgerTransaction{payment(10, 1000)}

	before := transactions[0]
	first := Match(schedule, transactions, decimal.NewFromInt(1000), day(20), nil)
	second := Match(schedule, transactions, decimal.NewFromInt(1000), day(20), nil)

	if transactions[0] != before {
		t.Error("Match mutated its transaction input")
	}
	if len(first.MatchSet.Matches) != len(second.MatchSet.Matches) {
		t.Fatal("repeated runs disagree on match count")
	}
	for i := range first.MatchSet.Matches {
		if first.MatchSet.Matches[i].Status != second.MatchSet.Matches[i].Status {
			t.Errorf("repeated runs disagree on match %d", i)
		}
	}
}

func TestConfigValidate(t *testing.T) {
	for _, config := range []*Config{DefaultConfig(), StrictConfig(), RelaxedConfig()} {
		if err := config.Validate(); err != nil {
			t.Errorf("built-in profile invalid: %v", err)
		}
	}

	bad := DefaultConfig()
	bad.PartialMinPercent = 95
	bad.PartialMaxPercent = 90
	if err := bad.Validate(); err == nil {
		t.Error("inverted partial band should fail validation")
	}

	bad = DefaultConfig()
	bad.RecoveryMultiplier = 1.0
	if err := bad.Validate(); err == nil {
		t.Error("recovery multiplier below catch-up should fail validation")
	}
}
