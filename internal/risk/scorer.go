// Package risk produces a bounded, explainable 0-100 risk score for a
// processed loan record.
//
// The total is the sum of seven independently capped sub-scores, each
// derived from a different slice of the record: payment behavior,
// borrower credit, leverage, business age, industry, banking health,
// and contract performance. Every sub-score is clamped to [0, cap]
// before summing and the total is clamped to [0, 100], so the score
// stays bounded regardless of how degenerate the inputs are.
package risk

import (
	"fmt"
	"sort"
	"strings"

	"mca-ledger-engine/internal/dates"
	"mca-ledger-engine/internal/models"
)

// Sub-score caps. The published total is additionally clamped to 100.
const (
	capPaymentHistory = 30.0
	capCreditScore    = 20.0
	capDebtRatio      = 25.0
	capBusinessAge    = 15.0
	capIndustry       = 20.0
	capBankingHealth  = 15.0
	capContract       = 10.0
)

// Factor labels, used in breakdowns and recommendations.
const (
	FactorPaymentHistory = "payment_history"
	FactorCreditScore    = "credit_score"
	FactorDebtRatio      = "debt_revenue_ratio"
	FactorBusinessAge    = "business_age"
	FactorIndustry       = "industry_risk"
	FactorBankingHealth  = "banking_health"
	FactorContract       = "contract_performance"
)

const (
	missedPaymentPoints = 7.5
	paymentGapBonus     = 5.0
	slowCadenceFactor   = 1.5
	firstPaymentGrace   = 7
)

// Scorer computes risk assessments. The industry table is injected at
// construction and never mutated afterward, so a Scorer is safe for
// concurrent use across records.
type Scorer struct {
	industries *IndustryTable
}

// NewScorer creates a scorer; a nil table selects the built-in one.
func NewScorer(table *IndustryTable) (*Scorer, error) {
	if table == nil {
		table = DefaultIndustryTable()
	}
	if err := table.Validate(); err != nil {
		return nil, err
	}
	return &Scorer{industries: table}, nil
}

// Score assesses one record. It reads the record's derived status,
// matching, and collection fields, so it must run after those stages.
func (s *Scorer) Score(rec *models.LoanRecord, today dates.CivilDate) *models.RiskAssessment {
	breakdown := []models.RiskFactor{
		{Name: FactorPaymentHistory, Score: s.paymentHistory(rec), Cap: capPaymentHistory},
		{Name: FactorCreditScore, Score: s.creditScore(rec), Cap: capCreditScore},
		{Name: FactorDebtRatio, Score: s.debtRatio(rec), Cap: capDebtRatio},
		{Name: FactorBusinessAge, Score: s.businessAge(rec, today), Cap: capBusinessAge},
		{Name: FactorIndustry, Score: s.industries.Score(rec.Client.Industry), Cap: capIndustry},
		{Name: FactorBankingHealth, Score: s.bankingHealth(rec), Cap: capBankingHealth},
		{Name: FactorContract, Score: s.contractPerformance(rec, today), Cap: capContract},
	}

	total := 0.0
	for i := range breakdown {
		breakdown[i].Score = clamp(breakdown[i].Score, 0, breakdown[i].Cap)
		total += breakdown[i].Score
	}
	// Caps sum past 100; the published score stays on a 0-100 scale.
	total = clamp(total, 0, 100)

	top := topFactors(breakdown, 3)

	return &models.RiskAssessment{
		Score:          total,
		Level:          models.RiskLevelForScore(total),
		Breakdown:      breakdown,
		TopFactors:     top,
		Recommendation: recommend(total, breakdown),
	}
}

// paymentHistory scores missed installments plus a slow-cadence bonus
// when actual payments arrive much further apart than the contract
// frequency implies.
func (s *Scorer) paymentHistory(rec *models.LoanRecord) float64 {
	score := 0.0
	if rec.StatusCalculation != nil {
		score = missedPaymentPoints * float64(rec.StatusCalculation.MissedPayments)
	}

	if gap, ok := averagePaymentGap(rec.Transactions); ok {
		expected := float64(rec.PaymentFrequency.CadenceDays())
		if gap > expected*slowCadenceFactor {
			score += paymentGapBonus
		}
	}
	return score
}

// averagePaymentGap returns the mean day gap between consecutive valid
// payments, and false when fewer than two exist.
func averagePaymentGap(transactions []models.LedgerTransaction) (float64, bool) {
	var prev dates.CivilDate
	totalDays, gaps := 0, 0
	for i := range transactions {
		txn := &transactions[i]
		if txn.Category != models.CategoryPayment || txn.IsReversed {
			continue
		}
		if !prev.IsZero() {
			totalDays += txn.Date.DaysSince(prev)
			gaps++
		}
		prev = txn.Date
	}
	if gaps == 0 {
		return 0, false
	}
	return float64(totalDays) / float64(gaps), true
}

func (s *Scorer) creditScore(rec *models.LoanRecord) float64 {
	fico := rec.Lead.CreditScore
	switch {
	case fico < 500:
		return 20
	case fico < 550:
		return 17
	case fico < 600:
		return 15
	case fico < 650:
		return 10
	case fico < 700:
		return 5
	case fico < 750:
		return 2
	default:
		return 0
	}
}

// debtRatio scores monthly debt over monthly revenue. Absent revenue
// data is treated as high risk, not zero risk.
func (s *Scorer) debtRatio(rec *models.LoanRecord) float64 {
	if !rec.Lead.AvgMonthlyRevenue.IsPositive() {
		return 20
	}
	ratio, _ := rec.Lead.AvgMonthlyDebt.Div(rec.Lead.AvgMonthlyRevenue).Float64()
	switch {
	case ratio > 0.5:
		return 25
	case ratio > 0.35:
		return 20
	case ratio > 0.2:
		return 15
	case ratio > 0.1:
		return 10
	case ratio > 0.05:
		return 8
	case ratio > 0.01:
		return 5
	default:
		return 0
	}
}

func (s *Scorer) businessAge(rec *models.LoanRecord, today dates.CivilDate) float64 {
	if rec.Client.FoundingDate.IsZero() {
		// Unknown age reads as a young business, but not the worst tier.
		return 9
	}
	years := float64(today.DaysSince(rec.Client.FoundingDate)) / 365.25
	switch {
	case years < 0.5:
		return 15
	case years < 1:
		return 12
	case years < 2:
		return 9
	case years < 3:
		return 6
	case years < 5:
		return 3
	default:
		return 0
	}
}

// bankingHealth sums independently capped penalties for NSF events,
// negative-balance days, and a thin average daily balance.
func (s *Scorer) bankingHealth(rec *models.LoanRecord) float64 {
	nsf := clamp(2.0*float64(rec.Lead.NSFCount), 0, 8)
	negative := clamp(0.5*float64(rec.Lead.NegativeBalanceDays), 0, 5)

	balancePenalty := 0.0
	if rec.Lead.AvgDailyBalance.IsPositive() {
		balance, _ := rec.Lead.AvgDailyBalance.Float64()
		switch {
		case balance < 500:
			balancePenalty = 4
		case balance < 2000:
			balancePenalty = 2
		}
	}

	return nsf + negative + balancePenalty
}

// contractPerformance penalizes a cold start (first expected payment
// well overdue with nothing received) and a weak overall collection
// rate.
func (s *Scorer) contractPerformance(rec *models.LoanRecord, today dates.CivilDate) float64 {
	score := 0.0

	received := false
	if rec.Collection != nil {
		received = rec.Collection.PaymentCount > 0
	}
	if !received && !rec.FirstPaymentDate.IsZero() &&
		today.DaysSince(rec.FirstPaymentDate) > firstPaymentGrace {
		score += 4
	}

	if rec.Collection != nil && rec.Collection.TotalExpected.IsPositive() {
		rate := rec.Collection.CollectionRate * 100
		switch {
		case rate < 50:
			score += 6
		case rate < 70:
			score += 4
		case rate < 85:
			score += 2
		}
	}
	return score
}

// topFactors returns the n factor names with the highest fraction of
// their cap consumed, ties broken by breakdown order.
func topFactors(breakdown []models.RiskFactor, n int) []string {
	ranked := make([]models.RiskFactor, len(breakdown))
	copy(ranked, breakdown)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Utilization() > ranked[j].Utilization()
	})

	if n > len(ranked) {
		n = len(ranked)
	}
	names := make([]string, 0, n)
	for _, f := range ranked[:n] {
		names = append(names, f.Name)
	}
	return names
}

// recommendation templates keyed by elevated factor.
var factorAdvice = map[string]string{
	FactorPaymentHistory: "review missed installments and contact the merchant about a payment plan",
	FactorCreditScore:    "borrower credit is weak; avoid renewal without additional guarantees",
	FactorDebtRatio:      "debt load is high relative to revenue; verify current bank statements",
	FactorBusinessAge:    "young business; monitor weekly until a longer payment history exists",
	FactorIndustry:       "industry carries elevated exposure; apply tighter advance limits",
	FactorBankingHealth:  "banking activity shows stress signals; request recent statements",
	FactorContract:       "collections are running behind contract; escalate to the servicing team",
}

// recommend assembles a short recommendation from fixed templates keyed
// to whichever sub-scores are elevated above half their cap.
func recommend(total float64, breakdown []models.RiskFactor) string {
	var parts []string
	switch models.RiskLevelForScore(total) {
	case models.RiskLow:
		parts = append(parts, "Low risk; standard servicing.")
	case models.RiskMedium:
		parts = append(parts, "Medium risk; keep on the regular review cycle.")
	case models.RiskHigh:
		parts = append(parts, "High risk; flag for active monitoring.")
	default:
		parts = append(parts, "Critical risk; escalate immediately.")
	}

	for _, f := range breakdown {
		if f.Utilization() > 0.5 {
			if advice, ok := factorAdvice[f.Name]; ok {
				parts = append(parts, capitalize(advice)+".")
			}
		}
	}
	return strings.Join(parts, " ")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Describe returns a one-line summary of an assessment for logs.
func Describe(a *models.RiskAssessment) string {
	return fmt.Sprintf("score=%.1f level=%s top=%s", a.Score, a.Level, strings.Join(a.TopFactors, ","))
}
