package risk

import (
	"testing"
	"time"

	"mca-ledger-engine/internal/dates"
	"mca-ledger-engine/internal/models"

	"github.com/shopspring/decimal"
)

func newTestScorer(t *testing.T) *Scorer {
	t.Helper()
	s, err := NewScorer(nil)
	if err != nil {
		t.Fatalf("NewScorer: %v", err)
	}
	return s
}

func healthyRecord() *models.LoanRecord {
	return &models.LoanRecord{
		ExternalID:        "EXT-1",
		LoanNumber:        "L-1",
		LoanAmount:        decimal.NewFromInt(50000),
		InstallmentAmount: decimal.NewFromInt(1000),
		PaymentFrequency:  models.FrequencyWeekly,
		FirstPaymentDate:  dates.NewCivilDate(2024, time.January, 5),
		Client: models.ClientProfile{
			Industry:     "Medical Practice",
			FoundingDate: dates.NewCivilDate(2015, time.June, 1),
		},
		Lead: models.LeadProfile{
			CreditScore:       780,
			AvgMonthlyRevenue: decimal.NewFromInt(100000),
			AvgMonthlyDebt:    decimal.NewFromInt(500),
			AvgDailyBalance:   decimal.NewFromInt(25000),
		},
		StatusCalculation: &models.StatusCalculation{},
		Collection: &models.CollectionMetrics{
			TotalExpected:  decimal.NewFromInt(10000),
			TotalReceived:  decimal.NewFromInt(10000),
			CollectionRate: 1.0,
			PaymentCount:   10,
		},
	}
}

func distressedRecord() *models.LoanRecord {
	rec := healthyRecord()
	rec.Client.Industry = "Nightclub"
	rec.Client.FoundingDate = dates.NewCivilDate(2023, time.December, 1)
	rec.Lead.CreditScore = 480
	rec.Lead.AvgMonthlyRevenue = decimal.NewFromInt(10000)
	rec.Lead.AvgMonthlyDebt = decimal.NewFromInt(8000)
	rec.Lead.AvgDailyBalance = decimal.NewFromInt(200)
	rec.Lead.NSFCount = 6
	rec.Lead.NegativeBalanceDays = 15
	rec.StatusCalculation = &models.StatusCalculation{MissedPayments: 5}
	rec.Collection = &models.CollectionMetrics{
		TotalExpected:  decimal.NewFromInt(10000),
		TotalReceived:  decimal.NewFromInt(3000),
		CollectionRate: 0.3,
		PaymentCount:   3,
	}
	return rec
}

func today() dates.CivilDate {
	return dates.NewCivilDate(2024, time.March, 1)
}

func TestScoreBounds(t *testing.T) {
	s := newTestScorer(t)

	for name, rec := range map[string]*models.LoanRecord{
		"healthy":    healthyRecord(),
		"distressed": distressedRecord(),
		"empty":      {ExternalID: "EXT-2", LoanNumber: "L-2"},
	} {
		assessment := s.Score(rec, today())

		if assessment.Score < 0 || assessment.Score > 100 {
			t.Errorf("%s: total score %.1f outside [0, 100]", name, assessment.Score)
		}
		if len(assessment.Breakdown) != 7 {
			t.Fatalf("%s: breakdown has %d factors, want 7", name, len(assessment.Breakdown))
		}

		for _, f := range assessment.Breakdown {
			if f.Score < 0 || f.Score > f.Cap {
				t.Errorf("%s: factor %s score %.1f outside [0, %.0f]", name, f.Name, f.Score, f.Cap)
			}
		}
	}
}

func TestScoreLevels(t *testing.T) {
	s := newTestScorer(t)

	healthy := s.Score(healthyRecord(), today())
	if healthy.Level != models.RiskLow {
		t.Errorf("healthy record level = %s (score %.1f), want Low", healthy.Level, healthy.Score)
	}

	distressed := s.Score(distressedRecord(), today())
	if distressed.Level != models.RiskCritical && distressed.Level != models.RiskHigh {
		t.Errorf("distressed record level = %s (score %.1f), want High or Critical",
			distressed.Level, distressed.Score)
	}
	if distressed.Score <= healthy.Score {
		t.Errorf("distressed score %.1f should exceed healthy score %.1f",
			distressed.Score, healthy.Score)
	}
}

func TestRiskLevelBands(t *testing.T) {
	tests := []struct {
		score float64
		want  models.RiskLevel
	}{
		{0, models.RiskLow},
		{27, models.RiskLow},
		{27.5, models.RiskMedium},
		{55, models.RiskMedium},
		{56, models.RiskHigh},
		{82, models.RiskHigh},
		{83, models.RiskCritical},
		{100, models.RiskCritical},
	}
	for _, tt := range tests {
		if got := models.RiskLevelForScore(tt.score); got != tt.want {
			t.Errorf("RiskLevelForScore(%.1f) = %s, want %s", tt.score, got, tt.want)
		}
	}
}

func TestCreditScoreBands(t *testing.T) {
	s := newTestScorer(t)
	tests := []struct {
		fico int
		want float64
	}{
		{450, 20},
		{540, 17},
		{580, 15},
		{640, 10},
		{690, 5},
		{740, 2},
		{800, 0},
	}
	for _, tt := range tests {
		rec := healthyRecord()
		rec.Lead.CreditScore = tt.fico
		if got := s.creditScore(rec); got != tt.want {
			t.Errorf("creditScore(%d) = %.1f, want %.1f", tt.fico, got, tt.want)
		}
	}
}

func TestDebtRatioAbsentRevenueIsHighRisk(t *testing.T) {
	s := newTestScorer(t)
	rec := healthyRecord()
	rec.Lead.AvgMonthlyRevenue = decimal.Zero

	if got := s.debtRatio(rec); got != 20 {
		t.Errorf("absent revenue score = %.1f, want 20", got)
	}
}

func TestIndustryTableLookup(t *testing.T) {
	table := DefaultIndustryTable()

	tests := []struct {
		industry string
		want     float64
	}{
		{"Medical Practice", TierFavorable},
		{"Grocery Store", TierStable},
		{"Retail Clothing", TierNeutral},
		{"Italian Restaurant", TierElevated},
		{"Downtown Casino", TierRestricted},
		{"Quantum Widget Assembly", TierNeutral}, // unmatched defaults to neutral
		{"", TierNeutral},
	}
	for _, tt := range tests {
		if got := table.Score(tt.industry); got != tt.want {
			t.Errorf("Score(%q) = %.1f, want %.1f", tt.industry, got, tt.want)
		}
	}
}

func TestTopFactorsRanksByCapFraction(t *testing.T) {
	s := newTestScorer(t)
	assessment := s.Score(distressedRecord(), today())

	if len(assessment.TopFactors) != 3 {
		t.Fatalf("top factors = %d, want 3", len(assessment.TopFactors))
	}

	// Payment history is maxed out on the distressed record.
	found := false
	for _, name := range assessment.TopFactors {
		if name == FactorPaymentHistory {
			found = true
		}
	}
	if !found {
		t.Errorf("top factors %v should include %s", assessment.TopFactors, FactorPaymentHistory)
	}

	if assessment.Recommendation == "" {
		t.Error("recommendation should not be empty")
	}
}
