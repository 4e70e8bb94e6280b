package portfolio

import (
	"testing"

	"mca-ledger-engine/internal/models"

	"github.com/shopspring/decimal"
)

func record(id string, amount int64, status models.LoanStatus, score float64, rate float64) *models.LoanRecord {
	return &models.LoanRecord{
		ExternalID: id,
		LoanNumber: "L-1",
		LoanAmount: decimal.NewFromInt(amount),
		Status:     status,
		Client:     models.ClientProfile{Industry: "Retail"},
		Risk: &models.RiskAssessment{
			Score: score,
			Level: models.RiskLevelForScore(score),
		},
		Collection: &models.CollectionMetrics{
			TotalExpected:  decimal.NewFromInt(amount / 10),
			TotalReceived:  decimal.NewFromInt(amount / 20),
			Outstanding:    decimal.NewFromInt(amount / 20),
			CollectionRate: rate,
		},
	}
}

func TestAggregateCounts(t *testing.T) {
	records := []*models.LoanRecord{
		record("A", 10000, models.StatusCurrent, 10, 1.0),
		record("B", 20000, models.StatusDelinquent1, 40, 0.8),
		record("C", 30000, models.StatusDefault, 90, 0.2),
	}

	pm := Aggregate(records)

	if pm.TotalLoans != 3 || pm.ProcessedLoans != 3 || pm.FailedLoans != 0 {
		t.Errorf("counts = %d/%d/%d", pm.TotalLoans, pm.ProcessedLoans, pm.FailedLoans)
	}
	if want := decimal.NewFromInt(60000); !pm.TotalLoanAmount.Equal(want) {
		t.Errorf("total loan amount = %s, want %s", pm.TotalLoanAmount, want)
	}
	if pm.StatusCounts[models.StatusCurrent] != 1 || pm.StatusCounts[models.StatusDefault] != 1 {
		t.Errorf("status counts = %v", pm.StatusCounts)
	}
	if pm.LevelCounts[models.RiskLow] != 1 || pm.LevelCounts[models.RiskCritical] != 1 {
		t.Errorf("level counts = %v", pm.LevelCounts)
	}
	if pm.IndustryCounts["Retail"] != 3 {
		t.Errorf("industry counts = %v", pm.IndustryCounts)
	}

	wantAvg := (10.0 + 40.0 + 90.0) / 3.0
	if pm.AverageRiskScore != wantAvg {
		t.Errorf("average risk = %.2f, want %.2f", pm.AverageRiskScore, wantAvg)
	}
}

func TestAggregateFailedRecordsExcludedFromAverages(t *testing.T) {
	failed := record("F", 5000, "", 0, 0)
	failed.ProcessingError = "boom"
	failed.Risk = nil
	failed.Collection = nil

	records := []*models.LoanRecord{
		record("A", 10000, models.StatusCurrent, 20, 1.0),
		failed,
	}

	pm := Aggregate(records)
	if pm.FailedLoans != 1 || pm.ProcessedLoans != 1 {
		t.Errorf("failed/processed = %d/%d, want 1/1", pm.FailedLoans, pm.ProcessedLoans)
	}
	// Failed loans still count toward batch volume.
	if want := decimal.NewFromInt(15000); !pm.TotalLoanAmount.Equal(want) {
		t.Errorf("total loan amount = %s, want %s", pm.TotalLoanAmount, want)
	}
	if pm.AverageRiskScore != 20 {
		t.Errorf("average risk = %.2f, want 20", pm.AverageRiskScore)
	}
	if _, ok := pm.Ranks[failed.Identity()]; ok {
		t.Error("failed records should not be ranked")
	}
}

func TestAggregatePercentileRanks(t *testing.T) {
	records := []*models.LoanRecord{
		record("A", 10000, models.StatusCurrent, 10, 0.5),
		record("B", 20000, models.StatusCurrent, 50, 0.7),
		record("C", 30000, models.StatusCurrent, 90, 0.9),
		record("D", 40000, models.StatusCurrent, 90, 1.0),
	}

	pm := Aggregate(records)

	// Percentile is the fraction of the batch strictly below the value.
	if got := pm.Ranks["A/L-1"].RiskScore; got != 0 {
		t.Errorf("lowest risk rank = %.2f, want 0", got)
	}
	if got := pm.Ranks["B/L-1"].RiskScore; got != 0.25 {
		t.Errorf("second risk rank = %.2f, want 0.25", got)
	}
	// Tied values share the same rank.
	if pm.Ranks["C/L-1"].RiskScore != 0.5 || pm.Ranks["D/L-1"].RiskScore != 0.5 {
		t.Errorf("tied risk ranks = %.2f/%.2f, want 0.50/0.50",
			pm.Ranks["C/L-1"].RiskScore, pm.Ranks["D/L-1"].RiskScore)
	}
	if got := pm.Ranks["D/L-1"].LoanSize; got != 0.75 {
		t.Errorf("largest loan rank = %.2f, want 0.75", got)
	}
}

func TestAggregateEmptyBatch(t *testing.T) {
	pm := Aggregate(nil)
	if pm.TotalLoans != 0 {
		t.Errorf("total = %d, want 0", pm.TotalLoans)
	}
	if pm.AverageRiskScore != 0 {
		t.Errorf("average risk = %.2f, want 0", pm.AverageRiskScore)
	}
}
