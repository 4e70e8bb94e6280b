// Package portfolio folds processed loan records into batch-level
// metrics.
//
// Aggregation is a single pass plus three sorts for percentile ranks.
// It is rebuilt from scratch on every run; incremental updates would
// make ranks stale, so none are offered.
package portfolio

import (
	"sort"

	"mca-ledger-engine/internal/models"

	"github.com/shopspring/decimal"
)

// Aggregate computes portfolio metrics over all records, including the
// failed ones, so batch totals always account for every input loan.
func Aggregate(records []*models.LoanRecord) *models.PortfolioMetrics {
	pm := &models.PortfolioMetrics{
		TotalLoans:       len(records),
		TotalLoanAmount:  decimal.Zero,
		TotalExpected:    decimal.Zero,
		TotalCollected:   decimal.Zero,
		TotalOutstanding: decimal.Zero,
		StatusCounts:     make(map[models.LoanStatus]int),
		IndustryCounts:   make(map[string]int),
		LevelCounts:      make(map[models.RiskLevel]int),
		Ranks:            make(map[string]models.PercentileRanks),
	}

	riskSum := 0.0
	rateSum := 0.0
	rated := 0

	for _, rec := range records {
		pm.TotalLoanAmount = pm.TotalLoanAmount.Add(rec.LoanAmount)
		pm.IndustryCounts[rec.Client.Industry]++

		if rec.ProcessingError != "" {
			pm.FailedLoans++
			continue
		}
		pm.ProcessedLoans++

		if rec.Status != "" {
			pm.StatusCounts[rec.Status]++
			if rec.Status == models.StatusRestructured {
				pm.RestructuredLoan++
			}
		}
		if rec.Risk != nil {
			pm.LevelCounts[rec.Risk.Level]++
			riskSum += rec.Risk.Score
		}
		if rec.Collection != nil {
			pm.TotalExpected = pm.TotalExpected.Add(rec.Collection.TotalExpected)
			pm.TotalCollected = pm.TotalCollected.Add(rec.Collection.TotalReceived)
			pm.TotalOutstanding = pm.TotalOutstanding.Add(rec.Collection.Outstanding)
			rateSum += rec.Collection.CollectionRate
			rated++
		}
	}

	if pm.ProcessedLoans > 0 {
		pm.AverageRiskScore = riskSum / float64(pm.ProcessedLoans)
	}
	if rated > 0 {
		pm.AverageCollectionRate = rateSum / float64(rated)
	}

	rankRecords(pm, records)
	return pm
}

// rankRecords computes percentile ranks for each processed record:
// the fraction of the batch strictly below its value, per dimension.
func rankRecords(pm *models.PortfolioMetrics, records []*models.LoanRecord) {
	var riskScores, loanSizes, rates []float64
	for _, rec := range records {
		if rec.ProcessingError != "" {
			continue
		}
		riskScores = append(riskScores, riskScoreOf(rec))
		size, _ := rec.LoanAmount.Float64()
		loanSizes = append(loanSizes, size)
		rates = append(rates, collectionRateOf(rec))
	}

	sort.Float64s(riskScores)
	sort.Float64s(loanSizes)
	sort.Float64s(rates)

	for _, rec := range records {
		if rec.ProcessingError != "" {
			continue
		}
		size, _ := rec.LoanAmount.Float64()
		pm.Ranks[rec.Identity()] = models.PercentileRanks{
			RiskScore:      percentileRank(riskScores, riskScoreOf(rec)),
			LoanSize:       percentileRank(loanSizes, size),
			CollectionRate: percentileRank(rates, collectionRateOf(rec)),
		}
	}
}

// percentileRank returns the fraction of sorted values strictly below v.
func percentileRank(sorted []float64, v float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	below := sort.SearchFloat64s(sorted, v)
	return float64(below) / float64(len(sorted))
}

func riskScoreOf(rec *models.LoanRecord) float64 {
	if rec.Risk == nil {
		return 0
	}
	return rec.Risk.Score
}

func collectionRateOf(rec *models.LoanRecord) float64 {
	if rec.Collection == nil {
		return 0
	}
	return rec.Collection.CollectionRate
}
