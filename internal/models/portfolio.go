package models

import "github.com/shopspring/decimal"

// PercentileRanks places one loan within the batch: for each dimension,
// the fraction of the batch strictly below this loan's value.
type PercentileRanks struct {
	RiskScore      float64 `json:"risk_score"`
	LoanSize       float64 `json:"loan_size"`
	CollectionRate float64 `json:"collection_rate"`
}

// PortfolioMetrics is the batch-level aggregate over all loan records.
// It is rebuilt from scratch on every full run and never mutated
// incrementally.
type PortfolioMetrics struct {
	TotalLoans       int `json:"total_loans"`
	ProcessedLoans   int `json:"processed_loans"`
	FailedLoans      int `json:"failed_loans"`
	RestructuredLoan int `json:"restructured_loans"`

	TotalLoanAmount  decimal.Decimal `json:"total_loan_amount"`
	TotalExpected    decimal.Decimal `json:"total_expected"`
	TotalCollected   decimal.Decimal `json:"total_collected"`
	TotalOutstanding decimal.Decimal `json:"total_outstanding"`

	StatusCounts   map[LoanStatus]int `json:"status_counts"`
	IndustryCounts map[string]int     `json:"industry_counts"`
	LevelCounts    map[RiskLevel]int  `json:"risk_level_counts"`

	AverageRiskScore      float64 `json:"average_risk_score"`
	AverageCollectionRate float64 `json:"average_collection_rate"`

	// Ranks is keyed by LoanRecord.Identity().
	Ranks map[string]PercentileRanks `json:"ranks"`
}
