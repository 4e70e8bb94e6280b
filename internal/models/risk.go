package models

// RiskLevel is the coarse banding of a total risk score.
type RiskLevel string

const (
	RiskLow      RiskLevel = "Low"
	RiskMedium   RiskLevel = "Medium"
	RiskHigh     RiskLevel = "High"
	RiskCritical RiskLevel = "Critical"
)

// String returns the string representation of the risk level.
func (l RiskLevel) String() string {
	return string(l)
}

// RiskLevelForScore maps a total score to its level band.
func RiskLevelForScore(score float64) RiskLevel {
	switch {
	case score <= 27:
		return RiskLow
	case score <= 55:
		return RiskMedium
	case score <= 82:
		return RiskHigh
	default:
		return RiskCritical
	}
}

// RiskFactor is one independently capped sub-score with its label.
type RiskFactor struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
	Cap   float64 `json:"cap"`
}

// Utilization returns the fraction of the cap this factor consumed,
// used to rank factors for explainability.
func (f RiskFactor) Utilization() float64 {
	if f.Cap <= 0 {
		return 0
	}
	return f.Score / f.Cap
}

// RiskAssessment is the bounded, explainable risk output for one loan:
// a 0-100 score that is the sum of seven capped sub-scores, the level
// band, the top contributing factors, and a templated recommendation.
type RiskAssessment struct {
	Score          float64      `json:"score"`
	Level          RiskLevel    `json:"level"`
	Breakdown      []RiskFactor `json:"breakdown"`
	TopFactors     []string     `json:"top_factors"`
	Recommendation string       `json:"recommendation"`
}
