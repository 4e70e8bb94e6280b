package models

import (
	"fmt"
)

// ValidationResult is the outcome of validating a single loan record.
// Errors make the record invalid; warnings flag data-quality issues the
// pipeline will process through anyway.
type ValidationResult struct {
	IsValid  bool     `json:"is_valid"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

func (vr *ValidationResult) addError(format string, args ...interface{}) {
	vr.Errors = append(vr.Errors, fmt.Sprintf(format, args...))
	vr.IsValid = false
}

func (vr *ValidationResult) addWarning(format string, args ...interface{}) {
	vr.Warnings = append(vr.Warnings, fmt.Sprintf(format, args...))
}

// ValidateLoan checks a single record for missing identity, amount, and
// date fields (errors) and for missing borrower-profile fields or
// internally inconsistent amounts (warnings).
func ValidateLoan(rec *LoanRecord) ValidationResult {
	result := ValidationResult{IsValid: true}

	if rec.ExternalID == "" {
		result.addError("missing external id")
	}
	if rec.LoanNumber == "" {
		result.addError("missing loan number")
	}
	if !rec.LoanAmount.IsPositive() {
		result.addError("loan amount must be positive, got %s", rec.LoanAmount.String())
	}
	if rec.ContractDate.IsZero() && rec.FirstPaymentDate.IsZero() {
		result.addError("no usable contract or first-payment date")
	}

	if rec.Client.Industry == "" || rec.Client.Industry == "Unknown" {
		result.addWarning("industry is unknown")
	}
	if rec.Client.FoundingDate.IsZero() {
		result.addWarning("founding date is missing")
	}
	if rec.Lead.CreditScore == 0 {
		result.addWarning("credit score is missing")
	}
	if rec.Lead.AvgMonthlyRevenue.IsZero() {
		result.addWarning("average monthly revenue is missing")
	}
	if len(rec.Schedule) == 0 {
		result.addWarning("schedule is empty")
	}

	if rec.Collection != nil && rec.Collection.TotalReceived.GreaterThan(rec.LoanAmount) {
		result.addWarning("collected %s exceeds loan amount %s",
			rec.Collection.TotalReceived.String(), rec.LoanAmount.String())
	}

	return result
}

// RecordValidation ties a validation result to a record identity.
type RecordValidation struct {
	ExternalID string           `json:"external_id"`
	LoanNumber string           `json:"loan_number"`
	Result     ValidationResult `json:"result"`
}

// ValidationSummary aggregates validation across a batch.
type ValidationSummary struct {
	TotalRecords        int                `json:"total_records"`
	ValidRecords        int                `json:"valid_records"`
	RecordsWithErrors   int                `json:"records_with_errors"`
	RecordsWithWarnings int                `json:"records_with_warnings"`
	Details             []RecordValidation `json:"details,omitempty"`
}

// SummarizeValidation validates every record and folds the results.
func SummarizeValidation(records []*LoanRecord) *ValidationSummary {
	summary := &ValidationSummary{TotalRecords: len(records)}
	for _, rec := range records {
		result := ValidateLoan(rec)
		if result.IsValid {
			summary.ValidRecords++
		} else {
			summary.RecordsWithErrors++
		}
		if len(result.Warnings) > 0 {
			summary.RecordsWithWarnings++
		}
		if !result.IsValid || len(result.Warnings) > 0 {
			summary.Details = append(summary.Details, RecordValidation{
				ExternalID: rec.ExternalID,
				LoanNumber: rec.LoanNumber,
				Result:     result,
			})
		}
	}
	return summary
}
