package models

import (
	"testing"
	"time"

	"mca-ledger-engine/internal/dates"

	"github.com/shopspring/decimal"
)

func validRecord() *LoanRecord {
	return &LoanRecord{
		ExternalID:        "EXT-1",
		LoanNumber:        "L-1",
		LoanAmount:        decimal.NewFromInt(50000),
		InstallmentAmount: decimal.NewFromInt(1000),
		ContractDate:      dates.NewCivilDate(2024, time.January, 1),
		FirstPaymentDate:  dates.NewCivilDate(2024, time.January, 5),
		Client: ClientProfile{
			ClientID:     "C-1",
			Industry:     "Retail",
			FoundingDate: dates.NewCivilDate(2019, time.March, 1),
		},
		Lead: LeadProfile{
			CreditScore:       700,
			AvgMonthlyRevenue: decimal.NewFromInt(80000),
		},
		Schedule: []ScheduledInstallment{
			{Date: dates.NewCivilDate(2024, time.January, 5), Amount: decimal.NewFromInt(1000)},
		},
	}
}

func TestValidateLoanValid(t *testing.T) {
	result := ValidateLoan(validRecord())
	if !result.IsValid {
		t.Fatalf("record should be valid, errors: %v", result.Errors)
	}
	if len(result.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", result.Warnings)
	}
}

func TestValidateLoanErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*LoanRecord)
	}{
		{"missing external id", func(r *LoanRecord) { r.ExternalID = "" }},
		{"missing loan number", func(r *LoanRecord) { r.LoanNumber = "" }},
		{"zero loan amount", func(r *LoanRecord) { r.LoanAmount = decimal.Zero }},
		{"negative loan amount", func(r *LoanRecord) { r.LoanAmount = decimal.NewFromInt(-100) }},
		{"no usable dates", func(r *LoanRecord) {
			r.ContractDate = dates.CivilDate{}
			r.FirstPaymentDate = dates.CivilDate{}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := validRecord()
			tt.mutate(rec)
			result := ValidateLoan(rec)
			if result.IsValid {
				t.Error("record should be invalid")
			}
			if len(result.Errors) == 0 {
				t.Error("expected at least one error")
			}
		})
	}
}

func TestValidateLoanWarnings(t *testing.T) {
	rec := validRecord()
	rec.Client.Industry = "Unknown"
	rec.Lead.CreditScore = 0
	rec.Schedule = nil

	result := ValidateLoan(rec)
	if !result.IsValid {
		t.Fatalf("warnings must not invalidate the record, errors: %v", result.Errors)
	}
	if len(result.Warnings) < 3 {
		t.Errorf("warnings = %v, want industry, credit score, and schedule flagged", result.Warnings)
	}
}

func TestValidateLoanOverCollectedWarning(t *testing.T) {
	rec := validRecord()
	rec.Collection = &CollectionMetrics{
		TotalReceived: decimal.NewFromInt(60000),
	}

	result := ValidateLoan(rec)
	if !result.IsValid {
		t.Fatal("over-collection is a warning, not an error")
	}
	if len(result.Warnings) == 0 {
		t.Error("collected above loan amount should warn")
	}
}

func TestSummarizeValidation(t *testing.T) {
	bad := validRecord()
	bad.ExternalID = ""
	warned := validRecord()
	warned.Lead.CreditScore = 0

	summary := SummarizeValidation([]*LoanRecord{validRecord(), bad, warned})

	if summary.TotalRecords != 3 {
		t.Errorf("total = %d, want 3", summary.TotalRecords)
	}
	if summary.ValidRecords != 2 {
		t.Errorf("valid = %d, want 2", summary.ValidRecords)
	}
	if summary.RecordsWithErrors != 1 {
		t.Errorf("with errors = %d, want 1", summary.RecordsWithErrors)
	}
	if summary.RecordsWithWarnings != 1 {
		t.Errorf("with warnings = %d, want 1", summary.RecordsWithWarnings)
	}
	if len(summary.Details) != 2 {
		t.Errorf("details = %d, want 2 (clean records omitted)", len(summary.Details))
	}
}
