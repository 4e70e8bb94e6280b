package models

import "fmt"

// ColumnMap is the fixed, versioned column-index layout of a ledger
// export. Index -1 marks a column the export version does not carry.
//
// The map is the input contract with the upstream spreadsheet ingestion:
// the engine fails fast when a required column is missing instead of
// silently producing empty results.
type ColumnMap struct {
	Version int

	// Identity (required)
	ExternalID int
	LoanNumber int
	ClientID   int

	// Loan economics
	LoanAmount        int
	ContractBalance   int
	RemainingAmount   int
	InstallmentAmount int
	PaymentFrequency  int
	LoanTerm          int

	// Key dates
	PayoutDate       int
	FirstPaymentDate int
	EndDate          int

	// Borrower profile
	Industry     int
	Subsector    int
	Location     int
	FoundingDate int

	// Lead / banking behavior
	CreditScore         int
	AvgMonthlyRevenue   int
	AvgMonthlyDebt      int
	AvgDailyBalance     int
	NSFCount            int
	NegativeBalanceDays int
	AssignedStaff       int

	// Flags
	Restructured int

	// Schedule entry carried by this row (header or continuation)
	ScheduleDate   int
	ScheduleAmount int

	// Ledger entry carried by this row (header or continuation)
	TxnDate      int
	TxnReference int
	TxnType      int
	TxnDebit     int
	TxnCredit    int
	TxnBalance   int
}

// DefaultColumnMap returns the v2 export layout used by current ledger
// exports.
func DefaultColumnMap() *ColumnMap {
	return &ColumnMap{
		Version:             2,
		ExternalID:          0,
		LoanNumber:          1,
		ClientID:            2,
		LoanAmount:          3,
		ContractBalance:     4,
		RemainingAmount:     5,
		InstallmentAmount:   6,
		PaymentFrequency:    7,
		LoanTerm:            8,
		PayoutDate:          9,
		FirstPaymentDate:    10,
		EndDate:             11,
		Industry:            12,
		Subsector:           13,
		Location:            14,
		FoundingDate:        15,
		CreditScore:         16,
		AvgMonthlyRevenue:   17,
		AvgMonthlyDebt:      18,
		AvgDailyBalance:     19,
		NSFCount:            20,
		NegativeBalanceDays: 21,
		AssignedStaff:       22,
		Restructured:        23,
		ScheduleDate:        24,
		ScheduleAmount:      25,
		TxnDate:             26,
		TxnReference:        27,
		TxnType:             28,
		TxnDebit:            29,
		TxnCredit:           30,
		TxnBalance:          31,
	}
}

// requiredColumns lists the columns without which a batch cannot be
// processed at all.
func (cm *ColumnMap) requiredColumns() map[string]int {
	return map[string]int{
		"external_id": cm.ExternalID,
		"loan_number": cm.LoanNumber,
		"loan_amount": cm.LoanAmount,
		"client_id":   cm.ClientID,
	}
}

// Validate checks that all required columns are mapped.
func (cm *ColumnMap) Validate() error {
	for name, idx := range cm.requiredColumns() {
		if idx < 0 {
			return fmt.Errorf("required column %q is not mapped in column map version %d", name, cm.Version)
		}
	}
	return nil
}

// ValidateHeader checks that a header row is wide enough to address all
// required columns.
func (cm *ColumnMap) ValidateHeader(header RawRow) error {
	if len(header) == 0 {
		return fmt.Errorf("header row is empty")
	}
	for name, idx := range cm.requiredColumns() {
		if idx >= len(header) {
			return fmt.Errorf("required column %q (index %d) is beyond the header width %d", name, idx, len(header))
		}
	}
	return nil
}

// MaxIndex returns the highest mapped column index.
func (cm *ColumnMap) MaxIndex() int {
	indices := []int{
		cm.ExternalID, cm.LoanNumber, cm.ClientID,
		cm.LoanAmount, cm.ContractBalance, cm.RemainingAmount,
		cm.InstallmentAmount, cm.PaymentFrequency, cm.LoanTerm,
		cm.PayoutDate, cm.FirstPaymentDate, cm.EndDate,
		cm.Industry, cm.Subsector, cm.Location, cm.FoundingDate,
		cm.CreditScore, cm.AvgMonthlyRevenue, cm.AvgMonthlyDebt,
		cm.AvgDailyBalance, cm.NSFCount, cm.NegativeBalanceDays,
		cm.AssignedStaff, cm.Restructured,
		cm.ScheduleDate, cm.ScheduleAmount,
		cm.TxnDate, cm.TxnReference, cm.TxnType,
		cm.TxnDebit, cm.TxnCredit, cm.TxnBalance,
	}
	max := -1
	for _, idx := range indices {
		if idx > max {
			max = idx
		}
	}
	return max
}
