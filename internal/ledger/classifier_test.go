package ledger

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

func txn(d int, typeName string, debit, credit float64) models.LedgerTransaction {
	return models.LedgerTransaction{
		Date:     day(d),
		TypeName: typeName,
		Debit:    decimal.NewFromFloat(debit),
		Credit:   decimal.NewFromFloat(credit),
	}
}

func newTestClassifier(t *testing.T) *Classifier {
	t.Helper()
	c, err := NewClassifier(nil, nil)
	if err != nil {
		t.Fatalf("NewClassifier: %v", err)
	}
	return c
}

func TestClassifyCategories(t *testing.T) {
	tests := []struct {
		name     string
		typeName string
		debit    float64
		credit   float64
		want     models.TransactionCategory
	}{
		{"plain payment", "ACH Payment", 0, 500, models.CategoryPayment},
		{"origination fee", "Origination Fee", 50, 0, models.CategoryFee},
		{"nsf reversal", "NSF Return", 500, 0, models.CategoryReversal},
		{"settlement", "Settlement Agreement", 0, 0, models.CategorySettlement},
		{"capital payout", "Capital Payout", 10000, 0, models.CategoryCapital},
		{"unlabeled credit", "Deposit", 0, 250, models.CategoryPayment},
		{"unlabeled debit", "Withdrawal", 75, 0, models.CategoryDebit},
		{"zero amounts no keywords", "Note", 0, 0, models.CategoryOther},
	}

	c := newTestClassifier(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transactions := []models.LedgerTransaction{txn(1, tt.typeName, tt.debit, tt.credit)}
			c.Classify(transactions)
			if got := transactions[0].Category; got != tt.want {
				t.Errorf("category = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestClassifyKeywordPriority(t *testing.T) {
	// Reversal keywords outrank fee keywords when both occur.
	c := newTestClassifier(t)
	transactions := []models.LedgerTransaction{txn(1, "Fee Reversal", 50, 0)}
	c.Classify(transactions)
	if got := transactions[0].Category; got != models.CategoryReversal {
		t.Errorf("category = %s, want reversal to win over fee", got)
	}
}

func TestClassifyNetAmount(t *testing.T) {
	c := newTestClassifier(t)
	transactions := []models.LedgerTransaction{txn(1, "Payment", 100, 500)}
	c.Classify(transactions)
	if want := decimal.NewFromInt(400); !transactions[0].NetAmount.Equal(want) {
		t.Errorf("net = %s, want %s", transactions[0].NetAmount, want)
	}
}

func TestLinkReversalNearestCandidate(t *testing.T) {
	c := newTestClassifier(t)
	transactions := []models.LedgerTransaction{
		txn(1, "Payment", 0, 500),
		txn(5, "Payment", 0, 500),
		txn(8, "NSF Reversal", 500, 0),
	}
	c.Classify(transactions)

	reversal := transactions[2]
	if reversal.ReversalOf != 1 {
		t.Errorf("reversal linked to %d, want 1 (most recent equal amount)", reversal.ReversalOf)
	}
	if !transactions[1].IsReversed {
		t.Error("voided payment should be flagged reversed")
	}
	if transactions[1].Category != models.CategoryReversed {
		t.Errorf("voided payment category = %s, want reversed", transactions[1].Category)
	}
	if transactions[0].IsReversed {
		t.Error("older payment must stay untouched")
	}
}

func TestLinkReversalExtendedWindowRequiresUnambiguity(t *testing.T) {
	c := newTestClassifier(t)

	// One candidate 20 days back: linked despite exceeding the
	// preferred window.
	single := []models.LedgerTransaction{
		txn(1, "Payment", 0, 500),
		txn(21, "Chargeback", 500, 0),
	}
	c.Classify(single)
	if single[1].ReversalOf != 0 {
		t.Errorf("single extended candidate should link, got %d", single[1].ReversalOf)
	}

	// Two equal candidates in the extended window: ambiguous, unlinked.
	ambiguous := []models.LedgerTransaction{
		txn(1, "Payment", 0, 500),
		txn(3, "Payment", 0, 500),
		txn(21, "Chargeback", 500, 0),
	}
	c.Classify(ambiguous)
	if ambiguous[2].ReversalOf != -1 {
		t.Errorf("ambiguous reversal should stay unlinked, got %d", ambiguous[2].ReversalOf)
	}
	if ambiguous[0].IsReversed || ambiguous[1].IsReversed {
		t.Error("no payment should be voided by an ambiguous reversal")
	}
}

func TestLinkReversalAmountMustMatch(t *testing.T) {
	c := newTestClassifier(t)
	transactions := []models.LedgerTransaction{
		txn(1, "Payment", 0, 600),
		txn(5, "NSF Reversal", 500, 0),
	}
	c.Classify(transactions)
	if transactions[1].ReversalOf != -1 {
		t.Errorf("mismatched amount should not link, got %d", transactions[1].ReversalOf)
	}
}

func TestHasSettlement(t *testing.T) {
	c := newTestClassifier(t)
	transactions := []models.LedgerTransaction{
		txn(1, "Payment", 0, 500),
		txn(5, "Write-Off", 0, 0),
	}
	c.Classify(transactions)
	if !HasSettlement(transactions) {
		t.Error("write-off should register as settlement")
	}

	clean := []models.LedgerTransaction{txn(1, "Payment", 0, 500)}
	c.Classify(clean)
	if HasSettlement(clean) {
		t.Error("plain payment should not register as settlement")
	}
}

func TestLoadTableDefaults(t *testing.T) {
	table := DefaultTable()
	if err := table.Validate(); err != nil {
		t.Fatalf("default table invalid: %v", err)
	}

	if category, ok := table.Lookup("Monthly SETTLEMENT payment"); !ok || category != models.CategorySettlement {
		t.Errorf("lookup = %s/%v, want settlement match", category, ok)
	}
	if _, ok := table.Lookup("regular deposit"); ok {
		t.Error("unmatched text should report no rule hit")
	}
}
