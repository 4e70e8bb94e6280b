package ledger

import (
	"fmt"
	"os"
	"strings"

	"mca-ledger-engine/internal/models"

	"gopkg.in/yaml.v3"
)

// Rule is one (pattern, category) pair. Patterns are matched as
// case-insensitive substrings against a transaction's type name and
// reference, in table order, so classification is deterministic and
// independent of map iteration order.
type Rule struct {
	Pattern  string                     `yaml:"pattern" json:"pattern"`
	Category models.TransactionCategory `yaml:"category" json:"category"`
}

// Table is the ordered classification rule set.
type Table struct {
	Rules []Rule `yaml:"rules" json:"rules"`
}

// DefaultTable returns the built-in classification rules. Order encodes
// priority: reversal keywords win over fee keywords, and so on.
func DefaultTable() *Table {
	return &Table{Rules: []Rule{
		// Reversals void an earlier payment.
		{Pattern: "reversal", Category: models.CategoryReversal},
		{Pattern: "reversed", Category: models.CategoryReversal},
		{Pattern: "nsf", Category: models.CategoryReversal},
		{Pattern: "insufficient funds", Category: models.CategoryReversal},
		{Pattern: "chargeback", Category: models.CategoryReversal},
		{Pattern: "charge back", Category: models.CategoryReversal},
		{Pattern: "ach return", Category: models.CategoryReversal},
		{Pattern: "returned", Category: models.CategoryReversal},

		// Fees never count toward installments.
		{Pattern: "fee", Category: models.CategoryFee},
		{Pattern: "origination", Category: models.CategoryFee},
		{Pattern: "initiation", Category: models.CategoryFee},
		{Pattern: "legal", Category: models.CategoryFee},
		{Pattern: "stamp tax", Category: models.CategoryFee},
		{Pattern: "stamp duty", Category: models.CategoryFee},

		// Settlement / restructure markers.
		{Pattern: "settlement", Category: models.CategorySettlement},
		{Pattern: "settled", Category: models.CategorySettlement},
		{Pattern: "write-off", Category: models.CategorySettlement},
		{Pattern: "write off", Category: models.CategorySettlement},
		{Pattern: "writeoff", Category: models.CategorySettlement},
		{Pattern: "discount", Category: models.CategorySettlement},
		{Pattern: "restructure", Category: models.CategorySettlement},
		{Pattern: "restructuring", Category: models.CategorySettlement},

		// Capital disbursements.
		{Pattern: "payout", Category: models.CategoryCapital},
		{Pattern: "disbursement", Category: models.CategoryCapital},
		{Pattern: "capital", Category: models.CategoryCapital},
		{Pattern: "loan advance", Category: models.CategoryCapital},
	}}
}

// Validate checks the table for empty patterns and unknown categories.
func (t *Table) Validate() error {
	if len(t.Rules) == 0 {
		return fmt.Errorf("classification table has no rules")
	}
	valid := map[models.TransactionCategory]bool{
		models.CategoryReversal:   true,
		models.CategoryFee:        true,
		models.CategorySettlement: true,
		models.CategoryCapital:    true,
		models.CategoryPayment:    true,
		models.CategoryDebit:      true,
		models.CategoryOther:      true,
	}
	for i, rule := range t.Rules {
		if strings.TrimSpace(rule.Pattern) == "" {
			return fmt.Errorf("rule %d has an empty pattern", i)
		}
		if !valid[rule.Category] {
			return fmt.Errorf("rule %d has unknown category %q", i, rule.Category)
		}
	}
	return nil
}

// Lookup returns the category of the first rule whose pattern occurs in
// the given text, and whether any rule matched.
func (t *Table) Lookup(text string) (models.TransactionCategory, bool) {
	lower := strings.ToLower(text)
	for _, rule := range t.Rules {
		if strings.Contains(lower, strings.ToLower(rule.Pattern)) {
			return rule.Category, true
		}
	}
	return models.CategoryOther, false
}

// tablesFile is the on-disk shape of a table override file. It can
// carry overrides for both injectable tables; absent sections keep the
// built-in defaults.
type tablesFile struct {
	Ledger *Table `yaml:"ledger"`
}

// LoadTable reads a ledger classification table override from a YAML
// file, falling back to the defaults when the file has no ledger
// section.
func LoadTable(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading table file: %w", err)
	}

	var file tablesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing table file %s: %w", path, err)
	}

	if file.Ledger == nil {
		return DefaultTable(), nil
	}
	if err := file.Ledger.Validate(); err != nil {
		return nil, fmt.Errorf("invalid ledger table in %s: %w", path, err)
	}
	return file.Ledger, nil
}
