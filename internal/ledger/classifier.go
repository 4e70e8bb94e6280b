// Package ledger categorizes bank-ledger transactions and links
// reversal transactions back to the payments they void.
//
// Categories are assigned by matching the transaction's type name and
// reference against an ordered keyword table; unmatched transactions
// fall back to payment (positive credit), debit (positive debit), or
// other. The table is immutable configuration injected at construction,
// so the classifier is reentrant and test-injectable with alternate
// tables.
package ledger

import (
	"fmt"
	"strings"

	"mca-ledger-engine/internal/models"
	"mca-ledger-engine/pkg/logger"
)

// Config configures reversal linking behavior.
type Config struct {
	// PreferredReversalWindowDays is the lookback within which an
	// equal-amount candidate is linked by proximity alone.
	PreferredReversalWindowDays int `json:"preferred_reversal_window_days"`

	// MaxReversalWindowDays is the extended lookback, used only when a
	// single unambiguous equal-amount candidate exists.
	MaxReversalWindowDays int `json:"max_reversal_window_days"`
}

// DefaultConfig returns the standard reversal-linking windows.
func DefaultConfig() *Config {
	return &Config{
		PreferredReversalWindowDays: 10,
		MaxReversalWindowDays:       30,
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.PreferredReversalWindowDays <= 0 {
		return fmt.Errorf("preferred reversal window must be positive: %d", c.PreferredReversalWindowDays)
	}
	if c.MaxReversalWindowDays < c.PreferredReversalWindowDays {
		return fmt.Errorf("max reversal window %d is smaller than preferred window %d",
			c.MaxReversalWindowDays, c.PreferredReversalWindowDays)
	}
	return nil
}

// Classifier assigns categories and reversal links to a loan's
// transactions.
type Classifier struct {
	table  *Table
	config *Config
	logger logger.Logger
}

// NewClassifier creates a classifier with the given table and config;
// nil arguments select the built-in defaults.
func NewClassifier(table *Table, config *Config) (*Classifier, error) {
	if table == nil {
		table = DefaultTable()
	}
	if config == nil {
		config = DefaultConfig()
	}
	if err := table.Validate(); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Classifier{
		table:  table,
		config: config,
		logger: logger.GetGlobalLogger().WithComponent("ledger_classifier"),
	}, nil
}

// Classify assigns a category, reversal flags, and net amount to every
// transaction in the slice, in place. Transactions must already be in
// chronological order; reversal linking scans backward through earlier
// entries.
func (c *Classifier) Classify(transactions []models.LedgerTransaction) {
	for i := range transactions {
		txn := &transactions[i]
		txn.NetAmount = txn.Credit.Sub(txn.Debit)
		if txn.ReversalOf == 0 {
			txn.ReversalOf = -1
		}
		txn.Category = c.categorize(txn)
		txn.IsReversal = txn.Category == models.CategoryReversal
	}

	c.linkReversals(transactions)
}

// categorize resolves the category of one transaction.
func (c *Classifier) categorize(txn *models.LedgerTransaction) models.TransactionCategory {
	text := strings.TrimSpace(txn.TypeName + " " + txn.Reference)
	if category, ok := c.table.Lookup(text); ok {
		return category
	}
	if txn.Credit.IsPositive() {
		return models.CategoryPayment
	}
	if txn.Debit.IsPositive() {
		return models.CategoryDebit
	}
	return models.CategoryOther
}

// linkReversals connects each reversal to the payment it voids: the
// most recent earlier transaction whose credit equals the reversal's
// debit, within the preferred window; within the extended window only
// when the candidate is unambiguous. Proximity, not amount alone,
// resolves ties. A transaction can be the origin of at most one link.
func (c *Classifier) linkReversals(transactions []models.LedgerTransaction) {
	for i := range transactions {
		reversal := &transactions[i]
		if !reversal.IsReversal || !reversal.Debit.IsPositive() {
			continue
		}

		var preferred, extended []int
		for j := i - 1; j >= 0; j-- {
			candidate := &transactions[j]
			if candidate.IsReversed || candidate.IsReversal {
				continue
			}
			if !candidate.Credit.Equal(reversal.Debit) {
				continue
			}
			age := reversal.Date.DaysSince(candidate.Date)
			if age < 0 || age > c.config.MaxReversalWindowDays {
				continue
			}
			if age <= c.config.PreferredReversalWindowDays {
				preferred = append(preferred, j)
			} else {
				extended = append(extended, j)
			}
		}

		target := -1
		switch {
		case len(preferred) > 0:
			// Backward scan puts the most recent candidate first.
			target = preferred[0]
		case len(extended) == 1:
			target = extended[0]
		case len(extended) > 1:
			c.logger.WithFields(logger.Fields{
				"reversal_date": reversal.Date.String(),
				"amount":        reversal.Debit.String(),
				"candidates":    len(extended),
			}).Warn("ambiguous reversal left unlinked")
		}

		if target >= 0 {
			reversal.ReversalOf = target
			transactions[target].IsReversed = true
			transactions[target].Category = models.CategoryReversed
		}
	}
}

// HasSettlement reports whether any transaction is classified as a
// settlement or restructure marker.
func HasSettlement(transactions []models.LedgerTransaction) bool {
	for i := range transactions {
		if transactions[i].Category == models.CategorySettlement {
			return true
		}
	}
	return false
}
