// Package matcher reconciles a loan's installment schedule against its
// classified ledger payments.
//
// The matcher is a pure function of (schedule, transactions, today,
// config): inputs are never mutated, and consumed transactions are
// tracked in an explicit claim list returned with the matches. It runs
// three passes:
//  1. Recovery detection: lump sums large enough to cover multiple
//     periods claim the earliest unmatched installments at or before
//     their date.
//  2. Direct matching: each remaining installment takes the closest
//     unused payment inside the date window whose amount is within
//     tolerance (matched/late) or inside the partial band.
//  3. Extras: leftover payments above half an installment become
//     synthetic extra entries.
//
// Example usage:
//
//	cfg := matcher.DefaultConfig()
//	result := matcher.Match(rec.Schedule, rec.Transactions, rec.InstallmentAmount, today, cfg)
package matcher

import (
	"fmt"
)

// Config holds the matching tolerances and multipliers. Different
// profiles suit different data quality: strict for clean exports,
// relaxed for exploratory runs over messy ones.
type Config struct {
	// WindowDays is the day window around an installment date within
	// which a payment can match directly.
	WindowDays int `json:"window_days"`

	// AmountTolerancePercent is the band around the installment amount
	// treated as a full payment (matched / late_matched).
	AmountTolerancePercent float64 `json:"amount_tolerance_percent"`

	// PartialMinPercent and PartialMaxPercent bound the band treated as
	// a partial payment.
	PartialMinPercent float64 `json:"partial_min_percent"`
	PartialMaxPercent float64 `json:"partial_max_percent"`

	// CatchUpMultiplier flags a payment as covering multiple periods.
	CatchUpMultiplier float64 `json:"catch_up_multiplier"`

	// RecoveryMultiplier flags the stronger recovery subtype.
	RecoveryMultiplier float64 `json:"recovery_multiplier"`

	// ExtraMinPercent is the minimum fraction of an installment an
	// unconsumed payment must reach to be reported as an extra.
	ExtraMinPercent float64 `json:"extra_min_percent"`
}

// DefaultConfig returns the standard matching profile.
func DefaultConfig() *Config {
	return &Config{
		WindowDays:             7,
		AmountTolerancePercent: 10.0,
		PartialMinPercent:      50.0,
		PartialMaxPercent:      90.0,
		CatchUpMultiplier:      1.5,
		RecoveryMultiplier:     2.0,
		ExtraMinPercent:        50.0,
	}
}

// StrictConfig returns a profile with a tight window and no partial
// band, for exports known to post payments on the due date.
func StrictConfig() *Config {
	return &Config{
		WindowDays:             2,
		AmountTolerancePercent: 1.0,
		PartialMinPercent:      80.0,
		PartialMaxPercent:      95.0,
		CatchUpMultiplier:      1.8,
		RecoveryMultiplier:     2.0,
		ExtraMinPercent:        80.0,
	}
}

// RelaxedConfig returns a profile with a wide window for messy,
// self-reported ledgers.
func RelaxedConfig() *Config {
	return &Config{
		WindowDays:             14,
		AmountTolerancePercent: 15.0,
		PartialMinPercent:      40.0,
		PartialMaxPercent:      90.0,
		CatchUpMultiplier:      1.4,
		RecoveryMultiplier:     2.0,
		ExtraMinPercent:        40.0,
	}
}

// Validate checks the configuration for internally consistent bands.
func (c *Config) Validate() error {
	if c.WindowDays < 0 {
		return fmt.Errorf("window days cannot be negative: %d", c.WindowDays)
	}
	if c.AmountTolerancePercent < 0 || c.AmountTolerancePercent > 100 {
		return fmt.Errorf("amount tolerance percent must be between 0 and 100: %f", c.AmountTolerancePercent)
	}
	if c.PartialMinPercent < 0 || c.PartialMinPercent > c.PartialMaxPercent {
		return fmt.Errorf("partial band [%f, %f] is invalid", c.PartialMinPercent, c.PartialMaxPercent)
	}
	if c.PartialMaxPercent > 100 {
		return fmt.Errorf("partial max percent cannot exceed 100: %f", c.PartialMaxPercent)
	}
	if c.CatchUpMultiplier < 1.0 {
		return fmt.Errorf("catch-up multiplier must be at least 1.0: %f", c.CatchUpMultiplier)
	}
	if c.RecoveryMultiplier < c.CatchUpMultiplier {
		return fmt.Errorf("recovery multiplier %f is below catch-up multiplier %f",
			c.RecoveryMultiplier, c.CatchUpMultiplier)
	}
	if c.ExtraMinPercent < 0 || c.ExtraMinPercent > 100 {
		return fmt.Errorf("extra minimum percent must be between 0 and 100: %f", c.ExtraMinPercent)
	}
	return nil
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	clone := *c
	return &clone
}

// String returns a human-readable description of the configuration.
func (c *Config) String() string {
	return fmt.Sprintf("MatcherConfig{Window: %dd, Tolerance: %.1f%%, Partial: %.0f-%.0f%%, CatchUp: %.1fx, Recovery: %.1fx}",
		c.WindowDays, c.AmountTolerancePercent, c.PartialMinPercent, c.PartialMaxPercent,
		c.CatchUpMultiplier, c.RecoveryMultiplier)
}
