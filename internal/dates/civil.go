// Package dates provides timezone-free calendar date handling for ledger data.
//
// Ledger exports mix several date encodings: spreadsheet serial day-counts,
// ISO text dates, and assorted regional text formats. This package normalizes
// all of them into a CivilDate, a plain (year, month, day) value with no
// location attached, so that date arithmetic can never be shifted by a
// local-time conversion.
//
// Example usage:
//
//	d, ok := dates.Normalize(cellValue)
//	if !ok {
//		// unparseable; treat the date as absent
//	}
//	late := d.DaysSince(dueDate)
package dates

import (
	"encoding/json"
	"fmt"
	"time"
)

// CivilDate is a calendar date without time-of-day or timezone.
// The zero value is treated as "absent".
type CivilDate struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
	Day   int        `json:"day"`
}

// NewCivilDate creates a CivilDate from calendar components.
func NewCivilDate(year int, month time.Month, day int) CivilDate {
	return CivilDate{Year: year, Month: month, Day: day}
}

// CivilDateOf extracts the calendar components of t in t's own location.
func CivilDateOf(t time.Time) CivilDate {
	y, m, d := t.Date()
	return CivilDate{Year: y, Month: m, Day: d}
}

// IsZero reports whether the date is absent.
func (d CivilDate) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

// IsValid reports whether the date is a real calendar date.
func (d CivilDate) IsValid() bool {
	if d.IsZero() {
		return false
	}
	t := time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
	y, m, day := t.Date()
	return y == d.Year && m == d.Month && day == d.Day
}

// toTime converts to a UTC midnight instant for arithmetic only.
// The instant never leaves this package.
func (d CivilDate) toTime() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// Before reports whether d is before other.
func (d CivilDate) Before(other CivilDate) bool {
	if d.Year != other.Year {
		return d.Year < other.Year
	}
	if d.Month != other.Month {
		return d.Month < other.Month
	}
	return d.Day < other.Day
}

// After reports whether d is after other.
func (d CivilDate) After(other CivilDate) bool {
	return other.Before(d)
}

// Equal reports whether two dates are the same calendar day.
func (d CivilDate) Equal(other CivilDate) bool {
	return d.Year == other.Year && d.Month == other.Month && d.Day == other.Day
}

// AddDays returns the date n calendar days after d (n may be negative).
func (d CivilDate) AddDays(n int) CivilDate {
	return CivilDateOf(d.toTime().AddDate(0, 0, n))
}

// DaysSince returns the number of calendar days from other to d.
// Positive when d is after other.
func (d CivilDate) DaysSince(other CivilDate) int {
	return int(d.toTime().Sub(other.toTime()).Hours() / 24)
}

// MonthsSince returns the number of whole months from other to d,
// computed on calendar components only.
func (d CivilDate) MonthsSince(other CivilDate) int {
	months := (d.Year-other.Year)*12 + int(d.Month) - int(other.Month)
	if d.Day < other.Day {
		months--
	}
	return months
}

// YearsSince returns the fractional number of years from other to d.
func (d CivilDate) YearsSince(other CivilDate) float64 {
	return float64(d.DaysSince(other)) / 365.25
}

// Quarter returns a cohort key of the form "2024-Q1".
func (d CivilDate) Quarter() string {
	q := (int(d.Month)-1)/3 + 1
	return fmt.Sprintf("%d-Q%d", d.Year, q)
}

// String formats the date as YYYY-MM-DD, or "" when absent.
func (d CivilDate) String() string {
	if d.IsZero() {
		return ""
	}
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// MarshalJSON encodes the date as a YYYY-MM-DD string (null when absent).
func (d CivilDate) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

// UnmarshalJSON decodes a YYYY-MM-DD string or null.
func (d *CivilDate) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*d = CivilDate{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*d = CivilDate{}
		return nil
	}
	parsed, ok := ParseCivil(s)
	if !ok {
		return fmt.Errorf("invalid civil date %q", s)
	}
	*d = parsed
	return nil
}

// MinDate returns the earlier of two dates, ignoring absent values.
func MinDate(a, b CivilDate) CivilDate {
	if a.IsZero() {
		return b
	}
	if b.IsZero() {
		return a
	}
	if b.Before(a) {
		return b
	}
	return a
}

// MaxDate returns the later of two dates, ignoring absent values.
func MaxDate(a, b CivilDate) CivilDate {
	if a.IsZero() {
		return b
	}
	if b.IsZero() {
		return a
	}
	if b.After(a) {
		return b
	}
	return a
}
