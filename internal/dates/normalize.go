package dates

import (
	"strconv"
	"strings"
	"time"
)

// Spreadsheet serial day-counts use the 1899-12-30 epoch. Serial values
// above leapBugThreshold carry the widely replicated 1900 leap-year
// miscount (1900-02-29 does not exist) and must be decremented by one
// day before conversion.
const (
	leapBugThreshold = 60

	serialEpochYear  = 1899
	serialEpochMonth = time.December
	serialEpochDay   = 30
)

// civilTextFormats lists the text layouts accepted for ledger dates,
// tried in order. The canonical YYYY-MM-DD form is first.
var civilTextFormats = []string{
	"2006-01-02",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"01/02/2006",
	"02-01-2006",
	"2006/01/02",
	"Jan 2, 2006",
	"January 2, 2006",
	"2-Jan-2006",
}

// FromSerial converts a spreadsheet day-count into a CivilDate,
// compensating for the historical leap-year bug on values past the
// threshold. Non-positive serials are treated as absent.
func FromSerial(serial float64) (CivilDate, bool) {
	if serial <= 0 {
		return CivilDate{}, false
	}

	days := int(serial)
	if days > leapBugThreshold {
		days--
	}

	epoch := time.Date(serialEpochYear, serialEpochMonth, serialEpochDay, 0, 0, 0, 0, time.UTC)
	return CivilDateOf(epoch.AddDate(0, 0, days)), true
}

// ParseCivil parses a textual date using the accepted layouts.
// Time-of-day components in the input are discarded.
func ParseCivil(s string) (CivilDate, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return CivilDate{}, false
	}

	for _, layout := range civilTextFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return CivilDateOf(t), true
		}
	}

	return CivilDate{}, false
}

// Normalize converts a raw cell value of unknown representation into a
// CivilDate. Supported inputs: serial day-count numbers (float64 or a
// numeric string), textual dates, and time.Time values. Returns ok=false
// for anything unparseable; it never panics and never returns an error,
// so a bad date degrades to "absent" instead of failing the batch.
func Normalize(value interface{}) (CivilDate, bool) {
	switch v := value.(type) {
	case nil:
		return CivilDate{}, false
	case CivilDate:
		return v, !v.IsZero()
	case time.Time:
		if v.IsZero() {
			return CivilDate{}, false
		}
		return CivilDateOf(v), true
	case float64:
		return FromSerial(v)
	case int:
		return FromSerial(float64(v))
	case int64:
		return FromSerial(float64(v))
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return CivilDate{}, false
		}
		if d, ok := ParseCivil(s); ok {
			return d, true
		}
		// A bare number in a text cell is still a serial day-count.
		if serial, err := strconv.ParseFloat(s, 64); err == nil {
			return FromSerial(serial)
		}
		return CivilDate{}, false
	default:
		return CivilDate{}, false
	}
}
