package models

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// CellKind identifies the representation of a raw spreadsheet cell.
type CellKind int

const (
	// CellEmpty is an absent or blank cell.
	CellEmpty CellKind = iota
	// CellText is a textual cell.
	CellText
	// CellNumber is a numeric cell (including serial day-counts).
	CellNumber
	// CellBool is a boolean cell.
	CellBool
)

// CellValue is a single raw spreadsheet cell. Ledger exports are loosely
// typed, so every cell carries its kind and downstream code resolves it
// through explicit accessors instead of ad hoc type assertions.
type CellValue struct {
	Kind   CellKind
	Text   string
	Number float64
	Bool   bool
}

// EmptyCell returns an absent cell value.
func EmptyCell() CellValue {
	return CellValue{Kind: CellEmpty}
}

// TextCell creates a textual cell value.
func TextCell(s string) CellValue {
	if strings.TrimSpace(s) == "" {
		return EmptyCell()
	}
	return CellValue{Kind: CellText, Text: s}
}

// NumberCell creates a numeric cell value.
func NumberCell(n float64) CellValue {
	return CellValue{Kind: CellNumber, Number: n}
}

// BoolCell creates a boolean cell value.
func BoolCell(b bool) CellValue {
	return CellValue{Kind: CellBool, Bool: b}
}

// ParseCell infers a cell value from raw text, the way a CSV export
// presents spreadsheet data: numbers become numeric cells, TRUE/FALSE
// become booleans, everything else stays text.
func ParseCell(raw string) CellValue {
	s := strings.TrimSpace(raw)
	if s == "" {
		return EmptyCell()
	}
	switch strings.ToUpper(s) {
	case "TRUE":
		return BoolCell(true)
	case "FALSE":
		return BoolCell(false)
	}
	if n, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64); err == nil {
		return CellValue{Kind: CellNumber, Number: n, Text: s}
	}
	return CellValue{Kind: CellText, Text: s}
}

// IsAbsent reports whether the cell should be treated as missing under
// the export's defaulting convention: empty cells, boolean false, and
// the literal strings "FALSE"/"false".
func (c CellValue) IsAbsent() bool {
	switch c.Kind {
	case CellEmpty:
		return true
	case CellBool:
		return !c.Bool
	case CellText:
		t := strings.TrimSpace(c.Text)
		return t == "" || strings.EqualFold(t, "false")
	default:
		return false
	}
}

// String returns the textual content of the cell.
func (c CellValue) String() string {
	switch c.Kind {
	case CellText:
		return strings.TrimSpace(c.Text)
	case CellNumber:
		if c.Text != "" {
			return strings.TrimSpace(c.Text)
		}
		return strconv.FormatFloat(c.Number, 'f', -1, 64)
	case CellBool:
		if c.Bool {
			return "TRUE"
		}
		return "FALSE"
	default:
		return ""
	}
}

// Float returns the numeric content of the cell, parsing text when needed.
func (c CellValue) Float() (float64, bool) {
	switch c.Kind {
	case CellNumber:
		return c.Number, true
	case CellText:
		n, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(c.Text), ",", ""), 64)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

// Decimal returns the cell content as a decimal amount. Currency symbols
// and thousand separators are stripped from textual cells.
func (c CellValue) Decimal() (decimal.Decimal, bool) {
	switch c.Kind {
	case CellNumber:
		return decimal.NewFromFloat(c.Number), true
	case CellText:
		s := strings.TrimSpace(c.Text)
		s = strings.ReplaceAll(s, "$", "")
		s = strings.ReplaceAll(s, ",", "")
		d, err := decimal.NewFromString(strings.TrimSpace(s))
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	default:
		return decimal.Zero, false
	}
}

// Int returns the cell content rounded to an integer.
func (c CellValue) Int() (int, bool) {
	f, ok := c.Float()
	if !ok {
		return 0, false
	}
	return int(f + 0.5), true
}

// Value returns the underlying dynamic value for interop with the
// temporal normalizer.
func (c CellValue) Value() interface{} {
	switch c.Kind {
	case CellText:
		return c.Text
	case CellNumber:
		return c.Number
	case CellBool:
		return c.Bool
	default:
		return nil
	}
}

// RawRow is one row of the ledger export: an ordered list of cells
// addressed by a fixed column-index map. Rows are ephemeral and are
// never stored on a LoanRecord.
type RawRow []CellValue

// Cell returns the cell at the given column index, or an empty cell
// when the row is short.
func (r RawRow) Cell(idx int) CellValue {
	if idx < 0 || idx >= len(r) {
		return EmptyCell()
	}
	return r[idx]
}

// IsBlank reports whether every cell in the row is empty.
func (r RawRow) IsBlank() bool {
	for _, c := range r {
		if c.Kind != CellEmpty {
			return false
		}
	}
	return true
}
