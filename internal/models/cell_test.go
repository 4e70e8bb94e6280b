package models

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseCell(t *testing.T) {
	tests := []struct {
		input string
		kind  CellKind
	}{
		{"", CellEmpty},
		{"   ", CellEmpty},
		{"hello", CellText},
		{"42.5", CellNumber},
		{"1,250.00", CellNumber},
		{"TRUE", CellBool},
		{"false", CellBool},
		{"2024-01-05", CellText},
	}
	for _, tt := range tests {
		if got := ParseCell(tt.input); got.Kind != tt.kind {
			t.Errorf("ParseCell(%q).Kind = %v, want %v", tt.input, got.Kind, tt.kind)
		}
	}
}

func TestCellIsAbsent(t *testing.T) {
	tests := []struct {
		name string
		cell CellValue
		want bool
	}{
		{"empty", EmptyCell(), true},
		{"bool false", BoolCell(false), true},
		{"bool true", BoolCell(true), false},
		{"FALSE text", CellValue{Kind: CellText, Text: "FALSE"}, true},
		{"false text", CellValue{Kind: CellText, Text: "false"}, true},
		{"real text", TextCell("Retail"), false},
		{"zero number", NumberCell(0), false},
	}
	for _, tt := range tests {
		if got := tt.cell.IsAbsent(); got != tt.want {
			t.Errorf("%s: IsAbsent = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestCellDecimalStripsCurrencyFormatting(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"$1,250.50", "1250.5"},
		{"1250.50", "1250.5"},
		{"$0.99", "0.99"},
	}
	for _, tt := range tests {
		d, ok := TextCell(tt.input).Decimal()
		if !ok {
			t.Errorf("Decimal(%q) not ok", tt.input)
			continue
		}
		want, _ := decimal.NewFromString(tt.want)
		if !d.Equal(want) {
			t.Errorf("Decimal(%q) = %s, want %s", tt.input, d, want)
		}
	}

	if _, ok := TextCell("abc").Decimal(); ok {
		t.Error("non-numeric text should not produce a decimal")
	}
}

func TestRawRowCellOutOfRange(t *testing.T) {
	row := RawRow{TextCell("a")}
	if got := row.Cell(5); got.Kind != CellEmpty {
		t.Errorf("out-of-range cell kind = %v, want empty", got.Kind)
	}
	if got := row.Cell(-1); got.Kind != CellEmpty {
		t.Errorf("negative index cell kind = %v, want empty", got.Kind)
	}
}

func TestRawRowIsBlank(t *testing.T) {
	if !(RawRow{EmptyCell(), EmptyCell()}).IsBlank() {
		t.Error("all-empty row should be blank")
	}
	if (RawRow{EmptyCell(), TextCell("x")}).IsBlank() {
		t.Error("row with content should not be blank")
	}
}

func TestColumnMapValidate(t *testing.T) {
	cm := DefaultColumnMap()
	if err := cm.Validate(); err != nil {
		t.Fatalf("default column map invalid: %v", err)
	}

	broken := DefaultColumnMap()
	broken.LoanAmount = -1
	if err := broken.Validate(); err == nil {
		t.Error("unmapped required column should fail validation")
	}
}

func TestColumnMapValidateHeader(t *testing.T) {
	cm := DefaultColumnMap()

	wide := make(RawRow, cm.MaxIndex()+1)
	if err := cm.ValidateHeader(wide); err != nil {
		t.Errorf("wide header rejected: %v", err)
	}

	if err := cm.ValidateHeader(RawRow{}); err == nil {
		t.Error("empty header should fail")
	}
	if err := cm.ValidateHeader(make(RawRow, 2)); err == nil {
		t.Error("narrow header should fail")
	}
}
