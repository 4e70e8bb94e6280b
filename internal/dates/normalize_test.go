package dates

import (
	"testing"
	"time"
)

func TestFromSerialLeapBugCompensation(t *testing.T) {
	tests := []struct {
		name   string
		serial float64
		want   CivilDate
	}{
		{
			name:   "serial below threshold is not compensated",
			serial: 59,
			want:   NewCivilDate(1900, time.February, 27),
		},
		{
			name:   "serial at threshold is not compensated",
			serial: 60,
			want:   NewCivilDate(1900, time.February, 28),
		},
		{
			name:   "serial above threshold shifts one day earlier",
			serial: 61,
			want:   NewCivilDate(1900, time.February, 28),
		},
		{
			name:   "modern serial",
			serial: 45293,
			want:   NewCivilDate(2024, time.January, 1),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FromSerial(tt.serial)
			if !ok {
				t.Fatalf("FromSerial(%v) not ok", tt.serial)
			}
			if !got.Equal(tt.want) {
				t.Errorf("FromSerial(%v) = %v, want %v", tt.serial, got, tt.want)
			}
		})
	}
}

func TestFromSerialAbsent(t *testing.T) {
	for _, serial := range []float64{0, -1, -45000} {
		if _, ok := FromSerial(serial); ok {
			t.Errorf("FromSerial(%v) should be absent", serial)
		}
	}
}

func TestParseCivil(t *testing.T) {
	tests := []struct {
		input string
		want  CivilDate
		ok    bool
	}{
		{"2024-03-15", NewCivilDate(2024, time.March, 15), true},
		{"  2024-03-15  ", NewCivilDate(2024, time.March, 15), true},
		{"2024-03-15 10:30:00", NewCivilDate(2024, time.March, 15), true},
		{"03/15/2024", NewCivilDate(2024, time.March, 15), true},
		{"Mar 15, 2024", NewCivilDate(2024, time.March, 15), true},
		{"", CivilDate{}, false},
		{"not a date", CivilDate{}, false},
	}

	for _, tt := range tests {
		got, ok := ParseCivil(tt.input)
		if ok != tt.ok {
			t.Errorf("ParseCivil(%q) ok = %v, want %v", tt.input, ok, tt.ok)
			continue
		}
		if ok && !got.Equal(tt.want) {
			t.Errorf("ParseCivil(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		value interface{}
		want  CivilDate
		ok    bool
	}{
		{"nil", nil, CivilDate{}, false},
		{"text date", "2024-06-01", NewCivilDate(2024, time.June, 1), true},
		{"serial float", float64(45293), NewCivilDate(2024, time.January, 1), true},
		{"serial int", 45293, NewCivilDate(2024, time.January, 1), true},
		{"serial in text", "45293", NewCivilDate(2024, time.January, 1), true},
		{"time value", time.Date(2024, time.May, 2, 14, 0, 0, 0, time.UTC), NewCivilDate(2024, time.May, 2), true},
		{"garbage text", "soon", CivilDate{}, false},
		{"empty text", "   ", CivilDate{}, false},
		{"bool", true, CivilDate{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Normalize(tt.value)
			if ok != tt.ok {
				t.Fatalf("Normalize(%v) ok = %v, want %v", tt.value, ok, tt.ok)
			}
			if ok && !got.Equal(tt.want) {
				t.Errorf("Normalize(%v) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestCivilDateArithmetic(t *testing.T) {
	d := NewCivilDate(2024, time.January, 31)

	if got := d.AddDays(1); !got.Equal(NewCivilDate(2024, time.February, 1)) {
		t.Errorf("AddDays(1) = %v", got)
	}
	if got := d.AddDays(29); !got.Equal(NewCivilDate(2024, time.February, 29)) {
		t.Errorf("AddDays(29) across leap day = %v", got)
	}

	later := NewCivilDate(2024, time.March, 1)
	if got := later.DaysSince(d); got != 30 {
		t.Errorf("DaysSince = %d, want 30", got)
	}
	if !d.Before(later) || later.Before(d) {
		t.Error("Before ordering is wrong")
	}
}

func TestCivilDateZero(t *testing.T) {
	var zero CivilDate
	if !zero.IsZero() {
		t.Error("zero value should be absent")
	}
	if zero.IsValid() {
		t.Error("zero value should not be valid")
	}
	if !NewCivilDate(2024, time.June, 1).IsValid() {
		t.Error("real date should be valid")
	}
	if NewCivilDate(2023, time.February, 29).IsValid() {
		t.Error("2023-02-29 should not be valid")
	}
}
