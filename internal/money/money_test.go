package money

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestRoundToCents(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2.345", "2.35"},
		{"2.344", "2.34"},
		{"2.225", "2.23"}, // banker's rounding would give 2.22
		{"0.125", "0.13"},
		{"-2.345", "-2.35"},
		{"10", "10"},
		{"89.5", "89.5"},
		{"0.005", "0.01"},
		{"0.0049", "0"},
	}
	for _, tt := range tests {
		got := RoundToCents(MustParse(tt.in))
		if !got.Equal(MustParse(tt.want)) {
			t.Errorf("RoundToCents(%s) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestRoundToCentsIdempotent(t *testing.T) {
	inputs := []string{"0", "1.005", "3.14159", "-7.775", "99999999.995", "0.1", "123.456789"}
	for _, in := range inputs {
		once := RoundToCents(MustParse(in))
		twice := RoundToCents(once)
		if !once.Equal(twice) {
			t.Errorf("RoundToCents not idempotent for %s: %s then %s", in, once, twice)
		}
	}
}

func TestFormatCents(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"10", "10.00"},
		{"10.5", "10.50"},
		{"-3", "-3.00"},
		{"2.345", "2.35"},
		{"0", "0.00"},
	}
	for _, tt := range tests {
		if got := FormatCents(MustParse(tt.in)); got != tt.want {
			t.Errorf("FormatCents(%s) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestAddSubtractRoundTrip(t *testing.T) {
	values := []string{"0", "0.01", "0.1", "0.2", "1.99", "10.50", "-3.07", "100000.99", "-0.01"}
	for _, a := range values {
		for _, b := range values {
			da, db := MustParse(a), MustParse(b)
			got := RoundToCents(Subtract(Add(da, db), db))
			if !got.Equal(da) {
				t.Errorf("subtract(add(%s, %s), %s) = %s", a, b, b, got)
			}
		}
	}
}

func TestFloatInputIsExact(t *testing.T) {
	a, err := From(0.1)
	if err != nil {
		t.Fatalf("From(0.1): %v", err)
	}
	b, err := From(0.2)
	if err != nil {
		t.Fatalf("From(0.2): %v", err)
	}
	if got := Add(a, b); !got.Equal(MustParse("0.3")) {
		t.Errorf("0.1 + 0.2 = %s, want 0.3", got)
	}
	if got := Multiply(MustParse("19.99"), decimal.NewFromInt(3)); !got.Equal(MustParse("59.97")) {
		t.Errorf("19.99 * 3 = %s, want 59.97", got)
	}
}

func TestFrom(t *testing.T) {
	tests := []struct {
		name    string
		in      any
		want    string
		wantErr bool
	}{
		{name: "nil is zero", in: nil, want: "0"},
		{name: "empty string is zero", in: "", want: "0"},
		{name: "string", in: " 12.30 ", want: "12.3"},
		{name: "int", in: 42, want: "42"},
		{name: "int64", in: int64(-7), want: "-7"},
		{name: "float", in: 10.5, want: "10.5"},
		{name: "json number", in: json.Number("3.00"), want: "3"},
		{name: "decimal", in: MustParse("1.25"), want: "1.25"},
		{name: "garbage", in: "abc", wantErr: true},
		{name: "unsupported", in: true, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := From(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidNumber) {
					t.Fatalf("From(%v) error = %v, want ErrInvalidNumber", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("From(%v): %v", tt.in, err)
			}
			if !got.Equal(MustParse(tt.want)) {
				t.Errorf("From(%v) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestSumAndIsCents(t *testing.T) {
	got := Sum(MustParse("0.1"), MustParse("0.2"), MustParse("-0.05"))
	if !got.Equal(MustParse("0.25")) {
		t.Errorf("Sum = %s, want 0.25", got)
	}
	if Sum().IsZero() == false {
		t.Error("empty Sum should be zero")
	}
	if !IsCents(MustParse("12.34")) || IsCents(MustParse("12.345")) {
		t.Error("IsCents misclassified")
	}
}
