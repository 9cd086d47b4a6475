package money

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseBR(t *testing.T) {
	cases := map[string]string{
		"1.234,56":    "1234.56",
		"1234,56":     "1234.56",
		"1234.56":     "1234.56",
		"R$ 89,90":    "89.9",
		"1.500":       "1500",
		"2.345.678,9": "2345678.9",
		"100":         "100",
	}
	for in, want := range cases {
		got, err := ParseBR(in)
		if err != nil {
			t.Fatalf("%q: unexpected error %v", in, err)
		}
		if !got.Equal(decimal.RequireFromString(want)) {
			t.Fatalf("%q: expected %s, got %s", in, want, got)
		}
	}
	if _, err := ParseBR("abc"); err == nil {
		t.Fatal("expected error for non-numeric input")
	}
}

func TestFormatBRL(t *testing.T) {
	cases := map[string]string{
		"1234.5":  "R$ 1.234,50",
		"0":       "R$ 0,00",
		"999":     "R$ 999,00",
		"1000000": "R$ 1.000.000,00",
		"-12.3":   "-R$ 12,30",
	}
	for in, want := range cases {
		if got := FormatBRL(decimal.RequireFromString(in)); got != want {
			t.Fatalf("%s: expected %q, got %q", in, want, got)
		}
	}
}
