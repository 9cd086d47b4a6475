package phone

import (
	"errors"
	"strings"
	"testing"
)

func TestNormalizeBR(t *testing.T) {
	cases := []struct {
		name   string
		area   string
		number string
		want   string
	}{
		{"area and mobile", "11", "98765-4321", "5511987654321"},
		{"area and landline", "(21)", "3456 7890", "552134567890"},
		{"number already with area", "11", "11 98765 4321", "5511987654321"},
		{"number already with country", "", "+55 11 98765-4321", "5511987654321"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := NormalizeBR(tc.area, tc.number)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestNormalizeBRRejectsShortNumbers(t *testing.T) {
	if _, err := NormalizeBR("", "98765432"); !errors.Is(err, ErrTooShort) {
		t.Fatalf("expected ErrTooShort, got %v", err)
	}
	if _, err := NormalizeBR("11", ""); !errors.Is(err, ErrTooShort) {
		t.Fatalf("expected ErrTooShort for empty number, got %v", err)
	}
}

func TestDisplayAddsCountryPrefix(t *testing.T) {
	if got := Display("5511987654321"); !strings.HasPrefix(got, "+55") {
		t.Fatalf("expected +55 prefix, got %q", got)
	}
	if got := Display(""); got != "" {
		t.Fatalf("expected empty display, got %q", got)
	}
}
