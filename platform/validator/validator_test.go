package validator

import (
	"testing"

	"github.com/shopspring/decimal"
)

type sample struct {
	Plate string          `validate:"omitempty,plate"`
	Price decimal.Decimal `validate:"gt=0"`
	Cost  decimal.Decimal `validate:"gte=0"`
}

func TestPlateRule(t *testing.T) {
	v := New()
	for _, plate := range []string{"ABC1D23", "abc-1234", "BRA2E19"} {
		if err := v.Struct(sample{Plate: plate, Price: decimal.NewFromInt(1)}); err != nil {
			t.Fatalf("expected %q to be valid: %v", plate, err)
		}
	}
	if err := v.Struct(sample{Plate: "12ABC34", Price: decimal.NewFromInt(1)}); err == nil {
		t.Fatal("expected malformed plate to fail")
	}
}

func TestDecimalRules(t *testing.T) {
	v := New()
	if err := v.Struct(sample{Price: decimal.Zero}); err == nil {
		t.Fatal("expected zero price to fail gt=0")
	}
	if err := v.Struct(sample{Price: decimal.NewFromInt(1), Cost: decimal.NewFromInt(-1)}); err == nil {
		t.Fatal("expected negative cost to fail gte=0")
	}
}
