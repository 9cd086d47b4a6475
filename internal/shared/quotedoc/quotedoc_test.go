package quotedoc

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestRecalculateZeroesUnavailableLines(t *testing.T) {
	r := Response{Parts: []ResponsePart{
		{PartIndex: 0, Quantity: 2, Available: true, UnitPrice: decimal.RequireFromString("100.00")},
		{PartIndex: 1, Quantity: 1, Available: false, UnitPrice: decimal.RequireFromString("55.00"), TotalPrice: decimal.RequireFromString("55.00")},
	}}
	r.Recalculate()

	if !r.Parts[0].TotalPrice.Equal(decimal.RequireFromString("200")) {
		t.Fatalf("expected line total 200, got %s", r.Parts[0].TotalPrice)
	}
	if !r.Parts[1].UnitPrice.IsZero() || !r.Parts[1].TotalPrice.IsZero() {
		t.Fatalf("unavailable line not zeroed: %+v", r.Parts[1])
	}
	if !r.TotalPrice.Equal(decimal.RequireFromString("200")) {
		t.Fatalf("expected total 200, got %s", r.TotalPrice)
	}
}

func TestAllPurchased(t *testing.T) {
	if AllPurchased(nil) {
		t.Fatalf("empty list must not count as purchased")
	}
	if AllPurchased([]Part{{Purchased: true}, {}}) {
		t.Fatalf("partial list reported as purchased")
	}
	if !AllPurchased([]Part{{Purchased: true}, {Purchased: true}}) {
		t.Fatalf("expected all purchased")
	}
}

func TestPartAt(t *testing.T) {
	r := Response{Parts: []ResponsePart{{PartIndex: 3}, {PartIndex: 7}}}
	p, ok := r.PartAt(7)
	if !ok || p.PartIndex != 7 {
		t.Fatalf("expected part 7, got %+v %v", p, ok)
	}
	if _, ok := r.PartAt(1); ok {
		t.Fatalf("unexpected part 1")
	}
}
