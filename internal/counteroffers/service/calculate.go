package service

import (
	"fmt"

	"autoparts_quotes_backend/internal/counteroffers/repository"
	"autoparts_quotes_backend/internal/shared/quotedoc"
	"autoparts_quotes_backend/platform/apperr"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Discount is the whole-number percentage taken off original by counter.
// A zero original has no discount.
func Discount(original, counter decimal.Decimal) decimal.Decimal {
	if !original.IsPositive() {
		return decimal.Zero
	}
	return original.Sub(counter).Div(original).Mul(hundred).Round(0)
}

// PriceForDiscount applies a percentage discount and rounds to cents.
func PriceForDiscount(original, discount decimal.Decimal) decimal.Decimal {
	return original.Mul(decimal.NewFromInt(1).Sub(discount.Div(hundred))).Round(2)
}

// NormalizeLine fills a line's counter price, discount and totals from
// whichever of counter or discount was edited. Discount wins when both are
// set. The discount is always recomputed from the final price.
func NormalizeLine(l repository.Line, counter, discount *decimal.Decimal) (repository.Line, error) {
	l.OriginalPrice = l.OriginalPrice.Round(2)
	if !l.Available {
		l.OriginalTotal = decimal.Zero
		l.CounterPrice = decimal.Zero
		l.CounterTotal = decimal.Zero
		l.DiscountPercentage = decimal.Zero
		return l, nil
	}

	switch {
	case discount != nil:
		if discount.IsNegative() || discount.GreaterThan(hundred) {
			return l, apperr.Validation(fmt.Sprintf("part %d: discount must be between 0 and 100", l.PartIndex+1))
		}
		l.CounterPrice = PriceForDiscount(l.OriginalPrice, *discount)
	case counter != nil:
		if counter.IsNegative() {
			return l, apperr.Validation(fmt.Sprintf("part %d: counter price cannot be negative", l.PartIndex+1))
		}
		l.CounterPrice = counter.Round(2)
	default:
		l.CounterPrice = l.OriginalPrice
	}

	l.DiscountPercentage = Discount(l.OriginalPrice, l.CounterPrice)
	l.OriginalTotal = quotedoc.LineTotal(l.OriginalPrice, l.Quantity)
	l.CounterTotal = quotedoc.LineTotal(l.CounterPrice, l.Quantity)
	return l, nil
}

// Totals sums original and counter totals over available lines.
func Totals(lines []repository.Line) (original, counter decimal.Decimal) {
	original, counter = decimal.Zero, decimal.Zero
	for _, l := range lines {
		if !l.Available {
			continue
		}
		original = original.Add(l.OriginalTotal)
		counter = counter.Add(l.CounterTotal)
	}
	return original, counter
}

// AcceptedTotal sums counter totals over accepted, available lines.
func AcceptedTotal(lines []repository.Line) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		if l.Available && l.Accepted != nil && *l.Accepted {
			total = total.Add(l.CounterTotal)
		}
	}
	return total
}

// MergeAccepted writes accepted counter prices into a copy of the supplier's
// response and recomputes its total. Rejected and unchanged lines are left
// as they were.
func MergeAccepted(resp quotedoc.Response, lines []repository.Line) quotedoc.Response {
	merged := resp
	merged.Parts = append([]quotedoc.ResponsePart(nil), resp.Parts...)
	for _, l := range lines {
		if !l.Available || l.Accepted == nil || !*l.Accepted {
			continue
		}
		// unchanged lines leave the stored price alone
		if l.CounterPrice.Equal(l.OriginalPrice) {
			continue
		}
		p, ok := merged.PartAt(l.PartIndex)
		if !ok || !p.Available {
			continue
		}
		p.UnitPrice = l.CounterPrice
		p.TotalPrice = l.CounterTotal
		p.Negotiated = true
	}
	merged.Recalculate()
	return merged
}
