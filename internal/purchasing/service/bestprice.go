package service

import (
	"slices"

	"autoparts_quotes_backend/internal/purchasing/repository"
	"autoparts_quotes_backend/internal/purchasing/transport"
	"autoparts_quotes_backend/internal/shared/quotedoc"
	"autoparts_quotes_backend/platform/sanitize"

	"github.com/shopspring/decimal"
)

// partDescription names a response line by the quotation part it answers,
// falling back to what the supplier wrote.
func partDescription(parts []quotedoc.Part, rp quotedoc.ResponsePart) string {
	if rp.PartIndex >= 0 && rp.PartIndex < len(parts) {
		return parts[rp.PartIndex].Description
	}
	return rp.Description
}

// purchasedKeys reports, per description key, whether every quotation part
// carrying it has been purchased.
func purchasedKeys(parts []quotedoc.Part) map[string]bool {
	out := make(map[string]bool, len(parts))
	for _, p := range parts {
		key := sanitize.Key(p.Description)
		prev, seen := out[key]
		out[key] = p.Purchased && (!seen || prev)
	}
	return out
}

// BestPrices picks, per part description, the lowest available unit price
// across answered requests. Requests are visited in creation order and
// only a strictly lower price replaces the current pick, so ties go to the
// earliest request. Descriptions nobody offered are absent.
func BestPrices(parts []quotedoc.Part, requests []repository.RespondedRequest) []transport.BestPrice {
	best := make(map[string]*transport.BestPrice)
	order := make([]string, 0)

	for _, req := range requests {
		for _, rp := range req.Response.Parts {
			if !rp.Available {
				continue
			}
			desc := partDescription(parts, rp)
			key := sanitize.Key(desc)
			if key == "" {
				continue
			}
			cur, ok := best[key]
			if !ok {
				cur = &transport.BestPrice{Key: key}
				best[key] = cur
				order = append(order, key)
			}
			cur.OfferCount++
			if ok && !rp.UnitPrice.LessThan(cur.UnitPrice) {
				continue
			}
			qty := rp.Quantity
			if qty < 1 {
				qty = 1
			}
			cur.Description = desc
			cur.Code = rp.Code
			cur.Quantity = qty
			cur.PartIndex = rp.PartIndex
			cur.SupplierID = req.SupplierID
			cur.SupplierName = req.SupplierName
			cur.RequestID = req.ID
			cur.UnitPrice = rp.UnitPrice
			cur.TotalPrice = quotedoc.LineTotal(rp.UnitPrice, qty)
			cur.Condition = rp.Condition
			cur.Negotiated = rp.Negotiated
		}
	}

	purchased := purchasedKeys(parts)
	out := make([]transport.BestPrice, 0, len(order))
	for _, key := range order {
		bp := *best[key]
		bp.Purchased = purchased[key]
		out = append(out, bp)
	}
	slices.SortStableFunc(out, func(a, b transport.BestPrice) int {
		return a.PartIndex - b.PartIndex
	})
	return out
}

// bestPricesTotal sums the best prices of parts still to be bought.
func bestPricesTotal(items []transport.BestPrice) decimal.Decimal {
	total := decimal.Zero
	for _, bp := range items {
		if !bp.Purchased {
			total = total.Add(bp.TotalPrice)
		}
	}
	return total
}
