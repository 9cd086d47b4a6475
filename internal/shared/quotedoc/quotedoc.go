// Package quotedoc defines the JSON documents embedded in quotation rows
// (parts list, supplier response) shared by the quotation pipeline modules.
package quotedoc

import (
	"github.com/shopspring/decimal"
)

// Operations and conditions a quotation part can carry.
const (
	OperationReplace      = "replace"
	OperationReplacePaint = "replace_paint"

	ConditionGenuine = "genuine"
	ConditionNew     = "new"
	ConditionUsed    = "used"
)

// Part is one line of a quotation. Its index in the list is its identity.
type Part struct {
	Operation     string          `json:"operation"`
	Code          string          `json:"code"`
	Description   string          `json:"description"`
	Condition     string          `json:"condition"`
	Quantity      int             `json:"quantity"`
	PaintingHours decimal.Decimal `json:"painting_hours"`
	LaborHours    decimal.Decimal `json:"labor_hours"`
	LaborCost     decimal.Decimal `json:"labor_cost"`
	PartCost      decimal.Decimal `json:"part_cost"`
	Purchased     bool            `json:"purchased"`
}

// AllPurchased reports whether every part is purchased. An empty list is not.
func AllPurchased(parts []Part) bool {
	if len(parts) == 0 {
		return false
	}
	for _, p := range parts {
		if !p.Purchased {
			return false
		}
	}
	return true
}

// Response is what a supplier submitted for a quotation request.
type Response struct {
	SupplierName  string          `json:"supplier_name"`
	SupplierPhone string          `json:"supplier_phone"`
	Parts         []ResponsePart  `json:"parts"`
	TotalPrice    decimal.Decimal `json:"total_price"`
	DeliveryTime  string          `json:"delivery_time,omitempty"`
	Notes         string          `json:"notes,omitempty"`
}

// ResponsePart is the supplier's answer for one quotation part.
type ResponsePart struct {
	PartIndex   int             `json:"part_index"`
	Code        string          `json:"code"`
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"`
	Available   bool            `json:"available"`
	Condition   string          `json:"condition,omitempty"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TotalPrice  decimal.Decimal `json:"total_price"`
	Notes       string          `json:"notes,omitempty"`
	Negotiated  bool            `json:"negotiated"`
}

// LineTotal is unit price times quantity, rounded to cents.
func LineTotal(unit decimal.Decimal, quantity int) decimal.Decimal {
	return unit.Mul(decimal.NewFromInt(int64(quantity))).Round(2)
}

// Recalculate recomputes every line total and the overall total. Unavailable
// lines are zeroed.
func (r *Response) Recalculate() {
	total := decimal.Zero
	for i := range r.Parts {
		p := &r.Parts[i]
		if !p.Available {
			p.UnitPrice = decimal.Zero
			p.TotalPrice = decimal.Zero
			continue
		}
		p.TotalPrice = LineTotal(p.UnitPrice, p.Quantity)
		total = total.Add(p.TotalPrice)
	}
	r.TotalPrice = total
}

// PartAt returns the response line for a quotation part index.
func (r *Response) PartAt(partIndex int) (*ResponsePart, bool) {
	for i := range r.Parts {
		if r.Parts[i].PartIndex == partIndex {
			return &r.Parts[i], true
		}
	}
	return nil, false
}
