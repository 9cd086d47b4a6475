package service

import (
	"strconv"
	"strings"

	"autoparts_quotes_backend/internal/shared/quotedoc"
	"autoparts_quotes_backend/platform/money"
	"autoparts_quotes_backend/platform/sanitize"

	"github.com/shopspring/decimal"
)

const priceMarker = "R$"

var operationTokens = map[string]string{
	"T":             quotedoc.OperationReplace,
	"TROCA":         quotedoc.OperationReplace,
	"R":             quotedoc.OperationReplace,
	"REPLACE":       quotedoc.OperationReplace,
	"TP":            quotedoc.OperationReplacePaint,
	"T+P":           quotedoc.OperationReplacePaint,
	"T/P":           quotedoc.OperationReplacePaint,
	"TROCA+PINTURA": quotedoc.OperationReplacePaint,
	"RP":            quotedoc.OperationReplacePaint,
	"REPLACE+PAINT": quotedoc.OperationReplacePaint,
}

var conditionTokens = map[string]string{
	"GENUINA":  quotedoc.ConditionGenuine,
	"GENUÍNA":  quotedoc.ConditionGenuine,
	"GENUINO":  quotedoc.ConditionGenuine,
	"GENUÍNO":  quotedoc.ConditionGenuine,
	"ORIGINAL": quotedoc.ConditionGenuine,
	"GENUINE":  quotedoc.ConditionGenuine,
	"NOVA":     quotedoc.ConditionNew,
	"NOVO":     quotedoc.ConditionNew,
	"NEW":      quotedoc.ConditionNew,
	"USADA":    quotedoc.ConditionUsed,
	"USADO":    quotedoc.ConditionUsed,
	"USED":     quotedoc.ConditionUsed,
}

// ParseBulk reads one part per line in the form
//
//	[OP] CODE DESCRIPTION... CONDITION QTY R$ PRICE
//
// Lines that do not match are skipped and counted. expand, when non-nil, is
// applied to each description.
func ParseBulk(text string, expand func(string) string) ([]quotedoc.Part, int) {
	parts := make([]quotedoc.Part, 0)
	skipped := 0
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		p, ok := parseBulkLine(line)
		if !ok {
			skipped++
			continue
		}
		if expand != nil {
			p.Description = expand(p.Description)
		}
		parts = append(parts, p)
	}
	return parts, skipped
}

func parseBulkLine(line string) (quotedoc.Part, bool) {
	left, right, found := strings.Cut(line, priceMarker)
	if !found {
		return quotedoc.Part{}, false
	}

	priceFields := strings.Fields(right)
	if len(priceFields) == 0 {
		return quotedoc.Part{}, false
	}
	price, err := money.ParseBR(priceFields[0])
	if err != nil || price.IsNegative() {
		return quotedoc.Part{}, false
	}

	tokens := strings.Fields(sanitize.StripHTML(left))
	operation := quotedoc.OperationReplace
	if len(tokens) > 0 {
		if op, ok := operationTokens[strings.ToUpper(tokens[0])]; ok {
			operation = op
			tokens = tokens[1:]
		}
	}
	// CODE, at least one description word, CONDITION, QTY
	if len(tokens) < 4 {
		return quotedoc.Part{}, false
	}

	qty, err := strconv.Atoi(tokens[len(tokens)-1])
	if err != nil || qty < 1 {
		return quotedoc.Part{}, false
	}
	condition, ok := conditionTokens[strings.ToUpper(tokens[len(tokens)-2])]
	if !ok {
		return quotedoc.Part{}, false
	}

	return quotedoc.Part{
		Operation:     operation,
		Code:          strings.ToUpper(tokens[0]),
		Description:   strings.Join(tokens[1:len(tokens)-2], " "),
		Condition:     condition,
		Quantity:      qty,
		PaintingHours: decimal.Zero,
		LaborHours:    decimal.Zero,
		LaborCost:     decimal.Zero,
		PartCost:      price.Round(2),
	}, true
}
