package service

import (
	"fmt"
	"strings"

	"autoparts_quotes_backend/internal/quoterequests/repository"
	"autoparts_quotes_backend/internal/shared/quotedoc"

	"github.com/google/uuid"
)

const fallbackTemplate = "Olá {supplier}! Gostaríamos de uma cotação para o veículo {brand} {model} {year}.\n\nPeças:\n{parts}\n\nResponda pelo link: {link}"

// MessageValues fills a message template.
type MessageValues struct {
	Brand    string
	Model    string
	Year     string
	Chassis  string
	Plate    string
	Parts    string
	Link     string
	Supplier string
}

// ResponseLink is the public supplier form for one request.
func ResponseLink(baseURL string, quotationID, requestID uuid.UUID) string {
	return fmt.Sprintf("%s/supplier-response/%s/%s", strings.TrimRight(baseURL, "/"), quotationID, requestID)
}

func messageValues(q repository.QuotationContext, supplierName, link string) MessageValues {
	return MessageValues{
		Brand:    q.Brand,
		Model:    q.Model,
		Year:     deref(q.Year),
		Chassis:  deref(q.Chassis),
		Plate:    deref(q.Plate),
		Parts:    partsList(q.Parts),
		Link:     link,
		Supplier: supplierName,
	}
}

// partsList renders one "- 2x DESCRIPTION (CODE)" line per part.
func partsList(parts []quotedoc.Part) string {
	lines := make([]string, 0, len(parts))
	for _, p := range parts {
		line := fmt.Sprintf("- %dx %s", p.Quantity, p.Description)
		if p.Code != "" && p.Code != "-" {
			line += " (" + p.Code + ")"
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
