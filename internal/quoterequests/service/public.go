package service

import (
	"context"
	"fmt"

	"autoparts_quotes_backend/internal/events"
	"autoparts_quotes_backend/internal/quoterequests/repository"
	"autoparts_quotes_backend/internal/quoterequests/transport"
	"autoparts_quotes_backend/internal/shared/quotedoc"
	"autoparts_quotes_backend/platform/apperr"
	"autoparts_quotes_backend/platform/sanitize"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const msgAlreadyResponded = "this quotation request has already been answered"

// GetPublicForm returns what the supplier needs to answer a request. Once
// answered, the stored response is returned read-only.
func (s *Service) GetPublicForm(ctx context.Context, quotationID, requestID uuid.UUID) (transport.PublicFormResponse, error) {
	req, err := s.repo.GetPublic(ctx, quotationID, requestID)
	if err != nil {
		return transport.PublicFormResponse{}, err
	}
	q, err := s.repo.GetQuotationPublic(ctx, quotationID)
	if err != nil {
		return transport.PublicFormResponse{}, err
	}

	parts := make([]transport.PublicPart, 0, len(q.Parts))
	for i, p := range q.Parts {
		parts = append(parts, transport.PublicPart{
			Index:       i,
			Operation:   p.Operation,
			Code:        p.Code,
			Description: p.Description,
			Condition:   p.Condition,
			Quantity:    p.Quantity,
		})
	}

	return transport.PublicFormResponse{
		RequestID:    req.ID,
		QuotationID:  q.ID,
		Status:       req.Status,
		SupplierName: req.SupplierName,
		Vehicle: transport.PublicVehicle{
			Brand:   q.Brand,
			Model:   q.Model,
			Year:    q.Year,
			Plate:   q.Plate,
			Chassis: q.Chassis,
		},
		Parts:    parts,
		ReadOnly: req.Status == repository.StatusResponded,
		Response: toSupplierResponse(req.Response),
	}, nil
}

// SubmitResponse records a supplier's prices. Unavailable parts are stored
// with zero prices; parts left out of the submission count as unavailable.
func (s *Service) SubmitResponse(ctx context.Context, quotationID, requestID uuid.UUID, in transport.SubmitResponseRequest) (transport.SupplierResponse, error) {
	req, err := s.repo.GetPublic(ctx, quotationID, requestID)
	if err != nil {
		return transport.SupplierResponse{}, err
	}
	switch req.Status {
	case repository.StatusResponded:
		return transport.SupplierResponse{}, apperr.Conflict(msgAlreadyResponded)
	case repository.StatusPending:
		return transport.SupplierResponse{}, apperr.Conflict("this quotation request has not been sent yet")
	}

	q, err := s.repo.GetQuotationPublic(ctx, quotationID)
	if err != nil {
		return transport.SupplierResponse{}, err
	}

	resp, err := BuildResponse(q.Parts, in)
	if err != nil {
		return transport.SupplierResponse{}, err
	}

	saved, err := s.repo.SaveResponse(ctx, req.ID, resp)
	if err != nil {
		return transport.SupplierResponse{}, err
	}

	if s.eventBus != nil {
		s.eventBus.Publish(ctx, events.QuotationRequestResponded{
			BaseEvent:    events.NewBaseEvent(),
			RequestID:    saved.ID,
			QuotationID:  saved.QuotationID,
			UserID:       saved.UserID,
			SupplierName: resp.SupplierName,
			TotalPrice:   resp.TotalPrice,
		})
	}
	return *toSupplierResponse(&resp), nil
}

// BuildResponse validates a submission against the quotation parts and
// computes line and overall totals.
func BuildResponse(parts []quotedoc.Part, in transport.SubmitResponseRequest) (quotedoc.Response, error) {
	name := sanitize.Text(in.SupplierName)
	phoneNumber := sanitize.Text(in.SupplierPhone)
	if name == "" || phoneNumber == "" {
		return quotedoc.Response{}, apperr.Validation("supplier name and phone are required")
	}

	answers := make(map[int]transport.ResponsePartInput, len(in.Parts))
	for _, a := range in.Parts {
		if a.PartIndex < 0 || a.PartIndex >= len(parts) {
			return quotedoc.Response{}, apperr.Validation(fmt.Sprintf("part index %d out of range", a.PartIndex))
		}
		if _, dup := answers[a.PartIndex]; dup {
			return quotedoc.Response{}, apperr.Validation(fmt.Sprintf("part index %d answered twice", a.PartIndex))
		}
		answers[a.PartIndex] = a
	}

	resp := quotedoc.Response{
		SupplierName:  name,
		SupplierPhone: phoneNumber,
		Parts:         make([]quotedoc.ResponsePart, 0, len(parts)),
		DeliveryTime:  sanitize.Text(in.DeliveryTime),
		Notes:         sanitize.MultilineText(in.Notes),
	}
	for i, p := range parts {
		line := quotedoc.ResponsePart{
			PartIndex:   i,
			Code:        p.Code,
			Description: p.Description,
			Quantity:    p.Quantity,
			UnitPrice:   decimal.Zero,
			TotalPrice:  decimal.Zero,
		}
		if a, ok := answers[i]; ok {
			line.Notes = sanitize.Text(a.Notes)
			if a.Available {
				if !a.UnitPrice.IsPositive() {
					return quotedoc.Response{}, apperr.Validation(fmt.Sprintf("part %d: unit price must be greater than zero", i+1))
				}
				if a.Condition != quotedoc.ConditionNew && a.Condition != quotedoc.ConditionUsed {
					return quotedoc.Response{}, apperr.Validation(fmt.Sprintf("part %d: condition is required", i+1))
				}
				line.Available = true
				line.Condition = a.Condition
				line.UnitPrice = a.UnitPrice.Round(2)
			}
		}
		resp.Parts = append(resp.Parts, line)
	}
	resp.Recalculate()
	return resp, nil
}
