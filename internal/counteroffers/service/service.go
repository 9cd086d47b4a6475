package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"autoparts_quotes_backend/internal/counteroffers/repository"
	"autoparts_quotes_backend/internal/counteroffers/transport"
	"autoparts_quotes_backend/internal/events"
	"autoparts_quotes_backend/internal/shared/quotedoc"
	"autoparts_quotes_backend/platform/apperr"
	"autoparts_quotes_backend/platform/logger"
	"autoparts_quotes_backend/platform/money"
	"autoparts_quotes_backend/platform/phone"
	"autoparts_quotes_backend/platform/sanitize"
	"autoparts_quotes_backend/platform/tenancy"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	msgAlreadyAnswered     = "this counter offer has already been answered"
	requestStatusResponded = "responded"
)

// Repository is the storage the counter offers service needs.
type Repository interface {
	GetRequest(ctx context.Context, scope tenancy.Scope, requestID uuid.UUID) (repository.RequestContext, error)
	GetRequestPublic(ctx context.Context, requestID uuid.UUID) (repository.RequestContext, error)
	Create(ctx context.Context, co repository.CounterOffer) (repository.CounterOffer, error)
	GetByID(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (repository.CounterOffer, error)
	GetPublic(ctx context.Context, id uuid.UUID) (repository.CounterOffer, error)
	ListByRequest(ctx context.Context, scope tenancy.Scope, requestID uuid.UUID) ([]repository.CounterOffer, error)
	ListByQuotation(ctx context.Context, scope tenancy.Scope, quotationID uuid.UUID) ([]repository.CounterOffer, error)
	Respond(ctx context.Context, co repository.CounterOffer, merge repository.MergeFunc) (repository.CounterOffer, error)
}

// Service provides business logic for counter-offer negotiation.
type Service struct {
	repo       Repository
	eventBus   events.Bus
	appBaseURL string
	log        *logger.Logger
}

// New creates a new counter offers service.
func New(repo Repository, eventBus events.Bus, appBaseURL string, log *logger.Logger) *Service {
	return &Service{repo: repo, eventBus: eventBus, appBaseURL: strings.TrimRight(appBaseURL, "/"), log: log}
}

// Calculate previews counter prices without storing anything.
func (s *Service) Calculate(req transport.CalculateRequest) (transport.CalculateResponse, error) {
	lines := make([]repository.Line, 0, len(req.Parts))
	for _, in := range req.Parts {
		l, err := NormalizeLine(repository.Line{
			PartIndex:     in.PartIndex,
			Description:   sanitize.Text(in.Description),
			Quantity:      in.Quantity,
			Available:     in.Available,
			OriginalPrice: in.OriginalPrice,
		}, in.CounterPrice, in.DiscountPercentage)
		if err != nil {
			return transport.CalculateResponse{}, err
		}
		lines = append(lines, l)
	}
	original, total := Totals(lines)
	return transport.CalculateResponse{Parts: toLines(lines), OriginalTotal: original, Total: total}, nil
}

// Create proposes new prices on an answered request. Originals come from
// the supplier's response; parts without a proposal keep their price.
func (s *Service) Create(ctx context.Context, scope tenancy.Scope, requestID uuid.UUID, req transport.CreateCounterOfferRequest) (transport.CreateCounterOfferResponse, error) {
	rc, err := s.repo.GetRequest(ctx, scope, requestID)
	if err != nil {
		return transport.CreateCounterOfferResponse{}, err
	}
	if rc.Status != requestStatusResponded || rc.Response == nil {
		return transport.CreateCounterOfferResponse{}, apperr.Validation("the supplier has not answered this quotation request yet")
	}

	proposals := make(map[int]transport.CounterLineInput, len(req.Parts))
	for _, p := range req.Parts {
		rp, ok := rc.Response.PartAt(p.PartIndex)
		if !ok || !rp.Available {
			return transport.CreateCounterOfferResponse{}, apperr.Validation(fmt.Sprintf("part index %d was not offered by the supplier", p.PartIndex))
		}
		proposals[p.PartIndex] = p
	}

	lines := make([]repository.Line, 0, len(rc.Response.Parts))
	for _, rp := range rc.Response.Parts {
		var counter, discount *decimal.Decimal
		if p, ok := proposals[rp.PartIndex]; ok {
			counter, discount = p.CounterPrice, p.DiscountPercentage
		}
		l, err := NormalizeLine(repository.Line{
			PartIndex:     rp.PartIndex,
			Description:   rp.Description,
			Quantity:      rp.Quantity,
			Available:     rp.Available,
			OriginalPrice: rp.UnitPrice,
		}, counter, discount)
		if err != nil {
			return transport.CreateCounterOfferResponse{}, err
		}
		lines = append(lines, l)
	}
	_, total := Totals(lines)

	supplierName := rc.SupplierName
	if supplierName == "" {
		supplierName = rc.Response.SupplierName
	}
	var notes *string
	if req.Notes != nil {
		if n := sanitize.MultilineText(*req.Notes); n != "" {
			notes = &n
		}
	}

	created, err := s.repo.Create(ctx, repository.CounterOffer{
		ID:            uuid.New(),
		UserID:        scope.UserID,
		CompanyID:     scope.CompanyID,
		RequestID:     rc.RequestID,
		SupplierID:    rc.SupplierID,
		SupplierName:  supplierName,
		SupplierPhone: rc.SupplierPhone,
		Parts:         lines,
		Total:         total,
		Notes:         notes,
	})
	if err != nil {
		return transport.CreateCounterOfferResponse{}, err
	}

	if s.eventBus != nil {
		s.eventBus.Publish(ctx, events.CounterOfferCreated{
			BaseEvent:      events.NewBaseEvent(),
			CounterOfferID: created.ID,
			RequestID:      created.RequestID,
			UserID:         scope.UserID,
			Total:          created.Total,
		})
	}

	link := s.Link(created.ID)
	message := fmt.Sprintf("Olá %s! Temos uma contraproposta para a cotação do %s %s, no total de %s. Veja e responda: %s",
		supplierName, rc.Brand, rc.Model, money.FormatBRL(created.Total), link)

	return transport.CreateCounterOfferResponse{
		CounterOffer: toResponse(created),
		Link:         link,
		WhatsAppURL:  whatsAppURL(rc, message),
		Message:      message,
	}, nil
}

// Link is the supplier-facing counter offer page.
func (s *Service) Link(id uuid.UUID) string {
	return fmt.Sprintf("%s/counter-offer/%s", s.appBaseURL, id)
}

// whatsAppURL builds a wa.me deep link; empty when no usable number exists.
func whatsAppURL(rc repository.RequestContext, message string) string {
	number, err := phone.NormalizeBR(deref(rc.SupplierAreaCode), deref(rc.SupplierPhone))
	if err != nil && rc.Response != nil {
		number, err = phone.NormalizeBR("", rc.Response.SupplierPhone)
	}
	if err != nil {
		return ""
	}
	return "https://wa.me/" + number + "?text=" + strings.ReplaceAll(url.QueryEscape(message), "+", "%20")
}

func (s *Service) Get(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (transport.CounterOfferResponse, error) {
	co, err := s.repo.GetByID(ctx, scope, id)
	if err != nil {
		return transport.CounterOfferResponse{}, err
	}
	return toResponse(co), nil
}

// GetPublic returns the counter offer for its supplier page.
func (s *Service) GetPublic(ctx context.Context, id uuid.UUID) (transport.PublicCounterOfferResponse, error) {
	co, err := s.repo.GetPublic(ctx, id)
	if err != nil {
		return transport.PublicCounterOfferResponse{}, err
	}
	rc, err := s.repo.GetRequestPublic(ctx, co.RequestID)
	if err != nil {
		return transport.PublicCounterOfferResponse{}, err
	}
	return transport.PublicCounterOfferResponse{
		CounterOfferResponse: toResponse(co),
		Vehicle:              strings.TrimSpace(rc.Brand + " " + rc.Model),
		ReadOnly:             co.Status != repository.StatusPending,
	}, nil
}

// Respond records the supplier's decisions and merges accepted prices into
// the originating request's response. A counter offer answers only once.
func (s *Service) Respond(ctx context.Context, id uuid.UUID, req transport.RespondCounterOfferRequest) (transport.CounterOfferResponse, error) {
	co, err := s.repo.GetPublic(ctx, id)
	if err != nil {
		return transport.CounterOfferResponse{}, err
	}
	if co.Status != repository.StatusPending {
		return transport.CounterOfferResponse{}, apperr.Conflict(msgAlreadyAnswered)
	}
	rc, err := s.repo.GetRequestPublic(ctx, co.RequestID)
	if err != nil {
		return transport.CounterOfferResponse{}, err
	}
	if rc.Response == nil {
		return transport.CounterOfferResponse{}, apperr.Internal("quotation request has no response to negotiate")
	}

	decisions := make(map[int]bool, len(req.Decisions))
	for _, d := range req.Decisions {
		decisions[d.PartIndex] = d.Accepted
	}

	allAccepted := true
	lines := append([]repository.Line(nil), co.Parts...)
	for i := range lines {
		if !lines[i].Available {
			continue
		}
		accepted := true
		if d, ok := decisions[lines[i].PartIndex]; ok {
			accepted = d
		}
		lines[i].Accepted = &accepted
		if !accepted {
			allAccepted = false
		}
	}

	co.Parts = lines
	co.Total = AcceptedTotal(lines)
	co.Status = repository.StatusPartiallyAccepted
	if allAccepted {
		co.Status = repository.StatusAccepted
	}

	updated, err := s.repo.Respond(ctx, co, func(current quotedoc.Response) quotedoc.Response {
		return MergeAccepted(current, lines)
	})
	if err != nil {
		return transport.CounterOfferResponse{}, err
	}

	if s.eventBus != nil {
		s.eventBus.Publish(ctx, events.CounterOfferResponded{
			BaseEvent:      events.NewBaseEvent(),
			CounterOfferID: updated.ID,
			RequestID:      updated.RequestID,
			UserID:         updated.UserID,
			Status:         updated.Status,
			Total:          updated.Total,
		})
	}
	return toResponse(updated), nil
}

func (s *Service) ListByRequest(ctx context.Context, scope tenancy.Scope, requestID uuid.UUID) ([]transport.CounterOfferResponse, error) {
	items, err := s.repo.ListByRequest(ctx, scope, requestID)
	if err != nil {
		return nil, err
	}
	return toResponses(items), nil
}

func (s *Service) ListByQuotation(ctx context.Context, scope tenancy.Scope, quotationID uuid.UUID) ([]transport.CounterOfferResponse, error) {
	items, err := s.repo.ListByQuotation(ctx, scope, quotationID)
	if err != nil {
		return nil, err
	}
	return toResponses(items), nil
}

func toResponses(items []repository.CounterOffer) []transport.CounterOfferResponse {
	out := make([]transport.CounterOfferResponse, 0, len(items))
	for _, co := range items {
		out = append(out, toResponse(co))
	}
	return out
}

func toResponse(co repository.CounterOffer) transport.CounterOfferResponse {
	return transport.CounterOfferResponse{
		ID:           co.ID,
		RequestID:    co.RequestID,
		SupplierID:   co.SupplierID,
		SupplierName: co.SupplierName,
		Parts:        toLines(co.Parts),
		Total:        co.Total,
		Notes:        co.Notes,
		Status:       co.Status,
		RespondedAt:  co.RespondedAt,
		CreatedAt:    co.CreatedAt,
	}
}

func toLines(lines []repository.Line) []transport.Line {
	out := make([]transport.Line, 0, len(lines))
	for _, l := range lines {
		out = append(out, transport.Line{
			PartIndex:          l.PartIndex,
			Description:        l.Description,
			Quantity:           l.Quantity,
			Available:          l.Available,
			OriginalPrice:      l.OriginalPrice,
			OriginalTotal:      l.OriginalTotal,
			CounterPrice:       l.CounterPrice,
			CounterTotal:       l.CounterTotal,
			DiscountPercentage: l.DiscountPercentage,
			Accepted:           l.Accepted,
		})
	}
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
