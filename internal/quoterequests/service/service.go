package service

import (
	"context"
	"fmt"
	"time"

	"autoparts_quotes_backend/internal/events"
	"autoparts_quotes_backend/internal/quoterequests/repository"
	"autoparts_quotes_backend/internal/quoterequests/transport"
	"autoparts_quotes_backend/internal/shared/quotedoc"
	"autoparts_quotes_backend/platform/apperr"
	"autoparts_quotes_backend/platform/logger"
	"autoparts_quotes_backend/platform/phone"
	"autoparts_quotes_backend/platform/tenancy"

	"github.com/google/uuid"
)

const defaultSendInterval = time.Second

// Repository is the storage the quotation requests service needs.
type Repository interface {
	GetQuotation(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (repository.QuotationContext, error)
	GetQuotationPublic(ctx context.Context, id uuid.UUID) (repository.QuotationContext, error)
	CreateMany(ctx context.Context, items []repository.Request) error
	GetByID(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (repository.RequestWithSupplier, error)
	GetPublic(ctx context.Context, quotationID, requestID uuid.UUID) (repository.RequestWithSupplier, error)
	ListByQuotation(ctx context.Context, scope tenancy.Scope, quotationID uuid.UUID) ([]repository.RequestWithSupplier, error)
	MarkSent(ctx context.Context, id uuid.UUID) error
	SaveResponse(ctx context.Context, id uuid.UUID, resp quotedoc.Response) (repository.Request, error)
	MarkQuotationInProgress(ctx context.Context, quotationID uuid.UUID) error
}

// Supplier is a dispatch recipient.
type Supplier struct {
	ID       uuid.UUID
	Name     string
	Phone    string
	AreaCode string
}

// SupplierDirectory resolves the caller's suppliers.
type SupplierDirectory interface {
	GetSuppliers(ctx context.Context, scope tenancy.Scope, ids []uuid.UUID) ([]Supplier, error)
}

// Messenger delivers messages through the caller's WhatsApp gateway.
type Messenger interface {
	SendText(ctx context.Context, scope tenancy.Scope, number, text string) error
	SendImage(ctx context.Context, scope tenancy.Scope, number, imageKey, caption string) error
}

// Templates provides the caller's message templates.
type Templates interface {
	Default(ctx context.Context, scope tenancy.Scope) (content string, ok bool, err error)
	Sequence(ctx context.Context, scope tenancy.Scope) ([]string, error)
	Render(content string, v MessageValues) string
	HasLink(content string) bool
}

// Options configures links and pacing.
type Options struct {
	AppBaseURL   string
	SendInterval time.Duration
}

// Service provides business logic for quotation requests.
type Service struct {
	repo      Repository
	suppliers SupplierDirectory
	messenger Messenger
	templates Templates
	eventBus  events.Bus
	opts      Options
	log       *logger.Logger
	sleep     func(ctx context.Context, d time.Duration) error
}

// New creates a new quotation requests service.
func New(repo Repository, suppliers SupplierDirectory, messenger Messenger, templates Templates, eventBus events.Bus, opts Options, log *logger.Logger) *Service {
	if opts.SendInterval <= 0 {
		opts.SendInterval = defaultSendInterval
	}
	return &Service{
		repo:      repo,
		suppliers: suppliers,
		messenger: messenger,
		templates: templates,
		eventBus:  eventBus,
		opts:      opts,
		log:       log,
		sleep:     sleepContext,
	}
}

type recipient struct {
	Supplier
	number string
}

// resolveRecipients splits the selection into reachable suppliers and
// warnings for the ones that cannot be messaged.
func (s *Service) resolveRecipients(ctx context.Context, scope tenancy.Scope, ids []uuid.UUID) ([]recipient, []string, error) {
	found, err := s.suppliers.GetSuppliers(ctx, scope, dedupeIDs(ids))
	if err != nil {
		return nil, nil, err
	}

	warnings := make([]string, 0)
	known := make(map[uuid.UUID]bool, len(found))
	valid := make([]recipient, 0, len(found))
	for _, sup := range found {
		known[sup.ID] = true
		if sup.AreaCode == "" || sup.Phone == "" {
			warnings = append(warnings, fmt.Sprintf("supplier %q excluded: phone and area code are required", sup.Name))
			continue
		}
		number, err := phone.NormalizeBR(sup.AreaCode, sup.Phone)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("supplier %q excluded: %v", sup.Name, err))
			continue
		}
		valid = append(valid, recipient{Supplier: sup, number: number})
	}
	for _, id := range dedupeIDs(ids) {
		if !known[id] {
			warnings = append(warnings, fmt.Sprintf("supplier %s not found", id))
		}
	}
	return valid, warnings, nil
}

// Dispatch creates one request per reachable supplier and sends each its
// response link. Gateway failures are collected; they do not stop the run.
func (s *Service) Dispatch(ctx context.Context, scope tenancy.Scope, quotationID uuid.UUID, req transport.DispatchRequest) (transport.DispatchResponse, error) {
	q, err := s.repo.GetQuotation(ctx, scope, quotationID)
	if err != nil {
		return transport.DispatchResponse{}, err
	}
	recipients, warnings, err := s.resolveRecipients(ctx, scope, req.SupplierIDs)
	if err != nil {
		return transport.DispatchResponse{}, err
	}
	if len(recipients) == 0 {
		return transport.DispatchResponse{}, apperr.Validation("no selected supplier has both phone and area code").WithDetails(warnings)
	}
	content, err := s.defaultTemplate(ctx, scope)
	if err != nil {
		return transport.DispatchResponse{}, err
	}

	now := time.Now()
	requests := make([]repository.Request, 0, len(recipients))
	for i, rcpt := range recipients {
		requests = append(requests, repository.Request{
			ID:          uuid.New(),
			UserID:      scope.UserID,
			CompanyID:   scope.CompanyID,
			QuotationID: quotationID,
			SupplierID:  rcpt.ID,
			// distinct timestamps keep creation order stable for best-price ties
			CreatedAt: now.Add(time.Duration(i) * time.Microsecond),
		})
	}
	if err := s.repo.CreateMany(ctx, requests); err != nil {
		return transport.DispatchResponse{}, err
	}

	resp := transport.DispatchResponse{
		Requests: make([]transport.DispatchResult, 0, len(requests)),
		Warnings: warnings,
		Failures: make([]transport.Failure, 0),
	}
	for i, rcpt := range recipients {
		request := requests[i]
		link := ResponseLink(s.opts.AppBaseURL, quotationID, request.ID)
		result := transport.DispatchResult{
			RequestID:    request.ID,
			SupplierID:   rcpt.ID,
			SupplierName: rcpt.Name,
			Status:       repository.StatusPending,
			Link:         link,
		}

		sent, err := s.sendLink(ctx, scope, q, rcpt, request.ID, content, link, req.CoverImageKey, false)
		if sent {
			result.Status = repository.StatusSent
			resp.Sent++
		}
		if err != nil {
			resp.Failures = append(resp.Failures, failure(rcpt.Supplier, &request.ID, err))
		}
		resp.Requests = append(resp.Requests, result)
	}

	if resp.Sent > 0 {
		if err := s.repo.MarkQuotationInProgress(ctx, quotationID); err != nil {
			return resp, err
		}
	}

	if s.eventBus != nil {
		s.eventBus.Publish(ctx, events.QuotationDispatched{
			BaseEvent:   events.NewBaseEvent(),
			QuotationID: quotationID,
			UserID:      scope.UserID,
			Sent:        resp.Sent,
			Failed:      len(resp.Failures),
			Excluded:    len(warnings),
		})
	}
	return resp, nil
}

// sendLink sends the rendered text, then the optional cover image, and marks
// the request sent once the text went out. sent reports whether the text did.
func (s *Service) sendLink(ctx context.Context, scope tenancy.Scope, q repository.QuotationContext, rcpt recipient, requestID uuid.UUID, content, link string, coverImageKey *string, resend bool) (sent bool, err error) {
	text := s.templates.Render(content, messageValues(q, rcpt.Name, link))
	if !s.templates.HasLink(content) {
		text += "\n\n" + link
	}

	if err := s.messenger.SendText(ctx, scope, rcpt.number, text); err != nil {
		s.log.GatewayFailure("send_text", rcpt.number, err)
		return false, err
	}
	if err := s.repo.MarkSent(ctx, requestID); err != nil {
		return false, err
	}
	if s.eventBus != nil {
		s.eventBus.Publish(ctx, events.QuotationRequestSent{
			BaseEvent:   events.NewBaseEvent(),
			RequestID:   requestID,
			QuotationID: q.ID,
			SupplierID:  rcpt.ID,
			UserID:      scope.UserID,
			Resend:      resend,
		})
	}

	if coverImageKey != nil && *coverImageKey != "" {
		if err := s.messenger.SendImage(ctx, scope, rcpt.number, *coverImageKey, ""); err != nil {
			s.log.GatewayFailure("send_image", rcpt.number, err)
			return true, fmt.Errorf("text sent but cover image failed: %w", err)
		}
	}
	return true, nil
}

func (s *Service) defaultTemplate(ctx context.Context, scope tenancy.Scope) (string, error) {
	content, ok, err := s.templates.Default(ctx, scope)
	if err != nil {
		return "", err
	}
	if !ok || content == "" {
		return fallbackTemplate, nil
	}
	return content, nil
}

// Resend sends the response link again for a request that has not been
// answered yet.
func (s *Service) Resend(ctx context.Context, scope tenancy.Scope, requestID uuid.UUID) (transport.RequestResponse, error) {
	req, err := s.repo.GetByID(ctx, scope, requestID)
	if err != nil {
		return transport.RequestResponse{}, err
	}
	if err := s.resend(ctx, scope, req); err != nil {
		return transport.RequestResponse{}, err
	}
	updated, err := s.repo.GetByID(ctx, scope, requestID)
	if err != nil {
		return transport.RequestResponse{}, err
	}
	return s.toResponse(updated), nil
}

func (s *Service) resend(ctx context.Context, scope tenancy.Scope, req repository.RequestWithSupplier) error {
	if req.Status == repository.StatusResponded {
		return apperr.Conflict("this quotation request has already been answered")
	}
	q, err := s.repo.GetQuotation(ctx, scope, req.QuotationID)
	if err != nil {
		return err
	}
	recipients, warnings, err := s.resolveRecipients(ctx, scope, []uuid.UUID{req.SupplierID})
	if err != nil {
		return err
	}
	if len(recipients) == 0 {
		return apperr.Validation(firstOr(warnings, "supplier cannot be messaged"))
	}
	content, err := s.defaultTemplate(ctx, scope)
	if err != nil {
		return err
	}
	link := ResponseLink(s.opts.AppBaseURL, req.QuotationID, req.ID)
	if _, err := s.sendLink(ctx, scope, q, recipients[0], req.ID, content, link, nil, true); err != nil {
		return apperr.Upstream("failed to send message", err)
	}
	return nil
}

// FollowUp re-sends the link once if the supplier still has not answered.
func (s *Service) FollowUp(ctx context.Context, scope tenancy.Scope, requestID uuid.UUID) error {
	req, err := s.repo.GetByID(ctx, scope, requestID)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return nil
		}
		return err
	}
	if req.Status != repository.StatusSent {
		return nil
	}
	return s.resend(ctx, scope, req)
}

// SendTemplateSequence sends every template, in sequence order, to each
// supplier. Successive templates to the same supplier are spaced by the
// configured interval.
func (s *Service) SendTemplateSequence(ctx context.Context, scope tenancy.Scope, req transport.SequenceSendRequest) (transport.SequenceSendResponse, error) {
	contents, err := s.templates.Sequence(ctx, scope)
	if err != nil {
		return transport.SequenceSendResponse{}, err
	}
	if len(contents) == 0 {
		return transport.SequenceSendResponse{}, apperr.Validation("no message templates configured")
	}

	var q repository.QuotationContext
	if req.QuotationID != nil {
		if q, err = s.repo.GetQuotation(ctx, scope, *req.QuotationID); err != nil {
			return transport.SequenceSendResponse{}, err
		}
	}

	recipients, warnings, err := s.resolveRecipients(ctx, scope, req.SupplierIDs)
	if err != nil {
		return transport.SequenceSendResponse{}, err
	}
	if len(recipients) == 0 {
		return transport.SequenceSendResponse{}, apperr.Validation("no selected supplier has both phone and area code").WithDetails(warnings)
	}

	resp := transport.SequenceSendResponse{Warnings: warnings, Failures: make([]transport.Failure, 0)}
	for _, rcpt := range recipients {
		values := messageValues(q, rcpt.Name, "")
		for i, content := range contents {
			if i > 0 {
				if err := s.sleep(ctx, s.opts.SendInterval); err != nil {
					return resp, err
				}
			}
			if err := s.messenger.SendText(ctx, scope, rcpt.number, s.templates.Render(content, values)); err != nil {
				s.log.GatewayFailure("send_text", rcpt.number, err)
				resp.Failures = append(resp.Failures, failure(rcpt.Supplier, nil, err))
				continue
			}
			resp.Sent++
		}
	}
	return resp, nil
}

func (s *Service) ListByQuotation(ctx context.Context, scope tenancy.Scope, quotationID uuid.UUID) ([]transport.RequestResponse, error) {
	items, err := s.repo.ListByQuotation(ctx, scope, quotationID)
	if err != nil {
		return nil, err
	}
	out := make([]transport.RequestResponse, 0, len(items))
	for _, item := range items {
		out = append(out, s.toResponse(item))
	}
	return out, nil
}

func (s *Service) toResponse(r repository.RequestWithSupplier) transport.RequestResponse {
	return transport.RequestResponse{
		ID:           r.ID,
		QuotationID:  r.QuotationID,
		SupplierID:   r.SupplierID,
		SupplierName: r.SupplierName,
		Status:       r.Status,
		SentAt:       r.SentAt,
		RespondedAt:  r.RespondedAt,
		Response:     toSupplierResponse(r.Response),
		Link:         ResponseLink(s.opts.AppBaseURL, r.QuotationID, r.ID),
		CreatedAt:    r.CreatedAt,
	}
}

func toSupplierResponse(r *quotedoc.Response) *transport.SupplierResponse {
	if r == nil {
		return nil
	}
	lines := make([]transport.ResponseLine, 0, len(r.Parts))
	for _, p := range r.Parts {
		lines = append(lines, transport.ResponseLine{
			PartIndex:   p.PartIndex,
			Code:        p.Code,
			Description: p.Description,
			Quantity:    p.Quantity,
			Available:   p.Available,
			Condition:   p.Condition,
			UnitPrice:   p.UnitPrice,
			TotalPrice:  p.TotalPrice,
			Notes:       p.Notes,
			Negotiated:  p.Negotiated,
		})
	}
	return &transport.SupplierResponse{
		SupplierName:  r.SupplierName,
		SupplierPhone: r.SupplierPhone,
		Parts:         lines,
		TotalPrice:    r.TotalPrice,
		DeliveryTime:  r.DeliveryTime,
		Notes:         r.Notes,
	}
}

func failure(sup Supplier, requestID *uuid.UUID, err error) transport.Failure {
	return transport.Failure{SupplierID: sup.ID, SupplierName: sup.Name, RequestID: requestID, Error: err.Error()}
}

func dedupeIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func firstOr(items []string, fallback string) string {
	if len(items) > 0 {
		return items[0]
	}
	return fallback
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
