package service

import (
	"context"
	"fmt"
	"time"

	"autoparts_quotes_backend/internal/events"
	"autoparts_quotes_backend/internal/purchasing/repository"
	"autoparts_quotes_backend/internal/purchasing/transport"
	"autoparts_quotes_backend/internal/shared/quotedoc"
	"autoparts_quotes_backend/platform/apperr"
	"autoparts_quotes_backend/platform/logger"
	"autoparts_quotes_backend/platform/sanitize"
	"autoparts_quotes_backend/platform/tenancy"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Repository is the storage the purchasing service needs.
type Repository interface {
	GetQuotation(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (repository.QuotationContext, error)
	ListResponded(ctx context.Context, scope tenancy.Scope, quotationID uuid.UUID) ([]repository.RespondedRequest, error)
	CreateOrders(ctx context.Context, orders []repository.OrderDetail, quotationID uuid.UUID, parts []quotedoc.Part, quotationStatus string) error
	GetByID(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (repository.OrderDetail, error)
	List(ctx context.Context, params repository.ListParams) (repository.ListResult, error)
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to string) error
	UpdateDetails(ctx context.Context, scope tenancy.Scope, id uuid.UUID, deliveryTime, notes *string) error
	Delete(ctx context.Context, scope tenancy.Scope, id uuid.UUID) error
	GetWorkshop(ctx context.Context, userID uuid.UUID) (*repository.Workshop, error)
}

// Document is a file sent alongside a message.
type Document struct {
	FileName string
	Content  []byte
	Caption  string
}

// Messenger delivers purchase orders to suppliers.
type Messenger interface {
	SendText(ctx context.Context, scope tenancy.Scope, number, text string) error
	SendImage(ctx context.Context, scope tenancy.Scope, number, imageKey, caption string) error
	SendDocument(ctx context.Context, scope tenancy.Scope, number string, doc Document) error
}

// Service provides best-price aggregation and purchase order management.
type Service struct {
	repo      Repository
	messenger Messenger
	eventBus  events.Bus
	log       *logger.Logger
	now       func() time.Time
}

// New creates a new purchasing service.
func New(repo Repository, messenger Messenger, eventBus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, messenger: messenger, eventBus: eventBus, log: log, now: time.Now}
}

// line is one priced part on its way into an order.
type line struct {
	supplierID   uuid.UUID
	supplierName string
	description  string
	quantity     int
	unitPrice    decimal.Decimal
	totalPrice   decimal.Decimal
	partIndex    *int
	// quotation parts this line buys
	marks []int
}

// BestPrices aggregates the cheapest offer per part across answered requests.
func (s *Service) BestPrices(ctx context.Context, scope tenancy.Scope, quotationID uuid.UUID) (transport.BestPricesResponse, error) {
	q, err := s.repo.GetQuotation(ctx, scope, quotationID)
	if err != nil {
		return transport.BestPricesResponse{}, err
	}
	requests, err := s.repo.ListResponded(ctx, scope, quotationID)
	if err != nil {
		return transport.BestPricesResponse{}, err
	}
	items := BestPrices(q.Parts, requests)
	return transport.BestPricesResponse{QuotationID: q.ID, Items: items, Total: bestPricesTotal(items)}, nil
}

// GenerateFromSelections creates one order per supplier from hand-picked
// offers. A later pick for the same description replaces the earlier one.
func (s *Service) GenerateFromSelections(ctx context.Context, scope tenancy.Scope, quotationID uuid.UUID, req transport.GenerateFromSelectionsRequest) (transport.GenerateResponse, error) {
	q, err := s.repo.GetQuotation(ctx, scope, quotationID)
	if err != nil {
		return transport.GenerateResponse{}, err
	}
	requests, err := s.repo.ListResponded(ctx, scope, quotationID)
	if err != nil {
		return transport.GenerateResponse{}, err
	}
	byID := make(map[uuid.UUID]repository.RespondedRequest, len(requests))
	for _, r := range requests {
		byID[r.ID] = r
	}

	picked := make(map[string]line)
	order := make([]string, 0, len(req.Selections))
	for _, sel := range req.Selections {
		r, ok := byID[sel.RequestID]
		if !ok {
			return transport.GenerateResponse{}, apperr.Validation("selected quotation request has not been answered")
		}
		rp, ok := r.Response.PartAt(sel.PartIndex)
		if !ok || !rp.Available {
			return transport.GenerateResponse{}, apperr.Validation(fmt.Sprintf("%s did not offer part %d", r.SupplierName, sel.PartIndex+1))
		}
		if sel.PartIndex >= 0 && sel.PartIndex < len(q.Parts) && q.Parts[sel.PartIndex].Purchased {
			return transport.GenerateResponse{}, apperr.Conflict(fmt.Sprintf("part %d has already been purchased", sel.PartIndex+1))
		}

		desc := partDescription(q.Parts, *rp)
		key := sanitize.Key(desc)
		if _, seen := picked[key]; !seen {
			order = append(order, key)
		}
		idx := rp.PartIndex
		l := line{
			supplierID:   r.SupplierID,
			supplierName: r.SupplierName,
			description:  desc,
			quantity:     max(rp.Quantity, 1),
			unitPrice:    rp.UnitPrice,
			partIndex:    &idx,
		}
		if idx >= 0 && idx < len(q.Parts) {
			l.marks = []int{idx}
		}
		l.totalPrice = quotedoc.LineTotal(l.unitPrice, l.quantity)
		picked[key] = l
	}

	lines := make([]line, 0, len(order))
	for _, key := range order {
		lines = append(lines, picked[key])
	}
	return s.createOrders(ctx, scope, q, lines, req.DeliveryTime, req.Notes)
}

// GenerateFromBestPrices orders the chosen best-price rows. Rows already
// purchased are skipped.
func (s *Service) GenerateFromBestPrices(ctx context.Context, scope tenancy.Scope, quotationID uuid.UUID, req transport.GenerateFromBestPricesRequest) (transport.GenerateResponse, error) {
	q, err := s.repo.GetQuotation(ctx, scope, quotationID)
	if err != nil {
		return transport.GenerateResponse{}, err
	}
	requests, err := s.repo.ListResponded(ctx, scope, quotationID)
	if err != nil {
		return transport.GenerateResponse{}, err
	}

	best := make(map[string]transport.BestPrice)
	for _, bp := range BestPrices(q.Parts, requests) {
		best[bp.Key] = bp
	}

	seen := make(map[string]bool, len(req.Descriptions))
	lines := make([]line, 0, len(req.Descriptions))
	for _, d := range req.Descriptions {
		key := sanitize.Key(d)
		if seen[key] {
			continue
		}
		seen[key] = true
		bp, ok := best[key]
		if !ok {
			return transport.GenerateResponse{}, apperr.Validation(fmt.Sprintf("no supplier offered %q", d))
		}
		if bp.Purchased {
			continue
		}
		idx := bp.PartIndex
		l := line{
			supplierID:   bp.SupplierID,
			supplierName: bp.SupplierName,
			description:  bp.Description,
			quantity:     bp.Quantity,
			unitPrice:    bp.UnitPrice,
			totalPrice:   bp.TotalPrice,
			partIndex:    &idx,
		}
		for i, p := range q.Parts {
			if !p.Purchased && sanitize.Key(p.Description) == key {
				l.marks = append(l.marks, i)
			}
		}
		lines = append(lines, l)
	}
	if len(lines) == 0 {
		return transport.GenerateResponse{}, apperr.Validation("every selected part has already been purchased")
	}
	return s.createOrders(ctx, scope, q, lines, req.DeliveryTime, req.Notes)
}

// createOrders groups lines by supplier, in first-seen order, and stores
// the orders together with the quotation's purchased flags.
func (s *Service) createOrders(ctx context.Context, scope tenancy.Scope, q repository.QuotationContext, lines []line, deliveryTime, notes *string) (transport.GenerateResponse, error) {
	deliveryTime = optionalText(deliveryTime, sanitize.Text)
	notes = optionalText(notes, sanitize.MultilineText)

	bySupplier := make(map[uuid.UUID]*repository.OrderDetail)
	orders := make([]*repository.OrderDetail, 0)
	parts := append([]quotedoc.Part(nil), q.Parts...)

	for _, l := range lines {
		o, ok := bySupplier[l.supplierID]
		if !ok {
			o = &repository.OrderDetail{Order: repository.Order{
				ID:           uuid.New(),
				UserID:       scope.UserID,
				CompanyID:    scope.CompanyID,
				QuotationID:  q.ID,
				SupplierID:   l.supplierID,
				TotalAmount:  decimal.Zero,
				Status:       repository.StatusPending,
				DeliveryTime: deliveryTime,
				Notes:        notes,
			}, SupplierName: l.supplierName}
			bySupplier[l.supplierID] = o
			orders = append(orders, o)
		}
		o.Items = append(o.Items, repository.Item{
			ID:                 uuid.New(),
			OrderID:            o.ID,
			Description:        l.description,
			Quantity:           l.quantity,
			UnitPrice:          l.unitPrice,
			TotalPrice:         l.totalPrice,
			QuotationPartIndex: l.partIndex,
			SortOrder:          len(o.Items),
		})
		o.TotalAmount = o.TotalAmount.Add(l.totalPrice)
		for _, i := range l.marks {
			parts[i].Purchased = true
		}
	}

	completed := quotedoc.AllPurchased(parts)
	status := q.Status
	if completed {
		status = repository.QuotationCompleted
	} else if status == repository.QuotationPending {
		status = repository.QuotationInProgress
	}

	stored := make([]repository.OrderDetail, 0, len(orders))
	for _, o := range orders {
		stored = append(stored, *o)
	}
	if err := s.repo.CreateOrders(ctx, stored, q.ID, parts, status); err != nil {
		return transport.GenerateResponse{}, err
	}

	if s.eventBus != nil {
		ids := make([]uuid.UUID, 0, len(stored))
		for _, o := range stored {
			ids = append(ids, o.ID)
		}
		s.eventBus.Publish(ctx, events.PurchaseOrdersGenerated{
			BaseEvent:   events.NewBaseEvent(),
			QuotationID: q.ID,
			UserID:      scope.UserID,
			OrderIDs:    ids,
		})
		if completed && q.Status != repository.QuotationCompleted {
			s.eventBus.Publish(ctx, events.QuotationCompleted{
				BaseEvent:   events.NewBaseEvent(),
				QuotationID: q.ID,
				UserID:      scope.UserID,
			})
		}
	}

	s.log.Info("purchase orders generated", "quotationId", q.ID, "orders", len(stored), "completed", completed)

	now := s.now()
	resp := transport.GenerateResponse{Orders: make([]transport.PurchaseOrderResponse, 0, len(stored)), QuotationCompleted: completed}
	for _, o := range stored {
		o.CreatedAt, o.UpdatedAt = now, now
		resp.Orders = append(resp.Orders, ToResponse(o))
	}
	return resp, nil
}

func (s *Service) Get(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (transport.PurchaseOrderResponse, error) {
	o, err := s.repo.GetByID(ctx, scope, id)
	if err != nil {
		return transport.PurchaseOrderResponse{}, err
	}
	return ToResponse(o), nil
}

func (s *Service) List(ctx context.Context, scope tenancy.Scope, req transport.ListPurchaseOrdersRequest) (transport.PurchaseOrderListResponse, error) {
	params := repository.ListParams{
		Scope:    scope,
		Status:   req.Status,
		Page:     req.Page,
		PageSize: req.PageSize,
	}
	if req.QuotationID != "" {
		id, err := uuid.Parse(req.QuotationID)
		if err != nil {
			return transport.PurchaseOrderListResponse{}, apperr.BadRequest("invalid quotation id")
		}
		params.QuotationID = &id
	}
	if req.SupplierID != "" {
		id, err := uuid.Parse(req.SupplierID)
		if err != nil {
			return transport.PurchaseOrderListResponse{}, apperr.BadRequest("invalid supplier id")
		}
		params.SupplierID = &id
	}

	result, err := s.repo.List(ctx, params)
	if err != nil {
		return transport.PurchaseOrderListResponse{}, err
	}
	items := make([]transport.PurchaseOrderResponse, 0, len(result.Items))
	for _, o := range result.Items {
		items = append(items, ToResponse(o))
	}
	return transport.PurchaseOrderListResponse{
		Items:      items,
		Total:      result.Total,
		Page:       result.Page,
		PageSize:   result.PageSize,
		TotalPages: result.TotalPages,
	}, nil
}

// UpdateDetails edits delivery time and notes of a pending order.
func (s *Service) UpdateDetails(ctx context.Context, scope tenancy.Scope, id uuid.UUID, req transport.UpdateDetailsRequest) (transport.PurchaseOrderResponse, error) {
	o, err := s.repo.GetByID(ctx, scope, id)
	if err != nil {
		return transport.PurchaseOrderResponse{}, err
	}
	if o.Status != repository.StatusPending {
		return transport.PurchaseOrderResponse{}, apperr.Conflict("purchase order is no longer pending")
	}
	deliveryTime := optionalText(req.DeliveryTime, sanitize.Text)
	notes := optionalText(req.Notes, sanitize.MultilineText)
	if err := s.repo.UpdateDetails(ctx, scope, id, deliveryTime, notes); err != nil {
		return transport.PurchaseOrderResponse{}, err
	}
	o.DeliveryTime, o.Notes = deliveryTime, notes
	o.UpdatedAt = s.now()
	return ToResponse(o), nil
}

// Delete removes a pending order. Purchased flags on the quotation stay set.
func (s *Service) Delete(ctx context.Context, scope tenancy.Scope, id uuid.UUID) error {
	o, err := s.repo.GetByID(ctx, scope, id)
	if err != nil {
		return err
	}
	if o.Status != repository.StatusPending {
		return apperr.Conflict("only pending purchase orders can be deleted")
	}
	return s.repo.Delete(ctx, scope, id)
}

// optionalText sanitizes an optional field and drops it when blank.
func optionalText(v *string, clean func(string) string) *string {
	if v == nil {
		return nil
	}
	out := clean(*v)
	if out == "" {
		return nil
	}
	return &out
}

// ToResponse converts a stored order to its API shape.
func ToResponse(o repository.OrderDetail) transport.PurchaseOrderResponse {
	items := make([]transport.ItemResponse, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, transport.ItemResponse{
			ID:                 it.ID,
			Description:        it.Description,
			Quantity:           it.Quantity,
			UnitPrice:          it.UnitPrice,
			TotalPrice:         it.TotalPrice,
			QuotationPartIndex: it.QuotationPartIndex,
		})
	}
	return transport.PurchaseOrderResponse{
		ID:           o.ID,
		QuotationID:  o.QuotationID,
		SupplierID:   o.SupplierID,
		SupplierName: o.SupplierName,
		TotalAmount:  o.TotalAmount,
		Status:       o.Status,
		DeliveryTime: o.DeliveryTime,
		Notes:        o.Notes,
		SentAt:       o.SentAt,
		Items:        items,
		CreatedAt:    o.CreatedAt,
		UpdatedAt:    o.UpdatedAt,
	}
}
