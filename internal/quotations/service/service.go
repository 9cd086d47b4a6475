package service

import (
	"context"
	"fmt"
	"strings"

	"autoparts_quotes_backend/internal/events"
	"autoparts_quotes_backend/internal/quotations/repository"
	"autoparts_quotes_backend/internal/quotations/transport"
	"autoparts_quotes_backend/internal/shared/quotedoc"
	"autoparts_quotes_backend/platform/apperr"
	"autoparts_quotes_backend/platform/logger"
	"autoparts_quotes_backend/platform/sanitize"
	"autoparts_quotes_backend/platform/tenancy"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	reportPartDescription = "Ver descrição"
	reportPartCode        = "-"
)

// Repository is the storage the quotations service needs.
type Repository interface {
	CreateWithVehicle(ctx context.Context, scope tenancy.Scope, q repository.Quotation, v repository.Vehicle, existing bool) (repository.QuotationWithVehicle, error)
	UpdateWithVehicle(ctx context.Context, scope tenancy.Scope, q repository.Quotation, v *repository.Vehicle) (repository.QuotationWithVehicle, error)
	GetByID(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (repository.QuotationWithVehicle, error)
	GetQuotationWithVehicleAndRequests(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (repository.Detail, error)
	List(ctx context.Context, params repository.ListParams) (repository.ListResult, error)
	UpdateStatus(ctx context.Context, scope tenancy.Scope, id uuid.UUID, status string) error
	SetParts(ctx context.Context, scope tenancy.Scope, id uuid.UUID, parts []quotedoc.Part, status string) error
	Delete(ctx context.Context, scope tenancy.Scope, id uuid.UUID) error
}

// TextExpander expands the caller's text abbreviations.
type TextExpander interface {
	Expand(ctx context.Context, scope tenancy.Scope, text string) (string, error)
}

// Service provides business logic for quotation intake and management.
type Service struct {
	repo     Repository
	expander TextExpander
	eventBus events.Bus
	log      *logger.Logger
}

// New creates a new quotations service. expander may be nil.
func New(repo Repository, expander TextExpander, eventBus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, expander: expander, eventBus: eventBus, log: log}
}

// Create stores the vehicle and the quotation built from one intake mode.
func (s *Service) Create(ctx context.Context, scope tenancy.Scope, req transport.CreateQuotationRequest) (transport.QuotationResponse, error) {
	if req.VehicleID == nil && req.Vehicle == nil {
		return transport.QuotationResponse{}, apperr.Validation("vehicle or vehicleId is required")
	}
	if req.VehicleID != nil && req.Vehicle == nil {
		return transport.QuotationResponse{}, apperr.Validation("vehicle fields are required to update an existing vehicle")
	}

	parts, description, err := s.intakeParts(ctx, scope, req)
	if err != nil {
		return transport.QuotationResponse{}, err
	}

	vehicle := vehicleFromInput(*req.Vehicle)
	existing := req.VehicleID != nil
	if existing {
		vehicle.ID = *req.VehicleID
	} else {
		vehicle.ID = uuid.New()
	}

	q := repository.Quotation{
		ID:          uuid.New(),
		UserID:      scope.UserID,
		CompanyID:   scope.CompanyID,
		Parts:       parts,
		Status:      repository.StatusPending,
		Description: description,
		InputType:   req.InputType,
	}

	created, err := s.repo.CreateWithVehicle(ctx, scope, q, vehicle, existing)
	if err != nil {
		return transport.QuotationResponse{}, err
	}

	if s.eventBus != nil {
		s.eventBus.Publish(ctx, events.QuotationCreated{
			BaseEvent:   events.NewBaseEvent(),
			QuotationID: created.ID,
			VehicleID:   created.VehicleID,
			UserID:      scope.UserID,
			InputType:   created.InputType,
			PartCount:   len(created.Parts),
		})
	}
	return ToResponse(created), nil
}

func (s *Service) intakeParts(ctx context.Context, scope tenancy.Scope, req transport.CreateQuotationRequest) ([]quotedoc.Part, *string, error) {
	description := sanitizeOptional(req.Description)

	switch req.InputType {
	case repository.InputManual:
		if len(req.Parts) == 0 {
			return nil, nil, apperr.Validation("at least one part is required")
		}
		parts, err := partsFromInput(req.Parts)
		return parts, description, err

	case repository.InputBulk:
		parts, _, err := s.parseBulk(ctx, scope, req.BulkText)
		if err != nil {
			return nil, nil, err
		}
		if len(parts) == 0 {
			return nil, nil, apperr.Validation("no valid part lines found in bulk text")
		}
		return parts, description, nil

	case repository.InputReport:
		report := sanitize.MultilineText(req.ReportText)
		if report == "" {
			return nil, nil, apperr.Validation("report text is required")
		}
		return []quotedoc.Part{reportPlaceholder()}, &report, nil
	}
	return nil, nil, apperr.Validation("unknown input type")
}

// ParseBulk previews a bulk paste without storing anything.
func (s *Service) ParseBulk(ctx context.Context, scope tenancy.Scope, text string) (transport.ParseBulkResponse, error) {
	parts, skipped, err := s.parseBulk(ctx, scope, text)
	if err != nil {
		return transport.ParseBulkResponse{}, err
	}
	out := make([]transport.PartInput, 0, len(parts))
	for _, p := range parts {
		out = append(out, transport.PartInput{
			Operation:     p.Operation,
			Code:          p.Code,
			Description:   p.Description,
			Condition:     p.Condition,
			Quantity:      p.Quantity,
			PaintingHours: p.PaintingHours,
			LaborHours:    p.LaborHours,
			LaborCost:     p.LaborCost,
			PartCost:      p.PartCost,
		})
	}
	return transport.ParseBulkResponse{Parts: out, Skipped: skipped}, nil
}

func (s *Service) parseBulk(ctx context.Context, scope tenancy.Scope, text string) ([]quotedoc.Part, int, error) {
	parts, skipped := ParseBulk(text, nil)
	if s.expander == nil {
		return parts, skipped, nil
	}
	for i := range parts {
		expanded, err := s.expander.Expand(ctx, scope, parts[i].Description)
		if err != nil {
			return nil, 0, err
		}
		parts[i].Description = expanded
	}
	return parts, skipped, nil
}

// Update replaces parts, description and optionally the vehicle fields. The
// quotation goes back to pending.
func (s *Service) Update(ctx context.Context, scope tenancy.Scope, id uuid.UUID, req transport.UpdateQuotationRequest) (transport.QuotationResponse, error) {
	parts, err := partsFromInput(req.Parts)
	if err != nil {
		return transport.QuotationResponse{}, err
	}

	var vehicle *repository.Vehicle
	if req.Vehicle != nil {
		v := vehicleFromInput(*req.Vehicle)
		vehicle = &v
	}

	updated, err := s.repo.UpdateWithVehicle(ctx, scope, repository.Quotation{
		ID:          id,
		Parts:       parts,
		Description: sanitizeOptional(req.Description),
		Status:      repository.StatusPending,
	}, vehicle)
	if err != nil {
		return transport.QuotationResponse{}, err
	}
	return ToResponse(updated), nil
}

func (s *Service) Get(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (transport.QuotationDetailResponse, error) {
	detail, err := s.repo.GetQuotationWithVehicleAndRequests(ctx, scope, id)
	if err != nil {
		return transport.QuotationDetailResponse{}, err
	}
	return toDetailResponse(detail), nil
}

func (s *Service) List(ctx context.Context, scope tenancy.Scope, req transport.ListQuotationsRequest) (transport.QuotationListResponse, error) {
	result, err := s.repo.List(ctx, repository.ListParams{
		Scope:     scope,
		Status:    req.Status,
		Search:    strings.TrimSpace(req.Search),
		SortBy:    req.SortBy,
		SortOrder: req.SortOrder,
		Page:      req.Page,
		PageSize:  req.PageSize,
	})
	if err != nil {
		return transport.QuotationListResponse{}, err
	}

	items := make([]transport.QuotationResponse, 0, len(result.Items))
	for _, q := range result.Items {
		items = append(items, ToResponse(q))
	}
	return transport.QuotationListResponse{
		Items:      items,
		Total:      result.Total,
		Page:       result.Page,
		PageSize:   result.PageSize,
		TotalPages: result.TotalPages,
	}, nil
}

func (s *Service) UpdateStatus(ctx context.Context, scope tenancy.Scope, id uuid.UUID, status string) error {
	return s.repo.UpdateStatus(ctx, scope, id, status)
}

// MarkPartsPurchased flags the given part indices. The quotation completes
// once every part is purchased.
func (s *Service) MarkPartsPurchased(ctx context.Context, scope tenancy.Scope, id uuid.UUID, indices []int) (transport.QuotationResponse, error) {
	q, err := s.repo.GetByID(ctx, scope, id)
	if err != nil {
		return transport.QuotationResponse{}, err
	}

	parts := append([]quotedoc.Part(nil), q.Parts...)
	for _, idx := range indices {
		if idx < 0 || idx >= len(parts) {
			return transport.QuotationResponse{}, apperr.Validation(fmt.Sprintf("part index %d out of range", idx))
		}
		parts[idx].Purchased = true
	}

	status := q.Status
	if quotedoc.AllPurchased(parts) {
		status = repository.StatusCompleted
	}
	if err := s.repo.SetParts(ctx, scope, id, parts, status); err != nil {
		return transport.QuotationResponse{}, err
	}

	if status == repository.StatusCompleted && q.Status != repository.StatusCompleted && s.eventBus != nil {
		s.eventBus.Publish(ctx, events.QuotationCompleted{BaseEvent: events.NewBaseEvent(), QuotationID: id, UserID: scope.UserID})
	}

	q.Parts = parts
	q.Status = status
	return ToResponse(q), nil
}

func (s *Service) Delete(ctx context.Context, scope tenancy.Scope, id uuid.UUID) error {
	return s.repo.Delete(ctx, scope, id)
}

func partsFromInput(inputs []transport.PartInput) ([]quotedoc.Part, error) {
	parts := make([]quotedoc.Part, 0, len(inputs))
	for i, in := range inputs {
		p := quotedoc.Part{
			Operation:     in.Operation,
			Code:          strings.ToUpper(sanitize.Text(in.Code)),
			Description:   sanitize.Text(in.Description),
			Condition:     in.Condition,
			Quantity:      in.Quantity,
			PaintingHours: in.PaintingHours,
			LaborHours:    in.LaborHours,
			LaborCost:     in.LaborCost.Round(2),
			PartCost:      in.PartCost.Round(2),
		}
		if p.Code == "" || p.Description == "" || p.Quantity < 1 {
			return nil, apperr.Validation(fmt.Sprintf("part %d: code, description and a quantity of at least 1 are required", i+1))
		}
		parts = append(parts, p)
	}
	return parts, nil
}

func reportPlaceholder() quotedoc.Part {
	return quotedoc.Part{
		Operation:     quotedoc.OperationReplace,
		Code:          reportPartCode,
		Description:   reportPartDescription,
		Condition:     quotedoc.ConditionGenuine,
		Quantity:      1,
		PaintingHours: decimal.Zero,
		LaborHours:    decimal.Zero,
		LaborCost:     decimal.Zero,
		PartCost:      decimal.Zero,
	}
}

func vehicleFromInput(in transport.VehicleInput) repository.Vehicle {
	v := repository.Vehicle{
		Brand:             sanitize.Text(in.Brand),
		Model:             sanitize.Text(in.Model),
		Year:              sanitize.TextPtr(in.Year),
		ManufacturingYear: in.ManufacturingYear,
		ModelYear:         in.ModelYear,
		Plate:             upperPtr(in.Plate, true),
		Chassis:           upperPtr(in.Chassis, false),
		Images:            in.Images,
	}
	if v.Year == nil && v.ManufacturingYear != nil {
		year := fmt.Sprintf("%d", *v.ManufacturingYear)
		if v.ModelYear != nil && *v.ModelYear != *v.ManufacturingYear {
			year = fmt.Sprintf("%d/%d", *v.ManufacturingYear, *v.ModelYear)
		}
		v.Year = &year
	}
	return v
}

func upperPtr(s *string, stripDash bool) *string {
	if s == nil {
		return nil
	}
	v := strings.ToUpper(strings.TrimSpace(*s))
	if stripDash {
		v = strings.ReplaceAll(v, "-", "")
	}
	if v == "" {
		return nil
	}
	return &v
}

func sanitizeOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := sanitize.MultilineText(*s)
	if v == "" {
		return nil
	}
	return &v
}

// ToResponse maps a stored quotation to its API shape.
func ToResponse(q repository.QuotationWithVehicle) transport.QuotationResponse {
	parts := make([]transport.PartResponse, 0, len(q.Parts))
	for i, p := range q.Parts {
		parts = append(parts, transport.PartResponse{
			Index:         i,
			Operation:     p.Operation,
			Code:          p.Code,
			Description:   p.Description,
			Condition:     p.Condition,
			Quantity:      p.Quantity,
			PaintingHours: p.PaintingHours,
			LaborHours:    p.LaborHours,
			LaborCost:     p.LaborCost,
			PartCost:      p.PartCost,
			Purchased:     p.Purchased,
		})
	}
	images := q.Vehicle.Images
	if images == nil {
		images = []string{}
	}
	return transport.QuotationResponse{
		ID: q.ID,
		Vehicle: transport.VehicleSummary{
			ID:                q.Vehicle.ID,
			Brand:             q.Vehicle.Brand,
			Model:             q.Vehicle.Model,
			Year:              q.Vehicle.Year,
			ManufacturingYear: q.Vehicle.ManufacturingYear,
			ModelYear:         q.Vehicle.ModelYear,
			Plate:             q.Vehicle.Plate,
			Chassis:           q.Vehicle.Chassis,
			Images:            images,
		},
		Parts:       parts,
		Status:      q.Status,
		Description: q.Description,
		InputType:   q.InputType,
		CreatedAt:   q.CreatedAt,
		UpdatedAt:   q.UpdatedAt,
	}
}

func toDetailResponse(d repository.Detail) transport.QuotationDetailResponse {
	requests := make([]transport.RequestSummary, 0, len(d.Requests))
	for _, r := range d.Requests {
		requests = append(requests, transport.RequestSummary{
			ID:           r.ID,
			SupplierID:   r.SupplierID,
			SupplierName: r.SupplierName,
			Status:       r.Status,
			SentAt:       r.SentAt,
			RespondedAt:  r.RespondedAt,
			Response:     toSupplierResponse(r.Response),
		})
	}
	offers := make([]transport.CounterOfferSummary, 0, len(d.CounterOffers))
	for _, co := range d.CounterOffers {
		offers = append(offers, transport.CounterOfferSummary{
			ID:           co.ID,
			RequestID:    co.RequestID,
			SupplierName: co.SupplierName,
			Total:        co.Total,
			Status:       co.Status,
			RespondedAt:  co.RespondedAt,
			CreatedAt:    co.CreatedAt,
		})
	}

	return transport.QuotationDetailResponse{
		QuotationResponse: ToResponse(d.QuotationWithVehicle),
		Requests:          requests,
		CounterOffers:     offers,
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
