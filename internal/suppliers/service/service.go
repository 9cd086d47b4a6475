package service

import (
	"context"
	"strings"

	"autoparts_quotes_backend/internal/suppliers/repository"
	"autoparts_quotes_backend/internal/suppliers/transport"
	"autoparts_quotes_backend/platform/phone"
	"autoparts_quotes_backend/platform/sanitize"
	"autoparts_quotes_backend/platform/tenancy"

	"github.com/google/uuid"
)

// Repository is the storage the suppliers service needs.
type Repository interface {
	Create(ctx context.Context, s repository.Supplier) (repository.Supplier, error)
	GetByID(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (repository.Supplier, error)
	GetByIDs(ctx context.Context, scope tenancy.Scope, ids []uuid.UUID) ([]repository.Supplier, error)
	Update(ctx context.Context, scope tenancy.Scope, s repository.Supplier) (repository.Supplier, error)
	Delete(ctx context.Context, scope tenancy.Scope, id uuid.UUID) error
	List(ctx context.Context, params repository.ListParams) (repository.ListResult, error)
	ListSpecializations(ctx context.Context, scope tenancy.Scope) ([]repository.Specialization, error)
	CreateSpecialization(ctx context.Context, s repository.Specialization) (repository.Specialization, error)
	DeleteSpecialization(ctx context.Context, scope tenancy.Scope, id uuid.UUID) error
}

// Service provides business logic for suppliers.
type Service struct {
	repo Repository
}

// New creates a new suppliers service.
func New(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, scope tenancy.Scope, req transport.CreateSupplierRequest) (transport.SupplierResponse, error) {
	supplier := fromRequest(req)
	supplier.ID = uuid.New()
	supplier.UserID = scope.UserID
	supplier.CompanyID = scope.CompanyID

	created, err := s.repo.Create(ctx, supplier)
	if err != nil {
		return transport.SupplierResponse{}, err
	}
	return ToResponse(created), nil
}

func (s *Service) Get(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (transport.SupplierResponse, error) {
	supplier, err := s.repo.GetByID(ctx, scope, id)
	if err != nil {
		return transport.SupplierResponse{}, err
	}
	return ToResponse(supplier), nil
}

// GetMany returns the visible suppliers among ids, keeping the order of ids.
func (s *Service) GetMany(ctx context.Context, scope tenancy.Scope, ids []uuid.UUID) ([]repository.Supplier, error) {
	return s.repo.GetByIDs(ctx, scope, ids)
}

func (s *Service) Update(ctx context.Context, scope tenancy.Scope, id uuid.UUID, req transport.UpdateSupplierRequest) (transport.SupplierResponse, error) {
	supplier := fromRequest(req)
	supplier.ID = id

	updated, err := s.repo.Update(ctx, scope, supplier)
	if err != nil {
		return transport.SupplierResponse{}, err
	}
	return ToResponse(updated), nil
}

func (s *Service) Delete(ctx context.Context, scope tenancy.Scope, id uuid.UUID) error {
	return s.repo.Delete(ctx, scope, id)
}

func (s *Service) List(ctx context.Context, scope tenancy.Scope, req transport.ListSuppliersRequest) (transport.SupplierListResponse, error) {
	result, err := s.repo.List(ctx, repository.ListParams{
		Scope:      scope,
		Search:     req.Search,
		AreaCodes:  nonEmpty(req.AreaCodes, false),
		Cities:     nonEmpty(req.Cities, false),
		States:     nonEmpty(req.States, false),
		Categories: nonEmpty(req.Categories, true),
		SortBy:     req.SortBy,
		SortOrder:  req.SortOrder,
		Page:       req.Page,
		PageSize:   req.PageSize,
	})
	if err != nil {
		return transport.SupplierListResponse{}, err
	}

	items := make([]transport.SupplierResponse, 0, len(result.Items))
	for _, it := range result.Items {
		items = append(items, ToResponse(it))
	}
	return transport.SupplierListResponse{
		Items:      items,
		Total:      result.Total,
		Page:       result.Page,
		PageSize:   result.PageSize,
		TotalPages: result.TotalPages,
	}, nil
}

func (s *Service) ListSpecializations(ctx context.Context, scope tenancy.Scope) ([]transport.SpecializationResponse, error) {
	items, err := s.repo.ListSpecializations(ctx, scope)
	if err != nil {
		return nil, err
	}
	out := make([]transport.SpecializationResponse, 0, len(items))
	for _, it := range items {
		out = append(out, transport.SpecializationResponse{ID: it.ID, Name: it.Name, CreatedAt: it.CreatedAt})
	}
	return out, nil
}

func (s *Service) CreateSpecialization(ctx context.Context, scope tenancy.Scope, req transport.CreateSpecializationRequest) (transport.SpecializationResponse, error) {
	created, err := s.repo.CreateSpecialization(ctx, repository.Specialization{
		ID:        uuid.New(),
		UserID:    scope.UserID,
		CompanyID: scope.CompanyID,
		Name:      sanitize.Text(req.Name),
	})
	if err != nil {
		return transport.SpecializationResponse{}, err
	}
	return transport.SpecializationResponse{ID: created.ID, Name: created.Name, CreatedAt: created.CreatedAt}, nil
}

func (s *Service) DeleteSpecialization(ctx context.Context, scope tenancy.Scope, id uuid.UUID) error {
	return s.repo.DeleteSpecialization(ctx, scope, id)
}

// ToResponse maps a stored supplier to its API shape.
func ToResponse(s repository.Supplier) transport.SupplierResponse {
	resp := transport.SupplierResponse{
		ID:         s.ID,
		Name:       s.Name,
		Phone:      s.Phone,
		AreaCode:   s.AreaCode,
		City:       s.City,
		State:      s.State,
		Categories: s.Categories,
		CreatedAt:  s.CreatedAt,
		UpdatedAt:  s.UpdatedAt,
	}
	if resp.Categories == nil {
		resp.Categories = []string{}
	}
	if number, err := phone.NormalizeBR(deref(s.AreaCode), deref(s.Phone)); err == nil {
		resp.DisplayPhone = phone.Display(number)
	}
	return resp
}

func fromRequest(req transport.CreateSupplierRequest) repository.Supplier {
	var state *string
	if req.State != nil {
		upper := strings.ToUpper(strings.TrimSpace(*req.State))
		state = &upper
	}
	return repository.Supplier{
		Name:       sanitize.Text(req.Name),
		Phone:      digitsPtr(req.Phone),
		AreaCode:   digitsPtr(req.AreaCode),
		City:       sanitize.TextPtr(req.City),
		State:      state,
		Categories: nonEmpty(req.Categories, true),
	}
}

// nonEmpty trims values, drops blanks and duplicates.
func nonEmpty(values []string, sanitizeText bool) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		if sanitizeText {
			v = sanitize.Text(v)
		} else {
			v = strings.TrimSpace(v)
		}
		if v == "" {
			continue
		}
		key := strings.ToLower(v)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, v)
	}
	return out
}

func digitsPtr(s *string) *string {
	if s == nil {
		return nil
	}
	d := phone.Digits(*s)
	if d == "" {
		return nil
	}
	return &d
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
