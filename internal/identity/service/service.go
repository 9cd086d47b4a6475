package service

import (
	"context"
	"strings"

	"autoparts_quotes_backend/internal/identity/repository"
	"autoparts_quotes_backend/internal/identity/transport"
	"autoparts_quotes_backend/platform/apperr"
	"autoparts_quotes_backend/platform/httpkit"
	"autoparts_quotes_backend/platform/sanitize"
	"autoparts_quotes_backend/platform/tenancy"

	"github.com/google/uuid"
)

const msgNoCompany = "user does not belong to a company"

// Repository is the storage the identity service needs.
type Repository interface {
	GetMembership(ctx context.Context, userID uuid.UUID) (repository.Membership, bool, error)
	CreateCompany(ctx context.Context, name string, document *string, createdBy uuid.UUID) (repository.Company, error)
	GetCompany(ctx context.Context, companyID uuid.UUID) (repository.Company, error)
	UpdateCompany(ctx context.Context, companyID uuid.UUID, name *string, document *string) (repository.Company, error)
	ListMembers(ctx context.Context, companyID uuid.UUID) ([]repository.Member, error)
	AddMemberByEmail(ctx context.Context, companyID uuid.UUID, email, role string) (repository.Member, error)
	UpdateMemberRole(ctx context.Context, companyID, userID uuid.UUID, role string) error
	RemoveMember(ctx context.Context, companyID, userID uuid.UUID) error
	CountAdmins(ctx context.Context, companyID uuid.UUID) (int, error)
	GetWorkshop(ctx context.Context, userID uuid.UUID, companyID *uuid.UUID) (repository.Workshop, error)
	UpsertWorkshop(ctx context.Context, w repository.Workshop) (repository.Workshop, error)
}

type Service struct {
	repo Repository
}

func New(repo Repository) *Service {
	return &Service{repo: repo}
}

// ResolveCompany implements httpkit.CompanyResolver.
func (s *Service) ResolveCompany(ctx context.Context, userID uuid.UUID) (httpkit.CompanyMembership, bool, error) {
	m, ok, err := s.repo.GetMembership(ctx, userID)
	if err != nil || !ok {
		return httpkit.CompanyMembership{}, ok, err
	}
	return httpkit.CompanyMembership{CompanyID: m.CompanyID, Role: m.Role}, true, nil
}

func (s *Service) CreateCompany(ctx context.Context, scope tenancy.Scope, req transport.CreateCompanyRequest) (transport.CompanyResponse, error) {
	if scope.CompanyID != nil {
		return transport.CompanyResponse{}, apperr.Conflict("user already belongs to a company")
	}
	c, err := s.repo.CreateCompany(ctx, sanitize.Text(req.Name), sanitize.TextPtr(req.Document), scope.UserID)
	if err != nil {
		return transport.CompanyResponse{}, err
	}
	return mapCompany(c, httpkit.CompanyRoleAdmin), nil
}

func (s *Service) GetCompany(ctx context.Context, scope tenancy.Scope, role string) (transport.CompanyResponse, error) {
	if scope.CompanyID == nil {
		return transport.CompanyResponse{}, apperr.NotFound(msgNoCompany)
	}
	c, err := s.repo.GetCompany(ctx, *scope.CompanyID)
	if err != nil {
		return transport.CompanyResponse{}, err
	}
	return mapCompany(c, role), nil
}

func (s *Service) UpdateCompany(ctx context.Context, companyID uuid.UUID, req transport.UpdateCompanyRequest) (transport.CompanyResponse, error) {
	c, err := s.repo.UpdateCompany(ctx, companyID, sanitize.TextPtr(req.Name), sanitize.TextPtr(req.Document))
	if err != nil {
		return transport.CompanyResponse{}, err
	}
	return mapCompany(c, httpkit.CompanyRoleAdmin), nil
}

func (s *Service) ListMembers(ctx context.Context, companyID uuid.UUID) ([]transport.MemberResponse, error) {
	members, err := s.repo.ListMembers(ctx, companyID)
	if err != nil {
		return nil, err
	}
	out := make([]transport.MemberResponse, 0, len(members))
	for _, m := range members {
		out = append(out, mapMember(m))
	}
	return out, nil
}

func (s *Service) AddMember(ctx context.Context, companyID uuid.UUID, req transport.AddMemberRequest) (transport.MemberResponse, error) {
	m, err := s.repo.AddMemberByEmail(ctx, companyID, strings.ToLower(strings.TrimSpace(req.Email)), req.Role)
	if err != nil {
		return transport.MemberResponse{}, err
	}
	return mapMember(m), nil
}

func (s *Service) UpdateMemberRole(ctx context.Context, companyID, actorID, userID uuid.UUID, req transport.UpdateMemberRoleRequest) error {
	if req.Role != httpkit.CompanyRoleAdmin {
		if err := s.ensureAnotherAdmin(ctx, companyID, actorID, userID); err != nil {
			return err
		}
	}
	return s.repo.UpdateMemberRole(ctx, companyID, userID, req.Role)
}

func (s *Service) RemoveMember(ctx context.Context, companyID, actorID, userID uuid.UUID) error {
	if err := s.ensureAnotherAdmin(ctx, companyID, actorID, userID); err != nil {
		return err
	}
	return s.repo.RemoveMember(ctx, companyID, userID)
}

// ensureAnotherAdmin keeps at least one admin when an admin demotes or removes themself.
func (s *Service) ensureAnotherAdmin(ctx context.Context, companyID, actorID, userID uuid.UUID) error {
	if actorID != userID {
		return nil
	}
	n, err := s.repo.CountAdmins(ctx, companyID)
	if err != nil {
		return err
	}
	if n <= 1 {
		return apperr.Conflict("a company needs at least one admin")
	}
	return nil
}

func (s *Service) GetWorkshop(ctx context.Context, scope tenancy.Scope) (transport.WorkshopResponse, error) {
	w, err := s.repo.GetWorkshop(ctx, scope.UserID, scope.CompanyID)
	if err != nil {
		return transport.WorkshopResponse{}, err
	}
	return mapWorkshop(w), nil
}

func (s *Service) UpsertWorkshop(ctx context.Context, scope tenancy.Scope, req transport.UpsertWorkshopRequest) (transport.WorkshopResponse, error) {
	var state *string
	if req.State != nil {
		upper := strings.ToUpper(strings.TrimSpace(*req.State))
		state = &upper
	}
	w, err := s.repo.UpsertWorkshop(ctx, repository.Workshop{
		ID:        uuid.New(),
		UserID:    scope.UserID,
		CompanyID: scope.CompanyID,
		Name:      sanitize.Text(req.Name),
		Phone:     sanitize.TextPtr(req.Phone),
		Address:   sanitize.TextPtr(req.Address),
		City:      sanitize.TextPtr(req.City),
		State:     state,
		Document:  sanitize.TextPtr(req.Document),
	})
	if err != nil {
		return transport.WorkshopResponse{}, err
	}
	return mapWorkshop(w), nil
}

func mapCompany(c repository.Company, role string) transport.CompanyResponse {
	return transport.CompanyResponse{ID: c.ID, Name: c.Name, Document: c.Document, Role: role, CreatedAt: c.CreatedAt}
}

func mapMember(m repository.Member) transport.MemberResponse {
	return transport.MemberResponse{UserID: m.UserID, Email: m.Email, Role: m.Role, CreatedAt: m.CreatedAt}
}

func mapWorkshop(w repository.Workshop) transport.WorkshopResponse {
	return transport.WorkshopResponse{
		ID:        w.ID,
		Name:      w.Name,
		Phone:     w.Phone,
		Address:   w.Address,
		City:      w.City,
		State:     w.State,
		Document:  w.Document,
		UpdatedAt: w.UpdatedAt,
	}
}

var _ httpkit.CompanyResolver = (*Service)(nil)
