package service

import (
	"context"
	"strings"
	"time"

	"autoparts_quotes_backend/internal/abbreviations/cache"
	"autoparts_quotes_backend/internal/abbreviations/repository"
	"autoparts_quotes_backend/internal/abbreviations/transport"
	"autoparts_quotes_backend/platform/apperr"
	"autoparts_quotes_backend/platform/sanitize"
	"autoparts_quotes_backend/platform/tenancy"

	"github.com/google/uuid"
)

// Repository is the storage the service needs.
type Repository interface {
	List(ctx context.Context, scope tenancy.Scope) ([]repository.Abbreviation, error)
	Create(ctx context.Context, a repository.Abbreviation) (repository.Abbreviation, error)
	Update(ctx context.Context, scope tenancy.Scope, id uuid.UUID, fullText string) (repository.Abbreviation, error)
	Delete(ctx context.Context, scope tenancy.Scope, id uuid.UUID) error
}

// Service provides business logic for text abbreviations.
type Service struct {
	repo        Repository
	cache       *cache.Cache
	invalidator cache.Invalidator
}

// New creates the service with its own cache. Invalidations stay local until
// SetInvalidator installs a cross-process one.
func New(repo Repository, ttl time.Duration) *Service {
	s := &Service{repo: repo}
	s.cache = cache.New(ttl, s.loadEntries)
	s.invalidator = cache.LocalInvalidator{Cache: s.cache}
	return s
}

// Cache exposes the cache so a Redis invalidator can be bound to it.
func (s *Service) Cache() *cache.Cache {
	return s.cache
}

func (s *Service) SetInvalidator(inv cache.Invalidator) {
	s.invalidator = inv
}

func (s *Service) List(ctx context.Context, scope tenancy.Scope) ([]transport.AbbreviationResponse, error) {
	items, err := s.repo.List(ctx, scope)
	if err != nil {
		return nil, err
	}
	out := make([]transport.AbbreviationResponse, 0, len(items))
	for _, item := range items {
		out = append(out, mapAbbreviation(item))
	}
	return out, nil
}

func (s *Service) Create(ctx context.Context, scope tenancy.Scope, req transport.CreateAbbreviationRequest) (transport.AbbreviationResponse, error) {
	abbr := strings.ToUpper(sanitize.Text(req.Abbreviation))
	full := sanitize.Text(req.FullText)
	if abbr == "" || full == "" {
		return transport.AbbreviationResponse{}, apperr.Validation("abbreviation and full text are required")
	}

	created, err := s.repo.Create(ctx, repository.Abbreviation{
		ID:           uuid.New(),
		UserID:       scope.UserID,
		CompanyID:    scope.CompanyID,
		Abbreviation: abbr,
		FullText:     full,
		CreatedAt:    time.Now(),
	})
	if err != nil {
		return transport.AbbreviationResponse{}, err
	}
	s.invalidator.Invalidate(ctx)
	return mapAbbreviation(created), nil
}

func (s *Service) Update(ctx context.Context, scope tenancy.Scope, id uuid.UUID, req transport.UpdateAbbreviationRequest) (transport.AbbreviationResponse, error) {
	updated, err := s.repo.Update(ctx, scope, id, sanitize.Text(req.FullText))
	if err != nil {
		return transport.AbbreviationResponse{}, err
	}
	s.invalidator.Invalidate(ctx)
	return mapAbbreviation(updated), nil
}

func (s *Service) Delete(ctx context.Context, scope tenancy.Scope, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, scope, id); err != nil {
		return err
	}
	s.invalidator.Invalidate(ctx)
	return nil
}

// Expand applies the scope's abbreviations to text.
func (s *Service) Expand(ctx context.Context, scope tenancy.Scope, text string) (string, error) {
	exp, err := s.cache.Expander(ctx, scope)
	if err != nil {
		return "", err
	}
	return exp.Expand(text), nil
}

// Expander returns the cached expander for repeated use within one request.
func (s *Service) Expander(ctx context.Context, scope tenancy.Scope) (*cache.Expander, error) {
	return s.cache.Expander(ctx, scope)
}

func (s *Service) loadEntries(ctx context.Context, scope tenancy.Scope) ([]cache.Entry, error) {
	items, err := s.repo.List(ctx, scope)
	if err != nil {
		return nil, err
	}
	entries := make([]cache.Entry, 0, len(items))
	for _, item := range items {
		entries = append(entries, cache.Entry{Abbreviation: item.Abbreviation, FullText: item.FullText})
	}
	return entries, nil
}

func mapAbbreviation(a repository.Abbreviation) transport.AbbreviationResponse {
	return transport.AbbreviationResponse{
		ID:           a.ID,
		Abbreviation: a.Abbreviation,
		FullText:     a.FullText,
		CreatedAt:    a.CreatedAt,
	}
}
