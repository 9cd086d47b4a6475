package service

import (
	"context"

	"autoparts_quotes_backend/internal/events"
	"autoparts_quotes_backend/internal/templates/repository"
	"autoparts_quotes_backend/internal/templates/transport"
	"autoparts_quotes_backend/platform/apperr"
	"autoparts_quotes_backend/platform/logger"
	"autoparts_quotes_backend/platform/sanitize"
	"autoparts_quotes_backend/platform/tenancy"

	"github.com/google/uuid"
)

// Repository is the storage the service needs.
type Repository interface {
	List(ctx context.Context, scope tenancy.Scope) ([]repository.Template, error)
	GetByID(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (repository.Template, error)
	GetDefault(ctx context.Context, scope tenancy.Scope) (repository.Template, error)
	CountOwned(ctx context.Context, userID uuid.UUID) (int, error)
	Create(ctx context.Context, t repository.Template) (repository.Template, error)
	CreateMany(ctx context.Context, items []repository.Template) error
	Update(ctx context.Context, scope tenancy.Scope, id uuid.UUID, update repository.TemplateUpdate) (repository.Template, error)
	Delete(ctx context.Context, scope tenancy.Scope, id uuid.UUID) error
	SetDefault(ctx context.Context, scope tenancy.Scope, id uuid.UUID) error
	Swap(ctx context.Context, first, second uuid.UUID) error
	Normalize(ctx context.Context, owner uuid.UUID) error
}

// Service provides business logic for message templates.
type Service struct {
	repo Repository
	log  *logger.Logger
}

// New creates a new templates service.
func New(repo Repository, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// List returns the scope's templates in send order, seeding an empty account first.
func (s *Service) List(ctx context.Context, scope tenancy.Scope) ([]transport.TemplateResponse, error) {
	items, err := s.repo.List(ctx, scope)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		if err := s.Seed(ctx, scope); err != nil {
			return nil, err
		}
		if items, err = s.repo.List(ctx, scope); err != nil {
			return nil, err
		}
	}
	out := make([]transport.TemplateResponse, 0, len(items))
	for _, t := range items {
		out = append(out, mapTemplate(t))
	}
	return out, nil
}

func (s *Service) Create(ctx context.Context, scope tenancy.Scope, req transport.CreateTemplateRequest) (transport.TemplateResponse, error) {
	t, err := s.repo.Create(ctx, repository.Template{
		ID:        uuid.New(),
		UserID:    scope.UserID,
		CompanyID: scope.CompanyID,
		Name:      sanitize.Text(req.Name),
		Content:   sanitize.MultilineText(req.Content),
	})
	if err != nil {
		return transport.TemplateResponse{}, err
	}
	return mapTemplate(t), nil
}

func (s *Service) Update(ctx context.Context, scope tenancy.Scope, id uuid.UUID, req transport.UpdateTemplateRequest) (transport.TemplateResponse, error) {
	update := repository.TemplateUpdate{Name: sanitize.TextPtr(req.Name)}
	if req.Content != nil {
		content := sanitize.MultilineText(*req.Content)
		update.Content = &content
	}
	t, err := s.repo.Update(ctx, scope, id, update)
	if err != nil {
		return transport.TemplateResponse{}, err
	}
	return mapTemplate(t), nil
}

func (s *Service) Delete(ctx context.Context, scope tenancy.Scope, id uuid.UUID) error {
	t, err := s.repo.GetByID(ctx, scope, id)
	if err != nil {
		return err
	}
	if t.IsDefault {
		return apperr.Conflict("choose another default template before deleting this one")
	}
	return s.repo.Delete(ctx, scope, id)
}

func (s *Service) SetDefault(ctx context.Context, scope tenancy.Scope, id uuid.UUID) error {
	return s.repo.SetDefault(ctx, scope, id)
}

// Move swaps the template with its neighbour in the owner's sequence.
func (s *Service) Move(ctx context.Context, scope tenancy.Scope, id uuid.UUID, req transport.MoveTemplateRequest) ([]transport.TemplateResponse, error) {
	items, err := s.repo.List(ctx, scope)
	if err != nil {
		return nil, err
	}
	idx := -1
	for i, t := range items {
		if t.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, apperr.NotFound("message template not found")
	}

	neighbour := idx - 1
	if req.Direction == "down" {
		neighbour = idx + 1
	}
	if neighbour < 0 || neighbour >= len(items) {
		return s.List(ctx, scope)
	}
	if items[idx].UserID != items[neighbour].UserID {
		return nil, apperr.Forbidden("templates belong to different owners")
	}

	// Sequence gaps or duplicates would make the swap a no-op.
	if items[idx].Sequence == items[neighbour].Sequence {
		if err := s.repo.Normalize(ctx, items[idx].UserID); err != nil {
			return nil, err
		}
	}
	if err := s.repo.Swap(ctx, items[idx].ID, items[neighbour].ID); err != nil {
		return nil, err
	}
	return s.List(ctx, scope)
}

// Preview renders content with sample vehicle data.
func (s *Service) Preview(req transport.PreviewRequest) transport.PreviewResponse {
	return transport.PreviewResponse{Text: Render(req.Content, Values{
		Brand:    "Volkswagen",
		Model:    "Gol",
		Year:     "2020",
		Chassis:  "9BWAB45U0LT000001",
		Plate:    "ABC1D23",
		Parts:    "1. Para-choque dianteiro (1x)\n2. Farol esquerdo (1x)",
		Link:     "https://app.example.com/supplier-response/...",
		Supplier: "Auto Peças Exemplo",
	})}
}

// Default returns the scope's default template content.
// ok is false when the scope has no default.
func (s *Service) Default(ctx context.Context, scope tenancy.Scope) (content string, ok bool, err error) {
	t, err := s.repo.GetDefault(ctx, scope)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	return t.Content, true, nil
}

// Sequence returns every template content in send order.
func (s *Service) Sequence(ctx context.Context, scope tenancy.Scope) ([]string, error) {
	items, err := s.repo.List(ctx, scope)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(items))
	for _, t := range items {
		out = append(out, t.Content)
	}
	return out, nil
}

// Seed creates the embedded starter templates for a user without templates.
func (s *Service) Seed(ctx context.Context, scope tenancy.Scope) error {
	n, err := s.repo.CountOwned(ctx, scope.UserID)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	seeds, err := parseSeed(defaultTemplatesYAML)
	if err != nil {
		return err
	}
	items := make([]repository.Template, 0, len(seeds))
	for i, seed := range seeds {
		items = append(items, repository.Template{
			ID:        uuid.New(),
			UserID:    scope.UserID,
			CompanyID: scope.CompanyID,
			Name:      seed.Name,
			Content:   seed.Content,
			Sequence:  i + 1,
			IsDefault: seed.Default,
		})
	}
	return s.repo.CreateMany(ctx, items)
}

// HandleUserSignedUp seeds templates for new accounts.
func (s *Service) HandleUserSignedUp(ctx context.Context, event events.Event) error {
	e, ok := event.(events.UserSignedUp)
	if !ok {
		return nil
	}
	if err := s.Seed(ctx, tenancy.ForUser(e.UserID)); err != nil {
		s.log.Error("failed to seed message templates", "userId", e.UserID, "error", err)
		return err
	}
	return nil
}

func mapTemplate(t repository.Template) transport.TemplateResponse {
	return transport.TemplateResponse{
		ID:        t.ID,
		Name:      t.Name,
		Content:   t.Content,
		Sequence:  t.Sequence,
		IsDefault: t.IsDefault,
		UpdatedAt: t.UpdatedAt,
	}
}
