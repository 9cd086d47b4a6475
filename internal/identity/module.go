// Package identity provides companies, company membership and the workshop
// profile, and resolves the company used to widen tenancy scopes.
package identity

import (
	apphttp "autoparts_quotes_backend/internal/http"
	"autoparts_quotes_backend/internal/identity/handler"
	"autoparts_quotes_backend/internal/identity/repository"
	"autoparts_quotes_backend/internal/identity/service"
	"autoparts_quotes_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Module struct {
	handler *handler.Handler
	service *service.Service
}

func NewModule(pool *pgxpool.Pool, val *validator.Validator) *Module {
	svc := service.New(repository.New(pool))
	return &Module{handler: handler.New(svc, val), service: svc}
}

func (m *Module) Name() string {
	return "identity"
}

func (m *Module) Service() *service.Service {
	return m.service
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected)
	m.handler.RegisterAdminRoutes(ctx.CompanyAdmin)
}

var _ apphttp.Module = (*Module)(nil)
