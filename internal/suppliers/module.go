// Package suppliers provides the supplier directory bounded context: parts
// vendors, their region and category tags.
package suppliers

import (
	apphttp "autoparts_quotes_backend/internal/http"
	"autoparts_quotes_backend/internal/suppliers/handler"
	"autoparts_quotes_backend/internal/suppliers/repository"
	"autoparts_quotes_backend/internal/suppliers/service"
	"autoparts_quotes_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the suppliers bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the suppliers module with all its dependencies.
func NewModule(pool *pgxpool.Pool, val *validator.Validator) *Module {
	svc := service.New(repository.New(pool))
	return &Module{handler: handler.New(svc, val), service: svc}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "suppliers"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts supplier routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/suppliers"))
	m.handler.RegisterSpecializationRoutes(ctx.Protected.Group("/specializations"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
