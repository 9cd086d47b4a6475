// Package counteroffers lets a requester propose lower prices on an
// answered quotation request and lets the supplier accept them per part.
package counteroffers

import (
	"autoparts_quotes_backend/internal/counteroffers/handler"
	"autoparts_quotes_backend/internal/counteroffers/repository"
	"autoparts_quotes_backend/internal/counteroffers/service"
	"autoparts_quotes_backend/internal/events"
	apphttp "autoparts_quotes_backend/internal/http"
	"autoparts_quotes_backend/platform/logger"
	"autoparts_quotes_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the counter offers bounded context module implementing http.Module.
type Module struct {
	handler       *handler.Handler
	publicHandler *handler.PublicHandler
	service       *service.Service
}

// NewModule creates and initializes the counter offers module.
func NewModule(pool *pgxpool.Pool, eventBus events.Bus, appBaseURL string, val *validator.Validator, log *logger.Logger) *Module {
	svc := service.New(repository.New(pool), eventBus, appBaseURL, log)
	return &Module{
		handler:       handler.New(svc, val),
		publicHandler: handler.NewPublicHandler(svc, val),
		service:       svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "counteroffers"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts counter offer routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/counter-offers"))
	m.handler.RegisterRequestRoutes(ctx.Protected.Group("/quotation-requests"))
	m.handler.RegisterQuotationRoutes(ctx.Protected.Group("/quotations"))

	// Public routes: no auth middleware
	m.publicHandler.RegisterRoutes(ctx.Public.Group("/counter-offer"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
