// Package purchasing aggregates best prices across supplier answers and
// turns chosen offers into per-supplier purchase orders.
package purchasing

import (
	"autoparts_quotes_backend/internal/events"
	apphttp "autoparts_quotes_backend/internal/http"
	"autoparts_quotes_backend/internal/purchasing/handler"
	"autoparts_quotes_backend/internal/purchasing/repository"
	"autoparts_quotes_backend/internal/purchasing/service"
	"autoparts_quotes_backend/platform/logger"
	"autoparts_quotes_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the purchasing bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the purchasing module.
func NewModule(pool *pgxpool.Pool, messenger service.Messenger, eventBus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	svc := service.New(repository.New(pool), messenger, eventBus, log)
	return &Module{
		handler: handler.New(svc, val),
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "purchasing"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts best-price and purchase order routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterQuotationRoutes(ctx.Protected.Group("/quotations"))
	m.handler.RegisterRoutes(ctx.Protected.Group("/purchase-orders"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
