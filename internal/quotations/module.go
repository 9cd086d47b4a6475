// Package quotations provides the quotation intake bounded context: a
// vehicle plus the list of parts a repair shop needs priced.
package quotations

import (
	"autoparts_quotes_backend/internal/events"
	apphttp "autoparts_quotes_backend/internal/http"
	"autoparts_quotes_backend/internal/quotations/handler"
	"autoparts_quotes_backend/internal/quotations/repository"
	"autoparts_quotes_backend/internal/quotations/service"
	"autoparts_quotes_backend/platform/logger"
	"autoparts_quotes_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the quotations bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the quotations module.
func NewModule(pool *pgxpool.Pool, expander service.TextExpander, eventBus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	svc := service.New(repository.New(pool), expander, eventBus, log)
	return &Module{
		handler: handler.New(svc, val),
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "quotations"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts quotation routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/quotations"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
