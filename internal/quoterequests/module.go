// Package quoterequests provides supplier dispatch and response capture:
// one request per supplier and quotation, sent over WhatsApp and answered
// through a public form.
package quoterequests

import (
	"autoparts_quotes_backend/internal/events"
	apphttp "autoparts_quotes_backend/internal/http"
	"autoparts_quotes_backend/internal/quoterequests/handler"
	"autoparts_quotes_backend/internal/quoterequests/repository"
	"autoparts_quotes_backend/internal/quoterequests/service"
	"autoparts_quotes_backend/platform/logger"
	"autoparts_quotes_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the quotation requests bounded context module implementing http.Module.
type Module struct {
	handler       *handler.Handler
	publicHandler *handler.PublicHandler
	service       *service.Service
}

// Deps are the cross-module collaborators, implemented in internal/adapters.
type Deps struct {
	Suppliers service.SupplierDirectory
	Messenger service.Messenger
	Templates service.Templates
	EventBus  events.Bus
}

// NewModule creates and initializes the quotation requests module.
func NewModule(pool *pgxpool.Pool, deps Deps, opts service.Options, val *validator.Validator, log *logger.Logger) *Module {
	svc := service.New(repository.New(pool), deps.Suppliers, deps.Messenger, deps.Templates, deps.EventBus, opts, log)
	return &Module{
		handler:       handler.New(svc, val),
		publicHandler: handler.NewPublicHandler(svc, val),
		service:       svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "quoterequests"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts dispatch and public response routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterQuotationRoutes(ctx.Protected.Group("/quotations"))
	m.handler.RegisterRoutes(ctx.Protected.Group("/quotation-requests"))

	// Public routes: no auth middleware
	m.publicHandler.RegisterRoutes(ctx.Public.Group("/supplier-response"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
