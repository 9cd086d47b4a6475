// Package templates provides the message template bounded context: the
// texts sent to suppliers when a quotation is dispatched.
package templates

import (
	"autoparts_quotes_backend/internal/events"
	apphttp "autoparts_quotes_backend/internal/http"
	"autoparts_quotes_backend/internal/templates/handler"
	"autoparts_quotes_backend/internal/templates/repository"
	"autoparts_quotes_backend/internal/templates/service"
	"autoparts_quotes_backend/platform/logger"
	"autoparts_quotes_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the templates bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the templates module with all its dependencies.
func NewModule(pool *pgxpool.Pool, val *validator.Validator, log *logger.Logger) *Module {
	svc := service.New(repository.New(pool), log)
	return &Module{handler: handler.New(svc, val), service: svc}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "templates"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterHandlers subscribes the module to domain events.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.UserSignedUp{}.EventName(), events.HandlerFunc(m.service.HandleUserSignedUp))
}

// RegisterRoutes mounts template routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/message-templates"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
