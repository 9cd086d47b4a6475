// Package whatsapp provides the messaging gateway bounded context: per-user
// gateway settings, pairing state, and the sender used by other modules.
package whatsapp

import (
	apphttp "autoparts_quotes_backend/internal/http"
	"autoparts_quotes_backend/internal/whatsapp/gateway"
	"autoparts_quotes_backend/internal/whatsapp/handler"
	"autoparts_quotes_backend/internal/whatsapp/repository"
	"autoparts_quotes_backend/internal/whatsapp/service"
	"autoparts_quotes_backend/platform/config"
	"autoparts_quotes_backend/platform/logger"
	"autoparts_quotes_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the whatsapp bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the whatsapp module with all its dependencies.
func NewModule(pool *pgxpool.Pool, cfg config.WhatsAppConfig, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	client := gateway.NewClient(cfg.GetWhatsAppHTTPTimeout(), log)
	svc := service.New(repo, client, log)
	return &Module{handler: handler.New(svc, val), service: svc}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "whatsapp"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts whatsapp routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/whatsapp"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
