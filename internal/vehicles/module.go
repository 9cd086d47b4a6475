// Package vehicles provides the vehicle registry bounded context: vehicles,
// their photos and the parts attached to them.
package vehicles

import (
	"autoparts_quotes_backend/internal/adapters/storage"
	apphttp "autoparts_quotes_backend/internal/http"
	"autoparts_quotes_backend/internal/vehicles/handler"
	"autoparts_quotes_backend/internal/vehicles/repository"
	"autoparts_quotes_backend/internal/vehicles/service"
	"autoparts_quotes_backend/platform/logger"
	"autoparts_quotes_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the vehicles bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the vehicles module. storageSvc may be nil.
func NewModule(pool *pgxpool.Pool, storageSvc storage.StorageService, bucket string, val *validator.Validator, log *logger.Logger) *Module {
	svc := service.New(repository.New(pool), storageSvc, bucket, log)
	return &Module{
		handler: handler.New(svc, val),
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "vehicles"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts vehicle routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/vehicles"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
