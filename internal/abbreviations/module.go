// Package abbreviations provides the text abbreviation bounded context used to
// expand bulk-pasted part descriptions.
package abbreviations

import (
	"context"

	"autoparts_quotes_backend/internal/abbreviations/cache"
	"autoparts_quotes_backend/internal/abbreviations/handler"
	"autoparts_quotes_backend/internal/abbreviations/repository"
	"autoparts_quotes_backend/internal/abbreviations/service"
	apphttp "autoparts_quotes_backend/internal/http"
	"autoparts_quotes_backend/platform/config"
	"autoparts_quotes_backend/platform/logger"
	"autoparts_quotes_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the abbreviations bounded context module implementing http.Module.
type Module struct {
	handler     *handler.Handler
	service     *service.Service
	invalidator *cache.RedisInvalidator
	log         *logger.Logger
}

// NewModule creates the module. With REDIS_URL set, cache invalidations are
// broadcast to every process; otherwise they stay local.
func NewModule(pool *pgxpool.Pool, cfg config.AbbreviationConfig, val *validator.Validator, log *logger.Logger) *Module {
	svc := service.New(repository.New(pool), cfg.GetAbbreviationCacheTTL())
	m := &Module{handler: handler.New(svc, val), service: svc, log: log}

	if cfg.GetRedisURL() != "" {
		inv, err := cache.NewRedisInvalidator(cfg.GetRedisURL(), svc.Cache(), log)
		if err != nil {
			log.Warn("abbreviation cache invalidation stays local", "error", err)
		} else {
			svc.SetInvalidator(inv)
			m.invalidator = inv
		}
	}
	return m
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "abbreviations"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// Listen consumes invalidation broadcasts until ctx is done. No-op without Redis.
func (m *Module) Listen(ctx context.Context) {
	if m.invalidator == nil {
		return
	}
	if err := m.invalidator.Listen(ctx); err != nil {
		m.log.Error("abbreviation invalidation listener stopped", "error", err)
	}
}

// Close releases the Redis connection, if any.
func (m *Module) Close() {
	if m.invalidator != nil {
		_ = m.invalidator.Close()
	}
}

// RegisterRoutes mounts abbreviation routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/abbreviations"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
