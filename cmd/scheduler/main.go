package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"autoparts_quotes_backend/internal/adapters"
	"autoparts_quotes_backend/internal/adapters/storage"
	"autoparts_quotes_backend/internal/events"
	"autoparts_quotes_backend/internal/notification"
	"autoparts_quotes_backend/internal/quoterequests"
	quoterequestsvc "autoparts_quotes_backend/internal/quoterequests/service"
	"autoparts_quotes_backend/internal/scheduler"
	"autoparts_quotes_backend/internal/suppliers"
	"autoparts_quotes_backend/internal/templates"
	"autoparts_quotes_backend/internal/whatsapp"
	"autoparts_quotes_backend/platform/config"
	"autoparts_quotes_backend/platform/db"
	"autoparts_quotes_backend/platform/logger"
	"autoparts_quotes_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	eventBus := events.NewInMemoryBus(log)

	// Worker-side activity logging only; reminders are armed by the API.
	notification.New(log, nil, 0).RegisterHandlers(eventBus)

	val := validator.New()

	var storageSvc storage.StorageService
	if minio, err := storage.NewMinIOService(cfg); err != nil {
		log.Warn("storage not configured; follow-ups will skip vehicle photos", "error", err)
	} else {
		storageSvc = minio
	}

	// Worker-side quotation request wiring (no HTTP handlers required).
	whatsappModule := whatsapp.NewModule(pool, cfg, val, log)
	suppliersModule := suppliers.NewModule(pool, val)
	templatesModule := templates.NewModule(pool, val, log)
	quoteRequestsModule := quoterequests.NewModule(pool, quoterequests.Deps{
		Suppliers: adapters.NewSupplierDirectory(suppliersModule.Service()),
		Messenger: adapters.NewWhatsAppMessenger(
			whatsappModule.Service(),
			storageSvc,
			cfg.GetMinioBucketVehicleImages(),
			cfg.GetMinioBucketPurchaseOrders(),
		),
		Templates: adapters.NewMessageTemplates(templatesModule.Service()),
		EventBus:  eventBus,
	}, quoterequestsvc.Options{
		AppBaseURL:   cfg.GetAppBaseURL(),
		SendInterval: cfg.GetTemplateSendInterval(),
	}, val, log)

	worker, err := scheduler.NewWorker(cfg, quoteRequestsModule.Service(), log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	worker.Run(ctx)
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
