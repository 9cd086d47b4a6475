package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"autoparts_quotes_backend/internal/abbreviations"
	"autoparts_quotes_backend/internal/adapters"
	"autoparts_quotes_backend/internal/adapters/storage"
	"autoparts_quotes_backend/internal/auth"
	"autoparts_quotes_backend/internal/counteroffers"
	"autoparts_quotes_backend/internal/events"
	"autoparts_quotes_backend/internal/extraction"
	apphttp "autoparts_quotes_backend/internal/http"
	"autoparts_quotes_backend/internal/http/router"
	"autoparts_quotes_backend/internal/identity"
	"autoparts_quotes_backend/internal/notification"
	"autoparts_quotes_backend/internal/purchasing"
	"autoparts_quotes_backend/internal/quotations"
	"autoparts_quotes_backend/internal/quoterequests"
	quoterequestsvc "autoparts_quotes_backend/internal/quoterequests/service"
	"autoparts_quotes_backend/internal/scheduler"
	"autoparts_quotes_backend/internal/suppliers"
	"autoparts_quotes_backend/internal/templates"
	"autoparts_quotes_backend/internal/vehicles"
	"autoparts_quotes_backend/internal/whatsapp"
	"autoparts_quotes_backend/platform/config"
	"autoparts_quotes_backend/platform/db"
	"autoparts_quotes_backend/platform/logger"
	"autoparts_quotes_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

const storageBucketEnsureErrPrefix = "failed to ensure storage bucket exists: "
const storageBucketEnsureErrMsg = "failed to ensure storage bucket exists"

// ensureBucket wraps the retry logic for verifying a MinIO bucket exists.
func ensureBucket(ctx context.Context, log *logger.Logger, storageSvc storage.StorageService, name, bucket string) {
	if err := withRetry(ctx, log, "ensure "+name+" bucket", 5, 2*time.Second, func() error {
		return storageSvc.EnsureBucketExists(ctx, bucket)
	}); err != nil {
		log.Error(storageBucketEnsureErrMsg, "error", err, "bucket", bucket)
		panic(storageBucketEnsureErrPrefix + err.Error())
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

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
	log.Info("database connection established")

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, pool)
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	followUps, closeScheduler := initFollowUpScheduler(cfg, log)
	if closeScheduler != nil {
		defer closeScheduler()
	}

	// Shared validator instance for dependency injection
	val := validator.New()

	// Storage service for vehicle photos and purchase order PDFs (MinIO)
	storageSvc, err := storage.NewMinIOService(cfg)
	if err != nil {
		log.Error("failed to initialize storage service", "error", err)
		panic("failed to initialize storage service: " + err.Error())
	}
	ensureBucket(ctx, log, storageSvc, "vehicle-images", cfg.GetMinioBucketVehicleImages())
	ensureBucket(ctx, log, storageSvc, "purchase-orders", cfg.GetMinioBucketPurchaseOrders())
	log.Info(
		"storage service initialized",
		"vehicleImagesBucket", cfg.GetMinioBucketVehicleImages(),
		"purchaseOrdersBucket", cfg.GetMinioBucketPurchaseOrders(),
	)

	// Vehicle document extraction: AI first, regex fallback
	geminiExtractor, err := extraction.NewGeminiExtractor(ctx, cfg)
	if err != nil {
		log.Error("failed to initialize gemini extractor", "error", err)
		panic("failed to initialize gemini extractor: " + err.Error())
	}
	extractors := []extraction.Extractor{}
	if geminiExtractor != nil {
		extractors = append(extractors, geminiExtractor)
		log.Info("AI vehicle extraction enabled", "model", cfg.GetGeminiModel())
	}
	extractors = append(extractors, extraction.NewRegexExtractor())
	extractionSvc := extraction.New(log, extractors...)

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	// Notification module subscribes to domain events (not HTTP-facing)
	notificationModule := notification.New(log, followUps, cfg.GetFollowUpDelay())
	notificationModule.RegisterHandlers(eventBus)

	identityModule := identity.NewModule(pool, val)
	authModule := auth.NewModule(pool, cfg, eventBus, val, log)
	whatsappModule := whatsapp.NewModule(pool, cfg, val, log)
	suppliersModule := suppliers.NewModule(pool, val)

	templatesModule := templates.NewModule(pool, val, log)
	templatesModule.RegisterHandlers(eventBus)

	abbreviationsModule := abbreviations.NewModule(pool, cfg, val, log)
	defer abbreviationsModule.Close()
	go abbreviationsModule.Listen(ctx)

	vehiclesModule := vehicles.NewModule(pool, storageSvc, cfg.GetMinioBucketVehicleImages(), val, log)
	vehiclesModule.Service().SetDocumentExtractor(adapters.NewVehicleExtractor(extractionSvc))

	quotationsModule := quotations.NewModule(pool, abbreviationsModule.Service(), eventBus, val, log)

	// Anti-Corruption Layer: quotation requests and purchasing only see their
	// own ports; the adapters translate to suppliers, templates and WhatsApp.
	messenger := adapters.NewWhatsAppMessenger(
		whatsappModule.Service(),
		storageSvc,
		cfg.GetMinioBucketVehicleImages(),
		cfg.GetMinioBucketPurchaseOrders(),
	)
	quoteRequestsModule := quoterequests.NewModule(pool, quoterequests.Deps{
		Suppliers: adapters.NewSupplierDirectory(suppliersModule.Service()),
		Messenger: messenger,
		Templates: adapters.NewMessageTemplates(templatesModule.Service()),
		EventBus:  eventBus,
	}, quoterequestsvc.Options{
		AppBaseURL:   cfg.GetAppBaseURL(),
		SendInterval: cfg.GetTemplateSendInterval(),
	}, val, log)

	counterOffersModule := counteroffers.NewModule(pool, eventBus, cfg.GetAppBaseURL(), val, log)
	purchasingModule := purchasing.NewModule(pool, messenger, eventBus, val, log)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:    cfg,
		Logger:    log,
		Health:    pool,
		EventBus:  eventBus,
		Companies: identityModule.Service(),
		Modules: []apphttp.Module{
			authModule,
			identityModule,
			whatsappModule,
			suppliersModule,
			templatesModule,
			abbreviationsModule,
			vehiclesModule,
			quotationsModule,
			quoteRequestsModule,
			counterOffersModule,
			purchasingModule,
		},
	}

	engine := router.New(app)

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- engine.Run(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func initFollowUpScheduler(cfg config.SchedulerConfig, log *logger.Logger) (scheduler.FollowUpScheduler, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; quotation follow-ups disabled")
		return nil, nil
	}

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize follow-up scheduler client", "error", err)
		return nil, nil
	}

	return client, func() {
		_ = client.Close()
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
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
