package scheduler

import (
	"context"
	"fmt"

	"autoparts_quotes_backend/platform/config"
	"autoparts_quotes_backend/platform/logger"
	"autoparts_quotes_backend/platform/tenancy"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// FollowUpRunner re-sends a quotation request link if the supplier has not
// answered yet.
type FollowUpRunner interface {
	FollowUp(ctx context.Context, scope tenancy.Scope, requestID uuid.UUID) error
}

type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	runner FollowUpRunner
	log    *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, runner FollowUpRunner, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queueName(cfg): 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server: server,
		mux:    mux,
		runner: runner,
		log:    log,
	}

	mux.HandleFunc(TaskQuotationRequestFollowUp, w.handleFollowUp)

	return w, nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

func (w *Worker) handleFollowUp(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseFollowUpPayload(task)
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	scope, requestID, err := payload.scope()
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	if err := w.runner.FollowUp(ctx, scope, requestID); err != nil {
		w.log.Warn("follow-up failed", "requestId", payload.RequestID, "error", err)
		return err
	}
	return nil
}

func (p FollowUpPayload) scope() (tenancy.Scope, uuid.UUID, error) {
	requestID, err := uuid.Parse(p.RequestID)
	if err != nil {
		return tenancy.Scope{}, uuid.Nil, err
	}
	userID, err := uuid.Parse(p.UserID)
	if err != nil {
		return tenancy.Scope{}, uuid.Nil, err
	}
	scope := tenancy.ForUser(userID)
	if p.CompanyID != nil {
		companyID, err := uuid.Parse(*p.CompanyID)
		if err != nil {
			return tenancy.Scope{}, uuid.Nil, err
		}
		scope = scope.WithCompany(companyID)
	}
	return scope, requestID, nil
}
