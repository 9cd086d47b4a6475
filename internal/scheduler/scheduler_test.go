package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"autoparts_quotes_backend/platform/logger"
	"autoparts_quotes_backend/platform/tenancy"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

type testConfig struct {
	redisURL string
}

func (c testConfig) GetRedisURL() string             { return c.redisURL }
func (c testConfig) GetRedisTLSInsecure() bool       { return false }
func (c testConfig) GetAsynqQueueName() string       { return "" }
func (c testConfig) GetAsynqConcurrency() int        { return 0 }
func (c testConfig) GetFollowUpDelay() time.Duration { return time.Hour }

type fakeRunner struct {
	scope     tenancy.Scope
	requestID uuid.UUID
	calls     int
	err       error
}

func (f *fakeRunner) FollowUp(_ context.Context, scope tenancy.Scope, requestID uuid.UUID) error {
	f.calls++
	f.scope = scope
	f.requestID = requestID
	return f.err
}

func TestScheduleFollowUpKeepsOneTaskPerRequest(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig{redisURL: "redis://" + mr.Addr()}

	client, err := NewClient(cfg)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	defer client.Close()

	payload := FollowUpPayload{RequestID: uuid.NewString(), UserID: uuid.NewString()}
	runAt := time.Now().Add(time.Hour)
	for i := 0; i < 2; i++ {
		if err := client.ScheduleFollowUp(context.Background(), payload, runAt); err != nil {
			t.Fatalf("schedule #%d: %v", i+1, err)
		}
	}

	opt, err := redisClientOpt(cfg.redisURL, false)
	if err != nil {
		t.Fatalf("redis opt: %v", err)
	}
	inspector := asynq.NewInspector(opt)
	defer inspector.Close()

	tasks, err := inspector.ListScheduledTasks("default")
	if err != nil {
		t.Fatalf("list scheduled: %v", err)
	}
	if len(tasks) != 1 {
		t.Fatalf("expected 1 scheduled task, got %d", len(tasks))
	}
	if tasks[0].Type != TaskQuotationRequestFollowUp {
		t.Fatalf("unexpected task type %q", tasks[0].Type)
	}
}

func TestNewClientRequiresRedisURL(t *testing.T) {
	if _, err := NewClient(testConfig{}); err == nil {
		t.Fatal("expected error without redis url")
	}
}

func TestNilClientScheduleIsNoop(t *testing.T) {
	var client *Client
	if err := client.ScheduleFollowUp(context.Background(), FollowUpPayload{}, time.Now()); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}

func TestHandleFollowUpBuildsScope(t *testing.T) {
	runner := &fakeRunner{}
	w := &Worker{runner: runner, log: logger.Nop()}

	requestID := uuid.New()
	userID := uuid.New()
	companyID := uuid.NewString()
	task, err := NewFollowUpTask(FollowUpPayload{
		RequestID: requestID.String(),
		UserID:    userID.String(),
		CompanyID: &companyID,
	})
	if err != nil {
		t.Fatalf("new task: %v", err)
	}

	if err := w.handleFollowUp(context.Background(), task); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if runner.calls != 1 || runner.requestID != requestID {
		t.Fatalf("expected one call for %s, got %d for %s", requestID, runner.calls, runner.requestID)
	}
	if runner.scope.UserID != userID || runner.scope.CompanyID == nil || runner.scope.CompanyID.String() != companyID {
		t.Fatalf("unexpected scope %+v", runner.scope)
	}
}

func TestHandleFollowUpSkipsRetryOnBadPayload(t *testing.T) {
	runner := &fakeRunner{}
	w := &Worker{runner: runner, log: logger.Nop()}

	task := asynq.NewTask(TaskQuotationRequestFollowUp, []byte(`{"requestId":"nope","userId":"nope"}`))
	err := w.handleFollowUp(context.Background(), task)
	if !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("expected SkipRetry, got %v", err)
	}
	if runner.calls != 0 {
		t.Fatalf("runner must not be called, got %d calls", runner.calls)
	}
}

func TestHandleFollowUpPropagatesRunnerError(t *testing.T) {
	boom := errors.New("gateway down")
	runner := &fakeRunner{err: boom}
	w := &Worker{runner: runner, log: logger.Nop()}

	task, _ := NewFollowUpTask(FollowUpPayload{RequestID: uuid.NewString(), UserID: uuid.NewString()})
	if err := w.handleFollowUp(context.Background(), task); !errors.Is(err, boom) {
		t.Fatalf("expected runner error, got %v", err)
	}
}
