package notification

import (
	"context"
	"errors"
	"testing"
	"time"

	"autoparts_quotes_backend/internal/events"
	"autoparts_quotes_backend/internal/scheduler"
	"autoparts_quotes_backend/platform/logger"

	"github.com/google/uuid"
)

type scheduledFollowUp struct {
	payload scheduler.FollowUpPayload
	runAt   time.Time
}

type fakeFollowUps struct {
	scheduled []scheduledFollowUp
	err       error
}

func (f *fakeFollowUps) ScheduleFollowUp(_ context.Context, payload scheduler.FollowUpPayload, runAt time.Time) error {
	f.scheduled = append(f.scheduled, scheduledFollowUp{payload: payload, runAt: runAt})
	return f.err
}

func newTestModule(followUps scheduler.FollowUpScheduler, delay time.Duration) (*Module, time.Time) {
	m := New(logger.Nop(), followUps, delay)
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }
	return m, now
}

func TestFirstSendSchedulesFollowUp(t *testing.T) {
	followUps := &fakeFollowUps{}
	m, now := newTestModule(followUps, 2*time.Hour)

	requestID := uuid.New()
	userID := uuid.New()
	bus := events.NewInMemoryBus(logger.Nop())
	m.RegisterHandlers(bus)

	err := bus.PublishSync(context.Background(), events.QuotationRequestSent{
		BaseEvent: events.NewBaseEvent(),
		RequestID: requestID,
		UserID:    userID,
	})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}

	if len(followUps.scheduled) != 1 {
		t.Fatalf("expected 1 follow-up, got %d", len(followUps.scheduled))
	}
	got := followUps.scheduled[0]
	if got.payload.RequestID != requestID.String() || got.payload.UserID != userID.String() {
		t.Fatalf("unexpected payload %+v", got.payload)
	}
	if !got.runAt.Equal(now.Add(2 * time.Hour)) {
		t.Fatalf("expected run at %v, got %v", now.Add(2*time.Hour), got.runAt)
	}
}

func TestResendDoesNotScheduleAgain(t *testing.T) {
	followUps := &fakeFollowUps{}
	m, _ := newTestModule(followUps, time.Hour)

	err := m.Handle(context.Background(), events.QuotationRequestSent{RequestID: uuid.New(), Resend: true})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(followUps.scheduled) != 0 {
		t.Fatalf("expected no follow-up for a resend, got %d", len(followUps.scheduled))
	}
}

func TestFollowUpsDisabledWithoutSchedulerOrDelay(t *testing.T) {
	m, _ := newTestModule(nil, time.Hour)
	if err := m.Handle(context.Background(), events.QuotationRequestSent{RequestID: uuid.New()}); err != nil {
		t.Fatalf("handle without scheduler: %v", err)
	}

	followUps := &fakeFollowUps{}
	m, _ = newTestModule(followUps, 0)
	if err := m.Handle(context.Background(), events.QuotationRequestSent{RequestID: uuid.New()}); err != nil {
		t.Fatalf("handle without delay: %v", err)
	}
	if len(followUps.scheduled) != 0 {
		t.Fatalf("expected no follow-up with zero delay, got %d", len(followUps.scheduled))
	}
}

func TestScheduleFailureDoesNotFailTheEvent(t *testing.T) {
	followUps := &fakeFollowUps{err: errors.New("redis down")}
	m, _ := newTestModule(followUps, time.Hour)

	if err := m.Handle(context.Background(), events.QuotationRequestSent{RequestID: uuid.New()}); err != nil {
		t.Fatalf("expected scheduling failure to be logged only, got %v", err)
	}
}

func TestOtherEventsAreLoggedOnly(t *testing.T) {
	followUps := &fakeFollowUps{}
	m, _ := newTestModule(followUps, time.Hour)

	for _, e := range []events.Event{
		events.QuotationCreated{QuotationID: uuid.New()},
		events.QuotationCompleted{QuotationID: uuid.New()},
		events.PurchaseOrdersGenerated{OrderIDs: []uuid.UUID{uuid.New()}},
		events.CounterOfferResponded{Status: "accepted"},
	} {
		if err := m.Handle(context.Background(), e); err != nil {
			t.Fatalf("%s: %v", e.EventName(), err)
		}
	}
	if len(followUps.scheduled) != 0 {
		t.Fatalf("expected no follow-ups, got %d", len(followUps.scheduled))
	}
}
