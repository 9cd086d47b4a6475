// Package notification reacts to domain events: it records activity in the
// log and schedules follow-up reminders for quotation requests.
// Domain modules publish events and never call this package directly.
package notification

import (
	"context"
	"time"

	"autoparts_quotes_backend/internal/events"
	"autoparts_quotes_backend/internal/scheduler"
	"autoparts_quotes_backend/platform/logger"
)

// Module handles all notification-related event subscriptions.
type Module struct {
	log           *logger.Logger
	followUps     scheduler.FollowUpScheduler
	followUpDelay time.Duration
	now           func() time.Time
}

// New creates a new notification module. followUps may be nil, in which
// case no reminders are scheduled.
func New(log *logger.Logger, followUps scheduler.FollowUpScheduler, followUpDelay time.Duration) *Module {
	return &Module{
		log:           log,
		followUps:     followUps,
		followUpDelay: followUpDelay,
		now:           time.Now,
	}
}

// RegisterHandlers subscribes the module to the events it reacts to.
func (m *Module) RegisterHandlers(bus events.Bus) {
	// Quotation events
	bus.Subscribe(events.QuotationCreated{}.EventName(), m)
	bus.Subscribe(events.QuotationDispatched{}.EventName(), m)
	bus.Subscribe(events.QuotationCompleted{}.EventName(), m)

	// Quotation request events
	bus.Subscribe(events.QuotationRequestSent{}.EventName(), m)
	bus.Subscribe(events.QuotationRequestResponded{}.EventName(), m)

	// Counter-offer events
	bus.Subscribe(events.CounterOfferCreated{}.EventName(), m)
	bus.Subscribe(events.CounterOfferResponded{}.EventName(), m)

	// Purchasing events
	bus.Subscribe(events.PurchaseOrdersGenerated{}.EventName(), m)
	bus.Subscribe(events.PurchaseOrderSent{}.EventName(), m)
}

// Handle routes events to the appropriate handler.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.QuotationCreated:
		m.log.Info("quotation created", "quotationId", e.QuotationID, "userId", e.UserID,
			"inputType", e.InputType, "parts", e.PartCount)
	case events.QuotationDispatched:
		m.log.Info("quotation dispatched", "quotationId", e.QuotationID, "userId", e.UserID,
			"sent", e.Sent, "failed", e.Failed, "excluded", e.Excluded)
	case events.QuotationCompleted:
		m.log.Info("quotation completed", "quotationId", e.QuotationID, "userId", e.UserID)
	case events.QuotationRequestSent:
		return m.handleQuotationRequestSent(ctx, e)
	case events.QuotationRequestResponded:
		m.log.Info("quotation request answered", "requestId", e.RequestID, "quotationId", e.QuotationID,
			"supplier", e.SupplierName, "total", e.TotalPrice.StringFixed(2))
	case events.CounterOfferCreated:
		m.log.Info("counter-offer created", "counterOfferId", e.CounterOfferID, "requestId", e.RequestID,
			"total", e.Total.StringFixed(2))
	case events.CounterOfferResponded:
		m.log.Info("counter-offer answered", "counterOfferId", e.CounterOfferID, "status", e.Status,
			"total", e.Total.StringFixed(2))
	case events.PurchaseOrdersGenerated:
		m.log.Info("purchase orders generated", "quotationId", e.QuotationID, "orders", len(e.OrderIDs))
	case events.PurchaseOrderSent:
		m.log.Info("purchase order sent", "orderId", e.OrderID, "supplierId", e.SupplierID,
			"total", e.Total.StringFixed(2))
	default:
		m.log.Warn("unhandled event type", "event", event.EventName())
	}
	return nil
}

func (m *Module) handleQuotationRequestSent(ctx context.Context, e events.QuotationRequestSent) error {
	m.log.Info("quotation request sent", "requestId", e.RequestID, "supplierId", e.SupplierID, "resend", e.Resend)

	// Only the first send arms a reminder; the reminder itself re-sends once.
	if e.Resend || m.followUps == nil || m.followUpDelay <= 0 {
		return nil
	}

	payload := scheduler.FollowUpPayload{
		RequestID: e.RequestID.String(),
		UserID:    e.UserID.String(),
	}
	if err := m.followUps.ScheduleFollowUp(ctx, payload, m.now().Add(m.followUpDelay)); err != nil {
		m.log.Warn("failed to schedule follow-up", "requestId", e.RequestID, "error", err)
	}
	return nil
}

// Compile-time check that Module implements events.Handler
var _ events.Handler = (*Module)(nil)
