// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"time"

	"autoparts_quotes_backend/platform/events"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Auth Domain Events
// =============================================================================

// UserSignedUp is published when a new user successfully registers.
type UserSignedUp struct {
	BaseEvent
	UserID uuid.UUID `json:"userId"`
	Email  string    `json:"email"`
}

func (e UserSignedUp) EventName() string { return "auth.user.signed_up" }

// =============================================================================
// Quotation Domain Events
// =============================================================================

// QuotationCreated is published after intake stores a vehicle and quotation.
type QuotationCreated struct {
	BaseEvent
	QuotationID uuid.UUID `json:"quotationId"`
	VehicleID   uuid.UUID `json:"vehicleId"`
	UserID      uuid.UUID `json:"userId"`
	InputType   string    `json:"inputType"`
	PartCount   int       `json:"partCount"`
}

func (e QuotationCreated) EventName() string { return "quotations.created" }

// QuotationDispatched is published once a dispatch run has finished.
type QuotationDispatched struct {
	BaseEvent
	QuotationID uuid.UUID `json:"quotationId"`
	UserID      uuid.UUID `json:"userId"`
	Sent        int       `json:"sent"`
	Failed      int       `json:"failed"`
	Excluded    int       `json:"excluded"`
}

func (e QuotationDispatched) EventName() string { return "quotations.dispatched" }

// QuotationCompleted is published when every part of a quotation has been purchased.
type QuotationCompleted struct {
	BaseEvent
	QuotationID uuid.UUID `json:"quotationId"`
	UserID      uuid.UUID `json:"userId"`
}

func (e QuotationCompleted) EventName() string { return "quotations.completed" }

// =============================================================================
// Quotation Request Domain Events
// =============================================================================

// QuotationRequestSent is published when a request link reached the gateway.
type QuotationRequestSent struct {
	BaseEvent
	RequestID   uuid.UUID `json:"requestId"`
	QuotationID uuid.UUID `json:"quotationId"`
	SupplierID  uuid.UUID `json:"supplierId"`
	UserID      uuid.UUID `json:"userId"`
	Resend      bool      `json:"resend"`
}

func (e QuotationRequestSent) EventName() string { return "quote_requests.sent" }

// QuotationRequestResponded is published when a supplier submits prices.
type QuotationRequestResponded struct {
	BaseEvent
	RequestID    uuid.UUID       `json:"requestId"`
	QuotationID  uuid.UUID       `json:"quotationId"`
	UserID       uuid.UUID       `json:"userId"`
	SupplierName string          `json:"supplierName"`
	TotalPrice   decimal.Decimal `json:"totalPrice"`
}

func (e QuotationRequestResponded) EventName() string { return "quote_requests.responded" }

// =============================================================================
// Counter-Offer Domain Events
// =============================================================================

// CounterOfferCreated is published when a requester proposes new prices.
type CounterOfferCreated struct {
	BaseEvent
	CounterOfferID uuid.UUID       `json:"counterOfferId"`
	RequestID      uuid.UUID       `json:"requestId"`
	UserID         uuid.UUID       `json:"userId"`
	Total          decimal.Decimal `json:"total"`
}

func (e CounterOfferCreated) EventName() string { return "counter_offers.created" }

// CounterOfferResponded is published when a supplier answers a counter-offer.
type CounterOfferResponded struct {
	BaseEvent
	CounterOfferID uuid.UUID       `json:"counterOfferId"`
	RequestID      uuid.UUID       `json:"requestId"`
	UserID         uuid.UUID       `json:"userId"`
	Status         string          `json:"status"`
	Total          decimal.Decimal `json:"total"`
}

func (e CounterOfferResponded) EventName() string { return "counter_offers.responded" }

// =============================================================================
// Purchasing Domain Events
// =============================================================================

// PurchaseOrdersGenerated is published after one generation action.
type PurchaseOrdersGenerated struct {
	BaseEvent
	QuotationID uuid.UUID   `json:"quotationId"`
	UserID      uuid.UUID   `json:"userId"`
	OrderIDs    []uuid.UUID `json:"orderIds"`
}

func (e PurchaseOrdersGenerated) EventName() string { return "purchase_orders.generated" }

// PurchaseOrderSent is published when an order reached its supplier.
type PurchaseOrderSent struct {
	BaseEvent
	OrderID     uuid.UUID       `json:"orderId"`
	QuotationID uuid.UUID       `json:"quotationId"`
	SupplierID  uuid.UUID       `json:"supplierId"`
	UserID      uuid.UUID       `json:"userId"`
	Total       decimal.Decimal `json:"total"`
	SentAt      time.Time       `json:"sentAt"`
}

func (e PurchaseOrderSent) EventName() string { return "purchase_orders.sent" }
