package transport

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type DispatchRequest struct {
	SupplierIDs   []uuid.UUID `json:"supplierIds" validate:"required,min=1,max=100"`
	CoverImageKey *string     `json:"coverImageKey,omitempty" validate:"omitempty,max=500"`
}

type SequenceSendRequest struct {
	SupplierIDs []uuid.UUID `json:"supplierIds" validate:"required,min=1,max=100"`
	QuotationID *uuid.UUID  `json:"quotationId,omitempty"`
}

// Failure is one recipient the gateway could not reach.
type Failure struct {
	SupplierID   uuid.UUID  `json:"supplierId"`
	SupplierName string     `json:"supplierName"`
	RequestID    *uuid.UUID `json:"requestId,omitempty"`
	Error        string     `json:"error"`
}

type DispatchResult struct {
	RequestID    uuid.UUID `json:"requestId"`
	SupplierID   uuid.UUID `json:"supplierId"`
	SupplierName string    `json:"supplierName"`
	Status       string    `json:"status"`
	Link         string    `json:"link"`
}

type DispatchResponse struct {
	Sent     int              `json:"sent"`
	Requests []DispatchResult `json:"requests"`
	Warnings []string         `json:"warnings"`
	Failures []Failure        `json:"failures"`
}

type SequenceSendResponse struct {
	Sent     int       `json:"sent"`
	Warnings []string  `json:"warnings"`
	Failures []Failure `json:"failures"`
}

type ResponseLine struct {
	PartIndex   int             `json:"partIndex"`
	Code        string          `json:"code"`
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"`
	Available   bool            `json:"available"`
	Condition   string          `json:"condition,omitempty"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	TotalPrice  decimal.Decimal `json:"totalPrice"`
	Notes       string          `json:"notes,omitempty"`
	Negotiated  bool            `json:"negotiated"`
}

type SupplierResponse struct {
	SupplierName  string          `json:"supplierName"`
	SupplierPhone string          `json:"supplierPhone"`
	Parts         []ResponseLine  `json:"parts"`
	TotalPrice    decimal.Decimal `json:"totalPrice"`
	DeliveryTime  string          `json:"deliveryTime,omitempty"`
	Notes         string          `json:"notes,omitempty"`
}

type RequestResponse struct {
	ID           uuid.UUID         `json:"id"`
	QuotationID  uuid.UUID         `json:"quotationId"`
	SupplierID   uuid.UUID         `json:"supplierId"`
	SupplierName string            `json:"supplierName"`
	Status       string            `json:"status"`
	SentAt       *time.Time        `json:"sentAt,omitempty"`
	RespondedAt  *time.Time        `json:"respondedAt,omitempty"`
	Response     *SupplierResponse `json:"response,omitempty"`
	Link         string            `json:"link"`
	CreatedAt    time.Time         `json:"createdAt"`
}

type PublicPart struct {
	Index       int    `json:"index"`
	Operation   string `json:"operation"`
	Code        string `json:"code"`
	Description string `json:"description"`
	Condition   string `json:"condition"`
	Quantity    int    `json:"quantity"`
}

type PublicVehicle struct {
	Brand   string  `json:"brand"`
	Model   string  `json:"model"`
	Year    *string `json:"year,omitempty"`
	Plate   *string `json:"plate,omitempty"`
	Chassis *string `json:"chassis,omitempty"`
}

// PublicFormResponse is what the supplier sees behind the response link.
// Response is set, and the form read-only, once the supplier answered.
type PublicFormResponse struct {
	RequestID    uuid.UUID         `json:"requestId"`
	QuotationID  uuid.UUID         `json:"quotationId"`
	Status       string            `json:"status"`
	SupplierName string            `json:"supplierName"`
	Vehicle      PublicVehicle     `json:"vehicle"`
	Parts        []PublicPart      `json:"parts"`
	ReadOnly     bool              `json:"readOnly"`
	Response     *SupplierResponse `json:"response,omitempty"`
}

type ResponsePartInput struct {
	PartIndex int             `json:"partIndex" validate:"gte=0"`
	Available bool            `json:"available"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Condition string          `json:"condition" validate:"omitempty,oneof=new used"`
	Notes     string          `json:"notes" validate:"max=500"`
}

type SubmitResponseRequest struct {
	SupplierName  string              `json:"supplierName" validate:"required,max=120"`
	SupplierPhone string              `json:"supplierPhone" validate:"required,max=30"`
	Parts         []ResponsePartInput `json:"parts" validate:"required,min=1,max=200,dive"`
	DeliveryTime  string              `json:"deliveryTime" validate:"max=100"`
	Notes         string              `json:"notes" validate:"max=2000"`
}
