package transport

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type VehicleInput struct {
	Brand             string   `json:"brand" validate:"required,max=60"`
	Model             string   `json:"model" validate:"required,max=80"`
	Year              *string  `json:"year,omitempty" validate:"omitempty,max=20"`
	ManufacturingYear *int     `json:"manufacturingYear,omitempty" validate:"omitempty,min=1900,max=2100"`
	ModelYear         *int     `json:"modelYear,omitempty" validate:"omitempty,min=1900,max=2100"`
	Plate             *string  `json:"plate,omitempty" validate:"omitempty,plate"`
	Chassis           *string  `json:"chassis,omitempty" validate:"omitempty,len=17,alphanum"`
	Images            []string `json:"images,omitempty" validate:"omitempty,max=20,dive,required"`
}

type PartInput struct {
	Operation     string          `json:"operation" validate:"required,oneof=replace replace_paint"`
	Code          string          `json:"code" validate:"required,max=60"`
	Description   string          `json:"description" validate:"required,max=200"`
	Condition     string          `json:"condition" validate:"required,oneof=genuine new used"`
	Quantity      int             `json:"quantity" validate:"required,min=1"`
	PaintingHours decimal.Decimal `json:"paintingHours" validate:"gte=0"`
	LaborHours    decimal.Decimal `json:"laborHours" validate:"gte=0"`
	LaborCost     decimal.Decimal `json:"laborCost" validate:"gte=0"`
	PartCost      decimal.Decimal `json:"partCost" validate:"gte=0"`
}

// CreateQuotationRequest carries one of three intake modes. Either VehicleID
// or Vehicle identifies the vehicle; with both, the existing vehicle is
// updated with the inline fields.
type CreateQuotationRequest struct {
	InputType   string        `json:"inputType" validate:"required,oneof=manual bulk report"`
	VehicleID   *uuid.UUID    `json:"vehicleId,omitempty"`
	Vehicle     *VehicleInput `json:"vehicle,omitempty"`
	Parts       []PartInput   `json:"parts,omitempty" validate:"omitempty,max=200,dive"`
	BulkText    string        `json:"bulkText,omitempty" validate:"max=20000"`
	ReportText  string        `json:"reportText,omitempty" validate:"max=20000"`
	Description *string       `json:"description,omitempty" validate:"omitempty,max=20000"`
}

type UpdateQuotationRequest struct {
	Vehicle     *VehicleInput `json:"vehicle,omitempty"`
	Parts       []PartInput   `json:"parts" validate:"required,min=1,max=200,dive"`
	Description *string       `json:"description,omitempty" validate:"omitempty,max=20000"`
}

type ParseBulkRequest struct {
	Text string `json:"text" validate:"required,max=20000"`
}

type ParseBulkResponse struct {
	Parts   []PartInput `json:"parts"`
	Skipped int         `json:"skipped"`
}

type ListQuotationsRequest struct {
	Status    string `form:"status" validate:"omitempty,oneof=pending in_progress completed"`
	Search    string `form:"search" validate:"max=100"`
	SortBy    string `form:"sortBy"`
	SortOrder string `form:"sortOrder"`
	Page      int    `form:"page" validate:"omitempty,min=1"`
	PageSize  int    `form:"pageSize" validate:"omitempty,min=1,max=100"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending in_progress completed"`
}

type MarkPurchasedRequest struct {
	Indices []int `json:"indices" validate:"required,min=1,dive,gte=0"`
}

type VehicleSummary struct {
	ID                uuid.UUID `json:"id"`
	Brand             string    `json:"brand"`
	Model             string    `json:"model"`
	Year              *string   `json:"year,omitempty"`
	ManufacturingYear *int      `json:"manufacturingYear,omitempty"`
	ModelYear         *int      `json:"modelYear,omitempty"`
	Plate             *string   `json:"plate,omitempty"`
	Chassis           *string   `json:"chassis,omitempty"`
	Images            []string  `json:"images"`
}

type PartResponse struct {
	Index         int             `json:"index"`
	Operation     string          `json:"operation"`
	Code          string          `json:"code"`
	Description   string          `json:"description"`
	Condition     string          `json:"condition"`
	Quantity      int             `json:"quantity"`
	PaintingHours decimal.Decimal `json:"paintingHours"`
	LaborHours    decimal.Decimal `json:"laborHours"`
	LaborCost     decimal.Decimal `json:"laborCost"`
	PartCost      decimal.Decimal `json:"partCost"`
	Purchased     bool            `json:"purchased"`
}

type QuotationResponse struct {
	ID          uuid.UUID      `json:"id"`
	Vehicle     VehicleSummary `json:"vehicle"`
	Parts       []PartResponse `json:"parts"`
	Status      string         `json:"status"`
	Description *string        `json:"description,omitempty"`
	InputType   string         `json:"inputType"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

type ResponseLine struct {
	PartIndex   int             `json:"partIndex"`
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

type RequestSummary struct {
	ID           uuid.UUID         `json:"id"`
	SupplierID   uuid.UUID         `json:"supplierId"`
	SupplierName string            `json:"supplierName"`
	Status       string            `json:"status"`
	SentAt       *time.Time        `json:"sentAt,omitempty"`
	RespondedAt  *time.Time        `json:"respondedAt,omitempty"`
	Response     *SupplierResponse `json:"response,omitempty"`
}

type CounterOfferSummary struct {
	ID           uuid.UUID       `json:"id"`
	RequestID    uuid.UUID       `json:"requestId"`
	SupplierName string          `json:"supplierName"`
	Total        decimal.Decimal `json:"total"`
	Status       string          `json:"status"`
	RespondedAt  *time.Time      `json:"respondedAt,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
}

type QuotationDetailResponse struct {
	QuotationResponse
	Requests      []RequestSummary      `json:"requests"`
	CounterOffers []CounterOfferSummary `json:"counterOffers"`
}

type QuotationListResponse struct {
	Items      []QuotationResponse `json:"items"`
	Total      int                 `json:"total"`
	Page       int                 `json:"page"`
	PageSize   int                 `json:"pageSize"`
	TotalPages int                 `json:"totalPages"`
}
