package transport

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BestPrice is the cheapest available offer for one part description.
type BestPrice struct {
	Key          string          `json:"key"`
	Description  string          `json:"description"`
	Code         string          `json:"code,omitempty"`
	Quantity     int             `json:"quantity"`
	PartIndex    int             `json:"partIndex"`
	SupplierID   uuid.UUID       `json:"supplierId"`
	SupplierName string          `json:"supplierName"`
	RequestID    uuid.UUID       `json:"requestId"`
	UnitPrice    decimal.Decimal `json:"unitPrice"`
	TotalPrice   decimal.Decimal `json:"totalPrice"`
	Condition    string          `json:"condition,omitempty"`
	Negotiated   bool            `json:"negotiated"`
	OfferCount   int             `json:"offerCount"`
	Purchased    bool            `json:"purchased"`
}

type BestPricesResponse struct {
	QuotationID uuid.UUID       `json:"quotationId"`
	Items       []BestPrice     `json:"items"`
	Total       decimal.Decimal `json:"total"`
}

// Selection picks one supplier's answer for one quotation part.
type Selection struct {
	RequestID uuid.UUID `json:"requestId" validate:"required"`
	PartIndex int       `json:"partIndex" validate:"gte=0"`
}

type GenerateFromSelectionsRequest struct {
	Selections   []Selection `json:"selections" validate:"required,min=1,max=500,dive"`
	DeliveryTime *string     `json:"deliveryTime,omitempty" validate:"omitempty,max=200"`
	Notes        *string     `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

// GenerateFromBestPricesRequest lists best-price keys or descriptions to order.
type GenerateFromBestPricesRequest struct {
	Descriptions []string `json:"descriptions" validate:"required,min=1,max=500,dive,required,max=500"`
	DeliveryTime *string  `json:"deliveryTime,omitempty" validate:"omitempty,max=200"`
	Notes        *string  `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

type SendPurchaseOrderRequest struct {
	PhotoKey  *string `json:"photoKey,omitempty" validate:"omitempty,max=500"`
	AttachPDF bool    `json:"attachPdf"`
}

type UpdateDetailsRequest struct {
	DeliveryTime *string `json:"deliveryTime,omitempty" validate:"omitempty,max=200"`
	Notes        *string `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

type ListPurchaseOrdersRequest struct {
	QuotationID string `form:"quotationId" validate:"omitempty,uuid"`
	SupplierID  string `form:"supplierId" validate:"omitempty,uuid"`
	Status      string `form:"status" validate:"omitempty,oneof=pending sending sent"`
	Page        int    `form:"page" validate:"omitempty,min=1"`
	PageSize    int    `form:"pageSize" validate:"omitempty,min=1,max=100"`
}

type ItemResponse struct {
	ID                 uuid.UUID       `json:"id"`
	Description        string          `json:"description"`
	Quantity           int             `json:"quantity"`
	UnitPrice          decimal.Decimal `json:"unitPrice"`
	TotalPrice         decimal.Decimal `json:"totalPrice"`
	QuotationPartIndex *int            `json:"quotationPartIndex,omitempty"`
}

type PurchaseOrderResponse struct {
	ID           uuid.UUID       `json:"id"`
	QuotationID  uuid.UUID       `json:"quotationId"`
	SupplierID   uuid.UUID       `json:"supplierId"`
	SupplierName string          `json:"supplierName"`
	TotalAmount  decimal.Decimal `json:"totalAmount"`
	Status       string          `json:"status"`
	DeliveryTime *string         `json:"deliveryTime,omitempty"`
	Notes        *string         `json:"notes,omitempty"`
	SentAt       *time.Time      `json:"sentAt,omitempty"`
	Items        []ItemResponse  `json:"items"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

type GenerateResponse struct {
	Orders             []PurchaseOrderResponse `json:"orders"`
	QuotationCompleted bool                    `json:"quotationCompleted"`
}

type PurchaseOrderListResponse struct {
	Items      []PurchaseOrderResponse `json:"items"`
	Total      int                     `json:"total"`
	Page       int                     `json:"page"`
	PageSize   int                     `json:"pageSize"`
	TotalPages int                     `json:"totalPages"`
}
