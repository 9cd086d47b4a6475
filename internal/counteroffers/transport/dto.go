package transport

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineInput is one part in a price preview. Set CounterPrice or
// DiscountPercentage; with neither the original price is kept.
type LineInput struct {
	PartIndex          int              `json:"partIndex" validate:"gte=0"`
	Description        string           `json:"description" validate:"max=200"`
	Quantity           int              `json:"quantity" validate:"min=1"`
	Available          bool             `json:"available"`
	OriginalPrice      decimal.Decimal  `json:"originalPrice" validate:"gte=0"`
	CounterPrice       *decimal.Decimal `json:"counterPrice,omitempty"`
	DiscountPercentage *decimal.Decimal `json:"discountPercentage,omitempty"`
}

type CalculateRequest struct {
	Parts []LineInput `json:"parts" validate:"required,min=1,max=200,dive"`
}

type Line struct {
	PartIndex          int             `json:"partIndex"`
	Description        string          `json:"description"`
	Quantity           int             `json:"quantity"`
	Available          bool            `json:"available"`
	OriginalPrice      decimal.Decimal `json:"originalPrice"`
	OriginalTotal      decimal.Decimal `json:"originalTotal"`
	CounterPrice       decimal.Decimal `json:"counterPrice"`
	CounterTotal       decimal.Decimal `json:"counterTotal"`
	DiscountPercentage decimal.Decimal `json:"discountPercentage"`
	Accepted           *bool           `json:"accepted,omitempty"`
}

type CalculateResponse struct {
	Parts         []Line          `json:"parts"`
	OriginalTotal decimal.Decimal `json:"originalTotal"`
	Total         decimal.Decimal `json:"total"`
}

// CounterLineInput proposes a new price for one answered part.
type CounterLineInput struct {
	PartIndex          int              `json:"partIndex" validate:"gte=0"`
	CounterPrice       *decimal.Decimal `json:"counterPrice,omitempty"`
	DiscountPercentage *decimal.Decimal `json:"discountPercentage,omitempty"`
}

type CreateCounterOfferRequest struct {
	Parts []CounterLineInput `json:"parts" validate:"required,min=1,max=200,dive"`
	Notes *string            `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

type Decision struct {
	PartIndex int  `json:"partIndex" validate:"gte=0"`
	Accepted  bool `json:"accepted"`
}

// RespondCounterOfferRequest lists the supplier's decisions. Parts left out
// are accepted.
type RespondCounterOfferRequest struct {
	Decisions []Decision `json:"decisions" validate:"max=200,dive"`
}

type CounterOfferResponse struct {
	ID           uuid.UUID       `json:"id"`
	RequestID    uuid.UUID       `json:"requestId"`
	SupplierID   uuid.UUID       `json:"supplierId"`
	SupplierName string          `json:"supplierName"`
	Parts        []Line          `json:"parts"`
	Total        decimal.Decimal `json:"total"`
	Notes        *string         `json:"notes,omitempty"`
	Status       string          `json:"status"`
	RespondedAt  *time.Time      `json:"respondedAt,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
}

type CreateCounterOfferResponse struct {
	CounterOffer CounterOfferResponse `json:"counterOffer"`
	Link         string               `json:"link"`
	WhatsAppURL  string               `json:"whatsappUrl,omitempty"`
	Message      string               `json:"message"`
}

// PublicCounterOfferResponse is what the supplier sees behind the link.
type PublicCounterOfferResponse struct {
	CounterOfferResponse
	Vehicle  string `json:"vehicle"`
	ReadOnly bool   `json:"readOnly"`
}
