package transport

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Part operations and conditions.
const (
	OperationReplace      = "replace"
	OperationReplacePaint = "replace_paint"

	ConditionGenuine = "genuine"
	ConditionNew     = "new"
	ConditionUsed    = "used"
)

type VehicleRequest struct {
	Brand             string  `json:"brand" validate:"required,max=60"`
	Model             string  `json:"model" validate:"required,max=80"`
	Year              *string `json:"year,omitempty" validate:"omitempty,max=20"`
	ManufacturingYear *int    `json:"manufacturingYear,omitempty" validate:"omitempty,min=1900,max=2100"`
	ModelYear         *int    `json:"modelYear,omitempty" validate:"omitempty,min=1900,max=2100"`
	Plate             *string `json:"plate,omitempty" validate:"omitempty,plate"`
	Chassis           *string `json:"chassis,omitempty" validate:"omitempty,len=17,alphanum"`
}

type VehicleResponse struct {
	ID                uuid.UUID `json:"id"`
	Brand             string    `json:"brand"`
	Model             string    `json:"model"`
	Year              *string   `json:"year,omitempty"`
	ManufacturingYear *int      `json:"manufacturingYear,omitempty"`
	ModelYear         *int      `json:"modelYear,omitempty"`
	Plate             *string   `json:"plate,omitempty"`
	Chassis           *string   `json:"chassis,omitempty"`
	Images            []string  `json:"images"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

type ImageURLResponse struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type DeleteImageRequest struct {
	Key string `json:"key" validate:"required"`
}

type UploadResponse struct {
	Key string `json:"key"`
}

type PartRequest struct {
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

type PartResponse struct {
	ID            uuid.UUID       `json:"id"`
	VehicleID     uuid.UUID       `json:"vehicleId"`
	Operation     string          `json:"operation"`
	Code          string          `json:"code"`
	Description   string          `json:"description"`
	Condition     string          `json:"condition"`
	Quantity      int             `json:"quantity"`
	PaintingHours decimal.Decimal `json:"paintingHours"`
	LaborHours    decimal.Decimal `json:"laborHours"`
	LaborCost     decimal.Decimal `json:"laborCost"`
	PartCost      decimal.Decimal `json:"partCost"`
}

// ExtractedVehicle is what document extraction found in an uploaded estimate.
type ExtractedVehicle struct {
	Brand   string `json:"brand"`
	Model   string `json:"model"`
	Year    string `json:"year"`
	Plate   string `json:"plate"`
	Chassis string `json:"chassis"`
}
