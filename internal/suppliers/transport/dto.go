package transport

import (
	"time"

	"github.com/google/uuid"
)

type CreateSupplierRequest struct {
	Name       string   `json:"name" validate:"required,max=120"`
	Phone      *string  `json:"phone,omitempty" validate:"omitempty,max=20"`
	AreaCode   *string  `json:"areaCode,omitempty" validate:"omitempty,numeric,min=2,max=3"`
	City       *string  `json:"city,omitempty" validate:"omitempty,max=80"`
	State      *string  `json:"state,omitempty" validate:"omitempty,len=2"`
	Categories []string `json:"categories,omitempty" validate:"omitempty,max=30,dive,required,max=60"`
}

type UpdateSupplierRequest = CreateSupplierRequest

type ListSuppliersRequest struct {
	Search     string   `form:"search" validate:"max=100"`
	AreaCodes  []string `form:"areaCode" validate:"omitempty,dive,numeric"`
	Cities     []string `form:"city"`
	States     []string `form:"state" validate:"omitempty,dive,len=2"`
	Categories []string `form:"category"`
	Page       int      `form:"page" validate:"omitempty,min=1"`
	PageSize   int      `form:"pageSize" validate:"omitempty,min=1,max=200"`
	SortBy     string   `form:"sortBy" validate:"omitempty,oneof=name createdAt city state"`
	SortOrder  string   `form:"sortOrder" validate:"omitempty,oneof=asc desc"`
}

type SupplierResponse struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Phone        *string   `json:"phone,omitempty"`
	AreaCode     *string   `json:"areaCode,omitempty"`
	DisplayPhone string    `json:"displayPhone,omitempty"`
	City         *string   `json:"city,omitempty"`
	State        *string   `json:"state,omitempty"`
	Categories   []string  `json:"categories"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type SupplierListResponse struct {
	Items      []SupplierResponse `json:"items"`
	Total      int                `json:"total"`
	Page       int                `json:"page"`
	PageSize   int                `json:"pageSize"`
	TotalPages int                `json:"totalPages"`
}

type CreateSpecializationRequest struct {
	Name string `json:"name" validate:"required,max=60"`
}

type SpecializationResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}
