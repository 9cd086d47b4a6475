package transport

import (
	"time"

	"github.com/google/uuid"
)

type CreateCompanyRequest struct {
	Name     string  `json:"name" validate:"required,min=2,max=120"`
	Document *string `json:"document,omitempty" validate:"omitempty,max=32"`
}

type UpdateCompanyRequest struct {
	Name     *string `json:"name,omitempty" validate:"omitempty,min=2,max=120"`
	Document *string `json:"document,omitempty" validate:"omitempty,max=32"`
}

type CompanyResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Document  *string   `json:"document,omitempty"`
	Role      string    `json:"role,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type AddMemberRequest struct {
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role" validate:"required,oneof=admin member"`
}

type UpdateMemberRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=admin member"`
}

type MemberResponse struct {
	UserID    uuid.UUID `json:"userId"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

type UpsertWorkshopRequest struct {
	Name     string  `json:"name" validate:"required,max=120"`
	Phone    *string `json:"phone,omitempty" validate:"omitempty,max=32"`
	Address  *string `json:"address,omitempty" validate:"omitempty,max=200"`
	City     *string `json:"city,omitempty" validate:"omitempty,max=80"`
	State    *string `json:"state,omitempty" validate:"omitempty,len=2"`
	Document *string `json:"document,omitempty" validate:"omitempty,max=32"`
}

type WorkshopResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Phone     *string   `json:"phone,omitempty"`
	Address   *string   `json:"address,omitempty"`
	City      *string   `json:"city,omitempty"`
	State     *string   `json:"state,omitempty"`
	Document  *string   `json:"document,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}
