package transport

import (
	"time"

	"github.com/google/uuid"
)

type CreateTemplateRequest struct {
	Name    string `json:"name" validate:"required,max=120"`
	Content string `json:"content" validate:"required,max=4000"`
}

type UpdateTemplateRequest struct {
	Name    *string `json:"name,omitempty" validate:"omitempty,min=1,max=120"`
	Content *string `json:"content,omitempty" validate:"omitempty,min=1,max=4000"`
}

type MoveTemplateRequest struct {
	Direction string `json:"direction" validate:"required,oneof=up down"`
}

type PreviewRequest struct {
	Content string `json:"content" validate:"required,max=4000"`
}

type PreviewResponse struct {
	Text string `json:"text"`
}

type TemplateResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Content   string    `json:"content"`
	Sequence  int       `json:"sequence"`
	IsDefault bool      `json:"isDefault"`
	UpdatedAt time.Time `json:"updatedAt"`
}
