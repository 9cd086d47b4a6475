package transport

import (
	"time"

	"github.com/google/uuid"
)

type CreateAbbreviationRequest struct {
	Abbreviation string `json:"abbreviation" validate:"required,max=40"`
	FullText     string `json:"fullText" validate:"required,max=200"`
}

type UpdateAbbreviationRequest struct {
	FullText string `json:"fullText" validate:"required,max=200"`
}

type ExpandRequest struct {
	Text string `json:"text" validate:"required,max=20000"`
}

type ExpandResponse struct {
	Text string `json:"text"`
}

type AbbreviationResponse struct {
	ID           uuid.UUID `json:"id"`
	Abbreviation string    `json:"abbreviation"`
	FullText     string    `json:"fullText"`
	CreatedAt    time.Time `json:"createdAt"`
}
