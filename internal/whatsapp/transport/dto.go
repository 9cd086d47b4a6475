package transport

import (
	"time"

	"github.com/google/uuid"
)

type UpsertConfigRequest struct {
	BaseURL      string `json:"baseUrl" validate:"required,url,max=300"`
	APIKey       string `json:"apiKey" validate:"required,max=300"`
	InstanceName string `json:"instanceName" validate:"required,max=120"`
}

type ConfigResponse struct {
	ID           uuid.UUID `json:"id"`
	BaseURL      string    `json:"baseUrl"`
	APIKeyHint   string    `json:"apiKeyHint"`
	InstanceName string    `json:"instanceName"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type ConnectionResponse struct {
	Instance  string `json:"instance"`
	State     string `json:"state"`
	Connected bool   `json:"connected"`
	// QRCode is a data URL (image/png) present only while pairing is pending.
	QRCode      string `json:"qrCode,omitempty"`
	PairingCode string `json:"pairingCode,omitempty"`
}
