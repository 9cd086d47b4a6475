package service

import (
	"context"
	"encoding/base64"
	"strings"

	"autoparts_quotes_backend/internal/whatsapp/gateway"
	"autoparts_quotes_backend/internal/whatsapp/repository"
	"autoparts_quotes_backend/internal/whatsapp/transport"
	"autoparts_quotes_backend/platform/apperr"
	"autoparts_quotes_backend/platform/logger"
	"autoparts_quotes_backend/platform/tenancy"

	"github.com/google/uuid"
	"github.com/skip2/go-qrcode"
)

const (
	stateOpen  = "open"
	qrCodeSize = 256
)

// Repository is the storage the service needs.
type Repository interface {
	GetForScope(ctx context.Context, scope tenancy.Scope) (repository.Config, error)
	Upsert(ctx context.Context, cfg repository.Config) (repository.Config, error)
	Delete(ctx context.Context, userID uuid.UUID) error
}

// Gateway is the remote messaging API.
type Gateway interface {
	SendText(ctx context.Context, ep gateway.Endpoint, number, text string) error
	SendMedia(ctx context.Context, ep gateway.Endpoint, number string, media gateway.Media) error
	ConnectionState(ctx context.Context, ep gateway.Endpoint) (gateway.ConnectionState, error)
	Connect(ctx context.Context, ep gateway.Endpoint) (gateway.Pairing, error)
}

// Service manages gateway settings and sends messages on behalf of a scope.
type Service struct {
	repo    Repository
	gateway Gateway
	log     *logger.Logger
}

// New creates a new whatsapp service.
func New(repo Repository, gw Gateway, log *logger.Logger) *Service {
	return &Service{repo: repo, gateway: gw, log: log}
}

func (s *Service) GetConfig(ctx context.Context, scope tenancy.Scope) (transport.ConfigResponse, error) {
	cfg, err := s.repo.GetForScope(ctx, scope)
	if err != nil {
		return transport.ConfigResponse{}, err
	}
	return mapConfig(cfg), nil
}

func (s *Service) SaveConfig(ctx context.Context, scope tenancy.Scope, req transport.UpsertConfigRequest) (transport.ConfigResponse, error) {
	cfg, err := s.repo.Upsert(ctx, repository.Config{
		ID:           uuid.New(),
		UserID:       scope.UserID,
		CompanyID:    scope.CompanyID,
		BaseURL:      strings.TrimRight(strings.TrimSpace(req.BaseURL), "/"),
		APIKey:       strings.TrimSpace(req.APIKey),
		InstanceName: strings.TrimSpace(req.InstanceName),
	})
	if err != nil {
		return transport.ConfigResponse{}, err
	}
	return mapConfig(cfg), nil
}

func (s *Service) DeleteConfig(ctx context.Context, scope tenancy.Scope) error {
	return s.repo.Delete(ctx, scope.UserID)
}

// Connection reports the instance state. While the instance is not paired the
// gateway's QR payload is returned as a PNG data URL.
func (s *Service) Connection(ctx context.Context, scope tenancy.Scope) (transport.ConnectionResponse, error) {
	ep, err := s.endpoint(ctx, scope)
	if err != nil {
		return transport.ConnectionResponse{}, err
	}

	state, err := s.gateway.ConnectionState(ctx, ep)
	if err != nil {
		return transport.ConnectionResponse{}, apperr.Upstream("failed to read gateway connection state", err)
	}
	resp := transport.ConnectionResponse{
		Instance:  state.Instance,
		State:     state.State,
		Connected: state.State == stateOpen,
	}
	if resp.Connected {
		return resp, nil
	}

	pairing, err := s.gateway.Connect(ctx, ep)
	if err != nil {
		return transport.ConnectionResponse{}, apperr.Upstream("failed to request pairing code", err)
	}
	qr, err := qrDataURL(pairing)
	if err != nil {
		return transport.ConnectionResponse{}, apperr.Internal("failed to render pairing QR code")
	}
	resp.QRCode = qr
	resp.PairingCode = pairing.PairingCode
	return resp, nil
}

// SendText sends text through the scope's gateway instance.
func (s *Service) SendText(ctx context.Context, scope tenancy.Scope, number, text string) error {
	ep, err := s.endpoint(ctx, scope)
	if err != nil {
		return err
	}
	return s.gateway.SendText(ctx, ep, number, text)
}

// SendMedia sends an image or document through the scope's gateway instance.
func (s *Service) SendMedia(ctx context.Context, scope tenancy.Scope, number string, media gateway.Media) error {
	ep, err := s.endpoint(ctx, scope)
	if err != nil {
		return err
	}
	return s.gateway.SendMedia(ctx, ep, number, media)
}

func (s *Service) endpoint(ctx context.Context, scope tenancy.Scope) (gateway.Endpoint, error) {
	cfg, err := s.repo.GetForScope(ctx, scope)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return gateway.Endpoint{}, apperr.Validation("whatsapp gateway is not configured")
		}
		return gateway.Endpoint{}, err
	}
	return gateway.Endpoint{BaseURL: cfg.BaseURL, APIKey: cfg.APIKey, Instance: cfg.InstanceName}, nil
}

func qrDataURL(p gateway.Pairing) (string, error) {
	if strings.HasPrefix(p.Base64, "data:image") {
		return p.Base64, nil
	}
	if p.Base64 != "" {
		return "data:image/png;base64," + p.Base64, nil
	}
	if p.Code == "" {
		return "", nil
	}
	png, err := qrcode.Encode(p.Code, qrcode.Medium, qrCodeSize)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}

func mapConfig(cfg repository.Config) transport.ConfigResponse {
	return transport.ConfigResponse{
		ID:           cfg.ID,
		BaseURL:      cfg.BaseURL,
		APIKeyHint:   maskKey(cfg.APIKey),
		InstanceName: cfg.InstanceName,
		UpdatedAt:    cfg.UpdatedAt,
	}
}

func maskKey(key string) string {
	if len(key) <= 4 {
		return strings.Repeat("*", len(key))
	}
	return strings.Repeat("*", len(key)-4) + key[len(key)-4:]
}
