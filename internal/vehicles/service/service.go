package service

import (
	"context"
	"fmt"
	"io"
	"strings"

	"autoparts_quotes_backend/internal/adapters/storage"
	"autoparts_quotes_backend/internal/vehicles/repository"
	"autoparts_quotes_backend/internal/vehicles/transport"
	"autoparts_quotes_backend/platform/apperr"
	"autoparts_quotes_backend/platform/logger"
	"autoparts_quotes_backend/platform/sanitize"
	"autoparts_quotes_backend/platform/tenancy"

	"github.com/google/uuid"
)

const (
	msgStorageDisabled = "file storage is not configured"
	stagingFolder      = "staging"
)

// Repository is the storage the vehicles service needs.
type Repository interface {
	Create(ctx context.Context, v repository.Vehicle) (repository.Vehicle, error)
	GetByID(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (repository.Vehicle, error)
	List(ctx context.Context, scope tenancy.Scope, search string) ([]repository.Vehicle, error)
	Update(ctx context.Context, scope tenancy.Scope, v repository.Vehicle) (repository.Vehicle, error)
	Delete(ctx context.Context, scope tenancy.Scope, id uuid.UUID) error
	AppendImage(ctx context.Context, scope tenancy.Scope, id uuid.UUID, key string) (repository.Vehicle, error)
	RemoveImage(ctx context.Context, scope tenancy.Scope, id uuid.UUID, key string) (repository.Vehicle, error)
	ListParts(ctx context.Context, scope tenancy.Scope, vehicleID uuid.UUID) ([]repository.Part, error)
	CreatePart(ctx context.Context, p repository.Part) (repository.Part, error)
	UpdatePart(ctx context.Context, scope tenancy.Scope, p repository.Part) (repository.Part, error)
	DeletePart(ctx context.Context, scope tenancy.Scope, vehicleID, id uuid.UUID) error
}

// DocumentExtractor reads vehicle fields from an estimate PDF.
type DocumentExtractor interface {
	ExtractVehicle(ctx context.Context, pdf []byte) (transport.ExtractedVehicle, error)
}

// Upload is an incoming file.
type Upload struct {
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Service provides business logic for vehicles, their images and parts.
type Service struct {
	repo      Repository
	storage   storage.StorageService
	bucket    string
	extractor DocumentExtractor
	log       *logger.Logger
}

// New creates a new vehicles service. storageSvc may be nil when object
// storage is disabled.
func New(repo Repository, storageSvc storage.StorageService, bucket string, log *logger.Logger) *Service {
	return &Service{repo: repo, storage: storageSvc, bucket: bucket, log: log}
}

// SetDocumentExtractor wires the estimate PDF extractor.
func (s *Service) SetDocumentExtractor(extractor DocumentExtractor) {
	s.extractor = extractor
}

func (s *Service) Create(ctx context.Context, scope tenancy.Scope, req transport.VehicleRequest) (transport.VehicleResponse, error) {
	v := FromRequest(req)
	v.ID = uuid.New()
	v.UserID = scope.UserID
	v.CompanyID = scope.CompanyID

	created, err := s.repo.Create(ctx, v)
	if err != nil {
		return transport.VehicleResponse{}, err
	}
	return ToResponse(created), nil
}

func (s *Service) Get(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (transport.VehicleResponse, error) {
	v, err := s.repo.GetByID(ctx, scope, id)
	if err != nil {
		return transport.VehicleResponse{}, err
	}
	return ToResponse(v), nil
}

func (s *Service) List(ctx context.Context, scope tenancy.Scope, search string) ([]transport.VehicleResponse, error) {
	items, err := s.repo.List(ctx, scope, strings.TrimSpace(search))
	if err != nil {
		return nil, err
	}
	out := make([]transport.VehicleResponse, 0, len(items))
	for _, v := range items {
		out = append(out, ToResponse(v))
	}
	return out, nil
}

func (s *Service) Update(ctx context.Context, scope tenancy.Scope, id uuid.UUID, req transport.VehicleRequest) (transport.VehicleResponse, error) {
	v := FromRequest(req)
	v.ID = id
	updated, err := s.repo.Update(ctx, scope, v)
	if err != nil {
		return transport.VehicleResponse{}, err
	}
	return ToResponse(updated), nil
}

// Delete removes the vehicle and, best effort, its stored images.
func (s *Service) Delete(ctx context.Context, scope tenancy.Scope, id uuid.UUID) error {
	v, err := s.repo.GetByID(ctx, scope, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, scope, id); err != nil {
		return err
	}
	if s.storage != nil {
		for _, key := range v.Images {
			if err := s.storage.DeleteObject(ctx, s.bucket, key); err != nil {
				s.log.Warn("failed to delete vehicle image", "vehicleId", id, "key", key, "error", err)
			}
		}
	}
	return nil
}

// StageImage stores an image before its vehicle exists and returns the key
// to reference at quotation intake.
func (s *Service) StageImage(ctx context.Context, scope tenancy.Scope, upload Upload) (transport.UploadResponse, error) {
	key, err := s.upload(ctx, fmt.Sprintf("%s/%s", stagingFolder, scope.UserID), upload)
	if err != nil {
		return transport.UploadResponse{}, err
	}
	return transport.UploadResponse{Key: key}, nil
}

// AddImage uploads an image and appends it to the vehicle.
func (s *Service) AddImage(ctx context.Context, scope tenancy.Scope, id uuid.UUID, upload Upload) (transport.VehicleResponse, error) {
	if _, err := s.repo.GetByID(ctx, scope, id); err != nil {
		return transport.VehicleResponse{}, err
	}
	key, err := s.upload(ctx, fmt.Sprintf("vehicles/%s", id), upload)
	if err != nil {
		return transport.VehicleResponse{}, err
	}
	v, err := s.repo.AppendImage(ctx, scope, id, key)
	if err != nil {
		_ = s.storage.DeleteObject(ctx, s.bucket, key)
		return transport.VehicleResponse{}, err
	}
	return ToResponse(v), nil
}

// RemoveImage detaches key from the vehicle and deletes the object.
func (s *Service) RemoveImage(ctx context.Context, scope tenancy.Scope, id uuid.UUID, key string) (transport.VehicleResponse, error) {
	v, err := s.repo.GetByID(ctx, scope, id)
	if err != nil {
		return transport.VehicleResponse{}, err
	}
	if !containsKey(v.Images, key) {
		return transport.VehicleResponse{}, apperr.NotFound("image not found")
	}
	updated, err := s.repo.RemoveImage(ctx, scope, id, key)
	if err != nil {
		return transport.VehicleResponse{}, err
	}
	if s.storage != nil {
		if err := s.storage.DeleteObject(ctx, s.bucket, key); err != nil {
			s.log.Warn("failed to delete vehicle image", "vehicleId", id, "key", key, "error", err)
		}
	}
	return ToResponse(updated), nil
}

// ImageURLs returns presigned download links for every vehicle image.
func (s *Service) ImageURLs(ctx context.Context, scope tenancy.Scope, id uuid.UUID) ([]transport.ImageURLResponse, error) {
	if s.storage == nil {
		return nil, apperr.Validation(msgStorageDisabled)
	}
	v, err := s.repo.GetByID(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	out := make([]transport.ImageURLResponse, 0, len(v.Images))
	for _, key := range v.Images {
		u, err := s.storage.GenerateDownloadURL(ctx, s.bucket, key)
		if err != nil {
			return nil, err
		}
		out = append(out, transport.ImageURLResponse{Key: key, URL: u.URL, ExpiresAt: u.ExpiresAt})
	}
	return out, nil
}

func (s *Service) upload(ctx context.Context, folder string, upload Upload) (string, error) {
	if s.storage == nil {
		return "", apperr.Validation(msgStorageDisabled)
	}
	if !storage.IsImageContentType(upload.ContentType) {
		return "", apperr.Validation("only image uploads are accepted")
	}
	if err := s.storage.ValidateFileSize(upload.Size); err != nil {
		return "", apperr.Validation(err.Error())
	}
	return s.storage.UploadFile(ctx, s.bucket, folder, upload.FileName, upload.ContentType, upload.Body, upload.Size)
}

// Extract reads vehicle fields from an estimate PDF.
func (s *Service) Extract(ctx context.Context, upload Upload) (transport.ExtractedVehicle, error) {
	if s.extractor == nil {
		return transport.ExtractedVehicle{}, apperr.Validation("document extraction is not configured")
	}
	if upload.ContentType != "application/pdf" {
		return transport.ExtractedVehicle{}, apperr.Validation("only PDF documents are accepted")
	}
	data, err := io.ReadAll(upload.Body)
	if err != nil {
		return transport.ExtractedVehicle{}, apperr.BadRequest("could not read document")
	}
	return s.extractor.ExtractVehicle(ctx, data)
}

// =============================================================================
// Parts
// =============================================================================

func (s *Service) ListParts(ctx context.Context, scope tenancy.Scope, vehicleID uuid.UUID) ([]transport.PartResponse, error) {
	parts, err := s.repo.ListParts(ctx, scope, vehicleID)
	if err != nil {
		return nil, err
	}
	out := make([]transport.PartResponse, 0, len(parts))
	for _, p := range parts {
		out = append(out, toPartResponse(p))
	}
	return out, nil
}

func (s *Service) CreatePart(ctx context.Context, scope tenancy.Scope, vehicleID uuid.UUID, req transport.PartRequest) (transport.PartResponse, error) {
	if _, err := s.repo.GetByID(ctx, scope, vehicleID); err != nil {
		return transport.PartResponse{}, err
	}
	p := fromPartRequest(req)
	p.ID = uuid.New()
	p.VehicleID = vehicleID
	p.UserID = scope.UserID
	p.CompanyID = scope.CompanyID

	created, err := s.repo.CreatePart(ctx, p)
	if err != nil {
		return transport.PartResponse{}, err
	}
	return toPartResponse(created), nil
}

func (s *Service) UpdatePart(ctx context.Context, scope tenancy.Scope, vehicleID, id uuid.UUID, req transport.PartRequest) (transport.PartResponse, error) {
	p := fromPartRequest(req)
	p.ID = id
	p.VehicleID = vehicleID
	updated, err := s.repo.UpdatePart(ctx, scope, p)
	if err != nil {
		return transport.PartResponse{}, err
	}
	return toPartResponse(updated), nil
}

func (s *Service) DeletePart(ctx context.Context, scope tenancy.Scope, vehicleID, id uuid.UUID) error {
	return s.repo.DeletePart(ctx, scope, vehicleID, id)
}

// FromRequest maps and sanitizes vehicle input.
func FromRequest(req transport.VehicleRequest) repository.Vehicle {
	v := repository.Vehicle{
		Brand:             sanitize.Text(req.Brand),
		Model:             sanitize.Text(req.Model),
		Year:              sanitize.TextPtr(req.Year),
		ManufacturingYear: req.ManufacturingYear,
		ModelYear:         req.ModelYear,
		Plate:             normalizeUpper(req.Plate, true),
		Chassis:           normalizeUpper(req.Chassis, false),
	}
	if v.Year == nil && v.ManufacturingYear != nil {
		year := fmt.Sprintf("%d", *v.ManufacturingYear)
		if v.ModelYear != nil && *v.ModelYear != *v.ManufacturingYear {
			year = fmt.Sprintf("%d/%d", *v.ManufacturingYear, *v.ModelYear)
		}
		v.Year = &year
	}
	return v
}

// ToResponse maps a stored vehicle to its API shape.
func ToResponse(v repository.Vehicle) transport.VehicleResponse {
	images := v.Images
	if images == nil {
		images = []string{}
	}
	return transport.VehicleResponse{
		ID:                v.ID,
		Brand:             v.Brand,
		Model:             v.Model,
		Year:              v.Year,
		ManufacturingYear: v.ManufacturingYear,
		ModelYear:         v.ModelYear,
		Plate:             v.Plate,
		Chassis:           v.Chassis,
		Images:            images,
		CreatedAt:         v.CreatedAt,
		UpdatedAt:         v.UpdatedAt,
	}
}

func fromPartRequest(req transport.PartRequest) repository.Part {
	return repository.Part{
		Operation:     req.Operation,
		Code:          strings.ToUpper(sanitize.Text(req.Code)),
		Description:   sanitize.Text(req.Description),
		Condition:     req.Condition,
		Quantity:      req.Quantity,
		PaintingHours: req.PaintingHours,
		LaborHours:    req.LaborHours,
		LaborCost:     req.LaborCost.Round(2),
		PartCost:      req.PartCost.Round(2),
	}
}

func toPartResponse(p repository.Part) transport.PartResponse {
	return transport.PartResponse{
		ID:            p.ID,
		VehicleID:     p.VehicleID,
		Operation:     p.Operation,
		Code:          p.Code,
		Description:   p.Description,
		Condition:     p.Condition,
		Quantity:      p.Quantity,
		PaintingHours: p.PaintingHours,
		LaborHours:    p.LaborHours,
		LaborCost:     p.LaborCost,
		PartCost:      p.PartCost,
	}
}

func normalizeUpper(s *string, stripDash bool) *string {
	if s == nil {
		return nil
	}
	v := strings.ToUpper(strings.TrimSpace(*s))
	if stripDash {
		v = strings.ReplaceAll(v, "-", "")
	}
	if v == "" {
		return nil
	}
	return &v
}

func containsKey(keys []string, key string) bool {
	for _, k := range keys {
		if k == key {
			return true
		}
	}
	return false
}
