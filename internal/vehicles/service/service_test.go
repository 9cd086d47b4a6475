package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"autoparts_quotes_backend/internal/adapters/storage"
	"autoparts_quotes_backend/internal/vehicles/repository"
	"autoparts_quotes_backend/internal/vehicles/transport"
	"autoparts_quotes_backend/platform/apperr"
	"autoparts_quotes_backend/platform/logger"
	"autoparts_quotes_backend/platform/tenancy"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type fakeRepo struct {
	Repository
	vehicles map[uuid.UUID]repository.Vehicle
	parts    []repository.Part
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{vehicles: map[uuid.UUID]repository.Vehicle{}}
}

func (f *fakeRepo) Create(_ context.Context, v repository.Vehicle) (repository.Vehicle, error) {
	f.vehicles[v.ID] = v
	return v, nil
}

func (f *fakeRepo) GetByID(_ context.Context, _ tenancy.Scope, id uuid.UUID) (repository.Vehicle, error) {
	v, ok := f.vehicles[id]
	if !ok {
		return repository.Vehicle{}, apperr.NotFound("vehicle not found")
	}
	return v, nil
}

func (f *fakeRepo) Delete(_ context.Context, _ tenancy.Scope, id uuid.UUID) error {
	delete(f.vehicles, id)
	return nil
}

func (f *fakeRepo) AppendImage(_ context.Context, _ tenancy.Scope, id uuid.UUID, key string) (repository.Vehicle, error) {
	v := f.vehicles[id]
	v.Images = append(v.Images, key)
	f.vehicles[id] = v
	return v, nil
}

func (f *fakeRepo) RemoveImage(_ context.Context, _ tenancy.Scope, id uuid.UUID, key string) (repository.Vehicle, error) {
	v := f.vehicles[id]
	kept := v.Images[:0]
	for _, k := range v.Images {
		if k != key {
			kept = append(kept, k)
		}
	}
	v.Images = kept
	f.vehicles[id] = v
	return v, nil
}

func (f *fakeRepo) CreatePart(_ context.Context, p repository.Part) (repository.Part, error) {
	f.parts = append(f.parts, p)
	return p, nil
}

type fakeStorage struct {
	storage.StorageService
	uploaded []string
	deleted  []string
}

func (f *fakeStorage) UploadFile(_ context.Context, _, folder, fileName, _ string, _ io.Reader, _ int64) (string, error) {
	key := folder + "/" + fileName
	f.uploaded = append(f.uploaded, key)
	return key, nil
}

func (f *fakeStorage) DeleteObject(_ context.Context, _, key string) error {
	f.deleted = append(f.deleted, key)
	return nil
}

func (f *fakeStorage) ValidateFileSize(size int64) error {
	if size > 1024 {
		return errors.New("file too large")
	}
	return nil
}

type fakeExtractor struct {
	got []byte
}

func (f *fakeExtractor) ExtractVehicle(_ context.Context, pdf []byte) (transport.ExtractedVehicle, error) {
	f.got = pdf
	return transport.ExtractedVehicle{Brand: "FIAT", Model: "UNO"}, nil
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func TestCreateNormalizesPlateAndChassis(t *testing.T) {
	repo := newFakeRepo()
	svc := New(repo, nil, "", logger.Nop())
	scope := tenancy.ForUser(uuid.New())

	got, err := svc.Create(context.Background(), scope, transport.VehicleRequest{
		Brand:   " Fiat ",
		Model:   "Uno",
		Plate:   strPtr("abc-1d23"),
		Chassis: strPtr(" 9bwzzz377vt004251 "),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if got.Brand != "Fiat" {
		t.Fatalf("expected trimmed brand, got %q", got.Brand)
	}
	if got.Plate == nil || *got.Plate != "ABC1D23" {
		t.Fatalf("unexpected plate %v", got.Plate)
	}
	if got.Chassis == nil || *got.Chassis != "9BWZZZ377VT004251" {
		t.Fatalf("unexpected chassis %v", got.Chassis)
	}
	if got.Images == nil {
		t.Fatalf("images should be an empty list, not nil")
	}
	stored := repo.vehicles[got.ID]
	if stored.UserID != scope.UserID {
		t.Fatalf("vehicle not owned by caller")
	}
}

func TestFromRequestDerivesYearLabel(t *testing.T) {
	v := FromRequest(transport.VehicleRequest{Brand: "VW", Model: "Gol", ManufacturingYear: intPtr(2019), ModelYear: intPtr(2020)})
	if v.Year == nil || *v.Year != "2019/2020" {
		t.Fatalf("expected 2019/2020, got %v", v.Year)
	}
	v = FromRequest(transport.VehicleRequest{Brand: "VW", Model: "Gol", ManufacturingYear: intPtr(2019), ModelYear: intPtr(2019)})
	if v.Year == nil || *v.Year != "2019" {
		t.Fatalf("expected 2019, got %v", v.Year)
	}
}

func TestImageUploadRequiresStorage(t *testing.T) {
	svc := New(newFakeRepo(), nil, "", logger.Nop())
	_, err := svc.StageImage(context.Background(), tenancy.ForUser(uuid.New()), Upload{ContentType: "image/png"})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestAddImageRejectsNonImages(t *testing.T) {
	repo := newFakeRepo()
	id := uuid.New()
	repo.vehicles[id] = repository.Vehicle{ID: id}
	svc := New(repo, &fakeStorage{}, "vehicle-images", logger.Nop())

	_, err := svc.AddImage(context.Background(), tenancy.ForUser(uuid.New()), id, Upload{
		FileName: "doc.pdf", ContentType: "application/pdf", Size: 10, Body: bytes.NewReader([]byte("x")),
	})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestAddAndRemoveImage(t *testing.T) {
	repo := newFakeRepo()
	id := uuid.New()
	repo.vehicles[id] = repository.Vehicle{ID: id}
	store := &fakeStorage{}
	svc := New(repo, store, "vehicle-images", logger.Nop())
	scope := tenancy.ForUser(uuid.New())

	got, err := svc.AddImage(context.Background(), scope, id, Upload{
		FileName: "front.jpg", ContentType: "image/jpeg", Size: 10, Body: bytes.NewReader([]byte("img")),
	})
	if err != nil {
		t.Fatalf("add image: %v", err)
	}
	if len(got.Images) != 1 {
		t.Fatalf("expected one image, got %v", got.Images)
	}
	key := got.Images[0]

	if _, err := svc.RemoveImage(context.Background(), scope, id, "unknown"); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found for unknown key, got %v", err)
	}
	got, err = svc.RemoveImage(context.Background(), scope, id, key)
	if err != nil {
		t.Fatalf("remove image: %v", err)
	}
	if len(got.Images) != 0 {
		t.Fatalf("image not detached: %v", got.Images)
	}
	if len(store.deleted) != 1 || store.deleted[0] != key {
		t.Fatalf("object not deleted: %v", store.deleted)
	}
}

func TestAddImageRejectsOversizedFile(t *testing.T) {
	repo := newFakeRepo()
	id := uuid.New()
	repo.vehicles[id] = repository.Vehicle{ID: id}
	svc := New(repo, &fakeStorage{}, "vehicle-images", logger.Nop())

	_, err := svc.AddImage(context.Background(), tenancy.ForUser(uuid.New()), id, Upload{
		FileName: "big.jpg", ContentType: "image/jpeg", Size: 4096, Body: bytes.NewReader(nil),
	})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDeleteRemovesStoredImages(t *testing.T) {
	repo := newFakeRepo()
	id := uuid.New()
	repo.vehicles[id] = repository.Vehicle{ID: id, Images: []string{"a.jpg", "b.jpg"}}
	store := &fakeStorage{}
	svc := New(repo, store, "vehicle-images", logger.Nop())

	if err := svc.Delete(context.Background(), tenancy.ForUser(uuid.New()), id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(store.deleted) != 2 {
		t.Fatalf("expected both images deleted, got %v", store.deleted)
	}
}

func TestCreatePartRoundsMoney(t *testing.T) {
	repo := newFakeRepo()
	id := uuid.New()
	repo.vehicles[id] = repository.Vehicle{ID: id}
	svc := New(repo, nil, "", logger.Nop())

	got, err := svc.CreatePart(context.Background(), tenancy.ForUser(uuid.New()), id, transport.PartRequest{
		Operation:   transport.OperationReplace,
		Code:        "ab-123",
		Description: "Parachoque dianteiro",
		Condition:   transport.ConditionGenuine,
		Quantity:    1,
		PartCost:    decimal.RequireFromString("199.999"),
	})
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if got.Code != "AB-123" {
		t.Fatalf("expected upper-cased code, got %q", got.Code)
	}
	if !got.PartCost.Equal(decimal.RequireFromString("200.00")) {
		t.Fatalf("expected rounded cost, got %s", got.PartCost)
	}
	if got.VehicleID != id {
		t.Fatalf("part not attached to vehicle")
	}
}

func TestCreatePartUnknownVehicle(t *testing.T) {
	svc := New(newFakeRepo(), nil, "", logger.Nop())
	_, err := svc.CreatePart(context.Background(), tenancy.ForUser(uuid.New()), uuid.New(), transport.PartRequest{})
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestExtract(t *testing.T) {
	svc := New(newFakeRepo(), nil, "", logger.Nop())
	if _, err := svc.Extract(context.Background(), Upload{ContentType: "application/pdf"}); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error without extractor, got %v", err)
	}

	ex := &fakeExtractor{}
	svc.SetDocumentExtractor(ex)
	if _, err := svc.Extract(context.Background(), Upload{ContentType: "image/png", Body: bytes.NewReader(nil)}); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for non-pdf, got %v", err)
	}
	got, err := svc.Extract(context.Background(), Upload{ContentType: "application/pdf", Body: bytes.NewReader([]byte("%PDF"))})
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if got.Brand != "FIAT" || string(ex.got) != "%PDF" {
		t.Fatalf("unexpected extraction %+v", got)
	}
}
