package service

import (
	"context"
	"testing"

	"autoparts_quotes_backend/internal/suppliers/repository"
	"autoparts_quotes_backend/internal/suppliers/transport"
	"autoparts_quotes_backend/platform/tenancy"

	"github.com/google/uuid"
)

type fakeRepo struct {
	Repository
	created    repository.Supplier
	listParams repository.ListParams
}

func (f *fakeRepo) Create(_ context.Context, s repository.Supplier) (repository.Supplier, error) {
	f.created = s
	return s, nil
}

func (f *fakeRepo) List(_ context.Context, p repository.ListParams) (repository.ListResult, error) {
	f.listParams = p
	return repository.ListResult{Page: 1, PageSize: 50}, nil
}

func strPtr(s string) *string { return &s }

func TestCreateNormalizesFields(t *testing.T) {
	repo := &fakeRepo{}
	svc := New(repo)
	scope := tenancy.ForUser(uuid.New())

	resp, err := svc.Create(context.Background(), scope, transport.CreateSupplierRequest{
		Name:       "  Auto  Peças <b>Sul</b> ",
		Phone:      strPtr("(11) 98765-4321"),
		AreaCode:   strPtr("11"),
		State:      strPtr("sp"),
		Categories: []string{"Funilaria", " funilaria ", "", "Elétrica"},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if repo.created.Name != "Auto Peças Sul" {
		t.Fatalf("unexpected name %q", repo.created.Name)
	}
	if *repo.created.Phone != "11987654321" {
		t.Fatalf("expected digits only phone, got %q", *repo.created.Phone)
	}
	if *repo.created.State != "SP" {
		t.Fatalf("expected upper-case state, got %q", *repo.created.State)
	}
	if len(repo.created.Categories) != 2 {
		t.Fatalf("expected deduplicated categories, got %v", repo.created.Categories)
	}
	if repo.created.UserID != scope.UserID {
		t.Fatal("expected owner from scope")
	}
	if resp.DisplayPhone == "" {
		t.Fatal("expected display phone")
	}
}

func TestListPassesFilters(t *testing.T) {
	repo := &fakeRepo{}
	svc := New(repo)

	_, err := svc.List(context.Background(), tenancy.ForUser(uuid.New()), transport.ListSuppliersRequest{
		AreaCodes:  []string{"11", " ", "21"},
		States:     []string{"SP"},
		Categories: []string{"Motor"},
	})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(repo.listParams.AreaCodes) != 2 || repo.listParams.AreaCodes[1] != "21" {
		t.Fatalf("unexpected area codes %v", repo.listParams.AreaCodes)
	}
	if len(repo.listParams.Cities) != 0 {
		t.Fatalf("expected no city filter, got %v", repo.listParams.Cities)
	}
	if len(repo.listParams.Categories) != 1 {
		t.Fatalf("unexpected categories %v", repo.listParams.Categories)
	}
}
