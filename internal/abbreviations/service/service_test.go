package service

import (
	"context"
	"testing"
	"time"

	"autoparts_quotes_backend/internal/abbreviations/repository"
	"autoparts_quotes_backend/internal/abbreviations/transport"
	"autoparts_quotes_backend/platform/tenancy"

	"github.com/google/uuid"
)

type fakeRepo struct {
	items     []repository.Abbreviation
	listCalls int
}

func (f *fakeRepo) List(context.Context, tenancy.Scope) ([]repository.Abbreviation, error) {
	f.listCalls++
	return append([]repository.Abbreviation(nil), f.items...), nil
}

func (f *fakeRepo) Create(_ context.Context, a repository.Abbreviation) (repository.Abbreviation, error) {
	f.items = append(f.items, a)
	return a, nil
}

func (f *fakeRepo) Update(_ context.Context, _ tenancy.Scope, id uuid.UUID, fullText string) (repository.Abbreviation, error) {
	for i := range f.items {
		if f.items[i].ID == id {
			f.items[i].FullText = fullText
			return f.items[i], nil
		}
	}
	return repository.Abbreviation{}, nil
}

func (f *fakeRepo) Delete(_ context.Context, _ tenancy.Scope, id uuid.UUID) error {
	for i := range f.items {
		if f.items[i].ID == id {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return nil
		}
	}
	return nil
}

func TestCreateStoresUpperCaseAndInvalidates(t *testing.T) {
	repo := &fakeRepo{}
	svc := New(repo, 5*time.Minute)
	scope := tenancy.ForUser(uuid.New())
	ctx := context.Background()

	if got, _ := svc.Expand(ctx, scope, "farol le"); got != "farol le" {
		t.Fatalf("expected no expansion before create, got %q", got)
	}

	created, err := svc.Create(ctx, scope, transport.CreateAbbreviationRequest{Abbreviation: " le ", FullText: "lado esquerdo"})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if created.Abbreviation != "LE" {
		t.Fatalf("expected upper-case abbreviation, got %q", created.Abbreviation)
	}

	got, err := svc.Expand(ctx, scope, "farol le")
	if err != nil {
		t.Fatalf("Expand returned error: %v", err)
	}
	if got != "farol lado esquerdo" {
		t.Fatalf("expected expansion after create, got %q", got)
	}
}

func TestExpandUsesCacheWithinTTL(t *testing.T) {
	repo := &fakeRepo{items: []repository.Abbreviation{{ID: uuid.New(), Abbreviation: "LD", FullText: "LADO DIREITO"}}}
	svc := New(repo, 5*time.Minute)
	scope := tenancy.ForUser(uuid.New())

	for range 5 {
		if _, err := svc.Expand(context.Background(), scope, "retrovisor ld"); err != nil {
			t.Fatalf("Expand returned error: %v", err)
		}
	}
	if repo.listCalls != 1 {
		t.Fatalf("expected one store read, got %d", repo.listCalls)
	}
}

func TestDeleteInvalidates(t *testing.T) {
	id := uuid.New()
	repo := &fakeRepo{items: []repository.Abbreviation{{ID: id, Abbreviation: "LD", FullText: "LADO DIREITO"}}}
	svc := New(repo, time.Hour)
	scope := tenancy.ForUser(uuid.New())
	ctx := context.Background()

	_, _ = svc.Expand(ctx, scope, "ld")
	if err := svc.Delete(ctx, scope, id); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	got, _ := svc.Expand(ctx, scope, "ld")
	if got != "ld" {
		t.Fatalf("expected stale entry to be gone, got %q", got)
	}
}
