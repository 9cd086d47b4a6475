package service

import (
	"context"
	"testing"

	"autoparts_quotes_backend/internal/identity/repository"
	"autoparts_quotes_backend/internal/identity/transport"
	"autoparts_quotes_backend/platform/apperr"
	"autoparts_quotes_backend/platform/tenancy"

	"github.com/google/uuid"
)

type fakeRepo struct {
	Repository
	memberships map[uuid.UUID]repository.Membership
	admins      int
	removed     []uuid.UUID
	workshop    repository.Workshop
}

func (f *fakeRepo) GetMembership(_ context.Context, userID uuid.UUID) (repository.Membership, bool, error) {
	m, ok := f.memberships[userID]
	return m, ok, nil
}

func (f *fakeRepo) CountAdmins(context.Context, uuid.UUID) (int, error) { return f.admins, nil }

func (f *fakeRepo) RemoveMember(_ context.Context, _ uuid.UUID, userID uuid.UUID) error {
	f.removed = append(f.removed, userID)
	return nil
}

func (f *fakeRepo) UpsertWorkshop(_ context.Context, w repository.Workshop) (repository.Workshop, error) {
	f.workshop = w
	return w, nil
}

func TestResolveCompany(t *testing.T) {
	userID, companyID := uuid.New(), uuid.New()
	svc := New(&fakeRepo{memberships: map[uuid.UUID]repository.Membership{
		userID: {CompanyID: companyID, Role: "admin"},
	}})

	m, ok, err := svc.ResolveCompany(context.Background(), userID)
	if err != nil || !ok || m.CompanyID != companyID || m.Role != "admin" {
		t.Fatalf("unexpected membership %+v ok=%v err=%v", m, ok, err)
	}

	if _, ok, _ := svc.ResolveCompany(context.Background(), uuid.New()); ok {
		t.Fatal("expected no membership for unknown user")
	}
}

func TestRemoveLastAdminSelfIsRejected(t *testing.T) {
	repo := &fakeRepo{admins: 1}
	svc := New(repo)
	admin := uuid.New()

	err := svc.RemoveMember(context.Background(), uuid.New(), admin, admin)
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}

	other := uuid.New()
	if err := svc.RemoveMember(context.Background(), uuid.New(), admin, other); err != nil {
		t.Fatalf("remove other member: %v", err)
	}
	if len(repo.removed) != 1 || repo.removed[0] != other {
		t.Fatalf("unexpected removals %v", repo.removed)
	}
}

func TestCreateCompanyRejectsExistingMember(t *testing.T) {
	svc := New(&fakeRepo{})
	scope := tenancy.ForUser(uuid.New()).WithCompany(uuid.New())

	_, err := svc.CreateCompany(context.Background(), scope, transport.CreateCompanyRequest{Name: "Oficina"})
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestUpsertWorkshopNormalizesState(t *testing.T) {
	repo := &fakeRepo{}
	svc := New(repo)
	state := " sp "

	resp, err := svc.UpsertWorkshop(context.Background(), tenancy.ForUser(uuid.New()), transport.UpsertWorkshopRequest{
		Name:  "  Oficina   Central ",
		State: &state,
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if resp.Name != "Oficina Central" || resp.State == nil || *resp.State != "SP" {
		t.Fatalf("unexpected workshop %+v", resp)
	}
}
