package tenancy

import (
	"testing"

	"github.com/google/uuid"
)

func TestPredicateWithAlias(t *testing.T) {
	got := Predicate("q", 2)
	want := "(q.user_id = $2 OR ($3::uuid IS NOT NULL AND q.company_id = $3))"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestWithCompanyDoesNotMutateOriginal(t *testing.T) {
	base := ForUser(uuid.New())
	scoped := base.WithCompany(uuid.New())
	if base.CompanyID != nil {
		t.Fatal("expected original scope to stay company-less")
	}
	if scoped.CompanyID == nil {
		t.Fatal("expected company on derived scope")
	}
	if len(scoped.Args()) != 2 {
		t.Fatalf("expected 2 args, got %d", len(scoped.Args()))
	}
}
