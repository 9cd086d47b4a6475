package repository

import (
	"strings"
	"testing"

	"autoparts_quotes_backend/platform/tenancy"

	"github.com/google/uuid"
)

func TestBuildListWhereCombinesFilters(t *testing.T) {
	where, args, next := buildListWhere(ListParams{
		Scope:      tenancy.ForUser(uuid.New()),
		AreaCodes:  []string{"11"},
		Categories: []string{"Motor"},
	})
	if next != 5 || len(args) != 4 {
		t.Fatalf("unexpected arg count next=%d args=%d", next, len(args))
	}
	for _, want := range []string{"area_code = ANY($3)", "categories && $4", " AND "} {
		if !strings.Contains(where, want) {
			t.Fatalf("expected %q in %q", want, where)
		}
	}
}

func TestBuildListWhereScopeOnly(t *testing.T) {
	where, args, next := buildListWhere(ListParams{Scope: tenancy.ForUser(uuid.New())})
	if next != 3 || len(args) != 2 {
		t.Fatalf("unexpected arg count next=%d args=%d", next, len(args))
	}
	if strings.Contains(where, "ANY") {
		t.Fatalf("unexpected filter in %q", where)
	}
}

func TestResolveSort(t *testing.T) {
	if _, err := resolveSortBy("phone"); err == nil {
		t.Fatal("expected invalid sort field")
	}
	if col, _ := resolveSortBy(""); col != "name" {
		t.Fatalf("expected default sort by name, got %q", col)
	}
	if page, size, offset := normalizePaging(3, 0); page != 3 || size != 50 || offset != 100 {
		t.Fatalf("unexpected paging %d %d %d", page, size, offset)
	}
}
