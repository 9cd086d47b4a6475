package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"autoparts_quotes_backend/platform/config"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type fakeRow struct {
	id  uuid.UUID
	err error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*(dest[0].(*uuid.UUID)) = r.id
	return nil
}

type fakeQuerier struct{ row fakeRow }

func (q fakeQuerier) QueryRow(context.Context, string, ...any) pgx.Row { return q.row }

func checkerWith(row fakeRow) checker {
	return checker{
		loadConfig: config.LoadDatabaseOnly,
		connect: func(context.Context, *config.Config) (supplierQuerier, func(), error) {
			return fakeQuerier{row: row}, func() {}, nil
		},
	}
}

func TestRunNeedsOnlyDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/quotes")
	t.Setenv("JWT_ACCESS_SECRET", "")

	var out bytes.Buffer
	code := checkerWith(fakeRow{id: uuid.New()}).run(context.Background(), &out)
	if code != 0 {
		t.Fatalf("expected exit 0, got %d: %s", code, out.String())
	}
	if !strings.HasPrefix(out.String(), "store check succeeded") {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestRunReportsMissingConfigWithoutPanicking(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	var out bytes.Buffer
	code := checkerWith(fakeRow{}).run(context.Background(), &out)
	if code != 1 {
		t.Fatalf("expected exit 1, got %d", code)
	}
	if !strings.HasPrefix(out.String(), "store check failed: DATABASE_URL is required") {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestRunEmptyTableSucceeds(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/quotes")

	var out bytes.Buffer
	code := checkerWith(fakeRow{err: pgx.ErrNoRows}).run(context.Background(), &out)
	if code != 0 || !strings.Contains(out.String(), "(empty)") {
		t.Fatalf("expected empty-table success, got %d %q", code, out.String())
	}
}

func TestRunReportsQueryFailure(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/quotes")

	var out bytes.Buffer
	code := checkerWith(fakeRow{err: errors.New(`relation "suppliers" does not exist`)}).run(context.Background(), &out)
	if code != 1 || !strings.Contains(out.String(), "store check failed") {
		t.Fatalf("expected failure, got %d %q", code, out.String())
	}
}
