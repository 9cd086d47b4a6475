package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"autoparts_quotes_backend/platform/apperr"
	"autoparts_quotes_backend/platform/tenancy"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const abbreviationNotFoundMsg = "abbreviation not found"

// Abbreviation is a stored abbreviation row.
type Abbreviation struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	CompanyID    *uuid.UUID
	Abbreviation string
	FullText     string
	CreatedAt    time.Time
}

// Repository provides database operations for text abbreviations.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new abbreviations repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) List(ctx context.Context, scope tenancy.Scope) ([]Abbreviation, error) {
	query := `
		SELECT id, user_id, company_id, abbreviation, full_text, created_at
		FROM text_abbreviations
		WHERE ` + tenancy.Predicate("", 1) + `
		ORDER BY abbreviation ASC
	`
	rows, err := r.pool.Query(ctx, query, scope.Args()...)
	if err != nil {
		return nil, fmt.Errorf("list abbreviations: %w", err)
	}
	defer rows.Close()

	items := make([]Abbreviation, 0)
	for rows.Next() {
		var a Abbreviation
		if err := rows.Scan(&a.ID, &a.UserID, &a.CompanyID, &a.Abbreviation, &a.FullText, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan abbreviation: %w", err)
		}
		items = append(items, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate abbreviations: %w", err)
	}
	return items, nil
}

func (r *Repository) Create(ctx context.Context, a Abbreviation) (Abbreviation, error) {
	query := `
		INSERT INTO text_abbreviations (id, user_id, company_id, abbreviation, full_text, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.pool.Exec(ctx, query, a.ID, a.UserID, a.CompanyID, a.Abbreviation, a.FullText, a.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Abbreviation{}, apperr.Conflict("abbreviation already exists")
		}
		return Abbreviation{}, fmt.Errorf("create abbreviation: %w", err)
	}
	return a, nil
}

func (r *Repository) Update(ctx context.Context, scope tenancy.Scope, id uuid.UUID, fullText string) (Abbreviation, error) {
	query := `
		UPDATE text_abbreviations SET full_text = $4
		WHERE id = $1 AND ` + tenancy.Predicate("", 2) + `
		RETURNING id, user_id, company_id, abbreviation, full_text, created_at
	`
	var a Abbreviation
	err := r.pool.QueryRow(ctx, query, id, scope.UserID, scope.CompanyID, fullText).
		Scan(&a.ID, &a.UserID, &a.CompanyID, &a.Abbreviation, &a.FullText, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Abbreviation{}, apperr.NotFound(abbreviationNotFoundMsg)
		}
		return Abbreviation{}, fmt.Errorf("update abbreviation: %w", err)
	}
	return a, nil
}

func (r *Repository) Delete(ctx context.Context, scope tenancy.Scope, id uuid.UUID) error {
	query := `DELETE FROM text_abbreviations WHERE id = $1 AND ` + tenancy.Predicate("", 2)
	result, err := r.pool.Exec(ctx, query, id, scope.UserID, scope.CompanyID)
	if err != nil {
		return fmt.Errorf("delete abbreviation: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(abbreviationNotFoundMsg)
	}
	return nil
}
