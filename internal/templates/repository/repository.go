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
	"github.com/jackc/pgx/v5/pgxpool"
)

const templateNotFoundMsg = "message template not found"

// Template is a stored message template.
type Template struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	CompanyID *uuid.UUID
	Name      string
	Content   string
	Sequence  int
	IsDefault bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TemplateUpdate carries optional field changes.
type TemplateUpdate struct {
	Name    *string
	Content *string
}

// Repository provides database operations for message templates.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new templates repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const templateColumns = `id, user_id, company_id, name, content, sequence, is_default, created_at, updated_at`

func scanTemplate(row pgx.Row) (Template, error) {
	var t Template
	err := row.Scan(
		&t.ID,
		&t.UserID,
		&t.CompanyID,
		&t.Name,
		&t.Content,
		&t.Sequence,
		&t.IsDefault,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	return t, err
}

// List returns the scope's templates in send order.
func (r *Repository) List(ctx context.Context, scope tenancy.Scope) ([]Template, error) {
	query := `SELECT ` + templateColumns + `
		FROM message_templates
		WHERE ` + tenancy.Predicate("", 1) + `
		ORDER BY sequence ASC, created_at ASC`
	rows, err := r.pool.Query(ctx, query, scope.Args()...)
	if err != nil {
		return nil, fmt.Errorf("list message templates: %w", err)
	}
	defer rows.Close()

	items := make([]Template, 0)
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan message template: %w", err)
		}
		items = append(items, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate message templates: %w", err)
	}
	return items, nil
}

func (r *Repository) GetByID(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (Template, error) {
	query := `SELECT ` + templateColumns + `
		FROM message_templates
		WHERE id = $1 AND ` + tenancy.Predicate("", 2)
	t, err := scanTemplate(r.pool.QueryRow(ctx, query, id, scope.UserID, scope.CompanyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Template{}, apperr.NotFound(templateNotFoundMsg)
		}
		return Template{}, fmt.Errorf("get message template: %w", err)
	}
	return t, nil
}

// GetDefault prefers the caller's own default over a company colleague's.
func (r *Repository) GetDefault(ctx context.Context, scope tenancy.Scope) (Template, error) {
	query := `SELECT ` + templateColumns + `
		FROM message_templates
		WHERE is_default AND ` + tenancy.Predicate("", 1) + `
		ORDER BY (user_id = $1) DESC
		LIMIT 1`
	t, err := scanTemplate(r.pool.QueryRow(ctx, query, scope.Args()...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Template{}, apperr.NotFound("no default message template")
		}
		return Template{}, fmt.Errorf("get default message template: %w", err)
	}
	return t, nil
}

func (r *Repository) CountOwned(ctx context.Context, userID uuid.UUID) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM message_templates WHERE user_id = $1`, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count message templates: %w", err)
	}
	return n, nil
}

// Create appends t after the owner's last template.
func (r *Repository) Create(ctx context.Context, t Template) (Template, error) {
	query := `
		INSERT INTO message_templates (id, user_id, company_id, name, content, sequence, is_default, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5,
			(SELECT COALESCE(MAX(sequence), 0) + 1 FROM message_templates WHERE user_id = $2),
			false, now(), now())
		RETURNING ` + templateColumns
	created, err := scanTemplate(r.pool.QueryRow(ctx, query, t.ID, t.UserID, t.CompanyID, t.Name, t.Content))
	if err != nil {
		return Template{}, fmt.Errorf("create message template: %w", err)
	}
	return created, nil
}

// CreateMany inserts seed templates in one transaction, marking at most one default.
func (r *Repository) CreateMany(ctx context.Context, items []Template) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin seed templates: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, t := range items {
		_, err := tx.Exec(ctx, `
			INSERT INTO message_templates (id, user_id, company_id, name, content, sequence, is_default, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())`,
			t.ID, t.UserID, t.CompanyID, t.Name, t.Content, t.Sequence, t.IsDefault,
		)
		if err != nil {
			return fmt.Errorf("seed message template: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit seed templates: %w", err)
	}
	return nil
}

func (r *Repository) Update(ctx context.Context, scope tenancy.Scope, id uuid.UUID, update TemplateUpdate) (Template, error) {
	query := `
		UPDATE message_templates
		SET name = COALESCE($4, name),
			content = COALESCE($5, content),
			updated_at = now()
		WHERE id = $1 AND ` + tenancy.Predicate("", 2) + `
		RETURNING ` + templateColumns
	t, err := scanTemplate(r.pool.QueryRow(ctx, query, id, scope.UserID, scope.CompanyID, update.Name, update.Content))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Template{}, apperr.NotFound(templateNotFoundMsg)
		}
		return Template{}, fmt.Errorf("update message template: %w", err)
	}
	return t, nil
}

// Delete removes the template and closes the gap in its owner's sequence.
func (r *Repository) Delete(ctx context.Context, scope tenancy.Scope, id uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin delete template: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var owner uuid.UUID
	query := `DELETE FROM message_templates WHERE id = $1 AND ` + tenancy.Predicate("", 2) + ` RETURNING user_id`
	if err := tx.QueryRow(ctx, query, id, scope.UserID, scope.CompanyID).Scan(&owner); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.NotFound(templateNotFoundMsg)
		}
		return fmt.Errorf("delete message template: %w", err)
	}
	if _, err := tx.Exec(ctx, `SELECT normalize_message_template_sequence($1)`, owner); err != nil {
		return fmt.Errorf("normalize template sequence: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit delete template: %w", err)
	}
	return nil
}

// SetDefault makes id the only default of its owner.
func (r *Repository) SetDefault(ctx context.Context, scope tenancy.Scope, id uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin set default template: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var owner uuid.UUID
	query := `SELECT user_id FROM message_templates WHERE id = $1 AND ` + tenancy.Predicate("", 2) + ` FOR UPDATE`
	if err := tx.QueryRow(ctx, query, id, scope.UserID, scope.CompanyID).Scan(&owner); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.NotFound(templateNotFoundMsg)
		}
		return fmt.Errorf("lock message template: %w", err)
	}
	if _, err := tx.Exec(ctx, `UPDATE message_templates SET is_default = false, updated_at = now() WHERE user_id = $1 AND is_default`, owner); err != nil {
		return fmt.Errorf("clear default template: %w", err)
	}
	if _, err := tx.Exec(ctx, `UPDATE message_templates SET is_default = true, updated_at = now() WHERE id = $1`, id); err != nil {
		return fmt.Errorf("set default template: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit default template: %w", err)
	}
	return nil
}

// Swap exchanges the sequence numbers of two templates.
func (r *Repository) Swap(ctx context.Context, first, second uuid.UUID) error {
	if _, err := r.pool.Exec(ctx, `SELECT swap_message_template_sequence($1, $2)`, first, second); err != nil {
		return fmt.Errorf("swap template sequence: %w", err)
	}
	return nil
}

// Normalize renumbers the owner's templates 1..n.
func (r *Repository) Normalize(ctx context.Context, owner uuid.UUID) error {
	if _, err := r.pool.Exec(ctx, `SELECT normalize_message_template_sequence($1)`, owner); err != nil {
		return fmt.Errorf("normalize template sequence: %w", err)
	}
	return nil
}
