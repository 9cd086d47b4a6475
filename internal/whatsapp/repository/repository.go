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

const configNotFoundMsg = "whatsapp configuration not found"

// Config is a user's gateway connection settings.
type Config struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	CompanyID    *uuid.UUID
	BaseURL      string
	APIKey       string
	InstanceName string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Repository provides database operations for gateway settings.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new whatsapp config repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetForScope returns the caller's own settings, falling back to another
// configuration of the caller's company.
func (r *Repository) GetForScope(ctx context.Context, scope tenancy.Scope) (Config, error) {
	query := `
		SELECT id, user_id, company_id, base_url, api_key, instance_name, created_at, updated_at
		FROM whatsapp_configs
		WHERE ` + tenancy.Predicate("", 1) + `
		ORDER BY (user_id = $1) DESC, updated_at DESC
		LIMIT 1
	`
	var cfg Config
	err := r.pool.QueryRow(ctx, query, scope.Args()...).Scan(
		&cfg.ID,
		&cfg.UserID,
		&cfg.CompanyID,
		&cfg.BaseURL,
		&cfg.APIKey,
		&cfg.InstanceName,
		&cfg.CreatedAt,
		&cfg.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Config{}, apperr.NotFound(configNotFoundMsg)
		}
		return Config{}, fmt.Errorf("get whatsapp config: %w", err)
	}
	return cfg, nil
}

// Upsert stores the settings of cfg.UserID.
func (r *Repository) Upsert(ctx context.Context, cfg Config) (Config, error) {
	query := `
		INSERT INTO whatsapp_configs (id, user_id, company_id, base_url, api_key, instance_name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		ON CONFLICT (user_id) DO UPDATE SET
			company_id = EXCLUDED.company_id,
			base_url = EXCLUDED.base_url,
			api_key = EXCLUDED.api_key,
			instance_name = EXCLUDED.instance_name,
			updated_at = now()
		RETURNING id, user_id, company_id, base_url, api_key, instance_name, created_at, updated_at
	`
	var out Config
	err := r.pool.QueryRow(ctx, query,
		cfg.ID,
		cfg.UserID,
		cfg.CompanyID,
		cfg.BaseURL,
		cfg.APIKey,
		cfg.InstanceName,
	).Scan(
		&out.ID,
		&out.UserID,
		&out.CompanyID,
		&out.BaseURL,
		&out.APIKey,
		&out.InstanceName,
		&out.CreatedAt,
		&out.UpdatedAt,
	)
	if err != nil {
		return Config{}, fmt.Errorf("upsert whatsapp config: %w", err)
	}
	return out, nil
}

// Delete removes the user's own settings.
func (r *Repository) Delete(ctx context.Context, userID uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM whatsapp_configs WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("delete whatsapp config: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(configNotFoundMsg)
	}
	return nil
}
