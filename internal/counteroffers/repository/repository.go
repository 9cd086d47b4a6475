package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"autoparts_quotes_backend/internal/shared/quotedoc"
	"autoparts_quotes_backend/platform/apperr"
	"autoparts_quotes_backend/platform/tenancy"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Counter offer statuses.
const (
	StatusPending           = "pending"
	StatusAccepted          = "accepted"
	StatusPartiallyAccepted = "partially_accepted"
)

const (
	counterOfferNotFoundMsg = "counter offer not found"
	requestNotFoundMsg      = "quotation request not found"
	alreadyAnsweredMsg      = "this counter offer has already been answered"
)

// Line is one negotiated part of a counter offer.
type Line struct {
	PartIndex          int             `json:"part_index"`
	Description        string          `json:"description"`
	Quantity           int             `json:"quantity"`
	Available          bool            `json:"available"`
	OriginalPrice      decimal.Decimal `json:"original_price"`
	OriginalTotal      decimal.Decimal `json:"original_total"`
	CounterPrice       decimal.Decimal `json:"counter_price"`
	CounterTotal       decimal.Decimal `json:"counter_total"`
	DiscountPercentage decimal.Decimal `json:"discount_percentage"`
	Accepted           *bool           `json:"accepted,omitempty"`
}

// CounterOffer is the database model for a counter offer.
type CounterOffer struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	CompanyID     *uuid.UUID
	RequestID     uuid.UUID
	SupplierID    uuid.UUID
	SupplierName  string
	SupplierPhone *string
	Parts         []Line
	Total         decimal.Decimal
	Notes         *string
	Status        string
	RespondedAt   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// RequestContext is the answered quotation request a counter offer negotiates.
type RequestContext struct {
	RequestID        uuid.UUID
	QuotationID      uuid.UUID
	SupplierID       uuid.UUID
	SupplierName     string
	SupplierPhone    *string
	SupplierAreaCode *string
	Status           string
	Response         *quotedoc.Response
	Brand            string
	Model            string
}

// Repository provides database operations for counter offers.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new counter offers repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const offerColumns = `co.id, co.user_id, co.company_id, co.quotation_request_id, co.supplier_id, co.supplier_name, co.supplier_phone,
	co.parts, co.total, co.notes, co.status, co.responded_at, co.created_at, co.updated_at`

func scanOffer(row pgx.Row) (CounterOffer, error) {
	var co CounterOffer
	err := row.Scan(&co.ID, &co.UserID, &co.CompanyID, &co.RequestID, &co.SupplierID, &co.SupplierName, &co.SupplierPhone,
		&co.Parts, &co.Total, &co.Notes, &co.Status, &co.RespondedAt, &co.CreatedAt, &co.UpdatedAt)
	return co, err
}

const requestContextQuery = `
	SELECT qr.id, qr.quotation_id, qr.supplier_id, s.name, s.phone, s.area_code, qr.status, qr.response_data, v.brand, v.model
	FROM quotation_requests qr
	JOIN suppliers s ON s.id = qr.supplier_id
	JOIN quotations q ON q.id = qr.quotation_id
	JOIN vehicles v ON v.id = q.vehicle_id
	WHERE qr.id = $1`

func scanRequestContext(row pgx.Row) (RequestContext, error) {
	var rc RequestContext
	err := row.Scan(&rc.RequestID, &rc.QuotationID, &rc.SupplierID, &rc.SupplierName, &rc.SupplierPhone, &rc.SupplierAreaCode,
		&rc.Status, &rc.Response, &rc.Brand, &rc.Model)
	if errors.Is(err, pgx.ErrNoRows) {
		return RequestContext{}, apperr.NotFound(requestNotFoundMsg)
	}
	if err != nil {
		return RequestContext{}, fmt.Errorf("get quotation request: %w", err)
	}
	return rc, nil
}

func (r *Repository) GetRequest(ctx context.Context, scope tenancy.Scope, requestID uuid.UUID) (RequestContext, error) {
	args := append([]any{requestID}, scope.Args()...)
	return scanRequestContext(r.pool.QueryRow(ctx, requestContextQuery+` AND `+tenancy.Predicate("qr", 2), args...))
}

// GetRequestPublic loads the request behind a counter offer without an
// ownership check.
func (r *Repository) GetRequestPublic(ctx context.Context, requestID uuid.UUID) (RequestContext, error) {
	return scanRequestContext(r.pool.QueryRow(ctx, requestContextQuery, requestID))
}

func (r *Repository) Create(ctx context.Context, co CounterOffer) (CounterOffer, error) {
	out, err := scanOffer(r.pool.QueryRow(ctx, `
		INSERT INTO counter_offers AS co (id, user_id, company_id, quotation_request_id, supplier_id, supplier_name, supplier_phone, parts, total, notes, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING `+offerColumns,
		co.ID, co.UserID, co.CompanyID, co.RequestID, co.SupplierID, co.SupplierName, co.SupplierPhone, co.Parts, co.Total, co.Notes, StatusPending))
	if err != nil {
		return CounterOffer{}, fmt.Errorf("create counter offer: %w", err)
	}
	return out, nil
}

func (r *Repository) GetByID(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (CounterOffer, error) {
	args := append([]any{id}, scope.Args()...)
	co, err := scanOffer(r.pool.QueryRow(ctx, `SELECT `+offerColumns+` FROM counter_offers co WHERE co.id = $1 AND `+tenancy.Predicate("co", 2), args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return CounterOffer{}, apperr.NotFound(counterOfferNotFoundMsg)
	}
	if err != nil {
		return CounterOffer{}, fmt.Errorf("get counter offer: %w", err)
	}
	return co, nil
}

// GetPublic loads a counter offer by id alone, for the supplier link.
func (r *Repository) GetPublic(ctx context.Context, id uuid.UUID) (CounterOffer, error) {
	co, err := scanOffer(r.pool.QueryRow(ctx, `SELECT `+offerColumns+` FROM counter_offers co WHERE co.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return CounterOffer{}, apperr.NotFound(counterOfferNotFoundMsg)
	}
	if err != nil {
		return CounterOffer{}, fmt.Errorf("get counter offer: %w", err)
	}
	return co, nil
}

func (r *Repository) ListByRequest(ctx context.Context, scope tenancy.Scope, requestID uuid.UUID) ([]CounterOffer, error) {
	args := append([]any{requestID}, scope.Args()...)
	return r.list(ctx, `
		SELECT `+offerColumns+` FROM counter_offers co
		WHERE co.quotation_request_id = $1 AND `+tenancy.Predicate("co", 2)+`
		ORDER BY co.created_at`, args...)
}

func (r *Repository) ListByQuotation(ctx context.Context, scope tenancy.Scope, quotationID uuid.UUID) ([]CounterOffer, error) {
	args := append([]any{quotationID}, scope.Args()...)
	return r.list(ctx, `
		SELECT `+offerColumns+` FROM counter_offers co
		JOIN quotation_requests qr ON qr.id = co.quotation_request_id
		WHERE qr.quotation_id = $1 AND `+tenancy.Predicate("co", 2)+`
		ORDER BY co.created_at`, args...)
}

func (r *Repository) list(ctx context.Context, query string, args ...any) ([]CounterOffer, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list counter offers: %w", err)
	}
	defer rows.Close()

	items := make([]CounterOffer, 0)
	for rows.Next() {
		co, err := scanOffer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan counter offer: %w", err)
		}
		items = append(items, co)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate counter offers: %w", err)
	}
	return items, nil
}

// MergeFunc folds a counter offer decision into the request's stored response.
type MergeFunc func(current quotedoc.Response) quotedoc.Response

// Respond stores the supplier's decision and merges it into the request
// response in one transaction. The response is re-read under a row lock so
// concurrent answers on the same request do not overwrite each other. Only a
// pending counter offer can be answered.
func (r *Repository) Respond(ctx context.Context, co CounterOffer, merge MergeFunc) (CounterOffer, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return CounterOffer{}, fmt.Errorf("begin counter offer tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	out, err := scanOffer(tx.QueryRow(ctx, `
		UPDATE counter_offers co SET parts = $2, total = $3, status = $4, responded_at = now(), updated_at = now()
		WHERE co.id = $1 AND co.status = $5
		RETURNING `+offerColumns, co.ID, co.Parts, co.Total, co.Status, StatusPending))
	if errors.Is(err, pgx.ErrNoRows) {
		return CounterOffer{}, apperr.Conflict(alreadyAnsweredMsg)
	}
	if err != nil {
		return CounterOffer{}, fmt.Errorf("respond counter offer: %w", err)
	}

	var current *quotedoc.Response
	if err := tx.QueryRow(ctx, `
		SELECT response_data FROM quotation_requests WHERE id = $1 FOR UPDATE`, co.RequestID).Scan(&current); err != nil {
		return CounterOffer{}, fmt.Errorf("lock quotation request: %w", err)
	}
	if current == nil {
		return CounterOffer{}, apperr.Internal("quotation request has no response to negotiate")
	}

	if _, err := tx.Exec(ctx, `
		UPDATE quotation_requests SET response_data = $2, updated_at = now()
		WHERE id = $1`, co.RequestID, merge(*current)); err != nil {
		return CounterOffer{}, fmt.Errorf("merge negotiated prices: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return CounterOffer{}, fmt.Errorf("commit counter offer tx: %w", err)
	}
	return out, nil
}
