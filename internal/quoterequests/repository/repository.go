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
)

// Request statuses.
const (
	StatusPending   = "pending"
	StatusSent      = "sent"
	StatusResponded = "responded"
)

const (
	requestNotFoundMsg   = "quotation request not found"
	quotationNotFoundMsg = "quotation not found"
	alreadyRespondedMsg  = "this quotation request has already been answered"
)

// Request is the database model for a quotation request.
type Request struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	CompanyID   *uuid.UUID
	QuotationID uuid.UUID
	SupplierID  uuid.UUID
	Status      string
	SentAt      *time.Time
	RespondedAt *time.Time
	Response    *quotedoc.Response
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// RequestWithSupplier adds the supplier's display fields.
type RequestWithSupplier struct {
	Request
	SupplierName  string
	SupplierPhone *string
}

// QuotationContext is what a message or the public form shows about a quotation.
type QuotationContext struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	CompanyID *uuid.UUID
	Status    string
	Brand     string
	Model     string
	Year      *string
	Plate     *string
	Chassis   *string
	Images    []string
	Parts     []quotedoc.Part
}

// Repository provides database operations for quotation requests.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new quotation requests repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const requestColumns = `qr.id, qr.user_id, qr.company_id, qr.quotation_id, qr.supplier_id, qr.status, qr.sent_at, qr.responded_at, qr.response_data, qr.created_at, qr.updated_at`

func scanRequest(row pgx.Row, extra ...any) (Request, error) {
	var r Request
	dest := []any{&r.ID, &r.UserID, &r.CompanyID, &r.QuotationID, &r.SupplierID, &r.Status, &r.SentAt, &r.RespondedAt, &r.Response, &r.CreatedAt, &r.UpdatedAt}
	err := row.Scan(append(dest, extra...)...)
	return r, err
}

const quotationContextQuery = `
	SELECT q.id, q.user_id, q.company_id, q.status, v.brand, v.model, v.year, v.plate, v.chassis, v.images, q.parts
	FROM quotations q JOIN vehicles v ON v.id = q.vehicle_id
	WHERE q.id = $1`

func scanQuotationContext(row pgx.Row) (QuotationContext, error) {
	var q QuotationContext
	err := row.Scan(&q.ID, &q.UserID, &q.CompanyID, &q.Status, &q.Brand, &q.Model, &q.Year, &q.Plate, &q.Chassis, &q.Images, &q.Parts)
	if errors.Is(err, pgx.ErrNoRows) {
		return QuotationContext{}, apperr.NotFound(quotationNotFoundMsg)
	}
	if err != nil {
		return QuotationContext{}, fmt.Errorf("get quotation: %w", err)
	}
	return q, nil
}

func (r *Repository) GetQuotation(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (QuotationContext, error) {
	args := append([]any{id}, scope.Args()...)
	return scanQuotationContext(r.pool.QueryRow(ctx, quotationContextQuery+` AND `+tenancy.Predicate("q", 2), args...))
}

// GetQuotationPublic loads a quotation without an ownership check. Callers
// must have matched a request id to it first.
func (r *Repository) GetQuotationPublic(ctx context.Context, id uuid.UUID) (QuotationContext, error) {
	return scanQuotationContext(r.pool.QueryRow(ctx, quotationContextQuery, id))
}

// CreateMany inserts pending requests in one transaction.
func (r *Repository) CreateMany(ctx context.Context, items []Request) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin requests tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	batch := &pgx.Batch{}
	for _, item := range items {
		batch.Queue(`
			INSERT INTO quotation_requests (id, user_id, company_id, quotation_id, supplier_id, status, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			item.ID, item.UserID, item.CompanyID, item.QuotationID, item.SupplierID, StatusPending, item.CreatedAt)
	}
	br := tx.SendBatch(ctx, batch)
	for range items {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return fmt.Errorf("create quotation request: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("create quotation requests: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit requests tx: %w", err)
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (RequestWithSupplier, error) {
	args := append([]any{id}, scope.Args()...)
	var out RequestWithSupplier
	req, err := scanRequest(r.pool.QueryRow(ctx, `
		SELECT `+requestColumns+`, s.name, s.phone
		FROM quotation_requests qr JOIN suppliers s ON s.id = qr.supplier_id
		WHERE qr.id = $1 AND `+tenancy.Predicate("qr", 2), args...), &out.SupplierName, &out.SupplierPhone)
	if errors.Is(err, pgx.ErrNoRows) {
		return RequestWithSupplier{}, apperr.NotFound(requestNotFoundMsg)
	}
	if err != nil {
		return RequestWithSupplier{}, fmt.Errorf("get quotation request: %w", err)
	}
	out.Request = req
	return out, nil
}

// GetPublic finds a request by its public link coordinates.
func (r *Repository) GetPublic(ctx context.Context, quotationID, requestID uuid.UUID) (RequestWithSupplier, error) {
	var out RequestWithSupplier
	req, err := scanRequest(r.pool.QueryRow(ctx, `
		SELECT `+requestColumns+`, s.name, s.phone
		FROM quotation_requests qr JOIN suppliers s ON s.id = qr.supplier_id
		WHERE qr.id = $1 AND qr.quotation_id = $2`, requestID, quotationID), &out.SupplierName, &out.SupplierPhone)
	if errors.Is(err, pgx.ErrNoRows) {
		return RequestWithSupplier{}, apperr.NotFound(requestNotFoundMsg)
	}
	if err != nil {
		return RequestWithSupplier{}, fmt.Errorf("get quotation request: %w", err)
	}
	out.Request = req
	return out, nil
}

func (r *Repository) ListByQuotation(ctx context.Context, scope tenancy.Scope, quotationID uuid.UUID) ([]RequestWithSupplier, error) {
	args := append([]any{quotationID}, scope.Args()...)
	rows, err := r.pool.Query(ctx, `
		SELECT `+requestColumns+`, s.name, s.phone
		FROM quotation_requests qr JOIN suppliers s ON s.id = qr.supplier_id
		WHERE qr.quotation_id = $1 AND `+tenancy.Predicate("qr", 2)+`
		ORDER BY qr.created_at, qr.id`, args...)
	if err != nil {
		return nil, fmt.Errorf("list quotation requests: %w", err)
	}
	defer rows.Close()

	items := make([]RequestWithSupplier, 0)
	for rows.Next() {
		var item RequestWithSupplier
		req, err := scanRequest(rows, &item.SupplierName, &item.SupplierPhone)
		if err != nil {
			return nil, fmt.Errorf("scan quotation request: %w", err)
		}
		item.Request = req
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate quotation requests: %w", err)
	}
	return items, nil
}

// MarkSent moves a pending request to sent. sent_at keeps its first value on
// resends.
func (r *Repository) MarkSent(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE quotation_requests SET status = $2, sent_at = COALESCE(sent_at, now()), updated_at = now()
		WHERE id = $1 AND status IN ($3, $2)`, id, StatusSent, StatusPending)
	if err != nil {
		return fmt.Errorf("mark quotation request sent: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.Conflict(alreadyRespondedMsg)
	}
	return nil
}

// SaveResponse records the supplier's answer. A request that already
// responded is left untouched and reported as a conflict.
func (r *Repository) SaveResponse(ctx context.Context, id uuid.UUID, resp quotedoc.Response) (Request, error) {
	out, err := scanRequest(r.pool.QueryRow(ctx, `
		UPDATE quotation_requests qr SET status = $2, responded_at = now(), response_data = $3, updated_at = now()
		WHERE qr.id = $1 AND qr.status = $4
		RETURNING `+requestColumns, id, StatusResponded, resp, StatusSent))
	if errors.Is(err, pgx.ErrNoRows) {
		return Request{}, apperr.Conflict(alreadyRespondedMsg)
	}
	if err != nil {
		return Request{}, fmt.Errorf("save quotation response: %w", err)
	}
	return out, nil
}

// MarkQuotationInProgress moves a pending quotation to in_progress.
func (r *Repository) MarkQuotationInProgress(ctx context.Context, quotationID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE quotations SET status = 'in_progress', updated_at = now()
		WHERE id = $1 AND status = 'pending'`, quotationID)
	if err != nil {
		return fmt.Errorf("mark quotation in progress: %w", err)
	}
	return nil
}
