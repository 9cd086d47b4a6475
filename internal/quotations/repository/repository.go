package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"autoparts_quotes_backend/internal/shared/quotedoc"
	"autoparts_quotes_backend/platform/apperr"
	"autoparts_quotes_backend/platform/tenancy"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// Quotation statuses and input modes.
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"

	InputManual = "manual"
	InputBulk   = "bulk"
	InputReport = "report"
)

const (
	quotationNotFoundMsg = "quotation not found"
	vehicleNotFoundMsg   = "vehicle not found"
)

// Quotation is the database model for a quotation header with its parts.
type Quotation struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	CompanyID   *uuid.UUID
	VehicleID   uuid.UUID
	Parts       []quotedoc.Part
	Status      string
	Description *string
	InputType   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Vehicle is the vehicle a quotation is about.
type Vehicle struct {
	ID                uuid.UUID
	Brand             string
	Model             string
	Year              *string
	ManufacturingYear *int
	ModelYear         *int
	Plate             *string
	Chassis           *string
	Images            []string
}

// QuotationWithVehicle joins a quotation with its vehicle.
type QuotationWithVehicle struct {
	Quotation
	Vehicle Vehicle
}

// RequestSummary is a quotation request as listed on its quotation.
type RequestSummary struct {
	ID           uuid.UUID
	SupplierID   uuid.UUID
	SupplierName string
	Status       string
	SentAt       *time.Time
	RespondedAt  *time.Time
	Response     *quotedoc.Response
	CreatedAt    time.Time
}

// CounterOfferSummary is a counter offer as listed on its quotation.
type CounterOfferSummary struct {
	ID           uuid.UUID
	RequestID    uuid.UUID
	SupplierName string
	Total        decimal.Decimal
	Status       string
	RespondedAt  *time.Time
	CreatedAt    time.Time
}

// Detail is the composite quotation view.
type Detail struct {
	QuotationWithVehicle
	Requests      []RequestSummary
	CounterOffers []CounterOfferSummary
}

// ListParams contains parameters for listing quotations.
type ListParams struct {
	Scope     tenancy.Scope
	Status    string
	Search    string
	SortBy    string
	SortOrder string
	Page      int
	PageSize  int
}

// ListResult contains the paginated result of listing quotations.
type ListResult struct {
	Items      []QuotationWithVehicle
	Total      int
	Page       int
	PageSize   int
	TotalPages int
}

// Repository provides database operations for quotations.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new quotations repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const joinedColumns = `q.id, q.user_id, q.company_id, q.vehicle_id, q.parts, q.status, q.description, q.input_type, q.created_at, q.updated_at,
	v.id, v.brand, v.model, v.year, v.manufacturing_year, v.model_year, v.plate, v.chassis, v.images`

func scanJoined(row pgx.Row) (QuotationWithVehicle, error) {
	var q QuotationWithVehicle
	err := row.Scan(
		&q.ID, &q.UserID, &q.CompanyID, &q.VehicleID, &q.Parts, &q.Status, &q.Description, &q.InputType, &q.CreatedAt, &q.UpdatedAt,
		&q.Vehicle.ID, &q.Vehicle.Brand, &q.Vehicle.Model, &q.Vehicle.Year, &q.Vehicle.ManufacturingYear, &q.Vehicle.ModelYear,
		&q.Vehicle.Plate, &q.Vehicle.Chassis, &q.Vehicle.Images,
	)
	return q, err
}

// CreateWithVehicle writes the vehicle (new, or updated when existing is true)
// and the quotation in one transaction.
func (r *Repository) CreateWithVehicle(ctx context.Context, scope tenancy.Scope, q Quotation, v Vehicle, existing bool) (QuotationWithVehicle, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return QuotationWithVehicle{}, fmt.Errorf("begin quotation tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if existing {
		if err := updateVehicle(ctx, tx, scope, v); err != nil {
			return QuotationWithVehicle{}, err
		}
	} else {
		images := v.Images
		if images == nil {
			images = []string{}
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO vehicles (id, user_id, company_id, brand, model, year, manufacturing_year, model_year, plate, chassis, images)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			v.ID, q.UserID, q.CompanyID, v.Brand, v.Model, v.Year, v.ManufacturingYear, v.ModelYear, v.Plate, v.Chassis, images)
		if err != nil {
			return QuotationWithVehicle{}, fmt.Errorf("create vehicle: %w", err)
		}
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO quotations (id, user_id, company_id, vehicle_id, parts, status, description, input_type)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		q.ID, q.UserID, q.CompanyID, v.ID, q.Parts, q.Status, q.Description, q.InputType)
	if err != nil {
		return QuotationWithVehicle{}, fmt.Errorf("create quotation: %w", err)
	}

	out, err := scanJoined(tx.QueryRow(ctx, `
		SELECT `+joinedColumns+`
		FROM quotations q JOIN vehicles v ON v.id = q.vehicle_id
		WHERE q.id = $1`, q.ID))
	if err != nil {
		return QuotationWithVehicle{}, fmt.Errorf("reload quotation: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return QuotationWithVehicle{}, fmt.Errorf("commit quotation tx: %w", err)
	}
	return out, nil
}

// UpdateWithVehicle replaces parts, description and status and, when v is
// given, updates the vehicle in the same transaction.
func (r *Repository) UpdateWithVehicle(ctx context.Context, scope tenancy.Scope, q Quotation, v *Vehicle) (QuotationWithVehicle, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return QuotationWithVehicle{}, fmt.Errorf("begin quotation tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	args := append([]any{q.ID}, scope.Args()...)
	args = append(args, q.Parts, q.Description, q.Status)
	var vehicleID uuid.UUID
	err = tx.QueryRow(ctx, `
		UPDATE quotations SET parts = $4, description = $5, status = $6, updated_at = now()
		WHERE id = $1 AND `+tenancy.Predicate("", 2)+`
		RETURNING vehicle_id`, args...).Scan(&vehicleID)
	if errors.Is(err, pgx.ErrNoRows) {
		return QuotationWithVehicle{}, apperr.NotFound(quotationNotFoundMsg)
	}
	if err != nil {
		return QuotationWithVehicle{}, fmt.Errorf("update quotation: %w", err)
	}

	if v != nil {
		v.ID = vehicleID
		if err := updateVehicle(ctx, tx, scope, *v); err != nil {
			return QuotationWithVehicle{}, err
		}
	}

	out, err := scanJoined(tx.QueryRow(ctx, `
		SELECT `+joinedColumns+`
		FROM quotations q JOIN vehicles v ON v.id = q.vehicle_id
		WHERE q.id = $1`, q.ID))
	if err != nil {
		return QuotationWithVehicle{}, fmt.Errorf("reload quotation: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return QuotationWithVehicle{}, fmt.Errorf("commit quotation tx: %w", err)
	}
	return out, nil
}

func updateVehicle(ctx context.Context, tx pgx.Tx, scope tenancy.Scope, v Vehicle) error {
	args := append([]any{v.ID}, scope.Args()...)
	args = append(args, v.Brand, v.Model, v.Year, v.ManufacturingYear, v.ModelYear, v.Plate, v.Chassis, v.Images)
	tag, err := tx.Exec(ctx, `
		UPDATE vehicles SET brand = $4, model = $5, year = $6, manufacturing_year = $7, model_year = $8,
			plate = $9, chassis = $10, images = COALESCE($11, images), updated_at = now()
		WHERE id = $1 AND `+tenancy.Predicate("", 2), args...)
	if err != nil {
		return fmt.Errorf("update vehicle: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(vehicleNotFoundMsg)
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (QuotationWithVehicle, error) {
	args := append([]any{id}, scope.Args()...)
	q, err := scanJoined(r.pool.QueryRow(ctx, `
		SELECT `+joinedColumns+`
		FROM quotations q JOIN vehicles v ON v.id = q.vehicle_id
		WHERE q.id = $1 AND `+tenancy.Predicate("q", 2), args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return QuotationWithVehicle{}, apperr.NotFound(quotationNotFoundMsg)
	}
	if err != nil {
		return QuotationWithVehicle{}, fmt.Errorf("get quotation: %w", err)
	}
	return q, nil
}

// GetQuotationWithVehicleAndRequests loads the quotation, its vehicle, its
// requests and its counter offers. The related lists are read concurrently.
func (r *Repository) GetQuotationWithVehicleAndRequests(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (Detail, error) {
	q, err := r.GetByID(ctx, scope, id)
	if err != nil {
		return Detail{}, err
	}

	detail := Detail{QuotationWithVehicle: q}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		items, err := r.listRequests(gctx, id)
		detail.Requests = items
		return err
	})
	g.Go(func() error {
		items, err := r.listCounterOffers(gctx, id)
		detail.CounterOffers = items
		return err
	})
	if err := g.Wait(); err != nil {
		return Detail{}, err
	}
	return detail, nil
}

func (r *Repository) listRequests(ctx context.Context, quotationID uuid.UUID) ([]RequestSummary, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT qr.id, qr.supplier_id, s.name, qr.status, qr.sent_at, qr.responded_at, qr.response_data, qr.created_at
		FROM quotation_requests qr JOIN suppliers s ON s.id = qr.supplier_id
		WHERE qr.quotation_id = $1
		ORDER BY qr.created_at, qr.id`, quotationID)
	if err != nil {
		return nil, fmt.Errorf("list quotation requests: %w", err)
	}
	defer rows.Close()

	items := make([]RequestSummary, 0)
	for rows.Next() {
		var s RequestSummary
		if err := rows.Scan(&s.ID, &s.SupplierID, &s.SupplierName, &s.Status, &s.SentAt, &s.RespondedAt, &s.Response, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan quotation request: %w", err)
		}
		items = append(items, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate quotation requests: %w", err)
	}
	return items, nil
}

func (r *Repository) listCounterOffers(ctx context.Context, quotationID uuid.UUID) ([]CounterOfferSummary, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT co.id, co.quotation_request_id, co.supplier_name, co.total, co.status, co.responded_at, co.created_at
		FROM counter_offers co JOIN quotation_requests qr ON qr.id = co.quotation_request_id
		WHERE qr.quotation_id = $1
		ORDER BY co.created_at`, quotationID)
	if err != nil {
		return nil, fmt.Errorf("list counter offers: %w", err)
	}
	defer rows.Close()

	items := make([]CounterOfferSummary, 0)
	for rows.Next() {
		var s CounterOfferSummary
		if err := rows.Scan(&s.ID, &s.RequestID, &s.SupplierName, &s.Total, &s.Status, &s.RespondedAt, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan counter offer: %w", err)
		}
		items = append(items, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate counter offers: %w", err)
	}
	return items, nil
}

func buildListWhere(params ListParams) (string, []any, int) {
	whereClauses := []string{tenancy.Predicate("q", 1)}
	args := params.Scope.Args()
	argIdx := 3

	if params.Status != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("q.status = $%d", argIdx))
		args = append(args, params.Status)
		argIdx++
	}
	if params.Search != "" {
		whereClauses = append(whereClauses, fmt.Sprintf(
			"(v.brand ILIKE $%d OR v.model ILIKE $%d OR v.plate ILIKE $%d OR v.chassis ILIKE $%d OR q.description ILIKE $%d)",
			argIdx, argIdx, argIdx, argIdx, argIdx))
		args = append(args, "%"+params.Search+"%")
		argIdx++
	}
	return "WHERE " + strings.Join(whereClauses, " AND "), args, argIdx
}

func (r *Repository) List(ctx context.Context, params ListParams) (ListResult, error) {
	sortCol, err := resolveSortBy(params.SortBy)
	if err != nil {
		return ListResult{}, err
	}
	orderBy, err := resolveSortOrder(params.SortOrder)
	if err != nil {
		return ListResult{}, err
	}
	page, pageSize, offset := normalizePaging(params.Page, params.PageSize)

	whereSQL, args, argN := buildListWhere(params)
	from := "FROM quotations q JOIN vehicles v ON v.id = q.vehicle_id "

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) "+from+whereSQL, args...).Scan(&total); err != nil {
		return ListResult{}, fmt.Errorf("count quotations: %w", err)
	}

	query := "SELECT " + joinedColumns + " " + from + whereSQL + "\n" +
		"ORDER BY " + sortCol + " " + orderBy + ", q.id\n" +
		fmt.Sprintf("LIMIT $%d OFFSET $%d", argN, argN+1)
	args = append(args, pageSize, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return ListResult{}, fmt.Errorf("list quotations: %w", err)
	}
	defer rows.Close()

	items := make([]QuotationWithVehicle, 0)
	for rows.Next() {
		q, err := scanJoined(rows)
		if err != nil {
			return ListResult{}, fmt.Errorf("scan quotation: %w", err)
		}
		items = append(items, q)
	}
	if err := rows.Err(); err != nil {
		return ListResult{}, fmt.Errorf("iterate quotations: %w", err)
	}

	return ListResult{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: calcTotalPages(total, pageSize),
	}, nil
}

func (r *Repository) UpdateStatus(ctx context.Context, scope tenancy.Scope, id uuid.UUID, status string) error {
	args := append([]any{id}, scope.Args()...)
	args = append(args, status)
	tag, err := r.pool.Exec(ctx, `
		UPDATE quotations SET status = $4, updated_at = now()
		WHERE id = $1 AND `+tenancy.Predicate("", 2), args...)
	if err != nil {
		return fmt.Errorf("update quotation status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(quotationNotFoundMsg)
	}
	return nil
}

// SetParts stores parts and status together.
func (r *Repository) SetParts(ctx context.Context, scope tenancy.Scope, id uuid.UUID, parts []quotedoc.Part, status string) error {
	args := append([]any{id}, scope.Args()...)
	args = append(args, parts, status)
	tag, err := r.pool.Exec(ctx, `
		UPDATE quotations SET parts = $4, status = $5, updated_at = now()
		WHERE id = $1 AND `+tenancy.Predicate("", 2), args...)
	if err != nil {
		return fmt.Errorf("update quotation parts: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(quotationNotFoundMsg)
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, scope tenancy.Scope, id uuid.UUID) error {
	args := append([]any{id}, scope.Args()...)
	tag, err := r.pool.Exec(ctx, `DELETE FROM quotations WHERE id = $1 AND `+tenancy.Predicate("", 2), args...)
	if err != nil {
		return fmt.Errorf("delete quotation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(quotationNotFoundMsg)
	}
	return nil
}

func resolveSortBy(value string) (string, error) {
	switch value {
	case "", "createdAt":
		return "q.created_at", nil
	case "updatedAt":
		return "q.updated_at", nil
	case "status":
		return "q.status", nil
	case "brand":
		return "v.brand", nil
	default:
		return "", apperr.BadRequest("invalid sort field")
	}
}

func resolveSortOrder(value string) (string, error) {
	switch value {
	case "":
		return "desc", nil
	case "asc", "desc":
		return value, nil
	default:
		return "", apperr.BadRequest("invalid sort order")
	}
}

func normalizePaging(page, pageSize int) (int, int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize, (page - 1) * pageSize
}

func calcTotalPages(total, pageSize int) int {
	if total == 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}
