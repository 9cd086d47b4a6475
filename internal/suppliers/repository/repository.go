package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"autoparts_quotes_backend/platform/apperr"
	"autoparts_quotes_backend/platform/tenancy"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	supplierNotFoundMsg       = "supplier not found"
	specializationNotFoundMsg = "specialization not found"
)

// Supplier is a parts vendor reachable over WhatsApp.
type Supplier struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	CompanyID  *uuid.UUID
	Name       string
	Phone      *string
	AreaCode   *string
	City       *string
	State      *string
	Categories []string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Specialization is a named category tag.
type Specialization struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	CompanyID *uuid.UUID
	Name      string
	CreatedAt time.Time
}

// ListParams filters suppliers. Each non-empty set restricts results to
// suppliers whose field is in the set; sets combine with AND.
type ListParams struct {
	Scope      tenancy.Scope
	Search     string
	AreaCodes  []string
	Cities     []string
	States     []string
	Categories []string
	SortBy     string
	SortOrder  string
	Page       int
	PageSize   int
}

// ListResult is one page of suppliers.
type ListResult struct {
	Items      []Supplier
	Total      int
	Page       int
	PageSize   int
	TotalPages int
}

// Repository provides database operations for suppliers and specializations.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new suppliers repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const supplierColumns = `id, user_id, company_id, name, phone, area_code, city, state, categories, created_at, updated_at`

func scanSupplier(row pgx.Row) (Supplier, error) {
	var s Supplier
	err := row.Scan(
		&s.ID, &s.UserID, &s.CompanyID, &s.Name, &s.Phone, &s.AreaCode,
		&s.City, &s.State, &s.Categories, &s.CreatedAt, &s.UpdatedAt,
	)
	return s, err
}

func (r *Repository) Create(ctx context.Context, s Supplier) (Supplier, error) {
	out, err := scanSupplier(r.pool.QueryRow(ctx, `
		INSERT INTO suppliers (id, user_id, company_id, name, phone, area_code, city, state, categories)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+supplierColumns,
		s.ID, s.UserID, s.CompanyID, s.Name, s.Phone, s.AreaCode, s.City, s.State, s.Categories))
	if err != nil {
		return Supplier{}, fmt.Errorf("create supplier: %w", err)
	}
	return out, nil
}

func (r *Repository) GetByID(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (Supplier, error) {
	args := append([]any{id}, scope.Args()...)
	s, err := scanSupplier(r.pool.QueryRow(ctx, `
		SELECT `+supplierColumns+`
		FROM suppliers
		WHERE id = $1 AND `+tenancy.Predicate("", 2), args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return Supplier{}, apperr.NotFound(supplierNotFoundMsg)
	}
	if err != nil {
		return Supplier{}, fmt.Errorf("get supplier: %w", err)
	}
	return s, nil
}

// GetByIDs returns the visible suppliers among ids, in the order of ids.
// Unknown ids are skipped.
func (r *Repository) GetByIDs(ctx context.Context, scope tenancy.Scope, ids []uuid.UUID) ([]Supplier, error) {
	if len(ids) == 0 {
		return []Supplier{}, nil
	}
	args := append([]any{ids}, scope.Args()...)
	rows, err := r.pool.Query(ctx, `
		SELECT `+supplierColumns+`
		FROM suppliers
		WHERE id = ANY($1) AND `+tenancy.Predicate("", 2), args...)
	if err != nil {
		return nil, fmt.Errorf("get suppliers: %w", err)
	}
	defer rows.Close()

	byID := make(map[uuid.UUID]Supplier, len(ids))
	for rows.Next() {
		s, err := scanSupplier(rows)
		if err != nil {
			return nil, fmt.Errorf("scan supplier: %w", err)
		}
		byID[s.ID] = s
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate suppliers: %w", err)
	}

	out := make([]Supplier, 0, len(byID))
	for _, id := range ids {
		if s, ok := byID[id]; ok {
			out = append(out, s)
			delete(byID, id)
		}
	}
	return out, nil
}

func (r *Repository) Update(ctx context.Context, scope tenancy.Scope, s Supplier) (Supplier, error) {
	args := append([]any{s.ID}, scope.Args()...)
	args = append(args, s.Name, s.Phone, s.AreaCode, s.City, s.State, s.Categories)
	out, err := scanSupplier(r.pool.QueryRow(ctx, `
		UPDATE suppliers
		SET name = $4, phone = $5, area_code = $6, city = $7, state = $8, categories = $9, updated_at = now()
		WHERE id = $1 AND `+tenancy.Predicate("", 2)+`
		RETURNING `+supplierColumns, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return Supplier{}, apperr.NotFound(supplierNotFoundMsg)
	}
	if err != nil {
		return Supplier{}, fmt.Errorf("update supplier: %w", err)
	}
	return out, nil
}

func (r *Repository) Delete(ctx context.Context, scope tenancy.Scope, id uuid.UUID) error {
	args := append([]any{id}, scope.Args()...)
	tag, err := r.pool.Exec(ctx, `DELETE FROM suppliers WHERE id = $1 AND `+tenancy.Predicate("", 2), args...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return apperr.Conflict("supplier has quotation requests or purchase orders")
		}
		return fmt.Errorf("delete supplier: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(supplierNotFoundMsg)
	}
	return nil
}

func buildListWhere(params ListParams) (whereSQL string, args []any, nextArg int) {
	where := []string{tenancy.Predicate("", 1)}
	args = params.Scope.Args()
	nextArg = 3

	if search := strings.TrimSpace(params.Search); search != "" {
		where = append(where, fmt.Sprintf("(name ILIKE $%d OR city ILIKE $%d OR phone ILIKE $%d)", nextArg, nextArg, nextArg))
		args = append(args, "%"+search+"%")
		nextArg++
	}
	if len(params.AreaCodes) > 0 {
		where = append(where, fmt.Sprintf("area_code = ANY($%d)", nextArg))
		args = append(args, params.AreaCodes)
		nextArg++
	}
	if len(params.Cities) > 0 {
		where = append(where, fmt.Sprintf("lower(city) = ANY($%d)", nextArg))
		args = append(args, lowerAll(params.Cities))
		nextArg++
	}
	if len(params.States) > 0 {
		where = append(where, fmt.Sprintf("upper(state) = ANY($%d)", nextArg))
		args = append(args, upperAll(params.States))
		nextArg++
	}
	if len(params.Categories) > 0 {
		where = append(where, fmt.Sprintf("categories && $%d", nextArg))
		args = append(args, params.Categories)
		nextArg++
	}

	return "WHERE " + strings.Join(where, " AND "), args, nextArg
}

// List returns a filtered page of suppliers.
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

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM suppliers "+whereSQL, args...).Scan(&total); err != nil {
		return ListResult{}, fmt.Errorf("count suppliers: %w", err)
	}

	query := "SELECT " + supplierColumns + " FROM suppliers " + whereSQL + "\n" +
		"ORDER BY " + sortCol + " " + orderBy + ", created_at DESC\n" +
		fmt.Sprintf("LIMIT $%d OFFSET $%d", argN, argN+1)
	args = append(args, pageSize, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return ListResult{}, fmt.Errorf("list suppliers: %w", err)
	}
	defer rows.Close()

	items := make([]Supplier, 0)
	for rows.Next() {
		s, err := scanSupplier(rows)
		if err != nil {
			return ListResult{}, fmt.Errorf("scan supplier: %w", err)
		}
		items = append(items, s)
	}
	if err := rows.Err(); err != nil {
		return ListResult{}, fmt.Errorf("iterate suppliers: %w", err)
	}

	return ListResult{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: calcTotalPages(total, pageSize),
	}, nil
}

func resolveSortBy(value string) (string, error) {
	switch value {
	case "", "name":
		return "name", nil
	case "createdAt":
		return "created_at", nil
	case "city":
		return "city", nil
	case "state":
		return "state", nil
	default:
		return "", apperr.BadRequest("invalid sort field")
	}
}

func resolveSortOrder(value string) (string, error) {
	switch value {
	case "":
		return "asc", nil
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
		pageSize = 50
	}
	if pageSize > 200 {
		pageSize = 200
	}
	return page, pageSize, (page - 1) * pageSize
}

func calcTotalPages(total, pageSize int) int {
	if total == 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}

func lowerAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.ToLower(strings.TrimSpace(v))
	}
	return out
}

func upperAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.ToUpper(strings.TrimSpace(v))
	}
	return out
}

// =============================================================================
// Specializations
// =============================================================================

func (r *Repository) ListSpecializations(ctx context.Context, scope tenancy.Scope) ([]Specialization, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, company_id, name, created_at
		FROM specializations
		WHERE `+tenancy.Predicate("", 1)+`
		ORDER BY lower(name) ASC`, scope.Args()...)
	if err != nil {
		return nil, fmt.Errorf("list specializations: %w", err)
	}
	defer rows.Close()

	items := make([]Specialization, 0)
	for rows.Next() {
		var s Specialization
		if err := rows.Scan(&s.ID, &s.UserID, &s.CompanyID, &s.Name, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan specialization: %w", err)
		}
		items = append(items, s)
	}
	return items, rows.Err()
}

func (r *Repository) CreateSpecialization(ctx context.Context, s Specialization) (Specialization, error) {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO specializations (id, user_id, company_id, name)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`, s.ID, s.UserID, s.CompanyID, s.Name).Scan(&s.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Specialization{}, apperr.Conflict("specialization already exists")
		}
		return Specialization{}, fmt.Errorf("create specialization: %w", err)
	}
	return s, nil
}

func (r *Repository) DeleteSpecialization(ctx context.Context, scope tenancy.Scope, id uuid.UUID) error {
	args := append([]any{id}, scope.Args()...)
	tag, err := r.pool.Exec(ctx, `DELETE FROM specializations WHERE id = $1 AND `+tenancy.Predicate("", 2), args...)
	if err != nil {
		return fmt.Errorf("delete specialization: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(specializationNotFoundMsg)
	}
	return nil
}
