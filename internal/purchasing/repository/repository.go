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
)

// Purchase order statuses.
const (
	StatusPending = "pending"
	StatusSending = "sending"
	StatusSent    = "sent"
)

// Quotation statuses this module writes.
const (
	QuotationPending    = "pending"
	QuotationInProgress = "in_progress"
	QuotationCompleted  = "completed"
)

const (
	orderNotFoundMsg     = "purchase order not found"
	quotationNotFoundMsg = "quotation not found"
	notPendingMsg        = "purchase order is no longer pending"
)

// Order is the database model for a purchase order.
type Order struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	CompanyID    *uuid.UUID
	QuotationID  uuid.UUID
	SupplierID   uuid.UUID
	TotalAmount  decimal.Decimal
	Status       string
	DeliveryTime *string
	Notes        *string
	SentAt       *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Item is one line of a purchase order.
type Item struct {
	ID                 uuid.UUID
	OrderID            uuid.UUID
	Description        string
	Quantity           int
	UnitPrice          decimal.Decimal
	TotalPrice         decimal.Decimal
	QuotationPartIndex *int
	SortOrder          int
}

// OrderDetail is an order with its items and the supplier it goes to.
type OrderDetail struct {
	Order
	SupplierName     string
	SupplierPhone    *string
	SupplierAreaCode *string
	Items            []Item
}

// QuotationContext is the quotation a purchase order is generated from.
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

// RespondedRequest is a supplier answer that competes on price.
type RespondedRequest struct {
	ID           uuid.UUID
	SupplierID   uuid.UUID
	SupplierName string
	CreatedAt    time.Time
	Response     quotedoc.Response
}

// Workshop is the sender identity printed on outgoing orders.
type Workshop struct {
	Name    string
	Phone   *string
	Address *string
	City    *string
	State   *string
}

// ListParams contains parameters for listing purchase orders.
type ListParams struct {
	Scope       tenancy.Scope
	QuotationID *uuid.UUID
	SupplierID  *uuid.UUID
	Status      string
	Page        int
	PageSize    int
}

// ListResult contains the paginated result of listing purchase orders.
type ListResult struct {
	Items      []OrderDetail
	Total      int
	Page       int
	PageSize   int
	TotalPages int
}

// Repository provides database operations for purchase orders.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new purchasing repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const orderColumns = `po.id, po.user_id, po.company_id, po.quotation_id, po.supplier_id, po.total_amount, po.status, po.delivery_time, po.notes, po.sent_at, po.created_at, po.updated_at, s.name, s.phone, s.area_code`

const orderFrom = `FROM purchase_orders po JOIN suppliers s ON s.id = po.supplier_id `

func scanOrder(row pgx.Row) (OrderDetail, error) {
	var o OrderDetail
	err := row.Scan(&o.ID, &o.UserID, &o.CompanyID, &o.QuotationID, &o.SupplierID, &o.TotalAmount, &o.Status,
		&o.DeliveryTime, &o.Notes, &o.SentAt, &o.CreatedAt, &o.UpdatedAt, &o.SupplierName, &o.SupplierPhone, &o.SupplierAreaCode)
	return o, err
}

func (r *Repository) GetQuotation(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (QuotationContext, error) {
	args := append([]any{id}, scope.Args()...)
	var q QuotationContext
	err := r.pool.QueryRow(ctx, `
		SELECT q.id, q.user_id, q.company_id, q.status, v.brand, v.model, v.year, v.plate, v.chassis, v.images, q.parts
		FROM quotations q JOIN vehicles v ON v.id = q.vehicle_id
		WHERE q.id = $1 AND `+tenancy.Predicate("q", 2), args...).
		Scan(&q.ID, &q.UserID, &q.CompanyID, &q.Status, &q.Brand, &q.Model, &q.Year, &q.Plate, &q.Chassis, &q.Images, &q.Parts)
	if errors.Is(err, pgx.ErrNoRows) {
		return QuotationContext{}, apperr.NotFound(quotationNotFoundMsg)
	}
	if err != nil {
		return QuotationContext{}, fmt.Errorf("get quotation: %w", err)
	}
	return q, nil
}

// ListResponded returns answered requests in creation order, which is the
// order best-price ties are broken in.
func (r *Repository) ListResponded(ctx context.Context, scope tenancy.Scope, quotationID uuid.UUID) ([]RespondedRequest, error) {
	args := append([]any{quotationID}, scope.Args()...)
	rows, err := r.pool.Query(ctx, `
		SELECT qr.id, qr.supplier_id, s.name, qr.created_at, qr.response_data
		FROM quotation_requests qr JOIN suppliers s ON s.id = qr.supplier_id
		WHERE qr.quotation_id = $1 AND qr.status = 'responded' AND `+tenancy.Predicate("qr", 2)+`
		ORDER BY qr.created_at, qr.id`, args...)
	if err != nil {
		return nil, fmt.Errorf("list responded requests: %w", err)
	}
	defer rows.Close()

	items := make([]RespondedRequest, 0)
	for rows.Next() {
		var item RespondedRequest
		if err := rows.Scan(&item.ID, &item.SupplierID, &item.SupplierName, &item.CreatedAt, &item.Response); err != nil {
			return nil, fmt.Errorf("scan responded request: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate responded requests: %w", err)
	}
	return items, nil
}

// CreateOrders inserts the orders with their items and stores the
// quotation's updated parts and status, all in one transaction.
func (r *Repository) CreateOrders(ctx context.Context, orders []OrderDetail, quotationID uuid.UUID, parts []quotedoc.Part, quotationStatus string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin purchase orders tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	batch := &pgx.Batch{}
	queued := 0
	for _, o := range orders {
		batch.Queue(`
			INSERT INTO purchase_orders (id, user_id, company_id, quotation_id, supplier_id, total_amount, status, delivery_time, notes)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			o.ID, o.UserID, o.CompanyID, o.QuotationID, o.SupplierID, o.TotalAmount, StatusPending, o.DeliveryTime, o.Notes)
		queued++
		for _, it := range o.Items {
			batch.Queue(`
				INSERT INTO purchase_order_items (id, purchase_order_id, description, quantity, unit_price, total_price, quotation_part_index, sort_order)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
				it.ID, o.ID, it.Description, it.Quantity, it.UnitPrice, it.TotalPrice, it.QuotationPartIndex, it.SortOrder)
			queued++
		}
	}
	br := tx.SendBatch(ctx, batch)
	for i := 0; i < queued; i++ {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return fmt.Errorf("create purchase order: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("create purchase orders: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE quotations SET parts = $2, status = $3, updated_at = now()
		WHERE id = $1`, quotationID, parts, quotationStatus); err != nil {
		return fmt.Errorf("mark quotation parts purchased: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit purchase orders tx: %w", err)
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (OrderDetail, error) {
	args := append([]any{id}, scope.Args()...)
	o, err := scanOrder(r.pool.QueryRow(ctx, `SELECT `+orderColumns+` `+orderFrom+`
		WHERE po.id = $1 AND `+tenancy.Predicate("po", 2), args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return OrderDetail{}, apperr.NotFound(orderNotFoundMsg)
	}
	if err != nil {
		return OrderDetail{}, fmt.Errorf("get purchase order: %w", err)
	}
	items, err := r.listItems(ctx, []uuid.UUID{o.ID})
	if err != nil {
		return OrderDetail{}, err
	}
	o.Items = items[o.ID]
	return o, nil
}

func (r *Repository) listItems(ctx context.Context, orderIDs []uuid.UUID) (map[uuid.UUID][]Item, error) {
	out := make(map[uuid.UUID][]Item, len(orderIDs))
	if len(orderIDs) == 0 {
		return out, nil
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, purchase_order_id, description, quantity, unit_price, total_price, quotation_part_index, sort_order
		FROM purchase_order_items
		WHERE purchase_order_id = ANY($1)
		ORDER BY purchase_order_id, sort_order`, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("list purchase order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.OrderID, &it.Description, &it.Quantity, &it.UnitPrice, &it.TotalPrice, &it.QuotationPartIndex, &it.SortOrder); err != nil {
			return nil, fmt.Errorf("scan purchase order item: %w", err)
		}
		out[it.OrderID] = append(out[it.OrderID], it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate purchase order items: %w", err)
	}
	return out, nil
}

func buildListWhere(params ListParams) (string, []any, int) {
	whereClauses := []string{tenancy.Predicate("po", 1)}
	args := params.Scope.Args()
	argIdx := 3

	if params.QuotationID != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("po.quotation_id = $%d", argIdx))
		args = append(args, *params.QuotationID)
		argIdx++
	}
	if params.SupplierID != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("po.supplier_id = $%d", argIdx))
		args = append(args, *params.SupplierID)
		argIdx++
	}
	if params.Status != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("po.status = $%d", argIdx))
		args = append(args, params.Status)
		argIdx++
	}
	return "WHERE " + strings.Join(whereClauses, " AND "), args, argIdx
}

func (r *Repository) List(ctx context.Context, params ListParams) (ListResult, error) {
	page, pageSize, offset := normalizePaging(params.Page, params.PageSize)
	whereSQL, args, argN := buildListWhere(params)

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) "+orderFrom+whereSQL, args...).Scan(&total); err != nil {
		return ListResult{}, fmt.Errorf("count purchase orders: %w", err)
	}

	query := "SELECT " + orderColumns + " " + orderFrom + whereSQL + "\n" +
		"ORDER BY po.created_at DESC, po.id\n" +
		fmt.Sprintf("LIMIT $%d OFFSET $%d", argN, argN+1)
	args = append(args, pageSize, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return ListResult{}, fmt.Errorf("list purchase orders: %w", err)
	}
	defer rows.Close()

	orders := make([]OrderDetail, 0)
	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return ListResult{}, fmt.Errorf("scan purchase order: %w", err)
		}
		orders = append(orders, o)
		ids = append(ids, o.ID)
	}
	if err := rows.Err(); err != nil {
		return ListResult{}, fmt.Errorf("iterate purchase orders: %w", err)
	}
	rows.Close()

	items, err := r.listItems(ctx, ids)
	if err != nil {
		return ListResult{}, err
	}
	for i := range orders {
		orders[i].Items = items[orders[i].ID]
	}

	return ListResult{
		Items:      orders,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: calcTotalPages(total, pageSize),
	}, nil
}

// TransitionStatus moves an order from one status to another. It fails
// with a conflict when the order is not in the expected status.
func (r *Repository) TransitionStatus(ctx context.Context, id uuid.UUID, from, to string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE purchase_orders
		SET status = $3,
		    sent_at = CASE WHEN $3 = 'sent' THEN now() ELSE sent_at END,
		    updated_at = now()
		WHERE id = $1 AND status = $2`, id, from, to)
	if err != nil {
		return fmt.Errorf("update purchase order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.Conflict(fmt.Sprintf("purchase order is not %s", from))
	}
	return nil
}

// UpdateDetails changes delivery time and notes while the order is pending.
func (r *Repository) UpdateDetails(ctx context.Context, scope tenancy.Scope, id uuid.UUID, deliveryTime, notes *string) error {
	args := append([]any{id}, scope.Args()...)
	args = append(args, deliveryTime, notes)
	tag, err := r.pool.Exec(ctx, `
		UPDATE purchase_orders SET delivery_time = $4, notes = $5, updated_at = now()
		WHERE id = $1 AND status = 'pending' AND `+tenancy.Predicate("", 2), args...)
	if err != nil {
		return fmt.Errorf("update purchase order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.Conflict(notPendingMsg)
	}
	return nil
}

// Delete removes a pending order; its items cascade.
func (r *Repository) Delete(ctx context.Context, scope tenancy.Scope, id uuid.UUID) error {
	args := append([]any{id}, scope.Args()...)
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM purchase_orders
		WHERE id = $1 AND status = 'pending' AND `+tenancy.Predicate("", 2), args...)
	if err != nil {
		return fmt.Errorf("delete purchase order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.Conflict(notPendingMsg)
	}
	return nil
}

// GetWorkshop loads the sender identity of a user; nil when none is set up.
func (r *Repository) GetWorkshop(ctx context.Context, userID uuid.UUID) (*Workshop, error) {
	var w Workshop
	err := r.pool.QueryRow(ctx, `
		SELECT name, phone, address, city, state FROM workshops WHERE user_id = $1`, userID).
		Scan(&w.Name, &w.Phone, &w.Address, &w.City, &w.State)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get workshop: %w", err)
	}
	return &w, nil
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
