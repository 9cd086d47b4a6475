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
	"github.com/shopspring/decimal"
)

const (
	vehicleNotFoundMsg = "vehicle not found"
	partNotFoundMsg    = "part not found"
)

// Vehicle is a car being repaired.
type Vehicle struct {
	ID                uuid.UUID
	UserID            uuid.UUID
	CompanyID         *uuid.UUID
	Brand             string
	Model             string
	Year              *string
	ManufacturingYear *int
	ModelYear         *int
	Plate             *string
	Chassis           *string
	Images            []string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Part is a catalog row attached to a vehicle.
type Part struct {
	ID            uuid.UUID
	VehicleID     uuid.UUID
	UserID        uuid.UUID
	CompanyID     *uuid.UUID
	Operation     string
	Code          string
	Description   string
	Condition     string
	Quantity      int
	PaintingHours decimal.Decimal
	LaborHours    decimal.Decimal
	LaborCost     decimal.Decimal
	PartCost      decimal.Decimal
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Repository provides database operations for vehicles and their parts.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new vehicles repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const vehicleColumns = `id, user_id, company_id, brand, model, year, manufacturing_year, model_year, plate, chassis, images, created_at, updated_at`

func scanVehicle(row pgx.Row) (Vehicle, error) {
	var v Vehicle
	err := row.Scan(
		&v.ID, &v.UserID, &v.CompanyID, &v.Brand, &v.Model, &v.Year,
		&v.ManufacturingYear, &v.ModelYear, &v.Plate, &v.Chassis, &v.Images,
		&v.CreatedAt, &v.UpdatedAt,
	)
	return v, err
}

func (r *Repository) Create(ctx context.Context, v Vehicle) (Vehicle, error) {
	if v.Images == nil {
		v.Images = []string{}
	}
	out, err := scanVehicle(r.pool.QueryRow(ctx, `
		INSERT INTO vehicles (id, user_id, company_id, brand, model, year, manufacturing_year, model_year, plate, chassis, images)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING `+vehicleColumns,
		v.ID, v.UserID, v.CompanyID, v.Brand, v.Model, v.Year, v.ManufacturingYear, v.ModelYear, v.Plate, v.Chassis, v.Images))
	if err != nil {
		return Vehicle{}, fmt.Errorf("create vehicle: %w", err)
	}
	return out, nil
}

func (r *Repository) GetByID(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (Vehicle, error) {
	args := append([]any{id}, scope.Args()...)
	v, err := scanVehicle(r.pool.QueryRow(ctx, `
		SELECT `+vehicleColumns+` FROM vehicles WHERE id = $1 AND `+tenancy.Predicate("", 2), args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return Vehicle{}, apperr.NotFound(vehicleNotFoundMsg)
	}
	if err != nil {
		return Vehicle{}, fmt.Errorf("get vehicle: %w", err)
	}
	return v, nil
}

func (r *Repository) List(ctx context.Context, scope tenancy.Scope, search string) ([]Vehicle, error) {
	args := scope.Args()
	query := `SELECT ` + vehicleColumns + ` FROM vehicles WHERE ` + tenancy.Predicate("", 1)
	if search != "" {
		query += ` AND (brand ILIKE $3 OR model ILIKE $3 OR plate ILIKE $3 OR chassis ILIKE $3)`
		args = append(args, "%"+search+"%")
	}
	query += ` ORDER BY created_at DESC LIMIT 200`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list vehicles: %w", err)
	}
	defer rows.Close()

	items := make([]Vehicle, 0)
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, fmt.Errorf("scan vehicle: %w", err)
		}
		items = append(items, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate vehicles: %w", err)
	}
	return items, nil
}

func (r *Repository) Update(ctx context.Context, scope tenancy.Scope, v Vehicle) (Vehicle, error) {
	args := append([]any{v.ID}, scope.Args()...)
	args = append(args, v.Brand, v.Model, v.Year, v.ManufacturingYear, v.ModelYear, v.Plate, v.Chassis)
	out, err := scanVehicle(r.pool.QueryRow(ctx, `
		UPDATE vehicles
		SET brand = $4, model = $5, year = $6, manufacturing_year = $7, model_year = $8,
			plate = $9, chassis = $10, updated_at = now()
		WHERE id = $1 AND `+tenancy.Predicate("", 2)+`
		RETURNING `+vehicleColumns, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return Vehicle{}, apperr.NotFound(vehicleNotFoundMsg)
	}
	if err != nil {
		return Vehicle{}, fmt.Errorf("update vehicle: %w", err)
	}
	return out, nil
}

func (r *Repository) Delete(ctx context.Context, scope tenancy.Scope, id uuid.UUID) error {
	args := append([]any{id}, scope.Args()...)
	tag, err := r.pool.Exec(ctx, `DELETE FROM vehicles WHERE id = $1 AND `+tenancy.Predicate("", 2), args...)
	if err != nil {
		return fmt.Errorf("delete vehicle: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(vehicleNotFoundMsg)
	}
	return nil
}

// AppendImage adds key to the end of the vehicle's image list.
func (r *Repository) AppendImage(ctx context.Context, scope tenancy.Scope, id uuid.UUID, key string) (Vehicle, error) {
	args := append([]any{id}, scope.Args()...)
	args = append(args, key)
	v, err := scanVehicle(r.pool.QueryRow(ctx, `
		UPDATE vehicles SET images = array_append(images, $4), updated_at = now()
		WHERE id = $1 AND `+tenancy.Predicate("", 2)+`
		RETURNING `+vehicleColumns, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return Vehicle{}, apperr.NotFound(vehicleNotFoundMsg)
	}
	if err != nil {
		return Vehicle{}, fmt.Errorf("append vehicle image: %w", err)
	}
	return v, nil
}

// RemoveImage drops key from the vehicle's image list.
func (r *Repository) RemoveImage(ctx context.Context, scope tenancy.Scope, id uuid.UUID, key string) (Vehicle, error) {
	args := append([]any{id}, scope.Args()...)
	args = append(args, key)
	v, err := scanVehicle(r.pool.QueryRow(ctx, `
		UPDATE vehicles SET images = array_remove(images, $4), updated_at = now()
		WHERE id = $1 AND `+tenancy.Predicate("", 2)+`
		RETURNING `+vehicleColumns, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return Vehicle{}, apperr.NotFound(vehicleNotFoundMsg)
	}
	if err != nil {
		return Vehicle{}, fmt.Errorf("remove vehicle image: %w", err)
	}
	return v, nil
}

// =============================================================================
// Parts
// =============================================================================

const partColumns = `id, vehicle_id, user_id, company_id, operation, code, description, condition, quantity,
	painting_hours, labor_hours, labor_cost, part_cost, created_at, updated_at`

func scanPart(row pgx.Row) (Part, error) {
	var p Part
	err := row.Scan(
		&p.ID, &p.VehicleID, &p.UserID, &p.CompanyID, &p.Operation, &p.Code, &p.Description,
		&p.Condition, &p.Quantity, &p.PaintingHours, &p.LaborHours, &p.LaborCost, &p.PartCost,
		&p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}

func (r *Repository) ListParts(ctx context.Context, scope tenancy.Scope, vehicleID uuid.UUID) ([]Part, error) {
	args := append([]any{vehicleID}, scope.Args()...)
	rows, err := r.pool.Query(ctx, `
		SELECT `+partColumns+`
		FROM parts
		WHERE vehicle_id = $1 AND `+tenancy.Predicate("", 2)+`
		ORDER BY created_at ASC`, args...)
	if err != nil {
		return nil, fmt.Errorf("list parts: %w", err)
	}
	defer rows.Close()

	items := make([]Part, 0)
	for rows.Next() {
		p, err := scanPart(rows)
		if err != nil {
			return nil, fmt.Errorf("scan part: %w", err)
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate parts: %w", err)
	}
	return items, nil
}

func (r *Repository) CreatePart(ctx context.Context, p Part) (Part, error) {
	out, err := scanPart(r.pool.QueryRow(ctx, `
		INSERT INTO parts (id, vehicle_id, user_id, company_id, operation, code, description, condition, quantity,
			painting_hours, labor_hours, labor_cost, part_cost)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING `+partColumns,
		p.ID, p.VehicleID, p.UserID, p.CompanyID, p.Operation, p.Code, p.Description, p.Condition, p.Quantity,
		p.PaintingHours, p.LaborHours, p.LaborCost, p.PartCost))
	if err != nil {
		return Part{}, fmt.Errorf("create part: %w", err)
	}
	return out, nil
}

func (r *Repository) UpdatePart(ctx context.Context, scope tenancy.Scope, p Part) (Part, error) {
	args := append([]any{p.ID}, scope.Args()...)
	args = append(args, p.VehicleID, p.Operation, p.Code, p.Description, p.Condition, p.Quantity,
		p.PaintingHours, p.LaborHours, p.LaborCost, p.PartCost)
	out, err := scanPart(r.pool.QueryRow(ctx, `
		UPDATE parts
		SET operation = $5, code = $6, description = $7, condition = $8, quantity = $9,
			painting_hours = $10, labor_hours = $11, labor_cost = $12, part_cost = $13, updated_at = now()
		WHERE id = $1 AND vehicle_id = $4 AND `+tenancy.Predicate("", 2)+`
		RETURNING `+partColumns, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return Part{}, apperr.NotFound(partNotFoundMsg)
	}
	if err != nil {
		return Part{}, fmt.Errorf("update part: %w", err)
	}
	return out, nil
}

func (r *Repository) DeletePart(ctx context.Context, scope tenancy.Scope, vehicleID, id uuid.UUID) error {
	args := append([]any{id}, scope.Args()...)
	args = append(args, vehicleID)
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM parts WHERE id = $1 AND vehicle_id = $4 AND `+tenancy.Predicate("", 2), args...)
	if err != nil {
		return fmt.Errorf("delete part: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(partNotFoundMsg)
	}
	return nil
}
