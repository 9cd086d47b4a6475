package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"autoparts_quotes_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	companyNotFoundMsg  = "company not found"
	memberNotFoundMsg   = "company member not found"
	workshopNotFoundMsg = "workshop profile not found"
	pgUniqueViolation   = "23505"
)

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type Company struct {
	ID        uuid.UUID
	Name      string
	Document  *string
	CreatedBy uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Member struct {
	UserID    uuid.UUID
	Email     string
	Role      string
	CreatedAt time.Time
}

type Membership struct {
	CompanyID uuid.UUID
	Role      string
}

type Workshop struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	CompanyID *uuid.UUID
	Name      string
	Phone     *string
	Address   *string
	City      *string
	State     *string
	Document  *string
	UpdatedAt time.Time
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// GetMembership returns the company the user belongs to.
func (r *Repository) GetMembership(ctx context.Context, userID uuid.UUID) (Membership, bool, error) {
	var m Membership
	err := r.pool.QueryRow(ctx, `
		SELECT company_id, role FROM company_users WHERE user_id = $1
	`, userID).Scan(&m.CompanyID, &m.Role)
	if errors.Is(err, pgx.ErrNoRows) {
		return Membership{}, false, nil
	}
	if err != nil {
		return Membership{}, false, fmt.Errorf("get company membership: %w", err)
	}
	return m, true, nil
}

// CreateCompany stores the company and makes its creator the first admin.
func (r *Repository) CreateCompany(ctx context.Context, name string, document *string, createdBy uuid.UUID) (Company, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Company{}, fmt.Errorf("begin create company: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var c Company
	err = tx.QueryRow(ctx, `
		INSERT INTO companies (id, name, document, created_by)
		VALUES ($1, $2, $3, $4)
		RETURNING id, name, document, created_by, created_at, updated_at
	`, uuid.New(), name, document, createdBy).Scan(&c.ID, &c.Name, &c.Document, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return Company{}, fmt.Errorf("create company: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO company_users (company_id, user_id, role) VALUES ($1, $2, 'admin')
	`, c.ID, createdBy); err != nil {
		if isUniqueViolation(err) {
			return Company{}, apperr.Conflict("user already belongs to a company")
		}
		return Company{}, fmt.Errorf("add company admin: %w", err)
	}

	// Existing workshop profile joins the new company.
	if _, err := tx.Exec(ctx, `UPDATE workshops SET company_id = $1 WHERE user_id = $2`, c.ID, createdBy); err != nil {
		return Company{}, fmt.Errorf("link workshop to company: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return Company{}, fmt.Errorf("commit create company: %w", err)
	}
	return c, nil
}

func (r *Repository) GetCompany(ctx context.Context, companyID uuid.UUID) (Company, error) {
	var c Company
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, document, created_by, created_at, updated_at FROM companies WHERE id = $1
	`, companyID).Scan(&c.ID, &c.Name, &c.Document, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Company{}, apperr.NotFound(companyNotFoundMsg)
	}
	if err != nil {
		return Company{}, fmt.Errorf("get company: %w", err)
	}
	return c, nil
}

func (r *Repository) UpdateCompany(ctx context.Context, companyID uuid.UUID, name *string, document *string) (Company, error) {
	var c Company
	err := r.pool.QueryRow(ctx, `
		UPDATE companies
		SET name = COALESCE($2, name), document = COALESCE($3, document), updated_at = now()
		WHERE id = $1
		RETURNING id, name, document, created_by, created_at, updated_at
	`, companyID, name, document).Scan(&c.ID, &c.Name, &c.Document, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Company{}, apperr.NotFound(companyNotFoundMsg)
	}
	if err != nil {
		return Company{}, fmt.Errorf("update company: %w", err)
	}
	return c, nil
}

func (r *Repository) ListMembers(ctx context.Context, companyID uuid.UUID) ([]Member, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT cu.user_id, u.email, cu.role, cu.created_at
		FROM company_users cu
		JOIN users u ON u.id = cu.user_id
		WHERE cu.company_id = $1
		ORDER BY cu.created_at ASC
	`, companyID)
	if err != nil {
		return nil, fmt.Errorf("list company members: %w", err)
	}
	defer rows.Close()

	members := make([]Member, 0)
	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.UserID, &m.Email, &m.Role, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan company member: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// AddMemberByEmail adds an already registered user to the company.
func (r *Repository) AddMemberByEmail(ctx context.Context, companyID uuid.UUID, email, role string) (Member, error) {
	m := Member{Email: email, Role: role}
	err := r.pool.QueryRow(ctx, `SELECT id FROM users WHERE email = $1`, email).Scan(&m.UserID)
	if errors.Is(err, pgx.ErrNoRows) {
		return Member{}, apperr.NotFound("no user registered with this email")
	}
	if err != nil {
		return Member{}, fmt.Errorf("find user by email: %w", err)
	}

	err = r.pool.QueryRow(ctx, `
		INSERT INTO company_users (company_id, user_id, role)
		VALUES ($1, $2, $3)
		RETURNING created_at
	`, companyID, m.UserID, role).Scan(&m.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return Member{}, apperr.Conflict("user already belongs to a company")
		}
		return Member{}, fmt.Errorf("add company member: %w", err)
	}
	return m, nil
}

func (r *Repository) UpdateMemberRole(ctx context.Context, companyID, userID uuid.UUID, role string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE company_users SET role = $3 WHERE company_id = $1 AND user_id = $2
	`, companyID, userID, role)
	if err != nil {
		return fmt.Errorf("update company member role: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(memberNotFoundMsg)
	}
	return nil
}

func (r *Repository) RemoveMember(ctx context.Context, companyID, userID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM company_users WHERE company_id = $1 AND user_id = $2
	`, companyID, userID)
	if err != nil {
		return fmt.Errorf("remove company member: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(memberNotFoundMsg)
	}
	return nil
}

func (r *Repository) CountAdmins(ctx context.Context, companyID uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM company_users WHERE company_id = $1 AND role = 'admin'
	`, companyID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count company admins: %w", err)
	}
	return n, nil
}

const workshopColumns = `id, user_id, company_id, name, phone, address, city, state, document, updated_at`

func scanWorkshop(row pgx.Row) (Workshop, error) {
	var w Workshop
	err := row.Scan(&w.ID, &w.UserID, &w.CompanyID, &w.Name, &w.Phone, &w.Address, &w.City, &w.State, &w.Document, &w.UpdatedAt)
	return w, err
}

// GetWorkshop returns the user's workshop profile, falling back to the
// profile of the company's first admin.
func (r *Repository) GetWorkshop(ctx context.Context, userID uuid.UUID, companyID *uuid.UUID) (Workshop, error) {
	w, err := scanWorkshop(r.pool.QueryRow(ctx, `
		SELECT `+workshopColumns+`
		FROM workshops
		WHERE user_id = $1 OR ($2::uuid IS NOT NULL AND company_id = $2)
		ORDER BY (user_id = $1) DESC, updated_at DESC
		LIMIT 1
	`, userID, companyID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Workshop{}, apperr.NotFound(workshopNotFoundMsg)
	}
	if err != nil {
		return Workshop{}, fmt.Errorf("get workshop: %w", err)
	}
	return w, nil
}

func (r *Repository) UpsertWorkshop(ctx context.Context, w Workshop) (Workshop, error) {
	out, err := scanWorkshop(r.pool.QueryRow(ctx, `
		INSERT INTO workshops (id, user_id, company_id, name, phone, address, city, state, document)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (user_id) DO UPDATE SET
			company_id = EXCLUDED.company_id,
			name = EXCLUDED.name,
			phone = EXCLUDED.phone,
			address = EXCLUDED.address,
			city = EXCLUDED.city,
			state = EXCLUDED.state,
			document = EXCLUDED.document,
			updated_at = now()
		RETURNING `+workshopColumns,
		w.ID, w.UserID, w.CompanyID, w.Name, w.Phone, w.Address, w.City, w.State, w.Document))
	if err != nil {
		return Workshop{}, fmt.Errorf("upsert workshop: %w", err)
	}
	return out, nil
}
