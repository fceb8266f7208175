package customer

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/careline/intake-platform/internal/domain"
)

// PostgresRepo implements Repository against PostgreSQL.
type PostgresRepo struct{ db *sql.DB }

// NewPostgresRepo creates a Postgres-backed customer repository.
func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

const customerColumns = `id, email, COALESCE(first_name,''), COALESCE(last_name,''),
	       COALESCE(phone,''), COALESCE(age,0),
	       email_opt_in, sms_opt_in, push_opt_in, created_at`

func scanCustomer(row interface{ Scan(...any) error }) (*domain.Customer, error) {
	c := &domain.Customer{}
	err := row.Scan(
		&c.ID, &c.Email, &c.FirstName, &c.LastName,
		&c.Phone, &c.Age,
		&c.Preferences.Email, &c.Preferences.SMS, &c.Preferences.Push,
		&c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *PostgresRepo) FindByID(ctx context.Context, id string) (*domain.Customer, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+customerColumns+`
		FROM intake_customers
		WHERE id = $1
	`, id)
	c, err := scanCustomer(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find customer: %w", err)
	}
	return c, nil
}

func (r *PostgresRepo) FindByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+customerColumns+`
		FROM intake_customers
		WHERE LOWER(email) = LOWER($1)
	`, email)
	c, err := scanCustomer(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find customer by email: %w", err)
	}
	return c, nil
}

func (r *PostgresRepo) FindAll(ctx context.Context, f ListFilter) ([]domain.Customer, int, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}

	countQ := `SELECT COUNT(*) FROM intake_customers`
	var countArgs []any
	if f.Search != "" {
		countQ += ` WHERE email ILIKE $1 OR first_name ILIKE $1 OR last_name ILIKE $1`
		countArgs = append(countArgs, "%"+f.Search+"%")
	}

	var total int
	if err := r.db.QueryRowContext(ctx, countQ, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count customers: %w", err)
	}

	q := `SELECT ` + customerColumns + ` FROM intake_customers`
	args := []any{}
	idx := 1
	if f.Search != "" {
		q += fmt.Sprintf(` WHERE email ILIKE $%d OR first_name ILIKE $%d OR last_name ILIKE $%d`, idx, idx, idx)
		args = append(args, "%"+f.Search+"%")
		idx++
	}
	q += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, f.Offset)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()

	var out []domain.Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan customer: %w", err)
		}
		out = append(out, *c)
	}
	return out, total, rows.Err()
}

func (r *PostgresRepo) CasesForCustomer(ctx context.Context, customerID string) ([]domain.Case, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, customer_id, status, COALESCE(value,0), created_at, updated_at
		FROM intake_cases
		WHERE customer_id = $1
		ORDER BY created_at DESC
	`, customerID)
	if err != nil {
		return nil, fmt.Errorf("list cases: %w", err)
	}
	defer rows.Close()

	var out []domain.Case
	for rows.Next() {
		var cs domain.Case
		if err := rows.Scan(&cs.ID, &cs.CustomerID, &cs.Status, &cs.Value, &cs.CreatedAt, &cs.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan case: %w", err)
		}
		out = append(out, cs)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) CountCases(ctx context.Context, customerID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM intake_cases WHERE customer_id = $1`, customerID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count cases: %w", err)
	}
	return n, nil
}
