package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flicky/chat-commerce-api/internal/model"
)

type CustomerRepository interface {
	// Upsert creates the customer on first contact and refreshes the mutable
	// profile fields on subsequent messages. Keyed by the provider wa_id.
	Upsert(ctx context.Context, customer *model.Customer) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Customer, error)
	GetByWAID(ctx context.Context, waID string) (*model.Customer, error)
	GetByPhone(ctx context.Context, phone string) (*model.Customer, error)
	List(ctx context.Context, limit, offset int) ([]model.Customer, int, error)
}

type pgCustomerRepo struct{ pool *pgxpool.Pool }

func NewCustomerRepository(pool *pgxpool.Pool) CustomerRepository {
	return &pgCustomerRepo{pool: pool}
}

const customerColumns = `id, wa_id, phone_number, profile_name, language, created_at, updated_at`

func (r *pgCustomerRepo) Upsert(ctx context.Context, customer *model.Customer) error {
	customer.ID = uuid.New()
	err := r.pool.QueryRow(ctx,
		`INSERT INTO customers (id, wa_id, phone_number, profile_name, language, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		 ON CONFLICT (wa_id) DO UPDATE SET
		   profile_name = EXCLUDED.profile_name,
		   updated_at = NOW()
		 RETURNING id, language, created_at, updated_at`,
		customer.ID, customer.WAID, customer.PhoneNumber, customer.ProfileName, customer.Language,
	).Scan(&customer.ID, &customer.Language, &customer.CreatedAt, &customer.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert customer: %w", mapUniqueViolation(err))
	}
	return nil
}

func scanCustomer(row pgx.Row) (*model.Customer, error) {
	c := &model.Customer{}
	err := row.Scan(&c.ID, &c.WAID, &c.PhoneNumber, &c.ProfileName, &c.Language, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan customer: %w", err)
	}
	return c, nil
}

func (r *pgCustomerRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Customer, error) {
	return scanCustomer(r.pool.QueryRow(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE id = $1`, id,
	))
}

func (r *pgCustomerRepo) GetByWAID(ctx context.Context, waID string) (*model.Customer, error) {
	return scanCustomer(r.pool.QueryRow(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE wa_id = $1`, waID,
	))
}

func (r *pgCustomerRepo) GetByPhone(ctx context.Context, phone string) (*model.Customer, error) {
	return scanCustomer(r.pool.QueryRow(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE phone_number = $1`, phone,
	))
}

func (r *pgCustomerRepo) List(ctx context.Context, limit, offset int) ([]model.Customer, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM customers`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count customers: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+customerColumns+` FROM customers ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()

	var customers []model.Customer
	for rows.Next() {
		var c model.Customer
		if err := rows.Scan(&c.ID, &c.WAID, &c.PhoneNumber, &c.ProfileName, &c.Language, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan customer: %w", err)
		}
		customers = append(customers, c)
	}
	return customers, total, nil
}
