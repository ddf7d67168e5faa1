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

type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	GetByChatCode(ctx context.Context, code int) (*model.Product, error)
	List(ctx context.Context, limit, offset int, includeRetired bool) ([]model.Product, int, error)
	ListActiveInStock(ctx context.Context, limit int) ([]model.Product, error)
	Update(ctx context.Context, product *model.Product) error
	Retire(ctx context.Context, id uuid.UUID) error
	// DecrementStock applies the guarded atomic decrement. It returns false
	// when the guard fails, i.e. stock < quantity; the ledger decides whether
	// that means insufficient stock or an unknown product.
	DecrementStock(ctx context.Context, tx pgx.Tx, productID uuid.UUID, quantity int) (bool, error)
	IncrementStock(ctx context.Context, tx pgx.Tx, productID uuid.UUID, quantity int) (bool, error)
	Exists(ctx context.Context, tx pgx.Tx, productID uuid.UUID) (bool, error)
	InsertMovement(ctx context.Context, tx pgx.Tx, m *model.StockMovement) error
}

type pgProductRepo struct{ pool *pgxpool.Pool }

func NewProductRepository(pool *pgxpool.Pool) ProductRepository {
	return &pgProductRepo{pool: pool}
}

const productColumns = `id, chat_code, name, name_fr, description, description_fr, price, stock, status, created_at, updated_at`

func (r *pgProductRepo) Create(ctx context.Context, product *model.Product) error {
	product.ID = uuid.New()
	query := `INSERT INTO products (id, name, name_fr, description, description_fr, price, stock, status, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
			  RETURNING chat_code, created_at, updated_at`
	err := r.pool.QueryRow(ctx, query,
		product.ID, product.Name, product.NameFr, product.Description, product.DescriptionFr,
		product.Price, product.Stock, model.ProductActive,
	).Scan(&product.ChatCode, &product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create product: %w", err)
	}
	product.Status = model.ProductActive
	return nil
}

func scanProduct(row pgx.Row) (*model.Product, error) {
	p := &model.Product{}
	err := row.Scan(
		&p.ID, &p.ChatCode, &p.Name, &p.NameFr, &p.Description, &p.DescriptionFr,
		&p.Price, &p.Stock, &p.Status, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan product: %w", err)
	}
	return p, nil
}

func (r *pgProductRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	return scanProduct(r.pool.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1`, id,
	))
}

func (r *pgProductRepo) GetByChatCode(ctx context.Context, code int) (*model.Product, error) {
	return scanProduct(r.pool.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE chat_code = $1`, code,
	))
}

func (r *pgProductRepo) List(ctx context.Context, limit, offset int, includeRetired bool) ([]model.Product, int, error) {
	var total int
	countQ := `SELECT COUNT(*) FROM products WHERE ($1 OR status = 'active')`
	if err := r.pool.QueryRow(ctx, countQ, includeRetired).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+productColumns+` FROM products
		 WHERE ($1 OR status = 'active')
		 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		includeRetired, limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []model.Product
	for rows.Next() {
		var p model.Product
		if err := rows.Scan(
			&p.ID, &p.ChatCode, &p.Name, &p.NameFr, &p.Description, &p.DescriptionFr,
			&p.Price, &p.Stock, &p.Status, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, total, nil
}

func (r *pgProductRepo) ListActiveInStock(ctx context.Context, limit int) ([]model.Product, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+productColumns+` FROM products
		 WHERE status = 'active' AND stock > 0
		 ORDER BY chat_code ASC LIMIT $1`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list active products: %w", err)
	}
	defer rows.Close()

	var products []model.Product
	for rows.Next() {
		var p model.Product
		if err := rows.Scan(
			&p.ID, &p.ChatCode, &p.Name, &p.NameFr, &p.Description, &p.DescriptionFr,
			&p.Price, &p.Stock, &p.Status, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, nil
}

// Update writes the catalog fields only. Stock is owned by the inventory
// ledger and is never touched here.
func (r *pgProductRepo) Update(ctx context.Context, product *model.Product) error {
	query := `UPDATE products SET name=$2, name_fr=$3, description=$4, description_fr=$5, price=$6, updated_at=NOW()
			  WHERE id=$1 RETURNING updated_at`
	err := r.pool.QueryRow(ctx, query,
		product.ID, product.Name, product.NameFr, product.Description, product.DescriptionFr, product.Price,
	).Scan(&product.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return fmt.Errorf("update product: %w", err)
	}
	return nil
}

func (r *pgProductRepo) Retire(ctx context.Context, id uuid.UUID) error {
	ct, err := r.pool.Exec(ctx,
		`UPDATE products SET status = 'retired', updated_at = NOW() WHERE id = $1 AND status = 'active'`, id,
	)
	if err != nil {
		return fmt.Errorf("retire product: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *pgProductRepo) DecrementStock(ctx context.Context, tx pgx.Tx, productID uuid.UUID, quantity int) (bool, error) {
	ct, err := tx.Exec(ctx,
		`UPDATE products SET stock = stock - $2, updated_at = NOW() WHERE id = $1 AND stock >= $2`,
		productID, quantity,
	)
	if err != nil {
		return false, fmt.Errorf("decrement stock: %w", err)
	}
	return ct.RowsAffected() > 0, nil
}

func (r *pgProductRepo) IncrementStock(ctx context.Context, tx pgx.Tx, productID uuid.UUID, quantity int) (bool, error) {
	ct, err := tx.Exec(ctx,
		`UPDATE products SET stock = stock + $2, updated_at = NOW() WHERE id = $1`,
		productID, quantity,
	)
	if err != nil {
		return false, fmt.Errorf("increment stock: %w", err)
	}
	return ct.RowsAffected() > 0, nil
}

func (r *pgProductRepo) Exists(ctx context.Context, tx pgx.Tx, productID uuid.UUID) (bool, error) {
	var exists bool
	err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`, productID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("probe product: %w", err)
	}
	return exists, nil
}

func (r *pgProductRepo) InsertMovement(ctx context.Context, tx pgx.Tx, m *model.StockMovement) error {
	m.ID = uuid.New()
	_, err := tx.Exec(ctx,
		`INSERT INTO stock_movements (id, product_id, delta, reason, order_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, NOW())`,
		m.ID, m.ProductID, m.Delta, m.Reason, m.OrderID,
	)
	if err != nil {
		return fmt.Errorf("insert stock movement: %w", err)
	}
	return nil
}
