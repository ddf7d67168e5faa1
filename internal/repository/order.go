package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flicky/chat-commerce-api/internal/model"
)

// ListOrdersParams filters the order listing. Nil / zero fields are ignored.
type ListOrdersParams struct {
	Status     model.OrderStatus
	UserID     *uuid.UUID
	CustomerID *uuid.UUID
	StartDate  *time.Time
	EndDate    *time.Time
	Limit      int
	Offset     int
}

type OrderRepository interface {
	BeginTx(ctx context.Context) (pgx.Tx, error)
	Insert(ctx context.Context, tx pgx.Tx, order *model.Order) error
	InsertItems(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error
	InsertStatusEvent(ctx context.Context, tx pgx.Tx, ev *model.OrderStatusEvent) error
	UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status model.OrderStatus) error
	GetByOrderNumber(ctx context.Context, orderNumber string) (*model.Order, error)
	GetByOrderNumberForUpdate(ctx context.Context, tx pgx.Tx, orderNumber string) (*model.Order, error)
	List(ctx context.Context, params ListOrdersParams) ([]model.Order, int, error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID, limit int) ([]model.Order, error)
	StatusEvents(ctx context.Context, orderID uuid.UUID) ([]model.OrderStatusEvent, error)
	StatsSummary(ctx context.Context) ([]model.OrderStatusStat, error)
}

type pgOrderRepo struct{ pool *pgxpool.Pool }

func NewOrderRepository(pool *pgxpool.Pool) OrderRepository {
	return &pgOrderRepo{pool: pool}
}

func (r *pgOrderRepo) BeginTx(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}

func (r *pgOrderRepo) Insert(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	order.ID = uuid.New()
	err := tx.QueryRow(ctx,
		`INSERT INTO orders (id, order_number, user_id, customer_id, contact_phone, status, payment_status, total, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW()) RETURNING created_at, updated_at`,
		order.ID, order.OrderNumber, order.UserID, order.CustomerID, order.ContactPhone,
		order.Status, order.PaymentStatus, order.Total,
	).Scan(&order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", mapUniqueViolation(err))
	}
	return nil
}

func (r *pgOrderRepo) InsertItems(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error {
	for i := range items {
		items[i].ID = uuid.New()
		_, err := tx.Exec(ctx,
			`INSERT INTO order_items (id, order_id, product_id, quantity, price, created_at)
			 VALUES ($1, $2, $3, $4, $5, NOW())`,
			items[i].ID, items[i].OrderID, items[i].ProductID, items[i].Quantity, items[i].Price,
		)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}
	return nil
}

func (r *pgOrderRepo) InsertStatusEvent(ctx context.Context, tx pgx.Tx, ev *model.OrderStatusEvent) error {
	ev.ID = uuid.New()
	_, err := tx.Exec(ctx,
		`INSERT INTO order_status_events (id, order_id, from_status, to_status, actor_id, note, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, NOW())`,
		ev.ID, ev.OrderID, ev.From, ev.To, ev.ActorID, ev.Note,
	)
	if err != nil {
		return fmt.Errorf("insert status event: %w", err)
	}
	return nil
}

func (r *pgOrderRepo) UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status model.OrderStatus) error {
	_, err := tx.Exec(ctx,
		`UPDATE orders SET status = $2, updated_at = NOW() WHERE id = $1`, id, status,
	)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	return nil
}

const orderColumns = `id, order_number, user_id, customer_id, contact_phone, status, payment_status, total, created_at, updated_at`

func scanOrder(row pgx.Row) (*model.Order, error) {
	o := &model.Order{}
	err := row.Scan(
		&o.ID, &o.OrderNumber, &o.UserID, &o.CustomerID, &o.ContactPhone,
		&o.Status, &o.PaymentStatus, &o.Total, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan order: %w", err)
	}
	return o, nil
}

func (r *pgOrderRepo) GetByOrderNumber(ctx context.Context, orderNumber string) (*model.Order, error) {
	order, err := scanOrder(r.pool.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE order_number = $1`, orderNumber,
	))
	if err != nil || order == nil {
		return order, err
	}
	if err := r.loadItems(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (r *pgOrderRepo) GetByOrderNumberForUpdate(ctx context.Context, tx pgx.Tx, orderNumber string) (*model.Order, error) {
	order, err := scanOrder(tx.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE order_number = $1 FOR UPDATE`, orderNumber,
	))
	if err != nil || order == nil {
		return order, err
	}

	rows, err := tx.Query(ctx,
		`SELECT id, product_id, quantity, price FROM order_items WHERE order_id = $1`, order.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("get order items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var item model.OrderItem
		if err := rows.Scan(&item.ID, &item.ProductID, &item.Quantity, &item.Price); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		item.OrderID = order.ID
		order.Items = append(order.Items, item)
	}
	return order, nil
}

func (r *pgOrderRepo) loadItems(ctx context.Context, order *model.Order) error {
	rows, err := r.pool.Query(ctx,
		`SELECT id, product_id, quantity, price FROM order_items WHERE order_id = $1`, order.ID,
	)
	if err != nil {
		return fmt.Errorf("get order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item model.OrderItem
		if err := rows.Scan(&item.ID, &item.ProductID, &item.Quantity, &item.Price); err != nil {
			return fmt.Errorf("scan order item: %w", err)
		}
		item.OrderID = order.ID
		order.Items = append(order.Items, item)
	}
	return nil
}

func (r *pgOrderRepo) List(ctx context.Context, params ListOrdersParams) ([]model.Order, int, error) {
	where := `WHERE ($1 = '' OR status = $1)
		AND ($2::uuid IS NULL OR user_id = $2)
		AND ($3::uuid IS NULL OR customer_id = $3)
		AND ($4::timestamptz IS NULL OR created_at >= $4)
		AND ($5::timestamptz IS NULL OR created_at <= $5)`
	args := []any{string(params.Status), params.UserID, params.CustomerID, params.StartDate, params.EndDate}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM orders `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+orderColumns+` FROM orders `+where+` ORDER BY created_at DESC LIMIT $6 OFFSET $7`,
		append(args, params.Limit, params.Offset)...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		var o model.Order
		if err := rows.Scan(
			&o.ID, &o.OrderNumber, &o.UserID, &o.CustomerID, &o.ContactPhone,
			&o.Status, &o.PaymentStatus, &o.Total, &o.CreatedAt, &o.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	return orders, total, nil
}

func (r *pgOrderRepo) ListByCustomer(ctx context.Context, customerID uuid.UUID, limit int) ([]model.Order, error) {
	orders, _, err := r.List(ctx, ListOrdersParams{CustomerID: &customerID, Limit: limit})
	return orders, err
}

func (r *pgOrderRepo) StatusEvents(ctx context.Context, orderID uuid.UUID) ([]model.OrderStatusEvent, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, from_status, to_status, actor_id, note, created_at
		 FROM order_status_events WHERE order_id = $1 ORDER BY created_at ASC`, orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("list status events: %w", err)
	}
	defer rows.Close()

	var events []model.OrderStatusEvent
	for rows.Next() {
		var ev model.OrderStatusEvent
		if err := rows.Scan(&ev.ID, &ev.From, &ev.To, &ev.ActorID, &ev.Note, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan status event: %w", err)
		}
		ev.OrderID = orderID
		events = append(events, ev)
	}
	return events, nil
}

func (r *pgOrderRepo) StatsSummary(ctx context.Context) ([]model.OrderStatusStat, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT status, COUNT(*), COALESCE(SUM(total), 0) FROM orders GROUP BY status`,
	)
	if err != nil {
		return nil, fmt.Errorf("order stats: %w", err)
	}
	defer rows.Close()

	var stats []model.OrderStatusStat
	for rows.Next() {
		var s model.OrderStatusStat
		if err := rows.Scan(&s.Status, &s.Count, &s.Revenue); err != nil {
			return nil, fmt.Errorf("scan order stat: %w", err)
		}
		stats = append(stats, s)
	}
	return stats, nil
}
