package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/flicky/chat-commerce-api/internal/model"
	"github.com/flicky/chat-commerce-api/internal/repository"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// InsufficientStockError names the product that could not be reserved.
type InsufficientStockError struct {
	ProductID uuid.UUID
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s", e.ProductID)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// StockLedger is the only path allowed to move product stock. Both
// operations run on the caller's transaction so stock stays consistent with
// whatever order write the caller commits.
type StockLedger interface {
	Reserve(ctx context.Context, tx pgx.Tx, productID uuid.UUID, quantity int, orderID *uuid.UUID) error
	Release(ctx context.Context, tx pgx.Tx, productID uuid.UUID, quantity int, orderID *uuid.UUID) error
}

type InventoryLedger struct {
	products repository.ProductRepository
}

func NewInventoryLedger(products repository.ProductRepository) *InventoryLedger {
	return &InventoryLedger{products: products}
}

// Reserve decrements stock by quantity. The decrement and its guard are one
// atomic statement, so two concurrent reservations can never both succeed
// against stock that only covers one of them.
func (l *InventoryLedger) Reserve(ctx context.Context, tx pgx.Tx, productID uuid.UUID, quantity int, orderID *uuid.UUID) error {
	if quantity < 1 {
		return fmt.Errorf("reserve quantity must be >= 1, got %d", quantity)
	}

	ok, err := l.products.DecrementStock(ctx, tx, productID, quantity)
	if err != nil {
		return fmt.Errorf("reserve stock: %w", err)
	}
	if !ok {
		exists, err := l.products.Exists(ctx, tx, productID)
		if err != nil {
			return fmt.Errorf("reserve stock: %w", err)
		}
		if !exists {
			return ErrProductNotFound
		}
		return &InsufficientStockError{ProductID: productID}
	}

	return l.products.InsertMovement(ctx, tx, &model.StockMovement{
		ProductID: productID,
		Delta:     -quantity,
		Reason:    model.MovementReserve,
		OrderID:   orderID,
	})
}

// Release returns quantity to stock unconditionally; released stock always
// comes back.
func (l *InventoryLedger) Release(ctx context.Context, tx pgx.Tx, productID uuid.UUID, quantity int, orderID *uuid.UUID) error {
	if quantity < 1 {
		return fmt.Errorf("release quantity must be >= 1, got %d", quantity)
	}

	ok, err := l.products.IncrementStock(ctx, tx, productID, quantity)
	if err != nil {
		return fmt.Errorf("release stock: %w", err)
	}
	if !ok {
		return ErrProductNotFound
	}

	return l.products.InsertMovement(ctx, tx, &model.StockMovement{
		ProductID: productID,
		Delta:     quantity,
		Reason:    model.MovementRelease,
		OrderID:   orderID,
	})
}
