package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/flicky/chat-commerce-api/internal/model"
	"github.com/flicky/chat-commerce-api/internal/repository"
)

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrInvalidProduct    = errors.New("invalid product")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrEmptyOrder        = errors.New("order has no items")
	ErrUnknownStatus     = errors.New("unknown order status")
)

// InvalidProductError names the offending product of an order creation.
type InvalidProductError struct {
	ProductID uuid.UUID
}

func (e *InvalidProductError) Error() string {
	return fmt.Sprintf("product %s does not exist or is retired", e.ProductID)
}

func (e *InvalidProductError) Unwrap() error { return ErrInvalidProduct }

// InvalidTransitionError names the rejected edge.
type InvalidTransitionError struct {
	From model.OrderStatus
	To   model.OrderStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot transition order from %s to %s", e.From, e.To)
}

func (e *InvalidTransitionError) Unwrap() error { return ErrInvalidTransition }

// OrderOrigin identifies who an order belongs to. Exactly one reference
// must be set.
type OrderOrigin struct {
	UserID     *uuid.UUID
	CustomerID *uuid.UUID
}

type OrderItemInput struct {
	ProductID uuid.UUID
	Quantity  int
}

type OrderService struct {
	orders   repository.OrderRepository
	products repository.ProductRepository
	ledger   StockLedger
	audit    repository.AuditRepository
}

func NewOrderService(
	orders repository.OrderRepository,
	products repository.ProductRepository,
	ledger StockLedger,
	audit repository.AuditRepository,
) *OrderService {
	return &OrderService{orders: orders, products: products, ledger: ledger, audit: audit}
}

// Create validates the requested items, reserves stock, snapshots unit
// prices, and persists the order. Everything runs in one transaction: either
// the order row, its items, and every stock decrement commit together, or
// nothing does.
func (s *OrderService) Create(ctx context.Context, origin OrderOrigin, contactPhone string, inputs []OrderItemInput, ip string) (*model.Order, error) {
	if (origin.UserID == nil) == (origin.CustomerID == nil) {
		return nil, fmt.Errorf("order origin must set exactly one of user or customer")
	}
	if len(inputs) == 0 {
		return nil, ErrEmptyOrder
	}

	total := decimal.Zero
	items := make([]model.OrderItem, 0, len(inputs))
	for _, in := range inputs {
		if in.Quantity < 1 {
			return nil, fmt.Errorf("%w: quantity must be >= 1", ErrInvalidProduct)
		}
		product, err := s.products.GetByID(ctx, in.ProductID)
		if err != nil {
			return nil, fmt.Errorf("load product: %w", err)
		}
		if product == nil || product.Status != model.ProductActive {
			return nil, &InvalidProductError{ProductID: in.ProductID}
		}
		total = total.Add(product.Price.Mul(decimal.NewFromInt(int64(in.Quantity))))
		items = append(items, model.OrderItem{
			ProductID: in.ProductID,
			Quantity:  in.Quantity,
			Price:     product.Price,
		})
	}

	order := &model.Order{
		OrderNumber:   generateOrderNumber(),
		UserID:        origin.UserID,
		CustomerID:    origin.CustomerID,
		ContactPhone:  contactPhone,
		Status:        model.OrderStatusPending,
		PaymentStatus: model.PaymentUnpaid,
		Total:         total,
	}

	tx, err := s.orders.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := s.orders.Insert(ctx, tx, order); err != nil {
		return nil, err
	}
	for i := range items {
		items[i].OrderID = order.ID
	}
	if err := s.orders.InsertItems(ctx, tx, items); err != nil {
		return nil, err
	}
	for _, item := range items {
		if err := s.ledger.Reserve(ctx, tx, item.ProductID, item.Quantity, &order.ID); err != nil {
			return nil, err
		}
	}
	if err := s.orders.InsertStatusEvent(ctx, tx, &model.OrderStatusEvent{
		OrderID: order.ID,
		From:    model.OrderStatusPending,
		To:      model.OrderStatusPending,
		ActorID: origin.UserID,
		Note:    "order created",
	}); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit order: %w", err)
	}

	order.Items = items
	s.recordAudit(ctx, origin.UserID, "order.create", order.OrderNumber, ip)
	return order, nil
}

// Transition moves an order along the lifecycle graph. The status write, the
// history append, and any stock restore happen in the same transaction; the
// order row is locked for the duration so concurrent transitions serialize.
func (s *OrderService) Transition(ctx context.Context, orderNumber string, newStatus model.OrderStatus, actorID *uuid.UUID, note, ip string) (*model.Order, error) {
	if !newStatus.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrUnknownStatus, newStatus)
	}

	tx, err := s.orders.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	order, err := s.orders.GetByOrderNumberForUpdate(ctx, tx, orderNumber)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if !order.Status.CanTransitionTo(newStatus) {
		return nil, &InvalidTransitionError{From: order.Status, To: newStatus}
	}

	if err := s.orders.UpdateStatus(ctx, tx, order.ID, newStatus); err != nil {
		return nil, err
	}
	if err := s.orders.InsertStatusEvent(ctx, tx, &model.OrderStatusEvent{
		OrderID: order.ID,
		From:    order.Status,
		To:      newStatus,
		ActorID: actorID,
		Note:    note,
	}); err != nil {
		return nil, err
	}
	if newStatus.RestoresStock() {
		for _, item := range order.Items {
			if err := s.ledger.Release(ctx, tx, item.ProductID, item.Quantity, &order.ID); err != nil {
				return nil, err
			}
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transition: %w", err)
	}

	order.Status = newStatus
	s.recordAudit(ctx, actorID, "order.transition:"+string(newStatus), order.OrderNumber, ip)
	return order, nil
}

// GetForUser returns the order only if the caller may see it; an order that
// exists but belongs to someone else looks exactly like a missing one.
func (s *OrderService) GetForUser(ctx context.Context, orderNumber string, userID uuid.UUID, admin bool) (*model.Order, []model.OrderStatusEvent, error) {
	order, err := s.orders.GetByOrderNumber(ctx, orderNumber)
	if err != nil {
		return nil, nil, fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return nil, nil, ErrOrderNotFound
	}
	if !admin && (order.UserID == nil || *order.UserID != userID) {
		return nil, nil, ErrOrderNotFound
	}

	events, err := s.orders.StatusEvents(ctx, order.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("get status history: %w", err)
	}
	return order, events, nil
}

func (s *OrderService) List(ctx context.Context, params repository.ListOrdersParams) ([]model.Order, int, error) {
	return s.orders.List(ctx, params)
}

func (s *OrderService) StatsSummary(ctx context.Context) ([]model.OrderStatusStat, error) {
	return s.orders.StatsSummary(ctx)
}

// PlaceChatOrder creates a single-item order on behalf of a chat customer.
func (s *OrderService) PlaceChatOrder(ctx context.Context, customer *model.Customer, productID uuid.UUID, quantity int) (*model.Order, error) {
	return s.Create(ctx,
		OrderOrigin{CustomerID: &customer.ID},
		customer.PhoneNumber,
		[]OrderItemInput{{ProductID: productID, Quantity: quantity}},
		"",
	)
}

func (s *OrderService) RecentForCustomer(ctx context.Context, customerID uuid.UUID, limit int) ([]model.Order, error) {
	return s.orders.ListByCustomer(ctx, customerID, limit)
}

func (s *OrderService) recordAudit(ctx context.Context, actorID *uuid.UUID, action, entityID, ip string) {
	_ = s.audit.Insert(ctx, &model.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "order",
		EntityID: entityID,
		IP:       ip,
	})
}

// generateOrderNumber builds the human-facing unique order id:
// ORD-YYYYMMDD-XXXXXXXX with uuid-derived entropy.
func generateOrderNumber() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:8])
	return fmt.Sprintf("ORD-%s-%s", time.Now().UTC().Format("20060102"), suffix)
}
