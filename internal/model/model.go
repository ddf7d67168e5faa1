package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type User struct {
	ID        uuid.UUID
	Email     string
	Password  string
	FirstName string
	LastName  string
	Role      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ProductStatus is the product lifecycle tag. Retired products stay in the
// catalog tables for order history but are excluded from sale paths.
type ProductStatus string

const (
	ProductActive  ProductStatus = "active"
	ProductRetired ProductStatus = "retired"
)

type Product struct {
	ID uuid.UUID
	// ChatCode is the short numeric id shown in chat menus, so customers can
	// type "acheter 3" instead of a UUID.
	ChatCode      int
	Name          string
	NameFr        *string
	Description   string
	DescriptionFr *string
	Price         decimal.Decimal
	Stock         int
	Status        ProductStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// DisplayName returns the French name when one is set, the base name otherwise.
func (p *Product) DisplayName() string {
	if p.NameFr != nil && *p.NameFr != "" {
		return *p.NameFr
	}
	return p.Name
}

type Customer struct {
	ID          uuid.UUID
	WAID        string
	PhoneNumber string
	ProfileName string
	Language    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "PENDING"
	OrderStatusConfirmed  OrderStatus = "CONFIRMED"
	OrderStatusProcessing OrderStatus = "PROCESSING"
	OrderStatusShipped    OrderStatus = "SHIPPED"
	OrderStatusDelivered  OrderStatus = "DELIVERED"
	OrderStatusCancelled  OrderStatus = "CANCELLED"
	OrderStatusRefunded   OrderStatus = "REFUNDED"
)

// AllowedTransitions is the order lifecycle graph. CANCELLED and REFUNDED
// are terminal.
var AllowedTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed:  {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:    {OrderStatusDelivered, OrderStatusRefunded},
	OrderStatusDelivered:  {OrderStatusRefunded},
	OrderStatusCancelled:  {},
	OrderStatusRefunded:   {},
}

func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	for _, t := range AllowedTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// RestoresStock reports whether entering this status returns reserved stock
// to inventory.
func (s OrderStatus) RestoresStock() bool {
	return s == OrderStatusCancelled || s == OrderStatusRefunded
}

func (s OrderStatus) Valid() bool {
	_, ok := AllowedTransitions[s]
	return ok
}

type PaymentStatus string

const (
	PaymentUnpaid   PaymentStatus = "unpaid"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

// Order is owned by exactly one of UserID (REST-created) or CustomerID
// (chat-created); the schema enforces this with a CHECK constraint.
type Order struct {
	ID            uuid.UUID
	OrderNumber   string
	UserID        *uuid.UUID
	CustomerID    *uuid.UUID
	ContactPhone  string
	Status        OrderStatus
	PaymentStatus PaymentStatus
	Total         decimal.Decimal
	Items         []OrderItem
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// OrderItem snapshots the unit price at purchase time; it is never
// recomputed from the live product price.
type OrderItem struct {
	ID        uuid.UUID
	OrderID   uuid.UUID
	ProductID uuid.UUID
	Quantity  int
	Price     decimal.Decimal
}

// OrderStatusEvent is one row of the append-only status history.
type OrderStatusEvent struct {
	ID        uuid.UUID
	OrderID   uuid.UUID
	From      OrderStatus
	To        OrderStatus
	ActorID   *uuid.UUID
	Note      string
	CreatedAt time.Time
}

// StockMovement records every stock change, append-only. Delta is negative
// for reservations and positive for releases.
type StockMovement struct {
	ID        uuid.UUID
	ProductID uuid.UUID
	Delta     int
	Reason    string
	OrderID   *uuid.UUID
	CreatedAt time.Time
}

const (
	MovementReserve = "reserve"
	MovementRelease = "release"
)

type MessageDirection string

const (
	DirectionInbound  MessageDirection = "inbound"
	DirectionOutbound MessageDirection = "outbound"
)

type MessageStatus string

const (
	MessageReceived MessageStatus = "received"
	MessageRead     MessageStatus = "read"
	MessageReplied  MessageStatus = "replied"
)

// Message is keyed by the provider-assigned message id, which carries the
// at-most-once guarantee for webhook deliveries.
type Message struct {
	ID                uuid.UUID
	ProviderMessageID string
	CustomerID        uuid.UUID
	Direction         MessageDirection
	Type              string
	Content           string
	Status            MessageStatus
	Metadata          map[string]any
	CreatedAt         time.Time
}

// AuditLog rows are appended, never updated or deleted.
type AuditLog struct {
	ID        uuid.UUID
	ActorID   *uuid.UUID
	Action    string
	Entity    string
	EntityID  string
	IP        string
	CreatedAt time.Time
}

// OrderStatusStat is one row of the admin stats summary.
type OrderStatusStat struct {
	Status  OrderStatus
	Count   int
	Revenue decimal.Decimal
}
