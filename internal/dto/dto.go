package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/flicky/chat-commerce-api/internal/model"
)

// --- Auth ---

type RegisterRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8"`
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Role      string    `json:"role"`
}

// --- Product ---

type CreateProductRequest struct {
	Name          string          `json:"name" binding:"required"`
	NameFr        *string         `json:"name_fr"`
	Description   string          `json:"description" binding:"required"`
	DescriptionFr *string         `json:"description_fr"`
	Price         decimal.Decimal `json:"price" binding:"required"`
	Stock         int             `json:"stock" binding:"min=0"`
}

type UpdateProductRequest struct {
	Name          *string          `json:"name"`
	NameFr        *string          `json:"name_fr"`
	Description   *string          `json:"description"`
	DescriptionFr *string          `json:"description_fr"`
	Price         *decimal.Decimal `json:"price"`
}

type ListProductsRequest struct {
	Page           int  `form:"page,default=1" binding:"min=1"`
	Limit          int  `form:"limit,default=20" binding:"min=1,max=100"`
	IncludeRetired bool `form:"include_retired"`
}

type ProductResponse struct {
	ID            uuid.UUID           `json:"id"`
	ChatCode      int                 `json:"chat_code"`
	Name          string              `json:"name"`
	NameFr        *string             `json:"name_fr,omitempty"`
	Description   string              `json:"description"`
	DescriptionFr *string             `json:"description_fr,omitempty"`
	Price         decimal.Decimal     `json:"price"`
	Stock         int                 `json:"stock"`
	Status        model.ProductStatus `json:"status"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

type ProductListResponse struct {
	Products []ProductResponse `json:"products"`
	Total    int               `json:"total"`
	Page     int               `json:"page"`
	Limit    int               `json:"limit"`
}

// --- Order ---

type OrderItemRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Quantity  int       `json:"quantity" binding:"required,min=1"`
}

type CreateOrderRequest struct {
	PhoneNumber string             `json:"phone_number" binding:"required"`
	Items       []OrderItemRequest `json:"items" binding:"required,min=1,dive"`
}

type ListOrdersRequest struct {
	Page      int    `form:"page,default=1" binding:"min=1"`
	Limit     int    `form:"limit,default=20" binding:"min=1,max=100"`
	Status    string `form:"status"`
	StartDate string `form:"startDate"`
	EndDate   string `form:"endDate"`
}

type TransitionOrderRequest struct {
	Status model.OrderStatus `json:"status" binding:"required"`
	Note   string            `json:"note"`
}

type OrderResponse struct {
	ID            uuid.UUID                  `json:"id"`
	OrderNumber   string                     `json:"order_number"`
	Status        model.OrderStatus          `json:"status"`
	PaymentStatus model.PaymentStatus        `json:"payment_status"`
	ContactPhone  string                     `json:"contact_phone,omitempty"`
	Total         decimal.Decimal            `json:"total"`
	Items         []OrderItemResponse        `json:"items"`
	History       []OrderStatusEventResponse `json:"history,omitempty"`
	CreatedAt     time.Time                  `json:"created_at"`
	UpdatedAt     time.Time                  `json:"updated_at"`
}

type OrderItemResponse struct {
	ID        uuid.UUID       `json:"id"`
	ProductID uuid.UUID       `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

type OrderStatusEventResponse struct {
	From      model.OrderStatus `json:"from"`
	To        model.OrderStatus `json:"to"`
	Note      string            `json:"note,omitempty"`
	CreatedAt time.Time         `json:"at"`
}

type OrderListResponse struct {
	Orders []OrderResponse `json:"orders"`
	Total  int             `json:"total"`
	Page   int             `json:"page"`
	Limit  int             `json:"limit"`
}

type OrderStatsResponse struct {
	ByStatus     []OrderStatusStatResponse `json:"by_status"`
	TotalOrders  int                       `json:"total_orders"`
	TotalRevenue decimal.Decimal           `json:"total_revenue"`
}

type OrderStatusStatResponse struct {
	Status  model.OrderStatus `json:"status"`
	Count   int               `json:"count"`
	Revenue decimal.Decimal   `json:"revenue"`
}

// --- Customers & messages ---

type CustomerResponse struct {
	ID          uuid.UUID `json:"id"`
	PhoneNumber string    `json:"phone_number"`
	ProfileName string    `json:"profile_name"`
	Language    string    `json:"language"`
	CreatedAt   time.Time `json:"created_at"`
}

type ListMessagesRequest struct {
	Page       int    `form:"page,default=1" binding:"min=1"`
	Limit      int    `form:"limit,default=20" binding:"min=1,max=100"`
	CustomerID string `form:"customer_id"`
	StartDate  string `form:"startDate"`
	EndDate    string `form:"endDate"`
}

type MessageResponse struct {
	ID         uuid.UUID              `json:"id"`
	CustomerID uuid.UUID              `json:"customer_id"`
	Direction  model.MessageDirection `json:"direction"`
	Type       string                 `json:"type"`
	Content    string                 `json:"content"`
	Status     model.MessageStatus    `json:"status"`
	CreatedAt  time.Time              `json:"created_at"`
}

type MessageListResponse struct {
	Messages []MessageResponse `json:"messages"`
	Total    int               `json:"total"`
	Page     int               `json:"page"`
	Limit    int               `json:"limit"`
}

// --- Audit ---

type AuditLogResponse struct {
	ID        uuid.UUID  `json:"id"`
	ActorID   *uuid.UUID `json:"actor_id,omitempty"`
	Action    string     `json:"action"`
	Entity    string     `json:"entity"`
	EntityID  string     `json:"entity_id"`
	IP        string     `json:"ip"`
	CreatedAt time.Time  `json:"created_at"`
}
