package handler

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/flicky/chat-commerce-api/internal/model"
	"github.com/flicky/chat-commerce-api/internal/repository"
	"github.com/flicky/chat-commerce-api/internal/service"
)

type fakeTx struct{ pgx.Tx }

func (fakeTx) Commit(context.Context) error   { return nil }
func (fakeTx) Rollback(context.Context) error { return nil }

// stubOrderRepo serves only the paths the handler tests walk; anything else
// panics through the embedded nil interface.
type stubOrderRepo struct {
	repository.OrderRepository
	order *model.Order
}

func (r *stubOrderRepo) BeginTx(context.Context) (pgx.Tx, error) { return fakeTx{}, nil }

func (r *stubOrderRepo) Insert(_ context.Context, _ pgx.Tx, order *model.Order) error {
	order.ID = uuid.New()
	return nil
}

func (r *stubOrderRepo) InsertItems(context.Context, pgx.Tx, []model.OrderItem) error { return nil }

func (r *stubOrderRepo) InsertStatusEvent(context.Context, pgx.Tx, *model.OrderStatusEvent) error {
	return nil
}

func (r *stubOrderRepo) GetByOrderNumberForUpdate(_ context.Context, _ pgx.Tx, orderNumber string) (*model.Order, error) {
	if r.order != nil && r.order.OrderNumber == orderNumber {
		return r.order, nil
	}
	return nil, nil
}

type stubProductRepo struct {
	repository.ProductRepository
	product *model.Product
}

func (r *stubProductRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Product, error) {
	if r.product != nil && r.product.ID == id {
		return r.product, nil
	}
	return nil, nil
}

func (r *stubProductRepo) Exists(_ context.Context, _ pgx.Tx, id uuid.UUID) (bool, error) {
	return r.product != nil && r.product.ID == id, nil
}

func (r *stubProductRepo) DecrementStock(_ context.Context, _ pgx.Tx, id uuid.UUID, quantity int) (bool, error) {
	if r.product == nil || r.product.ID != id || r.product.Stock < quantity {
		return false, nil
	}
	r.product.Stock -= quantity
	return true, nil
}

func (r *stubProductRepo) InsertMovement(context.Context, pgx.Tx, *model.StockMovement) error {
	return nil
}

type stubAuditRepo struct{}

func (stubAuditRepo) Insert(context.Context, *model.AuditLog) error { return nil }
func (stubAuditRepo) List(context.Context, int, int) ([]model.AuditLog, int, error) {
	return nil, 0, nil
}

func newOrderRouter(orders *stubOrderRepo, products *stubProductRepo) *gin.Engine {
	gin.SetMode(gin.TestMode)
	svc := service.NewOrderService(orders, products, service.NewInventoryLedger(products), stubAuditRepo{})
	h := NewOrderHandler(svc)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("userID", uuid.New())
		c.Set("userRole", "admin")
	})
	router.POST("/api/orders", h.CreateOrder)
	router.PATCH("/api/orders/:orderNumber/status", h.TransitionStatus)
	return router
}

func TestOrderHandler_CreateOrder_InsufficientStockIsBadRequest(t *testing.T) {
	product := &model.Product{
		ID:     uuid.New(),
		Name:   "Lampe solaire",
		Price:  decimal.NewFromInt(15000),
		Stock:  1,
		Status: model.ProductActive,
	}
	router := newOrderRouter(&stubOrderRepo{}, &stubProductRepo{product: product})

	body := fmt.Sprintf(`{"phone_number":"+237600000001","items":[{"product_id":%q,"quantity":2}]}`, product.ID)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/orders", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "insufficient stock")
	assert.Equal(t, 1, product.Stock)
}

func TestOrderHandler_TransitionStatus_InvalidTransitionIsBadRequest(t *testing.T) {
	order := &model.Order{
		ID:          uuid.New(),
		OrderNumber: "ORD-20260830-0001",
		Status:      model.OrderStatusDelivered,
	}
	router := newOrderRouter(&stubOrderRepo{order: order}, &stubProductRepo{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, "/api/orders/ORD-20260830-0001/status",
		bytes.NewBufferString(`{"status":"CANCELLED"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "DELIVERED")
}
