package repository

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flicky/chat-commerce-api/internal/model"
)

func TestUserRepo_CreateAndGetByEmail(t *testing.T) {
	cleanupTable(t, "audit_logs", "stock_movements", "order_status_events", "order_items", "orders", "users")

	repo := NewUserRepository(testPool)
	ctx := context.Background()

	user := &model.User{
		Email: "test@example.com", Password: "hashed",
		FirstName: "John", LastName: "Doe", Role: "staff",
	}
	require.NoError(t, repo.Create(ctx, user))
	assert.NotEqual(t, uuid.Nil, user.ID)

	found, err := repo.GetByEmail(ctx, "test@example.com")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, user.ID, found.ID)

	dup := &model.User{Email: "test@example.com", Password: "h", FirstName: "J", LastName: "D", Role: "staff"}
	assert.ErrorIs(t, repo.Create(ctx, dup), ErrDuplicate)
}

func TestCustomerRepo_UpsertByWAID(t *testing.T) {
	cleanupTable(t, "messages", "stock_movements", "order_status_events", "order_items", "orders", "customers")

	repo := NewCustomerRepository(testPool)
	ctx := context.Background()

	c := &model.Customer{WAID: "237600000001", PhoneNumber: "237600000001", ProfileName: "Alice"}
	require.NoError(t, repo.Upsert(ctx, c))
	assert.NotEqual(t, uuid.Nil, c.ID)
	firstID := c.ID

	// Second contact from the same wa_id refreshes the profile, same row.
	again := &model.Customer{WAID: "237600000001", PhoneNumber: "237600000001", ProfileName: "Alice B."}
	require.NoError(t, repo.Upsert(ctx, again))
	assert.Equal(t, firstID, again.ID)

	found, err := repo.GetByWAID(ctx, "237600000001")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "Alice B.", found.ProfileName)
}

func TestMessageRepo_DuplicateProviderID(t *testing.T) {
	cleanupTable(t, "messages", "stock_movements", "order_status_events", "order_items", "orders", "customers")

	customers := NewCustomerRepository(testPool)
	messages := NewMessageRepository(testPool)
	ctx := context.Background()

	c := &model.Customer{WAID: "237600000002", PhoneNumber: "237600000002"}
	require.NoError(t, customers.Upsert(ctx, c))

	msg := &model.Message{
		ProviderMessageID: "wamid.integration.1",
		CustomerID:        c.ID,
		Direction:         model.DirectionInbound,
		Type:              "text",
		Content:           "menu",
		Status:            model.MessageReceived,
	}
	require.NoError(t, messages.Insert(ctx, msg))

	dup := &model.Message{
		ProviderMessageID: "wamid.integration.1",
		CustomerID:        c.ID,
		Direction:         model.DirectionInbound,
		Type:              "text",
		Content:           "menu",
		Status:            model.MessageReceived,
	}
	assert.ErrorIs(t, messages.Insert(ctx, dup), ErrDuplicate)
}

func TestOrderRepo_InsertAndHistory(t *testing.T) {
	cleanupTable(t, "audit_logs", "stock_movements", "order_status_events", "order_items", "orders", "products", "users")

	users := NewUserRepository(testPool)
	products := NewProductRepository(testPool)
	orders := NewOrderRepository(testPool)
	ctx := context.Background()

	user := &model.User{Email: "order@example.com", Password: "h", FirstName: "O", LastName: "U", Role: "staff"}
	require.NoError(t, users.Create(ctx, user))

	product := &model.Product{Name: "P", Description: "D", Price: decimal.NewFromFloat(25), Stock: 10, Status: model.ProductActive}
	require.NoError(t, products.Create(ctx, product))

	tx, err := orders.BeginTx(ctx)
	require.NoError(t, err)

	order := &model.Order{
		OrderNumber: "ORD-20260830-TEST0001",
		UserID:      &user.ID,
		Status:      model.OrderStatusPending,
		PaymentStatus: model.PaymentUnpaid,
		Total:       decimal.NewFromFloat(50),
	}
	require.NoError(t, orders.Insert(ctx, tx, order))
	assert.NotEqual(t, uuid.Nil, order.ID)

	require.NoError(t, orders.InsertItems(ctx, tx, []model.OrderItem{
		{OrderID: order.ID, ProductID: product.ID, Quantity: 2, Price: product.Price},
	}))
	require.NoError(t, orders.InsertStatusEvent(ctx, tx, &model.OrderStatusEvent{
		OrderID: order.ID, From: model.OrderStatusPending, To: model.OrderStatusPending, Note: "order created",
	}))
	require.NoError(t, orders.UpdateStatus(ctx, tx, order.ID, model.OrderStatusConfirmed))
	require.NoError(t, orders.InsertStatusEvent(ctx, tx, &model.OrderStatusEvent{
		OrderID: order.ID, From: model.OrderStatusPending, To: model.OrderStatusConfirmed,
	}))
	require.NoError(t, tx.Commit(ctx))

	found, err := orders.GetByOrderNumber(ctx, "ORD-20260830-TEST0001")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, model.OrderStatusConfirmed, found.Status)
	require.Len(t, found.Items, 1)

	events, err := orders.StatusEvents(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, model.OrderStatusPending, events[0].To)
	assert.Equal(t, model.OrderStatusConfirmed, events[1].To)

	listed, total, err := orders.List(ctx, ListOrdersParams{Status: model.OrderStatusConfirmed, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, listed, 1)
	assert.Equal(t, order.ID, listed[0].ID)
}

func TestProductRepo_ConcurrentDecrementLastUnit(t *testing.T) {
	cleanupTable(t, "stock_movements", "order_status_events", "order_items", "orders", "products")

	products := NewProductRepository(testPool)
	ctx := context.Background()

	p := &model.Product{
		Name: "Last unit", Price: decimal.NewFromInt(1000),
		Stock: 1, Status: model.ProductActive,
	}
	require.NoError(t, products.Create(ctx, p))

	// Two transactions race for the single unit. The second blocks on the
	// row lock until the first commits, then re-evaluates the stock guard.
	type result struct {
		ok  bool
		err error
	}
	results := make(chan result, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tx, err := testPool.Begin(ctx)
			if err != nil {
				results <- result{err: err}
				return
			}
			ok, err := products.DecrementStock(ctx, tx, p.ID, 1)
			if err != nil {
				_ = tx.Rollback(ctx)
				results <- result{err: err}
				return
			}
			results <- result{ok: ok, err: tx.Commit(ctx)}
		}()
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for r := range results {
		require.NoError(t, r.err)
		if r.ok {
			succeeded++
		}
	}
	assert.Equal(t, 1, succeeded)

	drained, err := products.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, drained.Stock)
}
