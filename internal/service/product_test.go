package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flicky/chat-commerce-api/internal/dto"
	"github.com/flicky/chat-commerce-api/internal/model"
)

// fakeTx satisfies pgx.Tx for services that only ever Commit or Rollback.
type fakeTx struct{ pgx.Tx }

func (fakeTx) Commit(context.Context) error   { return nil }
func (fakeTx) Rollback(context.Context) error { return nil }

type mockProductRepo struct {
	products  map[uuid.UUID]*model.Product
	movements []model.StockMovement
	nextCode  int
}

func newMockProductRepo() *mockProductRepo {
	return &mockProductRepo{products: make(map[uuid.UUID]*model.Product)}
}

func (m *mockProductRepo) Create(_ context.Context, p *model.Product) error {
	m.nextCode++
	p.ID = uuid.New()
	p.ChatCode = m.nextCode
	if p.Status == "" {
		p.Status = model.ProductActive
	}
	p.CreatedAt = time.Now()
	p.UpdatedAt = time.Now()
	m.products[p.ID] = p
	return nil
}

func (m *mockProductRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Product, error) {
	return m.products[id], nil
}

func (m *mockProductRepo) GetByChatCode(_ context.Context, code int) (*model.Product, error) {
	for _, p := range m.products {
		if p.ChatCode == code {
			return p, nil
		}
	}
	return nil, nil
}

func (m *mockProductRepo) List(_ context.Context, limit, offset int, includeRetired bool) ([]model.Product, int, error) {
	var all []model.Product
	for _, p := range m.products {
		if !includeRetired && p.Status != model.ProductActive {
			continue
		}
		all = append(all, *p)
	}
	return all, len(all), nil
}

func (m *mockProductRepo) ListActiveInStock(_ context.Context, limit int) ([]model.Product, error) {
	var out []model.Product
	for _, p := range m.products {
		if p.Status == model.ProductActive && p.Stock > 0 {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *mockProductRepo) Update(_ context.Context, p *model.Product) error {
	if _, ok := m.products[p.ID]; !ok {
		return pgx.ErrNoRows
	}
	m.products[p.ID] = p
	return nil
}

func (m *mockProductRepo) Retire(_ context.Context, id uuid.UUID) error {
	p, ok := m.products[id]
	if !ok || p.Status != model.ProductActive {
		return pgx.ErrNoRows
	}
	p.Status = model.ProductRetired
	return nil
}

func (m *mockProductRepo) DecrementStock(_ context.Context, _ pgx.Tx, productID uuid.UUID, quantity int) (bool, error) {
	p, ok := m.products[productID]
	if !ok || p.Stock < quantity {
		return false, nil
	}
	p.Stock -= quantity
	return true, nil
}

func (m *mockProductRepo) IncrementStock(_ context.Context, _ pgx.Tx, productID uuid.UUID, quantity int) (bool, error) {
	p, ok := m.products[productID]
	if !ok {
		return false, nil
	}
	p.Stock += quantity
	return true, nil
}

func (m *mockProductRepo) Exists(_ context.Context, _ pgx.Tx, productID uuid.UUID) (bool, error) {
	_, ok := m.products[productID]
	return ok, nil
}

func (m *mockProductRepo) InsertMovement(_ context.Context, _ pgx.Tx, mv *model.StockMovement) error {
	mv.ID = uuid.New()
	m.movements = append(m.movements, *mv)
	return nil
}

func TestProductService_Create(t *testing.T) {
	svc := NewProductService(newMockProductRepo(), nil)
	resp, err := svc.Create(context.Background(), dto.CreateProductRequest{
		Name: "Test", Description: "Desc", Price: decimal.NewFromFloat(9.99), Stock: 100,
	})
	require.NoError(t, err)
	assert.Equal(t, "Test", resp.Name)
	assert.Equal(t, 100, resp.Stock)
	assert.Equal(t, model.ProductActive, resp.Status)
}

func TestProductService_Create_NegativePrice(t *testing.T) {
	svc := NewProductService(newMockProductRepo(), nil)
	_, err := svc.Create(context.Background(), dto.CreateProductRequest{
		Name: "Test", Description: "Desc", Price: decimal.NewFromInt(-1),
	})
	assert.ErrorIs(t, err, ErrInvalidPrice)
}

func TestProductService_GetByID_NotFound(t *testing.T) {
	svc := NewProductService(newMockProductRepo(), nil)
	_, err := svc.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestProductService_Update_NeverTouchesStock(t *testing.T) {
	repo := newMockProductRepo()
	svc := NewProductService(repo, nil)

	created, err := svc.Create(context.Background(), dto.CreateProductRequest{
		Name: "Lamp", Description: "Desc", Price: decimal.NewFromInt(10), Stock: 7,
	})
	require.NoError(t, err)

	name := "Lampe"
	price := decimal.NewFromInt(12)
	updated, err := svc.Update(context.Background(), created.ID, dto.UpdateProductRequest{
		Name: &name, Price: &price,
	})
	require.NoError(t, err)
	assert.Equal(t, "Lampe", updated.Name)
	assert.Equal(t, 7, updated.Stock)
}

func TestProductService_Retire(t *testing.T) {
	repo := newMockProductRepo()
	svc := NewProductService(repo, nil)

	created, err := svc.Create(context.Background(), dto.CreateProductRequest{
		Name: "Old", Description: "Desc", Price: decimal.NewFromInt(5), Stock: 3,
	})
	require.NoError(t, err)

	require.NoError(t, svc.Retire(context.Background(), created.ID))
	assert.Equal(t, model.ProductRetired, repo.products[created.ID].Status)

	// Retiring twice is a not-found, the row stays.
	assert.ErrorIs(t, svc.Retire(context.Background(), created.ID), ErrProductNotFound)
}

func TestProductService_ProductByChatCode_SkipsRetired(t *testing.T) {
	repo := newMockProductRepo()
	svc := NewProductService(repo, nil)

	created, err := svc.Create(context.Background(), dto.CreateProductRequest{
		Name: "Chair", Description: "Desc", Price: decimal.NewFromInt(20), Stock: 2,
	})
	require.NoError(t, err)

	p, err := svc.ProductByChatCode(context.Background(), created.ChatCode)
	require.NoError(t, err)
	require.NotNil(t, p)

	require.NoError(t, svc.Retire(context.Background(), created.ID))
	p, err = svc.ProductByChatCode(context.Background(), created.ChatCode)
	require.NoError(t, err)
	assert.Nil(t, p)
}
