package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"

	"github.com/flicky/chat-commerce-api/internal/dto"
	"github.com/flicky/chat-commerce-api/internal/model"
	"github.com/flicky/chat-commerce-api/internal/repository"
)

const productCacheTTL = 60 * time.Second

var ErrInvalidPrice = errors.New("price must not be negative")

type ProductService struct {
	productRepo repository.ProductRepository
	redisClient *redis.Client
}

func NewProductService(productRepo repository.ProductRepository, redisClient *redis.Client) *ProductService {
	return &ProductService{productRepo: productRepo, redisClient: redisClient}
}

func (s *ProductService) Create(ctx context.Context, req dto.CreateProductRequest) (*dto.ProductResponse, error) {
	if req.Price.IsNegative() {
		return nil, ErrInvalidPrice
	}
	product := &model.Product{
		Name:          req.Name,
		NameFr:        req.NameFr,
		Description:   req.Description,
		DescriptionFr: req.DescriptionFr,
		Price:         req.Price,
		Stock:         req.Stock,
	}
	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	resp := toProductResponse(product)
	return &resp, nil
}

func (s *ProductService) GetByID(ctx context.Context, id uuid.UUID) (*dto.ProductResponse, error) {
	cacheKey := "product:" + id.String()

	if s.redisClient != nil {
		if cached, err := s.redisClient.Get(ctx, cacheKey).Result(); err == nil {
			var resp dto.ProductResponse
			if json.Unmarshal([]byte(cached), &resp) == nil {
				return &resp, nil
			}
		}
	}

	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	resp := toProductResponse(product)

	if s.redisClient != nil {
		if data, err := json.Marshal(resp); err == nil {
			s.redisClient.Set(ctx, cacheKey, data, productCacheTTL)
		}
	}

	return &resp, nil
}

func (s *ProductService) List(ctx context.Context, req dto.ListProductsRequest) (*dto.ProductListResponse, error) {
	offset := (req.Page - 1) * req.Limit
	products, total, err := s.productRepo.List(ctx, req.Limit, offset, req.IncludeRetired)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	var items []dto.ProductResponse
	for _, p := range products {
		items = append(items, toProductResponse(&p))
	}

	return &dto.ProductListResponse{Products: items, Total: total, Page: req.Page, Limit: req.Limit}, nil
}

// Update changes catalog fields only; stock moves exclusively through the
// inventory ledger.
func (s *ProductService) Update(ctx context.Context, id uuid.UUID, req dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	if req.Name != nil {
		product.Name = *req.Name
	}
	if req.NameFr != nil {
		product.NameFr = req.NameFr
	}
	if req.Description != nil {
		product.Description = *req.Description
	}
	if req.DescriptionFr != nil {
		product.DescriptionFr = req.DescriptionFr
	}
	if req.Price != nil {
		if req.Price.IsNegative() {
			return nil, ErrInvalidPrice
		}
		product.Price = *req.Price
	}

	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}

	s.invalidateCache(ctx, id)
	resp := toProductResponse(product)
	return &resp, nil
}

// Retire soft-removes the product from sale. Existing orders keep their
// price snapshots; the row stays.
func (s *ProductService) Retire(ctx context.Context, id uuid.UUID) error {
	if err := s.productRepo.Retire(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrProductNotFound
		}
		return fmt.Errorf("retire product: %w", err)
	}
	s.invalidateCache(ctx, id)
	return nil
}

// MenuProducts lists active, in-stock products for the chat menu.
func (s *ProductService) MenuProducts(ctx context.Context, limit int) ([]model.Product, error) {
	return s.productRepo.ListActiveInStock(ctx, limit)
}

// ProductByChatCode resolves the short numeric id customers type in chat.
// Returns nil when the code is unknown or the product is retired.
func (s *ProductService) ProductByChatCode(ctx context.Context, code int) (*model.Product, error) {
	product, err := s.productRepo.GetByChatCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if product == nil || product.Status != model.ProductActive {
		return nil, nil
	}
	return product, nil
}

func (s *ProductService) invalidateCache(ctx context.Context, id uuid.UUID) {
	if s.redisClient != nil {
		s.redisClient.Del(ctx, "product:"+id.String())
	}
}

func toProductResponse(p *model.Product) dto.ProductResponse {
	return dto.ProductResponse{
		ID:            p.ID,
		ChatCode:      p.ChatCode,
		Name:          p.Name,
		NameFr:        p.NameFr,
		Description:   p.Description,
		DescriptionFr: p.DescriptionFr,
		Price:         p.Price,
		Stock:         p.Stock,
		Status:        p.Status,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}
