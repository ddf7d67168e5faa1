package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/flicky/chat-commerce-api/internal/dto"
	"github.com/flicky/chat-commerce-api/internal/model"
	"github.com/flicky/chat-commerce-api/internal/repository"
)

// MessageService backs the admin conversation views; ingestion writes go
// through the webhook worker, not here.
type MessageService struct {
	messages  repository.MessageRepository
	customers repository.CustomerRepository
}

func NewMessageService(messages repository.MessageRepository, customers repository.CustomerRepository) *MessageService {
	return &MessageService{messages: messages, customers: customers}
}

func (s *MessageService) List(ctx context.Context, req dto.ListMessagesRequest) (*dto.MessageListResponse, error) {
	params := repository.ListMessagesParams{
		Limit:  req.Limit,
		Offset: (req.Page - 1) * req.Limit,
	}
	if req.CustomerID != "" {
		id, err := uuid.Parse(req.CustomerID)
		if err != nil {
			return nil, fmt.Errorf("invalid customer id: %w", err)
		}
		params.CustomerID = &id
	}
	if req.StartDate != "" {
		t, err := time.Parse("2006-01-02", req.StartDate)
		if err != nil {
			return nil, fmt.Errorf("invalid start date: %w", err)
		}
		params.StartDate = &t
	}
	if req.EndDate != "" {
		t, err := time.Parse("2006-01-02", req.EndDate)
		if err != nil {
			return nil, fmt.Errorf("invalid end date: %w", err)
		}
		end := t.Add(24*time.Hour - time.Nanosecond)
		params.EndDate = &end
	}

	messages, total, err := s.messages.List(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	var items []dto.MessageResponse
	for _, m := range messages {
		items = append(items, dto.MessageResponse{
			ID:         m.ID,
			CustomerID: m.CustomerID,
			Direction:  m.Direction,
			Type:       m.Type,
			Content:    m.Content,
			Status:     m.Status,
			CreatedAt:  m.CreatedAt,
		})
	}
	return &dto.MessageListResponse{Messages: items, Total: total, Page: req.Page, Limit: req.Limit}, nil
}

func (s *MessageService) ListCustomers(ctx context.Context, page, limit int) ([]dto.CustomerResponse, int, error) {
	customers, total, err := s.customers.List(ctx, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, fmt.Errorf("list customers: %w", err)
	}

	var items []dto.CustomerResponse
	for _, c := range customers {
		items = append(items, toCustomerResponse(&c))
	}
	return items, total, nil
}

func toCustomerResponse(c *model.Customer) dto.CustomerResponse {
	return dto.CustomerResponse{
		ID:          c.ID,
		PhoneNumber: c.PhoneNumber,
		ProfileName: c.ProfileName,
		Language:    c.Language,
		CreatedAt:   c.CreatedAt,
	}
}
