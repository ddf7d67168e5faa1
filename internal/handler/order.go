package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/flicky/chat-commerce-api/internal/dto"
	"github.com/flicky/chat-commerce-api/internal/middleware"
	"github.com/flicky/chat-commerce-api/internal/model"
	"github.com/flicky/chat-commerce-api/internal/repository"
	"github.com/flicky/chat-commerce-api/internal/service"
)

type OrderHandler struct {
	orderService *service.OrderService
}

func NewOrderHandler(orderService *service.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req dto.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := middleware.GetUserID(c)
	inputs := make([]service.OrderItemInput, 0, len(req.Items))
	for _, item := range req.Items {
		inputs = append(inputs, service.OrderItemInput{ProductID: item.ProductID, Quantity: item.Quantity})
	}

	order, err := h.orderService.Create(c.Request.Context(),
		service.OrderOrigin{UserID: &userID}, req.PhoneNumber, inputs, c.ClientIP())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyOrder):
			c.JSON(http.StatusBadRequest, gin.H{"error": "order has no items"})
		case errors.Is(err, service.ErrInvalidProduct):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrInsufficientStock):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		}
		return
	}

	c.JSON(http.StatusCreated, toOrderResponse(order, nil))
}

func (h *OrderHandler) ListOrders(c *gin.Context) {
	var req dto.ListOrdersRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	params := repository.ListOrdersParams{
		Status: model.OrderStatus(req.Status),
		Limit:  req.Limit,
		Offset: (req.Page - 1) * req.Limit,
	}
	if req.Status != "" && !params.Status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status"})
		return
	}
	if req.StartDate != "" {
		t, err := time.Parse("2006-01-02", req.StartDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid startDate, want YYYY-MM-DD"})
			return
		}
		params.StartDate = &t
	}
	if req.EndDate != "" {
		t, err := time.Parse("2006-01-02", req.EndDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid endDate, want YYYY-MM-DD"})
			return
		}
		end := t.Add(24*time.Hour - time.Nanosecond)
		params.EndDate = &end
	}

	// Non-admins only ever see their own orders.
	if middleware.GetUserRole(c) != "admin" {
		userID := middleware.GetUserID(c)
		params.UserID = &userID
	}

	orders, total, err := h.orderService.List(c.Request.Context(), params)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	items := make([]dto.OrderResponse, 0, len(orders))
	for i := range orders {
		items = append(items, toOrderResponse(&orders[i], nil))
	}
	c.JSON(http.StatusOK, dto.OrderListResponse{Orders: items, Total: total, Page: req.Page, Limit: req.Limit})
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	orderNumber := c.Param("orderNumber")
	userID := middleware.GetUserID(c)
	admin := middleware.GetUserRole(c) == "admin"

	order, events, err := h.orderService.GetForUser(c.Request.Context(), orderNumber, userID, admin)
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, toOrderResponse(order, events))
}

func (h *OrderHandler) TransitionStatus(c *gin.Context) {
	var req dto.TransitionOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := middleware.GetUserID(c)
	order, err := h.orderService.Transition(c.Request.Context(),
		c.Param("orderNumber"), req.Status, &userID, req.Note, c.ClientIP())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
		case errors.Is(err, service.ErrUnknownStatus):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrInvalidTransition):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		}
		return
	}

	c.JSON(http.StatusOK, toOrderResponse(order, nil))
}

func (h *OrderHandler) StatsSummary(c *gin.Context) {
	stats, err := h.orderService.StatsSummary(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	resp := dto.OrderStatsResponse{ByStatus: make([]dto.OrderStatusStatResponse, 0, len(stats))}
	for _, s := range stats {
		resp.TotalOrders += s.Count
		resp.TotalRevenue = resp.TotalRevenue.Add(s.Revenue)
		resp.ByStatus = append(resp.ByStatus, dto.OrderStatusStatResponse{
			Status:  s.Status,
			Count:   s.Count,
			Revenue: s.Revenue,
		})
	}
	c.JSON(http.StatusOK, resp)
}

func toOrderResponse(order *model.Order, events []model.OrderStatusEvent) dto.OrderResponse {
	items := make([]dto.OrderItemResponse, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, dto.OrderItemResponse{
			ID:        item.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Price,
		})
	}
	var history []dto.OrderStatusEventResponse
	for _, ev := range events {
		history = append(history, dto.OrderStatusEventResponse{
			From:      ev.From,
			To:        ev.To,
			Note:      ev.Note,
			CreatedAt: ev.CreatedAt,
		})
	}
	return dto.OrderResponse{
		ID:            order.ID,
		OrderNumber:   order.OrderNumber,
		Status:        order.Status,
		PaymentStatus: order.PaymentStatus,
		ContactPhone:  order.ContactPhone,
		Total:         order.Total,
		Items:         items,
		History:       history,
		CreatedAt:     order.CreatedAt,
		UpdatedAt:     order.UpdatedAt,
	}
}
