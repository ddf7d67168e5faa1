package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/flicky/chat-commerce-api/internal/webhook"
)

// EventPublisher hands a verified raw webhook body off for asynchronous
// processing. The HTTP handler never touches the database itself.
type EventPublisher interface {
	Publish(ctx context.Context, body []byte) error
}

type WebhookHandler struct {
	verifyToken string
	appSecret   string
	publisher   EventPublisher
	log         *slog.Logger
}

func NewWebhookHandler(verifyToken, appSecret string, publisher EventPublisher, log *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		verifyToken: verifyToken,
		appSecret:   appSecret,
		publisher:   publisher,
		log:         log,
	}
}

// Verify answers the provider's subscription handshake: echo the challenge
// when the verify token matches, 403 otherwise.
func (h *WebhookHandler) Verify(c *gin.Context) {
	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")

	if mode == "subscribe" && token == h.verifyToken {
		c.String(http.StatusOK, challenge)
		return
	}
	c.Status(http.StatusForbidden)
}

// Receive verifies the payload signature and queues the raw body. The
// provider retries on anything but a fast 200, so all real work happens in
// the worker.
func (h *WebhookHandler) Receive(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}

	if !webhook.ValidSignature(body, c.GetHeader("X-Hub-Signature-256"), h.appSecret) {
		h.log.Warn("webhook signature rejected", "remote_addr", c.ClientIP())
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
		return
	}

	if err := h.publisher.Publish(c.Request.Context(), body); err != nil {
		h.log.Error("publish webhook event", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.Status(http.StatusOK)
}
