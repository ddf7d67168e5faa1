package handler

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flicky/chat-commerce-api/internal/webhook"
)

type capturePublisher struct {
	published [][]byte
	err       error
}

func (p *capturePublisher) Publish(_ context.Context, body []byte) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, body)
	return nil
}

func newWebhookRouter(publisher EventPublisher) *gin.Engine {
	gin.SetMode(gin.TestMode)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewWebhookHandler("verify-token", "app-secret", publisher, log)

	router := gin.New()
	router.GET("/webhook", h.Verify)
	router.POST("/webhook", h.Receive)
	return router
}

func TestWebhookVerify_EchoesChallenge(t *testing.T) {
	router := newWebhookRouter(&capturePublisher{})

	req := httptest.NewRequest(http.MethodGet,
		"/webhook?hub.mode=subscribe&hub.verify_token=verify-token&hub.challenge=12345", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "12345", rec.Body.String())
}

func TestWebhookVerify_WrongToken(t *testing.T) {
	router := newWebhookRouter(&capturePublisher{})

	req := httptest.NewRequest(http.MethodGet,
		"/webhook?hub.mode=subscribe&hub.verify_token=wrong&hub.challenge=12345", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.NotContains(t, rec.Body.String(), "12345")
}

func TestWebhookReceive_ValidSignature(t *testing.T) {
	publisher := &capturePublisher{}
	router := newWebhookRouter(publisher)

	body := []byte(`{"object":"whatsapp_business_account","entry":[]}`)
	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewReader(body))
	req.Header.Set("X-Hub-Signature-256", webhook.Sign(body, "app-secret"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, publisher.published, 1)
	assert.Equal(t, body, publisher.published[0])
}

func TestWebhookReceive_TamperedBody(t *testing.T) {
	publisher := &capturePublisher{}
	router := newWebhookRouter(publisher)

	body := []byte(`{"object":"whatsapp_business_account","entry":[]}`)
	header := webhook.Sign(body, "app-secret")

	req := httptest.NewRequest(http.MethodPost, "/webhook",
		bytes.NewReader([]byte(`{"object":"tampered","entry":[]}`)))
	req.Header.Set("X-Hub-Signature-256", header)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	// Rejected before anything reaches the queue.
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, publisher.published)
}

func TestWebhookReceive_MissingSignature(t *testing.T) {
	publisher := &capturePublisher{}
	router := newWebhookRouter(publisher)

	req := httptest.NewRequest(http.MethodPost, "/webhook",
		bytes.NewReader([]byte(`{"object":"whatsapp_business_account"}`)))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, publisher.published)
}
