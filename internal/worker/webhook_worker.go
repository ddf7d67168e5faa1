package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/flicky/chat-commerce-api/internal/bot"
	"github.com/flicky/chat-commerce-api/internal/model"
	"github.com/flicky/chat-commerce-api/internal/repository"
	"github.com/flicky/chat-commerce-api/internal/webhook"
	"github.com/flicky/chat-commerce-api/internal/whatsapp"
)

const (
	eventQueueName = "webhook.events"
	dlxExchange    = "webhook.events.dlx"
	dlqQueueName   = "webhook.events.dlq"
	idempotencyTTL = 24 * time.Hour
)

// SetupRabbitMQ declares the webhook event queue with its DLX/DLQ pair.
// Malformed payloads are dead-lettered instead of being retried forever.
func SetupRabbitMQ(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(dlxExchange, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare DLX: %w", err)
	}
	if _, err := ch.QueueDeclare(dlqQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare DLQ: %w", err)
	}
	if err := ch.QueueBind(dlqQueueName, eventQueueName, dlxExchange, false, nil); err != nil {
		return fmt.Errorf("bind DLQ: %w", err)
	}
	if _, err := ch.QueueDeclare(eventQueueName, true, false, false, false, amqp.Table{
		"x-dead-letter-exchange":    dlxExchange,
		"x-dead-letter-routing-key": eventQueueName,
	}); err != nil {
		return fmt.Errorf("declare event queue: %w", err)
	}
	if err := ch.Qos(1, 0, false); err != nil {
		return fmt.Errorf("set QoS: %w", err)
	}
	return nil
}

// Publisher pushes raw webhook bodies onto the event queue. The HTTP
// handler uses it so the provider gets its 200 before any processing runs.
type Publisher struct {
	channel *amqp.Channel
}

func NewPublisher(ch *amqp.Channel) *Publisher {
	return &Publisher{channel: ch}
}

func (p *Publisher) Publish(ctx context.Context, body []byte) error {
	return p.channel.PublishWithContext(ctx, "", eventQueueName, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
}

// WebhookWorker consumes raw provider events, deduplicates them, persists
// the conversation, and dispatches commands to the interpreter.
type WebhookWorker struct {
	channel     *amqp.Channel
	customers   repository.CustomerRepository
	messages    repository.MessageRepository
	redisClient *redis.Client
	gateway     whatsapp.Gateway
	interpreter *bot.Interpreter
	log         *slog.Logger
	done        chan struct{}
}

func NewWebhookWorker(
	ch *amqp.Channel,
	customers repository.CustomerRepository,
	messages repository.MessageRepository,
	redisClient *redis.Client,
	gateway whatsapp.Gateway,
	interpreter *bot.Interpreter,
	log *slog.Logger,
) *WebhookWorker {
	return &WebhookWorker{
		channel:     ch,
		customers:   customers,
		messages:    messages,
		redisClient: redisClient,
		gateway:     gateway,
		interpreter: interpreter,
		log:         log,
		done:        make(chan struct{}),
	}
}

func (w *WebhookWorker) Start(ctx context.Context) error {
	msgs, err := w.channel.Consume(eventQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	go func() {
		for {
			select {
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				w.processDelivery(ctx, msg)
			case <-w.done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	w.log.Info("webhook worker started")
	return nil
}

func (w *WebhookWorker) Stop() { close(w.done) }

func (w *WebhookWorker) processDelivery(ctx context.Context, msg amqp.Delivery) {
	ev, err := webhook.Parse(msg.Body)
	if err != nil {
		w.log.Error("unmarshal webhook event", "error", err)
		_ = msg.Nack(false, false) // → DLQ
		return
	}

	parsed, ok := webhook.ExtractMessage(ev)
	if !ok {
		// Status callbacks and media we don't handle.
		_ = msg.Ack(false)
		return
	}

	log := w.log.With("provider_message_id", parsed.ProviderMessageID, "wa_id", parsed.SenderWAID)

	idempotencyKey := "wamsg:" + parsed.ProviderMessageID
	set, err := w.redisClient.SetNX(ctx, idempotencyKey, "1", idempotencyTTL).Result()
	if err != nil {
		log.Error("check idempotency key", "error", err)
		_ = msg.Nack(false, true)
		return
	}
	if !set {
		log.Info("message already processed, skipping")
		_ = msg.Ack(false)
		return
	}

	if err := w.processMessage(ctx, parsed, log); err != nil {
		// Release the key so a redelivery can retry.
		_ = w.redisClient.Del(ctx, idempotencyKey).Err()
		log.Error("process webhook message", "error", err)
		_ = msg.Nack(false, false) // → DLQ
		return
	}

	_ = msg.Ack(false)
	log.Info("webhook message processed")
}

func (w *WebhookWorker) processMessage(ctx context.Context, parsed *webhook.ParsedMessage, log *slog.Logger) error {
	customer := &model.Customer{
		WAID:        parsed.SenderWAID,
		PhoneNumber: parsed.SenderWAID,
		ProfileName: parsed.ProfileName,
	}
	if err := w.customers.Upsert(ctx, customer); err != nil {
		return fmt.Errorf("upsert customer: %w", err)
	}

	content := parsed.Text
	if parsed.Type == "interactive" {
		content = parsed.InteractiveID
	}
	inbound := &model.Message{
		ProviderMessageID: parsed.ProviderMessageID,
		CustomerID:        customer.ID,
		Direction:         model.DirectionInbound,
		Type:              parsed.Type,
		Content:           content,
		Status:            model.MessageReceived,
	}
	if err := w.messages.Insert(ctx, inbound); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			// Redis expired or was flushed; the unique index is the backstop.
			log.Info("message already persisted, skipping")
			return nil
		}
		return fmt.Errorf("insert message: %w", err)
	}

	// Best effort; a read receipt failure must not stall the pipeline.
	if err := w.gateway.MarkRead(ctx, parsed.ProviderMessageID); err != nil {
		log.Warn("mark message read", "error", err)
	} else if err := w.messages.UpdateStatus(ctx, inbound.ID, model.MessageRead); err != nil {
		log.Warn("update message status", "error", err)
	}

	var cmd bot.Command
	if parsed.Type == "interactive" {
		cmd = bot.ParseInteractive(parsed.InteractiveID)
	} else {
		cmd = bot.Parse(parsed.Text)
	}

	reply := w.interpreter.Handle(ctx, customer, cmd)
	if err := w.sendReply(ctx, customer, inbound, reply); err != nil {
		// The conversation row is already committed; log and move on rather
		// than re-running the whole pipeline for a provider hiccup.
		log.Error("send reply", "error", err)
	}
	return nil
}

func (w *WebhookWorker) sendReply(ctx context.Context, customer *model.Customer, inbound *model.Message, reply bot.Reply) error {
	var (
		providerID string
		msgType    = "text"
		content    = reply.Text
		err        error
	)
	if reply.List != nil {
		msgType = "interactive"
		providerID, err = w.gateway.SendList(ctx, customer.WAID, *reply.List)
	} else {
		providerID, err = w.gateway.SendText(ctx, customer.WAID, reply.Text)
	}
	if err != nil {
		return err
	}

	outbound := &model.Message{
		ProviderMessageID: providerID,
		CustomerID:        customer.ID,
		Direction:         model.DirectionOutbound,
		Type:              msgType,
		Content:           content,
		Status:            model.MessageReplied,
	}
	if err := w.messages.Insert(ctx, outbound); err != nil && !errors.Is(err, repository.ErrDuplicate) {
		return fmt.Errorf("insert outbound message: %w", err)
	}
	if err := w.messages.UpdateStatus(ctx, inbound.ID, model.MessageReplied); err != nil {
		return fmt.Errorf("update inbound status: %w", err)
	}
	return nil
}
