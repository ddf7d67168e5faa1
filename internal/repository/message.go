package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flicky/chat-commerce-api/internal/model"
)

// ListMessagesParams filters the message listing.
type ListMessagesParams struct {
	CustomerID *uuid.UUID
	StartDate  *time.Time
	EndDate    *time.Time
	Limit      int
	Offset     int
}

type MessageRepository interface {
	// Insert persists a message. A row with the same provider message id
	// already existing yields ErrDuplicate.
	Insert(ctx context.Context, msg *model.Message) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.MessageStatus) error
	List(ctx context.Context, params ListMessagesParams) ([]model.Message, int, error)
}

type pgMessageRepo struct{ pool *pgxpool.Pool }

func NewMessageRepository(pool *pgxpool.Pool) MessageRepository {
	return &pgMessageRepo{pool: pool}
}

func (r *pgMessageRepo) Insert(ctx context.Context, msg *model.Message) error {
	msg.ID = uuid.New()
	meta, err := json.Marshal(msg.Metadata)
	if err != nil {
		return fmt.Errorf("marshal message metadata: %w", err)
	}
	err = r.pool.QueryRow(ctx,
		`INSERT INTO messages (id, provider_message_id, customer_id, direction, type, content, status, metadata, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW()) RETURNING created_at`,
		msg.ID, msg.ProviderMessageID, msg.CustomerID, msg.Direction, msg.Type, msg.Content, msg.Status, meta,
	).Scan(&msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert message: %w", mapUniqueViolation(err))
	}
	return nil
}

// UpdateStatus advances the message status; content is never mutated.
func (r *pgMessageRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status model.MessageStatus) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE messages SET status = $2 WHERE id = $1`, id, status,
	)
	if err != nil {
		return fmt.Errorf("update message status: %w", err)
	}
	return nil
}

func (r *pgMessageRepo) List(ctx context.Context, params ListMessagesParams) ([]model.Message, int, error) {
	var total int
	countQ := `SELECT COUNT(*) FROM messages
		 WHERE ($1::uuid IS NULL OR customer_id = $1)
		   AND ($2::timestamptz IS NULL OR created_at >= $2)
		   AND ($3::timestamptz IS NULL OR created_at <= $3)`
	if err := r.pool.QueryRow(ctx, countQ, params.CustomerID, params.StartDate, params.EndDate).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count messages: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, provider_message_id, customer_id, direction, type, content, status, metadata, created_at
		 FROM messages
		 WHERE ($1::uuid IS NULL OR customer_id = $1)
		   AND ($2::timestamptz IS NULL OR created_at >= $2)
		   AND ($3::timestamptz IS NULL OR created_at <= $3)
		 ORDER BY created_at DESC LIMIT $4 OFFSET $5`,
		params.CustomerID, params.StartDate, params.EndDate, params.Limit, params.Offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var messages []model.Message
	for rows.Next() {
		var m model.Message
		var meta []byte
		if err := rows.Scan(&m.ID, &m.ProviderMessageID, &m.CustomerID, &m.Direction, &m.Type, &m.Content, &m.Status, &meta, &m.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan message: %w", err)
		}
		if len(meta) > 0 {
			_ = json.Unmarshal(meta, &m.Metadata)
		}
		messages = append(messages, m)
	}
	return messages, total, nil
}
