package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"pod-service/internal/models"
)

var ErrMessageNotFound = errors.New("message not found")

// MessageRepository is the append-only message store for pods.
type MessageRepository interface {
	CreateMessage(ctx context.Context, msg models.NewMessage) (models.ChatMessage, error)
	GetMessage(ctx context.Context, messageID int64) (models.ChatMessage, error)
	// ListRecentMessages returns at most limit messages, newest first. A non-zero beforeID
	// restricts the page to messages older than that message.
	ListRecentMessages(ctx context.Context, podID string, limit int, beforeID int64) ([]models.ChatMessage, error)
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

const messageColumns = `id, pod_id, author_id, content, kind, COALESCE(metadata, 'null'::jsonb) AS metadata, created_at`

// CreateMessage appends a message and returns it with its assigned id and timestamp.
func (r *MessageRepo) CreateMessage(ctx context.Context, in models.NewMessage) (models.ChatMessage, error) {
	var metadata interface{}
	if len(in.Metadata) > 0 {
		metadata = string(in.Metadata)
	}
	var msg models.ChatMessage
	err := r.db.QueryRowxContext(ctx, `INSERT INTO pod_messages (pod_id, author_id, content, kind, metadata) VALUES ($1, $2, $3, $4, $5) RETURNING `+messageColumns,
		in.PodID, in.AuthorID, in.Content, in.Kind, metadata).StructScan(&msg)
	if err != nil {
		return models.ChatMessage{}, fmt.Errorf("insert message: %w", err)
	}
	normalizeMetadata(&msg)
	return msg, nil
}

// GetMessage fetches a single message.
func (r *MessageRepo) GetMessage(ctx context.Context, messageID int64) (models.ChatMessage, error) {
	var msg models.ChatMessage
	err := r.db.GetContext(ctx, &msg, `SELECT `+messageColumns+` FROM pod_messages WHERE id=$1`, messageID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ChatMessage{}, ErrMessageNotFound
	}
	normalizeMetadata(&msg)
	return msg, err
}

// ListRecentMessages returns a newest-first page. Ties on created_at fall back to insertion order.
func (r *MessageRepo) ListRecentMessages(ctx context.Context, podID string, limit int, beforeID int64) ([]models.ChatMessage, error) {
	msgs := []models.ChatMessage{}
	var err error
	if beforeID > 0 {
		err = r.db.SelectContext(ctx, &msgs, `SELECT `+messageColumns+` FROM pod_messages
            WHERE pod_id=$1 AND (created_at, id) < (SELECT created_at, id FROM pod_messages WHERE id=$2)
            ORDER BY created_at DESC, id DESC LIMIT $3`, podID, beforeID, limit)
	} else {
		err = r.db.SelectContext(ctx, &msgs, `SELECT `+messageColumns+` FROM pod_messages
            WHERE pod_id=$1 ORDER BY created_at DESC, id DESC LIMIT $2`, podID, limit)
	}
	if err != nil {
		return nil, err
	}
	for i := range msgs {
		normalizeMetadata(&msgs[i])
	}
	return msgs, nil
}

func normalizeMetadata(msg *models.ChatMessage) {
	if string(msg.Metadata) == "null" {
		msg.Metadata = nil
	}
}
