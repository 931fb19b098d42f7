package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/youth-sports-api/internal/models"
)

const messageColumns = `id, parent_id, name, email, subject, body, read, created_at`

// MessageRepository stores contact submissions and parent inbox messages.
type MessageRepository struct {
	db *sqlx.DB
}

// NewMessageRepository constructs the repository.
func NewMessageRepository(db *sqlx.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// Create inserts a message.
func (r *MessageRepository) Create(ctx context.Context, msg *models.Message) error {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	msg.CreatedAt = time.Now().UTC()
	query := `INSERT INTO messages (` + messageColumns + `)
        VALUES (:id, :parent_id, :name, :email, :subject, :body, :read, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, msg); err != nil {
		return fmt.Errorf("create message: %w", err)
	}
	return nil
}

// ListByParent returns the parent's inbox, newest first.
func (r *MessageRepository) ListByParent(ctx context.Context, parentID string) ([]models.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE parent_id = $1 ORDER BY created_at DESC`
	var messages []models.Message
	if err := r.db.SelectContext(ctx, &messages, query, parentID); err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return messages, nil
}

// MarkRead flags a parent's message as read. Messages of other parents are
// reported as missing.
func (r *MessageRepository) MarkRead(ctx context.Context, id, parentID string) error {
	const query = `UPDATE messages SET read = TRUE WHERE id = $1 AND parent_id = $2`
	res, err := r.db.ExecContext(ctx, query, id, parentID)
	if err != nil {
		return fmt.Errorf("mark message read: %w", err)
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
