package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/exchange/internal/ports/secondary"
)

// MessageRepository implements secondary.MessageRepository with SQLite.
type MessageRepository struct {
	db *sql.DB
}

// NewMessageRepository creates a new SQLite message repository.
func NewMessageRepository(db *sql.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// Create persists a new message.
func (r *MessageRepository) Create(ctx context.Context, message *secondary.MessageRecord) error {
	if message.ID == "" {
		return fmt.Errorf("message ID must be pre-populated by service layer")
	}

	var senderID sql.NullString
	if message.SenderID != "" {
		senderID = sql.NullString{String: message.SenderID, Valid: true}
	}

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO workflow_messages (id, workflow_id, sender_id, sender_type, channel, body) VALUES (?, ?, ?, ?, ?, ?)",
		message.ID, message.WorkflowID, senderID, message.SenderType, message.Channel, message.Body,
	)
	if err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}

	return nil
}

// ListByWorkflow retrieves a workflow's messages in chronological order.
func (r *MessageRepository) ListByWorkflow(ctx context.Context, workflowID string) ([]*secondary.MessageRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, workflow_id, sender_id, sender_type, channel, body, created_at FROM workflow_messages WHERE workflow_id = ? ORDER BY created_at ASC, id ASC",
		workflowID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	var messages []*secondary.MessageRecord
	for rows.Next() {
		record := &secondary.MessageRecord{}
		var (
			senderID  sql.NullString
			createdAt time.Time
		)
		err := rows.Scan(&record.ID, &record.WorkflowID, &senderID, &record.SenderType, &record.Channel, &record.Body, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		record.SenderID = senderID.String
		record.CreatedAt = createdAt.Format(time.RFC3339)
		messages = append(messages, record)
	}

	return messages, nil
}

// GetNextID returns the next available message ID for a workflow.
func (r *MessageRepository) GetNextID(ctx context.Context, workflowID string) (string, error) {
	prefix := workflowID + "-MSG-"
	var maxID int
	err := r.db.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(CAST(SUBSTR(id, ?) AS INTEGER)), 0) FROM workflow_messages WHERE workflow_id = ?",
		len(prefix)+1, workflowID,
	).Scan(&maxID)
	if err != nil {
		return "", fmt.Errorf("failed to get next message ID: %w", err)
	}

	return fmt.Sprintf("%s%03d", prefix, maxID+1), nil
}

// Ensure MessageRepository implements the interface
var _ secondary.MessageRepository = (*MessageRepository)(nil)
