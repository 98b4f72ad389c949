package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/exchange/internal/ports/secondary"
)

// EventRepository implements secondary.EventRepository with SQLite.
// The events table is append-only; there is no update or delete path.
type EventRepository struct {
	db *sql.DB
}

// NewEventRepository creates a new SQLite event repository.
func NewEventRepository(db *sql.DB) *EventRepository {
	return &EventRepository{db: db}
}

// Append persists a new event and reads back its assigned sequence.
func (r *EventRepository) Append(ctx context.Context, event *secondary.EventRecord) error {
	if event.ID == "" {
		return fmt.Errorf("event ID must be pre-populated by service layer")
	}

	var stepID, actorID, channel sql.NullString
	if event.StepID != "" {
		stepID = sql.NullString{String: event.StepID, Valid: true}
	}
	if event.ActorID != "" {
		actorID = sql.NullString{String: event.ActorID, Valid: true}
	}
	if event.Channel != "" {
		channel = sql.NullString{String: event.Channel, Valid: true}
	}

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO workflow_events (id, workflow_id, step_id, event_type, actor_id, actor_type, channel, message) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		event.ID, event.WorkflowID, stepID, event.EventType, actorID, event.ActorType, channel, event.Message,
	)
	if err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}

	seq, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read event sequence: %w", err)
	}
	event.Seq = seq

	return nil
}

// ListByWorkflow retrieves a workflow's events. Chronological order is
// created_at then sequence; the reverse is what the timeline viewer shows.
func (r *EventRepository) ListByWorkflow(ctx context.Context, workflowID string, chronological bool) ([]*secondary.EventRecord, error) {
	order := "DESC"
	if chronological {
		order = "ASC"
	}

	rows, err := r.db.QueryContext(ctx,
		fmt.Sprintf("SELECT seq, id, workflow_id, step_id, event_type, actor_id, actor_type, channel, message, created_at FROM workflow_events WHERE workflow_id = ? ORDER BY created_at %s, seq %s", order, order),
		workflowID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	return collectEvents(rows)
}

// ListSince retrieves events newer than afterSeq in chronological order.
func (r *EventRepository) ListSince(ctx context.Context, workflowID string, afterSeq int64) ([]*secondary.EventRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT seq, id, workflow_id, step_id, event_type, actor_id, actor_type, channel, message, created_at FROM workflow_events WHERE workflow_id = ? AND seq > ? ORDER BY created_at ASC, seq ASC",
		workflowID, afterSeq,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list events since %d: %w", afterSeq, err)
	}
	defer rows.Close()

	return collectEvents(rows)
}

func collectEvents(rows *sql.Rows) ([]*secondary.EventRecord, error) {
	var events []*secondary.EventRecord
	for rows.Next() {
		record := &secondary.EventRecord{}
		var (
			stepID    sql.NullString
			actorID   sql.NullString
			channel   sql.NullString
			createdAt time.Time
		)
		err := rows.Scan(&record.Seq, &record.ID, &record.WorkflowID, &stepID, &record.EventType,
			&actorID, &record.ActorType, &channel, &record.Message, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		record.StepID = stepID.String
		record.ActorID = actorID.String
		record.Channel = channel.String
		record.CreatedAt = createdAt.Format(time.RFC3339)
		events = append(events, record)
	}

	return events, nil
}

// Ensure EventRepository implements the interface
var _ secondary.EventRepository = (*EventRepository)(nil)
