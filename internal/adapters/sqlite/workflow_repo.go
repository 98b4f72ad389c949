// Package sqlite contains SQLite implementations of repository interfaces.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/exchange/internal/core/fault"
	"github.com/example/exchange/internal/ports/secondary"
)

// WorkflowRepository implements secondary.WorkflowRepository with SQLite.
type WorkflowRepository struct {
	db *sql.DB
}

// NewWorkflowRepository creates a new SQLite workflow repository.
func NewWorkflowRepository(db *sql.DB) *WorkflowRepository {
	return &WorkflowRepository{db: db}
}

// Create persists a new workflow.
// The record must have ID and Status pre-populated by the service layer.
func (r *WorkflowRepository) Create(ctx context.Context, workflow *secondary.WorkflowRecord) error {
	if workflow.ID == "" {
		return fmt.Errorf("workflow ID must be pre-populated by service layer")
	}
	if workflow.Status == "" {
		return fmt.Errorf("workflow Status must be pre-populated by service layer")
	}

	var runID, parentID, requestID sql.NullString
	if workflow.RunID != "" {
		runID = sql.NullString{String: workflow.RunID, Valid: true}
	}
	if workflow.ParentID != "" {
		parentID = sql.NullString{String: workflow.ParentID, Valid: true}
	}
	if workflow.RequestID != "" {
		requestID = sql.NullString{String: workflow.RequestID, Valid: true}
	}

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO workflows (id, owner_id, title, workflow_type, status, run_id, parent_id, request_id) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		workflow.ID, workflow.OwnerID, workflow.Title, workflow.WorkflowType, workflow.Status, runID, parentID, requestID,
	)
	if err != nil {
		return fmt.Errorf("failed to create workflow: %w", err)
	}

	return nil
}

// GetByID retrieves a workflow by its ID.
func (r *WorkflowRepository) GetByID(ctx context.Context, id string) (*secondary.WorkflowRecord, error) {
	record := &secondary.WorkflowRecord{}
	var (
		runID     sql.NullString
		parentID  sql.NullString
		requestID sql.NullString
		createdAt time.Time
		updatedAt time.Time
	)

	err := r.db.QueryRowContext(ctx,
		"SELECT id, owner_id, title, workflow_type, status, run_id, parent_id, request_id, created_at, updated_at FROM workflows WHERE id = ?",
		id,
	).Scan(&record.ID, &record.OwnerID, &record.Title, &record.WorkflowType, &record.Status, &runID, &parentID, &requestID, &createdAt, &updatedAt)

	if err == sql.ErrNoRows {
		return nil, fault.New(fault.NotFound, "workflow %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get workflow: %w", err)
	}

	record.RunID = runID.String
	record.ParentID = parentID.String
	record.RequestID = requestID.String
	record.CreatedAt = createdAt.Format(time.RFC3339)
	record.UpdatedAt = updatedAt.Format(time.RFC3339)

	return record, nil
}

// List retrieves workflows matching the given filters.
func (r *WorkflowRepository) List(ctx context.Context, filters secondary.WorkflowFilters) ([]*secondary.WorkflowRecord, error) {
	query := "SELECT id, owner_id, title, workflow_type, status, run_id, parent_id, request_id, created_at, updated_at FROM workflows"
	args := []any{}

	where := ""
	if filters.OwnerID != "" {
		where = " WHERE owner_id = ?"
		args = append(args, filters.OwnerID)
	}
	if filters.Status != "" {
		if where == "" {
			where = " WHERE status = ?"
		} else {
			where += " AND status = ?"
		}
		args = append(args, filters.Status)
	}
	query += where + " ORDER BY created_at DESC"

	if filters.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filters.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list workflows: %w", err)
	}
	defer rows.Close()

	var workflows []*secondary.WorkflowRecord
	for rows.Next() {
		record := &secondary.WorkflowRecord{}
		var (
			runID     sql.NullString
			parentID  sql.NullString
			requestID sql.NullString
			createdAt time.Time
			updatedAt time.Time
		)
		err := rows.Scan(&record.ID, &record.OwnerID, &record.Title, &record.WorkflowType, &record.Status, &runID, &parentID, &requestID, &createdAt, &updatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan workflow: %w", err)
		}
		record.RunID = runID.String
		record.ParentID = parentID.String
		record.RequestID = requestID.String
		record.CreatedAt = createdAt.Format(time.RFC3339)
		record.UpdatedAt = updatedAt.Format(time.RFC3339)
		workflows = append(workflows, record)
	}

	return workflows, nil
}

// UpdateStatus updates the workflow status.
func (r *WorkflowRepository) UpdateStatus(ctx context.Context, id, status string) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE workflows SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		status, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update workflow status: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fault.New(fault.NotFound, "workflow %s not found", id)
	}

	return nil
}

// UpdateRunID records the identifier of the currently active run.
func (r *WorkflowRepository) UpdateRunID(ctx context.Context, id, runID string) error {
	var value sql.NullString
	if runID != "" {
		value = sql.NullString{String: runID, Valid: true}
	}

	result, err := r.db.ExecContext(ctx,
		"UPDATE workflows SET run_id = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		value, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update workflow run id: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fault.New(fault.NotFound, "workflow %s not found", id)
	}

	return nil
}

// Exists checks whether a workflow exists.
func (r *WorkflowRepository) Exists(ctx context.Context, id string) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM workflows WHERE id = ?",
		id,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check workflow existence: %w", err)
	}
	return count > 0, nil
}

// GetNextID returns the next available workflow ID.
func (r *WorkflowRepository) GetNextID(ctx context.Context) (string, error) {
	var maxID int
	err := r.db.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(CAST(SUBSTR(id, 4) AS INTEGER)), 0) FROM workflows",
	).Scan(&maxID)
	if err != nil {
		return "", fmt.Errorf("failed to get next workflow ID: %w", err)
	}

	return fmt.Sprintf("WF-%03d", maxID+1), nil
}

// Ensure WorkflowRepository implements the interface
var _ secondary.WorkflowRepository = (*WorkflowRepository)(nil)
