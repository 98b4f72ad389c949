package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/exchange/internal/core/fault"
	"github.com/example/exchange/internal/ports/secondary"
)

// ApprovalRepository implements secondary.ApprovalRepository with SQLite.
type ApprovalRepository struct {
	db *sql.DB
}

// NewApprovalRepository creates a new SQLite approval repository.
func NewApprovalRepository(db *sql.DB) *ApprovalRepository {
	return &ApprovalRepository{db: db}
}

// Upsert creates or updates a participant's approval row. The UNIQUE
// constraint on (workflow_id, user_id) keeps the vote idempotent.
func (r *ApprovalRepository) Upsert(ctx context.Context, workflowID, userID, status string) error {
	id := fmt.Sprintf("%s-APR-%s", workflowID, userID)

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO workflow_approvals (id, workflow_id, user_id, status) VALUES (?, ?, ?, ?)
		 ON CONFLICT(workflow_id, user_id) DO UPDATE SET status = excluded.status, updated_at = CURRENT_TIMESTAMP`,
		id, workflowID, userID, status,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert approval: %w", err)
	}

	return nil
}

// ListByWorkflow retrieves all approval rows for a workflow.
func (r *ApprovalRepository) ListByWorkflow(ctx context.Context, workflowID string) ([]*secondary.ApprovalRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, workflow_id, user_id, status, created_at, updated_at FROM workflow_approvals WHERE workflow_id = ? ORDER BY created_at ASC",
		workflowID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list approvals: %w", err)
	}
	defer rows.Close()

	var approvals []*secondary.ApprovalRecord
	for rows.Next() {
		record, err := scanApproval(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan approval: %w", err)
		}
		approvals = append(approvals, record)
	}

	return approvals, nil
}

// GetByUser retrieves one participant's approval row.
func (r *ApprovalRepository) GetByUser(ctx context.Context, workflowID, userID string) (*secondary.ApprovalRecord, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT id, workflow_id, user_id, status, created_at, updated_at FROM workflow_approvals WHERE workflow_id = ? AND user_id = ?",
		workflowID, userID,
	)

	record, err := scanApproval(row)
	if err == sql.ErrNoRows {
		return nil, fault.New(fault.NotFound, "no approval for user %s on workflow %s", userID, workflowID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get approval: %w", err)
	}

	return record, nil
}

func scanApproval(row rowScanner) (*secondary.ApprovalRecord, error) {
	record := &secondary.ApprovalRecord{}
	var createdAt, updatedAt time.Time

	err := row.Scan(&record.ID, &record.WorkflowID, &record.UserID, &record.Status, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	record.CreatedAt = createdAt.Format(time.RFC3339)
	record.UpdatedAt = updatedAt.Format(time.RFC3339)

	return record, nil
}

// Ensure ApprovalRepository implements the interface
var _ secondary.ApprovalRepository = (*ApprovalRepository)(nil)
