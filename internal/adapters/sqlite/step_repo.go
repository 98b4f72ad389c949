package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/exchange/internal/core/fault"
	"github.com/example/exchange/internal/ports/secondary"
)

// StepRepository implements secondary.StepRepository with SQLite.
type StepRepository struct {
	db *sql.DB
}

// NewStepRepository creates a new SQLite step repository.
func NewStepRepository(db *sql.DB) *StepRepository {
	return &StepRepository{db: db}
}

// Create persists a new step.
func (r *StepRepository) Create(ctx context.Context, step *secondary.StepRecord) error {
	if step.ID == "" {
		return fmt.Errorf("step ID must be pre-populated by service layer")
	}

	var assignedTo, inputData, outputData, feedback sql.NullString
	if step.AssignedTo != "" {
		assignedTo = sql.NullString{String: step.AssignedTo, Valid: true}
	}
	if step.InputData != "" {
		inputData = sql.NullString{String: step.InputData, Valid: true}
	}
	if step.OutputData != "" {
		outputData = sql.NullString{String: step.OutputData, Valid: true}
	}
	if step.Feedback != "" {
		feedback = sql.NullString{String: step.Feedback, Valid: true}
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO workflow_steps (id, workflow_id, step_order, step_type, provider_type, status, assigned_to, input_data, output_data, feedback, iteration_count) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		step.ID, step.WorkflowID, step.StepOrder, step.StepType, step.ProviderType, step.Status,
		assignedTo, inputData, outputData, feedback, step.IterationCount,
	)
	if err != nil {
		return fmt.Errorf("failed to create step: %w", err)
	}

	return nil
}

// GetByID retrieves a step by its ID.
func (r *StepRepository) GetByID(ctx context.Context, id string) (*secondary.StepRecord, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT id, workflow_id, step_order, step_type, provider_type, status, assigned_to, input_data, output_data, feedback, iteration_count, created_at, updated_at FROM workflow_steps WHERE id = ?",
		id,
	)

	record, err := scanStep(row)
	if err == sql.ErrNoRows {
		return nil, fault.New(fault.NotFound, "step %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get step: %w", err)
	}

	return record, nil
}

// ListByWorkflow retrieves a workflow's steps in pipeline order.
func (r *StepRepository) ListByWorkflow(ctx context.Context, workflowID string) ([]*secondary.StepRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, workflow_id, step_order, step_type, provider_type, status, assigned_to, input_data, output_data, feedback, iteration_count, created_at, updated_at FROM workflow_steps WHERE workflow_id = ? ORDER BY step_order ASC",
		workflowID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list steps: %w", err)
	}
	defer rows.Close()

	var steps []*secondary.StepRecord
	for rows.Next() {
		record, err := scanStep(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan step: %w", err)
		}
		steps = append(steps, record)
	}

	return steps, nil
}

// Update updates a step's mutable fields.
func (r *StepRepository) Update(ctx context.Context, step *secondary.StepRecord) error {
	var assignedTo, inputData, outputData, feedback sql.NullString
	if step.AssignedTo != "" {
		assignedTo = sql.NullString{String: step.AssignedTo, Valid: true}
	}
	if step.InputData != "" {
		inputData = sql.NullString{String: step.InputData, Valid: true}
	}
	if step.OutputData != "" {
		outputData = sql.NullString{String: step.OutputData, Valid: true}
	}
	if step.Feedback != "" {
		feedback = sql.NullString{String: step.Feedback, Valid: true}
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE workflow_steps SET status = ?, assigned_to = ?, input_data = ?, output_data = ?, feedback = ?, iteration_count = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		step.Status, assignedTo, inputData, outputData, feedback, step.IterationCount, step.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update step: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fault.New(fault.NotFound, "step %s not found", step.ID)
	}

	return nil
}

// NextOrder returns the next free step_order for a workflow.
func (r *StepRepository) NextOrder(ctx context.Context, workflowID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM workflow_steps WHERE workflow_id = ?",
		workflowID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get next step order: %w", err)
	}

	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStep(row rowScanner) (*secondary.StepRecord, error) {
	record := &secondary.StepRecord{}
	var (
		assignedTo sql.NullString
		inputData  sql.NullString
		outputData sql.NullString
		feedback   sql.NullString
		createdAt  time.Time
		updatedAt  time.Time
	)

	err := row.Scan(&record.ID, &record.WorkflowID, &record.StepOrder, &record.StepType, &record.ProviderType,
		&record.Status, &assignedTo, &inputData, &outputData, &feedback, &record.IterationCount, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	record.AssignedTo = assignedTo.String
	record.InputData = inputData.String
	record.OutputData = outputData.String
	record.Feedback = feedback.String
	record.CreatedAt = createdAt.Format(time.RFC3339)
	record.UpdatedAt = updatedAt.Format(time.RFC3339)

	return record, nil
}

// Ensure StepRepository implements the interface
var _ secondary.StepRepository = (*StepRepository)(nil)
