package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/example/exchange/internal/core/fault"
	"github.com/example/exchange/internal/ports/secondary"
)

// RequestRepository implements secondary.RequestRepository with SQLite.
// Capabilities are stored as a comma-separated list; NormalizeCapabilities
// in the core guarantees no entry contains a comma.
type RequestRepository struct {
	db *sql.DB
}

// NewRequestRepository creates a new SQLite request repository.
func NewRequestRepository(db *sql.DB) *RequestRepository {
	return &RequestRepository{db: db}
}

// Create persists a new marketplace request.
func (r *RequestRepository) Create(ctx context.Context, request *secondary.RequestRecord) error {
	if request.ID == "" {
		return fmt.Errorf("request ID must be pre-populated by service layer")
	}

	var parentWorkflowID sql.NullString
	if request.ParentWorkflowID != "" {
		parentWorkflowID = sql.NullString{String: request.ParentWorkflowID, Valid: true}
	}

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO work_requests (id, requester_id, title, description, capabilities, status, parent_workflow_id) VALUES (?, ?, ?, ?, ?, ?, ?)",
		request.ID, request.RequesterID, request.Title, request.Description,
		strings.Join(request.Capabilities, ","), request.Status, parentWorkflowID,
	)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	return nil
}

// GetByID retrieves a request by its ID.
func (r *RequestRepository) GetByID(ctx context.Context, id string) (*secondary.RequestRecord, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT id, requester_id, title, description, capabilities, status, parent_workflow_id, created_at FROM work_requests WHERE id = ?",
		id,
	)

	record, err := scanRequest(row)
	if err == sql.ErrNoRows {
		return nil, fault.New(fault.NotFound, "request %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get request: %w", err)
	}

	return record, nil
}

// List retrieves requests matching the given filters.
func (r *RequestRepository) List(ctx context.Context, filters secondary.RequestFilters) ([]*secondary.RequestRecord, error) {
	query := "SELECT id, requester_id, title, description, capabilities, status, parent_workflow_id, created_at FROM work_requests"
	args := []any{}

	var clauses []string
	if filters.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, filters.Status)
	}
	if filters.RequesterID != "" {
		clauses = append(clauses, "requester_id = ?")
		args = append(args, filters.RequesterID)
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	defer rows.Close()

	var requests []*secondary.RequestRecord
	for rows.Next() {
		record, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan request: %w", err)
		}
		requests = append(requests, record)
	}

	return requests, nil
}

// UpdateStatus updates the request status.
func (r *RequestRepository) UpdateStatus(ctx context.Context, id, status string) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE work_requests SET status = ? WHERE id = ?",
		status, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update request status: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fault.New(fault.NotFound, "request %s not found", id)
	}

	return nil
}

// GetNextID returns the next available request ID.
func (r *RequestRepository) GetNextID(ctx context.Context) (string, error) {
	var maxID int
	err := r.db.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(CAST(SUBSTR(id, 5) AS INTEGER)), 0) FROM work_requests",
	).Scan(&maxID)
	if err != nil {
		return "", fmt.Errorf("failed to get next request ID: %w", err)
	}

	return fmt.Sprintf("REQ-%03d", maxID+1), nil
}

func scanRequest(row rowScanner) (*secondary.RequestRecord, error) {
	record := &secondary.RequestRecord{}
	var (
		capabilities     string
		parentWorkflowID sql.NullString
		createdAt        time.Time
	)

	err := row.Scan(&record.ID, &record.RequesterID, &record.Title, &record.Description,
		&capabilities, &record.Status, &parentWorkflowID, &createdAt)
	if err != nil {
		return nil, err
	}

	if capabilities != "" {
		record.Capabilities = strings.Split(capabilities, ",")
	}
	record.ParentWorkflowID = parentWorkflowID.String
	record.CreatedAt = createdAt.Format(time.RFC3339)

	return record, nil
}

// Ensure RequestRepository implements the interface
var _ secondary.RequestRepository = (*RequestRepository)(nil)
