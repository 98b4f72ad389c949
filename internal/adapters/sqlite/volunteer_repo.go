package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/exchange/internal/core/fault"
	"github.com/example/exchange/internal/ports/secondary"
)

// VolunteerRepository implements secondary.VolunteerRepository with SQLite.
type VolunteerRepository struct {
	db *sql.DB
}

// NewVolunteerRepository creates a new SQLite volunteer repository.
func NewVolunteerRepository(db *sql.DB) *VolunteerRepository {
	return &VolunteerRepository{db: db}
}

// Create persists a new volunteer entry.
func (r *VolunteerRepository) Create(ctx context.Context, volunteer *secondary.VolunteerRecord) error {
	if volunteer.ID == "" {
		return fmt.Errorf("volunteer ID must be pre-populated by service layer")
	}

	var note sql.NullString
	if volunteer.Note != "" {
		note = sql.NullString{String: volunteer.Note, Valid: true}
	}

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO volunteers (id, request_id, user_id, note, origin, status) VALUES (?, ?, ?, ?, ?, ?)",
		volunteer.ID, volunteer.RequestID, volunteer.UserID, note, volunteer.Origin, volunteer.Status,
	)
	if err != nil {
		return fmt.Errorf("failed to create volunteer: %w", err)
	}

	return nil
}

// GetByID retrieves a volunteer entry by its ID.
func (r *VolunteerRepository) GetByID(ctx context.Context, id string) (*secondary.VolunteerRecord, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT id, request_id, user_id, note, origin, status, created_at FROM volunteers WHERE id = ?",
		id,
	)

	record, err := scanVolunteer(row)
	if err == sql.ErrNoRows {
		return nil, fault.New(fault.NotFound, "volunteer %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get volunteer: %w", err)
	}

	return record, nil
}

// ListByRequest retrieves all volunteer entries for a request.
func (r *VolunteerRepository) ListByRequest(ctx context.Context, requestID string) ([]*secondary.VolunteerRecord, error) {
	return r.list(ctx, "request_id", requestID)
}

// ListByUser retrieves a user's volunteer entries across requests.
func (r *VolunteerRepository) ListByUser(ctx context.Context, userID string) ([]*secondary.VolunteerRecord, error) {
	return r.list(ctx, "user_id", userID)
}

func (r *VolunteerRepository) list(ctx context.Context, column, value string) ([]*secondary.VolunteerRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		fmt.Sprintf("SELECT id, request_id, user_id, note, origin, status, created_at FROM volunteers WHERE %s = ? ORDER BY created_at ASC", column),
		value,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list volunteers: %w", err)
	}
	defer rows.Close()

	var volunteers []*secondary.VolunteerRecord
	for rows.Next() {
		record, err := scanVolunteer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan volunteer: %w", err)
		}
		volunteers = append(volunteers, record)
	}

	return volunteers, nil
}

// UpdateStatus updates a volunteer entry's status.
func (r *VolunteerRepository) UpdateStatus(ctx context.Context, id, status string) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE volunteers SET status = ? WHERE id = ?",
		status, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update volunteer status: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fault.New(fault.NotFound, "volunteer %s not found", id)
	}

	return nil
}

// GetNextID returns the next available volunteer ID.
func (r *VolunteerRepository) GetNextID(ctx context.Context) (string, error) {
	var maxID int
	err := r.db.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(CAST(SUBSTR(id, 5) AS INTEGER)), 0) FROM volunteers",
	).Scan(&maxID)
	if err != nil {
		return "", fmt.Errorf("failed to get next volunteer ID: %w", err)
	}

	return fmt.Sprintf("VOL-%03d", maxID+1), nil
}

func scanVolunteer(row rowScanner) (*secondary.VolunteerRecord, error) {
	record := &secondary.VolunteerRecord{}
	var (
		note      sql.NullString
		createdAt time.Time
	)

	err := row.Scan(&record.ID, &record.RequestID, &record.UserID, &note, &record.Origin, &record.Status, &createdAt)
	if err != nil {
		return nil, err
	}

	record.Note = note.String
	record.CreatedAt = createdAt.Format(time.RFC3339)

	return record, nil
}

// Ensure VolunteerRepository implements the interface
var _ secondary.VolunteerRepository = (*VolunteerRepository)(nil)
