package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/exchange/internal/core/fault"
	"github.com/example/exchange/internal/ports/secondary"
)

// UserRepository implements secondary.UserDirectory with SQLite.
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new SQLite user repository.
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetByID resolves a user id to its display attributes.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*secondary.UserRecord, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT id, name, email, role, is_agent, is_active, created_at FROM users WHERE id = ?",
		id,
	)

	record, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, fault.New(fault.NotFound, "user %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return record, nil
}

// List retrieves all users.
func (r *UserRepository) List(ctx context.Context) ([]*secondary.UserRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, name, email, role, is_agent, is_active, created_at FROM users ORDER BY id ASC",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*secondary.UserRecord
	for rows.Next() {
		record, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, record)
	}

	return users, nil
}

// Create persists a new user persona.
func (r *UserRepository) Create(ctx context.Context, user *secondary.UserRecord) error {
	if user.ID == "" {
		return fmt.Errorf("user ID must be pre-populated by service layer")
	}

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO users (id, name, email, role, is_agent, is_active) VALUES (?, ?, ?, ?, ?, ?)",
		user.ID, user.Name, user.Email, user.Role, user.IsAgent, user.IsActive,
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetNextID returns the next available user ID.
func (r *UserRepository) GetNextID(ctx context.Context) (string, error) {
	var maxID int
	err := r.db.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(CAST(SUBSTR(id, 5) AS INTEGER)), 0) FROM users",
	).Scan(&maxID)
	if err != nil {
		return "", fmt.Errorf("failed to get next user ID: %w", err)
	}

	return fmt.Sprintf("USR-%03d", maxID+1), nil
}

func scanUser(row rowScanner) (*secondary.UserRecord, error) {
	record := &secondary.UserRecord{}
	var createdAt time.Time

	err := row.Scan(&record.ID, &record.Name, &record.Email, &record.Role, &record.IsAgent, &record.IsActive, &createdAt)
	if err != nil {
		return nil, err
	}

	record.CreatedAt = createdAt.Format(time.RFC3339)

	return record, nil
}

// Ensure UserRepository implements the interface
var _ secondary.UserDirectory = (*UserRepository)(nil)
