package primary

import "context"

// DirectoryService is the primary port for participant lookup. The core only
// ever reads the directory; SeedUser exists for bootstrap tooling.
type DirectoryService interface {
	// GetUser resolves a user id to display attributes.
	GetUser(ctx context.Context, userID string) (*Participant, error)

	// ListUsers retrieves all participants.
	ListUsers(ctx context.Context) ([]*Participant, error)

	// SeedUser registers a participant persona.
	SeedUser(ctx context.Context, req SeedUserRequest) (*Participant, error)
}

// SeedUserRequest contains the input for registering a persona.
type SeedUserRequest struct {
	Name    string
	Email   string
	Role    string
	IsAgent bool
}
