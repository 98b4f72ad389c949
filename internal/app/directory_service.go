package app

import (
	"context"
	"strings"

	"github.com/example/exchange/internal/core/fault"
	"github.com/example/exchange/internal/ports/primary"
	"github.com/example/exchange/internal/ports/secondary"
)

// DirectoryService implements primary.DirectoryService.
type DirectoryService struct {
	users secondary.UserDirectory
}

// NewDirectoryService creates a new directory service.
func NewDirectoryService(users secondary.UserDirectory) *DirectoryService {
	return &DirectoryService{users: users}
}

// GetUser resolves a user id to display attributes.
func (s *DirectoryService) GetUser(ctx context.Context, userID string) (*primary.Participant, error) {
	record, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return userToDTO(record), nil
}

// ListUsers retrieves all participants.
func (s *DirectoryService) ListUsers(ctx context.Context) ([]*primary.Participant, error) {
	records, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	participants := make([]*primary.Participant, 0, len(records))
	for _, r := range records {
		participants = append(participants, userToDTO(r))
	}
	return participants, nil
}

// SeedUser registers a participant persona.
func (s *DirectoryService) SeedUser(ctx context.Context, req primary.SeedUserRequest) (*primary.Participant, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, fault.New(fault.Validation, "name is required")
	}
	if strings.TrimSpace(req.Email) == "" {
		return nil, fault.New(fault.Validation, "email is required")
	}
	role := req.Role
	if role == "" {
		role = "researcher"
	}

	id, err := s.users.GetNextID(ctx)
	if err != nil {
		return nil, err
	}
	record := &secondary.UserRecord{
		ID:       id,
		Name:     req.Name,
		Email:    req.Email,
		Role:     role,
		IsAgent:  req.IsAgent,
		IsActive: true,
	}
	if err := s.users.Create(ctx, record); err != nil {
		return nil, err
	}
	return userToDTO(record), nil
}

func userToDTO(r *secondary.UserRecord) *primary.Participant {
	return &primary.Participant{
		ID:      r.ID,
		Name:    r.Name,
		Role:    r.Role,
		IsAgent: r.IsAgent,
	}
}

// Ensure DirectoryService implements the interface
var _ primary.DirectoryService = (*DirectoryService)(nil)
