package primary

import "context"

// MarketplaceService is the primary port for the marketplace handshake.
type MarketplaceService interface {
	// PostRequest creates an open marketplace request.
	PostRequest(ctx context.Context, req PostRequestRequest) (*PostRequestResponse, error)

	// GetRequest retrieves a request with its volunteer entries.
	GetRequest(ctx context.Context, requestID string) (*RequestDetail, error)

	// ListRequests lists marketplace requests with optional filters.
	ListRequests(ctx context.Context, filters RequestFilters) ([]*MarketplaceRequest, error)

	// Volunteer appends an organic volunteer offer to an open request.
	Volunteer(ctx context.Context, req VolunteerRequest) (*VolunteerResponse, error)

	// Invite appends a requester-issued direct invite to an open request.
	Invite(ctx context.Context, req InviteRequest) (*VolunteerResponse, error)

	// Accept completes the handshake: marks the chosen volunteer accepted,
	// transitions the request to matched, and materializes a workflow bound
	// to the requester and the accepted collaborator.
	Accept(ctx context.Context, req AcceptRequest) (*AcceptResponse, error)
}

// MarketplaceRequest is the primary-port view of a posted need.
type MarketplaceRequest struct {
	ID               string
	RequesterID      string
	Title            string
	Description      string
	Capabilities     []string
	Status           string
	ParentWorkflowID string
	CreatedAt        string
}

// Volunteer is the primary-port view of a candidate response.
type Volunteer struct {
	ID        string
	RequestID string
	UserID    string
	Note      string
	Origin    string
	Status    string
	CreatedAt string
}

// RequestDetail is a request together with its volunteer entries.
type RequestDetail struct {
	Request    MarketplaceRequest
	Volunteers []*Volunteer
}

// RequestFilters contains filter options for listing requests.
type RequestFilters struct {
	Status      string
	RequesterID string
}

// PostRequestRequest contains the input for posting a request.
type PostRequestRequest struct {
	RequesterID      string
	Title            string
	Description      string
	Capabilities     []string
	ParentWorkflowID string
}

// PostRequestResponse is the result of posting a request.
type PostRequestResponse struct {
	RequestID string
	Request   *MarketplaceRequest
}

// VolunteerRequest contains the input for an organic volunteer offer.
type VolunteerRequest struct {
	RequestID string
	UserID    string
	Note      string
}

// InviteRequest contains the input for a direct invite.
type InviteRequest struct {
	RequestID     string
	ActorID       string
	InvitedUserID string
	Note          string
}

// VolunteerResponse is the result of a volunteer or invite.
type VolunteerResponse struct {
	VolunteerID string
	Volunteer   *Volunteer
}

// AcceptRequest contains the input for accepting a volunteer.
type AcceptRequest struct {
	RequestID   string
	VolunteerID string
	ActorID     string
}

// AcceptResponse is the result of a completed handshake.
type AcceptResponse struct {
	WorkflowID   string
	WorkflowType string
}
