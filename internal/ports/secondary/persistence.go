// Package secondary defines the secondary ports (driven adapters) for the
// application. These are the interfaces through which the application drives
// external systems.
package secondary

import "context"

// WorkflowRepository defines the secondary port for workflow persistence.
type WorkflowRepository interface {
	// Create persists a new workflow.
	Create(ctx context.Context, workflow *WorkflowRecord) error

	// GetByID retrieves a workflow by its ID.
	GetByID(ctx context.Context, id string) (*WorkflowRecord, error)

	// List retrieves workflows matching the given filters.
	List(ctx context.Context, filters WorkflowFilters) ([]*WorkflowRecord, error)

	// UpdateStatus updates the workflow status.
	UpdateStatus(ctx context.Context, id, status string) error

	// UpdateRunID records the identifier of the currently active run.
	// Collaborator callbacks carrying any other run id are stale.
	UpdateRunID(ctx context.Context, id, runID string) error

	// Exists checks whether a workflow exists.
	Exists(ctx context.Context, id string) (bool, error)

	// GetNextID returns the next available workflow ID.
	GetNextID(ctx context.Context) (string, error)
}

// WorkflowRecord represents a workflow as stored in persistence.
type WorkflowRecord struct {
	ID           string
	OwnerID      string
	Title        string
	WorkflowType string
	Status       string
	RunID        string // Empty string means no active run
	ParentID     string // Empty string means null - parent workflow for sub-tasks
	RequestID    string // Empty string means null - the marketplace request this workflow fulfils
	CreatedAt    string
	UpdatedAt    string
}

// WorkflowFilters contains filter options for querying workflows.
type WorkflowFilters struct {
	OwnerID string
	Status  string
	Limit   int
}

// StepRepository defines the secondary port for pipeline step persistence.
type StepRepository interface {
	// Create persists a new step.
	Create(ctx context.Context, step *StepRecord) error

	// GetByID retrieves a step by its ID.
	GetByID(ctx context.Context, id string) (*StepRecord, error)

	// ListByWorkflow retrieves a workflow's steps in pipeline order.
	ListByWorkflow(ctx context.Context, workflowID string) ([]*StepRecord, error)

	// Update updates a step's mutable fields: status, assignment, payloads,
	// feedback, and iteration count.
	Update(ctx context.Context, step *StepRecord) error

	// NextOrder returns the next free step_order for a workflow.
	NextOrder(ctx context.Context, workflowID string) (int, error)
}

// StepRecord represents a pipeline step as stored in persistence.
type StepRecord struct {
	ID             string
	WorkflowID     string
	StepOrder      int
	StepType       string
	ProviderType   string
	Status         string
	AssignedTo     string // Empty string means null - user reference
	InputData      string // JSON payload, empty string means null
	OutputData     string // JSON payload, empty string means null
	Feedback       string // Empty string means null
	IterationCount int
	CreatedAt      string
	UpdatedAt      string
}

// EventRepository defines the secondary port for the append-only audit log.
type EventRepository interface {
	// Append persists a new event. Events are immutable once written.
	Append(ctx context.Context, event *EventRecord) error

	// ListByWorkflow retrieves a workflow's events. Chronological order is
	// created_at then insertion sequence; the reverse is the viewer order.
	ListByWorkflow(ctx context.Context, workflowID string, chronological bool) ([]*EventRecord, error)

	// ListSince retrieves events with a sequence greater than afterSeq,
	// in chronological order. Backs the polling read path.
	ListSince(ctx context.Context, workflowID string, afterSeq int64) ([]*EventRecord, error)
}

// EventRecord represents an audit event as stored in persistence.
type EventRecord struct {
	Seq        int64 // Insertion sequence, assigned by the store
	ID         string
	WorkflowID string
	StepID     string // Empty string means null
	EventType  string
	ActorID    string // Empty string means null - system/agent events
	ActorType  string
	Channel    string // Empty string means null - origin of the action
	Message    string
	CreatedAt  string
}

// MessageRepository defines the secondary port for collaboration chat turns.
type MessageRepository interface {
	// Create persists a new message.
	Create(ctx context.Context, message *MessageRecord) error

	// ListByWorkflow retrieves a workflow's messages in chronological order.
	ListByWorkflow(ctx context.Context, workflowID string) ([]*MessageRecord, error)

	// GetNextID returns the next available message ID for a workflow.
	GetNextID(ctx context.Context, workflowID string) (string, error)
}

// MessageRecord represents a chat message as stored in persistence.
type MessageRecord struct {
	ID         string
	WorkflowID string
	SenderID   string // Empty string means null - system messages
	SenderType string
	Channel    string
	Body       string
	CreatedAt  string
}

// ApprovalRepository defines the secondary port for completion-consensus votes.
type ApprovalRepository interface {
	// Upsert creates or updates a participant's approval row. At most one
	// row exists per workflow and user.
	Upsert(ctx context.Context, workflowID, userID, status string) error

	// ListByWorkflow retrieves all approval rows for a workflow.
	ListByWorkflow(ctx context.Context, workflowID string) ([]*ApprovalRecord, error)

	// GetByUser retrieves one participant's approval row.
	GetByUser(ctx context.Context, workflowID, userID string) (*ApprovalRecord, error)
}

// ApprovalRecord represents a completion-consensus vote as stored in
// persistence.
type ApprovalRecord struct {
	ID         string
	WorkflowID string
	UserID     string
	Status     string
	CreatedAt  string
	UpdatedAt  string
}

// RequestRepository defines the secondary port for marketplace requests.
type RequestRepository interface {
	// Create persists a new marketplace request.
	Create(ctx context.Context, request *RequestRecord) error

	// GetByID retrieves a request by its ID.
	GetByID(ctx context.Context, id string) (*RequestRecord, error)

	// List retrieves requests matching the given filters.
	List(ctx context.Context, filters RequestFilters) ([]*RequestRecord, error)

	// UpdateStatus updates the request status.
	UpdateStatus(ctx context.Context, id, status string) error

	// GetNextID returns the next available request ID.
	GetNextID(ctx context.Context) (string, error)
}

// RequestRecord represents a marketplace request as stored in persistence.
type RequestRecord struct {
	ID               string
	RequesterID      string
	Title            string
	Description      string
	Capabilities     []string
	Status           string
	ParentWorkflowID string // Empty string means null - recursive sub-tasks
	CreatedAt        string
}

// RequestFilters contains filter options for querying marketplace requests.
type RequestFilters struct {
	Status      string
	RequesterID string
}

// VolunteerRepository defines the secondary port for volunteer entries.
type VolunteerRepository interface {
	// Create persists a new volunteer entry.
	Create(ctx context.Context, volunteer *VolunteerRecord) error

	// GetByID retrieves a volunteer entry by its ID.
	GetByID(ctx context.Context, id string) (*VolunteerRecord, error)

	// ListByRequest retrieves all volunteer entries for a request.
	ListByRequest(ctx context.Context, requestID string) ([]*VolunteerRecord, error)

	// ListByUser retrieves a user's volunteer entries across requests.
	ListByUser(ctx context.Context, userID string) ([]*VolunteerRecord, error)

	// UpdateStatus updates a volunteer entry's status.
	UpdateStatus(ctx context.Context, id, status string) error

	// GetNextID returns the next available volunteer ID.
	GetNextID(ctx context.Context) (string, error)
}

// VolunteerRecord represents a volunteer entry as stored in persistence.
type VolunteerRecord struct {
	ID        string
	RequestID string
	UserID    string
	Note      string
	Origin    string // volunteered | invited
	Status    string
	CreatedAt string
}

// UserDirectory defines the secondary port for participant resolution.
// Read-only from the core's point of view; Create exists for seeding.
type UserDirectory interface {
	// GetByID resolves a user id to its display attributes.
	GetByID(ctx context.Context, id string) (*UserRecord, error)

	// List retrieves all users.
	List(ctx context.Context) ([]*UserRecord, error)

	// Create persists a new user persona (seeding only).
	Create(ctx context.Context, user *UserRecord) error

	// GetNextID returns the next available user ID.
	GetNextID(ctx context.Context) (string, error)
}

// UserRecord represents a participant as stored in persistence.
type UserRecord struct {
	ID        string
	Name      string
	Email     string
	Role      string
	IsAgent   bool
	IsActive  bool
	CreatedAt string
}
