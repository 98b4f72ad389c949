// Package primary defines the primary ports (driving adapters) for the
// application: the service interfaces the CLI and other front ends consume,
// and their request/response types.
package primary

import "context"

// WorkflowService is the primary port for workflow lifecycle operations.
type WorkflowService interface {
	// CreateWorkflow creates a direct workflow with its pipeline template
	// instantiated. Marketplace-originated workflows are created by the
	// MarketplaceService accept operation instead.
	CreateWorkflow(ctx context.Context, req CreateWorkflowRequest) (*CreateWorkflowResponse, error)

	// GetWorkflow retrieves a workflow with its steps, approvals, and
	// participants.
	GetWorkflow(ctx context.Context, workflowID string) (*WorkflowDetail, error)

	// ListWorkflows lists workflows with optional filters.
	ListWorkflows(ctx context.Context, filters WorkflowFilters) ([]*Workflow, error)

	// StartResearch escalates a pending or collaborating workflow into the
	// automated research stage and dispatches the research collaborator.
	StartResearch(ctx context.Context, req StartResearchRequest) error

	// SubmitReview applies a reviewer's approve or refine decision.
	SubmitReview(ctx context.Context, req ReviewRequest) error

	// CancelRun cancels an in-flight research/refinement/generation run.
	CancelRun(ctx context.Context, req RunActionRequest) error

	// RetryRun retries a failed run from its resume point.
	RetryRun(ctx context.Context, req RunActionRequest) error

	// RetryGeneration retries only a failed generation step.
	RetryGeneration(ctx context.Context, req RunActionRequest) error

	// MarkReady records the actor's completion-consensus vote.
	MarkReady(ctx context.Context, req CompletionRequest) error

	// Reopen resets the actor's own completion-consensus vote.
	Reopen(ctx context.Context, req CompletionRequest) error

	// PostMessage appends a chat turn to the workflow's channel.
	PostMessage(ctx context.Context, req PostMessageRequest) (*Message, error)

	// ListMessages retrieves the workflow's chat in chronological order.
	ListMessages(ctx context.Context, workflowID string) ([]*Message, error)

	// Timeline returns audit events after the given sequence marker, plus
	// the current status, for polling viewers.
	Timeline(ctx context.Context, req TimelineRequest) (*TimelineResponse, error)
}

// Workflow is the primary-port view of one collaborative unit.
type Workflow struct {
	ID           string
	OwnerID      string
	Title        string
	WorkflowType string
	Status       string
	ParentID     string
	RequestID    string
	CreatedAt    string
	UpdatedAt    string
}

// Step is the primary-port view of one pipeline step.
type Step struct {
	ID             string
	WorkflowID     string
	StepOrder      int
	StepType       string
	ProviderType   string
	Status         string
	AssignedTo     string
	InputData      string
	OutputData     string
	Feedback       string
	IterationCount int
	CreatedAt      string
	UpdatedAt      string
}

// Approval is the primary-port view of a completion-consensus vote.
type Approval struct {
	UserID    string
	Status    string
	UpdatedAt string
}

// Message is the primary-port view of one chat turn.
type Message struct {
	ID         string
	WorkflowID string
	SenderID   string
	SenderType string
	Channel    string
	Body       string
	CreatedAt  string
}

// Event is the primary-port view of one audit record.
type Event struct {
	Seq       int64
	ID        string
	EventType string
	ActorID   string
	ActorType string
	Channel   string
	Message   string
	CreatedAt string
}

// Participant is the primary-port view of a directory entry.
type Participant struct {
	ID      string
	Name    string
	Role    string
	IsAgent bool
}

// WorkflowDetail is a workflow together with its dependent rows, assembled
// for a single read. Viewers poll this plus Timeline.
type WorkflowDetail struct {
	Workflow     Workflow
	Steps        []*Step
	Approvals    []*Approval
	Participants []*Participant
}

// WorkflowFilters contains filter options for listing workflows.
type WorkflowFilters struct {
	OwnerID string
	Status  string
	Limit   int
}

// CreateWorkflowRequest contains the input for creating a direct workflow.
type CreateWorkflowRequest struct {
	OwnerID      string
	Title        string
	WorkflowType string
	Topic        string
}

// CreateWorkflowResponse is the result of creating a workflow.
type CreateWorkflowResponse struct {
	WorkflowID string
	Workflow   *Workflow
}

// StartResearchRequest contains the input for starting agent research.
type StartResearchRequest struct {
	WorkflowID string
	ActorID    string
	Channel    string
}

// ReviewAction is the reviewer's decision.
type ReviewAction string

const (
	ReviewApprove ReviewAction = "approve"
	ReviewRefine  ReviewAction = "refine"
)

// ReviewRequest contains the input for a review submission.
type ReviewRequest struct {
	WorkflowID string
	ActorID    string
	Action     ReviewAction
	Feedback   string
	Channel    string
}

// RunActionRequest contains the input for cancel/retry run operations.
type RunActionRequest struct {
	WorkflowID string
	ActorID    string
	Reason     string
	Channel    string
}

// CompletionRequest contains the input for consensus gate actions.
type CompletionRequest struct {
	WorkflowID string
	ActorID    string
	Channel    string
}

// PostMessageRequest contains the input for posting a chat turn.
type PostMessageRequest struct {
	WorkflowID string
	SenderID   string
	SenderType string
	Channel    string
	Body       string
}

// TimelineRequest contains the input for the polling read path.
type TimelineRequest struct {
	WorkflowID string
	AfterSeq   int64
}

// TimelineResponse carries new events plus the status snapshot they lead to.
type TimelineResponse struct {
	WorkflowID string
	Status     string
	Events     []*Event
}
