package app

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/example/exchange/internal/core/consensus"
	"github.com/example/exchange/internal/core/fault"
	"github.com/example/exchange/internal/core/marketplace"
	"github.com/example/exchange/internal/core/pipeline"
	"github.com/example/exchange/internal/core/workflow"
	"github.com/example/exchange/internal/ports/primary"
	"github.com/example/exchange/internal/ports/secondary"
)

// WorkflowService implements primary.WorkflowService.
type WorkflowService struct {
	workflows  secondary.WorkflowRepository
	steps      secondary.StepRepository
	events     secondary.EventRepository
	messages   secondary.MessageRepository
	approvals  secondary.ApprovalRepository
	requests   secondary.RequestRepository
	users      secondary.UserDirectory
	research   secondary.ResearchCollaborator
	generation secondary.GenerationCollaborator

	runs   *RunManager
	rec    *recorder
	logger *zap.Logger
}

// NewWorkflowService creates a new workflow service.
func NewWorkflowService(
	workflows secondary.WorkflowRepository,
	steps secondary.StepRepository,
	events secondary.EventRepository,
	messages secondary.MessageRepository,
	approvals secondary.ApprovalRepository,
	requests secondary.RequestRepository,
	users secondary.UserDirectory,
	research secondary.ResearchCollaborator,
	generation secondary.GenerationCollaborator,
	runs *RunManager,
	logger *zap.Logger,
) *WorkflowService {
	return &WorkflowService{
		workflows:  workflows,
		steps:      steps,
		events:     events,
		messages:   messages,
		approvals:  approvals,
		requests:   requests,
		users:      users,
		research:   research,
		generation: generation,
		runs:       runs,
		rec:        &recorder{workflows: workflows, events: events},
		logger:     logger,
	}
}

// stepInput is the JSON payload stored in a step's input_data column.
type stepInput struct {
	Topic            string `json:"topic,omitempty"`
	Context          string `json:"context,omitempty"`
	RequiresResearch bool   `json:"requires_research,omitempty"`
}

// researchPayload is the JSON payload stored in a research step's output_data.
type researchPayload struct {
	Summary      string `json:"summary"`
	SlideOutline string `json:"slide_outline"`
	RawResearch  string `json:"raw_research"`
	Iteration    int    `json:"iteration"`
}

// generationPayload is the JSON payload stored in a generation step's
// output_data.
type generationPayload struct {
	ArtifactName string `json:"artifact_name"`
	ArtifactSize int64  `json:"artifact_size"`
}

// CreateWorkflow creates a direct workflow with its pipeline template
// instantiated.
func (s *WorkflowService) CreateWorkflow(ctx context.Context, req primary.CreateWorkflowRequest) (*primary.CreateWorkflowResponse, error) {
	// 1. Validate input
	if strings.TrimSpace(req.Title) == "" {
		return nil, fault.New(fault.Validation, "title is required")
	}
	if _, err := s.users.GetByID(ctx, req.OwnerID); err != nil {
		return nil, err
	}
	wfType := pipeline.WorkflowType(req.WorkflowType)
	if wfType == "" {
		wfType = pipeline.TypePPTGeneration
	}

	// 2. Create the workflow
	id, err := s.workflows.GetNextID(ctx)
	if err != nil {
		return nil, err
	}
	record := &secondary.WorkflowRecord{
		ID:           id,
		OwnerID:      req.OwnerID,
		Title:        req.Title,
		WorkflowType: string(wfType),
		Status:       string(workflow.InitialStatus(false)),
	}
	if err := s.workflows.Create(ctx, record); err != nil {
		return nil, err
	}

	// 3. Instantiate the template
	topic := req.Topic
	if topic == "" {
		topic = req.Title
	}
	for _, spec := range pipeline.Template(wfType) {
		step := &secondary.StepRecord{
			ID:           stepID(id, spec.Order),
			WorkflowID:   id,
			StepOrder:    spec.Order,
			StepType:     string(spec.Type),
			ProviderType: string(spec.Provider),
			Status:       string(pipeline.StepPending),
		}
		if spec.Order == 0 {
			input, _ := json.Marshal(stepInput{Topic: topic})
			step.InputData = string(input)
		}
		if err := s.steps.Create(ctx, step); err != nil {
			return nil, err
		}
	}

	// 4. Record the creation event
	if err := s.rec.record(ctx, id, workflow.EventCreated, eventInput{
		ActorID: req.OwnerID,
		Actor:   workflow.ActorHuman,
		Message: "workflow created: " + req.Title,
	}); err != nil {
		return nil, err
	}

	s.logger.Info("workflow created",
		zap.String("workflow_id", id),
		zap.String("workflow_type", string(wfType)))

	wf := workflowToDTO(record)
	return &primary.CreateWorkflowResponse{WorkflowID: id, Workflow: wf}, nil
}

// GetWorkflow retrieves a workflow with its dependent rows.
func (s *WorkflowService) GetWorkflow(ctx context.Context, workflowID string) (*primary.WorkflowDetail, error) {
	record, err := s.workflows.GetByID(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	steps, err := s.steps.ListByWorkflow(ctx, workflowID)
	if err != nil {
		return nil, err
	}
	approvals, err := s.approvals.ListByWorkflow(ctx, workflowID)
	if err != nil {
		return nil, err
	}
	participants, err := s.participants(ctx, record, steps)
	if err != nil {
		return nil, err
	}

	detail := &primary.WorkflowDetail{Workflow: *workflowToDTO(record)}
	for _, step := range steps {
		detail.Steps = append(detail.Steps, stepToDTO(step))
	}
	for _, a := range approvals {
		detail.Approvals = append(detail.Approvals, &primary.Approval{
			UserID:    a.UserID,
			Status:    a.Status,
			UpdatedAt: a.UpdatedAt,
		})
	}
	for _, p := range participants {
		detail.Participants = append(detail.Participants, &primary.Participant{
			ID:      p.ID,
			Name:    p.Name,
			Role:    p.Role,
			IsAgent: p.IsAgent,
		})
	}
	return detail, nil
}

// ListWorkflows lists workflows with optional filters.
func (s *WorkflowService) ListWorkflows(ctx context.Context, filters primary.WorkflowFilters) ([]*primary.Workflow, error) {
	records, err := s.workflows.List(ctx, secondary.WorkflowFilters{
		OwnerID: filters.OwnerID,
		Status:  filters.Status,
		Limit:   filters.Limit,
	})
	if err != nil {
		return nil, err
	}

	workflows := make([]*primary.Workflow, 0, len(records))
	for _, r := range records {
		workflows = append(workflows, workflowToDTO(r))
	}
	return workflows, nil
}

// PostMessage appends a chat turn. Messages are communicative only; they
// never drive lifecycle transitions.
func (s *WorkflowService) PostMessage(ctx context.Context, req primary.PostMessageRequest) (*primary.Message, error) {
	if strings.TrimSpace(req.Body) == "" {
		return nil, fault.New(fault.Validation, "message body is required")
	}
	if _, err := s.workflows.GetByID(ctx, req.WorkflowID); err != nil {
		return nil, err
	}
	senderType := req.SenderType
	if senderType == "" {
		senderType = string(workflow.ActorHuman)
	}
	if req.SenderID != "" {
		if _, err := s.users.GetByID(ctx, req.SenderID); err != nil {
			return nil, err
		}
	} else if senderType != string(workflow.ActorSystem) {
		return nil, fault.New(fault.Validation, "sender is required for non-system messages")
	}

	unlock := s.runs.Lock(req.WorkflowID)
	defer unlock()

	id, err := s.messages.GetNextID(ctx, req.WorkflowID)
	if err != nil {
		return nil, err
	}
	channel := req.Channel
	if channel == "" {
		channel = "web"
	}
	record := &secondary.MessageRecord{
		ID:         id,
		WorkflowID: req.WorkflowID,
		SenderID:   req.SenderID,
		SenderType: senderType,
		Channel:    channel,
		Body:       req.Body,
	}
	if err := s.messages.Create(ctx, record); err != nil {
		return nil, err
	}

	if err := s.rec.record(ctx, req.WorkflowID, workflow.EventMessagePosted, eventInput{
		ActorID: req.SenderID,
		Actor:   workflow.ActorType(senderType),
		Channel: channel,
		Message: "message posted",
	}); err != nil {
		return nil, err
	}

	return messageToDTO(record), nil
}

// ListMessages retrieves the workflow's chat in chronological order.
func (s *WorkflowService) ListMessages(ctx context.Context, workflowID string) ([]*primary.Message, error) {
	if _, err := s.workflows.GetByID(ctx, workflowID); err != nil {
		return nil, err
	}
	records, err := s.messages.ListByWorkflow(ctx, workflowID)
	if err != nil {
		return nil, err
	}
	messages := make([]*primary.Message, 0, len(records))
	for _, r := range records {
		messages = append(messages, messageToDTO(r))
	}
	return messages, nil
}

// Timeline returns audit events after the given sequence marker plus the
// current status. Polling viewers call this repeatedly with the last seen
// sequence.
func (s *WorkflowService) Timeline(ctx context.Context, req primary.TimelineRequest) (*primary.TimelineResponse, error) {
	record, err := s.workflows.GetByID(ctx, req.WorkflowID)
	if err != nil {
		return nil, err
	}
	records, err := s.events.ListSince(ctx, req.WorkflowID, req.AfterSeq)
	if err != nil {
		return nil, err
	}

	resp := &primary.TimelineResponse{WorkflowID: record.ID, Status: record.Status}
	for _, e := range records {
		resp.Events = append(resp.Events, &primary.Event{
			Seq:       e.Seq,
			ID:        e.ID,
			EventType: e.EventType,
			ActorID:   e.ActorID,
			ActorType: e.ActorType,
			Channel:   e.Channel,
			Message:   e.Message,
			CreatedAt: e.CreatedAt,
		})
	}
	return resp, nil
}

// MarkReady records the actor's completion-consensus vote. When every human
// participant is ready the workflow completes.
func (s *WorkflowService) MarkReady(ctx context.Context, req primary.CompletionRequest) error {
	unlock := s.runs.Lock(req.WorkflowID)
	defer unlock()

	wf, steps, err := s.load(ctx, req.WorkflowID)
	if err != nil {
		return err
	}

	gate, humans, err := s.gateContext(ctx, wf, steps, req.ActorID, false)
	if err != nil {
		return err
	}
	if guard := consensus.CanVote(gate); !guard.Allowed {
		return guard.Error()
	}

	// Idempotent: re-marking ready upserts the same status.
	if err := s.approvals.Upsert(ctx, wf.ID, req.ActorID, string(consensus.MarkReady())); err != nil {
		return err
	}
	if err := s.rec.record(ctx, wf.ID, workflow.EventCompletionMarked, eventInput{
		ActorID: req.ActorID,
		Actor:   workflow.ActorHuman,
		Channel: req.Channel,
		Message: "participant marked ready to complete",
	}); err != nil {
		return err
	}

	rows, err := s.approvals.ListByWorkflow(ctx, wf.ID)
	if err != nil {
		return err
	}
	votes := make([]consensus.Vote, 0, len(rows))
	for _, r := range rows {
		votes = append(votes, consensus.Vote{UserID: r.UserID, Status: consensus.ApprovalStatus(r.Status)})
	}

	if !consensus.AllReady(humans, votes) {
		return nil
	}

	// Consensus reached: close out the collaboration steps and complete.
	for _, step := range steps {
		status := pipeline.StepStatus(step.Status)
		if status == pipeline.StepInProgress || status == pipeline.StepAwaitingInput {
			step.Status = string(pipeline.StepCompleted)
			if err := s.steps.Update(ctx, step); err != nil {
				return err
			}
		}
	}
	for _, userID := range humans {
		if err := s.approvals.Upsert(ctx, wf.ID, userID, string(consensus.ApprovalApproved)); err != nil {
			return err
		}
	}

	// A marketplace-born workflow closes its originating request with it.
	if wf.RequestID != "" {
		if err := s.requests.UpdateStatus(ctx, wf.RequestID, string(marketplace.RequestClosed)); err != nil {
			return err
		}
	}

	s.logger.Info("completion consensus reached", zap.String("workflow_id", wf.ID))
	if err := s.rec.transition(ctx, wf, workflow.EventConsensusReached, eventInput{
		Actor:   workflow.ActorSystem,
		Message: "all participants ready; workflow completed by consensus",
	}); err != nil {
		return err
	}
	return s.rec.record(ctx, wf.ID, workflow.EventNotificationSent, eventInput{
		Actor:   workflow.ActorSystem,
		Channel: req.Channel,
		Message: "participants notified: workflow completed",
	})
}

// Reopen resets the actor's own completion-consensus vote. Reopening a
// completed workflow returns it to collaborating.
func (s *WorkflowService) Reopen(ctx context.Context, req primary.CompletionRequest) error {
	unlock := s.runs.Lock(req.WorkflowID)
	defer unlock()

	wf, steps, err := s.load(ctx, req.WorkflowID)
	if err != nil {
		return err
	}

	gate, _, err := s.gateContext(ctx, wf, steps, req.ActorID, true)
	if err != nil {
		return err
	}
	if guard := consensus.CanVote(gate); !guard.Allowed {
		return guard.Error()
	}

	// A participant may only reset their own vote.
	if _, err := s.approvals.GetByUser(ctx, wf.ID, req.ActorID); err != nil {
		return err
	}
	if err := s.approvals.Upsert(ctx, wf.ID, req.ActorID, string(consensus.Reopen())); err != nil {
		return err
	}

	if workflow.Status(wf.Status) == workflow.StatusCompleted {
		// Reopening the workflow reopens the request it fulfilled.
		if wf.RequestID != "" {
			if err := s.requests.UpdateStatus(ctx, wf.RequestID, string(marketplace.RequestMatched)); err != nil {
				return err
			}
		}
		return s.rec.transition(ctx, wf, workflow.EventReopened, eventInput{
			ActorID: req.ActorID,
			Actor:   workflow.ActorHuman,
			Channel: req.Channel,
			Message: "participant reopened the collaboration",
		})
	}
	return s.rec.record(ctx, wf.ID, workflow.EventCompletionMarked, eventInput{
		ActorID: req.ActorID,
		Actor:   workflow.ActorHuman,
		Channel: req.Channel,
		Message: "participant withdrew their ready vote",
	})
}

// gateContext assembles the consensus gate facts for an actor. When reopen is
// set, a completed workflow also satisfies the collaborating requirement.
func (s *WorkflowService) gateContext(ctx context.Context, wf *secondary.WorkflowRecord, steps []*secondary.StepRecord, actorID string, reopen bool) (consensus.GateContext, []string, error) {
	participants, err := s.participants(ctx, wf, steps)
	if err != nil {
		return consensus.GateContext{}, nil, err
	}

	var humans []string
	isParticipant, isAgent := false, false
	for _, p := range participants {
		if !p.IsAgent {
			humans = append(humans, p.ID)
		}
		if p.ID == actorID {
			isParticipant = true
			isAgent = p.IsAgent
		}
	}

	rows, err := s.approvals.ListByWorkflow(ctx, wf.ID)
	if err != nil {
		return consensus.GateContext{}, nil, err
	}

	status := workflow.Status(wf.Status)
	collaborating := status == workflow.StatusCollaborating
	if reopen && status == workflow.StatusCompleted {
		collaborating = true
	}

	return consensus.GateContext{
		WorkflowCollaborating: collaborating,
		ActorIsParticipant:    isParticipant,
		ActorIsAgent:          isAgent,
		HasApprovals:          len(rows) > 0,
	}, humans, nil
}

// load fetches a workflow and its steps together.
func (s *WorkflowService) load(ctx context.Context, workflowID string) (*secondary.WorkflowRecord, []*secondary.StepRecord, error) {
	wf, err := s.workflows.GetByID(ctx, workflowID)
	if err != nil {
		return nil, nil, err
	}
	steps, err := s.steps.ListByWorkflow(ctx, workflowID)
	if err != nil {
		return nil, nil, err
	}
	return wf, steps, nil
}

// participants resolves the owner plus every assigned step user.
func (s *WorkflowService) participants(ctx context.Context, wf *secondary.WorkflowRecord, steps []*secondary.StepRecord) ([]*secondary.UserRecord, error) {
	seen := map[string]bool{wf.OwnerID: true}
	ids := []string{wf.OwnerID}
	for _, step := range steps {
		if step.AssignedTo != "" && !seen[step.AssignedTo] {
			seen[step.AssignedTo] = true
			ids = append(ids, step.AssignedTo)
		}
	}

	var users []*secondary.UserRecord
	for _, id := range ids {
		user, err := s.users.GetByID(ctx, id)
		if err != nil {
			if fault.IsKind(err, fault.NotFound) {
				continue
			}
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

func stepID(workflowID string, order int) string {
	return fmt.Sprintf("%s-STEP-%03d", workflowID, order+1)
}

func workflowToDTO(r *secondary.WorkflowRecord) *primary.Workflow {
	return &primary.Workflow{
		ID:           r.ID,
		OwnerID:      r.OwnerID,
		Title:        r.Title,
		WorkflowType: r.WorkflowType,
		Status:       r.Status,
		ParentID:     r.ParentID,
		RequestID:    r.RequestID,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

func stepToDTO(r *secondary.StepRecord) *primary.Step {
	return &primary.Step{
		ID:             r.ID,
		WorkflowID:     r.WorkflowID,
		StepOrder:      r.StepOrder,
		StepType:       r.StepType,
		ProviderType:   r.ProviderType,
		Status:         r.Status,
		AssignedTo:     r.AssignedTo,
		InputData:      r.InputData,
		OutputData:     r.OutputData,
		Feedback:       r.Feedback,
		IterationCount: r.IterationCount,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

func messageToDTO(r *secondary.MessageRecord) *primary.Message {
	return &primary.Message{
		ID:         r.ID,
		WorkflowID: r.WorkflowID,
		SenderID:   r.SenderID,
		SenderType: r.SenderType,
		Channel:    r.Channel,
		Body:       r.Body,
		CreatedAt:  r.CreatedAt,
	}
}

// Ensure WorkflowService implements the interface
var _ primary.WorkflowService = (*WorkflowService)(nil)
