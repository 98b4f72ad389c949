package app

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/example/exchange/internal/core/consensus"
	"github.com/example/exchange/internal/core/marketplace"
	"github.com/example/exchange/internal/core/pipeline"
	"github.com/example/exchange/internal/core/workflow"
	"github.com/example/exchange/internal/ports/primary"
	"github.com/example/exchange/internal/ports/secondary"
)

// MarketplaceService implements primary.MarketplaceService.
type MarketplaceService struct {
	requests   secondary.RequestRepository
	volunteers secondary.VolunteerRepository
	users      secondary.UserDirectory
	workflows  secondary.WorkflowRepository
	steps      secondary.StepRepository
	messages   secondary.MessageRepository
	approvals  secondary.ApprovalRepository

	runs   *RunManager
	rec    *recorder
	logger *zap.Logger
}

// NewMarketplaceService creates a new marketplace service.
func NewMarketplaceService(
	requests secondary.RequestRepository,
	volunteers secondary.VolunteerRepository,
	users secondary.UserDirectory,
	workflows secondary.WorkflowRepository,
	steps secondary.StepRepository,
	messages secondary.MessageRepository,
	approvals secondary.ApprovalRepository,
	events secondary.EventRepository,
	runs *RunManager,
	logger *zap.Logger,
) *MarketplaceService {
	return &MarketplaceService{
		requests:   requests,
		volunteers: volunteers,
		users:      users,
		workflows:  workflows,
		steps:      steps,
		messages:   messages,
		approvals:  approvals,
		runs:       runs,
		rec:        &recorder{workflows: workflows, events: events},
		logger:     logger,
	}
}

// PostRequest creates an open marketplace request.
func (s *MarketplaceService) PostRequest(ctx context.Context, req primary.PostRequestRequest) (*primary.PostRequestResponse, error) {
	// 1. Validate input
	if guard := marketplace.ValidatePostRequest(req.Title, req.Description, req.Capabilities); !guard.Allowed {
		return nil, guard.Error()
	}
	if _, err := s.users.GetByID(ctx, req.RequesterID); err != nil {
		return nil, err
	}
	if req.ParentWorkflowID != "" {
		if _, err := s.workflows.GetByID(ctx, req.ParentWorkflowID); err != nil {
			return nil, err
		}
	}

	// 2. Create the request
	id, err := s.requests.GetNextID(ctx)
	if err != nil {
		return nil, err
	}
	record := &secondary.RequestRecord{
		ID:               id,
		RequesterID:      req.RequesterID,
		Title:            req.Title,
		Description:      req.Description,
		Capabilities:     marketplace.NormalizeCapabilities(req.Capabilities),
		Status:           string(marketplace.RequestOpen),
		ParentWorkflowID: req.ParentWorkflowID,
	}
	if err := s.requests.Create(ctx, record); err != nil {
		return nil, err
	}

	s.logger.Info("request posted",
		zap.String("request_id", id),
		zap.Strings("capabilities", record.Capabilities))
	return &primary.PostRequestResponse{RequestID: id, Request: requestToDTO(record)}, nil
}

// GetRequest retrieves a request with its volunteer entries.
func (s *MarketplaceService) GetRequest(ctx context.Context, requestID string) (*primary.RequestDetail, error) {
	record, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	volunteers, err := s.volunteers.ListByRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	detail := &primary.RequestDetail{Request: *requestToDTO(record)}
	for _, v := range volunteers {
		detail.Volunteers = append(detail.Volunteers, volunteerToDTO(v))
	}
	return detail, nil
}

// ListRequests lists marketplace requests with optional filters.
func (s *MarketplaceService) ListRequests(ctx context.Context, filters primary.RequestFilters) ([]*primary.MarketplaceRequest, error) {
	records, err := s.requests.List(ctx, secondary.RequestFilters{
		Status:      filters.Status,
		RequesterID: filters.RequesterID,
	})
	if err != nil {
		return nil, err
	}

	requests := make([]*primary.MarketplaceRequest, 0, len(records))
	for _, r := range records {
		requests = append(requests, requestToDTO(r))
	}
	return requests, nil
}

// Volunteer appends an organic volunteer offer to an open request. The
// request lock keeps the duplicate check and the insert atomic.
func (s *MarketplaceService) Volunteer(ctx context.Context, req primary.VolunteerRequest) (*primary.VolunteerResponse, error) {
	unlock := s.runs.Lock(req.RequestID)
	defer unlock()

	request, err := s.requests.GetByID(ctx, req.RequestID)
	if err != nil {
		return nil, err
	}
	if _, err := s.users.GetByID(ctx, req.UserID); err != nil {
		return nil, err
	}

	existing, err := s.volunteers.ListByRequest(ctx, req.RequestID)
	if err != nil {
		return nil, err
	}
	origins := make(map[string]marketplace.Origin, len(existing))
	for _, v := range existing {
		origins[v.UserID] = marketplace.Origin(v.Origin)
	}

	guard := marketplace.CanVolunteer(marketplace.VolunteerContext{
		RequestStatus:   marketplace.RequestStatus(request.Status),
		UserID:          req.UserID,
		ExistingOrigins: origins,
	})
	if !guard.Allowed {
		return nil, guard.Error()
	}

	return s.createVolunteer(ctx, req.RequestID, req.UserID, req.Note, marketplace.OriginVolunteered)
}

// Invite appends a requester-issued direct invite to an open request.
func (s *MarketplaceService) Invite(ctx context.Context, req primary.InviteRequest) (*primary.VolunteerResponse, error) {
	unlock := s.runs.Lock(req.RequestID)
	defer unlock()

	request, err := s.requests.GetByID(ctx, req.RequestID)
	if err != nil {
		return nil, err
	}
	if _, err := s.users.GetByID(ctx, req.InvitedUserID); err != nil {
		return nil, err
	}

	guard := marketplace.CanInvite(marketplace.InviteContext{
		RequestStatus: marketplace.RequestStatus(request.Status),
		ActorID:       req.ActorID,
		RequesterID:   request.RequesterID,
		InvitedUserID: req.InvitedUserID,
	})
	if !guard.Allowed {
		return nil, guard.Error()
	}

	return s.createVolunteer(ctx, req.RequestID, req.InvitedUserID, req.Note, marketplace.OriginInvited)
}

func (s *MarketplaceService) createVolunteer(ctx context.Context, requestID, userID, note string, origin marketplace.Origin) (*primary.VolunteerResponse, error) {
	id, err := s.volunteers.GetNextID(ctx)
	if err != nil {
		return nil, err
	}
	record := &secondary.VolunteerRecord{
		ID:        id,
		RequestID: requestID,
		UserID:    userID,
		Note:      note,
		Origin:    string(origin),
		Status:    string(marketplace.VolunteerPending),
	}
	if err := s.volunteers.Create(ctx, record); err != nil {
		return nil, err
	}

	s.logger.Info("volunteer entry created",
		zap.String("volunteer_id", id),
		zap.String("request_id", requestID),
		zap.String("origin", string(origin)))
	return &primary.VolunteerResponse{VolunteerID: id, Volunteer: volunteerToDTO(record)}, nil
}

// Accept completes the handshake: the chosen volunteer is accepted, the
// request transitions to matched, and a workflow materializes binding the
// requester and the collaborator. Acceptance on a matched request fails, so
// the handshake happens at most once per request. Remaining pending
// volunteers simply stay pending.
//
// Lock order is request first, then the new workflow. Concurrent accepts on
// one request serialize on the request lock; the loser re-reads a matched
// request and fails the guard.
func (s *MarketplaceService) Accept(ctx context.Context, req primary.AcceptRequest) (*primary.AcceptResponse, error) {
	unlock := s.runs.Lock(req.RequestID)
	defer unlock()

	// 1. Load and guard
	request, err := s.requests.GetByID(ctx, req.RequestID)
	if err != nil {
		return nil, err
	}
	volunteer, err := s.volunteers.GetByID(ctx, req.VolunteerID)
	if err != nil {
		return nil, err
	}

	guard := marketplace.CanAccept(marketplace.AcceptContext{
		RequestStatus:      marketplace.RequestStatus(request.Status),
		VolunteerStatus:    marketplace.VolunteerStatus(volunteer.Status),
		VolunteerRequestID: volunteer.RequestID,
		RequestID:          request.ID,
		ActorID:            req.ActorID,
		RequesterID:        request.RequesterID,
	})
	if !guard.Allowed {
		return nil, guard.Error()
	}

	collaborator, err := s.users.GetByID(ctx, volunteer.UserID)
	if err != nil {
		return nil, err
	}

	// 2. Complete the handshake
	if err := s.volunteers.UpdateStatus(ctx, volunteer.ID, string(marketplace.VolunteerAccepted)); err != nil {
		return nil, err
	}
	if err := s.requests.UpdateStatus(ctx, request.ID, string(marketplace.RequestMatched)); err != nil {
		return nil, err
	}

	// 3. Materialize the workflow
	wfType := pipeline.InferWorkflowType(request.Title, request.Description, request.Capabilities)
	wfID, err := s.workflows.GetNextID(ctx)
	if err != nil {
		return nil, err
	}
	unlockWF := s.runs.Lock(wfID)
	defer unlockWF()

	wf := &secondary.WorkflowRecord{
		ID:           wfID,
		OwnerID:      request.RequesterID,
		Title:        request.Title,
		WorkflowType: string(wfType),
		Status:       string(workflow.InitialStatus(true)),
		ParentID:     request.ParentWorkflowID,
		RequestID:    request.ID,
	}
	if err := s.workflows.Create(ctx, wf); err != nil {
		return nil, err
	}

	requiresResearch := pipeline.RequiresResearch(request.Capabilities)
	kickoff := pipeline.KickoffSpec(wfType, collaborator.IsAgent)
	input, _ := json.Marshal(stepInput{Topic: request.Title, Context: request.Description, RequiresResearch: requiresResearch})
	step := &secondary.StepRecord{
		ID:           stepID(wfID, kickoff.Order),
		WorkflowID:   wfID,
		StepOrder:    kickoff.Order,
		StepType:     string(kickoff.Type),
		ProviderType: string(kickoff.Provider),
		Status:       string(pipeline.StepInProgress),
		AssignedTo:   collaborator.ID,
		InputData:    string(input),
	}
	if err := s.steps.Create(ctx, step); err != nil {
		return nil, err
	}

	// 4. Seed the completion-consensus gate for human participants
	if err := s.approvals.Upsert(ctx, wfID, request.RequesterID, string(consensus.ApprovalPending)); err != nil {
		return nil, err
	}
	if !collaborator.IsAgent {
		if err := s.approvals.Upsert(ctx, wfID, collaborator.ID, string(consensus.ApprovalPending)); err != nil {
			return nil, err
		}
	}

	// 5. Record the audit trail: creation, then the collaboration start
	if err := s.rec.record(ctx, wfID, workflow.EventCreated, eventInput{
		ActorID: req.ActorID,
		Actor:   workflow.ActorHuman,
		Message: "workflow created from request " + request.ID,
	}); err != nil {
		return nil, err
	}
	wf.Status = string(workflow.StatusPending)
	if err := s.rec.transition(ctx, wf, workflow.EventCollaborationStarted, eventInput{
		StepID:  step.ID,
		Actor:   workflow.ActorSystem,
		Message: "collaboration started with " + collaborator.Name,
	}); err != nil {
		return nil, err
	}

	// 6. Agent collaborators greet the channel so the chat has an opening turn
	if collaborator.IsAgent {
		msgID, err := s.messages.GetNextID(ctx, wfID)
		if err != nil {
			return nil, err
		}
		greeting := "Hello! I'm " + collaborator.Name + ". I've joined to help with: " + request.Title + ". Tell me more about what you need."
		if requiresResearch {
			greeting += " When you're ready, start structured research and I'll prepare the findings for your review."
		}
		err = s.messages.Create(ctx, &secondary.MessageRecord{
			ID:         msgID,
			WorkflowID: wfID,
			SenderID:   collaborator.ID,
			SenderType: string(workflow.ActorAgent),
			Channel:    "system",
			Body:       greeting,
		})
		if err != nil {
			return nil, err
		}
	}

	s.logger.Info("handshake completed",
		zap.String("request_id", request.ID),
		zap.String("workflow_id", wfID),
		zap.String("collaborator_id", collaborator.ID),
		zap.Bool("collaborator_is_agent", collaborator.IsAgent))
	return &primary.AcceptResponse{WorkflowID: wfID, WorkflowType: string(wfType)}, nil
}

func requestToDTO(r *secondary.RequestRecord) *primary.MarketplaceRequest {
	return &primary.MarketplaceRequest{
		ID:               r.ID,
		RequesterID:      r.RequesterID,
		Title:            r.Title,
		Description:      r.Description,
		Capabilities:     r.Capabilities,
		Status:           r.Status,
		ParentWorkflowID: r.ParentWorkflowID,
		CreatedAt:        r.CreatedAt,
	}
}

func volunteerToDTO(r *secondary.VolunteerRecord) *primary.Volunteer {
	return &primary.Volunteer{
		ID:        r.ID,
		RequestID: r.RequestID,
		UserID:    r.UserID,
		Note:      r.Note,
		Origin:    r.Origin,
		Status:    r.Status,
		CreatedAt: r.CreatedAt,
	}
}

// Ensure MarketplaceService implements the interface
var _ primary.MarketplaceService = (*MarketplaceService)(nil)
