package app

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"github.com/example/exchange/internal/core/fault"
	"github.com/example/exchange/internal/core/pipeline"
	"github.com/example/exchange/internal/core/workflow"
	"github.com/example/exchange/internal/ports/primary"
	"github.com/example/exchange/internal/ports/secondary"
)

// StartResearch escalates a pending or collaborating workflow into the
// automated research stage and dispatches the research collaborator.
func (s *WorkflowService) StartResearch(ctx context.Context, req primary.StartResearchRequest) error {
	unlock := s.runs.Lock(req.WorkflowID)

	wf, steps, err := s.load(ctx, req.WorkflowID)
	if err != nil {
		unlock()
		return err
	}

	// 1. Evaluate the guard with pre-fetched facts
	participants, err := s.participants(ctx, wf, steps)
	if err != nil {
		unlock()
		return err
	}
	hasAgent := false
	for _, p := range participants {
		if p.IsAgent {
			hasAgent = true
		}
	}
	for _, step := range steps {
		if step.ProviderType == string(pipeline.ProviderAgent) {
			hasAgent = true
		}
	}
	researchLive := false
	for _, step := range steps {
		if step.StepType != string(pipeline.StepAutomatedResearch) {
			continue
		}
		switch pipeline.StepStatus(step.Status) {
		case pipeline.StepInProgress, pipeline.StepAwaitingInput, pipeline.StepCompleted:
			researchLive = true
		}
	}
	guard := workflow.CanStartResearch(workflow.StartResearchContext{
		Status:              workflow.Status(wf.Status),
		ActorID:             req.ActorID,
		OwnerID:             wf.OwnerID,
		HasAgentParticipant: hasAgent,
		ResearchAlreadyLive: researchLive,
	})
	if !guard.Allowed {
		unlock()
		return guard.Error()
	}

	// 2. Find or append the research step
	researchStep := findStep(steps, pipeline.StepAutomatedResearch)
	if researchStep == nil {
		startOrder, err := s.steps.NextOrder(ctx, wf.ID)
		if err != nil {
			unlock()
			return err
		}
		for _, spec := range pipeline.ResearchSegment(startOrder) {
			step := &secondary.StepRecord{
				ID:           stepID(wf.ID, spec.Order),
				WorkflowID:   wf.ID,
				StepOrder:    spec.Order,
				StepType:     string(spec.Type),
				ProviderType: string(spec.Provider),
				Status:       string(pipeline.StepPending),
			}
			if err := s.steps.Create(ctx, step); err != nil {
				unlock()
				return err
			}
			if spec.Type == pipeline.StepAutomatedResearch {
				researchStep = step
			}
		}
	}

	// 3. Resolve topic and collaboration context
	topic := s.topicFor(wf, researchStep)
	chatContext, err := s.chatContext(ctx, wf.ID)
	if err != nil {
		unlock()
		return err
	}

	input, _ := json.Marshal(stepInput{Topic: topic, Context: chatContext})
	researchStep.InputData = string(input)
	researchStep.Status = string(pipeline.StepInProgress)
	if err := s.steps.Update(ctx, researchStep); err != nil {
		unlock()
		return err
	}

	// 4. Transition and bind the run
	if err := s.rec.transition(ctx, wf, workflow.EventResearchStarted, eventInput{
		StepID:  researchStep.ID,
		ActorID: req.ActorID,
		Actor:   workflow.ActorHuman,
		Channel: req.Channel,
		Message: "automated research started: " + topic,
	}); err != nil {
		unlock()
		return err
	}

	runID := NewRunID()
	if err := s.workflows.UpdateRunID(ctx, wf.ID, runID); err != nil {
		unlock()
		return err
	}
	unlock()

	s.dispatchResearch(wf.ID, runID, researchStep.ID, secondary.ResearchRequest{
		RunID:      runID,
		WorkflowID: wf.ID,
		Topic:      topic,
		Context:    chatContext,
	})
	return nil
}

// SubmitReview applies a reviewer's approve or refine decision.
func (s *WorkflowService) SubmitReview(ctx context.Context, req primary.ReviewRequest) error {
	unlock := s.runs.Lock(req.WorkflowID)

	wf, steps, err := s.load(ctx, req.WorkflowID)
	if err != nil {
		unlock()
		return err
	}

	reviewStep := findReviewStep(steps)
	if reviewStep == nil {
		unlock()
		return fault.New(fault.InvalidTransition, "workflow has no review step")
	}

	participants, err := s.participants(ctx, wf, steps)
	if err != nil {
		unlock()
		return err
	}
	isParticipant := false
	for _, p := range participants {
		if p.ID == req.ActorID {
			isParticipant = true
		}
	}
	reviewCtx := workflow.ReviewContext{
		Status:           workflow.Status(wf.Status),
		ActorID:          req.ActorID,
		IsParticipant:    isParticipant,
		AssignedReviewer: reviewStep.AssignedTo,
		Feedback:         req.Feedback,
	}

	switch req.Action {
	case primary.ReviewApprove:
		err = s.approve(ctx, wf, steps, reviewStep, reviewCtx, req, unlock)
	case primary.ReviewRefine:
		err = s.refine(ctx, wf, steps, reviewStep, reviewCtx, req, unlock)
	default:
		unlock()
		err = fault.New(fault.Validation, "unknown review action %q", req.Action)
	}
	return err
}

// approve completes the review step and dispatches artifact generation.
// Takes ownership of the workflow lock.
func (s *WorkflowService) approve(ctx context.Context, wf *secondary.WorkflowRecord, steps []*secondary.StepRecord, reviewStep *secondary.StepRecord, reviewCtx workflow.ReviewContext, req primary.ReviewRequest, unlock func()) error {
	if guard := workflow.CanApprove(reviewCtx); !guard.Allowed {
		unlock()
		return guard.Error()
	}
	if guard := pipeline.CanAdvance(pipeline.StepStatus(reviewStep.Status)); !guard.Allowed {
		unlock()
		return guard.Error()
	}

	reviewStep.Status = string(pipeline.StepCompleted)
	reviewStep.Feedback = req.Feedback
	if err := s.steps.Update(ctx, reviewStep); err != nil {
		unlock()
		return err
	}

	// Completing the review unblocks the next step in pipeline order, which
	// must be the generation step.
	next, ok := pipeline.NextReady(snapshots(steps))
	if !ok || next.Type != pipeline.StepAutomatedGeneration {
		unlock()
		return fault.New(fault.InvalidTransition, "workflow has no generation step")
	}
	genStep := stepByID(steps, next.ID)
	genStep.Status = string(pipeline.StepInProgress)
	genStep.OutputData = ""
	if err := s.steps.Update(ctx, genStep); err != nil {
		unlock()
		return err
	}

	if err := s.rec.transition(ctx, wf, workflow.EventApproved, eventInput{
		StepID:  reviewStep.ID,
		ActorID: req.ActorID,
		Actor:   workflow.ActorHuman,
		Channel: req.Channel,
		Message: "research approved; generation started",
	}); err != nil {
		unlock()
		return err
	}
	if err := s.rec.record(ctx, wf.ID, workflow.EventGenerationStarted, eventInput{
		StepID:  genStep.ID,
		Actor:   workflow.ActorSystem,
		Message: "generation run dispatched",
	}); err != nil {
		unlock()
		return err
	}

	runID := NewRunID()
	if err := s.workflows.UpdateRunID(ctx, wf.ID, runID); err != nil {
		unlock()
		return err
	}

	researchStep := findStep(steps, pipeline.StepAutomatedResearch)
	topic := s.topicFor(wf, researchStep)
	researchText := researchTextFor(researchStep)
	unlock()

	s.dispatchGeneration(wf.ID, runID, genStep.ID, secondary.GenerationRequest{
		RunID:        runID,
		WorkflowID:   wf.ID,
		Topic:        topic,
		ResearchText: researchText,
	})
	return nil
}

// refine sends the research back for another round with reviewer feedback.
// The existing research step is revisited: its iteration count increments and
// no new step row is created. Takes ownership of the workflow lock.
func (s *WorkflowService) refine(ctx context.Context, wf *secondary.WorkflowRecord, steps []*secondary.StepRecord, reviewStep *secondary.StepRecord, reviewCtx workflow.ReviewContext, req primary.ReviewRequest, unlock func()) error {
	if guard := workflow.CanRefine(reviewCtx); !guard.Allowed {
		unlock()
		return guard.Error()
	}
	researchStep := findStep(steps, pipeline.StepAutomatedResearch)
	if researchStep == nil {
		unlock()
		return fault.New(fault.InvalidTransition, "workflow has no research step to refine")
	}
	if guard := pipeline.CanReset(pipeline.StepStatus(researchStep.Status)); !guard.Allowed {
		unlock()
		return guard.Error()
	}

	reopening := reviewCtx.Status == workflow.StatusCompleted

	researchStep.Status = string(pipeline.StepInProgress)
	researchStep.Feedback = req.Feedback
	researchStep.IterationCount++
	if err := s.steps.Update(ctx, researchStep); err != nil {
		unlock()
		return err
	}
	reviewStep.Status = string(pipeline.StepPending)
	if err := s.steps.Update(ctx, reviewStep); err != nil {
		unlock()
		return err
	}
	// Refining a completed workflow discards the stale artifact: the
	// generation step returns to the pipeline and will run again on approval.
	if reopening {
		if genStep := findStep(steps, pipeline.StepAutomatedGeneration); genStep != nil {
			genStep.Status = string(pipeline.StepPending)
			genStep.OutputData = ""
			if err := s.steps.Update(ctx, genStep); err != nil {
				unlock()
				return err
			}
		}
	}

	if err := s.rec.transition(ctx, wf, workflow.EventRefined, eventInput{
		StepID:  researchStep.ID,
		ActorID: req.ActorID,
		Actor:   workflow.ActorHuman,
		Channel: req.Channel,
		Message: "refinement requested: " + req.Feedback,
	}); err != nil {
		unlock()
		return err
	}
	if reopening {
		if err := s.rec.record(ctx, wf.ID, workflow.EventReopened, eventInput{
			StepID:  researchStep.ID,
			ActorID: req.ActorID,
			Actor:   workflow.ActorHuman,
			Channel: req.Channel,
			Message: "completed workflow reopened for refinement",
		}); err != nil {
			unlock()
			return err
		}
	}

	runID := NewRunID()
	if err := s.workflows.UpdateRunID(ctx, wf.ID, runID); err != nil {
		unlock()
		return err
	}

	topic := s.topicFor(wf, researchStep)
	iteration := researchStep.IterationCount
	unlock()

	s.dispatchResearch(wf.ID, runID, researchStep.ID, secondary.ResearchRequest{
		RunID:      runID,
		WorkflowID: wf.ID,
		Topic:      topic,
		Feedback:   req.Feedback,
		Iteration:  iteration,
	})
	return nil
}

// CancelRun cancels an in-flight run. Clearing the bound run id first means
// any late collaborator result is discarded as stale.
func (s *WorkflowService) CancelRun(ctx context.Context, req primary.RunActionRequest) error {
	unlock := s.runs.Lock(req.WorkflowID)
	defer unlock()

	wf, steps, err := s.load(ctx, req.WorkflowID)
	if err != nil {
		return err
	}

	guard := workflow.CanCancelRun(workflow.RunContext{
		Status:  workflow.Status(wf.Status),
		ActorID: req.ActorID,
		OwnerID: wf.OwnerID,
	})
	if !guard.Allowed {
		return guard.Error()
	}

	if err := s.workflows.UpdateRunID(ctx, wf.ID, ""); err != nil {
		return err
	}

	reason := req.Reason
	if reason == "" {
		reason = "cancelled by owner"
	}
	var activeStepID string
	for _, step := range steps {
		if pipeline.StepStatus(step.Status) == pipeline.StepInProgress {
			step.Status = string(pipeline.StepFailed)
			step.Feedback = reason
			if err := s.steps.Update(ctx, step); err != nil {
				return err
			}
			activeStepID = step.ID
		}
	}

	s.logger.Info("run cancelled",
		zap.String("workflow_id", wf.ID),
		zap.String("reason", reason))
	return s.rec.transition(ctx, wf, workflow.EventFailed, eventInput{
		StepID:  activeStepID,
		ActorID: req.ActorID,
		Actor:   workflow.ActorHuman,
		Channel: req.Channel,
		Message: "run cancelled: " + reason,
	})
}

// RetryRun retries a failed run from its resume point.
func (s *WorkflowService) RetryRun(ctx context.Context, req primary.RunActionRequest) error {
	return s.retry(ctx, req, "")
}

// RetryGeneration retries only a failed generation step. The stale artifact
// reference is cleared before the new run starts.
func (s *WorkflowService) RetryGeneration(ctx context.Context, req primary.RunActionRequest) error {
	return s.retry(ctx, req, workflow.FailedStageGeneration)
}

func (s *WorkflowService) retry(ctx context.Context, req primary.RunActionRequest, wantStage workflow.FailedStage) error {
	unlock := s.runs.Lock(req.WorkflowID)

	wf, steps, err := s.load(ctx, req.WorkflowID)
	if err != nil {
		unlock()
		return err
	}

	failedStep, stage := lastFailedStage(steps)
	guard := workflow.CanRetryRun(workflow.RetryContext{
		Status:    workflow.Status(wf.Status),
		ActorID:   req.ActorID,
		OwnerID:   wf.OwnerID,
		LastStage: stage,
	})
	if !guard.Allowed {
		unlock()
		return guard.Error()
	}
	if wantStage != "" && stage != wantStage {
		unlock()
		return fault.New(fault.InvalidTransition, "last failure was in the %s stage, not %s", stage, wantStage)
	}

	failedStep.Status = string(pipeline.StepInProgress)
	failedStep.OutputData = ""
	if err := s.steps.Update(ctx, failedStep); err != nil {
		unlock()
		return err
	}

	kind := workflow.EventResearchStarted
	if stage == workflow.FailedStageGeneration {
		kind = workflow.EventGenerationRequested
	}
	if err := s.rec.transition(ctx, wf, kind, eventInput{
		StepID:  failedStep.ID,
		ActorID: req.ActorID,
		Actor:   workflow.ActorHuman,
		Channel: req.Channel,
		Message: "retrying failed " + string(stage) + " run",
	}); err != nil {
		unlock()
		return err
	}
	if stage == workflow.FailedStageGeneration {
		if err := s.rec.record(ctx, wf.ID, workflow.EventGenerationStarted, eventInput{
			StepID:  failedStep.ID,
			Actor:   workflow.ActorSystem,
			Message: "generation run dispatched",
		}); err != nil {
			unlock()
			return err
		}
	}

	runID := NewRunID()
	if err := s.workflows.UpdateRunID(ctx, wf.ID, runID); err != nil {
		unlock()
		return err
	}

	researchStep := findStep(steps, pipeline.StepAutomatedResearch)
	topic := s.topicFor(wf, researchStep)
	unlock()

	if stage == workflow.FailedStageGeneration {
		s.dispatchGeneration(wf.ID, runID, failedStep.ID, secondary.GenerationRequest{
			RunID:        runID,
			WorkflowID:   wf.ID,
			Topic:        topic,
			ResearchText: researchTextFor(researchStep),
		})
	} else {
		s.dispatchResearch(wf.ID, runID, failedStep.ID, secondary.ResearchRequest{
			RunID:      runID,
			WorkflowID: wf.ID,
			Topic:      topic,
			Feedback:   failedStep.Feedback,
			Iteration:  failedStep.IterationCount,
		})
	}
	return nil
}

// dispatchResearch hands a research run to the run manager. The collaborator
// call happens outside the workflow lock; the completion writes re-acquire it.
func (s *WorkflowService) dispatchResearch(workflowID, runID, stepID string, req secondary.ResearchRequest) {
	s.runs.Dispatch(workflowID, runID, func(ctx context.Context) {
		output, err := s.research.Research(ctx, req)

		unlock := s.runs.Lock(workflowID)
		defer unlock()

		if !s.runStillCurrent(ctx, workflowID, runID) {
			return
		}
		if err != nil {
			s.failRun(ctx, workflowID, stepID, "research run failed: "+err.Error())
			return
		}
		s.completeResearch(ctx, workflowID, stepID, req.Iteration, output)
	})
}

// dispatchGeneration hands a generation run to the run manager.
func (s *WorkflowService) dispatchGeneration(workflowID, runID, stepID string, req secondary.GenerationRequest) {
	s.runs.Dispatch(workflowID, runID, func(ctx context.Context) {
		output, err := s.generation.Generate(ctx, req)

		unlock := s.runs.Lock(workflowID)
		defer unlock()

		if !s.runStillCurrent(ctx, workflowID, runID) {
			return
		}
		if err != nil {
			s.failRun(ctx, workflowID, stepID, "generation run failed: "+err.Error())
			return
		}
		s.completeGeneration(ctx, workflowID, stepID, output)
	})
}

// runStillCurrent reports whether the given run is still the workflow's bound
// run. Results from cancelled or superseded runs are discarded.
func (s *WorkflowService) runStillCurrent(ctx context.Context, workflowID, runID string) bool {
	wf, err := s.workflows.GetByID(ctx, workflowID)
	if err != nil {
		s.logger.Error("failed to reload workflow for run completion",
			zap.String("workflow_id", workflowID), zap.Error(err))
		return false
	}
	if wf.RunID != runID {
		s.logger.Info("discarding stale run result",
			zap.String("workflow_id", workflowID),
			zap.String("run_id", runID),
			zap.String("current_run_id", wf.RunID))
		return false
	}
	return true
}

func (s *WorkflowService) completeResearch(ctx context.Context, workflowID, stepID string, iteration int, output *secondary.ResearchOutput) {
	wf, steps, err := s.load(ctx, workflowID)
	if err != nil {
		s.logger.Error("failed to load workflow after research", zap.Error(err))
		return
	}

	payload, _ := json.Marshal(researchPayload{
		Summary:      output.Summary,
		SlideOutline: output.SlideOutline,
		RawResearch:  output.RawResearch,
		Iteration:    iteration,
	})
	for _, step := range steps {
		if step.ID != stepID {
			continue
		}
		step.Status = string(pipeline.StepCompleted)
		step.OutputData = string(payload)
		if err := s.steps.Update(ctx, step); err != nil {
			s.logger.Error("failed to complete research step", zap.Error(err))
			return
		}
	}
	if reviewStep := findReviewStep(steps); reviewStep != nil {
		reviewStep.Status = string(pipeline.StepAwaitingInput)
		if err := s.steps.Update(ctx, reviewStep); err != nil {
			s.logger.Error("failed to mark review step awaiting input", zap.Error(err))
			return
		}
	}

	if err := s.rec.transition(ctx, wf, workflow.EventResearchCompleted, eventInput{
		StepID:  stepID,
		Actor:   workflow.ActorAgent,
		Message: "research completed; awaiting review",
	}); err != nil {
		s.logger.Error("failed to transition after research", zap.Error(err))
		return
	}
	if err := s.rec.record(ctx, workflowID, workflow.EventReviewRequested, eventInput{
		StepID:  stepID,
		Actor:   workflow.ActorSystem,
		Message: "review requested",
	}); err != nil {
		s.logger.Error("failed to record review request", zap.Error(err))
		return
	}

	if err := s.workflows.UpdateRunID(ctx, workflowID, ""); err != nil {
		s.logger.Error("failed to clear run id", zap.Error(err))
	}
}

func (s *WorkflowService) completeGeneration(ctx context.Context, workflowID, stepID string, output *secondary.GenerationOutput) {
	wf, steps, err := s.load(ctx, workflowID)
	if err != nil {
		s.logger.Error("failed to load workflow after generation", zap.Error(err))
		return
	}

	payload, _ := json.Marshal(generationPayload{
		ArtifactName: output.ArtifactName,
		ArtifactSize: output.ArtifactSize,
	})
	for _, step := range steps {
		if step.ID != stepID {
			continue
		}
		step.Status = string(pipeline.StepCompleted)
		step.OutputData = string(payload)
		if err := s.steps.Update(ctx, step); err != nil {
			s.logger.Error("failed to complete generation step", zap.Error(err))
			return
		}
	}

	if err := s.rec.transition(ctx, wf, workflow.EventGenerationCompleted, eventInput{
		StepID:  stepID,
		Actor:   workflow.ActorAgent,
		Message: "artifact generated: " + output.ArtifactName,
	}); err != nil {
		s.logger.Error("failed to transition after generation", zap.Error(err))
		return
	}
	if err := s.rec.record(ctx, workflowID, workflow.EventNotificationSent, eventInput{
		StepID:  stepID,
		Actor:   workflow.ActorSystem,
		Message: "participants notified: artifact ready",
	}); err != nil {
		s.logger.Error("failed to record artifact notification", zap.Error(err))
		return
	}

	if err := s.workflows.UpdateRunID(ctx, workflowID, ""); err != nil {
		s.logger.Error("failed to clear run id", zap.Error(err))
	}
}

// failRun marks the run's step failed and the workflow failed.
func (s *WorkflowService) failRun(ctx context.Context, workflowID, stepID, reason string) {
	wf, steps, err := s.load(ctx, workflowID)
	if err != nil {
		s.logger.Error("failed to load workflow after run failure", zap.Error(err))
		return
	}

	for _, step := range steps {
		if step.ID != stepID {
			continue
		}
		step.Status = string(pipeline.StepFailed)
		if err := s.steps.Update(ctx, step); err != nil {
			s.logger.Error("failed to mark step failed", zap.Error(err))
			return
		}
	}

	s.logger.Warn("run failed",
		zap.String("workflow_id", workflowID),
		zap.String("step_id", stepID),
		zap.String("reason", reason))
	if err := s.rec.transition(ctx, wf, workflow.EventFailed, eventInput{
		StepID:  stepID,
		Actor:   workflow.ActorSystem,
		Message: reason,
	}); err != nil {
		s.logger.Error("failed to transition to failed", zap.Error(err))
		return
	}

	if err := s.workflows.UpdateRunID(ctx, workflowID, ""); err != nil {
		s.logger.Error("failed to clear run id", zap.Error(err))
	}
}

// topicFor resolves the research topic: the step input payload wins, the
// workflow title is the fallback.
func (s *WorkflowService) topicFor(wf *secondary.WorkflowRecord, researchStep *secondary.StepRecord) string {
	if researchStep != nil && researchStep.InputData != "" {
		var input stepInput
		if err := json.Unmarshal([]byte(researchStep.InputData), &input); err == nil && input.Topic != "" {
			return input.Topic
		}
	}
	return wf.Title
}

// chatContext joins the collaboration chat into a context block for the
// research prompt.
func (s *WorkflowService) chatContext(ctx context.Context, workflowID string) (string, error) {
	records, err := s.messages.ListByWorkflow(ctx, workflowID)
	if err != nil {
		return "", err
	}
	var lines []string
	for _, m := range records {
		sender := m.SenderID
		if sender == "" {
			sender = m.SenderType
		}
		lines = append(lines, sender+": "+m.Body)
	}
	return strings.Join(lines, "\n"), nil
}

// snapshots projects step records into the pure pipeline view.
func snapshots(steps []*secondary.StepRecord) []pipeline.Snapshot {
	out := make([]pipeline.Snapshot, 0, len(steps))
	for _, step := range steps {
		out = append(out, pipeline.Snapshot{
			ID:     step.ID,
			Order:  step.StepOrder,
			Type:   pipeline.StepType(step.StepType),
			Status: pipeline.StepStatus(step.Status),
		})
	}
	return out
}

// stepByID returns the step record with the given id, or nil.
func stepByID(steps []*secondary.StepRecord, id string) *secondary.StepRecord {
	for _, step := range steps {
		if step.ID == id {
			return step
		}
	}
	return nil
}

// findStep returns the last step of the given type, or nil.
// The last one matters when a collaboration pipeline gained a research
// segment after its kickoff step.
func findStep(steps []*secondary.StepRecord, t pipeline.StepType) *secondary.StepRecord {
	var found *secondary.StepRecord
	for _, step := range steps {
		if step.StepType == string(t) {
			found = step
		}
	}
	return found
}

// findReviewStep returns the last human or specialist review step, or nil.
func findReviewStep(steps []*secondary.StepRecord) *secondary.StepRecord {
	var found *secondary.StepRecord
	for _, step := range steps {
		switch pipeline.StepType(step.StepType) {
		case pipeline.StepHumanReview, pipeline.StepSpecialistReview:
			found = step
		}
	}
	return found
}

// researchTextFor extracts the research findings from a completed research
// step, preferring the raw research over the summary.
func researchTextFor(researchStep *secondary.StepRecord) string {
	if researchStep == nil || researchStep.OutputData == "" {
		return ""
	}
	var payload researchPayload
	if err := json.Unmarshal([]byte(researchStep.OutputData), &payload); err != nil {
		return researchStep.OutputData
	}
	if payload.RawResearch != "" {
		return payload.RawResearch
	}
	return payload.Summary
}

// lastFailedStage returns the highest-order failed step and its stage.
func lastFailedStage(steps []*secondary.StepRecord) (*secondary.StepRecord, workflow.FailedStage) {
	var failed *secondary.StepRecord
	for _, step := range steps {
		if pipeline.StepStatus(step.Status) == pipeline.StepFailed {
			failed = step
		}
	}
	if failed == nil {
		return nil, workflow.FailedStageOther
	}
	switch pipeline.StepType(failed.StepType) {
	case pipeline.StepAutomatedResearch:
		return failed, workflow.FailedStageResearch
	case pipeline.StepAutomatedGeneration:
		return failed, workflow.FailedStageGeneration
	}
	return failed, workflow.FailedStageOther
}
