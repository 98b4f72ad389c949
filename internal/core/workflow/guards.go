package workflow

import "github.com/example/exchange/internal/core/fault"

// GuardResult represents the outcome of a guard evaluation.
type GuardResult struct {
	Allowed bool
	Kind    fault.Kind // populated when not allowed
	Reason  string     // human-readable reason (populated when not allowed)
}

// Error returns the guard result as a fault if not allowed, nil otherwise.
func (r GuardResult) Error() error {
	if r.Allowed {
		return nil
	}
	return fault.New(r.Kind, "%s", r.Reason)
}

func allowed() GuardResult {
	return GuardResult{Allowed: true}
}

func denied(kind fault.Kind, reason string) GuardResult {
	return GuardResult{Kind: kind, Reason: reason}
}

// StartResearchContext provides the state needed to evaluate a start-research
// request. Populated by the service layer with pre-fetched facts.
type StartResearchContext struct {
	Status              Status
	ActorID             string
	OwnerID             string
	HasAgentParticipant bool
	ResearchAlreadyLive bool // a research step exists and is not failed/skipped
}

// CanStartResearch evaluates whether structured research may begin.
// Rules: owner only; workflow must be pending or collaborating; an agent
// participant must be bound; research must not already have started.
func CanStartResearch(ctx StartResearchContext) GuardResult {
	if ctx.ActorID != ctx.OwnerID {
		return denied(fault.InvalidTransition, "only the workflow owner can start research")
	}
	if ctx.Status != StatusPending && ctx.Status != StatusCollaborating {
		return denied(fault.InvalidTransition, "research can only start from pending or collaborating (current: "+string(ctx.Status)+")")
	}
	if !ctx.HasAgentParticipant {
		return denied(fault.InvalidTransition, "no automated research collaborator is bound to this workflow")
	}
	if ctx.ResearchAlreadyLive {
		return denied(fault.InvalidTransition, "research has already started for this workflow")
	}
	return allowed()
}

// ReviewContext provides the state needed to evaluate a review submission.
type ReviewContext struct {
	Status           Status
	ActorID          string
	IsParticipant    bool
	AssignedReviewer string // empty when the review step is unassigned
	Feedback         string // refinement feedback text
}

// CanApprove evaluates whether the actor may approve the current research.
func CanApprove(ctx ReviewContext) GuardResult {
	if !ctx.IsParticipant {
		return denied(fault.InvalidTransition, "actor is not a participant in this workflow")
	}
	if ctx.AssignedReviewer != "" && ctx.AssignedReviewer != ctx.ActorID {
		return denied(fault.InvalidTransition, "only the assigned reviewer can submit this review")
	}
	if ctx.Status != StatusAwaitingReview {
		return denied(fault.InvalidTransition, "approve is only allowed in awaiting_review (current: "+string(ctx.Status)+")")
	}
	return allowed()
}

// CanRefine evaluates whether the actor may request refinement.
// Refinement is allowed in awaiting_review, or in completed (reopening the
// workflow for another round). Feedback text is required.
func CanRefine(ctx ReviewContext) GuardResult {
	if !ctx.IsParticipant {
		return denied(fault.InvalidTransition, "actor is not a participant in this workflow")
	}
	if ctx.AssignedReviewer != "" && ctx.AssignedReviewer != ctx.ActorID {
		return denied(fault.InvalidTransition, "only the assigned reviewer can submit this review")
	}
	if ctx.Status != StatusAwaitingReview && ctx.Status != StatusCompleted {
		return denied(fault.InvalidTransition, "refinement is only allowed in awaiting_review or completed (current: "+string(ctx.Status)+")")
	}
	if ctx.Feedback == "" {
		return denied(fault.Validation, "feedback is required for refinement")
	}
	return allowed()
}

// RunContext provides the state needed to evaluate cancel/retry of a run.
type RunContext struct {
	Status  Status
	ActorID string
	OwnerID string
}

// CanCancelRun evaluates whether an active run may be cancelled.
// Rule: owner only, and only while a run is in flight.
func CanCancelRun(ctx RunContext) GuardResult {
	if ctx.ActorID != ctx.OwnerID {
		return denied(fault.InvalidTransition, "only the workflow owner can cancel an active run")
	}
	if !InFlight(ctx.Status) {
		return denied(fault.InvalidTransition, "no active run to cancel (current: "+string(ctx.Status)+")")
	}
	return allowed()
}

// FailedStage names the stage whose step last failed, used to pick the
// resume point for a retry.
type FailedStage string

const (
	FailedStageResearch   FailedStage = "research"
	FailedStageGeneration FailedStage = "generation"
	FailedStageOther      FailedStage = "other"
)

// RetryContext provides the state needed to evaluate a run retry.
type RetryContext struct {
	Status    Status
	ActorID   string
	OwnerID   string
	LastStage FailedStage
}

// CanRetryRun evaluates whether a failed run may be retried.
// Failures outside the research/generation stages are not retryable.
func CanRetryRun(ctx RetryContext) GuardResult {
	if ctx.ActorID != ctx.OwnerID {
		return denied(fault.InvalidTransition, "only the workflow owner can retry a failed run")
	}
	if InFlight(ctx.Status) {
		return denied(fault.InvalidTransition, "run is still active; cancel it before retrying")
	}
	if ctx.Status != StatusFailed {
		return denied(fault.InvalidTransition, "only a failed workflow can be retried (current: "+string(ctx.Status)+")")
	}
	if ctx.LastStage == FailedStageOther {
		return denied(fault.InvalidTransition, "the failed stage cannot be retried")
	}
	return allowed()
}

// ResumePoint returns the status a retried run re-enters for a failed stage.
func ResumePoint(stage FailedStage) (Status, bool) {
	switch stage {
	case FailedStageResearch:
		return StatusResearching, true
	case FailedStageGeneration:
		return StatusGeneratingPPT, true
	}
	return "", false
}
