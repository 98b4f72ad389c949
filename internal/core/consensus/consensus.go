// Package consensus contains the pure business logic for the completion
// consensus gate: multi-human agreement that a collaboration phase is done.
// This is part of the Functional Core - no I/O, only pure functions.
package consensus

import "github.com/example/exchange/internal/core/fault"

// ApprovalStatus represents one participant's completion-consensus vote.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalReady    ApprovalStatus = "ready"
	ApprovalApproved ApprovalStatus = "approved"
)

// Vote is one participant's approval row as seen by the gate.
type Vote struct {
	UserID string
	Status ApprovalStatus
}

// GuardResult represents the outcome of a guard evaluation.
type GuardResult struct {
	Allowed bool
	Kind    fault.Kind
	Reason  string
}

// Error returns the guard result as a fault if not allowed, nil otherwise.
func (r GuardResult) Error() error {
	if r.Allowed {
		return nil
	}
	return fault.New(r.Kind, "%s", r.Reason)
}

// GateContext provides the state needed to evaluate a gate action.
type GateContext struct {
	WorkflowCollaborating bool
	ActorIsParticipant    bool
	ActorIsAgent          bool
	HasApprovals          bool
}

// CanVote evaluates whether the actor may mark ready or reopen.
// The gate applies only to human participants of a collaborating workflow
// that was seeded with approval rows.
func CanVote(ctx GateContext) GuardResult {
	if !ctx.ActorIsParticipant {
		return GuardResult{Kind: fault.InvalidTransition, Reason: "actor is not a participant in this workflow"}
	}
	if ctx.ActorIsAgent {
		return GuardResult{Kind: fault.InvalidTransition, Reason: "agents cannot vote on human completion consensus"}
	}
	if !ctx.HasApprovals {
		return GuardResult{Kind: fault.InvalidTransition, Reason: "this workflow does not use collaborative completion"}
	}
	if !ctx.WorkflowCollaborating {
		return GuardResult{Kind: fault.InvalidTransition, Reason: "completion consensus only applies while collaborating"}
	}
	return GuardResult{Allowed: true}
}

// MarkReady returns the actor's new approval status. Idempotent: marking an
// already ready vote stays ready.
func MarkReady() ApprovalStatus {
	return ApprovalReady
}

// Reopen returns the actor's new approval status. A participant may only
// reset their own vote; the service layer enforces that the target vote
// belongs to the actor.
func Reopen() ApprovalStatus {
	return ApprovalPending
}

// AllReady reports whether consensus is reached: at least two human
// participants, every one of them voting ready. The gate is purely additive
// signaling - the caller decides what to do with a reached consensus.
func AllReady(humanParticipants []string, votes []Vote) bool {
	if len(humanParticipants) < 2 {
		return false
	}
	byUser := make(map[string]ApprovalStatus, len(votes))
	for _, v := range votes {
		byUser[v.UserID] = v.Status
	}
	for _, id := range humanParticipants {
		if byUser[id] != ApprovalReady {
			return false
		}
	}
	return true
}
