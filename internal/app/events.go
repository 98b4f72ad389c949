package app

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/example/exchange/internal/core/fault"
	"github.com/example/exchange/internal/core/workflow"
	"github.com/example/exchange/internal/ports/secondary"
)

// eventInput collects the optional attributes of one audit entry.
type eventInput struct {
	StepID  string
	ActorID string
	Actor   workflow.ActorType
	Channel string
	Message string
}

// recorder appends audit events and applies their lifecycle transitions.
// It is shared by the workflow and marketplace services so every status
// change flows through the same transition table.
type recorder struct {
	workflows secondary.WorkflowRepository
	events    secondary.EventRepository
}

// record appends an informational event without touching the status.
func (r *recorder) record(ctx context.Context, workflowID string, kind workflow.EventKind, in eventInput) error {
	actor := in.Actor
	if actor == "" {
		actor = workflow.ActorSystem
	}
	return r.events.Append(ctx, &secondary.EventRecord{
		ID:         uuid.NewString(),
		WorkflowID: workflowID,
		StepID:     in.StepID,
		EventType:  string(kind),
		ActorID:    in.ActorID,
		ActorType:  string(actor),
		Channel:    in.Channel,
		Message:    in.Message,
	})
}

// transition applies one lifecycle event: it validates the move against the
// transition table, persists the new status, and appends the audit entry.
// The caller's record is updated in place on success.
func (r *recorder) transition(ctx context.Context, wf *secondary.WorkflowRecord, kind workflow.EventKind, in eventInput) error {
	next, ok := workflow.Apply(workflow.Status(wf.Status), kind)
	if !ok {
		return fault.New(fault.InvalidTransition,
			"event %s is not valid in status %s", kind, wf.Status)
	}

	if err := r.workflows.UpdateStatus(ctx, wf.ID, string(next)); err != nil {
		return fmt.Errorf("failed to apply %s transition: %w", kind, err)
	}
	if err := r.record(ctx, wf.ID, kind, in); err != nil {
		return fmt.Errorf("failed to record %s event: %w", kind, err)
	}

	wf.Status = string(next)
	return nil
}
