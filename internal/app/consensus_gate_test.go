package app_test

import (
	"context"
	"testing"

	"github.com/example/exchange/internal/core/fault"
	"github.com/example/exchange/internal/ports/primary"
)

// matchHumanPair runs the handshake with a human collaborator so the
// consensus gate has two human participants. Returns the workflow id and the
// originating request id.
func matchHumanPair(t *testing.T, e *env, owner, peer string) (string, string) {
	t.Helper()
	ctx := context.Background()

	resp, err := e.marketplace.PostRequest(ctx, primary.PostRequestRequest{
		RequesterID:  owner,
		Title:        "Quarterly planning workshop",
		Description:  "Facilitate the team planning session and capture outcomes",
		Capabilities: []string{"facilitation"},
	})
	if err != nil {
		t.Fatalf("PostRequest failed: %v", err)
	}
	vol, err := e.marketplace.Volunteer(ctx, primary.VolunteerRequest{RequestID: resp.RequestID, UserID: peer})
	if err != nil {
		t.Fatalf("Volunteer failed: %v", err)
	}
	accepted, err := e.marketplace.Accept(ctx, primary.AcceptRequest{RequestID: resp.RequestID, VolunteerID: vol.VolunteerID, ActorID: owner})
	if err != nil {
		t.Fatalf("Accept failed: %v", err)
	}
	if accepted.WorkflowType != "general_collaboration" {
		t.Fatalf("expected general_collaboration, got %s", accepted.WorkflowType)
	}
	return accepted.WorkflowID, resp.RequestID
}

// requestStatus fetches the current marketplace request status.
func requestStatus(t *testing.T, e *env, requestID string) string {
	t.Helper()
	detail, err := e.marketplace.GetRequest(context.Background(), requestID)
	if err != nil {
		t.Fatalf("GetRequest failed: %v", err)
	}
	return detail.Request.Status
}

func TestConsensusGate_TwoHumansComplete(t *testing.T) {
	e := newTestEnv(t)
	owner, peer, _ := e.seedPersonas(t)
	ctx := context.Background()

	wfID, reqID := matchHumanPair(t, e, owner, peer)

	detail, _ := e.workflows.GetWorkflow(ctx, wfID)
	if len(detail.Approvals) != 2 {
		t.Fatalf("expected 2 seeded approvals, got %d", len(detail.Approvals))
	}
	if len(detail.Steps) != 1 || detail.Steps[0].StepType != "human_research" {
		t.Fatalf("expected a human_research kickoff step, got %+v", detail.Steps)
	}

	// One ready vote is not consensus.
	if err := e.workflows.MarkReady(ctx, primary.CompletionRequest{WorkflowID: wfID, ActorID: owner}); err != nil {
		t.Fatalf("MarkReady failed: %v", err)
	}
	if got := e.status(t, wfID); got != "collaborating" {
		t.Fatalf("expected collaborating after one vote, got %s", got)
	}
	if got := requestStatus(t, e, reqID); got != "matched" {
		t.Fatalf("expected request still matched before consensus, got %s", got)
	}

	// Re-marking is idempotent.
	if err := e.workflows.MarkReady(ctx, primary.CompletionRequest{WorkflowID: wfID, ActorID: owner}); err != nil {
		t.Fatalf("second MarkReady failed: %v", err)
	}

	// The second human closes the gate.
	if err := e.workflows.MarkReady(ctx, primary.CompletionRequest{WorkflowID: wfID, ActorID: peer}); err != nil {
		t.Fatalf("peer MarkReady failed: %v", err)
	}
	if got := e.status(t, wfID); got != "completed" {
		t.Fatalf("expected completed after consensus, got %s", got)
	}

	detail, _ = e.workflows.GetWorkflow(ctx, wfID)
	if detail.Steps[0].Status != "completed" {
		t.Errorf("expected open step closed by consensus, got %s", detail.Steps[0].Status)
	}
	for _, a := range detail.Approvals {
		if a.Status != "approved" {
			t.Errorf("expected vote upgraded to approved, got %s for %s", a.Status, a.UserID)
		}
	}

	// Consensus closes the originating request and notifies the participants.
	if got := requestStatus(t, e, reqID); got != "closed" {
		t.Errorf("expected request closed by consensus, got %s", got)
	}
	notified := false
	for _, got := range e.eventTypes(t, wfID) {
		if got == "notification_sent" {
			notified = true
		}
	}
	if !notified {
		t.Error("expected notification_sent event after consensus")
	}

	e.assertReplayMatches(t, wfID)
}

func TestConsensusGate_AgentCannotVote(t *testing.T) {
	e := newTestEnv(t)
	owner, _, bot := e.seedPersonas(t)
	ctx := context.Background()

	reqID := postRequest(t, e, owner)
	vol, _ := e.marketplace.Volunteer(ctx, primary.VolunteerRequest{RequestID: reqID, UserID: bot})
	resp, err := e.marketplace.Accept(ctx, primary.AcceptRequest{RequestID: reqID, VolunteerID: vol.VolunteerID, ActorID: owner})
	if err != nil {
		t.Fatalf("Accept failed: %v", err)
	}

	err = e.workflows.MarkReady(ctx, primary.CompletionRequest{WorkflowID: resp.WorkflowID, ActorID: bot})
	if !fault.IsKind(err, fault.InvalidTransition) {
		t.Errorf("expected InvalidTransition for agent vote, got %v", err)
	}

	// A single human can never reach the two-human quorum.
	if err := e.workflows.MarkReady(ctx, primary.CompletionRequest{WorkflowID: resp.WorkflowID, ActorID: owner}); err != nil {
		t.Fatalf("owner MarkReady failed: %v", err)
	}
	if got := e.status(t, resp.WorkflowID); got != "collaborating" {
		t.Errorf("expected collaborating with a lone human, got %s", got)
	}
}

func TestConsensusGate_DirectWorkflowHasNoGate(t *testing.T) {
	e := newTestEnv(t)
	owner, _, _ := e.seedPersonas(t)
	ctx := context.Background()

	resp, err := e.workflows.CreateWorkflow(ctx, primary.CreateWorkflowRequest{
		OwnerID: owner, Title: "Solar market deck", WorkflowType: "ppt_generation", Topic: "solar market",
	})
	if err != nil {
		t.Fatalf("CreateWorkflow failed: %v", err)
	}

	err = e.workflows.MarkReady(ctx, primary.CompletionRequest{WorkflowID: resp.WorkflowID, ActorID: owner})
	if !fault.IsKind(err, fault.InvalidTransition) {
		t.Errorf("expected InvalidTransition for ungated workflow, got %v", err)
	}
}

func TestConsensusGate_Reopen(t *testing.T) {
	e := newTestEnv(t)
	owner, peer, _ := e.seedPersonas(t)
	ctx := context.Background()

	wfID, reqID := matchHumanPair(t, e, owner, peer)

	for _, actor := range []string{owner, peer} {
		if err := e.workflows.MarkReady(ctx, primary.CompletionRequest{WorkflowID: wfID, ActorID: actor}); err != nil {
			t.Fatalf("MarkReady failed: %v", err)
		}
	}
	if got := e.status(t, wfID); got != "completed" {
		t.Fatalf("expected completed, got %s", got)
	}

	if got := requestStatus(t, e, reqID); got != "closed" {
		t.Fatalf("expected request closed by consensus, got %s", got)
	}

	// Any participant can pull a completed collaboration back open; the
	// request follows it back to matched.
	if err := e.workflows.Reopen(ctx, primary.CompletionRequest{WorkflowID: wfID, ActorID: peer}); err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	if got := e.status(t, wfID); got != "collaborating" {
		t.Fatalf("expected collaborating after reopen, got %s", got)
	}
	if got := requestStatus(t, e, reqID); got != "matched" {
		t.Errorf("expected request reopened to matched, got %s", got)
	}

	detail, _ := e.workflows.GetWorkflow(ctx, wfID)
	for _, a := range detail.Approvals {
		switch a.UserID {
		case peer:
			if a.Status != "pending" {
				t.Errorf("expected reopener's vote reset to pending, got %s", a.Status)
			}
		case owner:
			if a.Status != "approved" {
				t.Errorf("expected other vote untouched, got %s", a.Status)
			}
		}
	}

	// Withdrawing a vote before completion is informational only.
	if err := e.workflows.MarkReady(ctx, primary.CompletionRequest{WorkflowID: wfID, ActorID: peer}); err != nil {
		t.Fatalf("MarkReady failed: %v", err)
	}
	if got := e.status(t, wfID); got != "collaborating" {
		t.Fatalf("expected collaborating, got %s", got)
	}
	if err := e.workflows.Reopen(ctx, primary.CompletionRequest{WorkflowID: wfID, ActorID: peer}); err != nil {
		t.Fatalf("Reopen before completion failed: %v", err)
	}
	if got := e.status(t, wfID); got != "collaborating" {
		t.Errorf("expected collaborating, got %s", got)
	}

	e.assertReplayMatches(t, wfID)
}
