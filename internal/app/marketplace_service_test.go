package app_test

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"github.com/example/exchange/internal/core/fault"
	"github.com/example/exchange/internal/ports/primary"
)

func postRequest(t *testing.T, e *env, requesterID string, capabilities ...string) string {
	t.Helper()
	if len(capabilities) == 0 {
		capabilities = []string{"research", "ppt"}
	}
	resp, err := e.marketplace.PostRequest(context.Background(), primary.PostRequestRequest{
		RequesterID:  requesterID,
		Title:        "Energy Report",
		Description:  "Research and presentation on the renewable energy market",
		Capabilities: capabilities,
	})
	if err != nil {
		t.Fatalf("PostRequest failed: %v", err)
	}
	return resp.RequestID
}

func TestMarketplaceService_PostRequest(t *testing.T) {
	e := newTestEnv(t)
	owner, _, _ := e.seedPersonas(t)
	ctx := context.Background()

	reqID := postRequest(t, e, owner, "Research", "research", " PPT ")

	detail, err := e.marketplace.GetRequest(ctx, reqID)
	if err != nil {
		t.Fatalf("GetRequest failed: %v", err)
	}
	if detail.Request.Status != "open" {
		t.Errorf("expected open, got %s", detail.Request.Status)
	}
	// Capability tags are normalized and de-duplicated.
	if len(detail.Request.Capabilities) != 2 {
		t.Errorf("expected 2 normalized capabilities, got %v", detail.Request.Capabilities)
	}
}

func TestMarketplaceService_PostRequest_Validation(t *testing.T) {
	e := newTestEnv(t)
	owner, _, _ := e.seedPersonas(t)
	ctx := context.Background()

	_, err := e.marketplace.PostRequest(ctx, primary.PostRequestRequest{
		RequesterID: owner, Title: "x", Description: "y",
	})
	if !fault.IsKind(err, fault.Validation) {
		t.Errorf("expected Validation fault for missing capabilities, got %v", err)
	}
}

func TestMarketplaceService_Volunteer_DuplicateRejected(t *testing.T) {
	e := newTestEnv(t)
	owner, peer, _ := e.seedPersonas(t)
	ctx := context.Background()

	reqID := postRequest(t, e, owner)

	if _, err := e.marketplace.Volunteer(ctx, primary.VolunteerRequest{RequestID: reqID, UserID: peer, Note: "I can help"}); err != nil {
		t.Fatalf("Volunteer failed: %v", err)
	}

	_, err := e.marketplace.Volunteer(ctx, primary.VolunteerRequest{RequestID: reqID, UserID: peer})
	if !fault.IsKind(err, fault.DuplicateVolunteer) {
		t.Errorf("expected DuplicateVolunteer, got %v", err)
	}
}

func TestMarketplaceService_Invite(t *testing.T) {
	e := newTestEnv(t)
	owner, peer, _ := e.seedPersonas(t)
	ctx := context.Background()

	reqID := postRequest(t, e, owner)

	// Only the requester can invite.
	_, err := e.marketplace.Invite(ctx, primary.InviteRequest{RequestID: reqID, ActorID: peer, InvitedUserID: owner})
	if !fault.IsKind(err, fault.InvalidTransition) {
		t.Errorf("expected InvalidTransition for non-requester invite, got %v", err)
	}

	resp, err := e.marketplace.Invite(ctx, primary.InviteRequest{RequestID: reqID, ActorID: owner, InvitedUserID: peer, Note: "please join"})
	if err != nil {
		t.Fatalf("Invite failed: %v", err)
	}
	if resp.Volunteer.Origin != "invited" {
		t.Errorf("expected origin invited, got %s", resp.Volunteer.Origin)
	}

	// An invite does not block the invitee from also volunteering organically.
	if _, err := e.marketplace.Volunteer(ctx, primary.VolunteerRequest{RequestID: reqID, UserID: peer}); err != nil {
		t.Errorf("expected organic offer after invite to pass, got %v", err)
	}
}

func TestMarketplaceService_Accept_AgentCollaborator(t *testing.T) {
	e := newTestEnv(t)
	owner, _, bot := e.seedPersonas(t)
	ctx := context.Background()

	reqID := postRequest(t, e, owner)
	vol, err := e.marketplace.Volunteer(ctx, primary.VolunteerRequest{RequestID: reqID, UserID: bot})
	if err != nil {
		t.Fatalf("Volunteer failed: %v", err)
	}

	resp, err := e.marketplace.Accept(ctx, primary.AcceptRequest{RequestID: reqID, VolunteerID: vol.VolunteerID, ActorID: owner})
	if err != nil {
		t.Fatalf("Accept failed: %v", err)
	}
	if resp.WorkflowType != "ppt_generation" {
		t.Errorf("expected inferred type ppt_generation, got %s", resp.WorkflowType)
	}

	detail, err := e.workflows.GetWorkflow(ctx, resp.WorkflowID)
	if err != nil {
		t.Fatalf("GetWorkflow failed: %v", err)
	}
	if detail.Workflow.Status != "collaborating" {
		t.Errorf("expected collaborating, got %s", detail.Workflow.Status)
	}
	if len(detail.Steps) != 1 || detail.Steps[0].StepType != "agent_collaboration" {
		t.Errorf("expected a single agent_collaboration kickoff step, got %+v", detail.Steps)
	}
	if detail.Steps[0].AssignedTo != bot {
		t.Errorf("expected step assigned to the agent, got %s", detail.Steps[0].AssignedTo)
	}

	if detail.Workflow.RequestID != reqID {
		t.Errorf("expected workflow bound to request %s, got %q", reqID, detail.Workflow.RequestID)
	}

	// Research-capable requests record the flag on the kickoff step.
	var input map[string]any
	if err := json.Unmarshal([]byte(detail.Steps[0].InputData), &input); err != nil {
		t.Fatalf("failed to parse kickoff input: %v", err)
	}
	if input["requires_research"] != true {
		t.Errorf("expected requires_research recorded on kickoff input, got %v", input)
	}

	// The agent greets the channel with research guidance.
	messages, _ := e.workflows.ListMessages(ctx, resp.WorkflowID)
	if len(messages) != 1 || messages[0].SenderID != bot {
		t.Errorf("expected an agent greeting message, got %+v", messages)
	}
	if !strings.Contains(messages[0].Body, "structured research") {
		t.Errorf("expected research guidance in greeting, got %q", messages[0].Body)
	}

	// The request is matched and the volunteer accepted.
	reqDetail, _ := e.marketplace.GetRequest(ctx, reqID)
	if reqDetail.Request.Status != "matched" {
		t.Errorf("expected request matched, got %s", reqDetail.Request.Status)
	}
	if reqDetail.Volunteers[0].Status != "accepted" {
		t.Errorf("expected volunteer accepted, got %s", reqDetail.Volunteers[0].Status)
	}

	e.assertReplayMatches(t, resp.WorkflowID)
}

func TestMarketplaceService_Accept_SecondAcceptFails(t *testing.T) {
	e := newTestEnv(t)
	owner, peer, bot := e.seedPersonas(t)
	ctx := context.Background()

	reqID := postRequest(t, e, owner)
	first, _ := e.marketplace.Volunteer(ctx, primary.VolunteerRequest{RequestID: reqID, UserID: bot})
	second, _ := e.marketplace.Volunteer(ctx, primary.VolunteerRequest{RequestID: reqID, UserID: peer})

	if _, err := e.marketplace.Accept(ctx, primary.AcceptRequest{RequestID: reqID, VolunteerID: first.VolunteerID, ActorID: owner}); err != nil {
		t.Fatalf("first Accept failed: %v", err)
	}

	// The request is matched; a second handshake is refused.
	_, err := e.marketplace.Accept(ctx, primary.AcceptRequest{RequestID: reqID, VolunteerID: second.VolunteerID, ActorID: owner})
	if !fault.IsKind(err, fault.InvalidTransition) {
		t.Errorf("expected InvalidTransition for second accept, got %v", err)
	}

	// The losing volunteer stays pending.
	detail, _ := e.marketplace.GetRequest(ctx, reqID)
	for _, v := range detail.Volunteers {
		if v.ID == second.VolunteerID && v.Status != "pending" {
			t.Errorf("expected remaining volunteer pending, got %s", v.Status)
		}
	}
}

func TestMarketplaceService_Accept_ConcurrentSingleWinner(t *testing.T) {
	e := newTestEnv(t)
	owner, peer, bot := e.seedPersonas(t)
	ctx := context.Background()

	reqID := postRequest(t, e, owner)
	first, _ := e.marketplace.Volunteer(ctx, primary.VolunteerRequest{RequestID: reqID, UserID: bot})
	second, _ := e.marketplace.Volunteer(ctx, primary.VolunteerRequest{RequestID: reqID, UserID: peer})

	// Two accepts race on the same open request; the request lock serializes
	// them and the loser fails the matched-request guard.
	start := make(chan struct{})
	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for _, volID := range []string{first.VolunteerID, second.VolunteerID} {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			<-start
			_, err := e.marketplace.Accept(ctx, primary.AcceptRequest{RequestID: reqID, VolunteerID: id, ActorID: owner})
			errs <- err
		}(volID)
	}
	close(start)
	wg.Wait()
	close(errs)

	succeeded, refused := 0, 0
	for err := range errs {
		switch {
		case err == nil:
			succeeded++
		case fault.IsKind(err, fault.InvalidTransition):
			refused++
		default:
			t.Errorf("unexpected accept error: %v", err)
		}
	}
	if succeeded != 1 || refused != 1 {
		t.Errorf("expected exactly one handshake, got %d succeeded / %d refused", succeeded, refused)
	}

	workflows, err := e.workflows.ListWorkflows(ctx, primary.WorkflowFilters{})
	if err != nil {
		t.Fatalf("ListWorkflows failed: %v", err)
	}
	if len(workflows) != 1 {
		t.Errorf("expected a single workflow for the request, got %d", len(workflows))
	}

	detail, _ := e.marketplace.GetRequest(ctx, reqID)
	accepted := 0
	for _, v := range detail.Volunteers {
		if v.Status == "accepted" {
			accepted++
		}
	}
	if accepted != 1 {
		t.Errorf("expected exactly one accepted volunteer, got %d", accepted)
	}
}

func TestMarketplaceService_Accept_NoResearchGuidance(t *testing.T) {
	e := newTestEnv(t)
	owner, _, bot := e.seedPersonas(t)
	ctx := context.Background()

	resp, err := e.marketplace.PostRequest(ctx, primary.PostRequestRequest{
		RequesterID:  owner,
		Title:        "Team offsite agenda",
		Description:  "Help me structure the agenda for the offsite",
		Capabilities: []string{"facilitation"},
	})
	if err != nil {
		t.Fatalf("PostRequest failed: %v", err)
	}
	vol, _ := e.marketplace.Volunteer(ctx, primary.VolunteerRequest{RequestID: resp.RequestID, UserID: bot})
	accepted, err := e.marketplace.Accept(ctx, primary.AcceptRequest{RequestID: resp.RequestID, VolunteerID: vol.VolunteerID, ActorID: owner})
	if err != nil {
		t.Fatalf("Accept failed: %v", err)
	}

	detail, _ := e.workflows.GetWorkflow(ctx, accepted.WorkflowID)
	var input map[string]any
	if err := json.Unmarshal([]byte(detail.Steps[0].InputData), &input); err != nil {
		t.Fatalf("failed to parse kickoff input: %v", err)
	}
	if _, ok := input["requires_research"]; ok {
		t.Errorf("expected no requires_research flag for a non-research request, got %v", input)
	}

	messages, _ := e.workflows.ListMessages(ctx, accepted.WorkflowID)
	if len(messages) != 1 {
		t.Fatalf("expected one greeting, got %d", len(messages))
	}
	if strings.Contains(messages[0].Body, "structured research") {
		t.Errorf("expected no research guidance in greeting, got %q", messages[0].Body)
	}
}

func TestMarketplaceService_Accept_RequesterOnly(t *testing.T) {
	e := newTestEnv(t)
	owner, peer, bot := e.seedPersonas(t)
	ctx := context.Background()

	reqID := postRequest(t, e, owner)
	vol, _ := e.marketplace.Volunteer(ctx, primary.VolunteerRequest{RequestID: reqID, UserID: bot})

	_, err := e.marketplace.Accept(ctx, primary.AcceptRequest{RequestID: reqID, VolunteerID: vol.VolunteerID, ActorID: peer})
	if !fault.IsKind(err, fault.InvalidTransition) {
		t.Errorf("expected InvalidTransition for non-requester accept, got %v", err)
	}
}

func TestMarketplaceService_EscalateCollaborationToResearch(t *testing.T) {
	e := newTestEnv(t)
	owner, _, bot := e.seedPersonas(t)
	ctx := context.Background()

	reqID := postRequest(t, e, owner)
	vol, _ := e.marketplace.Volunteer(ctx, primary.VolunteerRequest{RequestID: reqID, UserID: bot})
	resp, err := e.marketplace.Accept(ctx, primary.AcceptRequest{RequestID: reqID, VolunteerID: vol.VolunteerID, ActorID: owner})
	if err != nil {
		t.Fatalf("Accept failed: %v", err)
	}
	wfID := resp.WorkflowID

	// Chat first, then escalate into structured research.
	if _, err := e.workflows.PostMessage(ctx, primary.PostMessageRequest{WorkflowID: wfID, SenderID: owner, Body: "Focus on the European market"}); err != nil {
		t.Fatalf("PostMessage failed: %v", err)
	}
	if err := e.workflows.StartResearch(ctx, primary.StartResearchRequest{WorkflowID: wfID, ActorID: owner}); err != nil {
		t.Fatalf("StartResearch failed: %v", err)
	}
	if got := e.status(t, wfID); got != "awaiting_review" {
		t.Fatalf("expected awaiting_review, got %s", got)
	}

	// The research segment was appended after the kickoff step.
	detail, _ := e.workflows.GetWorkflow(ctx, wfID)
	if len(detail.Steps) != 4 {
		t.Fatalf("expected 4 steps after escalation, got %d", len(detail.Steps))
	}
	wantTypes := []string{"agent_collaboration", "automated_research", "human_review", "automated_generation"}
	for i, want := range wantTypes {
		if detail.Steps[i].StepType != want {
			t.Errorf("step %d: expected %s, got %s", i, want, detail.Steps[i].StepType)
		}
	}

	// Approve and land the artifact.
	if err := e.workflows.SubmitReview(ctx, primary.ReviewRequest{WorkflowID: wfID, ActorID: owner, Action: primary.ReviewApprove}); err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if got := e.status(t, wfID); got != "completed" {
		t.Fatalf("expected completed, got %s", got)
	}

	// Approval advanced the pipeline past the still-open kickoff step to the
	// generation step.
	detail, _ = e.workflows.GetWorkflow(ctx, wfID)
	if detail.Steps[3].Status != "completed" || detail.Steps[3].OutputData == "" {
		t.Errorf("expected generation step completed with output, got %s", detail.Steps[3].Status)
	}

	e.assertReplayMatches(t, wfID)
}

func TestMarketplaceService_SubTaskRequest(t *testing.T) {
	e := newTestEnv(t)
	owner, _, bot := e.seedPersonas(t)
	ctx := context.Background()

	reqID := postRequest(t, e, owner)
	vol, _ := e.marketplace.Volunteer(ctx, primary.VolunteerRequest{RequestID: reqID, UserID: bot})
	resp, _ := e.marketplace.Accept(ctx, primary.AcceptRequest{RequestID: reqID, VolunteerID: vol.VolunteerID, ActorID: owner})

	// A sub-task request binds to the parent workflow; accepting it yields a
	// child workflow.
	subResp, err := e.marketplace.PostRequest(ctx, primary.PostRequestRequest{
		RequesterID:      owner,
		Title:            "Compliance check of the findings",
		Description:      "Audit the regulatory claims in the research",
		Capabilities:     []string{"compliance"},
		ParentWorkflowID: resp.WorkflowID,
	})
	if err != nil {
		t.Fatalf("sub-task PostRequest failed: %v", err)
	}

	subVol, _ := e.marketplace.Volunteer(ctx, primary.VolunteerRequest{RequestID: subResp.RequestID, UserID: bot})
	child, err := e.marketplace.Accept(ctx, primary.AcceptRequest{RequestID: subResp.RequestID, VolunteerID: subVol.VolunteerID, ActorID: owner})
	if err != nil {
		t.Fatalf("sub-task Accept failed: %v", err)
	}
	if child.WorkflowType != "compliance_review" {
		t.Errorf("expected inferred compliance_review, got %s", child.WorkflowType)
	}

	detail, _ := e.workflows.GetWorkflow(ctx, child.WorkflowID)
	if detail.Workflow.ParentID != resp.WorkflowID {
		t.Errorf("expected parent %s, got %s", resp.WorkflowID, detail.Workflow.ParentID)
	}

	// Unknown parent is rejected.
	_, err = e.marketplace.PostRequest(ctx, primary.PostRequestRequest{
		RequesterID: owner, Title: "x", Description: "y",
		Capabilities: []string{"research"}, ParentWorkflowID: "WF-999",
	})
	if !fault.IsKind(err, fault.NotFound) {
		t.Errorf("expected NotFound for unknown parent, got %v", err)
	}
}
