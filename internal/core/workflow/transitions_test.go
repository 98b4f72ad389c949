package workflow

import (
	"testing"
)

func TestApply(t *testing.T) {
	tests := []struct {
		name           string
		current        Status
		event          EventKind
		wantStatus     Status
		wantTransition bool
	}{
		{
			name:           "created from empty",
			current:        "",
			event:          EventCreated,
			wantStatus:     StatusPending,
			wantTransition: true,
		},
		{
			name:           "created is not re-applicable",
			current:        StatusPending,
			event:          EventCreated,
			wantStatus:     StatusPending,
			wantTransition: false,
		},
		{
			name:           "collaboration starts from pending",
			current:        StatusPending,
			event:          EventCollaborationStarted,
			wantStatus:     StatusCollaborating,
			wantTransition: true,
		},
		{
			name:           "research starts from pending",
			current:        StatusPending,
			event:          EventResearchStarted,
			wantStatus:     StatusResearching,
			wantTransition: true,
		},
		{
			name:           "research starts from collaborating",
			current:        StatusCollaborating,
			event:          EventResearchStarted,
			wantStatus:     StatusResearching,
			wantTransition: true,
		},
		{
			name:           "research retry re-enters from failed",
			current:        StatusFailed,
			event:          EventResearchStarted,
			wantStatus:     StatusResearching,
			wantTransition: true,
		},
		{
			name:           "research cannot start while generating",
			current:        StatusGeneratingPPT,
			event:          EventResearchStarted,
			wantStatus:     StatusGeneratingPPT,
			wantTransition: false,
		},
		{
			name:           "research completion lands in review",
			current:        StatusResearching,
			event:          EventResearchCompleted,
			wantStatus:     StatusAwaitingReview,
			wantTransition: true,
		},
		{
			name:           "refinement completion lands in review",
			current:        StatusRefining,
			event:          EventResearchCompleted,
			wantStatus:     StatusAwaitingReview,
			wantTransition: true,
		},
		{
			name:           "refinement from review",
			current:        StatusAwaitingReview,
			event:          EventRefined,
			wantStatus:     StatusRefining,
			wantTransition: true,
		},
		{
			name:           "refinement reopens a completed workflow",
			current:        StatusCompleted,
			event:          EventRefined,
			wantStatus:     StatusRefining,
			wantTransition: true,
		},
		{
			name:           "approval moves to generation",
			current:        StatusAwaitingReview,
			event:          EventApproved,
			wantStatus:     StatusGeneratingPPT,
			wantTransition: true,
		},
		{
			name:           "approval outside review is a no-op",
			current:        StatusResearching,
			event:          EventApproved,
			wantStatus:     StatusResearching,
			wantTransition: false,
		},
		{
			name:           "generation retry re-enters from failed",
			current:        StatusFailed,
			event:          EventGenerationRequested,
			wantStatus:     StatusGeneratingPPT,
			wantTransition: true,
		},
		{
			name:           "generation completion finishes the workflow",
			current:        StatusGeneratingPPT,
			event:          EventGenerationCompleted,
			wantStatus:     StatusCompleted,
			wantTransition: true,
		},
		{
			name:           "consensus completes a collaboration",
			current:        StatusCollaborating,
			event:          EventConsensusReached,
			wantStatus:     StatusCompleted,
			wantTransition: true,
		},
		{
			name:           "reopen returns to collaborating",
			current:        StatusCompleted,
			event:          EventReopened,
			wantStatus:     StatusCollaborating,
			wantTransition: true,
		},
		{
			name:           "failure from researching",
			current:        StatusResearching,
			event:          EventFailed,
			wantStatus:     StatusFailed,
			wantTransition: true,
		},
		{
			name:           "failure from refining",
			current:        StatusRefining,
			event:          EventFailed,
			wantStatus:     StatusFailed,
			wantTransition: true,
		},
		{
			name:           "failure from generating",
			current:        StatusGeneratingPPT,
			event:          EventFailed,
			wantStatus:     StatusFailed,
			wantTransition: true,
		},
		{
			name:           "failure outside a run is a no-op",
			current:        StatusAwaitingReview,
			event:          EventFailed,
			wantStatus:     StatusAwaitingReview,
			wantTransition: false,
		},
		{
			name:           "messages never transition",
			current:        StatusCollaborating,
			event:          EventMessagePosted,
			wantStatus:     StatusCollaborating,
			wantTransition: false,
		},
		{
			name:           "completion marks never transition",
			current:        StatusCollaborating,
			event:          EventCompletionMarked,
			wantStatus:     StatusCollaborating,
			wantTransition: false,
		},
		{
			name:           "review requests never transition",
			current:        StatusAwaitingReview,
			event:          EventReviewRequested,
			wantStatus:     StatusAwaitingReview,
			wantTransition: false,
		},
		{
			name:           "notifications never transition",
			current:        StatusResearching,
			event:          EventNotificationSent,
			wantStatus:     StatusResearching,
			wantTransition: false,
		},
		{
			name:           "generation start markers never transition",
			current:        StatusGeneratingPPT,
			event:          EventGenerationStarted,
			wantStatus:     StatusGeneratingPPT,
			wantTransition: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, transitioned := Apply(tt.current, tt.event)

			if got != tt.wantStatus {
				t.Errorf("Apply() status = %v, want %v", got, tt.wantStatus)
			}
			if transitioned != tt.wantTransition {
				t.Errorf("Apply() transitioned = %v, want %v", transitioned, tt.wantTransition)
			}
		})
	}
}

func TestReplay(t *testing.T) {
	tests := []struct {
		name   string
		events []EventKind
		want   Status
	}{
		{
			name:   "empty log",
			events: nil,
			want:   "",
		},
		{
			name: "direct pipeline to completion",
			events: []EventKind{
				EventCreated, EventResearchStarted, EventResearchCompleted,
				EventReviewRequested, EventApproved, EventGenerationCompleted,
			},
			want: StatusCompleted,
		},
		{
			name: "refinement round",
			events: []EventKind{
				EventCreated, EventResearchStarted, EventResearchCompleted,
				EventRefined, EventResearchCompleted,
			},
			want: StatusAwaitingReview,
		},
		{
			name: "failure and retry",
			events: []EventKind{
				EventCreated, EventResearchStarted, EventFailed,
				EventResearchStarted, EventResearchCompleted,
			},
			want: StatusAwaitingReview,
		},
		{
			name: "marketplace collaboration completed by consensus",
			events: []EventKind{
				EventCreated, EventCollaborationStarted,
				EventMessagePosted, EventCompletionMarked, EventCompletionMarked,
				EventConsensusReached,
			},
			want: StatusCompleted,
		},
		{
			name: "reopened collaboration",
			events: []EventKind{
				EventCreated, EventCollaborationStarted,
				EventConsensusReached, EventReopened,
			},
			want: StatusCollaborating,
		},
		{
			name: "informational noise does not move the fold",
			events: []EventKind{
				EventCreated, EventMessagePosted, EventNotificationSent,
				EventCompletionMarked,
			},
			want: StatusPending,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Replay(tt.events); got != tt.want {
				t.Errorf("Replay() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestInFlight(t *testing.T) {
	inFlight := []Status{StatusResearching, StatusRefining, StatusGeneratingPPT}
	for _, s := range inFlight {
		if !InFlight(s) {
			t.Errorf("InFlight(%v) = false, want true", s)
		}
	}
	settled := []Status{StatusPending, StatusCollaborating, StatusAwaitingReview, StatusCompleted, StatusFailed}
	for _, s := range settled {
		if InFlight(s) {
			t.Errorf("InFlight(%v) = true, want false", s)
		}
	}
}

func TestTerminal(t *testing.T) {
	if !Terminal(StatusCompleted) || !Terminal(StatusFailed) {
		t.Error("Terminal() should hold for completed and failed")
	}
	if Terminal(StatusAwaitingReview) {
		t.Error("Terminal(awaiting_review) = true, want false")
	}
}

func TestInitialStatus(t *testing.T) {
	if got := InitialStatus(true); got != StatusCollaborating {
		t.Errorf("InitialStatus(true) = %v, want collaborating", got)
	}
	if got := InitialStatus(false); got != StatusPending {
		t.Errorf("InitialStatus(false) = %v, want pending", got)
	}
}
