package workflow

// Apply folds one audit event into a status. It returns the resulting status
// and whether the event caused a transition. Events that are purely
// informational (messages, notifications, completion marks) never transition.
//
// This table is the single source of truth for the lifecycle. The audit log
// replayed through Apply in chronological order reconstructs the current
// status of any workflow.
func Apply(current Status, event EventKind) (Status, bool) {
	switch event {
	case EventCreated:
		if current == "" {
			return StatusPending, true
		}
	case EventCollaborationStarted:
		if current == StatusPending {
			return StatusCollaborating, true
		}
	case EventResearchStarted:
		switch current {
		case StatusPending, StatusCollaborating, StatusFailed:
			return StatusResearching, true
		}
	case EventRefined:
		switch current {
		case StatusAwaitingReview, StatusCompleted:
			return StatusRefining, true
		}
	case EventResearchCompleted:
		switch current {
		case StatusResearching, StatusRefining:
			return StatusAwaitingReview, true
		}
	case EventApproved:
		if current == StatusAwaitingReview {
			return StatusGeneratingPPT, true
		}
	case EventGenerationRequested:
		if current == StatusFailed {
			return StatusGeneratingPPT, true
		}
	case EventGenerationCompleted:
		if current == StatusGeneratingPPT {
			return StatusCompleted, true
		}
	case EventConsensusReached:
		if current == StatusCollaborating {
			return StatusCompleted, true
		}
	case EventReopened:
		if current == StatusCompleted {
			return StatusCollaborating, true
		}
	case EventFailed:
		if InFlight(current) {
			return StatusFailed, true
		}
	}
	return current, false
}

// Replay reconstructs a workflow status from its audit history.
// Events must be in chronological order (timestamp, then insertion sequence).
func Replay(events []EventKind) Status {
	var status Status
	for _, e := range events {
		status, _ = Apply(status, e)
	}
	return status
}
