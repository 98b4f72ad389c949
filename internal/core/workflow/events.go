package workflow

// EventKind identifies one entry type in the append-only audit log.
type EventKind string

const (
	EventCreated              EventKind = "created"
	EventCollaborationStarted EventKind = "collaboration_started"
	EventResearchStarted      EventKind = "research_started"
	EventResearchCompleted    EventKind = "research_completed"
	EventReviewRequested      EventKind = "review_requested"
	EventApproved             EventKind = "approved"
	EventRefined              EventKind = "refined"
	EventGenerationRequested  EventKind = "generation_requested"
	EventGenerationStarted    EventKind = "generation_started"
	EventGenerationCompleted  EventKind = "generation_completed"
	EventMessagePosted        EventKind = "message_posted"
	EventCompletionMarked     EventKind = "completion_marked"
	EventConsensusReached     EventKind = "consensus_reached"
	EventReopened             EventKind = "reopened"
	EventFailed               EventKind = "failed"
	EventNotificationSent     EventKind = "notification_sent"
)

// ActorType identifies who performed an action.
type ActorType string

const (
	ActorHuman  ActorType = "human"
	ActorAgent  ActorType = "agent"
	ActorSystem ActorType = "system"
)
