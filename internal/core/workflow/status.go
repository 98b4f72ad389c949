// Package workflow contains the pure business logic for the workflow
// lifecycle. This is part of the Functional Core - no I/O, only pure functions.
package workflow

// Status represents the possible states of a workflow.
type Status string

const (
	StatusPending        Status = "pending"
	StatusCollaborating  Status = "collaborating"
	StatusResearching    Status = "researching"
	StatusRefining       Status = "refining"
	StatusAwaitingReview Status = "awaiting_review"
	StatusGeneratingPPT  Status = "generating_ppt"
	StatusCompleted      Status = "completed"
	StatusFailed         Status = "failed"
)

// InFlight reports whether the status names an active run: a stage with an
// external collaborator working in the background.
func InFlight(s Status) bool {
	return s == StatusResearching || s == StatusRefining || s == StatusGeneratingPPT
}

// Terminal reports whether the workflow can no longer move without an
// explicit owner recovery action.
func Terminal(s Status) bool {
	return s == StatusCompleted || s == StatusFailed
}

// InitialStatus returns the initial status for a new workflow.
// Marketplace-originated workflows start in collaborating; direct research
// workflows start in pending.
func InitialStatus(fromMarketplace bool) Status {
	if fromMarketplace {
		return StatusCollaborating
	}
	return StatusPending
}
