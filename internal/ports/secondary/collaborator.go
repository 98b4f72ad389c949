package secondary

import "context"

// ResearchRequest is the contract for invoking the research collaborator.
// RunID lets late results be matched to the run that requested them, or
// discarded when the run was cancelled or superseded.
type ResearchRequest struct {
	RunID      string
	WorkflowID string
	Topic      string
	Context    string // request description plus collaboration chat context
	Feedback   string // reviewer feedback, set on refinement rounds
	Iteration  int    // refinement round number, 0 for the first run
}

// ResearchOutput is the research collaborator's success payload.
type ResearchOutput struct {
	Summary      string
	SlideOutline string
	RawResearch  string
	RawText      string
}

// ResearchCollaborator defines the secondary port for the external research
// service. The call blocks until the collaborator finishes or errs; the
// application invokes it from a background run, never inline.
type ResearchCollaborator interface {
	Research(ctx context.Context, req ResearchRequest) (*ResearchOutput, error)
}

// GenerationRequest is the contract for invoking the generation collaborator.
type GenerationRequest struct {
	RunID        string
	WorkflowID   string
	Topic        string
	ResearchText string
}

// GenerationOutput is the generation collaborator's success payload.
type GenerationOutput struct {
	ArtifactName string
	ArtifactSize int64
}

// GenerationCollaborator defines the secondary port for the external artifact
// generation service.
type GenerationCollaborator interface {
	Generate(ctx context.Context, req GenerationRequest) (*GenerationOutput, error)
}
