// Package pipeline contains the pure business logic for a workflow's ordered
// step pipeline. This is part of the Functional Core - no I/O, only pure
// functions.
package pipeline

import (
	"strings"

	"github.com/example/exchange/internal/core/fault"
)

// StepType identifies the kind of work a step represents.
type StepType string

const (
	StepAutomatedResearch   StepType = "automated_research"
	StepHumanReview         StepType = "human_review"
	StepSpecialistReview    StepType = "specialist_review"
	StepHumanResearch       StepType = "human_research"
	StepAgentCollaboration  StepType = "agent_collaboration"
	StepAutomatedGeneration StepType = "automated_generation"
	StepPresentationReview  StepType = "presentation_review"
)

// ProviderType identifies who performs a step's work.
type ProviderType string

const (
	ProviderHuman ProviderType = "human"
	ProviderAgent ProviderType = "agent"
)

// StepStatus represents the possible states of a step.
type StepStatus string

const (
	StepPending       StepStatus = "pending"
	StepInProgress    StepStatus = "in_progress"
	StepAwaitingInput StepStatus = "awaiting_input"
	StepCompleted     StepStatus = "completed"
	StepFailed        StepStatus = "failed"
	StepSkipped       StepStatus = "skipped"
)

// WorkflowType tags which step template applies to a workflow.
type WorkflowType string

const (
	TypePPTGeneration        WorkflowType = "ppt_generation"
	TypeComplianceReview     WorkflowType = "compliance_review"
	TypeDesignAlignment      WorkflowType = "design_alignment"
	TypeGeneralCollaboration WorkflowType = "general_collaboration"
)

// Spec describes one templated step: its pipeline position and who runs it.
type Spec struct {
	Order    int
	Type     StepType
	Provider ProviderType
}

// Template returns the canonical step sequence for a workflow type.
// Orders are dense starting at 0.
func Template(t WorkflowType) []Spec {
	switch t {
	case TypePPTGeneration:
		return []Spec{
			{Order: 0, Type: StepAutomatedResearch, Provider: ProviderAgent},
			{Order: 1, Type: StepHumanReview, Provider: ProviderHuman},
			{Order: 2, Type: StepAutomatedGeneration, Provider: ProviderAgent},
		}
	case TypeComplianceReview, TypeDesignAlignment:
		return []Spec{
			{Order: 0, Type: StepSpecialistReview, Provider: ProviderHuman},
		}
	default:
		return []Spec{
			{Order: 0, Type: StepHumanResearch, Provider: ProviderHuman},
		}
	}
}

// KickoffSpec returns the single collaboration step a marketplace handshake
// instantiates. Agent collaborators start in a chat-first collaboration step;
// humans start directly in the step their workflow type calls for.
func KickoffSpec(t WorkflowType, collaboratorIsAgent bool) Spec {
	if collaboratorIsAgent {
		return Spec{Order: 0, Type: StepAgentCollaboration, Provider: ProviderAgent}
	}
	return Template(t)[0]
}

// ResearchSegment returns the structured steps appended when a collaboration
// escalates into agent research, starting at the given order.
func ResearchSegment(startOrder int) []Spec {
	return []Spec{
		{Order: startOrder, Type: StepAutomatedResearch, Provider: ProviderAgent},
		{Order: startOrder + 1, Type: StepHumanReview, Provider: ProviderHuman},
		{Order: startOrder + 2, Type: StepAutomatedGeneration, Provider: ProviderAgent},
	}
}

// InferWorkflowType maps a marketplace request to a workflow type from its
// title, description, and capability tags. Capability tags are advisory
// metadata only; they never rank volunteers.
func InferWorkflowType(title, description string, capabilities []string) WorkflowType {
	haystack := strings.ToLower(title + " " + description + " " + strings.Join(capabilities, " "))

	contains := func(keywords ...string) bool {
		for _, k := range keywords {
			if strings.Contains(haystack, k) {
				return true
			}
		}
		return false
	}

	switch {
	case contains("compliance", "audit", "regulatory", "policy", "risk"):
		return TypeComplianceReview
	case contains("design", "branding", "brand", "logo", "color", "style"):
		return TypeDesignAlignment
	case contains("research", "ppt", "powerpoint", "slides", "presentation"):
		return TypePPTGeneration
	}
	return TypeGeneralCollaboration
}

// RequiresResearch reports whether a request's capabilities call for the
// automated research pipeline once an agent collaborator is bound.
func RequiresResearch(capabilities []string) bool {
	for _, c := range capabilities {
		switch strings.ToLower(strings.TrimSpace(c)) {
		case "research", "ppt", "ppt_generation", "powerpoint", "slides", "presentation":
			return true
		}
	}
	return false
}

// Snapshot is the minimal per-step view the pure pipeline functions operate
// on. The service layer builds snapshots from persistence records.
type Snapshot struct {
	ID     string
	Order  int
	Type   StepType
	Status StepStatus
}

// NextReady selects the first step in pipeline order whose status is pending
// and whose predecessor is completed or skipped (or that has no predecessor).
// Returns false when no step qualifies: the workflow is stalled pending human
// input or already finished.
func NextReady(steps []Snapshot) (Snapshot, bool) {
	byOrder := make(map[int]Snapshot, len(steps))
	for _, s := range steps {
		byOrder[s.Order] = s
	}
	for order := 0; order < len(steps); order++ {
		s, ok := byOrder[order]
		if !ok {
			break
		}
		if s.Status != StepPending {
			continue
		}
		if order == 0 {
			return s, true
		}
		prev, ok := byOrder[order-1]
		if ok && (prev.Status == StepCompleted || prev.Status == StepSkipped) {
			return s, true
		}
	}
	return Snapshot{}, false
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

// CanAdvance evaluates whether a step may be marked completed or failed.
// Rule: only an in_progress or awaiting_input step can advance.
func CanAdvance(status StepStatus) GuardResult {
	if status != StepInProgress && status != StepAwaitingInput {
		return GuardResult{
			Kind:   fault.InvalidTransition,
			Reason: "step is not in progress (current: " + string(status) + ")",
		}
	}
	return GuardResult{Allowed: true}
}

// CanReset evaluates whether a step may be returned to the pipeline for a
// refinement round. A refinement revisits the existing step rather than
// creating a new one, so only a completed or awaiting_input step qualifies.
func CanReset(status StepStatus) GuardResult {
	if status != StepCompleted && status != StepAwaitingInput && status != StepFailed {
		return GuardResult{
			Kind:   fault.InvalidTransition,
			Reason: "step cannot be revisited (current: " + string(status) + ")",
		}
	}
	return GuardResult{Allowed: true}
}
