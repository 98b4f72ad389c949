package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/example/exchange/internal/ports/secondary"
)

// MockCollaborator returns simulated collaborator responses. Used by demo
// setups and anywhere the real gateway is not available.
type MockCollaborator struct {
	// Delay simulates collaborator latency. Zero means respond immediately.
	Delay time.Duration

	// FailResearch and FailGeneration force error returns.
	FailResearch   error
	FailGeneration error
}

// NewMockCollaborator creates a mock with a short simulated delay.
func NewMockCollaborator() *MockCollaborator {
	return &MockCollaborator{Delay: 2 * time.Second}
}

func (m *MockCollaborator) wait(ctx context.Context) error {
	if m.Delay == 0 {
		return nil
	}
	select {
	case <-time.After(m.Delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *MockCollaborator) Research(ctx context.Context, req secondary.ResearchRequest) (*secondary.ResearchOutput, error) {
	if err := m.wait(ctx); err != nil {
		return nil, err
	}
	if m.FailResearch != nil {
		return nil, m.FailResearch
	}

	raw := fmt.Sprintf(`=== EXECUTIVE SUMMARY ===
[Mock] Executive summary for %q, iteration %d.

This is simulated research output. In production the collaborator would perform a live web search and return real findings.

=== SLIDE OUTLINE ===
Slide 1: Overview of %s
- Key point 1
- Key point 2
- Key point 3

Slide 2: Deep dive
- Key point 1
- Key point 2

=== RAW RESEARCH ===
[Mock] Detailed findings for %q with data points and sources.`, req.Topic, req.Iteration, req.Topic, req.Topic)

	return ParseResearchOutput(raw), nil
}

func (m *MockCollaborator) Generate(ctx context.Context, req secondary.GenerationRequest) (*secondary.GenerationOutput, error) {
	if err := m.wait(ctx); err != nil {
		return nil, err
	}
	if m.FailGeneration != nil {
		return nil, m.FailGeneration
	}

	return &secondary.GenerationOutput{
		ArtifactName: artifactName(req.Topic),
		ArtifactSize: 48_128,
	}, nil
}

// Ensure MockCollaborator implements both collaborator ports
var (
	_ secondary.ResearchCollaborator   = (*MockCollaborator)(nil)
	_ secondary.GenerationCollaborator = (*MockCollaborator)(nil)
)
