// Package agent contains adapters for the external collaborator gateway.
package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/example/exchange/internal/core/fault"
	"github.com/example/exchange/internal/ports/secondary"
)

// GatewayConfig holds connection settings for the collaborator gateway.
type GatewayConfig struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// Gateway invokes the external agent over the gateway's hook API. One Gateway
// serves both the research and generation collaborator ports; the prompt and
// session key distinguish the two.
type Gateway struct {
	cfg    GatewayConfig
	client *http.Client
	logger *zap.Logger
}

// NewGateway creates a gateway client.
func NewGateway(cfg GatewayConfig, logger *zap.Logger) *Gateway {
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Minute
	}
	return &Gateway{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

type hookRequest struct {
	Message        string `json:"message"`
	Name           string `json:"name,omitempty"`
	SessionKey     string `json:"sessionKey,omitempty"`
	WakeMode       string `json:"wakeMode"`
	Deliver        bool   `json:"deliver"`
	TimeoutSeconds int    `json:"timeoutSeconds"`
}

type hookResponse struct {
	Status string `json:"status"`
	Reply  string `json:"reply"`
	Result struct {
		Payloads []struct {
			Text string `json:"text"`
		} `json:"payloads"`
	} `json:"result"`
}

// Research runs a research or refinement round against the gateway.
// The workflow id doubles as the session key so refinement rounds reuse the
// collaborator's conversation context.
func (g *Gateway) Research(ctx context.Context, req secondary.ResearchRequest) (*secondary.ResearchOutput, error) {
	var prompt string
	if req.Iteration > 0 && req.Feedback != "" {
		prompt = buildRefinementPrompt(req.Feedback)
	} else {
		prompt = buildResearchPrompt(req.Topic, req.Context, defaultSlideCount)
	}

	g.logger.Info("invoking research collaborator",
		zap.String("workflow_id", req.WorkflowID),
		zap.String("run_id", req.RunID),
		zap.Int("iteration", req.Iteration))

	text, err := g.invoke(ctx, hookRequest{
		Message:        prompt,
		Name:           "research",
		SessionKey:     "research-" + req.WorkflowID,
		WakeMode:       "now",
		TimeoutSeconds: int(g.cfg.Timeout.Seconds()),
	})
	if err != nil {
		return nil, err
	}

	return ParseResearchOutput(text), nil
}

// Generate runs artifact generation against the gateway.
func (g *Gateway) Generate(ctx context.Context, req secondary.GenerationRequest) (*secondary.GenerationOutput, error) {
	g.logger.Info("invoking generation collaborator",
		zap.String("workflow_id", req.WorkflowID),
		zap.String("run_id", req.RunID))

	text, err := g.invoke(ctx, hookRequest{
		Message:        buildGenerationPrompt(req.Topic, req.ResearchText),
		Name:           "generation",
		SessionKey:     "generation-" + req.WorkflowID,
		WakeMode:       "now",
		TimeoutSeconds: int(g.cfg.Timeout.Seconds()),
	})
	if err != nil {
		return nil, err
	}

	return &secondary.GenerationOutput{
		ArtifactName: artifactName(req.Topic),
		ArtifactSize: int64(len(text)),
	}, nil
}

func (g *Gateway) invoke(ctx context.Context, hook hookRequest) (string, error) {
	body, err := json.Marshal(hook)
	if err != nil {
		return "", fmt.Errorf("failed to encode hook request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.BaseURL+"/hooks/agent", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build hook request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+g.cfg.Token)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return "", fault.New(fault.CollaboratorFailure, "gateway unreachable: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fault.New(fault.CollaboratorFailure, "failed to read gateway response: %v", err)
	}

	switch resp.StatusCode {
	case http.StatusOK, http.StatusAccepted:
	case http.StatusUnauthorized:
		return "", fault.New(fault.CollaboratorFailure, "gateway authentication failed")
	default:
		return "", fault.New(fault.CollaboratorFailure, "gateway returned %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var parsed hookResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		// Plain text responses pass through untouched.
		return strings.TrimSpace(string(raw)), nil
	}

	if parsed.Status != "" && parsed.Status != "ok" {
		return "", fault.New(fault.CollaboratorFailure, "gateway run failed with status %q", parsed.Status)
	}

	// The last non-empty payload is the most complete one.
	text := parsed.Reply
	for _, p := range parsed.Result.Payloads {
		if p.Text != "" {
			text = p.Text
		}
	}
	if text == "" {
		return "", fault.New(fault.CollaboratorFailure, "gateway returned an empty response")
	}

	return text, nil
}

func artifactName(topic string) string {
	name := strings.ToLower(strings.TrimSpace(topic))
	name = strings.ReplaceAll(name, " ", "_")
	return name + ".pptx"
}

// Ensure Gateway implements both collaborator ports
var (
	_ secondary.ResearchCollaborator   = (*Gateway)(nil)
	_ secondary.GenerationCollaborator = (*Gateway)(nil)
)
