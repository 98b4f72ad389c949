package agent

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/example/exchange/internal/core/fault"
	"github.com/example/exchange/internal/ports/secondary"
)

func newTestGateway(t *testing.T, handler http.HandlerFunc) *Gateway {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewGateway(GatewayConfig{BaseURL: srv.URL, Token: "test-token"}, zap.NewNop())
}

func TestGateway_Research(t *testing.T) {
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/hooks/agent" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-token" {
			t.Errorf("missing bearer token")
		}

		var hook map[string]any
		if err := json.NewDecoder(r.Body).Decode(&hook); err != nil {
			t.Fatalf("failed to decode hook: %v", err)
		}
		if hook["sessionKey"] != "research-WF-001" {
			t.Errorf("expected session key research-WF-001, got %v", hook["sessionKey"])
		}

		json.NewEncoder(w).Encode(map[string]any{
			"status": "ok",
			"result": map[string]any{
				"payloads": []map[string]any{
					{"text": "partial"},
					{"text": "=== EXECUTIVE SUMMARY ===\nFinal summary."},
				},
			},
		})
	})

	out, err := gw.Research(context.Background(), secondary.ResearchRequest{
		RunID:      "run-1",
		WorkflowID: "WF-001",
		Topic:      "renewable energy",
	})
	if err != nil {
		t.Fatalf("Research failed: %v", err)
	}
	// The last payload wins.
	if out.Summary != "Final summary." {
		t.Errorf("unexpected summary: %q", out.Summary)
	}
}

func TestGateway_Research_Unauthorized(t *testing.T) {
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := gw.Research(context.Background(), secondary.ResearchRequest{WorkflowID: "WF-001", Topic: "x"})
	if !fault.IsKind(err, fault.CollaboratorFailure) {
		t.Errorf("expected CollaboratorFailure, got %v", err)
	}
}

func TestGateway_Research_FailedStatus(t *testing.T) {
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"status": "error"})
	})

	_, err := gw.Research(context.Background(), secondary.ResearchRequest{WorkflowID: "WF-001", Topic: "x"})
	if !fault.IsKind(err, fault.CollaboratorFailure) {
		t.Errorf("expected CollaboratorFailure, got %v", err)
	}
}

func TestGateway_Generate(t *testing.T) {
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"status": "ok",
			"reply":  "presentation generated",
		})
	})

	out, err := gw.Generate(context.Background(), secondary.GenerationRequest{
		RunID:        "run-2",
		WorkflowID:   "WF-001",
		Topic:        "Renewable Energy Trends",
		ResearchText: "findings",
	})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if out.ArtifactName != "renewable_energy_trends.pptx" {
		t.Errorf("unexpected artifact name: %q", out.ArtifactName)
	}
}

func TestGateway_Unreachable(t *testing.T) {
	gw := NewGateway(GatewayConfig{BaseURL: "http://127.0.0.1:1", Token: "t"}, zap.NewNop())

	_, err := gw.Research(context.Background(), secondary.ResearchRequest{WorkflowID: "WF-001", Topic: "x"})
	if !fault.IsKind(err, fault.CollaboratorFailure) {
		t.Errorf("expected CollaboratorFailure, got %v", err)
	}
}
