package app_test

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/example/exchange/internal/adapters/agent"
	"github.com/example/exchange/internal/adapters/sqlite"
	"github.com/example/exchange/internal/app"
	"github.com/example/exchange/internal/core/workflow"
	"github.com/example/exchange/internal/db"
	"github.com/example/exchange/internal/ports/primary"
)

// env wires the services against an in-memory database, the mock
// collaborator, and an inline run manager so collaborator runs execute
// synchronously inside the test.
type env struct {
	db           *sql.DB
	mock         *agent.MockCollaborator
	workflows    *app.WorkflowService
	marketplace  *app.MarketplaceService
	directory    *app.DirectoryService
	eventRepo    *sqlite.EventRepository
	stepRepo     *sqlite.StepRepository
	workflowRepo *sqlite.WorkflowRepository
}

func newTestEnv(t *testing.T) *env {
	t.Helper()

	testDB, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	// A :memory: database exists per connection; the pool must stay at one.
	testDB.SetMaxOpenConns(1)
	if _, err := testDB.Exec(db.GetSchemaSQL()); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}
	t.Cleanup(func() { testDB.Close() })

	workflowRepo := sqlite.NewWorkflowRepository(testDB)
	stepRepo := sqlite.NewStepRepository(testDB)
	eventRepo := sqlite.NewEventRepository(testDB)
	messageRepo := sqlite.NewMessageRepository(testDB)
	approvalRepo := sqlite.NewApprovalRepository(testDB)
	requestRepo := sqlite.NewRequestRepository(testDB)
	volunteerRepo := sqlite.NewVolunteerRepository(testDB)
	userRepo := sqlite.NewUserRepository(testDB)

	logger := zap.NewNop()
	runs := app.NewInlineRunManager(logger)
	mock := &agent.MockCollaborator{}

	return &env{
		db:   testDB,
		mock: mock,
		workflows: app.NewWorkflowService(
			workflowRepo, stepRepo, eventRepo, messageRepo, approvalRepo,
			requestRepo, userRepo, mock, mock, runs, logger),
		marketplace: app.NewMarketplaceService(
			requestRepo, volunteerRepo, userRepo, workflowRepo, stepRepo,
			messageRepo, approvalRepo, eventRepo, runs, logger),
		directory:    app.NewDirectoryService(userRepo),
		eventRepo:    eventRepo,
		stepRepo:     stepRepo,
		workflowRepo: workflowRepo,
	}
}

// seedPersonas registers the standard test cast: two humans and one agent.
// Returns their ids in that order.
func (e *env) seedPersonas(t *testing.T) (string, string, string) {
	t.Helper()
	ctx := context.Background()

	owner, err := e.directory.SeedUser(ctx, primary.SeedUserRequest{Name: "Ada Owner", Email: "ada@example.com", Role: "researcher"})
	if err != nil {
		t.Fatalf("failed to seed owner: %v", err)
	}
	peer, err := e.directory.SeedUser(ctx, primary.SeedUserRequest{Name: "Ben Peer", Email: "ben@example.com", Role: "reviewer"})
	if err != nil {
		t.Fatalf("failed to seed peer: %v", err)
	}
	bot, err := e.directory.SeedUser(ctx, primary.SeedUserRequest{Name: "Research Agent", Email: "agent@example.com", Role: "agent", IsAgent: true})
	if err != nil {
		t.Fatalf("failed to seed agent: %v", err)
	}
	return owner.ID, peer.ID, bot.ID
}

// status fetches the current workflow status.
func (e *env) status(t *testing.T, workflowID string) string {
	t.Helper()
	wf, err := e.workflowRepo.GetByID(context.Background(), workflowID)
	if err != nil {
		t.Fatalf("failed to fetch workflow: %v", err)
	}
	return wf.Status
}

// replayStatus reconstructs the status from the audit log.
func (e *env) replayStatus(t *testing.T, workflowID string) string {
	t.Helper()
	events, err := e.eventRepo.ListByWorkflow(context.Background(), workflowID, true)
	if err != nil {
		t.Fatalf("failed to list events: %v", err)
	}
	kinds := make([]workflow.EventKind, 0, len(events))
	for _, e := range events {
		kinds = append(kinds, workflow.EventKind(e.EventType))
	}
	return string(workflow.Replay(kinds))
}

// eventTypes lists the workflow's audit event types in chronological order.
func (e *env) eventTypes(t *testing.T, workflowID string) []string {
	t.Helper()
	events, err := e.eventRepo.ListByWorkflow(context.Background(), workflowID, true)
	if err != nil {
		t.Fatalf("failed to list events: %v", err)
	}
	types := make([]string, 0, len(events))
	for _, ev := range events {
		types = append(types, ev.EventType)
	}
	return types
}

// assertReplayMatches checks the core replay property: the audit log folded
// through the transition table must land on the persisted status.
func (e *env) assertReplayMatches(t *testing.T, workflowID string) {
	t.Helper()
	stored := e.status(t, workflowID)
	replayed := e.replayStatus(t, workflowID)
	if stored != replayed {
		t.Errorf("replay mismatch: stored %q, replayed %q", stored, replayed)
	}
}

// forceRun plants an active run directly, for cancel tests where the inline
// runner would otherwise finish before the test can act.
func (e *env) forceRun(t *testing.T, workflowID, status, runID string) {
	t.Helper()
	_, err := e.db.Exec("UPDATE workflows SET status = ?, run_id = ? WHERE id = ?", status, runID, workflowID)
	if err != nil {
		t.Fatalf("failed to force run state: %v", err)
	}
}
