// Package app contains application services implementing the primary ports.
// Services orchestrate between the functional core and the secondary ports.
package app

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RunManager serializes mutating operations per workflow and hosts background
// collaborator runs. Every mutating service call on a workflow takes that
// workflow's lock, so concurrent actors interleave at operation granularity
// and each one sees the state the previous operation left behind.
type RunManager struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex

	// inline makes Dispatch run the task on the calling goroutine.
	// Tests use this for deterministic ordering.
	inline bool

	wg     sync.WaitGroup
	logger *zap.Logger
}

// NewRunManager creates a run manager that dispatches tasks in the background.
func NewRunManager(logger *zap.Logger) *RunManager {
	return &RunManager{locks: make(map[string]*sync.Mutex), logger: logger}
}

// NewInlineRunManager creates a run manager that executes tasks synchronously.
func NewInlineRunManager(logger *zap.Logger) *RunManager {
	return &RunManager{locks: make(map[string]*sync.Mutex), inline: true, logger: logger}
}

// NewRunID returns a fresh run identifier.
func NewRunID() string {
	return uuid.NewString()
}

func (m *RunManager) lockFor(workflowID string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locks[workflowID]
	if !ok {
		l = &sync.Mutex{}
		m.locks[workflowID] = l
	}
	return l
}

// Lock acquires the workflow's lock and returns the unlock function.
func (m *RunManager) Lock(workflowID string) func() {
	l := m.lockFor(workflowID)
	l.Lock()
	return l.Unlock
}

// Dispatch runs a collaborator task for a workflow. The task itself must take
// the workflow lock only around its persistence writes, not around the
// (potentially long) collaborator call, so cancel and status reads stay
// responsive while a run is in flight.
func (m *RunManager) Dispatch(workflowID, runID string, task func(ctx context.Context)) {
	if m.inline {
		task(context.Background())
		return
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.logger.Info("run dispatched",
			zap.String("workflow_id", workflowID),
			zap.String("run_id", runID))
		task(context.Background())
	}()
}

// Wait blocks until all dispatched runs have finished.
func (m *RunManager) Wait() {
	m.wg.Wait()
}
