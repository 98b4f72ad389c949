// Package sqlite_test contains integration tests for SQLite repositories.
//
// # Schema Protection
//
// This file is the SINGLE POINT where the database schema is loaded for tests.
// All test setup functions use db.GetSchemaSQL() to ensure tests run against
// the authoritative schema, preventing drift between test and production.
//
// DO NOT hardcode CREATE TABLE statements in test files. Use setupTestDB()
// and the seed* helpers instead.
package sqlite_test

import (
	"database/sql"
	"fmt"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/example/exchange/internal/db"
)

// setupTestDB creates an in-memory database with the authoritative schema.
// This is the single shared test database setup function for all repository tests.
// Uses db.GetSchemaSQL() to prevent test schemas from drifting.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	testDB, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}

	// Use the authoritative schema from schema.go
	_, err = testDB.Exec(db.GetSchemaSQL())
	if err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	t.Cleanup(func() {
		testDB.Close()
	})

	return testDB
}

// seedUser inserts a test user and returns its ID.
func seedUser(t *testing.T, db *sql.DB, id, name string) string {
	t.Helper()
	if id == "" {
		id = "USR-001"
	}
	if name == "" {
		name = "Test User"
	}
	_, err := db.Exec("INSERT INTO users (id, name, email, role) VALUES (?, ?, ?, 'researcher')",
		id, name, fmt.Sprintf("%s@example.com", id))
	if err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	return id
}

// seedAgent inserts a test agent persona and returns its ID.
func seedAgent(t *testing.T, db *sql.DB, id, name string) string {
	t.Helper()
	if id == "" {
		id = "USR-AGENT"
	}
	if name == "" {
		name = "Research Agent"
	}
	_, err := db.Exec("INSERT INTO users (id, name, email, role, is_agent) VALUES (?, ?, ?, 'agent', 1)",
		id, name, fmt.Sprintf("%s@example.com", id))
	if err != nil {
		t.Fatalf("failed to seed agent: %v", err)
	}
	return id
}

// seedWorkflow inserts a test workflow and returns its ID.
func seedWorkflow(t *testing.T, db *sql.DB, id, ownerID, title string) string {
	t.Helper()
	if id == "" {
		id = "WF-001"
	}
	if ownerID == "" {
		ownerID = "USR-001"
	}
	if title == "" {
		title = "Test Workflow"
	}
	_, err := db.Exec("INSERT INTO workflows (id, owner_id, title, workflow_type, status) VALUES (?, ?, ?, 'ppt_generation', 'pending')",
		id, ownerID, title)
	if err != nil {
		t.Fatalf("failed to seed workflow: %v", err)
	}
	return id
}

// seedRequest inserts a test marketplace request and returns its ID.
func seedRequest(t *testing.T, db *sql.DB, id, requesterID, title string) string {
	t.Helper()
	if id == "" {
		id = "REQ-001"
	}
	if requesterID == "" {
		requesterID = "USR-001"
	}
	if title == "" {
		title = "Test Request"
	}
	_, err := db.Exec("INSERT INTO work_requests (id, requester_id, title, description, capabilities, status) VALUES (?, ?, ?, 'Need help', 'research', 'open')",
		id, requesterID, title)
	if err != nil {
		t.Fatalf("failed to seed request: %v", err)
	}
	return id
}
