package db

// SchemaSQL is the complete schema for fresh exchange installs.
//
// This is the SINGLE SOURCE OF TRUTH for the database schema. All repository
// tests run against it via GetSchemaSQL(), so code referencing a column that
// does not exist here fails immediately with "no such column".
const SchemaSQL = `
-- Participant directory (pre-seeded personas: researchers, reviewers, agents)
CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	email TEXT NOT NULL UNIQUE,
	role TEXT NOT NULL DEFAULT 'researcher',
	is_agent INTEGER NOT NULL DEFAULT 0,
	is_active INTEGER NOT NULL DEFAULT 1,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Workflows (one collaborative unit from topic to artifact)
CREATE TABLE IF NOT EXISTS workflows (
	id TEXT PRIMARY KEY,
	owner_id TEXT NOT NULL,
	title TEXT NOT NULL,
	workflow_type TEXT NOT NULL,
	status TEXT NOT NULL CHECK(status IN ('pending', 'collaborating', 'researching', 'refining', 'awaiting_review', 'generating_ppt', 'completed', 'failed')) DEFAULT 'pending',
	run_id TEXT,
	parent_id TEXT,
	request_id TEXT,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (owner_id) REFERENCES users(id),
	FOREIGN KEY (parent_id) REFERENCES workflows(id),
	FOREIGN KEY (request_id) REFERENCES work_requests(id)
);

-- Pipeline steps (ordered units of work within a workflow)
CREATE TABLE IF NOT EXISTS workflow_steps (
	id TEXT PRIMARY KEY,
	workflow_id TEXT NOT NULL,
	step_order INTEGER NOT NULL,
	step_type TEXT NOT NULL CHECK(step_type IN ('automated_research', 'human_review', 'specialist_review', 'human_research', 'agent_collaboration', 'automated_generation', 'presentation_review')),
	provider_type TEXT NOT NULL CHECK(provider_type IN ('human', 'agent')),
	status TEXT NOT NULL CHECK(status IN ('pending', 'in_progress', 'awaiting_input', 'completed', 'failed', 'skipped')) DEFAULT 'pending',
	assigned_to TEXT,
	input_data TEXT,
	output_data TEXT,
	feedback TEXT,
	iteration_count INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (workflow_id) REFERENCES workflows(id),
	FOREIGN KEY (assigned_to) REFERENCES users(id),
	UNIQUE(workflow_id, step_order)
);

-- Audit events (append-only; seq breaks same-timestamp ties)
CREATE TABLE IF NOT EXISTS workflow_events (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	id TEXT NOT NULL UNIQUE,
	workflow_id TEXT NOT NULL,
	step_id TEXT,
	event_type TEXT NOT NULL,
	actor_id TEXT,
	actor_type TEXT NOT NULL CHECK(actor_type IN ('human', 'agent', 'system')) DEFAULT 'system',
	channel TEXT,
	message TEXT,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (workflow_id) REFERENCES workflows(id),
	FOREIGN KEY (step_id) REFERENCES workflow_steps(id),
	FOREIGN KEY (actor_id) REFERENCES users(id)
);

-- Chat messages (communicative only; never drive transitions)
CREATE TABLE IF NOT EXISTS workflow_messages (
	id TEXT PRIMARY KEY,
	workflow_id TEXT NOT NULL,
	sender_id TEXT,
	sender_type TEXT NOT NULL CHECK(sender_type IN ('human', 'agent', 'system')) DEFAULT 'human',
	channel TEXT NOT NULL DEFAULT 'web',
	body TEXT NOT NULL,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (workflow_id) REFERENCES workflows(id),
	FOREIGN KEY (sender_id) REFERENCES users(id)
);

-- Completion-consensus votes (one row per workflow participant)
CREATE TABLE IF NOT EXISTS workflow_approvals (
	id TEXT PRIMARY KEY,
	workflow_id TEXT NOT NULL,
	user_id TEXT NOT NULL,
	status TEXT NOT NULL CHECK(status IN ('pending', 'ready', 'approved')) DEFAULT 'pending',
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (workflow_id) REFERENCES workflows(id),
	FOREIGN KEY (user_id) REFERENCES users(id),
	UNIQUE(workflow_id, user_id)
);

-- Marketplace requests (posted needs awaiting a handshake)
CREATE TABLE IF NOT EXISTS work_requests (
	id TEXT PRIMARY KEY,
	requester_id TEXT NOT NULL,
	title TEXT NOT NULL,
	description TEXT NOT NULL,
	capabilities TEXT NOT NULL,
	status TEXT NOT NULL CHECK(status IN ('open', 'matched', 'closed')) DEFAULT 'open',
	parent_workflow_id TEXT,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (requester_id) REFERENCES users(id),
	FOREIGN KEY (parent_workflow_id) REFERENCES workflows(id)
);

-- Volunteer entries (organic offers and direct invites share one model)
CREATE TABLE IF NOT EXISTS volunteers (
	id TEXT PRIMARY KEY,
	request_id TEXT NOT NULL,
	user_id TEXT NOT NULL,
	note TEXT,
	origin TEXT NOT NULL CHECK(origin IN ('volunteered', 'invited')) DEFAULT 'volunteered',
	status TEXT NOT NULL CHECK(status IN ('pending', 'accepted')) DEFAULT 'pending',
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (request_id) REFERENCES work_requests(id),
	FOREIGN KEY (user_id) REFERENCES users(id)
);

CREATE INDEX IF NOT EXISTS idx_steps_workflow ON workflow_steps(workflow_id, step_order);
CREATE INDEX IF NOT EXISTS idx_events_workflow ON workflow_events(workflow_id, created_at, seq);
CREATE INDEX IF NOT EXISTS idx_messages_workflow ON workflow_messages(workflow_id, created_at);
CREATE INDEX IF NOT EXISTS idx_volunteers_request ON volunteers(request_id);
`

// GetSchemaSQL returns the authoritative schema. Tests must use this instead
// of hardcoding CREATE TABLE statements.
func GetSchemaSQL() string {
	return SchemaSQL
}
