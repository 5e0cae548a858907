package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS notifications (
	id         INTEGER NOT NULL,
	user_id    INTEGER NOT NULL,
	title      TEXT NOT NULL DEFAULT '',
	message    TEXT NOT NULL DEFAULT '',
	type       TEXT NOT NULL DEFAULT 'info',
	is_read    INTEGER NOT NULL DEFAULT 0 CHECK(is_read IN (0, 1)),
	created_at DATETIME NOT NULL,
	PRIMARY KEY (id, user_id)
);

CREATE INDEX IF NOT EXISTS idx_notifications_user ON notifications(user_id, created_at);

CREATE TABLE IF NOT EXISTS task_completions (
	task_id         INTEGER NOT NULL,
	user_id         INTEGER NOT NULL,
	hourly          INTEGER NOT NULL DEFAULT 0,
	daily           INTEGER NOT NULL DEFAULT 0,
	last_completion DATETIME NOT NULL,
	PRIMARY KEY (task_id, user_id)
);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
	{
		version: 2,
		sql: `
CREATE TABLE IF NOT EXISTS tasks (
	id         INTEGER NOT NULL,
	user_id    INTEGER NOT NULL,
	position   INTEGER NOT NULL,
	payload    TEXT NOT NULL,
	fetched_at DATETIME NOT NULL,
	PRIMARY KEY (id, user_id)
);

CREATE INDEX IF NOT EXISTS idx_tasks_user_position ON tasks(user_id, position);

INSERT INTO schema_version (version) VALUES (2);
`,
	},
}
