package persistence

import (
	"context"
)

// initSchema creates all required tables if they don't exist.
func (s *SQLiteStore) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS projects (
		name TEXT PRIMARY KEY,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS tasks (
		project TEXT NOT NULL,
		id INTEGER NOT NULL,
		position INTEGER NOT NULL,
		name TEXT NOT NULL,
		duration INTEGER NOT NULL,
		staff INTEGER NOT NULL,
		PRIMARY KEY (project, id),
		FOREIGN KEY (project) REFERENCES projects(name) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS task_dependencies (
		project TEXT NOT NULL,
		task_id INTEGER NOT NULL,
		position INTEGER NOT NULL,
		depends_on_id INTEGER NOT NULL,
		PRIMARY KEY (project, task_id, position),
		FOREIGN KEY (project, task_id) REFERENCES tasks(project, id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_tasks_project_position ON tasks(project, position);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}
