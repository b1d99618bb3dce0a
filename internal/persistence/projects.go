package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	goerrors "github.com/TudorHulban/go-errors"

	"github.com/aristath/crewplan/internal/scheduler"
)

// SaveProject stores specs under name, replacing any previous definition.
// Task and predecessor order are kept as given.
func (s *SQLiteStore) SaveProject(ctx context.Context, name string, specs []scheduler.TaskSpec) error {
	if name == "" {
		return goerrors.ErrValidation{
			Caller: "SaveProject",
			Issue: goerrors.ErrNilInput{
				InputName: "name",
			},
		}
	}

	// Begin transaction with serializable isolation (BEGIN IMMEDIATE)
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO projects (name, updated_at)
		VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET
			updated_at = excluded.updated_at
	`, name, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to upsert project: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM task_dependencies WHERE project = ?`, name); err != nil {
		return fmt.Errorf("failed to delete old dependencies: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM tasks WHERE project = ?`, name); err != nil {
		return fmt.Errorf("failed to delete old tasks: %w", err)
	}

	for pos, spec := range specs {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO tasks (project, id, position, name, duration, staff)
			VALUES (?, ?, ?, ?, ?, ?)
		`, name, spec.ID, pos, spec.Name, spec.Duration, spec.Staff)
		if err != nil {
			return fmt.Errorf("failed to insert task %d: %w", spec.ID, err)
		}

		for depPos, predID := range spec.Predecessors {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO task_dependencies (project, task_id, position, depends_on_id)
				VALUES (?, ?, ?, ?)
			`, name, spec.ID, depPos, predID)
			if err != nil {
				return fmt.Errorf("failed to insert dependency %d -> %d: %w", spec.ID, predID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// LoadProject returns the specs stored under name in their saved order.
func (s *SQLiteStore) LoadProject(ctx context.Context, name string) ([]scheduler.TaskSpec, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM projects WHERE name = ?`, name).Scan(&exists)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrProjectNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query project: %w", err)
	}

	specs, err := s.loadTasks(ctx, name)
	if err != nil {
		return nil, err
	}

	deps, err := s.loadDependencies(ctx, name)
	if err != nil {
		return nil, err
	}

	for i := range specs {
		specs[i].Predecessors = deps[specs[i].ID]
	}

	return specs, nil
}

func (s *SQLiteStore) loadTasks(ctx context.Context, name string) ([]scheduler.TaskSpec, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, duration, staff
		FROM tasks
		WHERE project = ?
		ORDER BY position
	`, name)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	specs := []scheduler.TaskSpec{}
	for rows.Next() {
		var spec scheduler.TaskSpec
		if err := rows.Scan(&spec.ID, &spec.Name, &spec.Duration, &spec.Staff); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		specs = append(specs, spec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tasks: %w", err)
	}

	return specs, nil
}

func (s *SQLiteStore) loadDependencies(ctx context.Context, name string) (map[int][]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT task_id, depends_on_id
		FROM task_dependencies
		WHERE project = ?
		ORDER BY task_id, position
	`, name)
	if err != nil {
		return nil, fmt.Errorf("failed to query dependencies: %w", err)
	}
	defer rows.Close()

	deps := make(map[int][]int)
	for rows.Next() {
		var taskID, depID int
		if err := rows.Scan(&taskID, &depID); err != nil {
			return nil, fmt.Errorf("failed to scan dependency: %w", err)
		}
		deps[taskID] = append(deps[taskID], depID)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating dependencies: %w", err)
	}

	return deps, nil
}

// ListProjects returns every stored project ordered by name.
func (s *SQLiteStore) ListProjects(ctx context.Context) ([]ProjectInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.name, COUNT(t.id), p.updated_at
		FROM projects p
		LEFT JOIN tasks t ON t.project = p.name
		GROUP BY p.name, p.updated_at
		ORDER BY p.name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query projects: %w", err)
	}
	defer rows.Close()

	var projects []ProjectInfo
	for rows.Next() {
		var info ProjectInfo
		var updated int64
		if err := rows.Scan(&info.Name, &info.Tasks, &updated); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		info.UpdatedAt = time.Unix(updated, 0)
		projects = append(projects, info)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating projects: %w", err)
	}

	return projects, nil
}

// DeleteProject removes a project and its tasks.
func (s *SQLiteStore) DeleteProject(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}

	// Check if project was found
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", ErrProjectNotFound, name)
	}

	return nil
}
