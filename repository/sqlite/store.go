package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/fastygo/tasks/domain"
	"github.com/fastygo/tasks/repository"
)

const schema = `
CREATE TABLE IF NOT EXISTS tasks (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	id TEXT NOT NULL UNIQUE,
	title TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	completed INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_tasks_completed ON tasks(completed);`

// Store is the SQLite-backed local task store.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewStore creates the tasks table when it does not exist.
func NewStore(ctx context.Context, db *sql.DB, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("create tasks table: %w", err)
	}
	return &Store{db: db, logger: logger}, nil
}

// GetTasks returns every stored task, or domain.ErrDataNotAvailable when the
// table is empty.
func (s *Store) GetTasks(ctx context.Context) ([]domain.Task, error) {
	const query = `SELECT id, title, description, completed FROM tasks ORDER BY seq`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			s.logger.Warn("skipping unreadable task row", zap.Error(err))
			continue
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}
	if len(tasks) == 0 {
		return nil, domain.ErrDataNotAvailable
	}
	return tasks, nil
}

func (s *Store) GetTask(ctx context.Context, id string) (domain.Task, error) {
	const query = `SELECT id, title, description, completed FROM tasks WHERE id = ?`

	task, err := scanTask(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Task{}, domain.ErrDataNotAvailable
		}
		return domain.Task{}, fmt.Errorf("query task %s: %w", id, err)
	}
	return task, nil
}

// SaveTask upserts by id; an existing row keeps its position.
func (s *Store) SaveTask(ctx context.Context, task domain.Task) error {
	const query = `
	INSERT INTO tasks (id, title, description, completed)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		title = excluded.title,
		description = excluded.description,
		completed = excluded.completed`

	if _, err := s.db.ExecContext(ctx, query,
		task.ID(),
		task.Title(),
		task.Description(),
		boolToInt(task.Completed()),
	); err != nil {
		return fmt.Errorf("save task: %w", err)
	}
	return nil
}

func (s *Store) CompleteTask(ctx context.Context, task domain.Task) error {
	return s.SaveTask(ctx, task.Complete())
}

func (s *Store) CompleteTaskByID(ctx context.Context, id string) error {
	return s.setCompleted(ctx, id, true)
}

func (s *Store) ActivateTask(ctx context.Context, task domain.Task) error {
	return s.SaveTask(ctx, task.Activate())
}

func (s *Store) ActivateTaskByID(ctx context.Context, id string) error {
	return s.setCompleted(ctx, id, false)
}

func (s *Store) ClearCompletedTasks(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE completed = 1`); err != nil {
		return fmt.Errorf("clear completed tasks: %w", err)
	}
	return nil
}

func (s *Store) DeleteAllTasks(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM tasks`); err != nil {
		return fmt.Errorf("delete tasks: %w", err)
	}
	return nil
}

func (s *Store) DeleteTask(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete task %s: %w", id, err)
	}
	return nil
}

func (s *Store) RefreshTasks() {}

// Ping checks the connection for the health monitor.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) setCompleted(ctx context.Context, id string, completed bool) error {
	const query = `UPDATE tasks SET completed = ? WHERE id = ?`
	if _, err := s.db.ExecContext(ctx, query, boolToInt(completed), id); err != nil {
		return fmt.Errorf("update task %s: %w", id, err)
	}
	return nil
}

func scanTask(row interface {
	Scan(dest ...any) error
}) (domain.Task, error) {
	var (
		rec       domain.TaskRecord
		completed int
	)
	if err := row.Scan(&rec.ID, &rec.Title, &rec.Description, &completed); err != nil {
		return domain.Task{}, err
	}
	rec.Completed = completed == 1
	return rec.Task(), nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

var _ repository.TasksDataSource = (*Store)(nil)
