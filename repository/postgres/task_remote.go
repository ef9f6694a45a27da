package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/fastygo/tasks/domain"
	"github.com/fastygo/tasks/repository"
)

// Querier is the subset of pgxpool.Pool the remote needs.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TaskRemote is a Postgres-backed remote data source.
type TaskRemote struct {
	db     Querier
	logger *zap.Logger
}

// NewTaskRemote returns a Postgres-backed remote. The tasks table is created
// by the migrations in assets/migrations.
func NewTaskRemote(db Querier, logger *zap.Logger) *TaskRemote {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TaskRemote{db: db, logger: logger}
}

func (r *TaskRemote) GetTasks(ctx context.Context) ([]domain.Task, error) {
	const query = `
	SELECT id, title, description, completed
	FROM tasks
	ORDER BY seq
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]domain.Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}
	return tasks, nil
}

func (r *TaskRemote) GetTask(ctx context.Context, id string) (domain.Task, error) {
	const query = `
	SELECT id, title, description, completed
	FROM tasks
	WHERE id = $1
	`
	task, err := scanTask(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Task{}, domain.ErrDataNotAvailable
		}
		return domain.Task{}, fmt.Errorf("query task %s: %w", id, err)
	}
	return task, nil
}

func (r *TaskRemote) SaveTask(ctx context.Context, task domain.Task) error {
	const query = `
	INSERT INTO tasks (id, title, description, completed)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (id) DO UPDATE
	SET title = EXCLUDED.title,
		description = EXCLUDED.description,
		completed = EXCLUDED.completed,
		updated_at = NOW()
	`
	if _, err := r.db.Exec(ctx, query,
		task.ID(),
		task.Title(),
		task.Description(),
		task.Completed(),
	); err != nil {
		return fmt.Errorf("save task: %w", err)
	}
	return nil
}

func (r *TaskRemote) CompleteTask(ctx context.Context, task domain.Task) error {
	return r.SaveTask(ctx, task.Complete())
}

func (r *TaskRemote) CompleteTaskByID(ctx context.Context, id string) error {
	return r.setCompleted(ctx, id, true)
}

func (r *TaskRemote) ActivateTask(ctx context.Context, task domain.Task) error {
	return r.SaveTask(ctx, task.Activate())
}

func (r *TaskRemote) ActivateTaskByID(ctx context.Context, id string) error {
	return r.setCompleted(ctx, id, false)
}

func (r *TaskRemote) ClearCompletedTasks(ctx context.Context) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM tasks WHERE completed`)
	if err != nil {
		return fmt.Errorf("clear completed tasks: %w", err)
	}
	r.logger.Debug("cleared completed tasks", zap.Int64("rows", tag.RowsAffected()))
	return nil
}

func (r *TaskRemote) DeleteAllTasks(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM tasks`); err != nil {
		return fmt.Errorf("delete tasks: %w", err)
	}
	return nil
}

func (r *TaskRemote) DeleteTask(ctx context.Context, id string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete task %s: %w", id, err)
	}
	return nil
}

func (r *TaskRemote) RefreshTasks() {}

func (r *TaskRemote) setCompleted(ctx context.Context, id string, completed bool) error {
	const query = `
	UPDATE tasks
	SET completed = $2,
		updated_at = NOW()
	WHERE id = $1
	`
	if _, err := r.db.Exec(ctx, query, id, completed); err != nil {
		return fmt.Errorf("update task %s: %w", id, err)
	}
	return nil
}

func scanTask(row pgx.Row) (domain.Task, error) {
	var rec domain.TaskRecord
	if err := row.Scan(&rec.ID, &rec.Title, &rec.Description, &rec.Completed); err != nil {
		return domain.Task{}, err
	}
	return rec.Task(), nil
}

var _ repository.TasksDataSource = (*TaskRemote)(nil)
