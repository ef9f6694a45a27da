package task

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/fastygo/tasks/domain"
	appLogger "github.com/fastygo/tasks/pkg/logger"
	"github.com/fastygo/tasks/repository"
	"github.com/fastygo/tasks/repository/cache"
)

// Filter narrows a task listing.
type Filter string

const (
	FilterAll       Filter = "all"
	FilterActive    Filter = "active"
	FilterCompleted Filter = "completed"
)

// ParseFilter maps a query value to a Filter; anything unknown lists all tasks.
func ParseFilter(s string) Filter {
	switch Filter(strings.ToLower(strings.TrimSpace(s))) {
	case FilterActive:
		return FilterActive
	case FilterCompleted:
		return FilterCompleted
	default:
		return FilterAll
	}
}

func (f Filter) match(t domain.Task) bool {
	switch f {
	case FilterActive:
		return t.IsActive()
	case FilterCompleted:
		return t.Completed()
	default:
		return true
	}
}

// Repository is the task repository as seen by the use cases: the data
// source contract plus the callback-style loads.
type Repository interface {
	repository.TasksDataSource
	LoadTasks(ctx context.Context, cb cache.LoadTasksCallback)
	LoadTask(ctx context.Context, id string, cb cache.GetTaskCallback)
}

// Statistics counts tasks by state.
type Statistics struct {
	Active    int `json:"active"`
	Completed int `json:"completed"`
}

type UseCase struct {
	tasks  Repository
	logger *zap.Logger
}

func New(tasks Repository, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		tasks:  tasks,
		logger: logger,
	}
}

type loadResult struct {
	tasks []domain.Task
	task  domain.Task
	err   error
}

// ListTasks loads every task and keeps those matching filter. forceUpdate
// makes the repository reload from the remote first.
func (uc *UseCase) ListTasks(ctx context.Context, filter Filter, forceUpdate bool) ([]domain.Task, error) {
	if forceUpdate {
		uc.tasks.RefreshTasks()
	}

	done := make(chan loadResult, 1)
	uc.tasks.LoadTasks(ctx, cache.LoadTasksCallback{
		OnTasksLoaded:      func(tasks []domain.Task) { done <- loadResult{tasks: tasks} },
		OnDataNotAvailable: func() { done <- loadResult{err: domain.ErrDataNotAvailable} },
	})

	var res loadResult
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res = <-done:
	}
	if res.err != nil {
		return nil, res.err
	}

	out := make([]domain.Task, 0, len(res.tasks))
	for _, t := range res.tasks {
		if filter.match(t) {
			out = append(out, t)
		}
	}
	return out, nil
}

// GetTask returns one task or domain.ErrDataNotAvailable.
func (uc *UseCase) GetTask(ctx context.Context, id string) (domain.Task, error) {
	done := make(chan loadResult, 1)
	uc.tasks.LoadTask(ctx, id, cache.GetTaskCallback{
		OnTaskLoaded:       func(task domain.Task) { done <- loadResult{task: task} },
		OnDataNotAvailable: func() { done <- loadResult{err: domain.ErrDataNotAvailable} },
	})

	select {
	case <-ctx.Done():
		return domain.Task{}, ctx.Err()
	case res := <-done:
		return res.task, res.err
	}
}

// AddTask saves a new active task. A task with neither title nor description
// is rejected with domain.ErrEmptyTask.
func (uc *UseCase) AddTask(ctx context.Context, title, description string) (domain.Task, error) {
	task := domain.NewTask(title, description)
	if task.IsEmpty() {
		return domain.Task{}, domain.ErrEmptyTask
	}
	if err := uc.tasks.SaveTask(ctx, task); err != nil {
		return domain.Task{}, err
	}
	appLogger.WithRequestID(ctx, uc.logger).Debug("task added", zap.String("task_id", task.ID()))
	return task, nil
}

// EditTask replaces the title and description of an existing task. The
// edited task is saved as active; an unknown id yields
// domain.ErrDataNotAvailable.
func (uc *UseCase) EditTask(ctx context.Context, id, title, description string) (domain.Task, error) {
	if id == "" {
		return domain.Task{}, domain.ErrInvalidPayload
	}
	task := domain.RestoreTask(id, title, description, false)
	if task.IsEmpty() {
		return domain.Task{}, domain.ErrEmptyTask
	}
	if _, err := uc.GetTask(ctx, id); err != nil {
		return domain.Task{}, err
	}
	if err := uc.tasks.SaveTask(ctx, task); err != nil {
		return domain.Task{}, err
	}
	appLogger.WithRequestID(ctx, uc.logger).Debug("task edited", zap.String("task_id", id))
	return task, nil
}

// CompleteTask marks id completed. An id the repository has not cached yet
// is loaded first.
func (uc *UseCase) CompleteTask(ctx context.Context, id string) (domain.Task, error) {
	return uc.setState(ctx, id, uc.tasks.CompleteTaskByID, uc.tasks.CompleteTask)
}

// ActivateTask marks id active, loading it first when it is not cached.
func (uc *UseCase) ActivateTask(ctx context.Context, id string) (domain.Task, error) {
	return uc.setState(ctx, id, uc.tasks.ActivateTaskByID, uc.tasks.ActivateTask)
}

func (uc *UseCase) setState(
	ctx context.Context,
	id string,
	byID func(context.Context, string) error,
	byTask func(context.Context, domain.Task) error,
) (domain.Task, error) {
	err := byID(ctx, id)
	if errors.Is(err, domain.ErrTaskNotCached) {
		var task domain.Task
		task, err = uc.GetTask(ctx, id)
		if err != nil {
			return domain.Task{}, err
		}
		err = byTask(ctx, task)
	}
	if err != nil {
		return domain.Task{}, err
	}
	return uc.GetTask(ctx, id)
}

func (uc *UseCase) ClearCompleted(ctx context.Context) error {
	return uc.tasks.ClearCompletedTasks(ctx)
}

func (uc *UseCase) DeleteTask(ctx context.Context, id string) error {
	return uc.tasks.DeleteTask(ctx, id)
}

func (uc *UseCase) DeleteAllTasks(ctx context.Context) error {
	return uc.tasks.DeleteAllTasks(ctx)
}

// Statistics counts active and completed tasks.
func (uc *UseCase) Statistics(ctx context.Context) (Statistics, error) {
	tasks, err := uc.ListTasks(ctx, FilterAll, false)
	if err != nil {
		return Statistics{}, err
	}
	var stats Statistics
	for _, t := range tasks {
		if t.Completed() {
			stats.Completed++
		} else {
			stats.Active++
		}
	}
	return stats, nil
}
