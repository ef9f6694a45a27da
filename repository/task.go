package repository

import (
	"context"

	"github.com/fastygo/tasks/domain"
)

// TasksDataSource is the contract shared by the remote store, the local store
// and the caching repository in front of them.
//
// Reads report absence with domain.ErrDataNotAvailable. Mark-complete/active
// and deletes of unknown ids are no-ops for the stores.
type TasksDataSource interface {
	GetTasks(ctx context.Context) ([]domain.Task, error)
	GetTask(ctx context.Context, id string) (domain.Task, error)

	SaveTask(ctx context.Context, task domain.Task) error
	CompleteTask(ctx context.Context, task domain.Task) error
	CompleteTaskByID(ctx context.Context, id string) error
	ActivateTask(ctx context.Context, task domain.Task) error
	ActivateTaskByID(ctx context.Context, id string) error
	ClearCompletedTasks(ctx context.Context) error
	DeleteAllTasks(ctx context.Context) error
	DeleteTask(ctx context.Context, id string) error

	// RefreshTasks is a hint that the next full listing should revalidate.
	RefreshTasks()
}
