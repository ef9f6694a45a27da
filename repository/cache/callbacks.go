package cache

import (
	"context"

	"github.com/fastygo/tasks/domain"
)

// LoadTasksCallback receives the outcome of LoadTasks. Exactly one field is
// invoked per call.
type LoadTasksCallback struct {
	OnTasksLoaded      func(tasks []domain.Task)
	OnDataNotAvailable func()
}

// GetTaskCallback receives the outcome of LoadTask.
type GetTaskCallback struct {
	OnTaskLoaded       func(task domain.Task)
	OnDataNotAvailable func()
}

// LoadTasks runs GetTasks in the background and delivers the result through
// the dispatcher. If ctx ends first no callback fires.
func (r *Repository) LoadTasks(ctx context.Context, cb LoadTasksCallback) {
	go func() {
		tasks, err := r.GetTasks(ctx)
		if ctx.Err() != nil {
			return
		}
		r.dispatcher.Dispatch(func() {
			if err != nil {
				if cb.OnDataNotAvailable != nil {
					cb.OnDataNotAvailable()
				}
				return
			}
			if cb.OnTasksLoaded != nil {
				cb.OnTasksLoaded(tasks)
			}
		})
	}()
}

// LoadTask runs GetTask in the background and delivers the result through
// the dispatcher. If ctx ends first no callback fires.
func (r *Repository) LoadTask(ctx context.Context, id string, cb GetTaskCallback) {
	go func() {
		task, err := r.GetTask(ctx, id)
		if ctx.Err() != nil {
			return
		}
		r.dispatcher.Dispatch(func() {
			if err != nil {
				if cb.OnDataNotAvailable != nil {
					cb.OnDataNotAvailable()
				}
				return
			}
			if cb.OnTaskLoaded != nil {
				cb.OnTaskLoaded(task)
			}
		})
	}()
}
