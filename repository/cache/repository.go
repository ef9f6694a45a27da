package cache

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/fastygo/tasks/domain"
	"github.com/fastygo/tasks/repository"
)

const (
	storeRemote = "remote"
	storeLocal  = "local"
)

// WriteFailureHook observes a write that one backing store rejected. The
// repository still updates its cache and does not report the failure to the
// caller.
type WriteFailureHook func(op, store string, err error)

// Option configures a Repository.
type Option func(*Repository)

// WithDispatcher sets where LoadTasks/LoadTask callbacks run.
func WithDispatcher(d Dispatcher) Option {
	return func(r *Repository) {
		if d != nil {
			r.dispatcher = d
		}
	}
}

// WithWriteFailureHook registers a hook for store write failures.
func WithWriteFailureHook(hook WriteFailureHook) Option {
	return func(r *Repository) {
		r.onWriteFailure = hook
	}
}

// Repository serves tasks from an in-memory cache in front of a remote and a
// local data source. Writes go to the remote, then the local store, then the
// cache. Full listings come from the cache when it is clean, otherwise from
// the local store and finally the remote.
type Repository struct {
	remote         repository.TasksDataSource
	local          repository.TasksDataSource
	logger         *zap.Logger
	dispatcher     Dispatcher
	onWriteFailure WriteFailureHook

	// reload is held exclusively for a full load and shared by writes, so a
	// snapshot read from a store never replaces a write that raced with it.
	reload sync.RWMutex

	mu    sync.Mutex
	cache taskCache
}

// New composes the repository. Each call returns an independent instance with
// an empty cache.
func New(remote, local repository.TasksDataSource, logger *zap.Logger, opts ...Option) *Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Repository{
		remote:     remote,
		local:      local,
		logger:     logger,
		dispatcher: Immediate,
		cache:      newTaskCache(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Repository) GetTasks(ctx context.Context) ([]domain.Task, error) {
	if tasks, ok := r.cachedTasks(); ok {
		return tasks, nil
	}

	r.reload.Lock()
	defer r.reload.Unlock()

	r.mu.Lock()
	if r.cache.authoritative() {
		tasks := r.cache.snapshot()
		r.mu.Unlock()
		return tasks, nil
	}
	dirty := r.cache.dirty
	r.mu.Unlock()

	if !dirty {
		tasks, err := r.local.GetTasks(ctx)
		if err == nil {
			return r.refreshCache(tasks), nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		r.logReadFailure("get_tasks", storeLocal, err)
	}

	return r.getTasksFromRemote(ctx)
}

func (r *Repository) getTasksFromRemote(ctx context.Context) ([]domain.Task, error) {
	tasks, err := r.remote.GetTasks(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		r.logReadFailure("get_tasks", storeRemote, err)
		return nil, domain.ErrDataNotAvailable
	}

	out := r.refreshCache(tasks)
	r.refreshLocal(ctx, tasks)
	r.logger.Debug("tasks loaded from remote", zap.Int("count", len(out)))
	return out, nil
}

func (r *Repository) refreshCache(tasks []domain.Task) []domain.Task {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache.replace(tasks)
	return r.cache.snapshot()
}

// refreshLocal makes the local store a copy of what the remote just returned.
func (r *Repository) refreshLocal(ctx context.Context, tasks []domain.Task) {
	if err := r.local.DeleteAllTasks(ctx); err != nil {
		r.writeFailed("refresh_local", storeLocal, err)
	}
	for _, t := range tasks {
		if err := r.local.SaveTask(ctx, t); err != nil {
			r.writeFailed("refresh_local", storeLocal, err)
		}
	}
}

func (r *Repository) GetTask(ctx context.Context, id string) (domain.Task, error) {
	if task, ok := r.cachedTask(id); ok {
		return task, nil
	}
	r.mu.Lock()
	gen := r.cache.gen
	r.mu.Unlock()

	for _, src := range []struct {
		name string
		ds   repository.TasksDataSource
	}{
		{storeLocal, r.local},
		{storeRemote, r.remote},
	} {
		task, err := src.ds.GetTask(ctx, id)
		if err == nil {
			r.mu.Lock()
			// a write that landed during the lookup wins over what was read
			if r.cache.gen == gen {
				r.cache.put(task)
			}
			r.mu.Unlock()
			return task, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return domain.Task{}, ctxErr
		}
		r.logReadFailure("get_task", src.name, err)
	}

	return domain.Task{}, domain.ErrDataNotAvailable
}

func (r *Repository) SaveTask(ctx context.Context, task domain.Task) error {
	r.reload.RLock()
	defer r.reload.RUnlock()

	r.writeThrough("save_task", func(ds repository.TasksDataSource) error {
		return ds.SaveTask(ctx, task)
	})

	r.mu.Lock()
	r.cache.put(task)
	r.mu.Unlock()
	return nil
}

func (r *Repository) CompleteTask(ctx context.Context, task domain.Task) error {
	r.reload.RLock()
	defer r.reload.RUnlock()

	r.writeThrough("complete_task", func(ds repository.TasksDataSource) error {
		return ds.CompleteTask(ctx, task)
	})

	r.mu.Lock()
	r.cache.put(task.Complete())
	r.mu.Unlock()
	return nil
}

// CompleteTaskByID resolves id through the cache; an uncached id yields
// domain.ErrTaskNotCached and nothing is written.
func (r *Repository) CompleteTaskByID(ctx context.Context, id string) error {
	task, ok := r.cachedTask(id)
	if !ok {
		return fmt.Errorf("complete %s: %w", id, domain.ErrTaskNotCached)
	}
	return r.CompleteTask(ctx, task)
}

func (r *Repository) ActivateTask(ctx context.Context, task domain.Task) error {
	r.reload.RLock()
	defer r.reload.RUnlock()

	r.writeThrough("activate_task", func(ds repository.TasksDataSource) error {
		return ds.ActivateTask(ctx, task)
	})

	r.mu.Lock()
	r.cache.put(task.Activate())
	r.mu.Unlock()
	return nil
}

// ActivateTaskByID resolves id through the cache; an uncached id yields
// domain.ErrTaskNotCached and nothing is written.
func (r *Repository) ActivateTaskByID(ctx context.Context, id string) error {
	task, ok := r.cachedTask(id)
	if !ok {
		return fmt.Errorf("activate %s: %w", id, domain.ErrTaskNotCached)
	}
	return r.ActivateTask(ctx, task)
}

func (r *Repository) ClearCompletedTasks(ctx context.Context) error {
	r.reload.RLock()
	defer r.reload.RUnlock()

	r.writeThrough("clear_completed", func(ds repository.TasksDataSource) error {
		return ds.ClearCompletedTasks(ctx)
	})

	r.mu.Lock()
	r.cache.retain(domain.Task.IsActive)
	r.mu.Unlock()
	return nil
}

func (r *Repository) DeleteAllTasks(ctx context.Context) error {
	r.reload.RLock()
	defer r.reload.RUnlock()

	r.writeThrough("delete_all", func(ds repository.TasksDataSource) error {
		return ds.DeleteAllTasks(ctx)
	})

	r.mu.Lock()
	r.cache.clear()
	r.mu.Unlock()
	return nil
}

// DeleteTask forwards the delete to both stores even when id is not cached;
// the cache side is then a no-op.
func (r *Repository) DeleteTask(ctx context.Context, id string) error {
	r.reload.RLock()
	defer r.reload.RUnlock()

	r.writeThrough("delete_task", func(ds repository.TasksDataSource) error {
		return ds.DeleteTask(ctx, id)
	})

	r.mu.Lock()
	removed := r.cache.remove(id)
	r.mu.Unlock()
	if !removed {
		r.logger.Debug("deleted task was not cached", zap.String("task_id", id))
	}
	return nil
}

// RefreshTasks marks the cache dirty; the next GetTasks goes to the remote.
func (r *Repository) RefreshTasks() {
	r.mu.Lock()
	r.cache.dirty = true
	r.mu.Unlock()
}

func (r *Repository) cachedTasks() ([]domain.Task, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.cache.authoritative() {
		return nil, false
	}
	return r.cache.snapshot(), true
}

func (r *Repository) cachedTask(id string) (domain.Task, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cache.get(id)
}

func (r *Repository) writeThrough(op string, write func(repository.TasksDataSource) error) {
	if err := write(r.remote); err != nil {
		r.writeFailed(op, storeRemote, err)
	}
	if err := write(r.local); err != nil {
		r.writeFailed(op, storeLocal, err)
	}
}

func (r *Repository) writeFailed(op, store string, err error) {
	r.logger.Warn("task store write failed",
		zap.String("op", op),
		zap.String("store", store),
		zap.Error(err))
	if r.onWriteFailure != nil {
		r.onWriteFailure(op, store, err)
	}
}

func (r *Repository) logReadFailure(op, store string, err error) {
	if domain.IsNotAvailable(err) {
		r.logger.Debug("task store has no data", zap.String("op", op), zap.String("store", store))
		return
	}
	r.logger.Warn("task store read failed",
		zap.String("op", op),
		zap.String("store", store),
		zap.Error(err))
}

var _ repository.TasksDataSource = (*Repository)(nil)
