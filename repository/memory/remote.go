package memory

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/tasks/domain"
	"github.com/fastygo/tasks/repository"
)

// DefaultLatency simulates a slow network round trip on every read.
const DefaultLatency = time.Second

// Remote is an in-process stand-in for a remote task service. Reads block
// for the configured latency; writes apply immediately.
type Remote struct {
	latency time.Duration
	logger  *zap.Logger

	mu    sync.RWMutex
	ids   []string
	tasks map[string]domain.Task
}

// NewRemote returns an empty remote. A negative latency is treated as zero.
func NewRemote(latency time.Duration, logger *zap.Logger) *Remote {
	if logger == nil {
		logger = zap.NewNop()
	}
	if latency < 0 {
		latency = 0
	}
	return &Remote{
		latency: latency,
		logger:  logger,
		tasks:   make(map[string]domain.Task),
	}
}

// Seed adds the two demo tasks the service starts with.
func (r *Remote) Seed() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.put(domain.NewTask("Build tower in Pisa", "Ground looks good, no foundation work required."))
	r.put(domain.NewTask("Finish bridge in Tacoma", "Found awesome girders at half the cost!"))
	r.logger.Debug("memory remote seeded", zap.Int("count", len(r.ids)))
}

func (r *Remote) GetTasks(ctx context.Context) ([]domain.Task, error) {
	if err := r.wait(ctx); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Task, 0, len(r.ids))
	for _, id := range r.ids {
		out = append(out, r.tasks[id])
	}
	return out, nil
}

func (r *Remote) GetTask(ctx context.Context, id string) (domain.Task, error) {
	if err := r.wait(ctx); err != nil {
		return domain.Task{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	task, ok := r.tasks[id]
	if !ok {
		return domain.Task{}, domain.ErrDataNotAvailable
	}
	return task, nil
}

func (r *Remote) SaveTask(_ context.Context, task domain.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.put(task)
	return nil
}

func (r *Remote) CompleteTask(_ context.Context, task domain.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.put(task.Complete())
	return nil
}

func (r *Remote) CompleteTaskByID(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if task, ok := r.tasks[id]; ok {
		r.tasks[id] = task.Complete()
	}
	return nil
}

func (r *Remote) ActivateTask(_ context.Context, task domain.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.put(task.Activate())
	return nil
}

func (r *Remote) ActivateTaskByID(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if task, ok := r.tasks[id]; ok {
		r.tasks[id] = task.Activate()
	}
	return nil
}

func (r *Remote) ClearCompletedTasks(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := r.ids[:0]
	for _, id := range r.ids {
		if r.tasks[id].Completed() {
			delete(r.tasks, id)
			continue
		}
		ids = append(ids, id)
	}
	r.ids = ids
	return nil
}

func (r *Remote) DeleteAllTasks(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = nil
	r.tasks = make(map[string]domain.Task)
	return nil
}

func (r *Remote) DeleteTask(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[id]; !ok {
		return nil
	}
	delete(r.tasks, id)
	for i, existing := range r.ids {
		if existing == id {
			r.ids = append(r.ids[:i], r.ids[i+1:]...)
			break
		}
	}
	return nil
}

// RefreshTasks is a no-op: the remote is always current.
func (r *Remote) RefreshTasks() {}

// Ping reports whether the remote can serve requests. Used by the health monitor.
func (r *Remote) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (r *Remote) put(task domain.Task) {
	if _, ok := r.tasks[task.ID()]; !ok {
		r.ids = append(r.ids, task.ID())
	}
	r.tasks[task.ID()] = task
}

func (r *Remote) wait(ctx context.Context) error {
	if r.latency == 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(r.latency)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

var _ repository.TasksDataSource = (*Remote)(nil)
