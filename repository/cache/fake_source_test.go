package cache

import (
	"context"
	"sync"

	"github.com/fastygo/tasks/domain"
	"github.com/fastygo/tasks/repository"
)

// fakeSource is an in-memory data source that records every call.
type fakeSource struct {
	mu sync.Mutex

	data               taskCache
	emptyIsUnavailable bool
	readsUnavailable   bool
	writeErr           error
	calls              []string

	// afterRead, when set, runs once after a read has taken its result and
	// released the lock, letting a test interleave writes with it.
	afterRead func()
}

func newLocalFake(tasks ...domain.Task) *fakeSource {
	f := &fakeSource{data: newTaskCache(), emptyIsUnavailable: true}
	for _, t := range tasks {
		f.data.put(t)
	}
	return f
}

func newRemoteFake(tasks ...domain.Task) *fakeSource {
	f := newLocalFake(tasks...)
	f.emptyIsUnavailable = false
	return f
}

func (f *fakeSource) record(call string) {
	f.calls = append(f.calls, call)
}

func (f *fakeSource) count(call string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == call {
			n++
		}
	}
	return n
}

func (f *fakeSource) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeSource) resetCalls() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}

func (f *fakeSource) stored() []domain.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.data.snapshot()
}

func (f *fakeSource) GetTasks(ctx context.Context) ([]domain.Task, error) {
	f.mu.Lock()
	f.record("GetTasks")
	if f.readsUnavailable || (f.emptyIsUnavailable && len(f.data.ids) == 0) {
		f.mu.Unlock()
		return nil, domain.ErrDataNotAvailable
	}
	tasks := f.data.snapshot()
	hook := f.takeAfterRead()
	f.mu.Unlock()

	if hook != nil {
		hook()
	}
	return tasks, nil
}

func (f *fakeSource) GetTask(ctx context.Context, id string) (domain.Task, error) {
	f.mu.Lock()
	f.record("GetTask")
	if f.readsUnavailable {
		f.mu.Unlock()
		return domain.Task{}, domain.ErrDataNotAvailable
	}
	t, ok := f.data.get(id)
	hook := f.takeAfterRead()
	f.mu.Unlock()

	if hook != nil {
		hook()
	}
	if !ok {
		return domain.Task{}, domain.ErrDataNotAvailable
	}
	return t, nil
}

func (f *fakeSource) setAfterRead(hook func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.afterRead = hook
}

func (f *fakeSource) takeAfterRead() func() {
	hook := f.afterRead
	f.afterRead = nil
	return hook
}

func (f *fakeSource) write(call string, apply func()) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(call)
	if f.writeErr != nil {
		return f.writeErr
	}
	apply()
	return nil
}

func (f *fakeSource) SaveTask(ctx context.Context, task domain.Task) error {
	return f.write("SaveTask", func() { f.data.put(task) })
}

func (f *fakeSource) CompleteTask(ctx context.Context, task domain.Task) error {
	return f.write("CompleteTask", func() { f.setCompleted(task.ID(), true) })
}

func (f *fakeSource) CompleteTaskByID(ctx context.Context, id string) error {
	return f.write("CompleteTaskByID", func() { f.setCompleted(id, true) })
}

func (f *fakeSource) ActivateTask(ctx context.Context, task domain.Task) error {
	return f.write("ActivateTask", func() { f.setCompleted(task.ID(), false) })
}

func (f *fakeSource) ActivateTaskByID(ctx context.Context, id string) error {
	return f.write("ActivateTaskByID", func() { f.setCompleted(id, false) })
}

func (f *fakeSource) ClearCompletedTasks(ctx context.Context) error {
	return f.write("ClearCompletedTasks", func() { f.data.retain(domain.Task.IsActive) })
}

func (f *fakeSource) DeleteAllTasks(ctx context.Context) error {
	return f.write("DeleteAllTasks", func() { f.data.clear() })
}

func (f *fakeSource) DeleteTask(ctx context.Context, id string) error {
	return f.write("DeleteTask", func() { f.data.remove(id) })
}

func (f *fakeSource) RefreshTasks() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("RefreshTasks")
}

func (f *fakeSource) setCompleted(id string, completed bool) {
	t, ok := f.data.get(id)
	if !ok {
		return
	}
	if completed {
		f.data.put(t.Complete())
	} else {
		f.data.put(t.Activate())
	}
}

var _ repository.TasksDataSource = (*fakeSource)(nil)
