package task

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/tasks/domain"
	"github.com/fastygo/tasks/internal/infrastructure/boltdb"
	"github.com/fastygo/tasks/repository/bolt"
	"github.com/fastygo/tasks/repository/cache"
	"github.com/fastygo/tasks/repository/memory"
)

func newUseCase(t *testing.T, remoteTasks ...domain.Task) (*UseCase, *memory.Remote) {
	t.Helper()
	ctx := context.Background()
	remote := memory.NewRemote(0, nil)
	for _, task := range remoteTasks {
		require.NoError(t, remote.SaveTask(ctx, task))
	}

	db, err := boltdb.Open(filepath.Join(t.TempDir(), "tasks.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	local, err := bolt.NewStore(db, nil)
	require.NoError(t, err)

	repo := cache.New(remote, local, nil)
	return New(repo, nil), remote
}

func TestParseFilter(t *testing.T) {
	assert.Equal(t, FilterActive, ParseFilter("active"))
	assert.Equal(t, FilterCompleted, ParseFilter(" Completed "))
	assert.Equal(t, FilterAll, ParseFilter(""))
	assert.Equal(t, FilterAll, ParseFilter("bogus"))
}

func TestAddTask(t *testing.T) {
	ctx := context.Background()
	uc, remote := newUseCase(t)

	_, err := uc.AddTask(ctx, "", "")
	assert.ErrorIs(t, err, domain.ErrEmptyTask)

	task, err := uc.AddTask(ctx, "", "only a description")
	require.NoError(t, err)
	assert.True(t, task.IsActive())

	stored, err := remote.GetTask(ctx, task.ID())
	require.NoError(t, err)
	assert.Equal(t, task, stored)
}

func TestListTasksFilters(t *testing.T) {
	ctx := context.Background()
	a := domain.NewTask("A", "")
	b := domain.NewTask("B", "").Complete()
	c := domain.NewTask("C", "")
	uc, _ := newUseCase(t, a, b, c)

	all, err := uc.ListTasks(ctx, FilterAll, true)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	active, err := uc.ListTasks(ctx, FilterActive, false)
	require.NoError(t, err)
	assert.Equal(t, []domain.Task{a, c}, active)

	completed, err := uc.ListTasks(ctx, FilterCompleted, false)
	require.NoError(t, err)
	assert.Equal(t, []domain.Task{b}, completed)
}

func TestListTasksForceUpdate(t *testing.T) {
	ctx := context.Background()
	uc, remote := newUseCase(t, domain.NewTask("A", ""))

	tasks, err := uc.ListTasks(ctx, FilterAll, true)
	require.NoError(t, err)
	require.Len(t, tasks, 1)

	require.NoError(t, remote.SaveTask(ctx, domain.NewTask("added elsewhere", "")))

	tasks, err = uc.ListTasks(ctx, FilterAll, false)
	require.NoError(t, err)
	assert.Len(t, tasks, 1)

	tasks, err = uc.ListTasks(ctx, FilterAll, true)
	require.NoError(t, err)
	assert.Len(t, tasks, 2)
}

func TestListTasksCancelled(t *testing.T) {
	uc, _ := newUseCase(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := uc.ListTasks(ctx, FilterAll, false)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCompleteTaskLoadsUncachedTask(t *testing.T) {
	ctx := context.Background()
	task := domain.NewTask("Buy milk", "")
	uc, remote := newUseCase(t, task)

	done, err := uc.CompleteTask(ctx, task.ID())
	require.NoError(t, err)
	assert.True(t, done.Completed())
	assert.Equal(t, task.ID(), done.ID())

	stored, err := remote.GetTask(ctx, task.ID())
	require.NoError(t, err)
	assert.True(t, stored.Completed())

	active, err := uc.ActivateTask(ctx, task.ID())
	require.NoError(t, err)
	assert.True(t, active.IsActive())
}

func TestCompleteTaskUnknownID(t *testing.T) {
	uc, _ := newUseCase(t)

	_, err := uc.CompleteTask(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrDataNotAvailable)
}

func TestEditTaskResetsCompletion(t *testing.T) {
	ctx := context.Background()
	task := domain.NewTask("Draft", "").Complete()
	uc, _ := newUseCase(t, task)

	_, err := uc.EditTask(ctx, task.ID(), "", "")
	assert.ErrorIs(t, err, domain.ErrEmptyTask)

	edited, err := uc.EditTask(ctx, task.ID(), "Final", "done")
	require.NoError(t, err)
	assert.Equal(t, task.ID(), edited.ID())
	assert.False(t, edited.Completed())

	got, err := uc.GetTask(ctx, task.ID())
	require.NoError(t, err)
	assert.Equal(t, "Final", got.Title())
}

func TestEditUnknownTask(t *testing.T) {
	ctx := context.Background()
	uc, _ := newUseCase(t, domain.NewTask("A", ""))

	_, err := uc.EditTask(ctx, "missing", "Title", "")
	assert.ErrorIs(t, err, domain.ErrDataNotAvailable)

	_, err = uc.GetTask(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrDataNotAvailable)
}

func TestStatisticsAndClearCompleted(t *testing.T) {
	ctx := context.Background()
	uc, _ := newUseCase(t,
		domain.NewTask("A", ""),
		domain.NewTask("B", "").Complete(),
		domain.NewTask("C", "").Complete(),
	)

	stats, err := uc.Statistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, Statistics{Active: 1, Completed: 2}, stats)

	require.NoError(t, uc.ClearCompleted(ctx))
	stats, err = uc.Statistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, Statistics{Active: 1}, stats)
}

func TestDeleteTasks(t *testing.T) {
	ctx := context.Background()
	a := domain.NewTask("A", "")
	b := domain.NewTask("B", "")
	uc, _ := newUseCase(t, a, b)

	require.NoError(t, uc.DeleteTask(ctx, a.ID()))
	tasks, err := uc.ListTasks(ctx, FilterAll, false)
	require.NoError(t, err)
	assert.Equal(t, []domain.Task{b}, tasks)

	require.NoError(t, uc.DeleteAllTasks(ctx))
	tasks, err = uc.ListTasks(ctx, FilterAll, false)
	require.NoError(t, err)
	assert.Empty(t, tasks)
}
