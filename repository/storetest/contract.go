// Package storetest holds behaviour checks shared by every TasksDataSource
// adapter.
package storetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/tasks/domain"
	"github.com/fastygo/tasks/repository"
)

// Kind selects how an empty full listing is reported.
type Kind int

const (
	// Remote stores answer an empty listing with an empty slice.
	Remote Kind = iota
	// Local stores answer an empty listing with domain.ErrDataNotAvailable.
	Local
)

// Run exercises the shared data source contract. newStore must return an
// empty store each time it is called.
func Run(t *testing.T, kind Kind, newStore func(t *testing.T) repository.TasksDataSource) {
	t.Run("empty listing", func(t *testing.T) {
		ds := newStore(t)
		tasks, err := ds.GetTasks(context.Background())
		if kind == Local {
			assert.ErrorIs(t, err, domain.ErrDataNotAvailable)
			return
		}
		require.NoError(t, err)
		assert.Empty(t, tasks)
	})

	t.Run("save keeps first insertion order", func(t *testing.T) {
		ctx := context.Background()
		ds := newStore(t)
		a := domain.NewTask("A", "first")
		b := domain.NewTask("B", "")
		require.NoError(t, ds.SaveTask(ctx, a))
		require.NoError(t, ds.SaveTask(ctx, b))
		require.NoError(t, ds.SaveTask(ctx, domain.RestoreTask(a.ID(), "A2", "first", false)))

		tasks, err := ds.GetTasks(ctx)
		require.NoError(t, err)
		require.Len(t, tasks, 2)
		assert.Equal(t, a.ID(), tasks[0].ID())
		assert.Equal(t, "A2", tasks[0].Title())
		assert.Equal(t, "first", tasks[0].Description())
		assert.Equal(t, b.ID(), tasks[1].ID())
	})

	t.Run("get task", func(t *testing.T) {
		ctx := context.Background()
		ds := newStore(t)
		task := domain.NewTask("Buy milk", "two litres").Complete()
		require.NoError(t, ds.SaveTask(ctx, task))

		got, err := ds.GetTask(ctx, task.ID())
		require.NoError(t, err)
		assert.Equal(t, task, got)

		_, err = ds.GetTask(ctx, "missing")
		assert.ErrorIs(t, err, domain.ErrDataNotAvailable)
	})

	t.Run("complete and activate", func(t *testing.T) {
		ctx := context.Background()
		ds := newStore(t)
		a := domain.NewTask("A", "")
		b := domain.NewTask("B", "")
		require.NoError(t, ds.SaveTask(ctx, a))
		require.NoError(t, ds.SaveTask(ctx, b))

		require.NoError(t, ds.CompleteTask(ctx, a))
		require.NoError(t, ds.CompleteTaskByID(ctx, b.ID()))
		require.NoError(t, ds.CompleteTaskByID(ctx, "missing"))

		got, err := ds.GetTask(ctx, a.ID())
		require.NoError(t, err)
		assert.True(t, got.Completed())
		got, err = ds.GetTask(ctx, b.ID())
		require.NoError(t, err)
		assert.True(t, got.Completed())

		require.NoError(t, ds.ActivateTask(ctx, got))
		require.NoError(t, ds.ActivateTaskByID(ctx, a.ID()))
		require.NoError(t, ds.ActivateTaskByID(ctx, "missing"))

		tasks, err := ds.GetTasks(ctx)
		require.NoError(t, err)
		for _, task := range tasks {
			assert.True(t, task.IsActive(), task.Title())
		}
	})

	t.Run("clear completed", func(t *testing.T) {
		ctx := context.Background()
		ds := newStore(t)
		a := domain.NewTask("A", "")
		require.NoError(t, ds.SaveTask(ctx, a))
		require.NoError(t, ds.SaveTask(ctx, domain.NewTask("B", "").Complete()))
		require.NoError(t, ds.SaveTask(ctx, domain.NewTask("C", "").Complete()))

		require.NoError(t, ds.ClearCompletedTasks(ctx))

		tasks, err := ds.GetTasks(ctx)
		require.NoError(t, err)
		require.Len(t, tasks, 1)
		assert.Equal(t, a.ID(), tasks[0].ID())
	})

	t.Run("delete", func(t *testing.T) {
		ctx := context.Background()
		ds := newStore(t)
		a := domain.NewTask("A", "")
		b := domain.NewTask("B", "")
		require.NoError(t, ds.SaveTask(ctx, a))
		require.NoError(t, ds.SaveTask(ctx, b))

		require.NoError(t, ds.DeleteTask(ctx, a.ID()))
		require.NoError(t, ds.DeleteTask(ctx, "missing"))
		_, err := ds.GetTask(ctx, a.ID())
		assert.ErrorIs(t, err, domain.ErrDataNotAvailable)

		require.NoError(t, ds.DeleteAllTasks(ctx))
		_, err = ds.GetTask(ctx, b.ID())
		assert.ErrorIs(t, err, domain.ErrDataNotAvailable)

		require.NoError(t, ds.SaveTask(ctx, a))
		tasks, err := ds.GetTasks(ctx)
		require.NoError(t, err)
		assert.Len(t, tasks, 1)
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		ds := newStore(t)
		_, err := ds.GetTasks(ctx)
		assert.Error(t, err)
	})
}
