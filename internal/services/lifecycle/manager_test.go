package lifecycle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShutdownRunsHooksInReverseOrder(t *testing.T) {
	m := New(time.Second, nil)

	var order []string
	m.RegisterStop("store", func() { order = append(order, "store") })
	m.Register("repository", func(context.Context) error {
		order = append(order, "repository")
		return nil
	})
	m.RegisterStop("server", func() { order = append(order, "server") })

	require.NoError(t, m.Shutdown(context.Background()))
	assert.Equal(t, []string{"server", "repository", "store"}, order)

	require.NoError(t, m.Shutdown(context.Background()))
	assert.Len(t, order, 3)
}

func TestShutdownJoinsErrors(t *testing.T) {
	m := New(time.Second, nil)
	errA := errors.New("a failed")
	errB := errors.New("b failed")
	m.Register("a", func(context.Context) error { return errA })
	m.Register("b", func(context.Context) error { return errB })
	m.Register("nil", nil)

	err := m.Shutdown(context.Background())
	assert.ErrorIs(t, err, errA)
	assert.ErrorIs(t, err, errB)
}

func TestShutdownStopsAtDeadline(t *testing.T) {
	m := New(20*time.Millisecond, nil)
	ran := false
	m.RegisterStop("late", func() { ran = true })
	m.Register("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return nil
	})

	err := m.Shutdown(context.Background())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, ran)
}
