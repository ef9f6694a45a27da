package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/tasks/domain"
)

type stubSyncer struct {
	refreshed int
	loads     int
	err       error
}

func (s *stubSyncer) RefreshTasks() { s.refreshed++ }

func (s *stubSyncer) GetTasks(context.Context) ([]domain.Task, error) {
	s.loads++
	if s.err != nil {
		return nil, s.err
	}
	return []domain.Task{domain.NewTask("A", "")}, nil
}

type stubHealth bool

func (h stubHealth) IsOnline() bool { return bool(h) }

func TestNewRefresher_RejectsSubSecondInterval(t *testing.T) {
	_, err := NewRefresher(&stubSyncer{}, nil, nil, RefresherConfig{Interval: 500 * time.Millisecond})
	assert.Error(t, err)
}

func TestRefresher_Refresh(t *testing.T) {
	syncer := &stubSyncer{}
	r, err := NewRefresher(syncer, stubHealth(true), nil, RefresherConfig{Interval: time.Minute})
	require.NoError(t, err)

	require.NoError(t, r.Refresh(context.Background()))
	assert.Equal(t, 1, syncer.refreshed)
	assert.Equal(t, 1, syncer.loads)
}

func TestRefresher_SkipsWhileOffline(t *testing.T) {
	syncer := &stubSyncer{}
	r, err := NewRefresher(syncer, stubHealth(false), nil, RefresherConfig{Interval: time.Minute})
	require.NoError(t, err)

	require.NoError(t, r.Refresh(context.Background()))
	assert.Zero(t, syncer.refreshed)
	assert.Zero(t, syncer.loads)
}

func TestRefresher_PropagatesLoadError(t *testing.T) {
	syncer := &stubSyncer{err: domain.ErrDataNotAvailable}
	r, err := NewRefresher(syncer, nil, nil, RefresherConfig{Interval: time.Minute})
	require.NoError(t, err)

	assert.ErrorIs(t, r.Refresh(context.Background()), domain.ErrDataNotAvailable)
}

func TestRefresher_StartStop(t *testing.T) {
	r, err := NewRefresher(&stubSyncer{}, nil, nil, RefresherConfig{Interval: time.Hour})
	require.NoError(t, err)

	r.Start()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	r.Stop(ctx)
}

func TestWriteFailures_Record(t *testing.T) {
	w := NewWriteFailures()
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	w.now = func() time.Time { return fixed }

	w.Record("save_task", "remote", errors.New("timeout"))
	w.Record("delete_task", "remote", errors.New("refused"))
	w.Record("save_task", "remote", errors.New("reset"))
	w.Record("save_task", "local", errors.New("disk full"))

	snap := w.Snapshot()
	require.Len(t, snap, 3)
	assert.Equal(t, WriteFailure{Store: "remote", Op: "save_task", Error: "reset", Count: 2, At: fixed}, snap["save_task/remote"])
	assert.Equal(t, WriteFailure{Store: "remote", Op: "delete_task", Error: "refused", Count: 1, At: fixed}, snap["delete_task/remote"])
	assert.Equal(t, int64(1), snap["save_task/local"].Count)
}
