package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	"github.com/fastygo/tasks/api/handler"
	"github.com/fastygo/tasks/domain"
	"github.com/fastygo/tasks/internal/infrastructure/boltdb"
	"github.com/fastygo/tasks/internal/infrastructure/monitor"
	"github.com/fastygo/tasks/internal/router"
	"github.com/fastygo/tasks/internal/services"
	"github.com/fastygo/tasks/pkg/httpcontext"
	"github.com/fastygo/tasks/repository/bolt"
	"github.com/fastygo/tasks/repository/cache"
	"github.com/fastygo/tasks/repository/memory"
	taskUC "github.com/fastygo/tasks/usecase/task"
)

type envelope struct {
	Status string          `json:"status"`
	Code   string          `json:"code"`
	Data   json.RawMessage `json:"data"`
}

type taskBody struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	Completed    bool   `json:"completed"`
	TitleForList string `json:"title_for_list"`
}

type server struct {
	handler fasthttp.RequestHandler
	remote  *memory.Remote
	mon     *monitor.Monitor
}

func newServer(t *testing.T) *server {
	t.Helper()
	remote := memory.NewRemote(0, nil)
	db, err := boltdb.Open(filepath.Join(t.TempDir(), "tasks.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	local, err := bolt.NewStore(db, nil)
	require.NoError(t, err)

	failures := services.NewWriteFailures()
	repo := cache.New(remote, local, nil, cache.WithWriteFailureHook(failures.Record))
	adapter := httpcontext.NewAdapter(time.Second)

	mon := monitor.New(time.Minute, nil)
	mon.Register("remote", true, 0, remote.Ping)
	mon.Register("local", false, 0, local.Ping)

	r := router.New(router.Handlers{
		Task:   handler.NewTaskHandler(taskUC.New(repo, nil), adapter, nil),
		Health: handler.NewHealthHandler(mon, failures, adapter, nil),
	}, nil)

	return &server{handler: r.Handler, remote: remote, mon: mon}
}

func (s *server) do(t *testing.T, method, path, body string) (int, envelope) {
	t.Helper()
	var ctx fasthttp.RequestCtx
	ctx.Request.Header.SetMethod(method)
	ctx.Request.SetRequestURI(path)
	if body != "" {
		ctx.Request.Header.SetContentType("application/json")
		ctx.Request.SetBodyString(body)
	}
	s.handler(&ctx)

	var env envelope
	if raw := ctx.Response.Body(); len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &env))
	}
	return ctx.Response.StatusCode(), env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func TestCreateAndGetTask(t *testing.T) {
	s := newServer(t)

	status, env := s.do(t, http.MethodPost, "/api/v1/tasks", `{"title":"Buy milk","description":"two litres"}`)
	require.Equal(t, http.StatusCreated, status)
	created := decode[taskBody](t, env.Data)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Buy milk", created.TitleForList)
	assert.False(t, created.Completed)

	status, env = s.do(t, http.MethodGet, "/api/v1/tasks/"+created.ID, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, created, decode[taskBody](t, env.Data))
}

func TestCreateTaskValidation(t *testing.T) {
	s := newServer(t)

	status, env := s.do(t, http.MethodPost, "/api/v1/tasks", `{"title":"","description":""}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, string(domain.ErrCodeInvalid), env.Code)

	status, env = s.do(t, http.MethodPost, "/api/v1/tasks", `not json`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, string(domain.ErrCodeInvalid), env.Code)
}

func TestUpdateUnknownTask(t *testing.T) {
	s := newServer(t)

	status, env := s.do(t, http.MethodPut, "/api/v1/tasks/missing", `{"title":"Title"}`)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, string(domain.ErrCodeNotAvailable), env.Code)

	status, _ = s.do(t, http.MethodGet, "/api/v1/tasks/missing", "")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestGetMissingTask(t *testing.T) {
	s := newServer(t)

	status, env := s.do(t, http.MethodGet, "/api/v1/tasks/missing", "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, string(domain.ErrCodeNotAvailable), env.Code)
}

func TestTaskLifecycle(t *testing.T) {
	s := newServer(t)
	ctx := context.Background()
	a := domain.NewTask("A", "")
	b := domain.NewTask("B", "")
	require.NoError(t, s.remote.SaveTask(ctx, a))
	require.NoError(t, s.remote.SaveTask(ctx, b))

	status, env := s.do(t, http.MethodGet, "/api/v1/tasks", "")
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[[]taskBody](t, env.Data), 2)

	status, env = s.do(t, http.MethodPost, "/api/v1/tasks/"+a.ID()+"/complete", "")
	require.Equal(t, http.StatusOK, status)
	assert.True(t, decode[taskBody](t, env.Data).Completed)

	status, env = s.do(t, http.MethodGet, "/api/v1/tasks?filter=completed", "")
	require.Equal(t, http.StatusOK, status)
	completed := decode[[]taskBody](t, env.Data)
	require.Len(t, completed, 1)
	assert.Equal(t, a.ID(), completed[0].ID)

	status, env = s.do(t, http.MethodGet, "/api/v1/statistics", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, taskUC.Statistics{Active: 1, Completed: 1}, decode[taskUC.Statistics](t, env.Data))

	status, _ = s.do(t, http.MethodPost, "/api/v1/tasks/clear-completed", "")
	require.Equal(t, http.StatusNoContent, status)

	status, env = s.do(t, http.MethodPut, "/api/v1/tasks/"+b.ID(), `{"title":"B2"}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "B2", decode[taskBody](t, env.Data).Title)

	status, env = s.do(t, http.MethodPost, "/api/v1/tasks/"+b.ID()+"/activate", "")
	require.Equal(t, http.StatusOK, status)
	assert.False(t, decode[taskBody](t, env.Data).Completed)

	status, env = s.do(t, http.MethodGet, "/api/v1/tasks", "")
	require.Equal(t, http.StatusOK, status)
	remaining := decode[[]taskBody](t, env.Data)
	require.Len(t, remaining, 1)
	assert.Equal(t, "B2", remaining[0].Title)

	status, _ = s.do(t, http.MethodDelete, "/api/v1/tasks/"+b.ID(), "")
	require.Equal(t, http.StatusNoContent, status)

	status, env = s.do(t, http.MethodGet, "/api/v1/tasks", "")
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, decode[[]taskBody](t, env.Data))
}

func TestRefreshPicksUpRemoteChanges(t *testing.T) {
	s := newServer(t)
	ctx := context.Background()
	require.NoError(t, s.remote.SaveTask(ctx, domain.NewTask("A", "")))

	_, env := s.do(t, http.MethodGet, "/api/v1/tasks?refresh=true", "")
	assert.Len(t, decode[[]taskBody](t, env.Data), 1)

	require.NoError(t, s.remote.SaveTask(ctx, domain.NewTask("B", "")))

	_, env = s.do(t, http.MethodGet, "/api/v1/tasks", "")
	assert.Len(t, decode[[]taskBody](t, env.Data), 1)

	_, env = s.do(t, http.MethodGet, "/api/v1/tasks?refresh=true", "")
	assert.Len(t, decode[[]taskBody](t, env.Data), 2)
}

func TestDeleteAllTasks(t *testing.T) {
	s := newServer(t)
	require.NoError(t, s.remote.SaveTask(context.Background(), domain.NewTask("A", "")))

	status, _ := s.do(t, http.MethodDelete, "/api/v1/tasks", "")
	require.Equal(t, http.StatusNoContent, status)

	status, env := s.do(t, http.MethodGet, "/api/v1/tasks", "")
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, decode[[]taskBody](t, env.Data))
}

func TestHealth(t *testing.T) {
	s := newServer(t)

	status, env := s.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "DEGRADED", env.Code)

	s.mon.Refresh(context.Background())
	status, env = s.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "success", env.Status)
}
