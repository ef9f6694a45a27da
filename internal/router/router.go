package router

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/fastygo/tasks/api/handler"
)

type Handlers struct {
	Task   *apiHandler.TaskHandler
	Health *apiHandler.HealthHandler
}

func New(handlers Handlers, authMiddleware func(fasthttp.RequestHandler) fasthttp.RequestHandler) *router.Router {
	if authMiddleware == nil {
		authMiddleware = func(next fasthttp.RequestHandler) fasthttp.RequestHandler { return next }
	}
	r := router.New()

	r.GET("/health", handlers.Health.Check)

	v1 := r.Group("/api/v1")

	v1.GET("/tasks", authMiddleware(handlers.Task.ListTasks))
	v1.POST("/tasks", authMiddleware(handlers.Task.CreateTask))
	v1.DELETE("/tasks", authMiddleware(handlers.Task.DeleteAllTasks))
	v1.POST("/tasks/clear-completed", authMiddleware(handlers.Task.ClearCompleted))

	v1.GET("/tasks/{id}", authMiddleware(handlers.Task.GetTask))
	v1.PUT("/tasks/{id}", authMiddleware(handlers.Task.UpdateTask))
	v1.DELETE("/tasks/{id}", authMiddleware(handlers.Task.DeleteTask))
	v1.POST("/tasks/{id}/complete", authMiddleware(handlers.Task.CompleteTask))
	v1.POST("/tasks/{id}/activate", authMiddleware(handlers.Task.ActivateTask))

	v1.GET("/statistics", authMiddleware(handlers.Task.Statistics))

	return r
}
