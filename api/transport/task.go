package transport

import "github.com/fastygo/tasks/domain"

// TaskResponse is the JSON form of a task returned by the API.
type TaskResponse struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	Completed    bool   `json:"completed"`
	TitleForList string `json:"title_for_list"`
}

func NewTaskResponse(t domain.Task) TaskResponse {
	return TaskResponse{
		ID:           t.ID(),
		Title:        t.Title(),
		Description:  t.Description(),
		Completed:    t.Completed(),
		TitleForList: t.TitleForList(),
	}
}

func NewTaskResponses(tasks []domain.Task) []TaskResponse {
	out := make([]TaskResponse, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, NewTaskResponse(t))
	}
	return out
}
