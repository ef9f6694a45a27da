package transport

// TaskRequest is the body of task create and edit calls.
type TaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}
