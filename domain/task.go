package domain

import "github.com/google/uuid"

// Task is an immutable to-do item. Completing or activating a task yields a
// new value with the same id.
type Task struct {
	id          string
	title       string
	description string
	completed   bool
}

// NewTask creates an active task with a freshly generated id.
func NewTask(title, description string) Task {
	return Task{
		id:          uuid.NewString(),
		title:       title,
		description: description,
	}
}

// RestoreTask rebuilds a task from stored fields. An empty id gets a
// generated one.
func RestoreTask(id, title, description string, completed bool) Task {
	if id == "" {
		id = uuid.NewString()
	}
	return Task{
		id:          id,
		title:       title,
		description: description,
		completed:   completed,
	}
}

func (t Task) ID() string {
	return t.id
}

func (t Task) Title() string {
	return t.title
}

func (t Task) Description() string {
	return t.description
}

func (t Task) Completed() bool {
	return t.completed
}

// TitleForList is the title, or the description when the title is empty.
func (t Task) TitleForList() string {
	if t.title != "" {
		return t.title
	}
	return t.description
}

func (t Task) IsActive() bool {
	return !t.completed
}

func (t Task) IsEmpty() bool {
	return t.title == "" && t.description == ""
}

// Complete returns a completed copy of t.
func (t Task) Complete() Task {
	t.completed = true
	return t
}

// Activate returns an active copy of t.
func (t Task) Activate() Task {
	t.completed = false
	return t
}

// TaskRecord is the flat persisted/transport form of a Task.
type TaskRecord struct {
	ID          string `json:"id"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Completed   bool   `json:"completed"`
}

func (t Task) Record() TaskRecord {
	return TaskRecord{
		ID:          t.id,
		Title:       t.title,
		Description: t.description,
		Completed:   t.completed,
	}
}

func (r TaskRecord) Task() Task {
	return RestoreTask(r.ID, r.Title, r.Description, r.Completed)
}
