package backend

import "time"

// Category mirrors the category resource exposed by the task API.
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Task mirrors the task resource exposed by the task API.
type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Completed   bool       `json:"completed"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Categories  []Category `json:"categories,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	User        int64      `json:"user"`
}

// NewTask carries the fields needed to create a task on behalf of a chat user.
type NewTask struct {
	Title       string
	Description string
	TelegramID  int64
}

// NewCategory carries the fields needed to create or update a category.
type NewCategory struct {
	Name string
}
