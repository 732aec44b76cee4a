// Package taskapi implements the task service REST API the bot talks to:
// task and category CRUD over Postgres plus the Telegram identity lookup.
package taskapi

import "time"

// User is an account that owns tasks.
type User struct {
	ID        int64     `db:"id" json:"id"`
	Username  string    `db:"username" json:"username"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Task is the persisted task row. Categories are loaded from the join table
// separately and therefore carry no db tag.
type Task struct {
	ID          string     `db:"id" json:"id"`
	Title       string     `db:"title" json:"title"`
	Description *string    `db:"description" json:"description"`
	Completed   bool       `db:"completed" json:"completed"`
	DueDate     *time.Time `db:"due_date" json:"due_date"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
	UserID      int64      `db:"user_id" json:"user"`
	Categories  []Category `db:"-" json:"categories"`
}

// Category groups tasks. Names are unique.
type Category struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// TaskInput is the write payload for creating or updating a task.
type TaskInput struct {
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	Completed   *bool      `json:"completed"`
	DueDate     *time.Time `json:"due_date"`
	// User carries the caller's Telegram ID on create. When the ID is not
	// linked to an account the demo fallback in the store applies.
	User       int64    `json:"user"`
	Categories []string `json:"categories"`
}

// CategoryInput is the write payload for creating a category.
type CategoryInput struct {
	Name string `json:"name"`
}
