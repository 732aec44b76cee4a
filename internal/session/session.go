// Package session holds per-user conversational state for the dialog engine.
// Sessions live in process memory only and are dropped on restart or after
// an idle timeout.
package session

import (
	"sync"
	"time"
)

// State identifies a dialog step.
type State string

const (
	// StateIdle indicates there is no active conversation with the user.
	StateIdle State = "idle"
	// StateMainMenu is the action selection step.
	StateMainMenu State = "main_menu"
	// StateAddingTitle waits for a task title.
	StateAddingTitle State = "adding_title"
	// StateAddingDescription waits for a description or a skip.
	StateAddingDescription State = "adding_description"
	// StateViewingTasks shows the task list.
	StateViewingTasks State = "viewing_tasks"
)

// Draft accumulates task fields across dialog turns before submission.
type Draft struct {
	Title       string
	Description string
}

// Clear resets the draft to its zero value.
func (d *Draft) Clear() {
	*d = Draft{}
}

// Session stores conversation state and the in-progress draft for one user.
// The embedded mutex serializes event processing per user: it is taken by
// Store.Acquire and held until Store.Release, including across backend calls.
type Session struct {
	UserID       int64
	State        State
	Draft        Draft
	LastActivity time.Time

	mu      sync.Mutex
	evicted bool
}
