package dialog

import (
	"fmt"
	"strings"

	"taskbot/internal/backend"
	"taskbot/internal/session"
)

const (
	msgGreeting = "Welcome! Choose an option:"
	msgMainMenu = "Choose an option:"

	msgAskTitle       = "Please enter the task title:"
	msgEmptyTitle     = "The title cannot be empty. Please enter the task title:"
	msgAskDescription = "Current task: %s\n\nEnter description or press 'Skip':"

	msgTaskCreated = "Task created successfully: %s"
	msgNoTasks     = "No tasks found."

	msgCancelled  = "Cancelled. Choose an option:"
	msgNotStarted = "Nothing to cancel. Send /start to begin."

	msgUnavailable    = "The task service is unavailable right now, please try again later."
	msgUnauthorized   = "Access denied: your account is not recognized by the task service."
	msgRejected       = "The task service rejected the request."
	msgRejectedDetail = "The task service rejected the request: %s"

	msgHelpIdle = "Send /start to begin."
	msgHelp     = "I didn't understand that.\n" +
		"/tasks - view your tasks\n" +
		"/add - add a new task\n" +
		"/cancel - abort the current flow"
)

const taskDateLayout = "2006-01-02 15:04"

// helpReply is the response to any event the current state has no transition
// for. State never changes and no backend call is made.
func helpReply(st session.State) Reply {
	switch st {
	case session.StateIdle:
		return Reply{Text: msgHelpIdle}
	case session.StateMainMenu:
		return Reply{Text: msgHelp, Menu: MenuMain}
	case session.StateAddingTitle:
		return Reply{Text: msgAskTitle, Menu: MenuAddTitle}
	case session.StateAddingDescription:
		return Reply{Text: msgHelp, Menu: MenuAddDescription}
	case session.StateViewingTasks:
		return Reply{Text: msgHelp, Menu: MenuViewing}
	default:
		return Reply{Text: msgHelp}
	}
}

func renderTasks(tasks []backend.Task) string {
	if len(tasks) == 0 {
		return msgNoTasks
	}

	var b strings.Builder
	b.WriteString("Your tasks:\n")
	for _, t := range tasks {
		fmt.Fprintf(&b, "• %s (Created: %s)\n", t.Title, t.CreatedAt.Format(taskDateLayout))
		if t.DueDate != nil {
			fmt.Fprintf(&b, "  Due: %s\n", t.DueDate.Format(taskDateLayout))
		}
		if len(t.Categories) > 0 {
			names := make([]string, 0, len(t.Categories))
			for _, c := range t.Categories {
				names = append(names, c.Name)
			}
			fmt.Fprintf(&b, "  Categories: %s\n", strings.Join(names, ", "))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
