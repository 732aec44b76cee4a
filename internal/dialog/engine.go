// Package dialog implements the conversational state machine. Every
// transition is decided by one function over (state, event), so the whole
// flow is enumerable and testable without a chat transport.
package dialog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"taskbot/core/logger"
	"taskbot/internal/backend"
	"taskbot/internal/session"

	"log/slog"
)

// TaskAPI is the slice of the backend client the engine depends on.
type TaskAPI interface {
	ListTasks(ctx context.Context, telegramID int64) ([]backend.Task, error)
	CreateTask(ctx context.Context, in backend.NewTask) (backend.Task, error)
}

// Engine drives dialog sessions. It owns session acquisition per event and
// converts every backend failure into a user-facing reply; raw errors never
// reach the transport.
type Engine struct {
	store   *session.Store
	api     TaskAPI
	timeout time.Duration
}

// NewEngine builds an engine. timeout bounds each backend call.
func NewEngine(store *session.Store, api TaskAPI, timeout time.Duration) *Engine {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Engine{store: store, api: api, timeout: timeout}
}

// Store exposes the underlying session store for eviction and diagnostics.
func (e *Engine) Store() *session.Store {
	return e.store
}

// Handle processes one inbound event for userID and returns the reply to
// render. The session lock is held for the whole turn, so events for the
// same user are applied strictly one after another while other users
// proceed independently.
func (e *Engine) Handle(ctx context.Context, userID int64, ev Event) Reply {
	sess := e.store.Acquire(userID)
	defer e.store.Release(sess)

	from := sess.State
	reply := e.transition(ctx, sess, ev)

	logger.Debug(ctx, "dialog", "transition",
		slog.String("status", "ok"),
		slog.Int64("user_id", userID),
		slog.String("event_kind", ev.Kind.String()),
		slog.String("from_state", string(from)),
		slog.String("to_state", string(sess.State)),
	)
	return reply
}

func (e *Engine) transition(ctx context.Context, sess *session.Session, ev Event) Reply {
	// Start and cancel behave the same from every state.
	switch ev.Kind {
	case KindStart:
		sess.Draft.Clear()
		sess.State = session.StateMainMenu
		return Reply{Text: msgGreeting, Menu: MenuMain}
	case KindCancel:
		if sess.State == session.StateIdle {
			return Reply{Text: msgNotStarted}
		}
		sess.Draft.Clear()
		sess.State = session.StateMainMenu
		return Reply{Text: msgCancelled, Menu: MenuMain}
	}

	switch sess.State {
	case session.StateMainMenu:
		switch ev.Kind {
		case KindMenuView:
			return e.viewTasks(ctx, sess)
		case KindMenuAdd:
			sess.Draft.Clear()
			sess.State = session.StateAddingTitle
			return Reply{Text: msgAskTitle, Menu: MenuAddTitle}
		}

	case session.StateAddingTitle:
		switch ev.Kind {
		case KindBack:
			sess.Draft.Clear()
			sess.State = session.StateMainMenu
			return Reply{Text: msgMainMenu, Menu: MenuMain}
		case KindText:
			title := strings.TrimSpace(ev.Text)
			if title == "" {
				// Local validation; garbage never costs a round trip.
				return Reply{Text: msgEmptyTitle, Menu: MenuAddTitle}
			}
			sess.Draft.Title = title
			sess.State = session.StateAddingDescription
			return Reply{Text: fmt.Sprintf(msgAskDescription, title), Menu: MenuAddDescription}
		}

	case session.StateAddingDescription:
		switch ev.Kind {
		case KindBack:
			sess.Draft.Clear()
			sess.State = session.StateMainMenu
			return Reply{Text: msgMainMenu, Menu: MenuMain}
		case KindSkip:
			return e.createTask(ctx, sess, "")
		case KindText:
			return e.createTask(ctx, sess, strings.TrimSpace(ev.Text))
		}

	case session.StateViewingTasks:
		if ev.Kind == KindBack {
			sess.State = session.StateMainMenu
			return Reply{Text: msgMainMenu, Menu: MenuMain}
		}
	}

	return helpReply(sess.State)
}

// viewTasks lists the user's tasks. The state moves to viewing only after a
// successful call; on failure the session stays in the main menu.
func (e *Engine) viewTasks(ctx context.Context, sess *session.Session) Reply {
	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	tasks, err := e.api.ListTasks(callCtx, sess.UserID)
	if err != nil {
		logger.Warn(ctx, "dialog", "list.fail",
			slog.String("status", "fail"),
			slog.Int64("user_id", sess.UserID),
			slog.String("err", err.Error()),
		)
		return Reply{Text: failureText(err), Menu: MenuMain}
	}

	sess.State = session.StateViewingTasks
	return Reply{Text: renderTasks(tasks), Menu: MenuViewing}
}

// createTask submits the draft. The session returns to the main menu and the
// draft is cleared whatever the outcome, so a stale title can never resurface
// in a later flow. State is written only after the call completes.
func (e *Engine) createTask(ctx context.Context, sess *session.Session, description string) Reply {
	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	task, err := e.api.CreateTask(callCtx, backend.NewTask{
		Title:       sess.Draft.Title,
		Description: description,
		TelegramID:  sess.UserID,
	})

	sess.Draft.Clear()
	sess.State = session.StateMainMenu

	if err != nil {
		logger.Warn(ctx, "dialog", "create.fail",
			slog.String("status", "fail"),
			slog.Int64("user_id", sess.UserID),
			slog.String("err", err.Error()),
		)
		return Reply{Text: failureText(err), Menu: MenuMain}
	}

	logger.Info(ctx, "dialog", "create",
		slog.String("status", "ok"),
		slog.Int64("user_id", sess.UserID),
		slog.String("task_id", task.ID),
	)
	return Reply{Text: fmt.Sprintf(msgTaskCreated, task.Title), Menu: MenuMain}
}

// failureText maps the backend error taxonomy to user-facing messages.
func failureText(err error) string {
	switch {
	case errors.Is(err, backend.ErrUnauthorized):
		return msgUnauthorized
	case errors.Is(err, backend.ErrInvalid):
		var invalid *backend.InvalidError
		if errors.As(err, &invalid) {
			if detail := invalid.Detail(); detail != "" {
				return fmt.Sprintf(msgRejectedDetail, detail)
			}
		}
		return msgRejected
	default:
		return msgUnavailable
	}
}
