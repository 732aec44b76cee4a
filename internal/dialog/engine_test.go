package dialog

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"taskbot/internal/backend"
	"taskbot/internal/session"
)

type fakeAPI struct {
	tasks     []backend.Task
	listErr   error
	createErr error

	listCalls int
	created   []backend.NewTask
}

func (f *fakeAPI) ListTasks(ctx context.Context, telegramID int64) ([]backend.Task, error) {
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.tasks, nil
}

func (f *fakeAPI) CreateTask(ctx context.Context, in backend.NewTask) (backend.Task, error) {
	f.created = append(f.created, in)
	if f.createErr != nil {
		return backend.Task{}, f.createErr
	}
	return backend.Task{ID: "TASK_1", Title: in.Title, Description: in.Description}, nil
}

func newTestEngine(api *fakeAPI) *Engine {
	return NewEngine(session.NewStore(), api, time.Second)
}

func stateOf(t *testing.T, e *Engine, userID int64) session.State {
	t.Helper()
	st, ok := e.Store().Peek(userID)
	if !ok {
		t.Fatal("no session for user")
	}
	return st
}

func TestStartOpensMainMenu(t *testing.T) {
	e := newTestEngine(&fakeAPI{})
	reply := e.Handle(context.Background(), 1, Event{Kind: KindStart})

	if reply.Text != msgGreeting {
		t.Fatalf("reply = %q, expected greeting", reply.Text)
	}
	if reply.Menu != MenuMain {
		t.Fatalf("menu = %d, expected MenuMain", reply.Menu)
	}
	if st := stateOf(t, e, 1); st != session.StateMainMenu {
		t.Fatalf("state = %s, expected main_menu", st)
	}
}

func TestAddTaskFlow(t *testing.T) {
	api := &fakeAPI{}
	e := newTestEngine(api)
	ctx := context.Background()

	e.Handle(ctx, 1, Event{Kind: KindStart})

	reply := e.Handle(ctx, 1, Event{Kind: KindMenuAdd})
	if reply.Text != msgAskTitle {
		t.Fatalf("reply = %q, expected title prompt", reply.Text)
	}

	reply = e.Handle(ctx, 1, Event{Kind: KindText, Text: "  buy milk  "})
	if !strings.Contains(reply.Text, "buy milk") {
		t.Fatalf("description prompt %q does not echo the title", reply.Text)
	}
	if st := stateOf(t, e, 1); st != session.StateAddingDescription {
		t.Fatalf("state = %s, expected adding_description", st)
	}

	reply = e.Handle(ctx, 1, Event{Kind: KindText, Text: "2 liters"})
	if reply.Text != fmt.Sprintf(msgTaskCreated, "buy milk") {
		t.Fatalf("reply = %q, expected creation confirmation", reply.Text)
	}
	if st := stateOf(t, e, 1); st != session.StateMainMenu {
		t.Fatalf("state = %s, expected main_menu after create", st)
	}

	if len(api.created) != 1 {
		t.Fatalf("created %d tasks, expected 1", len(api.created))
	}
	got := api.created[0]
	if got.Title != "buy milk" || got.Description != "2 liters" || got.TelegramID != 1 {
		t.Fatalf("unexpected create payload: %+v", got)
	}
}

func TestSkipDescriptionCreatesWithoutIt(t *testing.T) {
	api := &fakeAPI{}
	e := newTestEngine(api)
	ctx := context.Background()

	e.Handle(ctx, 1, Event{Kind: KindStart})
	e.Handle(ctx, 1, Event{Kind: KindMenuAdd})
	e.Handle(ctx, 1, Event{Kind: KindText, Text: "water plants"})
	reply := e.Handle(ctx, 1, Event{Kind: KindSkip})

	if reply.Text != fmt.Sprintf(msgTaskCreated, "water plants") {
		t.Fatalf("reply = %q, expected creation confirmation", reply.Text)
	}
	if len(api.created) != 1 || api.created[0].Description != "" {
		t.Fatalf("unexpected create payload: %+v", api.created)
	}
}

func TestEmptyTitleIsRejectedLocally(t *testing.T) {
	api := &fakeAPI{}
	e := newTestEngine(api)
	ctx := context.Background()

	e.Handle(ctx, 1, Event{Kind: KindStart})
	e.Handle(ctx, 1, Event{Kind: KindMenuAdd})
	reply := e.Handle(ctx, 1, Event{Kind: KindText, Text: "   "})

	if reply.Text != msgEmptyTitle {
		t.Fatalf("reply = %q, expected empty-title prompt", reply.Text)
	}
	if st := stateOf(t, e, 1); st != session.StateAddingTitle {
		t.Fatalf("state = %s, expected to stay in adding_title", st)
	}
	if len(api.created) != 0 || api.listCalls != 0 {
		t.Fatal("backend was called for an empty title")
	}
}

func TestViewTasksRendersList(t *testing.T) {
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	api := &fakeAPI{tasks: []backend.Task{
		{ID: "TASK_1", Title: "buy milk", CreatedAt: created},
		{ID: "TASK_2", Title: "call mom", CreatedAt: created},
	}}
	e := newTestEngine(api)
	ctx := context.Background()

	e.Handle(ctx, 1, Event{Kind: KindStart})
	reply := e.Handle(ctx, 1, Event{Kind: KindMenuView})

	for _, want := range []string{"buy milk", "call mom", "2024-05-01 12:00"} {
		if !strings.Contains(reply.Text, want) {
			t.Fatalf("task list %q missing %q", reply.Text, want)
		}
	}
	if st := stateOf(t, e, 1); st != session.StateViewingTasks {
		t.Fatalf("state = %s, expected viewing_tasks", st)
	}

	reply = e.Handle(ctx, 1, Event{Kind: KindBack})
	if reply.Text != msgMainMenu {
		t.Fatalf("reply = %q, expected main menu", reply.Text)
	}
	if st := stateOf(t, e, 1); st != session.StateMainMenu {
		t.Fatalf("state = %s, expected main_menu after back", st)
	}
}

func TestViewTasksEmpty(t *testing.T) {
	e := newTestEngine(&fakeAPI{tasks: []backend.Task{}})
	ctx := context.Background()

	e.Handle(ctx, 1, Event{Kind: KindStart})
	reply := e.Handle(ctx, 1, Event{Kind: KindMenuView})

	if reply.Text != msgNoTasks {
		t.Fatalf("reply = %q, expected %q", reply.Text, msgNoTasks)
	}
}

func TestViewTasksFailureStaysInMainMenu(t *testing.T) {
	api := &fakeAPI{listErr: fmt.Errorf("%w: GET: boom", backend.ErrUnavailable)}
	e := newTestEngine(api)
	ctx := context.Background()

	e.Handle(ctx, 1, Event{Kind: KindStart})
	reply := e.Handle(ctx, 1, Event{Kind: KindMenuView})

	if reply.Text != msgUnavailable {
		t.Fatalf("reply = %q, expected unavailable notice", reply.Text)
	}
	if st := stateOf(t, e, 1); st != session.StateMainMenu {
		t.Fatalf("state = %s, expected to stay in main_menu", st)
	}
}

func TestCreateFailureClearsDraft(t *testing.T) {
	api := &fakeAPI{createErr: fmt.Errorf("%w: POST: boom", backend.ErrUnavailable)}
	e := newTestEngine(api)
	ctx := context.Background()

	e.Handle(ctx, 1, Event{Kind: KindStart})
	e.Handle(ctx, 1, Event{Kind: KindMenuAdd})
	e.Handle(ctx, 1, Event{Kind: KindText, Text: "first"})
	reply := e.Handle(ctx, 1, Event{Kind: KindText, Text: "desc"})

	if reply.Text != msgUnavailable {
		t.Fatalf("reply = %q, expected unavailable notice", reply.Text)
	}
	if st := stateOf(t, e, 1); st != session.StateMainMenu {
		t.Fatalf("state = %s, expected main_menu after failed create", st)
	}

	// The stale title must not leak into the next flow.
	api.createErr = nil
	e.Handle(ctx, 1, Event{Kind: KindMenuAdd})
	e.Handle(ctx, 1, Event{Kind: KindText, Text: "second"})
	e.Handle(ctx, 1, Event{Kind: KindSkip})

	last := api.created[len(api.created)-1]
	if last.Title != "second" {
		t.Fatalf("created title = %q, expected %q", last.Title, "second")
	}
}

func TestCreateRejectedShowsFieldDetail(t *testing.T) {
	api := &fakeAPI{createErr: &backend.InvalidError{
		Fields: map[string][]string{"title": {"This field is required."}},
	}}
	e := newTestEngine(api)
	ctx := context.Background()

	e.Handle(ctx, 1, Event{Kind: KindStart})
	e.Handle(ctx, 1, Event{Kind: KindMenuAdd})
	e.Handle(ctx, 1, Event{Kind: KindText, Text: "x"})
	reply := e.Handle(ctx, 1, Event{Kind: KindSkip})

	if !strings.Contains(reply.Text, "title: This field is required.") {
		t.Fatalf("reply = %q, expected field detail", reply.Text)
	}
}

func TestUnauthorizedMessage(t *testing.T) {
	api := &fakeAPI{listErr: fmt.Errorf("%w: status 401", backend.ErrUnauthorized)}
	e := newTestEngine(api)
	ctx := context.Background()

	e.Handle(ctx, 1, Event{Kind: KindStart})
	reply := e.Handle(ctx, 1, Event{Kind: KindMenuView})

	if reply.Text != msgUnauthorized {
		t.Fatalf("reply = %q, expected unauthorized notice", reply.Text)
	}
}

func TestCancel(t *testing.T) {
	e := newTestEngine(&fakeAPI{})
	ctx := context.Background()

	reply := e.Handle(ctx, 1, Event{Kind: KindCancel})
	if reply.Text != msgNotStarted {
		t.Fatalf("reply = %q, expected nothing-to-cancel notice", reply.Text)
	}

	e.Handle(ctx, 1, Event{Kind: KindStart})
	e.Handle(ctx, 1, Event{Kind: KindMenuAdd})
	e.Handle(ctx, 1, Event{Kind: KindText, Text: "abandoned"})
	reply = e.Handle(ctx, 1, Event{Kind: KindCancel})

	if reply.Text != msgCancelled {
		t.Fatalf("reply = %q, expected cancel confirmation", reply.Text)
	}
	if st := stateOf(t, e, 1); st != session.StateMainMenu {
		t.Fatalf("state = %s, expected main_menu after cancel", st)
	}
}

func TestUnrecognizedEventKeepsState(t *testing.T) {
	api := &fakeAPI{}
	e := newTestEngine(api)
	ctx := context.Background()

	reply := e.Handle(ctx, 1, Event{Kind: KindText, Text: "hello"})
	if reply.Text != msgHelpIdle {
		t.Fatalf("reply = %q, expected idle help", reply.Text)
	}
	if st := stateOf(t, e, 1); st != session.StateIdle {
		t.Fatalf("state = %s, expected idle", st)
	}

	e.Handle(ctx, 1, Event{Kind: KindStart})
	reply = e.Handle(ctx, 1, Event{Kind: KindText, Text: "gibberish"})
	if reply.Text != msgHelp {
		t.Fatalf("reply = %q, expected help", reply.Text)
	}
	if st := stateOf(t, e, 1); st != session.StateMainMenu {
		t.Fatalf("state = %s, expected to stay in main_menu", st)
	}
	if api.listCalls != 0 || len(api.created) != 0 {
		t.Fatal("unrecognized event reached the backend")
	}
}
