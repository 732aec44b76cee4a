package taskapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"taskbot/core/logger"
)

func TestMain(m *testing.M) {
	if err := logger.InitLogger(nil); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

// fakeStorage keeps everything in maps; good enough to drive the handlers.
type fakeStorage struct {
	tasks      map[string]Task
	categories map[string]Category
	byTelegram map[int64][]Task

	lastInput TaskInput
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{
		tasks:      map[string]Task{},
		categories: map[string]Category{},
		byTelegram: map[int64][]Task{},
	}
}

func (f *fakeStorage) TasksForTelegramID(ctx context.Context, telegramID int64) ([]Task, error) {
	return f.byTelegram[telegramID], nil
}

func (f *fakeStorage) ListTasks(ctx context.Context) ([]Task, error) {
	out := make([]Task, 0, len(f.tasks))
	for _, t := range f.tasks {
		out = append(out, t)
	}
	return out, nil
}

func (f *fakeStorage) CreateTask(ctx context.Context, in TaskInput) (Task, error) {
	f.lastInput = in
	task := Task{
		ID:         "TASK_TEST",
		Title:      in.Title,
		UserID:     1,
		CreatedAt:  time.Now().UTC(),
		UpdatedAt:  time.Now().UTC(),
		Categories: []Category{},
	}
	f.tasks[task.ID] = task
	return task, nil
}

func (f *fakeStorage) GetTask(ctx context.Context, id string) (Task, error) {
	t, ok := f.tasks[id]
	if !ok {
		return Task{}, ErrNotFound
	}
	return t, nil
}

func (f *fakeStorage) UpdateTask(ctx context.Context, id string, in TaskInput) (Task, error) {
	t, ok := f.tasks[id]
	if !ok {
		return Task{}, ErrNotFound
	}
	t.Title = in.Title
	f.tasks[id] = t
	return t, nil
}

func (f *fakeStorage) DeleteTask(ctx context.Context, id string) error {
	if _, ok := f.tasks[id]; !ok {
		return ErrNotFound
	}
	delete(f.tasks, id)
	return nil
}

func (f *fakeStorage) ListCategories(ctx context.Context) ([]Category, error) {
	out := make([]Category, 0, len(f.categories))
	for _, c := range f.categories {
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeStorage) CreateCategory(ctx context.Context, in CategoryInput) (Category, error) {
	cat := Category{ID: "CAT_TEST", Name: in.Name, CreatedAt: time.Now().UTC()}
	f.categories[cat.ID] = cat
	return cat, nil
}

func (f *fakeStorage) GetCategory(ctx context.Context, id string) (Category, error) {
	c, ok := f.categories[id]
	if !ok {
		return Category{}, ErrNotFound
	}
	return c, nil
}

func (f *fakeStorage) UpdateCategory(ctx context.Context, id string, in CategoryInput) (Category, error) {
	c, ok := f.categories[id]
	if !ok {
		return Category{}, ErrNotFound
	}
	c.Name = in.Name
	f.categories[id] = c
	return c, nil
}

func (f *fakeStorage) DeleteCategory(ctx context.Context, id string) error {
	if _, ok := f.categories[id]; !ok {
		return ErrNotFound
	}
	delete(f.categories, id)
	return nil
}

func newTestServer(store Storage) http.Handler {
	return NewServer(store).Router()
}

func doRequest(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestCreateTaskEndpoint(t *testing.T) {
	store := newFakeStorage()
	h := newTestServer(store)

	rec := doRequest(t, h, http.MethodPost, "/api/tasks/",
		`{"title":"buy milk","user":42}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, expected 201; body %s", rec.Code, rec.Body.String())
	}

	var task Task
	if err := json.Unmarshal(rec.Body.Bytes(), &task); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if task.Title != "buy milk" {
		t.Fatalf("title = %q", task.Title)
	}
	if store.lastInput.User != 42 {
		t.Fatalf("telegram id = %d, expected 42", store.lastInput.User)
	}
}

func TestCreateTaskValidation(t *testing.T) {
	h := newTestServer(newFakeStorage())

	rec := doRequest(t, h, http.MethodPost, "/api/tasks/", `{"title":"  ","user":42}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, expected 400", rec.Code)
	}

	var errs map[string][]string
	if err := json.Unmarshal(rec.Body.Bytes(), &errs); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if got := errs["title"]; len(got) != 1 || got[0] != "This field is required." {
		t.Fatalf("title errors = %v", got)
	}
}

func TestCreateTaskTitleTooLong(t *testing.T) {
	h := newTestServer(newFakeStorage())

	long := strings.Repeat("x", 201)
	rec := doRequest(t, h, http.MethodPost, "/api/tasks/", `{"title":"`+long+`"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, expected 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "no more than 200 characters") {
		t.Fatalf("body = %s", rec.Body.String())
	}
}

func TestCreateTaskMalformedJSON(t *testing.T) {
	h := newTestServer(newFakeStorage())
	rec := doRequest(t, h, http.MethodPost, "/api/tasks/", `{broken`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, expected 400", rec.Code)
	}
}

func TestGetTaskNotFound(t *testing.T) {
	h := newTestServer(newFakeStorage())
	rec := doRequest(t, h, http.MethodGet, "/api/tasks/TASK_MISSING/", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, expected 404", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Not found.") {
		t.Fatalf("body = %s", rec.Body.String())
	}
}

func TestTaskLifecycle(t *testing.T) {
	store := newFakeStorage()
	h := newTestServer(store)

	doRequest(t, h, http.MethodPost, "/api/tasks/", `{"title":"first"}`)

	rec := doRequest(t, h, http.MethodPut, "/api/tasks/TASK_TEST/", `{"title":"renamed"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d; body %s", rec.Code, rec.Body.String())
	}
	if store.tasks["TASK_TEST"].Title != "renamed" {
		t.Fatalf("title = %q after update", store.tasks["TASK_TEST"].Title)
	}

	rec = doRequest(t, h, http.MethodDelete, "/api/tasks/TASK_TEST/", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}
	if len(store.tasks) != 0 {
		t.Fatal("task survived delete")
	}

	rec = doRequest(t, h, http.MethodDelete, "/api/tasks/TASK_TEST/", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("second delete status = %d, expected 404", rec.Code)
	}
}

func TestTelegramTasksEndpoint(t *testing.T) {
	store := newFakeStorage()
	store.byTelegram[42] = []Task{{ID: "TASK_1", Title: "buy milk", Categories: []Category{}}}
	h := newTestServer(store)

	rec := doRequest(t, h, http.MethodGet, "/api/telegram/user/42/tasks/", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var tasks []Task
	if err := json.Unmarshal(rec.Body.Bytes(), &tasks); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(tasks) != 1 || tasks[0].Title != "buy milk" {
		t.Fatalf("tasks = %+v", tasks)
	}
}

func TestTelegramTasksEmptyList(t *testing.T) {
	h := newTestServer(newFakeStorage())

	rec := doRequest(t, h, http.MethodGet, "/api/telegram/user/7/tasks/", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
		t.Fatalf("body = %s, expected empty array", body)
	}
}

func TestTelegramTasksInvalidID(t *testing.T) {
	h := newTestServer(newFakeStorage())
	rec := doRequest(t, h, http.MethodGet, "/api/telegram/user/abc/tasks/", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, expected 400", rec.Code)
	}
}

func TestCategoryEndpoints(t *testing.T) {
	store := newFakeStorage()
	h := newTestServer(store)

	rec := doRequest(t, h, http.MethodPost, "/api/categories/", `{"name":"home"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d; body %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, h, http.MethodPost, "/api/categories/", `{"name":""}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("empty name status = %d, expected 400", rec.Code)
	}

	rec = doRequest(t, h, http.MethodGet, "/api/categories/", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}

	rec = doRequest(t, h, http.MethodPut, "/api/categories/CAT_TEST/", `{"name":"work"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d", rec.Code)
	}
	if store.categories["CAT_TEST"].Name != "work" {
		t.Fatalf("name = %q after update", store.categories["CAT_TEST"].Name)
	}

	rec = doRequest(t, h, http.MethodDelete, "/api/categories/CAT_TEST/", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	h := newTestServer(newFakeStorage())
	rec := doRequest(t, h, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}
