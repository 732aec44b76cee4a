package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestListTasks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/telegram/user/42/tasks/" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":"TASK_1","title":"buy milk","completed":false,"user":1}]`))
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	tasks, err := c.ListTasks(context.Background(), 42)
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if len(tasks) != 1 || tasks[0].Title != "buy milk" {
		t.Fatalf("unexpected tasks: %+v", tasks)
	}
}

func TestListTasksEmptyIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	tasks, err := c.ListTasks(context.Background(), 42)
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if tasks == nil || len(tasks) != 0 {
		t.Fatalf("expected empty slice, got %#v", tasks)
	}
}

func TestCreateTask(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/tasks/" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		if payload["title"] != "buy milk" || payload["user"] != float64(42) {
			t.Errorf("unexpected payload: %v", payload)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"TASK_1","title":"buy milk","user":1}`))
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	task, err := c.CreateTask(context.Background(), NewTask{Title: "buy milk", TelegramID: 42})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if task.ID != "TASK_1" {
		t.Fatalf("task.ID = %q", task.ID)
	}
}

func TestServerErrorIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	if _, err := c.ListTasks(context.Background(), 1); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("err = %v, expected ErrUnavailable", err)
	}
}

func TestAuthFailuresAreUnauthorized(t *testing.T) {
	for _, code := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(code)
		}))
		c := New(srv.URL, time.Second)
		_, err := c.ListTasks(context.Background(), 1)
		srv.Close()
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("status %d: err = %v, expected ErrUnauthorized", code, err)
		}
	}
}

func TestBadRequestCarriesFieldErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"title":["This field is required."]}`))
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	_, err := c.CreateTask(context.Background(), NewTask{TelegramID: 1})
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("err = %v, expected ErrInvalid", err)
	}

	var invalid *InvalidError
	if !errors.As(err, &invalid) {
		t.Fatalf("err = %v, expected *InvalidError", err)
	}
	if got := invalid.Detail(); got != "title: This field is required." {
		t.Fatalf("Detail = %q", got)
	}
}

func TestConnectionFailureIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing listens anymore

	c := New(srv.URL, time.Second)
	if _, err := c.ListTasks(context.Background(), 1); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("err = %v, expected ErrUnavailable", err)
	}
}

func TestTimeoutIsUnavailable(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer func() {
		close(release)
		srv.Close()
	}()

	c := New(srv.URL, 50*time.Millisecond)
	if _, err := c.ListTasks(context.Background(), 1); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("err = %v, expected ErrUnavailable", err)
	}
}

func TestMalformedBodyIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{not json`))
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	if _, err := c.ListTasks(context.Background(), 1); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("err = %v, expected ErrUnavailable", err)
	}
}
