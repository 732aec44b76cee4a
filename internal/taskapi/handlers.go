package taskapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"taskbot/core/logger"

	"log/slog"
)

// fieldErrors is the validation error body: field name to a list of messages.
type fieldErrors map[string][]string

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
		return
	}
	logger.API.LogAttrs(r.Context(), slog.LevelError, "request failed",
		slog.String("event", "request.fail"),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("err", err.Error()),
	)
	writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": "Internal server error."})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "Malformed JSON body."})
		return false
	}
	return true
}

func validateTaskInput(in TaskInput) fieldErrors {
	errs := fieldErrors{}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		errs["title"] = append(errs["title"], "This field is required.")
	} else if len(title) > 200 {
		errs["title"] = append(errs["title"], "Ensure this field has no more than 200 characters.")
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

func validateCategoryInput(in CategoryInput) fieldErrors {
	errs := fieldErrors{}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		errs["name"] = append(errs["name"], "This field is required.")
	} else if len(name) > 100 {
		errs["name"] = append(errs["name"], "Ensure this field has no more than 100 characters.")
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.store.ListTasks(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if tasks == nil {
		tasks = []Task{}
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var in TaskInput
	if !decodeBody(w, r, &in) {
		return
	}
	if errs := validateTaskInput(in); errs != nil {
		writeJSON(w, http.StatusBadRequest, errs)
		return
	}
	in.Title = strings.TrimSpace(in.Title)

	task, err := s.store.CreateTask(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	logger.API.Info("task created",
		slog.String("event", "task.create"),
		slog.String("task_id", task.ID),
		slog.Int64("user_id", task.UserID),
	)
	writeJSON(w, http.StatusCreated, task)
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	task, err := s.store.GetTask(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	var in TaskInput
	if !decodeBody(w, r, &in) {
		return
	}
	if errs := validateTaskInput(in); errs != nil {
		writeJSON(w, http.StatusBadRequest, errs)
		return
	}
	in.Title = strings.TrimSpace(in.Title)

	task, err := s.store.UpdateTask(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteTask(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.store.ListCategories(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if cats == nil {
		cats = []Category{}
	}
	writeJSON(w, http.StatusOK, cats)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var in CategoryInput
	if !decodeBody(w, r, &in) {
		return
	}
	if errs := validateCategoryInput(in); errs != nil {
		writeJSON(w, http.StatusBadRequest, errs)
		return
	}
	in.Name = strings.TrimSpace(in.Name)

	cat, err := s.store.CreateCategory(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, cat)
}

func (s *Server) handleGetCategory(w http.ResponseWriter, r *http.Request) {
	cat, err := s.store.GetCategory(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cat)
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	var in CategoryInput
	if !decodeBody(w, r, &in) {
		return
	}
	if errs := validateCategoryInput(in); errs != nil {
		writeJSON(w, http.StatusBadRequest, errs)
		return
	}
	in.Name = strings.TrimSpace(in.Name)

	cat, err := s.store.UpdateCategory(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cat)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteCategory(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleTelegramTasks(w http.ResponseWriter, r *http.Request) {
	telegramID, err := strconv.ParseInt(chi.URLParam(r, "telegramID"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "Invalid telegram id."})
		return
	}

	tasks, err := s.store.TasksForTelegramID(r.Context(), telegramID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if tasks == nil {
		tasks = []Task{}
	}
	logger.API.Debug("telegram tasks listed",
		slog.String("event", "telegram.tasks"),
		slog.Int64("user_id", telegramID),
		slog.Int("tasks_total", len(tasks)),
	)
	writeJSON(w, http.StatusOK, tasks)
}
