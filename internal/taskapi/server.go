package taskapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"taskbot/core/logger"

	"log/slog"
)

// Server exposes the task API over HTTP.
type Server struct {
	store Storage
}

// NewServer builds a server on top of the given storage.
func NewServer(store Storage) *Server {
	return &Server{store: store}
}

// Router assembles the HTTP routes. All resource paths keep their trailing
// slash; existing bot deployments address them that way.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(requestLogger)

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/tasks/", s.handleListTasks)
		r.Post("/tasks/", s.handleCreateTask)
		r.Get("/tasks/{id}/", s.handleGetTask)
		r.Put("/tasks/{id}/", s.handleUpdateTask)
		r.Delete("/tasks/{id}/", s.handleDeleteTask)

		r.Get("/categories/", s.handleListCategories)
		r.Post("/categories/", s.handleCreateCategory)
		r.Get("/categories/{id}/", s.handleGetCategory)
		r.Put("/categories/{id}/", s.handleUpdateCategory)
		r.Delete("/categories/{id}/", s.handleDeleteCategory)

		r.Get("/telegram/user/{telegramID}/tasks/", s.handleTelegramTasks)
	})

	return r
}

// requestLogger writes one summary line per request.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		level := slog.LevelInfo
		if ww.Status() >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		logger.API.LogAttrs(r.Context(), level, "request",
			slog.String("event", "request"),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("http_code", ww.Status()),
			slog.Duration("duration", logger.RoundMS(time.Since(start))),
		)
	})
}
