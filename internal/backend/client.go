// Package backend implements the HTTP client for the task API. Every call is
// a single bounded round trip; retrying is the caller's decision, never the
// client's, because a create that timed out may still have been applied.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"taskbot/core/logger"

	"log/slog"
)

const (
	defaultTimeout      = 5 * time.Second
	defaultDialTimeout  = 5 * time.Second
	defaultTLSHandshake = 5 * time.Second
	defaultIdleTimeout  = 30 * time.Second
)

// Client talks to the task API. It holds no mutable state and may be shared
// by any number of sessions without coordination.
type Client struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
}

// New constructs a client for the given API base URL, e.g.
// "http://localhost:8000/api". A non-positive timeout falls back to 5s.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         (&net.Dialer{Timeout: defaultDialTimeout}).DialContext,
		ForceAttemptHTTP2:   true,
		MaxIdleConns:        20,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     defaultIdleTimeout,
		TLSHandshakeTimeout: defaultTLSHandshake,
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Transport: transport},
		timeout: timeout,
	}
}

// ListTasks fetches the tasks of the user mapped to the given Telegram ID.
// A user with no tasks yields an empty slice, not an error.
func (c *Client) ListTasks(ctx context.Context, telegramID int64) ([]Task, error) {
	var tasks []Task
	path := fmt.Sprintf("/telegram/user/%d/tasks/", telegramID)
	if err := c.do(ctx, http.MethodGet, path, nil, &tasks, http.StatusOK); err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []Task{}
	}
	return tasks, nil
}

// CreateTask creates a task for the chat user. When the returned error is
// ErrUnavailable the task may or may not exist on the server side.
func (c *Client) CreateTask(ctx context.Context, in NewTask) (Task, error) {
	payload := map[string]any{
		"title":       in.Title,
		"description": in.Description,
		"user":        in.TelegramID,
	}
	var task Task
	err := c.do(ctx, http.MethodPost, "/tasks/", payload, &task, http.StatusCreated)
	return task, err
}

// ListCategories fetches all categories.
func (c *Client) ListCategories(ctx context.Context) ([]Category, error) {
	var cats []Category
	if err := c.do(ctx, http.MethodGet, "/categories/", nil, &cats, http.StatusOK); err != nil {
		return nil, err
	}
	if cats == nil {
		cats = []Category{}
	}
	return cats, nil
}

// CreateCategory creates a category.
func (c *Client) CreateCategory(ctx context.Context, in NewCategory) (Category, error) {
	payload := map[string]any{"name": in.Name}
	var cat Category
	err := c.do(ctx, http.MethodPost, "/categories/", payload, &cat, http.StatusCreated)
	return cat, err
}

// GetCategory fetches one category by ID.
func (c *Client) GetCategory(ctx context.Context, id string) (Category, error) {
	var cat Category
	err := c.do(ctx, http.MethodGet, "/categories/"+id+"/", nil, &cat, http.StatusOK)
	return cat, err
}

// UpdateCategory replaces a category's fields.
func (c *Client) UpdateCategory(ctx context.Context, id string, in NewCategory) (Category, error) {
	payload := map[string]any{"name": in.Name}
	var cat Category
	err := c.do(ctx, http.MethodPut, "/categories/"+id+"/", payload, &cat, http.StatusOK)
	return cat, err
}

// DeleteCategory removes a category by ID.
func (c *Client) DeleteCategory(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/categories/"+id+"/", nil, nil, http.StatusNoContent)
}

// do performs one request and classifies the outcome into the client's error
// taxonomy. out may be nil when no body is expected.
func (c *Client) do(ctx context.Context, method, path string, body, out any, want int) error {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("backend: encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(reqCtx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("backend: build %s %s: %w", method, path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		logger.Warn(ctx, "backend.client", "request.fail",
			slog.String("status", "fail"),
			slog.String("method", method),
			slog.String("path", path),
			slog.Duration("duration", logger.Took(start)),
			slog.String("err", err.Error()),
		)
		return fmt.Errorf("%w: %s %s: %v", ErrUnavailable, method, path, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	logger.Debug(ctx, "backend.client", "request",
		slog.String("status", "ok"),
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("http_code", resp.StatusCode),
		slog.Duration("duration", logger.Took(start)),
	)

	switch {
	case resp.StatusCode == want:
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%w: %s %s: decode response: %v", ErrUnavailable, method, path, err)
		}
		return nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: %s %s: status %d", ErrUnauthorized, method, path, resp.StatusCode)
	case resp.StatusCode == http.StatusBadRequest:
		fields := map[string][]string{}
		_ = json.NewDecoder(resp.Body).Decode(&fields)
		return &InvalidError{Fields: fields}
	default:
		return fmt.Errorf("%w: %s %s: status %d", ErrUnavailable, method, path, resp.StatusCode)
	}
}
