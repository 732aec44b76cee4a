package taskapi

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"taskbot/core/logger"

	"log/slog"
)

// ErrNotFound is returned when the requested row does not exist.
var ErrNotFound = errors.New("taskapi: not found")

const pqUniqueViolation = "23505"

// Storage is the persistence surface the HTTP handlers depend on.
type Storage interface {
	TasksForTelegramID(ctx context.Context, telegramID int64) ([]Task, error)
	ListTasks(ctx context.Context) ([]Task, error)
	CreateTask(ctx context.Context, in TaskInput) (Task, error)
	GetTask(ctx context.Context, id string) (Task, error)
	UpdateTask(ctx context.Context, id string, in TaskInput) (Task, error)
	DeleteTask(ctx context.Context, id string) error

	ListCategories(ctx context.Context) ([]Category, error)
	CreateCategory(ctx context.Context, in CategoryInput) (Category, error)
	GetCategory(ctx context.Context, id string) (Category, error)
	UpdateCategory(ctx context.Context, id string, in CategoryInput) (Category, error)
	DeleteCategory(ctx context.Context, id string) error
}

// Store is the sqlx/Postgres implementation of Storage.
type Store struct {
	db  *sqlx.DB
	ids *IDGenerator
}

// NewStore wraps an open connection pool.
func NewStore(db *sqlx.DB, ids *IDGenerator) *Store {
	return &Store{db: db, ids: ids}
}

// resolveUser maps a Telegram ID to an account. Unlinked IDs fall back to the
// first account, creating a demo account on an empty database, so a fresh
// deployment works without a registration flow.
func (s *Store) resolveUser(ctx context.Context, telegramID int64) (int64, error) {
	var userID int64
	err := s.db.GetContext(ctx, &userID,
		`SELECT user_id FROM telegram_links WHERE telegram_id = $1`, telegramID)
	if err == nil {
		return userID, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("resolve telegram link: %w", err)
	}

	err = s.db.GetContext(ctx, &userID, `SELECT id FROM users ORDER BY id LIMIT 1`)
	if err == nil {
		logger.DB.Debug("telegram id not linked, using first account",
			slog.String("event", "user.fallback"),
			slog.Int64("user_id", userID),
		)
		return userID, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("resolve first user: %w", err)
	}

	err = s.db.GetContext(ctx, &userID,
		`INSERT INTO users (username, created_at) VALUES ($1, $2) RETURNING id`,
		"demo", time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("create demo user: %w", err)
	}
	logger.DB.Info("demo account created",
		slog.String("event", "user.demo"),
		slog.Int64("user_id", userID),
	)
	return userID, nil
}

// TasksForTelegramID returns the tasks of the account behind telegramID,
// newest first.
func (s *Store) TasksForTelegramID(ctx context.Context, telegramID int64) ([]Task, error) {
	userID, err := s.resolveUser(ctx, telegramID)
	if err != nil {
		return nil, err
	}

	var tasks []Task
	err = s.db.SelectContext(ctx, &tasks,
		`SELECT id, title, description, completed, due_date, created_at, updated_at, user_id
		   FROM tasks WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("select tasks: %w", err)
	}
	if err := s.attachCategories(ctx, tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// ListTasks returns every task, newest first.
func (s *Store) ListTasks(ctx context.Context) ([]Task, error) {
	var tasks []Task
	err := s.db.SelectContext(ctx, &tasks,
		`SELECT id, title, description, completed, due_date, created_at, updated_at, user_id
		   FROM tasks ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("select tasks: %w", err)
	}
	if err := s.attachCategories(ctx, tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// CreateTask inserts a task for the account behind in.User. The generated ID
// is retried on the unlikely collision within one microsecond.
func (s *Store) CreateTask(ctx context.Context, in TaskInput) (Task, error) {
	userID, err := s.resolveUser(ctx, in.User)
	if err != nil {
		return Task{}, err
	}

	now := time.Now().UTC()
	task := Task{
		Title:       in.Title,
		Description: in.Description,
		DueDate:     in.DueDate,
		CreatedAt:   now,
		UpdatedAt:   now,
		UserID:      userID,
		Categories:  []Category{},
	}
	if in.Completed != nil {
		task.Completed = *in.Completed
	}

	for attempt := 0; ; attempt++ {
		task.ID = s.ids.TaskID()
		_, err = s.db.ExecContext(ctx,
			`INSERT INTO tasks (id, title, description, completed, due_date, created_at, updated_at, user_id)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			task.ID, task.Title, task.Description, task.Completed,
			task.DueDate, task.CreatedAt, task.UpdatedAt, task.UserID)
		if err == nil {
			break
		}
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation && attempt < 3 {
			continue
		}
		return Task{}, fmt.Errorf("insert task: %w", err)
	}

	if err := s.setTaskCategories(ctx, task.ID, in.Categories); err != nil {
		return Task{}, err
	}
	return s.GetTask(ctx, task.ID)
}

// GetTask loads one task with its categories.
func (s *Store) GetTask(ctx context.Context, id string) (Task, error) {
	var task Task
	err := s.db.GetContext(ctx, &task,
		`SELECT id, title, description, completed, due_date, created_at, updated_at, user_id
		   FROM tasks WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return Task{}, ErrNotFound
	}
	if err != nil {
		return Task{}, fmt.Errorf("select task: %w", err)
	}
	tasks := []Task{task}
	if err := s.attachCategories(ctx, tasks); err != nil {
		return Task{}, err
	}
	return tasks[0], nil
}

// UpdateTask replaces the mutable fields of a task.
func (s *Store) UpdateTask(ctx context.Context, id string, in TaskInput) (Task, error) {
	completed := false
	if in.Completed != nil {
		completed = *in.Completed
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET title = $1, description = $2, completed = $3, due_date = $4, updated_at = $5
		  WHERE id = $6`,
		in.Title, in.Description, completed, in.DueDate, time.Now().UTC(), id)
	if err != nil {
		return Task{}, fmt.Errorf("update task: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Task{}, ErrNotFound
	}
	if in.Categories != nil {
		if err := s.setTaskCategories(ctx, id, in.Categories); err != nil {
			return Task{}, err
		}
	}
	return s.GetTask(ctx, id)
}

// DeleteTask removes a task and its category links.
func (s *Store) DeleteTask(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListCategories returns all categories ordered by name.
func (s *Store) ListCategories(ctx context.Context) ([]Category, error) {
	var cats []Category
	err := s.db.SelectContext(ctx, &cats,
		`SELECT id, name, created_at FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("select categories: %w", err)
	}
	return cats, nil
}

// CreateCategory inserts a category.
func (s *Store) CreateCategory(ctx context.Context, in CategoryInput) (Category, error) {
	cat := Category{
		Name:      in.Name,
		CreatedAt: time.Now().UTC(),
	}
	for attempt := 0; ; attempt++ {
		cat.ID = s.ids.CategoryID()
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO categories (id, name, created_at) VALUES ($1, $2, $3)`,
			cat.ID, cat.Name, cat.CreatedAt)
		if err == nil {
			return cat, nil
		}
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			if pqErr.Constraint == "categories_pkey" && attempt < 3 {
				continue
			}
			return Category{}, fmt.Errorf("insert category: %w", err)
		}
		return Category{}, fmt.Errorf("insert category: %w", err)
	}
}

// GetCategory loads one category.
func (s *Store) GetCategory(ctx context.Context, id string) (Category, error) {
	var cat Category
	err := s.db.GetContext(ctx, &cat,
		`SELECT id, name, created_at FROM categories WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return Category{}, ErrNotFound
	}
	if err != nil {
		return Category{}, fmt.Errorf("select category: %w", err)
	}
	return cat, nil
}

// UpdateCategory renames a category.
func (s *Store) UpdateCategory(ctx context.Context, id string, in CategoryInput) (Category, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE categories SET name = $1 WHERE id = $2`, in.Name, id)
	if err != nil {
		return Category{}, fmt.Errorf("update category: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Category{}, ErrNotFound
	}
	return s.GetCategory(ctx, id)
}

// DeleteCategory removes a category and its task links.
func (s *Store) DeleteCategory(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// setTaskCategories replaces the category links of a task with the named set.
// Unknown names are rejected so a typo never silently drops a link.
func (s *Store) setTaskCategories(ctx context.Context, taskID string, names []string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM task_categories WHERE task_id = $1`, taskID); err != nil {
		return fmt.Errorf("clear task categories: %w", err)
	}
	if len(names) == 0 {
		return nil
	}

	query, args, err := sqlx.In(`SELECT id, name, created_at FROM categories WHERE name IN (?)`, names)
	if err != nil {
		return fmt.Errorf("build category query: %w", err)
	}
	var cats []Category
	if err := s.db.SelectContext(ctx, &cats, s.db.Rebind(query), args...); err != nil {
		return fmt.Errorf("select categories by name: %w", err)
	}
	if len(cats) != len(names) {
		return fmt.Errorf("%w: unknown category in %v", ErrNotFound, names)
	}

	for _, cat := range cats {
		if _, err := s.db.ExecContext(ctx,
			`INSERT INTO task_categories (task_id, category_id) VALUES ($1, $2)`,
			taskID, cat.ID); err != nil {
			return fmt.Errorf("link category: %w", err)
		}
	}
	return nil
}

type taskCategoryRow struct {
	TaskID string `db:"task_id"`
	Category
}

// attachCategories fills Categories for every task in one query.
func (s *Store) attachCategories(ctx context.Context, tasks []Task) error {
	for i := range tasks {
		tasks[i].Categories = []Category{}
	}
	if len(tasks) == 0 {
		return nil
	}

	ids := make([]string, len(tasks))
	index := make(map[string]int, len(tasks))
	for i, t := range tasks {
		ids[i] = t.ID
		index[t.ID] = i
	}

	query, args, err := sqlx.In(
		`SELECT tc.task_id, c.id, c.name, c.created_at
		   FROM task_categories tc JOIN categories c ON c.id = tc.category_id
		  WHERE tc.task_id IN (?) ORDER BY c.name`, ids)
	if err != nil {
		return fmt.Errorf("build category join: %w", err)
	}

	var rows []taskCategoryRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return fmt.Errorf("select task categories: %w", err)
	}
	for _, row := range rows {
		i := index[row.TaskID]
		tasks[i].Categories = append(tasks[i].Categories, row.Category)
	}
	return nil
}
