package datastore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/coreybb/taskboard/models"
)

// TodoRepository handles database operations for todos. Every read and
// write other than CreateTodo is scoped by the owning user's ID.
type TodoRepository struct {
	db *sql.DB
}

// NewTodoRepository creates a new TodoRepository.
func NewTodoRepository(db *sql.DB) *TodoRepository {
	return &TodoRepository{db: db}
}

const todoColumns = `id, user_id, title, category, status, deadline, created_at, modified_at`

// CreateTodo inserts a new todo record. The caller sets ID, owner and timestamps.
func (r *TodoRepository) CreateTodo(ctx context.Context, todo *models.Todo) error {
	if todo.ID == "" || todo.UserID == "" {
		return fmt.Errorf("todo ID and user ID must be set")
	}
	if todo.CreatedAt.IsZero() || todo.ModifiedAt.IsZero() {
		return fmt.Errorf("todo timestamps must be set")
	}

	query := `
		INSERT INTO todos (` + todoColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, query,
		todo.ID,
		todo.UserID,
		todo.Title,
		todo.Category,
		todo.Status,
		NewNullTime(todo.Deadline),
		todo.CreatedAt,
		todo.ModifiedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert todo: %w", err)
	}
	return nil
}

// ListTodos returns the user's todos matching the optional category and
// status filters, in creation order.
func (r *TodoRepository) ListTodos(ctx context.Context, userID string, category, status *string) ([]models.Todo, error) {
	query := `
		SELECT ` + todoColumns + `
		FROM todos
		WHERE user_id = $1
		  AND ($2::text IS NULL OR category = $2)
		  AND ($3::text IS NULL OR status = $3)
		ORDER BY created_at ASC, id ASC
	`
	rows, err := r.db.QueryContext(ctx, query, userID, nullStringPtr(category), nullStringPtr(status))
	if err != nil {
		return nil, fmt.Errorf("failed to query todos for user %s: %w", userID, err)
	}
	defer rows.Close()

	todos := []models.Todo{}
	for rows.Next() {
		todo, err := scanTodo(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan todo row for user %s: %w", userID, err)
		}
		todos = append(todos, *todo)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating todo rows for user %s: %w", userID, err)
	}
	return todos, nil
}

// CountTodos counts the user's todos, optionally restricted to one category.
func (r *TodoRepository) CountTodos(ctx context.Context, userID string, category *string) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM todos
		WHERE user_id = $1
		  AND ($2::text IS NULL OR category = $2)
	`
	var count int
	if err := r.db.QueryRowContext(ctx, query, userID, nullStringPtr(category)).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count todos for user %s: %w", userID, err)
	}
	return count, nil
}

// CountTodosByCategory groups the user's todos by category.
func (r *TodoRepository) CountTodosByCategory(ctx context.Context, userID string) (map[string]int, error) {
	query := `
		SELECT category, COUNT(id)
		FROM todos
		WHERE user_id = $1
		GROUP BY category
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query todo stats for user %s: %w", userID, err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var category string
		var count int
		if err := rows.Scan(&category, &count); err != nil {
			return nil, fmt.Errorf("failed to scan todo stats row: %w", err)
		}
		counts[category] = count
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating todo stats rows: %w", err)
	}
	return counts, nil
}

// UpdateTodo applies patch to the todo identified by todoID and owned by
// userID in a single statement and returns the stored result. modified_at
// always advances, even for an empty patch. A missing or foreign todo
// yields an error wrapping sql.ErrNoRows.
func (r *TodoRepository) UpdateTodo(ctx context.Context, todoID, userID string, patch models.TodoPatch, modifiedAt time.Time) (*models.Todo, error) {
	var sets []string
	var args []any
	set := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Title != nil {
		set("title", *patch.Title)
	}
	if patch.Category != nil {
		set("category", *patch.Category)
	}
	if patch.Status != nil {
		set("status", *patch.Status)
	}
	if patch.Deadline.Set {
		set("deadline", NewNullTime(patch.Deadline.Value))
	}

	args = append(args, modifiedAt)
	sets = append(sets, fmt.Sprintf("modified_at = GREATEST($%d, modified_at + INTERVAL '1 microsecond')", len(args)))

	args = append(args, todoID, userID)
	query := fmt.Sprintf(`
		UPDATE todos
		SET %s
		WHERE id = $%d AND user_id = $%d
		RETURNING %s
	`, strings.Join(sets, ", "), len(args)-1, len(args), todoColumns)

	todo, err := scanTodo(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("todo not found for update (ID: %s, UserID: %s): %w", todoID, userID, err)
		}
		return nil, fmt.Errorf("failed to update todo with ID %s: %w", todoID, err)
	}
	return todo, nil
}

// DeleteTodo removes the todo identified by todoID and owned by userID.
func (r *TodoRepository) DeleteTodo(ctx context.Context, todoID, userID string) error {
	query := `DELETE FROM todos WHERE id = $1 AND user_id = $2`
	result, err := r.db.ExecContext(ctx, query, todoID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete todo with ID %s: %w", todoID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected for todo delete ID %s: %w", todoID, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("todo not found for delete (ID: %s, UserID: %s): %w", todoID, userID, sql.ErrNoRows)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTodo(row rowScanner) (*models.Todo, error) {
	var t models.Todo
	var deadline sql.NullTime
	if err := row.Scan(
		&t.ID,
		&t.UserID,
		&t.Title,
		&t.Category,
		&t.Status,
		&deadline,
		&t.CreatedAt,
		&t.ModifiedAt,
	); err != nil {
		return nil, err
	}
	if deadline.Valid {
		d := deadline.Time.UTC()
		t.Deadline = &d
	}
	t.CreatedAt = t.CreatedAt.UTC()
	t.ModifiedAt = t.ModifiedAt.UTC()
	return &t, nil
}

// NewNullTime converts an optional timestamp into its SQL form.
func NewNullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullStringPtr(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
