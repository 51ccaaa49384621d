// Package todos implements listing, statistics and ownership-checked
// mutations of a user's todos on top of a Store.
package todos

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/coreybb/taskboard/models"
	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when a todo does not exist or belongs to
	// another user. Callers cannot tell the two apart.
	ErrNotFound = errors.New("todo not found")
	// ErrInvalidTodo is returned for field values the service refuses to store.
	ErrInvalidTodo = errors.New("invalid todo")
)

// Store is the persistence the service runs against. Update and delete
// must match on todo ID and owner in one predicate and wrap sql.ErrNoRows
// when nothing matched.
type Store interface {
	CreateTodo(ctx context.Context, todo *models.Todo) error
	ListTodos(ctx context.Context, userID string, category, status *string) ([]models.Todo, error)
	CountTodos(ctx context.Context, userID string, category *string) (int, error)
	CountTodosByCategory(ctx context.Context, userID string) (map[string]int, error)
	UpdateTodo(ctx context.Context, todoID, userID string, patch models.TodoPatch, modifiedAt time.Time) (*models.Todo, error)
	DeleteTodo(ctx context.Context, todoID, userID string) error
}

// Service holds the todo query and mutation operations.
type Service struct {
	store Store
	now   func() time.Time
	newID func() string
}

// Option customises a Service.
type Option func(*Service)

// WithClock overrides the time source used for created_at and modified_at.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator overrides how new todo IDs are generated.
func WithIDGenerator(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

// NewService creates a new Service.
func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store: store,
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create stores a new todo owned by user.
func (s *Service) Create(ctx context.Context, user *models.User, fields models.TodoCreate) (*models.Todo, error) {
	fields.Title = strings.TrimSpace(fields.Title)
	fields.Category = strings.TrimSpace(fields.Category)
	if fields.Category == "" {
		fields.Category = models.CategoryPersonal
	}
	fields.Status = strings.TrimSpace(fields.Status)
	if fields.Status == "" {
		fields.Status = models.StatusPending
	}
	if err := validateFields(fields); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	todo := &models.Todo{
		ID:         s.newID(),
		UserID:     user.ID,
		Title:      fields.Title,
		Category:   fields.Category,
		Status:     fields.Status,
		Deadline:   utcPtr(fields.Deadline),
		CreatedAt:  now,
		ModifiedAt: now,
	}

	if err := s.store.CreateTodo(ctx, todo); err != nil {
		return nil, fmt.Errorf("failed to create todo for user %s: %w", user.ID, err)
	}
	return todo, nil
}

// Update merges patch into the user's todo. Fields absent from the patch
// keep their stored values; modified_at is refreshed on every call.
func (s *Service) Update(ctx context.Context, user *models.User, todoID string, patch models.TodoPatch) (*models.Todo, error) {
	patch.Title = trimPtr(patch.Title)
	patch.Category = trimPtr(patch.Category)
	patch.Status = trimPtr(patch.Status)
	if err := validateFields(patch); err != nil {
		return nil, err
	}
	if patch.Deadline.Set {
		patch.Deadline.Value = utcPtr(patch.Deadline.Value)
	}

	todo, err := s.store.UpdateTodo(ctx, todoID, user.ID, patch, s.now().UTC())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, todoID)
		}
		return nil, fmt.Errorf("failed to update todo %s: %w", todoID, err)
	}
	return todo, nil
}

// Delete removes the user's todo.
func (s *Service) Delete(ctx context.Context, user *models.User, todoID string) error {
	if err := s.store.DeleteTodo(ctx, todoID, user.ID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %s", ErrNotFound, todoID)
		}
		return fmt.Errorf("failed to delete todo %s: %w", todoID, err)
	}
	return nil
}

func validateFields(v any) error {
	if err := models.Validate(v); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidTodo, models.ValidationMessage(err))
	}
	return nil
}

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	return &t
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
