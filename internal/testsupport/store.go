// Package testsupport provides in-memory stand-ins for the Postgres
// repositories, for use in tests only.
package testsupport

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/coreybb/taskboard/datastore"
	"github.com/coreybb/taskboard/models"
)

// TodoStore is an in-memory todos.Store with the same ownership and
// not-found semantics as datastore.TodoRepository.
type TodoStore struct {
	mu    sync.Mutex
	todos map[string]models.Todo
}

func NewTodoStore() *TodoStore {
	return &TodoStore{todos: make(map[string]models.Todo)}
}

// Get returns the stored todo regardless of owner.
func (s *TodoStore) Get(id string) (models.Todo, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	todo, ok := s.todos[id]
	return todo, ok
}

func (s *TodoStore) CreateTodo(_ context.Context, todo *models.Todo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.todos[todo.ID]; exists {
		return fmt.Errorf("duplicate todo id %s", todo.ID)
	}
	s.todos[todo.ID] = *todo
	return nil
}

func (s *TodoStore) ListTodos(_ context.Context, userID string, category, status *string) ([]models.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []models.Todo{}
	for _, t := range s.todos {
		if t.UserID != userID {
			continue
		}
		if category != nil && t.Category != *category {
			continue
		}
		if status != nil && t.Status != *status {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *TodoStore) CountTodos(ctx context.Context, userID string, category *string) (int, error) {
	items, err := s.ListTodos(ctx, userID, category, nil)
	return len(items), err
}

func (s *TodoStore) CountTodosByCategory(_ context.Context, userID string) (map[string]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	counts := make(map[string]int)
	for _, t := range s.todos {
		if t.UserID == userID {
			counts[t.Category]++
		}
	}
	return counts, nil
}

func (s *TodoStore) UpdateTodo(_ context.Context, todoID, userID string, patch models.TodoPatch, modifiedAt time.Time) (*models.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.todos[todoID]
	if !ok || t.UserID != userID {
		return nil, fmt.Errorf("todo %s: %w", todoID, sql.ErrNoRows)
	}
	if patch.Title != nil {
		t.Title = *patch.Title
	}
	if patch.Category != nil {
		t.Category = *patch.Category
	}
	if patch.Status != nil {
		t.Status = *patch.Status
	}
	if patch.Deadline.Set {
		t.Deadline = patch.Deadline.Value
	}
	if next := t.ModifiedAt.Add(time.Microsecond); modifiedAt.Before(next) {
		modifiedAt = next
	}
	t.ModifiedAt = modifiedAt

	s.todos[todoID] = t
	return &t, nil
}

func (s *TodoStore) DeleteTodo(_ context.Context, todoID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.todos[todoID]
	if !ok || t.UserID != userID {
		return fmt.Errorf("todo %s: %w", todoID, sql.ErrNoRows)
	}
	delete(s.todos, todoID)
	return nil
}

// UserStore is an in-memory credential store keyed by username.
type UserStore struct {
	mu    sync.Mutex
	users map[string]models.User
}

func NewUserStore(users ...models.User) *UserStore {
	s := &UserStore{users: make(map[string]models.User)}
	for _, u := range users {
		s.users[u.Username] = u
	}
	return s
}

func (s *UserStore) CreateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[user.Username]; exists {
		return fmt.Errorf("user %s: %w", user.Username, datastore.ErrUsernameTaken)
	}
	s.users[user.Username] = *user
	return nil
}

func (s *UserStore) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[username]
	if !ok {
		return nil, fmt.Errorf("user not found: %w", sql.ErrNoRows)
	}
	return &u, nil
}

// Remove deletes a user, simulating an account removed after a token was issued.
func (s *UserStore) Remove(username string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, username)
}
