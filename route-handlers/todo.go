package routehandlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/coreybb/taskboard/models"
	"github.com/coreybb/taskboard/todos"
	"github.com/coreybb/taskboard/webutil"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// TodoHandler holds dependencies for todo route handlers. Every handler
// acts on behalf of the user in the request context only.
type TodoHandler struct {
	Service *todos.Service
}

// NewTodoHandler creates a new TodoHandler.
func NewTodoHandler(service *todos.Service) *TodoHandler {
	return &TodoHandler{Service: service}
}

// HandleGetTodos lists the caller's todos with optional category and status filters.
func (h *TodoHandler) HandleGetTodos(w http.ResponseWriter, r *http.Request) error {
	user, err := currentUser(r)
	if err != nil {
		return err
	}

	query := r.URL.Query()
	filter := todos.ListFilter{
		Category: optionalQueryParam(query.Get("category")),
		Status:   optionalQueryParam(query.Get("status")),
	}

	result, err := h.Service.List(r.Context(), user, filter)
	if err != nil {
		return fmt.Errorf("failed to retrieve todos: %w", err)
	}
	webutil.RespondWithJSON(w, http.StatusOK, result)
	return nil
}

// HandleGetStats returns per-category counts of the caller's todos.
func (h *TodoHandler) HandleGetStats(w http.ResponseWriter, r *http.Request) error {
	user, err := currentUser(r)
	if err != nil {
		return err
	}

	stats, err := h.Service.Stats(r.Context(), user)
	if err != nil {
		return fmt.Errorf("failed to retrieve todo stats: %w", err)
	}
	webutil.RespondWithJSON(w, http.StatusOK, stats)
	return nil
}

// HandleCreateTodo creates a todo owned by the caller. Any user_id in the
// body is ignored.
func (h *TodoHandler) HandleCreateTodo(w http.ResponseWriter, r *http.Request) error {
	user, err := currentUser(r)
	if err != nil {
		return err
	}

	var req models.TodoCreate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return webutil.ErrBadRequest("Invalid request payload: " + err.Error())
	}
	defer r.Body.Close()

	todo, err := h.Service.Create(r.Context(), user, req)
	if err != nil {
		if errors.Is(err, todos.ErrInvalidTodo) {
			return webutil.ErrBadRequestWrap(err.Error(), err)
		}
		return fmt.Errorf("failed to create todo: %w", err)
	}

	log.Printf("INFO: Todo created: ID=%s, UserID=%s", todo.ID, todo.UserID)
	webutil.RespondWithJSON(w, http.StatusCreated, todo)
	return nil
}

// HandleUpdateTodo merges the request body into the caller's todo.
func (h *TodoHandler) HandleUpdateTodo(w http.ResponseWriter, r *http.Request) error {
	user, err := currentUser(r)
	if err != nil {
		return err
	}
	todoID, err := todoIDParam(r)
	if err != nil {
		return err
	}

	var patch models.TodoPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		return webutil.ErrBadRequest("Invalid request payload: " + err.Error())
	}
	defer r.Body.Close()

	todo, err := h.Service.Update(r.Context(), user, todoID, patch)
	if err != nil {
		switch {
		case errors.Is(err, todos.ErrNotFound):
			return webutil.ErrNotFoundWrap("Todo not found", err)
		case errors.Is(err, todos.ErrInvalidTodo):
			return webutil.ErrBadRequestWrap(err.Error(), err)
		default:
			return fmt.Errorf("failed to update todo %s: %w", todoID, err)
		}
	}

	webutil.RespondWithJSON(w, http.StatusOK, todo)
	return nil
}

// HandleDeleteTodo hard-deletes the caller's todo.
func (h *TodoHandler) HandleDeleteTodo(w http.ResponseWriter, r *http.Request) error {
	user, err := currentUser(r)
	if err != nil {
		return err
	}
	todoID, err := todoIDParam(r)
	if err != nil {
		return err
	}

	if err := h.Service.Delete(r.Context(), user, todoID); err != nil {
		if errors.Is(err, todos.ErrNotFound) {
			return webutil.ErrNotFoundWrap("Todo not found", err)
		}
		return fmt.Errorf("failed to delete todo %s: %w", todoID, err)
	}

	log.Printf("INFO: Todo deleted: ID=%s, UserID=%s", todoID, user.ID)
	webutil.RespondWithJSON(w, http.StatusOK, map[string]bool{"ok": true})
	return nil
}

func todoIDParam(r *http.Request) (string, error) {
	todoID := chi.URLParam(r, "todo_id")
	id, err := uuid.Parse(todoID)
	if err != nil {
		return "", webutil.ErrBadRequest("Invalid todo ID format")
	}
	return id.String(), nil
}

// An empty query value counts as absent.
func optionalQueryParam(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
