package models

import (
	"bytes"
	"encoding/json"
	"time"
)

const (
	CategoryPersonal    = "personal"
	CategoryWork        = "work"
	CategoryDevelopment = "development"
)

const (
	StatusPending = "pending"
	StatusDone    = "done"
)

// KnownCategories is the closed set of categories reported by statistics,
// in reporting order.
var KnownCategories = []string{CategoryPersonal, CategoryWork, CategoryDevelopment}

// Todo is a task owned by a single user.
type Todo struct {
	ID         string     `json:"id"`
	UserID     string     `json:"user_id"`
	Title      string     `json:"title"`
	Category   string     `json:"category"`
	Status     string     `json:"status"`
	Deadline   *time.Time `json:"deadline"`
	CreatedAt  time.Time  `json:"created_at"`
	ModifiedAt time.Time  `json:"modified_at"`
}

// IsDone reports whether the todo carries the "done" status.
func (t Todo) IsDone() bool {
	return t.Status == StatusDone
}

// TodoCreate holds the client-settable fields of a new todo.
type TodoCreate struct {
	Title    string     `json:"title" validate:"required,max=255"`
	Category string     `json:"category,omitempty" validate:"max=50"`
	Status   string     `json:"status,omitempty" validate:"max=50"`
	Deadline *time.Time `json:"deadline,omitempty"`
}

// TodoPatch is a merge patch: nil pointers and unset Deadline leave the
// stored value untouched. Unlike TodoCreate, an empty category or status
// is rejected rather than defaulted.
type TodoPatch struct {
	Title    *string      `json:"title,omitempty" validate:"omitempty,min=1,max=255"`
	Category *string      `json:"category,omitempty" validate:"omitempty,min=1,max=50"`
	Status   *string      `json:"status,omitempty" validate:"omitempty,min=1,max=50"`
	Deadline OptionalTime `json:"deadline"`
}

// OptionalTime distinguishes an absent JSON key from an explicit null.
// Set is true whenever the key was present; Value is nil for null.
type OptionalTime struct {
	Set   bool
	Value *time.Time
}

func (o *OptionalTime) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Value = nil
		return nil
	}
	var t time.Time
	if err := json.Unmarshal(data, &t); err != nil {
		return err
	}
	o.Value = &t
	return nil
}
