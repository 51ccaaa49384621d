package todos

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/coreybb/taskboard/internal/testsupport"
	"github.com/coreybb/taskboard/models"
)

var (
	alice = &models.User{ID: "11111111-1111-1111-1111-111111111111", Username: "alice_1"}
	bob   = &models.User{ID: "22222222-2222-2222-2222-222222222222", Username: "bob_user"}
)

type stepClock struct {
	now  time.Time
	step time.Duration
}

func (c *stepClock) Now() time.Time {
	c.now = c.now.Add(c.step)
	return c.now
}

func newTestService(t *testing.T) (*Service, *testsupport.TodoStore) {
	t.Helper()
	store := testsupport.NewTodoStore()
	clock := &stepClock{now: time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC), step: time.Second}
	n := 0
	svc := NewService(store,
		WithClock(clock.Now),
		WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("00000000-0000-0000-0000-%012d", n)
		}),
	)
	return svc, store
}

func mustCreate(t *testing.T, svc *Service, user *models.User, fields models.TodoCreate) *models.Todo {
	t.Helper()
	todo, err := svc.Create(context.Background(), user, fields)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	return todo
}

func strPtr(s string) *string { return &s }

func TestCreate(t *testing.T) {
	svc, store := newTestService(t)

	todo := mustCreate(t, svc, alice, models.TodoCreate{Title: "  Write report  ", Category: "work"})

	if todo.UserID != alice.ID {
		t.Errorf("UserID = %q, want %q", todo.UserID, alice.ID)
	}
	if todo.Title != "Write report" {
		t.Errorf("Title = %q, want trimmed", todo.Title)
	}
	if todo.Status != models.StatusPending {
		t.Errorf("Status = %q, want %q", todo.Status, models.StatusPending)
	}
	if todo.CreatedAt.IsZero() || !todo.CreatedAt.Equal(todo.ModifiedAt) {
		t.Errorf("CreatedAt = %v, ModifiedAt = %v", todo.CreatedAt, todo.ModifiedAt)
	}
	if _, ok := store.Get(todo.ID); !ok {
		t.Fatal("todo was not persisted")
	}
}

func TestCreateDefaultsCategory(t *testing.T) {
	svc, _ := newTestService(t)
	todo := mustCreate(t, svc, alice, models.TodoCreate{Title: "Groceries"})
	if todo.Category != models.CategoryPersonal {
		t.Errorf("Category = %q, want %q", todo.Category, models.CategoryPersonal)
	}
}

func TestCreateRejectsEmptyTitle(t *testing.T) {
	svc, _ := newTestService(t)
	if _, err := svc.Create(context.Background(), alice, models.TodoCreate{Title: "   "}); !errors.Is(err, ErrInvalidTodo) {
		t.Fatalf("expected ErrInvalidTodo, got %v", err)
	}
}

func TestTitleLengthCountsCharacters(t *testing.T) {
	svc, _ := newTestService(t)

	accented := strings.Repeat("é", 255)
	todo := mustCreate(t, svc, alice, models.TodoCreate{Title: accented})
	if todo.Title != accented {
		t.Errorf("Title changed on create")
	}
	if _, err := svc.Update(context.Background(), alice, todo.ID, models.TodoPatch{Title: strPtr(strings.Repeat("日", 200))}); err != nil {
		t.Errorf("Update with multibyte title failed: %v", err)
	}

	if _, err := svc.Create(context.Background(), alice, models.TodoCreate{Title: strings.Repeat("é", 256)}); !errors.Is(err, ErrInvalidTodo) {
		t.Errorf("256-character title: expected ErrInvalidTodo, got %v", err)
	}
}

func TestFieldLengthLimits(t *testing.T) {
	long := strings.Repeat("x", 51)

	t.Run("create", func(t *testing.T) {
		tests := []struct {
			name   string
			fields models.TodoCreate
		}{
			{"category", models.TodoCreate{Title: "ok", Category: long}},
			{"status", models.TodoCreate{Title: "ok", Status: long}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				svc, store := newTestService(t)
				if _, err := svc.Create(context.Background(), alice, tt.fields); !errors.Is(err, ErrInvalidTodo) {
					t.Fatalf("expected ErrInvalidTodo, got %v", err)
				}
				if _, ok := store.Get("00000000-0000-0000-0000-000000000001"); ok {
					t.Error("invalid todo reached the store")
				}
			})
		}
	})

	t.Run("update", func(t *testing.T) {
		tests := []struct {
			name  string
			patch models.TodoPatch
		}{
			{"long category", models.TodoPatch{Category: strPtr(long)}},
			{"long status", models.TodoPatch{Status: strPtr(long)}},
			{"long title", models.TodoPatch{Title: strPtr(strings.Repeat("a", 256))}},
			{"empty category", models.TodoPatch{Category: strPtr("")}},
			{"blank status", models.TodoPatch{Status: strPtr("  ")}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				svc, store := newTestService(t)
				orig := mustCreate(t, svc, alice, models.TodoCreate{Title: "Keep"})
				if _, err := svc.Update(context.Background(), alice, orig.ID, tt.patch); !errors.Is(err, ErrInvalidTodo) {
					t.Fatalf("expected ErrInvalidTodo, got %v", err)
				}
				stored, _ := store.Get(orig.ID)
				if stored != *orig {
					t.Errorf("stored todo changed: %+v", stored)
				}
			})
		}
	})

	t.Run("at limit", func(t *testing.T) {
		svc, _ := newTestService(t)
		limit := strings.Repeat("x", 50)
		if _, err := svc.Create(context.Background(), alice, models.TodoCreate{Title: "ok", Category: limit, Status: limit}); err != nil {
			t.Fatalf("Create at limit failed: %v", err)
		}
	})
}

func TestList(t *testing.T) {
	svc, _ := newTestService(t)

	t1 := mustCreate(t, svc, alice, models.TodoCreate{Title: "T1", Category: "work", Deadline: at("2025-01-10")})
	t2 := mustCreate(t, svc, alice, models.TodoCreate{Title: "T2", Category: "work"})
	t3 := mustCreate(t, svc, alice, models.TodoCreate{Title: "T3", Category: "work", Status: "done", Deadline: at("2025-01-01")})
	t4 := mustCreate(t, svc, alice, models.TodoCreate{Title: "T4", Category: "personal"})
	mustCreate(t, svc, bob, models.TodoCreate{Title: "not alice's", Category: "work"})

	t.Run("no filters", func(t *testing.T) {
		res, err := svc.List(context.Background(), alice, ListFilter{})
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if res.AllCount != 4 {
			t.Errorf("AllCount = %d, want 4", res.AllCount)
		}
		want := []string{t1.ID, t2.ID, t4.ID, t3.ID}
		if got := ids(res.Filtered); !slices.Equal(got, want) {
			t.Errorf("order = %v, want %v", got, want)
		}
	})

	t.Run("category filter", func(t *testing.T) {
		res, err := svc.List(context.Background(), alice, ListFilter{Category: strPtr("work")})
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if res.AllCount != 3 {
			t.Errorf("AllCount = %d, want 3", res.AllCount)
		}
		want := []string{t1.ID, t2.ID, t3.ID}
		if got := ids(res.Filtered); !slices.Equal(got, want) {
			t.Errorf("order = %v, want %v", got, want)
		}
	})

	t.Run("status filter does not narrow all_count", func(t *testing.T) {
		res, err := svc.List(context.Background(), alice, ListFilter{Category: strPtr("work"), Status: strPtr("done")})
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if res.AllCount != 3 {
			t.Errorf("AllCount = %d, want 3", res.AllCount)
		}
		if got := ids(res.Filtered); !slices.Equal(got, []string{t3.ID}) {
			t.Errorf("filtered = %v, want [%s]", got, t3.ID)
		}
	})

	t.Run("empty result is a non-nil slice", func(t *testing.T) {
		res, err := svc.List(context.Background(), alice, ListFilter{Category: strPtr("development")})
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if res.Filtered == nil || len(res.Filtered) != 0 || res.AllCount != 0 {
			t.Errorf("got %+v, want empty", res)
		}
	})
}

func TestStats(t *testing.T) {
	svc, _ := newTestService(t)
	for _, c := range []string{"personal", "personal", "personal", "work", "misc"} {
		mustCreate(t, svc, alice, models.TodoCreate{Title: "x", Category: c})
	}
	mustCreate(t, svc, bob, models.TodoCreate{Title: "x", Category: "development"})

	stats, err := svc.Stats(context.Background(), alice)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	want := []CategoryCount{{"personal", 3}, {"work", 1}, {"development", 0}}
	if !slices.Equal(stats, want) {
		t.Errorf("Stats = %v, want %v", stats, want)
	}
}

func TestUpdateIsMergePatch(t *testing.T) {
	svc, _ := newTestService(t)
	orig := mustCreate(t, svc, alice, models.TodoCreate{Title: "Ship it", Category: "work", Deadline: at("2025-02-01")})

	updated, err := svc.Update(context.Background(), alice, orig.ID, models.TodoPatch{Status: strPtr("done")})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	if updated.Status != "done" {
		t.Errorf("Status = %q, want done", updated.Status)
	}
	if updated.Title != orig.Title || updated.Category != orig.Category {
		t.Errorf("untouched fields changed: %+v", updated)
	}
	if updated.Deadline == nil || !updated.Deadline.Equal(*orig.Deadline) {
		t.Errorf("Deadline = %v, want %v", updated.Deadline, orig.Deadline)
	}
	if !updated.ModifiedAt.After(orig.ModifiedAt) {
		t.Errorf("ModifiedAt %v not after %v", updated.ModifiedAt, orig.ModifiedAt)
	}
	if !updated.CreatedAt.Equal(orig.CreatedAt) {
		t.Errorf("CreatedAt changed")
	}
}

func TestUpdateEmptyPatchStillTouches(t *testing.T) {
	svc, _ := newTestService(t)
	orig := mustCreate(t, svc, alice, models.TodoCreate{Title: "Idle"})

	updated, err := svc.Update(context.Background(), alice, orig.ID, models.TodoPatch{})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if !updated.ModifiedAt.After(orig.ModifiedAt) {
		t.Errorf("ModifiedAt %v not after %v", updated.ModifiedAt, orig.ModifiedAt)
	}
}

func TestUpdateClearsDeadline(t *testing.T) {
	svc, _ := newTestService(t)
	orig := mustCreate(t, svc, alice, models.TodoCreate{Title: "Due", Deadline: at("2025-02-01")})

	updated, err := svc.Update(context.Background(), alice, orig.ID, models.TodoPatch{Deadline: models.OptionalTime{Set: true}})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Deadline != nil {
		t.Errorf("Deadline = %v, want nil", updated.Deadline)
	}
}

func TestUpdateRejectsEmptyTitle(t *testing.T) {
	svc, _ := newTestService(t)
	orig := mustCreate(t, svc, alice, models.TodoCreate{Title: "Keep"})
	if _, err := svc.Update(context.Background(), alice, orig.ID, models.TodoPatch{Title: strPtr(" ")}); !errors.Is(err, ErrInvalidTodo) {
		t.Fatalf("expected ErrInvalidTodo, got %v", err)
	}
}

func TestForeignTodoIsNotFound(t *testing.T) {
	svc, store := newTestService(t)
	todo := mustCreate(t, svc, alice, models.TodoCreate{Title: "Private"})

	if _, err := svc.Update(context.Background(), bob, todo.ID, models.TodoPatch{Title: strPtr("pwned")}); !errors.Is(err, ErrNotFound) {
		t.Errorf("Update: expected ErrNotFound, got %v", err)
	}
	if err := svc.Delete(context.Background(), bob, todo.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete: expected ErrNotFound, got %v", err)
	}

	stored, ok := store.Get(todo.ID)
	if !ok || stored.Title != "Private" {
		t.Errorf("foreign request changed the todo: %+v", stored)
	}

	_, missingErr := svc.Update(context.Background(), bob, "99999999-9999-9999-9999-999999999999", models.TodoPatch{})
	_, foreignErr := svc.Update(context.Background(), bob, todo.ID, models.TodoPatch{})
	if errors.Is(missingErr, ErrNotFound) != errors.Is(foreignErr, ErrNotFound) {
		t.Errorf("missing and foreign todos are distinguishable: %v vs %v", missingErr, foreignErr)
	}
}

func TestDelete(t *testing.T) {
	svc, store := newTestService(t)
	todo := mustCreate(t, svc, alice, models.TodoCreate{Title: "Temporary"})

	if err := svc.Delete(context.Background(), alice, todo.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, ok := store.Get(todo.ID); ok {
		t.Fatal("todo still stored after delete")
	}

	if _, err := svc.Update(context.Background(), alice, todo.ID, models.TodoPatch{Status: strPtr("done")}); !errors.Is(err, ErrNotFound) {
		t.Errorf("Update after delete: expected ErrNotFound, got %v", err)
	}
	if err := svc.Delete(context.Background(), alice, todo.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete after delete: expected ErrNotFound, got %v", err)
	}
}
