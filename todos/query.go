package todos

import (
	"context"
	"fmt"
	"slices"

	"github.com/coreybb/taskboard/models"
)

// ListFilter narrows a listing. Nil fields are not applied.
type ListFilter struct {
	Category *string
	Status   *string
}

// ListResult pairs the category-scoped total with the filtered, ordered view.
type ListResult struct {
	AllCount int           `json:"all_count"`
	Filtered []models.Todo `json:"filtered"`
}

// CategoryCount is one bucket of Stats.
type CategoryCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// List returns the user's todos matching filter, ordered by
// CompareForListing. AllCount honours the category filter only; the status
// filter narrows Filtered but not the total.
func (s *Service) List(ctx context.Context, user *models.User, filter ListFilter) (ListResult, error) {
	total, err := s.store.CountTodos(ctx, user.ID, filter.Category)
	if err != nil {
		return ListResult{}, fmt.Errorf("failed to count todos for user %s: %w", user.ID, err)
	}

	items, err := s.store.ListTodos(ctx, user.ID, filter.Category, filter.Status)
	if err != nil {
		return ListResult{}, fmt.Errorf("failed to list todos for user %s: %w", user.ID, err)
	}
	if items == nil {
		items = []models.Todo{}
	}

	slices.SortStableFunc(items, CompareForListing)

	return ListResult{AllCount: total, Filtered: items}, nil
}

// Stats counts the user's todos per known category, in the order of
// models.KnownCategories. Categories outside that set are not reported.
func (s *Service) Stats(ctx context.Context, user *models.User) ([]CategoryCount, error) {
	counts, err := s.store.CountTodosByCategory(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to compute stats for user %s: %w", user.ID, err)
	}

	stats := make([]CategoryCount, 0, len(models.KnownCategories))
	for _, name := range models.KnownCategories {
		stats = append(stats, CategoryCount{Name: name, Count: counts[name]})
	}
	return stats, nil
}
