package todos

import (
	"cmp"

	"github.com/coreybb/taskboard/models"
)

// CompareForListing orders todos for display. Keys, most significant first:
//  1. not done before done
//  2. with a deadline before without
//  3. earlier deadline first
//  4. earlier created_at first
//
// ID breaks any remaining tie so the order is total.
func CompareForListing(a, b models.Todo) int {
	if c := cmp.Compare(doneRank(a), doneRank(b)); c != 0 {
		return c
	}
	if c := cmp.Compare(missingDeadlineRank(a), missingDeadlineRank(b)); c != 0 {
		return c
	}
	if a.Deadline != nil && b.Deadline != nil {
		if c := a.Deadline.Compare(*b.Deadline); c != 0 {
			return c
		}
	}
	if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

func doneRank(t models.Todo) int {
	if t.IsDone() {
		return 1
	}
	return 0
}

func missingDeadlineRank(t models.Todo) int {
	if t.Deadline == nil {
		return 1
	}
	return 0
}
