// Package taskquery filters and orders task lists for display.
package taskquery

import (
	"slices"
	"strings"

	"github.com/nhle/taskflow/internal/model"
)

// Field is a sortable task attribute.
type Field string

const (
	FieldReward       Field = "reward"
	FieldCreatedAt    Field = "createdAt"
	FieldDifficulty   Field = "difficulty"
	FieldApprovalType Field = "approvalType"
)

// Fields lists the sort fields in the order the UI offers them.
var Fields = []Field{FieldReward, FieldCreatedAt, FieldDifficulty, FieldApprovalType}

// ParseField maps user input to a Field. Unknown names report false.
func ParseField(s string) (Field, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "reward":
		return FieldReward, true
	case "createdat", "created_at", "created", "date":
		return FieldCreatedAt, true
	case "difficulty":
		return FieldDifficulty, true
	case "approvaltype", "approval_type", "approval":
		return FieldApprovalType, true
	}
	return "", false
}

// Order is the sort direction.
type Order string

const (
	Asc  Order = "asc"
	Desc Order = "desc"
)

func (o Order) sign() int {
	if o == Asc {
		return 1
	}
	return -1
}

// SortState is the active field and direction.
type SortState struct {
	Field Field
	Order Order
}

// DefaultSort orders by reward, highest first.
func DefaultSort() SortState {
	return SortState{Field: FieldReward, Order: Desc}
}

// Toggle selects field. Selecting the active field flips the order;
// selecting another field resets the order to descending.
func (s SortState) Toggle(field Field) SortState {
	if s.Field == field {
		if s.Order == Desc {
			return SortState{Field: field, Order: Asc}
		}
		return SortState{Field: field, Order: Desc}
	}
	return SortState{Field: field, Order: Desc}
}

var difficultyRank = map[model.Difficulty]int{
	model.DifficultyEasy:   1,
	model.DifficultyMedium: 2,
	model.DifficultyHard:   3,
}

// Filter returns the tasks whose title, description or category contain
// query case-insensitively. An empty query returns a copy of tasks.
func Filter(tasks []model.Task, query string) []model.Task {
	q := strings.ToLower(query)
	out := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		if q == "" ||
			strings.Contains(strings.ToLower(t.Title), q) ||
			strings.Contains(strings.ToLower(t.Description), q) ||
			strings.Contains(strings.ToLower(t.Category), q) {
			out = append(out, t)
		}
	}
	return out
}

// Sort returns a stably sorted copy of tasks. Tasks with an invalid reward
// always come after valid ones, in input order, whatever the direction.
func Sort(tasks []model.Task, state SortState) []model.Task {
	out := slices.Clone(tasks)
	if out == nil {
		out = []model.Task{}
	}
	sign := state.Order.sign()

	slices.SortStableFunc(out, func(a, b model.Task) int {
		switch state.Field {
		case FieldCreatedAt:
			return sign * a.CreatedAt.Compare(b.CreatedAt)
		case FieldDifficulty:
			return sign * (difficultyRank[a.Difficulty] - difficultyRank[b.Difficulty])
		case FieldApprovalType:
			return sign * strings.Compare(string(a.ApprovalType), string(b.ApprovalType))
		default:
			switch {
			case !a.Reward.Valid && !b.Reward.Valid:
				return 0
			case !a.Reward.Valid:
				return 1
			case !b.Reward.Valid:
				return -1
			}
			return sign * a.Reward.Cmp(b.Reward)
		}
	})
	return out
}

// Apply filters then sorts.
func Apply(tasks []model.Task, query string, state SortState) []model.Task {
	return Sort(Filter(tasks, query), state)
}
