package engine

import (
	"fmt"
	"sort"
)

// SortProblems orders problems by week hint, then creation time. Problems
// without a week hint go last.
func SortProblems(problems []Problem) {
	sort.SliceStable(problems, func(i, j int) bool {
		a, b := problems[i], problems[j]
		switch {
		case a.Week != nil && b.Week != nil && *a.Week != *b.Week:
			return *a.Week < *b.Week
		case a.Week != nil && b.Week == nil:
			return true
		case a.Week == nil && b.Week != nil:
			return false
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
}

// GroupByList splits an ordered problem set by problem list, keeping order
func GroupByList(problems []Problem) map[string][]Problem {
	groups := make(map[string][]Problem)
	for _, p := range problems {
		groups[p.ProblemListID] = append(groups[p.ProblemListID], p)
	}
	return groups
}

// SelectProblem returns problems[index mod len] and the next index.
func SelectProblem(problems []Problem, index int) (Problem, int, error) {
	if len(problems) == 0 {
		return Problem{}, index, ErrEmptyProblemList
	}
	if index < 0 {
		return Problem{}, index, fmt.Errorf("invalid problem index %d", index)
	}
	return problems[index%len(problems)], index + 1, nil
}
