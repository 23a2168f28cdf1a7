package tasks

import (
	"fmt"
	"math"
	"slices"
	"strings"
)

type Filter string

const (
	FilterAll       Filter = "all"
	FilterActive    Filter = "active"
	FilterCompleted Filter = "completed"
)

type Sort string

const (
	SortDate     Sort = "date"
	SortPriority Sort = "priority"
)

func ParseFilter(s string) (Filter, error) {
	switch f := Filter(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FilterAll, nil
	case FilterAll, FilterActive, FilterCompleted:
		return f, nil
	default:
		return "", fmt.Errorf("unknown filter %q", s)
	}
}

func ParseSort(s string) (Sort, error) {
	switch so := Sort(strings.ToLower(strings.TrimSpace(s))); so {
	case "":
		return SortDate, nil
	case SortDate, SortPriority:
		return so, nil
	default:
		return "", fmt.Errorf("unknown sort %q", s)
	}
}

func (f Filter) keep(t Task) bool {
	switch f {
	case FilterActive:
		return !t.Completed
	case FilterCompleted:
		return t.Completed
	default:
		return true
	}
}

// View returns the filtered and sorted projection of tasks. The input is
// never modified; both orderings are stable.
func View(tasks []Task, f Filter, s Sort) []Task {
	out := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if f.keep(t) {
			out = append(out, t.clone())
		}
	}

	if s == SortPriority {
		slices.SortStableFunc(out, func(a, b Task) int {
			return a.Priority.Rank() - b.Priority.Rank()
		})
	} else {
		slices.SortStableFunc(out, func(a, b Task) int {
			return b.CreatedAt.Compare(a.CreatedAt)
		})
	}
	return out
}

// GroupByCompletion splits tasks into active and completed, keeping order.
func GroupByCompletion(tasks []Task) (active, completed []Task) {
	for _, t := range tasks {
		if t.Completed {
			completed = append(completed, t)
		} else {
			active = append(active, t)
		}
	}
	return active, completed
}

type Stats struct {
	Total          int `json:"total"`
	Active         int `json:"active"`
	Completed      int `json:"completed"`
	HighPriority   int `json:"highPriority"`
	CompletionRate int `json:"completionRate"`
}

// ComputeStats summarizes tasks. HighPriority counts only active tasks and
// CompletionRate is a rounded percentage.
func ComputeStats(tasks []Task) Stats {
	var st Stats
	st.Total = len(tasks)
	for _, t := range tasks {
		if t.Completed {
			st.Completed++
			continue
		}
		if t.Priority == PriorityHigh {
			st.HighPriority++
		}
	}
	st.Active = st.Total - st.Completed
	if st.Total > 0 {
		st.CompletionRate = int(math.Round(float64(st.Completed) / float64(st.Total) * 100))
	}
	return st
}
