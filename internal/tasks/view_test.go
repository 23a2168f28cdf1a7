package tasks

import (
	"reflect"
	"testing"
	"time"
)

func sampleTasks() []Task {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	at := func(h int) time.Time { return base.Add(time.Duration(h) * time.Hour) }
	return []Task{
		{ID: "1", Title: "low old", Priority: PriorityLow, CreatedAt: at(1)},
		{ID: "2", Title: "high done", Priority: PriorityHigh, Completed: true, CreatedAt: at(5)},
		{ID: "3", Title: "medium a", Priority: PriorityMedium, CreatedAt: at(3)},
		{ID: "4", Title: "high a", Priority: PriorityHigh, CreatedAt: at(2)},
		{ID: "5", Title: "medium b", Priority: PriorityMedium, Completed: true, CreatedAt: at(4)},
		{ID: "6", Title: "high b", Priority: PriorityHigh, CreatedAt: at(3)},
	}
}

func ids(ts []Task) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.ID
	}
	return out
}

func TestView_FiltersPartitionAll(t *testing.T) {
	all := sampleTasks()
	for _, s := range []Sort{SortDate, SortPriority} {
		every := View(all, FilterAll, s)
		active := View(all, FilterActive, s)
		done := View(all, FilterCompleted, s)

		if len(active)+len(done) != len(every) {
			t.Fatalf("sort=%s: %d active + %d completed != %d all", s, len(active), len(done), len(every))
		}
		seen := map[string]bool{}
		for _, x := range active {
			if x.Completed {
				t.Errorf("active view contains completed task %s", x.ID)
			}
			seen[x.ID] = true
		}
		for _, x := range done {
			if !x.Completed {
				t.Errorf("completed view contains active task %s", x.ID)
			}
			if seen[x.ID] {
				t.Errorf("task %s in both views", x.ID)
			}
			seen[x.ID] = true
		}
		for _, x := range every {
			if !seen[x.ID] {
				t.Errorf("task %s missing from partition", x.ID)
			}
		}
	}
}

func TestView_PriorityOrderIsStable(t *testing.T) {
	got := ids(View(sampleTasks(), FilterAll, SortPriority))
	want := []string{"2", "4", "6", "3", "5", "1"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestView_PriorityNeverRises(t *testing.T) {
	got := View(sampleTasks(), FilterActive, SortPriority)
	for i := 1; i < len(got); i++ {
		if got[i].Priority.Rank() < got[i-1].Priority.Rank() {
			t.Fatalf("%s (%s) follows %s (%s)", got[i].ID, got[i].Priority, got[i-1].ID, got[i-1].Priority)
		}
	}
}

func TestView_DateNewestFirst(t *testing.T) {
	got := View(sampleTasks(), FilterAll, SortDate)
	for i := 1; i < len(got); i++ {
		if got[i].CreatedAt.After(got[i-1].CreatedAt) {
			t.Fatalf("createdAt increases at %d: %v after %v", i, got[i].CreatedAt, got[i-1].CreatedAt)
		}
	}
	// 3 and 6 share a timestamp and keep their input order
	want := []string{"2", "5", "3", "6", "4", "1"}
	if !reflect.DeepEqual(ids(got), want) {
		t.Fatalf("expected %v, got %v", want, ids(got))
	}
}

func TestView_DoesNotMutateInput(t *testing.T) {
	in := sampleTasks()
	orig := ids(in)

	first := View(in, FilterAll, SortPriority)
	second := View(in, FilterAll, SortPriority)

	if !reflect.DeepEqual(ids(in), orig) {
		t.Fatalf("input reordered: %v", ids(in))
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("repeated calls differ")
	}
	first[0].Title = "changed"
	if in[1].Title == "changed" {
		t.Fatalf("view shares memory with input")
	}
}

func TestParseFilterAndSort(t *testing.T) {
	if f, err := ParseFilter(""); err != nil || f != FilterAll {
		t.Fatalf("empty filter: %v %v", f, err)
	}
	if f, err := ParseFilter("Active"); err != nil || f != FilterActive {
		t.Fatalf("Active: %v %v", f, err)
	}
	if _, err := ParseFilter("archived"); err == nil {
		t.Fatalf("expected error for unknown filter")
	}
	if s, err := ParseSort(""); err != nil || s != SortDate {
		t.Fatalf("empty sort: %v %v", s, err)
	}
	if _, err := ParseSort("title"); err == nil {
		t.Fatalf("expected error for unknown sort")
	}
}

func TestComputeStats(t *testing.T) {
	st := ComputeStats(sampleTasks())
	want := Stats{Total: 6, Active: 4, Completed: 2, HighPriority: 2, CompletionRate: 33}
	if st != want {
		t.Fatalf("expected %+v, got %+v", want, st)
	}
	if empty := ComputeStats(nil); empty != (Stats{}) {
		t.Fatalf("expected zero stats, got %+v", empty)
	}
}

func TestGroupByCompletion(t *testing.T) {
	active, done := GroupByCompletion(View(sampleTasks(), FilterAll, SortDate))
	if !reflect.DeepEqual(ids(active), []string{"3", "6", "4", "1"}) {
		t.Fatalf("active: %v", ids(active))
	}
	if !reflect.DeepEqual(ids(done), []string{"2", "5"}) {
		t.Fatalf("completed: %v", ids(done))
	}
}
