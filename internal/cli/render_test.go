package cli

import (
	"strings"
	"testing"
	"time"

	"github.com/s1natex/smart-tasks/internal/tasks"
)

func TestFormatTask(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	due := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		task tasks.Task
		want []string
		not  []string
	}{
		{
			name: "active overdue",
			task: tasks.Task{ID: "0123456789", Title: "Pay rent", Priority: tasks.PriorityHigh,
				CreatedAt: now.Add(-3 * time.Minute), DueDate: &due, Description: "landlord"},
			want: []string{"01234567", "[ ]", "Pay rent", "3 minutes ago", "due Mar 1, 2025 (overdue)", "landlord"},
			not:  []string{"0123456789"},
		},
		{
			name: "completed is never overdue",
			task: tasks.Task{ID: "a", Title: "Pay rent", Priority: tasks.PriorityLow,
				Completed: true, CreatedAt: now, DueDate: &due},
			want: []string{"[x]", "due Mar 1, 2025"},
			not:  []string{"overdue"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := formatTask(tt.task, now)
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("missing %q in %q", w, got)
				}
			}
			for _, n := range tt.not {
				if strings.Contains(got, n) {
					t.Errorf("unexpected %q in %q", n, got)
				}
			}
		})
	}
}

func TestFormatList_Groups(t *testing.T) {
	now := time.Now()
	view := []tasks.Task{
		{ID: "1", Title: "open", Priority: tasks.PriorityMedium, CreatedAt: now},
		{ID: "2", Title: "shut", Priority: tasks.PriorityMedium, CreatedAt: now, Completed: true},
	}
	got := formatList(view, now)
	active := strings.Index(got, "Active Tasks (1)")
	done := strings.Index(got, "Completed (1)")
	if active < 0 || done < 0 || active > done {
		t.Fatalf("unexpected grouping:\n%s", got)
	}

	if got := formatList(nil, now); !strings.Contains(got, "No tasks yet") {
		t.Fatalf("expected empty message, got %q", got)
	}
}

func TestFormatStats(t *testing.T) {
	got := formatStats(tasks.Stats{Total: 3, Active: 2, Completed: 1, HighPriority: 1, CompletionRate: 33})
	for _, w := range []string{"Total: 3", "Active: 2", "Completed: 1", "High priority: 1", "Done: 33%"} {
		if !strings.Contains(got, w) {
			t.Errorf("missing %q in %q", w, got)
		}
	}
}

func TestFormatCategories_SortedByName(t *testing.T) {
	got := formatCategories(map[string][]string{
		"Work": {"Report", "Email"},
		"Home": {"Laundry"},
	})
	if strings.Index(got, "Home") > strings.Index(got, "Work") {
		t.Fatalf("categories not sorted:\n%s", got)
	}
	if !strings.Contains(got, "Report, Email") {
		t.Fatalf("titles not joined:\n%s", got)
	}
}

func TestRenderMarkdown_KeepsText(t *testing.T) {
	got := renderMarkdown("## Focus\nShip the release")
	if !strings.Contains(got, "Focus") || !strings.Contains(got, "Ship the release") {
		t.Fatalf("rendered output lost text: %q", got)
	}
}
