package insights

import (
	"fmt"
	"strings"

	"github.com/s1natex/smart-tasks/internal/tasks"
)

func insightsPrompt(ts []tasks.Task) string {
	var b strings.Builder
	b.WriteString("You are an AI productivity assistant. Analyze these tasks and give detailed, structured insights:\n")
	b.WriteString("- Identify main themes or goals\n")
	b.WriteString("- Suggest areas of improvement\n")
	b.WriteString("- Highlight high-priority tasks\n\n")
	b.WriteString("Tasks:\n")
	for i, t := range ts {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "• Title: %s\n  Description: %s\n  Priority: %s", t.Title, t.Description, t.Priority)
	}
	return b.String()
}

func categorizePrompt(ts []tasks.Task) string {
	titles := make([]string, len(ts))
	for i, t := range ts {
		titles[i] = t.Title
	}
	return `Categorize these tasks into logical groups like "Work", "Personal", "Urgent", etc.
Return valid JSON ONLY in this format:
{
  "CategoryName": ["Task 1", "Task 2"],
  "AnotherCategory": ["Task 3"]
}

Tasks: ` + strings.Join(titles, ", ")
}

func titlePrompt(description string) string {
	return fmt.Sprintf("Suggest a short, clear, and professional title for this task description:\n%q", description)
}

func durationPrompt(t tasks.Task) string {
	return fmt.Sprintf(`Estimate the realistic time to complete this task:
Title: %s
Description: %s
Priority: %s

Respond briefly like "30 minutes", "2 hours", or "3 days".`, t.Title, t.Description, t.Priority)
}
