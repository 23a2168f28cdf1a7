package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/s1natex/smart-tasks/internal/tasks"
)

var (
	accentColor = lipgloss.Color("#5FAFAF")
	subtleColor = lipgloss.Color("#666666")
	highColor   = lipgloss.Color("#AF5F5F")
	mediumColor = lipgloss.Color("#D7AF5F")
	lowColor    = lipgloss.Color("#5F87AF")

	headingStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accentColor)

	subtleStyle = lipgloss.NewStyle().
			Foreground(subtleColor)

	doneStyle = lipgloss.NewStyle().
			Strikethrough(true).
			Foreground(subtleColor)

	statsStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(subtleColor).
			Padding(0, 1)
)

const shortIDLen = 8

func priorityStyle(p tasks.Priority) lipgloss.Style {
	switch p {
	case tasks.PriorityHigh:
		return lipgloss.NewStyle().Foreground(highColor).Bold(true)
	case tasks.PriorityMedium:
		return lipgloss.NewStyle().Foreground(mediumColor)
	default:
		return lipgloss.NewStyle().Foreground(lowColor)
	}
}

func shortID(id string) string {
	if len(id) > shortIDLen {
		return id[:shortIDLen]
	}
	return id
}

// formatTask renders one task as a single line plus an optional
// indented description.
func formatTask(t tasks.Task, now time.Time) string {
	box := "[ ]"
	title := t.Title
	if t.Completed {
		box = "[x]"
		title = doneStyle.Render(title)
	}

	meta := []string{"created " + humanize.RelTime(t.CreatedAt, now, "ago", "from now")}
	if t.DueDate != nil {
		due := "due " + t.DueDate.Format("Jan 2, 2006")
		if !t.Completed && t.DueDate.Before(now) {
			due += " (overdue)"
		}
		meta = append(meta, due)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s %s %s  %s",
		subtleStyle.Render(shortID(t.ID)),
		box,
		priorityStyle(t.Priority).Render(fmt.Sprintf("%-6s", t.Priority)),
		title,
		subtleStyle.Render(strings.Join(meta, " · ")),
	)
	if d := strings.TrimSpace(t.Description); d != "" {
		b.WriteString("\n            " + d)
	}
	return b.String()
}

// formatList renders the view grouped into active and completed sections.
func formatList(view []tasks.Task, now time.Time) string {
	if len(view) == 0 {
		return subtleStyle.Render("No tasks yet. Add one with `smart-tasks add <title>`.")
	}
	active, completed := tasks.GroupByCompletion(view)

	var sections []string
	if len(active) > 0 {
		sections = append(sections, formatGroup(fmt.Sprintf("Active Tasks (%d)", len(active)), active, now))
	}
	if len(completed) > 0 {
		sections = append(sections, formatGroup(fmt.Sprintf("Completed (%d)", len(completed)), completed, now))
	}
	return strings.Join(sections, "\n\n")
}

func formatGroup(heading string, ts []tasks.Task, now time.Time) string {
	lines := make([]string, 0, len(ts)+1)
	lines = append(lines, headingStyle.Render(heading))
	for _, t := range ts {
		lines = append(lines, formatTask(t, now))
	}
	return strings.Join(lines, "\n")
}

func formatStats(s tasks.Stats) string {
	body := fmt.Sprintf("Total: %d   Active: %d   Completed: %d   High priority: %d   Done: %d%%",
		s.Total, s.Active, s.Completed, s.HighPriority, s.CompletionRate)
	return statsStyle.Render(body)
}

// renderMarkdown styles model output for the terminal, falling back to
// the raw text if glamour cannot render it.
func renderMarkdown(text string) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(88),
	)
	if err != nil {
		return text
	}
	out, err := r.Render(text)
	if err != nil {
		return text
	}
	return out
}
