// Package output provides formatters for CLI output.
package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"famcal/internal/engine"
	"famcal/internal/service"
)

const (
	// DaySeparator is the separator line for day sections.
	DaySeparator = "------------"

	// DayLayout is the day header layout, e.g. "Thu 2025-06-05".
	DayLayout = "Mon 2006-01-02"

	// NotFetchedNote marks a kanban column whose tasks were not loaded.
	NotFetchedNote = "  (outside fetched month)"
)

var weekdays = []string{"Mo", "Tu", "We", "Th", "Fr", "Sa", "Su"}

// FormatDayHeader formats a day section header. The selected day is marked
// with " *".
func FormatDayHeader(w io.Writer, day time.Time, selected bool) {
	title := day.Format(DayLayout)
	if selected {
		title += " *"
	}
	fmt.Fprintln(w, DaySeparator)
	fmt.Fprintln(w, title)
	fmt.Fprintln(w, DaySeparator)
}

// FormatTask formats a task line.
// Format: "{ID:>6}  {TIME:<11}  {TITLE}[ [tags]]\n"
func FormatTask(w io.Writer, task service.Task) {
	line := fmt.Sprintf("%6d  %-11s  %s", task.ID, TimeRange(task), normalizeTitle(task.Title))
	if len(task.Tags) > 0 {
		line += " [" + strings.Join(task.Tags, ", ") + "]"
	}
	fmt.Fprintln(w, strings.TrimRight(line, " "))
}

// FormatDay formats one day section with its tasks.
func FormatDay(w io.Writer, day engine.Day) {
	FormatDayHeader(w, day.Date, day.Selected)
	for _, t := range day.Tasks {
		FormatTask(w, t)
	}
}

// FormatKanbanColumn is FormatDay for kanban columns. A column past the
// fetched month shows NotFetchedNote instead of an empty list.
func FormatKanbanColumn(w io.Writer, day engine.Day) {
	FormatDay(w, day)
	if !day.InMonth {
		fmt.Fprintln(w, NotFetchedNote)
	}
}

// TimeRange formats "HH:MM–HH:MM", a single time when only one end is set,
// or "" for untimed tasks. Seconds are dropped.
func TimeRange(task service.Task) string {
	start, end := clock(task.StartTime), clock(task.EndTime)
	switch {
	case start != "" && end != "":
		return start + "–" + end
	case start != "":
		return start
	default:
		return end
	}
}

func clock(s string) string {
	if len(s) > 5 {
		return s[:5]
	}
	return s
}

// FormatGrid formats a month grid. Each cell shows the day of month, "*"
// on the selected day, and "+N" when the day has N tasks. Days outside the
// month show as ".".
func FormatGrid(w io.Writer, month time.Time, days []engine.Day) {
	fmt.Fprintln(w, month.Format("January 2006"))

	var b strings.Builder
	for _, wd := range weekdays {
		fmt.Fprintf(&b, "%-6s", wd)
	}
	fmt.Fprintln(w, strings.TrimRight(b.String(), " "))

	for row := 0; row*7 < len(days); row++ {
		b.Reset()
		for _, d := range days[row*7 : min(row*7+7, len(days))] {
			b.WriteString(gridCell(d))
		}
		fmt.Fprintln(w, strings.TrimRight(b.String(), " "))
	}
}

func gridCell(d engine.Day) string {
	if !d.InMonth {
		return fmt.Sprintf("%-6s", " .")
	}
	cell := fmt.Sprintf("%2d", d.Date.Day())
	if d.Selected {
		cell += "*"
	}
	if n := len(d.Tasks); n > 0 {
		cell += fmt.Sprintf("+%d", n)
	}
	return fmt.Sprintf("%-6s", cell)
}

// FormatGroup formats a group line: "{ID:>6}  {NAME}".
func FormatGroup(w io.Writer, g service.Group) {
	fmt.Fprintf(w, "%6d  %s\n", g.ID, normalizeName(g.Name))
}

// FormatMember formats a member line with role and block markers.
func FormatMember(w io.Writer, m service.Member) {
	line := fmt.Sprintf("%10d  %s", m.UserID, m.DisplayName())
	if m.Username != "" && m.DisplayName() != m.Username {
		line += " (@" + m.Username + ")"
	}
	if m.IsOwner() {
		line += " [owner]"
	}
	if m.Blocked {
		line += " [blocked]"
	}
	fmt.Fprintln(w, line)
}

// normalizeTitle normalizes a task title for display.
// - Empty or whitespace-only titles become "(untitled)"
// - Newlines are replaced with spaces
func normalizeTitle(title string) string {
	// Replace newlines with spaces
	title = strings.ReplaceAll(title, "\r", " ")
	title = strings.ReplaceAll(title, "\n", " ")

	// Trim and check for empty
	if strings.TrimSpace(title) == "" {
		return "(untitled)"
	}
	return title
}

// normalizeName normalizes a group name for display.
// Empty or whitespace-only names become "(untitled)".
func normalizeName(name string) string {
	if strings.TrimSpace(name) == "" {
		return "(untitled)"
	}
	return name
}
