package watch

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattjoyce/vellum/internal/events"
)

// TaskRun tracks one observed pass of a task through the serialiser.
type TaskRun struct {
	Name      string
	Status    string // queued, running, completed, failed, timed_out, rejected
	StartedAt time.Time
	EndedAt   time.Time
	Error     string
}

// TaskLog holds recent task runs, newest-first.
type TaskLog struct {
	runs []*TaskRun
	max  int
}

func NewTaskLog(max int) *TaskLog {
	if max <= 0 {
		max = 50
	}
	return &TaskLog{max: max}
}

// Apply folds a serialiser event into the run log. Tasks have no IDs on the
// wire, so completions attach to the newest running entry with that name.
func (l *TaskLog) Apply(e events.Event) {
	data := make(map[string]any)
	_ = json.Unmarshal(e.Data, &data)
	name, _ := data["task"].(string)
	if name == "" {
		return
	}

	switch e.Type {
	case events.TaskStarted:
		l.push(&TaskRun{Name: name, Status: "running", StartedAt: time.Now()})

	case events.TaskRejected:
		l.push(&TaskRun{Name: name, Status: "rejected", StartedAt: time.Now(), EndedAt: time.Now()})

	case events.TaskTimedOut:
		if run := l.findRunning(name); run != nil {
			run.Status = "timed_out"
			run.EndedAt = time.Now()
		}

	case events.TaskCompleted:
		run := l.findRunning(name)
		if run == nil {
			return
		}
		// A timed-out run already carries its final status; the paired
		// completion event only closes it out.
		if run.Status == "running" {
			if success, _ := data["success"].(bool); success {
				run.Status = "completed"
			} else {
				run.Status = "failed"
			}
		}
		if errText, ok := data["error"].(string); ok {
			run.Error = errText
		}
		run.EndedAt = time.Now()
	}
}

func (l *TaskLog) push(run *TaskRun) {
	l.runs = append([]*TaskRun{run}, l.runs...)
	if len(l.runs) > l.max {
		l.runs = l.runs[:l.max]
	}
}

func (l *TaskLog) findRunning(name string) *TaskRun {
	for _, run := range l.runs {
		if run.Name == name && (run.Status == "running" || run.Status == "timed_out") {
			return run
		}
	}
	return nil
}

// Running returns the newest in-flight run, if any.
func (l *TaskLog) Running() *TaskRun {
	for _, run := range l.runs {
		if run.Status == "running" {
			return run
		}
	}
	return nil
}

// Rows converts the log into table rows, newest-first.
func (l *TaskLog) Rows(limit int) []table.Row {
	rows := make([]table.Row, 0, limit)
	for i, run := range l.runs {
		if i >= limit {
			break
		}
		rows = append(rows, table.Row{
			statusGlyph(run.Status),
			run.Name,
			run.Status,
			formatRunDuration(run),
		})
	}
	return rows
}

func statusGlyph(status string) string {
	switch status {
	case "completed":
		return "✓"
	case "failed":
		return "✗"
	case "timed_out":
		return "⏱"
	case "rejected":
		return "⊘"
	case "running":
		return "▶"
	default:
		return "·"
	}
}

func formatRunDuration(run *TaskRun) string {
	if run.StartedAt.IsZero() {
		return "-"
	}
	end := run.EndedAt
	if end.IsZero() {
		end = time.Now()
	}
	d := end.Sub(run.StartedAt).Round(10 * time.Millisecond)
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return d.Round(100 * time.Millisecond).String()
}

// newTaskTable builds the recent-tasks table in its initial empty state.
func newTaskTable() table.Model {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "ST", Width: 2},
			{Title: "Task", Width: 22},
			{Title: "Status", Width: 10},
			{Title: "Duration", Width: 10},
		}),
		table.WithFocused(true),
		table.WithHeight(10),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)
	return t
}

func renderTasks(t table.Model, theme Theme, width int) string {
	innerWidth := width - 4
	content := lipgloss.JoinVertical(lipgloss.Left,
		theme.Title.Render("RECENT TASKS"),
		t.View(),
	)
	return theme.Border.Width(innerWidth).Render(content)
}
