package watch

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattjoyce/vellum/internal/events"
)

func renderEventStream(eventLog []events.Event, theme Theme, width int) string {
	innerWidth := width - 4

	if len(eventLog) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			theme.Title.Render("EVENT STREAM"),
			theme.Dim.Render("  Waiting for events..."),
		)
		return theme.Border.Width(innerWidth).Render(content)
	}

	var lines []string
	for i, e := range eventLog {
		if i >= 10 {
			break
		}
		lines = append(lines, formatEvent(e, theme))
	}

	eventsText := lipgloss.NewStyle().Padding(0, 1).Render(strings.Join(lines, "\n"))
	content := lipgloss.JoinVertical(lipgloss.Left,
		theme.Title.Render("EVENT STREAM"),
		eventsText,
	)

	return theme.Border.Width(innerWidth).Render(content)
}

func formatEvent(e events.Event, theme Theme) string {
	ts := theme.Dim.Render(e.At.Format("15:04:05"))

	// Color the event type based on category
	var typeStyle lipgloss.Style
	switch {
	case e.Type == events.TaskCompleted:
		typeStyle = theme.StatusOK
	case e.Type == events.TaskTimedOut, e.Type == events.TaskRejected, e.Type == events.QueueWarning:
		typeStyle = theme.StatusFailed
	case e.Type == events.TaskStarted:
		typeStyle = theme.StatusRunning
	case strings.HasPrefix(e.Type, "result."), strings.HasPrefix(e.Type, "history."):
		typeStyle = theme.Highlight
	default:
		typeStyle = theme.Dim
	}

	typeName := typeStyle.Render(fmt.Sprintf("%-18s", e.Type))

	// Extract brief description from data
	desc := extractEventDesc(e, theme)

	return fmt.Sprintf("%s %s %s", ts, typeName, desc)
}

func extractEventDesc(e events.Event, theme Theme) string {
	data := make(map[string]any)
	_ = json.Unmarshal(e.Data, &data)

	var parts []string

	if task, ok := data["task"].(string); ok && task != "" {
		parts = append(parts, task)
	}

	if length, ok := data["length"].(float64); ok {
		parts = append(parts, fmt.Sprintf("length=%d", int(length)))
	}

	if success, ok := data["success"].(bool); ok {
		if success {
			parts = append(parts, theme.StatusOK.Render("ok"))
		} else {
			parts = append(parts, theme.StatusFailed.Render("failed"))
		}
	}

	if errText, ok := data["error"].(string); ok && errText != "" {
		if len(errText) > 40 {
			errText = errText[:40] + "..."
		}
		parts = append(parts, theme.Dim.Render(errText))
	}

	if len(parts) == 0 {
		raw := string(e.Data)
		if len(raw) > 60 {
			raw = raw[:60] + "..."
		}
		return raw
	}

	return strings.Join(parts, " ")
}
