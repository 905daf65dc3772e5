package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/x/ansi"
	"github.com/eduverse/eduverse/internal/api"
	"github.com/eduverse/eduverse/internal/view"
)

func relativeTime(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	default:
		return t.Format("Jan 2")
	}
}

// stamp shows a timestamp relative to now when it parsed, raw otherwise.
func stamp(ts api.Timestamp) string {
	if !ts.Time.IsZero() {
		return relativeTime(ts.Time)
	}
	return ts.Raw
}

// truncateStr shortens s to n terminal cells, ending in "..." when there is
// room for it.
func truncateStr(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if n <= 3 {
		return ansi.Truncate(s, n, "")
	}
	return ansi.Truncate(s, n, "...")
}

func renderListItem(t api.Topic, cursor, active bool, width int) string {
	if width < 10 {
		width = 30
	}
	title := truncateStr(t.Title, width-4)
	switch {
	case cursor:
		return itemCursorStyle.Render("> " + title)
	case active:
		return itemActiveStyle.Render("• " + title)
	default:
		return itemTitleStyle.Render("  " + title)
	}
}

func renderList(s *view.State, cursor int, height int, width int) string {
	switch s.ListStatus() {
	case view.ListLoading:
		return lipglossCenter("Loading topics…", width, height)
	case view.ListFailed:
		return lipglossCenter("Could not load topics: "+s.ListError(), width, height) +
			"\n\n" + itemDimStyle.Render(centerLine("press r to retry", width))
	case view.ListNoResults:
		return renderNoResults(s, width, height)
	}

	topics := s.Visible()
	visible := max(height, 1)

	// Calculate scroll offset
	start := 0
	if cursor >= visible {
		start = cursor - visible + 1
	}
	end := start + visible
	if end > len(topics) {
		end = len(topics)
		start = max(end-visible, 0)
	}

	var b strings.Builder
	for i := start; i < end; i++ {
		b.WriteString(renderListItem(topics[i], i == cursor, s.IsSelected(topics[i].ID), width))
		if i < end-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func renderNoResults(s *view.State, width, height int) string {
	msg := "No topics found"
	if s.Query() != "" {
		msg = fmt.Sprintf("No topics match %q", s.Query())
	}
	out := lipglossCenter(truncateStr(msg, width), width, height)
	if sugg := s.Suggestions(); len(sugg) > 0 {
		out += "\n\n" + itemDimStyle.Render(centerLine("Did you mean:", width))
		for _, t := range sugg {
			out += "\n" + itemTitleStyle.Render(centerLine(truncateStr(t.Title, width-2), width))
		}
	}
	return out
}

func centerLine(s string, width int) string {
	pad := max((width-ansi.StringWidth(s))/2, 0)
	return strings.Repeat(" ", pad) + s
}

func lipglossCenter(s string, width, height int) string {
	return strings.Repeat("\n", height/3) + centerLine(s, width)
}
