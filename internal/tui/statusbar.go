package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/eduverse/eduverse/internal/view"
)

func renderStatusBar(topicCount int, query string, lastSync time.Time, width int, m mode, polling bool) string {
	left := fmt.Sprintf(" %d topics", topicCount)
	if query != "" {
		left += fmt.Sprintf(" · %q", query)
	}
	if polling {
		left += " · syncing…"
	} else if !lastSync.IsZero() {
		left += " · synced " + humanize.Time(lastSync)
	}

	right := " / search  enter open  c comment  ? help  q quit "
	switch m {
	case modeSearch:
		right = " esc clear  enter done "
	case modeFeedback:
		right = " enter send  esc cancel "
	case modeName:
		right = " enter save  esc cancel "
	}

	gap := max(width-lipgloss.Width(left)-lipgloss.Width(right), 0)
	bar := left + fmt.Sprintf("%*s", gap, "") + right
	return statusBarStyle.Width(width).Render(bar)
}

func renderNotice(n view.Notice, width int) string {
	style := noticeInfoStyle
	switch n.Kind {
	case view.NoticeError:
		style = noticeErrorStyle
	case view.NoticeSuccess:
		style = noticeSuccessStyle
	}
	text := n.Text
	if n.Kind == view.NoticeError {
		text += "  (x to dismiss)"
	}
	return style.Render(" " + truncateStr(text, width-2))
}
