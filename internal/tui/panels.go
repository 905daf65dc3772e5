package tui

import (
	"fmt"
	"strings"

	"github.com/eduverse/eduverse/internal/view"
)

func placeholder(status view.PanelStatus) string {
	if status == view.PanelFailed {
		return panelFailedStyle.Render(status.Placeholder())
	}
	return itemDimStyle.Render(status.Placeholder())
}

func renderPanels(v view.PanelsView, width, height int) string {
	var b strings.Builder

	b.WriteString(panelTitleStyle.Render("News"))
	b.WriteString("\n")
	if v.NewsStatus != view.PanelReady {
		b.WriteString(placeholder(v.NewsStatus) + "\n")
	} else if len(v.News) == 0 {
		b.WriteString(itemDimStyle.Render("No news yet") + "\n")
	}
	for _, n := range v.News {
		when := stamp(n.CreatedAt)
		line := truncateStr(n.Title, width-len(when)-3)
		b.WriteString(line + " " + itemDimStyle.Render("· "+when) + "\n")
	}

	b.WriteString("\n")
	b.WriteString(panelTitleStyle.Render("Feedback"))
	b.WriteString("\n")
	if v.FeedbackStatus != view.PanelReady {
		b.WriteString(placeholder(v.FeedbackStatus) + "\n")
	} else if len(v.Feedback) == 0 {
		b.WriteString(itemDimStyle.Render("No feedback yet") + "\n")
	}
	for _, e := range v.Feedback {
		who := e.User.String()
		if e.Topic != "" {
			who += " on " + e.Topic.String()
		}
		b.WriteString(itemTitleStyle.Render(truncateStr(who, width)) + "\n")
		b.WriteString("  " + truncateStr(e.Comment, width-2) + "\n")
	}
	switch {
	case v.Hidden > 0:
		b.WriteString(itemDimStyle.Render(fmt.Sprintf("+%d more (t to show)", v.Hidden)) + "\n")
	case v.FeedbackExpanded:
		b.WriteString(itemDimStyle.Render("t to show less") + "\n")
	}

	lines := strings.Split(strings.TrimRight(b.String(), "\n"), "\n")
	if len(lines) > height {
		lines = lines[:height]
	}
	return strings.Join(lines, "\n")
}
