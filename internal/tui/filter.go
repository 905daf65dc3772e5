package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/eduverse/eduverse/internal/view"
)

var sectionLabels = map[string]string{
	view.SectionExamples: "Examples",
	view.SectionMedia:    "Media",
}

var sectionKeys = map[string]string{
	view.SectionExamples: "e",
	view.SectionMedia:    "m",
}

// renderSectionBar draws one tab per collapsible detail section, with the
// open one highlighted.
func renderSectionBar(acc *view.Accordion, width int) string {
	sep := tabSeparatorStyle.Render(" · ")
	var parts []string

	for _, s := range acc.Sections() {
		style := tabInactiveStyle
		if acc.IsOpen(s) {
			style = tabActiveStyle
		}
		parts = append(parts, style.Render(sectionKeys[s]+" "+sectionLabels[s]))
	}

	// Build row with · separators, stopping when we'd exceed width
	var row string
	for i, part := range parts {
		candidate := row
		if i > 0 {
			candidate += sep
		}
		candidate += part
		if lipgloss.Width(candidate) > width && row != "" {
			break
		}
		row = candidate
	}

	barStyle := lipgloss.NewStyle().
		Background(colorSurface).
		Width(width).
		PaddingLeft(1)
	return barStyle.Render(row)
}

func sectionTitle(acc *view.Accordion, section string) string {
	marker := "▸ "
	if acc.IsOpen(section) {
		marker = "▾ "
	}
	return marker + sectionLabels[section] + " (" + sectionKeys[section] + ")"
}

func joinNonEmpty(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "\n\n")
}
