package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/eduverse/eduverse/internal/view"
)

func renderDetail(f *view.Fragment, acc *view.Accordion, width, height, scroll int, footer string) string {
	if f == nil {
		return lipglossCenter("Select a topic", width, height)
	}

	contentWidth := max(width-2, 10)

	title := detailTitleStyle.Width(contentWidth).Render(f.Topic.Title)

	structure := f.Structure(contentWidth)
	if structure == "" {
		structure = "(No structure available)"
	}
	body := detailBodyStyle.Width(contentWidth).Render(structure)

	var sections []string
	if f.Topic.Examples != "" {
		sec := formLabelStyle.Render(sectionTitle(acc, view.SectionExamples))
		if acc.IsOpen(view.SectionExamples) {
			sec += "\n" + detailBodyStyle.Width(contentWidth).Render(f.Examples(contentWidth))
		}
		sections = append(sections, sec)
	}
	if f.HasMedia() {
		sec := formLabelStyle.Render(sectionTitle(acc, view.SectionMedia))
		if acc.IsOpen(view.SectionMedia) {
			for _, line := range f.MediaLines() {
				sec += "\n" + detailLinkStyle.Width(contentWidth).Render(line)
			}
			sec += "\n" + itemDimStyle.Render("o to open")
		}
		sections = append(sections, sec)
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		title,
		body,
		"",
		joinNonEmpty(sections...),
	)
	if footer != "" {
		content += "\n\n" + footer
	}

	// Apply scroll offset
	lines := strings.Split(content, "\n")
	if scroll > 0 && scroll < len(lines) {
		lines = lines[scroll:]
	}

	// Pad to fill height
	if len(lines) < height {
		lines = append(lines, make([]string, height-len(lines))...)
	} else if len(lines) > height {
		lines = lines[:height]
	}

	return strings.Join(lines, "\n")
}
