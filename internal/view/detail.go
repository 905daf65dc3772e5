package view

import (
	"strings"

	"github.com/eduverse/eduverse/internal/api"
	"github.com/eduverse/eduverse/internal/media"
	"github.com/eduverse/eduverse/internal/richtext"
)

// Fragment is the rendered detail of one topic.
type Fragment struct {
	Topic api.Topic
	Video media.Video
}

func Render(t api.Topic) *Fragment {
	return &Fragment{Topic: t, Video: media.Classify(t.VideoURL)}
}

func (f *Fragment) Structure(width int) string {
	return richtext.Render(f.Topic.Structure, width)
}

func (f *Fragment) Examples(width int) string {
	return richtext.Render(f.Topic.Examples, width)
}

func (f *Fragment) HasMedia() bool {
	return f.Topic.ImageURL != "" || f.Video.Kind != media.KindNone
}

// MediaLines describes the image and video slots. An absent slot yields no
// line.
func (f *Fragment) MediaLines() []string {
	var lines []string
	if f.Topic.ImageURL != "" {
		lines = append(lines, "Image: "+f.Topic.ImageURL)
	}
	switch f.Video.Kind {
	case media.KindEmbed:
		lines = append(lines, "Video (YouTube "+f.Video.ID+"): "+f.Video.EmbedURL())
	case media.KindGeneric:
		lines = append(lines, "Video: "+f.Video.URL)
	}
	return lines
}

// MediaURL is the link opened for the media section: the video when there
// is one, otherwise the image.
func (f *Fragment) MediaURL() string {
	switch f.Video.Kind {
	case media.KindEmbed:
		return f.Video.EmbedURL()
	case media.KindGeneric:
		return f.Video.URL
	}
	return f.Topic.ImageURL
}

// Document lays the fragment out as plain text. Collapsible sections are
// expanded when open reports true for them.
func (f *Fragment) Document(width int, open func(section string) bool) string {
	var b strings.Builder
	b.WriteString(f.Topic.Title)
	b.WriteString("\n\n")

	if s := f.Structure(width); s != "" {
		b.WriteString(s)
		b.WriteString("\n\n")
	}

	writeSection := func(name, title string, body func() string) {
		marker := "▸ "
		if open(name) {
			marker = "▾ "
		}
		b.WriteString(marker + title + "\n")
		if open(name) {
			b.WriteString(body())
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if f.Topic.Examples != "" {
		writeSection(SectionExamples, "Examples", func() string { return f.Examples(width) })
	}
	if f.HasMedia() {
		writeSection(SectionMedia, "Media", func() string { return strings.Join(f.MediaLines(), "\n") })
	}
	return strings.TrimRight(b.String(), "\n")
}
