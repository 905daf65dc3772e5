// Package richtext turns the server's pre-sanitized HTML fragments into
// wrapped terminal text. Newlines inside text are kept (pre-line), since
// topics authored through the bot arrive as plain multi-line text.
package richtext

import (
	"strconv"
	"strings"

	"github.com/muesli/reflow/wordwrap"
	"golang.org/x/net/html"
)

var blockTags = map[string]bool{
	"p": true, "div": true, "section": true, "article": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"ul": true, "ol": true, "table": true, "tr": true, "blockquote": true,
	"pre": true, "hr": true,
}

// textBuf remembers the last byte written so line-start checks stay O(1).
type textBuf struct {
	sb   strings.Builder
	last byte
}

func (t *textBuf) write(s string) {
	if s == "" {
		return
	}
	t.sb.WriteString(s)
	t.last = s[len(s)-1]
}

func (t *textBuf) writeByte(c byte) {
	t.sb.WriteByte(c)
	t.last = c
}

func (t *textBuf) String() string { return t.sb.String() }

// atLineStart reports whether nothing, or only a newline, was written last.
func (t *textBuf) atLineStart() bool { return t.last == 0 || t.last == '\n' }

type listState struct {
	ordered bool
	n       int
}

// ToText converts an HTML fragment to plain text.
func ToText(src string) string {
	var (
		b     textBuf
		lists []listState
		pre   int
	)
	z := html.NewTokenizer(strings.NewReader(src))

	newline := func() {
		if !b.atLineStart() {
			b.writeByte('\n')
		}
	}

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			// io.EOF or a malformed tail: keep what was read.
			return tidy(b.String())

		case html.TextToken:
			text := string(z.Text())
			if pre == 0 {
				text = collapseSpaces(text, b.atLineStart() || b.last == ' ')
			}
			b.write(text)

		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			tag := string(name)
			switch {
			case tag == "br":
				b.writeByte('\n')
			case tag == "li":
				newline()
				if len(lists) > 0 && lists[len(lists)-1].ordered {
					lists[len(lists)-1].n++
					b.write(strings.Repeat("  ", len(lists)-1))
					b.write(strconv.Itoa(lists[len(lists)-1].n) + ". ")
				} else {
					b.write(strings.Repeat("  ", max(len(lists)-1, 0)))
					b.write("• ")
				}
			case tag == "ul" || tag == "ol":
				newline()
				if tt == html.StartTagToken {
					lists = append(lists, listState{ordered: tag == "ol"})
				}
			case tag == "td" || tag == "th":
				b.write("  ")
			case blockTags[tag]:
				newline()
				if tag == "pre" && tt == html.StartTagToken {
					pre++
				}
			}

		case html.EndTagToken:
			name, _ := z.TagName()
			tag := string(name)
			switch {
			case tag == "ul" || tag == "ol":
				if len(lists) > 0 {
					lists = lists[:len(lists)-1]
				}
				newline()
			case tag == "li":
				newline()
			case blockTags[tag]:
				if tag == "pre" && pre > 0 {
					pre--
				}
				newline()
				if tag == "p" {
					b.writeByte('\n')
				}
			}
		}
	}
}

// Render converts src to text and wraps it to width columns.
func Render(src string, width int) string {
	text := ToText(src)
	if width <= 0 {
		return text
	}
	return wordwrap.String(text, width)
}

// collapseSpaces folds runs of spaces and tabs but keeps newlines. Spaces
// at the start of a line are dropped.
func collapseSpaces(s string, atLineStart bool) string {
	var b strings.Builder
	space := false
	lineStart := atLineStart
	for _, r := range s {
		switch r {
		case ' ', '\t', '\r':
			space = !lineStart
		case '\n':
			b.WriteRune(r)
			space = false
			lineStart = true
		default:
			if space {
				b.WriteByte(' ')
			}
			space = false
			lineStart = false
			b.WriteRune(r)
		}
	}
	if space {
		b.WriteByte(' ')
	}
	return b.String()
}

// tidy trims trailing spaces per line and squeezes blank-line runs to one.
func tidy(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, l := range lines {
		l = strings.TrimRight(l, " ")
		if strings.TrimSpace(l) == "" {
			if blank || len(out) == 0 {
				continue
			}
			blank = true
			out = append(out, "")
			continue
		}
		blank = false
		out = append(out, l)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
