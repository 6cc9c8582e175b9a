package insights

import (
	"fmt"
	"html"
	"regexp"
	"strings"
)

// Bullet is the glyph every unordered list marker is rewritten to.
const Bullet = "•"

// sectionMarkers open a section in generated and fallback narratives.
// "⚠" also covers "⚠️" (the variation selector follows it).
var sectionMarkers = []string{
	"🎯", "📊", "🔧", "📈", "✅", "❌", "⚠", "💡", "🚀", "🎉", "🚨", "🔴",
}

var (
	fencePattern          = regexp.MustCompile("(?s)```.*?```")
	spacePattern          = regexp.MustCompile(`[ \t]+`)
	headingPattern        = regexp.MustCompile(`^#{1,6}\s+`)
	bulletPattern         = regexp.MustCompile(`^[-*+]\s+`)
	numberedPattern       = regexp.MustCompile(`^(\d+)[.)]\s+`)
	codeSpanPattern       = regexp.MustCompile("`([^`\n]+)`")
	linkPattern           = regexp.MustCompile(`\[([^\]\n]+)\]\([^)\n]*\)`)
	boldPattern           = regexp.MustCompile(`\*\*(.+?)\*\*`)
	boldUnderscorePattern = regexp.MustCompile(`__(.+?)__`)
	italicPattern         = regexp.MustCompile(`\*([^*\n]+)\*`)
	blankRunPattern       = regexp.MustCompile(`\n{3,}`)
	numberedLinePattern   = regexp.MustCompile(`^(\d+)\.\s+(.*)$`)

	lineBreaks = strings.NewReplacer("\r\n", "\n", "\r", "\n")
)

// Normalize strips lightweight markup from generated text and re-flows it:
// bold/italic markers, headings, code spans and blocks, and link syntax are
// removed; bullets become Bullet; numbered markers are kept; whitespace runs
// collapse and at most one blank line separates blocks.
//
// Normalize(Normalize(x)) == Normalize(x) for any x.
func Normalize(raw string) string {
	s := raw
	for {
		next := normalizePass(s)
		if next == s {
			return s
		}
		s = next
	}
}

// normalizePass never grows the text, and only keeps its length while
// rewriting list markers into their final form, so repeating it reaches a
// fixed point.
func normalizePass(s string) string {
	s = lineBreaks.Replace(s)
	s = fencePattern.ReplaceAllString(s, "")

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		line = strings.TrimSpace(spacePattern.ReplaceAllString(line, " "))
		line = headingPattern.ReplaceAllString(line, "")
		line = bulletPattern.ReplaceAllString(line, Bullet+" ")
		line = numberedPattern.ReplaceAllString(line, "${1}. ")
		line = codeSpanPattern.ReplaceAllString(line, "${1}")
		line = linkPattern.ReplaceAllString(line, "${1}")
		line = boldPattern.ReplaceAllString(line, "${1}")
		line = boldUnderscorePattern.ReplaceAllString(line, "${1}")
		line = italicPattern.ReplaceAllString(line, "${1}")
		lines[i] = strings.TrimSpace(line)
	}

	s = strings.Join(lines, "\n")
	s = blankRunPattern.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// ForDisplay normalizes text for on-screen reading: every section marker
// line gets a blank line before it.
func ForDisplay(raw string) string {
	lines := strings.Split(Normalize(raw), "\n")
	out := make([]string, 0, len(lines))
	for i, line := range lines {
		if i > 0 && IsSectionMarker(line) && out[len(out)-1] != "" {
			out = append(out, "")
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

// ForDocument normalizes and HTML-escapes text, then maps each line to a
// block element. Consecutive list items of the same kind share one list.
func ForDocument(raw string) string {
	text := Normalize(raw)
	if text == "" {
		return ""
	}
	text = html.EscapeString(text)

	var b strings.Builder
	openList := ""
	closeList := func() {
		if openList != "" {
			fmt.Fprintf(&b, "</%s>", openList)
			openList = ""
		}
	}

	for _, line := range strings.Split(text, "\n") {
		switch {
		case line == "":
			closeList()
			b.WriteString("<br>")

		case IsSectionMarker(line):
			closeList()
			fmt.Fprintf(&b, `<h3 style="margin-top: 20px; margin-bottom: 10px; color: #374151;">%s</h3>`, line)

		case strings.HasPrefix(line, Bullet):
			if openList != "ul" {
				closeList()
				b.WriteString(`<ul style="margin: 10px 0; padding-left: 20px;">`)
				openList = "ul"
			}
			writeItem(&b, strings.TrimSpace(strings.TrimPrefix(line, Bullet)))

		case numberedLinePattern.MatchString(line):
			m := numberedLinePattern.FindStringSubmatch(line)
			if openList != "ol" {
				closeList()
				if m[1] == "1" {
					b.WriteString(`<ol style="margin: 10px 0; padding-left: 20px;">`)
				} else {
					fmt.Fprintf(&b, `<ol start="%s" style="margin: 10px 0; padding-left: 20px;">`, m[1])
				}
				openList = "ol"
			}
			writeItem(&b, m[2])

		default:
			closeList()
			fmt.Fprintf(&b, `<p style="margin-bottom: 10px; line-height: 1.6;">%s</p>`, line)
		}
	}
	closeList()

	return b.String()
}

// IsSectionMarker reports whether line opens a narrative section.
func IsSectionMarker(line string) bool {
	for _, m := range sectionMarkers {
		if strings.HasPrefix(line, m) {
			return true
		}
	}
	return false
}

func writeItem(b *strings.Builder, text string) {
	fmt.Fprintf(b, `<li style="margin-bottom: 5px;">%s</li>`, text)
}
