// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package marker implements the marker-annotated intermediate text format:
// extraction wraps text runs in {{sig:ID|text}} markers binding them to a
// font signature, cleanup passes transform the annotated text, and
// resolution converts markers into Markdown headings and blockquotes.
package marker

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	openDelim  = "{{sig:"
	closeDelim = "}}"
)

// Marker binds a run of text to a signature ID.
type Marker struct {
	ID   int
	Text string
}

// Segment is one slice of a parsed line: either a marker or plain text
// between markers.
type Segment struct {
	Marker *Marker
	Text   string
}

// Format renders a marker, escaping the delimiter characters in text.
func Format(id int, text string) string {
	return fmt.Sprintf("%s%d|%s%s", openDelim, id, escapeText(text), closeDelim)
}

// escapeText protects characters that would confuse the marker scanner.
func escapeText(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '\\', '|', '{', '}':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// unescapeText reverses escapeText.
func unescapeText(s string) string {
	var b strings.Builder
	escaped := false
	for _, r := range s {
		if escaped {
			b.WriteRune(r)
			escaped = false
			continue
		}
		if r == '\\' {
			escaped = true
			continue
		}
		b.WriteRune(r)
	}
	if escaped {
		b.WriteByte('\\')
	}
	return b.String()
}

// ParseLine splits a line into marker and plain-text segments. Malformed
// marker syntax is passed through as plain text.
func ParseLine(line string) []Segment {
	var segments []Segment
	plain := strings.Builder{}
	flushPlain := func() {
		if plain.Len() > 0 {
			segments = append(segments, Segment{Text: plain.String()})
			plain.Reset()
		}
	}

	for i := 0; i < len(line); {
		if !strings.HasPrefix(line[i:], openDelim) {
			plain.WriteByte(line[i])
			i++
			continue
		}
		m, consumed := scanMarker(line[i:])
		if m == nil {
			plain.WriteByte(line[i])
			i++
			continue
		}
		flushPlain()
		segments = append(segments, Segment{Marker: m})
		i += consumed
	}
	flushPlain()
	return segments
}

// scanMarker reads one marker starting at the open delimiter. Returns nil
// when the syntax is malformed.
func scanMarker(s string) (*Marker, int) {
	rest := s[len(openDelim):]

	id := 0
	digits := 0
	for digits < len(rest) && rest[digits] >= '0' && rest[digits] <= '9' {
		id = id*10 + int(rest[digits]-'0')
		digits++
	}
	if digits == 0 || digits >= len(rest) || rest[digits] != '|' {
		return nil, 0
	}

	body := rest[digits+1:]
	var text strings.Builder
	escaped := false
	for i := 0; i < len(body); i++ {
		c := body[i]
		if escaped {
			text.WriteByte(c)
			escaped = false
			continue
		}
		switch {
		case c == '\\':
			escaped = true
		case strings.HasPrefix(body[i:], closeDelim):
			consumed := len(openDelim) + digits + 1 + i + len(closeDelim)
			return &Marker{ID: id, Text: text.String()}, consumed
		default:
			text.WriteByte(c)
		}
	}
	return nil, 0
}

// PlainText flattens a line to its visible text, markers unwrapped.
func PlainText(line string) string {
	var b strings.Builder
	for _, seg := range ParseLine(line) {
		if seg.Marker != nil {
			b.WriteString(seg.Marker.Text)
		} else {
			b.WriteString(seg.Text)
		}
	}
	return b.String()
}

// FirstMarker returns the first marker on the line, or nil.
func FirstMarker(line string) *Marker {
	for _, seg := range ParseLine(line) {
		if seg.Marker != nil {
			return seg.Marker
		}
	}
	return nil
}

// RenderSegments re-assembles a line from segments.
func RenderSegments(segments []Segment) string {
	var b strings.Builder
	for _, seg := range segments {
		if seg.Marker != nil {
			b.WriteString(Format(seg.Marker.ID, seg.Marker.Text))
		} else {
			b.WriteString(seg.Text)
		}
	}
	return b.String()
}

var pageBreakRe = regexp.MustCompile(`^<!-- page (\d+) -->$`)

// PageBreak renders the page-break comment for page n.
func PageBreak(n int) string {
	return fmt.Sprintf("<!-- page %d -->", n)
}

// IsPageBreak reports whether the line is a page-break comment. Page-break
// comments are never transformed by any pass.
func IsPageBreak(line string) bool {
	return pageBreakRe.MatchString(strings.TrimSpace(line))
}
